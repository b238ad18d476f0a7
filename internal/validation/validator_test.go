package validation

import (
	"errors"
	"testing"
)

type sample struct {
	Title string   `json:"title" validate:"required,max=5"`
	Kind  string   `json:"kind" validate:"required,oneof=course video book"`
	Link  string   `json:"link,omitempty" validate:"omitempty,url"`
	Score *float64 `json:"score" validate:"required"`
}

func TestStructValid(t *testing.T) {
	score := 3.0
	if err := Struct(sample{Title: "Go", Kind: "video", Score: &score}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestStructCollectsFieldErrors(t *testing.T) {
	err := Struct(sample{Title: "too long", Kind: "podcast", Link: "not a url"})
	var reqErr *RequestError
	if !errors.As(err, &reqErr) {
		t.Fatalf("err = %T, want *RequestError", err)
	}
	got := map[string]string{}
	for _, f := range reqErr.Fields {
		got[f.Field] = f.Tag
	}
	want := map[string]string{"title": "max", "kind": "oneof", "link": "url", "score": "required"}
	for field, tag := range want {
		if got[field] != tag {
			t.Fatalf("field %s tag = %q, want %q (all: %v)", field, got[field], tag, got)
		}
	}
	if reqErr.Error() == "" {
		t.Fatalf("empty message")
	}
	if _, ok := reqErr.Details()["fields"]; !ok {
		t.Fatalf("details missing fields")
	}
}
