package repository

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"time"

	"github.com/Clark-Hu/learnhub/internal/domain"
)

// Page size bounds for content listings.
const (
	DefaultListLimit = 20
	MaxListLimit     = 100
)

// ContentListFilters encapsulates search and pagination options.
type ContentListFilters struct {
	Kind         *domain.ContentKind
	Query        *string
	InstructorID *string
	Limit        int
	Cursor       *ContentCursor
}

// Normalize clamps Limit into [1, MaxListLimit].
func (f *ContentListFilters) Normalize() {
	if f.Limit <= 0 {
		f.Limit = DefaultListLimit
	} else if f.Limit > MaxListLimit {
		f.Limit = MaxListLimit
	}
}

// ContentCursor allows stable pagination by created_at/id.
type ContentCursor struct {
	CreatedAt time.Time `json:"createdAt"`
	ID        string    `json:"id"`
}

// After reports whether (createdAt, id) sorts strictly after the cursor in
// descending order, i.e. belongs to the next page.
func (c ContentCursor) After(createdAt time.Time, id string) bool {
	if createdAt.Equal(c.CreatedAt) {
		return id < c.ID
	}
	return createdAt.Before(c.CreatedAt)
}

// ContentListResult returns the paginated payload.
type ContentListResult struct {
	Items      []domain.ContentItem
	NextCursor *string
}

// NextPageCursor returns the cursor token for a full page, or nil.
func NextPageCursor(items []domain.ContentItem, limit int) (*string, error) {
	if len(items) == 0 || len(items) < limit {
		return nil, nil
	}
	last := items[len(items)-1]
	token, err := EncodeCursor(ContentCursor{CreatedAt: last.CreatedAt, ID: last.ID})
	if err != nil {
		return nil, err
	}
	return &token, nil
}

// EncodeCursor serializes a cursor into an opaque token.
func EncodeCursor(c ContentCursor) (string, error) {
	payload, err := json.Marshal(c)
	if err != nil {
		return "", err
	}
	return base64.URLEncoding.EncodeToString(payload), nil
}

// DecodeCursor parses a cursor token into a ContentCursor.
func DecodeCursor(token string) (*ContentCursor, error) {
	if token == "" {
		return nil, nil
	}
	data, err := base64.URLEncoding.DecodeString(token)
	if err != nil {
		return nil, fmt.Errorf("invalid cursor: %w", err)
	}
	var cursor ContentCursor
	if err := json.Unmarshal(data, &cursor); err != nil {
		return nil, fmt.Errorf("invalid cursor payload: %w", err)
	}
	if cursor.ID == "" {
		return nil, fmt.Errorf("invalid cursor payload: missing id")
	}
	return &cursor, nil
}
