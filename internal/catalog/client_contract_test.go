package catalog

import (
	"context"
	"os"
	"testing"
	"time"
)

// TestHTTPClientSmoke checks that the client can parse at least one record
// from a live catalog service.
func TestHTTPClientSmoke(t *testing.T) {
	baseURL := os.Getenv("CATALOG_URL")
	if baseURL == "" {
		t.Skip("CATALOG_URL not provided")
	}
	client, err := NewHTTPClient(baseURL, os.Getenv("CATALOG_API_KEY"), 3*time.Second, nil)
	if err != nil {
		t.Fatalf("create http client: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	result, err := client.Lookup(ctx, "9780134190440")
	if err != nil {
		t.Fatalf("lookup: %v", err)
	}
	if result.Title == "" {
		t.Fatalf("unexpected catalog payload: %+v", result)
	}
}
