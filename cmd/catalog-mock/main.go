package main

import (
	"encoding/json"
	"flag"
	"log"
	"net/http"
	"os"
	"strings"

	"go.uber.org/zap"

	"github.com/Clark-Hu/learnhub/internal/catalog"
)

type bookEntry struct {
	ISBN          string   `json:"isbn"`
	Title         string   `json:"title"`
	Authors       []string `json:"authors,omitempty"`
	Publisher     *string  `json:"publisher"`
	PageCount     *int     `json:"pageCount"`
	PublishedDate *string  `json:"publishedDate"`
}

func main() {
	var (
		port   = flag.String("port", "9099", "port to listen on")
		data   = flag.String("data", "mock-catalog.json", "path to mock data file keyed by ISBN")
		apiKey = flag.String("api-key", "", "require this X-API-Key value when set")
	)
	flag.Parse()

	logger, err := zap.NewDevelopment()
	if err != nil {
		log.Fatalf("init logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	file, err := os.ReadFile(*data)
	if err != nil {
		logger.Fatal("read mock data", zap.Error(err))
	}

	var raw map[string]bookEntry
	if err := json.Unmarshal(file, &raw); err != nil {
		logger.Fatal("parse mock data", zap.Error(err))
	}
	books := make(map[string]bookEntry, len(raw))
	for isbn, entry := range raw {
		normalized, err := catalog.NormalizeISBN(isbn)
		if err != nil {
			logger.Warn("skipping entry with invalid isbn", zap.String("isbn", isbn))
			continue
		}
		entry.ISBN = normalized
		books[normalized] = entry
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/books", func(w http.ResponseWriter, r *http.Request) {
		if *apiKey != "" && r.Header.Get("X-API-Key") != *apiKey {
			http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
			return
		}
		isbn, err := catalog.NormalizeISBN(strings.TrimSpace(r.URL.Query().Get("isbn")))
		if err != nil {
			http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
			return
		}
		entry, ok := books[isbn]
		if !ok {
			http.Error(w, http.StatusText(http.StatusNotFound), http.StatusNotFound)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(entry); err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
		}
		logger.Debug("served book", zap.String("isbn", isbn))
	})

	addr := ":" + *port
	logger.Info("mock catalog listening", zap.String("addr", addr), zap.Int("entries", len(books)))
	if err := http.ListenAndServe(addr, mux); err != nil {
		logger.Fatal("server error", zap.Error(err))
	}
}
