package backend

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/conceptclarity/clarity/internal/gateway"
)

// ErrNoMedia means the lookup found nothing for the term.
var ErrNoMedia = errors.New("no media found")

// MediaSource finds an illustration for a search term.
type MediaSource interface {
	Lookup(ctx context.Context, term string) (*gateway.Media, error)
}

// NoMedia is the MediaSource used when lookups are disabled.
type NoMedia struct{}

func (NoMedia) Lookup(context.Context, string) (*gateway.Media, error) {
	return nil, errors.New("media lookup is disabled")
}

// Wikipedia looks up the page summary thumbnail of a term.
type Wikipedia struct {
	BaseURL string
	Client  *http.Client
}

// NewWikipedia returns a Wikipedia source for the English encyclopedia.
func NewWikipedia() *Wikipedia {
	return &Wikipedia{
		BaseURL: "https://en.wikipedia.org/api/rest_v1/page/summary/",
		Client:  &http.Client{Timeout: 10 * time.Second},
	}
}

type wikiSummary struct {
	Thumbnail struct {
		Source string `json:"source"`
	} `json:"thumbnail"`
	OriginalImage struct {
		Source string `json:"source"`
	} `json:"originalimage"`
}

func (w *Wikipedia) Lookup(ctx context.Context, term string) (*gateway.Media, error) {
	title := url.PathEscape(strings.ReplaceAll(strings.TrimSpace(term), " ", "_"))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, w.BaseURL+title, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := w.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("wikipedia: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, ErrNoMedia
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("wikipedia: status %d", resp.StatusCode)
	}

	var sum wikiSummary
	if err := json.NewDecoder(io.LimitReader(resp.Body, 1<<20)).Decode(&sum); err != nil {
		return nil, fmt.Errorf("wikipedia: decode: %w", err)
	}
	img := sum.Thumbnail.Source
	if img == "" {
		img = sum.OriginalImage.Source
	}
	if img == "" {
		return nil, ErrNoMedia
	}
	return &gateway.Media{ImageURL: img}, nil
}
