// Package ingestion gathers background material that grounds outline
// generation: local text files and article-style web pages.
package ingestion

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/sync/errgroup"
)

// DefaultTimeout is the HTTP request timeout for material fetches.
const DefaultTimeout = 30 * time.Second

// DefaultUserAgent identifies material fetches.
const DefaultUserAgent = "Mozilla/5.0 (compatible; PodcastScripter/1.0)"

// maxConcurrentFetches bounds parallel URL fetches.
const maxConcurrentFetches = 4

// FetchError represents a failure to retrieve one material source.
type FetchError struct {
	Source  string
	Message string
	Cause   error
}

func (e *FetchError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("failed to ingest %s: %s: %v", e.Source, e.Message, e.Cause)
	}
	return fmt.Sprintf("failed to ingest %s: %s", e.Source, e.Message)
}

func (e *FetchError) Unwrap() error {
	return e.Cause
}

// Material is one ingested source.
type Material struct {
	Source string `json:"source"`
	Text   string `json:"text"`
}

// FromFile reads a local text file as material.
func FromFile(path string) (*Material, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &FetchError{Source: path, Message: "read failed", Cause: err}
	}
	return &Material{Source: path, Text: strings.TrimSpace(string(data))}, nil
}

// FromURL fetches a web page and extracts its main text.
func FromURL(ctx context.Context, urlStr string) (*Material, error) {
	parsed, err := url.Parse(urlStr)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return nil, &FetchError{Source: urlStr, Message: "invalid URL", Cause: err}
	}

	client := &http.Client{Timeout: DefaultTimeout}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, urlStr, nil)
	if err != nil {
		return nil, &FetchError{Source: urlStr, Message: "failed to create request", Cause: err}
	}
	req.Header.Set("User-Agent", DefaultUserAgent)

	resp, err := client.Do(req)
	if err != nil {
		return nil, &FetchError{Source: urlStr, Message: "HTTP request failed", Cause: err}
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, &FetchError{Source: urlStr, Message: fmt.Sprintf("HTTP status %d", resp.StatusCode)}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &FetchError{Source: urlStr, Message: "failed to read response body", Cause: err}
	}

	text, err := ExtractMainText(string(body))
	if err != nil {
		return nil, &FetchError{Source: urlStr, Message: "text extraction failed", Cause: err}
	}
	return &Material{Source: urlStr, Text: text}, nil
}

// FromURLs fetches multiple pages concurrently, preserving input order.
// A failed URL does not abort the others: the first error is returned
// alongside every material that was fetched successfully.
func FromURLs(ctx context.Context, urls []string) ([]*Material, error) {
	results := make([]*Material, len(urls))

	var g errgroup.Group
	g.SetLimit(maxConcurrentFetches)
	for i, u := range urls {
		g.Go(func() error {
			m, err := FromURL(ctx, u)
			if err != nil {
				return err
			}
			results[i] = m
			return nil
		})
	}
	err := g.Wait()

	kept := make([]*Material, 0, len(results))
	for _, m := range results {
		if m != nil {
			kept = append(kept, m)
		}
	}
	return kept, err
}

// Combine joins materials into one prompt-ready block with source markers.
func Combine(materials []*Material) string {
	var sb strings.Builder
	for _, m := range materials {
		if m == nil || m.Text == "" {
			continue
		}
		if sb.Len() > 0 {
			sb.WriteString("\n\n")
		}
		fmt.Fprintf(&sb, "Source: %s\n%s", m.Source, m.Text)
	}
	return sb.String()
}

// mainTextSelectors are tried in order; the first match wins.
var mainTextSelectors = []string{"article", "main", "[role=main]", "#content", ".content", "body"}

// ExtractMainText pulls readable text from an HTML document, skipping
// navigation, scripts, and styling.
func ExtractMainText(html string) (string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return "", err
	}

	doc.Find("script, style, nav, header, footer, aside").Remove()

	for _, selector := range mainTextSelectors {
		selection := doc.Find(selector)
		if selection.Length() == 0 {
			continue
		}
		text := normalizeWhitespace(selection.First().Text())
		if text != "" {
			return text, nil
		}
	}
	return "", fmt.Errorf("no readable text found")
}

func normalizeWhitespace(text string) string {
	lines := strings.Split(text, "\n")
	var kept []string
	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		if trimmed != "" {
			kept = append(kept, trimmed)
		}
	}
	return strings.Join(kept, "\n")
}
