package loader

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/microcosm-cc/bluemonday"

	"github.com/smallnest/ragkit/schema"
)

// HTMLLoader extracts the readable text of an HTML document. Scripts,
// styles and markup are stripped; block elements are separated by newlines.
type HTMLLoader struct {
	reader io.Reader
	source string
}

// NewHTMLLoader creates a loader over raw HTML.
func NewHTMLLoader(r io.Reader) *HTMLLoader {
	return &HTMLLoader{reader: r}
}

// Load implements Loader.
func (l *HTMLLoader) Load(ctx context.Context) ([]schema.Document, error) {
	text, err := extractHTMLText(l.reader)
	if err != nil {
		return nil, err
	}
	doc := schema.NewDocument(text)
	if l.source != "" {
		doc.Metadata["source"] = l.source
	}
	return []schema.Document{doc}, nil
}

// WebLoader fetches a URL and extracts its readable text.
type WebLoader struct {
	url    string
	client *http.Client
}

// NewWebLoader creates a loader for the given URL. A nil client uses
// http.DefaultClient.
func NewWebLoader(url string, client *http.Client) *WebLoader {
	if client == nil {
		client = http.DefaultClient
	}
	return &WebLoader{url: url, client: client}
}

// Load implements Loader.
func (l *WebLoader) Load(ctx context.Context) ([]schema.Document, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, l.url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	resp, err := l.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch URL: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch %s: status code %d", l.url, resp.StatusCode)
	}

	text, err := extractHTMLText(resp.Body)
	if err != nil {
		return nil, err
	}
	if text == "" {
		return nil, fmt.Errorf("no text content found at %s", l.url)
	}
	doc := schema.NewDocument(text)
	doc.Metadata["source"] = l.url
	return []schema.Document{doc}, nil
}

func extractHTMLText(r io.Reader) (string, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return "", fmt.Errorf("read html: %w", err)
	}
	sanitized := bluemonday.UGCPolicy().SanitizeBytes(raw)

	gq, err := goquery.NewDocumentFromReader(strings.NewReader(string(sanitized)))
	if err != nil {
		return "", fmt.Errorf("parse html: %w", err)
	}
	gq.Find("script, style, noscript").Remove()

	var parts []string
	gq.Find("h1, h2, h3, h4, h5, h6, p, li, pre, blockquote").Each(func(_ int, sel *goquery.Selection) {
		if t := strings.TrimSpace(sel.Text()); t != "" {
			parts = append(parts, t)
		}
	})
	if len(parts) == 0 {
		// No block structure left: fall back to the whole body text.
		if t := strings.TrimSpace(gq.Text()); t != "" {
			parts = append(parts, t)
		}
	}
	return strings.Join(parts, "\n"), nil
}
