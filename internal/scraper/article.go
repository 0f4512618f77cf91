// Package scraper fetches a news article and reduces it to a title plus a
// bounded text excerpt suitable for embedding in a generation prompt.
package scraper

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
)

const (
	fetchTimeout = 20 * time.Second
	userAgent    = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/91.0.4472.124 Safari/537.36"

	// Paragraphs shorter than this are almost always navigation,
	// cookie banners or share buttons.
	minParagraphLen = 40
)

// Article is the cleaned extraction result.
type Article struct {
	Title   string
	Excerpt string
	Source  string
}

// Scraper fetches and extracts article text.
type Scraper struct {
	httpClient *http.Client
	maxExcerpt int
}

func New(maxExcerptLength int) *Scraper {
	return &Scraper{
		httpClient: &http.Client{Timeout: fetchTimeout},
		maxExcerpt: maxExcerptLength,
	}
}

// Fetch downloads the page at rawURL and extracts the title and body text.
func (s *Scraper) Fetch(ctx context.Context, rawURL string) (*Article, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch article: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("article fetch returned status %d", resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to parse article HTML: %w", err)
	}

	title := strings.TrimSpace(doc.Find("title").First().Text())
	if og, ok := doc.Find(`meta[property="og:title"]`).Attr("content"); ok && og != "" {
		title = strings.TrimSpace(og)
	}

	doc.Find("script, style, nav, header, footer, aside, form").Remove()

	var parts []string
	total := 0
	doc.Find("article p, main p, p").EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		text := strings.Join(strings.Fields(sel.Text()), " ")
		if len(text) < minParagraphLen {
			return true
		}
		parts = append(parts, text)
		total += len(text)
		return total < s.maxExcerpt
	})

	excerpt := strings.Join(parts, "\n")
	if len(excerpt) > s.maxExcerpt {
		cut := s.maxExcerpt
		// Back up to a rune boundary so the cap never splits a
		// multibyte character.
		for cut > 0 && !utf8.RuneStart(excerpt[cut]) {
			cut--
		}
		excerpt = excerpt[:cut]
	}
	if excerpt == "" {
		return nil, fmt.Errorf("no article text found at %s", rawURL)
	}

	return &Article{
		Title:   title,
		Excerpt: excerpt,
		Source:  Hostname(rawURL),
	}, nil
}

// Hostname returns the www-stripped host of rawURL, falling back to the raw
// string when it does not parse. Used as the topic label when scraping
// fails.
func Hostname(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil || u.Host == "" {
		return rawURL
	}
	return strings.TrimPrefix(u.Host, "www.")
}
