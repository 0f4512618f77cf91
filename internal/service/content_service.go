package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/postpilot/api/internal/client"
	"github.com/postpilot/api/internal/config"
	"github.com/postpilot/api/internal/model"
)

const (
	captionMaxTokens   = 500
	captionTemperature = 0.7
	minHashtags        = 3
)

var hashtagPattern = regexp.MustCompile(`#\w+`)

// SourceItem is one unit of input to the assembler: either a bare topic or
// a scraped article with its excerpt.
type SourceItem struct {
	Kind  model.SourceKind
	Topic string
	Text  string
}

// ContentService assembles one Post per call. GeneratePost never fails: any
// gateway or parse problem degrades to locally synthesized content, which is
// what lets the worker treat every post as unconditional progress.
type ContentService struct {
	gateway client.Generator
	cfg     *config.ContentConfig
}

func NewContentService(gateway client.Generator, cfg *config.ContentConfig) *ContentService {
	return &ContentService{
		gateway: gateway,
		cfg:     cfg,
	}
}

// generation is the structured payload requested from the text model.
type generation struct {
	Caption     string   `json:"caption"`
	ImagePrompt string   `json:"image_prompt"`
	Hashtags    []string `json:"hashtags"`
}

// parseOutcome is a tagged result: either the structured fields parsed, or
// the raw text is carried for the caption fallback. Parsing failure is an
// ordinary case here, not an error.
type parseOutcome struct {
	Parsed  bool
	Content generation
	Raw     string
}

// GeneratePost produces one post for the item. The apiKey passes through to
// the gateway; empty means the server-configured key.
func (s *ContentService) GeneratePost(ctx context.Context, item SourceItem, apiKey string) *model.Post {
	post := &model.Post{
		ID:        uuid.New().String(),
		Topic:     item.Topic,
		CreatedAt: time.Now(),
	}

	textOK := false
	imageOK := false

	if s.gatewayUsable(apiKey) {
		raw, err := s.gateway.GenerateText(ctx, apiKey, s.buildPrompt(item), captionMaxTokens, captionTemperature)
		if err != nil {
			log.Printf("Text generation failed for topic %q: %v", item.Topic, err)
		} else {
			textOK = true
			outcome := parseGeneration(raw)
			if outcome.Parsed {
				post.Caption = outcome.Content.Caption
				post.ImagePrompt = outcome.Content.ImagePrompt
				post.Hashtags = outcome.Content.Hashtags
			} else {
				// Unparseable output still makes a usable caption.
				post.Caption = outcome.Raw
				post.ImagePrompt = s.genericImagePrompt(item.Topic)
			}
		}
	}

	if !textOK {
		tpl := fallbackTemplate(item.Topic)
		post.Caption = tpl.caption
		post.Hashtags = tpl.hashtags
		post.ImagePrompt = s.genericImagePrompt(item.Topic)
	}

	post.Caption = truncate(post.Caption, s.cfg.MaxCaptionLength)
	post.Hashtags = s.normalizeHashtags(post.Hashtags, post.Caption, item.Topic)
	if post.ImagePrompt == "" {
		post.ImagePrompt = s.genericImagePrompt(item.Topic)
	}

	if textOK && s.gatewayUsable(apiKey) {
		url, err := s.gateway.GenerateImage(ctx, apiKey, post.ImagePrompt, s.cfg.ImageSize, s.cfg.ImageQuality)
		if err != nil {
			log.Printf("Image generation failed for topic %q: %v", item.Topic, err)
		} else {
			post.ImageURL = url
			imageOK = true
		}
	}
	if !imageOK {
		post.ImageURL = placeholderImageURL(item.Topic)
	}

	post.GeneratedSuccessfully = textOK && imageOK
	scheduled := s.nextPostingTime(time.Now())
	post.ScheduledTime = &scheduled

	return post
}

func (s *ContentService) gatewayUsable(apiKey string) bool {
	if s.gateway == nil {
		return false
	}
	return apiKey != "" || s.gateway.IsConfigured()
}

func (s *ContentService) buildPrompt(item SourceItem) string {
	var source string
	if item.Kind == model.SourceKindScrapedArticle && item.Text != "" {
		source = fmt.Sprintf("Ringkasan artikel berita:\n%s", truncate(item.Text, s.cfg.MaxExcerptLength))
	} else {
		source = fmt.Sprintf("Topik: %s", item.Topic)
	}

	return fmt.Sprintf(`Buat konten Instagram yang menarik untuk berita ini.

%s

Output harus berupa JSON valid dengan format persis seperti ini, tanpa teks lain:
{"caption": "...", "image_prompt": "...", "hashtags": ["#tag1", "#tag2"]}

Ketentuan:
- caption: hook menarik di awal, ringkasan yang mudah dipahami, call to action untuk engagement. Friendly, relatable, tidak terlalu formal. Maksimal 200 kata.
- image_prompt: deskripsi gambar Instagram dalam bahasa Inggris. Modern, clean design, eye-catching, social media optimized, square format.
- hashtags: %d-8 hashtag relevan dan trending, masing-masing diawali '#'.`,
		source, minHashtags)
}

func (s *ContentService) genericImagePrompt(topic string) string {
	return fmt.Sprintf("Modern, clean Instagram post image about %s. Professional color scheme, minimalist aesthetic, eye-catching, square format, social media optimized.", topic)
}

// parseGeneration attempts to read the structured JSON out of the model's
// reply, salvaging a JSON object embedded in surrounding prose.
func parseGeneration(raw string) parseOutcome {
	candidate := extractJSON(raw)

	var content generation
	if err := json.Unmarshal([]byte(candidate), &content); err != nil || content.Caption == "" {
		return parseOutcome{Raw: strings.TrimSpace(raw)}
	}
	return parseOutcome{Parsed: true, Content: content}
}

// extractJSON attempts to extract a JSON object from a response that may
// contain extra text around it.
func extractJSON(s string) string {
	start := strings.Index(s, "{")
	end := strings.LastIndex(s, "}")
	if start != -1 && end != -1 && end > start {
		return s[start : end+1]
	}
	return s
}

// normalizeHashtags merges explicit hashtags with ones embedded in the
// caption, cleans each entry ('#' prefix, no whitespace), dedupes, pads from
// the topic when empty, and caps the count.
func (s *ContentService) normalizeHashtags(tags []string, caption, topic string) []string {
	merged := append([]string{}, tags...)
	merged = append(merged, hashtagPattern.FindAllString(caption, -1)...)

	seen := make(map[string]bool)
	var out []string
	for _, tag := range merged {
		cleaned := strings.Join(strings.Fields(tag), "")
		if cleaned == "" || cleaned == "#" {
			continue
		}
		if !strings.HasPrefix(cleaned, "#") {
			cleaned = "#" + cleaned
		}
		key := strings.ToLower(cleaned)
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, cleaned)
	}

	if len(out) == 0 {
		out = []string{hashtagFromTopic(topic), "#berita", "#update"}
	}

	max := s.cfg.MaxHashtags
	if max > 0 && len(out) > max {
		out = out[:max]
	}
	return out
}

// nextPostingTime picks the next optimal posting hour after now, rolling to
// the first slot tomorrow when today's are exhausted.
func (s *ContentService) nextPostingTime(now time.Time) time.Time {
	hours := s.cfg.OptimalPostingHours
	if len(hours) == 0 {
		return now
	}
	for _, h := range hours {
		slot := time.Date(now.Year(), now.Month(), now.Day(), h, 0, 0, 0, now.Location())
		if slot.After(now) {
			return slot
		}
	}
	first := hours[0]
	tomorrow := now.AddDate(0, 0, 1)
	return time.Date(tomorrow.Year(), tomorrow.Month(), tomorrow.Day(), first, 0, 0, 0, now.Location())
}

func truncate(s string, max int) string {
	if max <= 0 || len(s) <= max {
		return s
	}
	cut := max
	// Back up to a rune boundary so we never split a multibyte character.
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut]
}
