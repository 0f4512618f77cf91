package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/postpilot/api/internal/config"
	"github.com/postpilot/api/internal/model"
)

type stubGateway struct {
	text       string
	textErr    error
	imageURL   string
	imageErr   error
	configured bool

	textCalls  int
	imageCalls int
	lastPrompt string
}

func (g *stubGateway) GenerateText(ctx context.Context, apiKey, prompt string, maxTokens int, temperature float64) (string, error) {
	g.textCalls++
	g.lastPrompt = prompt
	return g.text, g.textErr
}

func (g *stubGateway) GenerateImage(ctx context.Context, apiKey, prompt, size, quality string) (string, error) {
	g.imageCalls++
	return g.imageURL, g.imageErr
}

func (g *stubGateway) IsConfigured() bool { return g.configured }

func testContentConfig() *config.ContentConfig {
	return &config.ContentConfig{
		PostsPerTopic:       3,
		DefaultTimeRange:    "oneDay",
		MaxHashtags:         5,
		MaxCaptionLength:    2200,
		MaxExcerptLength:    2000,
		OptimalPostingHours: []int{8, 12, 15, 18, 20},
		ImageSize:           "1024x1024",
		ImageQuality:        "hd",
	}
}

func TestGeneratePost_StructuredResponse(t *testing.T) {
	gw := &stubGateway{
		text:       `{"caption": "Tech news of the day!", "image_prompt": "modern tech collage", "hashtags": ["#teknologi", "#tech", "#digital"]}`,
		imageURL:   "https://cdn.example.com/img/abc.png",
		configured: true,
	}
	svc := NewContentService(gw, testContentConfig())

	post := svc.GeneratePost(context.Background(), SourceItem{Kind: model.SourceKindTopic, Topic: "teknologi"}, "")

	require.NotNil(t, post)
	assert.True(t, post.GeneratedSuccessfully)
	assert.Equal(t, "Tech news of the day!", post.Caption)
	assert.Equal(t, "modern tech collage", post.ImagePrompt)
	assert.Equal(t, "https://cdn.example.com/img/abc.png", post.ImageURL)
	assert.Equal(t, []string{"#teknologi", "#tech", "#digital"}, post.Hashtags)
	assert.Equal(t, "teknologi", post.Topic)
	assert.NotEmpty(t, post.ID)
}

func TestGeneratePost_JSONEmbeddedInProse(t *testing.T) {
	gw := &stubGateway{
		text:       "Here is your content:\n{\"caption\": \"Business buzz\", \"image_prompt\": \"office scene\", \"hashtags\": [\"#bisnis\"]}\nEnjoy!",
		imageURL:   "https://cdn.example.com/img/b.png",
		configured: true,
	}
	svc := NewContentService(gw, testContentConfig())

	post := svc.GeneratePost(context.Background(), SourceItem{Kind: model.SourceKindTopic, Topic: "bisnis"}, "")

	assert.True(t, post.GeneratedSuccessfully)
	assert.Equal(t, "Business buzz", post.Caption)
}

func TestGeneratePost_UnparseableResponse(t *testing.T) {
	gw := &stubGateway{
		text:       "Berita olahraga hari ini sangat seru! #olahraga #sport",
		imageURL:   "https://cdn.example.com/img/c.png",
		configured: true,
	}
	svc := NewContentService(gw, testContentConfig())

	post := svc.GeneratePost(context.Background(), SourceItem{Kind: model.SourceKindTopic, Topic: "olahraga"}, "")

	// Raw text becomes the caption; hashtags are salvaged from it.
	assert.True(t, post.GeneratedSuccessfully)
	assert.Equal(t, "Berita olahraga hari ini sangat seru! #olahraga #sport", post.Caption)
	assert.Contains(t, post.Hashtags, "#olahraga")
	assert.Contains(t, post.Hashtags, "#sport")
	assert.Contains(t, post.ImagePrompt, "olahraga")
}

func TestGeneratePost_GatewayFailure(t *testing.T) {
	gw := &stubGateway{
		textErr:    errors.New("gateway error (status 503): unavailable"),
		configured: true,
	}
	svc := NewContentService(gw, testContentConfig())

	post := svc.GeneratePost(context.Background(), SourceItem{Kind: model.SourceKindTopic, Topic: "teknologi"}, "")

	assert.False(t, post.GeneratedSuccessfully)
	assert.NotEmpty(t, post.Caption)
	assert.NotEmpty(t, post.Hashtags)
	assert.Contains(t, post.ImageURL, "via.placeholder.com")
	assert.Contains(t, post.ImageURL, "generation+failed")
	// Image generation is skipped entirely once text failed.
	assert.Equal(t, 0, gw.imageCalls)
}

func TestGeneratePost_UnknownTopicFallback(t *testing.T) {
	gw := &stubGateway{textErr: errors.New("boom"), configured: true}
	svc := NewContentService(gw, testContentConfig())

	post := svc.GeneratePost(context.Background(), SourceItem{Kind: model.SourceKindTopic, Topic: "quantum gardening"}, "")

	assert.False(t, post.GeneratedSuccessfully)
	assert.Contains(t, post.Caption, "quantum gardening")
	assert.Contains(t, post.Hashtags, "#quantumgardening")
}

func TestGeneratePost_ImageFailure(t *testing.T) {
	gw := &stubGateway{
		text:       `{"caption": "Caption ok", "image_prompt": "nice scene", "hashtags": ["#sains"]}`,
		imageErr:   errors.New("gateway error (status 500): image backend down"),
		configured: true,
	}
	svc := NewContentService(gw, testContentConfig())

	post := svc.GeneratePost(context.Background(), SourceItem{Kind: model.SourceKindTopic, Topic: "sains"}, "")

	assert.False(t, post.GeneratedSuccessfully)
	assert.Equal(t, "Caption ok", post.Caption)
	assert.Contains(t, post.ImageURL, "via.placeholder.com")
}

func TestGeneratePost_UnconfiguredGatewayMakesNoCalls(t *testing.T) {
	gw := &stubGateway{configured: false}
	svc := NewContentService(gw, testContentConfig())

	post := svc.GeneratePost(context.Background(), SourceItem{Kind: model.SourceKindTopic, Topic: "travel"}, "")

	assert.False(t, post.GeneratedSuccessfully)
	assert.Equal(t, 0, gw.textCalls)
	assert.Equal(t, 0, gw.imageCalls)
}

func TestGeneratePost_PerRequestKeyEnablesUnconfiguredGateway(t *testing.T) {
	gw := &stubGateway{
		text:       `{"caption": "ok", "image_prompt": "p", "hashtags": ["#x"]}`,
		imageURL:   "https://cdn.example.com/i.png",
		configured: false,
	}
	svc := NewContentService(gw, testContentConfig())

	post := svc.GeneratePost(context.Background(), SourceItem{Kind: model.SourceKindTopic, Topic: "travel"}, "user-supplied-key")

	assert.True(t, post.GeneratedSuccessfully)
	assert.Equal(t, 1, gw.textCalls)
}

func TestGeneratePost_ArticleExcerptEmbeddedInPrompt(t *testing.T) {
	gw := &stubGateway{
		text:       `{"caption": "ok", "image_prompt": "p", "hashtags": ["#x"]}`,
		imageURL:   "https://cdn.example.com/i.png",
		configured: true,
	}
	svc := NewContentService(gw, testContentConfig())

	item := SourceItem{
		Kind:  model.SourceKindScrapedArticle,
		Topic: "Banjir di Jakarta",
		Text:  "Hujan deras mengguyur ibu kota sejak dini hari dan menyebabkan genangan di sejumlah ruas jalan utama.",
	}
	svc.GeneratePost(context.Background(), item, "")

	assert.Contains(t, gw.lastPrompt, "Hujan deras mengguyur")
}

func TestHashtagProperties(t *testing.T) {
	cases := []struct {
		name string
		gw   *stubGateway
	}{
		{"fallback", &stubGateway{textErr: errors.New("down"), configured: true}},
		{"parsed", &stubGateway{
			text:       `{"caption": "c", "image_prompt": "p", "hashtags": ["# spaced tag", "noprefix", "#ok", "#ok", ""]}`,
			imageURL:   "https://cdn.example.com/i.png",
			configured: true,
		}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			svc := NewContentService(tc.gw, testContentConfig())
			post := svc.GeneratePost(context.Background(), SourceItem{Kind: model.SourceKindTopic, Topic: "kuliner"}, "")

			require.NotEmpty(t, post.Hashtags)
			assert.LessOrEqual(t, len(post.Hashtags), 5)
			seen := map[string]bool{}
			for _, tag := range post.Hashtags {
				assert.True(t, strings.HasPrefix(tag, "#"), "hashtag %q must start with #", tag)
				assert.NotContains(t, tag, " ", "hashtag %q must not contain spaces", tag)
				assert.False(t, seen[strings.ToLower(tag)], "hashtag %q duplicated", tag)
				seen[strings.ToLower(tag)] = true
			}
		})
	}
}

func TestCaptionBounded(t *testing.T) {
	cfg := testContentConfig()
	cfg.MaxCaptionLength = 50
	gw := &stubGateway{
		text:       strings.Repeat("panjang sekali ", 100),
		imageURL:   "https://cdn.example.com/i.png",
		configured: true,
	}
	svc := NewContentService(gw, cfg)

	post := svc.GeneratePost(context.Background(), SourceItem{Kind: model.SourceKindTopic, Topic: "hiburan"}, "")

	assert.LessOrEqual(t, len(post.Caption), 50)
}

func TestParseGeneration(t *testing.T) {
	out := parseGeneration(`{"caption": "a", "image_prompt": "b", "hashtags": ["#c"]}`)
	assert.True(t, out.Parsed)
	assert.Equal(t, "a", out.Content.Caption)

	out = parseGeneration("just plain prose, nothing structured")
	assert.False(t, out.Parsed)
	assert.Equal(t, "just plain prose, nothing structured", out.Raw)

	// Caption is mandatory for the parse to count.
	out = parseGeneration(`{"image_prompt": "b"}`)
	assert.False(t, out.Parsed)
}

func TestTruncateMultibyteSafe(t *testing.T) {
	s := "héllo wörld"
	got := truncate(s, 3)
	assert.LessOrEqual(t, len(got), 3)
	assert.True(t, strings.HasPrefix(s, got))
	for _, r := range got {
		assert.NotEqual(t, '�', r)
	}
}

func TestNextPostingTime(t *testing.T) {
	svc := NewContentService(nil, testContentConfig())

	morning := time.Date(2025, 3, 10, 9, 30, 0, 0, time.UTC)
	got := svc.nextPostingTime(morning)
	assert.Equal(t, 12, got.Hour())
	assert.Equal(t, morning.Day(), got.Day())

	late := time.Date(2025, 3, 10, 21, 0, 0, 0, time.UTC)
	got = svc.nextPostingTime(late)
	assert.Equal(t, 8, got.Hour())
	assert.Equal(t, morning.Day()+1, got.Day())
}

func TestPlaceholderImageURL(t *testing.T) {
	url := placeholderImageURL("teknologi hijau")
	assert.Contains(t, url, "via.placeholder.com")
	assert.Contains(t, url, "generation+failed")
	assert.NotContains(t, url, " ")
}
