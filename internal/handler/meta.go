package handler

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/postpilot/api/internal/client"
	"github.com/postpilot/api/internal/config"
	"github.com/postpilot/api/internal/model"
	"github.com/postpilot/api/pkg/response"
)

const indexPage = `<!DOCTYPE html>
<html lang="en">
<head>
  <meta charset="utf-8">
  <title>PostPilot</title>
</head>
<body>
  <h1>PostPilot</h1>
  <p>Automated Instagram content generation API.</p>
  <p>Start a job with <code>POST /api/start-job</code> and poll
  <code>GET /api/job-status/{jobId}</code>.</p>
</body>
</html>`

// MetaHandler serves the static surface: index page, topic suggestions,
// content configuration and health.
type MetaHandler struct {
	cfg     *config.Config
	gateway client.Generator
}

func NewMetaHandler(cfg *config.Config, gateway client.Generator) *MetaHandler {
	return &MetaHandler{cfg: cfg, gateway: gateway}
}

// Index handles GET /
func (h *MetaHandler) Index(c *fiber.Ctx) error {
	c.Set(fiber.HeaderContentType, fiber.MIMETextHTMLCharsetUTF8)
	return c.SendString(indexPage)
}

// Health handles GET /health
func (h *MetaHandler) Health(c *fiber.Ctx) error {
	return response.OK(c, model.HealthResponse{
		Status: "ok",
		Services: map[string]bool{
			"gateway": h.gateway != nil && h.gateway.IsConfigured(),
		},
		Time: time.Now(),
	})
}

// Topics handles GET /api/topics
// @Summary      List suggested topics
// @Tags         Meta
// @Produce      json
// @Success      200 {object} model.TopicsResponse
// @Router       /api/topics [get]
func (h *MetaHandler) Topics(c *fiber.Ctx) error {
	return response.OK(c, model.TopicsResponse{
		DefaultTopics: config.DefaultTopics,
		TimeRanges:    model.ValidTimeRanges,
		NewsDomains:   config.NewsDomains,
	})
}

// Config handles GET /api/config
// @Summary      Get content generation configuration
// @Tags         Meta
// @Produce      json
// @Success      200 {object} model.ConfigResponse
// @Router       /api/config [get]
func (h *MetaHandler) Config(c *fiber.Ctx) error {
	return response.OK(c, model.ConfigResponse{
		PostsPerTopic:       h.cfg.Content.PostsPerTopic,
		DefaultTimeRange:    h.cfg.Content.DefaultTimeRange,
		OptimalPostingHours: h.cfg.Content.OptimalPostingHours,
		MaxHashtags:         h.cfg.Content.MaxHashtags,
		MaxCaptionLength:    h.cfg.Content.MaxCaptionLength,
	})
}
