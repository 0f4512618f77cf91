package handler

import (
	"github.com/gofiber/fiber/v2"

	"github.com/postpilot/api/internal/client"
	"github.com/postpilot/api/internal/middleware"
	"github.com/postpilot/api/internal/model"
	"github.com/postpilot/api/pkg/response"
)

// minAPIKeyLength filters obviously bogus keys before any network call.
const minAPIKeyLength = 10

type SetupHandler struct {
	gateway client.Generator
}

func NewSetupHandler(gateway client.Generator) *SetupHandler {
	return &SetupHandler{gateway: gateway}
}

// Setup handles POST /api/setup
// @Summary      Validate generation API key
// @Description  Validate the supplied API key against the generation gateway
// @Tags         Setup
// @Accept       json
// @Produce      json
// @Param        request body model.SetupRequest true "Setup request"
// @Success      200 {object} model.SetupResponse
// @Failure      400 {object} response.ErrorResponse
// @Router       /api/setup [post]
func (h *SetupHandler) Setup(c *fiber.Ctx) error {
	var req model.SetupRequest
	// Body is optional; the key may arrive via header instead.
	_ = c.BodyParser(&req)

	apiKey := req.APIKey
	if apiKey == "" {
		apiKey = middleware.GetAPIKey(c)
	}

	if apiKey == "" {
		return response.ValidationError(c, "API key is required", nil)
	}
	if len(apiKey) < minAPIKeyLength {
		return response.ValidationError(c, "API key is too short", nil)
	}

	// Verify the key with a minimal completion when a gateway is wired.
	if h.gateway != nil {
		if _, err := h.gateway.GenerateText(c.Context(), apiKey, "Connection test", 10, 0.1); err != nil {
			return response.ValidationError(c, "API validation failed: "+err.Error(), nil)
		}
	}

	return response.OK(c, model.SetupResponse{
		Status:  "ok",
		Message: "API key validated successfully",
	})
}
