package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/postpilot/api/internal/config"
)

const (
	textTimeout  = 30 * time.Second
	imageTimeout = 60 * time.Second
)

// GatewayError is returned for any non-success response or transport
// failure from the generation API.
type GatewayError struct {
	Status int
	Body   string
	Err    error
}

func (e *GatewayError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("gateway error: %v", e.Err)
	}
	return fmt.Sprintf("gateway error (status %d): %s", e.Status, e.Body)
}

func (e *GatewayError) Unwrap() error { return e.Err }

// Generator is the capability the content assembler consumes: prompt in,
// text or image URL out. Any call may fail with a *GatewayError; there is
// no retry at this layer.
type Generator interface {
	GenerateText(ctx context.Context, apiKey, prompt string, maxTokens int, temperature float64) (string, error)
	GenerateImage(ctx context.Context, apiKey, prompt, size, quality string) (string, error)
	IsConfigured() bool
}

// ZAIClient handles communication with the Z.ai generation API.
type ZAIClient struct {
	textClient  *http.Client
	imageClient *http.Client
	baseURL     string
	apiKey      string
	textModel   string
	imageModel  string
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatCompletionRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature,omitempty"`
	MaxTokens   int           `json:"max_tokens,omitempty"`
	Stream      bool          `json:"stream"`
}

type chatCompletionResponse struct {
	Choices []struct {
		Message struct {
			Role    string `json:"role"`
			Content string `json:"content"`
		} `json:"message"`
		FinishReason string `json:"finish_reason"`
	} `json:"choices"`
}

type imageGenerationRequest struct {
	Model   string `json:"model"`
	Prompt  string `json:"prompt"`
	Size    string `json:"size"`
	Quality string `json:"quality"`
	N       int    `json:"n"`
}

type imageGenerationResponse struct {
	Data []struct {
		URL string `json:"url"`
	} `json:"data"`
}

// NewZAIClient creates a new Z.ai API client. Text and image calls use
// separate timeouts since image generation is noticeably slower.
func NewZAIClient(cfg *config.ZAIConfig) *ZAIClient {
	return &ZAIClient{
		textClient:  &http.Client{Timeout: textTimeout},
		imageClient: &http.Client{Timeout: imageTimeout},
		baseURL:     cfg.BaseURL,
		apiKey:      cfg.APIKey,
		textModel:   cfg.TextModel,
		imageModel:  cfg.ImageModel,
	}
}

// GenerateText sends a chat completion request. An empty apiKey falls back
// to the server-configured key.
func (c *ZAIClient) GenerateText(ctx context.Context, apiKey, prompt string, maxTokens int, temperature float64) (string, error) {
	reqBody := chatCompletionRequest{
		Model:       c.textModel,
		Messages:    []chatMessage{{Role: "user", Content: prompt}},
		Temperature: temperature,
		MaxTokens:   maxTokens,
	}

	respBody, err := c.post(ctx, c.textClient, "/chat/completions", apiKey, reqBody)
	if err != nil {
		return "", err
	}

	var chatResp chatCompletionResponse
	if err := json.Unmarshal(respBody, &chatResp); err != nil {
		return "", &GatewayError{Err: fmt.Errorf("failed to unmarshal response: %w", err)}
	}
	if len(chatResp.Choices) == 0 {
		return "", &GatewayError{Err: fmt.Errorf("no choices in response")}
	}

	return chatResp.Choices[0].Message.Content, nil
}

// GenerateImage sends an image generation request and returns the image URL.
func (c *ZAIClient) GenerateImage(ctx context.Context, apiKey, prompt, size, quality string) (string, error) {
	reqBody := imageGenerationRequest{
		Model:   c.imageModel,
		Prompt:  prompt,
		Size:    size,
		Quality: quality,
		N:       1,
	}

	respBody, err := c.post(ctx, c.imageClient, "/images/generations", apiKey, reqBody)
	if err != nil {
		return "", err
	}

	var imgResp imageGenerationResponse
	if err := json.Unmarshal(respBody, &imgResp); err != nil {
		return "", &GatewayError{Err: fmt.Errorf("failed to unmarshal response: %w", err)}
	}
	if len(imgResp.Data) == 0 || imgResp.Data[0].URL == "" {
		return "", &GatewayError{Err: fmt.Errorf("no image in response")}
	}

	return imgResp.Data[0].URL, nil
}

func (c *ZAIClient) post(ctx context.Context, hc *http.Client, path, apiKey string, body interface{}) ([]byte, error) {
	bodyBytes, err := json.Marshal(body)
	if err != nil {
		return nil, &GatewayError{Err: fmt.Errorf("failed to marshal request: %w", err)}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(bodyBytes))
	if err != nil {
		return nil, &GatewayError{Err: fmt.Errorf("failed to create request: %w", err)}
	}

	key := apiKey
	if key == "" {
		key = c.apiKey
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+key)

	resp, err := hc.Do(req)
	if err != nil {
		return nil, &GatewayError{Err: fmt.Errorf("failed to send request: %w", err)}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &GatewayError{Err: fmt.Errorf("failed to read response: %w", err)}
	}

	if resp.StatusCode != http.StatusOK {
		return nil, &GatewayError{Status: resp.StatusCode, Body: string(respBody)}
	}

	return respBody, nil
}

// IsConfigured returns true if the client has a server-side API key.
func (c *ZAIClient) IsConfigured() bool {
	return c.apiKey != ""
}
