package e2e

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"sync"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/hibiken/asynq"

	"github.com/postpilot/api/internal/config"
	"github.com/postpilot/api/internal/handler"
	"github.com/postpilot/api/internal/middleware"
	"github.com/postpilot/api/internal/scraper"
	"github.com/postpilot/api/internal/service"
	"github.com/postpilot/api/internal/store"
	"github.com/postpilot/api/internal/worker"
)

// stubGateway stands in for the generation API. Flipping fail exercises the
// fallback-content path end to end.
type stubGateway struct {
	mu   sync.Mutex
	fail bool
}

func (g *stubGateway) setFail(fail bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.fail = fail
}

func (g *stubGateway) failing() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.fail
}

func (g *stubGateway) GenerateText(ctx context.Context, apiKey, prompt string, maxTokens int, temperature float64) (string, error) {
	if g.failing() {
		return "", errors.New("gateway unavailable")
	}
	return `{"caption": "Konten hasil uji", "image_prompt": "test scene", "hashtags": ["#uji", "#test"]}`, nil
}

func (g *stubGateway) GenerateImage(ctx context.Context, apiKey, prompt, size, quality string) (string, error) {
	if g.failing() {
		return "", errors.New("gateway unavailable")
	}
	return "https://cdn.example.com/test.png", nil
}

func (g *stubGateway) IsConfigured() bool { return true }

// queueRunner captures enqueued tasks and runs them through the real worker
// only when the test calls drain. This keeps jobs observable in their
// pending state between the two steps.
type queueRunner struct {
	worker *worker.GenerateWorker
	mu     sync.Mutex
	tasks  []*asynq.Task
}

func (q *queueRunner) EnqueueGenerate(ctx context.Context, jobID string, payload []byte) error {
	data, err := json.Marshal(service.TaskPayload{JobID: jobID, Payload: payload})
	if err != nil {
		return err
	}
	q.mu.Lock()
	defer q.mu.Unlock()
	q.tasks = append(q.tasks, asynq.NewTask(service.TaskTypeGenerate, data))
	return nil
}

func (q *queueRunner) drain(t *testing.T) {
	t.Helper()
	q.mu.Lock()
	tasks := q.tasks
	q.tasks = nil
	q.mu.Unlock()

	for _, task := range tasks {
		if err := q.worker.ProcessTask(context.Background(), task); err != nil {
			t.Fatalf("worker failed: %v", err)
		}
	}
}

// testApp holds all components needed for testing
type testApp struct {
	app     *fiber.App
	gateway *stubGateway
	queue   *queueRunner
}

// setupApp creates a Fiber app identical to main.go but with an in-memory
// job store, a stub gateway and a test-controlled queue.
func setupApp(t *testing.T) *testApp {
	t.Helper()

	cfg := &config.Config{
		Content: config.ContentConfig{
			PostsPerTopic:       3,
			DefaultTimeRange:    "oneDay",
			MaxHashtags:         5,
			MaxCaptionLength:    2200,
			MaxExcerptLength:    2000,
			OptimalPostingHours: []int{8, 12, 15, 18, 20},
			ImageSize:           "1024x1024",
			ImageQuality:        "hd",
		},
	}

	jobStore := store.NewMemoryStore()
	gateway := &stubGateway{}
	queue := &queueRunner{}
	validate := validator.New()

	// Services
	jobService := service.NewJobService(jobStore, queue, service.DefaultJobOptions(&cfg.Content))
	contentService := service.NewContentService(gateway, &cfg.Content)
	queue.worker = worker.NewGenerateWorker(jobService, contentService, scraper.New(cfg.Content.MaxExcerptLength), nil)

	// Handlers
	setupHandler := handler.NewSetupHandler(gateway)
	jobHandler := handler.NewJobHandler(jobService, validate)
	metaHandler := handler.NewMetaHandler(cfg, gateway)

	app := fiber.New()
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowHeaders: "Origin, Content-Type, Accept, Authorization, X-API-Key",
		AllowMethods: "GET, POST, PUT, DELETE, OPTIONS",
	}))

	// Base routes
	app.Get("/", metaHandler.Index)
	app.Get("/health", metaHandler.Health)

	// API routes
	api := app.Group("/api", middleware.APIKey())
	api.Post("/setup", setupHandler.Setup)
	api.Post("/start-job", jobHandler.Start)
	api.Post("/generate", jobHandler.Start)
	api.Get("/job-status/:jobId", jobHandler.Status)
	api.Get("/job-results/:jobId", jobHandler.Results)
	api.Get("/jobs", jobHandler.List)
	api.Get("/topics", metaHandler.Topics)
	api.Get("/config", metaHandler.Config)

	return &testApp{app: app, gateway: gateway, queue: queue}
}

// doRequest is a helper to perform HTTP requests against the test app.
func doRequest(app *fiber.App, method, path string, body string, headers map[string]string) (*http.Response, error) {
	var bodyReader io.Reader
	if body != "" {
		bodyReader = strings.NewReader(body)
	}

	req, err := http.NewRequest(method, path, bodyReader)
	if err != nil {
		return nil, err
	}

	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	return app.Test(req, -1)
}

// readBody reads and returns the response body as a string.
func readBody(t *testing.T, resp *http.Response) string {
	t.Helper()
	defer resp.Body.Close()
	b, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("failed to read response body: %v", err)
	}
	return string(b)
}

// parseJSON parses response body into a map.
func parseJSON(t *testing.T, resp *http.Response) map[string]interface{} {
	t.Helper()
	body := readBody(t, resp)
	var result map[string]interface{}
	if err := json.Unmarshal([]byte(body), &result); err != nil {
		t.Fatalf("failed to parse JSON: %v\nbody: %s", err, body)
	}
	return result
}

// assertStatus checks the HTTP status code.
func assertStatus(t *testing.T, resp *http.Response, expected int) {
	t.Helper()
	if resp.StatusCode != expected {
		t.Errorf("expected status %d, got %d", expected, resp.StatusCode)
	}
}

// errorCode digs the machine-readable code out of an error envelope.
func errorCode(t *testing.T, body map[string]interface{}) string {
	t.Helper()
	errObj, ok := body["error"].(map[string]interface{})
	if !ok {
		t.Fatalf("expected error envelope, got: %v", body)
	}
	code, _ := errObj["code"].(string)
	return code
}
