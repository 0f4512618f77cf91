package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"math"

	"github.com/hibiken/asynq"

	"github.com/postpilot/api/internal/model"
	"github.com/postpilot/api/internal/scraper"
	"github.com/postpilot/api/internal/service"
	"github.com/postpilot/api/internal/websocket"
)

// GenerateWorker drives one job from pending to a terminal state. The task
// handler is the single writer to its job's record; it runs sequentially
// through (topic, post-index) pairs and buffers every post, real or
// fallback.
type GenerateWorker struct {
	jobs    *service.JobService
	content *service.ContentService
	scraper *scraper.Scraper
	hub     *websocket.Hub
}

func NewGenerateWorker(jobs *service.JobService, content *service.ContentService, sc *scraper.Scraper, hub *websocket.Hub) *GenerateWorker {
	return &GenerateWorker{
		jobs:    jobs,
		content: content,
		scraper: sc,
		hub:     hub,
	}
}

// ProcessTask handles one queued generation job.
func (w *GenerateWorker) ProcessTask(ctx context.Context, t *asynq.Task) error {
	var taskPayload service.TaskPayload
	if err := json.Unmarshal(t.Payload(), &taskPayload); err != nil {
		return fmt.Errorf("failed to unmarshal task payload: %w", err)
	}

	jobID := taskPayload.JobID
	log.Printf("Starting generation job: %s", jobID)

	var payload model.GenerateJobPayload
	if err := json.Unmarshal(taskPayload.Payload, &payload); err != nil {
		w.failJob(ctx, jobID, "Invalid payload")
		return fmt.Errorf("failed to unmarshal generation payload: %w", err)
	}

	if err := w.jobs.MarkRunning(ctx, jobID); err != nil {
		// Job record missing or already terminal: nothing to advance.
		return fmt.Errorf("failed to start job %s: %w", jobID, err)
	}

	items := w.buildItems(ctx, jobID, &payload)

	var buffer []model.Post
	total := len(items)
	for i, item := range items {
		// Progress counts fully processed topics, so it trails the
		// topic currently in flight.
		progress := int(math.Round(100 * float64(i) / float64(total)))
		message := fmt.Sprintf("Processing topic %d/%d: %s", i+1, total, item.Topic)
		if err := w.updateProgress(ctx, jobID, progress, item.Topic, message); err != nil {
			w.failJob(ctx, jobID, "Job state lost during processing")
			return err
		}

		for p := 0; p < payload.Options.MaxPostsPerTopic; p++ {
			message = fmt.Sprintf("Generating post %d/%d for %s", p+1, payload.Options.MaxPostsPerTopic, item.Topic)
			if err := w.updateProgress(ctx, jobID, progress, item.Topic, message); err != nil {
				w.failJob(ctx, jobID, "Job state lost during processing")
				return err
			}
			// GeneratePost never fails; a gateway outage degrades to
			// fallback content and the job keeps advancing.
			post := w.content.GeneratePost(ctx, item, payload.APIKey)
			buffer = append(buffer, *post)
		}
	}

	result, err := w.jobs.CompleteJob(ctx, jobID, buffer)
	if err != nil {
		w.failJob(ctx, jobID, "Failed to save result")
		return err
	}

	if w.hub != nil {
		w.hub.BroadcastComplete(jobID, result)
	}
	log.Printf("Generation job %s completed with %d posts", jobID, len(buffer))
	return nil
}

// buildItems expands the payload into the ordered source items to process.
// A news URL becomes a single scraped-article item; when scraping fails the
// item degrades to a plain topic labeled with the hostname.
func (w *GenerateWorker) buildItems(ctx context.Context, jobID string, payload *model.GenerateJobPayload) []service.SourceItem {
	if payload.NewsURL == "" {
		items := make([]service.SourceItem, 0, len(payload.Topics))
		for _, topic := range payload.Topics {
			items = append(items, service.SourceItem{Kind: model.SourceKindTopic, Topic: topic})
		}
		return items
	}

	host := scraper.Hostname(payload.NewsURL)
	w.updateProgress(ctx, jobID, 0, host, fmt.Sprintf("Extracting article from %s", host))

	article, err := w.scraper.Fetch(ctx, payload.NewsURL)
	if err != nil {
		log.Printf("Article extraction failed for %s: %v", payload.NewsURL, err)
		return []service.SourceItem{{Kind: model.SourceKindTopic, Topic: host}}
	}

	topic := article.Title
	if topic == "" {
		topic = host
	}
	return []service.SourceItem{{
		Kind:  model.SourceKindScrapedArticle,
		Topic: topic,
		Text:  article.Excerpt,
	}}
}

func (w *GenerateWorker) updateProgress(ctx context.Context, jobID string, progress int, topic, message string) error {
	if err := w.jobs.UpdateProgress(ctx, jobID, progress, topic, message); err != nil {
		return err
	}
	if w.hub != nil {
		w.hub.BroadcastProgress(jobID, progress, model.JobStatusRunning, topic, message)
	}
	return nil
}

func (w *GenerateWorker) failJob(ctx context.Context, jobID, errMsg string) {
	if err := w.jobs.FailJob(ctx, jobID, errMsg); err != nil {
		log.Printf("Failed to mark job %s as failed: %v", jobID, err)
	}
	if w.hub != nil {
		w.hub.BroadcastError(jobID, "GENERATION_FAILED", errMsg)
	}
}
