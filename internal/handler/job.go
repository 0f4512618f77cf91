package handler

import (
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/postpilot/api/internal/middleware"
	"github.com/postpilot/api/internal/model"
	"github.com/postpilot/api/internal/service"
	"github.com/postpilot/api/pkg/response"
)

type JobHandler struct {
	service   *service.JobService
	validator *validator.Validate
}

func NewJobHandler(svc *service.JobService, v *validator.Validate) *JobHandler {
	return &JobHandler{
		service:   svc,
		validator: v,
	}
}

// Start handles POST /api/start-job (alias: POST /api/generate)
// @Summary      Start generation job
// @Description  Start an asynchronous content generation job for a list of topics or a news URL
// @Tags         Jobs
// @Accept       json
// @Produce      json
// @Param        request body model.StartJobRequest true "Start job request"
// @Success      200 {object} model.StartJobResponse
// @Failure      400 {object} response.ErrorResponse
// @Router       /api/start-job [post]
func (h *JobHandler) Start(c *fiber.Ctx) error {
	var req model.StartJobRequest
	if err := c.BodyParser(&req); err != nil {
		return response.ValidationError(c, "Invalid request body", nil)
	}

	if err := h.validator.Struct(&req); err != nil {
		return response.ValidationError(c, "Validation failed", formatValidationErrors(err))
	}

	job, err := h.service.CreateJob(c.Context(), &req, middleware.GetAPIKey(c))
	if err != nil {
		if errors.Is(err, service.ErrNoTopics) {
			return response.ValidationError(c, "At least one topic or a news URL is required", nil)
		}
		if errors.Is(err, service.ErrMixedSources) {
			return response.ValidationError(c, "Provide either topics or a news URL, not both", nil)
		}
		return response.ServiceError(c, err.Error())
	}

	return response.OK(c, model.StartJobResponse{
		Status:  "started",
		JobID:   job.ID,
		Topics:  job.Topics,
		Options: job.Options,
	})
}

// Status handles GET /api/job-status/:jobId
// @Summary      Get job status
// @Description  Get the current status and progress of a generation job
// @Tags         Jobs
// @Produce      json
// @Param        jobId path string true "Job ID"
// @Success      200 {object} model.Job
// @Failure      404 {object} response.ErrorResponse
// @Router       /api/job-status/{jobId} [get]
func (h *JobHandler) Status(c *fiber.Ctx) error {
	jobID := c.Params("jobId")
	if jobID == "" {
		return response.ValidationError(c, "Job ID is required", nil)
	}

	job, err := h.service.GetStatus(c.Context(), jobID)
	if err != nil {
		if errors.Is(err, service.ErrJobNotFound) {
			return response.NotFound(c, "Job not found")
		}
		return response.ServiceError(c, err.Error())
	}

	return response.OK(c, job)
}

// Results handles GET /api/job-results/:jobId
// @Summary      Get job results
// @Description  Get the generated posts of a completed job
// @Tags         Jobs
// @Produce      json
// @Param        jobId path string true "Job ID"
// @Success      200 {object} model.JobResult
// @Failure      404 {object} response.ErrorResponse
// @Router       /api/job-results/{jobId} [get]
func (h *JobHandler) Results(c *fiber.Ctx) error {
	jobID := c.Params("jobId")
	if jobID == "" {
		return response.ValidationError(c, "Job ID is required", nil)
	}

	result, err := h.service.GetResult(c.Context(), jobID)
	if err != nil {
		if errors.Is(err, service.ErrJobNotFound) {
			return response.NotFound(c, "Job not found")
		}
		if errors.Is(err, service.ErrResultNotReady) {
			return response.NotFound(c, "Results not available yet")
		}
		return response.ServiceError(c, err.Error())
	}

	return response.OK(c, result)
}

// List handles GET /api/jobs
// @Summary      List jobs
// @Description  List unfinished jobs and published results
// @Tags         Jobs
// @Produce      json
// @Success      200 {object} model.JobListResponse
// @Router       /api/jobs [get]
func (h *JobHandler) List(c *fiber.Ctx) error {
	list, err := h.service.ListJobs(c.Context())
	if err != nil {
		return response.ServiceError(c, err.Error())
	}
	return response.OK(c, list)
}

func formatValidationErrors(err error) interface{} {
	if validationErrors, ok := err.(validator.ValidationErrors); ok {
		errors := make(map[string]string)
		for _, e := range validationErrors {
			errors[e.Field()] = e.Tag()
		}
		return errors
	}
	return nil
}
