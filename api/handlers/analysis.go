package handlers

import (
	"bytes"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"path"
	"path/filepath"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/feichai0017/exam-analyzer/internal/models"
	"github.com/feichai0017/exam-analyzer/internal/utils/validator"
	"github.com/feichai0017/exam-analyzer/pkg/logger"
	"github.com/feichai0017/exam-analyzer/pkg/queue"
	"github.com/feichai0017/exam-analyzer/pkg/storage"
)

// AnalysisHandler accepts paper submissions, hands them to the queue and
// answers status and result polls from the redis snapshots.
type AnalysisHandler struct {
	store     storage.Storage
	queue     queue.Queue
	validator *validator.SubmissionValidator
	logger    logger.Logger
}

type SubmitResponse struct {
	JobID     string `json:"jobId"`
	Status    string `json:"status"`
	FileCount int    `json:"fileCount"`
	CreatedAt string `json:"createdAt"`
}

type ErrorResponse struct {
	Error   string                      `json:"error,omitempty"`
	Message string                      `json:"message"`
	Details []validator.ValidationError `json:"details,omitempty"`
}

func NewAnalysisHandler(store storage.Storage, q queue.Queue, v *validator.SubmissionValidator, log logger.Logger) *AnalysisHandler {
	return &AnalysisHandler{
		store:     store,
		queue:     q,
		validator: v,
		logger:    log,
	}
}

// SubmitAnalysis accepts a multipart batch of exam papers plus the exam
// context, persists the files and enqueues one analysis job.
func (h *AnalysisHandler) SubmitAnalysis(c *gin.Context) {
	form, err := c.MultipartForm()
	if err != nil {
		h.handleError(c, http.StatusBadRequest, "Invalid form data", err)
		return
	}

	files := form.File["files"]
	examCtx := models.ExamContext{
		ExamName:    c.PostForm("examName"),
		Subject:     c.PostForm("subject"),
		SubjectCode: c.PostForm("subjectCode"),
	}

	assets := make([]models.FileAsset, len(files))
	for i, fh := range files {
		assets[i] = models.FileAsset{
			Name:     fh.Filename,
			MimeType: detectMimeType(fh),
			Size:     fh.Size,
		}
	}
	if errs := h.validator.ValidateSubmission(assets, examCtx); len(errs) > 0 {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Submission rejected",
			Details: errs,
		})
		return
	}

	jobID := uuid.NewString()
	stored := make([]queue.StoredFile, 0, len(files))
	for i, fh := range files {
		key, err := h.storeFile(c, jobID, fh)
		if err != nil {
			h.handleError(c, http.StatusInternalServerError, "Failed to store file", err)
			return
		}
		stored = append(stored, queue.StoredFile{
			Key:      key,
			Name:     fh.Filename,
			MimeType: assets[i].MimeType,
			Size:     fh.Size,
		})
	}

	now := time.Now()
	job := &models.Job{
		ID:         jobID,
		TotalSteps: len(files) + 2,
		Status:     models.JobCreated,
		Message:    "queued for analysis",
		CreatedAt:  now,
	}
	if err := h.queue.SaveStatus(c.Request.Context(), job); err != nil {
		h.handleError(c, http.StatusInternalServerError, "Failed to record job", err)
		return
	}

	task := &queue.AnalysisTask{
		JobID:     jobID,
		Files:     stored,
		Exam:      examCtx,
		CreatedAt: now,
	}
	if err := h.queue.Enqueue(c.Request.Context(), task); err != nil {
		h.handleError(c, http.StatusInternalServerError, "Failed to enqueue job", err)
		return
	}

	h.logger.Info("Analysis job submitted",
		logger.String("jobId", jobID),
		logger.Int("files", len(files)),
		logger.String("subject", examCtx.Subject),
	)

	c.JSON(http.StatusAccepted, SubmitResponse{
		JobID:     jobID,
		Status:    string(models.JobCreated),
		FileCount: len(files),
		CreatedAt: now.Format(time.RFC3339),
	})
}

// GetStatus reports the latest snapshot of a job.
func (h *AnalysisHandler) GetStatus(c *gin.Context) {
	jobID := c.Param("jobId")

	job, err := h.queue.GetStatus(c.Request.Context(), jobID)
	if err == queue.ErrJobNotFound {
		c.JSON(http.StatusNotFound, ErrorResponse{Message: "Job not found"})
		return
	}
	if err != nil {
		h.handleError(c, http.StatusInternalServerError, "Failed to get status", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"jobId":       job.ID,
		"status":      job.Status,
		"progress":    job.Progress,
		"currentStep": job.CurrentStep,
		"totalSteps":  job.TotalSteps,
		"message":     job.Message,
		"error":       job.Error,
		"createdAt":   job.CreatedAt.Format(time.RFC3339),
	})
}

// GetResult returns the analysis payload once the job has completed.
func (h *AnalysisHandler) GetResult(c *gin.Context) {
	jobID := c.Param("jobId")

	job, err := h.queue.GetStatus(c.Request.Context(), jobID)
	if err == queue.ErrJobNotFound {
		c.JSON(http.StatusNotFound, ErrorResponse{Message: "Job not found"})
		return
	}
	if err != nil {
		h.handleError(c, http.StatusInternalServerError, "Failed to get result", err)
		return
	}

	switch job.Status {
	case models.JobCompleted:
		c.JSON(http.StatusOK, job.Result)
	case models.JobFailed:
		c.JSON(http.StatusConflict, ErrorResponse{
			Message: "Job failed",
			Error:   job.Error,
		})
	default:
		c.JSON(http.StatusConflict, ErrorResponse{
			Message: fmt.Sprintf("Job is %s, result not available yet", job.Status),
		})
	}
}

func (h *AnalysisHandler) storeFile(c *gin.Context, jobID string, fh *multipart.FileHeader) (string, error) {
	f, err := fh.Open()
	if err != nil {
		return "", fmt.Errorf("failed to open upload %s: %w", fh.Filename, err)
	}
	defer f.Close()

	content, err := io.ReadAll(f)
	if err != nil {
		return "", fmt.Errorf("failed to read upload %s: %w", fh.Filename, err)
	}

	key := path.Join(jobID, filepath.Base(fh.Filename))
	return h.store.Store(c.Request.Context(), bytes.NewReader(content), key)
}

// detectMimeType prefers the declared content type and falls back to the
// file extension.
func detectMimeType(fh *multipart.FileHeader) string {
	if ct := fh.Header.Get("Content-Type"); ct != "" {
		if mt, _, err := mime.ParseMediaType(ct); err == nil {
			return mt
		}
	}
	if mt := mime.TypeByExtension(filepath.Ext(fh.Filename)); mt != "" {
		if parsed, _, err := mime.ParseMediaType(mt); err == nil {
			return parsed
		}
	}
	return "application/octet-stream"
}

func (h *AnalysisHandler) handleError(c *gin.Context, status int, message string, err error) {
	h.logger.Error(message,
		logger.String("path", c.Request.URL.Path),
		logger.Error(err),
	)

	response := ErrorResponse{Message: message}
	if err != nil {
		response.Error = err.Error()
	}
	c.JSON(status, response)
}
