// Package validator rejects malformed job submissions before the pipeline
// starts. Validation failures are a boundary concern and never reach the
// orchestrator.
package validator

import (
	"fmt"
	"strings"

	"github.com/feichai0017/exam-analyzer/internal/models"
)

// Config bounds one submission.
type Config struct {
	MaxFileSize  int64
	MaxFiles     int
	AllowedTypes map[string]bool
}

func DefaultConfig() *Config {
	return &Config{
		MaxFileSize: 50 * 1024 * 1024, // 50MB
		MaxFiles:    20,
		AllowedTypes: map[string]bool{
			"application/pdf": true,
			"image/png":       true,
			"image/jpeg":      true,
			"text/plain":      true,
		},
	}
}

// ValidationError describes one rejected field.
type ValidationError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Field   string `json:"field,omitempty"`
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

type SubmissionValidator struct {
	config *Config
}

func NewSubmissionValidator(cfg *Config) *SubmissionValidator {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	return &SubmissionValidator{config: cfg}
}

// ValidateSubmission checks the file batch and exam context of one job.
func (v *SubmissionValidator) ValidateSubmission(files []models.FileAsset, examCtx models.ExamContext) []ValidationError {
	var errs []ValidationError

	if len(files) == 0 {
		errs = append(errs, ValidationError{
			Code:    "NO_FILES",
			Message: "at least one file is required",
			Field:   "files",
		})
	}
	if len(files) > v.config.MaxFiles {
		errs = append(errs, ValidationError{
			Code:    "TOO_MANY_FILES",
			Message: fmt.Sprintf("at most %d files are allowed per job", v.config.MaxFiles),
			Field:   "files",
		})
	}

	for _, f := range files {
		if f.Size > v.config.MaxFileSize {
			errs = append(errs, ValidationError{
				Code:    "FILE_TOO_LARGE",
				Message: fmt.Sprintf("%s exceeds the %d byte limit", f.Name, v.config.MaxFileSize),
				Field:   "files",
			})
		}
		if !v.config.AllowedTypes[f.MimeType] {
			errs = append(errs, ValidationError{
				Code:    "INVALID_FILE_TYPE",
				Message: fmt.Sprintf("%s has unsupported type %s", f.Name, f.MimeType),
				Field:   "files",
			})
		}
	}

	if strings.TrimSpace(examCtx.Subject) == "" {
		errs = append(errs, ValidationError{
			Code:    "MISSING_SUBJECT",
			Message: "subject is required",
			Field:   "subject",
		})
	}
	if strings.TrimSpace(examCtx.ExamName) == "" {
		errs = append(errs, ValidationError{
			Code:    "MISSING_EXAM_NAME",
			Message: "examName is required",
			Field:   "examName",
		})
	}

	return errs
}
