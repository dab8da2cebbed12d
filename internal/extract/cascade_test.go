package extract

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/feichai0017/exam-analyzer/internal/extract/ocr"
	"github.com/feichai0017/exam-analyzer/internal/models"
	"github.com/feichai0017/exam-analyzer/pkg/logger"
)

type fakeRecognizer struct {
	result *ocr.Result
	err    error
	calls  int
}

func (f *fakeRecognizer) Recognize(ctx context.Context, image []byte) (*ocr.Result, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.result, nil
}

func (f *fakeRecognizer) Close() error { return nil }

func newTestCascade(cfg *Config, rec ocr.Recognizer) *Cascade {
	return NewCascade(cfg, rec, logger.NewTestLogger())
}

func stubStrategy(name string, method models.ExtractionMethod, text string, pages int, err error) pdfStrategy {
	return pdfStrategy{
		name:   name,
		method: method,
		run: func(ctx context.Context, content []byte) (*strategyOutput, error) {
			if err != nil {
				return nil, err
			}
			return &strategyOutput{text: text, pages: pages, confidence: 90}, nil
		},
	}
}

func TestExtractPlainText(t *testing.T) {
	c := newTestCascade(nil, nil)

	res := c.Extract(context.Background(), &models.FileAsset{
		Name:     "notes.txt",
		MimeType: "text/plain",
		Content:  []byte("Q1.  What is   a deadlock?"),
	})

	assert.Equal(t, models.MethodText, res.Method)
	assert.Equal(t, "Q1. What is a deadlock?", res.Text)
	assert.Equal(t, 1, res.PageCount)
	assert.EqualValues(t, 100, res.Confidence)
}

func TestExtractUnsupportedMimeType(t *testing.T) {
	c := newTestCascade(nil, nil)

	res := c.Extract(context.Background(), &models.FileAsset{
		Name:     "paper.docx",
		MimeType: "application/msword",
	})

	assert.Equal(t, models.MethodNone, res.Method)
	assert.Contains(t, res.Error, "unsupported mime type")
}

func TestExtractPDFFirstStrategyWins(t *testing.T) {
	c := newTestCascade(nil, nil)
	longText := strings.Repeat("a", 100)
	c.pdfStrategies = []pdfStrategy{
		stubStrategy("first", models.MethodPDFTextLayer, longText, 3, nil),
		stubStrategy("second", models.MethodOCR, "should never run", 1, nil),
	}

	res := c.Extract(context.Background(), &models.FileAsset{
		Name:     "paper.pdf",
		MimeType: "application/pdf",
	})

	assert.Equal(t, models.MethodPDFTextLayer, res.Method)
	assert.Equal(t, 3, res.PageCount)
	assert.Equal(t, longText, res.Text)
}

func TestExtractPDFTextLengthThreshold(t *testing.T) {
	c := newTestCascade(nil, nil)
	shortText := strings.Repeat("a", 99)
	longText := strings.Repeat("b", 100)
	c.pdfStrategies = []pdfStrategy{
		stubStrategy("short", models.MethodPDFTextLayer, shortText, 1, nil),
		stubStrategy("long", models.MethodOCR, longText, 2, nil),
	}

	res := c.Extract(context.Background(), &models.FileAsset{
		Name:     "paper.pdf",
		MimeType: "application/pdf",
	})

	// 99 usable runes is one short of the threshold, so the chain moves on.
	assert.Equal(t, models.MethodOCR, res.Method)
	assert.Equal(t, longText, res.Text)
}

func TestExtractPDFFailingStrategySkipped(t *testing.T) {
	c := newTestCascade(nil, nil)
	longText := strings.Repeat("a", 150)
	c.pdfStrategies = []pdfStrategy{
		stubStrategy("broken", models.MethodPDFTextLayer, "", 0, errors.New("corrupt xref table")),
		stubStrategy("fallback", models.MethodOCR, longText, 4, nil),
	}

	res := c.Extract(context.Background(), &models.FileAsset{
		Name:     "paper.pdf",
		MimeType: "application/pdf",
	})

	assert.Equal(t, models.MethodOCR, res.Method)
	assert.Equal(t, 4, res.PageCount)
}

func TestExtractPDFPanickingStrategySkipped(t *testing.T) {
	c := newTestCascade(nil, nil)
	longText := strings.Repeat("a", 150)
	c.pdfStrategies = []pdfStrategy{
		{
			name:   "panicky",
			method: models.MethodPDFTextLayer,
			run: func(ctx context.Context, content []byte) (*strategyOutput, error) {
				panic("index out of range")
			},
		},
		stubStrategy("fallback", models.MethodOCR, longText, 2, nil),
	}

	res := c.Extract(context.Background(), &models.FileAsset{
		Name:     "mangled.pdf",
		MimeType: "application/pdf",
	})

	assert.Equal(t, models.MethodOCR, res.Method)
}

func TestExtractPDFAllStrategiesFail(t *testing.T) {
	c := newTestCascade(nil, nil)
	c.pdfStrategies = []pdfStrategy{
		stubStrategy("first", models.MethodPDFTextLayer, "", 0, errors.New("no text layer")),
		stubStrategy("second", models.MethodOCR, "too short", 1, nil),
	}

	res := c.Extract(context.Background(), &models.FileAsset{
		Name:     "scan.pdf",
		MimeType: "application/pdf",
	})

	assert.Equal(t, models.MethodNone, res.Method)
	assert.NotEmpty(t, res.Error)
	assert.Equal(t, scannedPDFSuggestion, res.Suggestion)
}

func TestExtractPDFSkipTextLayers(t *testing.T) {
	c := newTestCascade(&Config{MinTextLength: 10, MaxOCRPages: 10, SkipTextLayers: true}, nil)
	textLayerRan := false
	c.pdfStrategies = []pdfStrategy{
		{
			name:   "text-layer",
			method: models.MethodPDFTextLayer,
			run: func(ctx context.Context, content []byte) (*strategyOutput, error) {
				textLayerRan = true
				return &strategyOutput{text: strings.Repeat("a", 50), pages: 1}, nil
			},
		},
		stubStrategy("ocr", models.MethodOCR, strings.Repeat("b", 50), 2, nil),
	}

	res := c.Extract(context.Background(), &models.FileAsset{
		Name:     "scan.pdf",
		MimeType: "application/pdf",
	})

	assert.False(t, textLayerRan)
	assert.Equal(t, models.MethodOCR, res.Method)
}

func TestExtractImage(t *testing.T) {
	rec := &fakeRecognizer{result: &ocr.Result{
		Text:       "Q1. Derive the   equation of motion.",
		Confidence: 87.5,
	}}
	c := newTestCascade(nil, rec)

	res := c.Extract(context.Background(), &models.FileAsset{
		Name:     "page1.png",
		MimeType: "image/png",
		Content:  []byte("not a real png"),
	})

	require.Equal(t, models.MethodOCR, res.Method)
	assert.Equal(t, "Q1. Derive the equation of motion.", res.Text)
	assert.Equal(t, 1, res.PageCount)
	assert.EqualValues(t, 87.5, res.Confidence)
	assert.Equal(t, 1, rec.calls)
}

func TestExtractImageRecognitionFailure(t *testing.T) {
	rec := &fakeRecognizer{err: errors.New("engine unavailable")}
	c := newTestCascade(nil, rec)

	res := c.Extract(context.Background(), &models.FileAsset{
		Name:     "blurry.jpg",
		MimeType: "image/jpeg",
		Content:  []byte{0x01},
	})

	assert.Equal(t, models.MethodNone, res.Method)
	assert.Equal(t, unreadableImageSuggestion, res.Suggestion)
}

func TestExtractImageWithoutRecognizer(t *testing.T) {
	c := newTestCascade(nil, nil)

	res := c.Extract(context.Background(), &models.FileAsset{
		Name:     "page1.png",
		MimeType: "image/png",
	})

	assert.Equal(t, models.MethodNone, res.Method)
	assert.Contains(t, res.Error, "no OCR recognizer")
}
