package extract

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/feichai0017/exam-analyzer/internal/extract/ocr"
	"github.com/feichai0017/exam-analyzer/internal/models"
	"github.com/feichai0017/exam-analyzer/pkg/logger"
)

const scannedPDFSuggestion = "this file appears to be a scanned, image-only document; submit the pages as images instead"

// Config bounds the cascade. MinTextLength is the per-strategy success
// criterion; a text layer shorter than that is treated as absent and the
// next strategy runs. SkipTextLayers treats every PDF as scanned and routes
// it straight to OCR instead of assuming a usable text layer.
type Config struct {
	MinTextLength  int
	MaxOCRPages    int
	SkipTextLayers bool
}

func DefaultConfig() *Config {
	return &Config{
		MinTextLength: 100,
		MaxOCRPages:   10,
	}
}

type strategyOutput struct {
	text       string
	pages      int
	confidence float64
}

// pdfStrategy is one rung of the PDF extraction ladder.
type pdfStrategy struct {
	name   string
	method models.ExtractionMethod
	run    func(ctx context.Context, content []byte) (*strategyOutput, error)
}

// Cascade dispatches an asset by mime type and, for PDFs, walks a fixed
// strategy chain stopping at the first success. Extract never returns an
// error: failures are encoded in the ExtractionResult so a bad file cannot
// abort the surrounding job.
type Cascade struct {
	cfg        *Config
	recognizer ocr.Recognizer
	logger     logger.Logger

	pdfStrategies []pdfStrategy
	filters       []ImageFilter
}

func NewCascade(cfg *Config, recognizer ocr.Recognizer, log logger.Logger) *Cascade {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	c := &Cascade{
		cfg:        cfg,
		recognizer: recognizer,
		logger:     log,
		filters:    defaultFilters(),
	}
	c.pdfStrategies = []pdfStrategy{
		{name: "native-text-layer", method: models.MethodPDFTextLayer, run: c.extractNativeTextLayer},
		{name: "secondary-text-layer", method: models.MethodPDFTextLayer, run: c.extractSecondaryTextLayer},
		{name: "rasterize-ocr", method: models.MethodOCR, run: c.extractPDFByOCR},
	}
	return c
}

// Extract runs the cascade for one asset.
func (c *Cascade) Extract(ctx context.Context, asset *models.FileAsset) *models.ExtractionResult {
	switch {
	case asset.MimeType == "text/plain":
		return c.extractPlainText(asset)
	case asset.MimeType == "application/pdf":
		return c.extractPDF(ctx, asset)
	case strings.HasPrefix(asset.MimeType, "image/"):
		return c.extractImage(ctx, asset)
	default:
		return &models.ExtractionResult{
			Method: models.MethodNone,
			Error:  fmt.Sprintf("unsupported mime type: %s", asset.MimeType),
		}
	}
}

func (c *Cascade) extractPlainText(asset *models.FileAsset) *models.ExtractionResult {
	text := string(asset.Content)
	if !utf8.ValidString(text) {
		text = strings.ToValidUTF8(text, "")
	}
	return &models.ExtractionResult{
		Text:       CleanText(text),
		PageCount:  1,
		Method:     models.MethodText,
		Confidence: 100,
	}
}

func (c *Cascade) extractPDF(ctx context.Context, asset *models.FileAsset) *models.ExtractionResult {
	strategies := c.pdfStrategies
	if c.cfg.SkipTextLayers {
		strategies = strategies[len(strategies)-1:]
	}

	for _, strat := range strategies {
		out, err := c.runStrategy(ctx, strat, asset.Content)
		if err != nil {
			c.logger.Debug("pdf strategy failed",
				logger.String("file", asset.Name),
				logger.String("strategy", strat.name),
				logger.Error(err),
			)
			continue
		}
		if utf8.RuneCountInString(strings.TrimSpace(out.text)) < c.cfg.MinTextLength {
			c.logger.Debug("pdf strategy below text threshold",
				logger.String("file", asset.Name),
				logger.String("strategy", strat.name),
				logger.Int("length", utf8.RuneCountInString(strings.TrimSpace(out.text))),
			)
			continue
		}
		return &models.ExtractionResult{
			Text:       CleanText(out.text),
			PageCount:  out.pages,
			Method:     strat.method,
			Confidence: out.confidence,
		}
	}

	return &models.ExtractionResult{
		Method:     models.MethodNone,
		Error:      "no extraction strategy produced usable text from this PDF",
		Suggestion: scannedPDFSuggestion,
	}
}

// runStrategy shields the cascade from panics inside third-party PDF
// parsers; a panic on malformed input becomes an ordinary strategy failure.
func (c *Cascade) runStrategy(ctx context.Context, strat pdfStrategy, content []byte) (out *strategyOutput, err error) {
	defer func() {
		if r := recover(); r != nil {
			out = nil
			err = fmt.Errorf("strategy %s panicked: %v", strat.name, r)
		}
	}()
	return strat.run(ctx, content)
}
