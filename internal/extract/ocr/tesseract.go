package ocr

import (
	"context"
	"fmt"
	"strings"

	"github.com/otiai10/gosseract/v2"

	"github.com/feichai0017/exam-analyzer/pkg/logger"
)

// TesseractRecognizer runs a local Tesseract engine through gosseract. A
// fresh client is created per call; clients are cheap once the language data
// is warm, and gosseract clients are not safe to share across goroutines.
type TesseractRecognizer struct {
	languages []string
	logger    logger.Logger
}

func NewTesseractRecognizer(log logger.Logger, languages ...string) *TesseractRecognizer {
	if len(languages) == 0 {
		languages = []string{"eng"}
	}
	return &TesseractRecognizer{
		languages: languages,
		logger:    log,
	}
}

func (r *TesseractRecognizer) Recognize(ctx context.Context, image []byte) (*Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	client := gosseract.NewClient()
	defer client.Close()

	if err := client.SetLanguage(strings.Join(r.languages, "+")); err != nil {
		return nil, fmt.Errorf("failed to set language: %w", err)
	}
	if err := client.SetPageSegMode(gosseract.PSM_AUTO); err != nil {
		return nil, fmt.Errorf("failed to set page segmentation mode: %w", err)
	}
	if err := client.SetImageFromBytes(image); err != nil {
		return nil, fmt.Errorf("failed to set image: %w", err)
	}

	text, err := client.Text()
	if err != nil {
		return nil, fmt.Errorf("failed to recognize text: %w", err)
	}

	confidence := r.meanConfidence(client)
	return &Result{Text: text, Confidence: confidence}, nil
}

func (r *TesseractRecognizer) meanConfidence(client *gosseract.Client) float64 {
	boxes, err := client.GetBoundingBoxesVerbose()
	if err != nil || len(boxes) == 0 {
		r.logger.Debug("no word-level confidence available", logger.Error(err))
		return 0
	}

	var total float64
	for _, box := range boxes {
		total += box.Confidence
	}
	return total / float64(len(boxes))
}

func (r *TesseractRecognizer) Close() error {
	return nil
}
