package extract

import (
	"bytes"
	"context"
	"image"
	_ "image/jpeg"
	"image/png"

	"github.com/disintegration/imaging"

	"github.com/feichai0017/exam-analyzer/internal/models"
	"github.com/feichai0017/exam-analyzer/pkg/logger"
)

const unreadableImageSuggestion = "the image could not be recognized; submit a sharper, higher-resolution scan"

// ImageFilter is one step of the OCR preprocessing pipeline.
type ImageFilter func(image.Image) image.Image

func defaultFilters() []ImageFilter {
	return []ImageFilter{
		func(img image.Image) image.Image { return imaging.Grayscale(img) },
		func(img image.Image) image.Image { return imaging.AdjustContrast(img, 20) },
		func(img image.Image) image.Image { return imaging.Sharpen(img, 0.5) },
	}
}

func (c *Cascade) extractImage(ctx context.Context, asset *models.FileAsset) *models.ExtractionResult {
	if c.recognizer == nil {
		return &models.ExtractionResult{
			Method: models.MethodNone,
			Error:  "no OCR recognizer configured",
		}
	}

	// Preprocessing is best effort: if the image cannot be decoded or
	// re-encoded, OCR runs on the original bytes.
	payload := c.preprocess(asset)

	res, err := c.recognizer.Recognize(ctx, payload)
	if err != nil {
		c.logger.Warn("image recognition failed",
			logger.String("file", asset.Name),
			logger.Error(err),
		)
		return &models.ExtractionResult{
			Method:     models.MethodNone,
			Error:      err.Error(),
			Suggestion: unreadableImageSuggestion,
		}
	}

	return &models.ExtractionResult{
		Text:       CleanText(res.Text),
		PageCount:  1,
		Method:     models.MethodOCR,
		Confidence: res.Confidence,
	}
}

func (c *Cascade) preprocess(asset *models.FileAsset) []byte {
	img, _, err := image.Decode(bytes.NewReader(asset.Content))
	if err != nil {
		c.logger.Debug("skipping preprocessing, image not decodable",
			logger.String("file", asset.Name),
			logger.Error(err),
		)
		return asset.Content
	}

	for _, filter := range c.filters {
		img = filter(img)
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return asset.Content
	}
	return buf.Bytes()
}
