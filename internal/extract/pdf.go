package extract

import (
	"bytes"
	"context"
	"fmt"
	"image/png"
	"io"
	"strings"

	dslipdf "github.com/dslipak/pdf"
	"github.com/gen2brain/go-fitz"
	ledpdf "github.com/ledongthuc/pdf"

	"github.com/feichai0017/exam-analyzer/pkg/logger"
)

// extractNativeTextLayer reads the PDF text layer page by page.
func (c *Cascade) extractNativeTextLayer(ctx context.Context, content []byte) (*strategyOutput, error) {
	reader := bytes.NewReader(content)
	pdfReader, err := ledpdf.NewReader(reader, reader.Size())
	if err != nil {
		return nil, fmt.Errorf("failed to open pdf: %w", err)
	}

	numPages := pdfReader.NumPage()
	var sb strings.Builder
	for i := 1; i <= numPages; i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		page := pdfReader.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			return nil, fmt.Errorf("failed to get text from page %d: %w", i, err)
		}
		sb.WriteString(text)
		sb.WriteString("\n")
	}

	return &strategyOutput{
		text:       sb.String(),
		pages:      numPages,
		confidence: 100,
	}, nil
}

// extractSecondaryTextLayer is a second opinion on the text layer. The two
// parsers assemble glyph runs differently, so one frequently recovers text
// the other drops.
func (c *Cascade) extractSecondaryTextLayer(ctx context.Context, content []byte) (*strategyOutput, error) {
	reader := bytes.NewReader(content)
	pdfReader, err := dslipdf.NewReader(reader, reader.Size())
	if err != nil {
		return nil, fmt.Errorf("failed to open pdf: %w", err)
	}

	plain, err := pdfReader.GetPlainText()
	if err != nil {
		return nil, fmt.Errorf("failed to get plain text: %w", err)
	}
	data, err := io.ReadAll(plain)
	if err != nil {
		return nil, fmt.Errorf("failed to read plain text: %w", err)
	}

	return &strategyOutput{
		text:       string(data),
		pages:      pdfReader.NumPage(),
		confidence: 100,
	}, nil
}

// extractPDFByOCR rasterizes pages and feeds them to the OCR recognizer,
// bounded by MaxOCRPages. Confidence is the mean of per-page confidences;
// a page that fails to render or recognize is skipped, not fatal.
func (c *Cascade) extractPDFByOCR(ctx context.Context, content []byte) (*strategyOutput, error) {
	if c.recognizer == nil {
		return nil, fmt.Errorf("no OCR recognizer configured")
	}

	doc, err := fitz.NewFromMemory(content)
	if err != nil {
		return nil, fmt.Errorf("failed to open pdf for rasterization: %w", err)
	}
	defer doc.Close()

	numPages := doc.NumPage()
	pages := numPages
	if pages > c.cfg.MaxOCRPages {
		pages = c.cfg.MaxOCRPages
	}

	var (
		sb         strings.Builder
		confidence float64
		recognized int
	)
	for i := 0; i < pages; i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		img, err := doc.Image(i)
		if err != nil {
			c.logger.Debug("failed to rasterize page",
				logger.Int("page", i+1),
				logger.Error(err),
			)
			continue
		}

		var buf bytes.Buffer
		if err := png.Encode(&buf, img); err != nil {
			continue
		}

		res, err := c.recognizer.Recognize(ctx, buf.Bytes())
		if err != nil {
			c.logger.Debug("ocr failed on page",
				logger.Int("page", i+1),
				logger.Error(err),
			)
			continue
		}

		sb.WriteString(res.Text)
		sb.WriteString("\n")
		confidence += res.Confidence
		recognized++
	}

	if recognized == 0 {
		return nil, fmt.Errorf("ocr recognized no pages out of %d", pages)
	}

	return &strategyOutput{
		text:       sb.String(),
		pages:      numPages,
		confidence: confidence / float64(recognized),
	}, nil
}
