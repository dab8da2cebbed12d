package ocr

import (
	"context"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/textract"
	"github.com/aws/aws-sdk-go-v2/service/textract/types"

	"github.com/feichai0017/exam-analyzer/pkg/logger"
)

// TextractConfig holds AWS credentials for the Textract backend.
type TextractConfig struct {
	Region    string
	AccessKey string
	SecretKey string
}

// TextractRecognizer recognizes text through AWS Textract. Used instead of
// the local Tesseract engine when the deployment has no tessdata installed.
type TextractRecognizer struct {
	client *textract.Client
	logger logger.Logger
}

func NewTextractRecognizer(ctx context.Context, cfg *TextractConfig, log logger.Logger) (*TextractRecognizer, error) {
	creds := credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, "")

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(cfg.Region),
		awsconfig.WithCredentialsProvider(creds),
	)
	if err != nil {
		return nil, fmt.Errorf("unable to load AWS config: %w", err)
	}

	return &TextractRecognizer{
		client: textract.NewFromConfig(awsCfg),
		logger: log,
	}, nil
}

func (r *TextractRecognizer) Recognize(ctx context.Context, image []byte) (*Result, error) {
	out, err := r.client.DetectDocumentText(ctx, &textract.DetectDocumentTextInput{
		Document: &types.Document{Bytes: image},
	})
	if err != nil {
		return nil, fmt.Errorf("textract request failed: %w", err)
	}

	var (
		lines      []string
		confidence float64
		lineCount  int
	)
	for _, block := range out.Blocks {
		if block.BlockType != types.BlockTypeLine {
			continue
		}
		lines = append(lines, aws.ToString(block.Text))
		if block.Confidence != nil {
			confidence += float64(*block.Confidence)
			lineCount++
		}
	}

	if lineCount > 0 {
		confidence /= float64(lineCount)
	}

	return &Result{
		Text:       strings.Join(lines, "\n"),
		Confidence: confidence,
	}, nil
}

func (r *TextractRecognizer) Close() error {
	return nil
}
