package predict

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	"github.com/feichai0017/exam-analyzer/internal/models"
	"github.com/feichai0017/exam-analyzer/pkg/logger"
)

// maxPromptQuestions bounds the prompt size; only the first N extracted
// questions are sent to the inference service.
const maxPromptQuestions = 50

// GeminiSource asks Google Gemini for predictions. Any deviation from the
// expected response shape is returned as an error; the engine decides what
// to do with it (fall back), never the caller.
type GeminiSource struct {
	client *genai.Client
	model  string
	logger logger.Logger
}

func NewGeminiSource(ctx context.Context, apiKey, model string, log logger.Logger) (*GeminiSource, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("API key is required")
	}

	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	return &GeminiSource{
		client: client,
		model:  model,
		logger: log,
	}, nil
}

func (s *GeminiSource) Predict(ctx context.Context, questions []models.QuestionRecord, subject, examName string) (*models.PredictionSet, error) {
	model := s.client.GenerativeModel(s.model)
	model.SetTemperature(0.1)
	model.ResponseMIMEType = "application/json"

	resp, err := model.GenerateContent(ctx, genai.Text(buildPrompt(questions, subject, examName)))
	if err != nil {
		return nil, fmt.Errorf("inference request failed: %w", err)
	}

	text, err := extractTextFromResponse(resp)
	if err != nil {
		return nil, err
	}

	return parsePredictionSet(cleanJSONBlock(text))
}

func (s *GeminiSource) Close() error {
	if s.client != nil {
		return s.client.Close()
	}
	return nil
}

func buildPrompt(questions []models.QuestionRecord, subject, examName string) string {
	if len(questions) > maxPromptQuestions {
		questions = questions[:maxPromptQuestions]
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "You are analyzing past papers of the %q exam for the subject %q.\n", examName, subject)
	sb.WriteString("The questions below were extracted from the submitted papers:\n\n")
	for i, q := range questions {
		fmt.Fprintf(&sb, "%d. %s\n", i+1, q.Text)
	}
	sb.WriteString(`
Predict the most likely questions for the next exam. Respond with a single JSON object:
{
  "predictions": [{"topic": string, "question": string, "difficulty": "Easy"|"Medium"|"Hard", "probability": number between 0 and 1, "type": string, "rationale": string, "section": "A"|"B"|"C"}],
  "summary": [string],
  "trends": {"difficultyProgression": [{"year": int, "easy": int, "medium": int, "hard": int}]}
}
Return at most 10 predictions, ranked by probability.`)
	return sb.String()
}

// parsePredictionSet validates the adapter's JSON. A response without a
// predictions array is an adapter failure, not an empty result.
func parsePredictionSet(text string) (*models.PredictionSet, error) {
	var raw struct {
		Predictions []models.PredictionRecord `json:"predictions"`
		Summary     []string                  `json:"summary"`
		Trends      models.TrendData          `json:"trends"`
	}
	if err := json.Unmarshal([]byte(text), &raw); err != nil {
		return nil, fmt.Errorf("malformed inference response: %w", err)
	}
	if raw.Predictions == nil {
		return nil, fmt.Errorf("inference response is missing the predictions array")
	}

	return &models.PredictionSet{
		Predictions: raw.Predictions,
		Summary:     raw.Summary,
		Trends:      raw.Trends,
	}, nil
}

func extractTextFromResponse(resp *genai.GenerateContentResponse) (string, error) {
	if len(resp.Candidates) == 0 {
		return "", fmt.Errorf("no candidates in response")
	}

	candidate := resp.Candidates[0]
	if candidate.Content == nil || len(candidate.Content.Parts) == 0 {
		return "", fmt.Errorf("no content in response")
	}

	var parts []string
	for _, part := range candidate.Content.Parts {
		if text, ok := part.(genai.Text); ok {
			parts = append(parts, string(text))
		}
	}
	if len(parts) == 0 {
		return "", fmt.Errorf("no text parts in response")
	}
	return strings.Join(parts, ""), nil
}

// cleanJSONBlock removes markdown code fences some models wrap JSON in.
func cleanJSONBlock(text string) string {
	text = strings.TrimSpace(text)
	text = strings.TrimPrefix(text, "```json")
	text = strings.TrimPrefix(text, "```")
	text = strings.TrimSuffix(text, "```")
	return strings.TrimSpace(text)
}
