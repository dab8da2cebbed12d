package models

// ExamContext carries the exam metadata submitted alongside a batch of files.
type ExamContext struct {
	ExamName    string `json:"examName"`
	Subject     string `json:"subject"`
	SubjectCode string `json:"subjectCode"`
}

// FileAsset is a single submitted document. Immutable once submitted; owned
// by the job run and not retained afterward.
type FileAsset struct {
	Name     string `json:"name"`
	MimeType string `json:"mimeType"`
	Content  []byte `json:"-"`
	Size     int64  `json:"size"`
}

// ExtractionMethod tags which strategy produced the text of a file.
type ExtractionMethod string

const (
	MethodText         ExtractionMethod = "text"
	MethodPDFTextLayer ExtractionMethod = "pdf-text-layer"
	MethodOCR          ExtractionMethod = "ocr"
	MethodNone         ExtractionMethod = "none"
)

// ExtractionResult is produced once per asset and never mutated afterwards.
// A failed extraction is encoded here (Method == MethodNone), not returned
// as an error.
type ExtractionResult struct {
	Text       string           `json:"text"`
	PageCount  int              `json:"pageCount"`
	Method     ExtractionMethod `json:"method"`
	Confidence float64          `json:"confidence"`
	Error      string           `json:"error,omitempty"`
	Suggestion string           `json:"suggestion,omitempty"`
}

// QuestionRecord is an extracted question plus its originating file. It only
// exists within one job run.
type QuestionRecord struct {
	Text       string `json:"text"`
	SourceFile string `json:"sourceFile"`
}

// Allowed PredictionRecord domains.
const (
	DifficultyEasy   = "Easy"
	DifficultyMedium = "Medium"
	DifficultyHard   = "Hard"

	SectionA = "A"
	SectionB = "B"
	SectionC = "C"

	TypeLongAnswer = "Long Answer"
)

// PredictionRecord is one predicted exam question. After normalization every
// field satisfies its domain regardless of what the upstream source produced.
type PredictionRecord struct {
	ID          int     `json:"id"`
	Topic       string  `json:"topic"`
	Question    string  `json:"question"`
	Difficulty  string  `json:"difficulty"`
	Probability float64 `json:"probability"`
	Type        string  `json:"type"`
	Rationale   string  `json:"rationale"`
	Section     string  `json:"section"`
}

// PredictionSet is the raw output of a prediction source before the engine
// normalizes it.
type PredictionSet struct {
	Predictions []PredictionRecord `json:"predictions"`
	Summary     []string           `json:"summary"`
	Trends      TrendData          `json:"trends"`
}

// TrendData holds year-over-year difficulty distribution.
type TrendData struct {
	DifficultyProgression []DifficultyYear `json:"difficultyProgression"`
}

type DifficultyYear struct {
	Year   int `json:"year"`
	Easy   int `json:"easy"`
	Medium int `json:"medium"`
	Hard   int `json:"hard"`
}

// FileResult is the per-file entry of the extraction report.
type FileResult struct {
	Filename       string           `json:"filename"`
	Status         string           `json:"status"`
	QuestionsFound int              `json:"questionsFound"`
	Method         ExtractionMethod `json:"method"`
}

// AnalysisStats summarizes what the pipeline actually did for one job.
type AnalysisStats struct {
	PapersAnalyzed     int          `json:"papersAnalyzed"`
	PagesProcessed     int          `json:"pagesProcessed"`
	QuestionsExtracted int          `json:"questionsExtracted"`
	TopicsCovered      int          `json:"topicsCovered"`
	OCRUsed            bool         `json:"ocrUsed"`
	FileResults        []FileResult `json:"fileResults"`
}

// AnalysisResult is the final payload of a completed job.
type AnalysisResult struct {
	Predictions []PredictionRecord `json:"predictions"`
	Summary     []string           `json:"summary"`
	Trends      TrendData          `json:"trends"`
	Analysis    AnalysisStats      `json:"analysis"`
	Warnings    []string           `json:"warnings"`
}
