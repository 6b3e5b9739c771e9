package models

// ParsedLabel is the structured output of the label text parser.
// All fields degrade to empty values on sparse or malformed input;
// a zero ParsedLabel is a valid parse result.
type ParsedLabel struct {
	ProductName    string            `json:"productName,omitempty"`
	Ingredients    []string          `json:"ingredients"`
	NutritionFacts map[string]string `json:"nutritionFacts"`
	Warnings       []string          `json:"warnings"`
}

// ExtractedData is what gets persisted on a completed scan: the parse
// result plus the recognition confidence reported by the OCR engine.
type ExtractedData struct {
	Ingredients    []string          `json:"ingredients"`
	NutritionFacts map[string]string `json:"nutritionFacts"`
	Warnings       []string          `json:"warnings"`
	Confidence     float64           `json:"confidence"`
}

// Severity grades how strongly a finding weighs against a product.
type Severity string

const (
	SeverityHigh     Severity = "high"
	SeverityModerate Severity = "moderate"
	SeverityLow      Severity = "low"
)

// Finding is a single rule match produced by the health analyzer.
type Finding struct {
	Rule         string   `json:"rule"`
	Severity     Severity `json:"severity"`
	EvidenceText string   `json:"evidenceText"`
	ScoreDelta   int      `json:"scoreDelta"`
}

// AnalysisResult is the health analyzer output for one scan.
type AnalysisResult struct {
	OverallScore int       `json:"overallScore"`
	Findings     []Finding `json:"findings"`
}
