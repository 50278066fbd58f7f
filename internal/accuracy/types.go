// internal/accuracy/types.go
package accuracy

// PromptSuite defines the accuracy test cases loaded from JSON.
type PromptSuite struct {
	Tests []PromptTest `json:"tests"`
}

// PromptTest is one question and the tariff percentage the answer must contain.
type PromptTest struct {
	ID             int     `json:"id"`
	Question       string  `json:"question"`
	ExpectedAnswer float64 `json:"expected_answer"`
	MarginOfError  float64 `json:"marginOfError,omitempty"`
	Category       string  `json:"category,omitempty"`
}

// AccuracyResult records a single answer and its correctness.
type AccuracyResult struct {
	Timestamp         string  `json:"timestamp"`
	Index             string  `json:"index"`
	PromptID          int     `json:"promptId"`
	Question          string  `json:"question"`
	Category          string  `json:"category,omitempty"`
	ExpectedAnswer    float64 `json:"expectedAnswer"`
	MarginOfError     float64 `json:"marginOfError"`
	Response          string  `json:"response"`
	EvaluatedResponse string  `json:"evaluatedResponse,omitempty"`
	Correct           bool    `json:"correct"`
	Stage             string  `json:"stage,omitempty"`
	DeadlineExceeded  bool    `json:"deadlineExceeded"`
	TotalDurationMs   int     `json:"total_duration_ms"`
}

// Summary totals one run.
type Summary struct {
	Total   int
	Correct int
	Errors  int
	// ResultsPath is the JSONL file the results were appended to, or "" when
	// results were not written.
	ResultsPath string
}

// Rate is the share of correct answers, 0 when nothing ran.
func (s Summary) Rate() float64 {
	if s.Total == 0 {
		return 0
	}
	return float64(s.Correct) / float64(s.Total)
}
