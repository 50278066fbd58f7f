// internal/accuracy/suite.go
package accuracy

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/xeipuuv/gojsonschema"

	"github.com/mwiater/tariffadvisor/internal/domain"
)

const suiteSchema = `{
  "type": "object",
  "required": ["tests"],
  "properties": {
    "tests": {
      "type": "array",
      "minItems": 1,
      "items": {
        "type": "object",
        "required": ["id", "question", "expected_answer"],
        "properties": {
          "id": {"type": "integer"},
          "question": {"type": "string", "minLength": 1},
          "expected_answer": {"type": "number"},
          "marginOfError": {"type": "number", "minimum": 0},
          "category": {"type": "string"}
        }
      }
    }
  }
}`

// LoadPromptSuite reads and validates a suite file.
func LoadPromptSuite(path string) (PromptSuite, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return PromptSuite{}, fmt.Errorf("error reading prompt suite: %w", err)
	}

	result, err := gojsonschema.Validate(gojsonschema.NewStringLoader(suiteSchema), gojsonschema.NewBytesLoader(raw))
	if err != nil {
		return PromptSuite{}, fmt.Errorf("error parsing prompt suite: %w", err)
	}
	if !result.Valid() {
		msgs := make([]string, 0, len(result.Errors()))
		for _, e := range result.Errors() {
			msgs = append(msgs, e.String())
		}
		return PromptSuite{}, fmt.Errorf("invalid prompt suite %s: %s", path, strings.Join(msgs, "; "))
	}

	var suite PromptSuite
	if err := json.Unmarshal(raw, &suite); err != nil {
		return PromptSuite{}, fmt.Errorf("error parsing prompt suite: %w", err)
	}
	return suite, nil
}

// SuiteFromRows builds two questions per row, one for each tariff column, so a
// freshly ingested dataset can be checked against itself.
func SuiteFromRows(rows []domain.TariffRow) (PromptSuite, error) {
	if len(rows) == 0 {
		return PromptSuite{}, errors.New("no tariff rows to build questions from")
	}
	suite := PromptSuite{Tests: make([]PromptTest, 0, 2*len(rows))}
	for _, r := range rows {
		suite.Tests = append(suite.Tests,
			PromptTest{
				ID:             len(suite.Tests) + 1,
				Question:       fmt.Sprintf("What tariff rate does %s charge on goods from the U.S.A.?", r.Country),
				ExpectedAnswer: r.TariffsChargedToUSA,
				Category:       "charged",
			},
			PromptTest{
				ID:             len(suite.Tests) + 2,
				Question:       fmt.Sprintf("What reciprocal tariff does the U.S. apply to %s?", r.Country),
				ExpectedAnswer: r.USAReciprocalTariffs,
				Category:       "reciprocal",
			},
		)
	}
	return suite, nil
}
