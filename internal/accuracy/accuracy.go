// internal/accuracy/accuracy.go

// Package accuracy asks the answerer a suite of questions with known tariff
// figures and records whether each answer states the expected percentage.
package accuracy

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/mwiater/tariffadvisor/internal/domain"
	"github.com/mwiater/tariffadvisor/internal/logging"
)

// DefaultResultsDir is where result files are written when Options.ResultsDir is empty.
const DefaultResultsDir = "data/accuracy"

var (
	numberPattern = regexp.MustCompile(`-?\d+(?:\.\d+)?`)
	slugPattern   = regexp.MustCompile(`[^a-z0-9_]+`)
)

// Answerer produces an answer for a question.
type Answerer interface {
	Answer(ctx context.Context, question string) (string, error)
}

// Options configure Run.
type Options struct {
	// Index names the result file.
	Index string
	// ResultsDir receives <index>.jsonl. "-" disables writing.
	ResultsDir string
	// Concurrency bounds the questions in flight. Values below 1 mean 1.
	Concurrency int
	// Out receives one progress line per question. Nil discards them.
	Out io.Writer
	// Now replaces time.Now.
	Now func() time.Time
}

// Run asks every question in suite and appends one AccuracyResult per question
// to the results file. A failed answer counts as incorrect; only a failure to
// write results aborts the run.
func Run(ctx context.Context, a Answerer, suite PromptSuite, opts Options) (Summary, error) {
	if opts.Out == nil {
		opts.Out = io.Discard
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Concurrency < 1 {
		opts.Concurrency = 1
	}

	summary := Summary{Total: len(suite.Tests)}
	if opts.ResultsDir != "-" {
		dir := opts.ResultsDir
		if dir == "" {
			dir = DefaultResultsDir
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return summary, fmt.Errorf("error creating results directory: %w", err)
		}
		summary.ResultsPath = filepath.Join(dir, slugify(opts.Index)+".jsonl")
	}

	var mu sync.Mutex
	total := len(suite.Tests)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(opts.Concurrency)
	for i, t := range suite.Tests {
		g.Go(func() error {
			result := ask(gctx, a, t, opts)
			result.Index = opts.Index

			mu.Lock()
			defer mu.Unlock()
			if result.Correct {
				summary.Correct++
			}
			if result.Stage != "" {
				summary.Errors++
			}
			fmt.Fprintf(opts.Out, "[%d/%d] %s - Result: correct=%t response=%q expected=%s\n",
				i+1, total, t.Question, result.Correct, result.EvaluatedResponse, strconv.FormatFloat(t.ExpectedAnswer, 'f', -1, 64))
			if summary.ResultsPath == "" {
				return nil
			}
			return appendResult(summary.ResultsPath, result)
		})
	}
	err := g.Wait()
	logging.LogEvent("[ACCURACY] %d/%d correct, %d errors", summary.Correct, summary.Total, summary.Errors)
	return summary, err
}

func ask(ctx context.Context, a Answerer, t PromptTest, opts Options) AccuracyResult {
	start := opts.Now()
	result := AccuracyResult{
		Timestamp:      start.Format(time.RFC3339),
		PromptID:       t.ID,
		Question:       t.Question,
		Category:       t.Category,
		ExpectedAnswer: t.ExpectedAnswer,
		MarginOfError:  t.MarginOfError,
	}

	response, err := a.Answer(ctx, t.Question)
	result.TotalDurationMs = int(opts.Now().Sub(start) / time.Millisecond)
	if err != nil {
		result.Response = err.Error()
		result.Stage = "answer"
		var ae *domain.AnswerError
		if errors.As(err, &ae) {
			result.Stage = ae.Stage
		}
		result.DeadlineExceeded = isDeadlineExceeded(err)
		return result
	}

	result.Response = response
	result.EvaluatedResponse, result.Correct = matchesExpected(response, t.ExpectedAnswer, t.MarginOfError)
	return result
}

// matchesExpected looks for a number within marginOfError of expected anywhere in
// the response. It returns the matching number, or the last one seen.
func matchesExpected(response string, expected, marginOfError float64) (string, bool) {
	matches := numberPattern.FindAllString(normalizeResponse(response), -1)
	last := ""
	for _, match := range matches {
		value, err := strconv.ParseFloat(match, 64)
		if err != nil {
			continue
		}
		last = match
		if withinTolerance(value, expected, marginOfError) {
			return match, true
		}
	}
	return last, false
}

func withinTolerance(actual, expected, tolerance float64) bool {
	if tolerance < 0 {
		tolerance = 0
	}
	diff := actual - expected
	if diff < 0 {
		diff = -diff
	}
	// Answers round to one decimal place.
	return diff <= tolerance+0.05
}

// normalizeResponse drops thousands separators and collapses whitespace.
func normalizeResponse(response string) string {
	trimmed := strings.ReplaceAll(response, ",", "")
	return strings.Join(strings.Fields(trimmed), " ")
}

func appendResult(path string, result AccuracyResult) error {
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("error opening results file: %w", err)
	}
	defer file.Close()

	if err := json.NewEncoder(file).Encode(result); err != nil {
		return fmt.Errorf("error writing results: %w", err)
	}
	return nil
}

func isDeadlineExceeded(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	return strings.Contains(strings.ToLower(err.Error()), "context deadline exceeded")
}

// slugify converts a string into a filesystem-friendly slug.
func slugify(s string) string {
	s = strings.ToLower(strings.ReplaceAll(s, ":", "_"))
	s = slugPattern.ReplaceAllString(s, "-")
	s = strings.Trim(s, "-_")
	if s == "" {
		return "results"
	}
	return s
}
