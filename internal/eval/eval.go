// Package eval runs a keyword-scored quality check of the answering
// pipeline against a fixed question set.
package eval

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/rs/zerolog/log"
	"gopkg.in/yaml.v3"

	"faq-rag/internal/models"
)

// passThreshold is the fraction of expected keywords an answer must
// contain to count as passed.
const passThreshold = 0.4

// Answerer resolves a question through the full pipeline.
type Answerer interface {
	Answer(ctx context.Context, question string) (*models.AnswerBundle, error)
}

// TestCase is one evaluation question with the keywords a correct answer
// is expected to mention.
type TestCase struct {
	Question         string   `yaml:"question"`
	ExpectedKeywords []string `yaml:"expected_keywords"`
	Category         string   `yaml:"category"`
}

// Detail records the outcome of a single test case.
type Detail struct {
	Question      string
	Category      string
	Passed        bool
	FoundKeywords []string
	MatchRate     float64
	AnswerPreview string
	ResponseTime  float64
	TokensUsed    int
	SourcesCount  int
	Err           string
}

// CategoryStats accumulates pass counts per question category.
type CategoryStats struct {
	Passed int
	Total  int
}

func (s CategoryStats) Accuracy() float64 {
	if s.Total == 0 {
		return 0
	}
	return float64(s.Passed) / float64(s.Total)
}

// Report is the aggregate outcome of an evaluation run.
type Report struct {
	Total      int
	Passed     int
	Failed     int
	ByCategory map[string]*CategoryStats
	Details    []Detail
}

func (r *Report) Accuracy() float64 {
	if r.Total == 0 {
		return 0
	}
	return float64(r.Passed) / float64(r.Total)
}

// Evaluator runs test cases through an Answerer and scores the answers.
type Evaluator struct {
	answerer Answerer
	cases    []TestCase
}

func New(answerer Answerer, cases []TestCase) *Evaluator {
	return &Evaluator{answerer: answerer, cases: cases}
}

// LoadCases reads a YAML file holding a list of test cases.
func LoadCases(path string) ([]TestCase, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read test cases: %v", err)
	}
	var cases []TestCase
	if err := yaml.Unmarshal(data, &cases); err != nil {
		return nil, fmt.Errorf("parse test cases: %v", err)
	}
	return cases, nil
}

// Run answers every test case and scores each answer by the fraction of
// expected keywords it contains, case-insensitively. A case with an
// answering error counts as failed but does not abort the run.
func (e *Evaluator) Run(ctx context.Context) *Report {
	report := &Report{
		Total:      len(e.cases),
		ByCategory: make(map[string]*CategoryStats),
	}

	for i, tc := range e.cases {
		log.Info().Int("case", i+1).Int("total", len(e.cases)).Str("question", tc.Question).Msg("evaluating")

		stats, ok := report.ByCategory[tc.Category]
		if !ok {
			stats = &CategoryStats{}
			report.ByCategory[tc.Category] = stats
		}
		stats.Total++

		bundle, err := e.answerer.Answer(ctx, tc.Question)
		if err != nil {
			log.Error().Err(err).Str("question", tc.Question).Msg("evaluation case failed to answer")
			report.Failed++
			report.Details = append(report.Details, Detail{
				Question: tc.Question,
				Category: tc.Category,
				Err:      err.Error(),
			})
			continue
		}

		found := matchKeywords(bundle.Answer, tc.ExpectedKeywords)
		passed := float64(len(found)) >= float64(len(tc.ExpectedKeywords))*passThreshold
		if passed {
			report.Passed++
			stats.Passed++
		} else {
			report.Failed++
		}

		var rate float64
		if len(tc.ExpectedKeywords) > 0 {
			rate = float64(len(found)) / float64(len(tc.ExpectedKeywords))
		}
		report.Details = append(report.Details, Detail{
			Question:      tc.Question,
			Category:      tc.Category,
			Passed:        passed,
			FoundKeywords: found,
			MatchRate:     rate,
			AnswerPreview: preview(bundle.Answer, 200),
			ResponseTime:  bundle.ResponseTime,
			TokensUsed:    bundle.TokensUsed,
			SourcesCount:  len(bundle.Sources),
		})
	}

	return report
}

func matchKeywords(answer string, keywords []string) []string {
	lowered := strings.ToLower(answer)
	var found []string
	for _, kw := range keywords {
		if strings.Contains(lowered, strings.ToLower(kw)) {
			found = append(found, kw)
		}
	}
	return found
}

func preview(s string, maxRunes int) string {
	runes := []rune(s)
	if len(runes) <= maxRunes {
		return s
	}
	return string(runes[:maxRunes])
}

// Print writes a human-readable report to stdout.
func (r *Report) Print() {
	fmt.Println("=== Evaluation Report ===")
	fmt.Printf("Total: %d  Passed: %d  Failed: %d  Accuracy: %.1f%%\n",
		r.Total, r.Passed, r.Failed, r.Accuracy()*100)
	fmt.Println()
	fmt.Println("By category:")
	for category, stats := range r.ByCategory {
		fmt.Printf("  %-16s %d/%d (%.1f%%)\n", category, stats.Passed, stats.Total, stats.Accuracy()*100)
	}
	fmt.Println()
	for _, d := range r.Details {
		status := "PASS"
		if !d.Passed {
			status = "FAIL"
		}
		fmt.Printf("[%s] %s\n", status, d.Question)
		if d.Err != "" {
			fmt.Printf("       error: %s\n", d.Err)
			continue
		}
		fmt.Printf("       keywords: %d found (%.0f%%), tokens: %d, sources: %d, time: %.2fs\n",
			len(d.FoundKeywords), d.MatchRate*100, d.TokensUsed, d.SourcesCount, d.ResponseTime)
	}
	if r.Accuracy() < 0.7 {
		fmt.Println()
		fmt.Println("Accuracy below 70%: consider reviewing the document corpus and chunking settings.")
	}
}
