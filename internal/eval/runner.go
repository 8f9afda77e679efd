// ABOUTME: Evaluation runner: ingests a dataset's documents and scores each case
// ABOUTME: Retrieval is always scored; answers are generated and scored when enabled

package eval

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/harper/ragdoc/internal/ingest"
	"github.com/harper/ragdoc/internal/logger"
	"github.com/harper/ragdoc/internal/models"
	"github.com/harper/ragdoc/internal/retrieve"
)

// DefaultPassThreshold is the minimum score every metric needs for a PASS
const DefaultPassThreshold = 0.9

// Case outcomes
const (
	StatusPass = "PASS"
	StatusFail = "FAIL"
)

// Retriever finds context and answers questions
type Retriever interface {
	Search(ctx context.Context, query string) ([]models.SearchResult, error)
	Ask(ctx context.Context, question string, w io.Writer) (*retrieve.Answer, error)
}

// Ingester loads dataset documents into the collection
type Ingester interface {
	IngestFile(ctx context.Context, path, source string) (*ingest.Result, error)
	IngestText(ctx context.Context, source, text string) (*ingest.Result, error)
}

// CaseResult is the outcome of one case
type CaseResult struct {
	ID            string                 `json:"id"`
	Name          string                 `json:"name,omitempty"`
	Question      string                 `json:"question"`
	ContextRecall Score                  `json:"context_recall"`
	Faithfulness  *Score                 `json:"faithfulness,omitempty"`
	Overall       float64                `json:"overall"`
	Status        string                 `json:"status"`
	Answer        string                 `json:"answer,omitempty"`
	Retrieved     int                    `json:"retrieved"`
	Sources       []string               `json:"sources,omitempty"`
	Details       map[string]interface{} `json:"details,omitempty"`
	ErrorMessage  string                 `json:"error,omitempty"`
}

// Report summarizes a dataset run
type Report struct {
	Timestamp string       `json:"timestamp"`
	Dataset   string       `json:"dataset"`
	Answers   bool         `json:"answers"`
	Total     int          `json:"total_tests"`
	Passed    int          `json:"passed"`
	Failed    int          `json:"failed"`
	Results   []CaseResult `json:"results"`
}

// Runner executes evaluation cases
type Runner struct {
	retriever Retriever
	ingester  Ingester
	answers   bool
	threshold float64
	log       logger.Logger
	now       func() time.Time
}

// Option customizes a Runner
type Option func(*Runner)

// WithAnswers also generates an answer per case and scores faithfulness
func WithAnswers(enabled bool) Option {
	return func(r *Runner) { r.answers = enabled }
}

// WithPassThreshold sets the minimum metric score for a PASS
func WithPassThreshold(t float64) Option {
	return func(r *Runner) {
		if t > 0 {
			r.threshold = t
		}
	}
}

// WithIngester lets the runner ingest the dataset's documents
func WithIngester(i Ingester) Option {
	return func(r *Runner) { r.ingester = i }
}

// WithLogger sets the runner logger
func WithLogger(l logger.Logger) Option {
	return func(r *Runner) {
		if l != nil {
			r.log = l
		}
	}
}

// NewRunner creates a runner that queries retriever
func NewRunner(retriever Retriever, opts ...Option) (*Runner, error) {
	if retriever == nil {
		return nil, errors.New("retriever is required")
	}
	r := &Runner{
		retriever: retriever,
		threshold: DefaultPassThreshold,
		log:       logger.Nop(),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

// Prepare ingests every dataset document. It is a no-op without an ingester.
func (r *Runner) Prepare(ctx context.Context, ds *Dataset) error {
	if r.ingester == nil || len(ds.Documents) == 0 {
		return nil
	}
	for _, doc := range ds.Documents {
		var (
			res *ingest.Result
			err error
		)
		if doc.Text != "" {
			res, err = r.ingester.IngestText(ctx, doc.Source, doc.Text)
		} else {
			res, err = r.ingester.IngestFile(ctx, ds.resolve(doc), doc.Source)
		}
		if err != nil {
			return fmt.Errorf("ingesting dataset document: %w", err)
		}
		r.log.Info("ingested dataset document", "source", res.Source, "chunks", res.Persisted)
	}
	return nil
}

// RunCase scores one case. Retrieval or generation failures are recorded
// on the result as a FAIL rather than returned.
func (r *Runner) RunCase(ctx context.Context, c Case) CaseResult {
	result := CaseResult{ID: c.ID, Name: c.Name, Question: c.Question, Status: StatusFail}
	log := r.log.With("case", c.ID)

	var (
		sources []models.SearchResult
		answer  string
	)
	if r.answers {
		ans, err := r.retriever.Ask(ctx, c.Question, nil)
		if err != nil {
			result.ErrorMessage = err.Error()
			log.Warn("case failed", "error", err)
			return result
		}
		sources, answer = ans.Sources, ans.Text
	} else {
		res, err := r.retriever.Search(ctx, c.Question)
		if err != nil {
			result.ErrorMessage = err.Error()
			log.Warn("case failed", "error", err)
			return result
		}
		sources = res
	}

	texts := make([]string, len(sources))
	for i, s := range sources {
		texts[i] = s.Text
		result.Sources = appendUnique(result.Sources, s.Source)
	}
	result.Retrieved = len(sources)

	result.ContextRecall = ContextRecall(texts, c.ExpectedContext)
	result.Overall = result.ContextRecall.Value
	pass := result.ContextRecall.Value >= r.threshold

	if r.answers {
		f := Faithfulness(answer, c.ExpectedAnswer, c.ForbiddenAnswer)
		result.Faithfulness = &f
		result.Overall = (result.ContextRecall.Value + f.Value) / 2
		pass = pass && f.Value >= r.threshold
		result.Answer = answer
	}
	if pass {
		result.Status = StatusPass
	}

	if len(texts) > 0 {
		result.Details = map[string]interface{}{
			"top_score": sources[0].Score,
			"top_text":  preview(texts[0], 200),
		}
	}
	log.Debug("case scored", "recall", result.ContextRecall.Value, "status", result.Status)
	return result
}

// Run scores every case in the dataset
func (r *Runner) Run(ctx context.Context, ds *Dataset) (*Report, error) {
	report := &Report{
		Timestamp: r.now().Format(time.RFC3339),
		Dataset:   ds.Name,
		Answers:   r.answers,
		Results:   make([]CaseResult, 0, len(ds.Cases)),
	}
	for _, c := range ds.Cases {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		res := r.RunCase(ctx, c)
		report.Results = append(report.Results, res)
		if res.Status == StatusPass {
			report.Passed++
		} else {
			report.Failed++
		}
	}
	report.Total = len(report.Results)
	return report, nil
}

// WriteJSON writes the report as indented JSON
func (rep *Report) WriteJSON(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(rep); err != nil {
		return fmt.Errorf("failed to encode results: %w", err)
	}
	return nil
}

// Export writes the report to path as JSON
func (rep *Report) Export(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create results file: %w", err)
	}
	if err := rep.WriteJSON(f); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

func appendUnique(list []string, s string) []string {
	if s == "" {
		return list
	}
	for _, v := range list {
		if v == s {
			return list
		}
	}
	return append(list, s)
}

func preview(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}
