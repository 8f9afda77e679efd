// ABOUTME: Retrieval and grounded answering over a vector store
// ABOUTME: Embeds questions in query mode, fetches the top chunks, and prompts the chat model with them
package retrieve

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/harper/ragdoc/internal/core"
	"github.com/harper/ragdoc/internal/logger"
	"github.com/harper/ragdoc/internal/models"
	"github.com/harper/ragdoc/internal/storage"
)

// DefaultLimit is how many chunks a query retrieves
const DefaultLimit = 7

// ErrEmptyQuery is returned for blank queries
var ErrEmptyQuery = errors.New("query cannot be empty")

// Completer produces an answer for a prompt, optionally streaming it to w
type Completer interface {
	Complete(ctx context.Context, prompt string, w io.Writer) (string, error)
}

// Answer is a model response together with the chunks it was grounded on
type Answer struct {
	Question string                `json:"question"`
	Text     string                `json:"answer"`
	Sources  []models.SearchResult `json:"sources"`
}

// Retriever answers queries against one collection
type Retriever struct {
	embedder  core.Embedder
	store     storage.VectorStore
	completer Completer
	limit     int
	log       logger.Logger
}

// New builds a retriever. completer may be nil when only Search is used.
func New(embedder core.Embedder, store storage.VectorStore, completer Completer, limit int, log logger.Logger) *Retriever {
	if limit <= 0 {
		limit = DefaultLimit
	}
	if log == nil {
		log = logger.Nop()
	}
	return &Retriever{
		embedder:  embedder,
		store:     store,
		completer: completer,
		limit:     limit,
		log:       log,
	}
}

// Limit returns the default number of chunks per query
func (r *Retriever) Limit() int {
	return r.limit
}

// Search returns the chunks most similar to query, best first
func (r *Retriever) Search(ctx context.Context, query string) ([]models.SearchResult, error) {
	return r.SearchN(ctx, query, r.limit)
}

// SearchN is Search with an explicit result limit
func (r *Retriever) SearchN(ctx context.Context, query string, limit int) ([]models.SearchResult, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, ErrEmptyQuery
	}
	if limit <= 0 {
		limit = r.limit
	}

	vector, err := r.embedder.Embed(ctx, query, models.ModeQuery)
	if err != nil {
		return nil, fmt.Errorf("embedding query: %w", err)
	}
	results, err := r.store.Search(ctx, vector, limit)
	if err != nil {
		return nil, fmt.Errorf("searching %q: %w", r.store.Collection(), err)
	}
	r.log.Debug("retrieved chunks", "query", query, "results", len(results))
	return results, nil
}

// Ask retrieves context for question and asks the chat model to answer
// from it alone. The answer is also written to w when w is non-nil.
func (r *Retriever) Ask(ctx context.Context, question string, w io.Writer) (*Answer, error) {
	if r.completer == nil {
		return nil, errors.New("no chat model configured")
	}
	results, err := r.Search(ctx, question)
	if err != nil {
		return nil, err
	}

	prompt := BuildPrompt(BuildContext(results), question)
	text, err := r.completer.Complete(ctx, prompt, w)
	if err != nil {
		return nil, fmt.Errorf("generating answer: %w", err)
	}

	return &Answer{
		Question: strings.TrimSpace(question),
		Text:     text,
		Sources:  results,
	}, nil
}

// BuildContext joins retrieved chunk texts, best match first
func BuildContext(results []models.SearchResult) string {
	texts := make([]string, 0, len(results))
	for _, res := range results {
		if t := strings.TrimSpace(res.Text); t != "" {
			texts = append(texts, t)
		}
	}
	return strings.Join(texts, "\n\n")
}

// BuildPrompt asks the model to answer only from the supplied context
func BuildPrompt(context, question string) string {
	var sb strings.Builder
	sb.WriteString("Using only the provided retrieved documents, answer the following question. ")
	sb.WriteString("Do not add any external knowledge.\n")
	sb.WriteString("Context: ")
	sb.WriteString(context)
	sb.WriteString("\nQuestion: ")
	sb.WriteString(strings.TrimSpace(question))
	sb.WriteString("\n")
	return sb.String()
}
