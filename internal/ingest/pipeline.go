// ABOUTME: Ingestion pipeline: chunk a document, embed each chunk, and upsert it to the vector store
// ABOUTME: Chunk embeddings fan out with a bounded errgroup; points get random UUIDs
package ingest

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/harper/ragdoc/internal/core"
	"github.com/harper/ragdoc/internal/logger"
	"github.com/harper/ragdoc/internal/models"
	"github.com/harper/ragdoc/internal/pdf"
	"github.com/harper/ragdoc/internal/storage"
)

// Config holds pipeline settings
type Config struct {
	// Dimension is the vector size the collection is created with
	Dimension int
	// Concurrency bounds parallel chunk embedding calls
	Concurrency int
}

// Result summarizes one ingested document
type Result struct {
	Source    string `json:"source"`
	Pages     int    `json:"pages,omitempty"`
	Chunks    int    `json:"chunks"`
	Persisted int    `json:"persisted"`
}

// Pipeline ingests documents into one collection
type Pipeline struct {
	chunker  core.Chunker
	embedder core.Embedder
	store    storage.VectorStore
	cfg      Config
	observer core.ProgressObserver
	log      logger.Logger
	newID    func() string
}

// Option customizes a Pipeline
type Option func(*Pipeline)

// WithObserver reports ingestion progress to o
func WithObserver(o core.ProgressObserver) Option {
	return func(p *Pipeline) {
		if o != nil {
			p.observer = o
		}
	}
}

// WithLogger sets the pipeline's logger
func WithLogger(l logger.Logger) Option {
	return func(p *Pipeline) {
		if l != nil {
			p.log = l
		}
	}
}

// WithIDGenerator replaces the UUID generator, for deterministic tests
func WithIDGenerator(f func() string) Option {
	return func(p *Pipeline) {
		if f != nil {
			p.newID = f
		}
	}
}

// New builds a pipeline
func New(chunker core.Chunker, embedder core.Embedder, store storage.VectorStore, cfg Config, opts ...Option) (*Pipeline, error) {
	if chunker == nil || embedder == nil || store == nil {
		return nil, errors.New("chunker, embedder, and store are required")
	}
	if cfg.Dimension <= 0 {
		return nil, fmt.Errorf("vector dimension must be positive, got %d", cfg.Dimension)
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 1
	}
	p := &Pipeline{
		chunker:  chunker,
		embedder: embedder,
		store:    store,
		cfg:      cfg,
		observer: core.NopObserver(),
		log:      logger.Nop(),
		newID:    uuid.NewString,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p, nil
}

// IngestPDF extracts every page of the PDF at path and ingests the text.
// A PDF without extractable text fails with pdf.ErrNoText.
func (p *Pipeline) IngestPDF(ctx context.Context, path string) (*Result, error) {
	return p.ingestPDF(ctx, path, "")
}

// IngestFile ingests a PDF or plain-text file. source overrides the
// recorded source name; it defaults to the file's base name.
func (p *Pipeline) IngestFile(ctx context.Context, path, source string) (*Result, error) {
	if pdf.IsPDF(path) {
		return p.ingestPDF(ctx, path, source)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	if source == "" {
		source = filepath.Base(path)
	}
	return p.IngestText(ctx, source, string(data))
}

func (p *Pipeline) ingestPDF(ctx context.Context, path, source string) (*Result, error) {
	doc, err := pdf.Extract(path, 0)
	if err != nil {
		return nil, err
	}
	if !doc.HasText() {
		return nil, fmt.Errorf("%s: %w", doc.Name, pdf.ErrNoText)
	}
	p.log.Info("extracted pdf", "file", doc.Name, "pages", doc.NumPages)

	if source == "" {
		source = doc.Name
	}
	res, err := p.IngestText(ctx, source, doc.Text())
	if err != nil {
		return nil, err
	}
	res.Pages = doc.NumPages
	return res, nil
}

// IngestText chunks text, embeds every chunk in document mode, and upserts
// the chunks in one batch. Text that yields no chunks stores nothing.
func (p *Pipeline) IngestText(ctx context.Context, source, text string) (*Result, error) {
	log := p.log.With("source", source)
	res := &Result{Source: source}

	if err := p.store.EnsureCollection(ctx, p.cfg.Dimension); err != nil {
		return nil, fmt.Errorf("preparing collection %q: %w", p.store.Collection(), err)
	}

	p.observer.OnProgress(0, models.PhaseChunk)
	chunks, err := p.chunker.Chunk(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("chunking %s: %w", source, err)
	}
	p.observer.OnProgress(1, models.PhaseChunk)
	res.Chunks = len(chunks)
	log.Info("chunked document", "chunks", len(chunks))
	if len(chunks) == 0 {
		return res, nil
	}

	vectors, err := p.embedChunks(ctx, chunks)
	if err != nil {
		return nil, err
	}

	records := make([]models.Record, len(chunks))
	for i, text := range chunks {
		records[i] = models.Record{
			ID:         p.newID(),
			ChunkIndex: i,
			Text:       text,
			Source:     source,
			Vector:     vectors[i],
		}
	}

	p.observer.OnProgress(0, models.PhaseUpsert)
	if err := p.store.Upsert(ctx, records); err != nil {
		return nil, fmt.Errorf("storing chunks: %w", err)
	}
	p.observer.OnProgress(1, models.PhaseUpsert)

	res.Persisted = len(records)
	log.Info("stored chunks", "collection", p.store.Collection(), "count", len(records))
	return res, nil
}

func (p *Pipeline) embedChunks(ctx context.Context, chunks []string) ([]models.Vector, error) {
	vectors := make([]models.Vector, len(chunks))

	var (
		mu   sync.Mutex
		done int
	)
	total := float64(len(chunks))
	p.observer.OnProgress(0, models.PhaseIndex)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.cfg.Concurrency)
	for i, text := range chunks {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			v, err := p.embedder.Embed(gctx, text, models.ModeDocument)
			if err != nil {
				return fmt.Errorf("embedding chunk %d: %w", i, err)
			}
			vectors[i] = v

			mu.Lock()
			done++
			p.observer.OnProgress(float64(done)/total, models.PhaseIndex)
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return vectors, nil
}

// Clear drops the collection and everything in it
func (p *Pipeline) Clear(ctx context.Context) error {
	if err := p.store.DeleteCollection(ctx); err != nil {
		return fmt.Errorf("clearing collection %q: %w", p.store.Collection(), err)
	}
	p.log.Info("cleared collection", "collection", p.store.Collection())
	return nil
}
