// Package pipeline sequences acquisition, analysis and caching for one URL.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/medialens/analyzer/internal/analyze"
	"github.com/medialens/analyzer/internal/metrics"
	"github.com/medialens/analyzer/internal/report"
)

// Config controls orchestration knobs.
type Config struct {
	TTL             time.Duration
	Topic           string
	BlobPrefix      string
	BlobContentType string
}

// Pipeline drives the full analysis flow: cache lookup, page acquisition,
// prompt construction, model invocation, decoration and cache write.
type Pipeline struct {
	store     report.Store
	acquirer  report.Acquirer
	invoker   report.Invoker
	blobs     report.BlobStore
	publisher report.Publisher
	clock     report.Clock
	cfg       Config
	logger    *zap.Logger
}

// New constructs a Pipeline. blobs and publisher may be nil; raw-text
// archiving and event publishing are then skipped.
func New(
	store report.Store,
	acquirer report.Acquirer,
	invoker report.Invoker,
	blobs report.BlobStore,
	publisher report.Publisher,
	clock report.Clock,
	cfg Config,
	logger *zap.Logger,
) *Pipeline {
	if cfg.TTL <= 0 {
		cfg.TTL = 30 * 24 * time.Hour
	}
	if cfg.BlobPrefix == "" {
		cfg.BlobPrefix = "raw"
	}
	if cfg.BlobContentType == "" {
		cfg.BlobContentType = "text/plain; charset=utf-8"
	}
	return &Pipeline{
		store:     store,
		acquirer:  acquirer,
		invoker:   invoker,
		blobs:     blobs,
		publisher: publisher,
		clock:     clock,
		cfg:       cfg,
		logger:    logger,
	}
}

// Analyze produces the report for rawURL, serving from cache when possible.
// Failures abort with no cache write; the cache only ever holds complete,
// successfully parsed reports.
func (p *Pipeline) Analyze(ctx context.Context, rawURL string) (report.AnalysisReport, error) {
	rep, err := p.analyze(ctx, rawURL)
	if err != nil {
		metrics.ObserveRequest(string(report.KindOf(err)))
		return report.AnalysisReport{}, err
	}
	metrics.ObserveRequest("success")
	return rep, nil
}

func (p *Pipeline) analyze(ctx context.Context, rawURL string) (report.AnalysisReport, error) {
	key := report.Fingerprint(rawURL)

	cached, ok, err := p.store.Get(ctx, key)
	if err != nil {
		return report.AnalysisReport{}, report.NewPipelineError(report.KindInternal,
			fmt.Errorf("cache lookup: %w", err))
	}
	if ok {
		metrics.ObserveCacheHit()
		p.logger.Debug("cache hit", zap.String("hash", key))
		return cached, nil
	}

	content, err := p.acquirer.Acquire(ctx, rawURL)
	if err != nil {
		return report.AnalysisReport{}, p.withManualPrompt(err, rawURL)
	}

	prompt := analyze.BuildPrompt(rawURL, content.RawText)
	rep, model, err := p.invoker.Invoke(ctx, prompt)
	if err != nil {
		return report.AnalysisReport{}, err
	}

	rep.Hash = key
	rep.ModelUsed = model
	rep.ContentSource = content.SourceKind

	if err := p.store.Put(ctx, key, rep, p.cfg.TTL); err != nil {
		return report.AnalysisReport{}, report.NewPipelineError(report.KindInternal,
			fmt.Errorf("cache write: %w", err))
	}

	p.archiveRawText(ctx, key, content.RawText)
	p.publishCreated(ctx, key, rawURL, model, content.SourceKind)

	p.logger.Info("report created",
		zap.String("hash", key),
		zap.String("model", model),
		zap.String("source", string(content.SourceKind)),
	)
	return rep, nil
}

// withManualPrompt attaches a copy-paste analysis prompt to block errors so
// the caller can offer a manual path.
func (p *Pipeline) withManualPrompt(err error, rawURL string) error {
	var pe *report.PipelineError
	if errors.As(err, &pe) && pe.Kind == report.KindBlock {
		pe.ManualPrompt = analyze.BuildManualPrompt(rawURL)
		return pe
	}
	return err
}

func (p *Pipeline) archiveRawText(ctx context.Context, key, text string) {
	if p.blobs == nil {
		return
	}
	path := fmt.Sprintf("%s/%s.txt", p.cfg.BlobPrefix, key)
	if _, err := p.blobs.PutObject(ctx, path, p.cfg.BlobContentType, []byte(text)); err != nil {
		p.logger.Warn("raw text archive failed", zap.String("hash", key), zap.Error(err))
	}
}

func (p *Pipeline) publishCreated(ctx context.Context, key, rawURL, model string, source report.SourceKind) {
	if p.publisher == nil {
		return
	}
	event := report.CreatedEvent{
		Hash:      key,
		URL:       rawURL,
		Model:     model,
		Source:    source,
		CreatedAt: p.clock.Now(),
	}
	if _, err := p.publisher.Publish(ctx, p.cfg.Topic, event); err != nil {
		p.logger.Warn("report event publish failed", zap.String("hash", key), zap.Error(err))
	}
}
