package analyze

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/medialens/analyzer/internal/metrics"
	"github.com/medialens/analyzer/internal/report"
)

// InvokerConfig bounds the retry budget of one invocation.
type InvokerConfig struct {
	Primary        string
	Fallback       string
	Attempts       int
	AttemptTimeout time.Duration
	InitialBackoff time.Duration
}

// Invoker calls the model service with a primary/fallback pair, bounded
// retries and exponential backoff on transient errors. All retry state is
// local to one Invoke call.
type Invoker struct {
	gen    TextGenerator
	cfg    InvokerConfig
	logger *zap.Logger

	// sleep is swapped out in tests to record backoff without waiting.
	sleep func(ctx context.Context, d time.Duration) error
}

// NewInvoker constructs an Invoker, filling unset knobs with defaults.
func NewInvoker(gen TextGenerator, cfg InvokerConfig, logger *zap.Logger) *Invoker {
	if cfg.Attempts <= 0 {
		cfg.Attempts = 3
	}
	if cfg.AttemptTimeout <= 0 {
		cfg.AttemptTimeout = 45 * time.Second
	}
	if cfg.InitialBackoff <= 0 {
		cfg.InitialBackoff = 600 * time.Millisecond
	}
	return &Invoker{
		gen:    gen,
		cfg:    cfg,
		logger: logger,
		sleep:  sleepCtx,
	}
}

// Invoke runs the invocation loop and returns the coerced report plus the
// identifier of the model that produced it.
func (inv *Invoker) Invoke(ctx context.Context, prompt string) (report.AnalysisReport, string, error) {
	models := []string{inv.cfg.Primary}
	if inv.cfg.Fallback != "" {
		models = append(models, inv.cfg.Fallback)
	}

	var lastErr error
	for _, model := range models {
		rep, err := inv.tryModel(ctx, model, prompt)
		if err == nil {
			return rep, model, nil
		}
		lastErr = err
	}
	return report.AnalysisReport{}, "", report.NewPipelineError(report.KindModel,
		fmt.Errorf("all models exhausted: %w", lastErr))
}

// tryModel runs up to cfg.Attempts attempts against one model. A fatal
// error (non-transient transport failure or unusable output) abandons the
// model immediately.
func (inv *Invoker) tryModel(ctx context.Context, model, prompt string) (report.AnalysisReport, error) {
	var lastErr error
	for attempt := 1; attempt <= inv.cfg.Attempts; attempt++ {
		start := time.Now()
		raw, err := inv.attempt(ctx, model, prompt)
		if err == nil {
			rep, parseErr := inv.parse(raw)
			if parseErr == nil {
				metrics.ObserveModelCall(model, "success", time.Since(start))
				return rep, nil
			}
			// Unusable output is fatal for this model; the next model
			// gets a fresh chance.
			metrics.ObserveModelCall(model, "parse_error", time.Since(start))
			inv.logger.Warn("model output unusable",
				zap.String("model", model),
				zap.Int("attempt", attempt),
				zap.Error(parseErr),
			)
			return report.AnalysisReport{}, parseErr
		}

		lastErr = err
		if !IsTransient(err) {
			metrics.ObserveModelCall(model, "fatal_error", time.Since(start))
			inv.logger.Warn("model call failed",
				zap.String("model", model),
				zap.Int("attempt", attempt),
				zap.Error(err),
			)
			return report.AnalysisReport{}, err
		}

		metrics.ObserveModelCall(model, "transient_error", time.Since(start))
		backoff := inv.cfg.InitialBackoff * (1 << (attempt - 1))
		inv.logger.Warn("transient model error, backing off",
			zap.String("model", model),
			zap.Int("attempt", attempt),
			zap.Duration("backoff", backoff),
			zap.Error(err),
		)
		if sleepErr := inv.sleep(ctx, backoff); sleepErr != nil {
			return report.AnalysisReport{}, sleepErr
		}
	}
	return report.AnalysisReport{}, fmt.Errorf("attempts exhausted on %s: %w", model, lastErr)
}

func (inv *Invoker) attempt(ctx context.Context, model, prompt string) (string, error) {
	attemptCtx, cancel := context.WithTimeout(ctx, inv.cfg.AttemptTimeout)
	defer cancel()

	return inv.gen.Generate(attemptCtx, model, prompt)
}

func (inv *Invoker) parse(raw string) (report.AnalysisReport, error) {
	obj, err := ExtractJSON(raw)
	if err != nil {
		return report.AnalysisReport{}, err
	}
	return Coerce(obj)
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
