package acquire

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/medialens/analyzer/internal/extract"
	"github.com/medialens/analyzer/internal/metrics"
	"github.com/medialens/analyzer/internal/report"
)

// SnapshotResolver finds an archival snapshot URL for a blocked page.
type SnapshotResolver interface {
	Resolve(ctx context.Context, rawURL string) (string, error)
}

// Config controls the Acquirer.
type Config struct {
	// TextLimit hard-caps extracted text before it leaves this component.
	TextLimit int
	// HostQPS rate-limits navigations per host; zero disables the limiter.
	HostQPS float64
}

// Acquirer loads a page in an owned browser session, classifies bot
// challenges, and falls back to an archival snapshot when blocked.
type Acquirer struct {
	browser      Browser
	resolver     SnapshotResolver
	classify     BlockClassifier
	cfg          Config
	logger       *zap.Logger
	hostLimiters sync.Map
}

// New constructs an Acquirer.
func New(browser Browser, resolver SnapshotResolver, classify BlockClassifier, cfg Config, logger *zap.Logger) *Acquirer {
	if classify == nil {
		classify = NewMarkerClassifier(nil)
	}
	if cfg.TextLimit <= 0 {
		cfg.TextLimit = 30000
	}
	return &Acquirer{
		browser:  browser,
		resolver: resolver,
		classify: classify,
		cfg:      cfg,
		logger:   logger,
	}
}

// Acquire runs the acquisition state machine for one URL. The browser
// session is closed on every exit path.
func (a *Acquirer) Acquire(ctx context.Context, rawURL string) (report.AcquiredContent, error) {
	if err := a.waitHostBudget(ctx, rawURL); err != nil {
		return report.AcquiredContent{}, report.NewPipelineError(report.KindAcquisition, err)
	}

	start := time.Now()
	session, err := a.browser.NewSession(ctx)
	if err != nil {
		return report.AcquiredContent{}, report.NewPipelineError(report.KindAcquisition, fmt.Errorf("open browser session: %w", err))
	}
	defer session.Close()

	content, err := a.run(ctx, session, rawURL)
	if err != nil {
		return report.AcquiredContent{}, err
	}
	metrics.ObserveAcquire(string(content.SourceKind), time.Since(start))
	return content, nil
}

func (a *Acquirer) run(ctx context.Context, session Session, rawURL string) (report.AcquiredContent, error) {
	text, finalURL, err := a.loadAndExtract(ctx, session, rawURL)
	if err != nil {
		return report.AcquiredContent{}, report.NewPipelineError(report.KindAcquisition, err)
	}

	if !a.classify(text) {
		return report.AcquiredContent{
			RawText:    extract.Truncate(text, a.cfg.TextLimit),
			SourceKind: report.SourceLive,
			FinalURL:   finalURL,
		}, nil
	}

	a.logger.Warn("bot challenge detected, trying archive", zap.String("url", rawURL))

	snapshot, err := a.resolver.Resolve(ctx, rawURL)
	if err != nil {
		return report.AcquiredContent{}, report.NewPipelineError(report.KindBlock,
			fmt.Errorf("page blocked and no archive snapshot: %w", err))
	}

	// Re-navigate the same session to the snapshot. The result is reported
	// as Archive even if the snapshot text itself still looks blocked.
	text, finalURL, err = a.loadAndExtract(ctx, session, snapshot)
	if err != nil {
		return report.AcquiredContent{}, report.NewPipelineError(report.KindAcquisition,
			fmt.Errorf("navigate archive snapshot: %w", err))
	}

	return report.AcquiredContent{
		RawText:    extract.Truncate(text, a.cfg.TextLimit),
		SourceKind: report.SourceArchive,
		FinalURL:   finalURL,
	}, nil
}

func (a *Acquirer) loadAndExtract(ctx context.Context, session Session, rawURL string) (string, string, error) {
	html, finalURL, err := session.Navigate(ctx, rawURL)
	if err != nil {
		return "", "", fmt.Errorf("navigate %s: %w", rawURL, err)
	}
	text, err := extract.VisibleText(html)
	if err != nil {
		return "", "", fmt.Errorf("extract text: %w", err)
	}
	if finalURL == "" {
		finalURL = rawURL
	}
	return text, finalURL, nil
}

func (a *Acquirer) waitHostBudget(ctx context.Context, rawURL string) error {
	if a.cfg.HostQPS <= 0 {
		return nil
	}
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("parse url: %w", err)
	}
	host := strings.ToLower(parsed.Host)
	val, _ := a.hostLimiters.LoadOrStore(host, rate.NewLimiter(rate.Limit(a.cfg.HostQPS), 1))
	limiter, ok := val.(*rate.Limiter)
	if !ok {
		return fmt.Errorf("unexpected limiter type %T", val)
	}
	if err := limiter.Wait(ctx); err != nil {
		return fmt.Errorf("wait host limiter: %w", err)
	}
	return nil
}
