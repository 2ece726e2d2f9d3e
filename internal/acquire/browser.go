package acquire

import (
	"context"
	"fmt"
	"time"

	"github.com/chromedp/cdproto/emulation"
	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/chromedp"
)

// Browser opens exclusively-owned page sessions. One session serves exactly
// one analysis request and must be closed on every exit path.
type Browser interface {
	NewSession(ctx context.Context) (Session, error)
}

// Session is a live browser tab. Navigate may be called more than once on
// the same session (the archive fallback re-navigates it).
type Session interface {
	Navigate(ctx context.Context, rawURL string) (html string, finalURL string, err error)
	Close()
}

// ChromeConfig controls the chromedp-backed browser.
type ChromeConfig struct {
	UserAgent  string
	NavTimeout time.Duration
	Settle     time.Duration
}

// ChromeBrowser implements Browser using a shared chromedp exec allocator.
type ChromeBrowser struct {
	cfg         ChromeConfig
	allocator   context.Context
	allocCancel context.CancelFunc
}

// NewChromeBrowser starts the exec allocator that all sessions share.
func NewChromeBrowser(cfg ChromeConfig) *ChromeBrowser {
	if cfg.NavTimeout <= 0 {
		cfg.NavTimeout = 30 * time.Second
	}
	if cfg.Settle <= 0 {
		cfg.Settle = 2 * time.Second
	}

	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", "new"),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("hide-scrollbars", true),
		chromedp.Flag("enable-automation", false),
	)
	allocCtx, allocCancel := chromedp.NewExecAllocator(context.Background(), opts...)

	return &ChromeBrowser{
		cfg:         cfg,
		allocator:   allocCtx,
		allocCancel: allocCancel,
	}
}

// Close cancels the allocator context, killing the browser process.
func (b *ChromeBrowser) Close() {
	b.allocCancel()
}

// NewSession opens a fresh tab context.
func (b *ChromeBrowser) NewSession(ctx context.Context) (Session, error) {
	tabCtx, tabCancel := chromedp.NewContext(b.allocator)
	stopForward := forwardCancel(ctx, tabCancel)
	return &chromeSession{
		cfg:         b.cfg,
		tabCtx:      tabCtx,
		tabCancel:   tabCancel,
		stopForward: stopForward,
	}, nil
}

type chromeSession struct {
	cfg         ChromeConfig
	tabCtx      context.Context
	tabCancel   context.CancelFunc
	stopForward func()
}

// Navigate loads rawURL, waits for the body plus a settle period for
// client-rendered content, and returns the rendered DOM.
func (s *chromeSession) Navigate(ctx context.Context, rawURL string) (string, string, error) {
	taskCtx, cancel := context.WithTimeout(s.tabCtx, s.cfg.NavTimeout)
	defer cancel()

	stop := forwardCancel(ctx, cancel)
	defer stop()

	var (
		html     string
		finalURL string
	)
	tasks := chromedp.Tasks{
		network.Enable(),
		s.userAgentAction(),
		chromedp.Navigate(rawURL),
		chromedp.WaitReady("body", chromedp.ByQuery),
		chromedp.Sleep(s.cfg.Settle),
		chromedp.Location(&finalURL),
		chromedp.OuterHTML("html", &html, chromedp.ByQuery),
	}
	if err := chromedp.Run(taskCtx, tasks); err != nil {
		return "", "", fmt.Errorf("chromedp run: %w", err)
	}
	return html, finalURL, nil
}

func (s *chromeSession) userAgentAction() chromedp.Action {
	return chromedp.ActionFunc(func(ctx context.Context) error {
		if s.cfg.UserAgent == "" {
			return nil
		}
		if err := emulation.SetUserAgentOverride(s.cfg.UserAgent).Do(ctx); err != nil {
			return fmt.Errorf("set user-agent: %w", err)
		}
		return nil
	})
}

// Close releases the tab.
func (s *chromeSession) Close() {
	s.stopForward()
	s.tabCancel()
}

func forwardCancel(parent context.Context, cancel context.CancelFunc) func() {
	if parent == nil {
		return func() {}
	}
	done := make(chan struct{})
	go func() {
		select {
		case <-parent.Done():
			cancel()
		case <-done:
		}
	}()
	return func() { close(done) }
}
