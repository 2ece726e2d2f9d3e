package acquire

import (
	"context"
	"errors"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/medialens/analyzer/internal/metrics"
	"github.com/medialens/analyzer/internal/report"
)

func TestMain(m *testing.M) {
	metrics.Init()
	m.Run()
}

type fakeSession struct {
	pages     map[string]string
	navErr    error
	navigated []string
	closed    bool
}

func (s *fakeSession) Navigate(_ context.Context, rawURL string) (string, string, error) {
	s.navigated = append(s.navigated, rawURL)
	if s.navErr != nil {
		return "", "", s.navErr
	}
	return s.pages[rawURL], rawURL, nil
}

func (s *fakeSession) Close() { s.closed = true }

type fakeBrowser struct {
	session *fakeSession
	err     error
}

func (b *fakeBrowser) NewSession(context.Context) (Session, error) {
	if b.err != nil {
		return nil, b.err
	}
	return b.session, nil
}

type fakeResolver struct {
	snapshot string
	err      error
	calls    int
}

func (r *fakeResolver) Resolve(context.Context, string) (string, error) {
	r.calls++
	if r.err != nil {
		return "", r.err
	}
	return r.snapshot, nil
}

func TestAcquire_LivePage(t *testing.T) {
	t.Parallel()

	session := &fakeSession{pages: map[string]string{
		"https://news.example/a": "<html><body><p>Prezident bəyanat verdi</p></body></html>",
	}}
	resolver := &fakeResolver{}
	a := New(&fakeBrowser{session: session}, resolver, nil, Config{}, zap.NewNop())

	content, err := a.Acquire(context.Background(), "https://news.example/a")
	require.NoError(t, err)
	require.Equal(t, report.SourceLive, content.SourceKind)
	require.Equal(t, "Prezident bəyanat verdi", content.RawText)
	require.Equal(t, "https://news.example/a", content.FinalURL)
	require.Zero(t, resolver.calls)
	require.True(t, session.closed)
}

func TestAcquire_BlockedWithArchiveFallback(t *testing.T) {
	t.Parallel()

	const snapshot = "http://web.archive.org/web/2024/https://news.example/a"
	session := &fakeSession{pages: map[string]string{
		"https://news.example/a": "<html><body>Just a moment... verifying you are human</body></html>",
		snapshot:                 "<html><body>archived article text</body></html>",
	}}
	a := New(&fakeBrowser{session: session}, &fakeResolver{snapshot: snapshot}, nil, Config{}, zap.NewNop())

	content, err := a.Acquire(context.Background(), "https://news.example/a")
	require.NoError(t, err)
	require.Equal(t, report.SourceArchive, content.SourceKind)
	require.Equal(t, "archived article text", content.RawText)
	require.Equal(t, []string{"https://news.example/a", snapshot}, session.navigated)
	require.True(t, session.closed)
}

func TestAcquire_SnapshotStillBlockedIsArchive(t *testing.T) {
	t.Parallel()

	const snapshot = "http://web.archive.org/web/2024/https://news.example/a"
	session := &fakeSession{pages: map[string]string{
		"https://news.example/a": "<html><body>checking your browser before accessing</body></html>",
		snapshot:                 "<html><body>just a moment...</body></html>",
	}}
	a := New(&fakeBrowser{session: session}, &fakeResolver{snapshot: snapshot}, nil, Config{}, zap.NewNop())

	content, err := a.Acquire(context.Background(), "https://news.example/a")
	require.NoError(t, err)
	require.Equal(t, report.SourceArchive, content.SourceKind)
}

func TestAcquire_BlockedWithoutArchive(t *testing.T) {
	t.Parallel()

	session := &fakeSession{pages: map[string]string{
		"https://news.example/a": "<html><body>verifying you are human</body></html>",
	}}
	a := New(&fakeBrowser{session: session}, &fakeResolver{err: report.ErrNoSnapshot}, nil, Config{}, zap.NewNop())

	_, err := a.Acquire(context.Background(), "https://news.example/a")
	require.Error(t, err)
	require.Equal(t, report.KindBlock, report.KindOf(err))
	require.ErrorIs(t, err, report.ErrNoSnapshot)
	require.True(t, session.closed, "session must be closed on the block path")
}

func TestAcquire_NavigationFailure(t *testing.T) {
	t.Parallel()

	session := &fakeSession{navErr: errors.New("net::ERR_NAME_NOT_RESOLVED")}
	a := New(&fakeBrowser{session: session}, &fakeResolver{}, nil, Config{}, zap.NewNop())

	_, err := a.Acquire(context.Background(), "https://bad.invalid/x")
	require.Error(t, err)
	require.Equal(t, report.KindAcquisition, report.KindOf(err))
	require.True(t, session.closed, "session must be closed on navigation failure")
}

func TestAcquire_TruncatesText(t *testing.T) {
	t.Parallel()

	long := "<html><body>" + strings.Repeat("bəyanat verdi ", 500) + "</body></html>"
	session := &fakeSession{pages: map[string]string{"https://news.example/long": long}}
	a := New(&fakeBrowser{session: session}, &fakeResolver{}, nil, Config{TextLimit: 100}, zap.NewNop())

	content, err := a.Acquire(context.Background(), "https://news.example/long")
	require.NoError(t, err)
	require.Equal(t, 100, utf8.RuneCountInString(content.RawText))
	require.True(t, utf8.ValidString(content.RawText))
}
