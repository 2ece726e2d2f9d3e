package analyze

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/medialens/analyzer/internal/metrics"
	"github.com/medialens/analyzer/internal/report"
)

func TestMain(m *testing.M) {
	metrics.Init()
	m.Run()
}

const validOutput = `{"scores": {"reliability": {"value": 82, "rationale": "ok"}}, "human_summary": "s"}`

type scriptedGenerator struct {
	calls   []string
	outputs []func() (string, error)
}

func (g *scriptedGenerator) Generate(_ context.Context, model, _ string) (string, error) {
	g.calls = append(g.calls, model)
	idx := len(g.calls) - 1
	if idx >= len(g.outputs) {
		return "", errors.New("unexpected extra call")
	}
	return g.outputs[idx]()
}

func newTestInvoker(gen TextGenerator, sleeps *[]time.Duration) *Invoker {
	inv := NewInvoker(gen, InvokerConfig{Primary: "primary-model", Fallback: "fallback-model"}, zap.NewNop())
	inv.sleep = func(_ context.Context, d time.Duration) error {
		*sleeps = append(*sleeps, d)
		return nil
	}
	return inv
}

func serviceUnavailable() (string, error) {
	return "", &openai.APIError{HTTPStatusCode: http.StatusServiceUnavailable, Message: "overloaded"}
}

func succeed() (string, error) { return validOutput, nil }

func TestInvoke_PrimarySucceedsFirstAttempt(t *testing.T) {
	t.Parallel()

	gen := &scriptedGenerator{outputs: []func() (string, error){succeed}}
	var sleeps []time.Duration
	inv := newTestInvoker(gen, &sleeps)

	rep, model, err := inv.Invoke(context.Background(), "prompt")
	require.NoError(t, err)
	require.Equal(t, "primary-model", model)
	require.Equal(t, float64(82), rep.Scores.Reliability.Value)
	require.Equal(t, []string{"primary-model"}, gen.calls)
	require.Empty(t, sleeps)
}

func TestInvoke_TransientThenSuccess(t *testing.T) {
	t.Parallel()

	gen := &scriptedGenerator{outputs: []func() (string, error){serviceUnavailable, succeed}}
	var sleeps []time.Duration
	inv := newTestInvoker(gen, &sleeps)

	_, model, err := inv.Invoke(context.Background(), "prompt")
	require.NoError(t, err)
	require.Equal(t, "primary-model", model)
	require.Equal(t, []time.Duration{600 * time.Millisecond}, sleeps)
}

func TestInvoke_ExhaustsBothModels(t *testing.T) {
	t.Parallel()

	outputs := make([]func() (string, error), 6)
	for i := range outputs {
		outputs[i] = serviceUnavailable
	}
	gen := &scriptedGenerator{outputs: outputs}
	var sleeps []time.Duration
	inv := newTestInvoker(gen, &sleeps)

	_, _, err := inv.Invoke(context.Background(), "prompt")
	require.Error(t, err)
	require.Equal(t, report.KindModel, report.KindOf(err))

	require.Equal(t, []string{
		"primary-model", "primary-model", "primary-model",
		"fallback-model", "fallback-model", "fallback-model",
	}, gen.calls)

	expected := []time.Duration{
		600 * time.Millisecond, 1200 * time.Millisecond, 2400 * time.Millisecond,
		600 * time.Millisecond, 1200 * time.Millisecond, 2400 * time.Millisecond,
	}
	require.Equal(t, expected, sleeps)
}

func TestInvoke_NonTransientMovesToFallbackImmediately(t *testing.T) {
	t.Parallel()

	badRequest := func() (string, error) {
		return "", &openai.APIError{HTTPStatusCode: http.StatusBadRequest, Message: "bad request"}
	}
	gen := &scriptedGenerator{outputs: []func() (string, error){badRequest, succeed}}
	var sleeps []time.Duration
	inv := newTestInvoker(gen, &sleeps)

	_, model, err := inv.Invoke(context.Background(), "prompt")
	require.NoError(t, err)
	require.Equal(t, "fallback-model", model)
	require.Equal(t, []string{"primary-model", "fallback-model"}, gen.calls)
	require.Empty(t, sleeps)
}

func TestInvoke_ParseFailureIsFatalForModel(t *testing.T) {
	t.Parallel()

	prose := func() (string, error) { return "I cannot produce JSON today.", nil }
	gen := &scriptedGenerator{outputs: []func() (string, error){prose, succeed}}
	var sleeps []time.Duration
	inv := newTestInvoker(gen, &sleeps)

	_, model, err := inv.Invoke(context.Background(), "prompt")
	require.NoError(t, err)
	require.Equal(t, "fallback-model", model)
	require.Equal(t, []string{"primary-model", "fallback-model"}, gen.calls)
	require.Empty(t, sleeps)
}

func TestInvoke_BothModelsParseFailure(t *testing.T) {
	t.Parallel()

	prose := func() (string, error) { return "still prose", nil }
	gen := &scriptedGenerator{outputs: []func() (string, error){prose, prose}}
	var sleeps []time.Duration
	inv := newTestInvoker(gen, &sleeps)

	_, _, err := inv.Invoke(context.Background(), "prompt")
	require.Error(t, err)
	require.Equal(t, report.KindModel, report.KindOf(err))
	require.ErrorIs(t, err, ErrNoJSONObject)
}

func TestIsTransient(t *testing.T) {
	t.Parallel()

	require.True(t, IsTransient(context.DeadlineExceeded))
	require.True(t, IsTransient(&openai.APIError{HTTPStatusCode: http.StatusServiceUnavailable}))
	require.True(t, IsTransient(&openai.APIError{Code: "UNAVAILABLE"}))
	require.True(t, IsTransient(&openai.RequestError{HTTPStatusCode: http.StatusServiceUnavailable}))
	require.False(t, IsTransient(&openai.APIError{HTTPStatusCode: http.StatusTooManyRequests}))
	require.False(t, IsTransient(errors.New("boom")))
	require.False(t, IsTransient(nil))
}
