package pipeline

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rewired-gh/aetherscore/internal/drawsource"
)

// collect reads messages for one request until its terminal message.
func collect(t *testing.T, w *Worker, id string) []Message {
	t.Helper()
	var out []Message
	timeout := time.After(2 * time.Minute)
	for {
		select {
		case msg, ok := <-w.Messages():
			require.True(t, ok, "worker stopped before the terminal message")
			require.Equal(t, id, msg.RequestID)
			out = append(out, msg)
			if msg.Kind != MessageProgress {
				return out
			}
		case <-timeout:
			t.Fatal("timed out waiting for worker")
		}
	}
}

func TestWorker_Complete(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	w := NewWorker(newRunner(), 16)
	go w.Serve(ctx)

	id, err := w.Submit(ctx, drawsource.Synthetic(120, 6))
	require.NoError(t, err)
	require.NotEmpty(t, id)

	msgs := collect(t, w, id)
	final := msgs[len(msgs)-1]
	assert.Equal(t, MessageComplete, final.Kind)
	assert.Empty(t, final.Error)
	require.Len(t, final.Bundles, 3)
	assert.Len(t, final.Bundles[0].Log, 20)

	for _, m := range msgs[:len(msgs)-1] {
		assert.Equal(t, MessageProgress, m.Kind)
		require.NotNil(t, m.Progress)
	}
	require.Greater(t, len(msgs), 1)
	assert.Equal(t, 100.0, msgs[len(msgs)-2].Progress.Percentage)

	w.Close()
	_, ok := <-w.Messages()
	assert.False(t, ok)
}

func TestWorker_ErrorPayload(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// a worker without a runner panics inside the run
	w := NewWorker(nil, 4)
	go w.Serve(ctx)

	id, err := w.Submit(ctx, drawsource.Synthetic(10, 1))
	require.NoError(t, err)

	msgs := collect(t, w, id)
	require.Len(t, msgs, 1)
	assert.Equal(t, MessageError, msgs[0].Kind)
	assert.Contains(t, msgs[0].Error, "panicked")
	assert.Nil(t, msgs[0].Bundles)

	// the worker keeps serving after a failed request
	w.runner = newRunner()
	id, err = w.Submit(ctx, drawsource.Synthetic(10, 1))
	require.NoError(t, err)
	msgs = collect(t, w, id)
	assert.Equal(t, MessageComplete, msgs[len(msgs)-1].Kind)
}

func TestWorker_SubmitCancelled(t *testing.T) {
	w := NewWorker(newRunner(), 0)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := w.Submit(ctx, nil)
	assert.ErrorIs(t, err, context.Canceled)
}
