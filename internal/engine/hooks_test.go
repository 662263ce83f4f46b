package engine

import (
	"context"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type blockingHook struct {
	NopHook
	entered chan struct{}
	release chan struct{}
}

func (h blockingHook) OnDone(context.Context, *State) {
	close(h.entered)
	<-h.release
}

func TestHooksDoNotBlockEachOther(t *testing.T) {
	ctx := context.Background()
	slow := blockingHook{entered: make(chan struct{}), release: make(chan struct{})}
	defer close(slow.release)

	go Hooks{slow}.OnDone(ctx, &State{})
	<-slow.entered

	done := make(chan struct{})
	go func() {
		Hooks{NopHook{}}.OnDone(ctx, &State{})
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("an unrelated Hooks value waited on a busy one")
	}
}

// overlapHook records whether two of its calls ever ran at the same time.
type overlapHook struct {
	NopHook
	inFlight atomic.Int32
	overlap  atomic.Bool
	calls    int
}

func (h *overlapHook) OnToolCall(context.Context, *State, ToolCall) {
	if h.inFlight.Add(1) > 1 {
		h.overlap.Store(true)
	}
	h.calls++
	time.Sleep(5 * time.Millisecond)
	h.inFlight.Add(-1)
}

func TestToolHooksSerializedWithinStep(t *testing.T) {
	reg := ToolRegistry{}
	var calls []ToolCall
	for i := range 4 {
		name := fmt.Sprintf("tool_%d", i)
		reg[name] = Tool{Name: name, Fn: func(context.Context, map[string]any) (string, error) {
			time.Sleep(10 * time.Millisecond)
			return "ok", nil
		}}
		calls = append(calls, ToolCall{ID: name, Name: name})
	}

	hook := &overlapHook{}
	retryConfig := RetryConfig{}
	st := &State{}
	require.NoError(t, executeToolCalls(context.Background(), calls, reg, &retryConfig, Hooks{hook}, st))

	assert.False(t, hook.overlap.Load())
	assert.Equal(t, 4, hook.calls)
	require.Len(t, st.History, 4)
}
