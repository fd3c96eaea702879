package debug

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/dukex/flowcanvas/pkg/client"
	"github.com/dukex/flowcanvas/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// scriptedStreamer replays events and then either returns err or waits for
// ctx when block is set.
type scriptedStreamer struct {
	events []models.NodeExecutionEvent
	err    error
	block  bool
	gate   chan struct{}
}

func (s *scriptedStreamer) Debug(ctx context.Context, _ string, _ map[string]any, handler client.EventHandler) error {
	for _, event := range s.events {
		handler(event)
	}

	if s.gate != nil {
		<-s.gate
	}

	if s.block {
		<-ctx.Done()

		return nil
	}

	return s.err
}

func event(nodeID string, t models.NodeEventType) models.NodeExecutionEvent {
	return models.NodeExecutionEvent{ExecutionID: "exec-1", NodeID: nodeID, EventType: t}
}

func TestSession_TracksRunningNode(t *testing.T) {
	t.Parallel()

	streamer := &scriptedStreamer{
		events: []models.NodeExecutionEvent{
			event("node_1", models.NodeEventEnter),
			event("node_1", models.NodeEventComplete),
			event("node_2", models.NodeEventEnter),
		},
		gate: make(chan struct{}),
	}

	var (
		mu   sync.Mutex
		seen []string
	)

	session := NewSession(streamer, Options{
		OnEvent: func(e models.NodeExecutionEvent) {
			mu.Lock()
			defer mu.Unlock()

			seen = append(seen, e.NodeID+":"+string(e.EventType))
		},
	})

	require.NoError(t, session.Start(context.Background(), "wf-1", nil))
	assert.True(t, session.Running())
	assert.Equal(t, "wf-1", session.WorkflowID())

	require.Eventually(t, func() bool {
		return len(session.Events()) == 3
	}, time.Second, 5*time.Millisecond)
	assert.Equal(t, "node_2", session.RunningNodeID())

	close(streamer.gate)
	session.Wait()

	assert.False(t, session.Running())
	assert.Empty(t, session.RunningNodeID())
	require.NoError(t, session.Err())

	mu.Lock()
	defer mu.Unlock()

	assert.Equal(t, []string{"node_1:ENTER", "node_1:COMPLETE", "node_2:ENTER"}, seen)
}

func TestSession_CompleteForOtherNodeKeepsRunning(t *testing.T) {
	t.Parallel()

	streamer := &scriptedStreamer{
		events: []models.NodeExecutionEvent{
			event("node_1", models.NodeEventEnter),
			event("node_9", models.NodeEventComplete),
		},
		gate: make(chan struct{}),
	}

	session := NewSession(streamer, Options{})
	require.NoError(t, session.Start(context.Background(), "wf-1", nil))

	require.Eventually(t, func() bool {
		return len(session.Events()) == 2
	}, time.Second, 5*time.Millisecond)
	assert.Equal(t, "node_1", session.RunningNodeID())

	close(streamer.gate)
	session.Wait()
}

func TestSession_ErrorClearsRunningNode(t *testing.T) {
	t.Parallel()

	boom := errors.New("stream dropped")
	streamer := &scriptedStreamer{
		events: []models.NodeExecutionEvent{event("node_1", models.NodeEventEnter)},
		err:    boom,
	}

	var reported error

	done := make(chan struct{})
	session := NewSession(streamer, Options{
		OnError: func(err error) { reported = err },
		OnDone:  func() { close(done) },
	})

	require.NoError(t, session.Start(context.Background(), "wf-1", nil))
	<-done

	require.ErrorIs(t, reported, boom)
	require.ErrorIs(t, session.Err(), boom)
	assert.Empty(t, session.RunningNodeID())
	assert.Len(t, session.Events(), 1)
}

func TestSession_StopCancelsStream(t *testing.T) {
	t.Parallel()

	streamer := &scriptedStreamer{
		events: []models.NodeExecutionEvent{event("node_1", models.NodeEventEnter)},
		block:  true,
	}

	session := NewSession(streamer, Options{})
	require.NoError(t, session.Start(context.Background(), "wf-1", nil))
	require.ErrorIs(t, session.Start(context.Background(), "wf-1", nil), ErrAlreadyRunning)

	session.Stop()

	assert.False(t, session.Running())
	assert.Empty(t, session.RunningNodeID())
	require.NoError(t, session.Err())

	require.NoError(t, session.Start(context.Background(), "wf-2", nil))
	session.Stop()
	assert.Equal(t, "wf-2", session.WorkflowID())
}

func TestSession_StopWithoutRun(t *testing.T) {
	t.Parallel()

	session := NewSession(&scriptedStreamer{}, Options{})
	session.Stop()
	session.Wait()

	assert.False(t, session.Running())
}
