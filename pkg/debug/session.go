// Package debug follows a debug run of a workflow and tracks which node is
// currently executing.
package debug

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"sync"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/dukex/flowcanvas/pkg/client"
	"github.com/dukex/flowcanvas/pkg/models"
)

// Topic carries node execution events from the stream reader to the session.
const Topic = "flowcanvas.node-execution"

const (
	eventTypeMetadataKey = "event_type"
	nodeIDMetadataKey    = "node_id"
)

var ErrAlreadyRunning = errors.New("debug session already running")

// Streamer opens the server-push stream of a debug run.
type Streamer interface {
	Debug(ctx context.Context, id string, inputs map[string]any, handler client.EventHandler) error
}

type Options struct {
	Logger *slog.Logger
	// OnEvent sees every event after the running node has been updated.
	OnEvent func(models.NodeExecutionEvent)
	// OnError is called when the stream fails. The running node is cleared first.
	OnError func(error)
	// OnDone is called once the run is over, whatever the outcome.
	OnDone func()
}

// Session runs at most one debug stream at a time.
type Session struct {
	streamer Streamer
	opts     Options
	logger   *slog.Logger

	mu         sync.Mutex
	workflowID string
	running    string
	events     []models.NodeExecutionEvent
	err        error
	cancel     context.CancelFunc
	done       chan struct{}
}

func NewSession(streamer Streamer, opts Options) *Session {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Session{
		streamer: streamer,
		opts:     opts,
		logger:   logger.With("module", "debug"),
	}
}

// Start begins a debug run of workflowID in the background.
func (s *Session) Start(ctx context.Context, workflowID string, inputs map[string]any) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.done != nil {
		select {
		case <-s.done:
		default:
			return ErrAlreadyRunning
		}
	}

	pubSub := gochannel.NewGoChannel(
		gochannel.Config{
			OutputChannelBuffer:            16,
			Persistent:                     false,
			BlockPublishUntilSubscriberAck: true,
		},
		watermill.NewSlogLogger(s.logger),
	)

	ctx, cancel := context.WithCancel(ctx)

	messages, err := pubSub.Subscribe(ctx, Topic)
	if err != nil {
		cancel()

		return err
	}

	s.workflowID = workflowID
	s.running = ""
	s.events = nil
	s.err = nil
	s.cancel = cancel
	s.done = make(chan struct{})

	consumed := make(chan struct{})

	go s.consume(messages, consumed)
	go s.stream(ctx, pubSub, workflowID, inputs, consumed, s.done)

	s.logger.InfoContext(ctx, "debug run started", "workflow_id", workflowID)

	return nil
}

func (s *Session) stream(
	ctx context.Context,
	pubSub *gochannel.GoChannel,
	workflowID string,
	inputs map[string]any,
	consumed <-chan struct{},
	done chan<- struct{},
) {
	defer close(done)

	err := s.streamer.Debug(ctx, workflowID, inputs, func(event models.NodeExecutionEvent) {
		publishErr := publish(pubSub, event)
		if publishErr != nil {
			s.logger.WarnContext(ctx, "failed to publish node execution event", "error", publishErr)
		}
	})

	closeErr := pubSub.Close()
	if closeErr != nil {
		s.logger.WarnContext(ctx, "failed to close debug channel", "error", closeErr)
	}

	<-consumed

	s.finish(ctx, err)
}

func publish(pub message.Publisher, event models.NodeExecutionEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return err
	}

	msg := message.NewMessage(watermill.NewULID(), payload)
	msg.Metadata.Set(eventTypeMetadataKey, string(event.EventType))
	msg.Metadata.Set(nodeIDMetadataKey, event.NodeID)

	return pub.Publish(Topic, msg)
}

func (s *Session) consume(messages <-chan *message.Message, consumed chan<- struct{}) {
	defer close(consumed)

	for msg := range messages {
		var event models.NodeExecutionEvent

		err := json.Unmarshal(msg.Payload, &event)
		if err != nil {
			s.logger.Warn("dropping undecodable node execution event", "error", err)
			msg.Ack()

			continue
		}

		s.apply(event)
		msg.Ack()

		if s.opts.OnEvent != nil {
			s.opts.OnEvent(event)
		}
	}
}

func (s *Session) apply(event models.NodeExecutionEvent) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.events = append(s.events, event)

	switch event.EventType {
	case models.NodeEventEnter:
		s.running = event.NodeID
	case models.NodeEventComplete:
		if s.running == event.NodeID {
			s.running = ""
		}
	}
}

func (s *Session) finish(ctx context.Context, err error) {
	s.mu.Lock()
	s.running = ""
	s.err = err
	s.mu.Unlock()

	if err != nil {
		s.logger.ErrorContext(ctx, "debug run failed", "error", err)

		if s.opts.OnError != nil {
			s.opts.OnError(err)
		}
	} else {
		s.logger.InfoContext(ctx, "debug run finished")
	}

	if s.opts.OnDone != nil {
		s.opts.OnDone()
	}
}

// Stop cancels the current run, if any, and waits for it to wind down.
func (s *Session) Stop() {
	s.mu.Lock()
	cancel, done := s.cancel, s.done
	s.mu.Unlock()

	if cancel == nil {
		return
	}

	cancel()
	<-done
}

// Wait blocks until the current run is over.
func (s *Session) Wait() {
	s.mu.Lock()
	done := s.done
	s.mu.Unlock()

	if done != nil {
		<-done
	}
}

// Running reports whether a run is in progress.
func (s *Session) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.done == nil {
		return false
	}

	select {
	case <-s.done:
		return false
	default:
		return true
	}
}

// RunningNodeID is the node between its ENTER and COMPLETE events, or "".
func (s *Session) RunningNodeID() string {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.running
}

func (s *Session) WorkflowID() string {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.workflowID
}

// Events returns the events received in the current or last run.
func (s *Session) Events() []models.NodeExecutionEvent {
	s.mu.Lock()
	defer s.mu.Unlock()

	return append([]models.NodeExecutionEvent(nil), s.events...)
}

// Err is the error that ended the last run, if any.
func (s *Session) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.err
}
