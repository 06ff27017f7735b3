package pipeline

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/rewired-gh/aetherscore/internal/logger"
	"github.com/rewired-gh/aetherscore/internal/models"
)

type MessageKind string

const (
	MessageProgress MessageKind = "progress"
	MessageComplete MessageKind = "complete"
	MessageError    MessageKind = "error"
)

// Request asks the worker to run all pipelines over Draws.
type Request struct {
	ID    string
	Draws []models.Draw
}

// Message is emitted by the worker. Every request yields any number of
// progress messages followed by exactly one complete or error message.
type Message struct {
	RequestID string      `json:"requestId"`
	Kind      MessageKind `json:"kind"`
	Progress  *Progress   `json:"progress,omitempty"`
	Bundles   []*Bundle   `json:"bundles,omitempty"`
	Error     string      `json:"error,omitempty"`
}

// Worker serves run requests over channels. It calls the same Runner as the
// synchronous path and processes one request at a time.
type Worker struct {
	runner   *Runner
	requests chan Request
	messages chan Message
}

func NewWorker(runner *Runner, buffer int) *Worker {
	return &Worker{
		runner:   runner,
		requests: make(chan Request, buffer),
		messages: make(chan Message, buffer),
	}
}

// Messages is closed when Serve returns.
func (w *Worker) Messages() <-chan Message {
	return w.messages
}

// Submit queues a run and returns its request id.
func (w *Worker) Submit(ctx context.Context, draws []models.Draw) (string, error) {
	req := Request{ID: uuid.NewString(), Draws: draws}
	select {
	case w.requests <- req:
		return req.ID, nil
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

// Close stops accepting requests; Serve drains the queue and returns.
func (w *Worker) Close() {
	close(w.requests)
}

// Serve processes requests until Close is called or ctx is done.
func (w *Worker) Serve(ctx context.Context) {
	defer close(w.messages)
	for {
		select {
		case req, ok := <-w.requests:
			if !ok {
				return
			}
			w.handle(ctx, req)
		case <-ctx.Done():
			return
		}
	}
}

func (w *Worker) handle(ctx context.Context, req Request) {
	bundles, err := w.run(ctx, req)
	if err != nil {
		logger.Error("Run %s failed: %v", req.ID, err)
		w.send(ctx, Message{RequestID: req.ID, Kind: MessageError, Error: err.Error()})
		return
	}
	w.send(ctx, Message{RequestID: req.ID, Kind: MessageComplete, Bundles: bundles})
}

func (w *Worker) run(ctx context.Context, req Request) (bundles []*Bundle, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			bundles, err = nil, fmt.Errorf("run panicked: %v", rec)
		}
	}()
	return w.runner.Run(ctx, req.Draws, func(p Progress) {
		w.send(ctx, Message{RequestID: req.ID, Kind: MessageProgress, Progress: &p})
	})
}

func (w *Worker) send(ctx context.Context, msg Message) {
	select {
	case w.messages <- msg:
	case <-ctx.Done():
	}
}
