// Package chat runs the conversation: it records messages, queues each user
// message as a chat turn and lets a single worker interpret and reconcile
// turns in the order they were submitted.
package chat

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/dvloznov/financas-pro/internal/domain"
	"github.com/dvloznov/financas-pro/internal/intent"
	"github.com/dvloznov/financas-pro/internal/jobs"
	"github.com/dvloznov/financas-pro/internal/ledger"
	"github.com/dvloznov/financas-pro/internal/nlu"
	"github.com/dvloznov/financas-pro/internal/reconcile"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// DefaultTimeout bounds one interpreter call.
const DefaultTimeout = 30 * time.Second

// ErrEmptyMessage is returned by Submit for blank input.
var ErrEmptyMessage = errors.New("empty message")

// Snapshotter returns a read-only view of the ledger.
type Snapshotter interface {
	Snapshot() ledger.Snapshot
}

// Reconciler applies interpreted intents.
type Reconciler interface {
	Reconcile(ctx context.Context, in intent.Intent) reconcile.Result
	Failure(err error) reconcile.Result
}

// Queue carries chat turns to the worker. Store returns where turn status
// is recorded, or nil.
type Queue interface {
	jobs.Publisher
	jobs.Consumer
	Store() jobs.JobStore
}

// Reply is the outcome of one chat turn.
type Reply struct {
	TurnID  string
	Message domain.ChatMessage
	Result  reconcile.Result
}

// Pending is a submitted turn whose reply may not exist yet.
type Pending struct {
	TurnID      string
	UserMessage domain.ChatMessage

	done  chan struct{}
	reply Reply
}

// Wait blocks until the turn has been answered or ctx is done.
func (p *Pending) Wait(ctx context.Context) (Reply, error) {
	select {
	case <-p.done:
		return p.reply, nil
	case <-ctx.Done():
		return Reply{}, ctx.Err()
	}
}

// Session is the conversation with the assistant. Only one turn is
// processed at a time; further submissions wait in the queue.
type Session struct {
	ledger      Snapshotter
	interpreter nlu.Interpreter
	reconciler  Reconciler
	queue       Queue
	log         zerolog.Logger
	timeout     time.Duration
	now         func() time.Time
	newID       func() string

	// submitMu keeps history order and queue order identical.
	submitMu sync.Mutex

	mu          sync.Mutex
	messages    []domain.ChatMessage
	outstanding int
	generation  int
	waiting     map[string]*waiter
}

type waiter struct {
	pending    *Pending
	generation int
}

// Option configures a Session.
type Option func(*Session)

// WithTimeout bounds each interpreter call.
func WithTimeout(d time.Duration) Option {
	return func(s *Session) {
		if d > 0 {
			s.timeout = d
		}
	}
}

// WithClock overrides the clock used for message timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Session) { s.now = now }
}

// WithIDGenerator overrides how message ids are generated.
func WithIDGenerator(newID func() string) Option {
	return func(s *Session) { s.newID = newID }
}

// NewSession creates a Session. Call Start before submitting messages.
func NewSession(l Snapshotter, interpreter nlu.Interpreter, reconciler Reconciler, queue Queue, log zerolog.Logger, opts ...Option) *Session {
	s := &Session{
		ledger:      l,
		interpreter: interpreter,
		reconciler:  reconciler,
		queue:       queue,
		log:         log,
		timeout:     DefaultTimeout,
		now:         time.Now,
		newID:       uuid.NewString,
		messages:    []domain.ChatMessage{},
		waiting:     make(map[string]*waiter),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start launches the worker that processes turns.
func (s *Session) Start(ctx context.Context) error {
	if err := s.queue.Start(ctx, s.handle); err != nil {
		return fmt.Errorf("Start: %w", err)
	}
	return nil
}

// Stop stops the worker after the turn in flight, if any. Turns still
// queued are answered with the connection error reply.
func (s *Session) Stop(ctx context.Context) error {
	if err := s.queue.Stop(ctx); err != nil {
		return fmt.Errorf("Stop: %w", err)
	}
	return nil
}

// Submit records text as a user message and queues it for the assistant.
// The user message is in the history when Submit returns.
func (s *Session) Submit(ctx context.Context, text string) (*Pending, error) {
	if strings.TrimSpace(text) == "" {
		return nil, ErrEmptyMessage
	}

	s.submitMu.Lock()
	defer s.submitMu.Unlock()

	msg := domain.ChatMessage{
		ID:        s.newID(),
		Role:      domain.RoleUser,
		Content:   text,
		Timestamp: s.now(),
	}
	p := &Pending{
		TurnID:      s.newID(),
		UserMessage: msg,
		done:        make(chan struct{}),
	}

	s.mu.Lock()
	s.messages = append(s.messages, msg)
	s.outstanding++
	s.waiting[p.TurnID] = &waiter{pending: p, generation: s.generation}
	s.mu.Unlock()

	job := &jobs.ChatTurnJob{
		JobID:     p.TurnID,
		MessageID: msg.ID,
		Text:      text,
	}
	if err := s.queue.PublishChatTurn(ctx, job); err != nil {
		s.mu.Lock()
		s.outstanding--
		delete(s.waiting, p.TurnID)
		s.messages = slices.DeleteFunc(s.messages, func(m domain.ChatMessage) bool { return m.ID == msg.ID })
		s.mu.Unlock()
		return nil, fmt.Errorf("Submit: failed to queue turn: %w", err)
	}

	s.log.Debug().Str("turn_id", p.TurnID).Msg("Chat turn queued")
	return p, nil
}

// Send submits text and waits for the reply.
func (s *Session) Send(ctx context.Context, text string) (Reply, error) {
	p, err := s.Submit(ctx, text)
	if err != nil {
		return Reply{}, err
	}
	return p.Wait(ctx)
}

// Messages returns a copy of the conversation history.
func (s *Session) Messages() []domain.ChatMessage {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.messages)
}

// Busy reports whether any submitted turn is still unanswered.
func (s *Session) Busy() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.outstanding > 0
}

// Reset clears the history and the recorded turns. Turns already queued
// are still answered, but their replies are not added to the new history.
func (s *Session) Reset() {
	s.mu.Lock()
	s.messages = []domain.ChatMessage{}
	s.generation++
	s.mu.Unlock()

	if turns := s.queue.Store(); turns != nil {
		if err := turns.Clear(context.Background()); err != nil {
			s.log.Warn().Err(err).Msg("failed to clear turn history")
		}
	}
}

// handle processes one chat turn. It always appends exactly one assistant
// message; interpreter failures are answered with a connection error reply.
func (s *Session) handle(ctx context.Context, job jobs.Job) error {
	turn, ok := job.(*jobs.ChatTurnJob)
	if !ok {
		return fmt.Errorf("handle: unexpected job %s of type %s", job.GetID(), job.GetType())
	}

	log := s.log.With().Str("turn_id", turn.GetID()).Logger()
	snap := s.ledger.Snapshot()

	var (
		in           intent.Intent
		interpretErr error
	)
	if interpretErr = ctx.Err(); interpretErr == nil {
		ictx, cancel := context.WithTimeout(ctx, s.timeout)
		in, interpretErr = s.interpreter.Interpret(ictx, turn.Text, snap.Categories, snap.Transactions)
		cancel()
	}

	var res reconcile.Result
	if interpretErr != nil {
		res = s.reconciler.Failure(interpretErr)
	} else {
		res = s.reconciler.Reconcile(ctx, in)
	}

	reply := domain.ChatMessage{
		ID:        s.newID(),
		Role:      domain.RoleAssistant,
		Content:   res.Message,
		Timestamp: s.now(),
	}

	s.mu.Lock()
	w := s.waiting[turn.JobID]
	delete(s.waiting, turn.JobID)
	if w == nil || w.generation == s.generation {
		s.messages = append(s.messages, reply)
	}
	s.outstanding--
	s.mu.Unlock()

	turn.Reply = reply.Content
	turn.ReplyID = reply.ID

	if w != nil {
		w.pending.reply = Reply{TurnID: turn.JobID, Message: reply, Result: res}
		close(w.pending.done)
	}

	log.Info().Bool("mutated", res.Mutated()).Bool("failed", interpretErr != nil).Msg("Chat turn answered")

	if interpretErr != nil {
		return fmt.Errorf("handle: interpret: %w", interpretErr)
	}
	return nil
}
