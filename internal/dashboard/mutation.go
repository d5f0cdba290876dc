// Package dashboard composes cached resources and mutations into the screens
// of the dashboard. It has no terminal dependency; internal/ui renders it.
package dashboard

import (
	"context"
	"log/slog"
	"sync"

	"github.com/tgienger/dash/internal/api"
)

// Invalidator is a cache that can be told its data is out of date.
type Invalidator interface {
	Invalidate()
}

// Mutation wraps one create, update or delete action. It exposes the outcome
// of its last run for display next to the control that triggered it.
type Mutation[P any] struct {
	name     string
	fallback string
	do       func(ctx context.Context, p P) error
	validate func(p P) string
	owners   []Invalidator
	log      *slog.Logger

	mu      sync.Mutex
	loading bool
	err     string
	prompt  string
}

// NewMutation creates a mutation. fallback is shown when the server reports
// a failure without a message.
func NewMutation[P any](name, fallback string, do func(ctx context.Context, p P) error, logger *slog.Logger) *Mutation[P] {
	return &Mutation[P]{
		name:     name,
		fallback: fallback,
		do:       do,
		log:      logger,
	}
}

// Validate sets a check run before any request. A non-empty result is shown
// as a prompt and the request is not sent.
func (m *Mutation[P]) Validate(fn func(p P) string) *Mutation[P] {
	m.validate = fn
	return m
}

// Invalidates marks caches to invalidate after each successful run.
func (m *Mutation[P]) Invalidates(owners ...Invalidator) *Mutation[P] {
	m.owners = append(m.owners, owners...)
	return m
}

// Run performs the action and reports whether it succeeded.
func (m *Mutation[P]) Run(ctx context.Context, p P) bool {
	m.mu.Lock()
	m.err, m.prompt = "", ""
	if m.validate != nil {
		if msg := m.validate(p); msg != "" {
			m.prompt = msg
			m.mu.Unlock()
			return false
		}
	}
	m.loading = true
	m.mu.Unlock()

	err := m.do(ctx, p)

	m.mu.Lock()
	m.loading = false
	if err != nil {
		m.err = api.Message(err, m.fallback)
	}
	m.mu.Unlock()

	if err != nil {
		m.log.WarnContext(ctx, "mutation failed", slog.String("action", m.name), slog.String("error", err.Error()))
		return false
	}
	m.log.DebugContext(ctx, "mutation succeeded", slog.String("action", m.name))
	for _, o := range m.owners {
		o.Invalidate()
	}
	return true
}

// Reject records prompt as the outcome without running the action. Callers
// use it for input they could not turn into a payload.
func (m *Mutation[P]) Reject(prompt string) {
	m.mu.Lock()
	m.err, m.prompt = "", prompt
	m.mu.Unlock()
}

// Fail records err as the outcome, for a request the action depends on.
func (m *Mutation[P]) Fail(ctx context.Context, err error) {
	m.mu.Lock()
	m.err, m.prompt = api.Message(err, m.fallback), ""
	m.mu.Unlock()
	m.log.WarnContext(ctx, "mutation failed", slog.String("action", m.name), slog.String("error", err.Error()))
}

// Loading reports whether a request is in flight.
func (m *Mutation[P]) Loading() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.loading
}

// Error is the failure message of the last run, or "".
func (m *Mutation[P]) Error() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.err
}

// Prompt is the validation message of the last run, or "".
func (m *Mutation[P]) Prompt() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.prompt
}

// Reset clears the outcome of the last run.
func (m *Mutation[P]) Reset() {
	m.mu.Lock()
	m.err, m.prompt = "", ""
	m.mu.Unlock()
}
