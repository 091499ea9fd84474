package resilience

import (
	"errors"
	"sync"
)

var ErrBudgetExhausted = errors.New("error budget exhausted")

type BudgetState string

const (
	BudgetStateClosed BudgetState = "closed"
	BudgetStateOpen   BudgetState = "open"
)

// ErrorBudget trips once more than limit failures have been recorded.
// There is no half-open state: a tripped budget stays open until Reset.
type ErrorBudget struct {
	mu sync.Mutex

	limit     int
	failures  int
	successes int
	state     BudgetState
}

func NewErrorBudget(limit int) *ErrorBudget {
	if limit < 0 {
		limit = 0
	}
	return &ErrorBudget{limit: limit, state: BudgetStateClosed}
}

func (b *ErrorBudget) Allow() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.state == BudgetStateOpen {
		return ErrBudgetExhausted
	}
	return nil
}

func (b *ErrorBudget) RecordSuccess() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.successes++
}

// RecordFailure counts one failure and reports ErrBudgetExhausted when this
// failure pushed the budget over its limit.
func (b *ErrorBudget) RecordFailure() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.failures++
	if b.failures > b.limit {
		b.state = BudgetStateOpen
		return ErrBudgetExhausted
	}
	return nil
}

func (b *ErrorBudget) State() BudgetState {
	b.mu.Lock()
	defer b.mu.Unlock()

	return b.state
}

func (b *ErrorBudget) Failures() int {
	b.mu.Lock()
	defer b.mu.Unlock()

	return b.failures
}

func (b *ErrorBudget) Successes() int {
	b.mu.Lock()
	defer b.mu.Unlock()

	return b.successes
}

func (b *ErrorBudget) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.failures = 0
	b.successes = 0
	b.state = BudgetStateClosed
}
