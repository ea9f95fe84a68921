// Package dashboard holds the operator's working copy of the customers and
// derives the figures the dashboard displays from it.
package dashboard

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/rschio/riskdash/internal/core/customer"
)

// ErrFetch is the error exposed when the customers could not be loaded.
var ErrFetch = errors.New("failed to fetch customer data, check backend server")

// Phase is the load state of the dashboard.
type Phase int

// Set of phases. A refresh moves Loading to Ready or Failed.
const (
	PhaseLoading Phase = iota
	PhaseReady
	PhaseFailed
)

func (p Phase) String() string {
	switch p {
	case PhaseLoading:
		return "loading"
	case PhaseReady:
		return "ready"
	case PhaseFailed:
		return "failed"
	}
	return fmt.Sprintf("phase(%d)", int(p))
}

// Loader fetches the scored customers.
type Loader interface {
	QueryAll(ctx context.Context) ([]customer.Customer, error)
}

// Snapshot is a consistent copy of the state.
type Snapshot struct {
	Phase     Phase
	Err       error
	LoadedAt  time.Time
	Customers []customer.Customer
}

// override is a status applied locally, stamped with the generation it
// was applied in.
type override struct {
	status customer.Status
	gen    uint64
}

// State is the application state container. It is safe for concurrent use.
type State struct {
	// refreshMu serializes refreshes.
	refreshMu sync.Mutex

	mu        sync.RWMutex
	phase     Phase
	err       error
	loadedAt  time.Time
	customers []customer.Customer
	index     map[string]int

	gen       uint64
	overrides map[string]override
}

// NewState returns a state in the loading phase with no customers.
func NewState() *State {
	return &State{
		phase:     PhaseLoading,
		index:     make(map[string]int),
		overrides: make(map[string]override),
	}
}

// Refresh reloads the customers through l. On failure the previous
// customers stay in place and the phase becomes PhaseFailed.
//
// Statuses applied while the load is in flight win over the loaded ones.
func (s *State) Refresh(ctx context.Context, l Loader) error {
	s.refreshMu.Lock()
	defer s.refreshMu.Unlock()

	s.mu.Lock()
	s.phase = PhaseLoading
	start := s.gen
	s.mu.Unlock()

	cs, err := l.QueryAll(ctx)

	s.mu.Lock()
	defer s.mu.Unlock()

	if err != nil {
		s.phase = PhaseFailed
		s.err = fmt.Errorf("%w: %w", ErrFetch, err)
		return s.err
	}

	index := make(map[string]int, len(cs))
	for i, c := range cs {
		index[c.ID] = i
		if o, ok := s.overrides[c.ID]; ok && o.gen > start {
			cs[i].Status = o.status
		}
	}
	clear(s.overrides)

	s.phase = PhaseReady
	s.err = nil
	s.loadedAt = time.Now().UTC()
	s.customers = cs
	s.index = index

	return nil
}

// Snapshot returns a copy of the current state.
func (s *State) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	cs := make([]customer.Customer, len(s.customers))
	for i, c := range s.customers {
		cs[i] = clone(c)
	}

	return Snapshot{
		Phase:     s.phase,
		Err:       s.err,
		LoadedAt:  s.loadedAt,
		Customers: cs,
	}
}

// Phase returns the current phase.
func (s *State) Phase() Phase {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.phase
}

// Customer returns a copy of the customer with the id.
func (s *State) Customer(customerID string) (customer.Customer, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	i, ok := s.index[customerID]
	if !ok {
		return customer.Customer{}, false
	}
	return clone(s.customers[i]), true
}

// ApplyStatus sets the status of the customer and returns the updated
// record read under the same lock.
func (s *State) ApplyStatus(customerID string, status customer.Status) (customer.Customer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i, ok := s.index[customerID]
	if !ok {
		return customer.Customer{}, fmt.Errorf("%w: id[%s]", customer.ErrNotFound, customerID)
	}

	s.gen++
	s.overrides[customerID] = override{status: status, gen: s.gen}

	s.customers[i].Status = status
	return clone(s.customers[i]), nil
}

func clone(c customer.Customer) customer.Customer {
	c.RepaymentHistory = slices.Clone(c.RepaymentHistory)
	return c
}
