// Package store reads loan and portfolio snapshots for the HTTP server.
package store

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/rpgo/wealth-optimizer/internal/domain"
)

// Store provides read access to persisted loans and portfolios.
// Unknown identifiers return an error wrapping domain.ErrNotFound.
type Store interface {
	GetLoan(ctx context.Context, id int64) (*domain.Loan, error)
	ListLoans(ctx context.Context) ([]domain.Loan, error)
	GetPortfolio(ctx context.Context, id int64) (*domain.Portfolio, error)
}

// MemoryStore is an in-memory Store.
type MemoryStore struct {
	mu         sync.RWMutex
	loans      map[int64]domain.Loan
	portfolios map[int64]domain.Portfolio
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		loans:      make(map[int64]domain.Loan),
		portfolios: make(map[int64]domain.Portfolio),
	}
}

// NewMemoryStoreFromPlan seeds a store with the loans and portfolios of a plan.
func NewMemoryStoreFromPlan(plan *domain.Plan) *MemoryStore {
	s := NewMemoryStore()
	if plan == nil {
		return s
	}
	for _, l := range plan.Loans {
		s.PutLoan(l)
	}
	for _, p := range plan.Portfolios {
		s.PutPortfolio(p)
	}
	return s
}

// PutLoan inserts or replaces a loan.
func (s *MemoryStore) PutLoan(l domain.Loan) {
	s.mu.Lock()
	s.loans[l.ID] = l
	s.mu.Unlock()
}

// PutPortfolio inserts or replaces a portfolio.
func (s *MemoryStore) PutPortfolio(p domain.Portfolio) {
	s.mu.Lock()
	s.portfolios[p.ID] = p
	s.mu.Unlock()
}

func (s *MemoryStore) GetLoan(_ context.Context, id int64) (*domain.Loan, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	l, ok := s.loans[id]
	if !ok {
		return nil, fmt.Errorf("loan %d: %w", id, domain.ErrNotFound)
	}
	return &l, nil
}

// ListLoans returns all loans ordered by ID.
func (s *MemoryStore) ListLoans(_ context.Context) ([]domain.Loan, error) {
	s.mu.RLock()
	out := make([]domain.Loan, 0, len(s.loans))
	for _, l := range s.loans {
		out = append(out, l)
	}
	s.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *MemoryStore) GetPortfolio(_ context.Context, id int64) (*domain.Portfolio, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.portfolios[id]
	if !ok {
		return nil, fmt.Errorf("portfolio %d: %w", id, domain.ErrNotFound)
	}
	holdings := make([]domain.Holding, len(p.Holdings))
	copy(holdings, p.Holdings)
	p.Holdings = holdings
	return &p, nil
}
