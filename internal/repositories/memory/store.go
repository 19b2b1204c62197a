// Package memory is an in-process implementation of the repository ports.
//
// Transactions are serialized: one top-level WithTx runs at a time and every
// write outside a transaction runs as its own. Rollback restores a snapshot
// taken when the (possibly nested) transaction began. Entry numbers and record
// ids behave like database sequences and are not rolled back.
package memory

import (
	"context"
	"sync"

	"github.com/shauritanga/twa-system/internal/core/domain"
	portsrepo "github.com/shauritanga/twa-system/internal/core/ports/repositories"
)

type txKey struct{}

type postingKey struct {
	kind     domain.TransactionKind
	recordID int64
	stage    domain.LifecycleStage
}

type state struct {
	accounts map[string]domain.Account
	entries  map[string]domain.JournalEntry
	postings map[postingKey]domain.LedgerPosting

	payments         map[int64]domain.Payment
	loans            map[int64]domain.Loan
	expenses         map[int64]domain.ExpenseRecord
	penalties        map[int64]domain.Penalty
	disasterPayments map[int64]domain.DisasterPayment
	debts            map[int64]domain.Debt
}

func newState() state {
	return state{
		accounts:         map[string]domain.Account{},
		entries:          map[string]domain.JournalEntry{},
		postings:         map[postingKey]domain.LedgerPosting{},
		payments:         map[int64]domain.Payment{},
		loans:            map[int64]domain.Loan{},
		expenses:         map[int64]domain.ExpenseRecord{},
		penalties:        map[int64]domain.Penalty{},
		disasterPayments: map[int64]domain.DisasterPayment{},
		debts:            map[int64]domain.Debt{},
	}
}

func cloneMap[K comparable, V any](m map[K]V) map[K]V {
	out := make(map[K]V, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func (s state) clone() state {
	return state{
		accounts:         cloneMap(s.accounts),
		entries:          cloneMap(s.entries),
		postings:         cloneMap(s.postings),
		payments:         cloneMap(s.payments),
		loans:            cloneMap(s.loans),
		expenses:         cloneMap(s.expenses),
		penalties:        cloneMap(s.penalties),
		disasterPayments: cloneMap(s.disasterPayments),
		debts:            cloneMap(s.debts),
	}
}

// Store holds all ledger data in memory.
type Store struct {
	txMu sync.Mutex // held for the whole of a top-level transaction
	mu   sync.RWMutex
	data state

	entrySeq int64
	recordID int64
}

// NewStore returns an empty store.
func NewStore() *Store {
	return &Store{data: newState()}
}

var _ portsrepo.TransactionManager = (*Store)(nil)

func inTx(ctx context.Context) bool {
	v, _ := ctx.Value(txKey{}).(bool)
	return v
}

// WithTx implements portsrepo.TransactionManager.
func (s *Store) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if !inTx(ctx) {
		s.txMu.Lock()
		defer s.txMu.Unlock()
		ctx = context.WithValue(ctx, txKey{}, true)
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.RLock()
	snapshot := s.data.clone()
	s.mu.RUnlock()

	if err := fn(ctx); err != nil {
		s.mu.Lock()
		s.data = snapshot
		s.mu.Unlock()
		return err
	}
	return nil
}

// write runs fn under the data lock, as its own transaction when ctx has none.
func (s *Store) write(ctx context.Context, fn func(d *state) error) error {
	apply := func() error {
		s.mu.Lock()
		defer s.mu.Unlock()
		return fn(&s.data)
	}
	if inTx(ctx) {
		return apply()
	}
	s.txMu.Lock()
	defer s.txMu.Unlock()
	return apply()
}

func (s *Store) read(fn func(d *state)) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	fn(&s.data)
}

func (s *Store) nextRecordID() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.recordID++
	return s.recordID
}

// NewProvider wires a fresh store into every repository port.
func NewProvider() (portsrepo.RepositoryProvider, *Store) {
	s := NewStore()
	return portsrepo.RepositoryProvider{
		TxManager:     s,
		AccountRepo:   s,
		JournalRepo:   s,
		PostingRepo:   s,
		RecordRepo:    s,
		ReportingRepo: s,
	}, s
}
