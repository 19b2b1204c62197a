package posting

import (
	"fmt"
	"sort"

	"github.com/shauritanga/twa-system/internal/apperrors"
	"github.com/shauritanga/twa-system/internal/core/domain"
)

// Registry is the explicit (kind, stage) → rule table.
type Registry struct {
	rules map[domain.PostingKey]Rule
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{rules: make(map[domain.PostingKey]Rule)}
}

// DefaultRegistry wires every posting the association's records produce.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	r.Register(domain.KindPayment, domain.StageCreated, PaymentReceived)
	r.Register(domain.KindLoan, domain.StageDisbursed, LoanDisbursed)
	r.Register(domain.KindLoan, domain.StageRepaid, LoanRepaid)
	r.Register(domain.KindExpense, domain.StageApproved, ExpenseApproved)
	r.Register(domain.KindPenalty, domain.StagePaid, PenaltyPaid)
	r.Register(domain.KindDisasterPayment, domain.StageIssued, DisasterPaymentIssued)
	r.Register(domain.KindDebt, domain.StageCreated, DebtCreated)
	r.Register(domain.KindDebt, domain.StagePaid, DebtPaid)
	return r
}

// Register binds rule to (kind, stage), replacing any previous binding.
func (r *Registry) Register(kind domain.TransactionKind, stage domain.LifecycleStage, rule Rule) {
	r.rules[domain.PostingKey{Kind: kind, Stage: stage}] = rule
}

// Lookup returns the rule for key.
func (r *Registry) Lookup(key domain.PostingKey) (Rule, error) {
	rule, ok := r.rules[key]
	if !ok {
		return Rule{}, fmt.Errorf("%w: no posting rule for %s", apperrors.ErrValidation, key)
	}
	return rule, nil
}

// Keys returns the registered keys in a stable order.
func (r *Registry) Keys() []domain.PostingKey {
	keys := make([]domain.PostingKey, 0, len(r.rules))
	for k := range r.rules {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i].String() < keys[j].String() })
	return keys
}

// Compute runs rule against accounts resolved for rule.Accounts(p) and checks
// that the produced lines balance.
func Compute(rule Rule, p domain.PostingPayload, accts ResolvedAccounts) ([]domain.JournalEntryLine, error) {
	lines, err := rule.Build(p, accts)
	if err != nil {
		return nil, err
	}
	if len(lines) < 2 {
		return nil, fmt.Errorf("%w: rule %s produced %d line(s)", apperrors.ErrInsufficientLines, rule.Name, len(lines))
	}
	debit, credit := domain.SumLines(lines)
	if !debit.Equal(credit) {
		return nil, fmt.Errorf("%w: rule %s produced debit %s credit %s", apperrors.ErrNotBalanced, rule.Name, debit.StringFixed(2), credit.StringFixed(2))
	}
	return lines, nil
}
