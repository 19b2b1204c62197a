// Package posting maps domain events to balanced journal lines.
//
// Rules are pure: they receive the primitive payload and the accounts their
// codes resolved to, and return the lines to post. They never touch storage.
package posting

import (
	"fmt"

	"github.com/shauritanga/twa-system/internal/apperrors"
	"github.com/shauritanga/twa-system/internal/core/domain"
	"github.com/shopspring/decimal"
)

// ResolvedAccounts holds active accounts keyed by code.
type ResolvedAccounts map[string]domain.Account

func (r ResolvedAccounts) get(code string) (domain.Account, error) {
	a, ok := r[code]
	if !ok {
		return domain.Account{}, fmt.Errorf("%w: account %s", apperrors.ErrMissingAccount, code)
	}
	return a, nil
}

// Rule computes journal lines for one (kind, stage).
type Rule struct {
	Name string
	// Accounts returns the codes Build will look up for p.
	Accounts func(p domain.PostingPayload) []string
	Build    func(p domain.PostingPayload, accts ResolvedAccounts) ([]domain.JournalEntryLine, error)
}

// leg is one side of a rule before account resolution.
type leg struct {
	code      string
	direction domain.Direction
	amount    decimal.Decimal
}

func buildLegs(p domain.PostingPayload, accts ResolvedAccounts, legs ...leg) ([]domain.JournalEntryLine, error) {
	lines := make([]domain.JournalEntryLine, 0, len(legs))
	for _, l := range legs {
		if l.amount.IsZero() {
			continue
		}
		acct, err := accts.get(l.code)
		if err != nil {
			return nil, err
		}
		line := domain.NewLine(acct.AccountID, l.direction, l.amount, p.Description)
		line.LineOrder = len(lines) + 1
		lines = append(lines, line)
	}
	return lines, nil
}

func requirePositive(name string, amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return fmt.Errorf("%w: %s must be greater than zero, got %s", apperrors.ErrInvalidAmount, name, amount.String())
	}
	return nil
}

// simpleRule debits one account and credits another with the payload amount.
func simpleRule(name string, debit, credit func(p domain.PostingPayload) string) Rule {
	return Rule{
		Name: name,
		Accounts: func(p domain.PostingPayload) []string {
			return []string{debit(p), credit(p)}
		},
		Build: func(p domain.PostingPayload, accts ResolvedAccounts) ([]domain.JournalEntryLine, error) {
			if err := requirePositive("amount", p.Amount); err != nil {
				return nil, err
			}
			return buildLegs(p, accts,
				leg{debit(p), domain.Debit, p.Amount},
				leg{credit(p), domain.Credit, p.Amount},
			)
		},
	}
}

func fixed(code string) func(domain.PostingPayload) string {
	return func(domain.PostingPayload) string { return code }
}

// PaymentRevenueCode maps a payment type to its revenue account.
func PaymentRevenueCode(paymentType string) string {
	switch paymentType {
	case "contribution", "monthly_contribution":
		return domain.CodeMemberContributions
	case "registration", "registration_fee":
		return domain.CodeRegistrationFees
	default:
		return domain.CodeOtherIncome
	}
}

// ExpenseAccountCode maps an expense category to its expense account.
func ExpenseAccountCode(category string) string {
	switch category {
	case "administrative":
		return domain.CodeAdministrativeExpenses
	case "operational":
		return domain.CodeOperationalExpenses
	case "events":
		return domain.CodeEventExpenses
	default:
		return domain.CodeGeneralExpenses
	}
}

// DebtRevenueCode maps a debt nature to the revenue it recognises.
func DebtRevenueCode(nature string) string {
	switch nature {
	case "contribution":
		return domain.CodeMemberContributions
	case "penalty":
		return domain.CodePenaltyRevenue
	case "loan_interest":
		return domain.CodeInterestIncome
	default:
		return domain.CodeOtherIncome
	}
}

// PaymentReceived: Dr Cash / Cr revenue by payment type.
var PaymentReceived = simpleRule("payment_received",
	fixed(domain.CodeCash),
	func(p domain.PostingPayload) string { return PaymentRevenueCode(p.PaymentType) },
)

// LoanDisbursed: Dr Loans Receivable / Cr Cash for the principal.
var LoanDisbursed = simpleRule("loan_disbursed",
	fixed(domain.CodeLoansReceivable),
	fixed(domain.CodeCash),
)

// LoanRepaid: Dr Cash principal+interest / Cr Loans Receivable principal / Cr Interest Income interest.
var LoanRepaid = Rule{
	Name: "loan_repaid",
	Accounts: func(p domain.PostingPayload) []string {
		codes := []string{domain.CodeCash, domain.CodeLoansReceivable}
		if p.Interest.IsPositive() {
			codes = append(codes, domain.CodeInterestIncome)
		}
		return codes
	},
	Build: func(p domain.PostingPayload, accts ResolvedAccounts) ([]domain.JournalEntryLine, error) {
		if err := requirePositive("principal", p.Amount); err != nil {
			return nil, err
		}
		if p.Interest.IsNegative() {
			return nil, fmt.Errorf("%w: interest must not be negative, got %s", apperrors.ErrInvalidAmount, p.Interest.String())
		}
		return buildLegs(p, accts,
			leg{domain.CodeCash, domain.Debit, p.Amount.Add(p.Interest)},
			leg{domain.CodeLoansReceivable, domain.Credit, p.Amount},
			leg{domain.CodeInterestIncome, domain.Credit, p.Interest},
		)
	},
}

// ExpenseApproved: Dr category expense / Cr Cash.
var ExpenseApproved = simpleRule("expense_approved",
	func(p domain.PostingPayload) string { return ExpenseAccountCode(p.Category) },
	fixed(domain.CodeCash),
)

// PenaltyPaid: Dr Cash / Cr Penalty Revenue.
var PenaltyPaid = simpleRule("penalty_paid",
	fixed(domain.CodeCash),
	fixed(domain.CodePenaltyRevenue),
)

// DisasterPaymentIssued: Dr Disaster Relief / Cr Cash.
var DisasterPaymentIssued = simpleRule("disaster_payment_issued",
	fixed(domain.CodeDisasterRelief),
	fixed(domain.CodeCash),
)

// DebtCreated: Dr Accounts Receivable / Cr revenue by debt nature.
var DebtCreated = simpleRule("debt_created",
	fixed(domain.CodeAccountsReceivable),
	func(p domain.PostingPayload) string { return DebtRevenueCode(p.DebtNature) },
)

// DebtPaid: Dr Cash / Cr Accounts Receivable.
var DebtPaid = simpleRule("debt_paid",
	fixed(domain.CodeCash),
	fixed(domain.CodeAccountsReceivable),
)
