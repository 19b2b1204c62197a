package domain

import (
	"github.com/shopspring/decimal"
)

// TrialBalanceRow represents a single row in a trial balance report
type TrialBalanceRow struct {
	AccountID   string          `json:"accountID"`
	Code        string          `json:"code"`
	AccountName string          `json:"accountName"`
	AccountType AccountType     `json:"accountType"`
	Debit       decimal.Decimal `json:"debit"`
	Credit      decimal.Decimal `json:"credit"`
}

// TypeTotal is the summed balance of all active accounts of one type.
type TypeTotal struct {
	AccountType AccountType     `json:"accountType"`
	Total       decimal.Decimal `json:"total"`
}

// TrialBalance compares debit-normal and credit-normal account totals.
type TrialBalance struct {
	Rows        []TrialBalanceRow `json:"rows"`
	ByType      []TypeTotal       `json:"byType"`
	TotalDebit  decimal.Decimal   `json:"totalDebit"`
	TotalCredit decimal.Decimal   `json:"totalCredit"`
	Difference  decimal.Decimal   `json:"difference"`
	Balanced    bool              `json:"balanced"`
}

// NewTrialBalance builds the report from active accounts. A balance that runs
// against the account's normal side is shown in the opposite column.
func NewTrialBalance(accounts []Account) TrialBalance {
	tb := TrialBalance{TotalDebit: decimal.Zero, TotalCredit: decimal.Zero}
	totals := make(map[AccountType]decimal.Decimal, len(AccountTypes))
	for _, a := range accounts {
		if !a.IsActive || a.IsDeleted() {
			continue
		}
		totals[a.AccountType] = totals[a.AccountType].Add(a.CurrentBalance)

		row := TrialBalanceRow{
			AccountID:   a.AccountID,
			Code:        a.Code,
			AccountName: a.Name,
			AccountType: a.AccountType,
			Debit:       decimal.Zero,
			Credit:      decimal.Zero,
		}
		side := a.NormalBalance
		amount := a.CurrentBalance
		if amount.IsNegative() {
			side = side.Opposite()
			amount = amount.Neg()
		}
		if side == Debit {
			row.Debit = amount
			tb.TotalDebit = tb.TotalDebit.Add(amount)
		} else {
			row.Credit = amount
			tb.TotalCredit = tb.TotalCredit.Add(amount)
		}
		tb.Rows = append(tb.Rows, row)
	}
	for _, t := range AccountTypes {
		tb.ByType = append(tb.ByType, TypeTotal{AccountType: t, Total: RoundMoney(totals[t])})
	}
	tb.TotalDebit = RoundMoney(tb.TotalDebit)
	tb.TotalCredit = RoundMoney(tb.TotalCredit)
	tb.Difference = tb.TotalDebit.Sub(tb.TotalCredit)
	tb.Balanced = tb.Difference.Abs().LessThanOrEqual(BalanceTolerance)
	return tb
}

// BalanceDrift reports an account whose stored balance disagrees with its line log.
type BalanceDrift struct {
	AccountID string          `json:"accountID"`
	Code      string          `json:"code"`
	Stored    decimal.Decimal `json:"stored"`
	Computed  decimal.Decimal `json:"computed"`
	Drift     decimal.Decimal `json:"drift"`
}

// BalanceVerification is the result of recomputing balances from posted lines.
type BalanceVerification struct {
	AccountsChecked int            `json:"accountsChecked"`
	Drifts          []BalanceDrift `json:"drifts"`
}

// OK reports whether every account matched.
func (v BalanceVerification) OK() bool { return len(v.Drifts) == 0 }

// LineMovement is one posted line as seen by the verifier.
type LineMovement struct {
	AccountID string
	Debit     decimal.Decimal
	Credit    decimal.Decimal
}

// VerifyBalances recomputes opening + Σ signed lines for each account and lists mismatches.
func VerifyBalances(accounts []Account, movements []LineMovement) BalanceVerification {
	computed := make(map[string]decimal.Decimal, len(accounts))
	byID := make(map[string]Account, len(accounts))
	for _, a := range accounts {
		byID[a.AccountID] = a
		computed[a.AccountID] = a.OpeningBalance
	}
	for _, m := range movements {
		a, ok := byID[m.AccountID]
		if !ok {
			continue
		}
		delta := a.SignedAmount(m.Debit, Debit).Add(a.SignedAmount(m.Credit, Credit))
		computed[m.AccountID] = computed[m.AccountID].Add(delta)
	}
	v := BalanceVerification{AccountsChecked: len(accounts)}
	for _, a := range accounts {
		c := RoundMoney(computed[a.AccountID])
		if !c.Equal(RoundMoney(a.CurrentBalance)) {
			v.Drifts = append(v.Drifts, BalanceDrift{
				AccountID: a.AccountID,
				Code:      a.Code,
				Stored:    a.CurrentBalance,
				Computed:  c,
				Drift:     a.CurrentBalance.Sub(c),
			})
		}
	}
	return v
}
