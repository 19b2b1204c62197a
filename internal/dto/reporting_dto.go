package dto

import (
	"github.com/shauritanga/twa-system/internal/core/domain"
	"github.com/shopspring/decimal"
)

// TrialBalanceResponse represents the trial balance report response
type TrialBalanceResponse struct {
	Rows   []domain.TrialBalanceRow `json:"rows"`
	ByType []domain.TypeTotal       `json:"byType"`
	Totals struct {
		Debit  decimal.Decimal `json:"debit"`
		Credit decimal.Decimal `json:"credit"`
	} `json:"totals"`
	Difference decimal.Decimal `json:"difference"`
	Balanced   bool            `json:"balanced"`
}

// ToTrialBalanceResponse converts the domain report to its DTO.
func ToTrialBalanceResponse(tb domain.TrialBalance) TrialBalanceResponse {
	resp := TrialBalanceResponse{
		Rows:       tb.Rows,
		ByType:     tb.ByType,
		Difference: tb.Difference,
		Balanced:   tb.Balanced,
	}
	if resp.Rows == nil {
		resp.Rows = []domain.TrialBalanceRow{}
	}
	resp.Totals.Debit = tb.TotalDebit
	resp.Totals.Credit = tb.TotalCredit
	return resp
}

// BalanceVerificationResponse lists accounts whose stored balance drifted from the line log.
type BalanceVerificationResponse struct {
	AccountsChecked int                   `json:"accountsChecked"`
	OK              bool                  `json:"ok"`
	Drifts          []domain.BalanceDrift `json:"drifts"`
}

// ToBalanceVerificationResponse converts the verification result to its DTO.
func ToBalanceVerificationResponse(v domain.BalanceVerification) BalanceVerificationResponse {
	resp := BalanceVerificationResponse{AccountsChecked: v.AccountsChecked, OK: v.OK(), Drifts: v.Drifts}
	if resp.Drifts == nil {
		resp.Drifts = []domain.BalanceDrift{}
	}
	return resp
}
