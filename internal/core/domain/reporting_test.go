package domain_test

import (
	"testing"

	"github.com/shauritanga/twa-system/internal/core/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewTrialBalance(t *testing.T) {
	accounts := []domain.Account{
		{AccountID: "cash", Code: "1000", AccountType: domain.Asset, NormalBalance: domain.Debit, IsActive: true, CurrentBalance: dec("1500")},
		{AccountID: "loans", Code: "1100", AccountType: domain.Asset, NormalBalance: domain.Debit, IsActive: true, CurrentBalance: dec("500")},
		{AccountID: "contrib", Code: "4000", AccountType: domain.Revenue, NormalBalance: domain.Credit, IsActive: true, CurrentBalance: dec("2000")},
		{AccountID: "inactive", Code: "4900", AccountType: domain.Revenue, NormalBalance: domain.Credit, IsActive: false, CurrentBalance: dec("999")},
	}

	tb := domain.NewTrialBalance(accounts)
	assert.True(t, tb.Balanced)
	assert.Len(t, tb.Rows, 3)
	assert.Equal(t, "2000.00", tb.TotalDebit.StringFixed(2))
	assert.Equal(t, "2000.00", tb.TotalCredit.StringFixed(2))
	require.Len(t, tb.ByType, len(domain.AccountTypes))
	assert.Equal(t, "2000.00", tb.ByType[0].Total.StringFixed(2))

	accounts[0].CurrentBalance = dec("1400")
	tb = domain.NewTrialBalance(accounts)
	assert.False(t, tb.Balanced)
	assert.Equal(t, "-100.00", tb.Difference.StringFixed(2))
}

func TestNewTrialBalance_ContraBalance(t *testing.T) {
	accounts := []domain.Account{
		{AccountID: "cash", AccountType: domain.Asset, NormalBalance: domain.Debit, IsActive: true, CurrentBalance: dec("-50")},
		{AccountID: "fund", AccountType: domain.Equity, NormalBalance: domain.Credit, IsActive: true, CurrentBalance: dec("-50")},
	}
	tb := domain.NewTrialBalance(accounts)
	assert.True(t, tb.Balanced)
	assert.Equal(t, "50.00", tb.Rows[0].Credit.StringFixed(2))
	assert.Equal(t, "50.00", tb.Rows[1].Debit.StringFixed(2))
}

func TestVerifyBalances(t *testing.T) {
	accounts := []domain.Account{
		{AccountID: "cash", Code: "1000", NormalBalance: domain.Debit, OpeningBalance: dec("10"), CurrentBalance: dec("110")},
		{AccountID: "rev", Code: "4000", NormalBalance: domain.Credit, OpeningBalance: dec("0"), CurrentBalance: dec("90")},
	}
	movements := []domain.LineMovement{
		{AccountID: "cash", Debit: dec("100"), Credit: dec("0")},
		{AccountID: "rev", Debit: dec("0"), Credit: dec("100")},
	}

	v := domain.VerifyBalances(accounts, movements)
	assert.Equal(t, 2, v.AccountsChecked)
	require.Len(t, v.Drifts, 1)
	assert.Equal(t, "rev", v.Drifts[0].AccountID)
	assert.Equal(t, "-10.00", v.Drifts[0].Drift.StringFixed(2))
}
