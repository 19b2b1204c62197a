package mapping

import (
	"github.com/shauritanga/twa-system/internal/core/domain"
	"github.com/shauritanga/twa-system/internal/models"
)

// ToModelAccount converts a domain Account to a model Account
func ToModelAccount(d domain.Account) models.Account {
	return models.Account{
		AccountID:       d.AccountID,
		Code:            d.Code,
		Name:            d.Name,
		AccountType:     string(d.AccountType),
		Subtype:         d.Subtype,
		ParentAccountID: optionalString(d.ParentAccountID),
		NormalBalance:   string(d.NormalBalance),
		IsSystemAccount: d.IsSystemAccount,
		IsActive:        d.IsActive,
		OpeningBalance:  d.OpeningBalance,
		CurrentBalance:  d.CurrentBalance,
		DeletedAt:       d.DeletedAt,
		AuditFields:     ToModelAuditFields(d.AuditFields),
	}
}

// ToDomainAccount converts a model Account to a domain Account
func ToDomainAccount(m models.Account) domain.Account {
	return domain.Account{
		AccountID:       m.AccountID,
		Code:            m.Code,
		Name:            m.Name,
		AccountType:     domain.AccountType(m.AccountType),
		Subtype:         m.Subtype,
		ParentAccountID: derefString(m.ParentAccountID),
		NormalBalance:   domain.Direction(m.NormalBalance),
		IsSystemAccount: m.IsSystemAccount,
		IsActive:        m.IsActive,
		OpeningBalance:  m.OpeningBalance,
		CurrentBalance:  m.CurrentBalance,
		DeletedAt:       m.DeletedAt,
		AuditFields:     ToDomainAuditFields(m.AuditFields),
	}
}

// ToDomainAccountSlice converts a slice of model Accounts to a slice of domain Accounts
func ToDomainAccountSlice(ms []models.Account) []domain.Account {
	ds := make([]domain.Account, len(ms))
	for i, m := range ms {
		ds[i] = ToDomainAccount(m)
	}
	return ds
}
