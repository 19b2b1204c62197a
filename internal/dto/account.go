package dto

import (
	"time"

	"github.com/shauritanga/twa-system/internal/core/domain"
	"github.com/shopspring/decimal"
)

// CreateAccountRequest defines the data needed to create a new account.
type CreateAccountRequest struct {
	Code            string             `json:"code" binding:"required,numeric,min=4,max=10"`
	Name            string             `json:"name" binding:"required,max=255"`
	AccountType     domain.AccountType `json:"accountType" binding:"required,oneof=asset liability equity revenue expense"`
	Subtype         string             `json:"subtype"`
	ParentAccountID *string            `json:"parentAccountID"`
	NormalBalance   *domain.Direction  `json:"normalBalance" binding:"omitempty,oneof=debit credit"` // defaulted from type
	IsSystemAccount bool               `json:"isSystemAccount"`
	OpeningBalance  *decimal.Decimal   `json:"openingBalance"`
}

// SetParentRequest moves an account under another one. A nil parent makes it a root.
type SetParentRequest struct {
	ParentAccountID *string `json:"parentAccountID"`
}

// AccountResponse defines the data returned for an account.
type AccountResponse struct {
	AccountID       string             `json:"accountID"`
	Code            string             `json:"code"`
	Name            string             `json:"name"`
	AccountType     domain.AccountType `json:"accountType"`
	Subtype         string             `json:"subtype"`
	ParentAccountID string             `json:"parentAccountID"`
	NormalBalance   domain.Direction   `json:"normalBalance"`
	IsSystemAccount bool               `json:"isSystemAccount"`
	IsActive        bool               `json:"isActive"`
	OpeningBalance  decimal.Decimal    `json:"openingBalance"`
	CurrentBalance  decimal.Decimal    `json:"currentBalance"`
	CreatedAt       time.Time          `json:"createdAt"`
	CreatedBy       string             `json:"createdBy"`
	LastUpdatedAt   time.Time          `json:"lastUpdatedAt"`
	LastUpdatedBy   string             `json:"lastUpdatedBy"`
}

// ToAccountResponse converts a domain.Account to AccountResponse DTO
func ToAccountResponse(acc *domain.Account) AccountResponse {
	return AccountResponse{
		AccountID:       acc.AccountID,
		Code:            acc.Code,
		Name:            acc.Name,
		AccountType:     acc.AccountType,
		Subtype:         acc.Subtype,
		ParentAccountID: acc.ParentAccountID,
		NormalBalance:   acc.NormalBalance,
		IsSystemAccount: acc.IsSystemAccount,
		IsActive:        acc.IsActive,
		OpeningBalance:  acc.OpeningBalance,
		CurrentBalance:  acc.CurrentBalance,
		CreatedAt:       acc.CreatedAt,
		CreatedBy:       acc.CreatedBy,
		LastUpdatedAt:   acc.LastUpdatedAt,
		LastUpdatedBy:   acc.LastUpdatedBy,
	}
}

// ToListAccountResponse converts a slice of domain.Account to a slice of AccountResponse DTOs
func ToListAccountResponse(accounts []domain.Account) []AccountResponse {
	res := make([]AccountResponse, len(accounts))
	for i, acc := range accounts {
		res[i] = ToAccountResponse(&acc)
	}
	return res
}

// AccountBalanceResponse defines the data returned for an account balance query.
type AccountBalanceResponse struct {
	AccountID     string           `json:"accountID"`
	Code          string           `json:"code"`
	NormalBalance domain.Direction `json:"normalBalance"`
	Balance       decimal.Decimal  `json:"balance"`
}

// ListAccountsParams defines query parameters for listing accounts.
type ListAccountsParams struct {
	Type            string `form:"type" binding:"omitempty,oneof=asset liability equity revenue expense"`
	IncludeInactive bool   `form:"includeInactive"`
}

// ListAccountsResponse wraps the list of accounts.
type ListAccountsResponse struct {
	Accounts []AccountResponse `json:"accounts"`
}

// AccountNode is one node of the chart tree.
type AccountNode struct {
	AccountResponse
	Children []AccountNode `json:"children,omitempty"`
}

// ToAccountTree renders the chart arena as nested nodes.
func ToAccountTree(chart *domain.Chart) []AccountNode {
	var build func(a domain.Account) AccountNode
	build = func(a domain.Account) AccountNode {
		node := AccountNode{AccountResponse: ToAccountResponse(&a)}
		for _, child := range chart.Children(a.AccountID) {
			node.Children = append(node.Children, build(child))
		}
		return node
	}
	roots := chart.Roots()
	nodes := make([]AccountNode, 0, len(roots))
	for _, r := range roots {
		nodes = append(nodes, build(r))
	}
	return nodes
}
