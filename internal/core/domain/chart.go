package domain

// Fixed account codes the posting rules resolve.
const (
	CodeCash                   = "1000"
	CodeLoansReceivable        = "1100"
	CodeAccountsReceivable     = "1200"
	CodeAccountsPayable        = "2000"
	CodeAssociationFund        = "3000"
	CodeMemberContributions    = "4000"
	CodeInterestIncome         = "4100"
	CodePenaltyRevenue         = "4200"
	CodeRegistrationFees       = "4300"
	CodeOtherIncome            = "4900"
	CodeDisasterRelief         = "5000"
	CodeAdministrativeExpenses = "5100"
	CodeOperationalExpenses    = "5200"
	CodeEventExpenses          = "5300"
	CodeGeneralExpenses        = "5900"
)

// ChartEntry describes one account of the seeded chart.
type ChartEntry struct {
	Code       string
	Name       string
	Type       AccountType
	Subtype    string
	ParentCode string
	IsSystem   bool
}

// DefaultChart is the association's chart of accounts, created by the seeder.
var DefaultChart = []ChartEntry{
	{Code: CodeCash, Name: "Cash and Bank", Type: Asset, Subtype: "cash", IsSystem: true},
	{Code: CodeLoansReceivable, Name: "Loans Receivable", Type: Asset, Subtype: "receivable", IsSystem: true},
	{Code: CodeAccountsReceivable, Name: "Member Debts Receivable", Type: Asset, Subtype: "receivable", IsSystem: true},
	{Code: CodeAccountsPayable, Name: "Accounts Payable", Type: Liability, Subtype: "payable"},
	{Code: CodeAssociationFund, Name: "Association Fund", Type: Equity, Subtype: "fund", IsSystem: true},
	{Code: CodeMemberContributions, Name: "Member Contributions", Type: Revenue, Subtype: "contribution", IsSystem: true},
	{Code: CodeInterestIncome, Name: "Interest Income", Type: Revenue, Subtype: "interest", IsSystem: true},
	{Code: CodePenaltyRevenue, Name: "Penalty Revenue", Type: Revenue, Subtype: "penalty", IsSystem: true},
	{Code: CodeRegistrationFees, Name: "Registration Fees", Type: Revenue, Subtype: "registration", ParentCode: CodeMemberContributions},
	{Code: CodeOtherIncome, Name: "Other Income", Type: Revenue, Subtype: "other", IsSystem: true},
	{Code: CodeDisasterRelief, Name: "Disaster Relief", Type: Expense, Subtype: "disaster", IsSystem: true},
	{Code: CodeAdministrativeExpenses, Name: "Administrative Expenses", Type: Expense, Subtype: "administrative", ParentCode: CodeGeneralExpenses},
	{Code: CodeOperationalExpenses, Name: "Operational Expenses", Type: Expense, Subtype: "operational", ParentCode: CodeGeneralExpenses},
	{Code: CodeEventExpenses, Name: "Event Expenses", Type: Expense, Subtype: "events", ParentCode: CodeGeneralExpenses},
	{Code: CodeGeneralExpenses, Name: "General Expenses", Type: Expense, Subtype: "general", IsSystem: true},
}

// Chart is a flat arena of accounts keyed by id; parents are referenced by index.
type Chart struct {
	accounts []Account
	index    map[string]int
	parent   []int // -1 for roots
}

// NewChart builds the arena. Parents that are not part of the slice are treated as roots.
func NewChart(accounts []Account) *Chart {
	c := &Chart{
		accounts: make([]Account, len(accounts)),
		index:    make(map[string]int, len(accounts)),
		parent:   make([]int, len(accounts)),
	}
	copy(c.accounts, accounts)
	for i, a := range c.accounts {
		c.index[a.AccountID] = i
	}
	for i, a := range c.accounts {
		c.parent[i] = -1
		if a.ParentAccountID == "" {
			continue
		}
		if p, ok := c.index[a.ParentAccountID]; ok {
			c.parent[i] = p
		}
	}
	return c
}

// Len returns the number of accounts in the arena.
func (c *Chart) Len() int { return len(c.accounts) }

// Get returns the account with the given id.
func (c *Chart) Get(id string) (Account, bool) {
	i, ok := c.index[id]
	if !ok {
		return Account{}, false
	}
	return c.accounts[i], true
}

// Ancestors returns the ids from the direct parent up to the root.
func (c *Chart) Ancestors(id string) []string {
	i, ok := c.index[id]
	if !ok {
		return nil
	}
	var out []string
	seen := map[int]bool{i: true}
	for p := c.parent[i]; p >= 0; p = c.parent[p] {
		if seen[p] {
			break
		}
		seen[p] = true
		out = append(out, c.accounts[p].AccountID)
	}
	return out
}

// WouldCreateCycle reports whether making parentID the parent of childID closes a loop.
func (c *Chart) WouldCreateCycle(childID, parentID string) bool {
	if parentID == "" {
		return false
	}
	if childID == parentID {
		return true
	}
	for _, a := range c.Ancestors(parentID) {
		if a == childID {
			return true
		}
	}
	return false
}

// Children returns the direct children of id in arena order.
func (c *Chart) Children(id string) []Account {
	p, ok := c.index[id]
	if !ok {
		return nil
	}
	var out []Account
	for i, parent := range c.parent {
		if parent == p {
			out = append(out, c.accounts[i])
		}
	}
	return out
}

// Roots returns accounts without a parent in the arena.
func (c *Chart) Roots() []Account {
	var out []Account
	for i, parent := range c.parent {
		if parent < 0 {
			out = append(out, c.accounts[i])
		}
	}
	return out
}
