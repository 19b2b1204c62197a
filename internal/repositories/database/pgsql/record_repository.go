package pgsql

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shauritanga/twa-system/internal/apperrors"
	"github.com/shauritanga/twa-system/internal/core/domain"
	portsrepo "github.com/shauritanga/twa-system/internal/core/ports/repositories"
	"github.com/shopspring/decimal"
)

const (
	auditColumns    = `created_at, created_by, last_updated_at, last_updated_by`
	paymentColumns  = `id, member_id, amount, payment_type, payment_date, status, journal_entry_id, ` + auditColumns
	loanColumns     = `id, member_id, amount, interest_rate, term_months, status, disclosed_interest, disbursed_at, repaid_at, disbursement_journal_entry_id, repayment_journal_entry_id, ` + auditColumns
	expenseColumns  = `id, amount, category, description, expense_date, status, journal_entry_id, ` + auditColumns
	penaltyColumns  = `id, member_id, amount, reason, status, paid_at, journal_entry_id, ` + auditColumns
	disasterColumns = `id, member_id, amount, description, status, issued_at, journal_entry_id, ` + auditColumns
	debtColumns     = `id, member_id, amount, nature, description, status, paid_at, journal_entry_id, payment_journal_entry_id, ` + auditColumns
)

// referenceColumns maps a posting (kind, stage) to the table and column that hold its journal entry id.
var referenceColumns = map[domain.PostingKey][2]string{
	{Kind: domain.KindPayment, Stage: domain.StageCreated}:        {"payments", "journal_entry_id"},
	{Kind: domain.KindLoan, Stage: domain.StageDisbursed}:         {"loans", "disbursement_journal_entry_id"},
	{Kind: domain.KindLoan, Stage: domain.StageRepaid}:            {"loans", "repayment_journal_entry_id"},
	{Kind: domain.KindExpense, Stage: domain.StageApproved}:       {"expenses", "journal_entry_id"},
	{Kind: domain.KindPenalty, Stage: domain.StagePaid}:           {"penalties", "journal_entry_id"},
	{Kind: domain.KindDisasterPayment, Stage: domain.StageIssued}: {"disaster_payments", "journal_entry_id"},
	{Kind: domain.KindDebt, Stage: domain.StageCreated}:           {"debts", "journal_entry_id"},
	{Kind: domain.KindDebt, Stage: domain.StagePaid}:              {"debts", "payment_journal_entry_id"},
}

type PgxRecordRepository struct {
	BaseRepository
}

func newPgxRecordRepository(pool *pgxpool.Pool) portsrepo.RecordRepositoryFacade {
	return &PgxRecordRepository{BaseRepository: BaseRepository{Pool: pool}}
}

var _ portsrepo.RecordRepositoryFacade = (*PgxRecordRepository)(nil)

// SetJournalReference updates only the reference column; status and timestamps are untouched.
func (r *PgxRecordRepository) SetJournalReference(ctx context.Context, ref domain.RecordRef, entryID string) error {
	target, ok := referenceColumns[domain.PostingKey{Kind: ref.Kind, Stage: ref.Stage}]
	if !ok {
		return fmt.Errorf("%w: no reference column for %s:%s", apperrors.ErrValidation, ref.Kind, ref.Stage)
	}
	query := fmt.Sprintf(`UPDATE %s SET %s = $2 WHERE id = $1;`, target[0], target[1])
	cmdTag, err := r.DB(ctx).Exec(ctx, query, ref.RecordID, entryID)
	if err != nil {
		return mapPgError(err, fmt.Sprintf("failed to set journal reference on %s %d", ref.Kind, ref.RecordID))
	}
	if cmdTag.RowsAffected() == 0 {
		return apperrors.NewNotFoundError(fmt.Sprintf("%s %d", ref.Kind, ref.RecordID))
	}
	return nil
}

// FindRecordStateForUpdate locks the record row behind ref and returns what its posting must match.
func (r *PgxRecordRepository) FindRecordStateForUpdate(ctx context.Context, ref domain.RecordRef) (*domain.RecordState, error) {
	var (
		state domain.RecordState
		err   error
	)
	switch ref.Kind {
	case domain.KindPayment:
		var p *domain.Payment
		if p, err = r.findPayment(ctx, ref.RecordID, true); err == nil {
			state = p.State()
		}
	case domain.KindLoan:
		var l *domain.Loan
		if l, err = r.findLoan(ctx, ref.RecordID, true); err == nil {
			state = l.State()
		}
	case domain.KindExpense:
		var e *domain.ExpenseRecord
		if e, err = r.findExpense(ctx, ref.RecordID, true); err == nil {
			state = e.State()
		}
	case domain.KindPenalty:
		var p *domain.Penalty
		if p, err = r.findPenalty(ctx, ref.RecordID, true); err == nil {
			state = p.State()
		}
	case domain.KindDisasterPayment:
		var d *domain.DisasterPayment
		if d, err = r.findDisasterPayment(ctx, ref.RecordID, true); err == nil {
			state = d.State()
		}
	case domain.KindDebt:
		var d *domain.Debt
		if d, err = r.findDebt(ctx, ref.RecordID, true); err == nil {
			state = d.State()
		}
	default:
		return nil, fmt.Errorf("%w: unknown record kind %q", apperrors.ErrValidation, ref.Kind)
	}
	if err != nil {
		return nil, err
	}
	return &state, nil
}

func (r *PgxRecordRepository) insertReturningID(ctx context.Context, kind domain.TransactionKind, query string, args ...any) (int64, error) {
	var id int64
	if err := r.DB(ctx).QueryRow(ctx, query, args...).Scan(&id); err != nil {
		return 0, mapPgError(err, fmt.Sprintf("failed to create %s", kind))
	}
	return id, nil
}

func (r *PgxRecordRepository) execUpdate(ctx context.Context, kind domain.TransactionKind, id int64, query string, args ...any) error {
	cmdTag, err := r.DB(ctx).Exec(ctx, query, args...)
	if err != nil {
		return mapPgError(err, fmt.Sprintf("failed to update %s %d", kind, id))
	}
	if cmdTag.RowsAffected() == 0 {
		return apperrors.NewNotFoundError(fmt.Sprintf("%s %d", kind, id))
	}
	return nil
}

func lockClause(forUpdate bool) string {
	if forUpdate {
		return " FOR UPDATE"
	}
	return ""
}

// Payments

func (r *PgxRecordRepository) CreatePayment(ctx context.Context, p *domain.Payment) error {
	id, err := r.insertReturningID(ctx, domain.KindPayment, `
		INSERT INTO payments (member_id, amount, payment_type, payment_date, status, `+auditColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id;`,
		p.MemberID, p.Amount, p.PaymentType, p.PaymentDate, string(p.Status),
		p.CreatedAt, p.CreatedBy, p.LastUpdatedAt, p.LastUpdatedBy)
	if err != nil {
		return err
	}
	p.ID = id
	return nil
}

func (r *PgxRecordRepository) FindPaymentByID(ctx context.Context, id int64) (*domain.Payment, error) {
	return r.findPayment(ctx, id, false)
}

func (r *PgxRecordRepository) findPayment(ctx context.Context, id int64, forUpdate bool) (*domain.Payment, error) {
	var (
		p      domain.Payment
		status string
	)
	err := r.DB(ctx).QueryRow(ctx, `SELECT `+paymentColumns+` FROM payments WHERE id = $1`+lockClause(forUpdate)+`;`, id).Scan(
		&p.ID, &p.MemberID, &p.Amount, &p.PaymentType, &p.PaymentDate, &status, &p.JournalEntryID,
		&p.CreatedAt, &p.CreatedBy, &p.LastUpdatedAt, &p.LastUpdatedBy)
	if err != nil {
		return nil, mapPgError(err, fmt.Sprintf("payment %d", id))
	}
	p.Status = domain.RecordStatus(status)
	return &p, nil
}

// Loans

func (r *PgxRecordRepository) CreateLoan(ctx context.Context, l *domain.Loan) error {
	id, err := r.insertReturningID(ctx, domain.KindLoan, `
		INSERT INTO loans (member_id, amount, interest_rate, term_months, status, disclosed_interest, `+auditColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id;`,
		l.MemberID, l.Amount, l.InterestRate, l.TermMonths, string(l.Status), nullDecimal(l.DisclosedInterest),
		l.CreatedAt, l.CreatedBy, l.LastUpdatedAt, l.LastUpdatedBy)
	if err != nil {
		return err
	}
	l.ID = id
	return nil
}

func (r *PgxRecordRepository) findLoan(ctx context.Context, id int64, forUpdate bool) (*domain.Loan, error) {
	var (
		l         domain.Loan
		status    string
		disclosed decimal.NullDecimal
	)
	err := r.DB(ctx).QueryRow(ctx, `SELECT `+loanColumns+` FROM loans WHERE id = $1`+lockClause(forUpdate), id).Scan(
		&l.ID, &l.MemberID, &l.Amount, &l.InterestRate, &l.TermMonths, &status, &disclosed,
		&l.DisbursedAt, &l.RepaidAt, &l.DisbursementJournalEntryID, &l.RepaymentJournalEntryID,
		&l.CreatedAt, &l.CreatedBy, &l.LastUpdatedAt, &l.LastUpdatedBy)
	if err != nil {
		return nil, mapPgError(err, fmt.Sprintf("loan %d", id))
	}
	l.Status = domain.RecordStatus(status)
	if disclosed.Valid {
		l.DisclosedInterest = &disclosed.Decimal
	}
	return &l, nil
}

func (r *PgxRecordRepository) FindLoanByID(ctx context.Context, id int64) (*domain.Loan, error) {
	return r.findLoan(ctx, id, false)
}

func (r *PgxRecordRepository) FindLoanForUpdate(ctx context.Context, id int64) (*domain.Loan, error) {
	if _, err := r.requireTx(ctx, "FindLoanForUpdate"); err != nil {
		return nil, err
	}
	return r.findLoan(ctx, id, true)
}

func (r *PgxRecordRepository) UpdateLoan(ctx context.Context, l domain.Loan) error {
	return r.execUpdate(ctx, domain.KindLoan, l.ID, `
		UPDATE loans
		SET status = $2, disclosed_interest = $3, disbursed_at = $4, repaid_at = $5, last_updated_at = $6, last_updated_by = $7
		WHERE id = $1;`,
		l.ID, string(l.Status), nullDecimal(l.DisclosedInterest), l.DisbursedAt, l.RepaidAt, l.LastUpdatedAt, l.LastUpdatedBy)
}

// Expenses

func (r *PgxRecordRepository) CreateExpense(ctx context.Context, e *domain.ExpenseRecord) error {
	id, err := r.insertReturningID(ctx, domain.KindExpense, `
		INSERT INTO expenses (amount, category, description, expense_date, status, `+auditColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id;`,
		e.Amount, e.Category, e.Description, e.ExpenseDate, string(e.Status),
		e.CreatedAt, e.CreatedBy, e.LastUpdatedAt, e.LastUpdatedBy)
	if err != nil {
		return err
	}
	e.ID = id
	return nil
}

func (r *PgxRecordRepository) findExpense(ctx context.Context, id int64, forUpdate bool) (*domain.ExpenseRecord, error) {
	var (
		e      domain.ExpenseRecord
		status string
	)
	err := r.DB(ctx).QueryRow(ctx, `SELECT `+expenseColumns+` FROM expenses WHERE id = $1`+lockClause(forUpdate), id).Scan(
		&e.ID, &e.Amount, &e.Category, &e.Description, &e.ExpenseDate, &status, &e.JournalEntryID,
		&e.CreatedAt, &e.CreatedBy, &e.LastUpdatedAt, &e.LastUpdatedBy)
	if err != nil {
		return nil, mapPgError(err, fmt.Sprintf("expense %d", id))
	}
	e.Status = domain.RecordStatus(status)
	return &e, nil
}

func (r *PgxRecordRepository) FindExpenseByID(ctx context.Context, id int64) (*domain.ExpenseRecord, error) {
	return r.findExpense(ctx, id, false)
}

func (r *PgxRecordRepository) FindExpenseForUpdate(ctx context.Context, id int64) (*domain.ExpenseRecord, error) {
	if _, err := r.requireTx(ctx, "FindExpenseForUpdate"); err != nil {
		return nil, err
	}
	return r.findExpense(ctx, id, true)
}

func (r *PgxRecordRepository) UpdateExpense(ctx context.Context, e domain.ExpenseRecord) error {
	return r.execUpdate(ctx, domain.KindExpense, e.ID, `
		UPDATE expenses SET status = $2, last_updated_at = $3, last_updated_by = $4 WHERE id = $1;`,
		e.ID, string(e.Status), e.LastUpdatedAt, e.LastUpdatedBy)
}

// Penalties

func (r *PgxRecordRepository) CreatePenalty(ctx context.Context, p *domain.Penalty) error {
	id, err := r.insertReturningID(ctx, domain.KindPenalty, `
		INSERT INTO penalties (member_id, amount, reason, status, `+auditColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id;`,
		p.MemberID, p.Amount, p.Reason, string(p.Status),
		p.CreatedAt, p.CreatedBy, p.LastUpdatedAt, p.LastUpdatedBy)
	if err != nil {
		return err
	}
	p.ID = id
	return nil
}

func (r *PgxRecordRepository) findPenalty(ctx context.Context, id int64, forUpdate bool) (*domain.Penalty, error) {
	var (
		p      domain.Penalty
		status string
	)
	err := r.DB(ctx).QueryRow(ctx, `SELECT `+penaltyColumns+` FROM penalties WHERE id = $1`+lockClause(forUpdate), id).Scan(
		&p.ID, &p.MemberID, &p.Amount, &p.Reason, &status, &p.PaidAt, &p.JournalEntryID,
		&p.CreatedAt, &p.CreatedBy, &p.LastUpdatedAt, &p.LastUpdatedBy)
	if err != nil {
		return nil, mapPgError(err, fmt.Sprintf("penalty %d", id))
	}
	p.Status = domain.RecordStatus(status)
	return &p, nil
}

func (r *PgxRecordRepository) FindPenaltyByID(ctx context.Context, id int64) (*domain.Penalty, error) {
	return r.findPenalty(ctx, id, false)
}

func (r *PgxRecordRepository) FindPenaltyForUpdate(ctx context.Context, id int64) (*domain.Penalty, error) {
	if _, err := r.requireTx(ctx, "FindPenaltyForUpdate"); err != nil {
		return nil, err
	}
	return r.findPenalty(ctx, id, true)
}

func (r *PgxRecordRepository) UpdatePenalty(ctx context.Context, p domain.Penalty) error {
	return r.execUpdate(ctx, domain.KindPenalty, p.ID, `
		UPDATE penalties SET status = $2, paid_at = $3, last_updated_at = $4, last_updated_by = $5 WHERE id = $1;`,
		p.ID, string(p.Status), p.PaidAt, p.LastUpdatedAt, p.LastUpdatedBy)
}

// Disaster payments

func (r *PgxRecordRepository) CreateDisasterPayment(ctx context.Context, d *domain.DisasterPayment) error {
	id, err := r.insertReturningID(ctx, domain.KindDisasterPayment, `
		INSERT INTO disaster_payments (member_id, amount, description, status, `+auditColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id;`,
		d.MemberID, d.Amount, d.Description, string(d.Status),
		d.CreatedAt, d.CreatedBy, d.LastUpdatedAt, d.LastUpdatedBy)
	if err != nil {
		return err
	}
	d.ID = id
	return nil
}

func (r *PgxRecordRepository) findDisasterPayment(ctx context.Context, id int64, forUpdate bool) (*domain.DisasterPayment, error) {
	var (
		d      domain.DisasterPayment
		status string
	)
	err := r.DB(ctx).QueryRow(ctx, `SELECT `+disasterColumns+` FROM disaster_payments WHERE id = $1`+lockClause(forUpdate), id).Scan(
		&d.ID, &d.MemberID, &d.Amount, &d.Description, &status, &d.IssuedAt, &d.JournalEntryID,
		&d.CreatedAt, &d.CreatedBy, &d.LastUpdatedAt, &d.LastUpdatedBy)
	if err != nil {
		return nil, mapPgError(err, fmt.Sprintf("disaster payment %d", id))
	}
	d.Status = domain.RecordStatus(status)
	return &d, nil
}

func (r *PgxRecordRepository) FindDisasterPaymentByID(ctx context.Context, id int64) (*domain.DisasterPayment, error) {
	return r.findDisasterPayment(ctx, id, false)
}

func (r *PgxRecordRepository) FindDisasterPaymentForUpdate(ctx context.Context, id int64) (*domain.DisasterPayment, error) {
	if _, err := r.requireTx(ctx, "FindDisasterPaymentForUpdate"); err != nil {
		return nil, err
	}
	return r.findDisasterPayment(ctx, id, true)
}

func (r *PgxRecordRepository) UpdateDisasterPayment(ctx context.Context, d domain.DisasterPayment) error {
	return r.execUpdate(ctx, domain.KindDisasterPayment, d.ID, `
		UPDATE disaster_payments SET status = $2, issued_at = $3, last_updated_at = $4, last_updated_by = $5 WHERE id = $1;`,
		d.ID, string(d.Status), d.IssuedAt, d.LastUpdatedAt, d.LastUpdatedBy)
}

// Debts

func (r *PgxRecordRepository) CreateDebt(ctx context.Context, d *domain.Debt) error {
	id, err := r.insertReturningID(ctx, domain.KindDebt, `
		INSERT INTO debts (member_id, amount, nature, description, status, `+auditColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id;`,
		d.MemberID, d.Amount, d.Nature, d.Description, string(d.Status),
		d.CreatedAt, d.CreatedBy, d.LastUpdatedAt, d.LastUpdatedBy)
	if err != nil {
		return err
	}
	d.ID = id
	return nil
}

func (r *PgxRecordRepository) findDebt(ctx context.Context, id int64, forUpdate bool) (*domain.Debt, error) {
	var (
		d      domain.Debt
		status string
	)
	err := r.DB(ctx).QueryRow(ctx, `SELECT `+debtColumns+` FROM debts WHERE id = $1`+lockClause(forUpdate), id).Scan(
		&d.ID, &d.MemberID, &d.Amount, &d.Nature, &d.Description, &status, &d.PaidAt,
		&d.JournalEntryID, &d.PaymentJournalEntryID,
		&d.CreatedAt, &d.CreatedBy, &d.LastUpdatedAt, &d.LastUpdatedBy)
	if err != nil {
		return nil, mapPgError(err, fmt.Sprintf("debt %d", id))
	}
	d.Status = domain.RecordStatus(status)
	return &d, nil
}

func (r *PgxRecordRepository) FindDebtByID(ctx context.Context, id int64) (*domain.Debt, error) {
	return r.findDebt(ctx, id, false)
}

func (r *PgxRecordRepository) FindDebtForUpdate(ctx context.Context, id int64) (*domain.Debt, error) {
	if _, err := r.requireTx(ctx, "FindDebtForUpdate"); err != nil {
		return nil, err
	}
	return r.findDebt(ctx, id, true)
}

func (r *PgxRecordRepository) UpdateDebt(ctx context.Context, d domain.Debt) error {
	return r.execUpdate(ctx, domain.KindDebt, d.ID, `
		UPDATE debts SET status = $2, paid_at = $3, last_updated_at = $4, last_updated_by = $5 WHERE id = $1;`,
		d.ID, string(d.Status), d.PaidAt, d.LastUpdatedAt, d.LastUpdatedBy)
}

func nullDecimal(d *decimal.Decimal) decimal.NullDecimal {
	if d == nil {
		return decimal.NullDecimal{}
	}
	return decimal.NullDecimal{Decimal: *d, Valid: true}
}
