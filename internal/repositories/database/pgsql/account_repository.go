package pgsql

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shauritanga/twa-system/internal/apperrors"
	"github.com/shauritanga/twa-system/internal/core/domain"
	portsrepo "github.com/shauritanga/twa-system/internal/core/ports/repositories"
	"github.com/shauritanga/twa-system/internal/models"
	"github.com/shauritanga/twa-system/internal/utils/mapping"
	"github.com/shopspring/decimal"
)

const accountColumns = `account_id, code, name, account_type, subtype, parent_account_id, normal_balance,
	is_system_account, is_active, opening_balance, current_balance, deleted_at,
	created_at, created_by, last_updated_at, last_updated_by`

type PgxAccountRepository struct {
	BaseRepository
}

// newPgxAccountRepository creates a new repository for account data.
func newPgxAccountRepository(pool *pgxpool.Pool) portsrepo.AccountRepositoryFacade {
	return &PgxAccountRepository{BaseRepository: BaseRepository{Pool: pool}}
}

// Ensure PgxAccountRepository implements portsrepo.AccountRepositoryFacade
var _ portsrepo.AccountRepositoryFacade = (*PgxAccountRepository)(nil)

func scanAccount(row rowScanner) (domain.Account, error) {
	var m models.Account
	err := row.Scan(
		&m.AccountID,
		&m.Code,
		&m.Name,
		&m.AccountType,
		&m.Subtype,
		&m.ParentAccountID,
		&m.NormalBalance,
		&m.IsSystemAccount,
		&m.IsActive,
		&m.OpeningBalance,
		&m.CurrentBalance,
		&m.DeletedAt,
		&m.CreatedAt,
		&m.CreatedBy,
		&m.LastUpdatedAt,
		&m.LastUpdatedBy,
	)
	if err != nil {
		return domain.Account{}, err
	}
	return mapping.ToDomainAccount(m), nil
}

func collectAccounts(rows pgx.Rows, msg string) ([]domain.Account, error) {
	defer rows.Close()
	var accounts []domain.Account
	for rows.Next() {
		a, err := scanAccount(rows)
		if err != nil {
			return nil, mapPgError(err, "failed to scan account row "+msg)
		}
		accounts = append(accounts, a)
	}
	if err := rows.Err(); err != nil {
		return nil, mapPgError(err, "error iterating account rows "+msg)
	}
	return accounts, nil
}

// SaveAccount inserts a new account.
func (r *PgxAccountRepository) SaveAccount(ctx context.Context, account domain.Account) error {
	m := mapping.ToModelAccount(account)
	query := `
		INSERT INTO accounts (` + accountColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16);
	`
	_, err := r.DB(ctx).Exec(ctx, query,
		m.AccountID,
		m.Code,
		m.Name,
		m.AccountType,
		m.Subtype,
		m.ParentAccountID,
		m.NormalBalance,
		m.IsSystemAccount,
		m.IsActive,
		m.OpeningBalance,
		m.CurrentBalance,
		m.DeletedAt,
		m.CreatedAt,
		m.CreatedBy,
		m.LastUpdatedAt,
		m.LastUpdatedBy,
	)
	if err != nil {
		return mapPgError(err, fmt.Sprintf("failed to save account %s (%s)", m.AccountID, m.Code))
	}
	return nil
}

// FindAccountByID retrieves a non-deleted account by its ID.
func (r *PgxAccountRepository) FindAccountByID(ctx context.Context, accountID string) (*domain.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE account_id = $1 AND deleted_at IS NULL;`
	a, err := scanAccount(r.DB(ctx).QueryRow(ctx, query, accountID))
	if err != nil {
		return nil, mapPgError(err, "account "+accountID)
	}
	return &a, nil
}

// FindAccountByCode retrieves a non-deleted account by its chart code.
func (r *PgxAccountRepository) FindAccountByCode(ctx context.Context, code string) (*domain.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE code = $1 AND deleted_at IS NULL;`
	a, err := scanAccount(r.DB(ctx).QueryRow(ctx, query, code))
	if err != nil {
		return nil, mapPgError(err, "account with code "+code)
	}
	return &a, nil
}

func (r *PgxAccountRepository) FindAccountsByCodes(ctx context.Context, codes []string) (map[string]domain.Account, error) {
	if len(codes) == 0 {
		return map[string]domain.Account{}, nil
	}
	query := `
		SELECT ` + accountColumns + `
		FROM accounts
		WHERE code = ANY($1) AND is_active = TRUE AND deleted_at IS NULL;
	`
	rows, err := r.DB(ctx).Query(ctx, query, codes)
	if err != nil {
		return nil, mapPgError(err, "failed to query accounts by codes")
	}
	accounts, err := collectAccounts(rows, "by codes")
	if err != nil {
		return nil, err
	}
	byCode := make(map[string]domain.Account, len(accounts))
	for _, a := range accounts {
		byCode[a.Code] = a
	}
	return byCode, nil
}

// FindAccountsByIDs retrieves multiple accounts by their IDs.
func (r *PgxAccountRepository) FindAccountsByIDs(ctx context.Context, accountIDs []string) (map[string]domain.Account, error) {
	if len(accountIDs) == 0 {
		return map[string]domain.Account{}, nil
	}
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE account_id = ANY($1);`
	rows, err := r.DB(ctx).Query(ctx, query, accountIDs)
	if err != nil {
		return nil, mapPgError(err, "failed to query accounts by IDs")
	}
	accounts, err := collectAccounts(rows, "during batch fetch")
	if err != nil {
		return nil, err
	}
	// missing ids are simply absent; the caller decides whether that is an error
	byID := make(map[string]domain.Account, len(accounts))
	for _, a := range accounts {
		byID[a.AccountID] = a
	}
	return byID, nil
}

// FindAccountsByIDsForUpdate locks the rows in ascending id order. Must be called within a transaction.
func (r *PgxAccountRepository) FindAccountsByIDsForUpdate(ctx context.Context, accountIDs []string) (map[string]domain.Account, error) {
	tx, err := r.requireTx(ctx, "FindAccountsByIDsForUpdate")
	if err != nil {
		return nil, err
	}
	if len(accountIDs) == 0 {
		return map[string]domain.Account{}, nil
	}
	query := `
		SELECT ` + accountColumns + `
		FROM accounts
		WHERE account_id = ANY($1)
		ORDER BY account_id
		FOR UPDATE;
	`
	rows, err := tx.Query(ctx, query, accountIDs)
	if err != nil {
		return nil, mapPgError(err, "failed to query accounts by IDs for update")
	}
	accounts, err := collectAccounts(rows, "under lock")
	if err != nil {
		return nil, err
	}
	byID := make(map[string]domain.Account, len(accounts))
	for _, a := range accounts {
		byID[a.AccountID] = a
	}
	if len(byID) != len(accountIDs) {
		slog.WarnContext(ctx, "Some accounts requested for update lock were not found",
			slog.Int("requested", len(accountIDs)), slog.Int("found", len(byID)))
	}
	return byID, nil
}

// ListAccounts retrieves non-deleted accounts ordered by code.
func (r *PgxAccountRepository) ListAccounts(ctx context.Context, filter portsrepo.AccountFilter) ([]domain.Account, error) {
	conds := []string{"deleted_at IS NULL"}
	var args []any
	if !filter.IncludeInactive {
		conds = append(conds, "is_active = TRUE")
	}
	if filter.Type != nil {
		args = append(args, string(*filter.Type))
		conds = append(conds, "account_type = $"+strconv.Itoa(len(args)))
	}
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE ` + strings.Join(conds, " AND ") + ` ORDER BY code;`

	rows, err := r.DB(ctx).Query(ctx, query, args...)
	if err != nil {
		return nil, mapPgError(err, "failed to list accounts")
	}
	accounts, err := collectAccounts(rows, "while listing")
	if err != nil {
		return nil, err
	}
	if accounts == nil {
		accounts = []domain.Account{}
	}
	return accounts, nil
}

func (r *PgxAccountRepository) AccountHasLines(ctx context.Context, accountID string) (bool, error) {
	var exists bool
	query := `SELECT EXISTS (SELECT 1 FROM journal_entry_lines WHERE account_id = $1);`
	if err := r.DB(ctx).QueryRow(ctx, query, accountID).Scan(&exists); err != nil {
		return false, mapPgError(err, "failed to check journal lines for account "+accountID)
	}
	return exists, nil
}

func (r *PgxAccountRepository) UpdateAccountParent(ctx context.Context, accountID, parentID, userID string, now time.Time) error {
	var parent *string
	if parentID != "" {
		parent = &parentID
	}
	query := `
		UPDATE accounts
		SET parent_account_id = $2, last_updated_at = $3, last_updated_by = $4
		WHERE account_id = $1 AND deleted_at IS NULL;
	`
	cmdTag, err := r.DB(ctx).Exec(ctx, query, accountID, parent, now, userID)
	if err != nil {
		return mapPgError(err, "failed to update parent of account "+accountID)
	}
	if cmdTag.RowsAffected() == 0 {
		return apperrors.NewNotFoundError("account " + accountID)
	}
	return nil
}

// SoftDeleteAccount stamps deleted_at and marks the account inactive.
func (r *PgxAccountRepository) SoftDeleteAccount(ctx context.Context, accountID, userID string, now time.Time) error {
	query := `
		UPDATE accounts
		SET deleted_at = $2, is_active = FALSE, last_updated_at = $2, last_updated_by = $3
		WHERE account_id = $1 AND deleted_at IS NULL;
	`
	cmdTag, err := r.DB(ctx).Exec(ctx, query, accountID, now, userID)
	if err != nil {
		return mapPgError(err, "failed to delete account "+accountID)
	}
	if cmdTag.RowsAffected() == 0 {
		return apperrors.NewNotFoundError("account " + accountID)
	}
	return nil
}

// UpdateAccountBalances writes new balances for multiple accounts within a transaction.
func (r *PgxAccountRepository) UpdateAccountBalances(ctx context.Context, balances map[string]decimal.Decimal, userID string, now time.Time) error {
	if len(balances) == 0 {
		return nil
	}
	query := `
		UPDATE accounts
		SET current_balance = $2, last_updated_at = $3, last_updated_by = $4
		WHERE account_id = $1;
	`
	batch := &pgx.Batch{}
	accountIDs := make([]string, 0, len(balances))
	for accountID, balance := range balances {
		batch.Queue(query, accountID, balance, now, userID)
		accountIDs = append(accountIDs, accountID)
	}

	br := r.DB(ctx).SendBatch(ctx, batch)
	var batchErr error
	for i := 0; i < batch.Len(); i++ {
		ct, err := br.Exec()
		if err != nil {
			if batchErr == nil {
				batchErr = mapPgError(err, "failed to update balance for account "+accountIDs[i])
			}
		} else if ct.RowsAffected() == 0 && batchErr == nil {
			batchErr = apperrors.NewNotFoundError("account " + accountIDs[i])
		}
	}
	if err := br.Close(); err != nil && batchErr == nil {
		batchErr = mapPgError(err, "failed to close balance update batch")
	}
	return batchErr
}
