package pgsql

import (
	"context"
	"fmt"
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
	"github.com/shauritanga/twa-system/internal/utils/pagination"
	"github.com/shopspring/decimal"
)

const entryColumns = `entry_id, entry_number, entry_date, reference, description, status,
	total_debit, total_credit, posted_by, posted_at, reversed_by, reversed_at, reversal_reason,
	reversal_of_entry_id, reversal_entry_id, created_at, created_by, last_updated_at, last_updated_by`

const lineColumns = `line_id, entry_id, account_id, description, debit, credit, line_order`

const defaultEntryLimit = 20

type PgxJournalRepository struct {
	BaseRepository
}

// newPgxJournalRepository creates a new repository for journal entries and their lines.
func newPgxJournalRepository(pool *pgxpool.Pool) portsrepo.JournalRepositoryFacade {
	return &PgxJournalRepository{BaseRepository: BaseRepository{Pool: pool}}
}

// Ensure PgxJournalRepository implements portsrepo.JournalRepositoryFacade
var _ portsrepo.JournalRepositoryFacade = (*PgxJournalRepository)(nil)

func scanEntry(row rowScanner) (domain.JournalEntry, error) {
	var m models.JournalEntry
	err := row.Scan(
		&m.EntryID,
		&m.EntryNumber,
		&m.EntryDate,
		&m.Reference,
		&m.Description,
		&m.Status,
		&m.TotalDebit,
		&m.TotalCredit,
		&m.PostedBy,
		&m.PostedAt,
		&m.ReversedBy,
		&m.ReversedAt,
		&m.ReversalReason,
		&m.ReversalOfEntryID,
		&m.ReversalEntryID,
		&m.CreatedAt,
		&m.CreatedBy,
		&m.LastUpdatedAt,
		&m.LastUpdatedBy,
	)
	if err != nil {
		return domain.JournalEntry{}, err
	}
	return mapping.ToDomainJournalEntry(m), nil
}

func (r *PgxJournalRepository) NextEntryNumber(ctx context.Context) (int64, error) {
	var seq int64
	if err := r.DB(ctx).QueryRow(ctx, `SELECT nextval('journal_entry_number_seq');`).Scan(&seq); err != nil {
		return 0, mapPgError(err, "failed to draw journal entry number")
	}
	return seq, nil
}

func queueLineInsert(batch *pgx.Batch, line domain.JournalEntryLine) {
	m := mapping.ToModelJournalLine(line)
	batch.Queue(`
		INSERT INTO journal_entry_lines (`+lineColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7);`,
		m.LineID, m.EntryID, m.AccountID, m.Description, m.Debit, m.Credit, m.LineOrder,
	)
}

// SaveEntry inserts the header and all lines in one batch.
func (r *PgxJournalRepository) SaveEntry(ctx context.Context, entry domain.JournalEntry) error {
	m := mapping.ToModelJournalEntry(entry)
	batch := &pgx.Batch{}
	batch.Queue(`
		INSERT INTO journal_entries (`+entryColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19);`,
		m.EntryID,
		m.EntryNumber,
		m.EntryDate,
		m.Reference,
		m.Description,
		m.Status,
		m.TotalDebit,
		m.TotalCredit,
		m.PostedBy,
		m.PostedAt,
		m.ReversedBy,
		m.ReversedAt,
		m.ReversalReason,
		m.ReversalOfEntryID,
		m.ReversalEntryID,
		m.CreatedAt,
		m.CreatedBy,
		m.LastUpdatedAt,
		m.LastUpdatedBy,
	)
	for _, l := range entry.Lines {
		queueLineInsert(batch, l)
	}

	br := r.DB(ctx).SendBatch(ctx, batch)
	var batchErr error
	for i := 0; i < batch.Len(); i++ {
		if _, err := br.Exec(); err != nil && batchErr == nil {
			batchErr = mapPgError(err, "failed to insert journal entry "+m.EntryNumber)
		}
	}
	if err := br.Close(); err != nil && batchErr == nil {
		batchErr = mapPgError(err, "failed to close journal insert batch")
	}
	return batchErr
}

func (r *PgxJournalRepository) AddLine(ctx context.Context, line domain.JournalEntryLine) error {
	m := mapping.ToModelJournalLine(line)
	_, err := r.DB(ctx).Exec(ctx, `
		INSERT INTO journal_entry_lines (`+lineColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7);`,
		m.LineID, m.EntryID, m.AccountID, m.Description, m.Debit, m.Credit, m.LineOrder,
	)
	if err != nil {
		return mapPgError(err, "failed to add line to journal entry "+line.EntryID)
	}
	return nil
}

func (r *PgxJournalRepository) findEntry(ctx context.Context, db dbtx, entryID string, forUpdate bool) (*domain.JournalEntry, error) {
	query := `SELECT ` + entryColumns + ` FROM journal_entries WHERE entry_id = $1`
	if forUpdate {
		query += ` FOR UPDATE`
	}
	entry, err := scanEntry(db.QueryRow(ctx, query, entryID))
	if err != nil {
		return nil, mapPgError(err, "journal entry "+entryID)
	}
	lines, err := r.findLines(ctx, db, []string{entryID})
	if err != nil {
		return nil, err
	}
	entry.Lines = lines[entryID]
	return &entry, nil
}

// FindEntryByID retrieves an entry with its lines in line order.
func (r *PgxJournalRepository) FindEntryByID(ctx context.Context, entryID string) (*domain.JournalEntry, error) {
	return r.findEntry(ctx, r.DB(ctx), entryID, false)
}

func (r *PgxJournalRepository) FindEntryByIDForUpdate(ctx context.Context, entryID string) (*domain.JournalEntry, error) {
	tx, err := r.requireTx(ctx, "FindEntryByIDForUpdate")
	if err != nil {
		return nil, err
	}
	return r.findEntry(ctx, tx, entryID, true)
}

// findLines loads the lines of several entries keyed by entry id.
func (r *PgxJournalRepository) findLines(ctx context.Context, db dbtx, entryIDs []string) (map[string][]domain.JournalEntryLine, error) {
	out := make(map[string][]domain.JournalEntryLine, len(entryIDs))
	if len(entryIDs) == 0 {
		return out, nil
	}
	query := `
		SELECT ` + lineColumns + `
		FROM journal_entry_lines
		WHERE entry_id = ANY($1)
		ORDER BY entry_id, line_order;
	`
	rows, err := db.Query(ctx, query, entryIDs)
	if err != nil {
		return nil, mapPgError(err, "failed to query journal lines")
	}
	defer rows.Close()
	for rows.Next() {
		var m models.JournalEntryLine
		if err := rows.Scan(&m.LineID, &m.EntryID, &m.AccountID, &m.Description, &m.Debit, &m.Credit, &m.LineOrder); err != nil {
			return nil, mapPgError(err, "failed to scan journal line")
		}
		out[m.EntryID] = append(out[m.EntryID], mapping.ToDomainJournalLine(m))
	}
	if err := rows.Err(); err != nil {
		return nil, mapPgError(err, "error iterating journal lines")
	}
	return out, nil
}

// buildListEntriesQuery renders the filtered, cursor-paginated entry query. It
// fetches one row more than the page size to detect a next page.
func buildListEntriesQuery(filter portsrepo.EntryFilter, limit int) (string, []any, error) {
	var (
		conds []string
		args  []any
	)
	arg := func(v any) string {
		args = append(args, v)
		return "$" + strconv.Itoa(len(args))
	}

	if filter.Status != nil {
		conds = append(conds, "e.status = "+arg(string(*filter.Status)))
	}
	if filter.From != nil {
		conds = append(conds, "e.entry_date >= "+arg(*filter.From))
	}
	if filter.To != nil {
		conds = append(conds, "e.entry_date <= "+arg(*filter.To))
	}
	if filter.Reference != "" {
		conds = append(conds, "e.reference ILIKE "+arg("%"+filter.Reference+"%"))
	}
	if filter.AccountID != "" {
		conds = append(conds, "EXISTS (SELECT 1 FROM journal_entry_lines l WHERE l.entry_id = e.entry_id AND l.account_id = "+arg(filter.AccountID)+")")
	}
	if filter.NextToken != nil && *filter.NextToken != "" {
		cursor, err := pagination.DecodeToken(*filter.NextToken)
		if err != nil {
			return "", nil, apperrors.NewAppError(400, "invalid nextToken", fmt.Errorf("%w: %v", apperrors.ErrValidation, err))
		}
		// tuple comparison keeps the order stable across equal dates
		conds = append(conds, fmt.Sprintf("(e.entry_date, e.created_at, e.entry_id) < (%s, %s, %s)",
			arg(cursor.Date), arg(cursor.CreatedAt), arg(cursor.ID)))
	}

	query := `SELECT ` + prefixColumns("e.", entryColumns) + ` FROM journal_entries e`
	if len(conds) > 0 {
		query += ` WHERE ` + strings.Join(conds, " AND ")
	}
	query += ` ORDER BY e.entry_date DESC, e.created_at DESC, e.entry_id DESC LIMIT ` + arg(limit+1) + `;`
	return query, args, nil
}

func prefixColumns(prefix, columns string) string {
	parts := strings.Split(columns, ",")
	for i, p := range parts {
		parts[i] = prefix + strings.TrimSpace(p)
	}
	return strings.Join(parts, ", ")
}

// ListEntries returns entries newest first with a token for the next page.
func (r *PgxJournalRepository) ListEntries(ctx context.Context, filter portsrepo.EntryFilter) ([]domain.JournalEntry, *string, error) {
	limit := filter.Limit
	if limit <= 0 {
		limit = defaultEntryLimit
	}
	query, args, err := buildListEntriesQuery(filter, limit)
	if err != nil {
		return nil, nil, err
	}

	db := r.DB(ctx)
	rows, err := db.Query(ctx, query, args...)
	if err != nil {
		return nil, nil, mapPgError(err, "failed to query journal entries")
	}
	entries := make([]domain.JournalEntry, 0, limit+1)
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			rows.Close()
			return nil, nil, mapPgError(err, "failed to scan journal entry row")
		}
		entries = append(entries, e)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, nil, mapPgError(err, "error iterating journal entry rows")
	}

	var nextToken *string
	if len(entries) > limit {
		entries = entries[:limit]
		last := entries[limit-1]
		token := pagination.EncodeToken(last.EntryDate, last.CreatedAt, last.EntryID)
		nextToken = &token
	}

	ids := make([]string, len(entries))
	for i, e := range entries {
		ids[i] = e.EntryID
	}
	lines, err := r.findLines(ctx, db, ids)
	if err != nil {
		return nil, nil, err
	}
	for i := range entries {
		entries[i].Lines = lines[entries[i].EntryID]
	}
	return entries, nextToken, nil
}

func (r *PgxJournalRepository) execEntryUpdate(ctx context.Context, entryID, msg, query string, args ...any) error {
	cmdTag, err := r.DB(ctx).Exec(ctx, query, append([]any{entryID}, args...)...)
	if err != nil {
		return mapPgError(err, msg+" "+entryID)
	}
	if cmdTag.RowsAffected() == 0 {
		return apperrors.NewNotFoundError("journal entry " + entryID)
	}
	return nil
}

func (r *PgxJournalRepository) UpdateEntryTotals(ctx context.Context, entryID string, totalDebit, totalCredit decimal.Decimal, userID string, now time.Time) error {
	return r.execEntryUpdate(ctx, entryID, "failed to update totals of journal entry", `
		UPDATE journal_entries
		SET total_debit = $2, total_credit = $3, last_updated_at = $4, last_updated_by = $5
		WHERE entry_id = $1;`,
		totalDebit, totalCredit, now, userID)
}

func (r *PgxJournalRepository) MarkPosted(ctx context.Context, entryID, postedBy string, postedAt time.Time) error {
	return r.execEntryUpdate(ctx, entryID, "failed to mark journal entry posted", `
		UPDATE journal_entries
		SET status = $2, posted_by = $3, posted_at = $4, last_updated_at = $4, last_updated_by = $3
		WHERE entry_id = $1;`,
		string(domain.Posted), postedBy, postedAt)
}

func (r *PgxJournalRepository) MarkReversed(ctx context.Context, entryID, reversedBy string, reversedAt time.Time, reason, reversalEntryID string) error {
	return r.execEntryUpdate(ctx, entryID, "failed to mark journal entry reversed", `
		UPDATE journal_entries
		SET status = $2, reversed_by = $3, reversed_at = $4, reversal_reason = $5, reversal_entry_id = $6,
		    last_updated_at = $4, last_updated_by = $3
		WHERE entry_id = $1;`,
		string(domain.Reversed), reversedBy, reversedAt, reason, reversalEntryID)
}
