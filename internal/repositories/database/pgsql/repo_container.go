package pgsql

import (
	portsrepo "github.com/shauritanga/twa-system/internal/core/ports/repositories"
	"github.com/jackc/pgx/v5/pgxpool"
)

func NewRepositoryProvider(dbPool *pgxpool.Pool) portsrepo.RepositoryProvider {
	return portsrepo.RepositoryProvider{
		TxManager:     newTxManager(dbPool),
		AccountRepo:   newPgxAccountRepository(dbPool),
		JournalRepo:   newPgxJournalRepository(dbPool),
		PostingRepo:   newPgxPostingRepository(dbPool),
		RecordRepo:    newPgxRecordRepository(dbPool),
		ReportingRepo: newReportingRepository(dbPool),
	}
}
