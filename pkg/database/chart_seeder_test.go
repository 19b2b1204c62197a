package database_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/shauritanga/twa-system/internal/core/domain"
	"github.com/shauritanga/twa-system/pkg/database"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSeedChart(t *testing.T) {
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

	t.Run("inserts roots before children", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		chart := []domain.ChartEntry{
			{Code: domain.CodeAdministrativeExpenses, Name: "Administrative Expenses", Type: domain.Expense, ParentCode: domain.CodeGeneralExpenses},
			{Code: domain.CodeGeneralExpenses, Name: "General Expenses", Type: domain.Expense, IsSystem: true},
		}

		mock.ExpectBegin()
		mock.ExpectExec("INSERT INTO accounts").
			WithArgs(sqlmock.AnyArg(), domain.CodeGeneralExpenses, "General Expenses", "expense", "", nil, "debit", true, now, "system").
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectExec("INSERT INTO accounts").
			WithArgs(sqlmock.AnyArg(), domain.CodeAdministrativeExpenses, "Administrative Expenses", "expense", "", domain.CodeGeneralExpenses, "debit", false, now, "system").
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		n, err := database.SeedChart(context.Background(), db, chart, "system", now)
		require.NoError(t, err)
		assert.Equal(t, 2, n)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("existing codes are skipped", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		mock.ExpectBegin()
		for range domain.DefaultChart {
			mock.ExpectExec("INSERT INTO accounts .* ON CONFLICT \\(code\\) DO NOTHING").
				WillReturnResult(sqlmock.NewResult(0, 0))
		}
		mock.ExpectCommit()

		n, err := database.SeedChart(context.Background(), db, domain.DefaultChart, "system", now)
		require.NoError(t, err)
		assert.Zero(t, n)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("failure rolls back", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		mock.ExpectBegin()
		mock.ExpectExec("INSERT INTO accounts").WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectExec("INSERT INTO accounts").WillReturnError(errors.New("connection lost"))
		mock.ExpectRollback()

		_, err = database.SeedChart(context.Background(), db, domain.DefaultChart, "system", now)
		assert.ErrorContains(t, err, "connection lost")
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}
