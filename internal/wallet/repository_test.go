package wallet

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type decimalArg string

func (d decimalArg) Match(v driver.Value) bool {
	var got decimal.Decimal
	switch x := v.(type) {
	case string:
		got, _ = decimal.NewFromString(x)
	case []byte:
		got, _ = decimal.NewFromString(string(x))
	default:
		return false
	}
	return got.Equal(decimal.RequireFromString(string(d)))
}

var walletCols = []string{"teacher_id", "balance", "total_earned", "currency", "created_at", "updated_at"}

func setupWalletMock(t *testing.T) (*sqlx.DB, Repository, sqlmock.Sqlmock) {
	raw, mock, err := sqlmock.New()
	require.NoError(t, err)

	sqlxDB := sqlx.NewDb(raw, "sqlmock")
	t.Cleanup(func() { sqlxDB.Close() })

	return sqlxDB, NewRepository(sqlxDB), mock
}

func TestGet_NotFound(t *testing.T) {
	_, repo, mock := setupWalletMock(t)

	mock.ExpectQuery(regexp.QuoteMeta("FROM wallets WHERE teacher_id = $1")).
		WithArgs("t-1").
		WillReturnError(sql.ErrNoRows)

	_, err := repo.Get(context.Background(), "t-1")
	assert.ErrorIs(t, err, ErrWalletNotFound)
}

func TestApply_CreditCreatesWallet(t *testing.T) {
	_, repo, mock := setupWalletMock(t)
	now := time.Now()

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("FROM wallets WHERE teacher_id = $1 FOR UPDATE")).
		WithArgs("t-1").
		WillReturnError(sql.ErrNoRows)
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO wallets (teacher_id, currency) VALUES ($1, $2) ON CONFLICT (teacher_id) DO NOTHING")).
		WithArgs("t-1", "USD").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(regexp.QuoteMeta("FROM wallets WHERE teacher_id = $1 FOR UPDATE")).
		WithArgs("t-1").
		WillReturnRows(sqlmock.NewRows(walletCols).AddRow("t-1", "0", "0", "USD", now, now))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO wallet_entries")).
		WithArgs("t-1", decimalArg("4.00"), KindSaleCredit, "42", decimalArg("4.00")).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE wallets SET balance = $1, total_earned = $2")).
		WithArgs(decimalArg("4.00"), decimalArg("4.00"), "t-1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	w, err := repo.Apply(context.Background(), Movement{
		TeacherID: "t-1",
		Amount:    decimal.RequireFromString("4.00"),
		Kind:      KindSaleCredit,
		Reference: "42",
		Earned:    true,
	})

	require.NoError(t, err)
	assert.True(t, w.Balance.Equal(decimal.NewFromInt(4)))
	assert.True(t, w.TotalEarned.Equal(decimal.NewFromInt(4)))
	assert.NoError(t, mock.ExpectationsWereMet())
}

// Another transaction created the wallet between the lock and the insert.
func TestApply_FirstCreditRacesAnotherFirstCredit(t *testing.T) {
	_, repo, mock := setupWalletMock(t)
	now := time.Now()

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("FROM wallets WHERE teacher_id = $1 FOR UPDATE")).
		WithArgs("t-1").
		WillReturnError(sql.ErrNoRows)
	mock.ExpectExec(regexp.QuoteMeta("ON CONFLICT (teacher_id) DO NOTHING")).
		WithArgs("t-1", "USD").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(regexp.QuoteMeta("FROM wallets WHERE teacher_id = $1 FOR UPDATE")).
		WithArgs("t-1").
		WillReturnRows(sqlmock.NewRows(walletCols).AddRow("t-1", "4.00", "4.00", "USD", now, now))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO wallet_entries")).
		WithArgs("t-1", decimalArg("4.00"), KindSaleCredit, "43", decimalArg("8.00")).
		WillReturnResult(sqlmock.NewResult(2, 1))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE wallets SET balance = $1, total_earned = $2")).
		WithArgs(decimalArg("8.00"), decimalArg("8.00"), "t-1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	w, err := repo.Apply(context.Background(), Movement{
		TeacherID: "t-1",
		Amount:    decimal.RequireFromString("4.00"),
		Currency:  "USD",
		Kind:      KindSaleCredit,
		Reference: "43",
		Earned:    true,
	})

	require.NoError(t, err)
	assert.Equal(t, "8.00", w.Balance.StringFixed(2))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestApply_DebitKeepsTotalEarned(t *testing.T) {
	_, repo, mock := setupWalletMock(t)
	now := time.Now()

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("FOR UPDATE")).
		WithArgs("t-1").
		WillReturnRows(sqlmock.NewRows(walletCols).AddRow("t-1", "10.00", "25.00", "USD", now, now))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO wallet_entries")).
		WithArgs("t-1", decimalArg("-7.50"), KindPayoutDebit, "po-1", decimalArg("2.50")).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE wallets")).
		WithArgs(decimalArg("2.50"), decimalArg("25.00"), "t-1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	w, err := repo.Apply(context.Background(), Movement{
		TeacherID: "t-1",
		Amount:    decimal.RequireFromString("-7.50"),
		Kind:      KindPayoutDebit,
		Reference: "po-1",
	})

	require.NoError(t, err)
	assert.Equal(t, "2.5", w.Balance.String())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestApply_InsufficientBalance(t *testing.T) {
	_, repo, mock := setupWalletMock(t)
	now := time.Now()

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("FOR UPDATE")).
		WithArgs("t-1").
		WillReturnRows(sqlmock.NewRows(walletCols).AddRow("t-1", "5.00", "5.00", "USD", now, now))
	mock.ExpectRollback()

	_, err := repo.Apply(context.Background(), Movement{
		TeacherID: "t-1",
		Amount:    decimal.RequireFromString("-5.01"),
		Kind:      KindPayoutDebit,
		Reference: "po-1",
	})

	assert.ErrorIs(t, err, ErrInsufficientBalance)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestApply_DebitWithoutWallet(t *testing.T) {
	_, repo, mock := setupWalletMock(t)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("FOR UPDATE")).
		WithArgs("t-9").
		WillReturnError(sql.ErrNoRows)
	mock.ExpectRollback()

	_, err := repo.Apply(context.Background(), Movement{
		TeacherID: "t-9",
		Amount:    decimal.NewFromInt(-1),
		Kind:      KindPayoutDebit,
		Reference: "po-1",
	})

	assert.ErrorIs(t, err, ErrWalletNotFound)
}

func TestApply_DuplicateEntry(t *testing.T) {
	_, repo, mock := setupWalletMock(t)
	now := time.Now()

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("FOR UPDATE")).
		WithArgs("t-1").
		WillReturnRows(sqlmock.NewRows(walletCols).AddRow("t-1", "4.00", "4.00", "USD", now, now))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO wallet_entries")).
		WillReturnError(&pq.Error{Code: "23505"})
	mock.ExpectRollback()

	_, err := repo.Apply(context.Background(), Movement{
		TeacherID: "t-1",
		Amount:    decimal.NewFromInt(4),
		Kind:      KindSaleCredit,
		Reference: "42",
		Earned:    true,
	})

	assert.ErrorIs(t, err, ErrDuplicateEntry)
}

func TestApply_ZeroAmount(t *testing.T) {
	_, repo, mock := setupWalletMock(t)

	mock.ExpectBegin()
	mock.ExpectRollback()

	_, err := repo.Apply(context.Background(), Movement{TeacherID: "t-1", Kind: KindSaleCredit, Reference: "1"})
	assert.ErrorIs(t, err, ErrZeroMovement)
}

func TestGetEntries(t *testing.T) {
	_, repo, mock := setupWalletMock(t)
	now := time.Now()

	mock.ExpectQuery(regexp.QuoteMeta("FROM wallet_entries WHERE teacher_id = $1")).
		WithArgs("t-1", 50, 0).
		WillReturnRows(sqlmock.NewRows([]string{"id", "teacher_id", "amount", "kind", "reference", "balance_after", "created_at"}).
			AddRow(2, "t-1", "-3.00", KindPayoutDebit, "po-1", "1.00", now).
			AddRow(1, "t-1", "4.00", KindSaleCredit, "42", "4.00", now))

	entries, err := repo.GetEntries(context.Background(), "t-1", 0, -1)

	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, KindPayoutDebit, entries[0].Kind)
	assert.True(t, entries[1].Amount.Equal(decimal.NewFromInt(4)))
}
