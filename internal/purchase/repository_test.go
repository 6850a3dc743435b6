package purchase

import (
	"context"
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

func setupRepo(t *testing.T) (Repository, sqlmock.Sqlmock) {
	raw, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { raw.Close() })
	return NewRepository(sqlx.NewDb(raw, "sqlmock")), mock
}

func TestCreatePending(t *testing.T) {
	repo, mock := setupRepo(t)
	now := time.Now()

	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO purchases (session_id, buyer_id, item_id, item_type, seller_id, amount, currency)")).
		WithArgs("dep-1", "s-1", "course-1", "course", "t-1", decimalArg("5.00"), "USD").
		WillReturnRows(sqlmock.NewRows([]string{"id", "status", "processed", "created_at"}).AddRow(7, "pending", false, now))

	p := &Purchase{
		SessionID: "dep-1",
		BuyerID:   "s-1",
		ItemID:    "course-1",
		ItemType:  "course",
		SellerID:  "t-1",
		Amount:    decimal.RequireFromString("5.00"),
		Currency:  "USD",
	}
	require.NoError(t, repo.CreatePending(context.Background(), p))
	assert.Equal(t, int64(7), p.ID)
	assert.Equal(t, StatusPending, p.Status)
	assert.False(t, p.Processed)
}

func TestCreatePending_DuplicateSession(t *testing.T) {
	repo, mock := setupRepo(t)

	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO purchases")).
		WillReturnError(&pq.Error{Code: "23505"})

	err := repo.CreatePending(context.Background(), &Purchase{SessionID: "dep-1", Amount: decimal.NewFromInt(5)})
	assert.ErrorIs(t, err, ErrDuplicateSession)
}

func TestHasCompleted(t *testing.T) {
	repo, mock := setupRepo(t)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT EXISTS(SELECT 1 FROM purchases WHERE buyer_id = $1 AND item_id = $2 AND status = 'completed')")).
		WithArgs("s-1", "course-1").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))

	ok, err := repo.HasCompleted(context.Background(), "s-1", "course-1")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestMarkFailed(t *testing.T) {
	repo, mock := setupRepo(t)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE purchases SET status = 'failed' WHERE session_id = $1 AND status = 'pending'")).
		WithArgs("dep-1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE purchases SET status = 'failed'")).
		WithArgs("dep-2").
		WillReturnResult(sqlmock.NewResult(0, 0))

	changed, err := repo.MarkFailed(context.Background(), "dep-1")
	require.NoError(t, err)
	assert.True(t, changed)

	changed, err = repo.MarkFailed(context.Background(), "dep-2")
	require.NoError(t, err)
	assert.False(t, changed)
}

func TestGetBySessionID_NotFound(t *testing.T) {
	repo, mock := setupRepo(t)

	mock.ExpectQuery(regexp.QuoteMeta("FROM purchases WHERE session_id = $1")).
		WithArgs("missing").
		WillReturnRows(sqlmock.NewRows(purchaseCols))

	_, err := repo.GetBySessionID(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrPurchaseNotFound)
}

func TestListStalePending(t *testing.T) {
	repo, mock := setupRepo(t)
	before := time.Now().Add(-5 * time.Minute)

	mock.ExpectQuery(regexp.QuoteMeta("WHERE status = 'pending' AND created_at < $1")).
		WithArgs(before, 50).
		WillReturnRows(purchaseRow(1, "dep-old", "pending", false, "5.00"))

	list, err := repo.ListStalePending(context.Background(), before, 50)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "dep-old", list[0].SessionID)
}
