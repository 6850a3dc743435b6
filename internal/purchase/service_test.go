package purchase

import (
	"context"
	"database/sql/driver"
	"errors"
	"regexp"
	"testing"
	"time"

	"coursepay/internal/adminlog"
	"coursepay/internal/wallet"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type decimalArg string

func (d decimalArg) Match(v driver.Value) bool {
	s, ok := v.(string)
	if !ok {
		return false
	}
	got, err := decimal.NewFromString(s)
	return err == nil && got.Equal(decimal.RequireFromString(string(d)))
}

type fakePublisher struct {
	keys []string
}

func (f *fakePublisher) Publish(ctx context.Context, routingKey string, data interface{}) error {
	f.keys = append(f.keys, routingKey)
	return nil
}

func (f *fakePublisher) Close() {}

type fakeNotifier struct {
	users []string
	err   error
}

func (f *fakeNotifier) NotifyUser(ctx context.Context, userID, title, body string, data map[string]string) error {
	f.users = append(f.users, userID)
	return f.err
}

type fakeRecorder struct {
	types []string
}

func (f *fakeRecorder) Record(ctx context.Context, typ string, severity adminlog.Severity, message string, fields map[string]interface{}) {
	f.types = append(f.types, typ)
}

var purchaseCols = []string{"id", "session_id", "buyer_id", "item_id", "item_type", "seller_id", "amount", "currency", "status", "processed", "created_at", "completed_at"}
var walletCols = []string{"teacher_id", "balance", "total_earned", "currency", "created_at", "updated_at"}

type fixture struct {
	svc       *GrantService
	mock      sqlmock.Sqlmock
	publisher *fakePublisher
	notifier  *fakeNotifier
	recorder  *fakeRecorder
}

func newFixture(t *testing.T) *fixture {
	raw, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { raw.Close() })

	conn := sqlx.NewDb(raw, "sqlmock")
	f := &fixture{
		mock:      mock,
		publisher: &fakePublisher{},
		notifier:  &fakeNotifier{},
		recorder:  &fakeRecorder{},
	}
	f.svc = NewGrantService(conn, NewRepository(conn), wallet.NewRepository(conn),
		decimal.NewFromInt(80), f.publisher, f.notifier, f.recorder)
	return f
}

func purchaseRow(id int64, session, status string, processed bool, amount string) *sqlmock.Rows {
	return sqlmock.NewRows(purchaseCols).
		AddRow(id, session, "s-1", "course-1", "course", "t-1", amount, "USD", status, processed, time.Now(), nil)
}

func expectFirstCredit(mock sqlmock.Sqlmock, id int64, credit string) {
	now := time.Now()
	mock.ExpectQuery(regexp.QuoteMeta("FROM wallets WHERE teacher_id = $1 FOR UPDATE")).
		WithArgs("t-1").
		WillReturnRows(sqlmock.NewRows(walletCols))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO wallets (teacher_id, currency) VALUES ($1, $2) ON CONFLICT (teacher_id) DO NOTHING")).
		WithArgs("t-1", "USD").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(regexp.QuoteMeta("FROM wallets WHERE teacher_id = $1 FOR UPDATE")).
		WithArgs("t-1").
		WillReturnRows(sqlmock.NewRows(walletCols).AddRow("t-1", "0", "0", "USD", now, now))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO wallet_entries")).
		WithArgs("t-1", decimalArg(credit), wallet.KindSaleCredit, "42", decimalArg(credit)).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE wallets SET balance = $1, total_earned = $2")).
		WithArgs(decimalArg(credit), decimalArg(credit), "t-1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE purchases SET processed = TRUE")).
		WithArgs(id).
		WillReturnResult(sqlmock.NewResult(0, 1))
}

func expectOwnership(mock sqlmock.Sqlmock, id int64, owned bool) {
	mock.ExpectQuery(regexp.QuoteMeta("status = 'completed' AND id <> $3")).
		WithArgs("s-1", "course-1", id).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(owned))
}

func TestSellerShare(t *testing.T) {
	eighty := decimal.NewFromInt(80)

	assert.Equal(t, "4.00", SellerShare(decimal.NewFromInt(5), eighty).StringFixed(2))
	assert.Equal(t, "7.99", SellerShare(decimal.RequireFromString("9.99"), eighty).StringFixed(2))
	assert.Equal(t, "0.00", SellerShare(decimal.NewFromInt(5), decimal.Zero).StringFixed(2))
}

// A pending 5.00 purchase is completed and the seller earns 4.00. A second
// grant for the same session changes nothing.
func TestGrantAccess_CreditsOnceAndIsIdempotent(t *testing.T) {
	f := newFixture(t)

	f.mock.ExpectBegin()
	f.mock.ExpectQuery(regexp.QuoteMeta("FROM purchases WHERE session_id = $1 FOR UPDATE")).
		WithArgs("dep-1").
		WillReturnRows(purchaseRow(42, "dep-1", "pending", false, "5.00"))
	expectOwnership(f.mock, 42, false)
	f.mock.ExpectExec(regexp.QuoteMeta("UPDATE purchases SET status = 'completed'")).
		WithArgs(42).
		WillReturnResult(sqlmock.NewResult(0, 1))
	expectFirstCredit(f.mock, 42, "4.00")
	f.mock.ExpectCommit()

	res, err := f.svc.GrantAccess(context.Background(), "dep-1")
	require.NoError(t, err)
	assert.False(t, res.AlreadyGranted)
	assert.Equal(t, "4.00", res.Credited.StringFixed(2))

	f.mock.ExpectBegin()
	f.mock.ExpectQuery(regexp.QuoteMeta("FROM purchases WHERE session_id = $1 FOR UPDATE")).
		WithArgs("dep-1").
		WillReturnRows(purchaseRow(42, "dep-1", "completed", true, "5.00"))
	f.mock.ExpectCommit()

	again, err := f.svc.GrantAccess(context.Background(), "dep-1")
	require.NoError(t, err)
	assert.True(t, again.AlreadyGranted)
	assert.True(t, again.Credited.IsZero())

	assert.NoError(t, f.mock.ExpectationsWereMet())
	assert.Equal(t, []string{"purchase.completed"}, f.publisher.keys)
	assert.Equal(t, []string{"t-1"}, f.notifier.users)
}

func TestGrantAccess_CompletedButUnprocessed(t *testing.T) {
	f := newFixture(t)

	f.mock.ExpectBegin()
	f.mock.ExpectQuery(regexp.QuoteMeta("FOR UPDATE")).
		WithArgs("dep-1").
		WillReturnRows(purchaseRow(42, "dep-1", "completed", false, "5.00"))
	expectFirstCredit(f.mock, 42, "4.00")
	f.mock.ExpectCommit()

	res, err := f.svc.GrantAccess(context.Background(), "dep-1")
	require.NoError(t, err)
	assert.Equal(t, "4.00", res.Credited.StringFixed(2))
	assert.NoError(t, f.mock.ExpectationsWereMet())
}

func TestGrantAccess_FailedPurchase(t *testing.T) {
	f := newFixture(t)

	f.mock.ExpectBegin()
	f.mock.ExpectQuery(regexp.QuoteMeta("FOR UPDATE")).
		WithArgs("dep-1").
		WillReturnRows(purchaseRow(42, "dep-1", "failed", false, "5.00"))
	f.mock.ExpectRollback()

	_, err := f.svc.GrantAccess(context.Background(), "dep-1")
	assert.ErrorIs(t, err, ErrInvalidTransition)
	assert.Empty(t, f.recorder.types)
	assert.Empty(t, f.publisher.keys)
}

func TestGrantAccess_UnknownSession(t *testing.T) {
	f := newFixture(t)

	f.mock.ExpectBegin()
	f.mock.ExpectQuery(regexp.QuoteMeta("FOR UPDATE")).
		WithArgs("nope").
		WillReturnRows(sqlmock.NewRows(purchaseCols))
	f.mock.ExpectRollback()

	_, err := f.svc.GrantAccess(context.Background(), "nope")
	assert.ErrorIs(t, err, ErrPurchaseNotFound)
}

func TestGrantAccess_CreditFailureRollsBack(t *testing.T) {
	f := newFixture(t)

	f.mock.ExpectBegin()
	f.mock.ExpectQuery(regexp.QuoteMeta("FOR UPDATE")).
		WithArgs("dep-1").
		WillReturnRows(purchaseRow(42, "dep-1", "pending", false, "5.00"))
	expectOwnership(f.mock, 42, false)
	f.mock.ExpectExec(regexp.QuoteMeta("UPDATE purchases SET status = 'completed'")).
		WithArgs(42).
		WillReturnResult(sqlmock.NewResult(0, 1))
	f.mock.ExpectQuery(regexp.QuoteMeta("FROM wallets WHERE teacher_id = $1 FOR UPDATE")).
		WillReturnError(errors.New("connection lost"))
	f.mock.ExpectRollback()

	_, err := f.svc.GrantAccess(context.Background(), "dep-1")
	require.Error(t, err)
	assert.NoError(t, f.mock.ExpectationsWereMet())
	assert.Equal(t, []string{adminlog.TypeGrantFailed}, f.recorder.types)
	assert.Empty(t, f.notifier.users)
}

func TestGrantAccess_NotificationFailureDoesNotFailGrant(t *testing.T) {
	f := newFixture(t)
	f.notifier.err = errors.New("no device")

	f.mock.ExpectBegin()
	f.mock.ExpectQuery(regexp.QuoteMeta("FOR UPDATE")).
		WithArgs("dep-1").
		WillReturnRows(purchaseRow(42, "dep-1", "completed", false, "5.00"))
	expectFirstCredit(f.mock, 42, "4.00")
	f.mock.ExpectCommit()

	_, err := f.svc.GrantAccess(context.Background(), "dep-1")
	assert.NoError(t, err)
}

// A second paid session for an item the buyer already owns is failed and
// flagged for refund without crediting the seller again.
func TestGrantAccess_SecondSessionForOwnedItem(t *testing.T) {
	f := newFixture(t)

	f.mock.ExpectBegin()
	f.mock.ExpectQuery(regexp.QuoteMeta("FOR UPDATE")).
		WithArgs("dep-2").
		WillReturnRows(purchaseRow(43, "dep-2", "pending", false, "5.00"))
	expectOwnership(f.mock, 43, true)
	f.mock.ExpectExec(regexp.QuoteMeta("UPDATE purchases SET status = 'failed' WHERE id = $1 AND status = 'pending'")).
		WithArgs(43).
		WillReturnResult(sqlmock.NewResult(0, 1))
	f.mock.ExpectCommit()

	res, err := f.svc.GrantAccess(context.Background(), "dep-2")

	require.NoError(t, err)
	assert.True(t, res.Duplicate)
	assert.True(t, res.AlreadyGranted)
	assert.True(t, res.Credited.IsZero())
	assert.NoError(t, f.mock.ExpectationsWereMet())
	assert.Equal(t, []string{adminlog.TypeDuplicatePayment}, f.recorder.types)
	assert.Empty(t, f.publisher.keys)
	assert.Empty(t, f.notifier.users)
}

// Two sessions completing at once: the loser hits the unique index, retries,
// and then sees the committed purchase.
func TestGrantAccess_ConcurrentCompletionRetries(t *testing.T) {
	f := newFixture(t)

	f.mock.ExpectBegin()
	f.mock.ExpectQuery(regexp.QuoteMeta("FOR UPDATE")).
		WithArgs("dep-2").
		WillReturnRows(purchaseRow(43, "dep-2", "pending", false, "5.00"))
	expectOwnership(f.mock, 43, false)
	f.mock.ExpectExec(regexp.QuoteMeta("UPDATE purchases SET status = 'completed'")).
		WithArgs(43).
		WillReturnError(&pq.Error{Code: "23505"})
	f.mock.ExpectRollback()

	f.mock.ExpectBegin()
	f.mock.ExpectQuery(regexp.QuoteMeta("FOR UPDATE")).
		WithArgs("dep-2").
		WillReturnRows(purchaseRow(43, "dep-2", "pending", false, "5.00"))
	expectOwnership(f.mock, 43, true)
	f.mock.ExpectExec(regexp.QuoteMeta("UPDATE purchases SET status = 'failed'")).
		WithArgs(43).
		WillReturnResult(sqlmock.NewResult(0, 1))
	f.mock.ExpectCommit()

	res, err := f.svc.GrantAccess(context.Background(), "dep-2")

	require.NoError(t, err)
	assert.True(t, res.Duplicate)
	assert.NoError(t, f.mock.ExpectationsWereMet())
}

func TestAutoCredit(t *testing.T) {
	f := newFixture(t)

	f.mock.ExpectQuery(regexp.QuoteMeta("WHERE status = 'completed' AND processed = FALSE")).
		WithArgs(50).
		WillReturnRows(sqlmock.NewRows([]string{"session_id"}).AddRow("dep-1").AddRow("dep-2").AddRow("dep-3"))

	f.mock.ExpectBegin()
	f.mock.ExpectQuery(regexp.QuoteMeta("FOR UPDATE SKIP LOCKED")).
		WithArgs("dep-1").
		WillReturnRows(purchaseRow(42, "dep-1", "completed", false, "5.00"))
	expectFirstCredit(f.mock, 42, "4.00")
	f.mock.ExpectCommit()

	f.mock.ExpectBegin()
	f.mock.ExpectQuery(regexp.QuoteMeta("FOR UPDATE SKIP LOCKED")).
		WithArgs("dep-2").
		WillReturnRows(sqlmock.NewRows(purchaseCols))
	f.mock.ExpectRollback()

	f.mock.ExpectBegin()
	f.mock.ExpectQuery(regexp.QuoteMeta("FOR UPDATE SKIP LOCKED")).
		WithArgs("dep-3").
		WillReturnRows(purchaseRow(43, "dep-3", "completed", true, "5.00"))
	f.mock.ExpectCommit()

	res, err := f.svc.AutoCredit(context.Background(), 0)

	require.NoError(t, err)
	assert.Equal(t, SweepResult{Scanned: 3, Credited: 1, Skipped: 2, Failed: 0}, *res)
	assert.NoError(t, f.mock.ExpectationsWereMet())
}

func TestAutoCredit_ListError(t *testing.T) {
	f := newFixture(t)

	f.mock.ExpectQuery(regexp.QuoteMeta("processed = FALSE")).
		WithArgs(10).
		WillReturnError(errors.New("db down"))

	_, err := f.svc.AutoCredit(context.Background(), 10)
	assert.Error(t, err)
}
