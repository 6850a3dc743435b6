package deposit

import (
	"context"
	"sync"
	"time"

	"coursepay/internal/adminlog"
	"coursepay/internal/catalog"
	"coursepay/internal/pawapay"
	"coursepay/internal/purchase"

	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
)

type fakeProvider struct {
	mu        sync.Mutex
	pageErr   error
	pages     []pawapay.PaymentPageRequest
	statuses  []string
	statusErr error
	checks    int
}

func (f *fakeProvider) CreatePaymentPage(ctx context.Context, req pawapay.PaymentPageRequest) (*pawapay.PaymentPageResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.pages = append(f.pages, req)
	if f.pageErr != nil {
		return nil, f.pageErr
	}
	return &pawapay.PaymentPageResponse{RedirectURL: "https://pay.example/session/" + req.DepositID}, nil
}

func (f *fakeProvider) GetDepositStatus(ctx context.Context, depositID string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.checks++
	if f.statusErr != nil {
		return "", f.statusErr
	}
	if len(f.statuses) == 0 {
		return "PENDING", nil
	}
	i := f.checks - 1
	if i >= len(f.statuses) {
		i = len(f.statuses) - 1
	}
	return f.statuses[i], nil
}

type fakeCatalog map[string]*catalog.Item

func (f fakeCatalog) FindItem(ctx context.Context, id string) (*catalog.Item, error) {
	item, ok := f[id]
	if !ok {
		return nil, catalog.ErrItemNotFound
	}
	return item, nil
}

type fakePurchases struct {
	created  []*purchase.Purchase
	failed   []string
	owned    bool
	stale    []purchase.Purchase
	createEr error
}

func (f *fakePurchases) CreatePending(ctx context.Context, p *purchase.Purchase) error {
	if f.createEr != nil {
		return f.createEr
	}
	p.ID = int64(len(f.created) + 1)
	p.Status = purchase.StatusPending
	f.created = append(f.created, p)
	return nil
}

func (f *fakePurchases) GetBySessionID(ctx context.Context, sessionID string) (*purchase.Purchase, error) {
	for _, p := range f.created {
		if p.SessionID == sessionID {
			return p, nil
		}
	}
	return nil, purchase.ErrPurchaseNotFound
}

func (f *fakePurchases) HasCompleted(ctx context.Context, buyerID, itemID string) (bool, error) {
	return f.owned, nil
}

func (f *fakePurchases) MarkFailed(ctx context.Context, sessionID string) (bool, error) {
	f.failed = append(f.failed, sessionID)
	return true, nil
}

func (f *fakePurchases) ListUnprocessed(ctx context.Context, limit int) ([]string, error) {
	return nil, nil
}

func (f *fakePurchases) ListStalePending(ctx context.Context, before time.Time, limit int) ([]purchase.Purchase, error) {
	return f.stale, nil
}

func (f *fakePurchases) LockBySessionTx(ctx context.Context, tx *sqlx.Tx, sessionID string, skipLocked bool) (*purchase.Purchase, error) {
	return nil, purchase.ErrPurchaseNotFound
}

func (f *fakePurchases) HasOtherCompletedTx(ctx context.Context, tx *sqlx.Tx, p *purchase.Purchase) (bool, error) {
	return false, nil
}

func (f *fakePurchases) MarkCompletedTx(ctx context.Context, tx *sqlx.Tx, id int64) error { return nil }

func (f *fakePurchases) MarkFailedTx(ctx context.Context, tx *sqlx.Tx, id int64) error { return nil }

func (f *fakePurchases) MarkProcessedTx(ctx context.Context, tx *sqlx.Tx, id int64) error { return nil }

type fakeGranter struct {
	mu       sync.Mutex
	sessions []string
	err      error
}

func (f *fakeGranter) GrantAccess(ctx context.Context, sessionID string) (*purchase.GrantResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sessions = append(f.sessions, sessionID)
	if f.err != nil {
		return nil, f.err
	}
	return &purchase.GrantResult{SessionID: sessionID, Credited: decimal.RequireFromString("4.00")}, nil
}

type fakeRecorder struct {
	types []string
}

func (f *fakeRecorder) Record(ctx context.Context, typ string, severity adminlog.Severity, message string, fields map[string]interface{}) {
	f.types = append(f.types, typ)
}

type fixture struct {
	svc       *Service
	provider  *fakeProvider
	purchases *fakePurchases
	granter   *fakeGranter
	recorder  *fakeRecorder
}

func newFixture() *fixture {
	f := &fixture{
		provider:  &fakeProvider{},
		purchases: &fakePurchases{},
		granter:   &fakeGranter{},
		recorder:  &fakeRecorder{},
	}
	items := fakeCatalog{
		"course-1": {ID: "course-1", Type: catalog.TypeCourse, Title: "Go basics", SellerID: "t-1", Price: decimal.RequireFromString("5.00"), Currency: "USD"},
	}
	f.svc = NewService(f.provider, items, f.purchases, f.granter, f.recorder, Config{
		MaxAmount:    decimal.NewFromInt(10000),
		Country:      "COD",
		PollInterval: time.Millisecond,
		PollAttempts: 20,
	})
	return f
}

func validRequest() CreateRequest {
	return CreateRequest{
		BuyerID:   "s-1",
		ItemID:    "course-1",
		Amount:    decimal.RequireFromString("5"),
		Currency:  "usd",
		ReturnURL: "https://app.example/payment/return?lang=fr",
	}
}
