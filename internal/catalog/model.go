package catalog

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	TypeCourse   = "course"
	TypePlaylist = "playlist"
)

// Item is a purchasable course or playlist.
type Item struct {
	ID        string          `db:"id" json:"id"`
	Type      string          `db:"item_type" json:"type"`
	Title     string          `db:"title" json:"title"`
	SellerID  string          `db:"teacher_id" json:"sellerId"`
	Price     decimal.Decimal `db:"price" json:"price"`
	Currency  string          `db:"currency" json:"currency"`
	CreatedAt time.Time       `db:"created_at" json:"createdAt"`
}
