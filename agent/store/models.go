package store

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/uptrace/bun"
)

// Order statuses. Finished and Delivered are terminal for logistics
// purposes.
const (
	StatusPending   = "Pending"
	StatusFinished  = "Finished"
	StatusDelivered = "Delivered"
)

// Approval task statuses. Waiting is the only non-terminal state.
const (
	TaskWaiting  = "waiting"
	TaskApproved = "approved"
	TaskRejected = "rejected"
)

// Offer types.
const (
	OfferTypePersonal  = "personal"
	OfferTypeFirstTime = "first_time"
)

type Customer struct {
	bun.BaseModel `bun:"table:customers"`

	Phone     string    `bun:"phone,pk" json:"phone"`
	Name      string    `bun:"name" json:"name"`
	Address   string    `bun:"address" json:"address"`
	CreatedAt time.Time `bun:"created_at,notnull" json:"created_at"`

	// OrdersCount is filled by the business API, not persisted.
	OrdersCount int `bun:"-" json:"orders_count,omitempty"`
}

// OrderItem is one detected garment on an order.
type OrderItem struct {
	Label      string     `json:"label"`
	Confidence float64    `json:"confidence"`
	Box        [4]float64 `json:"box"`
}

// ItemList stores order items as a JSON text column.
type ItemList []OrderItem

func (l ItemList) Value() (driver.Value, error) {
	if l == nil {
		return "[]", nil
	}
	b, err := json.Marshal(l)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func (l *ItemList) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		*l = nil
		return nil
	case []byte:
		return json.Unmarshal(v, l)
	case string:
		return json.Unmarshal([]byte(v), l)
	default:
		return fmt.Errorf("unsupported item list source %T", src)
	}
}

type Order struct {
	bun.BaseModel `bun:"table:orders"`

	ID         string    `bun:"id,pk" json:"id"`
	Phone      string    `bun:"phone" json:"phone"`
	Status     string    `bun:"status" json:"status"`
	Items      ItemList  `bun:"items,type:text" json:"items"`
	Total      float64   `bun:"total" json:"total"`
	OverlayURL string    `bun:"overlay_url" json:"overlay_url"`
	CreatedAt  time.Time `bun:"created_at,notnull" json:"created_at"`
}

type Feedback struct {
	bun.BaseModel `bun:"table:feedback"`

	ID        string    `bun:"id,pk" json:"id"`
	OrderID   string    `bun:"order_id" json:"order_id"`
	Rating    int       `bun:"rating" json:"rating"`
	Comment   string    `bun:"comment" json:"comment"`
	CreatedAt time.Time `bun:"created_at,notnull" json:"created_at"`
}

type RedeemCode struct {
	bun.BaseModel `bun:"table:redeem_codes"`

	Code      string    `bun:"code,pk" json:"code"`
	Phone     string    `bun:"phone" json:"phone"`
	Discount  string    `bun:"discount" json:"discount"`
	Used      bool      `bun:"used" json:"used"`
	Type      string    `bun:"type" json:"type"`
	CreatedAt time.Time `bun:"created_at,notnull" json:"created_at"`
}

type FabricEntry struct {
	bun.BaseModel `bun:"table:fabric_kb"`

	Key              string    `bun:"fabric_key,pk" json:"fabric_key"`
	FabricType       string    `bun:"fabric_type" json:"fabric_type"`
	CareInstructions string    `bun:"care_instructions" json:"care_instructions"`
	CreatedAt        time.Time `bun:"created_at,notnull" json:"created_at"`
}

type ApprovalTask struct {
	bun.BaseModel `bun:"table:approval_tasks"`

	OrderID    string    `bun:"order_id,pk" json:"order_id"`
	Status     string    `bun:"status" json:"status"`
	OverlayURL string    `bun:"overlay_url" json:"overlay"`
	CreatedAt  time.Time `bun:"created_at,notnull" json:"created_at"`
	UpdatedAt  time.Time `bun:"updated_at,notnull" json:"updated_at"`
}
