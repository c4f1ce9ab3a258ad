// Package store is the shared memory bank for both apps: customers,
// orders, feedback, redeem codes, the fabric knowledge base, and approval
// tasks, persisted in a single SQLite database.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"

	contractx "github.com/freshfold/freshfold/agent/contract"
)

// recentLimit caps list endpoints that feed dashboards.
const recentLimit = 100

// ErrActiveOfferExists reports a conditional offer insert that found an
// unused code already on file for the phone.
var ErrActiveOfferExists = fmt.Errorf("%w: active offer exists", contractx.ErrInvariant)

type Config struct {
	Path string `split_words:"true" default:"freshfold.db"`
}

// Bank is the bun-backed memory bank.
type Bank struct {
	db *bun.DB
}

// Open opens (creating if needed) the SQLite database at cfg.Path and
// ensures the schema exists.
func Open(ctx context.Context, cfg Config) (*Bank, error) {
	sqldb, err := sql.Open(sqliteshim.ShimName, "file:"+cfg.Path+"?cache=shared&_pragma=journal_mode(WAL)")
	if err != nil {
		return nil, fmt.Errorf("store: open %s: %w", cfg.Path, err)
	}
	sqldb.SetMaxOpenConns(1)

	bank := &Bank{db: bun.NewDB(sqldb, sqlitedialect.New())}
	if err := bank.init(ctx); err != nil {
		return nil, err
	}
	return bank, nil
}

func (b *Bank) init(ctx context.Context) error {
	models := []any{
		(*Customer)(nil),
		(*Order)(nil),
		(*Feedback)(nil),
		(*RedeemCode)(nil),
		(*FabricEntry)(nil),
		(*ApprovalTask)(nil),
	}
	for _, model := range models {
		if _, err := b.db.NewCreateTable().Model(model).IfNotExists().Exec(ctx); err != nil {
			return fmt.Errorf("store: create table for %T: %w", model, err)
		}
	}
	return nil
}

func (b *Bank) Close() error {
	return b.db.Close()
}

// --- customers ---

func (b *Bank) SaveCustomer(ctx context.Context, c *Customer) error {
	if c.CreatedAt.IsZero() {
		c.CreatedAt = time.Now()
	}
	_, err := b.db.NewInsert().
		Model(c).
		On("CONFLICT (phone) DO UPDATE").
		Set("name = EXCLUDED.name").
		Set("address = EXCLUDED.address").
		Exec(ctx)
	return err
}

// Customer returns nil without error when the phone is unknown.
func (b *Bank) Customer(ctx context.Context, phone string) (*Customer, error) {
	c := new(Customer)
	err := b.db.NewSelect().Model(c).Where("phone = ?", phone).Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return c, nil
}

func (b *Bank) Customers(ctx context.Context) ([]Customer, error) {
	var customers []Customer
	err := b.db.NewSelect().Model(&customers).Order("created_at DESC").Scan(ctx)
	return customers, err
}

// --- orders ---

func (b *Bank) SaveOrder(ctx context.Context, o *Order) error {
	if o.CreatedAt.IsZero() {
		o.CreatedAt = time.Now()
	}
	_, err := b.db.NewInsert().
		Model(o).
		On("CONFLICT (id) DO UPDATE").
		Set("status = EXCLUDED.status").
		Set("items = EXCLUDED.items").
		Set("total = EXCLUDED.total").
		Set("overlay_url = EXCLUDED.overlay_url").
		Exec(ctx)
	return err
}

func (b *Bank) OrdersByPhone(ctx context.Context, phone string) ([]Order, error) {
	var orders []Order
	err := b.db.NewSelect().
		Model(&orders).
		Where("phone = ?", phone).
		Order("created_at DESC").
		Scan(ctx)
	return orders, err
}

// RecentOrders returns the newest orders, capped to keep dashboard
// queries bounded.
func (b *Bank) RecentOrders(ctx context.Context, limit int) ([]Order, error) {
	if limit <= 0 || limit > recentLimit {
		limit = recentLimit
	}
	var orders []Order
	err := b.db.NewSelect().
		Model(&orders).
		Order("created_at DESC").
		Limit(limit).
		Scan(ctx)
	return orders, err
}

func (b *Bank) UpdateOrderStatus(ctx context.Context, orderID, status string) error {
	_, err := b.db.NewUpdate().
		Model((*Order)(nil)).
		Set("status = ?", status).
		Where("id = ?", orderID).
		Exec(ctx)
	return err
}

// --- feedback ---

func (b *Bank) SaveFeedback(ctx context.Context, f *Feedback) error {
	if f.CreatedAt.IsZero() {
		f.CreatedAt = time.Now()
	}
	_, err := b.db.NewInsert().Model(f).Exec(ctx)
	return err
}

func (b *Bank) RecentFeedback(ctx context.Context, limit int) ([]Feedback, error) {
	if limit <= 0 || limit > recentLimit {
		limit = recentLimit
	}
	var feedback []Feedback
	err := b.db.NewSelect().
		Model(&feedback).
		Order("created_at DESC").
		Limit(limit).
		Scan(ctx)
	return feedback, err
}

// --- redeem codes ---

// SaveRedeem stores a code unconditionally (first-time codes bypass the
// active-offer rule).
func (b *Bank) SaveRedeem(ctx context.Context, r *RedeemCode) error {
	if r.CreatedAt.IsZero() {
		r.CreatedAt = time.Now()
	}
	_, err := b.db.NewInsert().
		Model(r).
		On("CONFLICT (code) DO UPDATE").
		Set("used = EXCLUDED.used").
		Set("discount = EXCLUDED.discount").
		Exec(ctx)
	return err
}

// CreateOfferIfInactive inserts the code only when the phone has no
// unused offers on file. The check and insert run in one transaction so
// two concurrent offer passes cannot both issue.
func (b *Bank) CreateOfferIfInactive(ctx context.Context, r *RedeemCode) error {
	if r.CreatedAt.IsZero() {
		r.CreatedAt = time.Now()
	}
	return b.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		active, err := tx.NewSelect().
			Model((*RedeemCode)(nil)).
			Where("phone = ?", r.Phone).
			Where("used = ?", false).
			Count(ctx)
		if err != nil {
			return err
		}
		if active > 0 {
			return ErrActiveOfferExists
		}
		_, err = tx.NewInsert().Model(r).Exec(ctx)
		return err
	})
}

func (b *Bank) RedeemsByPhone(ctx context.Context, phone string) ([]RedeemCode, error) {
	var codes []RedeemCode
	err := b.db.NewSelect().
		Model(&codes).
		Where("phone = ?", phone).
		Order("created_at DESC").
		Scan(ctx)
	return codes, err
}

func (b *Bank) RecentRedeems(ctx context.Context, limit int) ([]RedeemCode, error) {
	if limit <= 0 || limit > recentLimit {
		limit = recentLimit
	}
	var codes []RedeemCode
	err := b.db.NewSelect().
		Model(&codes).
		Order("created_at DESC").
		Limit(limit).
		Scan(ctx)
	return codes, err
}

func (b *Bank) MarkRedeemUsed(ctx context.Context, code string) error {
	_, err := b.db.NewUpdate().
		Model((*RedeemCode)(nil)).
		Set("used = ?", true).
		Where("code = ?", code).
		Exec(ctx)
	return err
}

// --- fabric knowledge base ---

func (b *Bank) SaveFabric(ctx context.Context, e *FabricEntry) error {
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now()
	}
	_, err := b.db.NewInsert().
		Model(e).
		On("CONFLICT (fabric_key) DO UPDATE").
		Set("fabric_type = EXCLUDED.fabric_type").
		Set("care_instructions = EXCLUDED.care_instructions").
		Exec(ctx)
	return err
}

// Fabric returns nil without error on a knowledge-base miss.
func (b *Bank) Fabric(ctx context.Context, key string) (*FabricEntry, error) {
	e := new(FabricEntry)
	err := b.db.NewSelect().Model(e).Where("fabric_key = ?", key).Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return e, nil
}

// --- approval tasks ---

// CreateTaskIfAbsent inserts the task in waiting state; an existing task
// for the order is left untouched.
func (b *Bank) CreateTaskIfAbsent(ctx context.Context, orderID, overlayURL string) error {
	now := time.Now()
	task := &ApprovalTask{
		OrderID:    orderID,
		Status:     TaskWaiting,
		OverlayURL: overlayURL,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	_, err := b.db.NewInsert().
		Model(task).
		On("CONFLICT (order_id) DO NOTHING").
		Exec(ctx)
	return err
}

// Task returns nil without error when no task exists for the order.
func (b *Bank) Task(ctx context.Context, orderID string) (*ApprovalTask, error) {
	task := new(ApprovalTask)
	err := b.db.NewSelect().Model(task).Where("order_id = ?", orderID).Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return task, nil
}

func (b *Bank) SetTaskStatus(ctx context.Context, orderID, status string) error {
	_, err := b.db.NewUpdate().
		Model((*ApprovalTask)(nil)).
		Set("status = ?", status).
		Set("updated_at = ?", time.Now()).
		Where("order_id = ?", orderID).
		Exec(ctx)
	return err
}

func (b *Bank) DeleteTask(ctx context.Context, orderID string) error {
	_, err := b.db.NewDelete().
		Model((*ApprovalTask)(nil)).
		Where("order_id = ?", orderID).
		Exec(ctx)
	return err
}
