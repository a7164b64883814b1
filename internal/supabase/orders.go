package supabase

import (
	"context"
	"fmt"
	"time"

	"github.com/supabase-community/postgrest-go"
	"github.com/supabase-community/supabase-go"
	"order-board/internal/models"
	"order-board/internal/port"
)

// OrdersTable reads and writes the orders table through PostgREST.
type OrdersTable struct {
	client *supabase.Client
	table  string
	now    func() time.Time
}

func NewOrdersTable(client *Client) *OrdersTable {
	table := client.Config.SupabaseOrdersTable
	if table == "" {
		table = "orders"
	}
	return &OrdersTable{
		client: client.Supabase,
		table:  table,
		now:    time.Now,
	}
}

// insertRow leaves id to the column default.
type insertRow struct {
	Name      string            `json:"name"`
	Member    string            `json:"member"`
	Source    string            `json:"source"`
	Note      string            `json:"note"`
	Owner     string            `json:"owner"`
	Date      time.Time         `json:"date"`
	State     models.OrderState `json:"state"`
	Paid      bool              `json:"paid"`
	ImagePath *string           `json:"image_path"`
}

// updateRow is the column set a patch writes. Nil fields are left out of the
// request body.
type updateRow struct {
	Name      *string            `json:"name,omitempty"`
	Member    *string            `json:"member,omitempty"`
	Source    *string            `json:"source,omitempty"`
	Note      *string            `json:"note,omitempty"`
	Owner     *string            `json:"owner,omitempty"`
	State     *models.OrderState `json:"state,omitempty"`
	Paid      *bool              `json:"paid,omitempty"`
	ImagePath *string            `json:"image_path,omitempty"`
}

func newUpdateRow(p models.OrderPatch) updateRow {
	return updateRow{
		Name:      p.Name,
		Member:    p.Member,
		Source:    p.Source,
		Note:      p.Note,
		Owner:     p.Owner,
		State:     p.State,
		Paid:      p.Paid,
		ImagePath: p.ImagePath,
	}
}

func (t *OrdersTable) List(ctx context.Context) ([]models.Order, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var rows []models.Order
	_, err := t.client.From(t.table).
		Select("*", "", false).
		Order("date", &postgrest.OrderOpts{Ascending: true}).
		ExecuteTo(&rows)
	if err != nil {
		return nil, fmt.Errorf("select orders: %w", err)
	}
	if rows == nil {
		rows = []models.Order{}
	}
	return rows, nil
}

func (t *OrdersTable) Get(ctx context.Context, id string) (models.Order, error) {
	if err := ctx.Err(); err != nil {
		return models.Order{}, err
	}

	var rows []models.Order
	_, err := t.client.From(t.table).
		Select("*", "", false).
		Eq("id", id).
		ExecuteTo(&rows)
	if err != nil {
		return models.Order{}, fmt.Errorf("select order: %w", err)
	}
	return first(rows)
}

func (t *OrdersTable) Create(ctx context.Context, draft models.OrderDraft) (models.Order, error) {
	if err := draft.Validate(); err != nil {
		return models.Order{}, err
	}
	if err := ctx.Err(); err != nil {
		return models.Order{}, err
	}

	o := draft.NewOrder("", t.now())
	row := insertRow{
		Name:      o.Name,
		Member:    o.Member,
		Source:    o.Source,
		Note:      o.Note,
		Owner:     o.Owner,
		Date:      o.Date,
		State:     o.State,
		Paid:      o.Paid,
		ImagePath: o.ImagePath,
	}

	var rows []models.Order
	_, err := t.client.From(t.table).
		Insert(row, false, "", "representation", "").
		ExecuteTo(&rows)
	if err != nil {
		return models.Order{}, fmt.Errorf("insert order: %w", err)
	}
	created, err := first(rows)
	if err != nil {
		return models.Order{}, fmt.Errorf("insert order returned no row: %w", err)
	}
	return created, nil
}

func (t *OrdersTable) Update(ctx context.Context, id string, patch models.OrderPatch) (models.Order, error) {
	if err := patch.Validate(); err != nil {
		return models.Order{}, err
	}
	if patch.IsEmpty() {
		return t.Get(ctx, id)
	}
	if err := ctx.Err(); err != nil {
		return models.Order{}, err
	}

	var rows []models.Order
	_, err := t.client.From(t.table).
		Update(newUpdateRow(patch), "representation", "").
		Eq("id", id).
		ExecuteTo(&rows)
	if err != nil {
		return models.Order{}, fmt.Errorf("update order: %w", err)
	}
	return first(rows)
}

func (t *OrdersTable) Delete(ctx context.Context, id string) (models.Order, error) {
	if err := ctx.Err(); err != nil {
		return models.Order{}, err
	}

	var rows []models.Order
	_, err := t.client.From(t.table).
		Delete("representation", "").
		Eq("id", id).
		ExecuteTo(&rows)
	if err != nil {
		return models.Order{}, fmt.Errorf("delete order: %w", err)
	}
	return first(rows)
}

// an update or delete that matched nothing comes back as an empty representation
func first(rows []models.Order) (models.Order, error) {
	if len(rows) == 0 {
		return models.Order{}, port.ErrNotFound
	}
	return rows[0], nil
}
