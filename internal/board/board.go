// Package board keeps the state behind the orders page: the fetched
// collection, the loading flag, the form overlay and the delete confirmation.
package board

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"

	"github.com/samber/lo"
	"order-board/internal/models"
)

var (
	ErrUnknownOrder    = errors.New("order is not on the board")
	ErrNothingToDelete = errors.New("no order selected for deletion")
)

const deleteMessage = "Are you sure you want to delete this order?"

// OrderAPI is what the board needs from the backend. *services.OrderService
// and *client.Client both satisfy it.
type OrderAPI interface {
	List(ctx context.Context) ([]models.Order, error)
	Create(ctx context.Context, draft models.OrderDraft, image *models.ImageUpload) (models.Order, error)
	Update(ctx context.Context, id string, patch models.OrderPatch, image *models.ImageUpload) (models.Order, error)
	Delete(ctx context.Context, id string) error
}

type Form struct {
	Open bool
	// Inline renders the editor inside the table row instead of the overlay.
	Inline  bool
	Editing *models.Order
	Input   models.OrderInput
}

func (f Form) Title() string {
	if f.Editing != nil {
		return "Edit Order"
	}
	return "New Order"
}

func (f Form) EditingID() string {
	if f.Editing == nil {
		return ""
	}
	return f.Editing.ID
}

type Confirm struct {
	Open    bool
	Message string
	OrderID string
}

// View is a copy of the board state for rendering.
type View struct {
	Orders  []models.Order
	Loading bool
	Loaded  bool
	Error   string
	Form    Form
	Confirm Confirm
	States  []models.OrderState
}

type Board struct {
	api OrderAPI

	// ops serializes remote calls; mu guards the fields below it.
	ops sync.Mutex
	mu  sync.Mutex

	orders  []models.Order
	loading bool
	loaded  bool
	err     error
	form    Form
	confirm Confirm
}

func New(api OrderAPI) *Board {
	return &Board{api: api}
}

// Load fetches the whole collection and replaces the local copy.
func (b *Board) Load(ctx context.Context) error {
	b.ops.Lock()
	defer b.ops.Unlock()
	return b.load(ctx)
}

func (b *Board) load(ctx context.Context) error {
	b.setLoading(true)
	defer b.setLoading(false)

	orders, err := b.api.List(ctx)
	if err != nil {
		return b.fail("load orders", err)
	}

	b.mu.Lock()
	b.orders = orders
	b.loaded = true
	b.err = nil
	b.mu.Unlock()
	return nil
}

func (b *Board) OpenNew() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.form = Form{
		Open:  true,
		Input: models.OrderInput{State: models.OrderStateNew},
	}
}

// OpenEdit pre-populates the form from the board's copy of the order.
func (b *Board) OpenEdit(id string, inline bool) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	order, _, ok := lo.FindIndexOf(b.orders, func(o models.Order) bool { return o.ID == id })
	if !ok {
		return ErrUnknownOrder
	}
	b.form = Form{
		Open:    true,
		Inline:  inline,
		Editing: &order,
		Input:   models.InputFrom(order),
	}
	return nil
}

func (b *Board) CloseForm() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.form = Form{}
}

// Save submits form input for id, or creates a new order when id is empty.
// An edit splices the returned record into the local list; a new order
// triggers a full re-fetch because the backend decides its id and position.
func (b *Board) Save(ctx context.Context, id string, input models.OrderInput, image *models.ImageUpload) error {
	b.ops.Lock()
	defer b.ops.Unlock()

	if id != "" {
		return b.saveEdit(ctx, id, input, image)
	}
	return b.saveNew(ctx, input, image)
}

func (b *Board) saveEdit(ctx context.Context, id string, input models.OrderInput, image *models.ImageUpload) error {
	b.setLoading(true)
	defer b.setLoading(false)

	updated, err := b.api.Update(ctx, id, input.Patch(), image)
	if err != nil {
		b.keepInput(id, input)
		return b.fail("save order", err)
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if _, idx, ok := lo.FindIndexOf(b.orders, func(o models.Order) bool { return o.ID == id }); ok {
		b.orders[idx] = updated
	}
	if b.form.EditingID() == id {
		b.form = Form{}
	}
	b.err = nil
	return nil
}

func (b *Board) saveNew(ctx context.Context, input models.OrderInput, image *models.ImageUpload) error {
	b.setLoading(true)
	_, err := b.api.Create(ctx, input.Draft(), image)
	b.setLoading(false)
	if err != nil {
		b.keepInput("", input)
		return b.fail("create order", err)
	}

	b.mu.Lock()
	if b.form.Open && b.form.Editing == nil {
		b.form = Form{}
	}
	b.mu.Unlock()
	return b.load(ctx)
}

// RequestDelete opens the confirmation modal for id.
func (b *Board) RequestDelete(id string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !lo.ContainsBy(b.orders, func(o models.Order) bool { return o.ID == id }) {
		return ErrUnknownOrder
	}
	b.confirm = Confirm{Open: true, Message: deleteMessage, OrderID: id}
	return nil
}

func (b *Board) CancelDelete() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.confirm = Confirm{}
}

// ConfirmDelete deletes id and filters it out of the local list. The modal
// closes if it was asking about id.
func (b *Board) ConfirmDelete(ctx context.Context, id string) error {
	if id == "" {
		return ErrNothingToDelete
	}

	b.ops.Lock()
	defer b.ops.Unlock()

	b.mu.Lock()
	if b.confirm.OrderID == id {
		b.confirm = Confirm{}
	}
	b.mu.Unlock()

	b.setLoading(true)
	defer b.setLoading(false)

	if err := b.api.Delete(ctx, id); err != nil {
		return b.fail("delete order", err)
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	b.orders = lo.Filter(b.orders, func(o models.Order, _ int) bool { return o.ID != id })
	b.err = nil
	return nil
}

func (b *Board) View() View {
	b.mu.Lock()
	defer b.mu.Unlock()

	orders := make([]models.Order, len(b.orders))
	copy(orders, b.orders)

	v := View{
		Orders:  orders,
		Loading: b.loading,
		Loaded:  b.loaded,
		Form:    b.form,
		Confirm: b.confirm,
		States:  models.OrderStates(),
	}
	if b.err != nil {
		v.Error = b.err.Error()
	}
	return v
}

func (b *Board) Loaded() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.loaded
}

func (b *Board) setLoading(v bool) {
	b.mu.Lock()
	b.loading = v
	b.mu.Unlock()
}

// keepInput reopens the form for id with what the user typed.
func (b *Board) keepInput(id string, input models.OrderInput) {
	b.mu.Lock()
	defer b.mu.Unlock()

	inline := b.form.Inline && b.form.EditingID() == id
	form := Form{Open: true, Inline: inline, Input: input}
	if id != "" {
		if order, _, ok := lo.FindIndexOf(b.orders, func(o models.Order) bool { return o.ID == id }); ok {
			form.Editing = &order
		}
	}
	b.form = form
}

// fail records err for the page banner. Local orders are left as they were.
func (b *Board) fail(action string, err error) error {
	wrapped := fmt.Errorf("%s: %w", action, err)
	log.Printf("board: %v", wrapped)

	b.mu.Lock()
	b.err = wrapped
	b.mu.Unlock()
	return wrapped
}
