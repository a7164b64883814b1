package web_test

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"order-board/internal/board"
	"order-board/internal/models"
	"order-board/internal/web"
)

func render(t *testing.T, page web.Page) string {
	t.Helper()
	tmpl, err := web.Templates()
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, tmpl.ExecuteTemplate(&buf, web.PageTemplate, page))
	return buf.String()
}

func sampleOrder() models.Order {
	return models.Order{
		ID:       "o-1",
		Name:     "Alpha",
		Member:   "Jin",
		Owner:    "Bob",
		Date:     time.Date(2024, 3, 9, 12, 0, 0, 0, time.UTC),
		State:    models.OrderStateOTW,
		Paid:     true,
		ImageURL: "http://localhost:8080/images/a.png",
	}
}

func TestTemplates_Table(t *testing.T) {
	html := render(t, web.Page{View: board.View{
		Orders: []models.Order{sampleOrder()},
		States: models.OrderStates(),
	}})

	assert.Contains(t, html, "<td class=\"col-name\">Alpha</td>")
	assert.Contains(t, html, "<td class=\"col-paid\">Yes</td>")
	assert.Contains(t, html, "state-otw")
	assert.Contains(t, html, `src="http://localhost:8080/images/a.png"`)
	assert.Contains(t, html, `action="/orders/o-1/delete"`)
	assert.NotContains(t, html, "overlay-content")
	assert.NotContains(t, html, "modal-overlay")
}

func TestTemplates_Empty(t *testing.T) {
	html := render(t, web.Page{View: board.View{States: models.OrderStates()}})
	assert.Contains(t, html, "No orders yet.")
}

func TestTemplates_Overlay(t *testing.T) {
	order := sampleOrder()
	html := render(t, web.Page{View: board.View{
		Orders: []models.Order{order},
		States: models.OrderStates(),
		Form: board.Form{
			Open:    true,
			Editing: &order,
			Input:   models.InputFrom(order),
		},
	}})

	assert.Contains(t, html, "<h2>Edit Order</h2>")
	assert.Contains(t, html, `<option value="OTW" selected>OTW</option>`)
	assert.Contains(t, html, `name="paid" value="on" checked`)
	assert.Contains(t, html, `name="name" value="Alpha" required`)
	assert.Contains(t, html, `action="/orders/o-1" enctype="multipart/form-data"`)
	assert.NotContains(t, html, "inline-editor")
}

func TestTemplates_NewOrderOverlay(t *testing.T) {
	html := render(t, web.Page{View: board.View{
		States: models.OrderStates(),
		Form:   board.Form{Open: true, Input: models.OrderInput{State: models.OrderStateNew}},
	}})

	assert.Contains(t, html, "<h2>New Order</h2>")
	assert.Contains(t, html, `action="/orders" enctype="multipart/form-data"`)
}

func TestTemplates_InlineEditor(t *testing.T) {
	order := sampleOrder()
	html := render(t, web.Page{View: board.View{
		Orders: []models.Order{order},
		States: models.OrderStates(),
		Form: board.Form{
			Open:    true,
			Inline:  true,
			Editing: &order,
			Input:   models.InputFrom(order),
		},
	}})

	assert.Contains(t, html, "inline-editor")
	assert.Contains(t, html, `action="/orders/o-1" enctype="multipart/form-data" class="inline-form"`)
	assert.NotContains(t, html, "overlay-content")
	assert.NotContains(t, html, "<td class=\"col-name\">Alpha</td>")
}

func TestTemplates_ConfirmModal(t *testing.T) {
	html := render(t, web.Page{View: board.View{
		Orders:  []models.Order{sampleOrder()},
		States:  models.OrderStates(),
		Confirm: board.Confirm{Open: true, Message: "Are you sure you want to delete this order?", OrderID: "o-1"},
	}})

	assert.Contains(t, html, "Are you sure you want to delete this order?")
	assert.Contains(t, html, `action="/orders/o-1/delete/confirm"`)
	assert.Contains(t, html, `action="/orders/delete/cancel"`)
}

func TestTemplates_Banners(t *testing.T) {
	html := render(t, web.Page{
		View:  board.View{Error: "load orders: connection refused", States: models.OrderStates()},
		Flash: "order not found",
	})
	assert.Contains(t, html, "load orders: connection refused")
	assert.Contains(t, html, "order not found")
}
