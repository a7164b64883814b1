package client_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"order-board/internal/board"
	"order-board/internal/client"
	"order-board/internal/filestore"
	"order-board/internal/handlers"
	"order-board/internal/models"
	"order-board/internal/port"
	"order-board/internal/services"
)

func newServer(t *testing.T) *httptest.Server {
	t.Helper()
	gin.SetMode(gin.TestMode)

	dir := t.TempDir()
	store, err := filestore.Open(filestore.Options{
		DataFile: filepath.Join(dir, "orders.json"),
		ImageDir: filepath.Join(dir, "images"),
		BaseURL:  "http://example.test/images",
	})
	require.NoError(t, err)

	router := gin.New()
	handlers.NewOrdersHandler(services.NewOrderService(store), 8<<20).RegisterRoutes(router.Group("/api"))

	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)
	return srv
}

func TestClient_RoundTrip(t *testing.T) {
	srv := newServer(t)
	c := client.New(srv.URL)
	ctx := context.Background()

	orders, err := c.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, orders)

	created, err := c.Create(ctx, models.OrderDraft{Name: "Alpha", Owner: "Bob"}, nil)
	require.NoError(t, err)
	assert.Equal(t, models.OrderStateNew, created.State)

	withImage, err := c.Create(ctx, models.OrderDraft{Name: "Beta", Owner: "Ann", Paid: true}, &models.ImageUpload{
		Filename: "shot.jpg",
		Body:     strings.NewReader("jpeg"),
	})
	require.NoError(t, err)
	assert.True(t, withImage.Paid)
	require.True(t, withImage.HasImage())
	assert.Equal(t, "http://example.test/images/"+*withImage.ImagePath, withImage.ImageURL)

	state := models.OrderStatePending
	updated, err := c.Update(ctx, created.ID, models.OrderPatch{State: &state}, nil)
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatePending, updated.State)
	assert.Equal(t, "Alpha", updated.Name)

	paid := true
	updated, err = c.Update(ctx, created.ID, models.OrderPatch{Paid: &paid}, &models.ImageUpload{
		Filename: "new.png",
		Body:     strings.NewReader("png"),
	})
	require.NoError(t, err)
	assert.True(t, updated.Paid)
	assert.Equal(t, models.OrderStatePending, updated.State)
	assert.True(t, updated.HasImage())

	got, err := c.Get(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, updated.ImageURL, got.ImageURL)

	require.NoError(t, c.Delete(ctx, created.ID))
	orders, err = c.List(ctx)
	require.NoError(t, err)
	require.Len(t, orders, 1)
	assert.Equal(t, "Beta", orders[0].Name)
}

func TestClient_Errors(t *testing.T) {
	srv := newServer(t)
	c := client.New(srv.URL)
	ctx := context.Background()

	_, err := c.Get(ctx, "missing")
	assert.ErrorIs(t, err, port.ErrNotFound)

	err = c.Delete(ctx, "missing")
	assert.ErrorIs(t, err, port.ErrNotFound)

	_, err = c.Create(ctx, models.OrderDraft{Name: "Alpha"}, nil)
	var apiErr *client.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusBadRequest, apiErr.StatusCode)
	assert.Contains(t, apiErr.Response.Message, "owner is required")
	assert.NotErrorIs(t, err, port.ErrNotFound)
}

func TestClient_RetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			_, _ = w.Write([]byte("upstream down"))
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[{"id":"a","name":"Alpha","owner":"Bob","state":"New","date":"2024-01-01T00:00:00Z"}]`))
	}))
	defer srv.Close()

	c := client.New(srv.URL, client.WithBackoffs(time.Millisecond, time.Millisecond, time.Millisecond))
	orders, err := c.List(context.Background())
	require.NoError(t, err)
	assert.Len(t, orders, 1)
	assert.EqualValues(t, 3, calls.Load())
}

func TestClient_GivesUpAfterBackoffs(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := client.New(srv.URL, client.WithBackoffs(time.Millisecond))
	_, err := c.List(context.Background())

	var apiErr *client.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusInternalServerError, apiErr.StatusCode)
	assert.EqualValues(t, 2, calls.Load())
}

func TestClient_DoesNotRetryClientErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"error":"failed to get order","message":"not found"}`))
	}))
	defer srv.Close()

	c := client.New(srv.URL, client.WithBackoffs(time.Millisecond, time.Millisecond))
	_, err := c.Get(context.Background(), "x")
	assert.True(t, errors.Is(err, port.ErrNotFound))
	assert.EqualValues(t, 1, calls.Load())
}

func TestClient_DrivesBoard(t *testing.T) {
	srv := newServer(t)
	b := board.New(client.New(srv.URL))
	ctx := context.Background()

	require.NoError(t, b.Load(ctx))
	b.OpenNew()
	require.NoError(t, b.Save(ctx, "", models.OrderInput{Name: "Alpha", Owner: "Bob"}, nil))

	v := b.View()
	require.Len(t, v.Orders, 1)
	require.NoError(t, b.RequestDelete(v.Orders[0].ID))
	require.NoError(t, b.ConfirmDelete(ctx, v.Orders[0].ID))
	assert.Empty(t, b.View().Orders)
}

var _ board.OrderAPI = (*client.Client)(nil)
var _ board.OrderAPI = (*services.OrderService)(nil)
