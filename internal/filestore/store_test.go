package filestore_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/samber/lo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"order-board/internal/filestore"
	"order-board/internal/models"
	"order-board/internal/port"
)

type fileStoreSuite struct {
	suite.Suite

	dir   string
	store *filestore.Store
}

func TestFileStoreSuite(t *testing.T) {
	suite.Run(t, new(fileStoreSuite))
}

// before each test
func (suite *fileStoreSuite) SetupTest() {
	suite.dir = suite.T().TempDir()

	store, err := filestore.Open(filestore.Options{
		DataFile: filepath.Join(suite.dir, "data", "orders.json"),
		ImageDir: filepath.Join(suite.dir, "images"),
		BaseURL:  "http://localhost:8080/images/",
	})
	suite.Require().NoError(err)
	suite.store = store
}

func (suite *fileStoreSuite) dataFile() string {
	return filepath.Join(suite.dir, "data", "orders.json")
}

func (suite *fileStoreSuite) TestOpenCreatesDirectories() {
	t := suite.T()

	info, err := os.Stat(filepath.Join(suite.dir, "data"))
	require.NoError(t, err)
	assert.True(t, info.IsDir())

	info, err = os.Stat(filepath.Join(suite.dir, "images"))
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}

func (suite *fileStoreSuite) TestReadAll() {
	tests := []struct {
		name    string
		content *string
	}{
		{
			name:    "missing file: empty",
			content: nil,
		},
		{
			name:    "corrupt file: empty",
			content: lo.ToPtr("{not json"),
		},
		{
			name:    "json null: empty",
			content: lo.ToPtr("null"),
		},
		{
			name:    "unknown state: empty",
			content: lo.ToPtr(`[{"id":"1","name":"a","owner":"b","state":"lost"}]`),
		},
	}

	for _, tt := range tests {
		suite.Run(tt.name, func() {
			t := suite.T()
			_ = os.Remove(suite.dataFile())
			if tt.content != nil {
				require.NoError(t, os.WriteFile(suite.dataFile(), []byte(*tt.content), 0o644))
			}

			orders := suite.store.ReadAll(t.Context())
			assert.NotNil(t, orders)
			assert.Empty(t, orders)
		})
	}
}

func (suite *fileStoreSuite) TestReplaceAllRoundTrip() {
	t := suite.T()
	ctx := t.Context()

	expected := []models.Order{randomOrder(), randomOrder(), randomOrder()}
	expected[1].ImagePath = lo.ToPtr("abc.png")

	require.NoError(t, suite.store.ReplaceAll(ctx, expected))

	actual := suite.store.ReadAll(ctx)
	assert.Empty(t, cmp.Diff(expected, actual, cmpopts.EquateEmpty()))

	raw, err := os.ReadFile(suite.dataFile())
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(raw), "[\n  {"), "document is pretty-printed")
}

func (suite *fileStoreSuite) TestReplaceAllFileMode() {
	t := suite.T()
	ctx := t.Context()

	require.NoError(t, suite.store.ReplaceAll(ctx, []models.Order{randomOrder()}))
	info, err := os.Stat(suite.dataFile())
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o644), info.Mode().Perm())

	require.NoError(t, suite.store.ReplaceAll(ctx, nil))
	info, err = os.Stat(suite.dataFile())
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o644), info.Mode().Perm())
}

func (suite *fileStoreSuite) TestReplaceAllDropsImageURL() {
	t := suite.T()
	ctx := t.Context()

	o := randomOrder()
	o.ImagePath = lo.ToPtr("x.jpg")
	o.ImageURL = "http://example.com/x.jpg"
	require.NoError(t, suite.store.ReplaceAll(ctx, []models.Order{o}))

	raw, err := os.ReadFile(suite.dataFile())
	require.NoError(t, err)
	assert.NotContains(t, string(raw), "imageUrl")
}

func (suite *fileStoreSuite) TestCreate() {
	tests := []struct {
		name      string
		draft     models.OrderDraft
		wantState models.OrderState
		wantError error
	}{
		{
			name:      "required fields only: defaults applied",
			draft:     models.OrderDraft{Name: "Alpha", Owner: "Bob"},
			wantState: models.OrderStateNew,
		},
		{
			name:      "explicit state kept",
			draft:     models.OrderDraft{Name: "Beta", Owner: "Ann", State: models.OrderStateOTW},
			wantState: models.OrderStateOTW,
		},
		{
			name:      "missing name: fail",
			draft:     models.OrderDraft{Owner: "Bob"},
			wantError: models.ErrNameRequired,
		},
		{
			name:      "blank owner: fail",
			draft:     models.OrderDraft{Name: "Alpha", Owner: "  "},
			wantError: models.ErrOwnerRequired,
		},
	}

	for _, tt := range tests {
		suite.Run(tt.name, func() {
			t := suite.T()
			ctx := t.Context()

			before := time.Now().UTC()
			order, err := suite.store.Create(ctx, tt.draft)
			if tt.wantError != nil {
				require.ErrorIs(t, err, tt.wantError)
				return
			}
			require.NoError(t, err)

			assert.NotEmpty(t, order.ID)
			assert.Equal(t, tt.draft.Name, order.Name)
			assert.Equal(t, tt.draft.Owner, order.Owner)
			assert.Equal(t, tt.wantState, order.State)
			assert.False(t, order.Paid)
			assert.Nil(t, order.ImagePath)
			assert.False(t, order.Date.Before(before.Add(-time.Second)))
			assert.False(t, order.Date.After(time.Now().UTC().Add(time.Second)))

			stored, err := suite.store.Get(ctx, order.ID)
			require.NoError(t, err)
			assert.Empty(t, cmp.Diff(order, stored))
		})
	}
}

func (suite *fileStoreSuite) TestListTwoCreates() {
	t := suite.T()
	ctx := t.Context()

	first, err := suite.store.Create(ctx, randomDraft())
	require.NoError(t, err)
	second, err := suite.store.Create(ctx, randomDraft())
	require.NoError(t, err)

	orders, err := suite.store.List(ctx)
	require.NoError(t, err)
	require.Len(t, orders, 2)
	assert.NotEqual(t, orders[0].ID, orders[1].ID)
	assert.Equal(t, first.ID, orders[0].ID)
	assert.Equal(t, second.ID, orders[1].ID)
}

func (suite *fileStoreSuite) TestListSortsByDate() {
	t := suite.T()
	ctx := t.Context()

	older := randomOrder()
	newer := randomOrder()
	older.Date = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	newer.Date = time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	require.NoError(t, suite.store.ReplaceAll(ctx, []models.Order{newer, older}))

	orders, err := suite.store.List(ctx)
	require.NoError(t, err)
	require.Len(t, orders, 2)
	assert.Equal(t, older.ID, orders[0].ID)
	assert.Equal(t, newer.ID, orders[1].ID)
}

func (suite *fileStoreSuite) TestUpdate() {
	t := suite.T()
	ctx := t.Context()

	created, err := suite.store.Create(ctx, randomDraft())
	require.NoError(t, err)
	other, err := suite.store.Create(ctx, randomDraft())
	require.NoError(t, err)

	updated, err := suite.store.Update(ctx, created.ID, models.OrderPatch{Owner: lo.ToPtr("X")})
	require.NoError(t, err)
	assert.Equal(t, "X", updated.Owner)

	orders, err := suite.store.List(ctx)
	require.NoError(t, err)

	matches := lo.Filter(orders, func(o models.Order, _ int) bool { return o.ID == created.ID })
	require.Len(t, matches, 1)

	expected := created
	expected.Owner = "X"
	assert.Empty(t, cmp.Diff(expected, matches[0]))

	untouched, err := suite.store.Get(ctx, other.ID)
	require.NoError(t, err)
	assert.Empty(t, cmp.Diff(other, untouched))
}

func (suite *fileStoreSuite) TestUpdateUnknownID() {
	t := suite.T()
	ctx := t.Context()

	_, err := suite.store.Create(ctx, randomDraft())
	require.NoError(t, err)
	before, err := os.ReadFile(suite.dataFile())
	require.NoError(t, err)

	_, err = suite.store.Update(ctx, "missing", models.OrderPatch{Owner: lo.ToPtr("X")})
	require.ErrorIs(t, err, port.ErrNotFound)

	after, err := os.ReadFile(suite.dataFile())
	require.NoError(t, err)
	assert.Equal(t, string(before), string(after))
}

func (suite *fileStoreSuite) TestDelete() {
	t := suite.T()
	ctx := t.Context()

	created, err := suite.store.Create(ctx, randomDraft())
	require.NoError(t, err)

	removed, err := suite.store.Delete(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, created.ID, removed.ID)

	orders, err := suite.store.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, orders)

	_, err = suite.store.Delete(ctx, created.ID)
	assert.ErrorIs(t, err, port.ErrNotFound)
}

func (suite *fileStoreSuite) TestBlobs() {
	t := suite.T()
	ctx := t.Context()

	path, err := suite.store.Upload(ctx, "photo.png", "image/png", strings.NewReader("png-bytes"))
	require.NoError(t, err)
	assert.Equal(t, "photo.png", path)
	assert.Equal(t, "http://localhost:8080/images/photo.png", suite.store.ResolveURL(path))

	exists, err := suite.store.Exists(ctx, path)
	require.NoError(t, err)
	assert.True(t, exists)

	require.NoError(t, suite.store.Remove(ctx, path))

	exists, err = suite.store.Exists(ctx, path)
	require.NoError(t, err)
	assert.False(t, exists)

	assert.Error(t, suite.store.Remove(ctx, path))
}

func (suite *fileStoreSuite) TestUploadRejectsNestedNames() {
	_, err := suite.store.Upload(suite.T().Context(), "../escape.png", "image/png", strings.NewReader("x"))
	suite.Error(err)
}

func randomDraft() models.OrderDraft {
	return models.OrderDraft{
		Name:   gofakeit.Company(),
		Member: gofakeit.Name(),
		Source: gofakeit.DomainName(),
		Note:   gofakeit.Sentence(6),
		Owner:  gofakeit.FirstName(),
	}
}

func randomOrder() models.Order {
	states := models.OrderStates()
	return models.Order{
		ID:     gofakeit.UUID(),
		Name:   gofakeit.Company(),
		Member: gofakeit.Name(),
		Source: gofakeit.DomainName(),
		Note:   gofakeit.Sentence(6),
		Owner:  gofakeit.FirstName(),
		Date:   gofakeit.Date().UTC().Truncate(time.Second),
		State:  states[gofakeit.Number(0, len(states)-1)],
		Paid:   gofakeit.Bool(),
	}
}
