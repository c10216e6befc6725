package catalog

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/ashendes/restaurant-ordering/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSource struct {
	mu        sync.Mutex
	pages     map[int]*models.ItemListResponse
	pageErr   map[int]error
	delay     map[int]time.Duration
	filter    *models.FilterResponse
	filterErr error
	details   map[string]*models.ItemDetailsResponse
	detailErr map[string]error
	requested []int
	detailIDs []string
}

func (f *fakeSource) FetchItemList(ctx context.Context, page, count int) (*models.ItemListResponse, error) {
	f.mu.Lock()
	f.requested = append(f.requested, page)
	delay := f.delay[page]
	f.mu.Unlock()

	if delay > 0 {
		time.Sleep(delay)
	}
	if err := f.pageErr[page]; err != nil {
		return nil, err
	}
	resp, ok := f.pages[page]
	if !ok {
		return nil, fmt.Errorf("no page %d", page)
	}
	return resp, nil
}

func (f *fakeSource) FetchItemsByFilter(ctx context.Context, filter models.FilterRequest) (*models.FilterResponse, error) {
	if f.filterErr != nil {
		return nil, f.filterErr
	}
	return f.filter, nil
}

func (f *fakeSource) FetchItemDetails(ctx context.Context, itemID string) (*models.ItemDetailsResponse, error) {
	f.mu.Lock()
	f.detailIDs = append(f.detailIDs, itemID)
	f.mu.Unlock()

	if err := f.detailErr[itemID]; err != nil {
		return nil, err
	}
	resp, ok := f.details[itemID]
	if !ok {
		return nil, fmt.Errorf("no item %s", itemID)
	}
	return resp, nil
}

func item(id string, rating float64) models.ItemResponse {
	return models.ItemResponse{
		ID:       models.FlexID(id),
		Name:     "item-" + id,
		ImageURL: "img-" + id,
		Price:    models.NewFlexDecimal(100),
		Rating:   models.NewFlexDecimal(rating),
	}
}

func cuisine(id, name string, items ...models.ItemResponse) models.CuisineResponse {
	return models.CuisineResponse{CuisineID: models.FlexID(id), CuisineName: name, CuisineImageURL: "c-" + id, Items: items}
}

func page(n, total int, cuisines ...models.CuisineResponse) *models.ItemListResponse {
	return &models.ItemListResponse{Page: n, TotalPages: total, Cuisines: cuisines}
}

func cuisineIDs(c *models.Catalog) []string {
	ids := make([]string, 0, len(c.Cuisines))
	for _, cu := range c.Cuisines {
		ids = append(ids, cu.ID)
	}
	return ids
}

func TestFetchCatalog_MergesOverlappingPages(t *testing.T) {
	src := &fakeSource{
		pages: map[int]*models.ItemListResponse{
			1: page(1, 3, cuisine("1", "A", item("11", 4)), cuisine("2", "B", item("21", 3))),
			2: page(2, 3, cuisine("2", "B-page2", item("22", 5)), cuisine("3", "C", item("31", 2))),
			3: page(3, 3, cuisine("4", "D", item("41", 1))),
		},
		// page 3 completes before page 2; the merge must not depend on arrival order
		delay: map[int]time.Duration{2: 30 * time.Millisecond},
	}

	agg := NewAggregator(src, Options{})
	got, err := agg.FetchCatalog(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []string{"1", "2", "3", "4"}, cuisineIDs(got))
	assert.Equal(t, "B", got.Cuisines[1].Name)
	require.Len(t, got.Cuisines[1].Dishes, 1)
	assert.Equal(t, "21", got.Cuisines[1].Dishes[0].ID)
	assert.Equal(t, 4, got.Index.Len())
	assert.False(t, got.FetchedAt.IsZero())
}

func TestFetchCatalog_SinglePage(t *testing.T) {
	src := &fakeSource{pages: map[int]*models.ItemListResponse{
		1: page(1, 1, cuisine("1", "A"), cuisine("1", "A-dup")),
	}}

	got, err := NewAggregator(src, Options{}).FetchCatalog(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"1"}, cuisineIDs(got))
	assert.Equal(t, []int{1}, src.requested)
}

func TestFetchCatalog_CapsPages(t *testing.T) {
	tests := []struct {
		name     string
		maxPages int
	}{
		{name: "default cap", maxPages: 10},
		{name: "configured above hard cap", maxPages: 50},
	}

	for _, testCase := range tests {
		t.Run(testCase.name, func(t *testing.T) {
			pages := map[int]*models.ItemListResponse{}
			for i := 1; i <= 50; i++ {
				pages[i] = page(i, 50, cuisine(fmt.Sprint(i), fmt.Sprint("C", i)))
			}
			src := &fakeSource{pages: pages}

			got, err := NewAggregator(src, Options{MaxPages: testCase.maxPages}).FetchCatalog(context.Background())
			require.NoError(t, err)
			assert.Len(t, got.Cuisines, 10)
			assert.Len(t, src.requested, 10)
			assert.NotContains(t, src.requested, 11)
		})
	}
}

func TestFetchCatalog_PageFailureFailsWhole(t *testing.T) {
	boom := errors.New("page down")
	src := &fakeSource{
		pages: map[int]*models.ItemListResponse{
			1: page(1, 3, cuisine("1", "A")),
			3: page(3, 3, cuisine("3", "C")),
		},
		pageErr: map[int]error{2: boom},
	}

	got, err := NewAggregator(src, Options{}).FetchCatalog(context.Background())
	require.Error(t, err)
	assert.Nil(t, got)
	assert.ErrorIs(t, err, boom)
}

func TestFetchCatalog_FirstPageFailure(t *testing.T) {
	src := &fakeSource{pageErr: map[int]error{1: models.ErrInvalidResponse}}

	_, err := NewAggregator(src, Options{}).FetchCatalog(context.Background())
	assert.ErrorIs(t, err, models.ErrInvalidResponse)
}

func TestTopDishes_StableByRating(t *testing.T) {
	cuisines := []models.Cuisine{
		{ID: "1", Dishes: []models.Dish{{ID: "a", Rating: 4.5}, {ID: "b", Rating: 3}}},
		{ID: "2", Dishes: []models.Dish{{ID: "c", Rating: 4.5}, {ID: "d", Rating: 4.9}}},
		{ID: "3", Dishes: []models.Dish{{ID: "e", Rating: 4.5}}},
	}

	top := TopDishes(cuisines, 3)
	require.Len(t, top, 3)
	assert.Equal(t, "d", top[0].ID)
	assert.Equal(t, "a", top[1].ID)
	assert.Equal(t, "c", top[2].ID)

	assert.Len(t, TopDishes(cuisines[:1], 3), 2)
}
