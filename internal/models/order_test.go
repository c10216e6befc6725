package models

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPaymentRequest_FieldOrder(t *testing.T) {
	req := PaymentRequest{
		TotalAmount: "209.98",
		TotalItems:  2,
		Data: []PaymentItem{
			{CuisineID: 1, ItemID: 11, ItemPrice: 100, ItemQuantity: 2},
		},
	}

	body, err := json.Marshal(req)
	require.NoError(t, err)
	assert.Equal(t,
		`{"total_amount":"209.98","total_items":2,"data":[{"cuisine_id":1,"item_id":11,"item_price":100,"item_quantity":2}]}`,
		string(body))
}

func TestCuisineIndex_NumericCuisineID(t *testing.T) {
	idx := NewCuisineIndex([]Cuisine{
		{ID: "1", Name: "Indian"},
		{ID: "2", Name: "Chinese"},
		{ID: "x9", Name: "Fusion"},
	})
	assert.Equal(t, 3, idx.Len())

	tests := []struct {
		name    string
		dish    Dish
		want    int
		wantErr bool
	}{
		{name: "by cuisine id", dish: Dish{ID: "5", CuisineID: "2", CuisineType: "Renamed"}, want: 2},
		{name: "by name fallback", dish: Dish{ID: "5", CuisineType: "Indian"}, want: 1},
		{name: "unknown id falls back to name", dish: Dish{ID: "5", CuisineID: "77", CuisineType: "Chinese"}, want: 2},
		{name: "no match", dish: Dish{ID: "5", CuisineType: "Martian"}, wantErr: true},
		{name: "non numeric cuisine id", dish: Dish{ID: "5", CuisineID: "x9"}, wantErr: true},
	}

	for _, testCase := range tests {
		t.Run(testCase.name, func(t *testing.T) {
			got, err := idx.NumericCuisineID(testCase.dish)
			if testCase.wantErr {
				require.Error(t, err)
				assert.True(t, errors.Is(err, ErrInvalidIdentifier))
				var invalid *InvalidIdentifierError
				require.True(t, errors.As(err, &invalid))
				assert.Equal(t, testCase.dish.ID, invalid.Dish.ID)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, testCase.want, got)
		})
	}
}

func TestNumericDishID(t *testing.T) {
	n, err := NumericDishID(Dish{ID: "123"})
	require.NoError(t, err)
	assert.Equal(t, 123, n)

	_, err = NumericDishID(Dish{ID: "abc"})
	assert.True(t, errors.Is(err, ErrInvalidIdentifier))
}

func TestCatalog_DishByID(t *testing.T) {
	catalog := &Catalog{
		Cuisines: []Cuisine{{ID: "1", Dishes: []Dish{{ID: "a"}, {ID: "b", Name: "from cuisine"}}}},
		TopDishes: []Dish{{ID: "a", Name: "from top"}},
	}

	d, ok := catalog.DishByID("a")
	require.True(t, ok)
	assert.Equal(t, "from top", d.Name)

	d, ok = catalog.DishByID("b")
	require.True(t, ok)
	assert.Equal(t, "from cuisine", d.Name)

	_, ok = catalog.DishByID("zz")
	assert.False(t, ok)

	var empty *Catalog
	_, ok = empty.DishByID("a")
	assert.False(t, ok)
}
