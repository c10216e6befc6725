package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Dish represents a purchasable catalog item
type Dish struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Image       string          `json:"image"`
	Price       decimal.Decimal `json:"price"`
	Rating      float64         `json:"rating"`
	CuisineType string          `json:"cuisine_type"`
	CuisineID   string          `json:"cuisine_id,omitempty"`
}

// NeedsDetails reports whether the catalog left price or rating unset
func (d Dish) NeedsDetails() bool {
	return d.Price.IsZero() || d.Rating == 0
}

// Cuisine represents a named grouping of dishes
type Cuisine struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Image  string `json:"image"`
	Dishes []Dish `json:"dishes"`
}

// Catalog is the merged, deduplicated result of a catalog fetch
type Catalog struct {
	Cuisines  []Cuisine    `json:"cuisines"`
	TopDishes []Dish       `json:"top_dishes"`
	FetchedAt time.Time    `json:"fetched_at"`
	Index     CuisineIndex `json:"-"`
}

// DishByID looks in the top dishes first, then in every cuisine
func (c *Catalog) DishByID(id string) (Dish, bool) {
	if c == nil {
		return Dish{}, false
	}
	for _, d := range c.TopDishes {
		if d.ID == id {
			return d, true
		}
	}
	for _, cuisine := range c.Cuisines {
		for _, d := range cuisine.Dishes {
			if d.ID == id {
				return d, true
			}
		}
	}
	return Dish{}, false
}

// CuisineByID returns the cuisine with the given catalog identifier
func (c *Catalog) CuisineByID(id string) (Cuisine, bool) {
	if c == nil {
		return Cuisine{}, false
	}
	for _, cuisine := range c.Cuisines {
		if cuisine.ID == id {
			return cuisine, true
		}
	}
	return Cuisine{}, false
}
