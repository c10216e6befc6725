package models

import "github.com/shopspring/decimal"

// MaxRating is the top of the rating scale
const MaxRating = 5

// Partner API actions, sent in the X-Forward-Proxy-Action header
const (
	ActionGetItemList     = "get_item_list"
	ActionGetItemByFilter = "get_item_by_filter"
	ActionGetItemByID     = "get_item_by_id"
	ActionMakePayment     = "make_payment"
)

// ItemListRequest asks for one catalog page
type ItemListRequest struct {
	Page  int `json:"page"`
	Count int `json:"count"`
}

// PriceRange bounds a filter request
type PriceRange struct {
	Min int `json:"min"`
	Max int `json:"max"`
}

// FilterRequest narrows the catalog; every field is optional
type FilterRequest struct {
	CuisineType []string    `json:"cuisine_type,omitempty"`
	PriceRange  *PriceRange `json:"price_range,omitempty"`
	MinRating   *float64    `json:"min_rating,omitempty"`
}

// ItemDetailsRequest asks for a single item
type ItemDetailsRequest struct {
	ItemID string `json:"item_id"`
}

// ItemResponse is a dish as the partner API sends it
type ItemResponse struct {
	ID       FlexID      `json:"id"`
	Name     string      `json:"name"`
	ImageURL string      `json:"image_url"`
	Price    FlexDecimal `json:"price"`
	Rating   FlexDecimal `json:"rating"`
}

// ToDish converts the item into a Dish owned by the given cuisine
func (i ItemResponse) ToDish(cuisineID, cuisineName string) Dish {
	return Dish{
		ID:          i.ID.String(),
		Name:        i.Name,
		Image:       i.ImageURL,
		Price:       validPrice(i.Price.Decimal),
		Rating:      validRating(i.Rating.Decimal),
		CuisineType: cuisineName,
		CuisineID:   cuisineID,
	}
}

// CuisineResponse is a cuisine with its items
type CuisineResponse struct {
	CuisineID       FlexID         `json:"cuisine_id"`
	CuisineName     string         `json:"cuisine_name"`
	CuisineImageURL string         `json:"cuisine_image_url"`
	Items           []ItemResponse `json:"items"`
}

// ToCuisine converts the response into a Cuisine, tagging each dish with it
func (c CuisineResponse) ToCuisine() Cuisine {
	dishes := make([]Dish, 0, len(c.Items))
	for _, item := range c.Items {
		dishes = append(dishes, item.ToDish(c.CuisineID.String(), c.CuisineName))
	}
	return Cuisine{
		ID:     c.CuisineID.String(),
		Name:   c.CuisineName,
		Image:  c.CuisineImageURL,
		Dishes: dishes,
	}
}

// Envelope carries the status fields every partner response starts with
type Envelope struct {
	ResponseCode    int    `json:"response_code"`
	OutcomeCode     int    `json:"outcome_code"`
	ResponseMessage string `json:"response_message"`
}

// ItemListResponse is one catalog page
type ItemListResponse struct {
	Envelope
	Page       int               `json:"page"`
	Count      int               `json:"count"`
	TotalPages int               `json:"total_pages"`
	TotalItems int               `json:"total_items"`
	Cuisines   []CuisineResponse `json:"cuisines"`
}

// FilterResponse has the page shape without pagination fields
type FilterResponse struct {
	Envelope
	Cuisines []CuisineResponse `json:"cuisines"`
}

// ItemDetailsResponse is the flat record returned for a single item
type ItemDetailsResponse struct {
	Envelope
	CuisineID       FlexID      `json:"cuisine_id"`
	CuisineName     string      `json:"cuisine_name"`
	CuisineImageURL string      `json:"cuisine_image_url"`
	ItemID          FlexID      `json:"item_id"`
	ItemName        string      `json:"item_name"`
	ItemPrice       FlexDecimal `json:"item_price"`
	ItemRating      FlexDecimal `json:"item_rating"`
	ItemImageURL    string      `json:"item_image_url"`
}

// ToDish converts the detail record into a Dish
func (r ItemDetailsResponse) ToDish() Dish {
	return Dish{
		ID:          r.ItemID.String(),
		Name:        r.ItemName,
		Image:       r.ItemImageURL,
		Price:       validPrice(r.ItemPrice.Decimal),
		Rating:      validRating(r.ItemRating.Decimal),
		CuisineType: r.CuisineName,
		CuisineID:   r.CuisineID.String(),
	}
}

// validPrice treats a negative price as unset
func validPrice(p decimal.Decimal) decimal.Decimal {
	if p.IsNegative() {
		return decimal.Zero
	}
	return p
}

// validRating treats a rating outside [0, MaxRating] as unset
func validRating(r decimal.Decimal) float64 {
	if r.IsNegative() || r.GreaterThan(decimal.NewFromInt(MaxRating)) {
		return 0
	}
	return r.InexactFloat64()
}
