package models

import "github.com/shopspring/decimal"

// Tax rates applied to the pre-tax total
var (
	CGSTRate = decimal.RequireFromString("0.025")
	SGSTRate = decimal.RequireFromString("0.025")
)

// CartItem is one distinct dish in the cart
type CartItem struct {
	ID       string `json:"id"`
	Dish     Dish   `json:"dish"`
	Quantity int    `json:"quantity"`
}

// Subtotal returns price times quantity
func (i CartItem) Subtotal() decimal.Decimal {
	return i.Dish.Price.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

// Cart holds items in first-added order. No two items share a dish id and
// every quantity is at least 1.
type Cart struct {
	Items []CartItem `json:"items"`
}

func (c *Cart) indexOf(dishID string) int {
	for i, item := range c.Items {
		if item.Dish.ID == dishID {
			return i
		}
	}
	return -1
}

// AddDish increments the dish's quantity, appending it with quantity 1 if absent
func (c *Cart) AddDish(d Dish) {
	if i := c.indexOf(d.ID); i >= 0 {
		c.Items[i].Quantity++
		return
	}
	c.Items = append(c.Items, CartItem{ID: d.ID, Dish: d, Quantity: 1})
}

// RemoveDish decrements the dish's quantity and deletes it when it reaches 0
func (c *Cart) RemoveDish(d Dish) {
	i := c.indexOf(d.ID)
	if i < 0 {
		return
	}
	if c.Items[i].Quantity > 1 {
		c.Items[i].Quantity--
		return
	}
	c.deleteAt(i)
}

// SetQuantity sets an existing item's quantity. Negative values clamp to 0 and
// 0 deletes the item. Dishes not in the cart are ignored.
func (c *Cart) SetQuantity(d Dish, n int) {
	i := c.indexOf(d.ID)
	if i < 0 {
		return
	}
	if n <= 0 {
		c.deleteAt(i)
		return
	}
	c.Items[i].Quantity = n
}

// Clear removes all items
func (c *Cart) Clear() {
	c.Items = nil
}

func (c *Cart) deleteAt(i int) {
	c.Items = append(c.Items[:i:i], c.Items[i+1:]...)
}

// IsEmpty reports whether the cart has no items
func (c *Cart) IsEmpty() bool {
	return len(c.Items) == 0
}

// Quantity returns the cart quantity for a dish id, 0 when absent
func (c *Cart) Quantity(dishID string) int {
	if i := c.indexOf(dishID); i >= 0 {
		return c.Items[i].Quantity
	}
	return 0
}

// TotalItems is the sum of all quantities
func (c *Cart) TotalItems() int {
	total := 0
	for _, item := range c.Items {
		total += item.Quantity
	}
	return total
}

// TotalPrice is the pre-tax total
func (c *Cart) TotalPrice() decimal.Decimal {
	total := decimal.Zero
	for _, item := range c.Items {
		total = total.Add(item.Subtotal())
	}
	return total
}

func (c *Cart) CGST() decimal.Decimal {
	return c.TotalPrice().Mul(CGSTRate)
}

func (c *Cart) SGST() decimal.Decimal {
	return c.TotalPrice().Mul(SGSTRate)
}

// GrandTotal is the total price plus both tax components
func (c *Cart) GrandTotal() decimal.Decimal {
	return c.TotalPrice().Add(c.CGST()).Add(c.SGST())
}

// Snapshot returns a copy that shares no backing array with the cart
func (c *Cart) Snapshot() Cart {
	if len(c.Items) == 0 {
		return Cart{}
	}
	items := make([]CartItem, len(c.Items))
	copy(items, c.Items)
	return Cart{Items: items}
}
