package order

import (
	"github.com/ashendes/restaurant-ordering/internal/models"
)

// BuildPaymentRequest converts a cart into the make_payment body. Item prices
// are rounded to whole units because the endpoint has no fractional currency.
func BuildPaymentRequest(cart models.Cart, index models.CuisineIndex) (models.PaymentRequest, error) {
	if cart.IsEmpty() {
		return models.PaymentRequest{}, models.ErrEmptyCart
	}

	data := make([]models.PaymentItem, 0, len(cart.Items))
	for _, item := range cart.Items {
		cuisineID, err := index.NumericCuisineID(item.Dish)
		if err != nil {
			return models.PaymentRequest{}, err
		}
		itemID, err := models.NumericDishID(item.Dish)
		if err != nil {
			return models.PaymentRequest{}, err
		}

		data = append(data, models.PaymentItem{
			CuisineID:    cuisineID,
			ItemID:       itemID,
			ItemPrice:    int(item.Dish.Price.Round(0).IntPart()),
			ItemQuantity: item.Quantity,
		})
	}

	return models.PaymentRequest{
		TotalAmount: models.FormatAmount(cart.GrandTotal()),
		TotalItems:  cart.TotalItems(),
		Data:        data,
	}, nil
}
