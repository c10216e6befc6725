package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// OrderRecord is the immutable receipt of a successfully paid order
type OrderRecord struct {
	ID            string          `json:"id"`
	TransactionID string          `json:"transaction_id"`
	Items         []CartItem      `json:"items"`
	GrandTotal    decimal.Decimal `json:"grand_total"`
	Date          time.Time       `json:"date"`
}

// Order outcome labels
const (
	OrderStatusCompleted  = "completed"
	OrderStatusFailed     = "failed"
	OrderStatusRejected   = "rejected"
	OrderStatusEmptyCart  = "empty_cart"
	OrderStatusInvalidIDs = "invalid_identifier"
)

// PaymentItem is one line of a payment request. Field order is part of the
// wire contract: cuisine_id, item_id, item_price, item_quantity.
type PaymentItem struct {
	CuisineID    int `json:"cuisine_id"`
	ItemID       int `json:"item_id"`
	ItemPrice    int `json:"item_price"`
	ItemQuantity int `json:"item_quantity"`
}

// PaymentRequest is the make_payment body. Field order is part of the wire
// contract: total_amount, total_items, data.
type PaymentRequest struct {
	TotalAmount string        `json:"total_amount"`
	TotalItems  int           `json:"total_items"`
	Data        []PaymentItem `json:"data"`
}

// PaymentResponse is the make_payment reply
type PaymentResponse struct {
	ResponseCode    int    `json:"response_code"`
	OutcomeCode     int    `json:"outcome_code"`
	ResponseMessage string `json:"response_message"`
	TxnRefNo        string `json:"txn_ref_no"`
}

// FormatAmount renders a whole amount as a bare integer and anything else with two decimals
func FormatAmount(amount decimal.Decimal) string {
	if amount.Equal(amount.Truncate(0)) {
		return amount.Truncate(0).String()
	}
	return amount.StringFixed(2)
}
