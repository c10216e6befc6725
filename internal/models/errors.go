package models

import (
	"errors"
	"fmt"
)

// Transport and decoding errors returned by the partner API client
var (
	ErrInvalidURL      = errors.New("invalid url")
	ErrRequestFailed   = errors.New("request failed")
	ErrInvalidResponse = errors.New("invalid response")
	ErrServer          = errors.New("server error")
	ErrDecodingFailed  = errors.New("decoding failed")
	ErrMalformedField  = errors.New("malformed field")
)

// Domain errors returned by the catalog and order pipeline
var (
	ErrEmptyCart           = errors.New("cart is empty")
	ErrInvalidIdentifier   = errors.New("invalid identifier")
	ErrNoMatchingCuisine   = errors.New("no matching cuisine")
	ErrPlacementInProgress = errors.New("order placement already in progress")
)

// ServerError carries the message of a non-2xx partner response
type ServerError struct {
	StatusCode int
	Message    string
}

func (e *ServerError) Error() string {
	return fmt.Sprintf("server error: %s", e.Message)
}

func (e *ServerError) Is(target error) bool {
	return target == ErrServer
}

// MalformedFieldError reports a field that matched none of its accepted representations
type MalformedFieldError struct {
	Field string
	Raw   string
}

func (e *MalformedFieldError) Error() string {
	return fmt.Sprintf("malformed field %q: %s", e.Field, e.Raw)
}

func (e *MalformedFieldError) Is(target error) bool {
	return target == ErrMalformedField
}

// InvalidIdentifierError names the dish whose ids cannot be sent to the payment endpoint
type InvalidIdentifierError struct {
	Dish   Dish
	Reason string
}

func (e *InvalidIdentifierError) Error() string {
	return fmt.Sprintf("invalid identifier for dish %q (id %s): %s", e.Dish.Name, e.Dish.ID, e.Reason)
}

func (e *InvalidIdentifierError) Is(target error) bool {
	return target == ErrInvalidIdentifier
}
