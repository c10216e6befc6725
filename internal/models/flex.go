package models

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

type scalarKind int

const (
	scalarString scalarKind = iota
	scalarInteger
	scalarFloat
)

// normalizeScalar tries string, then integer, then float and returns the value
// in its canonical text form. ok is false for null, bools, objects and arrays.
func normalizeScalar(raw []byte) (text string, kind scalarKind, ok bool) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return "", 0, false
	}

	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return strings.TrimSpace(s), scalarString, true
	}

	var i int64
	if err := json.Unmarshal(raw, &i); err == nil {
		return strconv.FormatInt(i, 10), scalarInteger, true
	}

	var f float64
	if err := json.Unmarshal(raw, &f); err == nil {
		return strconv.FormatFloat(f, 'f', -1, 64), scalarFloat, true
	}

	return "", 0, false
}

// FlexID is an identifier sent either as a JSON string or a JSON integer.
// It always holds the string form.
type FlexID string

// UnmarshalJSON accepts "12", 12 and 12.0; anything else is a MalformedFieldError.
func (id *FlexID) UnmarshalJSON(data []byte) error {
	text, kind, ok := normalizeScalar(data)
	if !ok {
		return &MalformedFieldError{Field: "identifier", Raw: string(data)}
	}
	if kind == scalarFloat {
		f, err := strconv.ParseFloat(text, 64)
		if err != nil || f != math.Trunc(f) {
			return &MalformedFieldError{Field: "identifier", Raw: string(data)}
		}
		text = strconv.FormatFloat(f, 'f', 0, 64)
	}
	*id = FlexID(text)
	return nil
}

func (id FlexID) String() string {
	return string(id)
}

// FlexDecimal is a price or rating sent as a string, an integer or a float.
// Values that match none of those decode to zero instead of failing the payload.
type FlexDecimal struct {
	decimal.Decimal
}

// UnmarshalJSON never fails; unparseable input leaves the value at zero.
func (d *FlexDecimal) UnmarshalJSON(data []byte) error {
	d.Decimal = decimal.Zero

	text, _, ok := normalizeScalar(data)
	if !ok || text == "" {
		return nil
	}

	parsed, err := decimal.NewFromString(text)
	if err != nil {
		return nil
	}
	d.Decimal = parsed
	return nil
}

// NewFlexDecimal wraps a float for building payloads in tests and the emulator
func NewFlexDecimal(v float64) FlexDecimal {
	return FlexDecimal{Decimal: decimal.NewFromFloat(v)}
}
