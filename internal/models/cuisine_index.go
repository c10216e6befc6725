package models

import (
	"fmt"
	"strconv"
	"strings"
)

type indexEntry struct {
	numeric int
	valid   bool
}

// CuisineIndex maps cuisine identifiers to the integer ids the payment
// endpoint expects. It is built once when a catalog is loaded.
type CuisineIndex struct {
	entries map[string]indexEntry
	names   map[string]string
}

// NewCuisineIndex indexes cuisines by id and by display name
func NewCuisineIndex(cuisines []Cuisine) CuisineIndex {
	idx := CuisineIndex{
		entries: make(map[string]indexEntry, len(cuisines)),
		names:   make(map[string]string, len(cuisines)),
	}
	for _, c := range cuisines {
		if _, seen := idx.entries[c.ID]; seen {
			continue
		}
		n, err := strconv.Atoi(strings.TrimSpace(c.ID))
		idx.entries[c.ID] = indexEntry{numeric: n, valid: err == nil}
		if _, taken := idx.names[c.Name]; !taken {
			idx.names[c.Name] = c.ID
		}
	}
	return idx
}

// Len returns the number of indexed cuisines
func (x CuisineIndex) Len() int {
	return len(x.entries)
}

// NumericCuisineID resolves the dish's cuisine through its cuisine id, falling
// back to its cuisine display name.
func (x CuisineIndex) NumericCuisineID(d Dish) (int, error) {
	id := d.CuisineID
	if _, ok := x.entries[id]; id == "" || !ok {
		byName, found := x.names[d.CuisineType]
		if !found {
			return 0, &InvalidIdentifierError{
				Dish:   d,
				Reason: fmt.Sprintf("no loaded cuisine matches %q", d.CuisineType),
			}
		}
		id = byName
	}

	entry := x.entries[id]
	if !entry.valid {
		return 0, &InvalidIdentifierError{
			Dish:   d,
			Reason: fmt.Sprintf("cuisine id %q is not an integer", id),
		}
	}
	return entry.numeric, nil
}

// NumericDishID parses the dish identifier as an integer
func NumericDishID(d Dish) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(d.ID))
	if err != nil {
		return 0, &InvalidIdentifierError{
			Dish:   d,
			Reason: fmt.Sprintf("dish id %q is not an integer", d.ID),
		}
	}
	return n, nil
}
