package emulator

import "github.com/shopspring/decimal"

// FixtureItem is stored with complete data. Fields marked sparse are left
// out of list and filter responses, the way the partner API sometimes does.
type FixtureItem struct {
	ID          interface{}
	Name        string
	ImageURL    string
	Price       decimal.Decimal
	Rating      decimal.Decimal
	PriceString bool
	SparseList  bool
}

type FixtureCuisine struct {
	ID       interface{}
	Name     string
	ImageURL string
	Items    []FixtureItem
}

func price(s string) decimal.Decimal { return decimal.RequireFromString(s) }

// DefaultCatalog mixes string and numeric identifiers and prices so clients
// exercise the lenient decoder.
func DefaultCatalog() []FixtureCuisine {
	return []FixtureCuisine{
		{
			ID: 1, Name: "North Indian", ImageURL: "https://img.example.com/cuisines/north-indian.jpg",
			Items: []FixtureItem{
				{ID: 101, Name: "Butter Chicken", Price: price("320"), Rating: price("4.6")},
				{ID: "102", Name: "Dal Makhani", Price: price("240"), Rating: price("4.4"), PriceString: true},
				{ID: 103, Name: "Paneer Tikka", Price: price("280.5"), Rating: price("4.2"), SparseList: true},
			},
		},
		{
			ID: "2", Name: "Chinese", ImageURL: "https://img.example.com/cuisines/chinese.jpg",
			Items: []FixtureItem{
				{ID: "201", Name: "Hakka Noodles", Price: price("180"), Rating: price("4.1")},
				{ID: 202, Name: "Manchurian", Price: price("199.99"), Rating: price("3.9"), PriceString: true},
			},
		},
		{
			ID: 3, Name: "Mexican", ImageURL: "https://img.example.com/cuisines/mexican.jpg",
			Items: []FixtureItem{
				{ID: 301, Name: "Tacos", Price: price("150"), Rating: price("4.3")},
				{ID: "302", Name: "Burrito Bowl", Price: price("260"), Rating: price("4.7"), SparseList: true},
			},
		},
		{
			ID: "4", Name: "South Indian", ImageURL: "https://img.example.com/cuisines/south-indian.jpg",
			Items: []FixtureItem{
				{ID: 401, Name: "Masala Dosa", Price: price("120"), Rating: price("4.8")},
				{ID: 402, Name: "Idli Sambar", Price: price("90"), Rating: price("4.5")},
			},
		},
		{
			ID: 5, Name: "Italian", ImageURL: "https://img.example.com/cuisines/italian.jpg",
			Items: []FixtureItem{
				{ID: "501", Name: "Margherita Pizza", Price: price("350"), Rating: price("4.0"), PriceString: true},
				{ID: 502, Name: "Pasta Arrabbiata", Price: price("300"), Rating: price("3.8")},
			},
		},
	}
}
