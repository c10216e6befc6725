package catalog

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/ashendes/restaurant-ordering/internal/metrics"
	"github.com/ashendes/restaurant-ordering/internal/models"
	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

// Defaults match the partner API limits
const (
	DefaultPageSize          = 100
	DefaultMaxPages          = 10
	DefaultDetailConcurrency = 8
	TopDishCount             = 3
)

// Source is the subset of the partner API the aggregator reads from
type Source interface {
	FetchItemList(ctx context.Context, page, count int) (*models.ItemListResponse, error)
	FetchItemsByFilter(ctx context.Context, filter models.FilterRequest) (*models.FilterResponse, error)
	FetchItemDetails(ctx context.Context, itemID string) (*models.ItemDetailsResponse, error)
}

// Options tunes paging and backfill concurrency
type Options struct {
	PageSize          int
	MaxPages          int
	DetailConcurrency int
}

// Aggregator merges paginated catalog responses into one deduplicated catalog
type Aggregator struct {
	source            Source
	pageSize          int
	maxPages          int
	detailConcurrency int
	now               func() time.Time
}

// NewAggregator creates an aggregator, filling zero options with defaults.
// Page size and page count never exceed the partner API limits.
func NewAggregator(source Source, opts Options) *Aggregator {
	a := &Aggregator{
		source:            source,
		pageSize:          opts.PageSize,
		maxPages:          opts.MaxPages,
		detailConcurrency: opts.DetailConcurrency,
		now:               time.Now,
	}
	if a.pageSize <= 0 || a.pageSize > DefaultPageSize {
		a.pageSize = DefaultPageSize
	}
	if a.maxPages <= 0 || a.maxPages > DefaultMaxPages {
		a.maxPages = DefaultMaxPages
	}
	if a.detailConcurrency <= 0 {
		a.detailConcurrency = DefaultDetailConcurrency
	}
	return a
}

// FetchCatalog fetches page 1, then pages 2..min(total_pages, maxPages)
// concurrently. Each page lands in its own slot and the merge runs only after
// every fetch has returned. Any failed page fails the whole call.
func (a *Aggregator) FetchCatalog(ctx context.Context) (*models.Catalog, error) {
	first, err := a.source.FetchItemList(ctx, 1, a.pageSize)
	if err != nil {
		return nil, fmt.Errorf("fetch catalog page 1: %w", err)
	}
	metrics.CatalogPagesFetched.Inc()

	pages := []*models.ItemListResponse{first}

	last := first.TotalPages
	if last > a.maxPages {
		last = a.maxPages
	}
	if last > 1 {
		rest := make([]*models.ItemListResponse, last-1)

		g, gctx := errgroup.WithContext(ctx)
		for page := 2; page <= last; page++ {
			page := page
			g.Go(func() error {
				resp, err := a.source.FetchItemList(gctx, page, a.pageSize)
				if err != nil {
					return fmt.Errorf("fetch catalog page %d: %w", page, err)
				}
				rest[page-2] = resp
				metrics.CatalogPagesFetched.Inc()
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			log.WithFields(log.Fields{
				"total_pages": first.TotalPages,
				"fetched":     last,
			}).Error("Catalog fetch failed: ", err)
			return nil, err
		}
		pages = append(pages, rest...)
	}

	catalog := Merge(pages)
	catalog.FetchedAt = a.now()

	log.WithFields(log.Fields{
		"pages":       len(pages),
		"total_pages": first.TotalPages,
		"cuisines":    len(catalog.Cuisines),
	}).Info("Catalog merged")

	return catalog, nil
}

// Merge keeps the first occurrence of every cuisine id, walking pages in order.
// It must be called from a single goroutine.
func Merge(pages []*models.ItemListResponse) *models.Catalog {
	seen := make(map[string]struct{})
	cuisines := make([]models.Cuisine, 0)
	dropped := 0

	for _, page := range pages {
		if page == nil {
			continue
		}
		for _, resp := range page.Cuisines {
			id := resp.CuisineID.String()
			if _, dup := seen[id]; dup {
				dropped++
				continue
			}
			seen[id] = struct{}{}
			cuisines = append(cuisines, resp.ToCuisine())
		}
	}

	metrics.CatalogCuisines.Set(float64(len(cuisines)))
	metrics.CatalogDuplicatesDropped.Add(float64(dropped))

	return &models.Catalog{
		Cuisines:  cuisines,
		TopDishes: TopDishes(cuisines, TopDishCount),
		Index:     models.NewCuisineIndex(cuisines),
	}
}

// TopDishes returns the n best-rated dishes; equal ratings keep merge order
func TopDishes(cuisines []models.Cuisine, n int) []models.Dish {
	all := make([]models.Dish, 0)
	for _, c := range cuisines {
		all = append(all, c.Dishes...)
	}
	sort.SliceStable(all, func(i, j int) bool {
		return all[i].Rating > all[j].Rating
	})
	if len(all) > n {
		all = all[:n]
	}
	return all
}
