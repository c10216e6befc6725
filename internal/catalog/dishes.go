package catalog

import (
	"context"
	"fmt"
	"strings"

	"github.com/ashendes/restaurant-ordering/internal/metrics"
	"github.com/ashendes/restaurant-ordering/internal/models"
	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

// FetchDishesForCuisine asks the filter endpoint for the cuisine's dishes.
// A non-empty filtered list replaces the preloaded dishes and is backfilled;
// otherwise the preloaded dishes are kept. With nothing preloaded, a missing
// match is ErrNoMatchingCuisine.
func (a *Aggregator) FetchDishesForCuisine(ctx context.Context, cuisine models.Cuisine) ([]models.Dish, error) {
	preloaded := append([]models.Dish(nil), cuisine.Dishes...)
	logger := log.WithFields(log.Fields{
		"cuisine_id":   cuisine.ID,
		"cuisine_name": cuisine.Name,
		"preloaded":    len(preloaded),
	})

	resp, err := a.source.FetchItemsByFilter(ctx, models.FilterRequest{CuisineType: []string{cuisine.Name}})
	if err != nil {
		if len(preloaded) > 0 {
			logger.Warn("Filter fetch failed, keeping preloaded dishes: ", err)
			return preloaded, nil
		}
		return nil, fmt.Errorf("fetch dishes for %s: %w", cuisine.Name, err)
	}

	match, ok := MatchCuisine(resp.Cuisines, cuisine)
	if !ok {
		if len(preloaded) > 0 {
			logger.Info("No matching cuisine in filter response, keeping preloaded dishes")
			return preloaded, nil
		}
		return nil, fmt.Errorf("%w: %s", models.ErrNoMatchingCuisine, cuisine.Name)
	}

	if len(match.Items) == 0 {
		if len(preloaded) > 0 {
			logger.Info("Filter returned no dishes, keeping preloaded dishes")
			return preloaded, nil
		}
		return nil, fmt.Errorf("%w: no dishes available for %s", models.ErrNoMatchingCuisine, cuisine.Name)
	}

	dishes := make([]models.Dish, 0, len(match.Items))
	for _, item := range match.Items {
		dishes = append(dishes, item.ToDish(cuisine.ID, cuisine.Name))
	}
	logger.WithField("dishes", len(dishes)).Info("Filtered dishes mapped")

	return a.BackfillMissingDetails(ctx, dishes), nil
}

// MatchCuisine picks the first candidate by exact name, then case-insensitive
// name, then substring in either direction, then identifier.
func MatchCuisine(candidates []models.CuisineResponse, target models.Cuisine) (models.CuisineResponse, bool) {
	name := target.Name
	lower := strings.ToLower(name)

	passes := []func(c models.CuisineResponse) bool{
		func(c models.CuisineResponse) bool { return c.CuisineName == name },
		func(c models.CuisineResponse) bool { return strings.ToLower(c.CuisineName) == lower },
		func(c models.CuisineResponse) bool {
			other := strings.ToLower(c.CuisineName)
			if other == "" || lower == "" {
				return false
			}
			return strings.Contains(other, lower) || strings.Contains(lower, other)
		},
		func(c models.CuisineResponse) bool { return c.CuisineID.String() == target.ID },
	}

	for _, match := range passes {
		for _, c := range candidates {
			if match(c) {
				return c, true
			}
		}
	}
	return models.CuisineResponse{}, false
}

// BackfillMissingDetails fetches the detail record of every dish whose price or
// rating is zero and patches those two fields. Failures leave the dish as it
// was; the batch itself never fails.
func (a *Aggregator) BackfillMissingDetails(ctx context.Context, dishes []models.Dish) []models.Dish {
	out := append([]models.Dish(nil), dishes...)
	patched := make([]*models.Dish, len(out))

	g := new(errgroup.Group)
	g.SetLimit(a.detailConcurrency)

	pending := 0
	for i, d := range out {
		if !d.NeedsDetails() {
			continue
		}
		pending++
		i, d := i, d
		g.Go(func() error {
			resp, err := a.source.FetchItemDetails(ctx, d.ID)
			if err != nil {
				metrics.BackfillTotal.WithLabelValues("failed").Inc()
				log.WithFields(log.Fields{
					"dish_id":   d.ID,
					"dish_name": d.Name,
				}).Warn("Failed to fetch dish details: ", err)
				return nil
			}
			detail := resp.ToDish()
			updated := d
			updated.Price = detail.Price
			updated.Rating = detail.Rating
			patched[i] = &updated
			metrics.BackfillTotal.WithLabelValues("patched").Inc()
			return nil
		})
	}
	_ = g.Wait()

	for i, p := range patched {
		if p != nil {
			out[i] = *p
		}
	}

	if pending > 0 {
		log.WithField("requested", pending).Debug("Finished fetching missing dish details")
	}
	return out
}
