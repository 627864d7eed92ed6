package listeners

import (
	"context"

	"github.com/mmynk/littertag/internal/events"
	"github.com/mmynk/littertag/internal/scoring"
	"github.com/mmynk/littertag/internal/storage"
)

// AddLocationContributor credits the uploader as a contributor of each of
// the photo's locations.
func AddLocationContributor() events.Listener {
	return events.NewListener("AddLocationContributor", func(ctx context.Context, q storage.Queries, ev events.Event) error {
		photo, err := photoOf(ev)
		if err != nil {
			return err
		}
		for _, id := range photo.LocationIDs() {
			if _, err := q.AddLocationContributor(ctx, id, photo.UserID); err != nil {
				return err
			}
		}
		return nil
	})
}

// RemoveLocationContributor withdraws the credit given by AddLocationContributor.
func RemoveLocationContributor() events.Listener {
	return events.NewListener("RemoveLocationContributor", func(ctx context.Context, q storage.Queries, ev events.Event) error {
		photo, err := photoOf(ev)
		if err != nil {
			return err
		}
		for _, id := range photo.LocationIDs() {
			if _, err := q.RemoveLocationContributor(ctx, id, photo.UserID); err != nil {
				return err
			}
		}
		return nil
	})
}

// IncreaseLocationTotalPhotos counts the photo at each of its locations.
func IncreaseLocationTotalPhotos() events.Listener {
	return events.NewListener("IncreaseLocationTotalPhotos", func(ctx context.Context, q storage.Queries, ev events.Event) error {
		photo, err := photoOf(ev)
		if err != nil {
			return err
		}
		for _, id := range photo.LocationIDs() {
			if err := q.AddLocationTotals(ctx, id, 1, 0); err != nil {
				return err
			}
		}
		return nil
	})
}

// DecreaseLocationTotalPhotos uncounts the photo at each of its locations,
// together with its litter if the photo had been verified.
func DecreaseLocationTotalPhotos() events.Listener {
	return events.NewListener("DecreaseLocationTotalPhotos", func(ctx context.Context, q storage.Queries, ev events.Event) error {
		photo, err := photoOf(ev)
		if err != nil {
			return err
		}
		litter := verifiedLitter(photo)
		for _, id := range photo.LocationIDs() {
			if err := q.AddLocationTotals(ctx, id, -1, -litter); err != nil {
				return err
			}
			if litter == 0 {
				continue
			}
			for category, total := range scoring.CategoryTotals(photo.Tags) {
				if err := q.AddLocationCategory(ctx, id, category, -total); err != nil {
					return err
				}
			}
		}
		return nil
	})
}

// IncrementLocation adds a verified photo's litter, overall and per
// category, to each of its locations.
func IncrementLocation() events.Listener {
	return events.NewListener("IncrementLocation", func(ctx context.Context, q storage.Queries, ev events.Event) error {
		photo, err := photoOf(ev)
		if err != nil {
			return err
		}
		categories := scoring.CategoryTotals(photo.Tags)
		for _, id := range photo.LocationIDs() {
			if err := q.AddLocationTotals(ctx, id, 0, photo.TotalLitter); err != nil {
				return err
			}
			for category, total := range categories {
				if err := q.AddLocationCategory(ctx, id, category, total); err != nil {
					return err
				}
			}
		}
		return nil
	})
}

func incrementMonth(name string, pick func(countryID, stateID, cityID string) string) events.Listener {
	return events.NewListener(name, func(ctx context.Context, q storage.Queries, ev events.Event) error {
		photo, err := photoOf(ev)
		if err != nil {
			return err
		}
		id := pick(photo.CountryID, photo.StateID, photo.CityID)
		if id == "" {
			return nil
		}
		return q.IncrementLocationMonth(ctx, id, photo.Month())
	})
}

// IncrementCountryMonth counts an upload in its country's monthly series.
func IncrementCountryMonth() events.Listener {
	return incrementMonth("IncrementCountryMonth", func(country, _, _ string) string { return country })
}

// IncrementStateMonth counts an upload in its state's monthly series.
func IncrementStateMonth() events.Listener {
	return incrementMonth("IncrementStateMonth", func(_, state, _ string) string { return state })
}

// IncrementCityMonth counts an upload in its city's monthly series.
func IncrementCityMonth() events.Listener {
	return incrementMonth("IncrementCityMonth", func(_, _, city string) string { return city })
}
