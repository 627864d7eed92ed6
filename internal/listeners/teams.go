package listeners

import (
	"context"

	"github.com/mmynk/littertag/internal/events"
	"github.com/mmynk/littertag/internal/storage"
)

// IncreasePhotoTeamTotalPhotos counts an upload for the photo's team.
func IncreasePhotoTeamTotalPhotos() events.Listener {
	return events.NewListener("IncreasePhotoTeamTotalPhotos", func(ctx context.Context, q storage.Queries, ev events.Event) error {
		photo, err := photoOf(ev)
		if err != nil {
			return err
		}
		if photo.TeamID == "" {
			return nil
		}
		return q.AddTeamTotals(ctx, photo.TeamID, photo.UserID, 1, 0)
	})
}

// DecreasePhotoTeamTotalPhotos uncounts a deleted photo, and its verified
// litter, from the photo's team.
func DecreasePhotoTeamTotalPhotos() events.Listener {
	return events.NewListener("DecreasePhotoTeamTotalPhotos", func(ctx context.Context, q storage.Queries, ev events.Event) error {
		photo, err := photoOf(ev)
		if err != nil {
			return err
		}
		if photo.TeamID == "" {
			return nil
		}
		return q.AddTeamTotals(ctx, photo.TeamID, photo.UserID, -1, -verifiedLitter(photo))
	})
}

// IncreasePhotoTeamTotalLitter adds a verified photo's litter to its team.
func IncreasePhotoTeamTotalLitter() events.Listener {
	return events.NewListener("IncreasePhotoTeamTotalLitter", func(ctx context.Context, q storage.Queries, ev events.Event) error {
		photo, err := photoOf(ev)
		if err != nil {
			return err
		}
		if photo.TeamID == "" || photo.TotalLitter == 0 {
			return nil
		}
		return q.AddTeamTotals(ctx, photo.TeamID, photo.UserID, 0, photo.TotalLitter)
	})
}
