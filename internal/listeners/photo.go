package listeners

import (
	"fmt"

	"github.com/mmynk/littertag/internal/events"
	"github.com/mmynk/littertag/internal/models"
)

// photoOf extracts the photo carried by a photo event.
func photoOf(ev events.Event) (*models.Photo, error) {
	switch e := ev.(type) {
	case events.ImageUploaded:
		return &e.Photo, nil
	case events.ImageDeleted:
		return &e.Photo, nil
	case events.TagsVerifiedByAdmin:
		return &e.Photo, nil
	case events.PhotoVerifiedByUser:
		return &e.Photo, nil
	case events.IncrementPhotoMonth:
		return &e.Photo, nil
	default:
		return nil, fmt.Errorf("event %s carries no photo", ev.EventName())
	}
}

// verifiedLitter is the litter a photo contributed to aggregate totals.
// Only verified photos count.
func verifiedLitter(p *models.Photo) int {
	if p.Stage != models.StageVerified {
		return 0
	}
	return p.TotalLitter
}
