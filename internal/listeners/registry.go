// Package listeners holds the side effects bound to domain events and the
// registry that binds them.
package listeners

import (
	"log/slog"

	"github.com/mmynk/littertag/internal/events"
	"github.com/mmynk/littertag/internal/mail"
)

// Deps are the collaborators listeners need beyond the transaction.
type Deps struct {
	Mailer mail.Mailer
	Logger *slog.Logger
}

// Register binds every listener to its event. Order within an event is the
// order listeners run in.
func Register(d *events.Dispatcher, deps Deps) {
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	if deps.Mailer == nil {
		deps.Mailer = mail.NewLogMailer(deps.Logger)
	}

	d.Listen(events.NameUserRegistered,
		SendEmailVerification(deps.Mailer, deps.Logger),
		SendNewUserEmail(deps.Mailer, deps.Logger),
	)

	d.Listen(events.NameImageUploaded,
		AddLocationContributor(),
		IncreaseLocationTotalPhotos(),
		IncreasePhotoTeamTotalPhotos(),
	)

	d.Listen(events.NameImageDeleted,
		RemoveLocationContributor(),
		DecreaseLocationTotalPhotos(),
		DecreasePhotoTeamTotalPhotos(),
	)

	// Stage-1 verification is not in use.
	d.Listen(events.NamePhotoVerifiedByUser)

	d.Listen(events.NameTagsVerifiedByAdmin,
		UpdateUser(),
		IncrementLocation(),
		CompileResultsString(),
		IncreasePhotoTeamTotalLitter(),
		UpdateUserTimeSeries(),
		UpdateUserCategories(),
	)

	d.Listen(events.NameIncrementPhotoMonth,
		IncrementCountryMonth(),
		IncrementStateMonth(),
		IncrementCityMonth(),
	)
}
