package listeners

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/mmynk/littertag/internal/events"
	"github.com/mmynk/littertag/internal/mail"
	"github.com/mmynk/littertag/internal/scoring"
	"github.com/mmynk/littertag/internal/storage"
)

// UpdateUser adds a verified photo's litter to its owner.
func UpdateUser() events.Listener {
	return events.NewListener("UpdateUser", func(ctx context.Context, q storage.Queries, ev events.Event) error {
		photo, err := photoOf(ev)
		if err != nil {
			return err
		}
		return q.AddUserLitter(ctx, photo.UserID, photo.TotalLitter)
	})
}

// CompileResultsString stores the summary of a verified photo's tags.
func CompileResultsString() events.Listener {
	return events.NewListener("CompileResultsString", func(ctx context.Context, q storage.Queries, ev events.Event) error {
		photo, err := photoOf(ev)
		if err != nil {
			return err
		}
		return q.SetPhotoResult(ctx, photo.ID, scoring.ResultString(photo.Tags))
	})
}

// UpdateUserTimeSeries counts a verified photo and its litter in the
// owner's monthly series.
func UpdateUserTimeSeries() events.Listener {
	return events.NewListener("UpdateUserTimeSeries", func(ctx context.Context, q storage.Queries, ev events.Event) error {
		photo, err := photoOf(ev)
		if err != nil {
			return err
		}
		return q.AddUserTimeSeries(ctx, photo.UserID, photo.Month(), 1, photo.TotalLitter)
	})
}

// UpdateUserCategories adds a verified photo's litter to the owner's
// per-category totals.
func UpdateUserCategories() events.Listener {
	return events.NewListener("UpdateUserCategories", func(ctx context.Context, q storage.Queries, ev events.Event) error {
		photo, err := photoOf(ev)
		if err != nil {
			return err
		}
		for category, total := range scoring.CategoryTotals(photo.Tags) {
			if err := q.AddUserCategory(ctx, photo.UserID, category, total); err != nil {
				return err
			}
		}
		return nil
	})
}

func userOf(ev events.Event) (*events.UserRegistered, error) {
	e, ok := ev.(events.UserRegistered)
	if !ok {
		return nil, fmt.Errorf("event %s carries no user", ev.EventName())
	}
	return &e, nil
}

// sendMail builds a UserRegistered listener. It is dispatched after the
// user is committed; delivery failures are logged and never returned.
func sendMail(name string, mailer mail.Mailer, logger *slog.Logger, build func(e *events.UserRegistered) mail.Message) events.Listener {
	return events.NewListener(name, func(ctx context.Context, q storage.Queries, ev events.Event) error {
		e, err := userOf(ev)
		if err != nil {
			return err
		}
		if err := mailer.Send(ctx, build(e)); err != nil {
			logger.Warn("Mail delivery failed", "listener", name, "user_id", e.User.ID, "error", err)
		}
		return nil
	})
}

// SendEmailVerification asks a new user to confirm their address.
func SendEmailVerification(mailer mail.Mailer, logger *slog.Logger) events.Listener {
	return sendMail("SendEmailVerification", mailer, logger, func(e *events.UserRegistered) mail.Message {
		return mail.Message{
			To:      e.User.Email,
			Subject: "Verify your email address",
			Body:    fmt.Sprintf("Hi %s, please confirm your email address to start tagging.", e.User.DisplayName),
		}
	})
}

// SendNewUserEmail welcomes a new user.
func SendNewUserEmail(mailer mail.Mailer, logger *slog.Logger) events.Listener {
	return sendMail("SendNewUserEmail", mailer, logger, func(e *events.UserRegistered) mail.Message {
		return mail.Message{
			To:      e.User.Email,
			Subject: "Welcome to Littertag",
			Body:    fmt.Sprintf("Welcome %s! Upload a photo of litter and tag it to earn your first XP.", e.User.DisplayName),
		}
	})
}
