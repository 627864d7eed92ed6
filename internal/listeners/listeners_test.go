package listeners

import (
	"context"
	"errors"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/mmynk/littertag/internal/events"
	"github.com/mmynk/littertag/internal/mail"
	"github.com/mmynk/littertag/internal/models"
	"github.com/mmynk/littertag/internal/storage"
	"github.com/mmynk/littertag/internal/storage/sqlite"
)

type fixture struct {
	store    *sqlite.SQLiteStore
	dispatch *events.Dispatcher
	outbox   *mail.Outbox
	user     *models.User
	team     *models.Team
	country  *models.Location
	city     *models.Location
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()

	store, err := sqlite.New(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	f := &fixture{store: store, dispatch: events.NewDispatcher(nil), outbox: &mail.Outbox{}}
	Register(f.dispatch, Deps{Mailer: f.outbox})

	f.user = models.NewUser("tagger@example.com", "Tagger", "hash")
	if err := store.CreateUser(ctx, f.user); err != nil {
		t.Fatalf("CreateUser failed: %v", err)
	}
	f.team = &models.Team{Name: "Beach Crew", LeaderID: f.user.ID}
	if err := store.CreateTeam(ctx, f.team); err != nil {
		t.Fatalf("CreateTeam failed: %v", err)
	}
	if _, err := store.AddTeamMember(ctx, f.team.ID, f.user.ID); err != nil {
		t.Fatalf("AddTeamMember failed: %v", err)
	}
	if f.country, err = store.FindOrCreateLocation(ctx, models.LevelCountry, "Ireland", ""); err != nil {
		t.Fatalf("FindOrCreateLocation failed: %v", err)
	}
	if f.city, err = store.FindOrCreateLocation(ctx, models.LevelCity, "Cork", f.country.ID); err != nil {
		t.Fatalf("FindOrCreateLocation failed: %v", err)
	}
	return f
}

func (f *fixture) newPhoto(t *testing.T) *models.Photo {
	t.Helper()
	photo := &models.Photo{
		UserID:    f.user.ID,
		Filename:  "litter.jpg",
		CountryID: f.country.ID,
		CityID:    f.city.ID,
		TeamID:    f.team.ID,
		DateTaken: 1717200000, // 2024-06-01
	}
	if err := f.store.CreatePhoto(context.Background(), photo); err != nil {
		t.Fatalf("CreatePhoto failed: %v", err)
	}
	return photo
}

func (f *fixture) fire(t *testing.T, ev events.Event) {
	t.Helper()
	err := f.store.WithTx(context.Background(), func(q storage.Queries) error {
		return f.dispatch.Dispatch(context.Background(), q, ev)
	})
	if err != nil {
		t.Fatalf("Dispatch %s failed: %v", ev.EventName(), err)
	}
}

func (f *fixture) location(t *testing.T, id string) *models.Location {
	t.Helper()
	loc, err := f.store.GetLocation(context.Background(), id)
	if err != nil {
		t.Fatalf("GetLocation failed: %v", err)
	}
	return loc
}

func (f *fixture) teamState(t *testing.T) (*models.Team, *models.TeamMember) {
	t.Helper()
	ctx := context.Background()
	team, err := f.store.GetTeam(ctx, f.team.ID)
	if err != nil {
		t.Fatalf("GetTeam failed: %v", err)
	}
	member, err := f.store.GetTeamMember(ctx, f.team.ID, f.user.ID)
	if err != nil {
		t.Fatalf("GetTeamMember failed: %v", err)
	}
	return team, member
}

func TestRegister_Bindings(t *testing.T) {
	d := events.NewDispatcher(nil)
	Register(d, Deps{Mailer: &mail.Outbox{}})

	tests := []struct {
		event events.Name
		want  []string
	}{
		{events.NameImageUploaded, []string{"AddLocationContributor", "IncreaseLocationTotalPhotos", "IncreasePhotoTeamTotalPhotos"}},
		{events.NameImageDeleted, []string{"RemoveLocationContributor", "DecreaseLocationTotalPhotos", "DecreasePhotoTeamTotalPhotos"}},
		{events.NameTagsVerifiedByAdmin, []string{"UpdateUser", "IncrementLocation", "CompileResultsString", "IncreasePhotoTeamTotalLitter", "UpdateUserTimeSeries", "UpdateUserCategories"}},
		{events.NamePhotoVerifiedByUser, nil},
		{events.NameUserRegistered, []string{"SendEmailVerification", "SendNewUserEmail"}},
		{events.NameIncrementPhotoMonth, []string{"IncrementCountryMonth", "IncrementStateMonth", "IncrementCityMonth"}},
	}

	for _, tt := range tests {
		t.Run(string(tt.event), func(t *testing.T) {
			got := d.Listeners(tt.event)
			if len(got) == 0 && len(tt.want) == 0 {
				return
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Listeners(%s) = %v, want %v", tt.event, got, tt.want)
			}
		})
	}

	if got := len(d.Events()); got != 6 {
		t.Errorf("Expected 6 registered events, got %d", got)
	}
}

func TestUploadThenDelete_RestoresCounters(t *testing.T) {
	f := newFixture(t)

	first := f.newPhoto(t)
	second := f.newPhoto(t)
	f.fire(t, events.ImageUploaded{Photo: *first})
	f.fire(t, events.ImageUploaded{Photo: *second})

	city := f.location(t, f.city.ID)
	if city.TotalPhotos != 2 {
		t.Errorf("City TotalPhotos = %d, want 2", city.TotalPhotos)
	}
	if city.TotalContributors != 1 {
		t.Errorf("City TotalContributors = %d, want 1", city.TotalContributors)
	}
	team, member := f.teamState(t)
	if team.TotalPhotos != 2 || member.TotalPhotos != 2 {
		t.Errorf("Team photos = %d/%d, want 2/2", team.TotalPhotos, member.TotalPhotos)
	}

	f.fire(t, events.ImageDeleted{Photo: *first})
	if got := f.location(t, f.city.ID).TotalContributors; got != 1 {
		t.Errorf("Contributor removed too early: TotalContributors = %d, want 1", got)
	}
	f.fire(t, events.ImageDeleted{Photo: *second})

	for _, id := range []string{f.country.ID, f.city.ID} {
		loc := f.location(t, id)
		if loc.TotalPhotos != 0 || loc.TotalContributors != 0 {
			t.Errorf("Location %s not restored: photos=%d contributors=%d",
				loc.Name, loc.TotalPhotos, loc.TotalContributors)
		}
	}
	team, member = f.teamState(t)
	if team.TotalPhotos != 0 || member.TotalPhotos != 0 {
		t.Errorf("Team photos not restored: %d/%d", team.TotalPhotos, member.TotalPhotos)
	}
}

func TestTagsVerifiedByAdmin_AddsLitterEverywhere(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	photo := f.newPhoto(t)
	photo.Stage = models.StageVerified
	photo.Tags = []models.Tag{
		{Category: "alcohol", Item: "beerCan", Quantity: 2},
		{Category: "smoking", Item: "butts", Quantity: 3},
	}
	photo.TotalLitter = 5

	f.fire(t, events.TagsVerifiedByAdmin{Photo: *photo, VerifiedBy: "admin"})

	user, err := f.store.GetUserByID(ctx, f.user.ID)
	if err != nil {
		t.Fatalf("GetUserByID failed: %v", err)
	}
	if user.TotalLitter != 5 {
		t.Errorf("User TotalLitter = %d, want 5", user.TotalLitter)
	}

	city := f.location(t, f.city.ID)
	if city.TotalLitter != 5 {
		t.Errorf("City TotalLitter = %d, want 5", city.TotalLitter)
	}
	if city.Categories["smoking"] != 3 || city.Categories["alcohol"] != 2 {
		t.Errorf("Unexpected city categories: %v", city.Categories)
	}

	got, err := f.store.GetPhoto(ctx, photo.ID)
	if err != nil {
		t.Fatalf("GetPhoto failed: %v", err)
	}
	if got.Result != "alcohol.beerCan 2,smoking.butts 3" {
		t.Errorf("Result = %q", got.Result)
	}

	team, member := f.teamState(t)
	if team.TotalLitter != 5 || member.TotalLitter != 5 {
		t.Errorf("Team litter = %d/%d, want 5/5", team.TotalLitter, member.TotalLitter)
	}

	series, err := f.store.ListUserTimeSeries(ctx, f.user.ID)
	if err != nil {
		t.Fatalf("ListUserTimeSeries failed: %v", err)
	}
	want := []models.TimeSeriesPoint{{Month: "2024-06", Photos: 1, Litter: 5}}
	if !reflect.DeepEqual(series, want) {
		t.Errorf("Time series = %+v, want %+v", series, want)
	}

	categories, err := f.store.ListUserCategories(ctx, f.user.ID)
	if err != nil {
		t.Fatalf("ListUserCategories failed: %v", err)
	}
	if len(categories) != 2 || categories[0].Category != "smoking" || categories[0].Total != 3 {
		t.Errorf("Unexpected user categories: %+v", categories)
	}

	t.Run("deleting the verified photo removes its litter", func(t *testing.T) {
		f.fire(t, events.ImageUploaded{Photo: *photo})
		f.fire(t, events.ImageDeleted{Photo: *photo})

		city := f.location(t, f.city.ID)
		if city.TotalLitter != 0 {
			t.Errorf("City TotalLitter = %d, want 0", city.TotalLitter)
		}
		if city.Categories["smoking"] != 0 {
			t.Errorf("City smoking total = %d, want 0", city.Categories["smoking"])
		}
		team, _ := f.teamState(t)
		if team.TotalLitter != 0 {
			t.Errorf("Team TotalLitter = %d, want 0", team.TotalLitter)
		}
	})
}

func TestIncrementPhotoMonth_SkipsMissingLevels(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	photo := f.newPhoto(t)
	f.fire(t, events.IncrementPhotoMonth{Photo: *photo})
	f.fire(t, events.IncrementPhotoMonth{Photo: *photo})

	for _, id := range []string{f.country.ID, f.city.ID} {
		n, err := f.store.GetLocationMonth(ctx, id, "2024-06")
		if err != nil {
			t.Fatalf("GetLocationMonth failed: %v", err)
		}
		if n != 2 {
			t.Errorf("Month count at %s = %d, want 2", id, n)
		}
	}
}

func TestUserRegistered_SendsMail(t *testing.T) {
	f := newFixture(t)

	f.fire(t, events.UserRegistered{User: *f.user})

	msgs := f.outbox.Messages()
	if len(msgs) != 2 {
		t.Fatalf("Expected 2 messages, got %d", len(msgs))
	}
	if msgs[0].Subject != "Verify your email address" {
		t.Errorf("First message subject = %q", msgs[0].Subject)
	}
	for _, m := range msgs {
		if m.To != f.user.Email {
			t.Errorf("Message sent to %q, want %q", m.To, f.user.Email)
		}
	}
}

func TestListenerFailure_RollsBackTransaction(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	// A photo whose team does not exist makes the team listener fail
	// after the location listeners have already written.
	photo := f.newPhoto(t)
	photo.TeamID = "missing-team"

	err := f.store.WithTx(ctx, func(q storage.Queries) error {
		return f.dispatch.Dispatch(ctx, q, events.ImageUploaded{Photo: *photo})
	})
	if !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("Expected ErrNotFound, got %v", err)
	}

	city := f.location(t, f.city.ID)
	if city.TotalPhotos != 0 || city.TotalContributors != 0 {
		t.Errorf("Location writes not rolled back: photos=%d contributors=%d",
			city.TotalPhotos, city.TotalContributors)
	}
}

func TestPhotoListener_RejectsForeignEvent(t *testing.T) {
	l := UpdateUser()
	err := l.Handle(context.Background(), nil, events.UserRegistered{})
	if err == nil {
		t.Error("Expected error for event without a photo")
	}
}
