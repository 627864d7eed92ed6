package events

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/goccy/go-json"

	"github.com/mmynk/littertag/internal/models"
	"github.com/mmynk/littertag/internal/storage"
)

func recorder(calls *[]string, name string, err error) Listener {
	return NewListener(name, func(ctx context.Context, q storage.Queries, ev Event) error {
		*calls = append(*calls, name)
		return err
	})
}

func TestDispatch_RunsListenersInOrder(t *testing.T) {
	d := NewDispatcher(nil)
	var calls []string
	d.Listen(NameImageUploaded,
		recorder(&calls, "first", nil),
		recorder(&calls, "second", nil),
	)
	d.Listen(NameImageUploaded, recorder(&calls, "third", nil))

	if err := d.Dispatch(context.Background(), nil, ImageUploaded{}); err != nil {
		t.Fatalf("Dispatch failed: %v", err)
	}

	want := []string{"first", "second", "third"}
	if len(calls) != len(want) {
		t.Fatalf("calls = %v, want %v", calls, want)
	}
	for i := range want {
		if calls[i] != want[i] {
			t.Errorf("calls[%d] = %s, want %s", i, calls[i], want[i])
		}
	}
}

func TestDispatch_StopsAtFirstError(t *testing.T) {
	d := NewDispatcher(nil)
	boom := errors.New("boom")
	var calls []string
	d.Listen(NameImageDeleted,
		recorder(&calls, "ok", nil),
		recorder(&calls, "fails", boom),
		recorder(&calls, "never", nil),
	)

	err := d.Dispatch(context.Background(), nil, ImageDeleted{})
	if !errors.Is(err, boom) {
		t.Fatalf("Expected boom, got %v", err)
	}
	if len(calls) != 2 {
		t.Errorf("Expected 2 listeners to run, got %v", calls)
	}
}

func TestDispatch_OnlyMatchingEvent(t *testing.T) {
	d := NewDispatcher(nil)
	var calls []string
	d.Listen(NameImageUploaded, recorder(&calls, "upload", nil))
	d.Listen(NameImageDeleted, recorder(&calls, "delete", nil))

	if err := d.Dispatch(context.Background(), nil, ImageDeleted{}); err != nil {
		t.Fatalf("Dispatch failed: %v", err)
	}
	if len(calls) != 1 || calls[0] != "delete" {
		t.Errorf("calls = %v, want [delete]", calls)
	}
}

func TestDispatch_NoListeners(t *testing.T) {
	d := NewDispatcher(nil)
	d.Listen(NamePhotoVerifiedByUser)

	if err := d.Dispatch(context.Background(), nil, PhotoVerifiedByUser{}); err != nil {
		t.Errorf("Dispatch with no listeners failed: %v", err)
	}
	if err := d.Dispatch(context.Background(), nil, UserRegistered{}); err != nil {
		t.Errorf("Dispatch of unregistered event failed: %v", err)
	}

	events := d.Events()
	if len(events) != 1 || events[0] != NamePhotoVerifiedByUser {
		t.Errorf("Events() = %v", events)
	}
}

func TestListeners(t *testing.T) {
	d := NewDispatcher(nil)
	var calls []string
	d.Listen(NameTagsVerifiedByAdmin, recorder(&calls, "a", nil), recorder(&calls, "b", nil))

	got := d.Listeners(NameTagsVerifiedByAdmin)
	if len(got) != 2 || got[0] != "a" || got[1] != "b" {
		t.Errorf("Listeners() = %v", got)
	}
	if got := d.Listeners(NameImageDeleted); len(got) != 0 {
		t.Errorf("Expected no listeners, got %v", got)
	}
}

func TestEncodeDecode(t *testing.T) {
	ev := ImageUploaded{Photo: models.Photo{ID: "p1", UserID: "u1", CityID: "c1"}}

	env, data, err := Encode(ev)
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}
	if env.Event != NameImageUploaded {
		t.Errorf("Event = %s, want %s", env.Event, NameImageUploaded)
	}

	decoded, err := Decode(data)
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if decoded.ID != env.ID {
		t.Errorf("ID = %s, want %s", decoded.ID, env.ID)
	}

	var payload ImageUploaded
	if err := json.Unmarshal(decoded.Payload, &payload); err != nil {
		t.Fatalf("payload unmarshal failed: %v", err)
	}
	if payload.Photo.ID != "p1" || payload.Photo.CityID != "c1" {
		t.Errorf("Unexpected payload: %+v", payload.Photo)
	}
}

func TestEncode_HidesPasswordHash(t *testing.T) {
	_, data, err := Encode(UserRegistered{User: models.User{ID: "u1", PasswordHash: "secret-hash"}})
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}
	if bytes.Contains(data, []byte("secret-hash")) {
		t.Error("Expected password hash to be omitted from the envelope")
	}
}

func TestPublish_ForwardsToBus(t *testing.T) {
	pubsub := gochannel.NewGoChannel(gochannel.Config{OutputChannelBuffer: 10}, watermill.NopLogger{})
	defer pubsub.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	messages, err := pubsub.Subscribe(ctx, DefaultTopic)
	if err != nil {
		t.Fatalf("Subscribe failed: %v", err)
	}

	d := NewDispatcher(nil)
	d.SetPublisher(pubsub, "")
	d.Publish(ctx, ImageUploaded{Photo: models.Photo{ID: "p1"}}, ImageDeleted{Photo: models.Photo{ID: "p1"}})

	var got []string
	for len(got) < 2 {
		select {
		case msg := <-messages:
			got = append(got, msg.Metadata.Get(MetadataEvent))
			msg.Ack()
		case <-ctx.Done():
			t.Fatalf("timed out, received %v", got)
		}
	}

	if got[0] != string(NameImageUploaded) || got[1] != string(NameImageDeleted) {
		t.Errorf("received %v", got)
	}
}

func TestPublish_WithoutPublisherIsNoop(t *testing.T) {
	d := NewDispatcher(nil)
	d.Publish(context.Background(), ImageUploaded{})
}
