package service

import (
	"bytes"
	"context"
	"encoding/binary"
	"hash/crc32"
	"image"
	"image/color"
	"image/png"
	"io"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/mmynk/littertag/internal/blob"
	"github.com/mmynk/littertag/internal/events"
	"github.com/mmynk/littertag/internal/leaderboard"
	"github.com/mmynk/littertag/internal/listeners"
	"github.com/mmynk/littertag/internal/mail"
	"github.com/mmynk/littertag/internal/models"
	"github.com/mmynk/littertag/internal/storage/sqlite"
)

type testEnv struct {
	store  *sqlite.SQLiteStore
	deps   Deps
	board  *leaderboard.MemoryBoard
	blobs  *blob.LocalStore
	outbox *mail.Outbox
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	dir := t.TempDir()

	store, err := sqlite.New(filepath.Join(dir, "test.db"))
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	blobs, err := blob.NewLocalStore(filepath.Join(dir, "blobs"), "/media")
	if err != nil {
		t.Fatalf("Failed to create blob store: %v", err)
	}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	dispatcher := events.NewDispatcher(logger)
	outbox := &mail.Outbox{}
	listeners.Register(dispatcher, listeners.Deps{Mailer: outbox, Logger: logger})

	board := leaderboard.NewMemoryBoard()
	return &testEnv{
		store:  store,
		deps:   Deps{Store: store, Events: dispatcher, Board: board, Logger: logger},
		board:  board,
		blobs:  blobs,
		outbox: outbox,
	}
}

// createUser inserts a user with the given starting XP.
func (e *testEnv) createUser(t *testing.T, email string, xp int) *models.User {
	t.Helper()
	ctx := context.Background()
	user := models.NewUser(email, "User "+email, "hash")
	if err := e.store.CreateUser(ctx, user); err != nil {
		t.Fatalf("CreateUser failed: %v", err)
	}
	if xp > 0 {
		if err := e.store.AddUserXP(ctx, user.ID, xp); err != nil {
			t.Fatalf("AddUserXP failed: %v", err)
		}
	}
	return user
}

// createPhotos inserts n untagged photos owned by userID.
func (e *testEnv) createPhotos(t *testing.T, userID string, n int) []*models.Photo {
	t.Helper()
	photos := make([]*models.Photo, n)
	for i := range photos {
		photos[i] = &models.Photo{UserID: userID, Filename: "photo.jpg", Stage: models.StageUploaded}
		if err := e.store.CreatePhoto(context.Background(), photos[i]); err != nil {
			t.Fatalf("CreatePhoto failed: %v", err)
		}
	}
	return photos
}

func (e *testEnv) user(t *testing.T, id string) *models.User {
	t.Helper()
	u, err := e.store.GetUserByID(context.Background(), id)
	if err != nil {
		t.Fatalf("GetUserByID failed: %v", err)
	}
	return u
}

func (e *testEnv) photo(t *testing.T, id string) *models.Photo {
	t.Helper()
	p, err := e.store.GetPhoto(context.Background(), id)
	if err != nil {
		t.Fatalf("GetPhoto failed: %v", err)
	}
	return p
}

func ids(photos []*models.Photo) []string {
	out := make([]string, len(photos))
	for i, p := range photos {
		out[i] = p.ID
	}
	return out
}

func pngBytes(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 640, 480))
	img.Set(10, 10, color.RGBA{G: 255, A: 255})
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("png.Encode failed: %v", err)
	}
	return buf.Bytes()
}

// oversizedPNG returns a PNG header claiming 12000x12000 pixels.
func oversizedPNG() []byte {
	ihdr := make([]byte, 13)
	binary.BigEndian.PutUint32(ihdr[0:4], 12000)
	binary.BigEndian.PutUint32(ihdr[4:8], 12000)
	ihdr[8] = 8

	var buf bytes.Buffer
	buf.WriteString("\x89PNG\r\n\x1a\n")
	binary.Write(&buf, binary.BigEndian, uint32(len(ihdr)))
	chunk := append([]byte("IHDR"), ihdr...)
	buf.Write(chunk)
	binary.Write(&buf, binary.BigEndian, crc32.ChecksumIEEE(chunk))
	return buf.Bytes()
}
