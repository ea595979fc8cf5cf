package store

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned when no minutes are archived under a room code.
var ErrNotFound = errors.New("minutes not found")

// Minutes is an archived copy of one room's minutes. Document is the JSON
// encoded printable minutes. CreatedAt is when the room generation RoomID was
// created and orders generations sharing a room code.
type Minutes struct {
	RoomCode  string
	RoomID    string
	Admin     string
	Revision  int64
	CreatedAt time.Time
	Document  []byte
	UpdatedAt time.Time
}

// MinutesStore keeps the latest minutes per room code.
type MinutesStore interface {
	// SaveMinutes upserts the minutes for m.RoomCode. A write for the same room
	// generation with an older revision is ignored, as is a write from a
	// generation created before the stored one.
	SaveMinutes(ctx context.Context, m *Minutes) error

	// GetMinutes returns the archived minutes for a room code.
	GetMinutes(ctx context.Context, roomCode string) (*Minutes, error)

	// ListMinutes returns up to limit archives, most recently updated first.
	ListMinutes(ctx context.Context, limit int) ([]*Minutes, error)

	// Close releases the underlying storage.
	Close() error
}
