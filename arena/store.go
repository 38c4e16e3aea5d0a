package arena

import (
	"context"

	"github.com/AnshulAlgoS/StudyChamp-sub000/domain"
)

// RoomStore is the shared room document store. Implementations must serialize
// Update calls per store so read-modify-write mutations behave as
// transactions; snapshots handed out are deep copies and never alias live
// state.
type RoomStore interface {
	CreateRoom(ctx context.Context, room *domain.Room) error
	GetRoom(ctx context.Context, roomId string) (*domain.Room, error)
	GetRoomByCode(ctx context.Context, code string) (*domain.Room, error)

	// Update runs mutate against the live room and returns the resulting
	// snapshot. This is the transaction primitive: no other mutation of the
	// same store interleaves with mutate.
	Update(ctx context.Context, roomId string, mutate func(room *domain.Room) error) (*domain.Room, error)

	// Subscribe returns a stream of room snapshots pushed after every
	// mutation, plus a cancel func. The stream is closed on cancel.
	Subscribe(ctx context.Context, roomId string) (<-chan *domain.Room, func(), error)

	// Append-only per-room logs, ordered by timestamp.
	AppendViolation(ctx context.Context, roomId string, v domain.Violation) error
	AppendMessage(ctx context.Context, roomId string, m domain.Message) error
	Violations(ctx context.Context, roomId string) ([]domain.Violation, error)
	Messages(ctx context.Context, roomId string) ([]domain.Message, error)
}

// UniqueCodeGenerator hands out join codes that are unique until disposed.
type UniqueCodeGenerator interface {
	Generate() string
	Dispose(code string)
}

// ResultArchive persists finalized results into long-term storage. The arena
// treats it as an optional sink; a nil archive is valid.
type ResultArchive interface {
	SaveResult(ctx context.Context, res domain.Result) error
}
