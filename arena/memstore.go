package arena

import (
	"context"
	"fmt"
	"sort"

	"github.com/AnshulAlgoS/StudyChamp-sub000/domain"
	"github.com/rs/zerolog/log"
)

type roomEntry struct {
	room       *domain.Room
	violations []domain.Violation
	messages   []domain.Message
	subs       map[chan *domain.Room]struct{}
}

// MemStore keeps every room behind a single actor goroutine. All reads and
// writes are funneled through one channel, so an Update closure runs with no
// other store operation interleaved. That is the transactional guarantee
// the arbiter relies on for finish-position assignment.
type MemStore struct {
	rooms  map[string]*roomEntry
	byCode map[string]string
	ops    chan func()
}

func NewMemStore() *MemStore {
	return &MemStore{
		rooms:  make(map[string]*roomEntry),
		byCode: make(map[string]string),
		ops:    make(chan func(), 256),
	}
}

// StoreActor owns the store state. Run it in its own goroutine; started is
// closed once the loop is receiving.
func (s *MemStore) StoreActor(started chan struct{}) {
	close(started)
	for op := range s.ops {
		op()
	}
}

// Close stops the actor. Pending subscriptions are left to their cancel
// funcs; Close must only be called once no caller will issue further ops.
func (s *MemStore) Close() {
	close(s.ops)
}

func (s *MemStore) do(ctx context.Context, op func()) error {
	done := make(chan struct{})
	wrapped := func() {
		op()
		close(done)
	}
	select {
	case s.ops <- wrapped:
	case <-ctx.Done():
		return fmt.Errorf("%w: %w", domain.StoreUnavailableError, ctx.Err())
	}
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("%w: %w", domain.StoreUnavailableError, ctx.Err())
	}
}

func (s *MemStore) CreateRoom(ctx context.Context, room *domain.Room) error {
	var err error
	doErr := s.do(ctx, func() {
		if _, exists := s.rooms[room.Id]; exists {
			err = domain.ErrRoomNotJoinable
			return
		}
		s.rooms[room.Id] = &roomEntry{
			room: room.Clone(),
			subs: make(map[chan *domain.Room]struct{}),
		}
		s.byCode[room.JoinCode] = room.Id
	})
	if doErr != nil {
		return doErr
	}
	return err
}

func (s *MemStore) GetRoom(ctx context.Context, roomId string) (*domain.Room, error) {
	var snapshot *domain.Room
	doErr := s.do(ctx, func() {
		if entry, ok := s.rooms[roomId]; ok {
			snapshot = entry.room.Clone()
		}
	})
	if doErr != nil {
		return nil, doErr
	}
	if snapshot == nil {
		return nil, domain.ErrRoomNotFound
	}
	return snapshot, nil
}

func (s *MemStore) GetRoomByCode(ctx context.Context, code string) (*domain.Room, error) {
	var snapshot *domain.Room
	doErr := s.do(ctx, func() {
		if id, ok := s.byCode[code]; ok {
			snapshot = s.rooms[id].room.Clone()
		}
	})
	if doErr != nil {
		return nil, doErr
	}
	if snapshot == nil {
		return nil, domain.ErrRoomNotFound
	}
	return snapshot, nil
}

func (s *MemStore) Update(ctx context.Context, roomId string, mutate func(room *domain.Room) error) (*domain.Room, error) {
	var snapshot *domain.Room
	var err error
	doErr := s.do(ctx, func() {
		entry, ok := s.rooms[roomId]
		if !ok {
			err = domain.ErrRoomNotFound
			return
		}
		if err = mutate(entry.room); err != nil {
			return
		}
		snapshot = entry.room.Clone()
		s.notify(entry, snapshot)
	})
	if doErr != nil {
		return nil, doErr
	}
	if err != nil {
		return nil, err
	}
	return snapshot, nil
}

// notify fans the snapshot out to subscribers without blocking the actor; a
// subscriber that cannot keep up loses intermediate snapshots, never the
// stream.
func (s *MemStore) notify(entry *roomEntry, snapshot *domain.Room) {
	for sub := range entry.subs {
		select {
		case sub <- snapshot:
		default:
			log.Warn().Str("module", "arena.store").Str("room", snapshot.Id).Msg("slow subscriber, snapshot dropped")
		}
	}
}

func (s *MemStore) Subscribe(ctx context.Context, roomId string) (<-chan *domain.Room, func(), error) {
	ch := make(chan *domain.Room, 16)
	var err error
	doErr := s.do(ctx, func() {
		entry, ok := s.rooms[roomId]
		if !ok {
			err = domain.ErrRoomNotFound
			return
		}
		entry.subs[ch] = struct{}{}
		// prime the stream so the subscriber starts from current state
		ch <- entry.room.Clone()
	})
	if doErr != nil {
		return nil, nil, doErr
	}
	if err != nil {
		return nil, nil, err
	}
	cancel := func() {
		_ = s.do(context.Background(), func() {
			entry, ok := s.rooms[roomId]
			if !ok {
				return
			}
			if _, subscribed := entry.subs[ch]; !subscribed {
				return
			}
			delete(entry.subs, ch)
			close(ch)
		})
	}
	return ch, cancel, nil
}

func (s *MemStore) AppendViolation(ctx context.Context, roomId string, v domain.Violation) error {
	var err error
	doErr := s.do(ctx, func() {
		entry, ok := s.rooms[roomId]
		if !ok {
			err = domain.ErrRoomNotFound
			return
		}
		entry.violations = append(entry.violations, v)
	})
	if doErr != nil {
		return doErr
	}
	return err
}

func (s *MemStore) AppendMessage(ctx context.Context, roomId string, m domain.Message) error {
	var err error
	doErr := s.do(ctx, func() {
		entry, ok := s.rooms[roomId]
		if !ok {
			err = domain.ErrRoomNotFound
			return
		}
		entry.messages = append(entry.messages, m)
	})
	if doErr != nil {
		return doErr
	}
	return err
}

func (s *MemStore) Violations(ctx context.Context, roomId string) ([]domain.Violation, error) {
	var out []domain.Violation
	var err error
	doErr := s.do(ctx, func() {
		entry, ok := s.rooms[roomId]
		if !ok {
			err = domain.ErrRoomNotFound
			return
		}
		out = append([]domain.Violation(nil), entry.violations...)
	})
	if doErr != nil {
		return nil, doErr
	}
	if err != nil {
		return nil, err
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Timestamp.Before(out[j].Timestamp) })
	return out, nil
}

func (s *MemStore) Messages(ctx context.Context, roomId string) ([]domain.Message, error) {
	var out []domain.Message
	var err error
	doErr := s.do(ctx, func() {
		entry, ok := s.rooms[roomId]
		if !ok {
			err = domain.ErrRoomNotFound
			return
		}
		out = append([]domain.Message(nil), entry.messages...)
	})
	if doErr != nil {
		return nil, doErr
	}
	if err != nil {
		return nil, err
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Timestamp.Before(out[j].Timestamp) })
	return out, nil
}
