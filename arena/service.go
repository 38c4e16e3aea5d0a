package arena

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/AnshulAlgoS/StudyChamp-sub000/domain"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// RoomSettings are the host-chosen knobs outside the challenge itself.
type RoomSettings struct {
	MaxMembers  int      `json:"maxMembers"`
	StrictFocus bool     `json:"strictFocus"`
	AllowedApps []string `json:"allowedApps"`
}

const DefaultMaxMembers = 8

// Service owns the room lifecycle state machine and the ranking/completion
// arbiter. Every mutation goes through the store's Update primitive, never
// through client-cached state.
type Service struct {
	store   RoomStore
	codes   UniqueCodeGenerator
	archive ResultArchive
	now     func() time.Time
}

func NewService(store RoomStore, codes UniqueCodeGenerator, archive ResultArchive) *Service {
	return &Service{store: store, codes: codes, archive: archive, now: time.Now}
}

func (s *Service) Store() RoomStore { return s.store }

// CreateRoom builds a WAITING room and auto-enrolls the host as its first
// participant.
func (s *Service) CreateRoom(ctx context.Context, host domain.Identity, challenge domain.Challenge, settings RoomSettings) (*domain.Room, error) {
	if host.Id == "" {
		return nil, domain.ErrNotLoggedIn
	}
	if settings.MaxMembers <= 0 {
		settings.MaxMembers = DefaultMaxMembers
	}
	now := s.now()
	room := &domain.Room{
		Id:          uuid.NewString(),
		JoinCode:    s.codes.Generate(),
		HostId:      host.Id,
		Challenge:   challenge,
		Status:      domain.STATUS_WAITING,
		CreatedAt:   now,
		MaxMembers:  settings.MaxMembers,
		StrictFocus: settings.StrictFocus,
		AllowedApps: settings.AllowedApps,
		Participants: map[string]*domain.Participant{
			host.Id: newParticipant(host, now),
		},
	}
	if err := s.store.CreateRoom(ctx, room); err != nil {
		s.codes.Dispose(room.JoinCode)
		return nil, err
	}
	log.Info().Str("module", "arena").Str("room", room.Id).Str("code", room.JoinCode).Str("host", host.Id).Msg("room created")
	return room, nil
}

func newParticipant(id domain.Identity, now time.Time) *domain.Participant {
	return &domain.Participant{
		Id:          id.Id,
		DisplayName: id.DisplayName,
		Status:      domain.PARTICIPANT_READY,
		JoinedAt:    now,
		LastSeenAt:  now,
	}
}

// JoinRoom inserts a READY participant into a WAITING room found by join
// code. Re-joining an already-joined room is a no-op.
func (s *Service) JoinRoom(ctx context.Context, code string, identity domain.Identity) (*domain.Room, error) {
	if identity.Id == "" {
		return nil, domain.ErrNotLoggedIn
	}
	room, err := s.store.GetRoomByCode(ctx, code)
	if err != nil {
		return nil, err
	}
	return s.store.Update(ctx, room.Id, func(room *domain.Room) error {
		if existing, ok := room.Participants[identity.Id]; ok && existing.Status.InSession() {
			return nil
		}
		if room.Status != domain.STATUS_WAITING {
			return fmt.Errorf("%w: room is %s", domain.ErrRoomNotJoinable, room.Status)
		}
		if len(room.Participants) >= room.MaxMembers {
			return fmt.Errorf("%w: room is full", domain.ErrRoomNotJoinable)
		}
		room.Participants[identity.Id] = newParticipant(identity, s.now())
		return nil
	})
}

// StartRoom moves the room to ACTIVE. Only the host may start; the state
// machine itself puts no lower bound on participant count.
func (s *Service) StartRoom(ctx context.Context, roomId, requesterId string) (*domain.Room, error) {
	return s.store.Update(ctx, roomId, func(room *domain.Room) error {
		if requesterId != room.HostId {
			return domain.ErrNotHost
		}
		if !room.Status.CanTransitionTo(domain.STATUS_ACTIVE) {
			return fmt.Errorf("%w: room is %s", domain.ErrRoomNotJoinable, room.Status)
		}
		room.Status = domain.STATUS_ACTIVE
		room.StartedAt = s.now()
		for _, p := range room.Participants {
			if p.Status.InSession() {
				p.Status = domain.PARTICIPANT_ACTIVE
			}
		}
		return nil
	})
}

// EndRoom finalizes the room. Idempotent: ending an already-COMPLETED room
// returns the existing snapshot and produces no second Result. Any client may
// call it once completion or the time limit is observed.
func (s *Service) EndRoom(ctx context.Context, roomId string) (*domain.Room, error) {
	alreadyDone := false
	snapshot, err := s.store.Update(ctx, roomId, func(room *domain.Room) error {
		if room.Status == domain.STATUS_COMPLETED {
			alreadyDone = true
			return nil
		}
		if !room.Status.CanTransitionTo(domain.STATUS_COMPLETED) {
			return fmt.Errorf("%w: room is %s", domain.ErrRoomNotActive, room.Status)
		}
		now := s.now()
		room.Status = domain.STATUS_COMPLETED
		room.EndedAt = now

		result, resErr := BuildResult(room, now)
		if resErr != nil {
			if errors.Is(resErr, domain.ErrNoParticipants) {
				log.Warn().Str("module", "arena").Str("room", room.Id).Msg("room ended with no completers, no result")
				return nil
			}
			return resErr
		}
		for i := range result.Rows {
			row := result.Rows[i]
			if p, ok := room.Participants[row.ParticipantId]; ok {
				p.FinalXP = row.XP
			}
		}
		room.Result = &result
		return nil
	})
	if err != nil {
		return nil, err
	}
	if !alreadyDone && snapshot.Result != nil && s.archive != nil {
		// Transient archive failures do not undo the room state; the result
		// still lives on the room document.
		if archErr := s.archive.SaveResult(ctx, *snapshot.Result); archErr != nil {
			log.Error().Err(archErr).Str("module", "arena").Str("room", roomId).Msg("result archive write failed")
		}
	}
	return snapshot, nil
}

// LeaveRoom marks the participant QUIT. The entry stays in the map so finish
// positions and history stay intact; room status is untouched.
func (s *Service) LeaveRoom(ctx context.Context, roomId, participantId string) (*domain.Room, error) {
	return s.store.Update(ctx, roomId, func(room *domain.Room) error {
		p, ok := room.Participants[participantId]
		if !ok {
			return domain.ErrNotInRoom
		}
		if p.Status == domain.PARTICIPANT_QUIT {
			return nil
		}
		p.Status = domain.PARTICIPANT_QUIT
		p.LastSeenAt = s.now()
		return nil
	})
}

// GetRoom returns the latest room snapshot.
func (s *Service) GetRoom(ctx context.Context, roomId string) (*domain.Room, error) {
	return s.store.GetRoom(ctx, roomId)
}

// GetResult returns the finalized result of a COMPLETED room.
func (s *Service) GetResult(ctx context.Context, roomId string) (domain.Result, error) {
	room, err := s.store.GetRoom(ctx, roomId)
	if err != nil {
		return domain.Result{}, err
	}
	if room.Status != domain.STATUS_COMPLETED {
		return domain.Result{}, fmt.Errorf("%w: no result while room is %s", domain.ErrRoomNotActive, room.Status)
	}
	if room.Result == nil {
		return domain.Result{}, domain.ErrNoParticipants
	}
	return room.Result.Clone(), nil
}
