package arena

import (
	"context"
	"fmt"
	"sort"

	"github.com/AnshulAlgoS/StudyChamp-sub000/domain"
	"github.com/rs/zerolog/log"
)

// ProgressUpdate is one participant's self-reported progress tick. Only the
// owning client ever writes its own counters.
type ProgressUpdate struct {
	TasksCompleted   int  `json:"tasksCompleted"`
	FocusTimeSeconds int  `json:"focusTimeSeconds"`
	CurrentStreak    int  `json:"currentStreakSeconds"`
	Distracted       bool `json:"distracted"`
}

// PushProgress applies a progress tick. Pushes against a room that is no
// longer ACTIVE are rejected rather than silently merged; tasksCompleted is
// monotonic, a stale lower value never wins, and is capped at the challenge's
// task count.
func (s *Service) PushProgress(ctx context.Context, roomId, participantId string, up ProgressUpdate) (*domain.Room, error) {
	return s.store.Update(ctx, roomId, func(room *domain.Room) error {
		if room.Status != domain.STATUS_ACTIVE {
			return fmt.Errorf("%w: progress push rejected", domain.ErrRoomCompleted)
		}
		p, ok := room.Participants[participantId]
		if !ok {
			return domain.ErrNotInRoom
		}
		if !p.Status.InSession() {
			return domain.ErrNotInRoom
		}
		if p.Status == domain.PARTICIPANT_COMPLETED {
			return nil
		}
		tasks := up.TasksCompleted
		if total := room.Challenge.TotalTasks; total > 0 && tasks > total {
			tasks = total
		}
		if tasks > p.TasksCompleted {
			p.TasksCompleted = tasks
		}
		p.FocusTimeSeconds = up.FocusTimeSeconds
		p.CurrentStreak = up.CurrentStreak
		if up.Distracted {
			p.Status = domain.PARTICIPANT_DISTRACTED
		} else {
			p.Status = domain.PARTICIPANT_FOCUSED
		}
		p.LastSeenAt = s.now()
		return nil
	})
}

// RecordViolation bumps the participant's violation counter, appends the
// violation to the room log and drops a system message into the chat.
func (s *Service) RecordViolation(ctx context.Context, roomId string, v domain.Violation) error {
	snapshot, err := s.store.Update(ctx, roomId, func(room *domain.Room) error {
		p, ok := room.Participants[v.ParticipantId]
		if !ok {
			return domain.ErrNotInRoom
		}
		p.Violations++
		p.CurrentStreak = 0
		return nil
	})
	if err != nil {
		return err
	}
	if err := s.store.AppendViolation(ctx, roomId, v); err != nil {
		return err
	}
	if err := s.store.AppendMessage(ctx, roomId, domain.NewViolationMessage(v)); err != nil {
		return err
	}
	name := v.ParticipantId
	if p, ok := snapshot.Participants[v.ParticipantId]; ok {
		name = p.DisplayName
	}
	text := fmt.Sprintf("%s lost focus: %s", name, v.Type)
	return s.store.AppendMessage(ctx, roomId, domain.NewSystemMessage(text, v.Timestamp))
}

// CompleteTask records that the caller finished the full task set and assigns
// the finish position inside the store transaction, so two participants
// racing to complete never share a position. When the last non-QUIT
// participant completes, the room is ended.
func (s *Service) CompleteTask(ctx context.Context, roomId, participantId string) (int, *domain.Room, error) {
	position := 0
	snapshot, err := s.store.Update(ctx, roomId, func(room *domain.Room) error {
		if room.Status != domain.STATUS_ACTIVE {
			return fmt.Errorf("%w: completion rejected", domain.ErrRoomCompleted)
		}
		p, ok := room.Participants[participantId]
		if !ok {
			return domain.ErrNotInRoom
		}
		switch p.Status {
		case domain.PARTICIPANT_COMPLETED:
			return domain.ErrAlreadyFinished
		case domain.PARTICIPANT_ACTIVE, domain.PARTICIPANT_FOCUSED, domain.PARTICIPANT_DISTRACTED:
		default:
			return domain.ErrNotInRoom
		}
		position = room.CompletedCount() + 1
		p.Status = domain.PARTICIPANT_COMPLETED
		p.FinishPosition = position
		p.TasksCompleted = room.Challenge.TotalTasks
		p.CompletedAt = s.now()
		p.LastSeenAt = p.CompletedAt
		return nil
	})
	if err != nil {
		return 0, nil, err
	}
	log.Info().Str("module", "arena").Str("room", roomId).Str("participant", participantId).Int("position", position).Msg("task set completed")

	if snapshot.FullyComplete() {
		if snapshot, err = s.EndRoom(ctx, roomId); err != nil {
			return position, nil, err
		}
	}
	return position, snapshot, nil
}

// Leaderboard is a pure view over the participant registry: finish position
// ascending with 0/unset last, then tasks completed descending, then focus
// time descending. QUIT participants are excluded.
func Leaderboard(room *domain.Room) []domain.Participant {
	out := make([]domain.Participant, 0, len(room.Participants))
	for _, p := range room.Participants {
		if p.Status == domain.PARTICIPANT_QUIT {
			continue
		}
		out = append(out, *p)
	}
	sort.SliceStable(out, func(i, j int) bool {
		pi, pj := rankKey(out[i].FinishPosition), rankKey(out[j].FinishPosition)
		if pi != pj {
			return pi < pj
		}
		if out[i].TasksCompleted != out[j].TasksCompleted {
			return out[i].TasksCompleted > out[j].TasksCompleted
		}
		if out[i].FocusTimeSeconds != out[j].FocusTimeSeconds {
			return out[i].FocusTimeSeconds > out[j].FocusTimeSeconds
		}
		return out[i].Id < out[j].Id
	})
	return out
}

// rankKey maps the unset position 0 after every assigned position.
func rankKey(position int) int {
	if position == 0 {
		return int(^uint(0) >> 1)
	}
	return position
}
