package arena

import (
	"time"

	"github.com/AnshulAlgoS/StudyChamp-sub000/domain"
)

// XP formula weights.
const (
	participationXP  = 100
	completionPoolXP = 500
	fullClearBonusXP = 200
	focusMinuteXP    = 10
	violationPenalty = 50
)

var placementBonus = map[int]int{1: 300, 2: 200, 3: 100}

// CalculateXP maps a participant's final metrics to an XP reward. Pure and
// deterministic; never negative.
func CalculateXP(tasksCompleted, totalTasks, focusTimeSeconds, finishPosition, violations int) int {
	xp := participationXP
	if totalTasks > 0 {
		xp += tasksCompleted * completionPoolXP / totalTasks
	}
	if totalTasks > 0 && tasksCompleted >= totalTasks {
		xp += fullClearBonusXP
	}
	xp += (focusTimeSeconds / 60) * focusMinuteXP
	xp += placementBonus[finishPosition]
	xp -= violations * violationPenalty
	if xp < 0 {
		xp = 0
	}
	return xp
}

// BuildResult computes the finalized outcome of a room: per-participant XP in
// leaderboard order, the winner (highest XP, earlier finish breaking ties)
// and the aggregate stats. Fails with NoParticipants when nobody ever
// completed.
func BuildResult(room *domain.Room, completedAt time.Time) (domain.Result, error) {
	if room.CompletedCount() == 0 {
		return domain.Result{}, domain.ErrNoParticipants
	}

	board := Leaderboard(room)
	rows := make([]domain.ResultRow, 0, len(board))
	totalFocus := 0
	ratioSum := 0.0
	winner := -1

	for _, p := range board {
		xp := CalculateXP(p.TasksCompleted, room.Challenge.TotalTasks, p.FocusTimeSeconds, p.FinishPosition, p.Violations)
		rows = append(rows, domain.ResultRow{
			ParticipantId:    p.Id,
			DisplayName:      p.DisplayName,
			Position:         p.FinishPosition,
			TasksCompleted:   p.TasksCompleted,
			TotalTasks:       room.Challenge.TotalTasks,
			FocusTimeMinutes: p.FocusTimeSeconds / 60,
			Violations:       p.Violations,
			XP:               xp,
		})
		totalFocus += p.FocusTimeSeconds
		if room.Challenge.TotalTasks > 0 {
			ratioSum += float64(p.TasksCompleted) / float64(room.Challenge.TotalTasks)
		}
		i := len(rows) - 1
		if winner < 0 || beats(rows[i], rows[winner]) {
			winner = i
		}
	}

	res := domain.Result{
		RoomId:            room.Id,
		JoinCode:          room.JoinCode,
		Challenge:         room.Challenge,
		WinnerId:          rows[winner].ParticipantId,
		WinnerName:        rows[winner].DisplayName,
		WinnerXP:          rows[winner].XP,
		Rows:              rows,
		TotalFocusSeconds: totalFocus,
		CompletedAt:       completedAt,
	}
	if len(rows) > 0 {
		res.AvgCompletionRatio = ratioSum / float64(len(rows))
	}
	return res, nil
}

// beats reports whether row a outranks row b for winner selection: higher XP
// wins, ties go to whoever finished earlier.
func beats(a, b domain.ResultRow) bool {
	if a.XP != b.XP {
		return a.XP > b.XP
	}
	return rankKey(a.Position) < rankKey(b.Position)
}
