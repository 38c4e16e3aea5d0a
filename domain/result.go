package domain

import "time"

// ResultRow is one participant's line in the finalized outcome, ordered by
// leaderboard position.
type ResultRow struct {
	ParticipantId    string `json:"participantId"`
	DisplayName      string `json:"displayName"`
	Position         int    `json:"position"`
	TasksCompleted   int    `json:"tasksCompleted"`
	TotalTasks       int    `json:"totalTasks"`
	FocusTimeMinutes int    `json:"focusTimeMinutes"`
	Violations       int    `json:"violations"`
	XP               int    `json:"xp"`
}

// Result is created exactly once, when the room reaches COMPLETED, and is
// immutable thereafter.
type Result struct {
	RoomId             string      `json:"roomId"`
	JoinCode           string      `json:"joinCode"`
	Challenge          Challenge   `json:"challenge"`
	WinnerId           string      `json:"winnerId"`
	WinnerName         string      `json:"winnerName"`
	WinnerXP           int         `json:"winnerXp"`
	Rows               []ResultRow `json:"rows"`
	TotalFocusSeconds  int         `json:"totalFocusSeconds"`
	AvgCompletionRatio float64     `json:"avgCompletionRatio"`
	CompletedAt        time.Time   `json:"completedAt"`
}

func (r Result) Clone() Result {
	cp := r
	cp.Rows = append([]ResultRow(nil), r.Rows...)
	return cp
}
