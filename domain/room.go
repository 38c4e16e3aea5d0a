package domain

import "time"

type RoomStatus int

const (
	STATUS_WAITING RoomStatus = iota
	STATUS_STARTING
	STATUS_ACTIVE
	STATUS_COMPLETED
)

func (s RoomStatus) String() string {
	switch s {
	case STATUS_WAITING:
		return "WAITING"
	case STATUS_STARTING:
		return "STARTING"
	case STATUS_ACTIVE:
		return "ACTIVE"
	case STATUS_COMPLETED:
		return "COMPLETED"
	}
	return "UNKNOWN"
}

// CanTransitionTo reports whether moving to next is a legal forward step.
// Transitions are monotonic; STARTING is optional, WAITING may go straight
// to ACTIVE. COMPLETED is terminal.
func (s RoomStatus) CanTransitionTo(next RoomStatus) bool {
	switch s {
	case STATUS_WAITING:
		return next == STATUS_STARTING || next == STATUS_ACTIVE
	case STATUS_STARTING:
		return next == STATUS_ACTIVE
	case STATUS_ACTIVE:
		return next == STATUS_COMPLETED
	}
	return false
}

type ParticipantStatus int

const (
	PARTICIPANT_READY ParticipantStatus = iota
	PARTICIPANT_ACTIVE
	PARTICIPANT_FOCUSED
	PARTICIPANT_DISTRACTED
	PARTICIPANT_COMPLETED
	PARTICIPANT_QUIT
)

func (s ParticipantStatus) String() string {
	switch s {
	case PARTICIPANT_READY:
		return "READY"
	case PARTICIPANT_ACTIVE:
		return "ACTIVE"
	case PARTICIPANT_FOCUSED:
		return "FOCUSED"
	case PARTICIPANT_DISTRACTED:
		return "DISTRACTED"
	case PARTICIPANT_COMPLETED:
		return "COMPLETED"
	case PARTICIPANT_QUIT:
		return "QUIT"
	}
	return "UNKNOWN"
}

// InSession reports whether the participant still counts toward room
// completion. QUIT participants stay in the map but are excluded.
func (s ParticipantStatus) InSession() bool {
	return s != PARTICIPANT_QUIT
}

// Challenge describes the fixed task set a room races through.
type Challenge struct {
	Subject          string `json:"subject"`
	TaskDescription  string `json:"taskDescription"`
	TotalTasks       int    `json:"totalTasks"`
	TimeLimitMinutes int    `json:"timeLimitMinutes"`
}

type Participant struct {
	Id               string            `json:"id"`
	DisplayName      string            `json:"displayName"`
	TasksCompleted   int               `json:"tasksCompleted"`
	FocusTimeSeconds int               `json:"focusTimeSeconds"`
	CurrentStreak    int               `json:"currentStreakSeconds"`
	Violations       int               `json:"violations"`
	Status           ParticipantStatus `json:"status"`
	// FinishPosition is 0 until assigned; 1..K in completion order after.
	FinishPosition int       `json:"finishPosition"`
	FinalXP        int       `json:"finalXP"`
	JoinedAt       time.Time `json:"joinedAt"`
	LastSeenAt     time.Time `json:"lastSeenAt"`
	CompletedAt    time.Time `json:"completedAt,omitempty"`
}

type Room struct {
	Id        string     `json:"id"`
	JoinCode  string     `json:"joinCode"`
	HostId    string     `json:"hostId"`
	Challenge Challenge  `json:"challenge"`
	Status    RoomStatus `json:"status"`
	CreatedAt time.Time  `json:"createdAt"`
	StartedAt time.Time  `json:"startedAt,omitempty"`
	EndedAt   time.Time  `json:"endedAt,omitempty"`
	// Participants is keyed by participant id. Entries are never removed;
	// leavers are marked QUIT so finish positions and history stay intact.
	Participants map[string]*Participant `json:"participants"`
	MaxMembers   int                     `json:"maxMembers"`
	StrictFocus  bool                    `json:"strictFocus"`
	AllowedApps  []string                `json:"allowedApps"`
	Result       *Result                 `json:"result,omitempty"`
}

// TimeLimit is a convenience accessor over the challenge descriptor.
func (r *Room) TimeLimit() time.Duration {
	return time.Duration(r.Challenge.TimeLimitMinutes) * time.Minute
}

// Remaining computes the wall-clock time left before the room times out.
// Each client recomputes this independently; negative means expired.
func (r *Room) Remaining(now time.Time) time.Duration {
	if r.Status != STATUS_ACTIVE || r.StartedAt.IsZero() {
		return r.TimeLimit()
	}
	return r.TimeLimit() - now.Sub(r.StartedAt)
}

// CompletedCount counts participants that ever reached COMPLETED.
func (r *Room) CompletedCount() int {
	n := 0
	for _, p := range r.Participants {
		if p.Status == PARTICIPANT_COMPLETED {
			n++
		}
	}
	return n
}

// FullyComplete reports whether every non-QUIT participant has COMPLETED.
// A room with only QUIT participants is not considered complete.
func (r *Room) FullyComplete() bool {
	active := 0
	for _, p := range r.Participants {
		if !p.Status.InSession() {
			continue
		}
		if p.Status != PARTICIPANT_COMPLETED {
			return false
		}
		active++
	}
	return active > 0
}

// Clone returns a deep copy safe to hand outside the store actor.
func (r *Room) Clone() *Room {
	cp := *r
	cp.Participants = make(map[string]*Participant, len(r.Participants))
	for id, p := range r.Participants {
		pc := *p
		cp.Participants[id] = &pc
	}
	cp.AllowedApps = append([]string(nil), r.AllowedApps...)
	if r.Result != nil {
		res := r.Result.Clone()
		cp.Result = &res
	}
	return &cp
}
