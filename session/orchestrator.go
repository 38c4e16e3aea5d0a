package session

import (
	"context"
	"sync"
	"time"

	"github.com/AnshulAlgoS/StudyChamp-sub000/arena"
	"github.com/AnshulAlgoS/StudyChamp-sub000/domain"
	"github.com/AnshulAlgoS/StudyChamp-sub000/focus"
	"github.com/rs/zerolog/log"
)

type Phase int

const (
	PHASE_IDLE Phase = iota
	PHASE_LOADING
	PHASE_LOBBY
	PHASE_IN_SESSION
	PHASE_SHOWING_RESULT
)

func (p Phase) String() string {
	switch p {
	case PHASE_IDLE:
		return "IDLE"
	case PHASE_LOADING:
		return "LOADING"
	case PHASE_LOBBY:
		return "LOBBY"
	case PHASE_IN_SESSION:
		return "IN_SESSION"
	case PHASE_SHOWING_RESULT:
		return "SHOWING_RESULT"
	}
	return "UNKNOWN"
}

// ProgressPushInterval is how often the orchestrator mirrors local detector
// counters into the room store while the session is active.
const ProgressPushInterval = 5 * time.Second

// Orchestrator is the client-side coordinator: it mirrors room pushes into
// local state, runs the focus detector while the room is ACTIVE, streams
// progress into the store and surfaces the final result. One orchestrator
// serves one participant.
type Orchestrator struct {
	svc      *arena.Service
	identity domain.Identity
	querier  focus.Querier
	tickers  focus.PeriodicTickerChannelCreator
	// appId identifies the monitored application itself to the detector.
	appId string
	now   func() time.Time

	mu          sync.Mutex
	phase       Phase
	roomId      string
	room        *domain.Room
	tasksDone   int
	detector    *focus.Detector
	result      *domain.Result
	unsubscribe func()
	sessionStop context.CancelFunc
	sessionWG   sync.WaitGroup
	watchWG     sync.WaitGroup
}

func NewOrchestrator(svc *arena.Service, identity domain.Identity, appId string, querier focus.Querier, tickers focus.PeriodicTickerChannelCreator) *Orchestrator {
	return &Orchestrator{
		svc:      svc,
		identity: identity,
		querier:  querier,
		tickers:  tickers,
		appId:    appId,
		now:      time.Now,
		phase:    PHASE_IDLE,
	}
}

func (o *Orchestrator) Phase() Phase {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.phase
}

// RoomSnapshot is the last received push, a projection, never authoritative.
func (o *Orchestrator) RoomSnapshot() *domain.Room {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.room == nil {
		return nil
	}
	return o.room.Clone()
}

func (o *Orchestrator) Result() (domain.Result, bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.result == nil {
		return domain.Result{}, false
	}
	return o.result.Clone(), true
}

// CreateRoom creates and enters a new room as host.
func (o *Orchestrator) CreateRoom(ctx context.Context, challenge domain.Challenge, settings arena.RoomSettings) (*domain.Room, error) {
	o.setPhase(PHASE_LOADING)
	room, err := o.svc.CreateRoom(ctx, o.identity, challenge, settings)
	if err != nil {
		o.setPhase(PHASE_IDLE)
		return nil, err
	}
	if err := o.enterRoom(ctx, room); err != nil {
		o.setPhase(PHASE_IDLE)
		return nil, err
	}
	return room, nil
}

// JoinRoom joins an existing room by share code.
func (o *Orchestrator) JoinRoom(ctx context.Context, code string) (*domain.Room, error) {
	o.setPhase(PHASE_LOADING)
	room, err := o.svc.JoinRoom(ctx, code, o.identity)
	if err != nil {
		o.setPhase(PHASE_IDLE)
		return nil, err
	}
	if err := o.enterRoom(ctx, room); err != nil {
		o.setPhase(PHASE_IDLE)
		return nil, err
	}
	return room, nil
}

func (o *Orchestrator) enterRoom(ctx context.Context, room *domain.Room) error {
	updates, cancel, err := o.svc.Store().Subscribe(ctx, room.Id)
	if err != nil {
		return err
	}
	o.mu.Lock()
	o.roomId = room.Id
	o.room = room.Clone()
	o.tasksDone = 0
	o.result = nil
	o.unsubscribe = cancel
	o.phase = PHASE_LOBBY
	o.mu.Unlock()

	o.watchWG.Add(1)
	go o.watch(updates)
	return nil
}

// StartSession asks the state machine to start the room; only valid for the
// host.
func (o *Orchestrator) StartSession(ctx context.Context) error {
	o.mu.Lock()
	roomId := o.roomId
	o.mu.Unlock()
	if roomId == "" {
		return domain.ErrRoomNotFound
	}
	_, err := o.svc.StartRoom(ctx, roomId, o.identity.Id)
	return err
}

// watch mirrors store pushes into local state and drives phase transitions.
func (o *Orchestrator) watch(updates <-chan *domain.Room) {
	defer o.watchWG.Done()
	for snap := range updates {
		o.mu.Lock()
		stale := o.roomId != snap.Id
		o.mu.Unlock()
		if stale {
			continue
		}

		o.mu.Lock()
		o.room = snap
		phase := o.phase
		o.mu.Unlock()

		switch {
		case snap.Status == domain.STATUS_ACTIVE && phase == PHASE_LOBBY:
			o.beginSession(snap)
		case snap.Status == domain.STATUS_COMPLETED && phase != PHASE_SHOWING_RESULT && phase != PHASE_IDLE:
			o.finishSession(snap)
		}
	}
}

// beginSession starts the focus detector and the progress-push loop.
func (o *Orchestrator) beginSession(room *domain.Room) {
	detector := focus.NewDetector(focus.Config{
		MonitoredApp: o.appId,
		AllowedApps:  room.AllowedApps,
		Strict:       room.StrictFocus,
	}, o.querier, o.tickers)

	ctx, cancel := context.WithCancel(context.Background())

	o.mu.Lock()
	if o.phase != PHASE_LOBBY {
		o.mu.Unlock()
		cancel()
		return
	}
	o.phase = PHASE_IN_SESSION
	o.detector = detector
	o.sessionStop = cancel
	// The detector must be started and the goroutines accounted before the
	// lock drops: a concurrent stopSession that sees this session must be
	// able to stop all of it.
	detector.Start()
	o.sessionWG.Add(2)
	o.mu.Unlock()

	go o.consumeViolations(ctx, detector)
	go o.pushProgress(ctx, detector)
	log.Info().Str("module", "session").Str("room", room.Id).Str("participant", o.identity.Id).Msg("session started")
}

// consumeViolations forwards detector violations into the room log as both a
// violation entry and a system chat message.
func (o *Orchestrator) consumeViolations(ctx context.Context, detector *focus.Detector) {
	defer o.sessionWG.Done()
	for {
		select {
		case <-ctx.Done():
			return
		case v := <-detector.Violations():
			v.ParticipantId = o.identity.Id
			o.mu.Lock()
			roomId := o.roomId
			o.mu.Unlock()
			if err := o.svc.RecordViolation(ctx, roomId, v); err != nil {
				log.Warn().Err(err).Str("module", "session").Msg("violation record failed")
			}
		}
	}
}

// pushProgress writes local counters to the store every interval and enforces
// the room time limit. A failed push is dropped and retried next tick;
// correctness only needs the latest counters, not every tick.
func (o *Orchestrator) pushProgress(ctx context.Context, detector *focus.Detector) {
	defer o.sessionWG.Done()
	ticks := o.tickers.Create(ProgressPushInterval)
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticks:
			o.pushOnce(ctx, detector)
			o.checkTimeLimit(ctx, now)
		}
	}
}

func (o *Orchestrator) pushOnce(ctx context.Context, detector *focus.Detector) {
	o.mu.Lock()
	roomId := o.roomId
	tasksDone := o.tasksDone
	o.mu.Unlock()
	snap := detector.Snapshot()
	_, err := o.svc.PushProgress(ctx, roomId, o.identity.Id, arena.ProgressUpdate{
		TasksCompleted:   tasksDone,
		FocusTimeSeconds: snap.FocusSeconds,
		CurrentStreak:    snap.StreakSeconds,
		Distracted:       snap.Distracted,
	})
	if err != nil {
		log.Debug().Err(err).Str("module", "session").Str("room", roomId).Msg("progress push dropped")
	}
}

// checkTimeLimit recomputes the remaining time from the last room push and
// calls the idempotent end when it has elapsed. Every client does this
// independently; redundant concurrent ends are safe.
func (o *Orchestrator) checkTimeLimit(ctx context.Context, now time.Time) {
	o.mu.Lock()
	room := o.room
	roomId := o.roomId
	o.mu.Unlock()
	if room == nil || room.Status != domain.STATUS_ACTIVE {
		return
	}
	if room.Remaining(now) > 0 {
		return
	}
	if _, err := o.svc.EndRoom(ctx, roomId); err != nil {
		log.Warn().Err(err).Str("module", "session").Str("room", roomId).Msg("time-limit end failed")
	}
}

// ReportTaskDone records one locally completed task. When the full task set
// is done it reports completion to the arbiter; the returned position is 0
// until then.
func (o *Orchestrator) ReportTaskDone(ctx context.Context) (int, error) {
	o.mu.Lock()
	if o.phase != PHASE_IN_SESSION {
		o.mu.Unlock()
		return 0, domain.ErrRoomNotActive
	}
	o.tasksDone++
	tasksDone := o.tasksDone
	roomId := o.roomId
	total := o.room.Challenge.TotalTasks
	detector := o.detector
	o.mu.Unlock()

	if tasksDone < total {
		snap := detector.Snapshot()
		_, err := o.svc.PushProgress(ctx, roomId, o.identity.Id, arena.ProgressUpdate{
			TasksCompleted:   tasksDone,
			FocusTimeSeconds: snap.FocusSeconds,
			CurrentStreak:    snap.StreakSeconds,
			Distracted:       snap.Distracted,
		})
		return 0, err
	}

	position, _, err := o.svc.CompleteTask(ctx, roomId, o.identity.Id)
	return position, err
}

// SendChat drops a chat message into the room event log.
func (o *Orchestrator) SendChat(ctx context.Context, text string) error {
	o.mu.Lock()
	roomId := o.roomId
	o.mu.Unlock()
	if roomId == "" {
		return domain.ErrRoomNotFound
	}
	return o.svc.Store().AppendMessage(ctx, roomId, domain.NewChatMessage(o.identity.Id, o.identity.DisplayName, text, o.now()))
}

// finishSession tears the session down and surfaces the result. The detector
// is always stopped before anything else is released.
func (o *Orchestrator) finishSession(room *domain.Room) {
	o.stopSession()

	o.mu.Lock()
	if room.Result != nil {
		res := room.Result.Clone()
		o.result = &res
	}
	o.phase = PHASE_SHOWING_RESULT
	o.mu.Unlock()
	log.Info().Str("module", "session").Str("room", room.Id).Msg("session finished")
}

// stopSession stops the detector first, then the session goroutines. Stop
// ordering is a contract: a live polling loop must never outlive session
// membership.
func (o *Orchestrator) stopSession() {
	o.mu.Lock()
	detector := o.detector
	cancel := o.sessionStop
	o.detector = nil
	o.sessionStop = nil
	o.mu.Unlock()

	if detector != nil {
		detector.Stop()
	}
	if cancel != nil {
		cancel()
	}
	o.sessionWG.Wait()
}

// Leave quits the room: detector down, QUIT recorded, subscription released.
func (o *Orchestrator) Leave(ctx context.Context) error {
	o.stopSession()

	o.mu.Lock()
	roomId := o.roomId
	unsubscribe := o.unsubscribe
	o.roomId = ""
	o.room = nil
	o.unsubscribe = nil
	o.phase = PHASE_IDLE
	o.mu.Unlock()

	if roomId == "" {
		return nil
	}
	var err error
	if _, leaveErr := o.svc.LeaveRoom(ctx, roomId, o.identity.Id); leaveErr != nil {
		err = leaveErr
	}
	if unsubscribe != nil {
		unsubscribe()
	}
	o.watchWG.Wait()
	return err
}

// Close tears the orchestrator down on process shutdown. Leaving an ACTIVE
// room this way counts as closing the app and is logged as such.
func (o *Orchestrator) Close(ctx context.Context) error {
	o.mu.Lock()
	room := o.room
	roomId := o.roomId
	active := room != nil && room.Status == domain.STATUS_ACTIVE && o.phase == PHASE_IN_SESSION
	o.mu.Unlock()

	if active {
		v := domain.Violation{
			ParticipantId: o.identity.Id,
			Type:          domain.VIOLATION_APP_CLOSED,
			Description:   "application closed during active session",
			Timestamp:     o.now(),
		}
		if err := o.svc.RecordViolation(ctx, roomId, v); err != nil {
			log.Warn().Err(err).Str("module", "session").Msg("app-closed violation record failed")
		}
	}
	return o.Leave(ctx)
}

func (o *Orchestrator) setPhase(p Phase) {
	o.mu.Lock()
	o.phase = p
	o.mu.Unlock()
}
