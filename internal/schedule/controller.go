// Package schedule drives one user's booking calendar: it loads the visible weeks, turns
// cell presses into gateway calls and keeps the grid in step with the backend.
package schedule

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/Freeeeeet/drivingschool_bot/internal/auth"
	"github.com/Freeeeeet/drivingschool_bot/internal/gateway"
	"github.com/Freeeeeet/drivingschool_bot/internal/grid"
	"github.com/Freeeeeet/drivingschool_bot/internal/model"
	"github.com/Freeeeeet/drivingschool_bot/internal/permission"
	"github.com/Freeeeeet/drivingschool_bot/internal/timegrid"
	"go.uber.org/zap"
)

var (
	// ErrSuperseded is returned by a fetch whose response was discarded because a newer
	// fetch started or the controller was unmounted.
	ErrSuperseded = errors.New("fetch superseded")
	ErrNotMounted = errors.New("schedule is not mounted")
	ErrStaffOnly  = errors.New("only instructors and admins can block days")
)

// Gateway is the part of the booking backend the controller talks to.
type Gateway interface {
	FetchBookedClasses(ctx context.Context, token string, from, to time.Time) ([]*model.Reservation, error)
	BookClass(ctx context.Context, token, instructorID string, start, end time.Time, opts gateway.BookOptions) (*model.Reservation, error)
	CancelClass(ctx context.Context, token, reservationID string) error
}

type State int

const (
	StateIdle State = iota
	StateLoading
	StateReady
)

func (s State) String() string {
	switch s {
	case StateLoading:
		return "loading"
	case StateReady:
		return "ready"
	default:
		return "idle"
	}
}

// Outcome reports what a click did.
type Outcome string

const (
	OutcomeIgnored   Outcome = "ignored"
	OutcomeBusy      Outcome = "busy"
	OutcomeBooked    Outcome = "booked"
	OutcomeCancelled Outcome = "cancelled"
	OutcomeConflict  Outcome = "conflict"
	OutcomeFailed    Outcome = "failed"
)

const defaultMaxParallel = 4

type Options struct {
	Layout *timegrid.Layout
	// DefaultInstructorID is the instructor a learner's booking is made with.
	DefaultInstructorID string
	CancelCutoff        time.Duration
	NoticeTTL           time.Duration
	ShiftAfterFriday    bool
	// MaxParallel bounds the concurrent requests of BlockDay.
	MaxParallel int
	Now         func() time.Time
}

type Controller struct {
	gw        Gateway
	session   auth.Session
	identity  auth.Identity
	layout    *timegrid.Layout
	evaluator permission.Evaluator
	horizon   timegrid.Horizon
	opts      Options
	notices   *NoticeBoard
	now       func() time.Time
	logger    *zap.Logger

	mu         sync.Mutex
	state      State
	mounted    bool
	weeks      []timegrid.Week
	store      *grid.Store
	current    int
	generation uint64
	journal    *journal
	busy       map[string]struct{}
	lastActive time.Time
}

func NewController(gw Gateway, session auth.Session, opts Options, logger *zap.Logger) *Controller {
	if opts.Layout == nil {
		opts.Layout = timegrid.DefaultLayout(timegrid.DefaultSlotDuration)
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.MaxParallel <= 0 {
		opts.MaxParallel = defaultMaxParallel
	}

	identity := session.Identity()
	return &Controller{
		gw:         gw,
		session:    session,
		identity:   identity,
		layout:     opts.Layout,
		evaluator:  permission.NewEvaluator(opts.CancelCutoff),
		horizon:    timegrid.HorizonFor(identity.Role, opts.ShiftAfterFriday),
		opts:       opts,
		notices:    NewNoticeBoard(opts.NoticeTTL, opts.Now),
		now:        opts.Now,
		logger:     logger.Named("schedule").With(zap.String("user_id", identity.UserID), zap.String("role", string(identity.Role))),
		journal:    newJournal(),
		busy:       make(map[string]struct{}),
		lastActive: opts.Now(),
	}
}

// ============================================================================
// Lifecycle and navigation
// ============================================================================

// Mount builds the visible weeks for today, resets to the first week and loads it.
func (c *Controller) Mount(ctx context.Context) error {
	c.mu.Lock()
	now := c.now()
	c.mounted = true
	c.weeks = c.horizon.Generate(now)
	c.store = grid.NewStore(c.weeks, c.layout)
	c.current = 0
	c.busy = make(map[string]struct{})
	c.lastActive = now
	weeks := len(c.weeks)
	c.mu.Unlock()

	c.logger.Debug("Schedule mounted", zap.Int("weeks", weeks))
	return c.load(ctx)
}

// Unmount stops reconciliation. Responses still in flight are discarded.
func (c *Controller) Unmount() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.mounted = false
	c.generation++
	c.state = StateIdle
}

// Reload re-fetches the visible range. If the week has turned since the last load the
// window moves forward with it.
func (c *Controller) Reload(ctx context.Context) error {
	c.touch()
	return c.load(ctx)
}

// Next moves one week forward. At the last week it does nothing and reports false.
func (c *Controller) Next(ctx context.Context) (bool, error) {
	return c.move(ctx, 1)
}

// Previous moves one week back. At the first week it does nothing and reports false.
func (c *Controller) Previous(ctx context.Context) (bool, error) {
	return c.move(ctx, -1)
}

func (c *Controller) move(ctx context.Context, delta int) (bool, error) {
	c.mu.Lock()
	if !c.mounted {
		c.mu.Unlock()
		return false, ErrNotMounted
	}
	target := c.current + delta
	if target < 0 || target >= len(c.weeks) {
		c.mu.Unlock()
		return false, nil
	}
	c.current = target
	c.lastActive = c.now()
	c.mu.Unlock()

	return true, c.load(ctx)
}

// load fetches the whole visible range and rebuilds the grid. Only the latest fetch is
// applied; on failure the previous grid stays. Cell changes confirmed while the fetch was
// in flight are replayed over the rebuilt grid.
func (c *Controller) load(ctx context.Context) error {
	c.mu.Lock()
	if !c.mounted {
		c.mu.Unlock()
		return ErrNotMounted
	}
	c.generation++
	gen := c.generation
	c.state = StateLoading
	weeks := c.weeks
	if fresh := c.horizon.Generate(c.now()); !sameWindow(fresh, weeks) {
		weeks = fresh
	}
	from, to := timegrid.Range(weeks)
	pos := c.journal.begin()
	c.mu.Unlock()

	reservations, err := c.gw.FetchBookedClasses(ctx, c.session.Token, from, to)

	c.mu.Lock()
	defer c.mu.Unlock()
	defer c.journal.end(pos)

	if !c.mounted || gen != c.generation {
		c.logger.Debug("Discarding stale fetch", zap.Uint64("generation", gen), zap.Uint64("latest", c.generation))
		return ErrSuperseded
	}
	c.state = StateReady

	if err != nil {
		c.logger.Error("Failed to load schedule", zap.Error(err))
		c.notifyFailure(err, "Could not load the schedule. Try again in a moment.")
		return fmt.Errorf("load schedule: %w", err)
	}

	if !sameWindow(weeks, c.weeks) {
		c.rollLocked(weeks)
	}

	store, dropped := grid.Build(weeks, c.layout, reservations)
	replayed := c.journal.replay(store, pos, "")
	c.store = store
	c.logDropped(dropped)

	c.logger.Debug("Schedule loaded",
		zap.Int("reservations", len(reservations)),
		zap.Int("placed", store.Count()),
		zap.Int("dropped", len(dropped)),
		zap.Int("replayed", replayed))
	return nil
}

// rollLocked moves the window to weeks, keeping the user on the same calendar week
// while it is still visible. Callers hold c.mu.
func (c *Controller) rollLocked(weeks []timegrid.Week) {
	shift := 0
	if len(c.weeks) > 0 {
		days := weeks[0].First().Date.Sub(c.weeks[0].First().Date).Hours() / 24
		shift = int(days+0.5) / 7
	}
	current := c.current - shift
	if current < 0 {
		current = 0
	}
	if current >= len(weeks) {
		current = len(weeks) - 1
	}

	c.logger.Info("Week window moved",
		zap.String("first_day", weeks[0].First().Key),
		zap.Int("shift", shift),
		zap.Int("current", current))
	c.weeks = weeks
	c.current = current
}

func sameWindow(a, b []timegrid.Week) bool {
	if len(a) != len(b) {
		return false
	}
	return len(a) == 0 || a[0].First().Key == b[0].First().Key
}

func (c *Controller) logDropped(dropped []grid.Dropped) {
	for _, d := range dropped {
		if d.Reason == grid.DropCancelled {
			continue
		}
		c.logger.Debug("Reservation left out of grid",
			zap.String("reservation_id", d.Reservation.ID),
			zap.String("start", timegrid.FormatWallClock(d.Reservation.Start)),
			zap.String("reason", string(d.Reason)))
	}
}

// ============================================================================
// Cell actions
// ============================================================================

// Click handles a press on one cell of the grid. Non-clickable cells, clicks while loading
// and repeated clicks on a cell with a request in flight do nothing.
func (c *Controller) Click(ctx context.Context, dayKey string, slot int) (Outcome, error) {
	c.mu.Lock()
	if !c.mounted || c.state != StateReady {
		c.mu.Unlock()
		return OutcomeIgnored, nil
	}
	c.lastActive = c.now()

	coord, cell, ok := c.cellLocked(dayKey, slot)
	if !ok {
		c.mu.Unlock()
		return OutcomeIgnored, grid.ErrOutOfGrid
	}

	decision := c.evaluator.Evaluate(c.identity, cell, c.now())
	if !decision.Clickable {
		c.mu.Unlock()
		return OutcomeIgnored, nil
	}

	key := coord.Key()
	if _, busy := c.busy[key]; busy {
		c.mu.Unlock()
		return OutcomeBusy, nil
	}
	c.busy[key] = struct{}{}
	c.mu.Unlock()

	defer c.release(key)

	switch decision.Action {
	case permission.ActionBook:
		return c.book(ctx, coord, cell)
	case permission.ActionCancel:
		return c.cancel(ctx, coord, cell)
	default:
		return OutcomeIgnored, nil
	}
}

func (c *Controller) book(ctx context.Context, coord grid.Coord, cell permission.Cell) (Outcome, error) {
	instructorID, opts := c.bookingTarget()
	end := cell.Start.Add(c.layout.Duration())

	r, err := c.gw.BookClass(ctx, c.session.Token, instructorID, cell.Start, end, opts)
	if err != nil {
		return c.mutationFailed(coord, err, "Could not book this slot. Please try again.")
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.mounted {
		return OutcomeBooked, nil
	}
	if !c.commitLocked(commit{day: coord.Day, slot: coord.Slot, reservation: r}) {
		c.logger.Warn("Booked cell no longer in grid", zap.String("cell", coord.Key()))
	}

	when := describeSlot(cell)
	if opts.Vacation {
		c.notices.Post(LevelSuccess, "Blocked "+when+".")
	} else {
		c.notices.Post(LevelSuccess, "Lesson booked for "+when+".")
	}
	c.logger.Info("Cell booked", zap.String("cell", coord.Key()), zap.String("reservation_id", r.ID))
	return OutcomeBooked, nil
}

func (c *Controller) cancel(ctx context.Context, coord grid.Coord, cell permission.Cell) (Outcome, error) {
	r := cell.Reservation
	if err := c.gw.CancelClass(ctx, c.session.Token, r.ID); err != nil {
		return c.mutationFailed(coord, err, "Could not cancel. Please try again.")
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.mounted {
		return OutcomeCancelled, nil
	}
	c.commitLocked(commit{day: coord.Day, slot: coord.Slot, clearID: r.ID})

	when := describeSlot(cell)
	if r.IsBlocked() {
		c.notices.Post(LevelSuccess, "Unblocked "+when+".")
	} else {
		c.notices.Post(LevelSuccess, "Lesson on "+when+" cancelled.")
	}
	c.logger.Info("Cell cancelled", zap.String("cell", coord.Key()), zap.String("reservation_id", r.ID))
	return OutcomeCancelled, nil
}

// bookingTarget decides whose calendar an empty-cell press books on. Staff block their own
// time; learners book with the configured instructor.
func (c *Controller) bookingTarget() (string, gateway.BookOptions) {
	if c.identity.Role.IsStaff() {
		return c.identity.UserID, gateway.BookOptions{Vacation: true}
	}
	return c.opts.DefaultInstructorID, gateway.BookOptions{LearnerID: c.identity.LearnerID}
}

func (c *Controller) mutationFailed(coord grid.Coord, err error, generic string) (Outcome, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if msg, ok := gateway.IsConflict(err); ok {
		c.logger.Warn("Backend rejected change", zap.String("cell", coord.Key()), zap.String("message", msg))
		c.notices.Post(LevelWarning, msg)
		return OutcomeConflict, err
	}

	c.logger.Error("Cell change failed", zap.String("cell", coord.Key()), zap.Error(err))
	c.notifyFailure(err, generic)
	return OutcomeFailed, err
}

// notifyFailure posts the error notice for a non-conflict failure. Callers hold c.mu.
func (c *Controller) notifyFailure(err error, generic string) {
	if errors.Is(err, gateway.ErrUnauthorized) {
		c.notices.Post(LevelError, "Your session has expired. Please /login again.")
		return
	}
	c.notices.Post(LevelError, generic)
}

// commitLocked applies a confirmed change and journals it for fetches still in flight.
// Callers hold c.mu.
func (c *Controller) commitLocked(e commit) bool {
	c.journal.record(e)
	return applyCommit(c.store, e)
}

func (c *Controller) release(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.busy, key)
}

func (c *Controller) touch() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lastActive = c.now()
}

// cellLocked resolves a day key and slot index to the grid cell. Callers hold c.mu.
func (c *Controller) cellLocked(dayKey string, slot int) (grid.Coord, permission.Cell, bool) {
	if c.store == nil || !c.layout.Valid(slot) {
		return grid.Coord{}, permission.Cell{}, false
	}
	week, ok := c.store.WeekOf(dayKey)
	if !ok {
		return grid.Coord{}, permission.Cell{}, false
	}
	day, ok := dayIn(c.weeks[week], dayKey)
	if !ok {
		return grid.Coord{}, permission.Cell{}, false
	}

	coord := grid.Coord{Week: week, Day: dayKey, Slot: slot}
	return coord, c.cellFor(day, slot, c.store.At(coord)), true
}

func (c *Controller) cellFor(day timegrid.Day, slot int, r *model.Reservation) permission.Cell {
	return permission.Cell{
		Label:       c.layout.Label(slot),
		Start:       c.layout.SlotStart(day.Date, slot),
		Break:       c.layout.IsBreak(slot),
		Reservation: r,
	}
}

func dayIn(week timegrid.Week, key string) (timegrid.Day, bool) {
	for _, d := range week {
		if d.Key == key {
			return d, true
		}
	}
	return timegrid.Day{}, false
}

func describeSlot(cell permission.Cell) string {
	return cell.Start.Format("Mon 02 Jan") + ", " + cell.Label
}

// ============================================================================
// Read side
// ============================================================================

func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

func (c *Controller) CurrentWeek() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.current
}

func (c *Controller) Identity() auth.Identity {
	return c.identity
}

// LastActive is the time of the last user-driven operation.
func (c *Controller) LastActive() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastActive
}

func (c *Controller) Notice() (Notice, bool) {
	return c.notices.Current()
}

func (c *Controller) Dismiss() {
	c.notices.Dismiss()
}

// SweepNotice drops the notice once it has been visible for the configured TTL.
func (c *Controller) SweepNotice() bool {
	return c.notices.Sweep()
}
