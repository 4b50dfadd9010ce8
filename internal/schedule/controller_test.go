package schedule

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/Freeeeeet/drivingschool_bot/internal/auth"
	"github.com/Freeeeeet/drivingschool_bot/internal/gateway"
	"github.com/Freeeeeet/drivingschool_bot/internal/grid"
	"github.com/Freeeeeet/drivingschool_bot/internal/model"
	"github.com/Freeeeeet/drivingschool_bot/internal/permission"
	"github.com/Freeeeeet/drivingschool_bot/internal/timegrid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// Wednesday 14 October 2026, 09:00. Week 0 runs Mon 12 to Fri 16.
var testNow = time.Date(2026, 10, 14, 9, 0, 0, 0, time.Local)

var (
	learnerA   = model.User{ID: "acc-1", Role: model.RoleLearner, LearnerID: "lrn-1"}
	learnerB   = model.User{ID: "acc-2", Role: model.RoleLearner, LearnerID: "lrn-2"}
	instructor = model.User{ID: "ins-1", Role: model.RoleInstructor}
	admin      = model.User{ID: "adm-1", Role: model.RoleAdmin}
)

func at(day, hour, minute int) time.Time {
	return time.Date(2026, 10, day, hour, minute, 0, 0, time.Local)
}

func lesson(id, learnerID string, start time.Time) *model.Reservation {
	return &model.Reservation{
		ID:           id,
		Start:        start,
		End:          start.Add(timegrid.DefaultSlotDuration),
		InstructorID: "ins-1",
		LearnerID:    model.StringPtr(learnerID),
	}
}

func block(id string, start time.Time) *model.Reservation {
	return &model.Reservation{ID: id, Start: start, End: start.Add(timegrid.DefaultSlotDuration), InstructorID: "ins-1"}
}

type fetchCall struct{ from, to time.Time }

type bookCall struct {
	instructorID string
	start, end   time.Time
	opts         gateway.BookOptions
}

type fakeGateway struct {
	mu      sync.Mutex
	fetches []fetchCall
	books   []bookCall
	cancels []string

	onFetch  func(n int, from, to time.Time) ([]*model.Reservation, error)
	onBook   func(call bookCall) (*model.Reservation, error)
	onCancel func(id string) error
}

func (f *fakeGateway) FetchBookedClasses(_ context.Context, _ string, from, to time.Time) ([]*model.Reservation, error) {
	f.mu.Lock()
	n := len(f.fetches)
	f.fetches = append(f.fetches, fetchCall{from, to})
	hook := f.onFetch
	f.mu.Unlock()

	if hook == nil {
		return nil, nil
	}
	return hook(n, from, to)
}

func (f *fakeGateway) BookClass(_ context.Context, _, instructorID string, start, end time.Time, opts gateway.BookOptions) (*model.Reservation, error) {
	call := bookCall{instructorID, start, end, opts}
	f.mu.Lock()
	f.books = append(f.books, call)
	hook := f.onBook
	f.mu.Unlock()

	if hook != nil {
		return hook(call)
	}
	r := &model.Reservation{ID: "new-" + timegrid.FormatWallClock(start), Start: start, End: end, InstructorID: instructorID}
	if opts.LearnerID != "" {
		r.LearnerID = model.StringPtr(opts.LearnerID)
	}
	return r, nil
}

func (f *fakeGateway) CancelClass(_ context.Context, _, id string) error {
	f.mu.Lock()
	f.cancels = append(f.cancels, id)
	hook := f.onCancel
	f.mu.Unlock()

	if hook != nil {
		return hook(id)
	}
	return nil
}

func (f *fakeGateway) fetchCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.fetches)
}

func (f *fakeGateway) bookCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.books)
}

func newTestController(gw Gateway, u model.User) *Controller {
	session := auth.Session{Token: "tok", User: u}
	return NewController(gw, session, Options{
		DefaultInstructorID: "ins-1",
		Now:                 func() time.Time { return testNow },
	}, zap.NewNop())
}

func cellOf(v View, day, slot int) CellView {
	return v.Days[day].Cells[slot]
}

func TestMountBuildsGrid(t *testing.T) {
	gw := &fakeGateway{onFetch: func(int, time.Time, time.Time) ([]*model.Reservation, error) {
		return []*model.Reservation{
			lesson("mine", "lrn-1", at(15, 10, 15)),
			lesson("unaligned", "lrn-1", at(15, 10, 30)),
			lesson("outside", "lrn-1", at(26, 8, 0)),
			{ID: "gone", Start: at(16, 8, 0), Cancelled: true, LearnerID: model.StringPtr("lrn-2")},
		}, nil
	}}
	ctrl := newTestController(gw, learnerA)

	assert.Equal(t, StateIdle, ctrl.State())
	require.NoError(t, ctrl.Mount(context.Background()))
	assert.Equal(t, StateReady, ctrl.State())

	require.Equal(t, 1, gw.fetchCount())
	assert.Equal(t, at(12, 0, 0), gw.fetches[0].from)
	assert.Equal(t, time.Date(2026, 10, 23, 23, 59, 59, 0, time.Local), gw.fetches[0].to)

	v := ctrl.View()
	assert.Equal(t, 2, v.WeekCount)
	assert.Equal(t, "This Week", v.WeekLabel)
	assert.False(t, v.CanPrev)
	assert.True(t, v.CanNext)
	require.Len(t, v.Days, timegrid.DaysPerWeek)

	mine := cellOf(v, 3, 3)
	require.NotNil(t, mine.Reservation)
	assert.Equal(t, "mine", mine.Reservation.ID)
	assert.Equal(t, permission.VisualMine, mine.Decision.Visual)

	occupied := 0
	for _, d := range v.Days {
		for _, c := range d.Cells {
			if c.Reservation != nil {
				occupied++
			}
		}
	}
	assert.Equal(t, 1, occupied)

	assert.Equal(t, permission.VisualPast, cellOf(v, 0, 0).Decision.Visual)
	assert.Equal(t, permission.VisualAvailable, cellOf(v, 4, 0).Decision.Visual)
}

func TestBookAndCancelRoundTrip(t *testing.T) {
	gw := &fakeGateway{}
	ctrl := newTestController(gw, learnerA)
	require.NoError(t, ctrl.Mount(context.Background()))

	before := cellOf(ctrl.View(), 4, 3)
	require.Nil(t, before.Reservation)

	outcome, err := ctrl.Click(context.Background(), "2026-10-16", 3)
	require.NoError(t, err)
	assert.Equal(t, OutcomeBooked, outcome)

	require.Len(t, gw.books, 1)
	assert.Equal(t, "ins-1", gw.books[0].instructorID)
	assert.Equal(t, at(16, 10, 15), gw.books[0].start)
	assert.Equal(t, at(16, 11, 0), gw.books[0].end)
	assert.Equal(t, gateway.BookOptions{LearnerID: "lrn-1"}, gw.books[0].opts)

	booked := cellOf(ctrl.View(), 4, 3)
	require.NotNil(t, booked.Reservation)
	assert.Equal(t, permission.VisualMine, booked.Decision.Visual)

	n, ok := ctrl.Notice()
	require.True(t, ok)
	assert.Equal(t, LevelSuccess, n.Level)

	outcome, err = ctrl.Click(context.Background(), "2026-10-16", 3)
	require.NoError(t, err)
	assert.Equal(t, OutcomeCancelled, outcome)
	assert.Equal(t, []string{booked.Reservation.ID}, gw.cancels)

	after := cellOf(ctrl.View(), 4, 3)
	assert.Nil(t, after.Reservation)
	assert.Equal(t, before.Decision, after.Decision)
	assert.Equal(t, 1, gw.fetchCount())
}

func TestCancelOfAbsentReservationClearsCell(t *testing.T) {
	// The gateway turns a 404 on cancel into a nil error.
	gw := &fakeGateway{
		onFetch: func(int, time.Time, time.Time) ([]*model.Reservation, error) {
			return []*model.Reservation{lesson("r-1", "lrn-1", at(16, 8, 0))}, nil
		},
		onCancel: func(string) error { return nil },
	}
	ctrl := newTestController(gw, learnerA)
	require.NoError(t, ctrl.Mount(context.Background()))
	require.NotNil(t, cellOf(ctrl.View(), 4, 0).Reservation)

	outcome, err := ctrl.Click(context.Background(), "2026-10-16", 0)
	require.NoError(t, err)
	assert.Equal(t, OutcomeCancelled, outcome)
	assert.Equal(t, []string{"r-1"}, gw.cancels)
	assert.Nil(t, cellOf(ctrl.View(), 4, 0).Reservation)

	n, ok := ctrl.Notice()
	require.True(t, ok)
	assert.Equal(t, LevelSuccess, n.Level)
}

func TestDoubleBookingConflict(t *testing.T) {
	gw := &fakeGateway{}
	a := newTestController(gw, learnerA)
	require.NoError(t, a.Mount(context.Background()))

	outcome, err := a.Click(context.Background(), "2026-10-19", 3)
	require.NoError(t, err)
	assert.Equal(t, OutcomeBooked, outcome)

	b := newTestController(&fakeGateway{
		onBook: func(bookCall) (*model.Reservation, error) {
			return nil, &gateway.ConflictError{Message: "You already have a future booking"}
		},
	}, learnerB)
	require.NoError(t, b.Mount(context.Background()))
	_, err = b.Next(context.Background())
	require.NoError(t, err)

	outcome, err = b.Click(context.Background(), "2026-10-19", 3)
	assert.Equal(t, OutcomeConflict, outcome)
	msg, ok := gateway.IsConflict(err)
	require.True(t, ok)
	assert.Equal(t, "You already have a future booking", msg)

	assert.Nil(t, cellOf(b.View(), 0, 3).Reservation)

	n, ok := b.Notice()
	require.True(t, ok)
	assert.Equal(t, LevelWarning, n.Level)
	assert.Equal(t, "You already have a future booking", n.Message)
}

func TestWeekNavigationBounds(t *testing.T) {
	gw := &fakeGateway{}
	ctrl := newTestController(gw, admin)
	require.NoError(t, ctrl.Mount(context.Background()))
	assert.Equal(t, 0, ctrl.CurrentWeek())
	assert.Equal(t, 3, ctrl.View().WeekCount)

	moved, err := ctrl.Previous(context.Background())
	require.NoError(t, err)
	assert.False(t, moved)
	assert.Equal(t, 1, gw.fetchCount())

	for i := 0; i < 3; i++ {
		_, err := ctrl.Next(context.Background())
		require.NoError(t, err)
	}
	assert.Equal(t, 2, ctrl.CurrentWeek())

	moved, err = ctrl.Next(context.Background())
	require.NoError(t, err)
	assert.False(t, moved)
	assert.Equal(t, 2, ctrl.CurrentWeek())
	assert.Equal(t, 3, gw.fetchCount(), "every real move re-fetches")

	v := ctrl.View()
	assert.True(t, v.CanPrev)
	assert.False(t, v.CanNext)
	assert.Equal(t, "Week After", v.WeekLabel)
}

func TestBreakNeverCallsGateway(t *testing.T) {
	for _, u := range []model.User{learnerA, instructor, admin} {
		t.Run(string(u.Role), func(t *testing.T) {
			gw := &fakeGateway{onFetch: func(int, time.Time, time.Time) ([]*model.Reservation, error) {
				return []*model.Reservation{block("v-1", at(15, 10, 0))}, nil
			}}
			ctrl := newTestController(gw, u)
			require.NoError(t, ctrl.Mount(context.Background()))

			for _, slot := range timegrid.DefaultBreaks {
				outcome, err := ctrl.Click(context.Background(), "2026-10-15", slot)
				require.NoError(t, err)
				assert.Equal(t, OutcomeIgnored, outcome)

				c := cellOf(ctrl.View(), 3, slot)
				assert.Equal(t, permission.LabelBreak, c.Decision.Label)
				assert.False(t, c.Decision.Clickable)
			}
			assert.Empty(t, gw.books)
			assert.Empty(t, gw.cancels)
		})
	}
}

func TestClickIgnoresForbiddenCells(t *testing.T) {
	gw := &fakeGateway{onFetch: func(int, time.Time, time.Time) ([]*model.Reservation, error) {
		return []*model.Reservation{
			lesson("other", "lrn-2", at(15, 8, 0)),
			lesson("soon", "lrn-1", at(14, 16, 0)),
			block("v-1", at(16, 8, 0)),
		}, nil
	}}
	ctrl := newTestController(gw, learnerA)
	require.NoError(t, ctrl.Mount(context.Background()))

	cases := []struct {
		name string
		day  string
		slot int
	}{
		{"someone else's lesson", "2026-10-15", 0},
		{"own lesson inside the cutoff", "2026-10-14", 10},
		{"blocked slot", "2026-10-16", 0},
		{"past slot", "2026-10-13", 0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			outcome, err := ctrl.Click(context.Background(), tc.day, tc.slot)
			require.NoError(t, err)
			assert.Equal(t, OutcomeIgnored, outcome)
		})
	}
	assert.Empty(t, gw.books)
	assert.Empty(t, gw.cancels)

	_, err := ctrl.Click(context.Background(), "2027-01-04", 0)
	assert.ErrorIs(t, err, grid.ErrOutOfGrid)
}

func TestStaffBlocksOwnTime(t *testing.T) {
	gw := &fakeGateway{}
	ctrl := newTestController(gw, instructor)
	require.NoError(t, ctrl.Mount(context.Background()))

	outcome, err := ctrl.Click(context.Background(), "2026-10-15", 0)
	require.NoError(t, err)
	assert.Equal(t, OutcomeBooked, outcome)

	require.Len(t, gw.books, 1)
	assert.Equal(t, "ins-1", gw.books[0].instructorID)
	assert.Equal(t, gateway.BookOptions{Vacation: true}, gw.books[0].opts)

	c := cellOf(ctrl.View(), 3, 0)
	assert.Equal(t, permission.VisualBlocked, c.Decision.Visual)
	assert.True(t, c.Decision.Clickable)
}

func TestStaleFetchIsDiscarded(t *testing.T) {
	entered := make(chan struct{})
	release := make(chan struct{})

	gw := &fakeGateway{onFetch: func(n int, _, _ time.Time) ([]*model.Reservation, error) {
		switch n {
		case 0:
			return nil, nil
		case 1:
			close(entered)
			<-release
			return []*model.Reservation{lesson("stale", "lrn-2", at(20, 10, 15))}, nil
		default:
			return []*model.Reservation{lesson("fresh", "lrn-2", at(19, 10, 15))}, nil
		}
	}}
	ctrl := newTestController(gw, learnerA)
	require.NoError(t, ctrl.Mount(context.Background()))

	done := make(chan error, 1)
	go func() {
		_, err := ctrl.Next(context.Background())
		done <- err
	}()

	<-entered
	assert.Equal(t, StateLoading, ctrl.State())

	outcome, err := ctrl.Click(context.Background(), "2026-10-19", 3)
	require.NoError(t, err)
	assert.Equal(t, OutcomeIgnored, outcome, "clicks wait for the grid")

	require.NoError(t, ctrl.Reload(context.Background()))
	close(release)
	assert.ErrorIs(t, <-done, ErrSuperseded)

	v := ctrl.View()
	assert.Equal(t, StateReady, v.State)
	assert.Equal(t, 1, v.WeekIndex)
	require.NotNil(t, cellOf(v, 0, 3).Reservation)
	assert.Equal(t, "fresh", cellOf(v, 0, 3).Reservation.ID)
	assert.Nil(t, cellOf(v, 1, 3).Reservation)
}

func TestBusyCellIgnoresRepeatedClicks(t *testing.T) {
	started := make(chan struct{})
	unblock := make(chan struct{})

	gw := &fakeGateway{onBook: func(call bookCall) (*model.Reservation, error) {
		if call.start.Equal(at(16, 11, 15)) {
			close(started)
			<-unblock
		}
		return lesson("r-"+timegrid.FormatWallClock(call.start), "lrn-1", call.start), nil
	}}
	ctrl := newTestController(gw, learnerA)
	require.NoError(t, ctrl.Mount(context.Background()))

	first := make(chan Outcome, 1)
	go func() {
		outcome, _ := ctrl.Click(context.Background(), "2026-10-16", 4)
		first <- outcome
	}()

	<-started
	outcome, err := ctrl.Click(context.Background(), "2026-10-16", 4)
	require.NoError(t, err)
	assert.Equal(t, OutcomeBusy, outcome)
	assert.True(t, cellOf(ctrl.View(), 4, 4).Busy)

	outcome, err = ctrl.Click(context.Background(), "2026-10-16", 6)
	require.NoError(t, err)
	assert.Equal(t, OutcomeBooked, outcome, "other cells stay usable")

	close(unblock)
	assert.Equal(t, OutcomeBooked, <-first)
	assert.False(t, cellOf(ctrl.View(), 4, 4).Busy)
	assert.Equal(t, 2, gw.bookCount())
}

func TestFailedFetchKeepsGrid(t *testing.T) {
	gw := &fakeGateway{onFetch: func(n int, _, _ time.Time) ([]*model.Reservation, error) {
		if n == 0 {
			return []*model.Reservation{lesson("r-1", "lrn-1", at(15, 8, 0))}, nil
		}
		return nil, &gateway.HTTPError{Status: http.StatusBadGateway, Message: "bad gateway"}
	}}
	ctrl := newTestController(gw, learnerA)
	require.NoError(t, ctrl.Mount(context.Background()))

	err := ctrl.Reload(context.Background())
	require.Error(t, err)

	v := ctrl.View()
	assert.Equal(t, StateReady, v.State)
	require.NotNil(t, cellOf(v, 3, 0).Reservation)
	require.NotNil(t, v.Notice)
	assert.Equal(t, LevelError, v.Notice.Level)
}

func TestUnauthorizedPostsSessionNotice(t *testing.T) {
	gw := &fakeGateway{onBook: func(bookCall) (*model.Reservation, error) {
		return nil, gateway.ErrUnauthorized
	}}
	ctrl := newTestController(gw, learnerA)
	require.NoError(t, ctrl.Mount(context.Background()))

	outcome, err := ctrl.Click(context.Background(), "2026-10-16", 0)
	assert.Equal(t, OutcomeFailed, outcome)
	assert.ErrorIs(t, err, gateway.ErrUnauthorized)
	assert.Nil(t, cellOf(ctrl.View(), 4, 0).Reservation)

	n, ok := ctrl.Notice()
	require.True(t, ok)
	assert.Equal(t, LevelError, n.Level)
	assert.Contains(t, n.Message, "/login")
}

func TestUnmountDiscardsPendingFetch(t *testing.T) {
	entered := make(chan struct{})
	release := make(chan struct{})
	gw := &fakeGateway{onFetch: func(int, time.Time, time.Time) ([]*model.Reservation, error) {
		close(entered)
		<-release
		return []*model.Reservation{lesson("r-1", "lrn-1", at(15, 8, 0))}, nil
	}}
	ctrl := newTestController(gw, learnerA)

	done := make(chan error, 1)
	go func() { done <- ctrl.Mount(context.Background()) }()

	<-entered
	ctrl.Unmount()
	close(release)

	assert.ErrorIs(t, <-done, ErrSuperseded)
	assert.Equal(t, StateIdle, ctrl.State())

	outcome, err := ctrl.Click(context.Background(), "2026-10-15", 0)
	require.NoError(t, err)
	assert.Equal(t, OutcomeIgnored, outcome)

	_, err = ctrl.Next(context.Background())
	assert.ErrorIs(t, err, ErrNotMounted)
}

func TestBlockDay(t *testing.T) {
	t.Run("partial failure reconciles from the backend", func(t *testing.T) {
		gw := &fakeGateway{}
		gw.onFetch = func(n int, _, _ time.Time) ([]*model.Reservation, error) {
			if n == 0 {
				return []*model.Reservation{lesson("lesson", "lrn-1", at(15, 8, 0))}, nil
			}
			return []*model.Reservation{
				lesson("lesson", "lrn-1", at(15, 8, 0)),
				block("b-1", at(15, 9, 0)),
				block("b-3", at(15, 10, 15)),
				lesson("taken", "lrn-2", at(15, 11, 15)),
				block("b-7", at(15, 13, 45)),
				block("b-9", at(15, 15, 0)),
				block("b-10", at(15, 16, 0)),
			}, nil
		}
		gw.onBook = func(call bookCall) (*model.Reservation, error) {
			switch {
			case call.start.Equal(at(15, 11, 15)):
				return nil, &gateway.ConflictError{Message: "Slot already taken"}
			case call.start.Equal(at(15, 12, 45)):
				return nil, &gateway.HTTPError{Status: http.StatusInternalServerError, Message: "boom"}
			}
			return block("ignored", call.start), nil
		}

		ctrl := newTestController(gw, instructor)
		require.NoError(t, ctrl.Mount(context.Background()))

		res, err := ctrl.BlockDay(context.Background(), "2026-10-15")
		require.NoError(t, err)
		assert.Equal(t, BlockResult{Requested: 7, Blocked: 5, Conflicts: 1, Failed: 1}, res)

		for _, b := range gw.books {
			assert.Equal(t, gateway.BookOptions{Vacation: true}, b.opts)
			assert.Equal(t, "ins-1", b.instructorID)
		}

		require.Equal(t, 2, gw.fetchCount())
		assert.Equal(t, at(15, 0, 0), gw.fetches[1].from)
		assert.Equal(t, time.Date(2026, 10, 15, 23, 59, 59, 0, time.Local), gw.fetches[1].to)

		v := ctrl.View()
		assert.Equal(t, "taken", cellOf(v, 3, 4).Reservation.ID)
		assert.Equal(t, "b-1", cellOf(v, 3, 1).Reservation.ID)
		assert.Nil(t, cellOf(v, 3, 6).Reservation)
		assert.False(t, cellOf(v, 3, 1).Busy)

		require.NotNil(t, v.Notice)
		assert.Equal(t, LevelWarning, v.Notice.Level)
	})

	t.Run("refresh failure is reported", func(t *testing.T) {
		gw := &fakeGateway{onFetch: func(n int, _, _ time.Time) ([]*model.Reservation, error) {
			if n == 0 {
				return nil, nil
			}
			return nil, gateway.ErrTransport
		}}
		ctrl := newTestController(gw, admin)
		require.NoError(t, ctrl.Mount(context.Background()))

		res, err := ctrl.BlockDay(context.Background(), "2026-10-16")
		require.Error(t, err)
		assert.True(t, errors.Is(err, gateway.ErrTransport))
		assert.Equal(t, 8, res.Blocked)

		n, ok := ctrl.Notice()
		require.True(t, ok)
		assert.Equal(t, LevelError, n.Level)
	})

	t.Run("learners cannot block", func(t *testing.T) {
		ctrl := newTestController(&fakeGateway{}, learnerA)
		require.NoError(t, ctrl.Mount(context.Background()))

		_, err := ctrl.BlockDay(context.Background(), "2026-10-16")
		assert.ErrorIs(t, err, ErrStaffOnly)
	})

	t.Run("nothing to block", func(t *testing.T) {
		gw := &fakeGateway{}
		ctrl := newTestController(gw, admin)
		require.NoError(t, ctrl.Mount(context.Background()))

		res, err := ctrl.BlockDay(context.Background(), "2026-10-13")
		require.NoError(t, err)
		assert.Zero(t, res.Requested)
		assert.Empty(t, gw.books)
		assert.Equal(t, 1, gw.fetchCount())
	})
}

func TestBookSurvivesOlderNavigationFetch(t *testing.T) {
	bookEntered := make(chan struct{})
	bookRelease := make(chan struct{})
	fetchEntered := make(chan struct{})
	fetchRelease := make(chan struct{})

	gw := &fakeGateway{
		onFetch: func(n int, _, _ time.Time) ([]*model.Reservation, error) {
			if n == 1 {
				close(fetchEntered)
				<-fetchRelease
			}
			return nil, nil
		},
		onBook: func(call bookCall) (*model.Reservation, error) {
			close(bookEntered)
			<-bookRelease
			return lesson("r-new", "lrn-1", call.start), nil
		},
	}
	ctrl := newTestController(gw, learnerA)
	require.NoError(t, ctrl.Mount(context.Background()))

	booked := make(chan Outcome, 1)
	go func() {
		outcome, _ := ctrl.Click(context.Background(), "2026-10-19", 3)
		booked <- outcome
	}()
	<-bookEntered

	moved := make(chan error, 1)
	go func() {
		_, err := ctrl.Next(context.Background())
		moved <- err
	}()
	<-fetchEntered

	close(bookRelease)
	assert.Equal(t, OutcomeBooked, <-booked)
	close(fetchRelease)
	require.NoError(t, <-moved)

	v := ctrl.View()
	assert.Equal(t, 1, v.WeekIndex)
	cell := cellOf(v, 0, 3)
	require.NotNil(t, cell.Reservation, "booking confirmed during the fetch must stay")
	assert.Equal(t, "r-new", cell.Reservation.ID)
	assert.Equal(t, permission.VisualMine, cell.Decision.Visual)

	require.NoError(t, ctrl.Reload(context.Background()))
	assert.Nil(t, cellOf(ctrl.View(), 0, 3).Reservation, "a fetch started after the booking is trusted")
}

func TestCancelSurvivesOlderReload(t *testing.T) {
	cancelEntered := make(chan struct{})
	cancelRelease := make(chan struct{})
	fetchEntered := make(chan struct{})
	fetchRelease := make(chan struct{})

	gw := &fakeGateway{
		onFetch: func(n int, _, _ time.Time) ([]*model.Reservation, error) {
			if n == 1 {
				close(fetchEntered)
				<-fetchRelease
			}
			return []*model.Reservation{lesson("r-1", "lrn-1", at(16, 8, 0))}, nil
		},
		onCancel: func(string) error {
			close(cancelEntered)
			<-cancelRelease
			return nil
		},
	}
	ctrl := newTestController(gw, learnerA)
	require.NoError(t, ctrl.Mount(context.Background()))

	cancelled := make(chan Outcome, 1)
	go func() {
		outcome, _ := ctrl.Click(context.Background(), "2026-10-16", 0)
		cancelled <- outcome
	}()
	<-cancelEntered

	reloaded := make(chan error, 1)
	go func() { reloaded <- ctrl.Reload(context.Background()) }()
	<-fetchEntered

	close(cancelRelease)
	assert.Equal(t, OutcomeCancelled, <-cancelled)
	close(fetchRelease)
	require.NoError(t, <-reloaded)

	assert.Nil(t, cellOf(ctrl.View(), 4, 0).Reservation)
}

func TestBlockDaySurvivesOlderReload(t *testing.T) {
	booksEntered := make(chan struct{})
	booksRelease := make(chan struct{})
	reloadEntered := make(chan struct{})
	reloadRelease := make(chan struct{})

	var once sync.Once
	gw := &fakeGateway{}
	gw.onFetch = func(n int, from, _ time.Time) ([]*model.Reservation, error) {
		switch {
		case n == 0:
			return nil, nil
		case from.Equal(at(16, 0, 0)):
			return []*model.Reservation{block("b-0", at(16, 8, 0)), block("b-1", at(16, 9, 0))}, nil
		default:
			close(reloadEntered)
			<-reloadRelease
			return nil, nil
		}
	}
	gw.onBook = func(call bookCall) (*model.Reservation, error) {
		once.Do(func() { close(booksEntered) })
		<-booksRelease
		return block("ignored", call.start), nil
	}

	ctrl := newTestController(gw, instructor)
	require.NoError(t, ctrl.Mount(context.Background()))

	blocked := make(chan error, 1)
	go func() {
		_, err := ctrl.BlockDay(context.Background(), "2026-10-16")
		blocked <- err
	}()
	<-booksEntered

	reloaded := make(chan error, 1)
	go func() { reloaded <- ctrl.Reload(context.Background()) }()
	<-reloadEntered

	close(booksRelease)
	require.NoError(t, <-blocked)
	close(reloadRelease)
	require.NoError(t, <-reloaded)

	v := ctrl.View()
	require.NotNil(t, cellOf(v, 4, 0).Reservation)
	assert.Equal(t, "b-0", cellOf(v, 4, 0).Reservation.ID)
	assert.Equal(t, "b-1", cellOf(v, 4, 1).Reservation.ID)
	assert.Nil(t, cellOf(v, 4, 3).Reservation)
}

type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = t
}

func TestReloadFollowsNewWeek(t *testing.T) {
	clock := &testClock{now: at(18, 20, 0)}
	gw := &fakeGateway{}
	ctrl := NewController(gw, auth.Session{Token: "tok", User: learnerA}, Options{
		DefaultInstructorID: "ins-1",
		Now:                 clock.Now,
	}, zap.NewNop())
	require.NoError(t, ctrl.Mount(context.Background()))
	assert.Equal(t, "2026-10-12", ctrl.View().Days[0].Day.Key)

	_, err := ctrl.Next(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "2026-10-19", ctrl.View().Days[0].Day.Key)

	clock.Set(at(19, 8, 0))
	require.NoError(t, ctrl.Reload(context.Background()))

	last := gw.fetches[len(gw.fetches)-1]
	assert.Equal(t, at(19, 0, 0), last.from)
	assert.Equal(t, time.Date(2026, 11, 1, 23, 59, 59, 0, time.Local), last.to)

	v := ctrl.View()
	assert.Equal(t, 0, v.WeekIndex, "the week the user was on is now this week")
	assert.Equal(t, "This Week", v.WeekLabel)
	assert.Equal(t, "2026-10-19", v.Days[0].Day.Key)
	assert.True(t, v.CanNext)

	moved, err := ctrl.Next(context.Background())
	require.NoError(t, err)
	assert.True(t, moved)
	assert.Equal(t, "2026-10-26", ctrl.View().Days[0].Day.Key)
}
