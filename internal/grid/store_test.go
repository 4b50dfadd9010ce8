package grid

import (
	"testing"
	"time"

	"github.com/Freeeeeet/drivingschool_bot/internal/model"
	"github.com/Freeeeeet/drivingschool_bot/internal/timegrid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	layout = timegrid.DefaultLayout(45 * time.Minute)
	today  = time.Date(2026, 10, 14, 9, 0, 0, 0, time.Local)
)

func at(day, hour, minute int) time.Time {
	return time.Date(2026, 10, day, hour, minute, 0, 0, time.Local)
}

func lesson(id string, start time.Time, learner string) *model.Reservation {
	return &model.Reservation{
		ID:           id,
		Start:        start,
		End:          start.Add(45 * time.Minute),
		InstructorID: "ins-1",
		LearnerID:    model.StringPtr(learner),
	}
}

func TestBuild(t *testing.T) {
	weeks := timegrid.GenerateWeeks(today, 2)

	cancelled := lesson("c", at(13, 9, 0), "l-1")
	cancelled.Cancelled = true

	reservations := []*model.Reservation{
		lesson("a", at(12, 8, 0), "l-1"),  // week 0, Monday, slot 0
		lesson("b", at(20, 13, 45), "l-2"), // week 1, Tuesday, slot 7
		{ID: "v", Start: at(14, 16, 0), InstructorID: "ins-1"}, // blocked, slot 10
		lesson("off", at(12, 8, 30), "l-1"),                     // not a slot start
		lesson("far", at(28, 8, 0), "l-1"),                      // third week, not visible
		lesson("weekend", at(17, 8, 0), "l-1"),                  // Saturday
		cancelled,
	}

	store, dropped := Build(weeks, layout, reservations)

	assert.Equal(t, "a", store.At(Coord{Week: 0, Day: "2026-10-12", Slot: 0}).ID)
	assert.Equal(t, "b", store.At(Coord{Week: 1, Day: "2026-10-20", Slot: 7}).ID)
	assert.Equal(t, "v", store.At(Coord{Week: 0, Day: "2026-10-14", Slot: 10}).ID)
	assert.Equal(t, 3, store.Count(), "every aligned in-window reservation lands exactly once")

	reasons := map[string]DropReason{}
	for _, d := range dropped {
		reasons[d.Reservation.ID] = d.Reason
	}
	assert.Equal(t, map[string]DropReason{
		"off":     DropUnaligned,
		"far":     DropOutOfWindow,
		"weekend": DropOutOfWindow,
		"c":       DropCancelled,
	}, reasons)

	for _, id := range []string{"off", "far", "weekend", "c"} {
		_, found := store.Find(id)
		assert.False(t, found, id)
	}
}

func TestSecondWriteReplaces(t *testing.T) {
	weeks := timegrid.GenerateWeeks(today, 2)

	store, _ := Build(weeks, layout, []*model.Reservation{
		lesson("first", at(15, 9, 0), "l-1"),
		lesson("second", at(15, 9, 0), "l-2"),
	})

	c := Coord{Week: 0, Day: "2026-10-15", Slot: 1}
	assert.Equal(t, "second", store.At(c).ID)
	assert.Equal(t, 1, store.Count())

	require.NoError(t, store.Put(c, lesson("third", at(15, 9, 0), "l-3")))
	assert.Equal(t, "third", store.At(c).ID)
	assert.Equal(t, 1, store.Count())
}

func TestPutAndClear(t *testing.T) {
	store := NewStore(timegrid.GenerateWeeks(today, 3), layout)
	c := Coord{Week: 2, Day: "2026-10-26", Slot: 4}

	assert.Nil(t, store.At(c))
	require.NoError(t, store.Put(c, lesson("x", at(26, 11, 15), "l-1")))
	assert.Equal(t, "x", store.At(c).ID)

	require.NoError(t, store.Clear(c))
	assert.Nil(t, store.At(c))
	assert.Equal(t, 0, store.Count())

	assert.ErrorIs(t, store.Put(Coord{Week: 3, Day: "2026-11-02", Slot: 0}, nil), ErrOutOfGrid)
	assert.ErrorIs(t, store.Put(Coord{Week: 0, Day: "2026-10-19", Slot: 0}, nil), ErrOutOfGrid, "day belongs to week 1")
	assert.ErrorIs(t, store.Put(Coord{Week: 0, Day: "2026-10-12", Slot: 11}, nil), ErrOutOfGrid)
}

func TestReplaceDay(t *testing.T) {
	weeks := timegrid.GenerateWeeks(today, 2)
	store, _ := Build(weeks, layout, []*model.Reservation{
		lesson("keep", at(13, 8, 0), "l-1"),
		lesson("gone", at(14, 8, 0), "l-1"),
	})

	dropped, err := store.ReplaceDay("2026-10-14", []*model.Reservation{
		{ID: "v1", Start: at(14, 9, 0), InstructorID: "ins-1"},
		{ID: "v2", Start: at(14, 10, 15), InstructorID: "ins-1"},
		lesson("other-day", at(13, 9, 0), "l-2"),
	})
	require.NoError(t, err)

	assert.Nil(t, store.At(Coord{Week: 0, Day: "2026-10-14", Slot: 0}))
	assert.Equal(t, "v1", store.At(Coord{Week: 0, Day: "2026-10-14", Slot: 1}).ID)
	assert.Equal(t, "v2", store.At(Coord{Week: 0, Day: "2026-10-14", Slot: 3}).ID)
	assert.Equal(t, "keep", store.At(Coord{Week: 0, Day: "2026-10-13", Slot: 0}).ID)
	assert.Nil(t, store.At(Coord{Week: 0, Day: "2026-10-13", Slot: 1}), "other days are untouched")

	require.Len(t, dropped, 1)
	assert.Equal(t, DropOutOfWindow, dropped[0].Reason)

	_, err = store.ReplaceDay("2026-12-01", nil)
	assert.ErrorIs(t, err, ErrOutOfGrid)
}

func TestDayReturnsCopy(t *testing.T) {
	weeks := timegrid.GenerateWeeks(today, 2)
	store, _ := Build(weeks, layout, []*model.Reservation{lesson("a", at(12, 8, 0), "l-1")})

	cells := store.Day(0, "2026-10-12")
	require.Len(t, cells, layout.SlotCount())
	cells[0] = nil

	assert.NotNil(t, store.At(Coord{Week: 0, Day: "2026-10-12", Slot: 0}))
}
