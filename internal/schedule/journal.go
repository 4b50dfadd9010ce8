package schedule

import (
	"github.com/Freeeeeet/drivingschool_bot/internal/grid"
	"github.com/Freeeeeet/drivingschool_bot/internal/model"
)

// commit is one cell change the backend has confirmed. A nil reservation empties the
// cell; with clearID set it only empties it while the cell still holds that id.
type commit struct {
	seq         uint64
	day         string
	slot        int
	reservation *model.Reservation
	clearID     string
}

// journal remembers confirmed cell changes for as long as a fetch that started before
// them is still in flight, so that fetch can replay them over its result.
type journal struct {
	seq     uint64
	entries []commit
	readers map[uint64]int
}

func newJournal() *journal {
	return &journal{readers: make(map[uint64]int)}
}

// begin marks the start of a fetch and returns the position it has seen.
func (j *journal) begin() uint64 {
	j.readers[j.seq]++
	return j.seq
}

// end releases a fetch started at pos.
func (j *journal) end(pos uint64) {
	if j.readers[pos] <= 1 {
		delete(j.readers, pos)
	} else {
		j.readers[pos]--
	}
	j.prune()
}

func (j *journal) record(e commit) {
	j.seq++
	if len(j.readers) == 0 {
		return
	}
	e.seq = j.seq
	j.entries = append(j.entries, e)
}

// replay applies every change newer than pos to the store, optionally limited to one day.
func (j *journal) replay(store *grid.Store, pos uint64, day string) int {
	applied := 0
	for _, e := range j.entries {
		if e.seq <= pos || (day != "" && e.day != day) {
			continue
		}
		if applyCommit(store, e) {
			applied++
		}
	}
	return applied
}

func (j *journal) prune() {
	if len(j.readers) == 0 {
		j.entries = nil
		return
	}
	oldest := j.seq
	for pos := range j.readers {
		if pos < oldest {
			oldest = pos
		}
	}
	kept := j.entries[:0]
	for _, e := range j.entries {
		if e.seq > oldest {
			kept = append(kept, e)
		}
	}
	j.entries = kept
}

func applyCommit(store *grid.Store, e commit) bool {
	week, ok := store.WeekOf(e.day)
	if !ok {
		return false
	}
	coord := grid.Coord{Week: week, Day: e.day, Slot: e.slot}
	if e.reservation == nil && e.clearID != "" {
		current := store.At(coord)
		if current == nil || current.ID != e.clearID {
			return false
		}
	}
	return store.Put(coord, e.reservation) == nil
}
