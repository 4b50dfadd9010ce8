package schedule

import (
	"context"
	"fmt"

	"github.com/Freeeeeet/drivingschool_bot/internal/gateway"
	"github.com/Freeeeeet/drivingschool_bot/internal/grid"
	"github.com/Freeeeeet/drivingschool_bot/internal/permission"
	"github.com/Freeeeeet/drivingschool_bot/internal/timegrid"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// BlockResult summarises a bulk block of one day.
type BlockResult struct {
	Requested int
	Blocked   int
	Conflicts int
	Failed    int
}

// BlockDay blocks every free future slot of the day for the signed-in staff member.
// Requests run concurrently and may partly fail; the day is always re-fetched afterwards
// and the grid takes the backend's answer, not the individual responses.
func (c *Controller) BlockDay(ctx context.Context, dayKey string) (BlockResult, error) {
	if !c.identity.Role.IsStaff() {
		return BlockResult{}, ErrStaffOnly
	}

	c.mu.Lock()
	if !c.mounted || c.state != StateReady {
		c.mu.Unlock()
		return BlockResult{}, ErrNotMounted
	}
	c.lastActive = c.now()

	week, ok := c.store.WeekOf(dayKey)
	if !ok {
		c.mu.Unlock()
		return BlockResult{}, grid.ErrOutOfGrid
	}
	day, _ := dayIn(c.weeks[week], dayKey)

	now := c.now()
	var targets []permission.Cell
	var keys []string
	for slot := 0; slot < c.layout.SlotCount(); slot++ {
		coord := grid.Coord{Week: week, Day: dayKey, Slot: slot}
		cell := c.cellFor(day, slot, c.store.At(coord))
		if c.evaluator.Evaluate(c.identity, cell, now).Action != permission.ActionBook {
			continue
		}
		if _, busy := c.busy[coord.Key()]; busy {
			continue
		}
		c.busy[coord.Key()] = struct{}{}
		keys = append(keys, coord.Key())
		targets = append(targets, cell)
	}
	c.mu.Unlock()

	defer func() {
		for _, k := range keys {
			c.release(k)
		}
	}()

	result := BlockResult{Requested: len(targets)}
	if len(targets) == 0 {
		c.notices.Post(LevelWarning, "Nothing left to block on "+day.Date.Format("Mon 02 Jan")+".")
		return result, nil
	}

	opID := uuid.NewString()
	log := c.logger.With(zap.String("operation_id", opID), zap.String("day", dayKey))
	log.Info("Blocking day", zap.Int("slots", len(targets)))

	instructorID, opts := c.bookingTarget()
	errs := make([]error, len(targets))

	var g errgroup.Group
	g.SetLimit(c.opts.MaxParallel)
	for i, cell := range targets {
		i, cell := i, cell
		g.Go(func() error {
			end := cell.Start.Add(c.layout.Duration())
			_, errs[i] = c.gw.BookClass(ctx, c.session.Token, instructorID, cell.Start, end, opts)
			return nil
		})
	}
	_ = g.Wait()

	for i, err := range errs {
		switch _, conflict := gateway.IsConflict(err); {
		case err == nil:
			result.Blocked++
		case conflict:
			result.Conflicts++
			log.Debug("Slot already taken", zap.String("slot", targets[i].Label))
		default:
			result.Failed++
			log.Warn("Slot block failed", zap.String("slot", targets[i].Label), zap.Error(err))
		}
	}

	if err := c.reconcileDay(ctx, day); err != nil {
		c.mu.Lock()
		c.notifyFailure(err, fmt.Sprintf("Blocked %d of %d slots, but could not refresh the day.", result.Blocked, result.Requested))
		c.mu.Unlock()
		return result, fmt.Errorf("block day %s: %w", dayKey, err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	when := day.Date.Format("Mon 02 Jan")
	switch {
	case result.Blocked == result.Requested:
		c.notices.Post(LevelSuccess, fmt.Sprintf("Blocked %d slots on %s.", result.Blocked, when))
	case result.Blocked > 0:
		c.notices.Post(LevelWarning, fmt.Sprintf("Blocked %d of %d slots on %s; the rest were taken or failed.", result.Blocked, result.Requested, when))
	default:
		c.notices.Post(LevelError, fmt.Sprintf("Could not block any slot on %s.", when))
	}

	log.Info("Day blocked",
		zap.Int("blocked", result.Blocked),
		zap.Int("conflicts", result.Conflicts),
		zap.Int("failed", result.Failed))
	return result, nil
}

// reconcileDay replaces the day's cells with a fresh fetch of that day and journals the
// result like any confirmed change.
func (c *Controller) reconcileDay(ctx context.Context, day timegrid.Day) error {
	c.mu.Lock()
	pos := c.journal.begin()
	c.mu.Unlock()

	from, to := timegrid.DayRange(day)
	reservations, err := c.gw.FetchBookedClasses(ctx, c.session.Token, from, to)

	c.mu.Lock()
	defer c.mu.Unlock()
	defer c.journal.end(pos)

	if err != nil {
		return err
	}
	if !c.mounted {
		return nil
	}
	dropped, err := c.store.ReplaceDay(day.Key, reservations)
	if err != nil {
		return err
	}
	c.logDropped(dropped)
	c.journal.replay(c.store, pos, day.Key)

	week, _ := c.store.WeekOf(day.Key)
	for slot, r := range c.store.Day(week, day.Key) {
		c.journal.record(commit{day: day.Key, slot: slot, reservation: r})
	}
	return nil
}
