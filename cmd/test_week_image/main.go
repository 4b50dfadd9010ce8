// Command test_week_image renders a sample week to a PNG file for checking the layout.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/Freeeeeet/drivingschool_bot/internal/auth"
	"github.com/Freeeeeet/drivingschool_bot/internal/controller/callbacks/common"
	"github.com/Freeeeeet/drivingschool_bot/internal/gateway"
	"github.com/Freeeeeet/drivingschool_bot/internal/model"
	"github.com/Freeeeeet/drivingschool_bot/internal/schedule"
	"github.com/Freeeeeet/drivingschool_bot/internal/timegrid"
	"go.uber.org/zap"
)

var errReadOnly = errors.New("sample gateway is read-only")

// sampleGateway serves a fixed set of reservations for the current week.
type sampleGateway struct {
	reservations []*model.Reservation
}

func (g sampleGateway) FetchBookedClasses(context.Context, string, time.Time, time.Time) ([]*model.Reservation, error) {
	return g.reservations, nil
}

func (g sampleGateway) BookClass(context.Context, string, string, time.Time, time.Time, gateway.BookOptions) (*model.Reservation, error) {
	return nil, errReadOnly
}

func (g sampleGateway) CancelClass(context.Context, string, string) error {
	return errReadOnly
}

func main() {
	out := flag.String("o", "week_test.png", "output file")
	role := flag.String("role", "learner", "learner, instructor or admin")
	flag.Parse()

	layout := timegrid.DefaultLayout(timegrid.DefaultSlotDuration)
	monday := timegrid.MondayOf(time.Now())
	at := func(day, slot int) time.Time {
		return layout.SlotStart(monday.AddDate(0, 0, day), slot)
	}
	lesson := func(id string, day, slot int, learner, first, last string) *model.Reservation {
		return &model.Reservation{
			ID: id, Start: at(day, slot), End: layout.SlotEnd(monday.AddDate(0, 0, day), slot),
			InstructorID: "ins-1", LearnerID: model.StringPtr(learner),
			LearnerFirstName: first, LearnerLastName: last,
		}
	}

	blocked := lesson("r-4", 4, 0, "", "", "")
	blocked.LearnerID = nil

	gw := sampleGateway{reservations: []*model.Reservation{
		lesson("r-1", 0, 1, "lrn-1", "Jana", "Novak"),
		lesson("r-2", 1, 4, "lrn-2", "Petr", "Svoboda"),
		lesson("r-3", 3, 7, "lrn-1", "Jana", "Novak"),
		blocked,
	}}

	user := model.User{ID: "acc-1", Role: model.ParseRole(*role), LearnerID: "lrn-1", FirstName: "Jana", LastName: "Novak"}
	if user.Role.IsStaff() {
		user = model.User{ID: "ins-1", Role: user.Role, FirstName: "Karel", LastName: "Dvorak"}
	}

	ctrl := schedule.NewController(gw, auth.Session{Token: "sample", User: user}, schedule.Options{Layout: layout}, zap.NewNop())
	if err := ctrl.Mount(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load sample week: %v\n", err)
		os.Exit(1)
	}

	data, err := common.RenderWeekImage(ctrl.View(), time.Now())
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to render image: %v\n", err)
		os.Exit(1)
	}

	if err := os.WriteFile(*out, data, 0o644); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to write %s: %v\n", *out, err)
		os.Exit(1)
	}

	fmt.Printf("Wrote %s (%d bytes)\n", *out, len(data))
}
