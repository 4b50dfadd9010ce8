package gateway

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/Freeeeeet/drivingschool_bot/internal/model"
	"github.com/Freeeeeet/drivingschool_bot/internal/timegrid"
)

// flexID accepts ids sent either as JSON strings or numbers.
type flexID string

func (f *flexID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*f = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*f = flexID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("id is neither string nor number: %w", err)
	}
	*f = flexID(n.String())
	return nil
}

type reservationDTO struct {
	ID               flexID  `json:"id"`
	Start            string  `json:"start"`
	Date             string  `json:"date"` // older backends send the start as "date"
	End              string  `json:"end"`
	InstructorID     flexID  `json:"instructorId"`
	LearnerID        *flexID `json:"learnerId"`
	Cancelled        bool    `json:"cancelled"`
	LearnerFirstName string  `json:"learnerFirstName"`
	LearnerLastName  string  `json:"learnerLastName"`
}

func (d reservationDTO) toModel() (*model.Reservation, error) {
	startRaw := d.Start
	if startRaw == "" {
		startRaw = d.Date
	}
	if startRaw == "" {
		return nil, fmt.Errorf("reservation %s has no start", d.ID)
	}

	start, err := timegrid.ParseWallClock(startRaw)
	if err != nil {
		return nil, fmt.Errorf("reservation %s: %w", d.ID, err)
	}

	r := &model.Reservation{
		ID:               string(d.ID),
		Start:            start,
		InstructorID:     string(d.InstructorID),
		Cancelled:        d.Cancelled,
		LearnerFirstName: d.LearnerFirstName,
		LearnerLastName:  d.LearnerLastName,
	}
	if d.End != "" {
		if r.End, err = timegrid.ParseWallClock(d.End); err != nil {
			return nil, fmt.Errorf("reservation %s: %w", d.ID, err)
		}
	}
	if d.LearnerID != nil && *d.LearnerID != "" {
		r.LearnerID = model.StringPtr(string(*d.LearnerID))
	}
	return r, nil
}

type bookRequestDTO struct {
	InstructorID string `json:"instructorId"`
	Start        string `json:"start"`
	End          string `json:"end"`
	LearnerID    string `json:"learnerId,omitempty"`
	Vacation     bool   `json:"vacation,omitempty"`
}

type loginRequestDTO struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponseDTO struct {
	Token string `json:"token"`
	User  *struct {
		ID      flexID `json:"id"`
		Role    string `json:"role"`
		Email   string `json:"email"`
		Learner *struct {
			ID        flexID `json:"id"`
			FirstName string `json:"firstName"`
			LastName  string `json:"lastName"`
			Email     string `json:"email"`
		} `json:"learner"`
	} `json:"user"`
}

type errorDTO struct {
	Message string `json:"message"`
	Error   string `json:"error"`
}
