// Package gateway is the HTTP client of the booking backend.
package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/Freeeeeet/drivingschool_bot/internal/auth"
	"github.com/Freeeeeet/drivingschool_bot/internal/model"
	"github.com/Freeeeeet/drivingschool_bot/internal/timegrid"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	pathBooked = "/api/classes/booked/learner"
	pathBook   = "/api/classes/book"
	pathCancel = "/api/classes/%s/cancel"
	pathLogin  = "/api/auth/login"

	headerAuthorization  = "Authorization"
	headerAccept         = "Accept"
	headerContentType    = "Content-Type"
	headerIdempotencyKey = "Idempotency-Key"

	mimeJSON       = "application/json"
	acceptDefault  = "application/json, text/plain;q=0.9, */*;q=0.8"
	maxErrorBody   = 4 << 10
	defaultTimeout = 10 * time.Second
)

var ErrInvalidCredentials = errors.New("invalid email or password")

// BookOptions carries the optional parts of a booking request.
// Staff set Vacation to block a slot; learners set LearnerID.
type BookOptions struct {
	LearnerID string
	Vacation  bool
}

type Client struct {
	baseURL string
	http    *http.Client
	events  *auth.Events
	logger  *zap.Logger
}

func NewClient(baseURL string, timeout time.Duration, events *auth.Events, logger *zap.Logger) *Client {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
		events:  events,
		logger:  logger.Named("gateway"),
	}
}

// FetchBookedClasses returns every reservation between from and to. A 204 or a plain-text
// body means there is nothing booked and yields an empty slice.
func (c *Client) FetchBookedClasses(ctx context.Context, token string, from, to time.Time) ([]*model.Reservation, error) {
	query := url.Values{}
	query.Set("startDate", timegrid.FormatWallClock(from))
	query.Set("endDate", timegrid.FormatWallClock(to))

	resp, err := c.do(ctx, http.MethodGet, pathBooked+"?"+query.Encode(), token, nil)
	if err != nil {
		return nil, fmt.Errorf("fetch booked classes: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNoContent {
		return []*model.Reservation{}, nil
	}
	if err := c.check(resp, token); err != nil {
		return nil, fmt.Errorf("fetch booked classes: %w", err)
	}
	if strings.Contains(resp.Header.Get(headerContentType), "text/plain") {
		return []*model.Reservation{}, nil
	}

	var dtos []reservationDTO
	if err := json.NewDecoder(resp.Body).Decode(&dtos); err != nil {
		if errors.Is(err, io.EOF) {
			return []*model.Reservation{}, nil
		}
		return nil, fmt.Errorf("decode booked classes: %w", err)
	}

	reservations := make([]*model.Reservation, 0, len(dtos))
	for _, d := range dtos {
		r, err := d.toModel()
		if err != nil {
			c.logger.Warn("Skipping malformed reservation", zap.String("id", string(d.ID)), zap.Error(err))
			continue
		}
		reservations = append(reservations, r)
	}

	c.logger.Debug("Fetched booked classes",
		zap.String("from", timegrid.FormatWallClock(from)),
		zap.String("to", timegrid.FormatWallClock(to)),
		zap.Int("count", len(reservations)))

	return reservations, nil
}

// BookClass creates a reservation. A scheduling conflict comes back as *ConflictError.
func (c *Client) BookClass(ctx context.Context, token, instructorID string, start, end time.Time, opts BookOptions) (*model.Reservation, error) {
	body := bookRequestDTO{
		InstructorID: instructorID,
		Start:        timegrid.FormatWallClock(start),
		End:          timegrid.FormatWallClock(end),
		LearnerID:    opts.LearnerID,
		Vacation:     opts.Vacation,
	}

	resp, err := c.do(ctx, http.MethodPost, pathBook, token, body)
	if err != nil {
		return nil, fmt.Errorf("book class: %w", err)
	}
	defer resp.Body.Close()

	if err := c.check(resp, token); err != nil {
		return nil, fmt.Errorf("book class: %w", err)
	}

	var dto reservationDTO
	if err := json.NewDecoder(resp.Body).Decode(&dto); err != nil {
		return nil, fmt.Errorf("decode booked class: %w", err)
	}
	r, err := dto.toModel()
	if err != nil {
		return nil, fmt.Errorf("book class: %w", err)
	}

	c.logger.Info("Class booked",
		zap.String("reservation_id", r.ID),
		zap.String("instructor_id", instructorID),
		zap.String("start", body.Start),
		zap.Bool("vacation", opts.Vacation))

	return r, nil
}

// CancelClass cancels a reservation. A reservation the backend no longer knows, or
// reports as already cancelled, counts as cancelled.
func (c *Client) CancelClass(ctx context.Context, token, reservationID string) error {
	path := fmt.Sprintf(pathCancel, url.PathEscape(reservationID))

	resp, err := c.do(ctx, http.MethodPost, path, token, nil)
	if err != nil {
		return fmt.Errorf("cancel class: %w", err)
	}
	defer resp.Body.Close()

	if err := c.check(resp, token); err != nil {
		if errors.Is(err, ErrNotFound) {
			c.logger.Debug("Cancel of unknown reservation treated as done", zap.String("reservation_id", reservationID))
			return nil
		}
		if isAlreadyCancelled(err) {
			c.logger.Debug("Reservation was already cancelled", zap.String("reservation_id", reservationID))
			return nil
		}
		return fmt.Errorf("cancel class: %w", err)
	}

	c.logger.Info("Class cancelled", zap.String("reservation_id", reservationID))
	return nil
}

// Login exchanges credentials for a session. Bad credentials do not fire the
// session-expired event.
func (c *Client) Login(ctx context.Context, email, password string) (*auth.Session, error) {
	resp, err := c.do(ctx, http.MethodPost, pathLogin, "", loginRequestDTO{Email: email, Password: password})
	if err != nil {
		return nil, fmt.Errorf("login: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		return nil, ErrInvalidCredentials
	}
	if err := c.check(resp, ""); err != nil {
		return nil, fmt.Errorf("login: %w", err)
	}

	var dto loginResponseDTO
	if err := json.NewDecoder(resp.Body).Decode(&dto); err != nil {
		return nil, fmt.Errorf("decode login response: %w", err)
	}
	if dto.Token == "" || dto.User == nil {
		return nil, fmt.Errorf("login: response incomplete")
	}

	user := model.User{
		ID:    string(dto.User.ID),
		Role:  model.ParseRole(dto.User.Role),
		Email: dto.User.Email,
	}
	if l := dto.User.Learner; l != nil {
		user.LearnerID = string(l.ID)
		user.FirstName = l.FirstName
		user.LastName = l.LastName
		if user.Email == "" {
			user.Email = l.Email
		}
	}

	return &auth.Session{Token: dto.Token, User: user}, nil
}

func (c *Client) do(ctx context.Context, method, path, token string, body any) (*http.Response, error) {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("marshal request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set(headerAccept, acceptDefault)
	if body != nil {
		req.Header.Set(headerContentType, mimeJSON)
	}
	if token != "" {
		req.Header.Set(headerAuthorization, "Bearer "+token)
	}
	if method != http.MethodGet {
		req.Header.Set(headerIdempotencyKey, uuid.NewString())
	}

	resp, err := c.http.Do(req)
	if err != nil {
		c.logger.Error("Backend request failed",
			zap.String("method", method),
			zap.String("path", path),
			zap.Error(err))
		return nil, fmt.Errorf("%w: %w", ErrTransport, err)
	}
	return resp, nil
}

// check maps a non-2xx response onto the error taxonomy. It consumes the body on failure.
func (c *Client) check(resp *http.Response, token string) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}

	msg := readMessage(resp)

	switch resp.StatusCode {
	case http.StatusUnauthorized:
		c.logger.Warn("Backend rejected token")
		c.events.TokenExpired(token)
		return ErrUnauthorized
	case http.StatusNotFound:
		return fmt.Errorf("%w: %s", ErrNotFound, msg)
	case http.StatusConflict:
		return &ConflictError{Message: msg}
	default:
		return &HTTPError{Status: resp.StatusCode, Message: msg}
	}
}

func readMessage(resp *http.Response) string {
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	text := strings.TrimSpace(string(raw))

	if strings.Contains(resp.Header.Get(headerContentType), mimeJSON) || strings.HasPrefix(text, "{") {
		var e errorDTO
		if err := json.Unmarshal(raw, &e); err == nil {
			switch {
			case e.Message != "":
				return e.Message
			case e.Error != "":
				return e.Error
			}
		}
	}
	if text != "" {
		return text
	}
	return http.StatusText(resp.StatusCode)
}
