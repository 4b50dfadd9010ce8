package repository

import (
	"context"
	"fmt"

	"github.com/Freeeeeet/drivingschool_bot/internal/model"
	"github.com/Freeeeeet/drivingschool_bot/internal/repository/base"
	"github.com/jackc/pgx/v5/pgxpool"
)

type SessionRepository struct {
	*base.Repository
}

func NewSessionRepository(pool *pgxpool.Pool) *SessionRepository {
	return &SessionRepository{Repository: base.NewRepository(pool)}
}

// Save stores the session of a Telegram user, replacing any previous one.
func (r *SessionRepository) Save(ctx context.Context, s *model.SessionRecord) error {
	query := `
		INSERT INTO sessions (telegram_id, token, user_id, role, learner_id, first_name, last_name, email)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (telegram_id) DO UPDATE SET
			token      = EXCLUDED.token,
			user_id    = EXCLUDED.user_id,
			role       = EXCLUDED.role,
			learner_id = EXCLUDED.learner_id,
			first_name = EXCLUDED.first_name,
			last_name  = EXCLUDED.last_name,
			email      = EXCLUDED.email,
			updated_at = NOW()
		RETURNING created_at, updated_at
	`

	err := r.QueryRow(
		ctx, query,
		s.TelegramID,
		s.Token,
		s.User.ID,
		string(s.User.Role),
		s.User.LearnerID,
		s.User.FirstName,
		s.User.LastName,
		s.User.Email,
	).Scan(&s.CreatedAt, &s.UpdatedAt)

	if err != nil {
		return fmt.Errorf("save session: %w", err)
	}

	return nil
}

// GetByTelegramID returns nil, nil when the user has no stored session.
func (r *SessionRepository) GetByTelegramID(ctx context.Context, telegramID int64) (*model.SessionRecord, error) {
	query := `
		SELECT telegram_id, token, user_id, role, learner_id, first_name, last_name, email, created_at, updated_at
		FROM sessions
		WHERE telegram_id = $1
	`

	var (
		s    model.SessionRecord
		role string
	)
	err := r.QueryRow(ctx, query, telegramID).Scan(
		&s.TelegramID,
		&s.Token,
		&s.User.ID,
		&role,
		&s.User.LearnerID,
		&s.User.FirstName,
		&s.User.LastName,
		&s.User.Email,
		&s.CreatedAt,
		&s.UpdatedAt,
	)

	if err != nil {
		if base.IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get session by telegram id: %w", err)
	}

	s.User.Role = model.ParseRole(role)
	return &s, nil
}

func (r *SessionRepository) Delete(ctx context.Context, telegramID int64) error {
	if _, err := r.ExecAffected(ctx, `DELETE FROM sessions WHERE telegram_id = $1`, telegramID); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

// DeleteByToken removes every session holding the token and returns the affected Telegram ids.
func (r *SessionRepository) DeleteByToken(ctx context.Context, token string) ([]int64, error) {
	rows, err := r.Pool().Query(ctx, `DELETE FROM sessions WHERE token = $1 RETURNING telegram_id`, token)
	if err != nil {
		return nil, fmt.Errorf("delete sessions by token: %w", err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan telegram id: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate deleted sessions: %w", err)
	}

	return ids, nil
}
