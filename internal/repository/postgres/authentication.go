package postgres

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/healthsync/healthsync-api/internal/model"
	"github.com/healthsync/healthsync-api/internal/repository"
)

const authColumns = `user_id, user_type, phone_number, email, password, created_at, updated_at`

type authenticationRepository struct {
	BaseRepository
}

func NewAuthenticationRepository(db *sqlx.DB) repository.AuthenticationRepository {
	return &authenticationRepository{BaseRepository: NewBaseRepository(db)}
}

func (r *authenticationRepository) Create(ctx context.Context, auth *model.Authentication) error {
	query := `
		INSERT INTO authentication (` + authColumns + `)
		VALUES (:user_id, :user_type, :phone_number, :email, :password, :created_at, :updated_at)
	`
	now := time.Now().UTC()
	auth.CreatedAt = now
	auth.UpdatedAt = now

	_, err := r.db.NamedExecContext(ctx, query, auth)
	return wrap("create authentication", err)
}

func (r *authenticationRepository) Get(ctx context.Context, userID string) (*model.Authentication, error) {
	return r.getBy(ctx, "get authentication", `user_id = $1`, userID)
}

// GetByEmail matches case-insensitively, like the unique index.
func (r *authenticationRepository) GetByEmail(ctx context.Context, email string) (*model.Authentication, error) {
	return r.getBy(ctx, "get authentication by email", `LOWER(email) = LOWER($1)`, email)
}

func (r *authenticationRepository) GetByPhone(ctx context.Context, phone string) (*model.Authentication, error) {
	return r.getBy(ctx, "get authentication by phone", `phone_number = $1`, phone)
}

func (r *authenticationRepository) getBy(ctx context.Context, op, where string, arg interface{}) (*model.Authentication, error) {
	query := `SELECT ` + authColumns + ` FROM authentication WHERE ` + where
	var auth model.Authentication
	if err := r.db.GetContext(ctx, &auth, query, arg); err != nil {
		return nil, wrap(op, err)
	}
	return &auth, nil
}

func (r *authenticationRepository) Update(ctx context.Context, auth *model.Authentication) error {
	query := `
		UPDATE authentication SET
			user_type = :user_type, phone_number = :phone_number, email = :email,
			password = :password, updated_at = :updated_at
		WHERE user_id = :user_id
	`
	auth.UpdatedAt = time.Now().UTC()
	res, err := r.db.NamedExecContext(ctx, query, auth)
	if err != nil {
		return wrap("update authentication", err)
	}
	return expectRow(res)
}

func (r *authenticationRepository) Delete(ctx context.Context, userID string) error {
	return r.deleteByID(ctx, "authentication", "user_id", userID)
}

func (r *authenticationRepository) List(ctx context.Context) ([]*model.Authentication, error) {
	query := `SELECT ` + authColumns + ` FROM authentication ORDER BY created_at, user_id`
	auths := []*model.Authentication{}
	if err := r.db.SelectContext(ctx, &auths, query); err != nil {
		return nil, wrap("list authentication", err)
	}
	return auths, nil
}
