package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/bibbank/loan-origination/internal/domain/model"
	"github.com/bibbank/loan-origination/internal/domain/port"
	"github.com/bibbank/loan-origination/internal/domain/valueobject"
	"github.com/bibbank/loan-origination/internal/infrastructure/persistence"
)

// ActorRepo implements port.ActorDirectory over the actors table.
type ActorRepo struct {
	pool *pgxpool.Pool
}

func NewActorRepo(pool *pgxpool.Pool) *ActorRepo {
	return &ActorRepo{pool: pool}
}

// FindByEmail matches case-insensitively; emails are stored lower-cased.
func (r *ActorRepo) FindByEmail(ctx context.Context, email string) (model.Actor, error) {
	var (
		id, storedEmail, fullName, role string
		active                          bool
		createdAt                       time.Time
	)
	err := r.pool.QueryRow(ctx,
		`SELECT id, email, full_name, role, active, created_at FROM actors WHERE email = $1`,
		strings.ToLower(strings.TrimSpace(email)),
	).Scan(&id, &storedEmail, &fullName, &role, &active, &createdAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return model.Actor{}, valueobject.NotFound("actor %s", email)
	}
	if err != nil {
		return model.Actor{}, fmt.Errorf("scan actor: %w", err)
	}
	return persistence.Actor(id, storedEmail, fullName, role, active, createdAt)
}

// Save upserts by email. The stored ID and created_at survive a re-register.
func (r *ActorRepo) Save(ctx context.Context, actor model.Actor) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO actors (id, email, full_name, role, active, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (email) DO UPDATE SET
			full_name = EXCLUDED.full_name,
			role      = EXCLUDED.role,
			active    = EXCLUDED.active`,
		actor.ID(), strings.ToLower(actor.Email()), actor.FullName(), actor.Role().String(), actor.Active(), actor.CreatedAt(),
	)
	if err != nil {
		return fmt.Errorf("save actor: %w", err)
	}
	return nil
}

var _ port.ActorDirectory = (*ActorRepo)(nil)
