package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/bibbank/loan-origination/internal/domain/model"
	"github.com/bibbank/loan-origination/internal/domain/port"
	"github.com/bibbank/loan-origination/internal/domain/valueobject"
	"github.com/bibbank/loan-origination/internal/infrastructure/persistence"
)

// ActorRepo implements port.ActorDirectory.
type ActorRepo struct {
	db *sql.DB
}

func (r *ActorRepo) FindByEmail(ctx context.Context, email string) (model.Actor, error) {
	var (
		id, storedEmail, fullName, role string
		active                          bool
		createdAt                       time.Time
	)
	err := r.db.QueryRowContext(ctx,
		`SELECT id, email, full_name, role, active, created_at FROM actors WHERE email = ?`,
		strings.ToLower(strings.TrimSpace(email)),
	).Scan(&id, &storedEmail, &fullName, &role, &active, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Actor{}, valueobject.NotFound("actor %s", email)
	}
	if err != nil {
		return model.Actor{}, fmt.Errorf("scan actor: %w", err)
	}
	return persistence.Actor(id, storedEmail, fullName, role, active, createdAt)
}

// Save upserts by email, keeping the first ID issued for that address.
func (r *ActorRepo) Save(ctx context.Context, actor model.Actor) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO actors (id, email, full_name, role, active, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT (email) DO UPDATE SET
			full_name = excluded.full_name,
			role      = excluded.role,
			active    = excluded.active`,
		actor.ID(), strings.ToLower(actor.Email()), actor.FullName(), actor.Role().String(), actor.Active(), utc(actor.CreatedAt()),
	)
	if err != nil {
		return fmt.Errorf("save actor: %w", err)
	}
	return nil
}

var _ port.ActorDirectory = (*ActorRepo)(nil)
