package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/bibbank/loan-origination/internal/application/dto"
	"github.com/bibbank/loan-origination/internal/domain/model"
	"github.com/bibbank/loan-origination/internal/domain/port"
	"github.com/bibbank/loan-origination/internal/domain/valueobject"
)

// RegisterActorUseCase adds a staff member to the directory, or replaces the
// one with the same email. Only an active ADMIN may register or change roles.
type RegisterActorUseCase struct {
	actors port.ActorDirectory
	clock  port.Clock
	logger *slog.Logger
}

func NewRegisterActorUseCase(actors port.ActorDirectory, clock port.Clock, logger *slog.Logger) *RegisterActorUseCase {
	return &RegisterActorUseCase{actors: actors, clock: clock, logger: logger}
}

func (uc *RegisterActorUseCase) Execute(ctx context.Context, req dto.RegisterActorRequest) (dto.ActorResponse, error) {
	caller, err := uc.actors.FindByEmail(ctx, req.ActorEmail)
	if err != nil {
		return dto.ActorResponse{}, fmt.Errorf("find actor: %w", err)
	}
	if !caller.HasRole(valueobject.RoleAdmin) {
		return dto.ActorResponse{}, valueobject.Unauthorized("user not authorized to manage staff: requires %s", valueobject.RoleAdmin)
	}

	actor, err := uc.save(ctx, req.Email, req.FullName, req.Role)
	if err != nil {
		return dto.ActorResponse{}, err
	}
	uc.logger.InfoContext(ctx, "actor registered",
		"actor_id", actor.ID(), "role", actor.Role().String(), "registered_by", caller.ID())
	return toActorResponse(actor), nil
}

// Bootstrap registers email as ADMIN without a calling actor. It runs at
// startup so a fresh directory has someone who can register the rest.
func (uc *RegisterActorUseCase) Bootstrap(ctx context.Context, email, fullName string) (dto.ActorResponse, error) {
	actor, err := uc.save(ctx, email, fullName, valueobject.RoleAdmin.String())
	if err != nil {
		return dto.ActorResponse{}, err
	}
	uc.logger.InfoContext(ctx, "bootstrap admin registered", "actor_id", actor.ID())
	return toActorResponse(actor), nil
}

func (uc *RegisterActorUseCase) save(ctx context.Context, email, fullName, roleName string) (model.Actor, error) {
	role, err := valueobject.NewRole(roleName)
	if err != nil {
		return model.Actor{}, err
	}
	actor, err := model.NewActor(email, fullName, role, uc.clock.Now())
	if err != nil {
		return model.Actor{}, err
	}

	// Re-registering keeps the identity that history rows refer to.
	existing, err := uc.actors.FindByEmail(ctx, actor.Email())
	switch {
	case err == nil:
		actor = model.ReconstructActor(existing.ID(), actor.Email(), actor.FullName(), role, true, existing.CreatedAt())
	case !errors.Is(err, valueobject.ErrNotFound):
		return model.Actor{}, fmt.Errorf("find actor: %w", err)
	}

	if err := uc.actors.Save(ctx, actor); err != nil {
		return model.Actor{}, fmt.Errorf("save actor: %w", err)
	}
	return actor, nil
}
