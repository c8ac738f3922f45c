package usecase

import (
	"context"
	"errors"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/bibbank/loan-origination/internal/domain/valueobject"
)

const (
	// maxConflictRetries bounds how often a command reloads and re-applies
	// itself after losing an optimistic version race.
	maxConflictRetries = 3
	// maxNumberAttempts bounds redraws of a colliding application or offer
	// letter number.
	maxNumberAttempts = 5
)

// retryOnConflict runs op until it succeeds or fails with anything other than
// valueobject.ErrConcurrentModification. op must reload whatever it validates
// so that every attempt sees current state.
func retryOnConflict(ctx context.Context, op func() error) error {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 20 * time.Millisecond
	b.MaxInterval = 250 * time.Millisecond

	policy := backoff.WithContext(backoff.WithMaxRetries(b, maxConflictRetries), ctx)
	return backoff.Retry(func() error {
		err := op()
		if err == nil || errors.Is(err, valueobject.ErrConcurrentModification) {
			if err != nil {
				conflictsTotal.Add(ctx, 1)
			}
			return err
		}
		return backoff.Permanent(err)
	}, policy)
}
