package crud

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/crudzilla/crudzilla/internal/domain"
	"github.com/crudzilla/crudzilla/internal/entity"
	"github.com/crudzilla/crudzilla/internal/security"
)

// ToggleActive flips the active flag of an activatable entity and persists
// it. It returns the new state.
func (s *Service) ToggleActive(ctx context.Context, key, rawID string) (bool, error) {
	d, err := s.resolve(ctx, key, security.Save)
	if err != nil {
		return false, err
	}
	id, err := convertID(d, rawID)
	if err != nil {
		return false, err
	}

	var active bool
	err = s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		e, err := d.Repository.GetEagerLoaded(txCtx, id)
		if err != nil {
			return err
		}
		a, ok := e.(entity.Activatable)
		if !ok {
			return fmt.Errorf("%q is not activatable: %w", key, domain.ErrNotImplemented)
		}
		a.SetActive(!a.IsActive())
		active = a.IsActive()
		_, err = d.Repository.Put(txCtx, e)
		return err
	})
	if err != nil {
		return false, err
	}
	s.invalidate(ctx, key)

	s.log.InfoContext(ctx, "entity toggled",
		slog.String("key", key),
		slog.String("id", rawID),
		slog.Bool("active", active),
	)
	return active, nil
}
