package crud

import (
	"context"
	"log/slog"

	"github.com/crudzilla/crudzilla/internal/security"
)

// Delete removes the entity of key identified by rawID.
func (s *Service) Delete(ctx context.Context, key, rawID string) error {
	d, err := s.resolve(ctx, key, security.Delete)
	if err != nil {
		return err
	}
	id, err := convertID(d, rawID)
	if err != nil {
		return err
	}

	err = s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		return d.Repository.Remove(txCtx, id)
	})
	if err != nil {
		return err
	}
	s.invalidate(ctx, key)

	s.log.InfoContext(ctx, "entity deleted", slog.String("key", key), slog.String("id", rawID))
	return nil
}
