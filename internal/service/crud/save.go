package crud

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"reflect"

	"github.com/crudzilla/crudzilla/internal/domain"
	"github.com/crudzilla/crudzilla/internal/entity"
	"github.com/crudzilla/crudzilla/internal/registry"
	"github.com/crudzilla/crudzilla/internal/security"
)

// Save decodes raw into the form registered for key, binds it onto a new or
// loaded entity and persists it. It returns the persisted identifier.
func (s *Service) Save(ctx context.Context, key string, raw []byte) (any, error) {
	d, err := s.resolve(ctx, key, security.Save)
	if err != nil {
		return nil, err
	}
	form, err := d.NewForm()
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(raw, form); err != nil {
		return nil, fmt.Errorf("%w: %s form: %v", domain.ErrDecode, key, err)
	}

	var id any
	err = s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		saved, err := s.save(txCtx, d, form, nil, true)
		if err != nil {
			return err
		}
		id, _ = d.Repository.Identify(saved)
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.invalidate(ctx, key)

	s.log.InfoContext(ctx, "entity saved",
		slog.String("key", key),
		slog.String("id", idString(id)),
	)
	return id, nil
}

// SaveNested runs the save pipeline for an owned child of entityType without
// persisting it. The owner's Put cascades the result.
func (s *Service) SaveNested(ctx context.Context, entityType reflect.Type, form any, beforeSave func(e any) error) (any, error) {
	d, ok := s.reg.ByType(entityType)
	if !ok {
		return nil, fmt.Errorf("nested save of %s: %w", entityType, domain.ErrUnknownKey)
	}
	return s.save(ctx, d, form, beforeSave, false)
}

func (s *Service) save(ctx context.Context, d *registry.Descriptor, form any, beforeSave func(any) error, persist bool) (any, error) {
	id, err := entity.FormID(form)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", d.Key, err)
	}

	b := s.builderFor(d)
	var e any
	if id == nil {
		e, err = b.BuildNew(ctx, form, d.Repository.New())
	} else {
		var loaded any
		if loaded, err = d.Repository.GetEagerLoaded(ctx, id); err != nil {
			return nil, err
		}
		e, err = b.BuildExisting(ctx, form, loaded)
	}
	if err != nil {
		return nil, err
	}

	if beforeSave != nil {
		if err := beforeSave(e); err != nil {
			return nil, err
		}
	}
	if !persist {
		return e, nil
	}
	return d.Repository.Put(ctx, e)
}
