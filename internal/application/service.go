package application

import (
	"context"
	"errors"
	"fmt"

	"txscope/internal/domain"
)

type TagService struct {
	uow  Transactor
	tags TagRepo
	idem IdempotencyStore
}

type ServiceOption func(*TagService)

func WithIdempotency(s IdempotencyStore) ServiceOption {
	return func(t *TagService) { t.idem = s }
}

func NewTagService(uow Transactor, tags TagRepo, opts ...ServiceOption) *TagService {
	s := &TagService{uow: uow, tags: tags}
	for _, opt := range opts {
		opt(s)
	}
	if s.idem == nil {
		s.idem = NoopIdempotency{}
	}
	return s
}

// CreateTag stores a base tag. A non-empty idempotency key that was already
// seen yields ErrConflict.
func (s *TagService) CreateTag(ctx context.Context, name, slug string, idem *string) (domain.Tag, error) {
	if slug == "" {
		slug = name
	}
	tag, err := domain.NewBaseTagWithSlug(name, slug)
	if err != nil {
		return domain.Tag{}, fmt.Errorf("%w: %w", ErrBadRequest, err)
	}
	var key string
	if idem != nil && *idem != "" {
		key = "tags:create:" + *idem
		ok, err := s.idem.TryReserve(ctx, key)
		if err != nil {
			return domain.Tag{}, fmt.Errorf("reserve idempotency key: %w", err)
		}
		if !ok {
			return domain.Tag{}, ErrConflict
		}
	}
	err = s.uow.Do(ctx, func(ctx context.Context) error {
		return s.tags.SaveOrUpdate(ctx, &tag)
	})
	if err != nil {
		if key != "" {
			err = errors.Join(err, s.idem.Release(context.WithoutCancel(ctx), key))
		}
		return domain.Tag{}, err
	}
	return tag, nil
}

// CreateTagWithBase creates a base tag and a tag derived from it atomically.
// The base is created through CreateTag, whose scope joins this one.
func (s *TagService) CreateTagWithBase(ctx context.Context, baseName, name string) (base, tag domain.Tag, err error) {
	err = s.uow.Do(ctx, func(ctx context.Context) error {
		var err error
		if base, err = s.CreateTag(ctx, baseName, "", nil); err != nil {
			return err
		}
		if tag, err = domain.NewTag(name, base); err != nil {
			return fmt.Errorf("%w: %w", ErrBadRequest, err)
		}
		return s.tags.SaveOrUpdate(ctx, &tag)
	})
	if err != nil {
		return domain.Tag{}, domain.Tag{}, err
	}
	return base, tag, nil
}

// AddChild creates a tag derived from the existing tag baseID.
func (s *TagService) AddChild(ctx context.Context, baseID int64, name string) (domain.Tag, error) {
	var tag domain.Tag
	err := s.uow.Do(ctx, func(ctx context.Context) error {
		base, err := s.tags.GetByID(ctx, baseID)
		if err != nil {
			return err
		}
		if tag, err = domain.NewTag(name, base); err != nil {
			return fmt.Errorf("%w: %w", ErrBadRequest, err)
		}
		return s.tags.SaveOrUpdate(ctx, &tag)
	})
	if err != nil {
		return domain.Tag{}, err
	}
	return tag, nil
}

func (s *TagService) GetTag(ctx context.Context, id int64) (domain.Tag, error) {
	var tag domain.Tag
	err := s.uow.Do(ctx, func(ctx context.Context) error {
		var err error
		tag, err = s.tags.GetByID(ctx, id)
		return err
	})
	return tag, err
}

func (s *TagService) ListTags(ctx context.Context) ([]domain.Tag, error) {
	var tags []domain.Tag
	err := s.uow.Do(ctx, func(ctx context.Context) error {
		var err error
		tags, err = s.tags.GetAll(ctx)
		return err
	})
	return tags, err
}

func (s *TagService) DeleteTag(ctx context.Context, id int64) error {
	return s.uow.Do(ctx, func(ctx context.Context) error {
		if _, err := s.tags.GetByID(ctx, id); err != nil {
			return err
		}
		return s.tags.Delete(ctx, id)
	})
}
