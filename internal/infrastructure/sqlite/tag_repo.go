package sqlite

import (
	"context"
	"errors"

	"txscope/internal/application"
	"txscope/internal/domain"

	"gorm.io/gorm"
)

// TagRepo runs on the session bound in the caller's context; it never opens one.
type TagRepo struct{ sessions *SessionFactory }

var _ application.TagRepo = (*TagRepo)(nil)

func NewTagRepo(sessions *SessionFactory) *TagRepo { return &TagRepo{sessions: sessions} }

func (r *TagRepo) db(ctx context.Context) (*gorm.DB, error) {
	s, err := r.sessions.Current(ctx)
	if err != nil {
		return nil, err
	}
	return s.DB(ctx), nil
}

func (r *TagRepo) GetAll(ctx context.Context) ([]domain.Tag, error) {
	db, err := r.db(ctx)
	if err != nil {
		return nil, err
	}
	var rows []TagModel
	if err := db.Order("id").Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]domain.Tag, 0, len(rows))
	for _, m := range rows {
		out = append(out, m.toDomain())
	}
	return out, nil
}

func (r *TagRepo) GetByID(ctx context.Context, id int64) (domain.Tag, error) {
	db, err := r.db(ctx)
	if err != nil {
		return domain.Tag{}, err
	}
	var m TagModel
	if err := db.First(&m, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.Tag{}, application.ErrNotFound
		}
		return domain.Tag{}, err
	}
	return m.toDomain(), nil
}

func (r *TagRepo) SaveOrUpdate(ctx context.Context, t *domain.Tag) error {
	db, err := r.db(ctx)
	if err != nil {
		return err
	}
	m := toModel(*t)
	if m.ID == 0 {
		err = db.Create(&m).Error
	} else {
		err = db.Save(&m).Error
	}
	if err != nil {
		return err
	}
	t.ID = m.ID
	return nil
}

func (r *TagRepo) Delete(ctx context.Context, id int64) error {
	db, err := r.db(ctx)
	if err != nil {
		return err
	}
	res := db.Delete(&TagModel{}, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return application.ErrNotFound
	}
	return nil
}
