package pg

import (
	"context"
	"errors"

	"txscope/internal/application"
	"txscope/internal/domain"

	"github.com/jackc/pgx/v5"
)

// TagRepo runs on the session bound in the caller's context; it never opens one.
type TagRepo struct{ sessions *SessionFactory }

var _ application.TagRepo = (*TagRepo)(nil)

func NewTagRepo(sessions *SessionFactory) *TagRepo { return &TagRepo{sessions: sessions} }

func (r *TagRepo) GetAll(ctx context.Context) ([]domain.Tag, error) {
	s, err := r.sessions.Current(ctx)
	if err != nil {
		return nil, err
	}
	rows, err := s.q().Query(ctx, `SELECT id, name, slug, base_tag_id FROM tags ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []domain.Tag
	for rows.Next() {
		var t domain.Tag
		if err := rows.Scan(&t.ID, &t.Name, &t.Slug, &t.BaseTagID); err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func (r *TagRepo) GetByID(ctx context.Context, id int64) (domain.Tag, error) {
	s, err := r.sessions.Current(ctx)
	if err != nil {
		return domain.Tag{}, err
	}
	const q = `SELECT id, name, slug, base_tag_id FROM tags WHERE id=$1`
	var t domain.Tag
	if err := s.q().QueryRow(ctx, q, id).Scan(&t.ID, &t.Name, &t.Slug, &t.BaseTagID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Tag{}, application.ErrNotFound
		}
		return domain.Tag{}, err
	}
	return t, nil
}

func (r *TagRepo) SaveOrUpdate(ctx context.Context, t *domain.Tag) error {
	s, err := r.sessions.Current(ctx)
	if err != nil {
		return err
	}
	if t.ID == 0 {
		const ins = `INSERT INTO tags(name, slug, base_tag_id) VALUES ($1, $2, $3) RETURNING id`
		return s.q().QueryRow(ctx, ins, t.Name, t.Slug, t.BaseTagID).Scan(&t.ID)
	}
	const up = `
        INSERT INTO tags(id, name, slug, base_tag_id)
        VALUES ($1, $2, $3, $4)
        ON CONFLICT (id) DO UPDATE
          SET name=EXCLUDED.name, slug=EXCLUDED.slug, base_tag_id=EXCLUDED.base_tag_id`
	_, err = s.q().Exec(ctx, up, t.ID, t.Name, t.Slug, t.BaseTagID)
	return err
}

func (r *TagRepo) Delete(ctx context.Context, id int64) error {
	s, err := r.sessions.Current(ctx)
	if err != nil {
		return err
	}
	tag, err := s.q().Exec(ctx, `DELETE FROM tags WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return application.ErrNotFound
	}
	return nil
}
