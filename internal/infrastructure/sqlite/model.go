package sqlite

import "txscope/internal/domain"

type TagModel struct {
	ID        int64  `gorm:"primaryKey;autoIncrement"`
	Name      string `gorm:"not null"`
	Slug      string `gorm:"not null;index"`
	BaseTagID *int64
}

func (TagModel) TableName() string { return "tags" }

func toModel(t domain.Tag) TagModel {
	return TagModel{ID: t.ID, Name: t.Name, Slug: t.Slug, BaseTagID: t.BaseTagID}
}

func (m TagModel) toDomain() domain.Tag {
	return domain.Tag{ID: m.ID, Name: m.Name, Slug: m.Slug, BaseTagID: m.BaseTagID}
}
