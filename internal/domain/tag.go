package domain

import "strings"

// Tag is a label that may derive from a base tag.
type Tag struct {
	ID        int64
	Name      string
	Slug      string
	BaseTagID *int64
}

// NewBaseTag creates a tag with no base; the slug is derived from name.
func NewBaseTag(name string) (Tag, error) {
	return NewBaseTagWithSlug(name, name)
}

func NewBaseTagWithSlug(name, slug string) (Tag, error) {
	t := Tag{}
	if err := t.SetName(name); err != nil {
		return Tag{}, err
	}
	if err := t.SetSlug(slug); err != nil {
		return Tag{}, err
	}
	return t, nil
}

// NewTag creates a tag derived from base, which must already be persisted.
func NewTag(name string, base Tag) (Tag, error) {
	t, err := NewBaseTag(name)
	if err != nil {
		return Tag{}, err
	}
	id := base.ID
	t.BaseTagID = &id
	return t, nil
}

func (t *Tag) SetName(name string) error {
	if strings.TrimSpace(name) == "" {
		return ErrEmptyName
	}
	t.Name = name
	return nil
}

// SetSlug stores value in slug form.
func (t *Tag) SetSlug(value string) error {
	s := Slugify(value)
	if s == "" {
		return ErrEmptySlug
	}
	t.Slug = s
	return nil
}
