package domain

import "errors"

var (
	ErrEmptyName = errors.New("tag name must not be blank")
	ErrEmptySlug = errors.New("tag slug must not be blank")
)
