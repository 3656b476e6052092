package domain

import "errors"

var (
	ErrImageNotFound    = errors.New("image not found")
	ErrRenditionMissing = errors.New("rendition not found")
	ErrSlugTaken        = errors.New("slug already taken for this owner")
	ErrNoFieldsToUpdate = errors.New("no valid fields to update")
)
