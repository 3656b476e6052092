package domain

import "context"

// ListFilter narrows and pages gallery listings. Nil pointer fields are
// not applied.
type ListFilter struct {
	UserID    *int64
	Published *bool
	Featured  *bool
	Category  string
	Search    string
	Limit     int
	Offset    int
}

// MetadataUpdate carries the user-editable descriptive fields. Nil fields
// are left untouched.
type MetadataUpdate struct {
	Title       *string
	Caption     *string
	Description *string
	Tags        *[]string
	Category    *string
}

type ImageRepository interface {
	// CreateWithRenditions inserts the image row and its rendition rows in
	// one transaction and fills in the generated ids and timestamps.
	// Returns ErrSlugTaken on a (user_id, slug) uniqueness violation.
	CreateWithRenditions(ctx context.Context, image *ImageRecord) error
	FindByID(ctx context.Context, id int64) (*ImageRecord, error)
	List(ctx context.Context, filter ListFilter) ([]*ImageRecord, int, error)
	// CountSlugPrefix counts the owner's existing slugs that start with base.
	CountSlugPrefix(ctx context.Context, userID int64, base string) (int, error)
	UpdateMetadata(ctx context.Context, id int64, update MetadataUpdate) error
	SetPublished(ctx context.Context, id int64, published bool) error
	SetFeatured(ctx context.Context, id int64, featured bool) error
	Delete(ctx context.Context, id int64) error
}
