package ingest

import (
	"context"
	"fmt"

	"github.com/gosimple/slug"

	"photogallery/internal/domain"
	"photogallery/internal/helpers"
)

// allocateSlug derives a URL-safe identifier unique for the owner at the
// time of the check. The first image keeps the bare base; later ones get
// "-{count+1}" appended, counting existing slugs that share the base prefix.
// This is check-then-act: the database unique constraint is the real guard,
// and the caller retries once on a conflict there.
func allocateSlug(ctx context.Context, repo domain.ImageRepository, userID int64, title, originalFilename string) (string, error) {
	base := slug.Make(title)
	if base == "" {
		base = slug.Make(helpers.Stem(originalFilename))
	}
	if base == "" {
		base = "image"
	}

	count, err := repo.CountSlugPrefix(ctx, userID, base)
	if err != nil {
		return "", fmt.Errorf("count slug prefix: %w", err)
	}
	if count == 0 {
		return base, nil
	}
	return fmt.Sprintf("%s-%d", base, count+1), nil
}
