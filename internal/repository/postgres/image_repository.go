package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/lib/pq"
	"github.com/wb-go/wbf/dbpg"
	"github.com/wb-go/wbf/retry"
	"github.com/wb-go/wbf/zlog"

	"photogallery/internal/domain"
	"photogallery/internal/helpers"
)

type imageRepository struct {
	db       *dbpg.DB
	strategy retry.Strategy
}

func NewImageRepository(db *dbpg.DB, strategy retry.Strategy) domain.ImageRepository {
	return &imageRepository{
		db:       db,
		strategy: strategy,
	}
}

const imageColumns = `
	id, user_id, filename, slug, original_filename,
	title, caption, description, tags, category,
	camera_make, camera_model, lens,
	focal_length, aperture, shutter_speed, iso,
	date_taken, location, width, height, aspect_ratio,
	file_size, published, featured, available_for_sale,
	created_at, updated_at
`

// CreateWithRenditions inserts the image row and its rendition rows in one
// transaction so readers see both or neither. No retry wrapping here:
// replaying a half-applied transaction is worse than surfacing the failure.
func (r *imageRepository) CreateWithRenditions(ctx context.Context, image *domain.ImageRecord) error {
	tx, err := r.db.Master.BeginTx(ctx, nil)
	if err != nil {
		zlog.Logger.Error().Err(err).Msg("failed to begin transaction")
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	query := `
		INSERT INTO images (
			user_id, filename, slug, original_filename,
			title, caption, description, tags, category,
			camera_make, camera_model, lens,
			focal_length, aperture, shutter_speed, iso,
			date_taken, location, width, height, aspect_ratio,
			file_size, published, featured, available_for_sale
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12,
			$13, $14, $15, $16, $17, $18, $19, $20, $21, $22, $23, $24, $25
		)
		RETURNING id, created_at, updated_at
	`

	m := image.Metadata
	err = tx.QueryRowContext(ctx, query,
		image.UserID,
		image.Filename,
		image.Slug,
		image.OriginalFilename,
		image.Enrichment.Title,
		image.Enrichment.Caption,
		image.Enrichment.Description,
		strings.Join(image.Enrichment.Tags, ","),
		image.Enrichment.Category,
		m.CameraMake,
		m.CameraModel,
		m.Lens,
		m.FocalLength,
		m.Aperture,
		m.ShutterSpeed,
		m.ISO,
		m.DateTaken,
		m.Location,
		m.Width,
		m.Height,
		m.AspectRatio,
		image.FileSize,
		image.Published,
		image.Featured,
		image.AvailableForSale,
	).Scan(&image.ID, &image.CreatedAt, &image.UpdatedAt)

	if err != nil {
		if isUniqueViolation(err) {
			zlog.Logger.Warn().Str("slug", image.Slug).Int64("user_id", image.UserID).Msg("slug uniqueness violation on insert")
			return domain.ErrSlugTaken
		}
		zlog.Logger.Error().Err(err).Str("slug", image.Slug).Msg("failed to insert image")
		return fmt.Errorf("insert image: %w", err)
	}

	renditionQuery := `
		INSERT INTO image_renditions (
			image_id, format, size_class, filename, width, height, file_size
		) VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at
	`

	for i := range image.Renditions {
		v := &image.Renditions[i]
		v.ImageID = image.ID
		if err := tx.QueryRowContext(ctx, renditionQuery,
			v.ImageID, v.Format, v.Size, v.Filename, v.Width, v.Height, v.FileSize,
		).Scan(&v.ID, &v.CreatedAt); err != nil {
			zlog.Logger.Error().Err(err).Str("filename", v.Filename).Msg("failed to insert rendition")
			return fmt.Errorf("insert rendition: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		zlog.Logger.Error().Err(err).Int64("image_id", image.ID).Msg("failed to commit image insert")
		return fmt.Errorf("commit: %w", err)
	}

	zlog.Logger.Info().Int64("image_id", image.ID).Int("renditions", len(image.Renditions)).Msg("image record created")
	return nil
}

func (r *imageRepository) FindByID(ctx context.Context, id int64) (*domain.ImageRecord, error) {
	query := `SELECT ` + imageColumns + ` FROM images WHERE id = $1`

	img, err := scanImage(r.db.Master.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrImageNotFound
	}
	if err != nil {
		zlog.Logger.Error().Err(err).Int64("image_id", id).Msg("failed to find image")
		return nil, fmt.Errorf("find image: %w", err)
	}

	if err := r.loadRenditions(ctx, img); err != nil {
		return nil, err
	}
	return img, nil
}

func (r *imageRepository) loadRenditions(ctx context.Context, img *domain.ImageRecord) error {
	query := `
		SELECT id, image_id, format, size_class, filename, width, height, file_size, created_at
		FROM image_renditions
		WHERE image_id = $1
		ORDER BY width DESC
	`

	rows, err := r.db.QueryWithRetry(ctx, r.strategy, query, img.ID)
	if err != nil {
		zlog.Logger.Error().Err(err).Int64("image_id", img.ID).Msg("failed to load renditions")
		return fmt.Errorf("load renditions: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var v domain.Rendition
		if err := rows.Scan(&v.ID, &v.ImageID, &v.Format, &v.Size, &v.Filename, &v.Width, &v.Height, &v.FileSize, &v.CreatedAt); err != nil {
			return fmt.Errorf("scan rendition: %w", err)
		}
		img.Renditions = append(img.Renditions, v)
	}
	return rows.Err()
}

func (r *imageRepository) List(ctx context.Context, filter domain.ListFilter) ([]*domain.ImageRecord, int, error) {
	where, args := buildFilter(filter)

	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}

	query := fmt.Sprintf(
		`SELECT %s FROM images %s ORDER BY created_at DESC LIMIT $%d OFFSET $%d`,
		imageColumns, where, len(args)+1, len(args)+2,
	)

	rows, err := r.db.QueryWithRetry(ctx, r.strategy, query, append(args, limit, filter.Offset)...)
	if err != nil {
		zlog.Logger.Error().Err(err).Msg("failed to list images")
		return nil, 0, fmt.Errorf("list images: %w", err)
	}
	defer rows.Close()

	var images []*domain.ImageRecord
	for rows.Next() {
		img, err := scanImage(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan image: %w", err)
		}
		images = append(images, img)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("rows iteration: %w", err)
	}

	total, err := r.countWithRetry(ctx, `SELECT COUNT(*) FROM images `+where, args...)
	if err != nil {
		zlog.Logger.Error().Err(err).Msg("failed to count images")
		return nil, 0, fmt.Errorf("count images: %w", err)
	}

	return images, total, nil
}

func (r *imageRepository) countWithRetry(ctx context.Context, query string, args ...any) (int, error) {
	rows, err := r.db.QueryWithRetry(ctx, r.strategy, query, args...)
	if err != nil {
		return 0, err
	}
	defer rows.Close()

	var count int
	if rows.Next() {
		if err := rows.Scan(&count); err != nil {
			return 0, err
		}
	}
	return count, rows.Err()
}

func (r *imageRepository) CountSlugPrefix(ctx context.Context, userID int64, base string) (int, error) {
	query := `SELECT COUNT(*) FROM images WHERE user_id = $1 AND slug LIKE $2`

	count, err := r.countWithRetry(ctx, query, userID, likePrefix(base))
	if err != nil {
		zlog.Logger.Error().Err(err).Int64("user_id", userID).Str("base", base).Msg("failed to count slug prefix")
		return 0, fmt.Errorf("count slug prefix: %w", err)
	}
	return count, nil
}

func (r *imageRepository) UpdateMetadata(ctx context.Context, id int64, update domain.MetadataUpdate) error {
	sets := make([]string, 0, 5)
	args := make([]any, 0, 6)

	add := func(column string, value any) {
		args = append(args, value)
		sets = append(sets, fmt.Sprintf("%s = $%d", column, len(args)))
	}

	if update.Title != nil {
		add("title", *update.Title)
	}
	if update.Caption != nil {
		add("caption", *update.Caption)
	}
	if update.Description != nil {
		add("description", *update.Description)
	}
	if update.Tags != nil {
		add("tags", strings.Join(*update.Tags, ","))
	}
	if update.Category != nil {
		add("category", *update.Category)
	}

	if len(sets) == 0 {
		return domain.ErrNoFieldsToUpdate
	}

	args = append(args, id)
	query := fmt.Sprintf(
		`UPDATE images SET %s, updated_at = NOW() WHERE id = $%d`,
		strings.Join(sets, ", "), len(args),
	)

	result, err := r.db.ExecWithRetry(ctx, r.strategy, query, args...)
	if err != nil {
		zlog.Logger.Error().Err(err).Int64("image_id", id).Msg("failed to update image metadata")
		return fmt.Errorf("update metadata: %w", err)
	}
	return requireRow(result)
}

func (r *imageRepository) SetPublished(ctx context.Context, id int64, published bool) error {
	query := `UPDATE images SET published = $2, updated_at = NOW() WHERE id = $1`

	result, err := r.db.ExecWithRetry(ctx, r.strategy, query, id, published)
	if err != nil {
		zlog.Logger.Error().Err(err).Int64("image_id", id).Msg("failed to update published flag")
		return fmt.Errorf("set published: %w", err)
	}
	return requireRow(result)
}

func (r *imageRepository) SetFeatured(ctx context.Context, id int64, featured bool) error {
	query := `UPDATE images SET featured = $2, updated_at = NOW() WHERE id = $1`

	result, err := r.db.ExecWithRetry(ctx, r.strategy, query, id, featured)
	if err != nil {
		zlog.Logger.Error().Err(err).Int64("image_id", id).Msg("failed to update featured flag")
		return fmt.Errorf("set featured: %w", err)
	}
	return requireRow(result)
}

// Delete removes the image row; rendition rows cascade.
func (r *imageRepository) Delete(ctx context.Context, id int64) error {
	query := `DELETE FROM images WHERE id = $1`

	result, err := r.db.ExecWithRetry(ctx, r.strategy, query, id)
	if err != nil {
		zlog.Logger.Error().Err(err).Int64("image_id", id).Msg("failed to delete image")
		return fmt.Errorf("delete image: %w", err)
	}
	return requireRow(result)
}

func buildFilter(filter domain.ListFilter) (string, []any) {
	clauses := make([]string, 0, 5)
	args := make([]any, 0, 8)

	add := func(clause string, value any) {
		args = append(args, value)
		clauses = append(clauses, fmt.Sprintf(clause, len(args)))
	}

	if filter.UserID != nil {
		add("user_id = $%d", *filter.UserID)
	}
	if filter.Published != nil {
		add("published = $%d", *filter.Published)
	}
	if filter.Featured != nil {
		add("featured = $%d", *filter.Featured)
	}
	if filter.Category != "" {
		add("category = $%d", filter.Category)
	}
	if filter.Search != "" {
		term := "%" + filter.Search + "%"
		args = append(args, term)
		n := len(args)
		clauses = append(clauses, fmt.Sprintf(
			"(title ILIKE $%d OR caption ILIKE $%d OR description ILIKE $%d OR tags ILIKE $%d)",
			n, n, n, n,
		))
	}

	if len(clauses) == 0 {
		return "", args
	}
	return "WHERE " + strings.Join(clauses, " AND "), args
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanImage(row rowScanner) (*domain.ImageRecord, error) {
	var (
		img          domain.ImageRecord
		tags         string
		cameraMake   sql.NullString
		cameraModel  sql.NullString
		lens         sql.NullString
		focalLength  sql.NullString
		aperture     sql.NullString
		shutterSpeed sql.NullString
		iso          sql.NullInt32
		dateTaken    sql.NullTime
		location     sql.NullString
		width        sql.NullInt32
		height       sql.NullInt32
		aspectRatio  sql.NullFloat64
	)

	err := row.Scan(
		&img.ID,
		&img.UserID,
		&img.Filename,
		&img.Slug,
		&img.OriginalFilename,
		&img.Enrichment.Title,
		&img.Enrichment.Caption,
		&img.Enrichment.Description,
		&tags,
		&img.Enrichment.Category,
		&cameraMake,
		&cameraModel,
		&lens,
		&focalLength,
		&aperture,
		&shutterSpeed,
		&iso,
		&dateTaken,
		&location,
		&width,
		&height,
		&aspectRatio,
		&img.FileSize,
		&img.Published,
		&img.Featured,
		&img.AvailableForSale,
		&img.CreatedAt,
		&img.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	img.Enrichment.Tags = helpers.SplitAndTrim(tags, ",")
	img.Metadata = domain.DerivedMetadata{
		CameraMake:   nullStringPtr(cameraMake),
		CameraModel:  nullStringPtr(cameraModel),
		Lens:         nullStringPtr(lens),
		FocalLength:  nullStringPtr(focalLength),
		Aperture:     nullStringPtr(aperture),
		ShutterSpeed: nullStringPtr(shutterSpeed),
		ISO:          nullIntPtr(iso),
		DateTaken:    nullTimePtr(dateTaken),
		Location:     nullStringPtr(location),
		Width:        nullIntPtr(width),
		Height:       nullIntPtr(height),
		AspectRatio:  nullFloatPtr(aspectRatio),
	}

	return &img, nil
}

func requireRow(result sql.Result) error {
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("get rows affected: %w", err)
	}
	if rows == 0 {
		return domain.ErrImageNotFound
	}
	return nil
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == "23505"
}

func likePrefix(base string) string {
	escaped := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(base)
	return escaped + "%"
}

// Helper functions
func nullStringPtr(v sql.NullString) *string {
	if !v.Valid {
		return nil
	}
	return &v.String
}

func nullIntPtr(v sql.NullInt32) *int {
	if !v.Valid {
		return nil
	}
	i := int(v.Int32)
	return &i
}

func nullTimePtr(v sql.NullTime) *time.Time {
	if !v.Valid {
		return nil
	}
	return &v.Time
}

func nullFloatPtr(v sql.NullFloat64) *float64 {
	if !v.Valid {
		return nil
	}
	return &v.Float64
}
