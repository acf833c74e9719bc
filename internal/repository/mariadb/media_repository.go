package mariadb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/fhuszti/media-pipeline/internal/logger"
	"github.com/fhuszti/media-pipeline/internal/model"
	"github.com/fhuszti/media-pipeline/internal/port"
	"github.com/fhuszti/media-pipeline/internal/uuid"
)

const (
	mediasTable     = "medias"
	referencesTable = "media_references"
)

var mediaColumns = []string{
	"id", "type", "status", "bucket", "object_key", "provider", "mime_type", "size_bytes",
	"thumbnail_ref", "parent_scope", "metadata", "created_at", "updated_at",
}

type MediaRepository struct {
	db      *sql.DB
	builder sq.StatementBuilderType
}

var (
	_ port.MediaRepository  = (*MediaRepository)(nil)
	_ port.AggregateLocator = (*MediaRepository)(nil)
)

func NewMediaRepository(db *sql.DB) *MediaRepository {
	return &MediaRepository{
		db:      db,
		builder: sq.StatementBuilder.PlaceholderFormat(sq.Question),
	}
}

type scanner interface {
	Scan(dest ...any) error
}

func scanMedia(row scanner) (*model.Media, error) {
	var m model.Media
	if err := row.Scan(
		&m.ID, &m.Type, &m.Status, &m.Bucket, &m.ObjectKey, &m.Provider, &m.MimeType, &m.SizeBytes,
		&m.ThumbnailRef, &m.ParentScope, &m.Metadata, &m.CreatedAt, &m.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &m, nil
}

func (r *MediaRepository) Create(ctx context.Context, media *model.Media) error {
	logger.Debugf(ctx, "creating database record for media #%s, at status %q...", media.ID, media.Status)

	query, args, err := r.builder.
		Insert(mediasTable).
		Columns(mediaColumns...).
		Values(
			media.ID, media.Type, media.Status, media.Bucket, media.ObjectKey, media.Provider, media.MimeType, media.SizeBytes,
			media.ThumbnailRef, media.ParentScope, media.Metadata, media.CreatedAt, media.UpdatedAt,
		).
		ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}

	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("insert media: %w", err)
	}
	return nil
}

func (r *MediaRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Media, error) {
	logger.Debugf(ctx, "fetching media #%s from the database...", id)

	query, args, err := r.builder.
		Select(mediaColumns...).
		From(mediasTable).
		Where("id = ?", id).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select: %w", err)
	}

	m, err := scanMedia(r.db.QueryRowContext(ctx, query, args...))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("select media: %w", err)
	}
	return m, nil
}

func (r *MediaRepository) GetByIDs(ctx context.Context, ids []uuid.UUID) ([]*model.Media, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	logger.Debugf(ctx, "fetching %d medias from the database...", len(ids))

	in := make([]any, len(ids))
	for i, id := range ids {
		in[i] = id
	}
	query, args, err := r.builder.
		Select(mediaColumns...).
		From(mediasTable).
		Where(sq.Eq{"id": in}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select: %w", err)
	}

	return r.queryMedias(ctx, query, args)
}

func (r *MediaRepository) queryMedias(ctx context.Context, query string, args []any) ([]*model.Media, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("select medias: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []*model.Media
	for rows.Next() {
		m, err := scanMedia(rows)
		if err != nil {
			return nil, fmt.Errorf("scan media: %w", err)
		}
		out = append(out, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate medias: %w", err)
	}
	return out, nil
}

// Update applies a partial patch. Metadata keys are merged into the stored
// document under a row lock.
func (r *MediaRepository) Update(ctx context.Context, id uuid.UUID, patch port.MediaPatch) error {
	logger.Debugf(ctx, "updating database record for media #%s...", id)

	return r.withTx(ctx, func(tx *sql.Tx) error {
		upd := r.builder.Update(mediasTable).Where("id = ?", id)
		changed := false

		if patch.Metadata != nil {
			current, _, err := r.lockMetadata(ctx, tx, id)
			if err != nil {
				return err
			}
			upd = upd.Set("metadata", current.Merge(patch.Metadata))
			changed = true
		}
		if patch.Status != nil {
			upd = upd.Set("status", *patch.Status)
			changed = true
		}
		if patch.ThumbnailRef != nil {
			upd = upd.Set("thumbnail_ref", *patch.ThumbnailRef)
			changed = true
		}
		if !changed {
			return nil
		}

		query, args, err := upd.Set("updated_at", time.Now().UTC()).ToSql()
		if err != nil {
			return fmt.Errorf("build update: %w", err)
		}
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return fmt.Errorf("update media: %w", err)
		}
		return nil
	})
}

// ApplyRenditions records renditions on a media in one transaction. The row is
// locked while the thumbnails map is merged so parallel workers keep each
// other's keys.
func (r *MediaRepository) ApplyRenditions(ctx context.Context, id uuid.UUID, patch port.RenditionPatch) error {
	logger.Debugf(ctx, "recording %d renditions for media #%s...", len(patch.Thumbnails), id)

	return r.withTx(ctx, func(tx *sql.Tx) error {
		current, thumbRef, err := r.lockMetadata(ctx, tx, id)
		if err != nil {
			return err
		}

		upd := r.builder.Update(mediasTable).
			Set("metadata", current.MergeThumbnails(patch.Thumbnails)).
			Set("updated_at", time.Now().UTC()).
			Where("id = ?", id)

		keep := patch.KeepThumbnailRef && thumbRef.Valid && thumbRef.String != ""
		if !keep && patch.ThumbnailRef != "" {
			upd = upd.Set("thumbnail_ref", patch.ThumbnailRef)
		}
		if patch.MarkProcessed {
			upd = upd.Set("status", model.MediaStatusProcessed)
		}

		query, args, err := upd.ToSql()
		if err != nil {
			return fmt.Errorf("build update: %w", err)
		}
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return fmt.Errorf("update renditions: %w", err)
		}
		return nil
	})
}

func (r *MediaRepository) lockMetadata(ctx context.Context, tx *sql.Tx, id uuid.UUID) (model.Metadata, sql.NullString, error) {
	query, args, err := r.builder.
		Select("metadata", "thumbnail_ref").
		From(mediasTable).
		Where("id = ?", id).
		Suffix("FOR UPDATE").
		ToSql()
	if err != nil {
		return nil, sql.NullString{}, fmt.Errorf("build select: %w", err)
	}

	var (
		meta     model.Metadata
		thumbRef sql.NullString
	)
	if err := tx.QueryRowContext(ctx, query, args...).Scan(&meta, &thumbRef); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sql.NullString{}, err
		}
		return nil, sql.NullString{}, fmt.Errorf("lock media: %w", err)
	}
	return meta, thumbRef, nil
}

func (r *MediaRepository) Delete(ctx context.Context, id uuid.UUID) error {
	logger.Debugf(ctx, "deleting database record for media #%s...", id)

	return r.withTx(ctx, func(tx *sql.Tx) error {
		refQuery, refArgs, err := r.builder.Delete(referencesTable).Where("media_id = ?", id).ToSql()
		if err != nil {
			return fmt.Errorf("build delete references: %w", err)
		}
		if _, err := tx.ExecContext(ctx, refQuery, refArgs...); err != nil {
			return fmt.Errorf("delete references: %w", err)
		}

		query, args, err := r.builder.Delete(mediasTable).Where("id = ?", id).ToSql()
		if err != nil {
			return fmt.Errorf("build delete: %w", err)
		}
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return fmt.Errorf("delete media: %w", err)
		}
		return nil
	})
}

func (r *MediaRepository) ListUploadedVideosWithoutThumbnailBefore(ctx context.Context, before time.Time) ([]uuid.UUID, error) {
	query, args, err := r.builder.
		Select("id").
		From(mediasTable).
		Where(sq.And{
			sq.Eq{"type": model.MediaTypeVideo},
			sq.Eq{"status": model.MediaStatusUploaded},
			sq.Eq{"thumbnail_ref": nil},
			sq.Lt{"created_at": before},
		}).
		OrderBy("created_at ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select: %w", err)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("select backlog: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var ids []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan id: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate backlog: %w", err)
	}
	return ids, nil
}

func (r *MediaRepository) AddReference(ctx context.Context, ref model.AggregateRef, mediaID uuid.UUID) error {
	query, args, err := r.builder.
		Insert(referencesTable).
		Options("IGNORE").
		Columns("aggregate_type", "aggregate_id", "media_id", "created_at").
		Values(ref.Type, ref.ID, mediaID, time.Now().UTC()).
		ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("insert reference: %w", err)
	}
	return nil
}

func (r *MediaRepository) ListAggregatesForMedia(ctx context.Context, mediaID uuid.UUID) ([]model.AggregateRef, error) {
	query, args, err := r.builder.
		Select("aggregate_type", "aggregate_id").
		From(referencesTable).
		Where("media_id = ?", mediaID).
		OrderBy("created_at ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select: %w", err)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("select aggregates: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var refs []model.AggregateRef
	for rows.Next() {
		var ref model.AggregateRef
		if err := rows.Scan(&ref.Type, &ref.ID); err != nil {
			return nil, fmt.Errorf("scan aggregate: %w", err)
		}
		refs = append(refs, ref)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate aggregates: %w", err)
	}
	return refs, nil
}

func (r *MediaRepository) ListByAggregate(ctx context.Context, ref model.AggregateRef) ([]*model.Media, error) {
	cols := make([]string, len(mediaColumns))
	for i, c := range mediaColumns {
		cols[i] = "m." + c
	}
	query, args, err := r.builder.
		Select(cols...).
		From(mediasTable + " m").
		Join(referencesTable + " r ON r.media_id = m.id").
		Where(sq.Eq{"r.aggregate_type": ref.Type, "r.aggregate_id": ref.ID}).
		OrderBy("r.created_at ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select: %w", err)
	}

	return r.queryMedias(ctx, query, args)
}

func (r *MediaRepository) withTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			logger.Warnf(ctx, "⚠️  rollback failed: %v", rbErr)
		}
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}
