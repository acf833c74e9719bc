package media

import (
	"bytes"
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/fhuszti/media-pipeline/internal/cache"
	"github.com/fhuszti/media-pipeline/internal/logger"
	"github.com/fhuszti/media-pipeline/internal/metrics"
	"github.com/fhuszti/media-pipeline/internal/model"
	"github.com/fhuszti/media-pipeline/internal/notifier"
	"github.com/fhuszti/media-pipeline/internal/port"
	"github.com/fhuszti/media-pipeline/internal/uuid"
)

// SourceURLTTL bounds the signed link the worker downloads the source from.
const SourceURLTTL = 15 * time.Minute

// TranscodeConfig holds the rendition parameters. Widths are matched to
// model.RenditionSuffixes by position.
type TranscodeConfig struct {
	Bucket      string
	Widths      []int
	FPS         int
	PixelFormat string
	Format      string
	TmpDir      string
}

// DefaultTranscodeConfig returns the small/medium/large preview settings.
func DefaultTranscodeConfig(bucket string) TranscodeConfig {
	return TranscodeConfig{
		Bucket:      bucket,
		Widths:      []int{160, 320, 640},
		FPS:         10,
		PixelFormat: "yuv420p",
		Format:      "webp",
	}
}

// AggregateProjection is the payload of a media.processed event.
type AggregateProjection struct {
	Aggregate model.AggregateRef `json:"aggregate"`
	MediaID   uuid.UUID          `json:"media_id"`
	Medias    []*model.Media     `json:"medias"`
}

type mediaTranscoderSrv struct {
	repo       port.MediaRepository
	refs       port.AggregateLocator
	strg       port.Storage
	transcoder port.Transcoder
	cache      port.Cache
	notif      port.Notifier
	httpClient *http.Client
	metrics    *metrics.Metrics
	cfg        TranscodeConfig
}

var _ port.MediaTranscoder = (*mediaTranscoderSrv)(nil)

func NewMediaTranscoder(
	repo port.MediaRepository,
	refs port.AggregateLocator,
	strg port.Storage,
	transcoder port.Transcoder,
	c port.Cache,
	notif port.Notifier,
	httpClient *http.Client,
	m *metrics.Metrics,
	cfg TranscodeConfig,
) port.MediaTranscoder {
	def := DefaultTranscodeConfig(cfg.Bucket)
	if len(cfg.Widths) != len(model.RenditionSuffixes) {
		cfg.Widths = def.Widths
	}
	if cfg.Format == "" {
		cfg.Format = def.Format
	}
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &mediaTranscoderSrv{
		repo:       repo,
		refs:       refs,
		strg:       strg,
		transcoder: transcoder,
		cache:      c,
		notif:      notif,
		httpClient: httpClient,
		metrics:    m,
		cfg:        cfg,
	}
}

// TranscodeMedia downloads the source video, produces one rendition per
// configured width and records the ones that succeeded. A failing size is
// skipped. When every size fails the record is left untouched and no error
// is returned.
func (s *mediaTranscoderSrv) TranscodeMedia(ctx context.Context, in port.TranscodeMediaInput) (port.TranscodeMediaOutput, error) {
	var out port.TranscodeMediaOutput

	media, err := s.repo.GetByID(ctx, in.ID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			s.metrics.IncJob(metrics.OutcomeNotFound)
			return out, ErrObjectNotFound
		}
		s.metrics.IncJob(metrics.OutcomeError)
		return out, err
	}
	if media.Type != model.MediaTypeVideo {
		s.metrics.IncJob(metrics.OutcomeError)
		return out, ErrNotVideo
	}

	eventContextID := in.EventContextID
	if eventContextID == "" && media.ParentScope != nil {
		eventContextID = *media.ParentScope
	}

	srcPath, err := s.download(ctx, media)
	if err != nil {
		s.metrics.IncJob(metrics.OutcomeError)
		return out, err
	}
	defer func() {
		if err := os.Remove(srcPath); err != nil && !os.IsNotExist(err) {
			logger.Warnf(ctx, "⚠️  failed to remove temp file %q: %v", srcPath, err)
		}
	}()

	thumbnails := make(map[string]string, len(model.RenditionSuffixes))
	for i, suffix := range model.RenditionSuffixes {
		params := port.TranscodeParams{
			Width:       s.cfg.Widths[i],
			FPS:         s.cfg.FPS,
			PixelFormat: s.cfg.PixelFormat,
		}
		start := time.Now()
		key, err := s.render(ctx, srcPath, media.ID, eventContextID, suffix, params)
		s.metrics.ObserveTranscode(suffix, time.Since(start))
		s.metrics.IncRendition(suffix, err == nil)
		if err != nil {
			logger.Warnf(ctx, "⚠️  skipping rendition %s of media #%s: %v", suffix, media.ID, err)
			out.Skipped = append(out.Skipped, suffix)
			continue
		}
		thumbnails[suffix] = key
		out.Succeeded = append(out.Succeeded, suffix)
	}

	if len(out.Succeeded) == 0 {
		logger.Errorf(ctx, "❌  media #%s left without thumbnail: %v", media.ID, ErrAllRenditionsFailed)
		s.metrics.IncJob(metrics.OutcomeSoftFailure)
		return out, nil
	}

	if err := s.repo.ApplyRenditions(ctx, media.ID, port.RenditionPatch{
		Thumbnails:    thumbnails,
		ThumbnailRef:  pickThumbnailRef(thumbnails),
		MarkProcessed: true,
	}); err != nil {
		s.metrics.IncJob(metrics.OutcomeError)
		return out, fmt.Errorf("persist renditions of media #%s: %w", media.ID, err)
	}

	if err := s.cache.Delete(ctx, cache.MediaKeys(media.ID)...); err != nil {
		logger.Warnf(ctx, "⚠️  failed to invalidate cache of media #%s: %v", media.ID, err)
	}

	if len(out.Skipped) > 0 {
		s.metrics.IncJob(metrics.OutcomePartial)
	} else {
		s.metrics.IncJob(metrics.OutcomeProcessed)
	}
	logger.Infof(ctx, "✅  media #%s processed with renditions %v", media.ID, out.Succeeded)

	s.notifyAggregates(ctx, media.ID)
	return out, nil
}

// pickThumbnailRef prefers the medium rendition, then the first one produced.
func pickThumbnailRef(thumbnails map[string]string) string {
	if ref, ok := thumbnails[model.SuffixMedium]; ok {
		return ref
	}
	for _, suffix := range model.RenditionSuffixes {
		if ref, ok := thumbnails[suffix]; ok {
			return ref
		}
	}
	return ""
}

func (s *mediaTranscoderSrv) download(ctx context.Context, media *model.Media) (string, error) {
	url, err := s.strg.GeneratePresignedDownloadURL(ctx, media.Bucket, media.ObjectKey, SourceURLTTL)
	if err != nil {
		return "", fmt.Errorf("sign download of %q: %w", media.ObjectKey, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", fmt.Errorf("build download request: %w", err)
	}
	resp, err := s.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrDownloadFailed, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", fmt.Errorf("%w: status %d", ErrDownloadFailed, resp.StatusCode)
	}

	f, err := os.CreateTemp(s.cfg.TmpDir, "transcode-src-"+uuid.NewUUID().String()+"-*")
	if err != nil {
		return "", fmt.Errorf("create temp file: %w", err)
	}
	if _, err := io.Copy(f, resp.Body); err != nil {
		_ = f.Close()
		_ = os.Remove(f.Name())
		return "", fmt.Errorf("%w: %v", ErrDownloadFailed, err)
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(f.Name())
		return "", fmt.Errorf("close temp file: %w", err)
	}
	return f.Name(), nil
}

// render produces a single rendition and uploads it. It returns the object key.
func (s *mediaTranscoderSrv) render(ctx context.Context, srcPath string, id uuid.UUID, eventContextID, suffix string, params port.TranscodeParams) (string, error) {
	f, err := os.CreateTemp(s.cfg.TmpDir, "transcode-out-*."+s.cfg.Format)
	if err != nil {
		return "", fmt.Errorf("create temp output: %w", err)
	}
	outPath := f.Name()
	_ = f.Close()
	defer func() { _ = os.Remove(outPath) }()

	if err := s.transcoder.Transcode(ctx, srcPath, outPath, params); err != nil {
		return "", err
	}

	data, err := os.ReadFile(outPath)
	if err != nil {
		return "", fmt.Errorf("read rendition: %w", err)
	}
	_ = os.Remove(outPath)

	key := RenditionKey(eventContextID, id, suffix, s.cfg.Format)
	if err := s.strg.SaveFile(
		ctx,
		s.cfg.Bucket,
		key,
		bytes.NewReader(data),
		int64(len(data)),
		map[string]string{
			"Content-Type":  ContentTypeFor(s.cfg.Format),
			"Cache-Control": "public, max-age=31536000, immutable",
		},
	); err != nil {
		return "", fmt.Errorf("upload rendition %q: %w", key, err)
	}
	return key, nil
}

func (s *mediaTranscoderSrv) notifyAggregates(ctx context.Context, id uuid.UUID) {
	refs, err := s.refs.ListAggregatesForMedia(ctx, id)
	if err != nil {
		logger.Warnf(ctx, "⚠️  could not list aggregates of media #%s: %v", id, err)
		return
	}
	for _, ref := range refs {
		medias, err := s.refs.ListByAggregate(ctx, ref)
		if err != nil {
			logger.Warnf(ctx, "⚠️  could not reload %s %q: %v", ref.Type, ref.ID, err)
			continue
		}
		s.notif.Publish(ctx, notifier.EventMediaProcessed, AggregateProjection{
			Aggregate: ref,
			MediaID:   id,
			Medias:    medias,
		})
	}
}
