package uploader

import (
	"context"
	"fmt"
	"io"
	"os"
	"path"
	"sort"
	"sync"

	"github.com/fhuszti/media-pipeline/internal/logger"
	"github.com/fhuszti/media-pipeline/internal/model"
	"github.com/fhuszti/media-pipeline/internal/optimiser"
	"github.com/fhuszti/media-pipeline/internal/port"
	"github.com/fhuszti/media-pipeline/internal/uuid"
	"golang.org/x/sync/errgroup"
)

const DefaultConcurrency = 4

// File is a local file to upload. Open defaults to reading Path from disk.
type File struct {
	Path     string
	Name     string
	MimeType string
	Size     int64
	Open     func() (io.ReadCloser, error)
}

func (f File) open() (io.ReadCloser, error) {
	if f.Open != nil {
		return f.Open()
	}
	return os.Open(f.Path)
}

func (f File) displayName() string {
	if f.Name != "" {
		return f.Name
	}
	return path.Base(f.Path)
}

// Target says where uploads land. EventContextID defaults to ParentScope.
type Target struct {
	Bucket         string
	ParentScope    string
	EventContextID string
	Extra          model.Metadata
}

type Result struct {
	Media     *model.Media
	Variants  []string
	PublicURL *port.PublicURL
}

type Config struct {
	// Buckets holds the size limits checked before any request is made.
	Buckets       model.BucketPolicies
	VariantWidths map[string]int
	Concurrency   int
	// OnProgress is called with the file name and its new progress value.
	OnProgress func(name string, value int)
}

type Uploader struct {
	api *Client
	opt *optimiser.Optimiser
	cfg Config
}

func New(api *Client, opt *optimiser.Optimiser, cfg Config) *Uploader {
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = DefaultConcurrency
	}
	if cfg.VariantWidths == nil {
		cfg.VariantWidths = map[string]int{model.SuffixSmall: 320, model.SuffixMedium: 640}
	}
	return &Uploader{api: api, opt: opt, cfg: cfg}
}

// Attempt is the state of one file upload. It is safe for concurrent reads.
type Attempt struct {
	up     *Uploader
	file   File
	target Target

	mu       sync.Mutex
	progress *Tracker
	err      error
	result   *Result
}

func (a *Attempt) Name() string     { return a.file.displayName() }
func (a *Attempt) MimeType() string { return a.file.MimeType }
func (a *Attempt) Size() int64      { return a.file.Size }

func (a *Attempt) Progress() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.progress.Value()
}

// UploadedRatio is Progress as a fraction of one.
func (a *Attempt) UploadedRatio() float64 {
	return float64(a.Progress()) / ProgressDone
}

func (a *Attempt) Err() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.err
}

func (a *Attempt) Result() *Result {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.result
}

// Retry clears the error and restarts the whole sequence for this file only.
// It is a no-op on a successful attempt.
func (a *Attempt) Retry(ctx context.Context) error {
	a.mu.Lock()
	if a.err == nil && a.result != nil {
		a.mu.Unlock()
		return nil
	}
	a.err = nil
	a.mu.Unlock()

	a.run(ctx)
	return a.Err()
}

func (a *Attempt) run(ctx context.Context) {
	name := a.Name()
	tracker := NewTracker(func(v int) {
		if a.up.cfg.OnProgress != nil {
			a.up.cfg.OnProgress(name, v)
		}
	})
	a.mu.Lock()
	a.progress = tracker
	a.mu.Unlock()

	res, err := a.up.upload(ctx, a.file, a.target, tracker)

	a.mu.Lock()
	defer a.mu.Unlock()
	a.err = err
	a.result = res
}

// Upload runs the full sequence for one file and returns its attempt.
func (u *Uploader) Upload(ctx context.Context, f File, t Target) *Attempt {
	a := &Attempt{up: u, file: f, target: t, progress: NewTracker(nil)}
	a.run(ctx)
	return a
}

func (u *Uploader) upload(ctx context.Context, f File, t Target, tracker *Tracker) (*Result, error) {
	name := f.displayName()
	if err := u.validate(f, t); err != nil {
		logger.Warnf(ctx, "❌  Rejected %q before upload: %v", name, err)
		return nil, err
	}

	tracker.Set(ProgressCompressing)
	rc, err := f.open()
	if err != nil {
		return nil, fmt.Errorf("open %q: %w", name, err)
	}
	compressed, err := u.opt.Compress(name, f.MimeType, rc)
	_ = rc.Close()
	if err != nil {
		return nil, fmt.Errorf("compress %q: %w", name, err)
	}
	tracker.Set(ProgressCompressed)

	link, err := u.api.IssueUploadLink(ctx, UploadLinkRequest{
		Bucket:      t.Bucket,
		Path:        compressed.Name,
		MimeType:    compressed.MimeType,
		Size:        compressed.Size(),
		ParentScope: t.ParentScope,
		Extra:       t.Extra,
	})
	if err != nil {
		return nil, err
	}

	if err := u.api.Put(ctx, link.URL, compressed.MimeType, compressed.Data, tracker.Transfer); err != nil {
		return nil, err
	}

	res := &Result{Media: link.Media}
	id := link.Media.ID

	if compressed.Image != nil {
		res.Variants = u.uploadVariants(ctx, id, compressed)
	}

	// variants are only recorded here, once their bytes are stored
	if err := u.api.MarkUploaded(ctx, id, res.Variants); err != nil {
		logger.Warnf(ctx, "⚠️  Could not mark media #%s as uploaded: %v", id, err)
	}
	if model.MediaTypeFromMime(compressed.MimeType) == model.MediaTypeVideo {
		ctxID := t.EventContextID
		if ctxID == "" {
			ctxID = t.ParentScope
		}
		if err := u.api.EnqueueTranscode(ctx, id, ctxID); err != nil {
			logger.Warnf(ctx, "⚠️  Could not schedule transcoding of media #%s: %v", id, err)
		}
	}

	tracker.Set(ProgressDone)
	logger.Infof(ctx, "✅  Uploaded %q as media #%s", name, id)
	return res, nil
}

func (u *Uploader) validate(f File, t Target) error {
	name := f.displayName()
	if f.Size <= 0 {
		return &ValidationError{Name: name, Err: ErrEmptyFile}
	}
	policy, err := u.policy(t.Bucket)
	if err != nil {
		return err
	}
	if f.Size > policy.MaxSizeBytes {
		return &ValidationError{Name: name, Err: fmt.Errorf("%w: %d > %d bytes", ErrSizeExceeded, f.Size, policy.MaxSizeBytes)}
	}
	return nil
}

func (u *Uploader) policy(bucket string) (model.BucketPolicy, error) {
	if len(u.cfg.Buckets) == 0 {
		return model.BucketPolicy{}, &ValidationError{Name: bucket, Err: ErrNoPolicies}
	}
	p, ok := u.cfg.Buckets[bucket]
	if !ok {
		return model.BucketPolicy{}, &ValidationError{Name: bucket, Err: ErrUnknownBucket}
	}
	return p, nil
}

// uploadVariants returns the suffixes that made it to the store.
func (u *Uploader) uploadVariants(ctx context.Context, id uuid.UUID, compressed optimiser.Result) []string {
	variants, err := u.opt.Variants(compressed.Image, compressed.Name, u.cfg.VariantWidths, model.RenditionSuffixes)
	if err != nil {
		logger.Warnf(ctx, "⚠️  media #%s: %v", id, &VariantGenerationError{Suffix: "*", Err: err})
	}

	var done []string
	for _, v := range variants {
		link, err := u.api.IssueVariantLink(ctx, id, v.Suffix, v.MimeType)
		if err == nil {
			err = u.api.Put(ctx, link.URL, v.MimeType, v.Data, nil)
		}
		if err != nil {
			logger.Warnf(ctx, "⚠️  media #%s: %v", id, &VariantGenerationError{Suffix: v.Suffix, Err: err})
			continue
		}
		done = append(done, v.Suffix)
	}
	return done
}

// Batch collects the attempts of an UploadBatch call, keyed by file name.
type Batch struct {
	mu       sync.Mutex
	attempts map[string]*Attempt
}

func (b *Batch) set(a *Attempt) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.attempts[a.Name()] = a
}

func (b *Batch) Get(name string) (*Attempt, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	a, ok := b.attempts[name]
	return a, ok
}

// Attempts returns the attempts sorted by name.
func (b *Batch) Attempts() []*Attempt {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]*Attempt, 0, len(b.attempts))
	for _, a := range b.attempts {
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name() < out[j].Name() })
	return out
}

func (b *Batch) Failed() []*Attempt {
	var out []*Attempt
	for _, a := range b.Attempts() {
		if a.Err() != nil {
			out = append(out, a)
		}
	}
	return out
}

// Retry reruns the named failed attempt and resolves its public URL on success.
func (b *Batch) Retry(ctx context.Context, name string) error {
	a, ok := b.Get(name)
	if !ok {
		return fmt.Errorf("no attempt named %q", name)
	}
	if err := a.Retry(ctx); err != nil {
		return err
	}
	b.set(a)
	a.up.enrich(ctx, []*Attempt{a})
	return nil
}

// UploadBatch uploads every file concurrently. One failing file never stops
// the others. Once all are settled the public URLs of the successful ones are
// fetched in a single call; a failure there keeps the uploads as they are.
func (u *Uploader) UploadBatch(ctx context.Context, files []File, t Target) *Batch {
	b := &Batch{attempts: make(map[string]*Attempt, len(files))}

	var g errgroup.Group
	g.SetLimit(u.cfg.Concurrency)
	for _, f := range files {
		g.Go(func() error {
			b.set(u.Upload(ctx, f, t))
			return nil
		})
	}
	_ = g.Wait()

	u.enrich(ctx, b.Attempts())
	return b
}

func (u *Uploader) enrich(ctx context.Context, attempts []*Attempt) {
	var ids []uuid.UUID
	byID := map[string]*Result{}
	for _, a := range attempts {
		if res := a.Result(); res != nil && res.Media != nil {
			ids = append(ids, res.Media.ID)
			byID[res.Media.ID.String()] = res
		}
	}
	if len(ids) == 0 {
		return
	}

	urls, err := u.api.ResolvePublicURLs(ctx, ids)
	if err != nil {
		logger.Warnf(ctx, "⚠️  Could not resolve public URLs for %d medias: %v", len(ids), err)
		return
	}
	for id, pu := range urls {
		if res, ok := byID[id]; ok {
			pu := pu
			res.PublicURL = &pu
		}
	}
}
