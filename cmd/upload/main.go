package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/fhuszti/media-pipeline/internal/config"
	"github.com/fhuszti/media-pipeline/internal/logger"
	"github.com/fhuszti/media-pipeline/internal/optimiser"
	"github.com/fhuszti/media-pipeline/internal/uploader"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

type options struct {
	bucket         string
	parentScope    string
	eventContextID string
	concurrency    int
	compression    int
	maxDimension   int
	retries        int
}

// settings come from flags or MEDIA_* environment variables.
type settings struct {
	apiURL  string
	token   string
	buckets string
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := newRootCommand().ExecuteContext(ctx); err != nil {
		logger.Errorf(ctx, "❌  %v", err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	opts := options{}
	v := viper.New()
	v.SetEnvPrefix("MEDIA")
	v.AutomaticEnv()

	cmd := &cobra.Command{
		Use:   "upload [files...]",
		Short: "Upload files to the media pipeline",
		Long: `Compresses, uploads and registers local files with the media API.

Images are re-encoded as WebP and get @1x/@2x variants, videos are queued
for transcoding once their bytes are stored.

Examples:
  upload --bucket photos --parent-scope evt-42 party.jpg cake.png
  MEDIA_API_URL=https://media.example.com upload --bucket videos clip.mp4

Bucket size limits are checked locally before any request, they are read
from --buckets or MEDIA_BUCKETS, e.g. "photos:5242880:public,videos:104857600".`,
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			logger.Init()
			s := settings{
				apiURL:  v.GetString("api_url"),
				token:   v.GetString("api_token"),
				buckets: v.GetString("buckets"),
			}
			return run(cmd.Context(), s, opts, args, cmd.OutOrStdout())
		},
	}

	f := cmd.Flags()
	f.String("api-url", "http://localhost:8080", "media API base URL (env MEDIA_API_URL)")
	f.String("token", "", "bearer token sent to the API (env MEDIA_API_TOKEN)")
	f.String("buckets", "", "bucket size limits as name:maxBytes[:public],... (env MEDIA_BUCKETS)")
	f.StringVarP(&opts.bucket, "bucket", "b", "", "target bucket")
	f.StringVar(&opts.parentScope, "parent-scope", "", "owning aggregate id, prefixes the object path")
	f.StringVar(&opts.eventContextID, "event-context", "", "event context for video renditions (defaults to --parent-scope)")
	f.IntVarP(&opts.concurrency, "concurrency", "c", uploader.DefaultConcurrency, "files uploaded at once")
	f.IntVar(&opts.compression, "compression", optimiser.DefaultCompressionPercentage, "target size of compressed images, in percent of the original")
	f.IntVar(&opts.maxDimension, "max-dimension", optimiser.DefaultMaxDimension, "longest side of compressed images, in pixels")
	f.IntVar(&opts.retries, "retries", 1, "retries per failed file")
	_ = cmd.MarkFlagRequired("bucket")

	_ = v.BindPFlag("api_url", f.Lookup("api-url"))
	_ = v.BindPFlag("api_token", f.Lookup("token"))
	_ = v.BindPFlag("buckets", f.Lookup("buckets"))

	return cmd
}

func run(ctx context.Context, s settings, opts options, paths []string, out io.Writer) error {
	buckets, err := config.ParseBuckets(s.buckets)
	if err != nil {
		return fmt.Errorf("MEDIA_BUCKETS: %w", err)
	}

	files := make([]uploader.File, 0, len(paths))
	for _, p := range paths {
		f, err := describe(p)
		if err != nil {
			return err
		}
		files = append(files, f)
	}

	client := uploader.NewClient(s.apiURL, s.token, &http.Client{Timeout: 10 * time.Minute})
	opt := optimiser.NewOptimiser(optimiser.NewWebPCodec(), optimiser.Options{
		MaxDimension:          opts.maxDimension,
		CompressionPercentage: opts.compression,
	})
	up := uploader.New(client, opt, uploader.Config{
		Buckets:     buckets,
		Concurrency: opts.concurrency,
		OnProgress: func(name string, value int) {
			logger.Debugf(ctx, "%s: %d%%", name, value)
		},
	})

	batch := up.UploadBatch(ctx, files, uploader.Target{
		Bucket:         opts.bucket,
		ParentScope:    opts.parentScope,
		EventContextID: opts.eventContextID,
	})

	for i := 0; i < opts.retries; i++ {
		for _, a := range batch.Failed() {
			var ve *uploader.ValidationError
			if errors.As(a.Err(), &ve) {
				continue
			}
			logger.Warnf(ctx, "⚠️  Retrying %s after: %v", a.Name(), a.Err())
			_ = batch.Retry(ctx, a.Name())
		}
	}

	failed := 0
	for _, a := range batch.Attempts() {
		if err := a.Err(); err != nil {
			failed++
			fmt.Fprintf(out, "❌  %s: %v\n", a.Name(), err)
			continue
		}
		res := a.Result()
		line := fmt.Sprintf("✅  %s → %s", a.Name(), res.Media.ID)
		if res.PublicURL != nil {
			line += " " + res.PublicURL.URL
		}
		fmt.Fprintln(out, line)
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d uploads failed", failed, len(files))
	}
	return nil
}

func describe(p string) (uploader.File, error) {
	info, err := os.Stat(p)
	if err != nil {
		return uploader.File{}, fmt.Errorf("stat %s: %w", p, err)
	}
	if info.IsDir() {
		return uploader.File{}, fmt.Errorf("%s is a directory", p)
	}

	mimeType := mime.TypeByExtension(filepath.Ext(p))
	if mimeType == "" {
		mimeType, err = sniff(p)
		if err != nil {
			return uploader.File{}, err
		}
	}
	if mt, _, err := mime.ParseMediaType(mimeType); err == nil {
		mimeType = mt
	}

	return uploader.File{Path: p, Name: filepath.Base(p), MimeType: mimeType, Size: info.Size()}, nil
}

func sniff(p string) (string, error) {
	f, err := os.Open(p)
	if err != nil {
		return "", fmt.Errorf("open %s: %w", p, err)
	}
	defer f.Close()

	head := make([]byte, 512)
	n, err := io.ReadFull(f, head)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("read %s: %w", p, err)
	}
	return http.DetectContentType(head[:n]), nil
}
