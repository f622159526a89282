package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/robfig/cron"
	"golang.org/x/sync/errgroup"

	"github.com/fieldlens/photoverify/internal/app"
	"github.com/fieldlens/photoverify/internal/platform/envutil"
	"github.com/fieldlens/photoverify/internal/platform/logger"
)

// The daemon keeps the caches warm: a nightly pass re-scans the photo
// window and rebuilds the duplicate cache, and an hourly pass refreshes
// the day-partitioned photo listings.
func main() {
	application, err := app.New()
	if err != nil {
		os.Stderr.WriteString("init app: " + err.Error() + "\n")
		os.Exit(1)
	}
	defer application.Close()
	log := application.Log.With("cmd", "photoverify")

	scanSpec := envutil.String("SCAN_CRON", "0 0 2 * * *")
	photoListSpec := envutil.String("PHOTO_LIST_CRON", "@hourly")
	runOnStart := envutil.Bool("RUN_ON_START", false)

	nightly := func() {
		eachProject(application, log.With("job", "nightly"), func(ctx context.Context, key string) error {
			out, err := application.ScanHashes(ctx, key, 0)
			if err != nil {
				return err
			}
			log.Info("hash scan done",
				"project", key,
				"found", out.Found,
				"processed", out.Processed,
				"already_indexed", out.AlreadyIndexed,
				"file_not_found", out.FileNotFound,
				"hash_errors", out.HashErrors)

			dup, err := application.RebuildDuplicates(ctx, key)
			if err != nil {
				return err
			}
			log.Info("duplicate cache rebuilt",
				"project", key,
				"groups", dup.Groups,
				"members", dup.Members,
				"took", dup.Took)
			return nil
		})
	}

	hourly := func() {
		eachProject(application, log.With("job", "hourly"), func(ctx context.Context, key string) error {
			out, err := application.RebuildPhotoList(ctx, key, 0)
			if err != nil {
				return err
			}
			log.Info("photo list cache rebuilt",
				"project", key,
				"partitions", out.Partitions,
				"photos", out.Photos,
				"dropped", out.Dropped,
				"failed", out.Failed)
			return nil
		})
	}

	if runOnStart {
		nightly()
		hourly()
	}

	c := cron.New()
	if err := c.AddFunc(scanSpec, nightly); err != nil {
		log.Fatal("bad SCAN_CRON spec", "spec", scanSpec, "error", err)
	}
	if err := c.AddFunc(photoListSpec, hourly); err != nil {
		log.Fatal("bad PHOTO_LIST_CRON spec", "spec", photoListSpec, "error", err)
	}
	c.Start()
	defer c.Stop()
	log.Info("scheduler started", "scan_cron", scanSpec, "photo_list_cron", photoListSpec)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("shutting down")
}

// eachProject runs fn for every configured project in parallel and logs
// failures instead of aborting the whole pass; one bad project must not
// starve the rest.
func eachProject(application *app.App, log *logger.Logger, fn func(ctx context.Context, key string) error) {
	g, ctx := errgroup.WithContext(context.Background())
	for _, project := range application.Cfg.Projects {
		key := project.Key
		g.Go(func() error {
			if err := fn(ctx, key); err != nil {
				log.Error("project pass failed", "project", key, "error", err)
			}
			return nil
		})
	}
	_ = g.Wait()
}
