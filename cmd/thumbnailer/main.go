// The thumbnailer is the derivative-generation worker. It runs as its own
// process, decoupled from the API: it subscribes to object-created events on
// the originals bucket and writes a thumbnail per upload into the thumbnails
// bucket. The API never waits for it; galleries fall back to the original
// image until the thumbnail lands.
package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"
	"time"

	"github.com/petpics/service/internal/config"
	"github.com/petpics/service/internal/storage"
	"github.com/petpics/service/internal/thumbnail"
)

func main() {
	cfg := config.Load()

	store, err := storage.NewMinioStore(
		cfg.StorageEndpoint,
		cfg.StorageAccessKey,
		cfg.StorageSecretKey,
		cfg.StorageUseSSL,
	)
	if err != nil {
		log.Fatalf("object storage init failed: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	startupCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
	for _, bucket := range []string{cfg.OriginalsBucket, cfg.ThumbnailsBucket} {
		if err := store.EnsureBucket(startupCtx, bucket); err != nil {
			log.Fatalf("bucket check failed: %v", err)
		}
	}
	cancel()

	gen := thumbnail.NewGenerator(store, cfg.ThumbnailsBucket)
	worker := thumbnail.NewWorker(store, gen, cfg.OriginalsBucket)

	if err := worker.Run(ctx); err != nil && ctx.Err() == nil {
		log.Fatalf("worker error: %v", err)
	}
}
