package main

import (
	"context"
	"database/sql"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/lib/pq"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/charlieegan3/metadata-console/pkg/config"
	"github.com/charlieegan3/metadata-console/pkg/container"
	"github.com/charlieegan3/metadata-console/pkg/container/vips"
	"github.com/charlieegan3/metadata-console/pkg/database/migration"
	"github.com/charlieegan3/metadata-console/pkg/history"
	"github.com/charlieegan3/metadata-console/pkg/objects"
	"github.com/charlieegan3/metadata-console/pkg/server"
	"github.com/charlieegan3/metadata-console/pkg/server/handlers"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if len(os.Args) != 2 {
		log.Fatal("Please provide config as first arg")
	}

	configFile, err := os.OpenFile(os.Args[1], os.O_RDONLY, 0644)
	if err != nil {
		log.Fatalf("error reading config file: %v", err)
	}

	cfg, err := config.LoadConfig(configFile)
	if err != nil {
		log.Fatalf("error parsing config: %v", err)
	}
	_ = configFile.Close()

	logger := cfg.Server.Logger

	if cfg.Image.EnableVips {
		opener := vips.New(logger)
		defer opener.Close()

		container.Register(opener)
	}
	logger.WithField("openers", container.Registered()).Info("image openers registered")

	var objectStore handlers.ObjectStore
	if s := cfg.ObjectStorage; s != nil {
		minioClient, err := minio.New(s.URL, &minio.Options{
			Creds:  credentials.NewStaticV4(s.AccessKey, s.SecretKey, ""),
			Secure: s.Secure,
		})
		if err != nil {
			logger.Fatalf("error connecting to minio: %v", err)
		}

		store := objects.NewStore(minioClient, s.Bucket)
		if err := store.CheckBucket(ctx); err != nil {
			logger.Fatalf("error checking bucket when testing minio connection: %v", err)
		}

		objectStore = store
		logger.WithField("bucket", s.Bucket).Info("object storage enabled")
	}

	var editHistory handlers.EditHistory
	if d := cfg.Database; d != nil {
		db, err := sql.Open("postgres", d.ConnectionString)
		if err != nil {
			logger.Fatalf("error connecting to database: %v", err)
		}
		defer db.Close()

		migrationsConfig := &postgres.Config{MigrationsTable: d.MigrationsTable}

		err = migration.Up(db, migrationsConfig)
		if err != nil {
			logger.Fatalf("error running migrations: %v", err)
		}

		version, dirty, err := migration.Version(db, migrationsConfig)
		if err != nil {
			logger.Fatalf("error reading migration version: %v", err)
		}

		editHistory = history.NewStore(db)
		logger.WithField("migration", version).WithField("dirty", dirty).Info("edit history enabled")
	}

	srv, err := server.NewServer(cfg, objectStore, editHistory)
	if err != nil {
		logger.Fatalf("error creating server: %v", err)
	}

	logger.Infof(
		"Starting server on http://%s:%d",
		cfg.Server.Address,
		cfg.Server.Port,
	)

	err = srv.Start(ctx)
	if err != nil {
		logger.Fatalf("error starting server: %v", err)
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigChan
	logger.Infof("Received %v, shutting down...", sig)

	stopCtx, stopCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer stopCancel()

	err = srv.Stop(stopCtx)
	if err != nil {
		logger.Errorf("error stopping server: %v", err)
	}
}
