package config

import (
	"fmt"
	"io"
	"os"

	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
)

const defaultMaxUploadBytes = 25 * 1024 * 1024

type Config struct {
	Server Server
	Image  Image

	// ObjectStorage and Database are nil when not configured.
	ObjectStorage *ObjectStorage
	Database      *Database
}

type Server struct {
	Port    int
	Address string
	DevMode bool

	MaxUploadBytes int64

	Logger *logrus.Logger
}

type Image struct {
	EnableVips bool `yaml:"enable_vips"`
}

type ObjectStorage struct {
	URL       string `yaml:"url"`
	AccessKey string `yaml:"access_key"`
	SecretKey string `yaml:"secret_key"`
	Bucket    string `yaml:"bucket"`
	Secure    bool   `yaml:"secure"`
}

type Database struct {
	ConnectionString string `yaml:"connection_string"`
	MigrationsTable  string `yaml:"migrations_table"`
}

func LoadConfig(rawConfig io.Reader) (*Config, error) {
	config := struct {
		Server struct {
			Port           int    `yaml:"port"`
			Address        string `yaml:"address"`
			DevMode        bool   `yaml:"dev_mode"`
			MaxUploadBytes int64  `yaml:"max_upload_bytes"`

			Log struct {
				Level  string `yaml:"level"`
				Format string `yaml:"format"`
			} `yaml:"log"`
		} `yaml:"server"`

		Image         Image          `yaml:"image"`
		ObjectStorage *ObjectStorage `yaml:"object_storage"`
		Database      *Database      `yaml:"database"`
	}{}
	if err := yaml.NewDecoder(rawConfig).Decode(&config); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}

	logger, err := newLogger(config.Server.Log.Level, config.Server.Log.Format)
	if err != nil {
		return nil, err
	}

	maxUploadBytes := config.Server.MaxUploadBytes
	if maxUploadBytes <= 0 {
		maxUploadBytes = defaultMaxUploadBytes
	}

	if s := config.ObjectStorage; s != nil && (s.URL == "" || s.Bucket == "") {
		return nil, fmt.Errorf("object_storage requires url and bucket")
	}

	if db := config.Database; db != nil {
		if db.ConnectionString == "" {
			return nil, fmt.Errorf("database requires connection_string")
		}

		if db.MigrationsTable == "" {
			db.MigrationsTable = "schema_migrations_metadata_console"
		}
	}

	return &Config{
		Server: Server{
			Port:           config.Server.Port,
			Address:        config.Server.Address,
			DevMode:        config.Server.DevMode,
			MaxUploadBytes: maxUploadBytes,
			Logger:         logger,
		},
		Image:         config.Image,
		ObjectStorage: config.ObjectStorage,
		Database:      config.Database,
	}, nil
}

func newLogger(level, format string) (*logrus.Logger, error) {
	logger := logrus.New()
	logger.SetOutput(os.Stdout)

	if level != "" {
		l, err := logrus.ParseLevel(level)
		if err != nil {
			return nil, fmt.Errorf("invalid log level: %w", err)
		}
		logger.SetLevel(l)
	}

	switch format {
	case "", "text":
		logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	case "json":
		logger.SetFormatter(&logrus.JSONFormatter{})
	default:
		return nil, fmt.Errorf("invalid log format: %q", format)
	}

	return logger, nil
}
