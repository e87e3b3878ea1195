package bootstrap

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"cloud.google.com/go/pubsub"
	firebase "firebase.google.com/go/v4"

	shared "github.com/mccedddy/EczApp/pkg"
	"github.com/mccedddy/EczApp/pkg/infrastructure/database"
	infrapubsub "github.com/mccedddy/EczApp/pkg/infrastructure/pubsub"
	"github.com/mccedddy/EczApp/pkg/infrastructure/sentry"
	infrastorage "github.com/mccedddy/EczApp/pkg/infrastructure/storage"
)

// Config holds standard configuration for the capture pipeline
type Config struct {
	ProjectID     string
	StorageBucket string
	APIKey        string
	ClassifierURL string
	EnablePublish bool
	SentryDSN     string
	Environment   string
}

// Service holds initialized dependencies
type Service struct {
	DB     shared.Database
	Store  shared.BlobStore
	Pub    shared.Publisher
	Config *Config

	closers []io.Closer
}

// LoadConfig reads configuration from environment variables
func LoadConfig() *Config {
	projectID := os.Getenv("GOOGLE_CLOUD_PROJECT")
	if projectID == "" {
		projectID = shared.ProjectID // Fallback
	}

	bucket := os.Getenv("FIREBASE_STORAGE_BUCKET")
	if bucket == "" {
		bucket = projectID + ".appspot.com"
	}

	classifierURL := os.Getenv("CLASSIFIER_URL")
	if classifierURL == "" {
		classifierURL = shared.ClassifierURL
	}

	env := os.Getenv("SENTRY_ENVIRONMENT")
	if env == "" {
		env = "development"
	}

	return &Config{
		ProjectID:     projectID,
		StorageBucket: bucket,
		APIKey:        os.Getenv("FIREBASE_API_KEY"),
		ClassifierURL: classifierURL,
		EnablePublish: os.Getenv("ENABLE_PUBLISH") == "true",
		SentryDSN:     os.Getenv("SENTRY_DSN"),
		Environment:   env,
	}
}

// GetSlogHandlerOptions returns standard handler options for GCP
func GetSlogHandlerOptions(level slog.Level) *slog.HandlerOptions {
	return &slog.HandlerOptions{
		Level: level,
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			// Map standard keys to Cloud Logging keys
			if a.Key == slog.MessageKey {
				return slog.Attr{Key: "message", Value: a.Value}
			}
			if a.Key == slog.LevelKey {
				return slog.Attr{Key: "severity", Value: a.Value}
			}
			return a
		},
	}
}

// ComponentHandler wraps a slog.Handler to prepend [component] to the message
type ComponentHandler struct {
	slog.Handler
	component string
}

// WithGroup implements slog.Handler
func (h *ComponentHandler) WithGroup(name string) slog.Handler {
	return &ComponentHandler{
		Handler:   h.Handler.WithGroup(name),
		component: h.component,
	}
}

// WithAttrs implements slog.Handler
func (h *ComponentHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	newComp := h.component
	for _, a := range attrs {
		if a.Key == "component" {
			newComp = a.Value.String()
		}
	}
	return &ComponentHandler{
		Handler:   h.Handler.WithAttrs(attrs),
		component: newComp,
	}
}

// Handle implements slog.Handler
func (h *ComponentHandler) Handle(ctx context.Context, r slog.Record) error {
	comp := h.component

	// A per-record component attribute wins over the bound one
	r.Attrs(func(a slog.Attr) bool {
		if a.Key == "component" {
			comp = a.Value.String()
			return false
		}
		return true
	})

	if comp != "" {
		newRecord := slog.NewRecord(r.Time, r.Level, fmt.Sprintf("[%s] %s", comp, r.Message), r.PC)
		// component stays in the structured payload as well
		r.Attrs(func(a slog.Attr) bool {
			newRecord.AddAttrs(a)
			return true
		})
		r = newRecord
	}

	return h.Handler.Handle(ctx, r)
}

// ParseLevel maps LOG_LEVEL values to slog levels, defaulting to info.
func ParseLevel(s string) slog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// NewLogger creates a configured logger instance writing JSON to stdout
func NewLogger(serviceName string) *slog.Logger {
	return NewLoggerTo(os.Stdout, serviceName, ParseLevel(os.Getenv("LOG_LEVEL")))
}

// NewLoggerTo is NewLogger with an explicit sink and level.
func NewLoggerTo(w io.Writer, serviceName string, level slog.Level) *slog.Logger {
	handler := slog.NewJSONHandler(w, GetSlogHandlerOptions(level))
	return slog.New(&ComponentHandler{Handler: handler}).With("service", serviceName)
}

// NewService initializes Firebase, Firestore, Storage, Pub/Sub and Sentry
func NewService(ctx context.Context, serviceName string) (*Service, error) {
	logger := NewLogger(serviceName)
	slog.SetDefault(logger)
	cfg := LoadConfig()

	logger.Info("Initializing service", "project_id", cfg.ProjectID, "bucket", cfg.StorageBucket)

	if err := sentry.Init(sentry.Config{DSN: cfg.SentryDSN, Environment: cfg.Environment, Release: serviceName}, logger); err != nil {
		return nil, err
	}

	app, err := firebase.NewApp(ctx, &firebase.Config{
		ProjectID:     cfg.ProjectID,
		StorageBucket: cfg.StorageBucket,
	})
	if err != nil {
		logger.Error("Firebase init failed", "error", err)
		return nil, fmt.Errorf("firebase init: %w", err)
	}

	// Firestore
	fsClient, err := app.Firestore(ctx)
	if err != nil {
		logger.Error("Firestore init failed", "error", err)
		return nil, fmt.Errorf("firestore init: %w", err)
	}
	closers := []io.Closer{fsClient}

	// Storage
	storageClient, err := app.Storage(ctx)
	if err != nil {
		closeAll(closers)
		logger.Error("Storage init failed", "error", err)
		return nil, fmt.Errorf("storage init: %w", err)
	}
	bucket, err := storageClient.DefaultBucket()
	if err != nil {
		closeAll(closers)
		return nil, fmt.Errorf("storage bucket: %w", err)
	}

	// Pub/Sub
	var pubAdapter shared.Publisher
	if cfg.EnablePublish {
		psClient, err := pubsub.NewClient(ctx, cfg.ProjectID)
		if err != nil {
			closeAll(closers)
			logger.Error("PubSub init failed", "error", err)
			return nil, fmt.Errorf("pubsub init: %w", err)
		}
		closers = append(closers, psClient)
		pubAdapter = &infrapubsub.PubSubAdapter{Client: psClient}
		logger.Info("Pub/Sub: REAL (ENABLE_PUBLISH=true)")
	} else {
		pubAdapter = &infrapubsub.LogPublisher{Logger: logger}
		logger.Info("Pub/Sub: MOCK (LogPublisher)")
	}

	return &Service{
		DB:      database.NewFirestoreAdapter(fsClient),
		Store:   &infrastorage.StorageAdapter{Bucket: bucket, BucketName: cfg.StorageBucket},
		Pub:     pubAdapter,
		Config:  cfg,
		closers: closers,
	}, nil
}

// Close releases every client opened by NewService.
func (s *Service) Close() {
	closeAll(s.closers)
}

func closeAll(closers []io.Closer) {
	for _, c := range closers {
		_ = c.Close()
	}
}
