package rehydrate

import (
	"context"
	"strings"

	"github.com/goliatone/go-rehydrate/layering"
	"github.com/goliatone/go-rehydrate/pkg/activity"
	"github.com/goliatone/go-rehydrate/pkg/storage"
)

// Option configures an engine. Options are applied in order.
type Option func(*config)

type config struct {
	storage    storage.Storage
	merger     layering.Merger
	storageKey string
	version    int
	logger     Logger
	logLevel   string
	hooks      activity.Hooks
	activity   activity.Config
	ctx        context.Context
}

func defaultConfig() config {
	return config{
		merger:     layering.Deep,
		storageKey: DefaultStorageKey,
		logLevel:   string(LevelWarn),
		activity:   activity.Config{Enabled: true, Channel: activity.DefaultChannel},
		ctx:        context.Background(),
	}
}

func applyOptions(opts []Option) config {
	cfg := defaultConfig()
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	if cfg.merger == nil {
		cfg.merger = layering.Deep
	}
	if strings.TrimSpace(cfg.storageKey) == "" {
		cfg.storageKey = DefaultStorageKey
	}
	if cfg.logger == nil {
		cfg.logger = defaultLogger(cfg.logLevel)
	}
	if cfg.ctx == nil {
		cfg.ctx = context.Background()
	}
	return cfg
}

// WithStorage sets the storage slices are read from and written to. Required.
func WithStorage(s storage.Storage) Option {
	return func(cfg *config) {
		cfg.storage = s
	}
}

// WithMerger replaces the default deep merge.
func WithMerger(merger layering.Merger) Option {
	return func(cfg *config) {
		cfg.merger = merger
	}
}

// WithStorageKey sets the prefix of persisted keys (prefix@slice).
func WithStorageKey(key string) Option {
	return func(cfg *config) {
		cfg.storageKey = key
	}
}

// WithVersion sets the schema version written with every slice.
func WithVersion(version int) Option {
	return func(cfg *config) {
		cfg.version = version
	}
}

// WithLogger routes diagnostics to logger.
func WithLogger(logger Logger) Option {
	return func(cfg *config) {
		cfg.logger = logger
	}
}

// WithActivityHooks registers hooks notified of slice lifecycle events.
func WithActivityHooks(hooks ...activity.ActivityHook) Option {
	return func(cfg *config) {
		cfg.hooks = append(cfg.hooks, hooks...)
	}
}

// WithActivityConfig overrides activity emission defaults.
func WithActivityConfig(ac activity.Config) Option {
	return func(cfg *config) {
		cfg.activity = ac
	}
}

// WithContext sets the parent context of storage calls. Cancelling it aborts
// in-flight reads and writes.
func WithContext(ctx context.Context) Option {
	return func(cfg *config) {
		cfg.ctx = ctx
	}
}

// WithConfig applies environment-driven settings.
func WithConfig(c Config) Option {
	return func(cfg *config) {
		if key := strings.TrimSpace(c.StorageKey); key != "" {
			cfg.storageKey = key
		}
		cfg.version = c.Version
		if level := strings.TrimSpace(c.LogLevel); level != "" {
			cfg.logLevel = level
		}
		if channel := strings.TrimSpace(c.ActivityChannel); channel != "" {
			cfg.activity.Channel = channel
		}
	}
}
