package vecfleet

import (
	"log/slog"
	"os"
	"time"

	"github.com/hupe1980/vecfleet/codec"
	"github.com/hupe1980/vecfleet/resource"
)

type options struct {
	instanceID        string
	role              Role
	settings          Settings
	settingsSet       bool
	codec             codec.Codec
	logger            *Logger
	metricsCollector  MetricsCollector
	heartbeatInterval time.Duration
	watchInterval     time.Duration
	instanceTimeout   time.Duration
	retryPolicy       RetryPolicy
	canonicalPath     string
	legacyPath        string
	controller        *resource.Controller
}

// Option configures Coordinator construction.
type Option func(*options)

// WithInstanceID sets an explicit instance ID instead of a generated one.
//
// Reusing a previously registered ID lets a restarting instance recover
// its role from the shared document.
func WithInstanceID(id string) Option {
	return func(o *options) {
		o.instanceID = id
	}
}

// WithRole sets this instance's role explicitly.
//
// Role must come from an explicit source; without this option the
// coordinator only accepts a role already registered in the shared
// document for the same instance ID, and Initialize fails otherwise.
func WithRole(role Role) Option {
	return func(o *options) {
		o.role = role
	}
}

// WithSettings sets the fleet settings this instance proposes when it is
// the first to create the shared document. If the document already exists,
// the committed settings win and a partition-count disagreement fails
// Initialize.
func WithSettings(settings Settings) Option {
	return func(o *options) {
		o.settings = settings
		o.settingsSet = true
	}
}

// WithCodec configures the codec used for the shared document.
//
// All instances of a fleet must agree on the codec for the canonical path.
// If nil is passed, codec.Default is used.
func WithCodec(c codec.Codec) Option {
	return func(o *options) {
		if c == nil {
			c = codec.Default
		}
		o.codec = c
	}
}

// WithLogger configures structured logging. Pass nil to disable logging.
func WithLogger(logger *Logger) Option {
	return func(o *options) {
		if logger == nil {
			logger = NoopLogger()
		}
		o.logger = logger
	}
}

// WithLogLevel creates a text logger with the specified level and sets it.
// Convenience wrapper for WithLogger(NewTextLogger(level)).
func WithLogLevel(level slog.Level) Option {
	return func(o *options) {
		o.logger = NewTextLogger(level)
	}
}

// WithMetricsCollector configures a metrics collector for coordination
// operations.
func WithMetricsCollector(mc MetricsCollector) Option {
	return func(o *options) {
		if mc == nil {
			mc = NoopMetricsCollector{}
		}
		o.metricsCollector = mc
	}
}

// WithHeartbeatInterval sets the interval between heartbeat writes.
func WithHeartbeatInterval(d time.Duration) Option {
	return func(o *options) {
		if d > 0 {
			o.heartbeatInterval = d
		}
	}
}

// WithWatchInterval sets the interval between config-change polls.
func WithWatchInterval(d time.Duration) Option {
	return func(o *options) {
		if d > 0 {
			o.watchInterval = d
		}
	}
}

// WithInstanceTimeout sets how stale a heartbeat may be before any
// instance's cleanup pass evicts the entry.
func WithInstanceTimeout(d time.Duration) Option {
	return func(o *options) {
		if d > 0 {
			o.instanceTimeout = d
		}
	}
}

// WithRetryPolicy sets the bounded retry/backoff policy for
// read-merge-write cycles against the shared document.
func WithRetryPolicy(p RetryPolicy) Option {
	return func(o *options) {
		if p.MaxAttempts > 0 {
			o.retryPolicy = p
		}
	}
}

// WithConfigPaths overrides the canonical and legacy document paths.
// Intended for tests and unusual layouts; the defaults match the storage
// contract every fleet instance expects.
func WithConfigPaths(canonical, legacy string) Option {
	return func(o *options) {
		if canonical != "" {
			o.canonicalPath = canonical
		}
		o.legacyPath = legacy
	}
}

// WithResourceController attaches a resource controller. The coordinator
// throttles its background store writes through the controller's IO
// limiter.
func WithResourceController(rc *resource.Controller) Option {
	return func(o *options) {
		o.controller = rc
	}
}

func applyOptions(optFns []Option) options {
	o := options{
		codec:             codec.Default,
		logger:            NoopLogger(),
		metricsCollector:  NoopMetricsCollector{},
		heartbeatInterval: DefaultHeartbeatInterval,
		watchInterval:     DefaultWatchInterval,
		instanceTimeout:   DefaultInstanceTimeout,
		retryPolicy:       DefaultRetryPolicy(),
		canonicalPath:     CanonicalConfigPath,
		legacyPath:        LegacyConfigPath,
	}
	for _, fn := range optFns {
		if fn != nil {
			fn(&o)
		}
	}
	return o
}

// RoleFromEnv reads an explicit role hint from the environment at the
// process boundary. Returns false when the variable is unset or does not
// name a valid role.
func RoleFromEnv(key string) (Role, bool) {
	v, ok := os.LookupEnv(key)
	if !ok {
		return "", false
	}
	role := Role(v)
	if !role.Valid() {
		return "", false
	}
	return role, true
}
