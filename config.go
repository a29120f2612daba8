package wirechat

import (
	"time"
)

// Default values applied by ConfigBuilder.Build.
const (
	DefaultPort           = 8843
	DefaultLocale         = "en"
	DefaultConnectTimeout = 10 * time.Second
	DefaultIOTimeout      = 30 * time.Second
)

// Config carries the connection parameters for the auth endpoint and
// the realtime channel. A Config is immutable once built; the builder
// snapshots its state on Build, so later builder mutation never leaks
// into a produced Config.
type Config struct {
	// Host and Port address both the auth endpoint and the realtime
	// channel.
	Host string
	Port int

	// TLS selects https/wss over http/ws.
	TLS bool

	// Locale is sent as Accept-Language on auth and as the lang query
	// parameter on the channel.
	Locale string

	// ConnectTimeout bounds dialing and handshaking.
	ConnectTimeout time.Duration

	// IOTimeout bounds individual reads and writes.
	IOTimeout time.Duration

	// RequestTimeout is the deadline for a pending socket request.
	// Zero means pending requests only resolve on reply or disconnect.
	RequestTimeout time.Duration

	// ServerKey is the server credential, sent as a Basic authorization
	// on auth and as the key query parameter on the channel.
	ServerKey string

	// Trace enables verbose dispatch diagnostics.
	Trace bool
}

// ConfigBuilder builds a Config step by step.
type ConfigBuilder struct {
	cfg Config
}

// NewConfigBuilder creates a ConfigBuilder.
func NewConfigBuilder() *ConfigBuilder {
	return &ConfigBuilder{}
}

// Host sets the server host.
func (b *ConfigBuilder) Host(host string) *ConfigBuilder {
	b.cfg.Host = host
	return b
}

// Port sets the server port.
func (b *ConfigBuilder) Port(port int) *ConfigBuilder {
	b.cfg.Port = port
	return b
}

// TLS enables or disables transport security.
func (b *ConfigBuilder) TLS(enabled bool) *ConfigBuilder {
	b.cfg.TLS = enabled
	return b
}

// Locale sets the language tag.
func (b *ConfigBuilder) Locale(locale string) *ConfigBuilder {
	b.cfg.Locale = locale
	return b
}

// ConnectTimeout sets the dial/handshake timeout.
func (b *ConfigBuilder) ConnectTimeout(d time.Duration) *ConfigBuilder {
	b.cfg.ConnectTimeout = d
	return b
}

// IOTimeout sets the per-read/per-write timeout.
func (b *ConfigBuilder) IOTimeout(d time.Duration) *ConfigBuilder {
	b.cfg.IOTimeout = d
	return b
}

// RequestTimeout sets the deadline for pending socket requests.
func (b *ConfigBuilder) RequestTimeout(d time.Duration) *ConfigBuilder {
	b.cfg.RequestTimeout = d
	return b
}

// ServerKey sets the server credential key.
func (b *ConfigBuilder) ServerKey(key string) *ConfigBuilder {
	b.cfg.ServerKey = key
	return b
}

// Trace enables verbose dispatch diagnostics.
func (b *ConfigBuilder) Trace(enabled bool) *ConfigBuilder {
	b.cfg.Trace = enabled
	return b
}

// Build snapshots the builder into a frozen Config and applies
// defaults. The builder can keep being mutated afterwards without
// affecting the returned value.
func (b *ConfigBuilder) Build() Config {
	cfg := b.cfg
	if cfg.Port == 0 {
		cfg.Port = DefaultPort
	}
	if cfg.Locale == "" {
		cfg.Locale = DefaultLocale
	}
	if cfg.ConnectTimeout <= 0 {
		cfg.ConnectTimeout = DefaultConnectTimeout
	}
	if cfg.IOTimeout <= 0 {
		cfg.IOTimeout = DefaultIOTimeout
	}
	return cfg
}
