package config

import (
	"net"
	"strconv"
	"time"
)

// ICEServer is a STUN or TURN server handed to browsers.
type ICEServer struct {
	URLs       []string `mapstructure:"urls" yaml:"urls"`
	Username   string   `mapstructure:"username" yaml:"username,omitempty"`
	Credential string   `mapstructure:"credential" yaml:"credential,omitempty"`
}

// Config holds server configuration values.
type Config struct {
	Host              string        `mapstructure:"host" yaml:"host"`
	Port              int           `mapstructure:"port" yaml:"port"`
	ReadHeaderTimeout time.Duration `mapstructure:"read_header_timeout" yaml:"read_header_timeout"`
	ShutdownTimeout   time.Duration `mapstructure:"shutdown_timeout" yaml:"shutdown_timeout"`
	LogLevel          string        `mapstructure:"log_level" yaml:"log_level"`

	Channels       []string `mapstructure:"channels" yaml:"channels"`
	DefaultChannel string   `mapstructure:"default_channel" yaml:"default_channel"`
	HistoryLimit   int      `mapstructure:"history_limit" yaml:"history_limit"`
	MaxNameLength  int      `mapstructure:"max_name_length" yaml:"max_name_length"`

	MaxMessageBytes    int64 `mapstructure:"max_message_bytes" yaml:"max_message_bytes"`
	RateLimitPerMinute int   `mapstructure:"rate_limit_per_minute" yaml:"rate_limit_per_minute"`
	ClientBuffer       int   `mapstructure:"client_buffer" yaml:"client_buffer"`

	NegotiationTimeout time.Duration `mapstructure:"negotiation_timeout" yaml:"negotiation_timeout"`
	SweepInterval      time.Duration `mapstructure:"sweep_interval" yaml:"sweep_interval"`
	VoiceDataRelay     bool          `mapstructure:"voice_data_relay" yaml:"voice_data_relay"`
	ICEServers         []ICEServer   `mapstructure:"ice_servers" yaml:"ice_servers"`
}

// DefaultChannels are created at startup when the config names none.
var DefaultChannels = []string{"genel", "sohbet", "kodlama", "yardım"}

// DefaultSTUN is always offered to clients.
const DefaultSTUN = "stun:stun.l.google.com:19302"

// Default returns configuration with reasonable starter defaults.
func Default() Config {
	return Config{
		Host:               "0.0.0.0",
		Port:               3001,
		ReadHeaderTimeout:  5 * time.Second,
		ShutdownTimeout:    5 * time.Second,
		LogLevel:           "info",
		Channels:           append([]string(nil), DefaultChannels...),
		MaxNameLength:      32,
		MaxMessageBytes:    1 << 20,
		RateLimitPerMinute: 600,
		ClientBuffer:       64,
		NegotiationTimeout: 30 * time.Second,
		SweepInterval:      time.Second,
		VoiceDataRelay:     true,
		ICEServers:         []ICEServer{{URLs: []string{DefaultSTUN}}},
	}
}

// Addr is the listen address built from Host and Port.
func (c Config) Addr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

// UpdateFrom overwrites non-zero values from other config into receiver.
func (c *Config) UpdateFrom(other Config) {
	if other.Host != "" {
		c.Host = other.Host
	}
	if other.Port != 0 {
		c.Port = other.Port
	}
	if other.ReadHeaderTimeout != 0 {
		c.ReadHeaderTimeout = other.ReadHeaderTimeout
	}
	if other.ShutdownTimeout != 0 {
		c.ShutdownTimeout = other.ShutdownTimeout
	}
	if other.LogLevel != "" {
		c.LogLevel = other.LogLevel
	}
	if len(other.Channels) > 0 {
		c.Channels = other.Channels
	}
	if other.DefaultChannel != "" {
		c.DefaultChannel = other.DefaultChannel
	}
	if other.HistoryLimit != 0 {
		c.HistoryLimit = other.HistoryLimit
	}
	if other.MaxNameLength != 0 {
		c.MaxNameLength = other.MaxNameLength
	}
	if other.MaxMessageBytes != 0 {
		c.MaxMessageBytes = other.MaxMessageBytes
	}
	if other.RateLimitPerMinute != 0 {
		c.RateLimitPerMinute = other.RateLimitPerMinute
	}
	if other.ClientBuffer != 0 {
		c.ClientBuffer = other.ClientBuffer
	}
	if other.NegotiationTimeout != 0 {
		c.NegotiationTimeout = other.NegotiationTimeout
	}
	if other.SweepInterval != 0 {
		c.SweepInterval = other.SweepInterval
	}
	if len(other.ICEServers) > 0 {
		c.ICEServers = other.ICEServers
	}
}
