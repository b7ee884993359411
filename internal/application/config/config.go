package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/pion/webrtc/v4"
)

type Config struct {
	Debug      bool   `env:"DEBUG" envDefault:"false"`
	Port       string `env:"PORT" envDefault:"3000"`
	MetricPort string `env:"METRIC_PORT" envDefault:"9090"`
	Domain     string `env:"DOMAIN" envDefault:"http://localhost:3000"`
	JWTSecret  string `env:"JWT_SECRET,required"`

	StunServer webrtc.ICEServer

	Signaling SignalingConfig
	Coturn    CoturnConfig
	Postgres  PostgresConfig
}

// SignalingConfig tunes the websocket signaling coordinator.
type SignalingConfig struct {
	// MaxRoomMembers caps a room's member set. The offer/answer relay
	// broadcasts to all other members, which only negotiates correctly
	// between two peers, so the default rejects a third join.
	MaxRoomMembers int `env:"SIGNALING_MAX_ROOM_MEMBERS" envDefault:"2"`

	// SendQueueSize bounds the per-connection outbound queue. A
	// connection that falls this far behind is closed.
	SendQueueSize int `env:"SIGNALING_SEND_QUEUE_SIZE" envDefault:"64"`

	PingInterval time.Duration `env:"SIGNALING_PING_INTERVAL" envDefault:"30s"`
	ReadDeadline time.Duration `env:"SIGNALING_READ_DEADLINE" envDefault:"60s"`
	WriteTimeout time.Duration `env:"SIGNALING_WRITE_TIMEOUT" envDefault:"10s"`
}

type PostgresConfig struct {
	URL string `env:"POSTGRES_URL"`

	Host     string `env:"POSTGRES_HOST" envDefault:"localhost"`
	Port     int    `env:"POSTGRES_PORT" envDefault:"5432"`
	User     string `env:"POSTGRES_USER" envDefault:"postgres"`
	Password string `env:"POSTGRES_PASSWORD" envDefault:"postgres"`
	Name     string `env:"POSTGRES_NAME" envDefault:"peerlink"`
	SSL      string `env:"POSTGRES_SSL" envDefault:"disable"`
}

func (p *PostgresConfig) DSN() string {
	if p.URL != "" {
		return p.URL
	}

	return fmt.Sprintf("postgresql://%s:%s@%s:%d/%s?sslmode=%s",
		p.User,
		p.Password,
		p.Host,
		p.Port,
		p.Name,
		p.SSL,
	)
}

// CoturnConfig is optional: without a host the ICE handler serves the
// public STUN server only.
type CoturnConfig struct {
	Host string `env:"COTURN_HOST"`

	// Secret signs short-lived credentials handed to the frontend.
	Secret string `env:"COTURN_SECRET"`

	CredentialTTL time.Duration `env:"COTURN_CREDENTIAL_TTL" envDefault:"1h"`
}

func (c *CoturnConfig) Enabled() bool {
	return c.Host != "" && c.Secret != ""
}

func New() (*Config, error) {
	c, err := env.ParseAs[Config]()
	if err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}

	c.StunServer = webrtc.ICEServer{
		URLs: []string{"stun:stun.l.google.com:19302"},
	}

	return &c, nil
}
