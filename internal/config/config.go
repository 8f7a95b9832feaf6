package config

import (
	"time"

	"github.com/caarlos0/env/v11"
)

type HTTP struct {
	Port string `env:"PORT" envDefault:"8080"`
}

type DB struct {
	URL             string        `env:"DATABASE_URL,required"`
	MaxOpenConns    int           `env:"DB_MAX_OPEN_CONNS" envDefault:"16"`
	MaxIdleConns    int           `env:"DB_MAX_IDLE_CONNS" envDefault:"8"`
	ConnMaxLifetime time.Duration `env:"DB_CONN_MAX_LIFETIME" envDefault:"1h"`
	ConnMaxIdleTime time.Duration `env:"DB_CONN_MAX_IDLE_TIME" envDefault:"15m"`
}

// Kafka configures the optional event stream mirror. Leaving Brokers
// empty disables mirroring entirely.
type Kafka struct {
	Brokers string `env:"KAFKA_BOOTSTRAP_SERVERS"`
	Topic   string `env:"AUDIT_EVENTS_TOPIC" envDefault:"audit.events"`
}

// Retention configures the administrative sweep. A zero MaxAge keeps
// records forever.
type Retention struct {
	MaxAge        time.Duration `env:"RETENTION_MAX_AGE"`
	SweepInterval time.Duration `env:"RETENTION_SWEEP_INTERVAL" envDefault:"1h"`
}

type Config struct {
	HTTP      HTTP
	DB        DB
	Kafka     Kafka
	Retention Retention
}

func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}
