package config

import (
	"fmt"

	"github.com/spf13/viper"
)

type WorkerConfig struct {
	Environment string
	Logging     LoggingConfig
	Postgres    PostgresConfig
	Redis       RedisConfig
	Events      EventsConfig
}

func LoadWorker() (*WorkerConfig, error) {
	if err := loadDotEnv(); err != nil {
		return nil, err
	}

	v := newViper("worker", "ACCOUNTDESK_WORKER")
	setWorkerDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("load config: %w", err)
		}
	}

	var cfg WorkerConfig
	if err := v.Unmarshal(&cfg, decodeHooks); err != nil {
		return nil, fmt.Errorf("unmarshal: %w", err)
	}

	if cfg.Redis.Addr == "" {
		return nil, fmt.Errorf("redis.addr is required for the worker")
	}

	return &cfg, nil
}

func setWorkerDefaults(v *viper.Viper) {
	v.SetDefault("environment", EnvDevelopment)
	v.SetDefault("logging.level", "info")

	v.SetDefault("postgres.dsn", "")
	v.SetDefault("postgres.host", "127.0.0.1")
	v.SetDefault("postgres.port", 5432)
	v.SetDefault("postgres.user", "postgres")
	v.SetDefault("postgres.password", "")
	v.SetDefault("postgres.name", "accountdesk")
	v.SetDefault("postgres.sslmode", "disable")
	v.SetDefault("postgres.maxconns", 2)
	v.SetDefault("postgres.connmaxlifetime", "30m")
	v.SetDefault("postgres.connectretries", 20)
	v.SetDefault("postgres.connectdelay", "5s")

	v.SetDefault("redis.addr", "127.0.0.1:6379")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)

	v.SetDefault("events.stream", "auth:events")
	v.SetDefault("events.group", "audit-workers")
	v.SetDefault("events.consumer", "worker-1")
	v.SetDefault("events.claiminterval", "30s")
}
