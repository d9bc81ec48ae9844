package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// LoadConfig 从文件加载配置，环境变量（HEARTH_ 前缀）可覆盖文件中的值
func LoadConfig(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(path)

	v.SetEnvPrefix("hearth")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var configFileNotFoundError viper.ConfigFileNotFoundError
		if !errors.As(err, &configFileNotFoundError) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", 10*time.Second)
	v.SetDefault("server.write_timeout", 15*time.Second)
	v.SetDefault("mongo.database", "hearth")
	v.SetDefault("mongo.operation_timeout", 5*time.Second)
	v.SetDefault("redis.pool_size", 20)
	v.SetDefault("redis.dial_timeout", 3*time.Second)
	v.SetDefault("redis.read_timeout", 2*time.Second)
	v.SetDefault("redis.write_timeout", 2*time.Second)
	v.SetDefault("identity.timeout", 5*time.Second)
	v.SetDefault("elastic.user_index", "hearth_users")
	v.SetDefault("kafka_follow_event.topic", "follow-events")
	v.SetDefault("kafka_follow_event.group_id", "hearth-follow-events")
	v.SetDefault("kafka.consumer.session_timeout", 10)
	v.SetDefault("kafka.consumer.heartbeat_interval", 3)
	v.SetDefault("kafka.consumer.rebalance_timeout", 60)
	v.SetDefault("kafka.consumer.max_processing_time", 5)
	v.SetDefault("kafka.producer.max_retry", 3)
	v.SetDefault("kafka.producer.timeout", 5)
	v.SetDefault("cron.follow_reconcile", "0 */5 * * * *")
}

func (c *Config) validate() error {
	if c.Mongo.URL == "" {
		return errors.New("config: mongo.url is required")
	}
	if c.Identity.JWTPublicKey == "" && c.Identity.JWTSecret == "" {
		return errors.New("config: identity.jwt_public_key or identity.jwt_secret is required")
	}
	return nil
}
