package config

import "time"

// Config 配置主体
type Config struct {
	Server           ServerConfig     `mapstructure:"server"`
	Mongo            MongoConfig      `mapstructure:"mongo"`
	Redis            RedisConfig      `mapstructure:"redis"`
	Identity         IdentityConfig   `mapstructure:"identity"`
	MinIO            MinIOConfig      `mapstructure:"minio"`
	Elastic          ElasticConfig    `mapstructure:"elastic"`
	Logstash         LogstashConfig   `mapstructure:"logstash"`
	Kafka            KafkaConfig      `mapstructure:"kafka"`
	KafkaFollowEvent KafkaTopicConfig `mapstructure:"kafka_follow_event"`
	Cron             CronConfig       `mapstructure:"cron"`
}

// ServerConfig Server配置
type ServerConfig struct {
	Port         int           `mapstructure:"port"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
}

// MongoConfig 文档数据库配置
type MongoConfig struct {
	URL              string        `mapstructure:"url"`
	Database         string        `mapstructure:"database"`
	OperationTimeout time.Duration `mapstructure:"operation_timeout"`
	// Transactions 需要副本集部署
	Transactions bool `mapstructure:"transactions"`
}

type RedisConfig struct {
	Addr         string        `mapstructure:"addr"`
	Password     string        `mapstructure:"password"`
	DB           int           `mapstructure:"db"`
	PoolSize     int           `mapstructure:"pool_size"`
	DialTimeout  time.Duration `mapstructure:"dial_timeout"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
}

// IdentityConfig 外部身份提供方配置
type IdentityConfig struct {
	APIURL       string        `mapstructure:"api_url"`
	SecretKey    string        `mapstructure:"secret_key"`
	JWTPublicKey string        `mapstructure:"jwt_public_key"`
	JWTSecret    string        `mapstructure:"jwt_secret"`
	Issuer       string        `mapstructure:"issuer"`
	Timeout      time.Duration `mapstructure:"timeout"`
}

// MinIOConfig MinIO配置
type MinIOConfig struct {
	Endpoint       string `mapstructure:"endpoint"`
	PublicEndpoint string `mapstructure:"public_endpoint"`
	AccessKey      string `mapstructure:"access_key"`
	SecretKey      string `mapstructure:"secret_key"`
	Bucket         string `mapstructure:"bucket"`
	UseSSL         bool   `mapstructure:"use_ssl"`
}

// ElasticConfig Elastic配置
type ElasticConfig struct {
	Address   string `mapstructure:"address"`
	Username  string `mapstructure:"username"`
	Password  string `mapstructure:"password"`
	UserIndex string `mapstructure:"user_index"`
}

type LogstashConfig struct {
	Address string `mapstructure:"address"`
	Index   string `mapstructure:"index"`
	Token   string `mapstructure:"token"`
}

type KafkaConfig struct {
	Brokers  []string       `mapstructure:"brokers"`
	Sasl     SaslConfig     `mapstructure:"sasl"`
	Consumer ConsumerConfig `mapstructure:"consumer"`
	Producer ProducerConfig `mapstructure:"producer"`
}

type SaslConfig struct {
	Enable   bool   `mapstructure:"enable"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
}

type ConsumerConfig struct {
	SessionTimeout    int `mapstructure:"session_timeout"`
	HeartbeatInterval int `mapstructure:"heartbeat_interval"`
	RebalanceTimeout  int `mapstructure:"rebalance_timeout"`
	MaxProcessingTime int `mapstructure:"max_processing_time"`
}

type ProducerConfig struct {
	MaxRetry int `mapstructure:"max_retry"`
	Timeout  int `mapstructure:"timeout"`
}

type KafkaTopicConfig struct {
	Topic   string `mapstructure:"topic"`
	GroupID string `mapstructure:"group_id"`
}

// CronConfig 定时任务表达式（秒级）
type CronConfig struct {
	FollowReconcile string `mapstructure:"follow_reconcile"`
}
