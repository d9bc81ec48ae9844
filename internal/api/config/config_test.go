package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleYAML = `
mongo:
  url: mongodb://localhost:27017
  transactions: true
identity:
  jwt_secret: s3cret
  timeout: 2s
kafka:
  brokers: ["k1:9092", "k2:9092"]
`

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(content), 0o600))
	return dir
}

func TestLoadConfig(t *testing.T) {
	cfg, err := LoadConfig(writeConfig(t, sampleYAML))
	require.NoError(t, err)

	assert.Equal(t, "mongodb://localhost:27017", cfg.Mongo.URL)
	assert.True(t, cfg.Mongo.Transactions)
	assert.Equal(t, 2*time.Second, cfg.Identity.Timeout)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.Kafka.Brokers)

	// 默认值
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "hearth", cfg.Mongo.Database)
	assert.Equal(t, 5*time.Second, cfg.Mongo.OperationTimeout)
	assert.Equal(t, "follow-events", cfg.KafkaFollowEvent.Topic)
	assert.Equal(t, "0 */5 * * * *", cfg.Cron.FollowReconcile)
}

func TestLoadConfigEnvOverride(t *testing.T) {
	t.Setenv("HEARTH_MONGO_DATABASE", "hearth_test")
	cfg, err := LoadConfig(writeConfig(t, sampleYAML))
	require.NoError(t, err)
	assert.Equal(t, "hearth_test", cfg.Mongo.Database)
}

func TestLoadConfigMissingRequired(t *testing.T) {
	_, err := LoadConfig(writeConfig(t, "server:\n  port: 9000\n"))
	assert.Error(t, err)
}
