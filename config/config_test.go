package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadJSONConfigSections(t *testing.T) {
	var c AppConfig
	require.NoError(t, loadJSONConfig("config.example.json", &c))

	assert.Equal(t, "8080", c.AppPort)
	assert.Equal(t, "Asia/Taipei", c.Timezone)
	assert.Equal(t, []string{"*"}, c.AllowedOrigins)
	assert.Equal(t, "mysql", c.DBDriver)
	assert.Equal(t, 6379, c.RedisPort)
	assert.Equal(t, "logs/go_gin.log", c.GinPath)
	assert.Equal(t, 5, c.RegisterMaxPerIPPerDay)
	assert.Equal(t, "config/gamification.toml", c.GamificationPath)
	assert.Equal(t, 60, c.QuestJanitorMinutes)
}

func TestLoadJSONConfigMissingAndInvalid(t *testing.T) {
	var c AppConfig
	assert.NoError(t, loadJSONConfig("does-not-exist.json", &c))
	assert.Equal(t, AppConfig{}, c)

	assert.Error(t, loadJSONConfig(writeFile(t, "bad.json", "{not json"), &c))
}

func TestDefaultsThenEnvOverrides(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://u:p@pg/learn")
	t.Setenv("TIMEZONE", "UTC")
	t.Setenv("REDIS_DISABLED", "true")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.example, https://b.example,")
	t.Setenv("QUEST_JANITOR_MINUTES", "-1")

	var c AppConfig
	applyDefaults(&c)
	assert.Equal(t, "Asia/Taipei", c.Timezone)
	assert.Equal(t, 72, c.TokenTTLHours)
	assert.Equal(t, 60, c.QuestJanitorMinutes)

	applyEnvOverrides(&c)
	assert.Equal(t, "postgres://u:p@pg/learn", c.DatabaseURI)
	assert.Equal(t, "UTC", c.Timezone)
	assert.True(t, c.RedisDisabled)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, c.AllowedOrigins)
	assert.Equal(t, -1, c.QuestJanitorMinutes)

	driver, _, err := resolveDSN(c)
	require.NoError(t, err)
	assert.Equal(t, "postgres", driver)
}
