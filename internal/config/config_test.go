package config_test

import (
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/sysu-ecnc-dev/seat-arranger/backend/internal/config"
)

func TestLoadArrangerConfig_Defaults(t *testing.T) {
	arrangerCfg, preferenceCfg, err := config.LoadArrangerConfig()
	require.NoError(t, err)

	require.Equal(t, int32(4), arrangerCfg.GroupSize)
	require.Equal(t, int32(100), arrangerCfg.PopulationSize)
	require.Equal(t, int32(10), arrangerCfg.SelectionCount)
	require.Equal(t, "stochastic", arrangerCfg.Selector)
	require.Equal(t, 1.0, arrangerCfg.MutationRate)

	policy := preferenceCfg.WeightPolicy()
	require.Equal(t, []int{1, 2}, policy.PositiveColumns)
	require.Equal(t, []int{3}, policy.NegativeColumns)
	require.Equal(t, int64(1), policy.PositiveWeight)
	require.Equal(t, int64(-1), policy.NegativeWeight)
}

func TestLoadArrangerConfig_FromEnv(t *testing.T) {
	t.Setenv("ARRANGER_SELECTOR", "tournament")
	t.Setenv("ARRANGER_GROUP_SIZE", "2")
	t.Setenv("PREFERENCE_NEGATIVE_COLUMNS", "3,4")
	t.Setenv("PREFERENCE_NEGATIVE_WEIGHT", "-5")

	arrangerCfg, preferenceCfg, err := config.LoadArrangerConfig()
	require.NoError(t, err)
	require.Equal(t, "tournament", arrangerCfg.Selector)
	require.Equal(t, int32(2), arrangerCfg.GroupSize)
	require.Equal(t, []int{3, 4}, preferenceCfg.NegativeColumns)
	require.Equal(t, int64(-5), preferenceCfg.NegativeWeight)
}

func TestLoadConfig_MissingRequired(t *testing.T) {
	// 测试环境中没有设置数据库等必填项
	_, err := config.LoadConfig()
	require.Error(t, err)
}

func setRequiredEnv(t *testing.T) {
	t.Helper()
	for key, value := range map[string]string{
		"DATABASE_DSN":           "postgres://localhost/seat_arranger",
		"INITIAL_ADMIN_PASSWORD": "password",
		"INITIAL_ADMIN_EMAIL":    "admin@example.com",
		"JWT_SECRET":             "secret",
		"SEED_USER_PASSWORD":     "password",
		"EMAIL_USER_DOMAIN":      "example.com",
		"EMAIL_SMTP_USERNAME":    "mailer",
		"EMAIL_SMTP_PASSWORD":    "password",
		"EMAIL_SMTP_HOST":        "smtp.example.com",
		"RABBITMQ_DSN":           "amqp://localhost",
		"REDIS_PASSWORD":         "password",
	} {
		t.Setenv(key, value)
	}
}

func TestLoadConfig_Defaults(t *testing.T) {
	setRequiredEnv(t)

	cfg, err := config.LoadConfig()
	require.NoError(t, err)
	require.Greater(t, cfg.Arranger.LockExpiration, cfg.Server.WriteTimeout)
}

func TestLoadConfig_LockMustOutliveWriteTimeout(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("SERVER_WRITE_TIMEOUT", "600")
	t.Setenv("ARRANGER_LOCK_EXPIRATION", "600")

	_, err := config.LoadConfig()
	require.ErrorContains(t, err, "ARRANGER_LOCK_EXPIRATION")
}

func TestConfig_Validate(t *testing.T) {
	cfg := &config.Config{}
	cfg.Server.WriteTimeout = 300
	cfg.Arranger.LockExpiration = 301
	require.NoError(t, cfg.Validate())

	cfg.Arranger.LockExpiration = 299
	require.Error(t, cfg.Validate())
}
