package env

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/code-payments/wallet-bridge/pkg/config"
)

func TestConfigDoesntExist(t *testing.T) {
	const env = "ENV_CONFIG_TEST_VAR"
	t.Setenv(env, "default")

	v, err := NewConfig(env).Get(context.Background())
	assert.Equal(t, []byte("default"), v)
	assert.Nil(t, err)

	t.Setenv(env, "")

	v, err = NewConfig(env).Get(context.Background())
	assert.Nil(t, v)
	assert.Equal(t, config.ErrNoValue, err)
}

func TestKeyIsUpperCased(t *testing.T) {
	t.Setenv("ENV_CONFIG_TEST_MIXED", "value")

	v, err := NewConfig("env_config_test_mixed").Get(context.Background())
	assert.NoError(t, err)
	assert.Equal(t, []byte("value"), v)
}

func TestTypedConfigs(t *testing.T) {
	ctx := context.Background()

	t.Setenv("ENV_CONFIG_TEST_UINT", "123")
	t.Setenv("ENV_CONFIG_TEST_BOOL", "true")
	t.Setenv("ENV_CONFIG_TEST_DURATION", "2s")

	assert.EqualValues(t, 123, NewUint64Config("ENV_CONFIG_TEST_UINT", 1).Get(ctx))
	assert.True(t, NewBoolConfig("ENV_CONFIG_TEST_BOOL", false).Get(ctx))
	assert.Equal(t, 2*time.Second, NewDurationConfig("ENV_CONFIG_TEST_DURATION", time.Second).Get(ctx))
	assert.Equal(t, "fallback", NewStringConfig("ENV_CONFIG_TEST_UNSET", "fallback").Get(ctx))
}
