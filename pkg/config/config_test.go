package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestCSV(t *testing.T) {
	assert.Nil(t, CSV(""))
	assert.Equal(t, []string{"a:9092", "b:9092"}, CSV(" a:9092, ,b:9092 "))
}

func TestEnvHelpers(t *testing.T) {
	t.Setenv("AUTH_TEST_STR", "value")
	t.Setenv("AUTH_TEST_INT", "42")
	t.Setenv("AUTH_TEST_BAD_INT", "forty")
	t.Setenv("AUTH_TEST_DUR", "90s")
	t.Setenv("AUTH_TEST_BAD_DUR", "soon")

	assert.Equal(t, "value", EnvDefault("AUTH_TEST_STR", "def"))
	assert.Equal(t, "def", EnvDefault("AUTH_TEST_MISSING", "def"))

	assert.Equal(t, 42, EnvIntDefault("AUTH_TEST_INT", 1))
	assert.Equal(t, 1, EnvIntDefault("AUTH_TEST_BAD_INT", 1))
	assert.Equal(t, 1, EnvIntDefault("AUTH_TEST_MISSING", 1))

	assert.Equal(t, 90*time.Second, EnvDurationDefault("AUTH_TEST_DUR", time.Minute))
	assert.Equal(t, time.Minute, EnvDurationDefault("AUTH_TEST_BAD_DUR", time.Minute))
}

func TestEnvFirst(t *testing.T) {
	t.Setenv("AUTH_TEST_FIRST", "")
	t.Setenv("AUTH_TEST_SECOND", "second")

	assert.Equal(t, "second", EnvFirst("def", "AUTH_TEST_FIRST", "AUTH_TEST_SECOND"))
	assert.Equal(t, "def", EnvFirst("def", "AUTH_TEST_FIRST"))
}
