package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExpandEnvSubstitutesBraceAndBareForm(t *testing.T) {
	t.Setenv("FOO_KEY", "secret123")

	out := ExpandEnv([]byte("api_key_env: ${FOO_KEY}\nbare: $FOO_KEY\n"))

	assert.Equal(t, "api_key_env: secret123\nbare: secret123\n", string(out))
}

func TestExpandEnvMissingVariableBecomesEmpty(t *testing.T) {
	out := ExpandEnv([]byte("value: ${DEFINITELY_NOT_SET_XYZ}"))
	assert.Equal(t, "value: ", string(out))
}
