package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sample struct {
	Name  string `yaml:"name"`
	Port  int    `yaml:"port"`
	valid bool
}

func (s *sample) Validate() error {
	s.valid = true
	if s.Port <= 0 {
		return errors.New("port must be positive")
	}
	return nil
}

func writeFile(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoad_ExpandsEnvAndKeepsDefaults(t *testing.T) {
	t.Setenv("SAMPLE_NAME", "vault")
	path := writeFile(t, "name: ${SAMPLE_NAME}\n")

	s := &sample{Port: 8080}
	require.NoError(t, Load(path, s))
	assert.Equal(t, "vault", s.Name)
	assert.Equal(t, 8080, s.Port)
	assert.True(t, s.valid)
}

func TestLoad_Errors(t *testing.T) {
	s := &sample{Port: 1}
	assert.Error(t, Load(filepath.Join(t.TempDir(), "missing.yaml"), s))

	bad := writeFile(t, "name: [unterminated\n")
	assert.ErrorContains(t, Load(bad, s), "failed to parse")

	invalid := writeFile(t, "port: 0\n")
	assert.ErrorContains(t, Load(invalid, &sample{}), "config validation failed")
}

func TestLoadOptional(t *testing.T) {
	s := &sample{Port: 9000}
	found, err := LoadOptional(filepath.Join(t.TempDir(), "missing.yaml"), s)
	require.NoError(t, err)
	assert.False(t, found)
	assert.True(t, s.valid)
	assert.Equal(t, 9000, s.Port)

	_, err = LoadOptional(filepath.Join(t.TempDir(), "missing.yaml"), &sample{})
	assert.Error(t, err)

	path := writeFile(t, "port: 7000\n")
	found, err = LoadOptional(path, s)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, 7000, s.Port)
}
