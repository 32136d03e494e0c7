package logging

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestNew_InvalidLevel(t *testing.T) {
	_, err := New(Config{Level: "loud"})
	require.Error(t, err)
}

func TestInitAndWith(t *testing.T) {
	out := filepath.Join(t.TempDir(), "log.json")
	require.NoError(t, Init(Config{Level: "debug", Encoding: "json", OutputPaths: []string{out}}))
	With(zap.String("component", "test")).Debug("hello")
	require.NoError(t, Sync())

	b, err := os.ReadFile(out)
	require.NoError(t, err)
	line := string(b)
	assert.True(t, strings.Contains(line, `"message":"hello"`), line)
	assert.Contains(t, line, `"component":"test"`)
	assert.Contains(t, line, `"level":"debug"`)
}

func TestGet_DefaultIsUsable(t *testing.T) {
	assert.NotNil(t, Get())
}
