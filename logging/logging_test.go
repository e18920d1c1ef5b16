package logging

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap/zapcore"
)

func TestNewSetsDevelopmentLogger(t *testing.T) {
	l, err := New("development")
	assert.NoError(t, err)
	assert.True(t, l.Core().Enabled(zapcore.DebugLevel))
}

func TestNewSetsProductionLogger(t *testing.T) {
	l, err := New("production")
	assert.NoError(t, err)
	assert.False(t, l.Core().Enabled(zapcore.DebugLevel))
	assert.True(t, l.Core().Enabled(zapcore.InfoLevel))
}

func TestNewSetsLocalLogger(t *testing.T) {
	l, err := New("")
	assert.NoError(t, err)
	assert.True(t, l.Core().Enabled(zapcore.DebugLevel))
}

func TestSugaredNeverNil(t *testing.T) {
	assert.NotNil(t, Sugared("local"))
}
