package logging

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRejectsUnknownLevel(t *testing.T) {
	_, err := New(Config{Level: "loud"})
	assert.Error(t, err)
}

func TestNewDevelopment(t *testing.T) {
	l, err := New(Config{Level: "debug", Development: true})
	require.NoError(t, err)
	assert.NotNil(t, l.Logger)
}

func TestComponentOnNilLogger(t *testing.T) {
	var l *Logger
	assert.NotNil(t, l.Component("scanner"))
	assert.NotNil(t, OrNop(nil))
}
