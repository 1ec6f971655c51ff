package app

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/melih/imagedispatch/internal/config"
)

func TestSourceURL(t *testing.T) {
	assert.Equal(t, "https://github.com/acme/trainer", sourceURL("https://github.com/acme/trainer.git"))
	assert.Equal(t, "https://github.com/acme/trainer", sourceURL("https://github.com/acme/trainer"))
	assert.Equal(t, "", sourceURL(""))
}

func TestNewDispatcher_RequiresImage(t *testing.T) {
	_, err := NewDispatcher(&config.Config{}, nil, nil, nil)
	assert.ErrorIs(t, err, config.ErrNoImage)
}
