package plugins_test

import (
	"testing"

	"github.com/alejandrodnm/polyedge/internal/plugins"
	"github.com/stretchr/testify/assert"
)

func TestIsRef(t *testing.T) {
	assert.True(t, plugins.IsRef("./models/custom.so:NewModel"))
	assert.False(t, plugins.IsRef("kelly_gbm"))
	assert.False(t, plugins.IsRef("custom.so:"))
	assert.False(t, plugins.IsRef("module:Class"))
}

func TestLookup_MissingFile(t *testing.T) {
	_, err := plugins.Lookup("/nonexistent/custom.so:NewModel")
	assert.Error(t, err)

	_, err = plugins.Lookup("no-symbol")
	assert.Error(t, err)
}
