package debug

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDefaultLoggerIsSilent(t *testing.T) {
	SetLogger(nil)
	assert.False(t, Logger().Enabled(context.Background(), slog.LevelError))
}

func TestSetLogger(t *testing.T) {
	var buf bytes.Buffer
	SetLogger(slog.New(slog.NewTextHandler(&buf, nil)))
	defer SetLogger(nil)

	Logger().Info("renderer initialised", "kind", "software")
	assert.Contains(t, buf.String(), "renderer initialised")
	assert.Contains(t, buf.String(), "kind=software")
}

func TestLayerBorder(t *testing.T) {
	assert.Equal(t, TiledContentBorderColor, LayerBorder("TiledLayer"))
	assert.Equal(t, ContainerLayerBorderColor, LayerBorder("SolidColorLayer"))
}
