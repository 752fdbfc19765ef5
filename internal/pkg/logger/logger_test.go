package logger

import (
	"bytes"
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
)

func TestInit_Level(t *testing.T) {
	Init(Config{Level: "warn", Environment: "production"})
	assert.Equal(t, zerolog.WarnLevel, zerolog.GlobalLevel())

	Init(Config{Level: "bogus", Environment: "production"})
	assert.Equal(t, zerolog.InfoLevel, zerolog.GlobalLevel())
}

func TestWithFields(t *testing.T) {
	zerolog.SetGlobalLevel(zerolog.DebugLevel)
	var buf bytes.Buffer
	base := zerolog.New(&buf)

	ctx := WithContext(context.Background(), &base)
	ctx = WithFields(ctx, map[string]string{"request_id": "abc"})

	FromContext(ctx).Info().Msg("hello")
	assert.Contains(t, buf.String(), `"request_id":"abc"`)
}

func TestFromContext_Default(t *testing.T) {
	assert.NotNil(t, FromContext(context.Background()))
}
