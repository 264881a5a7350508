package logging

import (
	"bytes"
	"testing"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/stretchr/testify/assert"
)

func TestInit_Levels(t *testing.T) {
	defer zerolog.SetGlobalLevel(zerolog.InfoLevel)

	var buf bytes.Buffer
	Init("decoder", Writer(&buf))

	log.Debug().Msg("hidden")
	log.Info().Msg("shown")

	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "INFO:")
	assert.Contains(t, buf.String(), "decoder: shown")

	buf.Reset()
	Init("decoder", Writer(&buf), Debug(true))
	log.Debug().Str("state", "start").Msg("visible")

	assert.Contains(t, buf.String(), "DEBUG:")
	assert.Contains(t, buf.String(), "visible")
	assert.Contains(t, buf.String(), "state=start")
}
