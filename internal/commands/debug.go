package commands

import "github.com/rs/zerolog/log"

func debugf(format string, args ...interface{}) {
	log.Debug().Msgf(format, args...)
}
