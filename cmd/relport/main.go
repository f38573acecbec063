package main

import (
	"os"

	"github.com/user/release-portal/internal/commands"
	"github.com/user/release-portal/internal/logger"
)

func main() {
	if err := commands.Execute(); err != nil {
		logger.Error().Err(err).Msg("command failed")
		os.Exit(1)
	}
}
