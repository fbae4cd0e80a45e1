package config

import (
	"errors"
	"io/fs"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"

	"github.com/dmitrijs2005/placementtracker/internal/flagx"
)

// parseEnv loads a dotenv file (the -env-file flag, else ./.env when it
// exists) into the process environment and then overlays TRACKER_* variables
// onto config. Variables already set in the environment win over the file.
func parseEnv(config *Config, args []string) error {
	if path := flagx.EnvFileFlag(args); path != "" {
		if err := godotenv.Load(path); err != nil {
			return err
		}
	} else if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}

	return env.Parse(config)
}
