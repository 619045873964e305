package cmd

import (
	"log"

	"github.com/spf13/afero"

	"github.com/keysender/keysender/internal/config"
	"github.com/keysender/keysender/pkg/logger"
)

// appFs is the filesystem the commands read options from.
var appFs afero.Fs = afero.NewOsFs()

// configDir resolves the configuration directory. Replaced in tests.
var configDir = config.Dir

// newLogger returns the console logger used by the commands.
var newLogger = func() logger.Logger {
	return logger.NewStandardLogger(log.Default())
}

// loadOptions returns the options file contents, or the defaults when the
// file does not exist, together with the configuration directory.
func loadOptions() (*config.Options, string, error) {
	dir, err := configDir()
	if err != nil {
		return nil, "", err
	}
	opts, err := config.LoadOrDefault(appFs, config.Path(dir))
	if err != nil {
		return nil, dir, err
	}
	return opts, dir, nil
}
