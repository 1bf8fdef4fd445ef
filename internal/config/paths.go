package config

import (
	"os"
	"path/filepath"

	"github.com/droverhq/drover/internal/constants"
	"github.com/droverhq/drover/internal/errors"
)

// GlobalConfigDir returns the path to the global drover configuration
// directory, typically ~/.drover on Unix systems.
func GlobalConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", errors.Wrap(err, "failed to get home directory")
	}
	return filepath.Join(home, constants.DroverHome), nil
}

// ProjectConfigDir returns the relative path to the project configuration
// directory, always .drover relative to the working directory.
func ProjectConfigDir() string {
	return constants.DroverHome
}

// GlobalConfigPath returns the full path to the global configuration file.
func GlobalConfigPath() (string, error) {
	dir, err := GlobalConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.yaml"), nil
}

// ProjectConfigPath returns the relative path to the project configuration file.
func ProjectConfigPath() string {
	return filepath.Join(ProjectConfigDir(), "config.yaml")
}

func getGlobalConfigPathIfExists() (string, bool) {
	globalConfigPath, err := GlobalConfigPath()
	if err != nil {
		return "", false
	}
	if _, err := os.Stat(globalConfigPath); err != nil {
		return "", false
	}
	return globalConfigPath, true
}
