package application

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sync"
)

const (
	// AppName is the application name used for directories and identification
	AppName = "drivesign"

	// Version is reported by the CLI
	Version = "0.3.0"

	// DefaultConfigFile is the INI file read when no --config flag is given
	DefaultConfigFile = "config.ini"

	// DefaultLogFile is the rotating log file name inside the log directory
	DefaultLogFile = "drivesign.log"

	// DefaultStateFile is the bbolt file name used by the bolt state backend
	DefaultStateFile = "drivesign.bolt"
)

var (
	once   sync.Once
	appDir string
	errDir error
)

// GetApplicationDirectory returns the drivesign data directory path.
// Linux: ~/.config/drivesign (via os.UserConfigDir)
// Windows: C:\Users\{username}\AppData\Local\drivesign (via os.UserCacheDir)
func GetApplicationDirectory() (string, error) {
	once.Do(lazyLoad)

	if errDir != nil {
		return "", errDir
	}

	return appDir, errDir
}

// DefaultStatePath returns the bolt state file path inside the application directory,
// falling back to the working directory when no user directory is available.
func DefaultStatePath() string {
	dir, err := GetApplicationDirectory()
	if err != nil {
		return DefaultStateFile
	}

	return filepath.Join(dir, DefaultStateFile)
}

func lazyLoad() {
	var (
		baseDir string
		err     error
	)

	switch runtime.GOOS {
	case "windows":
		baseDir, err = os.UserCacheDir()
	default:
		baseDir, err = os.UserConfigDir()
	}

	if err != nil {
		errDir = fmt.Errorf("failed to get config directory: %w", err)
		return
	}

	appDir = filepath.Join(baseDir, AppName)
}
