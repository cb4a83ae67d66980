// Package constants defines application-wide constants and version information.
package constants

import "runtime"

// Version holds the application version information
const Version = "1.0-" + runtime.GOOS + "/" + runtime.GOARCH

// DotEnvFile is the environment file loaded by the commands when present
const DotEnvFile = ".env"
