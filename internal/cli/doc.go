// Package cli provides command-line interface setup and configuration
// for the verbdeck application. It handles flag parsing, command
// creation, configuration management using cobra and viper, and builds
// the logger.
package cli
