// Package config handles configuration loading, parsing, and validation
// from environment variables, an optional .env file, an optional config
// file, and command-line flags. It provides type-safe access to the
// settings the server needs while keeping them out of business logic.
package config
