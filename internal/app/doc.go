// Package app contains the core application logic. It loads a configuration
// database, runs module generation for the applications of a session and
// reports, persists and publishes the result, decoupled from any specific
// entrypoint like a CLI.
package app
