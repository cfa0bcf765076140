// Package logging builds the shared zap logger from a textual level.
package logging
