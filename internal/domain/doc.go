// Package domain defines core data models and interfaces shared across the
// engine. It contains plain types (keys, participants, room events) and the
// host-facing contracts only.
package domain
