// Package store provides file-based persistence for Palaver's long-term
// identity. The identity is the only state that outlives a process; all
// session and key-agreement state is in-memory and dies with it.
//
// The identity is serialised as JSON and sealed in a passphrase-derived
// scrypt + ChaCha20-Poly1305 envelope. All methods are concurrency-safe via
// internal locking. Stored files live under the user's configured home
// directory.
package store
