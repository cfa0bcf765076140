// Package room is the transport layer: an HTTP client for the broadcast
// chat room served by roomd, plus the timer scheduler the engine uses for
// liveness. The room delivers every posted string to every member in a
// single arrival order, which is the ordering the transcript chain relies
// on.
package room
