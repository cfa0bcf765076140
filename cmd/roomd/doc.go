// Command roomd is an in-memory broadcast chat room server. Every string
// posted to a room is delivered to every member in a single arrival
// order; clients follow the stream with long-polling GETs. Nothing is
// persisted and nothing is inspected: payloads are opaque strings.
package main
