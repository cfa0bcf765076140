// Package crypto exposes the minimal primitives used by Palaver.
//
// Contents
//
//   - X25519 key generation, clamping and Diffie–Hellman (GenerateX25519, DH)
//   - Ed25519 key generation, signing and verification (GenerateEd25519,
//     SignEd25519, VerifyEd25519)
//   - Triple Diffie–Hellman pairwise secrets and auth tokens (TripleDH,
//     AuthToken)
//   - HKDF-SHA256 expansion for key shares (HKDF32)
//   - Group-key authenticated encryption (Seal, Open)
//   - Short public-key fingerprints for display/logging (Fingerprint)
//
// # Notes
//
// Keys and derived secrets are returned as fixed-size arrays (the key types
// defined in internal/domain, or [32]byte) to avoid accidental
// reallocations; ciphertexts are byte slices. Callers should treat returned secrets as
// sensitive and wipe them with internal/util/memzero when practical to reduce
// lifetime in memory.
package crypto
