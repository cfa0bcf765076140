package group

import (
	"crypto/sha256"
	"fmt"
	"sort"

	"palaver/internal/domain"
)

// SessionID identifies one group-key epoch.
type SessionID = [32]byte

// ComputeSessionID hashes nickname || ephemeral key bytes for every member
// in nickname order. Honest members with the same view derive the same id
// regardless of the order they learned about each other.
func ComputeSessionID(members []domain.UnauthenticatedParticipant) (SessionID, error) {
	var sid SessionID
	if len(members) == 0 {
		return sid, fmt.Errorf("session id: %w: empty participant set", domain.ErrState)
	}
	sorted := make([]domain.UnauthenticatedParticipant, len(members))
	copy(sorted, members)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].ID.Nickname < sorted[j].ID.Nickname
	})

	h := sha256.New()
	for _, m := range sorted {
		if m.Ephemeral.IsZero() {
			return sid, fmt.Errorf("session id: %w: %s has no ephemeral key", domain.ErrParse, m.ID.Nickname)
		}
		h.Write([]byte(m.ID.Nickname))
		h.Write(m.Ephemeral.Bytes())
	}
	copy(sid[:], h.Sum(nil))
	return sid, nil
}
