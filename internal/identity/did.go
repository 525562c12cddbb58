package identity

import (
	"encoding/hex"
	"fmt"

	"github.com/google/uuid"
)

// NewDID derives a decentralized identifier for a username:
// did:identity:<username>-<12 hex chars>. The suffix is random; uniqueness
// is enforced by the identities.did database constraint, not here.
func NewDID(username string) string {
	u := uuid.New()
	suffix := hex.EncodeToString(u[:])[:12]
	return fmt.Sprintf("did:identity:%s-%s", username, suffix)
}
