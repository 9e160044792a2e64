package types

import "fmt"

// Tier is a subscription level.
type Tier string

const (
	TierFree Tier = "free"
	TierPro  Tier = "pro"
)

// ParseTier validates a tier name.
func ParseTier(s string) (Tier, error) {
	switch Tier(s) {
	case TierFree, TierPro:
		return Tier(s), nil
	default:
		return "", fmt.Errorf("unknown tier %q", s)
	}
}

// UserProfile is the per-user row kept in the profile store.
type UserProfile struct {
	ID    string `json:"id"`
	Tier  Tier   `json:"tier"`
	Email string `json:"email,omitempty"`
}
