package domain

// UserProfile is the bridged view of a signed-in customer: the identity
// provider supplies the session, the catalog supplies the purchase record.
// A zero-value profile means "signed out".
type UserProfile struct {
	Email        string `json:"email"`
	CatalogID    int    `json:"catalog_id,omitempty"`
	PurchasedIDs []int  `json:"purchased_ids"`
	Blocked      bool   `json:"blocked"`
}

// HasPurchased reports whether the product id is in the purchased set.
func (u *UserProfile) HasPurchased(productID int) bool {
	for _, id := range u.PurchasedIDs {
		if id == productID {
			return true
		}
	}
	return false
}

// MergePurchased unions the given product ids into the purchased set,
// preserving existing order and never introducing duplicates.
func MergePurchased(existing, incoming []int) []int {
	seen := make(map[int]struct{}, len(existing))
	merged := make([]int, 0, len(existing)+len(incoming))
	for _, id := range existing {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		merged = append(merged, id)
	}
	for _, id := range incoming {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		merged = append(merged, id)
	}
	return merged
}
