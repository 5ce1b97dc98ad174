package domain

import "time"

// DeliveryGrant records one attempt to hand a purchased file to a customer.
// Granted is false when the storage provider rejected the permission; the
// viewer link is kept either way so support can re-deliver manually.
type DeliveryGrant struct {
	ID          int64
	ExternalRef string
	Email       string
	FileID      string
	CatalogID   int
	Granted     bool
	ViewerLink  string
	CreatedAt   time.Time
}
