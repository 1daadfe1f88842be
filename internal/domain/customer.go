package domain

import "github.com/google/uuid"

// Customer is the visit target. Location holds the already-resolved
// coordinates of the customer's address.
type Customer struct {
	ID       uuid.UUID
	Name     string
	Address  string
	Location Coordinates
}
