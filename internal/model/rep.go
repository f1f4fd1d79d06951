package model

// SalesRep is a field sales rep as loaded from the roster provider.
// Read-only to the engine; Color is display-only.
type SalesRep struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	Email       string  `json:"email,omitempty"`
	Phone       string  `json:"phone,omitempty"`
	Color       string  `json:"color,omitempty"`
	HomeAddress Address `json:"home_address"`
}
