package salesforce

import (
	"context"
	"fmt"
	"strings"

	"github.com/rotisserie/eris"
)

// User represents a Salesforce User record carrying a rep's contact and
// home address fields.
type User struct {
	ID         string   `json:"Id" salesforce:"Id"`
	Name       string   `json:"Name" salesforce:"Name"`
	Email      string   `json:"Email" salesforce:"Email"`
	Phone      string   `json:"Phone" salesforce:"Phone"`
	Street     string   `json:"Street" salesforce:"Street"`
	City       string   `json:"City" salesforce:"City"`
	State      string   `json:"State" salesforce:"State"`
	PostalCode string   `json:"PostalCode" salesforce:"PostalCode"`
	Latitude   *float64 `json:"Latitude" salesforce:"Latitude"`
	Longitude  *float64 `json:"Longitude" salesforce:"Longitude"`
}

// userFields are the SOQL fields selected for User queries.
var userFields = []string{
	"Id", "Name", "Email", "Phone",
	"Street", "City", "State", "PostalCode",
	"Latitude", "Longitude",
}

// ListActiveFieldReps queries Salesforce for active users holding the
// given profile name, typically "Field Sales Rep".
func ListActiveFieldReps(ctx context.Context, c Client, profileName string) ([]User, error) {
	soql := fmt.Sprintf(
		"SELECT %s FROM User WHERE IsActive = true AND Profile.Name = '%s' ORDER BY Name",
		strings.Join(userFields, ", "),
		escapeSoql(profileName),
	)

	var users []User
	if err := c.Query(ctx, soql, &users); err != nil {
		return nil, eris.Wrap(err, fmt.Sprintf("sf: list reps for profile %s", profileName))
	}
	return users, nil
}

// escapeSoql escapes single quotes in SOQL string literals to prevent injection.
func escapeSoql(s string) string {
	return strings.ReplaceAll(s, "'", "\\'")
}
