package models

import "time"

// Tenant is an isolation boundary. Tenants form a forest: a root tenant has
// no parent, every other tenant points at exactly one parent tenant.
type Tenant struct {
	TenantID  string    `json:"tenantid" bson:"tenantid"`
	Name      string    `json:"name" bson:"name"`
	Parent    string    `json:"parent,omitempty" bson:"parent,omitempty"`
	Domains   []string  `json:"domains,omitempty" bson:"domains,omitempty"`
	CreatedAt time.Time `json:"createdAt" bson:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt,omitempty" bson:"updatedAt,omitempty"`
}
