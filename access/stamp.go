package access

// StampTenant derives the tenant to write onto a resource being created or
// updated. Precedence: the tenant the request addresses, then the actor's
// own tenant, then none. The value is computed server-side on every write;
// whatever tenant the client put in the payload is discarded.
func StampTenant(req Request) string {
	if req.Tenant != "" {
		return req.Tenant
	}
	if req.Actor != nil && req.Actor.Tenant != "" {
		return req.Actor.Tenant
	}
	return ""
}
