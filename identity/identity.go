// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

// Package identity derives server-side voter identities from requests.
package identity

import (
	"net"
	"net/http"
	"strings"

	"github.com/danielhkuo/election-survey/auth"
)

// Unknown is used when no address can be derived from the request.
const Unknown = "unknown"

// Identity is the server-side fraud-prevention key of a voter.
// Key is a salted digest; the raw address is never kept.
type Identity struct {
	Key string
}

// Short returns a log-safe prefix of the key.
func (id Identity) Short() string {
	if len(id.Key) > 12 {
		return id.Key[:12]
	}
	return id.Key
}

// Resolver derives identities from requests.
type Resolver struct {
	salt string
}

func NewResolver(salt string) *Resolver {
	return &Resolver{salt: salt}
}

// Resolve hashes the requester's address with the resolver's salt.
func (res *Resolver) Resolve(r *http.Request) Identity {
	return Identity{Key: auth.HashIP(ClientIP(r), res.salt)}
}

// ClientIP extracts the client IP address
// Checks X-Forwarded-For, X-Real-IP, then falls back to RemoteAddr
func ClientIP(r *http.Request) string {
	// Check X-Forwarded-For (load balancers), first IP in chain
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		if first = strings.TrimSpace(first); first != "" {
			return first
		}
	}

	// Check X-Real-IP (nginx)
	if xri := strings.TrimSpace(r.Header.Get("X-Real-IP")); xri != "" {
		return xri
	}

	addr := strings.TrimSpace(r.RemoteAddr)
	if addr == "" {
		return Unknown
	}
	if host, _, err := net.SplitHostPort(addr); err == nil {
		if host == "" {
			return Unknown
		}
		return host
	}
	return addr
}
