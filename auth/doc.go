// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package auth provides token generation, hashing, and admin key checks.

# Admin Key

Survey creation is guarded by a single configured key, compared in
constant time:

	err := auth.ValidateAdminKey(r.Header.Get("X-Admin-Key"), cfg.AdminKey)

An empty configured key rejects every request.

# IP Hashing

Client IPs are never stored. HashIP keys HMAC-SHA256 with the server salt
and returns 64 hex characters:

	key := auth.HashIP(ip, cfg.IPSalt)

# Session Tokens

Clients identify their browser-style session with:

	token := auth.GenerateSessionToken(time.Now()) // session_<unix ms>_<hex>

# ID Generation

Random hex IDs for database records:

	id, err := auth.GenerateID(12)  // 24 hex characters
*/
package auth
