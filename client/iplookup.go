// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package client

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/danielhkuo/election-survey/identity"
)

// LookupIP asks an ipify-style service for the public IP. Any failure,
// including the timeout, yields identity.Unknown.
func LookupIP(ctx context.Context, hc *http.Client, url string, timeout time.Duration) string {
	ip, err := lookupIP(ctx, hc, url, timeout)
	if err != nil {
		slog.Warn("could not fetch IP", "error", err)
		return identity.Unknown
	}
	return ip
}

func lookupIP(ctx context.Context, hc *http.Client, url string, timeout time.Duration) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", err
	}
	resp, err := hc.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("ip lookup returned %s", resp.Status)
	}

	var body struct {
		IP string `json:"ip"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return "", fmt.Errorf("decode ip lookup: %w", err)
	}
	if ip := strings.TrimSpace(body.IP); ip != "" {
		return ip, nil
	}
	return "", fmt.Errorf("ip lookup returned no address")
}
