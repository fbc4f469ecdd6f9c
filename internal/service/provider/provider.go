// Package provider exchanges provider-issued access tokens for user profiles.
// Each implementation wraps one identity provider's userinfo endpoint; the
// registry lets the social login flow dispatch on the provider name from the
// request path.
package provider

import (
	"context"
	"net/http"
	"sort"
	"time"
)

// Profile is the normalized identity returned by every provider.
type Profile struct {
	// UID is the provider's stable identifier for the user, never the email.
	UID           string
	Email         string
	EmailVerified bool
	Name          string
	Picture       string
}

// Provider verifies a provider access token and returns the profile behind it.
type Provider interface {
	Name() string
	FetchProfile(ctx context.Context, accessToken string) (*Profile, error)
}

// Registry holds the configured providers keyed by name.
type Registry struct {
	providers map[string]Provider
}

func NewRegistry(providers ...Provider) *Registry {
	r := &Registry{providers: make(map[string]Provider, len(providers))}
	for _, p := range providers {
		r.providers[p.Name()] = p
	}
	return r
}

// Get returns the provider for the name, or false when it is not configured.
func (r *Registry) Get(name string) (Provider, bool) {
	p, ok := r.providers[name]
	return p, ok
}

// Names returns the configured provider names in stable order.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.providers))
	for name := range r.providers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// httpClient is shared by the provider implementations. Userinfo endpoints
// answer fast; a short timeout keeps a slow provider from pinning logins.
var httpClient = &http.Client{Timeout: 10 * time.Second}
