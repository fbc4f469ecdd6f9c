package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
)

const googleUserInfoURL = "https://www.googleapis.com/oauth2/v3/userinfo"

// Google verifies Google OAuth2 access tokens against the userinfo endpoint.
type Google struct {
	userInfoURL string
}

func NewGoogle() *Google {
	return &Google{userInfoURL: googleUserInfoURL}
}

// NewGoogleWithEndpoint is used by tests to point at a stub server.
func NewGoogleWithEndpoint(url string) *Google {
	return &Google{userInfoURL: url}
}

func (g *Google) Name() string { return "google" }

func (g *Google) FetchProfile(ctx context.Context, accessToken string) (*Profile, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.userInfoURL, nil)
	if err != nil {
		return nil, fmt.Errorf("google: failed to build userinfo request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)

	resp, err := httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("google: userinfo request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("google: userinfo returned status %d", resp.StatusCode)
	}

	var body struct {
		Sub           string `json:"sub"`
		Email         string `json:"email"`
		EmailVerified bool   `json:"email_verified"`
		Name          string `json:"name"`
		Picture       string `json:"picture"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("google: failed to decode userinfo response: %w", err)
	}
	if body.Sub == "" {
		return nil, fmt.Errorf("google: userinfo response missing sub")
	}

	return &Profile{
		UID:           body.Sub,
		Email:         body.Email,
		EmailVerified: body.EmailVerified,
		Name:          body.Name,
		Picture:       body.Picture,
	}, nil
}
