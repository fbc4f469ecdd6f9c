package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
)

const (
	githubUserURL   = "https://api.github.com/user"
	githubEmailsURL = "https://api.github.com/user/emails"
)

// GitHub verifies GitHub access tokens against the REST API. The primary
// email is not part of the user endpoint and needs a second call.
type GitHub struct {
	userURL   string
	emailsURL string
}

func NewGitHub() *GitHub {
	return &GitHub{userURL: githubUserURL, emailsURL: githubEmailsURL}
}

// NewGitHubWithEndpoints is used by tests to point at a stub server.
func NewGitHubWithEndpoints(userURL, emailsURL string) *GitHub {
	return &GitHub{userURL: userURL, emailsURL: emailsURL}
}

func (g *GitHub) Name() string { return "github" }

func (g *GitHub) FetchProfile(ctx context.Context, accessToken string) (*Profile, error) {
	var user struct {
		ID        int64  `json:"id"`
		Login     string `json:"login"`
		Name      string `json:"name"`
		Email     string `json:"email"`
		AvatarURL string `json:"avatar_url"`
	}
	if err := g.getJSON(ctx, g.userURL, accessToken, &user); err != nil {
		return nil, err
	}
	if user.ID == 0 {
		return nil, fmt.Errorf("github: user response missing id")
	}

	profile := &Profile{
		UID:     strconv.FormatInt(user.ID, 10),
		Email:   user.Email,
		Name:    user.Name,
		Picture: user.AvatarURL,
	}
	if profile.Name == "" {
		profile.Name = user.Login
	}

	// The public email can be unset; fall back to the primary verified one.
	if profile.Email == "" {
		var emails []struct {
			Email    string `json:"email"`
			Primary  bool   `json:"primary"`
			Verified bool   `json:"verified"`
		}
		if err := g.getJSON(ctx, g.emailsURL, accessToken, &emails); err != nil {
			return nil, err
		}
		for _, e := range emails {
			if e.Primary && e.Verified {
				profile.Email = e.Email
				profile.EmailVerified = true
				break
			}
		}
	} else {
		profile.EmailVerified = true
	}

	return profile, nil
}

func (g *GitHub) getJSON(ctx context.Context, url, accessToken string, dest interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("github: failed to build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)
	req.Header.Set("Accept", "application/vnd.github+json")

	resp, err := httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("github: request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("github: api returned status %d", resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(dest); err != nil {
		return fmt.Errorf("github: failed to decode response: %w", err)
	}
	return nil
}
