package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
)

const facebookGraphURL = "https://graph.facebook.com/v19.0/me"

// Facebook verifies Facebook access tokens against the Graph API.
type Facebook struct {
	graphURL string
}

func NewFacebook() *Facebook {
	return &Facebook{graphURL: facebookGraphURL}
}

// NewFacebookWithEndpoint is used by tests to point at a stub server.
func NewFacebookWithEndpoint(url string) *Facebook {
	return &Facebook{graphURL: url}
}

func (f *Facebook) Name() string { return "facebook" }

func (f *Facebook) FetchProfile(ctx context.Context, accessToken string) (*Profile, error) {
	params := url.Values{}
	params.Set("fields", "id,name,email,picture.type(large)")
	params.Set("access_token", accessToken)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.graphURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("facebook: failed to build graph request: %w", err)
	}

	resp, err := httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("facebook: graph request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("facebook: graph returned status %d", resp.StatusCode)
	}

	var body struct {
		ID      string `json:"id"`
		Name    string `json:"name"`
		Email   string `json:"email"`
		Picture struct {
			Data struct {
				URL string `json:"url"`
			} `json:"data"`
		} `json:"picture"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("facebook: failed to decode graph response: %w", err)
	}
	if body.ID == "" {
		return nil, fmt.Errorf("facebook: graph response missing id")
	}

	// Facebook only returns an email the user has confirmed with them.
	return &Profile{
		UID:           body.ID,
		Email:         body.Email,
		EmailVerified: body.Email != "",
		Name:          body.Name,
		Picture:       body.Picture.Data.URL,
	}, nil
}
