package console

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// tokenLeeway is subtracted from the token expiry so a token is refreshed
// before the console would reject it mid-request.
const tokenLeeway = 60 * time.Second

// tokenSource acquires and caches an OAuth2 client-credentials access token
// for the console. Safe for concurrent use.
type tokenSource struct {
	tokenURL     string
	clientID     string
	clientSecret string
	hc           *http.Client

	mu        sync.Mutex
	token     string
	expiresAt time.Time
}

func newTokenSource(tokenURL, clientID, clientSecret string) *tokenSource {
	return &tokenSource{
		tokenURL:     tokenURL,
		clientID:     clientID,
		clientSecret: clientSecret,
		hc:           &http.Client{Timeout: 10 * time.Second},
	}
}

// Token returns a cached access token, fetching a fresh one when the cached
// token is within the leeway of its expiry.
func (s *tokenSource) Token(ctx context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.token != "" && time.Now().Before(s.expiresAt.Add(-tokenLeeway)) {
		return s.token, nil
	}

	form := url.Values{}
	form.Set("grant_type", "client_credentials")
	form.Set("client_id", s.clientID)
	form.Set("client_secret", s.clientSecret)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.tokenURL, strings.NewReader(form.Encode()))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := s.hc.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("token endpoint returned status %d", resp.StatusCode)
	}

	var body struct {
		AccessToken string `json:"access_token"`
		ExpiresIn   int64  `json:"expires_in"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return "", fmt.Errorf("failed to decode token response: %w", err)
	}
	if body.AccessToken == "" {
		return "", fmt.Errorf("token endpoint returned no access token")
	}

	s.token = body.AccessToken
	s.expiresAt = tokenExpiry(body.AccessToken, body.ExpiresIn)
	return s.token, nil
}

// tokenExpiry derives when an access token expires. The token's own exp claim
// is authoritative when present (unverified parse; the console verifies the
// signature, we only schedule the refresh), falling back to the response's
// expires_in, then to a conservative five minutes.
func tokenExpiry(token string, expiresIn int64) time.Time {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err == nil {
		if exp, err := claims.GetExpirationTime(); err == nil && exp != nil {
			return exp.Time
		}
	}
	if expiresIn > 0 {
		return time.Now().Add(time.Duration(expiresIn) * time.Second)
	}
	return time.Now().Add(5 * time.Minute)
}
