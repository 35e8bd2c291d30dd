// Package oauth verifies third-party identity tokens.
package oauth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	"go.uber.org/zap"

	"github.com/padraicbc/racelog/logger"
)

// DefaultTokenInfoURL is Google's ID token introspection endpoint.
const DefaultTokenInfoURL = "https://oauth2.googleapis.com/tokeninfo"

var (
	ErrInvalidToken  = errors.New("invalid google token")
	ErrIncomplete    = errors.New("google profile is missing email or name")
	ErrWrongAudience = errors.New("google token issued for another client")
)

// Identity is the verified subset of a Google profile.
type Identity struct {
	Subject string
	Email   string
	Name    string
	Picture string
}

// Verifier checks an ID token and returns the identity it asserts.
type Verifier interface {
	Verify(ctx context.Context, idToken string) (*Identity, error)
}

// GoogleVerifier validates ID tokens against the tokeninfo endpoint.
type GoogleVerifier struct {
	clientID string
	endpoint string
	client   *retryablehttp.Client
}

type Option func(*GoogleVerifier)

// WithEndpoint overrides the tokeninfo URL.
func WithEndpoint(u string) Option {
	return func(g *GoogleVerifier) { g.endpoint = u }
}

// NewGoogleVerifier accepts tokens whose audience is clientID.
func NewGoogleVerifier(clientID string, log *zap.Logger, opts ...Option) *GoogleVerifier {
	rc := retryablehttp.NewClient()
	rc.HTTPClient.Timeout = 10 * time.Second
	rc.RetryMax = 2
	rc.RetryWaitMin = 200 * time.Millisecond
	rc.RetryWaitMax = 2 * time.Second
	rc.Logger = logger.NewLeveled(log, "google")

	g := &GoogleVerifier{clientID: clientID, endpoint: DefaultTokenInfoURL, client: rc}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

type tokenInfo struct {
	Aud           string `json:"aud"`
	Sub           string `json:"sub"`
	Email         string `json:"email"`
	EmailVerified string `json:"email_verified"`
	Name          string `json:"name"`
	Picture       string `json:"picture"`
}

func (g *GoogleVerifier) Verify(ctx context.Context, idToken string) (*Identity, error) {
	if idToken == "" {
		return nil, ErrInvalidToken
	}

	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet,
		g.endpoint+"?id_token="+url.QueryEscape(idToken), nil)
	if err != nil {
		return nil, fmt.Errorf("building tokeninfo request: %w", err)
	}

	resp, err := g.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("calling tokeninfo: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusBadRequest || resp.StatusCode == http.StatusUnauthorized:
		return nil, ErrInvalidToken
	case resp.StatusCode != http.StatusOK:
		return nil, fmt.Errorf("tokeninfo returned %d", resp.StatusCode)
	}

	var info tokenInfo
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		return nil, fmt.Errorf("decoding tokeninfo: %w", err)
	}
	if info.Aud != g.clientID {
		return nil, ErrWrongAudience
	}
	if info.Email == "" || info.Name == "" || info.EmailVerified == "false" {
		return nil, ErrIncomplete
	}

	return &Identity{
		Subject: info.Sub,
		Email:   info.Email,
		Name:    info.Name,
		Picture: info.Picture,
	}, nil
}
