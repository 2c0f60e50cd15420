package oauth

import (
	"context"
	"fmt"
	"strings"
	"time"

	"flightwatch-bot/pkg/logger"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"
)

const tokenPath = "/v1/security/oauth2/token"

// AmadeusOAuth handles the client credentials grant against the Amadeus API
type AmadeusOAuth struct {
	config      *clientcredentials.Config
	earlyExpiry time.Duration
	logger      logger.Logger
}

// NewAmadeusOAuth creates a new Amadeus OAuth handler. Tokens are renewed
// earlyExpiry before they actually expire.
func NewAmadeusOAuth(baseURL, clientID, clientSecret string, earlyExpiry time.Duration, logger logger.Logger) *AmadeusOAuth {
	config := &clientcredentials.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		TokenURL:     strings.TrimRight(baseURL, "/") + tokenPath,
		AuthStyle:    oauth2.AuthStyleInParams,
	}

	return &AmadeusOAuth{
		config:      config,
		earlyExpiry: earlyExpiry,
		logger:      logger,
	}
}

// GetTokenSource returns a caching token source that fetches a new access
// token once the current one is within earlyExpiry of its expiry
func (o *AmadeusOAuth) GetTokenSource(ctx context.Context) oauth2.TokenSource {
	return oauth2.ReuseTokenSourceWithExpiry(nil, &fetchingSource{ctx: ctx, oauth: o}, o.earlyExpiry)
}

// fetchingSource requests a fresh token on every call; caching is left to
// the wrapping reuse source
type fetchingSource struct {
	ctx   context.Context
	oauth *AmadeusOAuth
}

func (s *fetchingSource) Token() (*oauth2.Token, error) {
	token, err := s.oauth.config.Token(s.ctx)
	if err != nil {
		s.oauth.logger.Error("Failed to obtain Amadeus access token", "error", err)
		return nil, fmt.Errorf("failed to obtain access token: %w", err)
	}

	s.oauth.logger.Debug("Obtained Amadeus access token", "expiry", token.Expiry.Format(time.RFC3339))
	return token, nil
}
