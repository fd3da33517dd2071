package clients

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"strings"
	"sync"

	"github.com/ajitpratap0/nebula-io/pkg/config"
	"github.com/ajitpratap0/nebula-io/pkg/errors"
	"go.uber.org/zap"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"
)

// Authenticator adds credentials to an outgoing request.
type Authenticator interface {
	Apply(req *http.Request) error
}

// NewAuthenticator builds the authenticator named by the client settings. It
// returns nil when no auth plugin is configured.
func NewAuthenticator(c *config.ClientConfig, httpClient *http.Client, logger *zap.Logger) (Authenticator, error) {
	switch c.AuthPlugin {
	case "":
		return nil, nil
	case "token":
		auth, err := NewTokenAuth(c.AuthParams)
		if err != nil {
			return nil, err
		}
		return auth, nil
	case "oauth2":
		return NewOAuth2Auth(c.OAuth2, httpClient, logger), nil
	}
	return nil, errors.Newf(errors.ErrorTypeConfigValidation, "unsupported auth plugin %q", c.AuthPlugin)
}

// TokenAuth sends a static bearer token.
type TokenAuth struct {
	token string
}

// NewTokenAuth parses the token auth params: "token:<jwt>", "file:<path>" or
// the bare token.
func NewTokenAuth(params string) (*TokenAuth, error) {
	params = strings.TrimSpace(params)
	switch {
	case strings.HasPrefix(params, "token:"):
		params = strings.TrimPrefix(params, "token:")
	case strings.HasPrefix(params, "file:"):
		path := strings.TrimPrefix(params, "file:")
		if u, err := url.Parse(params); err == nil && u.Path != "" {
			path = u.Path
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, errors.Wrap(err, errors.ErrorTypeFile, fmt.Sprintf("failed to read token file %s", path))
		}
		params = string(data)
	}

	token := strings.TrimSpace(params)
	if token == "" {
		return nil, errors.New(errors.ErrorTypeConfigValidation, "token auth plugin requires auth_params")
	}
	return &TokenAuth{token: token}, nil
}

// Apply implements Authenticator
func (t *TokenAuth) Apply(req *http.Request) error {
	req.Header.Set("Authorization", "Bearer "+t.token)
	return nil
}

// OAuth2Auth fetches access tokens with the client-credentials grant and
// reuses them until they expire.
type OAuth2Auth struct {
	config     clientcredentials.Config
	httpClient *http.Client
	logger     *zap.Logger

	once   sync.Once
	source oauth2.TokenSource
}

// NewOAuth2Auth creates a client-credentials authenticator. Token requests
// go through httpClient when it is non-nil.
func NewOAuth2Auth(c config.OAuth2Config, httpClient *http.Client, logger *zap.Logger) *OAuth2Auth {
	if logger == nil {
		logger = zap.NewNop()
	}

	cc := clientcredentials.Config{
		ClientID:     c.ClientID,
		ClientSecret: c.ClientSecret,
		TokenURL:     c.TokenURL,
		Scopes:       c.Scopes,
	}
	if c.Audience != "" {
		cc.EndpointParams = url.Values{"audience": {c.Audience}}
	}

	return &OAuth2Auth{
		config:     cc,
		httpClient: httpClient,
		logger:     logger.With(zap.String("component", "oauth2_auth")),
	}
}

func (o *OAuth2Auth) tokenSource() oauth2.TokenSource {
	o.once.Do(func() {
		ctx := context.Background()
		if o.httpClient != nil {
			ctx = context.WithValue(ctx, oauth2.HTTPClient, o.httpClient)
		}
		o.source = o.config.TokenSource(ctx)
	})
	return o.source
}

// Token returns a valid access token, fetching one when needed.
func (o *OAuth2Auth) Token() (*oauth2.Token, error) {
	tok, err := o.tokenSource().Token()
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeConnection,
			fmt.Sprintf("failed to obtain oauth2 token from %s", o.config.TokenURL))
	}
	o.logger.Debug("token acquired", zap.Time("expires_at", tok.Expiry))
	return tok, nil
}

// Apply implements Authenticator
func (o *OAuth2Auth) Apply(req *http.Request) error {
	tok, err := o.Token()
	if err != nil {
		return err
	}
	tok.SetAuthHeader(req)
	return nil
}
