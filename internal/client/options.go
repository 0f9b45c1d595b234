package client

import (
	"context"
	"crypto/tls"
	"net/http"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"
)

type options struct {
	tlsConfig   *tls.Config
	tokenFile   string
	tokenSource func(ctx context.Context, httpClient *http.Client) oauth2.TokenSource
}

type Option func(o *options) error

func newOptions(opts ...Option) (*options, error) {
	o := &options{
		tokenSource: func(context.Context, *http.Client) oauth2.TokenSource { return nil },
	}
	for _, opt := range opts {
		if err := opt(o); err != nil {
			return nil, err
		}
	}
	return o, nil
}

// WithTLSConfig replaces the transport TLS configuration, for example to
// trust a private CA.
func WithTLSConfig(config *tls.Config) Option {
	return func(o *options) error {
		o.tlsConfig = config
		return nil
	}
}

// WithToken authenticates every request with a fixed bearer token.
func WithToken(token string) Option {
	return func(o *options) error {
		o.tokenSource = func(context.Context, *http.Client) oauth2.TokenSource {
			return oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token})
		}
		return nil
	}
}

// WithTokenSource authenticates requests with tokens drawn from source.
func WithTokenSource(source oauth2.TokenSource) Option {
	return func(o *options) error {
		o.tokenSource = func(context.Context, *http.Client) oauth2.TokenSource {
			return source
		}
		return nil
	}
}

// WithClientCredentials authenticates as a machine principal using the
// client-credentials grant against tokenURL.
func WithClientCredentials(clientID, clientSecret, tokenURL string, scopes ...string) Option {
	return func(o *options) error {
		o.tokenSource = func(ctx context.Context, httpClient *http.Client) oauth2.TokenSource {
			config := &clientcredentials.Config{
				ClientID:     clientID,
				ClientSecret: clientSecret,
				TokenURL:     tokenURL,
				Scopes:       scopes,
			}
			return config.TokenSource(context.WithValue(ctx, oauth2.HTTPClient, httpClient))
		}
		return nil
	}
}

// WithTokenFile persists tokens to file as they are refreshed, so the next
// client can resume the session without re-authenticating.
func WithTokenFile(file string) Option {
	return func(o *options) error {
		o.tokenFile = file
		return nil
	}
}
