// Package client is a typed Go client for the resource APIs. Every call
// carries a bearer token from the configured oauth2 token source; the
// zero-dependency path is WithToken for a static token.
package client

import (
	"context"
	"net"
	"net/http"
	"net/url"
	"time"

	"golang.org/x/oauth2"
)

type Client struct {
	baseURL *url.URL
	http    *http.Client
}

// New builds a client for the service at addr. The address is the service
// root, e.g. "https://devices.relayview.example.com".
func New(ctx context.Context, addr string, options ...Option) (*Client, error) {
	opts, err := newOptions(options...)
	if err != nil {
		return nil, err
	}

	baseURL, err := url.Parse(addr)
	if err != nil {
		return nil, err
	}

	dialer := &net.Dialer{
		Timeout:   30 * time.Second,
		KeepAlive: 30 * time.Second,
	}
	httpClient := &http.Client{
		Transport: &http.Transport{
			DialContext:           dialer.DialContext,
			TLSHandshakeTimeout:   5 * time.Second,
			ResponseHeaderTimeout: 5 * time.Second,
			ExpectContinueTimeout: 1 * time.Second,
			TLSClientConfig:       opts.tlsConfig,
		},
	}

	source := opts.tokenSource(ctx, httpClient)
	if source != nil {
		if opts.tokenFile != "" {
			// A previously saved token lets us skip the first grant.
			saved, _ := loadTokenFromFile(opts.tokenFile)
			source = oauth2.ReuseTokenSource(saved, &storeOnChangeSource{
				file:   opts.tokenFile,
				source: source,
			})
		}
		ctx = context.WithValue(ctx, oauth2.HTTPClient, httpClient)
		httpClient = oauth2.NewClient(ctx, source)
	}

	return &Client{
		baseURL: baseURL,
		http:    httpClient,
	}, nil
}

func (c *Client) url(parts ...string) string {
	u := *c.baseURL
	u.Path, _ = url.JoinPath(u.Path, parts...)
	return u.String()
}
