package client

import (
	"encoding/json"
	"os"
	"path/filepath"

	"golang.org/x/oauth2"
)

// storeOnChangeSource saves the token to disk whenever the wrapped source
// hands out a new one.
type storeOnChangeSource struct {
	file      string
	source    oauth2.TokenSource
	lastToken *oauth2.Token
}

var _ oauth2.TokenSource = &storeOnChangeSource{}

func (s *storeOnChangeSource) Token() (*oauth2.Token, error) {
	next, err := s.source.Token()
	if err != nil {
		return nil, err
	}
	if next != s.lastToken {
		s.lastToken = next
		if err := saveTokenToFile(s.file, next); err != nil {
			return nil, err
		}
	}
	return next, nil
}

func loadTokenFromFile(file string) (*oauth2.Token, error) {
	f, err := os.Open(file) // #nosec G304
	if err != nil {
		return nil, err
	}
	defer f.Close()

	token := &oauth2.Token{}
	if err := json.NewDecoder(f).Decode(token); err != nil {
		return nil, err
	}
	return token, nil
}

func saveTokenToFile(file string, token *oauth2.Token) error {
	if err := os.MkdirAll(filepath.Dir(file), 0700); err != nil {
		return err
	}
	data, err := json.Marshal(token)
	if err != nil {
		return err
	}
	return os.WriteFile(file, data, 0600)
}
