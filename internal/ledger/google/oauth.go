package google

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"golang.org/x/oauth2"
	googleoauth "golang.org/x/oauth2/google"
	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"
)

// oauthCredentials holds an installed-app client and a token saved by
// cmd/oauth-init. Either half may come from a file or inline JSON.
type oauthCredentials struct {
	client []byte
	token  []byte
}

func envOrFile(jsonKey, fileKey string) ([]byte, error) {
	if v := strings.TrimSpace(os.Getenv(jsonKey)); v != "" {
		return []byte(v), nil
	}
	if p := strings.TrimSpace(os.Getenv(fileKey)); p != "" {
		b, err := os.ReadFile(p)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", fileKey, err)
		}
		return b, nil
	}
	return nil, nil
}

// oauthFromEnv returns nil credentials when no OAuth token is configured.
func oauthFromEnv() (*oauthCredentials, error) {
	token, err := envOrFile("GOOGLE_OAUTH_TOKEN_JSON", "GOOGLE_OAUTH_TOKEN_FILE")
	if err != nil || token == nil {
		return nil, err
	}
	client, err := envOrFile("GOOGLE_OAUTH_CLIENT_JSON", "GOOGLE_OAUTH_CLIENT_FILE")
	if err != nil {
		return nil, err
	}
	if client == nil {
		return nil, errors.New("OAuth token set without GOOGLE_OAUTH_CLIENT_JSON or GOOGLE_OAUTH_CLIENT_FILE")
	}
	return &oauthCredentials{client: client, token: token}, nil
}

// OAuthConfig parses an installed-app client for read-only Sheets access.
func OAuthConfig(clientJSON []byte) (*oauth2.Config, error) {
	cfg, err := googleoauth.ConfigFromJSON(clientJSON, gsheet.SpreadsheetsReadonlyScope)
	if err != nil {
		return nil, fmt.Errorf("oauth client config: %w", err)
	}
	return cfg, nil
}

func (o *oauthCredentials) service(ctx context.Context) (*gsheet.Service, error) {
	cfg, err := OAuthConfig(o.client)
	if err != nil {
		return nil, err
	}
	var tok oauth2.Token
	if err := json.Unmarshal(o.token, &tok); err != nil {
		return nil, fmt.Errorf("decode oauth token: %w", err)
	}
	if tok.RefreshToken == "" && tok.AccessToken == "" {
		return nil, errors.New("oauth token has neither access nor refresh token")
	}
	return gsheet.NewService(ctx, goption.WithTokenSource(cfg.TokenSource(ctx, &tok)))
}
