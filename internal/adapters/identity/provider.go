package identity

import (
	"database/sql"
	"log/slog"
	"net/http"

	"erpcore/internal/domain"
)

// Config holds configuration for the identity provider boundary.
type Config struct {
	Provider string
	BaseURL  string
	APIKey   string
}

// NewProvider creates an identity provider from config. Provider "http"
// calls the external authentication backend; "local" or unknown keeps
// credentials in the local credentials table via the given hasher.
func NewProvider(cfg Config, db *sql.DB, hasher domain.PasswordHasher, client *http.Client) domain.IdentityProvider {
	switch cfg.Provider {
	case "http":
		if client == nil {
			client = http.DefaultClient
		}
		return &httpProvider{
			client:  client,
			baseURL: cfg.BaseURL,
			apiKey:  cfg.APIKey,
		}
	case "local":
		return &localProvider{db: db, hasher: hasher}
	default:
		slog.Warn("unknown identity provider, using local", "provider", cfg.Provider)
		return &localProvider{db: db, hasher: hasher}
	}
}
