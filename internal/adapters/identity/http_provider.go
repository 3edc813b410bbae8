package identity

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"erpcore/internal/domain"
)

type httpProvider struct {
	client  *http.Client
	baseURL string
	apiKey  string
}

type accountPayload struct {
	Email    string `json:"email,omitempty"`
	Password string `json:"password"`
}

type accountResponse struct {
	AccountID string `json:"account_id"`
}

func (p *httpProvider) CreateAccount(ctx context.Context, email, password string) (string, error) {
	var out accountResponse
	err := p.do(ctx, http.MethodPost, "/accounts", accountPayload{Email: email, Password: password}, &out)
	if err != nil {
		return "", err
	}
	if out.AccountID == "" {
		return "", fmt.Errorf("identity provider returned empty account id")
	}
	return out.AccountID, nil
}

func (p *httpProvider) UpdatePassword(ctx context.Context, accountID, password string) error {
	return p.do(ctx, http.MethodPut, "/accounts/"+accountID+"/password", accountPayload{Password: password}, nil)
}

func (p *httpProvider) VerifyPassword(ctx context.Context, email, password string) (string, error) {
	var out accountResponse
	err := p.do(ctx, http.MethodPost, "/accounts/verify", accountPayload{Email: email, Password: password}, &out)
	if err != nil {
		return "", err
	}
	return out.AccountID, nil
}

func (p *httpProvider) do(ctx context.Context, method, path string, payload any, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to encode request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, method, p.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if p.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+p.apiKey)
	}
	resp, err := p.client.Do(req)
	if err != nil {
		// Network failure looks the same as a down provider to the caller.
		return fmt.Errorf("%w: %v", domain.ErrIdentityProviderUnavailable, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode >= 500:
		return fmt.Errorf("%w: provider returned status %d", domain.ErrIdentityProviderUnavailable, resp.StatusCode)
	case resp.StatusCode == http.StatusUnauthorized, resp.StatusCode == http.StatusForbidden:
		return fmt.Errorf("identity provider rejected credentials: status %d", resp.StatusCode)
	case resp.StatusCode >= 400:
		return fmt.Errorf("identity provider returned status %d", resp.StatusCode)
	}
	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("failed to decode provider response: %w", err)
		}
	}
	return nil
}
