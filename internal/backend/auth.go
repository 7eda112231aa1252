package backend

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Session holds the tokens issued by the auth endpoint. It is persisted to
// disk between runs so the daemon can resubscribe without re-prompting.
type Session struct {
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token"`
	UserID       string    `json:"user_id"`
	Email        string    `json:"email"`
	ExpiresAt    time.Time `json:"expires_at"`
}

// Expired reports whether the access token is past (or within a minute of)
// its expiry.
func (s *Session) Expired() bool {
	if s == nil || s.AccessToken == "" {
		return true
	}
	if s.ExpiresAt.IsZero() {
		return false
	}
	return time.Now().After(s.ExpiresAt.Add(-time.Minute))
}

type tokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int    `json:"expires_in"`
	User         struct {
		ID    string `json:"id"`
		Email string `json:"email"`
	} `json:"user"`
}

func (c *Client) tokenRequest(ctx context.Context, grant string, body any) (*Session, error) {
	endpoint, err := c.endpoint("auth", "v1", "token")
	if err != nil {
		return nil, err
	}
	endpoint += "?grant_type=" + grant

	var resp tokenResponse
	if err := c.do(ctx, http.MethodPost, endpoint, body, &resp); err != nil {
		return nil, err
	}
	if strings.TrimSpace(resp.AccessToken) == "" {
		return nil, errors.New("backend: auth response missing access token")
	}
	session := &Session{
		AccessToken:  resp.AccessToken,
		RefreshToken: resp.RefreshToken,
		UserID:       resp.User.ID,
		Email:        resp.User.Email,
	}
	if resp.ExpiresIn > 0 {
		session.ExpiresAt = time.Now().Add(time.Duration(resp.ExpiresIn) * time.Second)
	}
	return session, nil
}

// SignIn exchanges credentials for a session and attaches it to the client.
func (c *Client) SignIn(ctx context.Context, email, password string) (*Session, error) {
	email = strings.TrimSpace(email)
	if email == "" {
		return nil, errors.New("backend: email required")
	}
	if password == "" {
		return nil, errors.New("backend: password required")
	}
	session, err := c.tokenRequest(ctx, "password", map[string]string{
		"email":    email,
		"password": password,
	})
	if err != nil {
		return nil, err
	}
	c.session = session
	return session, nil
}

// Refresh exchanges the refresh token for a new session.
func (c *Client) Refresh(ctx context.Context) (*Session, error) {
	if c.session == nil || strings.TrimSpace(c.session.RefreshToken) == "" {
		return nil, ErrUnauthorized
	}
	session, err := c.tokenRequest(ctx, "refresh_token", map[string]string{
		"refresh_token": c.session.RefreshToken,
	})
	if err != nil {
		return nil, err
	}
	c.session = session
	return session, nil
}

// SignOut revokes the session server-side and clears it locally. Revocation
// failures are ignored beyond the local clear; the token expires on its own.
func (c *Client) SignOut(ctx context.Context) error {
	if c.session == nil {
		return nil
	}
	endpoint, err := c.endpoint("auth", "v1", "logout")
	if err == nil {
		_ = c.do(ctx, http.MethodPost, endpoint, nil, nil)
	}
	c.session = nil
	return nil
}

// LoadSession reads a persisted session from path. A missing file returns
// (nil, nil) so callers can treat it as signed out.
func LoadSession(path string) (*Session, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("read session: %w", err)
	}
	var session Session
	if err := json.Unmarshal(data, &session); err != nil {
		return nil, fmt.Errorf("parse session: %w", err)
	}
	if session.AccessToken == "" {
		return nil, nil
	}
	return &session, nil
}

// SaveSession persists the session with owner-only permissions. A nil session
// removes the file.
func SaveSession(path string, session *Session) error {
	if session == nil {
		if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("remove session: %w", err)
		}
		return nil
	}
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return fmt.Errorf("create session directory: %w", err)
		}
	}
	data, err := json.MarshalIndent(session, "", "  ")
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("write session: %w", err)
	}
	return nil
}
