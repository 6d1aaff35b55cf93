package store

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"

	"github.com/atinyakov/FoodScan/internal/models"
)

// credentials is the JSON body of sign-up and sign-in requests.
type credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// authError extracts the store's own error message so it can be shown to
// the user verbatim.
type authError struct {
	Message     string `json:"msg"`
	Description string `json:"error_description"`
}

func (e authError) text() string {
	if e.Description != "" {
		return e.Description
	}
	return e.Message
}

// SignUp creates a new account with the given email and password.
// The account store's error message is surfaced verbatim.
func (c *Client) SignUp(ctx context.Context, email, password string) error {
	_, err := c.authRequest(ctx, "/auth/v1/signup", credentials{Email: email, Password: password})
	return err
}

// SignIn authenticates with email and password and persists the resulting
// session across restarts.
func (c *Client) SignIn(ctx context.Context, email, password string) (*models.Session, error) {
	body, err := c.authRequest(ctx, "/auth/v1/token?grant_type=password",
		credentials{Email: email, Password: password})
	if err != nil {
		return nil, err
	}

	var resp struct {
		AccessToken string `json:"access_token"`
		ExpiresIn   int64  `json:"expires_in"`
		User        struct {
			ID    string `json:"id"`
			Email string `json:"email"`
		} `json:"user"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("parse sign-in response: %w", err)
	}
	if resp.AccessToken == "" {
		return nil, fmt.Errorf("sign-in response without access token")
	}

	sess := &models.Session{
		UserID:      resp.User.ID,
		Email:       resp.User.Email,
		AccessToken: resp.AccessToken,
		ExpiresAt:   tokenExpiry(resp.AccessToken, resp.ExpiresIn),
	}
	if err := c.saveSession(sess); err != nil {
		return nil, err
	}

	c.log.Info("signed in", zap.String("user", sess.UserID))
	return sess, nil
}

// SignOut invalidates the remote session and always clears the local one,
// so the gate lands on the login form even if the remote call failed.
func (c *Client) SignOut(ctx context.Context) error {
	sess, err := c.Session()
	if err != nil {
		c.clearSession()
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/auth/v1/logout", nil)
	if err != nil {
		c.clearSession()
		return fmt.Errorf("build request: %w", err)
	}
	c.authorize(req, sess.AccessToken)

	resp, err := c.client.Do(req)
	c.clearSession()
	if err != nil {
		return fmt.Errorf("sign out failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("sign out failed: status %d", resp.StatusCode)
	}

	c.log.Info("signed out", zap.String("user", sess.UserID))
	return nil
}

// authRequest POSTs a JSON payload to an auth endpoint and returns the raw
// response body. Non-2xx answers become errors carrying the store's message.
func (c *Client) authRequest(ctx context.Context, path string, payload any) ([]byte, error) {
	b, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(b))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	c.authorize(req, "")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("auth request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read auth response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var ae authError
		if json.Unmarshal(body, &ae) == nil && ae.text() != "" {
			return nil, fmt.Errorf("%s", ae.text())
		}
		return nil, fmt.Errorf("auth request failed: status %d", resp.StatusCode)
	}

	return body, nil
}

// tokenExpiry reads the exp claim of the access token; expiresIn seconds is
// the fallback when the token is not parseable.
func tokenExpiry(token string, expiresIn int64) time.Time {
	var claims jwt.RegisteredClaims
	_, _ = jwt.ParseWithClaims(token, &claims, func(*jwt.Token) (any, error) { return nil, nil },
		jwt.WithoutClaimsValidation(),
	)
	if claims.ExpiresAt != nil {
		return claims.ExpiresAt.Time
	}
	if expiresIn > 0 {
		return time.Now().Add(time.Duration(expiresIn) * time.Second)
	}
	return time.Now().Add(time.Hour)
}
