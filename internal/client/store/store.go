// Package store implements the client for the account & data store: auth,
// persisted sessions, the food_results collection and the image bucket.
// The store is an external service; this package only speaks its REST
// contract and never owns data itself.
package store

import (
	"encoding/json"
	"fmt"
	"net/http"
	"os"

	"go.uber.org/zap"

	"github.com/atinyakov/FoodScan/internal/errs"
	"github.com/atinyakov/FoodScan/internal/models"
)

// Client talks to the account & data store.
type Client struct {
	client      *http.Client
	baseURL     string
	anonKey     string
	sessionPath string
	log         *zap.Logger
}

// New constructs a Client. sessionPath is where the signed-in session is
// persisted across restarts.
func New(client *http.Client, baseURL, anonKey, sessionPath string, log *zap.Logger) *Client {
	return &Client{
		client:      client,
		baseURL:     baseURL,
		anonKey:     anonKey,
		sessionPath: sessionPath,
		log:         log,
	}
}

// Session returns the persisted session if it is still valid.
// Returns errs.ErrNoSession when no session file exists or the token
// has expired. Callers re-read the session before every remote call
// instead of caching it.
func (c *Client) Session() (*models.Session, error) {
	data, err := os.ReadFile(c.sessionPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errs.ErrNoSession
		}
		return nil, fmt.Errorf("read session: %w", err)
	}

	var sess models.Session
	if err := json.Unmarshal(data, &sess); err != nil {
		return nil, fmt.Errorf("parse session: %w", err)
	}
	if !sess.Valid() {
		return nil, errs.ErrNoSession
	}
	return &sess, nil
}

// saveSession persists the session to disk.
func (c *Client) saveSession(sess *models.Session) error {
	data, err := json.MarshalIndent(sess, "", "  ")
	if err != nil {
		return err
	}
	if err := os.WriteFile(c.sessionPath, data, 0o600); err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	return nil
}

// clearSession removes the persisted session, if any.
func (c *Client) clearSession() {
	if err := os.Remove(c.sessionPath); err != nil && !os.IsNotExist(err) {
		c.log.Warn("failed to remove session file", zap.Error(err))
	}
}

// authorize sets the headers the store expects on every request.
func (c *Client) authorize(req *http.Request, token string) {
	req.Header.Set("apikey", c.anonKey)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
}
