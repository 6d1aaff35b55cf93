package store

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/atinyakov/FoodScan/internal/errs"
	"github.com/atinyakov/FoodScan/internal/models"
)

// recordsPath is the REST path of the scan history collection.
const recordsPath = "/rest/v1/food_results"

// insertPayload is the writable subset of a scan record; id and created_at
// are assigned by the store and never sent.
type insertPayload struct {
	UserID   string  `json:"user_id"`
	FoodName string  `json:"food_name"`
	Calories string  `json:"calories"`
	Carbs    string  `json:"carbs"`
	Fat      string  `json:"fat"`
	Protein  string  `json:"protein"`
	Accuracy float64 `json:"accuracy"`
	ImageURL string  `json:"image_url,omitempty"`
}

// InsertScan writes one scan record under the session's user and returns the
// stored representation with the server-assigned id and creation timestamp.
func (c *Client) InsertScan(ctx context.Context, sess *models.Session, rec models.ScanRecord) (*models.ScanRecord, error) {
	b, err := json.Marshal(insertPayload{
		UserID:   sess.UserID,
		FoodName: rec.FoodName,
		Calories: rec.Calories,
		Carbs:    rec.Carbs,
		Fat:      rec.Fat,
		Protein:  rec.Protein,
		Accuracy: rec.Accuracy,
		ImageURL: rec.ImageURL,
	})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+recordsPath, bytes.NewReader(b))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Prefer", "return=representation")
	c.authorize(req, sess.AccessToken)

	var stored []models.ScanRecord
	if err := c.do(req, &stored); err != nil {
		return nil, fmt.Errorf("insert scan: %w", err)
	}
	if len(stored) == 0 {
		return nil, fmt.Errorf("insert scan: empty representation")
	}
	return &stored[0], nil
}

// ListScans returns the user's full scan history, newest first. The store
// applies the ordering; ties keep its stable order.
func (c *Client) ListScans(ctx context.Context, sess *models.Session) ([]models.ScanRecord, error) {
	q := url.Values{}
	q.Set("select", "*")
	q.Set("user_id", "eq."+sess.UserID)
	q.Set("order", "created_at.desc")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		c.baseURL+recordsPath+"?"+q.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	c.authorize(req, sess.AccessToken)

	var scans []models.ScanRecord
	if err := c.do(req, &scans); err != nil {
		return nil, fmt.Errorf("list scans: %w", err)
	}
	return scans, nil
}

// DeleteScan removes one record matched by both id and owning user. It fails
// closed with errs.ErrNotFound when no such record belongs to the user, so a
// foreign identifier can never be deleted or observed as deleted.
func (c *Client) DeleteScan(ctx context.Context, sess *models.Session, id string) error {
	q := url.Values{}
	q.Set("id", "eq."+id)
	q.Set("user_id", "eq."+sess.UserID)

	req, err := http.NewRequestWithContext(ctx, http.MethodDelete,
		c.baseURL+recordsPath+"?"+q.Encode(), nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Prefer", "return=representation")
	c.authorize(req, sess.AccessToken)

	var deleted []models.ScanRecord
	if err := c.do(req, &deleted); err != nil {
		return fmt.Errorf("delete scan: %w", err)
	}
	if len(deleted) == 0 {
		return errs.ErrNotFound
	}
	return nil
}

// do executes the request and decodes a JSON answer into out.
func (c *Client) do(req *http.Request, out any) error {
	resp, err := c.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("status %d: %s", resp.StatusCode, bytes.TrimSpace(msg))
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("invalid response: %w", err)
	}
	return nil
}
