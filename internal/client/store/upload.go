package store

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"

	"github.com/google/uuid"

	"github.com/atinyakov/FoodScan/internal/models"
)

// uploadBucket is the storage bucket holding scan photos.
const uploadBucket = "uploads"

// signedURLTTL is the validity of returned photo links, in seconds (7 days).
const signedURLTTL = 60 * 60 * 24 * 7

// UploadImage pushes the raw photo into the user's folder of the uploads
// bucket and returns a signed URL valid for seven days. Object names are
// random so repeated scans never collide.
func (c *Client) UploadImage(ctx context.Context, sess *models.Session, imagePath string) (string, error) {
	data, err := os.ReadFile(imagePath)
	if err != nil {
		return "", fmt.Errorf("read image: %w", err)
	}

	objectPath := fmt.Sprintf("%s/%s/%s.jpg", uploadBucket, sess.UserID, uuid.NewString())

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+"/storage/v1/object/"+objectPath, bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "image/jpeg")
	req.Header.Set("x-upsert", "true")
	c.authorize(req, sess.AccessToken)

	if err := c.do(req, nil); err != nil {
		return "", fmt.Errorf("upload image: %w", err)
	}

	// Exchange the object path for a time-limited signed link.
	b, _ := json.Marshal(map[string]int{"expiresIn": signedURLTTL})
	req, err = http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+"/storage/v1/object/sign/"+objectPath, bytes.NewReader(b))
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	c.authorize(req, sess.AccessToken)

	var signed struct {
		SignedURL string `json:"signedURL"`
	}
	if err := c.do(req, &signed); err != nil {
		return "", fmt.Errorf("sign image url: %w", err)
	}

	return c.baseURL + "/storage/v1" + signed.SignedURL, nil
}
