// Package classifier implements the HTTP client for the food classification
// endpoint: one multipart image upload, one JSON answer.
package classifier

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/atinyakov/FoodScan/internal/errs"
	"github.com/atinyakov/FoodScan/internal/models"
)

// imageContentType is the fixed content type of the uploaded part.
const imageContentType = "image/jpeg"

// Client talks to the classification endpoint.
type Client struct {
	client *http.Client
	url    string
	log    *zap.Logger
}

// New constructs a Client for the given endpoint URL.
func New(client *http.Client, url string, log *zap.Logger) *Client {
	return &Client{client: client, url: url, log: log}
}

// response mirrors the classifier's wire format. Nutrition is a pointer so
// a present-but-empty object stays distinguishable from an absent one.
type response struct {
	Label     string  `json:"label"`
	Akurasi   float64 `json:"akurasi"`
	Nutrition *struct {
		Kalori      string `json:"Kalori"`
		Karbohidrat string `json:"Karbohidrat"`
		Lemak       string `json:"Lemak"`
		Protein     string `json:"Protein"`
	} `json:"nutrition"`
}

// Classify uploads the image at imagePath and returns the parsed result.
//
// The file must exist locally; otherwise errs.ErrImageNotFound is returned
// and no network call is made. A non-2xx status or a network error is
// returned as a transport failure. A 2xx response without a parseable
// nutrition object is returned as errs.ErrNoResult. Exactly one request is
// issued per call; there is no retry.
func (c *Client) Classify(ctx context.Context, imagePath string) (*models.Classification, error) {
	if _, err := os.Stat(imagePath); err != nil {
		return nil, fmt.Errorf("%s: %w", imagePath, errs.ErrImageNotFound)
	}

	data, err := os.ReadFile(imagePath)
	if err != nil {
		return nil, fmt.Errorf("read image: %w", err)
	}

	body := &bytes.Buffer{}
	w := multipart.NewWriter(body)

	// CreateFormFile would force application/octet-stream; the endpoint
	// expects the part to carry image/jpeg.
	hdr := textproto.MIMEHeader{}
	hdr.Set("Content-Disposition",
		fmt.Sprintf(`form-data; name="file"; filename=%q`, filepath.Base(imagePath)))
	hdr.Set("Content-Type", imageContentType)
	part, err := w.CreatePart(hdr)
	if err != nil {
		return nil, fmt.Errorf("build multipart: %w", err)
	}
	if _, err := part.Write(data); err != nil {
		return nil, fmt.Errorf("build multipart: %w", err)
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("build multipart: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, body)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", w.FormDataContentType())

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("classify failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("classifier returned status %d: %s", resp.StatusCode, bytes.TrimSpace(msg))
	}

	var out response
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		c.log.Warn("malformed classifier response", zap.Error(err))
		return nil, errs.ErrNoResult
	}
	if out.Nutrition == nil {
		c.log.Warn("classifier response without nutrition object",
			zap.String("label", out.Label))
		return nil, errs.ErrNoResult
	}

	return &models.Classification{
		Label:    out.Label,
		Accuracy: out.Akurasi,
		Nutrition: models.Nutrition{
			Calories: out.Nutrition.Kalori,
			Carbs:    out.Nutrition.Karbohidrat,
			Fat:      out.Nutrition.Lemak,
			Protein:  out.Nutrition.Protein,
		},
	}, nil
}
