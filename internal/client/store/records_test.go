package store

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/atinyakov/FoodScan/internal/errs"
	"github.com/atinyakov/FoodScan/internal/models"
)

func writeTestImage(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "photo_1.jpg")
	if err := os.WriteFile(path, []byte("not-really-a-jpeg"), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func testSession() *models.Session {
	return &models.Session{
		UserID:      "u1",
		Email:       "alexandra@email.com",
		AccessToken: "token-u1",
		ExpiresAt:   time.Now().Add(time.Hour),
	}
}

// newRecordsServer fakes the food_results collection for a single stored
// record owned by user "u1".
func newRecordsServer(t *testing.T) *httptest.Server {
	t.Helper()
	created := time.Date(2026, 8, 28, 12, 0, 0, 0, time.UTC)

	r := chi.NewRouter()
	r.Post("/rest/v1/food_results", func(w http.ResponseWriter, req *http.Request) {
		if req.Header.Get("apikey") != testAnonKey ||
			!strings.HasPrefix(req.Header.Get("Authorization"), "Bearer ") {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		var rec models.ScanRecord
		if err := json.NewDecoder(req.Body).Decode(&rec); err != nil {
			http.Error(w, "bad body", http.StatusBadRequest)
			return
		}
		rec.ID = "r1"
		rec.CreatedAt = created
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode([]models.ScanRecord{rec})
	})
	r.Get("/rest/v1/food_results", func(w http.ResponseWriter, req *http.Request) {
		q := req.URL.Query()
		if q.Get("order") != "created_at.desc" {
			t.Errorf("order = %q; want created_at.desc", q.Get("order"))
		}
		if q.Get("user_id") != "eq.u1" {
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte("[]"))
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode([]models.ScanRecord{
			{ID: "r2", UserID: "u1", FoodName: "Burger", CreatedAt: created.Add(time.Hour)},
			{ID: "r1", UserID: "u1", FoodName: "Fried Rice", CreatedAt: created},
		})
	})
	r.Delete("/rest/v1/food_results", func(w http.ResponseWriter, req *http.Request) {
		q := req.URL.Query()
		w.Header().Set("Content-Type", "application/json")
		if q.Get("id") == "eq.r1" && q.Get("user_id") == "eq.u1" {
			_, _ = w.Write([]byte(`[{"id":"r1","user_id":"u1"}]`))
			return
		}
		// Compound match failed: nothing is deleted.
		_, _ = w.Write([]byte("[]"))
	})

	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv
}

func TestInsertScan_AssignsIdentity(t *testing.T) {
	srv := newRecordsServer(t)
	c := newClient(t, srv.URL)

	stored, err := c.InsertScan(context.Background(), testSession(), models.ScanRecord{
		FoodName: "Fried Rice",
		Calories: "400 kcal",
		Accuracy: 0.87,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if stored.ID != "r1" || stored.CreatedAt.IsZero() {
		t.Errorf("stored = %+v; want server-assigned id and timestamp", stored)
	}
	if stored.UserID != "u1" {
		t.Errorf("record user = %q; want session user u1", stored.UserID)
	}
}

func TestListScans_NewestFirst(t *testing.T) {
	srv := newRecordsServer(t)
	c := newClient(t, srv.URL)

	scans, err := c.ListScans(context.Background(), testSession())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(scans) != 2 || scans[0].ID != "r2" || scans[1].ID != "r1" {
		t.Errorf("scans = %+v; want r2 before r1", scans)
	}
	if !scans[0].CreatedAt.After(scans[1].CreatedAt) {
		t.Errorf("expected newest-first ordering")
	}
}

func TestDeleteScan_OwnRecord(t *testing.T) {
	srv := newRecordsServer(t)
	c := newClient(t, srv.URL)

	if err := c.DeleteScan(context.Background(), testSession(), "r1"); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestDeleteScan_ForeignRecordFailsClosed(t *testing.T) {
	srv := newRecordsServer(t)
	c := newClient(t, srv.URL)

	other := testSession()
	other.UserID = "v2"

	err := c.DeleteScan(context.Background(), other, "r1")
	if !errors.Is(err, errs.ErrNotFound) {
		t.Errorf("expected ErrNotFound for a foreign record, got %v", err)
	}
}

func TestUploadImage_SignedURL(t *testing.T) {
	var objectPath string

	r := chi.NewRouter()
	r.Post("/storage/v1/object/uploads/{user}/{name}", func(w http.ResponseWriter, req *http.Request) {
		if ct := req.Header.Get("Content-Type"); ct != "image/jpeg" {
			t.Errorf("upload content type = %q; want image/jpeg", ct)
		}
		objectPath = "uploads/" + chi.URLParam(req, "user") + "/" + chi.URLParam(req, "name")
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"Key":"` + objectPath + `"}`))
	})
	r.Post("/storage/v1/object/sign/uploads/{user}/{name}", func(w http.ResponseWriter, req *http.Request) {
		var body struct {
			ExpiresIn int `json:"expiresIn"`
		}
		_ = json.NewDecoder(req.Body).Decode(&body)
		if body.ExpiresIn != 60*60*24*7 {
			t.Errorf("expiresIn = %d; want 7 days", body.ExpiresIn)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"signedURL":"/object/sign/` + objectPath + `?token=sig"}`))
	})
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)

	c := newClient(t, srv.URL)

	url, err := c.UploadImage(context.Background(), testSession(), writeTestImage(t))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(url, "/storage/v1/object/sign/uploads/u1/") || !strings.HasSuffix(url, "?token=sig") {
		t.Errorf("signed url = %q", url)
	}
	if !strings.HasSuffix(objectPath, ".jpg") || !strings.HasPrefix(objectPath, "uploads/u1/") {
		t.Errorf("object path = %q; want uploads/u1/<random>.jpg", objectPath)
	}
}
