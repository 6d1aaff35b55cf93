// Package service contains the application's core flows: turning a captured
// photo into a persisted scan, keeping the recent-scans view fresh, and
// gating the authenticated area.
package service

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/atinyakov/FoodScan/internal/errs"
	"github.com/atinyakov/FoodScan/internal/models"
)

// Classifier turns a local image file into a classification result.
type Classifier interface {
	// Classify issues exactly one request to the classification endpoint.
	Classify(ctx context.Context, imagePath string) (*models.Classification, error)
}

// SessionSource reports the current signed-in session, re-read on every call
// so no flow acts on a stale identity.
type SessionSource interface {
	// Session returns the current session or errs.ErrNoSession.
	Session() (*models.Session, error)
}

// RecordStore defines the data store operations the acquisition flow needs.
type RecordStore interface {
	// InsertScan persists one record and returns the stored representation
	// with the server-assigned id and creation timestamp.
	InsertScan(ctx context.Context, sess *models.Session, rec models.ScanRecord) (*models.ScanRecord, error)
	// DeleteScan removes one record matched by both id and owning user.
	DeleteScan(ctx context.Context, sess *models.Session, id string) error
	// UploadImage stores the raw photo and returns a signed link to it.
	UploadImage(ctx context.Context, sess *models.Session, imagePath string) (string, error)
}

// ScanResult is what the result view displays after an acquisition.
type ScanResult struct {
	// Classification is the classifier's answer.
	Classification models.Classification
	// Record is the persisted form, nil when persistence was skipped or
	// failed. Only a reconciled result (non-nil Record) can be deleted.
	Record *models.ScanRecord
}

// Deletable reports whether the result has a valid delete target.
func (r *ScanResult) Deletable() bool {
	return r != nil && r.Record != nil && r.Record.ID != ""
}

// Acquisition orchestrates classify → persist → reconcile, exactly once per
// captured photo.
type Acquisition struct {
	classifier Classifier
	store      RecordStore
	sessions   SessionSource
	log        *zap.Logger
}

// NewAcquisition constructs the acquisition flow.
func NewAcquisition(classifier Classifier, store RecordStore, sessions SessionSource, log *zap.Logger) *Acquisition {
	return &Acquisition{classifier: classifier, store: store, sessions: sessions, log: log}
}

// Acquire classifies the image and, when a session is present, persists the
// result under that user and reconciles the server-assigned id into it.
//
// Classification success is independent of persistence success: without a
// session persistence is skipped silently, and a failed insert is logged but
// still yields a displayable (non-deletable) result. Persistence is never
// attempted before classification succeeds.
func (a *Acquisition) Acquire(ctx context.Context, imagePath string) (*ScanResult, error) {
	cls, err := a.classifier.Classify(ctx, imagePath)
	if err != nil {
		return nil, err
	}

	res := &ScanResult{Classification: *cls}

	sess, err := a.sessions.Session()
	if err != nil || sess == nil {
		// Result is shown but never written without an identity.
		a.log.Info("no session, scan not persisted", zap.String("label", cls.Label))
		return res, nil
	}

	rec := models.ScanRecord{
		UserID:   sess.UserID,
		FoodName: cls.Label,
		Calories: cls.Nutrition.Calories,
		Carbs:    cls.Nutrition.Carbs,
		Fat:      cls.Nutrition.Fat,
		Protein:  cls.Nutrition.Protein,
		Accuracy: cls.Accuracy,
	}

	// Best-effort photo upload; the record is still written without a link.
	if url, err := a.store.UploadImage(ctx, sess, imagePath); err != nil {
		a.log.Warn("image upload failed", zap.Error(err))
	} else {
		rec.ImageURL = url
	}

	stored, err := a.store.InsertScan(ctx, sess, rec)
	if err != nil {
		a.log.Error("failed to persist scan", zap.Error(err), zap.String("label", cls.Label))
		return res, nil
	}

	res.Record = stored
	return res, nil
}

// Discard deletes a previously reconciled result on the user's "this is
// wrong" action. Without a reconciled id or a session it fails before any
// remote call is made.
func (a *Acquisition) Discard(ctx context.Context, res *ScanResult) error {
	if !res.Deletable() {
		return errs.ErrNotFound
	}

	sess, err := a.sessions.Session()
	if err != nil || sess == nil {
		return errs.ErrNoSession
	}

	if err := a.store.DeleteScan(ctx, sess, res.Record.ID); err != nil {
		if errors.Is(err, errs.ErrNotFound) {
			return err
		}
		return fmt.Errorf("delete scan: %w", err)
	}
	return nil
}
