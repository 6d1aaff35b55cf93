// Package models defines the core data structures for sessions and scans.
package models

import (
	"fmt"
	"time"
)

// Session represents the device's authenticated identity as issued by the
// account store.
type Session struct {
	// UserID is the unique identifier of the signed-in user.
	UserID string `json:"user_id"`
	// Email is the address the user signed in with.
	Email string `json:"email"`
	// AccessToken is the bearer token sent with data store requests.
	AccessToken string `json:"access_token"`
	// ExpiresAt is the access token expiry time.
	ExpiresAt time.Time `json:"expires_at"`
}

// Valid reports whether the session can still be used.
func (s *Session) Valid() bool {
	return s != nil && s.AccessToken != "" && time.Now().Before(s.ExpiresAt)
}

// Nutrition is the per-meal nutrition breakdown as reported by the
// classification API. Values keep the service's textual representation
// ("400 kcal", "50g").
type Nutrition struct {
	Calories string `json:"calories"`
	Carbs    string `json:"carbs"`
	Fat      string `json:"fat"`
	Protein  string `json:"protein"`
}

// Classification is a well-formed answer from the classification API.
// A response without a nutrition object never becomes a Classification;
// it is surfaced as errs.ErrNoResult instead.
type Classification struct {
	// Label is the recognized food name.
	Label string
	// Accuracy is the model confidence in [0, 1].
	Accuracy float64
	// Nutrition is the estimated nutrition breakdown.
	Nutrition Nutrition
}

// AccuracyText renders the confidence the way the result view shows it,
// e.g. 0.87 -> "87.0%".
func (c Classification) AccuracyText() string {
	return fmt.Sprintf("%.1f%%", c.Accuracy*100)
}

// ScanRecord is one persisted classification event tied to a user.
// ID and CreatedAt are assigned by the data store; a record without an ID
// is pending and cannot be deleted.
type ScanRecord struct {
	// ID is the store-assigned unique identifier.
	ID string `json:"id,omitempty"`
	// UserID is the owning user.
	UserID string `json:"user_id"`
	// FoodName is the recognized food label.
	FoodName string `json:"food_name"`
	// Calories, Carbs, Fat and Protein keep the classifier's textual values.
	Calories string `json:"calories"`
	Carbs    string `json:"carbs"`
	Fat      string `json:"fat"`
	Protein  string `json:"protein"`
	// Accuracy is the classification confidence in [0, 1].
	Accuracy float64 `json:"accuracy"`
	// ImageURL is a signed link to the uploaded photo, if any.
	ImageURL string `json:"image_url,omitempty"`
	// CreatedAt is assigned by the store at insert time.
	CreatedAt time.Time `json:"created_at,omitempty"`
}
