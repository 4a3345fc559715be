package types

import (
	"time"
)

// VideoRef identifies one playable video. Path is the stable identifier used
// by the viewed-set and the interaction log.
type VideoRef struct {
	Filename string `json:"filename"`
	Path     string `json:"path"`
	Category string `json:"category,omitempty"`
}

// Category is a named group of videos as enumerated by a catalog.
// Categories are derived per call and never persisted.
type Category struct {
	Name   string     `json:"name"`
	Videos []VideoRef `json:"videos"`
}

// Mode scopes a viewed-set. The zero value is algorithmic mode.
type Mode struct {
	category string
}

// Algorithmic is the global, preference-weighted mode.
var Algorithmic = Mode{}

// CategoryMode returns the mode scoped to a single category.
func CategoryMode(name string) Mode {
	return Mode{category: name}
}

// ModeFromKey is the inverse of Key.
func ModeFromKey(key string) Mode {
	return Mode{category: key}
}

// IsAlgorithmic reports whether m is the global mode.
func (m Mode) IsAlgorithmic() bool {
	return m.category == ""
}

// Category returns the scoped category name, or "" in algorithmic mode.
func (m Mode) Category() string {
	return m.category
}

// Key returns the storage key for m: "" for algorithmic mode, otherwise the
// category name.
func (m Mode) Key() string {
	return m.category
}

func (m Mode) String() string {
	if m.IsAlgorithmic() {
		return "algorithmic"
	}
	return "category:" + m.category
}

// InteractionType is the kind of feedback a user gave on a video.
type InteractionType string

const (
	InteractionLike    InteractionType = "like"
	InteractionDislike InteractionType = "dislike"
	InteractionScroll  InteractionType = "scroll"
	InteractionHate    InteractionType = "hate"
)

// Preference is a user's score for one category. Score is never below 1.
type Preference struct {
	UserID   string  `json:"user_id"`
	Category string  `json:"category"`
	Score    float64 `json:"score"`
}

// InteractionEvent is one entry of the append-only interaction log.
type InteractionEvent struct {
	ID              string          `json:"id"`
	UserID          string          `json:"user_id"`
	VideoPath       string          `json:"video_path"`
	Category        string          `json:"category"`
	InteractionType InteractionType `json:"interaction_type"`
	CreatedAt       time.Time       `json:"created_at"`
}

// User is an account known to the identity provider.
type User struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
}

// StoreStats holds aggregate counters for the health endpoint.
type StoreStats struct {
	UserCount        int64 `json:"user_count"`
	InteractionCount int64 `json:"interaction_count"`
}

// --- HTTP request/response bodies ---

// HealthResponse represents the health check response
type HealthResponse struct {
	Status           string `json:"status"`
	Version          string `json:"version"`
	Timestamp        string `json:"timestamp"`
	UserCount        int64  `json:"user_count"`
	InteractionCount int64  `json:"interaction_count"`
}

// CredentialsRequest is the body of register and login requests.
type CredentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// AuthUser is the public view of a user returned after authentication.
type AuthUser struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

// AuthResponse is returned by register and login.
type AuthResponse struct {
	Token string   `json:"token"`
	User  AuthUser `json:"user"`
}

// NextVideoResponse is returned by GET /api/next-video. When ResetViewed is
// set the viewed history for the requested mode was cleared and Video is nil.
type NextVideoResponse struct {
	Video       *VideoRef `json:"video,omitempty"`
	Category    string    `json:"category,omitempty"`
	Message     string    `json:"message,omitempty"`
	ResetViewed bool      `json:"reset_viewed,omitempty"`
}

// InteractRequest is the body of POST /api/interact.
type InteractRequest struct {
	VideoPath       string `json:"video_path"`
	Category        string `json:"category"`
	InteractionType string `json:"interaction_type"`
}

// MessageResponse is a plain acknowledgement.
type MessageResponse struct {
	Message string `json:"message"`
}
