package api

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/hyperengineering/reel/internal/catalog"
	"github.com/hyperengineering/reel/internal/selection"
	"github.com/hyperengineering/reel/internal/types"
	"github.com/hyperengineering/reel/internal/validation"
)

// maxBodyBytes bounds JSON request bodies.
const maxBodyBytes = 64 << 10

// exhaustedMessage is returned when the viewed history for a mode was reset.
const exhaustedMessage = "All videos watched! Starting fresh."

// StatsSource reports aggregate counts for the health endpoint.
type StatsSource interface {
	GetStats(ctx context.Context) (*types.StoreStats, error)
}

// Selector draws the next video for a user.
type Selector interface {
	SelectNext(ctx context.Context, userID, category string) (selection.Selection, error)
}

// PreferenceLedger records feedback and reports preference scores.
type PreferenceLedger interface {
	ApplyFeedback(ctx context.Context, userID, videoID, category string, interaction types.InteractionType) error
	Snapshot(ctx context.Context, userID string) ([]types.Preference, error)
}

// Accounts registers and logs in users.
type Accounts interface {
	Register(ctx context.Context, email, password string) (*types.AuthResponse, error)
	Login(ctx context.Context, email, password string) (*types.AuthResponse, error)
}

// Handler implements the API handlers
type Handler struct {
	stats    StatsSource
	catalog  catalog.Resolver
	selector Selector
	ledger   PreferenceLedger
	accounts Accounts
	version  string
}

// NewHandler creates a new Handler.
func NewHandler(stats StatsSource, cat catalog.Resolver, sel Selector, ledger PreferenceLedger, accounts Accounts, version string) *Handler {
	return &Handler{
		stats:    stats,
		catalog:  cat,
		selector: sel,
		ledger:   ledger,
		accounts: accounts,
		version:  version,
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		WriteProblem(w, r, http.StatusBadRequest, fmt.Sprintf("Invalid JSON: %s", err.Error()))
		return false
	}
	return true
}

// Health handles GET /health
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	stats, err := h.stats.GetStats(r.Context())
	if err != nil {
		slog.Error("health check failed", "error", err)
		WriteProblem(w, r, http.StatusServiceUnavailable, "Store unavailable")
		return
	}

	writeJSON(w, http.StatusOK, types.HealthResponse{
		Status:           "healthy",
		Version:          h.version,
		Timestamp:        time.Now().UTC().Format(time.RFC3339),
		UserCount:        stats.UserCount,
		InteractionCount: stats.InteractionCount,
	})
}

// Register handles POST /api/register
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req types.CredentialsRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	if errs := validation.ValidateRegistration(req); len(errs) > 0 {
		WriteProblemWithErrors(w, r, "Request contains invalid fields", errs)
		return
	}

	resp, err := h.accounts.Register(r.Context(), req.Email, req.Password)
	if err != nil {
		MapError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, resp)
}

// Login handles POST /api/login
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req types.CredentialsRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	if errs := validation.ValidateCredentials(req); len(errs) > 0 {
		WriteProblemWithErrors(w, r, "Request contains invalid fields", errs)
		return
	}

	resp, err := h.accounts.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		MapError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, resp)
}

// Categories handles GET /api/categories
func (h *Handler) Categories(w http.ResponseWriter, r *http.Request) {
	categories := h.catalog.List(r.Context())
	if categories == nil {
		categories = []types.Category{}
	}
	writeJSON(w, http.StatusOK, categories)
}

// NextVideo handles GET /api/next-video
func (h *Handler) NextVideo(w http.ResponseWriter, r *http.Request) {
	userID := MustUserIDFromContext(r.Context())
	category := r.URL.Query().Get("category")

	if category != "" {
		if errs := validation.ValidateCategoryName("category", category); len(errs) > 0 {
			WriteProblemWithErrors(w, r, "Request contains invalid fields", errs)
			return
		}
	}

	sel, err := h.selector.SelectNext(r.Context(), userID, category)
	if err != nil {
		slog.Warn("selection failed",
			"user_id", userID,
			"category", category,
			"error", err,
		)
		MapError(w, r, err)
		return
	}

	if sel.Exhausted {
		writeJSON(w, http.StatusOK, types.NextVideoResponse{
			Message:     exhaustedMessage,
			ResetViewed: true,
		})
		return
	}

	writeJSON(w, http.StatusOK, types.NextVideoResponse{
		Video:    sel.Video,
		Category: sel.Category,
	})
}

// Interact handles POST /api/interact
func (h *Handler) Interact(w http.ResponseWriter, r *http.Request) {
	userID := MustUserIDFromContext(r.Context())

	var req types.InteractRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	if errs := validation.ValidateInteractRequest(req); len(errs) > 0 {
		WriteProblemWithErrors(w, r, "Request contains invalid fields", errs)
		return
	}

	err := h.ledger.ApplyFeedback(r.Context(), userID, req.VideoPath, req.Category, types.InteractionType(req.InteractionType))
	if err != nil {
		slog.Error("feedback failed",
			"user_id", userID,
			"category", req.Category,
			"error", err,
		)
		MapError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, types.MessageResponse{Message: "Interaction recorded"})
}

// Preferences handles GET /api/preferences
func (h *Handler) Preferences(w http.ResponseWriter, r *http.Request) {
	userID := MustUserIDFromContext(r.Context())

	prefs, err := h.ledger.Snapshot(r.Context(), userID)
	if err != nil {
		MapError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, prefs)
}
