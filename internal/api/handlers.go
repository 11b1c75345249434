// Package api exposes HTTP handlers for the exercise tracker.
package api

import (
	"encoding/json"
	"errors"
	"mime"
	"net/http"
	"strconv"
	"strings"

	"example.com/exercisetracker/internal/dates"
	"example.com/exercisetracker/internal/domain"
)

// Handler coordinates HTTP requests with the domain service.
type Handler struct {
	service *domain.Service
}

// NewHandler builds a Handler.
func NewHandler(service *domain.Service) *Handler {
	return &Handler{service: service}
}

// RegisterRoutes wires endpoints to the mux. The root pattern doubles as the
// catch-all for unknown routes.
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/api/exercise/new-user", h.newUser)
	mux.HandleFunc("/api/exercise/users", h.listUsers)
	mux.HandleFunc("/api/exercise/add", h.addExercise)
	mux.HandleFunc("/api/exercise/log", h.getLog)
	mux.HandleFunc("/healthz", healthz)
	mux.HandleFunc("/", notFound)
}

// healthz reports a simple OK status for container health checks.
func healthz(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

// notFound is the fallback for any unmatched route.
func notFound(w http.ResponseWriter, r *http.Request) {
	writeError(w, http.StatusNotFound, "not found")
}

func (h *Handler) newUser(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "unsupported method")
		return
	}

	form, err := parseBody(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "unable to parse body")
		return
	}

	username := strings.TrimSpace(form.get("username"))
	if username == "" {
		writeError(w, http.StatusBadRequest, "username is required")
		return
	}

	user, err := h.service.CreateUser(r.Context(), username)
	if err != nil {
		if errors.Is(err, domain.ErrDuplicateUsername) {
			writeError(w, http.StatusBadRequest, "username already taken")
			return
		}
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	writeJSON(w, http.StatusOK, UserView{Username: user.Username, ID: user.ID})
}

func (h *Handler) listUsers(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "unsupported method")
		return
	}

	users, err := h.service.ListUsers(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	views := make([]UserView, 0, len(users))
	for _, user := range users {
		views = append(views, UserView{Username: user.Username, ID: user.ID})
	}
	writeJSON(w, http.StatusOK, views)
}

func (h *Handler) addExercise(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "unsupported method")
		return
	}

	form, err := parseBody(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "unable to parse body")
		return
	}

	req := AddExerciseRequest{
		UserID:      strings.TrimSpace(form.get("userId")),
		Description: strings.TrimSpace(form.get("description")),
		Duration:    strings.TrimSpace(form.get("duration")),
		Date:        strings.TrimSpace(form.get("date")),
	}
	if err := req.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	exercise, err := h.service.LogExercise(r.Context(), domain.LogExerciseInput{
		UserID:      req.UserID,
		Description: req.Description,
		DurationMin: req.durationMinutes(),
		Date:        req.Date,
	})
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			writeError(w, http.StatusNotFound, "user not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	// The id returned here is the exercise id, not the owner's user id.
	writeJSON(w, http.StatusOK, AddExerciseResponse{
		ID:          exercise.ID,
		Username:    exercise.Username,
		Description: exercise.Description,
		Duration:    exercise.DurationMin,
		Date:        dates.FormatLog(exercise.Date),
	})
}

func (h *Handler) getLog(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "unsupported method")
		return
	}

	userID := strings.TrimSpace(r.URL.Query().Get("userId"))
	if userID == "" {
		writeError(w, http.StatusBadRequest, "userId is required")
		return
	}

	var filter domain.LogFilter
	if from, ok := dates.Parse(r.URL.Query().Get("from")); ok {
		filter.From = from
	}
	if to, ok := dates.Parse(r.URL.Query().Get("to")); ok {
		filter.To = to
	}
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 {
			filter.Limit = parsed
		}
	}

	user, exercises, err := h.service.GetLog(r.Context(), userID, filter)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			writeError(w, http.StatusNotFound, "user not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	entries := make([]LogEntry, 0, len(exercises))
	for _, exercise := range exercises {
		entries = append(entries, LogEntry{
			Description: exercise.Description,
			Duration:    exercise.DurationMin,
			Date:        dates.FormatLog(exercise.Date),
		})
	}

	writeJSON(w, http.StatusOK, LogResponse{
		ID:       user.ID,
		Username: user.Username,
		Count:    len(entries),
		Log:      entries,
	})
}

// AddExerciseRequest is the payload for POST /api/exercise/add. Duration stays
// raw so validation can distinguish missing from malformed input.
type AddExerciseRequest struct {
	UserID      string
	Description string
	Duration    string
	Date        string
}

// Validate ensures request correctness, reporting the first complaint.
func (r AddExerciseRequest) Validate() error {
	if r.UserID == "" {
		return errors.New("userId is required")
	}
	if r.Description == "" {
		return errors.New("description is required")
	}
	if r.Duration == "" {
		return errors.New("duration is required")
	}
	parsed, err := strconv.Atoi(r.Duration)
	if err != nil {
		return errors.New("duration must be a number")
	}
	if parsed <= 0 {
		return errors.New("duration must be a positive number")
	}
	return nil
}

func (r AddExerciseRequest) durationMinutes() int {
	parsed, _ := strconv.Atoi(r.Duration)
	return parsed
}

// UserView exposes a user on the wire.
type UserView struct {
	Username string `json:"username"`
	ID       string `json:"id"`
}

// AddExerciseResponse describes the response body for add-exercise.
type AddExerciseResponse struct {
	ID          string `json:"id"`
	Username    string `json:"username"`
	Description string `json:"description"`
	Duration    int    `json:"duration"`
	Date        string `json:"date"`
}

// LogEntry is one formatted exercise in a log response.
type LogEntry struct {
	Description string `json:"description"`
	Duration    int    `json:"duration"`
	Date        string `json:"date"`
}

// LogResponse packages a user's filtered exercise log.
type LogResponse struct {
	ID       string     `json:"id"`
	Username string     `json:"username"`
	Count    int        `json:"count"`
	Log      []LogEntry `json:"log"`
}

// body holds flattened key/value pairs from either a form-encoded or a flat
// JSON request body.
type body map[string]string

func (b body) get(key string) string { return b[key] }

// parseBody accepts form-encoded or flat JSON key/value bodies. JSON numbers
// are flattened to their literal text so fields like duration parse the same
// way regardless of encoding.
func parseBody(r *http.Request) (body, error) {
	contentType := r.Header.Get("Content-Type")
	if mediaType, _, err := mime.ParseMediaType(contentType); err == nil && mediaType == "application/json" {
		decoder := json.NewDecoder(r.Body)
		decoder.UseNumber()

		raw := make(map[string]interface{})
		if err := decoder.Decode(&raw); err != nil {
			return nil, err
		}

		flattened := make(body, len(raw))
		for key, value := range raw {
			switch v := value.(type) {
			case string:
				flattened[key] = v
			case json.Number:
				flattened[key] = v.String()
			case nil:
				// explicit null reads as absent
			default:
				flattened[key] = ""
			}
		}
		return flattened, nil
	}

	if err := r.ParseForm(); err != nil {
		return nil, err
	}
	flattened := make(body, len(r.PostForm))
	for key := range r.PostForm {
		flattened[key] = r.PostForm.Get(key)
	}
	return flattened, nil
}

func writeError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(message))
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}
