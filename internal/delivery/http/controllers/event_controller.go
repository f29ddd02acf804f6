package controllers

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"eventsocials/internal/delivery/http/helpers"
	"eventsocials/internal/delivery/http/middleware"
	"eventsocials/internal/domain"
)

type EventController struct {
	Logger       *slog.Logger
	Events       domain.EventService
	JoinRequests domain.JoinRequestService
}

func NewEventController(logger *slog.Logger, events domain.EventService, joinRequests domain.JoinRequestService) *EventController {
	return &EventController{
		Logger:       logger,
		Events:       events,
		JoinRequests: joinRequests,
	}
}

var validCategories = map[domain.EventCategory]struct{}{
	domain.CategoryCyberSecurity:       {},
	domain.CategorySoftwareEngineering: {},
	domain.CategoryDevOps:              {},
}

// CreateEventRequest is the request body for POST /events.
type CreateEventRequest struct {
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Date        time.Time `json:"date"`
	Category    string    `json:"category"`
}

// Validate implements Validator. Returns error messages for required and format rules.
func (c CreateEventRequest) Validate() []string {
	var errs []string
	if strings.TrimSpace(c.Title) == "" {
		errs = append(errs, "title is required")
	}
	if c.Date.IsZero() {
		errs = append(errs, "date is required")
	}
	if c.Category == "" {
		errs = append(errs, "category is required")
	} else if _, ok := validCategories[domain.EventCategory(c.Category)]; !ok {
		errs = append(errs, "category must be one of: CyberSecurity, Software Engineering, DevOps")
	}
	return errs
}

// CreateEventSuccessResponse is the success response envelope for POST /events (201).
type CreateEventSuccessResponse struct {
	Data  *domain.Event     `json:"data"`
	Error *helpers.APIError `json:"error"`
}

// CreateEvent godoc
// @Summary Create a new event
// @Description Creates an event owned by the authenticated user. Category must be one of CyberSecurity, Software Engineering, DevOps.
// @Tags events
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body CreateEventRequest true "Event data"
// @Success 201 {object} controllers.CreateEventSuccessResponse "data contains the created event"
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /events [post]
func (c *EventController) CreateEvent(w http.ResponseWriter, r *http.Request) {
	var req CreateEventRequest
	if !helpers.DecodeAndValidate(w, r, &req) {
		return
	}
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		helpers.WriteJSONError(w, http.StatusUnauthorized, helpers.ErrCodeUnauthorized, "unauthorized")
		return
	}
	event := &domain.Event{
		Title:       req.Title,
		Description: req.Description,
		Date:        req.Date,
		Category:    domain.EventCategory(req.Category),
		CreatorID:   userID,
	}
	if err := c.Events.Create(r.Context(), event); err != nil {
		c.Logger.ErrorContext(r.Context(), "request failed", "path", r.URL.Path, "method", r.Method, "err", err)
		helpers.WriteJSONError(w, http.StatusInternalServerError, helpers.ErrCodeInternalError, err.Error())
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusCreated, event)
}

// ListEventsSuccessResponse is the success response envelope for GET /events (200).
type ListEventsSuccessResponse struct {
	Data  []*domain.Event   `json:"data"`
	Error *helpers.APIError `json:"error"`
}

// ListEvents godoc
// @Summary List events
// @Description Returns events ordered by date, optionally filtered by category and date range. Dates are RFC 3339.
// @Tags events
// @Produce json
// @Param category query string false "Filter by category"
// @Param start_date query string false "Only events on or after this date (RFC 3339)"
// @Param end_date query string false "Only events on or before this date (RFC 3339)"
// @Param offset query int false "Number of events to skip (default 0)"
// @Param limit query int false "Maximum events to return (default 20)"
// @Success 200 {object} controllers.ListEventsSuccessResponse "data is an array of events"
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /events [get]
func (c *EventController) ListEvents(w http.ResponseWriter, r *http.Request) {
	filter, errMsg := parseEventFilter(r)
	if errMsg != "" {
		helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, errMsg)
		return
	}
	events, err := c.Events.List(r.Context(), filter)
	if err != nil {
		c.Logger.ErrorContext(r.Context(), "request failed", "path", r.URL.Path, "method", r.Method, "err", err)
		helpers.WriteJSONError(w, http.StatusInternalServerError, helpers.ErrCodeInternalError, err.Error())
		return
	}
	if events == nil {
		events = []*domain.Event{}
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, events)
}

// parseEventFilter builds an EventFilter from the query string. Returns a
// non-empty message on a malformed parameter.
func parseEventFilter(r *http.Request) (domain.EventFilter, string) {
	var filter domain.EventFilter
	q := r.URL.Query()

	if category := strings.TrimSpace(q.Get("category")); category != "" {
		if _, ok := validCategories[domain.EventCategory(category)]; !ok {
			return filter, "unknown category"
		}
		filter.Category = domain.EventCategory(category)
	}
	if raw := q.Get("start_date"); raw != "" {
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return filter, "start_date must be RFC 3339"
		}
		filter.StartDate = t
	}
	if raw := q.Get("end_date"); raw != "" {
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return filter, "end_date must be RFC 3339"
		}
		filter.EndDate = t
	}
	filter.Offset = helpers.ParseNonNegativeInt(q.Get("offset"), 0)
	filter.Limit = helpers.ParseNonNegativeInt(q.Get("limit"), 0)
	return filter, ""
}

// JoinRequestSuccessResponse is the success response envelope for join-request endpoints.
type JoinRequestSuccessResponse struct {
	Data  *domain.JoinRequest `json:"data"`
	Error *helpers.APIError   `json:"error"`
}

// JoinEvent godoc
// @Summary Request to join an event
// @Description Creates a pending join request for the authenticated user and emails the event creator an accept and a deny link. Returns 202 when the request was stored but the notification could not be queued.
// @Tags events
// @Produce json
// @Security BearerAuth
// @Param eventID path string true "Event ID"
// @Success 201 {object} controllers.JoinRequestSuccessResponse "data contains the pending join request"
// @Success 202 {object} controllers.JoinRequestSuccessResponse "data contains the join request; creator notification is pending"
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found (event or user)"
// @Failure 409 {object} helpers.APIResponse "error.code: conflict (request already exists)"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /events/{eventID}/join [post]
func (c *EventController) JoinEvent(w http.ResponseWriter, r *http.Request) {
	eventID := r.PathValue("eventID")
	if eventID == "" {
		helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, "missing eventID")
		return
	}
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		helpers.WriteJSONError(w, http.StatusUnauthorized, helpers.ErrCodeUnauthorized, "unauthorized")
		return
	}
	jr, err := c.JoinRequests.Send(r.Context(), eventID, userID)
	if err != nil {
		if errors.Is(err, domain.ErrNotificationFailed) {
			// The request is stored; the creator just has not been told yet.
			c.Logger.ErrorContext(r.Context(), "join request stored but notification not queued",
				"join_request_id", jr.ID, "event_id", eventID, "err", err)
			helpers.WriteJSONSuccess(w, http.StatusAccepted, jr)
			return
		}
		if errors.Is(err, domain.ErrNotFound) {
			helpers.WriteJSONError(w, http.StatusNotFound, helpers.ErrCodeNotFound, "event or user not found")
			return
		}
		if errors.Is(err, domain.ErrConflict) {
			helpers.WriteJSONError(w, http.StatusConflict, helpers.ErrCodeConflict, "join request already exists")
			return
		}
		c.Logger.ErrorContext(r.Context(), "request failed", "path", r.URL.Path, "method", r.Method, "err", err)
		helpers.WriteJSONError(w, http.StatusInternalServerError, helpers.ErrCodeInternalError, err.Error())
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusCreated, jr)
}

// joinRequestLogPath stands in for the request path in logs so the action
// token never reaches the log stream.
const joinRequestLogPath = "/events/join-request/{token}"

// ResolveJoinRequest godoc
// @Summary Resolve a join request from an emailed link
// @Description Applies the accept or deny decision carried by the signed token. No session is required; the token authorizes the decision. Resolving an already-resolved request returns the stored record unchanged. Returns 202 when the decision was stored but the requester notification could not be queued.
// @Tags events
// @Produce json
// @Param token path string true "Signed action token from the email link"
// @Success 200 {object} controllers.JoinRequestSuccessResponse "data contains the resolved join request"
// @Success 202 {object} controllers.JoinRequestSuccessResponse "data contains the join request; requester notification is pending"
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden (token holder is not the event creator)"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found (join request)"
// @Failure 422 {object} helpers.APIResponse "error.code: unprocessable (token could not be verified)"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /events/join-request/{token} [get]
func (c *EventController) ResolveJoinRequest(w http.ResponseWriter, r *http.Request) {
	token := r.PathValue("token")
	if token == "" {
		helpers.WriteJSONError(w, http.StatusUnprocessableEntity, helpers.ErrCodeUnprocessable, "could not process join request")
		return
	}
	jr, err := c.JoinRequests.Resolve(r.Context(), token)
	if err != nil {
		if errors.Is(err, domain.ErrNotificationFailed) {
			c.Logger.ErrorContext(r.Context(), "join request resolved but notification not queued",
				"join_request_id", jr.ID, "status", jr.Status, "err", err)
			helpers.WriteJSONSuccess(w, http.StatusAccepted, jr)
			return
		}
		if errors.Is(err, domain.ErrInvalidToken) {
			// Forged and garbled tokens get the same terse answer.
			c.Logger.InfoContext(r.Context(), "invalid action token presented", "err", err)
			helpers.WriteJSONError(w, http.StatusUnprocessableEntity, helpers.ErrCodeUnprocessable, "could not process join request")
			return
		}
		if errors.Is(err, domain.ErrNotFound) {
			helpers.WriteJSONError(w, http.StatusNotFound, helpers.ErrCodeNotFound, "join request not found")
			return
		}
		if errors.Is(err, domain.ErrForbidden) {
			helpers.WriteJSONError(w, http.StatusForbidden, helpers.ErrCodeForbidden, "forbidden")
			return
		}
		c.Logger.ErrorContext(r.Context(), "request failed", "path", joinRequestLogPath, "method", r.Method, "err", err)
		helpers.WriteJSONError(w, http.StatusInternalServerError, helpers.ErrCodeInternalError, err.Error())
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, jr)
}
