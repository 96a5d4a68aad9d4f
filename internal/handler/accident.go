package handler

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/labstack/echo/v4"

	"github.com/urbanlens/smart-city-api/internal/middleware"
	"github.com/urbanlens/smart-city-api/internal/model"
	"github.com/urbanlens/smart-city-api/internal/queue"
	"github.com/urbanlens/smart-city-api/internal/repository"
	"github.com/urbanlens/smart-city-api/internal/service"
)

// AccidentHandler bundles dependencies for the accident endpoints.
type AccidentHandler struct {
	Accidents *repository.AccidentRepo
	// PublishEvents controls whether successful creates emit an
	// accident.reported message. Disabled in tests.
	PublishEvents bool
}

func NewAccidentHandler(r *repository.AccidentRepo) *AccidentHandler {
	return &AccidentHandler{Accidents: r, PublishEvents: true}
}

// ----- DTOs -----

type createAccidentReq struct {
	Location    string  `json:"location"`
	Type        string  `json:"type"`
	Severity    string  `json:"severity"`
	Date        string  `json:"date"`
	Description string  `json:"description"`
	Latitude    float64 `json:"latitude"`
	Longitude   float64 `json:"longitude"`
}

type updateAccidentReq struct {
	Location    *string  `json:"location"`
	Type        *string  `json:"type"`
	Severity    *string  `json:"severity"`
	Date        *string  `json:"date"`
	Description *string  `json:"description"`
	Latitude    *float64 `json:"latitude"`
	Longitude   *float64 `json:"longitude"`
}

type accidentPayload struct {
	ID          string                 `json:"id"`
	Location    string                 `json:"location"`
	Type        model.AccidentType     `json:"type"`
	Severity    model.AccidentSeverity `json:"severity"`
	Date        time.Time              `json:"date"`
	Description *string                `json:"description,omitempty"`
	Latitude    float64                `json:"latitude"`
	Longitude   float64                `json:"longitude"`
	ReportedBy  *string                `json:"reportedBy,omitempty"`
	ZoneID      *string                `json:"zoneId,omitempty"`
	CreatedAt   time.Time              `json:"createdAt"`
	UpdatedAt   time.Time              `json:"updatedAt"`
	User        *model.Reporter        `json:"user,omitempty"`
}

func toAccidentPayload(a model.AccidentWithReporter) accidentPayload {
	return accidentPayload{
		ID:          a.ID,
		Location:    a.Location,
		Type:        a.Type,
		Severity:    a.Severity,
		Date:        a.Date,
		Description: a.Description,
		Latitude:    a.Latitude,
		Longitude:   a.Longitude,
		ReportedBy:  a.ReportedBy,
		ZoneID:      a.ZoneID,
		CreatedAt:   a.CreatedAt,
		UpdatedAt:   a.UpdatedAt,
		User:        a.Reporter,
	}
}

// parseListFilter validates the query parameters of the list
// endpoint into a repository filter.
func parseListFilter(c echo.Context) (repository.AccidentFilter, []FieldError) {
	var details []FieldError
	f := repository.AccidentFilter{Page: 1, Limit: 10, SortBy: "createdAt", SortOrder: "desc"}

	if v := strings.TrimSpace(c.QueryParam("type")); v != "" {
		t, valid := model.ParseAccidentType(v)
		if !valid {
			details = append(details, FieldError{"type", "unknown accident type"})
		}
		f.Type = string(t)
	}
	if v := strings.TrimSpace(c.QueryParam("severity")); v != "" {
		s, valid := model.ParseAccidentSeverity(v)
		if !valid {
			details = append(details, FieldError{"severity", "unknown severity"})
		}
		f.Severity = string(s)
	}
	if v := c.QueryParam("startDate"); v != "" {
		t, valid := parseDate(v)
		if !valid {
			details = append(details, FieldError{"startDate", "invalid date"})
		} else {
			f.StartDate = &t
		}
	}
	if v := c.QueryParam("endDate"); v != "" {
		t, valid := parseDate(v)
		if !valid {
			details = append(details, FieldError{"endDate", "invalid date"})
		} else {
			f.EndDate = &t
		}
	}
	if f.StartDate != nil && f.EndDate != nil && f.EndDate.Before(*f.StartDate) {
		details = append(details, FieldError{"endDate", "endDate must not be before startDate"})
	}

	lat, lon, radius := c.QueryParam("latitude"), c.QueryParam("longitude"), c.QueryParam("radius")
	if lat != "" || lon != "" || radius != "" {
		la, err1 := strconv.ParseFloat(lat, 64)
		lo, err2 := strconv.ParseFloat(lon, 64)
		ra, err3 := strconv.ParseFloat(radius, 64)
		switch {
		case err1 != nil || err2 != nil || err3 != nil:
			details = append(details, FieldError{"radius", "latitude, longitude and radius must be numeric and given together"})
		case la < -90 || la > 90:
			details = append(details, FieldError{"latitude", "latitude must be between -90 and 90"})
		case lo < -180 || lo > 180:
			details = append(details, FieldError{"longitude", "longitude must be between -180 and 180"})
		case ra < 0 || ra > 100:
			details = append(details, FieldError{"radius", "radius must be between 0 and 100 km"})
		default:
			f.Latitude, f.Longitude, f.RadiusKM = &la, &lo, &ra
		}
	}

	if v := c.QueryParam("page"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			details = append(details, FieldError{"page", "page must be a positive integer"})
		} else {
			f.Page = n
		}
	}
	if v := c.QueryParam("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 || n > 100 {
			details = append(details, FieldError{"limit", "limit must be between 1 and 100"})
		} else {
			f.Limit = n
		}
	}
	if v := c.QueryParam("sortBy"); v != "" {
		if _, valid := repository.SortColumn(v); !valid {
			details = append(details, FieldError{"sortBy", "sortBy must be one of createdAt, updatedAt, date, type, severity"})
		} else {
			f.SortBy = v
		}
	}
	if v := strings.ToLower(c.QueryParam("sortOrder")); v != "" {
		if v != "asc" && v != "desc" {
			details = append(details, FieldError{"sortOrder", "sortOrder must be asc or desc"})
		} else {
			f.SortOrder = v
		}
	}
	return f, details
}

// List returns the filtered, paginated accident collection.
func (h *AccidentHandler) List(c echo.Context) error {
	f, details := parseListFilter(c)
	if details != nil {
		return failValidation(c, details)
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	rows, total, pages, err := h.Accidents.Search(ctx, f)
	if err != nil {
		return fail(c, http.StatusInternalServerError, "Failed to retrieve accidents", "GET_ACCIDENTS_ERROR")
	}
	payload := make([]accidentPayload, 0, len(rows))
	for _, a := range rows {
		payload = append(payload, toAccidentPayload(a))
	}
	return okPaged(c, "Accidents retrieved successfully", payload, Pagination{
		Page:       f.Page,
		Limit:      f.Limit,
		Total:      total,
		TotalPages: pages,
	})
}

// Get returns one accident with the reporter's public profile.
func (h *AccidentHandler) Get(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	a, err := h.Accidents.GetByID(ctx, c.Param("id"))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return fail(c, http.StatusNotFound, "Accident not found", "ACCIDENT_NOT_FOUND")
		}
		return fail(c, http.StatusInternalServerError, "Failed to retrieve accident", "GET_ACCIDENT_ERROR")
	}
	return ok(c, http.StatusOK, "Accident retrieved successfully", toAccidentPayload(a))
}

func (r *createAccidentReq) validate() (model.Accident, []FieldError) {
	var details []FieldError
	loc := strings.TrimSpace(r.Location)
	if !lenBetween(loc, 5, 200) {
		details = append(details, FieldError{"location", "location must be between 5 and 200 characters"})
	}
	typ, valid := model.ParseAccidentType(r.Type)
	if !valid {
		details = append(details, FieldError{"type", "unknown accident type"})
	}
	sev, valid := model.ParseAccidentSeverity(r.Severity)
	if !valid {
		details = append(details, FieldError{"severity", "unknown severity"})
	}
	date, valid := parseDate(r.Date)
	if !valid {
		details = append(details, FieldError{"date", "invalid date"})
	} else if date.After(time.Now().UTC()) {
		details = append(details, FieldError{"date", "date must not be in the future"})
	}
	if utf8.RuneCountInString(r.Description) > 500 {
		details = append(details, FieldError{"description", "description must be at most 500 characters"})
	}
	if r.Latitude < -90 || r.Latitude > 90 {
		details = append(details, FieldError{"latitude", "latitude must be between -90 and 90"})
	}
	if r.Longitude < -180 || r.Longitude > 180 {
		details = append(details, FieldError{"longitude", "longitude must be between -180 and 180"})
	}
	if details != nil {
		return model.Accident{}, details
	}
	return model.Accident{
		Location:    loc,
		Type:        typ,
		Severity:    sev,
		Date:        date,
		Description: optional(r.Description),
		Latitude:    r.Latitude,
		Longitude:   r.Longitude,
	}, nil
}

// Create stores a new report. The reporter is always the
// authenticated identity; clients cannot report on behalf of others.
func (h *AccidentHandler) Create(c echo.Context) error {
	u, found := middleware.CurrentUser(c)
	if !found {
		return fail(c, http.StatusUnauthorized, "Authentication required", "UNAUTHORIZED")
	}
	var req createAccidentReq
	if err := c.Bind(&req); err != nil {
		return fail(c, http.StatusBadRequest, "Invalid request body", "VALIDATION_ERROR")
	}
	a, details := req.validate()
	if details != nil {
		return failValidation(c, details)
	}
	a.ReportedBy = &u.ID

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if err := h.Accidents.Create(ctx, &a); err != nil {
		return fail(c, http.StatusBadRequest, "Failed to create accident", "CREATE_ACCIDENT_ERROR")
	}

	if h.PublishEvents {
		ev := queue.AccidentReportedEvent{
			AccidentID: a.ID,
			ReportedBy: u.ID,
			Location:   a.Location,
			Type:       string(a.Type),
			Severity:   string(a.Severity),
			Latitude:   a.Latitude,
			Longitude:  a.Longitude,
			OccurredAt: a.Date.Format(time.RFC3339),
			ReportedAt: a.CreatedAt.Format(time.RFC3339),
		}
		// Fire-and-forget: the publisher logs its own failures and a
		// broker outage must not fail the report.
		go func() { _ = service.PublishAccidentReported(context.Background(), ev) }()
	}

	stored, err := h.Accidents.GetByID(ctx, a.ID)
	if err != nil {
		return fail(c, http.StatusInternalServerError, "Failed to retrieve accident", "GET_ACCIDENT_ERROR")
	}
	return ok(c, http.StatusCreated, "Accident reported successfully", toAccidentPayload(stored))
}

func (r *updateAccidentReq) validate() (repository.AccidentUpdate, []FieldError) {
	var details []FieldError
	var u repository.AccidentUpdate
	if r.Location != nil {
		loc := strings.TrimSpace(*r.Location)
		if !lenBetween(loc, 5, 200) {
			details = append(details, FieldError{"location", "location must be between 5 and 200 characters"})
		}
		u.Location = &loc
	}
	if r.Type != nil {
		typ, valid := model.ParseAccidentType(*r.Type)
		if !valid {
			details = append(details, FieldError{"type", "unknown accident type"})
		}
		u.Type = &typ
	}
	if r.Severity != nil {
		sev, valid := model.ParseAccidentSeverity(*r.Severity)
		if !valid {
			details = append(details, FieldError{"severity", "unknown severity"})
		}
		u.Severity = &sev
	}
	if r.Date != nil {
		date, valid := parseDate(*r.Date)
		if !valid {
			details = append(details, FieldError{"date", "invalid date"})
		} else if date.After(time.Now().UTC()) {
			details = append(details, FieldError{"date", "date must not be in the future"})
		}
		u.Date = &date
	}
	if r.Description != nil {
		if utf8.RuneCountInString(*r.Description) > 500 {
			details = append(details, FieldError{"description", "description must be at most 500 characters"})
		}
		u.Description = r.Description
	}
	if r.Latitude != nil {
		if *r.Latitude < -90 || *r.Latitude > 90 {
			details = append(details, FieldError{"latitude", "latitude must be between -90 and 90"})
		}
		u.Latitude = r.Latitude
	}
	if r.Longitude != nil {
		if *r.Longitude < -180 || *r.Longitude > 180 {
			details = append(details, FieldError{"longitude", "longitude must be between -180 and 180"})
		}
		u.Longitude = r.Longitude
	}
	if details != nil {
		return repository.AccidentUpdate{}, details
	}
	return u, nil
}

// Update applies a partial update. Permitted for operators, admins
// and the original reporter.
func (h *AccidentHandler) Update(c echo.Context) error {
	u, found := middleware.CurrentUser(c)
	if !found {
		return fail(c, http.StatusUnauthorized, "Authentication required", "UNAUTHORIZED")
	}
	var req updateAccidentReq
	if err := c.Bind(&req); err != nil {
		return fail(c, http.StatusBadRequest, "Invalid request body", "VALIDATION_ERROR")
	}
	upd, details := req.validate()
	if details != nil {
		return failValidation(c, details)
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	id := c.Param("id")
	existing, err := h.Accidents.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return fail(c, http.StatusNotFound, "Accident not found", "ACCIDENT_NOT_FOUND")
		}
		return fail(c, http.StatusInternalServerError, "Failed to retrieve accident", "GET_ACCIDENT_ERROR")
	}
	if !model.CanUpdateAccident(u.Role, u.ID, existing.ReportedBy) {
		return fail(c, http.StatusForbidden, "Insufficient permissions to update this accident", "INSUFFICIENT_PERMISSIONS")
	}

	if err := h.Accidents.Update(ctx, id, upd); err != nil {
		return fail(c, http.StatusBadRequest, "Failed to update accident", "UPDATE_ACCIDENT_ERROR")
	}
	stored, err := h.Accidents.GetByID(ctx, id)
	if err != nil {
		return fail(c, http.StatusInternalServerError, "Failed to retrieve accident", "GET_ACCIDENT_ERROR")
	}
	return ok(c, http.StatusOK, "Accident updated successfully", toAccidentPayload(stored))
}

// Delete removes a report. OPERATOR/ADMIN only; the reporter
// deliberately cannot delete their own report.
func (h *AccidentHandler) Delete(c echo.Context) error {
	u, found := middleware.CurrentUser(c)
	if !found {
		return fail(c, http.StatusUnauthorized, "Authentication required", "UNAUTHORIZED")
	}
	if !model.CanDeleteAccident(u.Role) {
		return fail(c, http.StatusForbidden, "Insufficient permissions to delete accidents", "INSUFFICIENT_PERMISSIONS")
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if err := h.Accidents.Delete(ctx, c.Param("id")); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return fail(c, http.StatusNotFound, "Accident not found", "ACCIDENT_NOT_FOUND")
		}
		return fail(c, http.StatusInternalServerError, "Failed to delete accident", "DELETE_ACCIDENT_ERROR")
	}
	return ok(c, http.StatusOK, "Accident deleted successfully", nil)
}

// Stats aggregates dashboard counters, optionally scoped to a date
// range.
func (h *AccidentHandler) Stats(c echo.Context) error {
	var start, end *time.Time
	var details []FieldError
	if v := c.QueryParam("startDate"); v != "" {
		t, valid := parseDate(v)
		if !valid {
			details = append(details, FieldError{"startDate", "invalid date"})
		} else {
			start = &t
		}
	}
	if v := c.QueryParam("endDate"); v != "" {
		t, valid := parseDate(v)
		if !valid {
			details = append(details, FieldError{"endDate", "invalid date"})
		} else {
			end = &t
		}
	}
	if details != nil {
		return failValidation(c, details)
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	stats, err := h.Accidents.Stats(ctx, start, end)
	if err != nil {
		return fail(c, http.StatusInternalServerError, "Failed to retrieve accident statistics", "GET_ACCIDENT_STATS_ERROR")
	}
	return ok(c, http.StatusOK, "Accident statistics retrieved successfully", stats)
}
