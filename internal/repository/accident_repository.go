package repository

import (
	"context"
	"database/sql"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/urbanlens/smart-city-api/internal/model"
)

// AccidentRepo persists rows of the `accidents` table and answers
// the filtered list, stats and nearby queries.
type AccidentRepo struct{ DB *sql.DB }

func NewAccidentRepo(db *sql.DB) *AccidentRepo { return &AccidentRepo{DB: db} }

// AccidentFilter defines filters, pagination and sorting for the
// list query. Fields are assumed validated at the handler boundary:
// enums from the closed sets, Page >= 1, Limit in 1..100, SortBy one
// of the allow-listed names.
type AccidentFilter struct {
	Type      string
	Severity  string
	StartDate *time.Time
	EndDate   *time.Time
	Latitude  *float64
	Longitude *float64
	RadiusKM  *float64
	Page      int
	Limit     int
	SortBy    string
	SortOrder string
}

// sortColumns is the allow-list mapping request sort names to
// columns. Anything outside it is rejected before the repository is
// reached; SortColumn is consulted again here as a second guard
// because the sort key is spliced into the statement.
var sortColumns = map[string]string{
	"createdAt": "a.created_at",
	"updatedAt": "a.updated_at",
	"date":      "a.date",
	"type":      "a.type",
	"severity":  "a.severity",
}

// SortColumn resolves a request sort name to its column, defaulting
// to created_at.
func SortColumn(name string) (string, bool) {
	if c, ok := sortColumns[name]; ok {
		return c, true
	}
	return sortColumns["createdAt"], false
}

// boundingBox converts a center and radius in kilometers to a
// lat/lon box using the flat-earth approximation: one degree of
// latitude is ~111 km, one degree of longitude shrinks with
// cos(latitude). The box widens toward the poles; that imprecision
// is accepted at city scale.
func boundingBox(lat, lon, radiusKM float64) (latMin, latMax, lonMin, lonMax float64) {
	latHalf := radiusKM / 111
	lonHalf := radiusKM / (111 * math.Cos(lat*math.Pi/180))
	return lat - latHalf, lat + latHalf, lon - lonHalf, lon + lonHalf
}

// totalPages computes the page count for a result set.
func totalPages(total int64, limit int) int {
	if limit <= 0 {
		return 0
	}
	return int(math.Ceil(float64(total) / float64(limit)))
}

// monthWindows returns the start of the current calendar month, the
// start of the previous one, and the last instant before the current
// month began, all in UTC.
func monthWindows(now time.Time) (thisStart, lastStart, lastEnd time.Time) {
	now = now.UTC()
	thisStart = time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	lastStart = thisStart.AddDate(0, -1, 0)
	lastEnd = thisStart.Add(-time.Second)
	return
}

// trendOf classifies the month-over-month movement.
func trendOf(thisMonth, lastMonth int64) string {
	switch {
	case thisMonth > lastMonth:
		return "up"
	case thisMonth < lastMonth:
		return "down"
	default:
		return "stable"
	}
}

const accidentSelect = `SELECT
		a.id, a.location, a.type, a.severity, a.date, a.description,
		a.latitude, a.longitude, a.reported_by, a.zone_id,
		a.created_at, a.updated_at,
		u.id, u.first_name, u.last_name, u.email
	FROM accidents a
	LEFT JOIN users u ON u.id = a.reported_by`

func scanAccident(row interface{ Scan(...any) error }) (model.AccidentWithReporter, error) {
	var (
		out                      model.AccidentWithReporter
		typ, sev                 string
		repID, repFirst, repLast sql.NullString
		repEmail                 sql.NullString
	)
	err := row.Scan(
		&out.ID, &out.Location, &typ, &sev, &out.Date, &out.Description,
		&out.Latitude, &out.Longitude, &out.ReportedBy, &out.ZoneID,
		&out.CreatedAt, &out.UpdatedAt,
		&repID, &repFirst, &repLast, &repEmail)
	if err != nil {
		return model.AccidentWithReporter{}, err
	}
	out.Type = model.AccidentType(typ)
	out.Severity = model.AccidentSeverity(sev)
	if repID.Valid {
		out.Reporter = &model.Reporter{
			ID:        repID.String,
			FirstName: repFirst.String,
			LastName:  repLast.String,
			Email:     repEmail.String,
		}
	}
	return out, nil
}

// Search runs the filtered, paginated list query and returns the
// page of rows, the total match count, and the computed page count.
func (r *AccidentRepo) Search(ctx context.Context, f AccidentFilter) ([]model.AccidentWithReporter, int64, int, error) {
	where := []string{}
	args := []any{}

	if f.Type != "" {
		where = append(where, "a.type=?")
		args = append(args, f.Type)
	}
	if f.Severity != "" {
		where = append(where, "a.severity=?")
		args = append(args, f.Severity)
	}
	if f.StartDate != nil {
		where = append(where, "a.date>=?")
		args = append(args, f.StartDate.UTC())
	}
	if f.EndDate != nil {
		where = append(where, "a.date<=?")
		args = append(args, f.EndDate.UTC())
	}
	if f.Latitude != nil && f.Longitude != nil && f.RadiusKM != nil {
		latMin, latMax, lonMin, lonMax := boundingBox(*f.Latitude, *f.Longitude, *f.RadiusKM)
		where = append(where, "a.latitude BETWEEN ? AND ?", "a.longitude BETWEEN ? AND ?")
		args = append(args, latMin, latMax, lonMin, lonMax)
	}

	cond := "1=1"
	if len(where) > 0 {
		cond = strings.Join(where, " AND ")
	}

	var total int64
	if err := r.DB.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM accidents a WHERE "+cond, args...).Scan(&total); err != nil {
		return nil, 0, 0, err
	}

	col, _ := SortColumn(f.SortBy)
	dir := "DESC"
	if strings.EqualFold(f.SortOrder, "asc") {
		dir = "ASC"
	}

	limit := f.Limit
	offset := (f.Page - 1) * f.Limit
	dataSQL := accidentSelect + " WHERE " + cond +
		" ORDER BY " + col + " " + dir + " LIMIT ? OFFSET ?"
	argsData := append(append([]any{}, args...), limit, offset)

	rows, err := r.DB.QueryContext(ctx, dataSQL, argsData...)
	if err != nil {
		return nil, 0, 0, err
	}
	defer rows.Close()

	out := make([]model.AccidentWithReporter, 0, limit)
	for rows.Next() {
		a, err := scanAccident(rows)
		if err != nil {
			return nil, 0, 0, err
		}
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, 0, err
	}
	return out, total, totalPages(total, limit), nil
}

// GetByID fetches one accident with the reporter's public profile
// joined in.
func (r *AccidentRepo) GetByID(ctx context.Context, id string) (model.AccidentWithReporter, error) {
	a, err := scanAccident(r.DB.QueryRowContext(ctx, accidentSelect+" WHERE a.id=? LIMIT 1", id))
	if err == sql.ErrNoRows {
		return model.AccidentWithReporter{}, ErrNotFound
	}
	if err != nil {
		return model.AccidentWithReporter{}, err
	}
	return a, nil
}

// Create inserts a new accident row. A missing ID is filled with a
// fresh UUID; timestamps are set here.
func (r *AccidentRepo) Create(ctx context.Context, a *model.Accident) error {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	now := time.Now().UTC().Truncate(time.Second)
	a.CreatedAt, a.UpdatedAt = now, now
	_, err := r.DB.ExecContext(ctx,
		`INSERT INTO accidents
			(id,location,type,severity,date,description,latitude,longitude,reported_by,zone_id,created_at,updated_at)
		 VALUES (?,?,?,?,?,?,?,?,?,?,?,?)`,
		a.ID, a.Location, string(a.Type), string(a.Severity), a.Date.UTC(),
		a.Description, a.Latitude, a.Longitude, a.ReportedBy, a.ZoneID,
		a.CreatedAt, a.UpdatedAt)
	return err
}

// AccidentUpdate carries the optional fields of a partial update;
// nil pointers leave the stored value unchanged.
type AccidentUpdate struct {
	Location    *string
	Type        *model.AccidentType
	Severity    *model.AccidentSeverity
	Date        *time.Time
	Description *string
	Latitude    *float64
	Longitude   *float64
}

// Update applies a partial update and bumps updated_at. It is a
// no-op (but not an error) when every field is nil.
func (r *AccidentRepo) Update(ctx context.Context, id string, u AccidentUpdate) error {
	set := []string{}
	args := []any{}
	if u.Location != nil {
		set = append(set, "location=?")
		args = append(args, *u.Location)
	}
	if u.Type != nil {
		set = append(set, "type=?")
		args = append(args, string(*u.Type))
	}
	if u.Severity != nil {
		set = append(set, "severity=?")
		args = append(args, string(*u.Severity))
	}
	if u.Date != nil {
		set = append(set, "date=?")
		args = append(args, u.Date.UTC())
	}
	if u.Description != nil {
		set = append(set, "description=?")
		args = append(args, *u.Description)
	}
	if u.Latitude != nil {
		set = append(set, "latitude=?")
		args = append(args, *u.Latitude)
	}
	if u.Longitude != nil {
		set = append(set, "longitude=?")
		args = append(args, *u.Longitude)
	}
	if len(set) == 0 {
		return nil
	}
	set = append(set, "updated_at=UTC_TIMESTAMP()")
	args = append(args, id)
	_, err := r.DB.ExecContext(ctx,
		"UPDATE accidents SET "+strings.Join(set, ", ")+" WHERE id=?", args...)
	return err
}

// Delete removes an accident row; ErrNotFound when the id is unknown.
func (r *AccidentRepo) Delete(ctx context.Context, id string) error {
	res, err := r.DB.ExecContext(ctx, "DELETE FROM accidents WHERE id=?", id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// Stats aggregates counts by type and severity, optionally scoped to
// a date range, plus the current-vs-previous calendar month trend.
// The month counters deliberately ignore the passed range: they
// always describe the two most recent calendar months.
func (r *AccidentRepo) Stats(ctx context.Context, start, end *time.Time) (model.AccidentStats, error) {
	where := []string{}
	args := []any{}
	if start != nil {
		where = append(where, "date>=?")
		args = append(args, start.UTC())
	}
	if end != nil {
		where = append(where, "date<=?")
		args = append(args, end.UTC())
	}
	cond := "1=1"
	if len(where) > 0 {
		cond = strings.Join(where, " AND ")
	}

	stats := model.AccidentStats{
		ByType:     map[string]int64{},
		BySeverity: map[string]int64{},
	}
	if err := r.DB.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM accidents WHERE "+cond, args...).Scan(&stats.Total); err != nil {
		return model.AccidentStats{}, err
	}
	if err := r.groupCount(ctx, "type", cond, args, stats.ByType); err != nil {
		return model.AccidentStats{}, err
	}
	if err := r.groupCount(ctx, "severity", cond, args, stats.BySeverity); err != nil {
		return model.AccidentStats{}, err
	}

	thisStart, lastStart, lastEnd := monthWindows(time.Now())
	if err := r.DB.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM accidents WHERE date>=?", thisStart).Scan(&stats.ThisMonth); err != nil {
		return model.AccidentStats{}, err
	}
	if err := r.DB.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM accidents WHERE date>=? AND date<=?", lastStart, lastEnd).Scan(&stats.LastMonth); err != nil {
		return model.AccidentStats{}, err
	}
	stats.Trend = trendOf(stats.ThisMonth, stats.LastMonth)
	return stats, nil
}

func (r *AccidentRepo) groupCount(ctx context.Context, column, cond string, args []any, into map[string]int64) error {
	rows, err := r.DB.QueryContext(ctx,
		"SELECT "+column+", COUNT(*) FROM accidents WHERE "+cond+" GROUP BY "+column, args...)
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		var key string
		var n int64
		if err := rows.Scan(&key, &n); err != nil {
			return err
		}
		into[key] = n
	}
	return rows.Err()
}
