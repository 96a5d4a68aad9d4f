package model

import "time"

// AccidentType is the categorical type of a reported accident.
type AccidentType string

const (
	AccidentCollision  AccidentType = "COLLISION"
	AccidentPedestrian AccidentType = "PEDESTRIAN"
	AccidentMotorcycle AccidentType = "MOTORCYCLE"
	AccidentBicycle    AccidentType = "BICYCLE"
	AccidentRollover   AccidentType = "ROLLOVER"
)

// ParseAccidentType validates a type string against the closed set.
func ParseAccidentType(s string) (AccidentType, bool) {
	switch AccidentType(s) {
	case AccidentCollision, AccidentPedestrian, AccidentMotorcycle,
		AccidentBicycle, AccidentRollover:
		return AccidentType(s), true
	}
	return "", false
}

// AccidentSeverity grades the outcome of an accident.
type AccidentSeverity string

const (
	SeverityMinor    AccidentSeverity = "MINOR"
	SeverityModerate AccidentSeverity = "MODERATE"
	SeveritySevere   AccidentSeverity = "SEVERE"
	SeverityFatal    AccidentSeverity = "FATAL"
)

// ParseAccidentSeverity validates a severity string against the closed set.
func ParseAccidentSeverity(s string) (AccidentSeverity, bool) {
	switch AccidentSeverity(s) {
	case SeverityMinor, SeverityModerate, SeveritySevere, SeverityFatal:
		return AccidentSeverity(s), true
	}
	return "", false
}

// Accident represents a row in the `accidents` table.
//
// Fields:
//  ID          – CHAR(36) primary key (UUID).
//  Location    – human-readable location string.
//  Type        – categorical accident type.
//  Severity    – categorical severity.
//  Date        – when the accident occurred; never in the future.
//  Description – optional free text.
//  Latitude    – in [-90, 90].
//  Longitude   – in [-180, 180].
//  ReportedBy  – reporting user, nil for anonymous/seeded reports.
//  ZoneID      – optional owning city zone.
//  CreatedAt   – timestamp of creation.
//  UpdatedAt   – timestamp of last update.
type Accident struct {
	ID          string
	Location    string
	Type        AccidentType
	Severity    AccidentSeverity
	Date        time.Time
	Description *string
	Latitude    float64
	Longitude   float64
	ReportedBy  *string
	ZoneID      *string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Reporter carries the public profile fields of the user who filed a
// report, joined into accident reads.
type Reporter struct {
	ID        string `json:"id"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Email     string `json:"email"`
}

// AccidentWithReporter is an accident row with the reporter's public
// profile joined in. Reporter is nil when ReportedBy is null.
type AccidentWithReporter struct {
	Accident
	Reporter *Reporter
}

// AccidentStats aggregates counts for the dashboard: totals grouped
// by type and severity plus a month-over-month trend. Trend is one
// of "up", "down", "stable".
type AccidentStats struct {
	Total      int64            `json:"total"`
	ByType     map[string]int64 `json:"byType"`
	BySeverity map[string]int64 `json:"bySeverity"`
	ThisMonth  int64            `json:"thisMonth"`
	LastMonth  int64            `json:"lastMonth"`
	Trend      string           `json:"trend"`
}
