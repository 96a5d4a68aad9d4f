package model

import "time"

// Preferences is the freeform preference bag stored as JSON in
// users.preferences. New accounts get DefaultPreferences.
type Preferences struct {
	Notifications bool   `json:"notifications"`
	Language      string `json:"language"`
	Theme         string `json:"theme"`
	EmailUpdates  bool   `json:"emailUpdates"`
}

// DefaultPreferences returns the preference bag assigned at registration.
func DefaultPreferences() Preferences {
	return Preferences{
		Notifications: true,
		Language:      "es",
		Theme:         "light",
		EmailUpdates:  true,
	}
}

// User represents an application user record as stored in the
// `users` table. Each field corresponds to a column. JSON tags are
// omitted here because these structs are used by the repository
// layer; handlers define separate response types and never expose
// PasswordHash.
//
// Fields:
//  ID           – CHAR(36) primary key (UUID).
//  Email        – unique, stored lowercased.
//  PasswordHash – bcrypt hash; never the plaintext.
//  FirstName    – users.first_name.
//  LastName     – users.last_name.
//  Phone        – optional contact number.
//  Address      – optional street address.
//  City         – optional city name.
//  PostalCode   – optional postal code.
//  Role         – one of CITIZEN, OPERATOR, ADMIN.
//  IsActive     – deactivation flag; inactive accounts cannot
//                 authenticate even with a still-valid token.
//  Avatar       – optional avatar reference.
//  Preferences  – JSON preference bag.
//  CreatedAt    – timestamp of creation.
//  UpdatedAt    – timestamp of last update.
type User struct {
	ID           string
	Email        string
	PasswordHash string
	FirstName    string
	LastName     string
	Phone        *string
	Address      *string
	City         *string
	PostalCode   *string
	Role         Role
	IsActive     bool
	Avatar       *string
	Preferences  Preferences
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
