package model

import "time"

// Notification models a row in the `notifications` table. Rows are
// written by the accident event consumer; the REST surface does not
// expose them directly.
//
// Fields:
//  ID        – CHAR(36) primary key (UUID).
//  UserID    – recipient.
//  Title     – short headline.
//  Message   – body text.
//  Type      – freeform category (e.g. "accident").
//  IsRead    – read flag, false on insert.
//  CreatedAt – timestamp of creation.
type Notification struct {
	ID        string
	UserID    string
	Title     string
	Message   string
	Type      string
	IsRead    bool
	CreatedAt time.Time
}
