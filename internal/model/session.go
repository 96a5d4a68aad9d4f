package model

import "time"

// Session models a row in the `sessions` table: one issued refresh
// token. A user may hold several live sessions at once (one per
// device). A session authorizes a refresh only while
// now < ExpiresAt; expired rows are filtered out at query time, not
// reaped in the background.
//
// Refresh rotation updates the same row in place with a new token
// and expiry, guarded by a compare-and-swap on the old token value
// so two concurrent refreshes with the same token cannot both win.
//
// Fields:
//  ID        – CHAR(36) primary key (UUID).
//  UserID    – owning user; rows are deleted with the user.
//  Token     – the signed refresh JWT exactly as handed to the client.
//  ExpiresAt – absolute expiry timestamp.
//  CreatedAt – timestamp of creation.
type Session struct {
	ID        string
	UserID    string
	Token     string
	ExpiresAt time.Time
	CreatedAt time.Time
}
