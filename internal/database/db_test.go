package database

import (
	"strings"
	"testing"
	"time"
)

func TestDSN(t *testing.T) {
	c := Config{User: "api", Pass: "s3cret", Host: "db.internal", Port: "3306", Name: "smartcity"}
	got := dsn(c)
	want := "api:s3cret@tcp(db.internal:3306)/smartcity?charset=utf8mb4&parseTime=true&loc=UTC"
	if got != want {
		t.Errorf("dsn = %q, want %q", got, want)
	}
}

func TestDSNEmptyPassword(t *testing.T) {
	c := Config{User: "root", Host: "localhost", Port: "3306", Name: "smartcity"}
	got := dsn(c)
	if strings.Contains(got, ":@") {
		t.Errorf("dsn with empty password must omit the colon: %q", got)
	}
	if !strings.HasPrefix(got, "root@tcp(") {
		t.Errorf("dsn = %q", got)
	}
	for _, param := range []string{"parseTime=true", "loc=UTC", "charset=utf8mb4"} {
		if !strings.Contains(got, param) {
			t.Errorf("dsn missing %s: %q", param, got)
		}
	}
}

func TestConfigDefaults(t *testing.T) {
	c := Config{}.withDefaults()
	if c.MaxOpenConns != 25 || c.MaxIdleConns != 25 {
		t.Errorf("pool sizes = %d/%d, want 25/25", c.MaxOpenConns, c.MaxIdleConns)
	}
	if c.ConnMaxLifetime != 30*time.Minute {
		t.Errorf("lifetime = %v", c.ConnMaxLifetime)
	}
	if c.PingTimeout != 5*time.Second {
		t.Errorf("ping timeout = %v", c.PingTimeout)
	}

	// Idle conns follow the configured open-conn cap when only that
	// is set.
	c = Config{MaxOpenConns: 10}.withDefaults()
	if c.MaxIdleConns != 10 {
		t.Errorf("idle conns = %d, want 10", c.MaxIdleConns)
	}

	// Explicit values pass through untouched.
	c = Config{MaxOpenConns: 50, MaxIdleConns: 5, ConnMaxLifetime: time.Hour, PingTimeout: time.Second}.withDefaults()
	if c.MaxOpenConns != 50 || c.MaxIdleConns != 5 || c.ConnMaxLifetime != time.Hour || c.PingTimeout != time.Second {
		t.Errorf("explicit config altered: %+v", c)
	}
}
