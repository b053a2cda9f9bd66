// Package gorm provides GORM-based database operations for noteagent.
package gorm

import "database/sql"

// NullString creates a sql.NullString from a string.
func NullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{Valid: false}
	}
	return sql.NullString{String: s, Valid: true}
}

// NullInt64 creates a sql.NullInt64, treating zero as absent.
func NullInt64(val int64) sql.NullInt64 {
	if val == 0 {
		return sql.NullInt64{Valid: false}
	}
	return sql.NullInt64{Int64: val, Valid: true}
}

// NullFloat64 creates a sql.NullFloat64, treating zero as absent.
func NullFloat64(val float64) sql.NullFloat64 {
	if val == 0 {
		return sql.NullFloat64{Valid: false}
	}
	return sql.NullFloat64{Float64: val, Valid: true}
}
