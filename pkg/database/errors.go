// Copyright 2025 Certen Protocol
//
// Database package errors

package database

import "errors"

// Common errors for the database package
var (
	ErrNilConfig        = errors.New("config cannot be nil")
	ErrEmptyDatabaseURL = errors.New("database URL cannot be empty")
	ErrRecordNotFound   = errors.New("record not found")
)
