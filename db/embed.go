// Package db provides the embedded schema of the PostgreSQL session store.
package db

import _ "embed"

// Schema contains the DDL for the cart_items table.
//
//go:embed migrations/001_schema.sql
var Schema string
