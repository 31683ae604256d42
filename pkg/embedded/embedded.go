// Package embedded provides files compiled into the eventscope binaries.
package embedded

import (
	"embed"
	"fmt"
)

// Schemas contains the SQL schema files, one per database name:
//   - schemas/market_schema.sql - index, industry, stock and stock_industry tables
//
//go:embed schemas/*.sql
var Schemas embed.FS

// Schema returns the schema for a database name, e.g. "market".
func Schema(name string) (string, error) {
	content, err := Schemas.ReadFile(fmt.Sprintf("schemas/%s_schema.sql", name))
	if err != nil {
		return "", fmt.Errorf("no schema for database %s: %w", name, err)
	}
	return string(content), nil
}
