// Package database handles the staging database connection and schema checks.
//
// It wraps GORM so the staging store can run on MySQL in production and on
// SQLite for local runs and tests.
//
// # Connect
//
// Connect builds the dialector from Config.Driver, applies pool settings and
// pings with the configured timeout.
//
// # Schema Inspection
//
// The staging table is owned by the extraction process. MissingColumns lets the
// sync verify that every column it reads or writes exists before a pass.
//
// # Usage
//
//	db, err := database.Connect(cfg.Database)
//	missing, err := database.MissingColumns(db, "ecomm_order_staging", columns)
package database
