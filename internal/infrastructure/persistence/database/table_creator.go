package database

import (
	"database/sql"
	"fmt"
)

var tables = []string{
	`CREATE TABLE IF NOT EXISTS page_views (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		url TEXT NOT NULL,
		visitor_id TEXT NOT NULL,
		device TEXT NOT NULL DEFAULT 'desktop',
		created_at TEXT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS daily_analytics (
		user_id TEXT NOT NULL,
		day TEXT NOT NULL,
		page_views INTEGER NOT NULL DEFAULT 0,
		unique_visitors INTEGER NOT NULL DEFAULT 0,
		desktop_views INTEGER NOT NULL DEFAULT 0,
		mobile_views INTEGER NOT NULL DEFAULT 0,
		tablet_views INTEGER NOT NULL DEFAULT 0,
		top_pages TEXT NOT NULL DEFAULT '[]',
		PRIMARY KEY (user_id, day)
	)`,
	`CREATE TABLE IF NOT EXISTS daily_visitors (
		user_id TEXT NOT NULL,
		day TEXT NOT NULL,
		visitor_id TEXT NOT NULL,
		PRIMARY KEY (user_id, day, visitor_id)
	)`,
	`CREATE TABLE IF NOT EXISTS insight_snapshots (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		source TEXT NOT NULL,
		period_start TEXT NOT NULL,
		period_end TEXT NOT NULL,
		payload TEXT NOT NULL,
		created_at TEXT NOT NULL
	)`,
}

var indexes = []string{
	`CREATE INDEX IF NOT EXISTS idx_page_views_user_created ON page_views (user_id, created_at)`,
	`CREATE INDEX IF NOT EXISTS idx_daily_analytics_user_day ON daily_analytics (user_id, day)`,
	`CREATE INDEX IF NOT EXISTS idx_insight_snapshots_user_source ON insight_snapshots (user_id, source, created_at)`,
}

// TableCreator handles the creation of the database schema.
type TableCreator struct{}

// NewTableCreator creates a new TableCreator.
func NewTableCreator() *TableCreator {
	return &TableCreator{}
}

// CreateSchema executes all necessary queries to build the tables and indexes.
func (tc *TableCreator) CreateSchema(db *sql.DB) error {
	for _, tableSQL := range tables {
		if _, err := db.Exec(tableSQL); err != nil {
			return fmt.Errorf("failed to create table for query [%s]: %w", tableSQL, err)
		}
	}

	for _, indexSQL := range indexes {
		if _, err := db.Exec(indexSQL); err != nil {
			return fmt.Errorf("failed to create index for query [%s]: %w", indexSQL, err)
		}
	}
	return nil
}
