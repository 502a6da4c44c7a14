// Package analytics provides the SQL-based implementation of the daily
// traffic rollup store backing the analytics aggregator.
package analytics

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/AdvisorReachMedia/insightstack-go/internal/domain/analytics"
	"github.com/AdvisorReachMedia/insightstack-go/internal/infrastructure/observability/logging"
	"github.com/AdvisorReachMedia/insightstack-go/internal/infrastructure/persistence/database"
	"github.com/AdvisorReachMedia/insightstack-go/internal/infrastructure/security"
	"github.com/AdvisorReachMedia/insightstack-go/pkg/config"
)

const dayFormat = "2006-01-02"

// SQLRollupRepository is the SQL-based implementation of the rollup store.
type SQLRollupRepository struct {
	db     *database.DB
	logger *logging.ChanneledLogger
}

// NewSQLRollupRepository creates a new instance of the repository.
func NewSQLRollupRepository(db *database.DB, logger *logging.ChanneledLogger) *SQLRollupRepository {
	return &SQLRollupRepository{
		db:     db,
		logger: logger,
	}
}

// RecordPageView stores a raw page view and folds it into the day's rollup
// row inside a single transaction.
func (r *SQLRollupRepository) RecordPageView(view *analytics.PageView) error {
	start := time.Now()
	day := view.CreatedAt.Format(dayFormat)
	r.logger.Database().Debug("Recording page view", "userId", view.UserID, "url", view.URL, "day", day)

	tx, err := r.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin pageview transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.Exec(
		`INSERT INTO page_views (id, user_id, url, visitor_id, device, created_at) VALUES (?, ?, ?, ?, ?, ?)`,
		security.GenerateULID(), view.UserID, view.URL, view.VisitorID, view.Device, view.CreatedAt.UTC().Format(time.RFC3339),
	)
	if err != nil {
		r.logger.Database().Error("Page view insert failed", "error", err.Error(), "userId", view.UserID)
		return err
	}

	newVisitor, err := r.markVisitor(tx, view.UserID, day, view.VisitorID)
	if err != nil {
		r.logger.Database().Error("Visitor tracking failed", "error", err.Error(), "userId", view.UserID)
		return err
	}

	if err := r.foldIntoRollup(tx, view, day, newVisitor); err != nil {
		r.logger.Database().Error("Daily rollup update failed", "error", err.Error(), "userId", view.UserID, "day", day)
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit pageview transaction: %w", err)
	}

	duration := time.Since(start)
	if duration > config.SlowQueryThreshold {
		r.logger.LogSlowQuery("RECORD_PAGE_VIEW", duration, view.UserID)
	}
	return nil
}

// markVisitor records the visitor for the day and reports whether it was the
// first view by this visitor today.
func (r *SQLRollupRepository) markVisitor(tx *sql.Tx, userID, day, visitorID string) (bool, error) {
	res, err := tx.Exec(
		`INSERT OR IGNORE INTO daily_visitors (user_id, day, visitor_id) VALUES (?, ?, ?)`,
		userID, day, visitorID,
	)
	if err != nil {
		return false, err
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return rows > 0, nil
}

func (r *SQLRollupRepository) foldIntoRollup(tx *sql.Tx, view *analytics.PageView, day string, newVisitor bool) error {
	var topPagesJSON string
	err := tx.QueryRow(
		`SELECT top_pages FROM daily_analytics WHERE user_id = ? AND day = ?`,
		view.UserID, day,
	).Scan(&topPagesJSON)
	if err == sql.ErrNoRows {
		topPagesJSON = "[]"
		_, err = tx.Exec(
			`INSERT INTO daily_analytics (user_id, day) VALUES (?, ?)`,
			view.UserID, day,
		)
	}
	if err != nil {
		return err
	}

	updatedTopPages, err := bumpTopPage(topPagesJSON, view.URL)
	if err != nil {
		return err
	}

	deviceColumn := "desktop_views"
	switch view.Device {
	case analytics.DeviceMobile:
		deviceColumn = "mobile_views"
	case analytics.DeviceTablet:
		deviceColumn = "tablet_views"
	}

	visitorBump := 0
	if newVisitor {
		visitorBump = 1
	}

	query := fmt.Sprintf(
		`UPDATE daily_analytics
		 SET page_views = page_views + 1,
		     unique_visitors = unique_visitors + ?,
		     %s = %s + 1,
		     top_pages = ?
		 WHERE user_id = ? AND day = ?`,
		deviceColumn, deviceColumn,
	)
	_, err = tx.Exec(query, visitorBump, updatedTopPages, view.UserID, day)
	return err
}

// bumpTopPage increments the URL's count inside a day's top-pages JSON,
// appending the URL on first sight. First-seen order is preserved; ranking
// happens at read time.
func bumpTopPage(topPagesJSON, url string) (string, error) {
	var pages []analytics.TopPage
	if err := json.Unmarshal([]byte(topPagesJSON), &pages); err != nil {
		return "", fmt.Errorf("corrupt top_pages payload: %w", err)
	}

	found := false
	for i := range pages {
		if pages[i].URL == url {
			pages[i].Count++
			found = true
			break
		}
	}
	if !found {
		pages = append(pages, analytics.TopPage{URL: url, Count: 1})
	}

	out, err := json.Marshal(pages)
	if err != nil {
		return "", err
	}
	return string(out), nil
}

// WindowTotals returns summed page views and distinct visitors over [start, end).
func (r *SQLRollupRepository) WindowTotals(userID string, start, end time.Time) (int, int, error) {
	const viewsQuery = `
		SELECT COALESCE(SUM(page_views), 0)
		FROM daily_analytics
		WHERE user_id = ? AND day >= ? AND day <= ?`
	const visitorsQuery = `
		SELECT COUNT(DISTINCT visitor_id)
		FROM daily_visitors
		WHERE user_id = ? AND day >= ? AND day <= ?`

	began := time.Now()
	startDay := start.Format(dayFormat)
	endDay := end.Format(dayFormat)
	r.logger.Database().Debug("Loading window totals", "userId", userID, "start", startDay, "end", endDay)

	var views int
	if err := r.db.QueryRow(viewsQuery, userID, startDay, endDay).Scan(&views); err != nil {
		r.logger.Database().Error("Failed to load window page views", "error", err.Error(), "userId", userID)
		return 0, 0, err
	}

	var visitors int
	if err := r.db.QueryRow(visitorsQuery, userID, startDay, endDay).Scan(&visitors); err != nil {
		r.logger.Database().Error("Failed to load window visitors", "error", err.Error(), "userId", userID)
		return 0, 0, err
	}

	duration := time.Since(began)
	if duration > config.SlowQueryThreshold {
		r.logger.LogSlowQuery(viewsQuery, duration, userID)
	}
	return views, visitors, nil
}

// DailyTrend returns per-day counts and top-pages for the window, ordered by day.
func (r *SQLRollupRepository) DailyTrend(userID string, start, end time.Time) ([]analytics.DailyStat, error) {
	const query = `
		SELECT day, page_views, unique_visitors, top_pages
		FROM daily_analytics
		WHERE user_id = ? AND day >= ? AND day <= ?
		ORDER BY day ASC`

	began := time.Now()
	rows, err := r.db.Query(query, userID, start.Format(dayFormat), end.Format(dayFormat))
	if err != nil {
		r.logger.Database().Error("Failed to load daily trend", "error", err.Error(), "userId", userID)
		return nil, err
	}
	defer rows.Close()

	stats := make([]analytics.DailyStat, 0)
	for rows.Next() {
		var stat analytics.DailyStat
		var topPagesJSON string
		if err := rows.Scan(&stat.Day, &stat.PageViews, &stat.UniqueVisitors, &topPagesJSON); err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(topPagesJSON), &stat.TopPages); err != nil {
			return nil, fmt.Errorf("corrupt top_pages payload for day %s: %w", stat.Day, err)
		}
		stats = append(stats, stat)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	duration := time.Since(began)
	if duration > config.SlowQueryThreshold {
		r.logger.LogSlowQuery(query, duration, userID)
	}
	return stats, nil
}

// DeviceSplit returns summed per-device view counts for the window.
func (r *SQLRollupRepository) DeviceSplit(userID string, start, end time.Time) (analytics.DeviceSplit, error) {
	const query = `
		SELECT COALESCE(SUM(desktop_views), 0), COALESCE(SUM(mobile_views), 0), COALESCE(SUM(tablet_views), 0)
		FROM daily_analytics
		WHERE user_id = ? AND day >= ? AND day <= ?`

	began := time.Now()
	var split analytics.DeviceSplit
	err := r.db.QueryRow(query, userID, start.Format(dayFormat), end.Format(dayFormat)).
		Scan(&split.Desktop, &split.Mobile, &split.Tablet)
	if err != nil {
		r.logger.Database().Error("Failed to load device split", "error", err.Error(), "userId", userID)
		return analytics.DeviceSplit{}, err
	}

	duration := time.Since(began)
	if duration > config.SlowQueryThreshold {
		r.logger.LogSlowQuery(query, duration, userID)
	}
	return split, nil
}
