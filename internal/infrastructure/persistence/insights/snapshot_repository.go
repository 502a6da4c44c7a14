// Package insights provides the SQL-based implementation of the append-only
// insight snapshot log. Rows are only ever inserted; reads take the newest
// row for (user, source), which makes TTL expiry a read-side concern.
package insights

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/AdvisorReachMedia/insightstack-go/internal/domain/insights"
	"github.com/AdvisorReachMedia/insightstack-go/internal/infrastructure/observability/logging"
	"github.com/AdvisorReachMedia/insightstack-go/internal/infrastructure/persistence/database"
	"github.com/AdvisorReachMedia/insightstack-go/pkg/config"
)

// SQLSnapshotRepository is the SQL-based implementation of the snapshot log.
type SQLSnapshotRepository struct {
	db     *database.DB
	logger *logging.ChanneledLogger
}

// NewSQLSnapshotRepository creates a new instance of the repository.
func NewSQLSnapshotRepository(db *database.DB, logger *logging.ChanneledLogger) *SQLSnapshotRepository {
	return &SQLSnapshotRepository{
		db:     db,
		logger: logger,
	}
}

// Latest retrieves the newest snapshot for (userID, source), or nil when the
// user has no snapshot yet.
func (r *SQLSnapshotRepository) Latest(userID, source string) (*insights.Snapshot, error) {
	const query = `
		SELECT id, user_id, source, period_start, period_end, payload, created_at
		FROM insight_snapshots
		WHERE user_id = ? AND source = ?
		ORDER BY created_at DESC
		LIMIT 1`

	start := time.Now()
	r.logger.Database().Debug("Loading latest snapshot", "userId", userID, "source", source)

	row := r.db.QueryRow(query, userID, source)
	snapshot, err := r.scanSnapshot(row)
	if err != nil {
		if err == sql.ErrNoRows {
			r.logger.Database().Debug("No snapshot found", "userId", userID, "source", source)
			return nil, nil
		}
		r.logger.Database().Error("Failed to load latest snapshot", "error", err.Error(), "userId", userID)
		return nil, err
	}

	duration := time.Since(start)
	if duration > config.SlowQueryThreshold {
		r.logger.LogSlowQuery(query, duration, userID)
	}
	return snapshot, nil
}

// Append inserts a new snapshot row. Existing rows are never touched.
func (r *SQLSnapshotRepository) Append(snapshot *insights.Snapshot) error {
	const query = `
		INSERT INTO insight_snapshots (id, user_id, source, period_start, period_end, payload, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`

	start := time.Now()
	r.logger.Database().Debug("Appending snapshot", "id", snapshot.ID, "userId", snapshot.UserID, "source", snapshot.Source)

	payloadJSON, err := json.Marshal(snapshot.Payload)
	if err != nil {
		return fmt.Errorf("failed to encode snapshot payload: %w", err)
	}

	_, err = r.db.Exec(
		query,
		snapshot.ID,
		snapshot.UserID,
		snapshot.Source,
		snapshot.PeriodStart.UTC().Format(time.RFC3339Nano),
		snapshot.PeriodEnd.UTC().Format(time.RFC3339Nano),
		string(payloadJSON),
		snapshot.CreatedAt.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		r.logger.Database().Error("Snapshot insert failed", "error", err.Error(), "id", snapshot.ID, "userId", snapshot.UserID)
		return err
	}

	r.logger.Database().Info("Snapshot appended", "id", snapshot.ID, "userId", snapshot.UserID, "duration", time.Since(start))
	duration := time.Since(start)
	if duration > config.SlowQueryThreshold {
		r.logger.LogSlowQuery(query, duration, snapshot.UserID)
	}
	return nil
}

// scanSnapshot is a helper function to scan a sql.Row into a Snapshot struct.
func (r *SQLSnapshotRepository) scanSnapshot(row *sql.Row) (*insights.Snapshot, error) {
	var snapshot insights.Snapshot
	var periodStartStr, periodEndStr, payloadJSON, createdAtStr string

	err := row.Scan(
		&snapshot.ID,
		&snapshot.UserID,
		&snapshot.Source,
		&periodStartStr,
		&periodEndStr,
		&payloadJSON,
		&createdAtStr,
	)
	if err != nil {
		return nil, err
	}

	if snapshot.PeriodStart, err = parseTimestamp(periodStartStr); err != nil {
		return nil, err
	}
	if snapshot.PeriodEnd, err = parseTimestamp(periodEndStr); err != nil {
		return nil, err
	}
	if snapshot.CreatedAt, err = parseTimestamp(createdAtStr); err != nil {
		return nil, err
	}

	var payload insights.Payload
	if err := json.Unmarshal([]byte(payloadJSON), &payload); err != nil {
		return nil, fmt.Errorf("corrupt snapshot payload %s: %w", snapshot.ID, err)
	}
	snapshot.Payload = &payload

	return &snapshot, nil
}

func parseTimestamp(value string) (time.Time, error) {
	ts, err := time.Parse(time.RFC3339Nano, value)
	if err != nil {
		// Older rows may carry the second-resolution format.
		ts, err = time.Parse("2006-01-02 15:04:05", value)
		if err != nil {
			return time.Time{}, err
		}
	}
	return ts, nil
}
