// Package store implements the post-hoc trace mirror:
// an in-memory SQLite copy of finalized DisplayFrame/SurfaceFrame packets,
// queryable live via tailsql. Nothing here ever touches disk.
package store

import (
	"database/sql"
	"embed"
	"fmt"
	"io/fs"
	"net/http"

	_ "modernc.org/sqlite"
	"github.com/tailscale/tailsql/server/tailsql"
	"tailscale.com/tsweb"

	"github.com/banshee-data/frametimeline/internal/frametimeline/displayframe"
	"github.com/banshee-data/frametimeline/internal/frametimeline/jank"
	"github.com/banshee-data/frametimeline/internal/frametimeline/surfaceframe"
	"github.com/banshee-data/frametimeline/internal/frametimeline/token"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// DB wraps an in-memory SQLite mirror of finalized frame history.
type DB struct {
	*sql.DB
}

// Open creates a fresh:memory: SQLite database and migrates it to the
// latest schema version. Callers get one DB per engine instance; closing it
// discards the mirror entirely.
func Open() (*DB, error) {
	sqlDB, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		return nil, fmt.Errorf("store: open: %w", err)
	}

	db := &DB{sqlDB}
	sub, err := fs.Sub(migrationsFS, "migrations")
	if err != nil {
		return nil, fmt.Errorf("store: migrations sub-fs: %w", err)
	}
	if err := db.migrateUp(sub); err != nil {
		sqlDB.Close()
		return nil, err
	}
	return db, nil
}

// InsertDisplayFrame mirrors one finalized DisplayFrame, and every
// SurfaceFrame it contains, into the respective tables. recordedUnixNanos
// is the wall-clock time the caller observed the frame finalize.
func (db *DB) InsertDisplayFrame(df *displayframe.DisplayFrame, recordedUnixNanos int64) error {
	predictions := df.Predictions()
	actuals := df.Actuals()
	meta := df.Metadata()

	_, err := db.Exec(`
		INSERT INTO display_frames (
			token, prediction_state, jank_type, vsync_period_ns, sf_pid,
			predicted_start_ns, predicted_end_ns, predicted_present_ns,
			actual_start_ns, actual_end_ns, actual_present_ns, recorded_unix_nanos
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		int64(df.Token()), df.PredictionState().String(), int64(meta.Jank), df.VsyncPeriod(), df.SfPID(),
		predictions.Start, predictions.End, predictions.Present,
		actuals.Start, actuals.End, actuals.Present, recordedUnixNanos,
	)
	if err != nil {
		return fmt.Errorf("store: insert display_frame %d: %w", df.Token(), err)
	}

	for _, sf := range df.SurfaceFrames() {
		if err := db.insertSurfaceFrame(df.Token(), sf, recordedUnixNanos); err != nil {
			return err
		}
	}
	return nil
}

func (db *DB) insertSurfaceFrame(displayFrameToken token.Token, sf *surfaceframe.SurfaceFrame, recordedUnixNanos int64) error {
	predictions := sf.Predictions()
	actuals := sf.Actuals()
	meta := sf.Metadata()

	_, err := db.Exec(`
		INSERT INTO surface_frames (
			display_frame_token, token, layer_name, owner_pid, owner_uid,
			prediction_state, jank_type,
			predicted_start_ns, predicted_end_ns, predicted_present_ns,
			actual_start_ns, actual_end_ns, actual_present_ns, recorded_unix_nanos
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		int64(displayFrameToken), int64(sf.Token()), sf.LayerName(), sf.OwnerPID(), sf.OwnerUID(),
		sf.PredictionState().String(), int64(meta.Jank),
		predictions.Start, predictions.End, predictions.Present,
		actuals.Start, actuals.End, actuals.Present, recordedUnixNanos,
	)
	if err != nil {
		return fmt.Errorf("store: insert surface_frame %d: %w", sf.Token(), err)
	}
	return nil
}

// RecentDisplayFrames returns up to limit of the most recently recorded
// display_frames rows, newest first, for debugging and report queries.
func (db *DB) RecentDisplayFrames(limit int) ([]DisplayFrameRow, error) {
	rows, err := db.Query(`
		SELECT token, prediction_state, jank_type, vsync_period_ns, sf_pid,
			predicted_start_ns, predicted_end_ns, predicted_present_ns,
			actual_start_ns, actual_end_ns, actual_present_ns, recorded_unix_nanos
		FROM display_frames ORDER BY recorded_unix_nanos DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("store: recent display frames: %w", err)
	}
	defer rows.Close()

	var out []DisplayFrameRow
	for rows.Next() {
		var r DisplayFrameRow
		if err := rows.Scan(&r.Token, &r.PredictionState, &r.JankType, &r.VsyncPeriodNs, &r.SfPID,
			&r.PredictedStartNs, &r.PredictedEndNs, &r.PredictedPresentNs,
			&r.ActualStartNs, &r.ActualEndNs, &r.ActualPresentNs, &r.RecordedUnixNanos); err != nil {
			return nil, fmt.Errorf("store: scan display_frame row: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// PresentDeltas returns actual_present_ns - predicted_present_ns for every
// recorded display_frame with a valid prediction, for report.go's percentile
// aggregation.
func (db *DB) PresentDeltas() ([]float64, error) {
	rows, err := db.Query(`
		SELECT actual_present_ns - predicted_present_ns FROM display_frames
		WHERE prediction_state = ? AND actual_present_ns > 0`, token.Valid.String())
	if err != nil {
		return nil, fmt.Errorf("store: present deltas: %w", err)
	}
	defer rows.Close()

	var out []float64
	for rows.Next() {
		var d float64
		if err := rows.Scan(&d); err != nil {
			return nil, fmt.Errorf("store: scan present delta: %w", err)
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

// JankRateByType returns a count of finalized display_frames per jank_type
// bitmask value, for report.go's jank-rate-by-category breakdown.
func (db *DB) JankRateByType() (map[jank.Type]int64, error) {
	rows, err := db.Query(`SELECT jank_type, COUNT(*) FROM display_frames GROUP BY jank_type`)
	if err != nil {
		return nil, fmt.Errorf("store: jank rate by type: %w", err)
	}
	defer rows.Close()

	out := make(map[jank.Type]int64)
	for rows.Next() {
		var t int64
		var count int64
		if err := rows.Scan(&t, &count); err != nil {
			return nil, fmt.Errorf("store: scan jank rate row: %w", err)
		}
		out[jank.Type(t)] = count
	}
	return out, rows.Err()
}

// DisplayFrameRow is one row of the display_frames table.
type DisplayFrameRow struct {
	Token int64
	PredictionState string
	JankType int64
	VsyncPeriodNs int64
	SfPID int32
	PredictedStartNs int64
	PredictedEndNs int64
	PredictedPresentNs int64
	ActualStartNs int64
	ActualEndNs int64
	ActualPresentNs int64
	RecordedUnixNanos int64
}

// AttachAdminRoutes mounts a live tailsql SQL console over the in-memory
// mirror.
func (db *DB) AttachAdminRoutes(mux *http.ServeMux) error {
	debug := tsweb.Debugger(mux)
	tsql, err := tailsql.NewServer(tailsql.Options{
		RoutePrefix: "/debug/tailsql/",
	})
	if err != nil {
		return fmt.Errorf("store: create tailsql server: %w", err)
	}
	tsql.SetDB("sqlite://frame-timeline-mirror", db.DB, &tailsql.DBOptions{
		Label: "Frame Timeline Mirror (in-memory)",
	})
	debug.Handle("tailsql/", "SQL live debugging over the frame timeline mirror", tsql.NewMux())
	return nil
}
