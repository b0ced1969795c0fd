package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	_ "modernc.org/sqlite"

	"github.com/kilianp07/skyops/core/logger"
	"github.com/kilianp07/skyops/core/model"
	"github.com/kilianp07/skyops/core/roster"
)

const dateLayout = "2006-01-02"

// SQLiteRepository persists the roster in a SQLite database. List columns
// are stored comma-delimited and the no-assignment reference is stored as
// model.NoAssignment, so rows read the same as the sheets they replace.
type SQLiteRepository struct {
	db   *sql.DB
	path string
	log  logger.Logger
}

// OpenSQLite opens or creates the database at path and applies migrations.
func OpenSQLite(ctx context.Context, path string, log logger.Logger) (*SQLiteRepository, error) {
	log = logger.OrNop(log)
	db, err := sql.Open("sqlite", dsn(path))
	if err != nil {
		return nil, err
	}
	if strings.Contains(path, ":memory:") || strings.Contains(path, "mode=memory") {
		db.SetMaxOpenConns(1)
	}
	v, err := Migrate(ctx, db)
	if err != nil {
		if cerr := db.Close(); cerr != nil {
			return nil, fmt.Errorf("close db: %v (migrate err: %w)", cerr, err)
		}
		return nil, err
	}
	log.Debugw("roster database ready", map[string]any{"path": path, "schema_version": v})
	return &SQLiteRepository{db: db, path: path, log: log}, nil
}

func dsn(path string) string {
	sep := "?"
	if strings.Contains(path, "?") {
		sep = "&"
	}
	return path + sep + "_pragma=busy_timeout(5000)"
}

// DB exposes the handle for stores sharing the same file.
func (r *SQLiteRepository) DB() *sql.DB { return r.db }

// Path returns the path the database was opened with.
func (r *SQLiteRepository) Path() string { return r.path }

// Close closes the underlying database.
func (r *SQLiteRepository) Close() error { return r.db.Close() }

func (r *SQLiteRepository) ListPilots(ctx context.Context) ([]model.Pilot, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id, name, skills, certifications, location, status,
        current_assignment, available_from, version FROM pilots ORDER BY row_index`)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	var res []model.Pilot
	for rows.Next() {
		var (
			p             model.Pilot
			skills, certs string
			status        string
		)
		if err := rows.Scan(&p.ID, &p.Name, &skills, &certs, &p.Location, &status,
			&p.CurrentAssignment, &p.AvailableFrom, &p.Version); err != nil {
			return nil, err
		}
		p.Skills = model.ParseSet(skills)
		p.Certifications = model.ParseSet(certs)
		p.Status = model.NormalizeStatus(status)
		res = append(res, p)
	}
	return res, rows.Err()
}

func (r *SQLiteRepository) ListDrones(ctx context.Context) ([]model.Drone, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id, model, capabilities, status, location,
        current_assignment, maintenance_due, version FROM drones ORDER BY row_index`)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	var res []model.Drone
	for rows.Next() {
		var (
			d      model.Drone
			caps   string
			status string
		)
		if err := rows.Scan(&d.ID, &d.Model, &caps, &status, &d.Location,
			&d.CurrentAssignment, &d.MaintenanceDue, &d.Version); err != nil {
			return nil, err
		}
		d.Capabilities = model.ParseSet(caps)
		d.Status = model.NormalizeStatus(status)
		res = append(res, d)
	}
	return res, rows.Err()
}

func (r *SQLiteRepository) ListMissions(ctx context.Context) ([]model.Mission, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id, client, location, required_skills, required_certs,
        priority, start_date, end_date FROM missions ORDER BY row_index`)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	var res []model.Mission
	for rows.Next() {
		var (
			m                  model.Mission
			skills, certs      string
			startDate, endDate string
		)
		if err := rows.Scan(&m.ID, &m.Client, &m.Location, &skills, &certs, &m.Priority, &startDate, &endDate); err != nil {
			return nil, err
		}
		m.RequiredSkills = model.ParseSet(skills)
		m.RequiredCerts = model.ParseSet(certs)
		m.StartDate, _ = model.ParseDate(startDate)
		m.EndDate, _ = model.ParseDate(endDate)
		res = append(res, m)
	}
	return res, rows.Err()
}

func table(kind model.Kind) (string, error) {
	switch kind {
	case model.KindPilot:
		return "pilots", nil
	case model.KindDrone:
		return "drones", nil
	case model.KindMission:
		return "missions", nil
	default:
		return "", fmt.Errorf("unknown entity kind %q", kind)
	}
}

func (r *SQLiteRepository) FindRow(ctx context.Context, kind model.Kind, id string) (roster.Row, error) {
	tbl, err := table(kind)
	if err != nil {
		return roster.Row{}, err
	}
	id = strings.TrimSpace(id)
	row := roster.Row{Kind: kind, ID: id}
	var q string
	if kind == model.KindMission {
		q = `SELECT row_index, 0 FROM missions WHERE id=?`
	} else {
		q = `SELECT row_index, version FROM ` + tbl + ` WHERE id=?`
	}
	err = r.db.QueryRowContext(ctx, q, id).Scan(&row.Index, &row.Version)
	if errors.Is(err, sql.ErrNoRows) {
		return roster.Row{}, &roster.NotFoundError{Kind: kind, ID: id}
	}
	return row, err
}

func (r *SQLiteRepository) WriteField(ctx context.Context, kind model.Kind, id, field, value string) error {
	if err := roster.CheckField(kind, field); err != nil {
		return &roster.StoreWriteError{Kind: kind, ID: id, Field: field, Err: err}
	}
	tbl, _ := table(kind)
	// field is whitelisted by CheckField above.
	res, err := r.db.ExecContext(ctx, `UPDATE `+tbl+` SET `+field+`=?, version=version+1 WHERE id=?`, value, strings.TrimSpace(id))
	if err != nil {
		return &roster.StoreWriteError{Kind: kind, ID: id, Field: field, Err: err}
	}
	n, err := res.RowsAffected()
	if err != nil {
		return &roster.StoreWriteError{Kind: kind, ID: id, Field: field, Err: err}
	}
	if n == 0 {
		return &roster.StoreWriteError{Kind: kind, ID: id, Field: field, Err: &roster.NotFoundError{Kind: kind, ID: id}}
	}
	return nil
}

func (r *SQLiteRepository) WriteAssignment(ctx context.Context, kind model.Kind, id string, a model.Assignment, expectedVersion int64) (int64, error) {
	if kind != model.KindPilot && kind != model.KindDrone {
		return 0, &roster.StoreWriteError{Kind: kind, ID: id, Err: &roster.NotFoundError{Kind: kind, ID: id}}
	}
	if a.IsZero() {
		return 0, &roster.StoreWriteError{Kind: kind, ID: id, Err: model.ErrMissionRequired}
	}
	tbl, _ := table(kind)
	id = strings.TrimSpace(id)
	res, err := r.db.ExecContext(ctx, `UPDATE `+tbl+` SET status=?, current_assignment=?, version=version+1
        WHERE id=? AND version=?`, string(a.Status()), a.Reference(), id, expectedVersion)
	if err != nil {
		return 0, &roster.StoreWriteError{Kind: kind, ID: id, Err: err}
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, &roster.StoreWriteError{Kind: kind, ID: id, Err: err}
	}
	if n == 1 {
		return expectedVersion + 1, nil
	}
	row, err := r.FindRow(ctx, kind, id)
	if err != nil {
		return 0, &roster.StoreWriteError{Kind: kind, ID: id, Err: err}
	}
	return row.Version, &roster.StoreWriteError{Kind: kind, ID: id, Err: roster.ErrVersionConflict}
}

// InvalidateCache is a no-op; every read goes to the database.
func (r *SQLiteRepository) InvalidateCache() {}

// PutPilot inserts or replaces a pilot, keeping its row position and bumping
// the version when it already exists.
func (r *SQLiteRepository) PutPilot(ctx context.Context, p model.Pilot) error {
	_, err := r.db.ExecContext(ctx, `INSERT INTO pilots(id, row_index, name, skills, certifications, location,
        status, current_assignment, available_from)
VALUES (?, (SELECT COUNT(*) FROM pilots), ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(id) DO UPDATE SET name=excluded.name, skills=excluded.skills,
    certifications=excluded.certifications, location=excluded.location, status=excluded.status,
    current_assignment=excluded.current_assignment, available_from=excluded.available_from,
    version=pilots.version+1`,
		strings.TrimSpace(p.ID), p.Name, p.Skills.String(), p.Certifications.String(), p.Location,
		string(p.Status), reference(p.CurrentAssignment), p.AvailableFrom)
	if err != nil {
		return fmt.Errorf("put pilot %s: %w", p.ID, err)
	}
	return nil
}

// PutDrone inserts or replaces a drone.
func (r *SQLiteRepository) PutDrone(ctx context.Context, d model.Drone) error {
	_, err := r.db.ExecContext(ctx, `INSERT INTO drones(id, row_index, model, capabilities, status, location,
        current_assignment, maintenance_due)
VALUES (?, (SELECT COUNT(*) FROM drones), ?, ?, ?, ?, ?, ?)
ON CONFLICT(id) DO UPDATE SET model=excluded.model, capabilities=excluded.capabilities,
    status=excluded.status, location=excluded.location, current_assignment=excluded.current_assignment,
    maintenance_due=excluded.maintenance_due, version=drones.version+1`,
		strings.TrimSpace(d.ID), d.Model, d.Capabilities.String(), string(d.Status), d.Location,
		reference(d.CurrentAssignment), d.MaintenanceDue)
	if err != nil {
		return fmt.Errorf("put drone %s: %w", d.ID, err)
	}
	return nil
}

// PutMission inserts or replaces a mission.
func (r *SQLiteRepository) PutMission(ctx context.Context, m model.Mission) error {
	_, err := r.db.ExecContext(ctx, `INSERT INTO missions(id, row_index, client, location, required_skills,
        required_certs, priority, start_date, end_date)
VALUES (?, (SELECT COUNT(*) FROM missions), ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(id) DO UPDATE SET client=excluded.client, location=excluded.location,
    required_skills=excluded.required_skills, required_certs=excluded.required_certs,
    priority=excluded.priority, start_date=excluded.start_date, end_date=excluded.end_date`,
		strings.TrimSpace(m.ID), m.Client, m.Location, m.RequiredSkills.String(), m.RequiredCerts.String(),
		m.Priority, formatDate(m.StartDate), formatDate(m.EndDate))
	if err != nil {
		return fmt.Errorf("put mission %s: %w", m.ID, err)
	}
	return nil
}
