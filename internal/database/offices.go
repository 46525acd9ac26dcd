package database

import (
	"context"
	"database/sql"
	"fmt"

	"roomly/internal/models"
)

// GetOffice loads one office.
func (db *DB) GetOffice(ctx context.Context, id int64) (*models.Office, error) {
	var o models.Office
	err := db.QueryRowContext(ctx,
		`SELECT id, name, city, time_zone, organization_id FROM offices WHERE id = ?`, id).
		Scan(&o.ID, &o.Name, &o.City, &o.TimeZone, &o.OrganizationID)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get office: %w", err)
	}
	return &o, nil
}

// CreateOffice inserts a new office.
func (db *DB) CreateOffice(ctx context.Context, o *models.Office) error {
	res, err := db.ExecContext(ctx, `INSERT INTO offices
		(name, city, time_zone, organization_id) VALUES (?, ?, ?, ?)`,
		o.Name, o.City, o.TimeZone, o.OrganizationID)
	if err != nil {
		return fmt.Errorf("insert office: %w", err)
	}
	o.ID, err = res.LastInsertId()
	return err
}

// UpdateOffice rewrites an office row.
func (db *DB) UpdateOffice(ctx context.Context, o *models.Office) error {
	res, err := db.ExecContext(ctx, `UPDATE offices SET
		name = ?, city = ?, time_zone = ?, organization_id = ? WHERE id = ?`,
		o.Name, o.City, o.TimeZone, o.OrganizationID, o.ID)
	if err != nil {
		return fmt.Errorf("update office: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteOffice removes an office; rooms and employees under it cascade.
func (db *DB) DeleteOffice(ctx context.Context, id int64) error {
	res, err := db.ExecContext(ctx, `DELETE FROM offices WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete office: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// ListOffices returns offices, optionally scoped to one organization.
func (db *DB) ListOffices(ctx context.Context, organizationID *int64) ([]models.Office, error) {
	query := `SELECT id, name, city, time_zone, organization_id FROM offices`
	var args []any
	if organizationID != nil {
		query += ` WHERE organization_id = ?`
		args = append(args, *organizationID)
	}
	query += ` ORDER BY name`

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list offices: %w", err)
	}
	defer rows.Close()

	var offices []models.Office
	for rows.Next() {
		var o models.Office
		if err := rows.Scan(&o.ID, &o.Name, &o.City, &o.TimeZone, &o.OrganizationID); err != nil {
			return nil, err
		}
		offices = append(offices, o)
	}
	return offices, rows.Err()
}
