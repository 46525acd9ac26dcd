package database

import (
	"context"
	"database/sql"
	"fmt"

	"roomly/internal/models"
)

// GetOrganization loads one organization.
func (db *DB) GetOrganization(ctx context.Context, id int64) (*models.Organization, error) {
	var o models.Organization
	err := db.QueryRowContext(ctx,
		`SELECT id, name, status FROM organizations WHERE id = ?`, id).
		Scan(&o.ID, &o.Name, &o.Status)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get organization: %w", err)
	}
	return &o, nil
}

// CreateOrganization inserts a new organization.
func (db *DB) CreateOrganization(ctx context.Context, o *models.Organization) error {
	res, err := db.ExecContext(ctx,
		`INSERT INTO organizations (name, status) VALUES (?, ?)`, o.Name, string(o.Status))
	if err != nil {
		return fmt.Errorf("insert organization: %w", err)
	}
	o.ID, err = res.LastInsertId()
	return err
}

// UpdateOrganization rewrites an organization row.
func (db *DB) UpdateOrganization(ctx context.Context, o *models.Organization) error {
	res, err := db.ExecContext(ctx,
		`UPDATE organizations SET name = ?, status = ? WHERE id = ?`,
		o.Name, string(o.Status), o.ID)
	if err != nil {
		return fmt.Errorf("update organization: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteOrganization removes an organization; offices under it cascade.
func (db *DB) DeleteOrganization(ctx context.Context, id int64) error {
	res, err := db.ExecContext(ctx, `DELETE FROM organizations WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete organization: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// ListOrganizations returns every organization.
func (db *DB) ListOrganizations(ctx context.Context) ([]models.Organization, error) {
	rows, err := db.QueryContext(ctx, `SELECT id, name, status FROM organizations ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("list organizations: %w", err)
	}
	defer rows.Close()

	var orgs []models.Organization
	for rows.Next() {
		var o models.Organization
		if err := rows.Scan(&o.ID, &o.Name, &o.Status); err != nil {
			return nil, err
		}
		orgs = append(orgs, o)
	}
	return orgs, rows.Err()
}
