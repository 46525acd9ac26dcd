package database

import (
	"context"
	"database/sql"
	"fmt"

	"roomly/internal/models"
)

const employeeColumns = `id, first_name, last_name, email, office_id`

func scanEmployee(row rowScanner) (*models.Employee, error) {
	var e models.Employee
	err := row.Scan(&e.ID, &e.FirstName, &e.LastName, &e.Email, &e.OfficeID)
	if err != nil {
		return nil, err
	}
	return &e, nil
}

// GetEmployee loads one employee.
func (db *DB) GetEmployee(ctx context.Context, id int64) (*models.Employee, error) {
	row := db.QueryRowContext(ctx,
		`SELECT `+employeeColumns+` FROM employees WHERE id = ?`, id)
	e, err := scanEmployee(row)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get employee: %w", err)
	}
	return e, nil
}

// CreateEmployee inserts a new employee.
func (db *DB) CreateEmployee(ctx context.Context, e *models.Employee) error {
	res, err := db.ExecContext(ctx, `INSERT INTO employees
		(first_name, last_name, email, office_id) VALUES (?, ?, ?, ?)`,
		e.FirstName, e.LastName, e.Email, e.OfficeID)
	if err != nil {
		return fmt.Errorf("insert employee: %w", err)
	}
	e.ID, err = res.LastInsertId()
	return err
}

// UpdateEmployee rewrites an employee row.
func (db *DB) UpdateEmployee(ctx context.Context, e *models.Employee) error {
	res, err := db.ExecContext(ctx, `UPDATE employees SET
		first_name = ?, last_name = ?, email = ?, office_id = ? WHERE id = ?`,
		e.FirstName, e.LastName, e.Email, e.OfficeID, e.ID)
	if err != nil {
		return fmt.Errorf("update employee: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteEmployee removes an employee; attendee links and subscriptions cascade.
func (db *DB) DeleteEmployee(ctx context.Context, id int64) error {
	res, err := db.ExecContext(ctx, `DELETE FROM employees WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete employee: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// ListEmployees returns employees, optionally scoped to one office.
func (db *DB) ListEmployees(ctx context.Context, officeID *int64) ([]models.Employee, error) {
	query := `SELECT ` + employeeColumns + ` FROM employees`
	var args []any
	if officeID != nil {
		query += ` WHERE office_id = ?`
		args = append(args, *officeID)
	}
	query += ` ORDER BY last_name, first_name`

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list employees: %w", err)
	}
	defer rows.Close()

	var employees []models.Employee
	for rows.Next() {
		e, err := scanEmployee(rows)
		if err != nil {
			return nil, err
		}
		employees = append(employees, *e)
	}
	return employees, rows.Err()
}

// GetPushSubscriptions returns every registered push endpoint of an employee.
func (db *DB) GetPushSubscriptions(ctx context.Context, employeeID int64) ([]models.PushSubscription, error) {
	rows, err := db.QueryContext(ctx, `SELECT id, employee_id, endpoint, p256dh_key, auth_token
		FROM push_subscriptions WHERE employee_id = ?`, employeeID)
	if err != nil {
		return nil, fmt.Errorf("push subscriptions: %w", err)
	}
	defer rows.Close()

	var subs []models.PushSubscription
	for rows.Next() {
		var s models.PushSubscription
		if err := rows.Scan(&s.ID, &s.EmployeeID, &s.Endpoint, &s.P256dhKey, &s.AuthToken); err != nil {
			return nil, err
		}
		subs = append(subs, s)
	}
	return subs, rows.Err()
}

// CreatePushSubscription registers a push endpoint for an employee.
func (db *DB) CreatePushSubscription(ctx context.Context, s *models.PushSubscription) error {
	res, err := db.ExecContext(ctx, `INSERT INTO push_subscriptions
		(employee_id, endpoint, p256dh_key, auth_token) VALUES (?, ?, ?, ?)`,
		s.EmployeeID, s.Endpoint, s.P256dhKey, s.AuthToken)
	if err != nil {
		return fmt.Errorf("insert push subscription: %w", err)
	}
	s.ID, err = res.LastInsertId()
	return err
}

// DeletePushSubscription drops a registered push endpoint.
func (db *DB) DeletePushSubscription(ctx context.Context, id int64) error {
	res, err := db.ExecContext(ctx, `DELETE FROM push_subscriptions WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete push subscription: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}
