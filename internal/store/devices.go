package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/erazemk/inventar/internal/apperr"
	"github.com/erazemk/inventar/internal/db"
	"github.com/erazemk/inventar/internal/model"
)

const deviceColumns = `id, device_name, description, object_name, device_count, created_at`

func scanDevice(s scanner) (*model.Device, error) {
	d := &model.Device{}
	var description sql.NullString
	if err := s.Scan(&d.ID, &d.DeviceName, &description, &d.ObjectName, &d.DeviceCount, &d.CreatedAt); err != nil {
		return nil, err
	}
	if description.Valid {
		d.Description = &description.String
	}
	return d, nil
}

func scanDevices(rows *sql.Rows) ([]model.Device, error) {
	devices := []model.Device{}
	for rows.Next() {
		d, err := scanDevice(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning device: %w", err)
		}
		devices = append(devices, *d)
	}
	return devices, rows.Err()
}

func nullString(s *string) any {
	if s == nil {
		return nil
	}
	return *s
}

func validateDevice(deviceName, objectName string, count int) error {
	if deviceName == "" || objectName == "" {
		return apperr.InvalidInput("device_name_and_object_name_required")
	}
	if count <= 0 {
		return apperr.InvalidInput("device_count_must_be_positive")
	}
	return nil
}

// CreateOrIncrementDevice adds count units of deviceName to objectName,
// creating the row if needed. A non-empty description replaces the stored
// one; an absent or blank description keeps it.
func CreateOrIncrementDevice(ctx context.Context, database db.Querier, deviceName, objectName string, description *string, count int) (*model.Device, error) {
	deviceName = strings.TrimSpace(deviceName)
	objectName = strings.TrimSpace(objectName)
	description = model.NormalizeDescription(description)

	if err := validateDevice(deviceName, objectName, count); err != nil {
		return nil, err
	}

	exists, err := objectExists(ctx, database, objectName)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, apperr.NotFound("object_not_found")
	}

	var id int64
	err = database.QueryRowContext(ctx,
		`INSERT INTO devices (device_name, description, object_name, device_count)
		 VALUES (?, ?, ?, ?)
		 ON CONFLICT (object_name, device_name) DO UPDATE SET
		     device_count = devices.device_count + excluded.device_count,
		     description  = COALESCE(excluded.description, devices.description)
		 RETURNING id`,
		deviceName, nullString(description), objectName, count,
	).Scan(&id)
	if err != nil {
		return nil, fmt.Errorf("upserting device: %w", err)
	}

	return GetDevice(ctx, database, id)
}

// InsertDevice creates a device row without merging into an existing one.
// A second row for the same (object, device name) is a conflict.
func InsertDevice(ctx context.Context, database db.Querier, deviceName, objectName string, description *string, count int) (*model.Device, error) {
	deviceName = strings.TrimSpace(deviceName)
	objectName = strings.TrimSpace(objectName)
	description = model.NormalizeDescription(description)

	if err := validateDevice(deviceName, objectName, count); err != nil {
		return nil, err
	}

	exists, err := objectExists(ctx, database, objectName)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, apperr.NotFound("object_not_found")
	}

	var id int64
	err = database.QueryRowContext(ctx,
		`INSERT INTO devices (device_name, description, object_name, device_count)
		 VALUES (?, ?, ?, ?) RETURNING id`,
		deviceName, nullString(description), objectName, count,
	).Scan(&id)
	if database.Dialect().IsUniqueViolation(err) {
		return nil, apperr.Wrap(apperr.ErrConflict, "device_exists", err)
	}
	if err != nil {
		return nil, fmt.Errorf("inserting device: %w", err)
	}

	return GetDevice(ctx, database, id)
}

// GetDevice returns a device by ID.
func GetDevice(ctx context.Context, database db.Querier, id int64) (*model.Device, error) {
	d, err := scanDevice(database.QueryRowContext(ctx,
		`SELECT `+deviceColumns+` FROM devices WHERE id = ?`, id))
	if isNoRows(err) {
		return nil, apperr.NotFound("device_not_found")
	}
	if err != nil {
		return nil, fmt.Errorf("getting device: %w", err)
	}
	return d, nil
}

// FindDeviceByName looks a device up by exact name. objectName, when not
// empty, restricts the search to one object. description, when not nil,
// keeps only rows whose trimmed description equals it trimmed; a missing
// description compares as "".
func FindDeviceByName(ctx context.Context, database db.Querier, name, objectName string, description *string) (*model.DeviceMatch, error) {
	query := `SELECT ` + deviceColumns + ` FROM devices WHERE device_name = ?`
	args := []any{name}
	if objectName != "" {
		query += ` AND object_name = ?`
		args = append(args, objectName)
	}
	query += ` ORDER BY id`

	rows, err := database.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("finding device: %w", err)
	}
	defer rows.Close()

	candidates, err := scanDevices(rows)
	if err != nil {
		return nil, err
	}

	matches := candidates
	if description != nil {
		want := strings.TrimSpace(*description)
		matches = nil
		for _, d := range candidates {
			got := ""
			if d.Description != nil {
				got = strings.TrimSpace(*d.Description)
			}
			if got == want {
				matches = append(matches, d)
			}
		}
	}

	switch len(matches) {
	case 0:
		return nil, apperr.NotFound("device_not_found")
	case 1:
		return &model.DeviceMatch{Device: &matches[0]}, nil
	default:
		return &model.DeviceMatch{Multiple: true, Devices: matches}, nil
	}
}

// ListDevices returns a page of devices ordered by object then ID. q matches
// device name, description or object name case-insensitively; objectName is
// an exact filter.
func ListDevices(ctx context.Context, database db.Querier, q, objectName string, limit, offset int) ([]model.Device, error) {
	return queryDevices(ctx, database, q, objectName, "object_name, id", limit, offset)
}

func queryDevices(ctx context.Context, database db.Querier, q, objectName, orderBy string, limit, offset int) ([]model.Device, error) {
	limit, offset = clampPage(limit, offset)

	var (
		where []string
		args  []any
	)
	if objectName != "" {
		where = append(where, `object_name = ?`)
		args = append(args, objectName)
	}
	if q != "" {
		d := database.Dialect()
		where = append(where, `(`+d.ILike("device_name")+` OR `+
			d.ILike("COALESCE(description, '')")+` OR `+d.ILike("object_name")+`)`)
		p := db.LikePattern(q)
		args = append(args, p, p, p)
	}

	query := `SELECT ` + deviceColumns + ` FROM devices`
	if len(where) > 0 {
		query += ` WHERE ` + strings.Join(where, ` AND `)
	}
	query += ` ORDER BY ` + orderBy + ` LIMIT ? OFFSET ?`
	args = append(args, limit, offset)

	rows, err := database.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing devices: %w", err)
	}
	defer rows.Close()

	return scanDevices(rows)
}

// devicesForObjects fetches the devices of every named object in one query,
// grouped by object name and ordered by ID.
func devicesForObjects(ctx context.Context, database db.Querier, names []string) (map[string][]model.Device, error) {
	byObject := make(map[string][]model.Device, len(names))
	if len(names) == 0 {
		return byObject, nil
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(names)), ", ")
	args := make([]any, len(names))
	for i, n := range names {
		args[i] = n
	}

	rows, err := database.QueryContext(ctx,
		`SELECT `+deviceColumns+` FROM devices
		 WHERE object_name IN (`+placeholders+`)
		 ORDER BY object_name, id`, args...)
	if err != nil {
		return nil, fmt.Errorf("listing object devices: %w", err)
	}
	defer rows.Close()

	devices, err := scanDevices(rows)
	if err != nil {
		return nil, err
	}
	for _, d := range devices {
		byObject[d.ObjectName] = append(byObject[d.ObjectName], d)
	}
	return byObject, nil
}
