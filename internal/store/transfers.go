package store

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/erazemk/inventar/internal/apperr"
	"github.com/erazemk/inventar/internal/db"
	"github.com/erazemk/inventar/internal/model"
)

// Transfer moves req.Count units of a device to another object in a single
// transaction: the source row is decremented (deleted at zero), the target
// row is created or incremented, and a ledger entry is appended. Either all
// three writes commit or none do.
func Transfer(ctx context.Context, database *db.DB, req model.TransferRequest) (*model.TransferResult, error) {
	deviceName := strings.TrimSpace(req.DeviceName)
	fromObject := strings.TrimSpace(req.FromObjectName)
	toObject := strings.TrimSpace(req.ToObjectName)

	if toObject == "" {
		return nil, apperr.InvalidInput("to_object_name_required")
	}
	if req.Count <= 0 {
		return nil, apperr.InvalidInput("device_count_must_be_positive")
	}
	if req.DeviceID == nil && deviceName == "" {
		return nil, apperr.InvalidInput("device_id_or_device_name_required")
	}

	tx, err := database.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	exists, err := objectExists(ctx, tx, toObject)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, apperr.NotFound("target_object_not_found")
	}

	src, err := resolveSource(ctx, tx, req.DeviceID, deviceName, fromObject)
	if err != nil {
		return nil, err
	}

	if src.ObjectName == toObject {
		return nil, apperr.Conflict("already_in_target")
	}
	if req.Count > src.DeviceCount {
		return nil, apperr.Conflict("not_enough_in_source")
	}

	// The guards on device_count make the write a no-op if the stock changed
	// since it was read.
	left := src.DeviceCount - req.Count
	var stmt string
	var args []any
	if left == 0 {
		stmt = `DELETE FROM devices WHERE id = ? AND device_count = ?`
		args = []any{src.ID, req.Count}
	} else {
		stmt = `UPDATE devices SET device_count = device_count - ? WHERE id = ? AND device_count > ?`
		args = []any{req.Count, src.ID, req.Count}
	}
	res, err := tx.ExecContext(ctx, stmt, args...)
	if err != nil {
		return nil, fmt.Errorf("updating source device: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("updating source device: %w", err)
	}
	if affected == 0 {
		return nil, apperr.Conflict("not_enough_in_source")
	}

	var targetTotal int
	err = tx.QueryRowContext(ctx,
		`INSERT INTO devices (device_name, description, object_name, device_count)
		 VALUES (?, ?, ?, ?)
		 ON CONFLICT (object_name, device_name) DO UPDATE SET
		     device_count = devices.device_count + excluded.device_count
		 RETURNING device_count`,
		src.DeviceName, nullString(src.Description), toObject, req.Count,
	).Scan(&targetTotal)
	if err != nil {
		return nil, fmt.Errorf("updating target device: %w", err)
	}

	names, err := json.Marshal([]string{src.DeviceName})
	if err != nil {
		return nil, fmt.Errorf("encoding ledger devices: %w", err)
	}
	_, err = tx.ExecContext(ctx,
		`INSERT INTO transfer_history (object_from, object_to, devices, device_count)
		 VALUES (?, ?, ?, ?)`,
		src.ObjectName, toObject, string(names), req.Count,
	)
	if err != nil {
		return nil, fmt.Errorf("recording transfer: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing transfer: %w", err)
	}

	return &model.TransferResult{
		DeviceName:     src.DeviceName,
		MovedCount:     req.Count,
		FromObjectName: src.ObjectName,
		ToObjectName:   toObject,
		SourceLeft:     left,
		TargetTotal:    targetTotal,
	}, nil
}

// resolveSource finds the row to take units from: by ID when given, else by
// name within fromObject, else by name across all objects. Rows are locked
// where the dialect supports it.
func resolveSource(ctx context.Context, tx *db.Tx, id *int64, name, fromObject string) (*model.Device, error) {
	lock := tx.Dialect().ForUpdate()

	if id != nil {
		d, err := scanDevice(tx.QueryRowContext(ctx,
			`SELECT `+deviceColumns+` FROM devices WHERE id = ?`+lock, *id))
		if isNoRows(err) {
			return nil, apperr.NotFound("device_not_found")
		}
		if err != nil {
			return nil, fmt.Errorf("getting source device: %w", err)
		}
		return d, nil
	}

	query := `SELECT ` + deviceColumns + ` FROM devices WHERE device_name = ?`
	args := []any{name}
	if fromObject != "" {
		query += ` AND object_name = ?`
		args = append(args, fromObject)
	}
	query += ` ORDER BY id` + lock

	rows, err := tx.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("finding source device: %w", err)
	}
	defer rows.Close()

	candidates, err := scanDevices(rows)
	if err != nil {
		return nil, err
	}

	switch len(candidates) {
	case 0:
		return nil, apperr.NotFound("device_not_found")
	case 1:
		return &candidates[0], nil
	default:
		return nil, apperr.Ambiguous("ambiguous_name")
	}
}
