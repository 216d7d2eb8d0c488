package store

import (
	"context"
	"fmt"
	"strings"

	"github.com/erazemk/inventar/internal/apperr"
	"github.com/erazemk/inventar/internal/db"
	"github.com/erazemk/inventar/internal/model"
)

const objectColumns = `id, name, address, created_at`

func scanObject(s scanner) (*model.Object, error) {
	o := &model.Object{}
	if err := s.Scan(&o.ID, &o.Name, &o.Address, &o.CreatedAt); err != nil {
		return nil, err
	}
	return o, nil
}

// CreateObject creates a new object. Name and address are trimmed and must
// not be empty; names are unique.
func CreateObject(ctx context.Context, database db.Querier, name, address string) (*model.Object, error) {
	name = strings.TrimSpace(name)
	address = strings.TrimSpace(address)
	if name == "" || address == "" {
		return nil, apperr.InvalidInput("object_name_and_address_required")
	}

	exists, err := objectExists(ctx, database, name)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, apperr.Conflict("object_exists")
	}

	var id int64
	err = database.QueryRowContext(ctx,
		`INSERT INTO traffic_objects (name, address) VALUES (?, ?) RETURNING id`,
		name, address,
	).Scan(&id)
	if database.Dialect().IsUniqueViolation(err) {
		return nil, apperr.Wrap(apperr.ErrConflict, "object_exists", err)
	}
	if err != nil {
		return nil, fmt.Errorf("creating object: %w", err)
	}

	return GetObject(ctx, database, id)
}

// GetObject returns an object by ID.
func GetObject(ctx context.Context, database db.Querier, id int64) (*model.Object, error) {
	o, err := scanObject(database.QueryRowContext(ctx,
		`SELECT `+objectColumns+` FROM traffic_objects WHERE id = ?`, id))
	if isNoRows(err) {
		return nil, apperr.NotFound("object_not_found")
	}
	if err != nil {
		return nil, fmt.Errorf("getting object: %w", err)
	}
	return o, nil
}

// GetObjectByName returns an object by its exact name.
func GetObjectByName(ctx context.Context, database db.Querier, name string) (*model.Object, error) {
	o, err := scanObject(database.QueryRowContext(ctx,
		`SELECT `+objectColumns+` FROM traffic_objects WHERE name = ?`, name))
	if isNoRows(err) {
		return nil, apperr.NotFound("object_not_found")
	}
	if err != nil {
		return nil, fmt.Errorf("getting object by name: %w", err)
	}
	return o, nil
}

func objectExists(ctx context.Context, database db.Querier, name string) (bool, error) {
	var one int
	err := database.QueryRowContext(ctx,
		`SELECT 1 FROM traffic_objects WHERE name = ?`, name).Scan(&one)
	if isNoRows(err) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("checking object: %w", err)
	}
	return true, nil
}

// ListObjects returns a page of objects ordered by name. A non-empty q
// keeps only objects whose name or address contains q, ignoring case.
func ListObjects(ctx context.Context, database db.Querier, q string, limit, offset int) ([]model.Object, error) {
	limit, offset = clampPage(limit, offset)

	query := `SELECT ` + objectColumns + ` FROM traffic_objects`
	var args []any
	if q != "" {
		d := database.Dialect()
		query += ` WHERE (` + d.ILike("name") + ` OR ` + d.ILike("address") + `)`
		p := db.LikePattern(q)
		args = append(args, p, p)
	}
	query += ` ORDER BY name, id LIMIT ? OFFSET ?`
	args = append(args, limit, offset)

	rows, err := database.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing objects: %w", err)
	}
	defer rows.Close()

	objects := []model.Object{}
	for rows.Next() {
		o, err := scanObject(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning object: %w", err)
		}
		objects = append(objects, *o)
	}
	return objects, rows.Err()
}

// ListObjectsWithDevices returns the same page as ListObjects, each object
// with its devices and totals.
func ListObjectsWithDevices(ctx context.Context, database db.Querier, q string, limit, offset int) ([]model.ObjectSummary, error) {
	objects, err := ListObjects(ctx, database, q, limit, offset)
	if err != nil {
		return nil, err
	}

	names := make([]string, len(objects))
	for i, o := range objects {
		names[i] = o.Name
	}
	byObject, err := devicesForObjects(ctx, database, names)
	if err != nil {
		return nil, err
	}

	summaries := make([]model.ObjectSummary, 0, len(objects))
	for _, o := range objects {
		summaries = append(summaries, model.NewObjectSummary(o, byObject[o.Name]))
	}
	return summaries, nil
}

// GetObjectFull returns one object, looked up by exact name after trimming,
// with its devices and totals.
func GetObjectFull(ctx context.Context, database db.Querier, name string) (*model.ObjectSummary, error) {
	o, err := GetObjectByName(ctx, database, strings.TrimSpace(name))
	if err != nil {
		return nil, err
	}

	byObject, err := devicesForObjects(ctx, database, []string{o.Name})
	if err != nil {
		return nil, err
	}

	s := model.NewObjectSummary(*o, byObject[o.Name])
	return &s, nil
}
