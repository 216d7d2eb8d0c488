package store

import (
	"context"
	"fmt"
	"strings"

	"github.com/erazemk/inventar/internal/apperr"
	"github.com/erazemk/inventar/internal/db"
	"github.com/erazemk/inventar/internal/model"
)

// GlobalCounters returns the number of objects, device rows and ledger
// entries.
func GlobalCounters(ctx context.Context, database db.Querier) (*model.Counters, error) {
	c := &model.Counters{}
	err := database.QueryRowContext(ctx,
		`SELECT (SELECT COUNT(*) FROM traffic_objects),
		        (SELECT COUNT(*) FROM devices),
		        (SELECT COUNT(*) FROM transfer_history)`,
	).Scan(&c.TotalLocations, &c.TotalDevices, &c.TotalTransfers)
	if err != nil {
		return nil, fmt.Errorf("counting rows: %w", err)
	}
	return c, nil
}

// CollectStats returns the global counters and the number of device rows
// per object, ordered by object ID. Objects without devices report 0.
func CollectStats(ctx context.Context, database db.Querier) (*model.Stats, error) {
	counters, err := GlobalCounters(ctx, database)
	if err != nil {
		return nil, err
	}

	rows, err := database.QueryContext(ctx,
		`SELECT o.id, o.name, COUNT(d.id)
		 FROM traffic_objects o
		 LEFT JOIN devices d ON d.object_name = o.name
		 GROUP BY o.id, o.name
		 ORDER BY o.id`,
	)
	if err != nil {
		return nil, fmt.Errorf("collecting stats: %w", err)
	}
	defer rows.Close()

	stats := &model.Stats{Counters: *counters, PerObject: []model.ObjectStat{}}
	for rows.Next() {
		var s model.ObjectStat
		if err := rows.Scan(&s.ObjectID, &s.ObjectName, &s.DevicesCount); err != nil {
			return nil, fmt.Errorf("scanning stats: %w", err)
		}
		stats.PerObject = append(stats.PerObject, s)
	}
	return stats, rows.Err()
}

// Search matches q against objects (name, address) and devices (name,
// description, object name). Both lists are paginated independently.
func Search(ctx context.Context, database db.Querier, q string, limit, offset int) (*model.SearchResult, error) {
	if strings.TrimSpace(q) == "" {
		return nil, apperr.InvalidInput("q_required")
	}

	objects, err := ListObjects(ctx, database, q, limit, offset)
	if err != nil {
		return nil, err
	}
	devices, err := queryDevices(ctx, database, q, "", "device_name, id", limit, offset)
	if err != nil {
		return nil, err
	}
	counters, err := GlobalCounters(ctx, database)
	if err != nil {
		return nil, err
	}

	return &model.SearchResult{
		Q:        q,
		Counters: *counters,
		Objects:  objects,
		Devices:  devices,
	}, nil
}
