package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"

	"gopkg.in/yaml.v3"

	"github.com/erazemk/inventar/internal/db"
	"github.com/erazemk/inventar/internal/model"
)

const historyColumns = `id, object_from, object_to, devices, device_count, created_at`

// TransferHistory returns the newest ledger entries first.
func TransferHistory(ctx context.Context, database db.Querier, limit int) ([]model.TransferRecord, error) {
	limit, _ = clampPage(limit, 0)

	rows, err := database.QueryContext(ctx,
		`SELECT `+historyColumns+` FROM transfer_history ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("listing transfer history: %w", err)
	}
	defer rows.Close()

	return scanHistory(rows)
}

// ListTransfersForObject returns the newest ledger entries that moved
// devices into or out of objectName.
func ListTransfersForObject(ctx context.Context, database db.Querier, objectName string, limit int) ([]model.TransferRecord, error) {
	limit, _ = clampPage(limit, 0)

	rows, err := database.QueryContext(ctx,
		`SELECT `+historyColumns+` FROM transfer_history
		 WHERE object_from = ? OR object_to = ?
		 ORDER BY id DESC LIMIT ?`, objectName, objectName, limit)
	if err != nil {
		return nil, fmt.Errorf("listing object transfers: %w", err)
	}
	defer rows.Close()

	return scanHistory(rows)
}

func scanHistory(rows *sql.Rows) ([]model.TransferRecord, error) {
	records := []model.TransferRecord{}
	for rows.Next() {
		var r model.TransferRecord
		var devices sql.NullString
		if err := rows.Scan(&r.ID, &r.ObjectFrom, &r.ObjectTo, &devices, &r.DeviceCount, &r.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning transfer: %w", err)
		}
		r.Devices = DecodeDeviceList(devices.String)
		records = append(records, r)
	}
	return records, rows.Err()
}

// DecodeDeviceList decodes the devices column of a ledger entry. Entries
// are normally a JSON array of names. Older rows may hold a list or tuple
// literal such as ['Cam', "C:\\cam"] or ('Cam',), whose quoted items use
// backslash escapes. Anything else is tried as YAML; a single value becomes
// a one-element list, and text that decodes to nothing usable is returned
// whole.
func DecodeDeviceList(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return []string{}
	}

	var v any
	if err := json.Unmarshal([]byte(raw), &v); err != nil {
		if items, ok := parseListLiteral(raw); ok {
			return items
		}
		if err := yaml.Unmarshal([]byte(raw), &v); err != nil {
			return []string{raw}
		}
	}

	switch val := v.(type) {
	case nil:
		return []string{}
	case []any:
		out := make([]string, 0, len(val))
		for _, item := range val {
			out = append(out, scalarString(item))
		}
		return out
	case map[string]any:
		return []string{raw}
	default:
		return []string{scalarString(val)}
	}
}

func scalarString(v any) string {
	switch s := v.(type) {
	case string:
		return s
	case nil:
		return ""
	default:
		return fmt.Sprint(s)
	}
}

// parseListLiteral parses a bracketed or parenthesized, comma separated
// list of quoted strings. Bare items such as numbers are kept as written,
// None becomes "". It reports false if raw is not such a literal.
func parseListLiteral(raw string) ([]string, bool) {
	s := strings.TrimSpace(raw)
	if len(s) < 2 {
		return nil, false
	}
	switch {
	case s[0] == '[' && s[len(s)-1] == ']':
	case s[0] == '(' && s[len(s)-1] == ')':
	default:
		return nil, false
	}
	s = s[1 : len(s)-1]

	items := []string{}
	for {
		s = strings.TrimLeft(s, " \t\r\n")
		if s == "" {
			return items, true
		}

		var item string
		if s[0] == '\'' || s[0] == '"' {
			var ok bool
			item, s, ok = unquoteItem(s)
			if !ok {
				return nil, false
			}
		} else {
			end := strings.IndexByte(s, ',')
			if end < 0 {
				end = len(s)
			}
			item = strings.TrimSpace(s[:end])
			s = s[end:]
			if item == "" {
				return nil, false
			}
			if item == "None" {
				item = ""
			}
		}
		items = append(items, item)

		s = strings.TrimLeft(s, " \t\r\n")
		if s == "" {
			return items, true
		}
		if s[0] != ',' {
			return nil, false
		}
		s = s[1:]
	}
}

// unquoteItem decodes the quoted string at the start of s and returns it
// with the remaining input. Unknown escapes keep their backslash.
func unquoteItem(s string) (string, string, bool) {
	quote := s[0]
	s = s[1:]

	var b strings.Builder
	for len(s) > 0 {
		switch {
		case s[0] == quote:
			return b.String(), s[1:], true
		case s[0] == '\\':
			if len(s) < 2 {
				return "", "", false
			}
			if s[1] == '\'' || s[1] == '"' {
				b.WriteByte(s[1])
				s = s[2:]
				continue
			}
			value, _, tail, err := strconv.UnquoteChar(s, quote)
			if err != nil {
				b.WriteByte('\\')
				s = s[1:]
				continue
			}
			b.WriteRune(value)
			s = tail
		default:
			r, size := utf8.DecodeRuneInString(s)
			b.WriteRune(r)
			s = s[size:]
		}
	}
	return "", "", false
}
