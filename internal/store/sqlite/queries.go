package sqlite

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/relaychat/relaychat-server/internal/store"
)

// namedQuerySQL holds the SQL behind each catalog entry. Parameter counts
// and binding rules live in store.CatalogEntry; only read-only statements
// belong here.
var namedQuerySQL = map[int]string{
	1: `SELECT username FROM connections WHERE is_online = 1;`,
	2: `SELECT COUNT(*) AS total_users FROM connections;`,
	3: `SELECT m.id, m.content, m.timestamp
	    FROM messages AS m
	    JOIN connections AS c ON m.sender_id = c.id
	    WHERE c.username = ?;`,
	4: `SELECT *
	    FROM messages
	    WHERE ',' || receiver_ids || ',' LIKE '%,' || (
	        SELECT id FROM connections WHERE username = ?
	    ) || ',%';`,
	5: `SELECT COUNT(*) AS total_messages FROM messages;`,
	6: `SELECT c1.username AS sender, c2.username AS receiver, COUNT(*) AS message_count
	    FROM messages AS m
	    JOIN connections AS c1 ON m.sender_id = c1.id
	    JOIN connections AS c2 ON ',' || m.receiver_ids || ',' LIKE '%,' || c2.id || ',%'
	    GROUP BY c1.username, c2.username;`,
	7: `SELECT *
	    FROM messages
	    WHERE sender_id = (SELECT id FROM connections WHERE username = ?)
	       OR ',' || receiver_ids || ',' LIKE '%,' || (
	           SELECT id FROM connections WHERE username = ?
	       ) || ',%';`,
}

// RunNamedQuery executes catalog entry id with the given args and renders
// each row as text columns.
func (s *SQLiteStore) RunNamedQuery(ctx context.Context, id int, args []string) ([]store.Row, error) {
	entry, ok := store.CatalogEntry(id)
	if !ok {
		return nil, fmt.Errorf("unknown query id %d", id)
	}
	query, ok := namedQuerySQL[id]
	if !ok {
		return nil, fmt.Errorf("no sql for query id %d", id)
	}
	if len(args) < entry.ParamCount {
		return nil, fmt.Errorf("query id %d expects %d parameter(s), got %d", id, entry.ParamCount, len(args))
	}

	var bind []any
	if entry.ParamCount == 1 {
		bind = append(bind, args[0])
		if entry.BindTwice {
			bind = append(bind, args[0])
		}
	}

	rows, err := s.db.QueryContext(ctx, query, bind...)
	if err != nil {
		return nil, fmt.Errorf("run query %d: %w", id, err)
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("query %d columns: %w", id, err)
	}

	var out []store.Row
	for rows.Next() {
		raw := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range raw {
			ptrs[i] = &raw[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("scan query %d row: %w", id, err)
		}
		rec := make(store.Row, len(cols))
		for i, v := range raw {
			rec[i] = renderValue(v)
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate query %d rows: %w", id, err)
	}
	return out, nil
}

func renderValue(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case []byte:
		return string(x)
	case string:
		return x
	case int64:
		return strconv.FormatInt(x, 10)
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case bool:
		if x {
			return "1"
		}
		return "0"
	case time.Time:
		return x.Format(timeLayout)
	default:
		return fmt.Sprint(x)
	}
}
