package store

// NamedQuery describes one entry of the fixed read-only query catalog.
// The catalog is defined at process start and never mutated; the SQL itself
// lives with the storage implementation.
type NamedQuery struct {
	ID          int
	Description string
	ParamCount  int  // number of textual parameters the query expects (0 or 1)
	BindTwice   bool // the single parameter is bound in two positions
}

var catalog = map[int]NamedQuery{
	1: {ID: 1, Description: "usernames currently online"},
	2: {ID: 2, Description: "total registered users"},
	3: {ID: 3, Description: "messages sent by a user", ParamCount: 1},
	4: {ID: 4, Description: "messages received by a user", ParamCount: 1},
	5: {ID: 5, Description: "total stored messages"},
	6: {ID: 6, Description: "message counts per sender/receiver pair"},
	7: {ID: 7, Description: "messages sent or received by a user", ParamCount: 1, BindTwice: true},
}

// CatalogEntry returns the catalog definition for id.
func CatalogEntry(id int) (NamedQuery, bool) {
	q, ok := catalog[id]
	return q, ok
}
