package sqlcommon

import "strings"

// inClause builds a "(p1, p2, ...)" placeholder group for an IN (...)
// clause starting at 1-indexed position `start`, returning the SQL
// fragment and the next free position.
func (d *DB) inClause(start int, n int) (string, int) {
	if n == 0 {
		return "(NULL)", start
	}
	parts := make([]string, n)
	pos := start
	for i := 0; i < n; i++ {
		parts[i] = d.Dialect.Placeholder(pos)
		pos++
	}
	return "(" + strings.Join(parts, ", ") + ")", pos
}
