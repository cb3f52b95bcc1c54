package sqlstore

import (
	"strings"
	"time"

	"github.com/joakimtj/eventdesk/internal/domain/errs"
)

// column allow-lists for partial updates
var (
	templateColumns     = []string{"name", "event_type", "default_capacity", "default_price", "rules"}
	eventColumns        = []string{"slug", "title", "description", "event_type", "date", "location", "capacity", "price", "is_public", "template_id"}
	registrationColumns = []string{"status", "total_price"}
	attendeeColumns     = []string{"name", "email", "phone"}
)

// updateBuilder collects SET assignments for one table. Column names never come
// from input; anything outside the allow-list is rejected before SQL is built.
type updateBuilder struct {
	table   string
	allowed map[string]struct{}
	cols    []string
	args    []any
	err     error
}

func newUpdate(table string, allowed []string) *updateBuilder {
	m := make(map[string]struct{}, len(allowed))
	for _, c := range allowed {
		m[c] = struct{}{}
	}
	return &updateBuilder{table: table, allowed: m}
}

func (u *updateBuilder) Set(col string, val any) *updateBuilder {
	if u.err != nil {
		return u
	}
	if _, ok := u.allowed[col]; !ok {
		u.err = errs.Invalid(col, "is not an updatable field")
		return u
	}
	u.cols = append(u.cols, col+" = ?")
	u.args = append(u.args, val)
	return u
}

// Build returns the UPDATE statement with ? placeholders. updated_at is always
// refreshed when touchUpdatedAt is set.
func (u *updateBuilder) Build(id string, now time.Time, touchUpdatedAt bool) (string, []any, error) {
	if u.err != nil {
		return "", nil, u.err
	}

	cols := u.cols
	args := u.args
	if touchUpdatedAt {
		cols = append(cols[:len(cols):len(cols)], "updated_at = ?")
		args = append(args[:len(args):len(args)], formatTS(now))
	}
	if len(cols) == 0 {
		return "", nil, nil
	}

	q := "UPDATE " + u.table + " SET " + strings.Join(cols, ", ") + " WHERE id = ?"
	return q, append(args, id), nil
}
