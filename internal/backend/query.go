package backend

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
)

// Table names owned by the backend schema.
const (
	TableProjects     = "movie_projects"
	TableClips        = "video_clips"
	TableCredits      = "credit_transactions"
	TableProfiles     = "profiles"
	TableUniverses    = "universes"
	restPathSegment   = "rest"
	restVersionPrefix = "v1"
)

// Query builds a filtered, ordered row request against one table,
// PostgREST-style. Builders are single-use.
type Query struct {
	client  *Client
	table   string
	filters []string
	order   string
	limit   int
	selects string
}

// From starts a query against the named table.
func (c *Client) From(table string) *Query {
	return &Query{client: c, table: table, selects: "*"}
}

// Select restricts the returned columns.
func (q *Query) Select(columns string) *Query {
	columns = strings.TrimSpace(columns)
	if columns != "" {
		q.selects = columns
	}
	return q
}

// Eq adds an equality filter on column. Both sides are escaped so values
// containing query metacharacters survive the round trip.
func (q *Query) Eq(column string, value any) *Query {
	escaped := url.QueryEscape(fmt.Sprintf("%v", value))
	q.filters = append(q.filters, fmt.Sprintf("%s=eq.%s", url.QueryEscape(column), escaped))
	return q
}

// In adds a membership filter on column.
func (q *Query) In(column string, values ...string) *Query {
	if len(values) == 0 {
		return q
	}
	escaped := make([]string, len(values))
	for i, value := range values {
		escaped[i] = url.QueryEscape(value)
	}
	q.filters = append(q.filters, fmt.Sprintf("%s=in.(%s)", url.QueryEscape(column), strings.Join(escaped, ",")))
	return q
}

// Order sorts by column; descending when desc is true.
func (q *Query) Order(column string, desc bool) *Query {
	direction := "asc"
	if desc {
		direction = "desc"
	}
	q.order = fmt.Sprintf("order=%s.%s", url.QueryEscape(column), direction)
	return q
}

// Limit caps the row count. The server enforces its own cap regardless.
func (q *Query) Limit(n int) *Query {
	if n > 0 {
		q.limit = n
	}
	return q
}

func (q *Query) url() (string, error) {
	endpoint, err := q.client.endpoint(restPathSegment, restVersionPrefix, q.table)
	if err != nil {
		return "", err
	}
	params := append([]string{}, q.filters...)
	params = append(params, "select="+url.QueryEscape(q.selects))
	if q.order != "" {
		params = append(params, q.order)
	}
	if q.limit > 0 {
		params = append(params, fmt.Sprintf("limit=%d", q.limit))
	}
	return endpoint + "?" + strings.Join(params, "&"), nil
}

// Get executes the select and decodes rows into out (a slice pointer).
func (q *Query) Get(ctx context.Context, out any) error {
	endpoint, err := q.url()
	if err != nil {
		return err
	}
	return q.client.do(ctx, http.MethodGet, endpoint, nil, out)
}

// Insert writes rows and decodes the returned representation into out when
// out is non-nil.
func (q *Query) Insert(ctx context.Context, rows any, out any) error {
	endpoint, err := q.url()
	if err != nil {
		return err
	}
	return q.client.do(ctx, http.MethodPost, endpoint, rows, out)
}

// Update patches the filtered rows.
func (q *Query) Update(ctx context.Context, patch any) error {
	if len(q.filters) == 0 {
		return fmt.Errorf("backend: refusing unfiltered update on %s", q.table)
	}
	endpoint, err := q.url()
	if err != nil {
		return err
	}
	return q.client.do(ctx, http.MethodPatch, endpoint, patch, nil)
}

// Delete removes the filtered rows.
func (q *Query) Delete(ctx context.Context) error {
	if len(q.filters) == 0 {
		return fmt.Errorf("backend: refusing unfiltered delete on %s", q.table)
	}
	endpoint, err := q.url()
	if err != nil {
		return err
	}
	return q.client.do(ctx, http.MethodDelete, endpoint, nil, nil)
}
