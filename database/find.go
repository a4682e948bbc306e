/*
Copyright 2024 Blnk Finance Authors.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

	http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package database

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"
	"strings"

	json "github.com/goccy/go-json"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/flcore/flquery/internal/apierror"
	"github.com/flcore/flquery/internal/cache"
	"github.com/flcore/flquery/internal/filter"
	"github.com/flcore/flquery/model"
)

var tracer = otel.Tracer("flquery.database")

const (
	totalCountColumn = "total_count"
	cacheKeyPrefix   = "flquery:find:"
)

// Query is one page request against a resource. Clause and Parameters come
// from filter.Engine.Compile and may be empty.
type Query struct {
	Resource   *model.Resource
	Clause     string
	Parameters map[string]interface{}
	Options    *model.QueryOptions
	Limit      int
	Offset     int
}

// BuildSelect renders q as a SELECT statement with positional arguments in
// the given dialect.
func BuildSelect(q Query, dialect filter.Dialect) (string, []interface{}, error) {
	if q.Resource == nil {
		return "", nil, apierror.NewAPIError(apierror.ErrInternalServer, "query has no resource", nil)
	}

	var sortBy string
	if q.Options != nil {
		sortBy = q.Options.SortBy
	}
	sortColumn, err := q.Resource.SortColumn(sortBy)
	if err != nil {
		return "", nil, apierror.NewAPIError(apierror.ErrBadRequest, "Invalid sort_by field", err)
	}

	// Determine select fields based on whether count is requested
	selectFields := strings.Join(q.Resource.Columns, ", ")
	if q.Options != nil && q.Options.IncludeCount {
		selectFields += ", COUNT(*) OVER() AS " + totalCountColumn
	}
	query := fmt.Sprintf("SELECT %s FROM %s", selectFields, q.Resource.Table)

	bound := filter.Bind(q.Clause, q.Parameters, 1, dialect)
	args := append([]interface{}{}, bound.Args...)
	if bound.Clause != "" {
		query += " WHERE " + bound.Clause
	}

	query += fmt.Sprintf(" ORDER BY %s %s", sortColumn, strings.ToUpper(string(q.Options.DefaultSortOrder())))

	// Add pagination
	if dialect == filter.DialectPostgres {
		query += fmt.Sprintf(" LIMIT $%d OFFSET $%d", bound.NextArgPos, bound.NextArgPos+1)
	} else {
		query += " LIMIT ? OFFSET ?"
	}
	args = append(args, q.Limit, q.Offset)

	return query, args, nil
}

// Find runs q and returns the matching page. Pages are served from the cache
// when one is configured; cache failures only cost a query.
func (d *Datasource) Find(ctx context.Context, q Query) (*model.Page, error) {
	ctx, span := tracer.Start(ctx, "Find")
	defer span.End()

	query, args, err := BuildSelect(q, d.Dialect)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	span.SetAttributes(attribute.String("resource", q.Resource.Name))

	key, err := cacheKey(query, args)
	if err != nil {
		logrus.WithError(err).Warn("search result cannot be cached")
		key = ""
	}
	if d.Cache != nil && key != "" {
		var page model.Page
		err := d.Cache.Get(ctx, key, &page)
		if err == nil {
			span.AddEvent("Cache hit", trace.WithAttributes(attribute.String("cache.key", key)))
			return &page, nil
		}
		if !errors.Is(err, cache.ErrMiss) {
			logrus.WithError(err).WithField("key", key).Warn("search cache read failed")
		}
	}

	rows, err := d.Conn.QueryContext(ctx, query, args...)
	if err != nil {
		span.RecordError(err)
		return nil, apierror.NewAPIError(apierror.ErrInternalServer, fmt.Sprintf("Failed to retrieve %s", q.Resource.Name), err)
	}
	defer func() { _ = rows.Close() }()

	page, err := scanPage(rows, q)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	span.AddEvent("Rows fetched", trace.WithAttributes(attribute.Int("rows", len(page.Data))))

	if d.Cache != nil && key != "" {
		if err := d.Cache.Set(ctx, key, page, d.CacheTTL); err != nil {
			logrus.WithError(err).WithField("key", key).Warn("search cache write failed")
		}
	}
	return page, nil
}

// Ping checks that the database is reachable.
func (d *Datasource) Ping(ctx context.Context) error {
	return d.Conn.PingContext(ctx)
}

type rowScanner interface {
	Columns() ([]string, error)
	Next() bool
	Scan(dest ...interface{}) error
	Err() error
}

func scanPage(rows rowScanner, q Query) (*model.Page, error) {
	columns, err := rows.Columns()
	if err != nil {
		return nil, apierror.NewAPIError(apierror.ErrInternalServer, "Failed to read columns", err)
	}

	page := &model.Page{Data: []model.Record{}, Limit: q.Limit, Offset: q.Offset}
	if q.Options != nil && q.Options.IncludeCount {
		var zero int64
		page.TotalCount = &zero
	}

	values := make([]interface{}, len(columns))
	dest := make([]interface{}, len(columns))
	for i := range values {
		dest[i] = &values[i]
	}

	for rows.Next() {
		if err := rows.Scan(dest...); err != nil {
			return nil, apierror.NewAPIError(apierror.ErrInternalServer, fmt.Sprintf("Failed to scan %s data", q.Resource.Name), err)
		}
		record := make(model.Record, len(columns))
		for i, column := range columns {
			if column == totalCountColumn && page.TotalCount != nil {
				count, err := countValue(values[i])
				if err != nil {
					return nil, apierror.NewAPIError(apierror.ErrInternalServer, "Failed to read total count", err)
				}
				page.TotalCount = &count
				continue
			}
			record[column] = columnValue(values[i])
		}
		page.Data = append(page.Data, record)
	}

	if err := rows.Err(); err != nil {
		return nil, apierror.NewAPIError(apierror.ErrInternalServer, fmt.Sprintf("Error occurred while iterating over %s", q.Resource.Name), err)
	}
	return page, nil
}

func columnValue(v interface{}) interface{} {
	if b, ok := v.([]byte); ok {
		return string(b)
	}
	return v
}

func countValue(v interface{}) (int64, error) {
	switch n := v.(type) {
	case int64:
		return n, nil
	case int32:
		return int64(n), nil
	case int:
		return int64(n), nil
	case uint64:
		return int64(n), nil
	case float64:
		return int64(n), nil
	case []byte:
		return strconv.ParseInt(string(n), 10, 64)
	case string:
		return strconv.ParseInt(n, 10, 64)
	}
	return 0, fmt.Errorf("unexpected count type %T", v)
}

// cacheKey identifies a query by its text and arguments.
func cacheKey(query string, args []interface{}) (string, error) {
	encoded, err := json.Marshal(args)
	if err != nil {
		return "", err
	}
	sum := sha256.New()
	sum.Write([]byte(query))
	sum.Write([]byte{0})
	sum.Write(encoded)
	return cacheKeyPrefix + hex.EncodeToString(sum.Sum(nil)), nil
}
