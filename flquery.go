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

package flquery

import (
	"context"
	"fmt"
	"math"
	"sort"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/flcore/flquery/config"
	"github.com/flcore/flquery/database"
	"github.com/flcore/flquery/internal/apierror"
	"github.com/flcore/flquery/internal/filter"
	"github.com/flcore/flquery/internal/notification"
	"github.com/flcore/flquery/model"
)

var tracer = otel.Tracer("flquery")

// FlQuery represents the main struct for the query service.
type FlQuery struct {
	datasource database.IDataSource
	config     *config.Configuration
	classes    filter.Classes
	resources  map[string]*model.Resource
	names      []string

	// canonical restriction values per resource
	restrictions map[string]map[string][]interface{}
}

// NewFlQuery initializes a new instance of FlQuery over a resource catalog.
// Every resource's filter configuration is checked up front, so a broken
// catalog fails at startup rather than on the first request.
//
// Parameters:
// - db database.IDataSource: The datasource searches run against.
// - catalog *model.Catalog: The queryable resources and class hierarchy.
// - cfg *config.Configuration: Page size limits.
//
// Returns:
// - *FlQuery: A pointer to the newly created FlQuery instance.
// - error: An error if the catalog is invalid.
func NewFlQuery(db database.IDataSource, catalog *model.Catalog, cfg *config.Configuration) (*FlQuery, error) {
	if catalog == nil {
		return nil, errors.New("resource catalog is required")
	}
	if cfg == nil {
		return nil, errors.New("configuration is required")
	}
	if err := catalog.Validate(); err != nil {
		return nil, err
	}

	l := &FlQuery{
		datasource:   db,
		config:       cfg,
		classes:      catalog.Classes,
		resources:    make(map[string]*model.Resource, len(catalog.Resources)),
		restrictions: make(map[string]map[string][]interface{}),
	}

	for i := range catalog.Resources {
		resource := catalog.Resources[i]
		engine, err := l.newEngine(&resource)
		if err != nil {
			return nil, errors.Wrapf(err, "resource %q", resource.Name)
		}
		if err := engine.Validate(); err != nil {
			return nil, errors.Wrapf(err, "resource %q", resource.Name)
		}

		restrictions, err := canonicalRestrictions(&resource, catalog.Classes)
		if err != nil {
			return nil, errors.Wrapf(err, "resource %q", resource.Name)
		}
		if len(restrictions) > 0 {
			l.restrictions[resource.Name] = restrictions
		}

		l.resources[resource.Name] = &resource
		l.names = append(l.names, resource.Name)
	}
	sort.Strings(l.names)

	return l, nil
}

// Resources returns the configured resources ordered by name.
func (l *FlQuery) Resources() []*model.Resource {
	out := make([]*model.Resource, 0, len(l.names))
	for _, name := range l.names {
		out = append(out, l.resources[name])
	}
	return out
}

// Resource returns the resource registered under name.
func (l *FlQuery) Resource(name string) (*model.Resource, error) {
	resource, ok := l.resources[name]
	if !ok {
		return nil, apierror.NewAPIError(apierror.ErrNotFound, fmt.Sprintf("resource '%s' not found", name), nil)
	}
	return resource, nil
}

// Ping checks the datasource.
func (l *FlQuery) Ping(ctx context.Context) error {
	return l.datasource.Ping(ctx)
}

// newEngine builds a fresh engine for one request. Engines carry parameter
// state and are never shared.
func (l *FlQuery) newEngine(resource *model.Resource) (*filter.Engine, error) {
	return filter.NewEngine(filter.Config{
		Filters: resource.Filters,
		Classes: l.classes,
	})
}

// Clause compiles a filter specification for the named resource.
//
// Restrictions configured on the resource are applied to the specification
// with Adjust and then ANDed at the top level, so no branch of the tree can
// reach values outside them. A nil spec places no restriction of its own.
func (l *FlQuery) Clause(ctx context.Context, name string, spec interface{}) (*filter.Result, error) {
	_, span := tracer.Start(ctx, "Compiling filter")
	defer span.End()

	resource, err := l.Resource(name)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	engine, err := l.newEngine(resource)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	tree, err := l.restrictedTree(engine, resource.Name, spec)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	result, err := engine.Compile(tree)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	span.AddEvent("Filter compiled", trace.WithAttributes(
		attribute.String("resource", resource.Name),
		attribute.Int("parameters", len(result.Parameters)),
	))
	logrus.WithFields(logrus.Fields{
		"resource":   resource.Name,
		"clause":     result.Clause,
		"parameters": len(result.Parameters),
	}).Debug("filter compiled")

	return result, nil
}

func (l *FlQuery) restrictedTree(engine *filter.Engine, name string, spec interface{}) (interface{}, error) {
	if spec == nil {
		spec = filter.Spec{}
	}
	restrictions := l.restrictions[name]
	if len(restrictions) == 0 {
		return spec, nil
	}

	adjusted, err := engine.Adjust(spec, filter.Restrict(restrictions))
	if err != nil {
		return nil, err
	}

	names := make([]string, 0, len(restrictions))
	for filterName := range restrictions {
		names = append(names, filterName)
	}
	sort.Strings(names)

	tree := filter.Spec{{Key: filter.KeyAll, Value: adjusted}}
	for _, filterName := range names {
		tree = append(tree, filter.Entry{Key: filterName, Value: filter.Partition{Only: restrictions[filterName]}})
	}
	return tree, nil
}

// Search returns one page of the named resource matching spec.
//
// limit falls back to the configured default page size and is capped at the
// maximum page size. A specification that restrictions leave with nothing to
// match returns an empty page without querying the database.
func (l *FlQuery) Search(ctx context.Context, name string, spec interface{}, opts *model.QueryOptions, limit, offset int) (*model.Page, error) {
	ctx, span := tracer.Start(ctx, "Searching resource")
	defer span.End()

	limit, offset = l.pageBounds(limit, offset)

	result, err := l.Clause(ctx, name, spec)
	if errors.Is(err, filter.ErrRestrictedAway) {
		span.AddEvent("Restricted away", trace.WithAttributes(attribute.String("resource", name)))
		return emptyPage(opts, limit, offset), nil
	}
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	resource, err := l.Resource(name)
	if err != nil {
		return nil, err
	}

	page, err := l.datasource.Find(ctx, database.Query{
		Resource:   resource,
		Clause:     result.Clause,
		Parameters: result.Parameters,
		Options:    opts,
		Limit:      limit,
		Offset:     offset,
	})
	if err != nil {
		span.RecordError(err)
		if apierror.MapErrorToHTTPStatus(err) >= 500 {
			notification.NotifyError(errors.Wrapf(err, "search on %s failed", name))
		} else {
			logrus.WithFields(logrus.Fields{"resource": name}).WithError(err).Warn("search rejected")
		}
		return nil, err
	}

	span.AddEvent("Search completed", trace.WithAttributes(attribute.Int("rows", len(page.Data))))
	return page, nil
}

func (l *FlQuery) pageBounds(limit, offset int) (int, int) {
	maxSize := l.config.Filter.MaxPageSize
	if maxSize <= 0 {
		maxSize = config.DEFAULT_MAX_PAGE_SIZE
	}
	defaultSize := l.config.Filter.DefaultPageSize
	if defaultSize <= 0 || defaultSize > maxSize {
		defaultSize = min(config.DEFAULT_PAGE_SIZE, maxSize)
	}

	if limit <= 0 {
		limit = defaultSize
	}
	if limit > maxSize {
		limit = maxSize
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}

func emptyPage(opts *model.QueryOptions, limit, offset int) *model.Page {
	page := &model.Page{Data: []model.Record{}, Limit: limit, Offset: offset}
	if opts != nil && opts.IncludeCount {
		var zero int64
		page.TotalCount = &zero
	}
	return page
}

// canonicalRestrictions brings catalog restriction values into the form the
// engine normalizes leaf values to, so Restrict can compare them.
func canonicalRestrictions(resource *model.Resource, classes filter.Classes) (map[string][]interface{}, error) {
	if len(resource.Restrictions) == 0 {
		return nil, nil
	}

	out := make(map[string][]interface{}, len(resource.Restrictions))
	for name, values := range resource.Restrictions {
		d := resource.Filters[name]
		allowed := make([]interface{}, 0, len(values))
		for _, v := range values {
			switch d.Type {
			case filter.TypeReferences:
				if id, ok := filter.ResolveIdentifier(v, d.ClassName, classes); ok {
					allowed = append(allowed, id)
				}
			case filter.TypePolymorphicReferences:
				if fp, ok := filter.ResolveFingerprint(v); ok {
					allowed = append(allowed, fp)
				}
			default:
				allowed = append(allowed, integralValue(v))
			}
		}
		if len(allowed) == 0 {
			return nil, fmt.Errorf("restriction on filter %q allows no values", name)
		}
		out[name] = allowed
	}
	return out, nil
}

// integralValue turns whole JSON numbers back into integers.
func integralValue(v interface{}) interface{} {
	if f, ok := v.(float64); ok && f == math.Trunc(f) && !math.IsInf(f, 0) {
		return int64(f)
	}
	return v
}
