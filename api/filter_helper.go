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

package api

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/flcore/flquery/internal/apierror"
	"github.com/flcore/flquery/internal/filter"
	"github.com/flcore/flquery/model"
)

// ClauseRequest is the JSON body of the clause endpoint.
type ClauseRequest struct {
	Filter filter.Spec `json:"filter"`
}

// ClauseResponse is a compiled filter with its named parameters.
type ClauseResponse struct {
	Clause     string                 `json:"clause"`
	Parameters map[string]interface{} `json:"parameters"`
}

// SearchRequest represents the JSON body for search endpoints.
type SearchRequest struct {
	Filter       filter.Spec `json:"filter"`
	Limit        int         `json:"limit,omitempty"`
	Offset       int         `json:"offset,omitempty"`
	SortBy       string      `json:"sort_by,omitempty"`
	SortOrder    string      `json:"sort_order,omitempty"` // "asc" or "desc"
	IncludeCount bool        `json:"include_count,omitempty"`
}

func (r SearchRequest) options() *model.QueryOptions {
	return &model.QueryOptions{
		SortBy:       r.SortBy,
		SortOrder:    model.SortOrder(r.SortOrder),
		IncludeCount: r.IncludeCount,
	}
}

// specValue keeps an absent filter a nil interface.
func specValue(spec filter.Spec) interface{} {
	if spec == nil {
		return nil
	}
	return spec
}

// ParseSearchFromQuery reads a search from query parameters:
//
//	filter=<JSON object>&limit=20&offset=0&sort_by=created_at&sort_order=asc&include_count=true
func ParseSearchFromQuery(c *gin.Context) (SearchRequest, error) {
	req := SearchRequest{
		SortBy:       c.DefaultQuery("sort_by", ""),
		SortOrder:    c.DefaultQuery("sort_order", "desc"),
		IncludeCount: c.DefaultQuery("include_count", "") == "true",
	}

	if raw := strings.TrimSpace(c.Query("filter")); raw != "" {
		spec, err := filter.ParseSpec([]byte(raw))
		if err != nil {
			return req, err
		}
		req.Filter = spec
	}

	var err error
	if req.Limit, err = intQuery(c, "limit"); err != nil {
		return req, err
	}
	if req.Offset, err = intQuery(c, "offset"); err != nil {
		return req, err
	}
	return req, nil
}

func intQuery(c *gin.Context, key string) (int, error) {
	raw := c.Query(key)
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, apierror.NewAPIError(apierror.ErrBadRequest, "invalid "+key+": must be an integer", err)
	}
	return n, nil
}

// respondError writes err with the status its code maps to.
func respondError(c *gin.Context, err error) {
	apiErr := apierror.FromFilterError(err)
	c.JSON(apierror.MapErrorToHTTPStatus(apiErr), gin.H{"error": apiErr.Message, "code": apiErr.Code})
}

func resourceName(c *gin.Context) (string, bool) {
	name, passed := c.Params.Get("name")
	if !passed || name == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "name is required. pass name in the route /:name"})
		return "", false
	}
	return name, true
}
