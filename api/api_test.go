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
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/flcore/flquery"
	"github.com/flcore/flquery/api/middleware"
	"github.com/flcore/flquery/config"
	"github.com/flcore/flquery/database"
	"github.com/flcore/flquery/database/mocks"
	"github.com/flcore/flquery/internal/filter"
	"github.com/flcore/flquery/model"
)

type TestRequest struct {
	Payload  io.Reader
	Router   *gin.Engine
	Response interface{}
	Method   string
	Route    string
	Header   map[string]string
}

func SetUpTestRequest(s TestRequest) (*httptest.ResponseRecorder, error) {
	req := httptest.NewRequest(s.Method, s.Route, s.Payload)
	for key, value := range s.Header {
		req.Header.Set(key, value)
	}
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()
	s.Router.ServeHTTP(resp, req)

	err := json.NewDecoder(resp.Body).Decode(s.Response)
	if err != nil {
		return nil, err
	}
	return resp, nil
}

func testCatalog() *model.Catalog {
	return &model.Catalog{
		Resources: []model.Resource{
			{
				Name:        "widgets",
				Table:       "widgets",
				Columns:     []string{"id", "name", "owner_id", "created_at"},
				DefaultSort: "created_at",
				Filters: map[string]filter.Descriptor{
					"owners":  {Type: filter.TypeReferences, Field: "owner_id", ClassName: "User"},
					"created": {Type: filter.TypeTimestamp, Field: "created_at"},
				},
			},
			{
				Name:    "orders",
				Table:   "orders",
				Columns: []string{"id", "owner_id"},
				Filters: map[string]filter.Descriptor{
					"owners": {Type: filter.TypeReferences, Field: "owner_id"},
				},
				Restrictions: map[string][]interface{}{"owners": {float64(7)}},
			},
		},
	}
}

func setupRouter(t *testing.T, conf *config.Configuration) (*gin.Engine, *mocks.MockDataSource) {
	t.Helper()
	config.MockConfig(conf)

	ds := new(mocks.MockDataSource)
	l, err := flquery.NewFlQuery(ds, testCatalog(), conf)
	require.NoError(t, err)

	a := NewAPI(l)
	require.NotNil(t, a)
	return a.Router(), ds
}

func defaultConfig() *config.Configuration {
	return &config.Configuration{
		ProjectName: "flquery-test",
		Filter:      config.FilterConfig{DefaultPageSize: 20, MaxPageSize: 100},
	}
}

func TestRoot(t *testing.T) {
	router, _ := setupRouter(t, defaultConfig())

	var response string
	resp, err := SetUpTestRequest(TestRequest{Router: router, Method: http.MethodGet, Route: "/", Response: &response})
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.Code)
	assert.Equal(t, "server running...", response)
	assert.NotEmpty(t, resp.Header().Get(middleware.RequestIDHeader))
}

func TestHealth(t *testing.T) {
	t.Run("up", func(t *testing.T) {
		router, ds := setupRouter(t, defaultConfig())
		ds.On("Ping", mock.Anything).Return(nil).Once()

		var response map[string]interface{}
		resp, err := SetUpTestRequest(TestRequest{Router: router, Method: http.MethodGet, Route: "/health", Response: &response})
		require.NoError(t, err)
		assert.Equal(t, http.StatusOK, resp.Code)
		assert.Equal(t, "UP", response["status"])
	})

	t.Run("down", func(t *testing.T) {
		router, ds := setupRouter(t, defaultConfig())
		ds.On("Ping", mock.Anything).Return(errors.New("connection refused")).Once()

		var response map[string]interface{}
		resp, err := SetUpTestRequest(TestRequest{Router: router, Method: http.MethodGet, Route: "/health", Response: &response})
		require.NoError(t, err)
		assert.Equal(t, http.StatusServiceUnavailable, resp.Code)
	})
}

func TestGetResources(t *testing.T) {
	router, _ := setupRouter(t, defaultConfig())

	var response []map[string]interface{}
	resp, err := SetUpTestRequest(TestRequest{Router: router, Method: http.MethodGet, Route: "/resources", Response: &response})
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.Code)
	require.Len(t, response, 2)
	assert.Equal(t, "orders", response[0]["name"])
	assert.Equal(t, "widgets", response[1]["name"])
}

func TestGetResource(t *testing.T) {
	router, _ := setupRouter(t, defaultConfig())

	t.Run("found", func(t *testing.T) {
		var response map[string]interface{}
		resp, err := SetUpTestRequest(TestRequest{Router: router, Method: http.MethodGet, Route: "/resources/widgets", Response: &response})
		require.NoError(t, err)
		assert.Equal(t, http.StatusOK, resp.Code)
		assert.Equal(t, "widgets", response["table"])
		filters := response["filters"].(map[string]interface{})
		assert.Equal(t, map[string]interface{}{"type": "references", "field": "owner_id", "class_name": "User"}, filters["owners"])
	})

	t.Run("not found", func(t *testing.T) {
		var response map[string]interface{}
		resp, err := SetUpTestRequest(TestRequest{Router: router, Method: http.MethodGet, Route: "/resources/gadgets", Response: &response})
		require.NoError(t, err)
		assert.Equal(t, http.StatusNotFound, resp.Code)
		assert.Equal(t, "NOT_FOUND", response["code"])
	})
}

func TestGenerateClause(t *testing.T) {
	router, _ := setupRouter(t, defaultConfig())

	tests := []struct {
		name         string
		route        string
		payload      string
		expectedCode int
		clause       string
	}{
		{
			name:         "references and timestamp",
			route:        "/resources/widgets/clause",
			payload:      `{"filter": {"owners": {"only": [1, "User/2"]}, "created": {"after": "2024-01-01"}}}`,
			expectedCode: http.StatusOK,
			clause:       "((owner_id IN (:p1)) AND (created_at > :p2))",
		},
		{
			name:         "no filter",
			route:        "/resources/widgets/clause",
			payload:      `{}`,
			expectedCode: http.StatusOK,
			clause:       "",
		},
		{
			name:         "restricted resource",
			route:        "/resources/orders/clause",
			payload:      `{"filter": {"owners": {"except": [3]}}}`,
			expectedCode: http.StatusOK,
			clause:       "((owner_id IN (:p1)) AND (owner_id IN (:p2)))",
		},
		{
			name:         "restricted away",
			route:        "/resources/orders/clause",
			payload:      `{"filter": {"owners": {"only": [3]}}}`,
			expectedCode: http.StatusForbidden,
		},
		{
			name:         "unknown filter",
			route:        "/resources/widgets/clause",
			payload:      `{"filter": {"owner": {"only": [1]}}}`,
			expectedCode: http.StatusBadRequest,
		},
		{
			name:         "invalid range",
			route:        "/resources/widgets/clause",
			payload:      `{"filter": {"created": {"between": ["2024-01-01"]}}}`,
			expectedCode: http.StatusBadRequest,
		},
		{
			name:         "filter is not an object",
			route:        "/resources/widgets/clause",
			payload:      `{"filter": [1, 2]}`,
			expectedCode: http.StatusBadRequest,
		},
		{
			name:         "unknown resource",
			route:        "/resources/gadgets/clause",
			payload:      `{}`,
			expectedCode: http.StatusNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var response map[string]interface{}
			resp, err := SetUpTestRequest(TestRequest{
				Router:   router,
				Method:   http.MethodPost,
				Route:    tt.route,
				Payload:  strings.NewReader(tt.payload),
				Response: &response,
			})
			require.NoError(t, err)
			assert.Equal(t, tt.expectedCode, resp.Code)
			if tt.expectedCode == http.StatusOK {
				assert.Equal(t, tt.clause, response["clause"])
			}
		})
	}
}

func TestGenerateClause_UnknownFilterSuggestion(t *testing.T) {
	router, _ := setupRouter(t, defaultConfig())

	var response map[string]interface{}
	_, err := SetUpTestRequest(TestRequest{
		Router:   router,
		Method:   http.MethodPost,
		Route:    "/resources/widgets/clause",
		Payload:  strings.NewReader(`{"filter": {"owner": {"only": [1]}}}`),
		Response: &response,
	})
	require.NoError(t, err)
	assert.Contains(t, response["error"], `did you mean "owners"`)
	assert.Equal(t, "INVALID_INPUT", response["code"])
}

func TestSearchResource(t *testing.T) {
	router, ds := setupRouter(t, defaultConfig())

	count := int64(1)
	ds.On("Find", mock.Anything, mock.MatchedBy(func(q database.Query) bool {
		return q.Resource.Name == "widgets" &&
			q.Clause == "(owner_id IN (:p1))" &&
			q.Limit == 5 && q.Offset == 10 &&
			q.Options.SortBy == "name" && q.Options.SortOrder == model.SortAsc && q.Options.IncludeCount
	})).Return(&model.Page{
		Data:       []model.Record{{"id": "w1", "name": "Anvil"}},
		TotalCount: &count,
		Limit:      5,
		Offset:     10,
	}, nil).Once()

	var response map[string]interface{}
	resp, err := SetUpTestRequest(TestRequest{
		Router:   router,
		Method:   http.MethodPost,
		Route:    "/resources/widgets/search",
		Payload:  strings.NewReader(`{"filter": {"owners": {"only": ["User/1"]}}, "limit": 5, "offset": 10, "sort_by": "name", "sort_order": "asc", "include_count": true}`),
		Response: &response,
	})
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.Code)
	assert.Equal(t, float64(1), response["total_count"])
	data := response["data"].([]interface{})
	require.Len(t, data, 1)
	assert.Equal(t, "Anvil", data[0].(map[string]interface{})["name"])
	ds.AssertExpectations(t)
}

func TestSearchResource_RestrictedAway(t *testing.T) {
	router, ds := setupRouter(t, defaultConfig())

	var response map[string]interface{}
	resp, err := SetUpTestRequest(TestRequest{
		Router:   router,
		Method:   http.MethodPost,
		Route:    "/resources/orders/search",
		Payload:  strings.NewReader(`{"filter": {"owners": {"only": [1, 2]}}}`),
		Response: &response,
	})
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.Code)
	assert.Empty(t, response["data"])
	ds.AssertNotCalled(t, "Find", mock.Anything, mock.Anything)
}

func TestSearchResource_InvalidBody(t *testing.T) {
	router, _ := setupRouter(t, defaultConfig())

	var response map[string]interface{}
	resp, err := SetUpTestRequest(TestRequest{
		Router:   router,
		Method:   http.MethodPost,
		Route:    "/resources/widgets/search",
		Payload:  strings.NewReader(`{"limit": "ten"}`),
		Response: &response,
	})
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.Code)
}

func TestListRecords(t *testing.T) {
	router, ds := setupRouter(t, defaultConfig())

	ds.On("Find", mock.Anything, mock.MatchedBy(func(q database.Query) bool {
		return q.Clause == "(created_at IS NULL)" && q.Limit == 20 && q.Offset == 0 &&
			q.Options.SortOrder == model.SortDesc
	})).Return(&model.Page{Data: []model.Record{}, Limit: 20}, nil).Once()

	query := url.Values{}
	query.Set("filter", `{"created": {"null": true}}`)

	var response map[string]interface{}
	resp, err := SetUpTestRequest(TestRequest{
		Router:   router,
		Method:   http.MethodGet,
		Route:    "/resources/widgets/records?" + query.Encode(),
		Response: &response,
	})
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.Code)
	ds.AssertExpectations(t)

	t.Run("invalid limit", func(t *testing.T) {
		var response map[string]interface{}
		resp, err := SetUpTestRequest(TestRequest{
			Router:   router,
			Method:   http.MethodGet,
			Route:    "/resources/widgets/records?limit=ten",
			Response: &response,
		})
		require.NoError(t, err)
		assert.Equal(t, http.StatusBadRequest, resp.Code)
	})

	t.Run("malformed filter", func(t *testing.T) {
		var response map[string]interface{}
		resp, err := SetUpTestRequest(TestRequest{
			Router:   router,
			Method:   http.MethodGet,
			Route:    "/resources/widgets/records?filter=" + url.QueryEscape("{not json"),
			Response: &response,
		})
		require.NoError(t, err)
		assert.Equal(t, http.StatusBadRequest, resp.Code)
	})
}

func TestSecureRoutes(t *testing.T) {
	conf := defaultConfig()
	conf.Server = config.ServerConfig{Secure: true, SecretKey: "s3cret"}
	router, _ := setupRouter(t, conf)

	var response interface{}
	resp, err := SetUpTestRequest(TestRequest{Router: router, Method: http.MethodGet, Route: "/resources", Response: &response})
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, resp.Code)

	resp, err = SetUpTestRequest(TestRequest{
		Router:   router,
		Method:   http.MethodGet,
		Route:    "/resources",
		Header:   map[string]string{middleware.KeyHeader: "s3cret"},
		Response: &response,
	})
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.Code)
}
