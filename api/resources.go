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

	"github.com/gin-gonic/gin"
)

func (a Api) GetResources(c *gin.Context) {
	c.JSON(http.StatusOK, a.flquery.Resources())
}

func (a Api) GetResource(c *gin.Context) {
	name, ok := resourceName(c)
	if !ok {
		return
	}

	resource, err := a.flquery.Resource(name)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, resource)
}

// GenerateClause compiles the posted filter without running it.
func (a Api) GenerateClause(c *gin.Context) {
	name, ok := resourceName(c)
	if !ok {
		return
	}

	var req ClauseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"errors": err.Error()})
		return
	}

	result, err := a.flquery.Clause(c.Request.Context(), name, specValue(req.Filter))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, ClauseResponse{Clause: result.Clause, Parameters: result.Parameters})
}

func (a Api) SearchResource(c *gin.Context) {
	name, ok := resourceName(c)
	if !ok {
		return
	}

	var req SearchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"errors": err.Error()})
		return
	}

	a.search(c, name, req)
}

// ListRecords is the query parameter form of SearchResource.
func (a Api) ListRecords(c *gin.Context) {
	name, ok := resourceName(c)
	if !ok {
		return
	}

	req, err := ParseSearchFromQuery(c)
	if err != nil {
		respondError(c, err)
		return
	}

	a.search(c, name, req)
}

func (a Api) search(c *gin.Context, name string, req SearchRequest) {
	page, err := a.flquery.Search(c.Request.Context(), name, specValue(req.Filter), req.options(), req.Limit, req.Offset)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, page)
}
