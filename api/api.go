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
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/flcore/flquery"
	"github.com/flcore/flquery/api/middleware"
	"github.com/flcore/flquery/config"
)

type Api struct {
	flquery *flquery.FlQuery
	router  *gin.Engine
}

func (a Api) Router() *gin.Engine {
	router := a.router
	router.GET("/health", a.Health)

	router.GET("/resources", a.GetResources)
	router.GET("/resources/:name", a.GetResource)
	router.GET("/resources/:name/records", a.ListRecords)
	router.POST("/resources/:name/clause", a.GenerateClause)
	router.POST("/resources/:name/search", a.SearchResource)
	return a.router
}

func NewAPI(l *flquery.FlQuery) *Api {
	gin.SetMode(gin.ReleaseMode)
	conf, err := config.Fetch()
	if err != nil {
		return nil
	}
	serviceName := conf.ProjectName
	if serviceName == "" {
		serviceName = "flquery"
	}

	r := gin.Default()
	r.Use(otelgin.Middleware(serviceName))
	r.Use(middleware.RequestIDMiddleware())
	r.Use(middleware.RateLimitMiddleware(conf))
	if conf.Server.Secure {
		r.Use(middleware.SecretKeyAuthMiddleware())
	}

	r.GET("/", func(c *gin.Context) {
		c.JSON(http.StatusOK, "server running...")
	})

	return &Api{flquery: l, router: r}
}

func (a Api) Health(c *gin.Context) {
	if err := a.flquery.Ping(c.Request.Context()); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "DOWN", "error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "UP"})
}
