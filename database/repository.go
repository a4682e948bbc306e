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

	"github.com/flcore/flquery/model"
)

// IDataSource defines the interface for data source operations.
type IDataSource interface {
	finder
	Ping(ctx context.Context) error // Checks that the database is reachable
}

// finder defines methods for reading filtered resources.
type finder interface {
	Find(ctx context.Context, q Query) (*model.Page, error) // Retrieves one page of a resource matching a compiled filter
}
