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

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/flcore/flquery"
	"github.com/flcore/flquery/internal/filter"
)

// generateOutput is printed by the generate command.
type generateOutput struct {
	Clause     string                 `json:"clause"`
	Parameters map[string]interface{} `json:"parameters"`
	SQL        string                 `json:"sql,omitempty"`
	Args       []interface{}          `json:"args,omitempty"`
}

var dialects = map[string]filter.Dialect{
	"postgres": filter.DialectPostgres,
	"question": filter.DialectQuestion,
	"mysql":    filter.DialectQuestion,
	"sqlite":   filter.DialectQuestion,
}

/*
generateCommands returns the Cobra command that compiles a filter specification
for a resource without touching the database. The specification is read from
a JSON file, or from standard input when the file is "-".
*/
func generateCommands(app *flqueryInstance) *cobra.Command {
	var resource, specFile, dialect string

	cmd := &cobra.Command{
		Use:   "generate",
		Short: "print the WHERE clause and parameters of a filter specification",
		RunE: func(cmd *cobra.Command, args []string) error {
			catalog, err := app.loadCatalog()
			if err != nil {
				return err
			}

			data, err := readSpec(cmd.InOrStdin(), specFile)
			if err != nil {
				return err
			}
			spec, err := filter.ParseSpec(data)
			if err != nil {
				return err
			}

			// Clause never reaches the datasource.
			l, err := flquery.NewFlQuery(nil, catalog, app.cnf)
			if err != nil {
				return err
			}
			result, err := l.Clause(context.Background(), resource, spec)
			if err != nil {
				return err
			}

			out := generateOutput{Clause: result.Clause, Parameters: result.Parameters}
			if dialect != "" {
				d, ok := dialects[strings.ToLower(dialect)]
				if !ok {
					return fmt.Errorf("unknown dialect %q", dialect)
				}
				bound := filter.Bind(result.Clause, result.Parameters, 1, d)
				out.SQL, out.Args = bound.Clause, bound.Args
			}

			encoded, err := json.MarshalIndent(out, "", "    ")
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(encoded))
			return nil
		},
	}

	cmd.Flags().StringVar(&resource, "resource", "", "resource the specification filters")
	cmd.Flags().StringVar(&specFile, "spec", "-", "JSON file holding the filter specification")
	cmd.Flags().StringVar(&dialect, "dialect", "", "also print positional SQL for postgres, mysql or sqlite")
	_ = cmd.MarkFlagRequired("resource")

	return cmd
}

func readSpec(stdin io.Reader, file string) ([]byte, error) {
	if file == "" || file == "-" {
		return io.ReadAll(stdin)
	}
	return os.ReadFile(file)
}
