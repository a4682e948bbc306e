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
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/flcore/flquery"
	"github.com/flcore/flquery/config"
	"github.com/flcore/flquery/database"
	"github.com/flcore/flquery/internal/notification"
	"github.com/flcore/flquery/model"
)

// FlQuery represents the CLI application, encapsulating the root Cobra command.
type FlQuery struct {
	cmd *cobra.Command // Root command for the CLI application
}

// flqueryInstance holds the runtime configuration and resource catalog shared
// by the subcommands.
type flqueryInstance struct {
	cnf     *config.Configuration // Configuration object holding runtime settings
	catalog *model.Catalog        // Resource catalog, loaded on first use
}

// recoverPanic handles any panics during program execution and reports the error.
func recoverPanic() {
	if rec := recover(); rec != nil {
		notification.Notify(fmt.Errorf("panic: %v", rec)) // Log and report the recovered panic
		os.Exit(1)                                        // Exit the program with an error status
	}
}

// preRun loads the configuration before running any command.
func preRun(app *flqueryInstance, configFile *string) func(cmd *cobra.Command, args []string) error {
	return func(cmd *cobra.Command, args []string) error {
		// Initialize configuration from the specified configuration file.
		if err := config.InitConfig(*configFile); err != nil {
			return fmt.Errorf("error loading config: %v", err)
		}

		// Fetch the configuration settings.
		cnf, err := config.Fetch()
		if err != nil {
			return err
		}

		app.cnf = cnf
		return nil
	}
}

// loadCatalog reads the resource catalog named by the configuration.
func (app *flqueryInstance) loadCatalog() (*model.Catalog, error) {
	if app.catalog != nil {
		return app.catalog, nil
	}
	catalog, err := model.LoadCatalog(app.cnf.Filter.ResourcesFile)
	if err != nil {
		return nil, fmt.Errorf("error loading resources from %s: %v", app.cnf.Filter.ResourcesFile, err)
	}
	app.catalog = catalog
	return catalog, nil
}

// setupFlQuery connects to the data source and builds the query service.
func setupFlQuery(app *flqueryInstance) (*flquery.FlQuery, error) {
	catalog, err := app.loadCatalog()
	if err != nil {
		return nil, err
	}

	// Initialize a new data source from the configuration.
	db, err := database.NewDataSource(app.cnf)
	if err != nil {
		return nil, fmt.Errorf("error getting datasource: %v", err)
	}

	newFlQuery, err := flquery.NewFlQuery(db, catalog, app.cnf)
	if err != nil {
		return nil, fmt.Errorf("error creating flquery: %v", err)
	}
	return newFlQuery, nil
}

// NewCLI creates the command-line interface (CLI) for the FlQuery application.
func NewCLI() *FlQuery {
	var configFile string     // Configuration file path (defaults to ./flquery.json)
	app := &flqueryInstance{} // Shared state passed into commands

	// Define the root command with usage and description.
	var rootCmd = &cobra.Command{
		Use:           "flquery",
		Short:         "Filter specifications to SQL",
		SilenceUsage:  true,
		SilenceErrors: true,
		Run:           func(cmd *cobra.Command, args []string) {},
	}

	// Add a persistent flag to the root command for specifying the config file.
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "./flquery.json", "Configuration file for flquery")

	// Set the persistent pre-run hook to initialize the app and config before executing any command.
	rootCmd.PersistentPreRunE = preRun(app, &configFile)

	rootCmd.AddCommand(serverCommands(app))   // Command for starting the server
	rootCmd.AddCommand(generateCommands(app)) // Command for offline clause generation
	rootCmd.AddCommand(configCommands(app))   // Command for printing the configuration

	return &FlQuery{cmd: rootCmd}
}

// executeCLI runs the root command, handling any errors that occur during execution.
func (w FlQuery) executeCLI() {
	if err := w.cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err) // Print any errors that occur
		os.Exit(1)                   // Exit the program with an error status
	}
}

// main is the main function and the entry point for the application.
func main() {
	defer recoverPanic() // Ensure that any panic is handled gracefully

	cli := NewCLI()  // Create the CLI application
	cli.executeCLI() // Execute the CLI commands
}
