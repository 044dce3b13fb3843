// Copyright 2026 Pelagic Labs
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//	http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pelagic-labs/driftchat/internal/version"
)

var (
	cfgFile string
	config  *Config
)

// rootCmd represents the base command. Running it with no subcommand
// starts the server.
var rootCmd = &cobra.Command{
	Use:     "driftchatd",
	Short:   "DriftChat - natural-language chat over the Argo float archive",
	Long:    `DriftChat serves a conversational API over Argo oceanographic float data: questions route to retrieval, data-query, or visualization agents backed by the ERDDAP archives.`,
	Version: version.Get(),
	RunE:    runServe,
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ./driftchat.yaml or $HOME/.driftchat/driftchat.yaml)")

	// Server flags
	rootCmd.PersistentFlags().String("host", "0.0.0.0", "HTTP server host")
	rootCmd.PersistentFlags().Int("port", 8000, "HTTP server port")

	// Logging flags
	rootCmd.PersistentFlags().String("log-level", "info", "Log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().String("log-format", "json", "Log format (json, console)")

	// Bind flags to viper
	_ = viper.BindPFlag("server.host", rootCmd.PersistentFlags().Lookup("host"))
	_ = viper.BindPFlag("server.port", rootCmd.PersistentFlags().Lookup("port"))
	_ = viper.BindPFlag("log.level", rootCmd.PersistentFlags().Lookup("log-level"))
	_ = viper.BindPFlag("log.format", rootCmd.PersistentFlags().Lookup("log-format"))
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	var err error
	config, err = LoadConfig(cfgFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}
}
