/*
Copyright © 2025 Valentyn Solomko <valentyn.solomko@gmail.com>

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
package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var version = "0.3.0"

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "doctran",
	Short: "Structured document translator",
	Long: `A CLI application that translates structured documents block by block
with an LLM completion backend and stores the result as a new document.

Supported backends: Anthropic, OpenAI, Gemini, Google Translate, echo

Use "doctran translate --help" for translation options.`,
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&cfgFile, "config", "", "config file (default is $HOME/.doctran.yaml)")
	pf.String("db", "./data/doctran.db", "Database path")
	pf.String("base-url", "", "Base URL of stored documents")
	pf.String("log-level", "info", "Log level (debug, info, warn, error)")
	pf.String("log-format", "text", "Log format (text, json)")
	pf.String("backend", "anthropic", "Completion backend ("+strings.Join(backendNames(), ", ")+")")
	pf.String("model", "", "Model name for the completion backend")
	pf.String("api-key", "", "API key for the completion backend")
	pf.String("backend-url", "", "Override the completion backend endpoint")
	pf.String("credentials", "", "Google Cloud credentials file")
	pf.Duration("timeout", 0, "Per-call completion timeout (0 disables)")

	viper.BindPFlag("db", pf.Lookup("db"))
	viper.BindPFlag("base_url", pf.Lookup("base-url"))
	viper.BindPFlag("log.level", pf.Lookup("log-level"))
	viper.BindPFlag("log.format", pf.Lookup("log-format"))
	viper.BindPFlag("completion.backend", pf.Lookup("backend"))
	viper.BindPFlag("completion.model", pf.Lookup("model"))
	viper.BindPFlag("completion.api_key", pf.Lookup("api-key"))
	viper.BindPFlag("completion.base_url", pf.Lookup("backend-url"))
	viper.BindPFlag("completion.credentials", pf.Lookup("credentials"))
	viper.BindPFlag("completion.timeout", pf.Lookup("timeout"))

	viper.SetDefault("workers", 8)
	viper.SetDefault("breaker.max_failures", 5)
	viper.SetDefault("breaker.timeout", "30s")
	viper.SetDefault("memory.enabled", true)
	viper.SetDefault("language", "jp")
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		if home, err := os.UserHomeDir(); err == nil {
			viper.AddConfigPath(home)
		}
		viper.AddConfigPath(".")
		viper.SetConfigType("yaml")
		viper.SetConfigName(".doctran")
	}

	// DOCTRAN_COMPLETION_API_KEY and friends
	viper.SetEnvPrefix("DOCTRAN")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}
