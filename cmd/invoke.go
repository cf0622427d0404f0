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
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/valpere/doctran/internal/agent"
)

var invokeInput string

var invokeCmd = &cobra.Command{
	Use:   "invoke",
	Short: "Handle one agent request envelope",
	Long: `Read an agent request envelope as JSON from stdin (or --input) and
write the response envelope to stdout.

Example:
  echo '{"function":"translate","parameters":[{"name":"original_report_url","value":"..."}]}' | doctran invoke`,
	RunE: func(cmd *cobra.Command, args []string) error {
		var in io.Reader = cmd.InOrStdin()
		if invokeInput != "" && invokeInput != "-" {
			fh, err := os.Open(invokeInput)
			if err != nil {
				return fmt.Errorf("failed to read input file: %w", err)
			}
			defer fh.Close()
			in = fh
		}

		var req agent.Request
		if err := json.NewDecoder(in).Decode(&req); err != nil {
			return fmt.Errorf("invalid request envelope: %w", err)
		}

		p, err := buildPipeline(cmd.Context())
		if err != nil {
			return err
		}
		defer p.Close()

		handler := agent.NewHandler(p.assembler, p.store,
			agent.WithDefaultLanguage(viper.GetString("language")),
			agent.WithLogger(p.logger),
		)
		resp := handler.Handle(cmd.Context(), req)

		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(resp)
	},
}

func init() {
	rootCmd.AddCommand(invokeCmd)

	invokeCmd.Flags().StringVarP(&invokeInput, "input", "i", "", "Request envelope file (default stdin)")
}
