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

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/valpere/doctran/internal/assembler"
)

var translateCmd = &cobra.Command{
	Use:   "translate <document-url>",
	Short: "Translate a stored document into another language",
	Long: `Translate a stored document block by block and store the result
as a new document. The new document's URL is printed on success.

Target languages are given as short codes, for example:
  jp  Japanese
  ko  Korean
  en  English

Example:
  doctran translate https://docs.doctran.local/acme/vision/reports/Intro--<id> --lang ko`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		p, err := buildPipeline(ctx)
		if err != nil {
			return err
		}
		defer p.Close()

		handle, err := p.assembler.Transform(ctx, args[0], viper.GetString("language"))
		fmt.Fprintln(cmd.OutOrStdout(), assembler.Describe(handle, err))
		if err != nil {
			return fmt.Errorf("translation failed at %s stage", assembler.StageOf(err))
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(translateCmd)

	f := translateCmd.Flags()
	f.StringP("lang", "l", "jp", "Target language code")
	f.String("entity", "", "Entity of the translated document (default: source entity)")
	f.String("project", "", "Project of the translated document (default: source project)")
	f.IntP("workers", "w", 8, "Maximum concurrent block translations")
	f.Bool("no-memory", false, "Bypass the translation memory")

	viper.BindPFlag("language", f.Lookup("lang"))
	viper.BindPFlag("entity", f.Lookup("entity"))
	viper.BindPFlag("project", f.Lookup("project"))
	viper.BindPFlag("workers", f.Lookup("workers"))
	translateCmd.PreRun = func(cmd *cobra.Command, args []string) {
		if noMemory, _ := cmd.Flags().GetBool("no-memory"); noMemory {
			viper.Set("memory.enabled", false)
		}
	}
}
