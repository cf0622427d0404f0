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
	"text/tabwriter"

	"github.com/spf13/cobra"
)

var promptFile string

var promptCmd = &cobra.Command{
	Use:   "prompt",
	Short: "Show and publish the translation prompt",
	Long: `The translation prompt is the system prompt sent with every block.
It must contain exactly one {prompt_language} placeholder, which is
replaced with the target language name.`,
}

var promptShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the current prompt template",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openStore()
		if err != nil {
			return err
		}
		defer db.Close()

		t, err := db.CurrentTemplate(cmd.Context())
		if err != nil {
			return fmt.Errorf("failed to load prompt: %w", err)
		}
		fmt.Fprintf(os.Stderr, "%s:v%d (%s)\n", t.Name, t.Version, t.Digest)
		fmt.Fprintln(cmd.OutOrStdout(), t.Content)
		return nil
	},
}

var promptUpdateCmd = &cobra.Command{
	Use:   "update [prompt]",
	Short: "Publish a new prompt version",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var content string
		switch {
		case promptFile != "":
			data, err := os.ReadFile(promptFile)
			if err != nil {
				return fmt.Errorf("failed to read prompt file: %w", err)
			}
			content = string(data)
		case len(args) == 1:
			content = args[0]
		}
		if strings.TrimSpace(content) == "" {
			return fmt.Errorf("no new prompt specified")
		}

		db, err := openStore()
		if err != nil {
			return err
		}
		defer db.Close()

		t, err := db.PublishTemplate(cmd.Context(), content)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Prompt has been updated.\nNew prompt version: %s:v%d (%s)\n", t.Name, t.Version, t.Digest)
		return nil
	},
}

var promptHistoryCmd = &cobra.Command{
	Use:   "history",
	Short: "List published prompt versions",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openStore()
		if err != nil {
			return err
		}
		defer db.Close()

		templates, err := db.ListTemplates(cmd.Context())
		if err != nil {
			return fmt.Errorf("failed to list prompts: %w", err)
		}

		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "VERSION\tDIGEST\tCREATED")
		for _, t := range templates {
			fmt.Fprintf(w, "%d\t%s\t%s\n", t.Version, t.Digest[:min(12, len(t.Digest))], t.CreatedAt.Format("2006-01-02 15:04"))
		}
		return w.Flush()
	},
}

func init() {
	rootCmd.AddCommand(promptCmd)

	promptUpdateCmd.Flags().StringVarP(&promptFile, "file", "f", "", "Read the new prompt from a file")

	promptCmd.AddCommand(promptShowCmd)
	promptCmd.AddCommand(promptUpdateCmd)
	promptCmd.AddCommand(promptHistoryCmd)
}
