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
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/valpere/doctran/internal/docfile"
	"github.com/valpere/doctran/internal/document"
	"github.com/valpere/doctran/internal/store"
)

var (
	docEntity  string
	docProject string
	docOutput  string
)

var docCmd = &cobra.Command{
	Use:   "doc",
	Short: "Manage stored documents",
	Long:  `Import documents from YAML files, export them back, and list what is stored.`,
}

var docImportCmd = &cobra.Command{
	Use:   "import <file.yaml>",
	Short: "Import a YAML document into the store",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		doc, err := docfile.Read(args[0])
		if err != nil {
			return err
		}
		if docEntity != "" {
			doc.Entity = docEntity
		}
		if docProject != "" {
			doc.Project = docProject
		}

		db, err := openStore()
		if err != nil {
			return err
		}
		defer db.Close()

		handle, err := db.Persist(cmd.Context(), doc)
		if err != nil {
			return fmt.Errorf("failed to store document: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Imported %q (%d blocks)\nURL: %s\n", handle.Title, len(doc.Blocks), handle.URL)
		return nil
	},
}

var docExportCmd = &cobra.Command{
	Use:   "export <url|id>",
	Short: "Export a stored document as YAML",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openStore()
		if err != nil {
			return err
		}
		defer db.Close()

		var doc *document.Document
		if _, perr := store.ParseURL(args[0]); perr == nil {
			doc, err = db.Fetch(cmd.Context(), args[0])
		} else {
			doc, err = db.Get(cmd.Context(), args[0])
		}
		if err != nil {
			return fmt.Errorf("failed to load document: %w", err)
		}

		if docOutput == "" || docOutput == "-" {
			data, err := docfile.Marshal(doc)
			if err != nil {
				return err
			}
			_, err = cmd.OutOrStdout().Write(data)
			return err
		}
		if err := docfile.Write(docOutput, doc); err != nil {
			return fmt.Errorf("failed to write output file: %w", err)
		}
		fmt.Fprintf(os.Stderr, "Exported %s to %s\n", doc.ID, docOutput)
		return nil
	},
}

var docListCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored documents",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openStore()
		if err != nil {
			return err
		}
		defer db.Close()

		docs, err := db.ListDocuments(cmd.Context())
		if err != nil {
			return fmt.Errorf("failed to list documents: %w", err)
		}
		if len(docs) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "No documents stored.")
			return nil
		}

		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tENTITY\tPROJECT\tUPDATED\tTITLE")
		for _, d := range docs {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
				d.ID, d.Entity, d.Project, d.UpdatedAt.Format("2006-01-02 15:04"), d.Title)
		}
		return w.Flush()
	},
}

func init() {
	rootCmd.AddCommand(docCmd)

	docImportCmd.Flags().StringVar(&docEntity, "entity", "", "Override the document entity")
	docImportCmd.Flags().StringVar(&docProject, "project", "", "Override the document project")
	docExportCmd.Flags().StringVarP(&docOutput, "output", "o", "", "Output file (default stdout)")

	docCmd.AddCommand(docImportCmd)
	docCmd.AddCommand(docExportCmd)
	docCmd.AddCommand(docListCmd)
}
