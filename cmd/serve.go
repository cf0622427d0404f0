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
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/valpere/doctran/internal/agent"
	"github.com/valpere/doctran/internal/logging"
)

const shutdownTimeout = 30 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve agent function calls over HTTP",
	Long: `Start an HTTP server that accepts agent request envelopes on
POST /invoke and answers with response envelopes.

Functions:
  translate        params original_report_url, language
  prompt_manager   params action (show_prompt, update_prompt), prompt`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		p, err := buildPipeline(ctx)
		if err != nil {
			return err
		}
		defer p.Close()

		handler := agent.NewHandler(p.assembler, p.store,
			agent.WithDefaultLanguage(viper.GetString("language")),
			agent.WithLogger(p.logger),
		)

		mux := http.NewServeMux()
		mux.Handle("/invoke", handler)
		mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
			fmt.Fprintln(w, "ok")
		})

		addr := viper.GetString("listen")
		srv := &http.Server{
			Addr:              addr,
			Handler:           logging.Middleware(p.logger, mux),
			ReadHeaderTimeout: 10 * time.Second,
		}

		errCh := make(chan error, 1)
		go func() {
			p.logger.Info("agent server listening", "addr", addr, "backend", p.client.Backend())
			errCh <- srv.ListenAndServe()
		}()

		select {
		case err := <-errCh:
			if errors.Is(err, http.ErrServerClosed) {
				return nil
			}
			return err
		case <-ctx.Done():
		}

		p.logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().String("listen", ":8080", "Listen address")
	viper.BindPFlag("listen", serveCmd.Flags().Lookup("listen"))
}
