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
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/viper"

	"github.com/valpere/doctran/internal/assembler"
	"github.com/valpere/doctran/internal/logging"
	"github.com/valpere/doctran/internal/orchestrator"
	"github.com/valpere/doctran/internal/store"
	"github.com/valpere/doctran/internal/translator"
)

func backendNames() []string {
	return translator.Backends
}

func newLogger() (*slog.Logger, error) {
	return logging.New(viper.GetString("log.level"), viper.GetString("log.format"), os.Stderr)
}

func openStore() (*store.Store, error) {
	dbPath := viper.GetString("db")
	if dbPath == "" {
		return nil, fmt.Errorf("database path is required")
	}
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	var opts []store.Option
	if base := viper.GetString("base_url"); base != "" {
		opts = append(opts, store.WithBaseURL(base))
	}
	db, err := store.New(dbPath, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	return db, nil
}

func completionConfig() translator.ServiceConfig {
	return translator.ServiceConfig{
		Backend:     viper.GetString("completion.backend"),
		Credentials: viper.GetString("completion.credentials"),
		APIKey:      viper.GetString("completion.api_key"),
		Model:       viper.GetString("completion.model"),
		BaseURL:     viper.GetString("completion.base_url"),
		Timeout:     viper.GetDuration("completion.timeout"),
	}
}

// buildCompleter creates the configured backend behind a circuit breaker.
// The returned closer releases backend resources.
func buildCompleter(ctx context.Context, logger *slog.Logger) (translator.Completer, io.Closer, error) {
	completer, err := translator.NewCompleter(ctx, completionConfig())
	if err != nil {
		return nil, nil, err
	}

	var closer io.Closer = nopCloser{}
	if c, ok := completer.(io.Closer); ok {
		closer = c
	}

	breaker := translator.NewBreaker(completer, translator.BreakerConfig{
		MaxFailures: viper.GetUint32("breaker.max_failures"),
		Timeout:     viper.GetDuration("breaker.timeout"),
	}, logger)
	return breaker, closer, nil
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// pipeline is the fully wired translation stack shared by translate,
// serve and invoke.
type pipeline struct {
	logger    *slog.Logger
	store     *store.Store
	client    *translator.Client
	assembler *assembler.Assembler
	closer    io.Closer
}

func (p *pipeline) Close() {
	p.closer.Close()
	p.store.Close()
}

func buildPipeline(ctx context.Context) (*pipeline, error) {
	logger, err := newLogger()
	if err != nil {
		return nil, err
	}

	db, err := openStore()
	if err != nil {
		return nil, err
	}

	completer, closer, err := buildCompleter(ctx, logger)
	if err != nil {
		db.Close()
		return nil, err
	}

	clientOpts := []translator.Option{
		translator.WithLogger(logger),
		translator.WithCallTimeout(viper.GetDuration("completion.timeout")),
	}
	if viper.GetBool("memory.enabled") {
		clientOpts = append(clientOpts, translator.WithMemory(db))
	}
	client := translator.NewClient(completer, db, clientOpts...)

	blocks := orchestrator.New(client, orchestrator.Config{
		Workers: viper.GetInt("workers"),
	}, orchestrator.WithLogger(logger))

	asmOpts := []assembler.Option{
		assembler.WithRecorder(db, client.Backend()),
		assembler.WithLogger(logger),
	}
	if entity, project := viper.GetString("entity"), viper.GetString("project"); entity != "" || project != "" {
		asmOpts = append(asmOpts, assembler.WithDestination(entity, project))
	}

	return &pipeline{
		logger:    logger,
		store:     db,
		client:    client,
		assembler: assembler.New(db, client, blocks, asmOpts...),
		closer:    closer,
	}, nil
}
