package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/ariyn/dbsp/internal/dbsp/catalogstore"
	"github.com/ariyn/dbsp/internal/dbsp/emit"
	"github.com/ariyn/dbsp/internal/dbsp/ir"
	"github.com/ariyn/dbsp/internal/dbsp/sql"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to dbspc compile config")
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, *configPath); err != nil {
		log.Fatalf("dbspc: %v", err)
	}
}

func run(ctx context.Context, configPath string) error {
	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}

	scriptBytes, err := os.ReadFile(cfg.Compile.Script)
	if err != nil {
		return fmt.Errorf("read script %s: %w", cfg.Compile.Script, err)
	}
	statements := splitStatements(string(scriptBytes))
	if len(statements) == 0 {
		return fmt.Errorf("script %s contains no statements", cfg.Compile.Script)
	}

	var store *catalogstore.Store
	if cfg.Compile.Catalogstore.Enabled {
		store, err = catalogstore.Open(cfg.Compile.Catalogstore.Path)
		if err != nil {
			return err
		}
		defer store.Close()
	}

	catalog := sqlconv.NewCatalog()
	for _, stmt := range statements {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := catalog.Compile(stmt); err != nil {
			return fmt.Errorf("compile statement %q: %w", stmt, err)
		}
		if store != nil {
			if err := store.RecordStatement(ctx, cfg.Compile.CircuitName, stmt); err != nil {
				return err
			}
		}
	}

	gen := ir.NewIDGen()
	circuit, err := catalog.BuildCircuit(gen, cfg.Compile.CircuitName)
	if err != nil {
		return fmt.Errorf("build circuit: %w", err)
	}

	source, err := emit.Circuit(circuit)
	if err != nil {
		return fmt.Errorf("emit circuit: %w", err)
	}

	if store != nil {
		if err := store.SaveEmission(ctx, cfg.Compile.CircuitName, source); err != nil {
			return err
		}
	}

	if cfg.Compile.Output == "" {
		fmt.Println(source)
	} else if err := os.WriteFile(cfg.Compile.Output, []byte(source), 0644); err != nil {
		return fmt.Errorf("write output %s: %w", cfg.Compile.Output, err)
	}

	if cfg.Compile.SchemaDump != "" {
		if err := dumpSchema(catalog, cfg.Compile.SchemaDump); err != nil {
			return fmt.Errorf("schema dump: %w", err)
		}
	}

	return nil
}
