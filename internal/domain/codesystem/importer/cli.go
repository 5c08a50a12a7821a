package importer

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/ehr/ehr/internal/config"
	"github.com/ehr/ehr/internal/domain/codesystem"
	"github.com/ehr/ehr/internal/platform/db"
)

// importFile is the shape read from --file: the same named parameters the
// $import operation accepts, flattened for a file (SPEC_FULL.md's CLI
// Surface supplement to spec.md §6).
type importFile struct {
	Concept  []ImportConcept    `json:"concept,omitempty"`
	Property []ImportedProperty `json:"property,omitempty"`
}

// Cmd builds the "ehr-server import" subcommand, grounded on migrateCmd's
// subcommand-with-flags shape in cmd/ehr-server/main.go. Unlike the HTTP
// seam, the CLI path applies no batch-size limit — there is no request
// lifetime to protect here, only an operator-invoked offline load.
func Cmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "import",
		Short: "Bulk-load concepts and properties into an existing CodeSystem",
		RunE: func(cmd *cobra.Command, args []string) error {
			systemURL, _ := cmd.Flags().GetString("system")
			file, _ := cmd.Flags().GetString("file")
			if systemURL == "" {
				return fmt.Errorf("--system is required")
			}
			if file == "" {
				return fmt.Errorf("--file is required")
			}

			raw, err := os.ReadFile(file)
			if err != nil {
				return fmt.Errorf("read %s: %w", file, err)
			}
			var batch importFile
			if err := json.Unmarshal(raw, &batch); err != nil {
				return fmt.Errorf("parse %s: %w", file, err)
			}

			cfg, err := config.Load()
			if err != nil {
				return err
			}

			ctx := context.Background()
			pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
			if err != nil {
				return err
			}
			defer pool.Close()

			logger := zerolog.New(os.Stdout).With().Timestamp().Str("cmd", "import").Logger()
			svc := codesystem.NewService(codesystem.NewCodeSystemRepoPG(pool))
			orch := NewOrchestrator(pool, NewCodeSystemLookup(svc), logger)

			outcome, ierr := orch.Import(ctx, ImportParams{
				SystemURL:   systemURL,
				Concepts:    batch.Concept,
				Properties:  batch.Property,
				CallerRoles: []string{"admin"},
			})
			if ierr != nil {
				fmt.Fprintln(os.Stderr, ierr.Diagnostics)
				return fmt.Errorf("import failed: %s", ierr.Kind)
			}

			fmt.Printf("imported %d concept(s), %d property value(s) into %s\n",
				outcome.ConceptsWritten, outcome.PropertiesWritten, systemURL)
			return nil
		},
	}
	cmd.Flags().String("system", "", "canonical URL of the target CodeSystem")
	cmd.Flags().String("file", "", `path to a JSON file shaped {"concept": [...], "property": [...]}`)
	return cmd
}
