// Package config holds the flag and environment plumbing shared by the
// binaries. Every binary picks its backend the same way: an explicit SQLite
// path wins, then a BigQuery project, and with neither the caller runs
// local-only.
package config

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/aguilartradesfx/financetracker/internal/infra/bigquery"
	"github.com/aguilartradesfx/financetracker/internal/infra/sqlite"
	"github.com/aguilartradesfx/financetracker/internal/ledger"
)

// Config is the shared backend configuration.
type Config struct {
	ProjectID string
	DatasetID string
	DBPath    string
	Bucket    string
}

// RegisterFlags wires the shared flags into fs with env fallbacks.
func (c *Config) RegisterFlags(fs *flag.FlagSet) {
	fs.StringVar(&c.ProjectID, "project", os.Getenv("FINANCE_PROJECT_ID"), "BigQuery project ID (or set FINANCE_PROJECT_ID env)")
	fs.StringVar(&c.DatasetID, "dataset", os.Getenv("FINANCE_DATASET_ID"), "BigQuery dataset ID (default finance)")
	fs.StringVar(&c.DBPath, "db", os.Getenv("FINANCE_DB_PATH"), "SQLite database path for the local backend")
	fs.StringVar(&c.Bucket, "bucket", os.Getenv("GCS_BUCKET"), "GCS bucket for report archives (or set GCS_BUCKET env)")
}

// OpenStore opens the configured ledger backend. A nil store with a nil
// error means nothing is configured and the caller should run local-only.
func (c *Config) OpenStore(ctx context.Context) (ledger.Store, error) {
	if c.DBPath != "" {
		store, err := sqlite.New(c.DBPath)
		if err != nil {
			return nil, fmt.Errorf("OpenStore: opening sqlite at %s: %w", c.DBPath, err)
		}
		return store, nil
	}
	if c.ProjectID != "" {
		repo, err := bigquery.New(ctx, c.ProjectID, c.DatasetID)
		if err != nil {
			return nil, fmt.Errorf("OpenStore: connecting to BigQuery: %w", err)
		}
		return repo, nil
	}
	return nil, nil
}
