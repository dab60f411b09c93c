// Package schema owns the PostgreSQL DDL for both namespaces: app_schema,
// the operational tables feeding the warehouse, and bi_schema, the star
// schema plus its two reporting views.
package schema

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/altiplano-data/salesmirror/internal/logging"
)

// Version is recorded in salesmirror_metadata at init time.
const Version = "1"

// Schema is one named DDL unit.
type Schema struct {
	Name        string
	Description string
	CreateSQL   string
	DropSQL     string
}

// All returns every schema in creation order. app_schema comes first; the
// star schema loads from it, never the other way around.
func All() []Schema {
	return []Schema{
		{
			Name:        "app_schema",
			Description: "Operational tables (usuarios, productos, pedidos)",
			CreateSQL:   createOperationalSQL,
			DropSQL:     dropOperationalSQL,
		},
		{
			Name:        "bi_schema",
			Description: "Star schema and reporting views",
			CreateSQL:   createBISQL,
			DropSQL:     dropBISQL,
		},
	}
}

// CreateAll creates every schema in order.
func CreateAll(ctx context.Context, pool *pgxpool.Pool) error {
	for _, s := range All() {
		logging.Info().Str("schema", s.Name).Msg("Creating schema")
		if _, err := pool.Exec(ctx, s.CreateSQL); err != nil {
			return fmt.Errorf("failed to create %s: %w", s.Name, err)
		}
	}
	return nil
}

// DropAll drops every schema in reverse creation order.
func DropAll(ctx context.Context, pool *pgxpool.Pool) error {
	all := All()
	for i := len(all) - 1; i >= 0; i-- {
		s := all[i]
		logging.Info().Str("schema", s.Name).Msg("Dropping schema")
		if _, err := pool.Exec(ctx, s.DropSQL); err != nil {
			return fmt.Errorf("failed to drop %s: %w", s.Name, err)
		}
	}
	return nil
}

// SeedConfiguraciones inserts the default configuration rows. Existing keys
// are left alone.
func SeedConfiguraciones(ctx context.Context, pool *pgxpool.Pool) error {
	_, err := pool.Exec(ctx, seedConfiguracionesSQL)
	if err != nil {
		return fmt.Errorf("failed to seed configuraciones: %w", err)
	}
	return nil
}
