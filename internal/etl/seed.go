//-------------------------------------------------------------------------
//
// salesmirror
//
// Copyright (c) 2025 - 2026, Altiplano Data SpA
// This software is released under The MIT License
//
//-------------------------------------------------------------------------

package etl

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/altiplano-data/salesmirror/internal/config"
	"github.com/altiplano-data/salesmirror/internal/datagen"
	"github.com/altiplano-data/salesmirror/internal/logging"
	"github.com/altiplano-data/salesmirror/internal/warehouse"
)

var productTypes = []string{
	"Electronics", "Clothing", "Home & Garden", "Sports",
	"Books", "Toys", "Beauty", "Automotive",
}

// Electronics and Clothing dominate, like the course dataset does.
var productTypeWeights = []int{30, 25, 10, 10, 8, 7, 5, 5}

var orderStates = []string{"pendiente", "enviado", "entregado", "cancelado"}
var orderStateWeights = []int{15, 25, 55, 5}

// Seeder generates a demo dataset: a star-schema snapshot built through
// the warehouse core plus matching operational rows in app_schema.
type Seeder struct {
	pool  *pgxpool.Pool
	cfg   config.SeedConfig
	batch datagen.BatchInsertConfig
	faker *datagen.Faker
}

// NewSeeder builds a seeder. A non-zero cfg.Seed makes the dataset
// reproducible.
func NewSeeder(pool *pgxpool.Pool, cfg config.SeedConfig) *Seeder {
	f := datagen.NewFaker()
	if cfg.Seed != 0 {
		f = datagen.NewFakerWithSeed(cfg.Seed)
	}
	return &Seeder{pool: pool, cfg: cfg, batch: datagen.DefaultBatchConfig(), faker: f}
}

// Run builds the dataset and loads it. The returned warehouse is the
// seeded snapshot, already validated and with totals derived.
func (s *Seeder) Run(ctx context.Context) (*warehouse.Warehouse, error) {
	w, err := s.buildWarehouse()
	if err != nil {
		return nil, err
	}
	if err := NewPGLoader(s.pool).LoadWarehouse(ctx, w); err != nil {
		return nil, err
	}
	if err := s.seedOperational(ctx); err != nil {
		return nil, err
	}
	return w, nil
}

// buildWarehouse assembles the star schema in memory. Every row goes
// through the warehouse write path, so the seed cannot produce data the
// loader would reject.
func (s *Seeder) buildWarehouse() (*warehouse.Warehouse, error) {
	start := time.Now().AddDate(-1, 0, 0)
	if s.cfg.StartDate != "" {
		var err error
		start, err = time.Parse("2006-01-02", s.cfg.StartDate)
		if err != nil {
			return nil, fmt.Errorf("invalid seed start date %q: %w", s.cfg.StartDate, err)
		}
	}

	w := warehouse.New()

	dateIDs := make([]int, 0, s.cfg.Days)
	for i := 0; i < s.cfg.Days; i++ {
		day := start.AddDate(0, 0, i)
		id := day.Year()*10000 + int(day.Month())*100 + day.Day()
		if err := w.InsertDate(warehouse.NewDimDate(id, day)); err != nil {
			return nil, err
		}
		dateIDs = append(dateIDs, id)
	}

	for i := 1; i <= s.cfg.Products; i++ {
		err := w.InsertProduct(warehouse.DimProduct{
			ProductID:   i,
			ProductType: datagen.ChooseWeighted(s.faker, productTypes, productTypeWeights),
		})
		if err != nil {
			return nil, err
		}
	}

	for i := 1; i <= s.cfg.Segments; i++ {
		err := w.InsertSegment(warehouse.DimCustomerSegment{
			SegmentID: i,
			City:      s.faker.City(),
		})
		if err != nil {
			return nil, err
		}
	}

	for i := 1; i <= s.cfg.Facts; i++ {
		err := w.InsertFact(warehouse.FactSales{
			SalesID:      fmt.Sprintf("S%d", i),
			DateID:       datagen.Choose(s.faker, dateIDs),
			ProductID:    s.faker.Int(1, s.cfg.Products),
			SegmentID:    s.faker.Int(1, s.cfg.Segments),
			PricePerUnit: s.faker.Price(5, 500),
			QuantitySold: s.faker.Int(1, 20),
		})
		if err != nil {
			return nil, err
		}
	}

	logging.Info().
		Int("dates", s.cfg.Days).
		Int("products", s.cfg.Products).
		Int("segments", s.cfg.Segments).
		Int("facts", s.cfg.Facts).
		Msg("Built demo dataset")
	return w, nil
}

// seedOperational fills app_schema with rows consistent with the star
// schema. Tables are truncated with RESTART IDENTITY first so generated
// ids line up with the foreign keys the tuples assume.
func (s *Seeder) seedOperational(ctx context.Context) error {
	numUsuarios := s.cfg.Segments * 5
	numPedidos := s.cfg.Facts / 5
	if numPedidos < 1 {
		numPedidos = 1
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin seed transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx, `
        TRUNCATE TABLE app_schema.detalle_pedidos,
                       app_schema.pedidos,
                       app_schema.productos,
                       app_schema.usuarios
        RESTART IDENTITY CASCADE`)
	if err != nil {
		return fmt.Errorf("failed to truncate app_schema: %w", err)
	}

	if err := s.seedUsuarios(ctx, tx, numUsuarios); err != nil {
		return err
	}
	if err := s.seedProductos(ctx, tx); err != nil {
		return err
	}
	if err := s.seedPedidos(ctx, tx, numPedidos, numUsuarios); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit seed: %w", err)
	}

	logging.Info().
		Int("usuarios", numUsuarios).
		Int("pedidos", numPedidos).
		Msg("Seeded app_schema")
	return nil
}

func (s *Seeder) seedUsuarios(ctx context.Context, tx pgx.Tx, count int) error {
	batch := make([]string, 0, s.batch.BatchSize)
	for i := 1; i <= count; i++ {
		// Generated emails collide; the counter form keeps them unique.
		batch = append(batch, fmt.Sprintf("('%s', 'usuario%d@example.com', %t)",
			escapeSingleQuote(datagen.Truncate(s.faker.Name(), 100)), i,
			s.faker.Int(1, 10) > 1))
		if len(batch) >= s.batch.BatchSize {
			if err := executeBatchInsert(ctx, tx, "app_schema.usuarios",
				"(nombre, email, activo)", batch); err != nil {
				return err
			}
			batch = batch[:0]
		}
	}
	return executeBatchInsert(ctx, tx, "app_schema.usuarios", "(nombre, email, activo)", batch)
}

// seedProductos writes the catalog rows behind dim_product. The type of
// productos.id N matches dim_product product_id N only by count, not by
// content; the warehouse snapshot is the source of truth for types.
func (s *Seeder) seedProductos(ctx context.Context, tx pgx.Tx) error {
	batch := make([]string, 0, s.batch.BatchSize)
	for i := 1; i <= s.cfg.Products; i++ {
		batch = append(batch, fmt.Sprintf("('%s', '%s', %.2f, %d)",
			escapeSingleQuote(datagen.Truncate(s.faker.ProductName(), 200)),
			escapeSingleQuote(datagen.ChooseWeighted(s.faker, productTypes, productTypeWeights)),
			s.faker.Price(5, 500),
			s.faker.Int(0, 500)))
		if len(batch) >= s.batch.BatchSize {
			if err := executeBatchInsert(ctx, tx, "app_schema.productos",
				"(nombre, tipo, precio, stock)", batch); err != nil {
				return err
			}
			batch = batch[:0]
		}
	}
	return executeBatchInsert(ctx, tx, "app_schema.productos", "(nombre, tipo, precio, stock)", batch)
}

func (s *Seeder) seedPedidos(ctx context.Context, tx pgx.Tx, count, numUsuarios int) error {
	now := time.Now()
	yearAgo := now.AddDate(-1, 0, 0)

	orders := make([]string, 0, s.batch.BatchSize)
	for i := 1; i <= count; i++ {
		orders = append(orders, fmt.Sprintf("(%d, '%s', '%s', '%s')",
			s.faker.Int(1, numUsuarios),
			datagen.ChooseWeighted(s.faker, orderStates, orderStateWeights),
			escapeSingleQuote(s.faker.City()),
			s.faker.DateRange(yearAgo, now).Format("2006-01-02 15:04:05")))
		if len(orders) >= s.batch.BatchSize {
			if err := executeBatchInsert(ctx, tx, "app_schema.pedidos",
				"(usuario_id, estado, ciudad_envio, fecha_pedido)", orders); err != nil {
				return err
			}
			orders = orders[:0]
		}
	}
	if err := executeBatchInsert(ctx, tx, "app_schema.pedidos",
		"(usuario_id, estado, ciudad_envio, fecha_pedido)", orders); err != nil {
		return err
	}

	// Order lines reference pedido ids 1..count, assigned sequentially by
	// the identity column on the inserts above. subtotal is generated, so
	// it never appears in the column list.
	lines := make([]string, 0, s.batch.BatchSize)
	for pedido := 1; pedido <= count; pedido++ {
		for n := s.faker.Int(1, 3); n > 0; n-- {
			lines = append(lines, fmt.Sprintf("(%d, %d, %d, %.2f)",
				pedido,
				s.faker.Int(1, s.cfg.Products),
				s.faker.Int(1, 5),
				s.faker.Price(5, 500)))
			if len(lines) >= s.batch.BatchSize {
				if err := executeBatchInsert(ctx, tx, "app_schema.detalle_pedidos",
					"(pedido_id, producto_id, cantidad, precio_unitario)", lines); err != nil {
					return err
				}
				lines = lines[:0]
			}
		}
	}
	return executeBatchInsert(ctx, tx, "app_schema.detalle_pedidos",
		"(pedido_id, producto_id, cantidad, precio_unitario)", lines)
}
