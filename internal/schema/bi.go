package schema

// BITables lists the star schema tables in replication order: dimensions
// first, facts last. Deletes run in the reverse order.
var BITables = []string{
	"dim_date",
	"dim_customer_segment",
	"dim_product",
	"fact_sales",
}

// DDL for the star schema. The date dimension key is historically named
// dateid (no underscore) while the fact column referencing it is date_id;
// both spellings are load-bearing for the CSV extracts and the mirror.
const createBISQL = `
CREATE SCHEMA IF NOT EXISTS bi_schema;

-- Date dimension: one row per calendar day
CREATE TABLE IF NOT EXISTS bi_schema.dim_date (
    dateid       INTEGER PRIMARY KEY,
    date         DATE NOT NULL,
    year         INTEGER NOT NULL,
    quarter      INTEGER NOT NULL CHECK (quarter BETWEEN 1 AND 4),
    quarter_name VARCHAR(2) NOT NULL,
    month        INTEGER NOT NULL CHECK (month BETWEEN 1 AND 12),
    month_name   VARCHAR(20) NOT NULL,
    day          INTEGER NOT NULL CHECK (day BETWEEN 1 AND 31),
    weekday      INTEGER NOT NULL CHECK (weekday BETWEEN 1 AND 7),
    weekday_name VARCHAR(20) NOT NULL,
    created_at   TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
    updated_at   TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
);

-- Product dimension
CREATE TABLE IF NOT EXISTS bi_schema.dim_product (
    product_id   INTEGER PRIMARY KEY,
    product_type VARCHAR(100) NOT NULL,
    created_at   TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
    updated_at   TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
);

-- Customer segment dimension
CREATE TABLE IF NOT EXISTS bi_schema.dim_customer_segment (
    segment_id INTEGER PRIMARY KEY,
    city       VARCHAR(100) NOT NULL,
    created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
    updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
);

-- Sales facts: total_amount is derived, never written directly
CREATE TABLE IF NOT EXISTS bi_schema.fact_sales (
    sales_id       VARCHAR(50) PRIMARY KEY,
    date_id        INTEGER NOT NULL REFERENCES bi_schema.dim_date(dateid),
    product_id     INTEGER NOT NULL REFERENCES bi_schema.dim_product(product_id),
    segment_id     INTEGER NOT NULL REFERENCES bi_schema.dim_customer_segment(segment_id),
    price_per_unit NUMERIC(10,2) NOT NULL CHECK (price_per_unit > 0),
    quantity_sold  INTEGER NOT NULL CHECK (quantity_sold > 0),
    total_amount   NUMERIC(12,2) GENERATED ALWAYS AS (price_per_unit * quantity_sold) STORED,
    created_at     TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_sales_date ON bi_schema.fact_sales(date_id);
CREATE INDEX IF NOT EXISTS idx_sales_product ON bi_schema.fact_sales(product_id);
CREATE INDEX IF NOT EXISTS idx_sales_segment ON bi_schema.fact_sales(segment_id);

-- Denormalized per-transaction view
CREATE OR REPLACE VIEW bi_schema.vw_sales_analysis AS
SELECT
    f.sales_id,
    d.date,
    d.year,
    d.quarter,
    d.quarter_name,
    d.month,
    d.month_name,
    d.day,
    d.weekday,
    d.weekday_name,
    p.product_id,
    p.product_type,
    s.segment_id,
    s.city,
    f.price_per_unit,
    f.quantity_sold,
    f.total_amount
FROM bi_schema.fact_sales f
JOIN bi_schema.dim_date d ON f.date_id = d.dateid
JOIN bi_schema.dim_product p ON f.product_id = p.product_id
JOIN bi_schema.dim_customer_segment s ON f.segment_id = s.segment_id;

-- Monthly aggregates over the date dimension
CREATE OR REPLACE VIEW bi_schema.vw_monthly_metrics AS
SELECT
    d.year,
    d.month,
    MIN(d.month_name)            AS month_name,
    COUNT(*)                     AS total_transactions,
    SUM(f.quantity_sold)         AS total_quantity,
    SUM(f.total_amount)          AS total_revenue,
    AVG(f.total_amount)          AS avg_sale_amount,
    COUNT(DISTINCT f.product_id) AS unique_products,
    COUNT(DISTINCT f.segment_id) AS unique_segments
FROM bi_schema.fact_sales f
JOIN bi_schema.dim_date d ON f.date_id = d.dateid
GROUP BY d.year, d.month;
`

const dropBISQL = `
DROP VIEW IF EXISTS bi_schema.vw_monthly_metrics;
DROP VIEW IF EXISTS bi_schema.vw_sales_analysis;
DROP TABLE IF EXISTS bi_schema.fact_sales CASCADE;
DROP TABLE IF EXISTS bi_schema.dim_product CASCADE;
DROP TABLE IF EXISTS bi_schema.dim_customer_segment CASCADE;
DROP TABLE IF EXISTS bi_schema.dim_date CASCADE;
DROP SCHEMA IF EXISTS bi_schema;
`
