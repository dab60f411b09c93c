package schema

// DDL for the operational namespace. Table and column names stay in
// Spanish: the upstream order system predates the warehouse and its
// conventions travel with its data.
const createOperationalSQL = `
CREATE SCHEMA IF NOT EXISTS app_schema;

-- Usuarios: application accounts, soft-deleted via activo
CREATE TABLE IF NOT EXISTS app_schema.usuarios (
    id                  SERIAL PRIMARY KEY,
    nombre              VARCHAR(100) NOT NULL,
    email               VARCHAR(255) NOT NULL UNIQUE,
    activo              BOOLEAN NOT NULL DEFAULT TRUE,
    fecha_creacion      TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
    fecha_actualizacion TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
);

-- Configuraciones: key/value application settings
CREATE TABLE IF NOT EXISTS app_schema.configuraciones (
    id             SERIAL PRIMARY KEY,
    clave          VARCHAR(100) NOT NULL UNIQUE,
    valor          TEXT NOT NULL,
    descripcion    TEXT,
    fecha_creacion TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
);

-- Logs del sistema: append-only event log
CREATE TABLE IF NOT EXISTS app_schema.logs_sistema (
    id      SERIAL PRIMARY KEY,
    nivel   VARCHAR(20) NOT NULL,
    mensaje TEXT NOT NULL,
    origen  VARCHAR(100),
    fecha   TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
);

-- Productos: catalog behind dim_product
CREATE TABLE IF NOT EXISTS app_schema.productos (
    id                  SERIAL PRIMARY KEY,
    nombre              VARCHAR(200) NOT NULL,
    tipo                VARCHAR(100) NOT NULL,
    precio              NUMERIC(10,2) NOT NULL CHECK (precio >= 0),
    stock               INTEGER NOT NULL DEFAULT 0,
    activo              BOOLEAN NOT NULL DEFAULT TRUE,
    fecha_creacion      TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
    fecha_actualizacion TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
);

-- Pedidos: order headers
CREATE TABLE IF NOT EXISTS app_schema.pedidos (
    id           SERIAL PRIMARY KEY,
    usuario_id   INTEGER NOT NULL REFERENCES app_schema.usuarios(id),
    estado       VARCHAR(50) NOT NULL DEFAULT 'pendiente',
    ciudad_envio VARCHAR(100),
    fecha_pedido TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
);

-- Detalle de pedidos: order lines, subtotal derived by the database
CREATE TABLE IF NOT EXISTS app_schema.detalle_pedidos (
    id              SERIAL PRIMARY KEY,
    pedido_id       INTEGER NOT NULL REFERENCES app_schema.pedidos(id),
    producto_id     INTEGER NOT NULL REFERENCES app_schema.productos(id),
    cantidad        INTEGER NOT NULL CHECK (cantidad > 0),
    precio_unitario NUMERIC(10,2) NOT NULL CHECK (precio_unitario > 0),
    subtotal        NUMERIC(12,2) GENERATED ALWAYS AS (cantidad * precio_unitario) STORED
);

-- Refresh fecha_actualizacion on every UPDATE of usuarios and productos
CREATE OR REPLACE FUNCTION app_schema.update_fecha_actualizacion()
RETURNS TRIGGER AS $$
BEGIN
    NEW.fecha_actualizacion = CURRENT_TIMESTAMP;
    RETURN NEW;
END;
$$ LANGUAGE plpgsql;

DROP TRIGGER IF EXISTS trg_usuarios_actualizacion ON app_schema.usuarios;
CREATE TRIGGER trg_usuarios_actualizacion
    BEFORE UPDATE ON app_schema.usuarios
    FOR EACH ROW EXECUTE FUNCTION app_schema.update_fecha_actualizacion();

DROP TRIGGER IF EXISTS trg_productos_actualizacion ON app_schema.productos;
CREATE TRIGGER trg_productos_actualizacion
    BEFORE UPDATE ON app_schema.productos
    FOR EACH ROW EXECUTE FUNCTION app_schema.update_fecha_actualizacion();

CREATE INDEX IF NOT EXISTS idx_pedidos_usuario ON app_schema.pedidos(usuario_id);
CREATE INDEX IF NOT EXISTS idx_detalle_pedido ON app_schema.detalle_pedidos(pedido_id);
CREATE INDEX IF NOT EXISTS idx_logs_fecha ON app_schema.logs_sistema(fecha);
`

const dropOperationalSQL = `
DROP TABLE IF EXISTS app_schema.detalle_pedidos CASCADE;
DROP TABLE IF EXISTS app_schema.pedidos CASCADE;
DROP TABLE IF EXISTS app_schema.productos CASCADE;
DROP TABLE IF EXISTS app_schema.logs_sistema CASCADE;
DROP TABLE IF EXISTS app_schema.configuraciones CASCADE;
DROP TABLE IF EXISTS app_schema.usuarios CASCADE;
DROP FUNCTION IF EXISTS app_schema.update_fecha_actualizacion() CASCADE;
DROP SCHEMA IF EXISTS app_schema;
`

const seedConfiguracionesSQL = `
INSERT INTO app_schema.configuraciones (clave, valor, descripcion) VALUES
    ('version_esquema', '1', 'Version del esquema de datos'),
    ('hora_etl', '02:00', 'Hora programada del proceso ETL diario'),
    ('retencion_logs_dias', '90', 'Dias de retencion de logs del sistema'),
    ('moneda', 'USD', 'Moneda de los montos de venta')
ON CONFLICT (clave) DO NOTHING;
`
