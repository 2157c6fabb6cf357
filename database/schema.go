package database

var mysqlSchema = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id VARCHAR(36) PRIMARY KEY,
		email VARCHAR(255) NOT NULL UNIQUE,
		full_name VARCHAR(255) NOT NULL DEFAULT '',
		password_hash VARCHAR(255) NOT NULL,
		role VARCHAR(16) NOT NULL DEFAULT 'USER',
		is_active BOOLEAN NOT NULL DEFAULT TRUE,
		created_at DATETIME(6) NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS products (
		id VARCHAR(36) PRIMARY KEY,
		name VARCHAR(255) NOT NULL,
		slug VARCHAR(255) NOT NULL UNIQUE,
		brand VARCHAR(255) NOT NULL DEFAULT '',
		price_cents BIGINT NOT NULL,
		stock INT NOT NULL DEFAULT 0,
		description TEXT NOT NULL,
		images TEXT NOT NULL,
		is_active BOOLEAN NOT NULL DEFAULT TRUE,
		created_at DATETIME(6) NOT NULL,
		CONSTRAINT products_stock_non_negative CHECK (stock >= 0),
		INDEX idx_products_active_created (is_active, created_at)
	)`,
	`CREATE TABLE IF NOT EXISTS orders (
		id VARCHAR(36) PRIMARY KEY,
		email VARCHAR(255) NOT NULL,
		full_name VARCHAR(255) NOT NULL,
		phone VARCHAR(64) NOT NULL,
		address VARCHAR(512) NOT NULL,
		city VARCHAR(255) NOT NULL,
		postal_code VARCHAR(32) NOT NULL,
		subtotal_cents BIGINT NOT NULL,
		shipping_cents BIGINT NOT NULL DEFAULT 0,
		total_cents BIGINT NOT NULL,
		status VARCHAR(32) NOT NULL DEFAULT 'PENDING_PAYMENT',
		created_at DATETIME(6) NOT NULL,
		updated_at DATETIME(6) NOT NULL,
		INDEX idx_orders_created (created_at)
	)`,
	`CREATE TABLE IF NOT EXISTS order_items (
		id BIGINT AUTO_INCREMENT PRIMARY KEY,
		order_id VARCHAR(36) NOT NULL,
		product_id VARCHAR(36) NOT NULL,
		name VARCHAR(255) NOT NULL,
		unit_cents BIGINT NOT NULL,
		quantity INT NOT NULL,
		CONSTRAINT fk_order_items_order FOREIGN KEY (order_id) REFERENCES orders(id),
		INDEX idx_order_items_order (order_id)
	)`,
}

var postgresSchema = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id TEXT PRIMARY KEY,
		email TEXT NOT NULL UNIQUE,
		full_name TEXT NOT NULL DEFAULT '',
		password_hash TEXT NOT NULL,
		role TEXT NOT NULL DEFAULT 'USER',
		is_active BOOLEAN NOT NULL DEFAULT TRUE,
		created_at TIMESTAMPTZ NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS products (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		slug TEXT NOT NULL UNIQUE,
		brand TEXT NOT NULL DEFAULT '',
		price_cents BIGINT NOT NULL,
		stock INT NOT NULL DEFAULT 0 CHECK (stock >= 0),
		description TEXT NOT NULL DEFAULT '',
		images TEXT NOT NULL DEFAULT '[]',
		is_active BOOLEAN NOT NULL DEFAULT TRUE,
		created_at TIMESTAMPTZ NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_products_active_created ON products (is_active, created_at)`,
	`CREATE TABLE IF NOT EXISTS orders (
		id TEXT PRIMARY KEY,
		email TEXT NOT NULL,
		full_name TEXT NOT NULL,
		phone TEXT NOT NULL,
		address TEXT NOT NULL,
		city TEXT NOT NULL,
		postal_code TEXT NOT NULL,
		subtotal_cents BIGINT NOT NULL,
		shipping_cents BIGINT NOT NULL DEFAULT 0,
		total_cents BIGINT NOT NULL,
		status TEXT NOT NULL DEFAULT 'PENDING_PAYMENT',
		created_at TIMESTAMPTZ NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_orders_created ON orders (created_at)`,
	`CREATE TABLE IF NOT EXISTS order_items (
		id BIGSERIAL PRIMARY KEY,
		order_id TEXT NOT NULL REFERENCES orders(id),
		product_id TEXT NOT NULL,
		name TEXT NOT NULL,
		unit_cents BIGINT NOT NULL,
		quantity INT NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_order_items_order ON order_items (order_id)`,
}
