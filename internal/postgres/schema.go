package postgres

import (
	"context"
	"fmt"
	"github.com/jackc/pgx/v5/pgxpool"
)

const schema = `
CREATE TABLE IF NOT EXISTS products (
	id               BIGINT PRIMARY KEY,
	name             TEXT NOT NULL,
	image            TEXT NOT NULL DEFAULT '',
	price            NUMERIC(12,2) NOT NULL DEFAULT 0,
	stock            INT NOT NULL CHECK (stock >= 0),
	variant_headings JSONB NOT NULL DEFAULT '[]',
	created_at       TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at       TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS product_skus (
	product_id  BIGINT NOT NULL REFERENCES products(id) ON DELETE CASCADE,
	position    INT NOT NULL,
	combination JSONB NOT NULL,
	stock       INT NOT NULL CHECK (stock >= 0),
	PRIMARY KEY (product_id, position)
);

CREATE TABLE IF NOT EXISTS orders (
	id               UUID PRIMARY KEY,
	display_id       TEXT NOT NULL,
	user_id          TEXT NOT NULL,
	shipping_address JSONB NOT NULL,
	payment_method   TEXT NOT NULL,
	payment_result   JSONB,
	transaction_id   TEXT NOT NULL DEFAULT '',
	items_price      NUMERIC(12,2) NOT NULL DEFAULT 0,
	tax_price        NUMERIC(12,2) NOT NULL DEFAULT 0,
	shipping_price   NUMERIC(12,2) NOT NULL DEFAULT 0,
	total_price      NUMERIC(12,2) NOT NULL DEFAULT 0,
	is_paid          BOOLEAN NOT NULL DEFAULT false,
	paid_at          TIMESTAMPTZ,
	is_delivered     BOOLEAN NOT NULL DEFAULT false,
	delivered_at     TIMESTAMPTZ,
	status           TEXT NOT NULL,
	created_at       TIMESTAMPTZ NOT NULL,
	updated_at       TIMESTAMPTZ NOT NULL,
	CONSTRAINT orders_display_id_key UNIQUE (display_id)
);
CREATE INDEX IF NOT EXISTS orders_user_created ON orders (user_id, created_at DESC);

CREATE TABLE IF NOT EXISTS order_items (
	id            UUID PRIMARY KEY,
	order_id      UUID NOT NULL REFERENCES orders(id) ON DELETE CASCADE,
	position      INT NOT NULL,
	product_id    BIGINT NOT NULL,
	name          TEXT NOT NULL,
	image         TEXT NOT NULL DEFAULT '',
	qty           INT NOT NULL CHECK (qty > 0),
	price         NUMERIC(12,2) NOT NULL DEFAULT 0,
	variant       JSONB,
	status        TEXT NOT NULL DEFAULT '',
	serial_number TEXT NOT NULL DEFAULT '',
	serial_type   TEXT NOT NULL DEFAULT ''
);
CREATE INDEX IF NOT EXISTS order_items_order ON order_items (order_id, position);

CREATE TABLE IF NOT EXISTS returns (
	id                    UUID PRIMARY KEY,
	ref                   TEXT NOT NULL,
	order_id              UUID NOT NULL,
	line_item_id          UUID,
	customer              TEXT NOT NULL DEFAULT '',
	product               JSONB NOT NULL,
	type                  TEXT NOT NULL,
	reason                TEXT NOT NULL DEFAULT '',
	comment               TEXT NOT NULL DEFAULT '',
	images                TEXT[] NOT NULL DEFAULT '{}',
	status                TEXT NOT NULL,
	previous_order_status TEXT NOT NULL DEFAULT '',
	timeline              JSONB NOT NULL DEFAULT '[]',
	created_at            TIMESTAMPTZ NOT NULL,
	updated_at            TIMESTAMPTZ NOT NULL,
	CONSTRAINT returns_ref_key UNIQUE (ref)
);
CREATE INDEX IF NOT EXISTS returns_order ON returns (order_id);
CREATE UNIQUE INDEX IF NOT EXISTS returns_open_line_item ON returns (line_item_id)
	WHERE line_item_id IS NOT NULL AND status NOT IN ('Completed', 'Rejected');

CREATE TABLE IF NOT EXISTS notifications (
	id         UUID PRIMARY KEY,
	type       TEXT NOT NULL,
	title      TEXT NOT NULL,
	message    TEXT NOT NULL,
	related_id TEXT NOT NULL DEFAULT '',
	is_read    BOOLEAN NOT NULL DEFAULT false,
	created_at TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS notifications_created ON notifications (created_at DESC);

CREATE TABLE IF NOT EXISTS delivery_zones (
	id            UUID PRIMARY KEY,
	code          TEXT NOT NULL,
	delivery_time INT NOT NULL,
	unit          TEXT NOT NULL,
	is_cod        BOOLEAN NOT NULL DEFAULT true,
	is_active     BOOLEAN NOT NULL DEFAULT true,
	created_at    TIMESTAMPTZ NOT NULL,
	updated_at    TIMESTAMPTZ NOT NULL,
	CONSTRAINT delivery_zones_code_key UNIQUE (code)
);
`

// Migrate creates the tables if they are missing.
func Migrate(ctx context.Context, db *pgxpool.Pool) error {
	if _, err := db.Exec(ctx, schema); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	return nil
}
