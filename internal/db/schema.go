package db

import "fmt"

// sqliteSchema is the full SQLite schema.
const sqliteSchema = `
CREATE TABLE IF NOT EXISTS users (
    id            INTEGER PRIMARY KEY,
    username      TEXT NOT NULL,
    password_hash TEXT NOT NULL,
    name          TEXT NOT NULL DEFAULT '',
    cnic          TEXT NOT NULL DEFAULT '',
    paa           TEXT NOT NULL DEFAULT '',
    status        TEXT NOT NULL DEFAULT 'Enabled' CHECK (status IN ('Enabled', 'Disabled', 'Pending')),
    role          TEXT NOT NULL DEFAULT 'bidder' CHECK (role IN ('admin', 'manager', 'bidder')),
    created_at    DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
    deleted_at    DATETIME
);

CREATE UNIQUE INDEX IF NOT EXISTS idx_users_username_active
    ON users(username) WHERE deleted_at IS NULL;

CREATE TABLE IF NOT EXISTS auctions (
    id                TEXT PRIMARY KEY,
    name              TEXT NOT NULL,
    type              TEXT NOT NULL DEFAULT 'general' CHECK (type IN ('expensive', 'general')),
    auction_date      TEXT NOT NULL DEFAULT '',
    start_time        TEXT NOT NULL DEFAULT '',
    end_time          TEXT NOT NULL DEFAULT '',
    default_bid_timer INTEGER NOT NULL DEFAULT 15,
    description       TEXT NOT NULL DEFAULT '',
    status            TEXT NOT NULL DEFAULT 'Draft' CHECK (status IN ('Draft', 'Scheduled')),
    created_at        DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
    updated_at        DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS auction_state (
    auction_id    TEXT PRIMARY KEY REFERENCES auctions(id) ON DELETE CASCADE,
    status        TEXT NOT NULL DEFAULT 'scheduled' CHECK (status IN ('scheduled', 'live', 'ended')),
    active_lot_id TEXT,
    bid_ends_at   DATETIME,
    updated_at    DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS lots (
    id         TEXT PRIMARY KEY,
    name       TEXT NOT NULL,
    type       TEXT NOT NULL DEFAULT 'general' CHECK (type IN ('expensive', 'general')),
    base_price INTEGER NOT NULL DEFAULT 0 CHECK (base_price >= 0),
    created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
    updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS items (
    item_no     INTEGER PRIMARY KEY,
    title       TEXT NOT NULL DEFAULT '',
    found_at    TEXT NOT NULL DEFAULT '',
    photo       BLOB,
    photo_thumb BLOB,
    photo_mime  TEXT,
    created_at  DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
    updated_at  DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS sub_items (
    item_no     INTEGER NOT NULL REFERENCES items(item_no) ON DELETE CASCADE,
    sr_no       INTEGER NOT NULL CHECK (sr_no > 0),
    description TEXT NOT NULL DEFAULT '',
    qty         INTEGER NOT NULL DEFAULT 1 CHECK (qty > 0),
    condition   TEXT NOT NULL DEFAULT '',
    make        TEXT NOT NULL DEFAULT '',
    make_no     TEXT NOT NULL DEFAULT '',
    PRIMARY KEY (item_no, sr_no)
);

CREATE TABLE IF NOT EXISTS lot_items (
    item_no INTEGER NOT NULL,
    sr_no   INTEGER NOT NULL,
    lot_id  TEXT NOT NULL REFERENCES lots(id) ON DELETE CASCADE,
    PRIMARY KEY (item_no, sr_no),
    FOREIGN KEY (item_no, sr_no) REFERENCES sub_items(item_no, sr_no) ON DELETE CASCADE
);

CREATE TABLE IF NOT EXISTS auction_lots (
    lot_id     TEXT PRIMARY KEY REFERENCES lots(id) ON DELETE CASCADE,
    auction_id TEXT NOT NULL REFERENCES auctions(id) ON DELETE CASCADE
);

CREATE TABLE IF NOT EXISTS bids (
    id         INTEGER PRIMARY KEY,
    auction_id TEXT NOT NULL REFERENCES auctions(id) ON DELETE CASCADE,
    lot_id     TEXT NOT NULL REFERENCES lots(id) ON DELETE CASCADE,
    user_id    INTEGER NOT NULL REFERENCES users(id),
    amount     INTEGER NOT NULL CHECK (amount > 0),
    created_at DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS lot_winners (
    auction_id TEXT NOT NULL REFERENCES auctions(id) ON DELETE CASCADE,
    lot_id     TEXT NOT NULL REFERENCES lots(id) ON DELETE CASCADE,
    user_id    INTEGER NOT NULL REFERENCES users(id),
    bid_id     INTEGER NOT NULL,
    amount     INTEGER NOT NULL,
    decided_at DATETIME NOT NULL,
    PRIMARY KEY (auction_id, lot_id)
);

CREATE TABLE IF NOT EXISTS notifications (
    id          INTEGER PRIMARY KEY,
    user_id     INTEGER NOT NULL REFERENCES users(id),
    type        TEXT NOT NULL CHECK (type IN ('bid', 'outbid', 'won', 'new_auction', 'system')),
    title       TEXT NOT NULL,
    message     TEXT NOT NULL,
    entity_type TEXT,
    entity_id   TEXT,
    is_read     BOOLEAN NOT NULL DEFAULT 0,
    created_at  DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS settings (
    key   TEXT PRIMARY KEY,
    value TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS revoked_tokens (
    jti        TEXT PRIMARY KEY,
    expires_at DATETIME NOT NULL
);
`

// postgresSchema mirrors sqliteSchema with Postgres types.
const postgresSchema = `
CREATE TABLE IF NOT EXISTS users (
    id            BIGSERIAL PRIMARY KEY,
    username      TEXT NOT NULL,
    password_hash TEXT NOT NULL,
    name          TEXT NOT NULL DEFAULT '',
    cnic          TEXT NOT NULL DEFAULT '',
    paa           TEXT NOT NULL DEFAULT '',
    status        TEXT NOT NULL DEFAULT 'Enabled' CHECK (status IN ('Enabled', 'Disabled', 'Pending')),
    role          TEXT NOT NULL DEFAULT 'bidder' CHECK (role IN ('admin', 'manager', 'bidder')),
    created_at    TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
    deleted_at    TIMESTAMPTZ
);

CREATE UNIQUE INDEX IF NOT EXISTS idx_users_username_active
    ON users(username) WHERE deleted_at IS NULL;

CREATE TABLE IF NOT EXISTS auctions (
    id                TEXT PRIMARY KEY,
    name              TEXT NOT NULL,
    type              TEXT NOT NULL DEFAULT 'general' CHECK (type IN ('expensive', 'general')),
    auction_date      TEXT NOT NULL DEFAULT '',
    start_time        TEXT NOT NULL DEFAULT '',
    end_time          TEXT NOT NULL DEFAULT '',
    default_bid_timer INTEGER NOT NULL DEFAULT 15,
    description       TEXT NOT NULL DEFAULT '',
    status            TEXT NOT NULL DEFAULT 'Draft' CHECK (status IN ('Draft', 'Scheduled')),
    created_at        TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
    updated_at        TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS auction_state (
    auction_id    TEXT PRIMARY KEY REFERENCES auctions(id) ON DELETE CASCADE,
    status        TEXT NOT NULL DEFAULT 'scheduled' CHECK (status IN ('scheduled', 'live', 'ended')),
    active_lot_id TEXT,
    bid_ends_at   TIMESTAMPTZ,
    updated_at    TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS lots (
    id         TEXT PRIMARY KEY,
    name       TEXT NOT NULL,
    type       TEXT NOT NULL DEFAULT 'general' CHECK (type IN ('expensive', 'general')),
    base_price BIGINT NOT NULL DEFAULT 0 CHECK (base_price >= 0),
    created_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
    updated_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS items (
    item_no     BIGINT PRIMARY KEY,
    title       TEXT NOT NULL DEFAULT '',
    found_at    TEXT NOT NULL DEFAULT '',
    photo       BYTEA,
    photo_thumb BYTEA,
    photo_mime  TEXT,
    created_at  TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
    updated_at  TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS sub_items (
    item_no     BIGINT NOT NULL REFERENCES items(item_no) ON DELETE CASCADE,
    sr_no       INTEGER NOT NULL CHECK (sr_no > 0),
    description TEXT NOT NULL DEFAULT '',
    qty         INTEGER NOT NULL DEFAULT 1 CHECK (qty > 0),
    condition   TEXT NOT NULL DEFAULT '',
    make        TEXT NOT NULL DEFAULT '',
    make_no     TEXT NOT NULL DEFAULT '',
    PRIMARY KEY (item_no, sr_no)
);

CREATE TABLE IF NOT EXISTS lot_items (
    item_no BIGINT NOT NULL,
    sr_no   INTEGER NOT NULL,
    lot_id  TEXT NOT NULL REFERENCES lots(id) ON DELETE CASCADE,
    PRIMARY KEY (item_no, sr_no),
    FOREIGN KEY (item_no, sr_no) REFERENCES sub_items(item_no, sr_no) ON DELETE CASCADE
);

CREATE TABLE IF NOT EXISTS auction_lots (
    lot_id     TEXT PRIMARY KEY REFERENCES lots(id) ON DELETE CASCADE,
    auction_id TEXT NOT NULL REFERENCES auctions(id) ON DELETE CASCADE
);

CREATE TABLE IF NOT EXISTS bids (
    id         BIGSERIAL PRIMARY KEY,
    auction_id TEXT NOT NULL REFERENCES auctions(id) ON DELETE CASCADE,
    lot_id     TEXT NOT NULL REFERENCES lots(id) ON DELETE CASCADE,
    user_id    BIGINT NOT NULL REFERENCES users(id),
    amount     BIGINT NOT NULL CHECK (amount > 0),
    created_at TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS lot_winners (
    auction_id TEXT NOT NULL REFERENCES auctions(id) ON DELETE CASCADE,
    lot_id     TEXT NOT NULL REFERENCES lots(id) ON DELETE CASCADE,
    user_id    BIGINT NOT NULL REFERENCES users(id),
    bid_id     BIGINT NOT NULL,
    amount     BIGINT NOT NULL,
    decided_at TIMESTAMPTZ NOT NULL,
    PRIMARY KEY (auction_id, lot_id)
);

CREATE TABLE IF NOT EXISTS notifications (
    id          BIGSERIAL PRIMARY KEY,
    user_id     BIGINT NOT NULL REFERENCES users(id),
    type        TEXT NOT NULL CHECK (type IN ('bid', 'outbid', 'won', 'new_auction', 'system')),
    title       TEXT NOT NULL,
    message     TEXT NOT NULL,
    entity_type TEXT,
    entity_id   TEXT,
    is_read     BOOLEAN NOT NULL DEFAULT FALSE,
    created_at  TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS settings (
    key   TEXT PRIMARY KEY,
    value TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS revoked_tokens (
    jti        TEXT PRIMARY KEY,
    expires_at TIMESTAMPTZ NOT NULL
);
`

// EnsureSchema creates all tables if they don't already exist.
func EnsureSchema(d *DB) error {
	schema := sqliteSchema
	if d.driver == DriverPostgres {
		schema = postgresSchema
	}
	if _, err := d.DB.Exec(schema); err != nil {
		return fmt.Errorf("creating schema: %w", err)
	}
	return nil
}
