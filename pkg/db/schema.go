package db

const schema = `
-- Performance and reliability settings
PRAGMA journal_mode = WAL;
PRAGMA synchronous = NORMAL;
PRAGMA foreign_keys = ON;
PRAGMA temp_store = MEMORY;

-- Settings: one JSON-encoded value per storage key
CREATE TABLE IF NOT EXISTS settings (
    key TEXT PRIMARY KEY,
    value TEXT NOT NULL,          -- JSON
    updated_at INTEGER NOT NULL   -- unix milliseconds
);

-- Rates: last known rate per currency pair
CREATE TABLE IF NOT EXISTS rates (
    pair TEXT PRIMARY KEY,        -- FROM_TO, e.g. JPY_USD
    from_currency TEXT NOT NULL,
    to_currency TEXT NOT NULL,
    rate REAL NOT NULL,
    fetched_at INTEGER NOT NULL   -- unix milliseconds
);

CREATE INDEX IF NOT EXISTS idx_rates_from ON rates(from_currency);
CREATE INDEX IF NOT EXISTS idx_rates_fetched ON rates(fetched_at);
`
