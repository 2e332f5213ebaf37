package database

// schemas maps database names to their embedded schema definitions.
// Each schema is idempotent so Migrate can run on every startup.
var schemas = map[string]string{
	"journal": journalSchema,
	"cache":   cacheSchema,
}

// journalSchema defines the trade journal tables
const journalSchema = `
CREATE TABLE IF NOT EXISTS trades (
	id TEXT PRIMARY KEY,
	account_number TEXT NOT NULL,
	instrument TEXT NOT NULL,
	side TEXT NOT NULL CHECK (side IN ('long', 'short')),
	quantity REAL NOT NULL,
	entry_price REAL NOT NULL,
	close_price REAL NOT NULL,
	entry_date INTEGER NOT NULL,
	close_date INTEGER NOT NULL,
	pnl REAL NOT NULL,
	commission REAL NOT NULL DEFAULT 0,
	time_in_position INTEGER NOT NULL,
	tags TEXT NOT NULL DEFAULT '[]',
	comment TEXT,
	video_url TEXT,
	image_base64 TEXT,
	created_at INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_trades_account ON trades(account_number);
CREATE INDEX IF NOT EXISTS idx_trades_entry_date ON trades(entry_date);
CREATE INDEX IF NOT EXISTS idx_trades_instrument ON trades(instrument);
`

// cacheSchema defines ephemeral tables: shared read-only snapshots
const cacheSchema = `
CREATE TABLE IF NOT EXISTS shared_snapshots (
	slug TEXT PRIMARY KEY,
	title TEXT NOT NULL DEFAULT '',
	payload BLOB NOT NULL,
	created_at INTEGER NOT NULL,
	expires_at INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_shared_snapshots_expires ON shared_snapshots(expires_at);
`
