// journal/schema.go
package journal

// Schema backs the key-value store the bridge writes to. Each row holds
// one whole collection serialized as a JSON array.
const Schema = `
CREATE TABLE IF NOT EXISTS kv (
	key TEXT PRIMARY KEY,
	value TEXT NOT NULL,
	updated_at TEXT NOT NULL
);
`
