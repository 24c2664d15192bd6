package history

// SchemaVersion is the current database schema version.
const SchemaVersion = 1

// Schema creates the probe history tables.
const Schema = `
CREATE TABLE IF NOT EXISTS probe_results (
    run_id TEXT NOT NULL,
    probed_at INTEGER NOT NULL,
    provider TEXT NOT NULL,
    api TEXT NOT NULL,
    status TEXT NOT NULL,
    series INTEGER NOT NULL,
    error TEXT,
    PRIMARY KEY (run_id, api)
);

CREATE TABLE IF NOT EXISTS schema_version (
    version INTEGER PRIMARY KEY,
    applied_at INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_probe_results_probed_at ON probe_results(probed_at);
CREATE INDEX IF NOT EXISTS idx_probe_results_provider ON probe_results(provider, probed_at);
`

const insertSchemaVersion = `
INSERT INTO schema_version (version, applied_at) VALUES (?, ?)
ON CONFLICT(version) DO NOTHING;
`

const getSchemaVersion = `SELECT version FROM schema_version ORDER BY version DESC LIMIT 1;`

const insertRecord = `
INSERT INTO probe_results (run_id, probed_at, provider, api, status, series, error)
VALUES (?, ?, ?, ?, ?, ?, ?)
ON CONFLICT (run_id, api) DO UPDATE SET
    status = excluded.status,
    series = excluded.series,
    error = excluded.error;
`
