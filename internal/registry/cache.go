package registry

import (
	"database/sql"
	"fmt"
	"strings"

	_ "modernc.org/sqlite"
)

// CachedSignature is an export signature in display form, as read back
// from the cache. Tooling compares and prints these; they are never
// turned back into checker types.
type CachedSignature struct {
	Name   string
	Params []string
	Return string
	RawRef string
}

// SignatureCache persists published export signatures so tooling can
// read a module's surface without re-parsing it. Enabled through
// phpx.yaml; the core works identically without one.
type SignatureCache struct {
	db *sql.DB
}

const cacheSchema = `
CREATE TABLE IF NOT EXISTS export_signatures (
	module_id TEXT NOT NULL,
	name      TEXT NOT NULL,
	params    TEXT NOT NULL,
	ret       TEXT NOT NULL,
	raw_ref   TEXT NOT NULL,
	PRIMARY KEY (module_id, name)
);`

// params are joined with ';' — type display forms contain commas
// (Result<int, string>) but never semicolons.
const paramSep = ";"

// OpenSignatureCache opens (creating if needed) the cache at path.
func OpenSignatureCache(path string) (*SignatureCache, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open signature cache: %w", err)
	}
	if _, err := db.Exec(cacheSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("init signature cache: %w", err)
	}
	return &SignatureCache{db: db}, nil
}

func (c *SignatureCache) Close() error { return c.db.Close() }

// Store writes a module's export table, replacing whatever the cache
// held for that module.
func (c *SignatureCache) Store(id ModuleID, exports map[string]ExportSignature) error {
	tx, err := c.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM export_signatures WHERE module_id = ?`, id.String()); err != nil {
		return err
	}
	stmt, err := tx.Prepare(`INSERT INTO export_signatures (module_id, name, params, ret, raw_ref) VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for name, sig := range exports {
		params := make([]string, len(sig.Params))
		for i, p := range sig.Params {
			params[i] = p.String()
		}
		ret := "void"
		if sig.Return != nil {
			ret = sig.Return.String()
		}
		if _, err := stmt.Exec(id.String(), name, strings.Join(params, paramSep), ret, sig.RawRef); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// Load reads a module's cached signatures. ok is false when the module
// has no cached entries.
func (c *SignatureCache) Load(id ModuleID) (map[string]CachedSignature, bool, error) {
	rows, err := c.db.Query(
		`SELECT name, params, ret, raw_ref FROM export_signatures WHERE module_id = ? ORDER BY name`,
		id.String())
	if err != nil {
		return nil, false, err
	}
	defer rows.Close()

	out := make(map[string]CachedSignature)
	for rows.Next() {
		var sig CachedSignature
		var params string
		if err := rows.Scan(&sig.Name, &params, &sig.Return, &sig.RawRef); err != nil {
			return nil, false, err
		}
		if params != "" {
			sig.Params = strings.Split(params, paramSep)
		}
		out[sig.Name] = sig
	}
	if err := rows.Err(); err != nil {
		return nil, false, err
	}
	return out, len(out) > 0, nil
}
