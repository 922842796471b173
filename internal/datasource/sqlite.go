package datasource

import (
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/vanderheijden86/kgview/pkg/debug"
	"github.com/vanderheijden86/kgview/pkg/model"
)

// Schema is the layout the SQLite reader expects. WriteSQLite creates it.
const Schema = `
CREATE TABLE IF NOT EXISTS nodes (
	id     TEXT PRIMARY KEY,
	val    REAL,
	degree INTEGER
);
CREATE TABLE IF NOT EXISTS links (
	source TEXT NOT NULL,
	target TEXT NOT NULL
);
`

// SQLiteReader provides read access to a graph database.
type SQLiteReader struct {
	db   *sql.DB
	path string
}

// NewSQLiteReader opens a SQLite database for reading.
func NewSQLiteReader(source DataSource) (*SQLiteReader, error) {
	if source.Type != SourceTypeSQLite {
		return nil, fmt.Errorf("source is not SQLite: %s", source.Type)
	}

	dsn := fmt.Sprintf("file:%s?mode=ro&_pragma=busy_timeout(5000)", source.Path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("cannot open database: %w", err)
	}
	if _, err := db.Exec("PRAGMA temp_store = MEMORY"); err != nil {
		debug.Log("datasource: pragma on %s: %v", source.Path, err)
	}
	return &SQLiteReader{db: db, path: source.Path}, nil
}

// Close closes the database connection.
func (r *SQLiteReader) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// LoadGraph reads every node and link. Databases without a degree column are
// accepted; degrees are then filled in when the graph is normalized.
func (r *SQLiteReader) LoadGraph() (model.Graph, error) {
	nodes, err := r.loadNodes()
	if err != nil {
		return model.Graph{}, err
	}
	links, err := r.loadLinks()
	if err != nil {
		return model.Graph{}, err
	}
	return model.Graph{Nodes: nodes, Links: links}, nil
}

func (r *SQLiteReader) loadNodes() ([]model.Node, error) {
	rows, err := r.db.Query(`SELECT id, val, degree FROM nodes ORDER BY rowid`)
	if err != nil {
		return r.loadNodesSimple()
	}
	defer rows.Close()

	var nodes []model.Node
	for rows.Next() {
		var n model.Node
		var val sql.NullFloat64
		var degree sql.NullInt64
		if err := rows.Scan(&n.ID, &val, &degree); err != nil {
			debug.Log("datasource: skipping node row in %s: %v", r.path, err)
			continue
		}
		n.Val = val.Float64
		n.Degree = int(degree.Int64)
		nodes = append(nodes, n)
	}
	return nodes, rows.Err()
}

// loadNodesSimple handles databases whose nodes table only has an id column.
func (r *SQLiteReader) loadNodesSimple() ([]model.Node, error) {
	rows, err := r.db.Query(`SELECT id FROM nodes ORDER BY rowid`)
	if err != nil {
		return nil, fmt.Errorf("query nodes: %w", err)
	}
	defer rows.Close()

	var nodes []model.Node
	for rows.Next() {
		var n model.Node
		if err := rows.Scan(&n.ID); err != nil {
			continue
		}
		nodes = append(nodes, n)
	}
	return nodes, rows.Err()
}

func (r *SQLiteReader) loadLinks() ([]model.Link, error) {
	rows, err := r.db.Query(`SELECT source, target FROM links ORDER BY rowid`)
	if err != nil {
		return nil, fmt.Errorf("query links: %w", err)
	}
	defer rows.Close()

	var links []model.Link
	for rows.Next() {
		var l model.Link
		if err := rows.Scan(&l.Source, &l.Target); err != nil {
			debug.Log("datasource: skipping link row in %s: %v", r.path, err)
			continue
		}
		links = append(links, l)
	}
	return links, rows.Err()
}

// CountNodes returns the number of rows in the nodes table.
func (r *SQLiteReader) CountNodes() (int, error) {
	var n int
	if err := r.db.QueryRow(`SELECT COUNT(*) FROM nodes`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count nodes: %w", err)
	}
	return n, nil
}

// WriteSQLite stores g in a new database at path, replacing any existing one.
func WriteSQLite(path string, g model.Graph) (err error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return fmt.Errorf("open %s: %w", path, err)
	}
	defer func() {
		if cerr := db.Close(); err == nil && cerr != nil {
			err = cerr
		}
	}()

	start := time.Now()
	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	for _, stmt := range []string{`DROP TABLE IF EXISTS nodes`, `DROP TABLE IF EXISTS links`, Schema} {
		if _, err := tx.Exec(stmt); err != nil {
			return fmt.Errorf("create schema: %w", err)
		}
	}
	for _, n := range g.Nodes {
		if _, err := tx.Exec(`INSERT OR IGNORE INTO nodes (id, val, degree) VALUES (?, ?, ?)`, n.ID, n.Val, n.Degree); err != nil {
			return fmt.Errorf("insert node %s: %w", n.ID, err)
		}
	}
	for _, l := range g.Links {
		if _, err := tx.Exec(`INSERT INTO links (source, target) VALUES (?, ?)`, l.Source, l.Target); err != nil {
			return fmt.Errorf("insert link %s->%s: %w", l.Source, l.Target, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	debug.LogTiming("datasource: write sqlite", time.Since(start))
	return nil
}
