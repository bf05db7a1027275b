package index

import (
	"context"
	"fmt"
	"time"

	"github.com/starford/newsroll/internal/indexcache"
	"github.com/starford/newsroll/internal/models"
)

// UpsertPage inserts or replaces one entry of the index identified by key.
func (db *DB) UpsertPage(key indexcache.Key, position int, e models.PageIndexEntry, checksum string) error {
	_, err := db.conn.Exec(`
		INSERT INTO pages (index_key, path, position, title, description, template,
			breadcrumb_title, image, last_modified, publication_date,
			from_the_department, robots, checksum)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(index_key, path) DO UPDATE SET
			position            = excluded.position,
			title               = excluded.title,
			description         = excluded.description,
			template            = excluded.template,
			breadcrumb_title    = excluded.breadcrumb_title,
			image               = excluded.image,
			last_modified       = excluded.last_modified,
			publication_date    = excluded.publication_date,
			from_the_department = excluded.from_the_department,
			robots              = excluded.robots,
			checksum            = excluded.checksum
	`, key.String(), e.Path, position, e.Title, e.Description, e.Template,
		e.BreadcrumbTitle, e.Image, unix(e.LastModified), unix(e.PublicationDate),
		e.FromTheDepartment, e.Robots, checksum)
	if err != nil {
		return fmt.Errorf("index: upsert page: %w", err)
	}
	return nil
}

// SetPosition updates the ordering of an unchanged entry.
func (db *DB) SetPosition(key indexcache.Key, path string, position int) error {
	_, err := db.conn.Exec(`UPDATE pages SET position = ? WHERE index_key = ? AND path = ?`,
		position, key.String(), path)
	if err != nil {
		return fmt.Errorf("index: set position: %w", err)
	}
	return nil
}

// DeletePage removes one entry.
func (db *DB) DeletePage(key indexcache.Key, path string) error {
	_, err := db.conn.Exec(`DELETE FROM pages WHERE index_key = ? AND path = ?`, key.String(), path)
	if err != nil {
		return fmt.Errorf("index: delete page: %w", err)
	}
	return nil
}

// AllChecksums returns path → checksum for every entry under key.
func (db *DB) AllChecksums(key indexcache.Key) (map[string]string, error) {
	rows, err := db.conn.Query(`SELECT path, checksum FROM pages WHERE index_key = ?`, key.String())
	if err != nil {
		return nil, fmt.Errorf("index: all checksums: %w", err)
	}
	defer rows.Close()
	out := make(map[string]string)
	for rows.Next() {
		var p, cs string
		if err := rows.Scan(&p, &cs); err != nil {
			return nil, err
		}
		out[p] = cs
	}
	return out, rows.Err()
}

// Count returns the number of entries under key.
func (db *DB) Count(key indexcache.Key) (int, error) {
	var n int
	if err := db.conn.QueryRow(`SELECT count(*) FROM pages WHERE index_key = ?`, key.String()).Scan(&n); err != nil {
		return 0, fmt.Errorf("index: count: %w", err)
	}
	return n, nil
}

// ListPages returns entries under key in index order.
func (db *DB) ListPages(ctx context.Context, key indexcache.Key, offset, limit int) ([]models.PageIndexEntry, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := db.conn.QueryContext(ctx, `
		SELECT path, title, description, template, breadcrumb_title, image,
		       last_modified, publication_date, from_the_department, robots
		FROM pages
		WHERE index_key = ?
		ORDER BY position, path
		LIMIT ? OFFSET ?
	`, key.String(), limit, max(offset, 0))
	if err != nil {
		return nil, fmt.Errorf("index: list pages: %w", err)
	}
	defer rows.Close()

	var out []models.PageIndexEntry
	for rows.Next() {
		var e models.PageIndexEntry
		var lastModified, publicationDate int64
		if err := rows.Scan(&e.Path, &e.Title, &e.Description, &e.Template, &e.BreadcrumbTitle,
			&e.Image, &lastModified, &publicationDate, &e.FromTheDepartment, &e.Robots); err != nil {
			return nil, err
		}
		e.LastModified = fromUnix(lastModified)
		e.PublicationDate = fromUnix(publicationDate)
		out = append(out, e)
	}
	return out, rows.Err()
}

func unix(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return t.Unix()
}

func fromUnix(secs int64) time.Time {
	if secs <= 0 {
		return time.Time{}
	}
	return time.Unix(secs, 0).UTC()
}
