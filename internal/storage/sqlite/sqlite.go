// Package sqlite implements storage.Backend on an embedded SQLite database.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/FranksOps/harrier/internal/product"
	"github.com/FranksOps/harrier/internal/storage"
	_ "modernc.org/sqlite"
)

// ensure sqliteBackend implements storage.Backend
var _ storage.Backend = (*sqliteBackend)(nil)

type sqliteBackend struct {
	db *sql.DB
}

const schema = `
CREATE TABLE IF NOT EXISTS sites (
	url TEXT PRIMARY KEY,
	added_at DATETIME NOT NULL,
	last_checked_at DATETIME NOT NULL,
	skips INTEGER NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS endpoints (
	platform TEXT PRIMARY KEY,
	search_param TEXT NOT NULL,
	url_template TEXT NOT NULL,
	full_url_template TEXT NOT NULL,
	params TEXT NOT NULL,
	created_at DATETIME NOT NULL,
	last_used_at DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS products (
	platform TEXT NOT NULL,
	product_url TEXT NOT NULL,
	title TEXT NOT NULL,
	image_url TEXT NOT NULL DEFAULT '',
	price REAL,
	currency TEXT NOT NULL DEFAULT '',
	raw_price TEXT NOT NULL DEFAULT '',
	rating REAL,
	review_count INTEGER,
	in_stock BOOLEAN,
	brand TEXT NOT NULL DEFAULT '',
	sku TEXT NOT NULL DEFAULT '',
	description TEXT NOT NULL DEFAULT '',
	first_seen_at DATETIME NOT NULL,
	last_seen_at DATETIME NOT NULL,
	PRIMARY KEY (platform, product_url)
);
`

// New creates a SQLite-backed storage.Backend.
func New(dsn string) (storage.Backend, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite %q: %w", dsn, err)
	}

	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("apply sqlite schema: %w", err)
	}

	return &sqliteBackend{db: db}, nil
}

func (b *sqliteBackend) AddSite(ctx context.Context, url string) error {
	now := time.Now().UTC()
	_, err := b.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO sites (url, added_at, last_checked_at, skips) VALUES (?, ?, ?, 0)`,
		url, now, now,
	)
	if err != nil {
		return fmt.Errorf("insert site: %w", err)
	}
	return nil
}

func (b *sqliteBackend) OldestSite(ctx context.Context, maxSkips int) (*storage.Site, error) {
	row := b.db.QueryRowContext(ctx,
		`SELECT url, added_at, last_checked_at, skips FROM sites WHERE skips < ? ORDER BY last_checked_at ASC LIMIT 1`,
		maxSkips,
	)

	var s storage.Site
	if err := row.Scan(&s.URL, &s.AddedAt, &s.LastCheckedAt, &s.Skips); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("select oldest site: %w", err)
	}
	return &s, nil
}

func (b *sqliteBackend) TouchSite(ctx context.Context, url string) error {
	return b.updateSite(ctx,
		`UPDATE sites SET last_checked_at = ?, skips = 0 WHERE url = ?`, url)
}

func (b *sqliteBackend) SkipSite(ctx context.Context, url string) error {
	return b.updateSite(ctx,
		`UPDATE sites SET last_checked_at = ?, skips = skips + 1 WHERE url = ?`, url)
}

func (b *sqliteBackend) updateSite(ctx context.Context, query, url string) error {
	res, err := b.db.ExecContext(ctx, query, time.Now().UTC(), url)
	if err != nil {
		return fmt.Errorf("update site: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return storage.ErrNotFound
	}
	return nil
}

func (b *sqliteBackend) SaveEndpoint(ctx context.Context, ep *storage.Endpoint) error {
	paramsJSON, err := json.Marshal(ep.Params)
	if err != nil {
		return fmt.Errorf("marshal endpoint params: %w", err)
	}

	now := time.Now().UTC()
	createdAt := ep.CreatedAt
	if createdAt.IsZero() {
		createdAt = now
	}
	lastUsedAt := ep.LastUsedAt
	if lastUsedAt.IsZero() {
		lastUsedAt = now
	}

	query := `
	INSERT INTO endpoints (platform, search_param, url_template, full_url_template, params, created_at, last_used_at)
	VALUES (?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT(platform) DO UPDATE SET
		search_param = excluded.search_param,
		url_template = excluded.url_template,
		full_url_template = excluded.full_url_template,
		params = excluded.params,
		last_used_at = excluded.last_used_at
	`

	_, err = b.db.ExecContext(ctx, query,
		ep.Platform, ep.SearchParam, ep.URLTemplate, ep.FullURLTemplate,
		string(paramsJSON), createdAt, lastUsedAt,
	)
	if err != nil {
		return fmt.Errorf("upsert endpoint: %w", err)
	}
	return nil
}

func (b *sqliteBackend) Endpoints(ctx context.Context, limit int) ([]*storage.Endpoint, error) {
	query := `SELECT platform, search_param, url_template, full_url_template, params, created_at, last_used_at FROM endpoints ORDER BY last_used_at ASC`
	args := []any{}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := b.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("select endpoints: %w", err)
	}
	defer rows.Close()

	var endpoints []*storage.Endpoint
	for rows.Next() {
		var ep storage.Endpoint
		var paramsJSON string

		err := rows.Scan(
			&ep.Platform, &ep.SearchParam, &ep.URLTemplate, &ep.FullURLTemplate,
			&paramsJSON, &ep.CreatedAt, &ep.LastUsedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan endpoint: %w", err)
		}
		if err := json.Unmarshal([]byte(paramsJSON), &ep.Params); err != nil {
			return nil, fmt.Errorf("unmarshal endpoint params: %w", err)
		}

		endpoints = append(endpoints, &ep)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate endpoints: %w", err)
	}
	return endpoints, nil
}

func (b *sqliteBackend) TouchEndpoint(ctx context.Context, platform string) error {
	res, err := b.db.ExecContext(ctx,
		`UPDATE endpoints SET last_used_at = ? WHERE platform = ?`,
		time.Now().UTC(), platform,
	)
	if err != nil {
		return fmt.Errorf("touch endpoint: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return storage.ErrNotFound
	}
	return nil
}

// upsertProduct fills blanks only on conflict so a weaker re-extraction never
// erases an already captured field.
const upsertProduct = `
INSERT INTO products (
	platform, product_url, title, image_url, price, currency, raw_price,
	rating, review_count, in_stock, brand, sku, description,
	first_seen_at, last_seen_at
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(platform, product_url) DO UPDATE SET
	title = CASE WHEN excluded.title <> '' THEN excluded.title ELSE products.title END,
	image_url = CASE WHEN excluded.image_url <> '' THEN excluded.image_url ELSE products.image_url END,
	price = COALESCE(excluded.price, products.price),
	currency = CASE WHEN excluded.currency <> '' THEN excluded.currency ELSE products.currency END,
	raw_price = CASE WHEN excluded.raw_price <> '' THEN excluded.raw_price ELSE products.raw_price END,
	rating = COALESCE(excluded.rating, products.rating),
	review_count = COALESCE(excluded.review_count, products.review_count),
	in_stock = COALESCE(excluded.in_stock, products.in_stock),
	brand = CASE WHEN excluded.brand <> '' THEN excluded.brand ELSE products.brand END,
	sku = CASE WHEN excluded.sku <> '' THEN excluded.sku ELSE products.sku END,
	description = CASE WHEN excluded.description <> '' THEN excluded.description ELSE products.description END,
	last_seen_at = excluded.last_seen_at
`

func (b *sqliteBackend) SaveProducts(ctx context.Context, platform string, records []product.Record) error {
	tx, err := b.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin products tx: %w", err)
	}
	defer tx.Rollback()

	now := time.Now().UTC()
	for _, r := range records {
		if r.ProductURL == "" {
			continue
		}
		_, err := tx.ExecContext(ctx, upsertProduct,
			platform, r.ProductURL, r.Title, r.ImageURL, r.Price, r.Currency,
			r.RawPrice, r.Rating, r.ReviewCount, r.InStock, r.Brand, r.SKU,
			r.Description, now, now,
		)
		if err != nil {
			return fmt.Errorf("upsert product %s: %w", r.ProductURL, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit products tx: %w", err)
	}
	return nil
}

func (b *sqliteBackend) Products(ctx context.Context, filter storage.ProductFilter) ([]*storage.Product, error) {
	query := `SELECT platform, product_url, title, image_url, price, currency, raw_price, rating, review_count, in_stock, brand, sku, description, first_seen_at, last_seen_at FROM products WHERE 1=1`
	args := []any{}

	if filter.Platform != "" {
		query += ` AND platform = ?`
		args = append(args, filter.Platform)
	}
	if filter.Since != nil {
		query += ` AND last_seen_at >= ?`
		args = append(args, *filter.Since)
	}

	query += ` ORDER BY last_seen_at DESC, product_url ASC`

	if filter.Limit > 0 {
		query += ` LIMIT ?`
		args = append(args, filter.Limit)
	}
	if filter.Offset > 0 {
		query += ` OFFSET ?`
		args = append(args, filter.Offset)
	}

	rows, err := b.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("select products: %w", err)
	}
	defer rows.Close()

	var products []*storage.Product
	for rows.Next() {
		var p storage.Product
		err := rows.Scan(
			&p.Platform, &p.ProductURL, &p.Title, &p.ImageURL, &p.Price,
			&p.Currency, &p.RawPrice, &p.Rating, &p.ReviewCount, &p.InStock,
			&p.Brand, &p.SKU, &p.Description, &p.FirstSeenAt, &p.LastSeenAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan product: %w", err)
		}
		products = append(products, &p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate products: %w", err)
	}
	return products, nil
}

func (b *sqliteBackend) Close() error {
	return b.db.Close()
}
