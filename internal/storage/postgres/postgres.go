// Package postgres implements storage.Backend on PostgreSQL via pgx.
package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/FranksOps/harrier/internal/product"
	"github.com/FranksOps/harrier/internal/storage"
)

// ensure postgresBackend implements storage.Backend
var _ storage.Backend = (*postgresBackend)(nil)

type postgresBackend struct {
	pool *pgxpool.Pool
}

const schema = `
CREATE TABLE IF NOT EXISTS sites (
	url TEXT PRIMARY KEY,
	added_at TIMESTAMPTZ NOT NULL,
	last_checked_at TIMESTAMPTZ NOT NULL,
	skips INTEGER NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS endpoints (
	platform TEXT PRIMARY KEY,
	search_param TEXT NOT NULL,
	url_template TEXT NOT NULL,
	full_url_template TEXT NOT NULL,
	params JSONB NOT NULL,
	created_at TIMESTAMPTZ NOT NULL,
	last_used_at TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS products (
	platform TEXT NOT NULL,
	product_url TEXT NOT NULL,
	title TEXT NOT NULL,
	image_url TEXT NOT NULL DEFAULT '',
	price DOUBLE PRECISION,
	currency TEXT NOT NULL DEFAULT '',
	raw_price TEXT NOT NULL DEFAULT '',
	rating DOUBLE PRECISION,
	review_count INTEGER,
	in_stock BOOLEAN,
	brand TEXT NOT NULL DEFAULT '',
	sku TEXT NOT NULL DEFAULT '',
	description TEXT NOT NULL DEFAULT '',
	first_seen_at TIMESTAMPTZ NOT NULL,
	last_seen_at TIMESTAMPTZ NOT NULL,
	PRIMARY KEY (platform, product_url)
);
`

// New creates a Postgres-backed storage.Backend.
func New(ctx context.Context, dsn string) (storage.Backend, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}

	if _, err := pool.Exec(ctx, schema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("apply postgres schema: %w", err)
	}

	return &postgresBackend{pool: pool}, nil
}

func (b *postgresBackend) AddSite(ctx context.Context, url string) error {
	now := time.Now().UTC()
	_, err := b.pool.Exec(ctx,
		`INSERT INTO sites (url, added_at, last_checked_at, skips) VALUES ($1, $2, $3, 0) ON CONFLICT (url) DO NOTHING`,
		url, now, now,
	)
	if err != nil {
		return fmt.Errorf("insert site: %w", err)
	}
	return nil
}

func (b *postgresBackend) OldestSite(ctx context.Context, maxSkips int) (*storage.Site, error) {
	row := b.pool.QueryRow(ctx,
		`SELECT url, added_at, last_checked_at, skips FROM sites WHERE skips < $1 ORDER BY last_checked_at ASC LIMIT 1`,
		maxSkips,
	)

	var s storage.Site
	if err := row.Scan(&s.URL, &s.AddedAt, &s.LastCheckedAt, &s.Skips); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("select oldest site: %w", err)
	}
	return &s, nil
}

func (b *postgresBackend) TouchSite(ctx context.Context, url string) error {
	return b.updateSite(ctx,
		`UPDATE sites SET last_checked_at = $1, skips = 0 WHERE url = $2`, url)
}

func (b *postgresBackend) SkipSite(ctx context.Context, url string) error {
	return b.updateSite(ctx,
		`UPDATE sites SET last_checked_at = $1, skips = skips + 1 WHERE url = $2`, url)
}

func (b *postgresBackend) updateSite(ctx context.Context, query, url string) error {
	tag, err := b.pool.Exec(ctx, query, time.Now().UTC(), url)
	if err != nil {
		return fmt.Errorf("update site: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return storage.ErrNotFound
	}
	return nil
}

func (b *postgresBackend) SaveEndpoint(ctx context.Context, ep *storage.Endpoint) error {
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
	VALUES ($1, $2, $3, $4, $5, $6, $7)
	ON CONFLICT (platform) DO UPDATE SET
		search_param = EXCLUDED.search_param,
		url_template = EXCLUDED.url_template,
		full_url_template = EXCLUDED.full_url_template,
		params = EXCLUDED.params,
		last_used_at = EXCLUDED.last_used_at
	`

	_, err = b.pool.Exec(ctx, query,
		ep.Platform, ep.SearchParam, ep.URLTemplate, ep.FullURLTemplate,
		paramsJSON, createdAt, lastUsedAt,
	)
	if err != nil {
		return fmt.Errorf("upsert endpoint: %w", err)
	}
	return nil
}

func (b *postgresBackend) Endpoints(ctx context.Context, limit int) ([]*storage.Endpoint, error) {
	query := `SELECT platform, search_param, url_template, full_url_template, params, created_at, last_used_at FROM endpoints ORDER BY last_used_at ASC`
	args := []any{}
	if limit > 0 {
		query += ` LIMIT $1`
		args = append(args, limit)
	}

	rows, err := b.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("select endpoints: %w", err)
	}
	defer rows.Close()

	var endpoints []*storage.Endpoint
	for rows.Next() {
		var ep storage.Endpoint
		var paramsJSON []byte

		err := rows.Scan(
			&ep.Platform, &ep.SearchParam, &ep.URLTemplate, &ep.FullURLTemplate,
			&paramsJSON, &ep.CreatedAt, &ep.LastUsedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan endpoint: %w", err)
		}
		if err := json.Unmarshal(paramsJSON, &ep.Params); err != nil {
			return nil, fmt.Errorf("unmarshal endpoint params: %w", err)
		}

		endpoints = append(endpoints, &ep)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate endpoints: %w", err)
	}
	return endpoints, nil
}

func (b *postgresBackend) TouchEndpoint(ctx context.Context, platform string) error {
	tag, err := b.pool.Exec(ctx,
		`UPDATE endpoints SET last_used_at = $1 WHERE platform = $2`,
		time.Now().UTC(), platform,
	)
	if err != nil {
		return fmt.Errorf("touch endpoint: %w", err)
	}
	if tag.RowsAffected() == 0 {
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
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
ON CONFLICT (platform, product_url) DO UPDATE SET
	title = COALESCE(NULLIF(EXCLUDED.title, ''), products.title),
	image_url = COALESCE(NULLIF(EXCLUDED.image_url, ''), products.image_url),
	price = COALESCE(EXCLUDED.price, products.price),
	currency = COALESCE(NULLIF(EXCLUDED.currency, ''), products.currency),
	raw_price = COALESCE(NULLIF(EXCLUDED.raw_price, ''), products.raw_price),
	rating = COALESCE(EXCLUDED.rating, products.rating),
	review_count = COALESCE(EXCLUDED.review_count, products.review_count),
	in_stock = COALESCE(EXCLUDED.in_stock, products.in_stock),
	brand = COALESCE(NULLIF(EXCLUDED.brand, ''), products.brand),
	sku = COALESCE(NULLIF(EXCLUDED.sku, ''), products.sku),
	description = COALESCE(NULLIF(EXCLUDED.description, ''), products.description),
	last_seen_at = EXCLUDED.last_seen_at
`

func (b *postgresBackend) SaveProducts(ctx context.Context, platform string, records []product.Record) error {
	tx, err := b.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin products tx: %w", err)
	}
	defer tx.Rollback(ctx)

	now := time.Now().UTC()
	for _, r := range records {
		if r.ProductURL == "" {
			continue
		}
		_, err := tx.Exec(ctx, upsertProduct,
			platform, r.ProductURL, r.Title, r.ImageURL, r.Price, r.Currency,
			r.RawPrice, r.Rating, r.ReviewCount, r.InStock, r.Brand, r.SKU,
			r.Description, now, now,
		)
		if err != nil {
			return fmt.Errorf("upsert product %s: %w", r.ProductURL, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit products tx: %w", err)
	}
	return nil
}

func (b *postgresBackend) Products(ctx context.Context, filter storage.ProductFilter) ([]*storage.Product, error) {
	query := `SELECT platform, product_url, title, image_url, price, currency, raw_price, rating, review_count, in_stock, brand, sku, description, first_seen_at, last_seen_at FROM products WHERE 1=1`
	args := []any{}
	paramCount := 1

	if filter.Platform != "" {
		query += fmt.Sprintf(` AND platform = $%d`, paramCount)
		args = append(args, filter.Platform)
		paramCount++
	}
	if filter.Since != nil {
		query += fmt.Sprintf(` AND last_seen_at >= $%d`, paramCount)
		args = append(args, *filter.Since)
		paramCount++
	}

	query += ` ORDER BY last_seen_at DESC, product_url ASC`

	if filter.Limit > 0 {
		query += fmt.Sprintf(` LIMIT $%d`, paramCount)
		args = append(args, filter.Limit)
		paramCount++
	}
	if filter.Offset > 0 {
		query += fmt.Sprintf(` OFFSET $%d`, paramCount)
		args = append(args, filter.Offset)
		paramCount++
	}

	rows, err := b.pool.Query(ctx, query, args...)
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

func (b *postgresBackend) Close() error {
	b.pool.Close()
	return nil
}
