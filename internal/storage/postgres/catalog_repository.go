package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/vladislavdragonenkov/perfumery/internal/domain"
)

const productColumns = `id, code, name, brand, category, description, unit_price, available_stock, min_stock, created_at, updated_at`

type catalogRepository struct {
	store *Store
}

// NewCatalogRepository создаёт PostgreSQL-реализацию CatalogRepository.
func NewCatalogRepository(store *Store) domain.CatalogRepository {
	return &catalogRepository{store: store}
}

func (r *catalogRepository) ListProducts() ([]domain.Product, error) {
	return r.FilterProducts(domain.ProductFilter{})
}

func (r *catalogRepository) GetProduct(id string) (domain.Product, error) {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	row := r.store.db.QueryRowContext(ctx, `SELECT `+productColumns+` FROM products WHERE id = $1`, id)
	p, err := scanProduct(row)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Product{}, fmt.Errorf("%w: %s", domain.ErrProductNotFound, id)
	}
	if err != nil {
		return domain.Product{}, fmt.Errorf("select product: %w", err)
	}
	return p, nil
}

func (r *catalogRepository) FilterProducts(filter domain.ProductFilter) ([]domain.Product, error) {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	var (
		where []string
		args  []any
	)
	arg := func(v any) string {
		args = append(args, v)
		return "$" + strconv.Itoa(len(args))
	}

	if filter.Brand != "" {
		where = append(where, "LOWER(brand) = LOWER("+arg(filter.Brand)+")")
	}
	if filter.Category != "" {
		where = append(where, "LOWER(category) = LOWER("+arg(filter.Category)+")")
	}
	if filter.LowStockOnly {
		where = append(where, "available_stock <= min_stock")
	}
	if term := strings.TrimSpace(filter.Search); term != "" {
		p := arg("%" + likeEscape(term) + "%")
		where = append(where, "(name ILIKE "+p+" OR brand ILIKE "+p+" OR code ILIKE "+p+")")
	}

	query := `SELECT ` + productColumns + ` FROM products`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY seq"

	rows, err := r.store.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query products: %w", err)
	}
	defer rows.Close()

	products := make([]domain.Product, 0)
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("scan product: %w", err)
		}
		products = append(products, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate products: %w", err)
	}
	return products, nil
}

func (r *catalogRepository) Create(product domain.Product) error {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	now := time.Now().UTC()
	if product.CreatedAt.IsZero() {
		product.CreatedAt = now
	}
	if product.UpdatedAt.IsZero() {
		product.UpdatedAt = product.CreatedAt
	}

	_, err := r.store.db.ExecContext(ctx, `
		INSERT INTO products (`+productColumns+`)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
	`,
		product.ID, product.Code, product.Name, product.Brand, product.Category, product.Description,
		product.UnitPrice, product.AvailableStock, product.MinStock, product.CreatedAt, product.UpdatedAt,
	)
	if isUniqueViolation(err) {
		return fmt.Errorf("%w: %s", domain.ErrProductConflict, constraintName(err))
	}
	if err != nil {
		return fmt.Errorf("insert product: %w", err)
	}
	return nil
}

func (r *catalogRepository) Update(product domain.Product) error {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	res, err := r.store.db.ExecContext(ctx, `
		UPDATE products
		SET code = $2, name = $3, brand = $4, category = $5, description = $6,
		    unit_price = $7, available_stock = $8, min_stock = $9, updated_at = $10
		WHERE id = $1
	`,
		product.ID, product.Code, product.Name, product.Brand, product.Category, product.Description,
		product.UnitPrice, product.AvailableStock, product.MinStock, time.Now().UTC(),
	)
	if isUniqueViolation(err) {
		return fmt.Errorf("%w: %s", domain.ErrProductConflict, constraintName(err))
	}
	if err != nil {
		return fmt.Errorf("update product: %w", err)
	}
	return requireAffected(res, fmt.Errorf("%w: %s", domain.ErrProductNotFound, product.ID))
}

// AdjustStock блокирует строки товаров FOR UPDATE и применяет все дельты в одной транзакции.
func (r *catalogRepository) AdjustStock(deltas map[string]int) error {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	// фиксированный порядок блокировок исключает взаимоблокировки встречных резервов
	ids := make([]string, 0, len(deltas))
	for id := range deltas {
		ids = append(ids, id)
	}
	slices.Sort(ids)

	return r.store.inTx(ctx, func(tx *sql.Tx) error {
		now := time.Now().UTC()
		for _, id := range ids {
			var stock int
			err := tx.QueryRowContext(ctx, `SELECT available_stock FROM products WHERE id = $1 FOR UPDATE`, id).Scan(&stock)
			if errors.Is(err, sql.ErrNoRows) {
				return fmt.Errorf("%w: %s", domain.ErrProductNotFound, id)
			}
			if err != nil {
				return fmt.Errorf("lock product %s: %w", id, err)
			}

			delta := deltas[id]
			if stock+delta < 0 {
				return domain.NewStockError(id, -delta, stock)
			}
			if _, err := tx.ExecContext(ctx, `
				UPDATE products SET available_stock = available_stock + $2, updated_at = $3 WHERE id = $1
			`, id, delta, now); err != nil {
				return fmt.Errorf("adjust stock of %s: %w", id, err)
			}
		}
		return nil
	})
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanProduct(row rowScanner) (domain.Product, error) {
	var p domain.Product
	err := row.Scan(
		&p.ID, &p.Code, &p.Name, &p.Brand, &p.Category, &p.Description,
		&p.UnitPrice, &p.AvailableStock, &p.MinStock, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return domain.Product{}, err
	}
	p.UnitPrice = domain.RoundMoney(p.UnitPrice)
	return p, nil
}

func requireAffected(res sql.Result, notFound error) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return notFound
	}
	return nil
}

// likeEscape экранирует спецсимволы шаблона LIKE.
func likeEscape(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}

var _ domain.CatalogRepository = (*catalogRepository)(nil)
