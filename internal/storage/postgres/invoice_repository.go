package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/perfumery/internal/domain"
)

const invoiceColumns = `number, issued_at, customer_id, customer_name, customer_tax_id, customer_email,
	customer_phone, customer_address, tax_rate, subtotal, tax, shipping, total, status, updated_at`

type invoiceRepository struct {
	store  *Store
	logger *log.Entry
}

// NewInvoiceRepository создаёт журнал счетов в PostgreSQL.
func NewInvoiceRepository(store *Store, logger *log.Entry) domain.InvoiceRepository {
	if logger == nil {
		logger = log.WithField("component", "postgres-invoices")
	}
	return &invoiceRepository{store: store, logger: logger}
}

// Append сохраняет счёт и его строки одной транзакцией.
func (r *invoiceRepository) Append(inv domain.Invoice) error {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	return r.store.inTx(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO invoices (`+invoiceColumns+`)
			VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15)
		`,
			inv.Number, inv.IssuedAt, inv.Customer.ID, inv.Customer.FullName, inv.Customer.TaxID, inv.Customer.Email,
			inv.Customer.Phone, inv.Customer.Address, inv.TaxRate, inv.Subtotal, inv.Tax, inv.Shipping, inv.Total,
			string(inv.Status), inv.UpdatedAt,
		)
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: %s", domain.ErrInvoiceNumberConflict, inv.Number)
		}
		if err != nil {
			return fmt.Errorf("insert invoice: %w", err)
		}

		for i, line := range inv.Lines {
			if _, err := tx.ExecContext(ctx, `
				INSERT INTO invoice_lines (invoice_number, position, product_id, code, name, brand, quantity, unit_price, total)
				VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
			`, inv.Number, i, line.ProductID, line.Code, line.Name, line.Brand, line.Quantity, line.UnitPrice, line.Total); err != nil {
				return fmt.Errorf("insert invoice line %d: %w", i, err)
			}
		}
		return nil
	})
}

func (r *invoiceRepository) FindByNumber(number string) (domain.Invoice, error) {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	return r.get(ctx, r.store.db, number)
}

func (r *invoiceRepository) Exists(number string) (bool, error) {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	var exists bool
	if err := r.store.db.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM invoices WHERE number = $1)`, number).Scan(&exists); err != nil {
		return false, fmt.Errorf("check invoice number: %w", err)
	}
	return exists, nil
}

// Filter возвращает ленивую выборку: запрос выполняется при каждом проходе.
// Ошибка запроса отдаётся вызывающему единственным элементом прохода.
func (r *invoiceRepository) Filter(filter domain.InvoiceFilter) (domain.InvoiceView, error) {
	if filter.Limit < 0 {
		return nil, domain.InvalidArgument(fmt.Errorf("limit must be >= 0, got %d", filter.Limit))
	}
	query, args := invoiceQuery(filter)

	return func(yield func(domain.Invoice, error) bool) {
		ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
		defer cancel()

		invoices, err := r.list(ctx, query, args)
		if err != nil {
			r.logger.WithError(err).Warn("invoice filter query failed")
			yield(domain.Invoice{}, fmt.Errorf("filter invoices: %w", err))
			return
		}
		for _, inv := range invoices {
			if !yield(inv, nil) {
				return
			}
		}
	}, nil
}

// SetStatus блокирует строку счёта, проверяет переход и обновляет статус.
func (r *invoiceRepository) SetStatus(number string, status domain.InvoiceStatus, at time.Time) (domain.Invoice, error) {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	var updated domain.Invoice
	err := r.store.inTx(ctx, func(tx *sql.Tx) error {
		var raw string
		err := tx.QueryRowContext(ctx, `SELECT status FROM invoices WHERE number = $1 FOR UPDATE`, number).Scan(&raw)
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("%w: %s", domain.ErrInvoiceNotFound, number)
		}
		if err != nil {
			return fmt.Errorf("lock invoice: %w", err)
		}

		current := domain.InvoiceStatus(raw)
		if !current.CanTransitionTo(status) {
			return fmt.Errorf("%w: %s -> %s", domain.ErrInvalidStatusTransition, current, status)
		}
		if _, err := tx.ExecContext(ctx, `UPDATE invoices SET status = $2, updated_at = $3 WHERE number = $1`,
			number, string(status), at); err != nil {
			return fmt.Errorf("update invoice status: %w", err)
		}

		updated, err = r.get(ctx, tx, number)
		return err
	})
	if err != nil {
		return domain.Invoice{}, err
	}
	return updated, nil
}

func (r *invoiceRepository) Stats() (domain.InvoiceStats, error) {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	rows, err := r.store.db.QueryContext(ctx, `
		SELECT status, COUNT(*), COALESCE(SUM(total), 0)
		FROM invoices
		GROUP BY status
	`)
	if err != nil {
		return domain.InvoiceStats{}, fmt.Errorf("query invoice stats: %w", err)
	}
	defer rows.Close()

	var stats domain.InvoiceStats
	for rows.Next() {
		var (
			status string
			count  int
			sum    decimal.Decimal
		)
		if err := rows.Scan(&status, &count, &sum); err != nil {
			return domain.InvoiceStats{}, fmt.Errorf("scan invoice stats: %w", err)
		}
		stats.Total += count
		switch domain.InvoiceStatus(status) {
		case domain.InvoiceStatusPending:
			stats.Pending = count
		case domain.InvoiceStatusPaid:
			stats.Paid = count
			stats.PaidSales = domain.RoundMoney(sum)
		case domain.InvoiceStatusVoided:
			stats.Voided = count
		}
	}
	if err := rows.Err(); err != nil {
		return domain.InvoiceStats{}, fmt.Errorf("iterate invoice stats: %w", err)
	}
	return stats, nil
}

type querier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func (r *invoiceRepository) get(ctx context.Context, q querier, number string) (domain.Invoice, error) {
	inv, err := scanInvoice(q.QueryRowContext(ctx, `SELECT `+invoiceColumns+` FROM invoices WHERE number = $1`, number))
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Invoice{}, fmt.Errorf("%w: %s", domain.ErrInvoiceNotFound, number)
	}
	if err != nil {
		return domain.Invoice{}, fmt.Errorf("select invoice: %w", err)
	}

	lines, err := loadLines(ctx, q, []string{number})
	if err != nil {
		return domain.Invoice{}, err
	}
	inv.Lines = lines[number]
	return inv, nil
}

func (r *invoiceRepository) list(ctx context.Context, query string, args []any) ([]domain.Invoice, error) {
	rows, err := r.store.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query invoices: %w", err)
	}
	defer rows.Close()

	var (
		invoices []domain.Invoice
		numbers  []string
	)
	for rows.Next() {
		inv, err := scanInvoice(rows)
		if err != nil {
			return nil, fmt.Errorf("scan invoice: %w", err)
		}
		invoices = append(invoices, inv)
		numbers = append(numbers, inv.Number)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate invoices: %w", err)
	}
	if len(invoices) == 0 {
		return nil, nil
	}

	lines, err := loadLines(ctx, r.store.db, numbers)
	if err != nil {
		return nil, err
	}
	for i := range invoices {
		invoices[i].Lines = lines[invoices[i].Number]
	}
	return invoices, nil
}

// invoiceQuery переводит фильтр в SQL. Выборка идёт в порядке добавления в журнал.
func invoiceQuery(f domain.InvoiceFilter) (string, []any) {
	var (
		where []string
		args  []any
	)
	arg := func(v any) string {
		args = append(args, v)
		return "$" + strconv.Itoa(len(args))
	}
	like := func(s string) string {
		return arg("%" + likeEscape(strings.TrimSpace(s)) + "%")
	}

	if f.Status != "" {
		where = append(where, "status = "+arg(string(f.Status)))
	}
	if strings.TrimSpace(f.NumberContains) != "" {
		where = append(where, "number ILIKE "+like(f.NumberContains))
	}
	if strings.TrimSpace(f.CustomerNameContains) != "" {
		where = append(where, "customer_name ILIKE "+like(f.CustomerNameContains))
	}
	if strings.TrimSpace(f.CustomerIDContains) != "" {
		p := like(f.CustomerIDContains)
		where = append(where, "(customer_id ILIKE "+p+" OR customer_tax_id ILIKE "+p+")")
	}
	if strings.TrimSpace(f.Search) != "" {
		p := like(f.Search)
		where = append(where, "(number ILIKE "+p+" OR customer_name ILIKE "+p+" OR customer_tax_id ILIKE "+p+")")
	}
	if !f.Date.IsZero() {
		y, m, d := f.Date.Date()
		start := time.Date(y, m, d, 0, 0, 0, 0, f.Date.Location())
		where = append(where, "issued_at >= "+arg(start)+" AND issued_at < "+arg(start.AddDate(0, 0, 1)))
	}

	query := `SELECT ` + invoiceColumns + ` FROM invoices`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	if f.Newest {
		query += " ORDER BY seq DESC"
	} else {
		query += " ORDER BY seq"
	}
	if f.Limit > 0 {
		query += " LIMIT " + arg(f.Limit)
	}
	return query, args
}

func scanInvoice(row rowScanner) (domain.Invoice, error) {
	var (
		inv    domain.Invoice
		status string
	)
	err := row.Scan(
		&inv.Number, &inv.IssuedAt, &inv.Customer.ID, &inv.Customer.FullName, &inv.Customer.TaxID, &inv.Customer.Email,
		&inv.Customer.Phone, &inv.Customer.Address, &inv.TaxRate, &inv.Subtotal, &inv.Tax, &inv.Shipping, &inv.Total,
		&status, &inv.UpdatedAt,
	)
	if err != nil {
		return domain.Invoice{}, err
	}
	inv.Status = domain.InvoiceStatus(status)
	inv.Subtotal = domain.RoundMoney(inv.Subtotal)
	inv.Tax = domain.RoundMoney(inv.Tax)
	inv.Shipping = domain.RoundMoney(inv.Shipping)
	inv.Total = domain.RoundMoney(inv.Total)
	return inv, nil
}

func loadLines(ctx context.Context, q querier, numbers []string) (map[string][]domain.InvoiceLine, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT invoice_number, product_id, code, name, brand, quantity, unit_price, total
		FROM invoice_lines
		WHERE invoice_number = ANY($1)
		ORDER BY invoice_number, position
	`, numbers)
	if err != nil {
		return nil, fmt.Errorf("query invoice lines: %w", err)
	}
	defer rows.Close()

	lines := make(map[string][]domain.InvoiceLine, len(numbers))
	for rows.Next() {
		var (
			number string
			line   domain.InvoiceLine
		)
		if err := rows.Scan(&number, &line.ProductID, &line.Code, &line.Name, &line.Brand,
			&line.Quantity, &line.UnitPrice, &line.Total); err != nil {
			return nil, fmt.Errorf("scan invoice line: %w", err)
		}
		line.UnitPrice = domain.RoundMoney(line.UnitPrice)
		line.Total = domain.RoundMoney(line.Total)
		lines[number] = append(lines[number], line)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate invoice lines: %w", err)
	}
	return lines, nil
}

var _ domain.InvoiceRepository = (*invoiceRepository)(nil)
