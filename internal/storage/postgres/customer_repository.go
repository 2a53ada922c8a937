package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/vladislavdragonenkov/perfumery/internal/domain"
)

const customerColumns = `id, full_name, tax_id, email, phone, address, registered_at`

type customerRepository struct {
	store *Store
}

// NewCustomerRepository создаёт PostgreSQL-реализацию CustomerRepository.
func NewCustomerRepository(store *Store) domain.CustomerRepository {
	return &customerRepository{store: store}
}

func (r *customerRepository) ListCustomers() ([]domain.Customer, error) {
	return r.SearchCustomers("")
}

func (r *customerRepository) FindCustomer(id string) (domain.Customer, error) {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	var c domain.Customer
	err := r.store.db.QueryRowContext(ctx, `SELECT `+customerColumns+` FROM customers WHERE id = $1`, id).
		Scan(&c.ID, &c.FullName, &c.TaxID, &c.Email, &c.Phone, &c.Address, &c.RegisteredAt)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Customer{}, fmt.Errorf("%w: %s", domain.ErrCustomerNotFound, id)
	}
	if err != nil {
		return domain.Customer{}, fmt.Errorf("select customer: %w", err)
	}
	return c, nil
}

func (r *customerRepository) SearchCustomers(term string) ([]domain.Customer, error) {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	query := `SELECT ` + customerColumns + ` FROM customers`
	var args []any
	if term = strings.TrimSpace(term); term != "" {
		query += ` WHERE full_name ILIKE $1 OR tax_id ILIKE $1 OR email ILIKE $1 OR phone ILIKE $1`
		args = append(args, "%"+likeEscape(term)+"%")
	}
	query += ` ORDER BY seq`

	rows, err := r.store.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query customers: %w", err)
	}
	defer rows.Close()

	customers := make([]domain.Customer, 0)
	for rows.Next() {
		var c domain.Customer
		if err := rows.Scan(&c.ID, &c.FullName, &c.TaxID, &c.Email, &c.Phone, &c.Address, &c.RegisteredAt); err != nil {
			return nil, fmt.Errorf("scan customer: %w", err)
		}
		customers = append(customers, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate customers: %w", err)
	}
	return customers, nil
}

func (r *customerRepository) Create(customer domain.Customer) error {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	if customer.RegisteredAt.IsZero() {
		customer.RegisteredAt = time.Now().UTC()
	}

	_, err := r.store.db.ExecContext(ctx, `
		INSERT INTO customers (`+customerColumns+`) VALUES ($1,$2,$3,$4,$5,$6,$7)
	`, customer.ID, customer.FullName, customer.TaxID, customer.Email, customer.Phone, customer.Address, customer.RegisteredAt)
	if isUniqueViolation(err) {
		return fmt.Errorf("%w: %s", domain.ErrCustomerConflict, constraintName(err))
	}
	if err != nil {
		return fmt.Errorf("insert customer: %w", err)
	}
	return nil
}

func (r *customerRepository) Update(customer domain.Customer) error {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	res, err := r.store.db.ExecContext(ctx, `
		UPDATE customers
		SET full_name = $2, tax_id = $3, email = $4, phone = $5, address = $6
		WHERE id = $1
	`, customer.ID, customer.FullName, customer.TaxID, customer.Email, customer.Phone, customer.Address)
	if isUniqueViolation(err) {
		return fmt.Errorf("%w: %s", domain.ErrCustomerConflict, constraintName(err))
	}
	if err != nil {
		return fmt.Errorf("update customer: %w", err)
	}
	return requireAffected(res, fmt.Errorf("%w: %s", domain.ErrCustomerNotFound, customer.ID))
}

func (r *customerRepository) Delete(id string) error {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	res, err := r.store.db.ExecContext(ctx, `DELETE FROM customers WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete customer: %w", err)
	}
	return requireAffected(res, fmt.Errorf("%w: %s", domain.ErrCustomerNotFound, id))
}

var _ domain.CustomerRepository = (*customerRepository)(nil)
