package postgres

import (
	"context"
	"fmt"

	"github.com/vladislavdragonenkov/perfumery/internal/domain"
)

// NumberSequence выдаёт номера счетов из последовательности invoice_number_seq.
// Последовательность переживает рестарты и общая для всех экземпляров сервиса.
type NumberSequence struct {
	store *Store
}

// NewNumberSequence создаёт генератор номеров поверх PostgreSQL.
func NewNumberSequence(store *Store) *NumberSequence {
	return &NumberSequence{store: store}
}

func (s *NumberSequence) Next() (string, error) {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	var seq int64
	if err := s.store.db.QueryRowContext(ctx, `SELECT nextval('invoice_number_seq')`).Scan(&seq); err != nil {
		if pgCode(err) == pgSequenceExhausted {
			return "", fmt.Errorf("%w: %w", domain.ErrInvoiceNumberExhausted, err)
		}
		return "", fmt.Errorf("next invoice number: %w", err)
	}
	return domain.FormatInvoiceNumber(seq)
}

var _ domain.NumberGenerator = (*NumberSequence)(nil)
