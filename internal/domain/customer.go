package domain

import (
	"strings"
	"time"
)

// Customer — покупатель из клиентского справочника.
type Customer struct {
	ID       string
	FullName string
	// TaxID — номер документа (cédula), уникален в справочнике.
	TaxID string
	Email string
	// Phone и Address необязательны, пустая строка означает отсутствие.
	Phone        string
	Address      string
	RegisteredAt time.Time
}

// Validate проверяет обязательные поля клиента.
func (c *Customer) Validate() []error {
	var errs []error

	if strings.TrimSpace(c.FullName) == "" {
		errs = append(errs, ErrCustomerNameRequired)
	}
	if strings.TrimSpace(c.TaxID) == "" {
		errs = append(errs, ErrCustomerTaxIDRequired)
	}
	if strings.TrimSpace(c.Email) == "" {
		errs = append(errs, ErrCustomerEmailRequired)
	}

	return errs
}

// Matches ищет term в имени, документе, email и телефоне без учёта регистра.
// Пустой term подходит под любого клиента.
func (c Customer) Matches(term string) bool {
	term = strings.ToLower(strings.TrimSpace(term))
	if term == "" {
		return true
	}
	return containsFold(c.FullName, term) ||
		containsFold(c.TaxID, term) ||
		containsFold(c.Email, term) ||
		containsFold(c.Phone, term)
}
