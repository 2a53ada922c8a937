package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound — общий признак отсутствующей сущности, оборачивается конкретными ошибками ниже.
	ErrNotFound = errors.New("not found")
	// ErrInvalidArgument — общий признак ошибки валидации входных данных.
	ErrInvalidArgument = errors.New("invalid argument")
	// ErrConflict — общий признак конфликта уникальности.
	ErrConflict = errors.New("already exists")

	// ErrStockExceeded — запрошенное количество превышает доступный остаток.
	ErrStockExceeded = errors.New("requested quantity exceeds available stock")
	// ErrEmptyOrder — попытка выставить счёт по пустому заказу.
	ErrEmptyOrder = errors.New("order must contain at least one item")
	// ErrMissingCustomer — счёт нельзя выставить без клиента.
	ErrMissingCustomer = errors.New("customer is required")
	// ErrOrderSubmitted — заказ уже передан на выставление счёта и не может изменяться.
	ErrOrderSubmitted = errors.New("order is already submitted")
	// ErrInvalidStatusTransition — недопустимый переход статуса счёта.
	ErrInvalidStatusTransition = errors.New("invalid invoice status transition")
	// ErrInvoiceNumberExhausted — генератор не смог выдать свободный номер счёта.
	ErrInvoiceNumberExhausted = errors.New("invoice number space exhausted")

	// ErrProductNotFound возвращается, если товар отсутствует в каталоге или в заказе.
	ErrProductNotFound = fmt.Errorf("product %w", ErrNotFound)
	// ErrCustomerNotFound возвращается, если клиент не найден в справочнике.
	ErrCustomerNotFound = fmt.Errorf("customer %w", ErrNotFound)
	// ErrInvoiceNotFound возвращается, если счёт с таким номером не найден в журнале.
	ErrInvoiceNotFound = fmt.Errorf("invoice %w", ErrNotFound)
	// ErrCartNotFound возвращается, если сессия корзины не найдена или истекла.
	ErrCartNotFound = fmt.Errorf("cart %w", ErrNotFound)

	// ErrInvoiceNumberConflict — счёт с таким номером уже есть в журнале.
	ErrInvoiceNumberConflict = fmt.Errorf("invoice number %w", ErrConflict)
	// ErrProductConflict — товар с таким ID или кодом уже зарегистрирован.
	ErrProductConflict = fmt.Errorf("product %w", ErrConflict)
	// ErrCustomerConflict — клиент с таким ID или номером документа уже существует.
	ErrCustomerConflict = fmt.Errorf("customer %w", ErrConflict)

	// Ошибки валидации товара.
	ErrProductNameRequired     = errors.New("product name is required")
	ErrProductBrandRequired    = errors.New("product brand is required")
	ErrProductCategoryRequired = errors.New("product category is required")
	ErrProductPriceNegative    = errors.New("product price must be non-negative")
	ErrProductStockNegative    = errors.New("product stock must be non-negative")
	ErrProductMinStockNegative = errors.New("product minimum stock must be non-negative")

	// Ошибки валидации клиента.
	ErrCustomerNameRequired  = errors.New("customer full name is required")
	ErrCustomerTaxIDRequired = errors.New("customer tax id is required")
	ErrCustomerEmailRequired = errors.New("customer email is required")

	// Ошибки инвариантов счёта.
	ErrInvoiceNumberRequired = errors.New("invoice number is required")
	ErrInvoiceLinesRequired  = errors.New("invoice must contain at least one line")
	ErrInvoiceLineInvalid    = errors.New("invoice line quantity must be greater than zero")
	ErrInvoiceTotalsMismatch = errors.New("invoice totals do not match its lines")
	ErrUnknownInvoiceStatus  = errors.New("unknown invoice status")
	ErrUnknownPricingProfile = errors.New("unknown pricing profile")

	// ErrOutboxPublish — ошибка при публикации сообщения из outbox.
	ErrOutboxPublish = errors.New("outbox publish failed")

	// ErrIdempotencyKeyRequired — пустой idempotency-key.
	ErrIdempotencyKeyRequired = errors.New("idempotency key is required")
	// ErrIdempotencyRequestHashRequired — пустой хеш запроса.
	ErrIdempotencyRequestHashRequired = errors.New("idempotency request hash is required")
	// ErrIdempotencyKeyAlreadyExists — ключ уже занят другим запросом.
	ErrIdempotencyKeyAlreadyExists = errors.New("idempotency key already exists")
	// ErrIdempotencyHashMismatch — ключ переиспользован с другим телом запроса.
	ErrIdempotencyHashMismatch = errors.New("idempotency key reused with different request")
	// ErrIdempotencyKeyNotFound — ключ не найден.
	ErrIdempotencyKeyNotFound = errors.New("idempotency key not found")
)

// StockError уточняет ErrStockExceeded: сколько запрошено и сколько есть на складе.
type StockError struct {
	ProductID string
	Requested int
	Available int
}

func (e *StockError) Error() string {
	return fmt.Sprintf("product %s: requested %d, available %d: %s", e.ProductID, e.Requested, e.Available, ErrStockExceeded)
}

// Unwrap позволяет проверять ошибку через errors.Is(err, ErrStockExceeded).
func (e *StockError) Unwrap() error {
	return ErrStockExceeded
}

// NewStockError создаёт ошибку превышения остатка.
func NewStockError(productID string, requested, available int) error {
	return &StockError{ProductID: productID, Requested: requested, Available: available}
}

// InvalidArgument склеивает ошибки валидации и помечает их как ErrInvalidArgument.
func InvalidArgument(errs ...error) error {
	if len(errs) == 0 {
		return nil
	}
	return fmt.Errorf("%w: %w", ErrInvalidArgument, errors.Join(errs...))
}

// IsNotFound проверяет, что ошибка означает отсутствие сущности.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsStockExceeded проверяет, что ошибка связана с превышением остатка.
func IsStockExceeded(err error) bool {
	return errors.Is(err, ErrStockExceeded)
}

// IsInvalidArgument проверяет, что ошибка вызвана невалидными входными данными.
func IsInvalidArgument(err error) bool {
	return errors.Is(err, ErrInvalidArgument)
}

// IsConflict проверяет конфликт уникальности.
func IsConflict(err error) bool {
	return errors.Is(err, ErrConflict)
}

// IsIdempotencyConflict проверяет, что ошибка связана с повторным использованием ключа идемпотентности.
func IsIdempotencyConflict(err error) bool {
	return errors.Is(err, ErrIdempotencyKeyAlreadyExists) || errors.Is(err, ErrIdempotencyHashMismatch)
}
