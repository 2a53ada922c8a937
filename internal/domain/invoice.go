package domain

import (
	"fmt"
	"iter"
	"slices"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// InvoiceStatus описывает жизненный цикл счёта.
type InvoiceStatus string

const (
	// InvoiceStatusPending — счёт выставлен и ждёт оплаты.
	InvoiceStatusPending InvoiceStatus = "pending"
	// InvoiceStatusPaid — счёт оплачен.
	InvoiceStatusPaid InvoiceStatus = "paid"
	// InvoiceStatusVoided — счёт аннулирован, терминальное состояние.
	InvoiceStatusVoided InvoiceStatus = "voided"
)

// Valid проверяет, что статус относится к поддерживаемым значениям.
func (s InvoiceStatus) Valid() bool {
	switch s {
	case InvoiceStatusPending, InvoiceStatusPaid, InvoiceStatusVoided:
		return true
	default:
		return false
	}
}

// CanTransitionTo проверяет допустимость перехода:
// pending -> paid, pending -> voided, paid -> voided.
func (s InvoiceStatus) CanTransitionTo(next InvoiceStatus) bool {
	switch s {
	case InvoiceStatusPending:
		return next == InvoiceStatusPaid || next == InvoiceStatusVoided
	case InvoiceStatusPaid:
		return next == InvoiceStatusVoided
	default:
		return false
	}
}

// ParseInvoiceStatus разбирает статус из строки без учёта регистра.
func ParseInvoiceStatus(raw string) (InvoiceStatus, error) {
	s := InvoiceStatus(strings.ToLower(strings.TrimSpace(raw)))
	if !s.Valid() {
		return "", fmt.Errorf("%w: %q", ErrUnknownInvoiceStatus, raw)
	}
	return s, nil
}

// InvoiceLine — позиция счёта, снимок товара на момент выставления.
type InvoiceLine struct {
	ProductID string
	Code      string
	Name      string
	Brand     string
	Quantity  int
	UnitPrice decimal.Decimal
	Total     decimal.Decimal
}

// NewInvoiceLine фиксирует товар и количество в строке счёта.
func NewInvoiceLine(product Product, quantity int) InvoiceLine {
	return InvoiceLine{
		ProductID: product.ID,
		Code:      product.Code,
		Name:      product.Name,
		Brand:     product.Brand,
		Quantity:  quantity,
		UnitPrice: product.UnitPrice,
		Total:     RoundMoney(product.UnitPrice.Mul(decimal.NewFromInt(int64(quantity)))),
	}
}

// Invoice — выставленный счёт. После выставления меняется только Status.
type Invoice struct {
	Number   string
	IssuedAt time.Time
	// Customer — копия данных клиента на момент выставления.
	Customer  Customer
	Lines     []InvoiceLine
	TaxRate   decimal.Decimal
	Subtotal  decimal.Decimal
	Tax       decimal.Decimal
	Shipping  decimal.Decimal
	Total     decimal.Decimal
	Status    InvoiceStatus
	UpdatedAt time.Time
}

// Totals возвращает суммы счёта одной структурой.
func (inv Invoice) Totals() Totals {
	return Totals{Subtotal: inv.Subtotal, Tax: inv.Tax, Shipping: inv.Shipping, Total: inv.Total}
}

// Clone возвращает копию счёта, не разделяющую слайс строк с оригиналом.
func (inv Invoice) Clone() Invoice {
	inv.Lines = slices.Clone(inv.Lines)
	return inv
}

// ValidateInvariants проверяет согласованность счёта и возвращает список замечаний.
func (inv *Invoice) ValidateInvariants() []error {
	var errs []error

	if inv.Number == "" {
		errs = append(errs, ErrInvoiceNumberRequired)
	}
	if inv.Customer.ID == "" {
		errs = append(errs, ErrMissingCustomer)
	}
	if len(inv.Lines) == 0 {
		errs = append(errs, ErrInvoiceLinesRequired)
	}
	if !inv.Status.Valid() {
		errs = append(errs, ErrUnknownInvoiceStatus)
	}

	subtotal := decimal.Zero
	for _, line := range inv.Lines {
		if line.Quantity <= 0 {
			errs = append(errs, ErrInvoiceLineInvalid)
		}
		subtotal = subtotal.Add(line.Total)
	}
	subtotal = RoundMoney(subtotal)
	tax := RoundMoney(subtotal.Mul(inv.TaxRate))
	if !subtotal.Equal(inv.Subtotal) || !tax.Equal(inv.Tax) || !subtotal.Add(tax).Add(inv.Shipping).Equal(inv.Total) {
		errs = append(errs, ErrInvoiceTotalsMismatch)
	}

	return errs
}

// InvoiceFilter — параметры выборки из журнала счетов. Пустые поля не ограничивают выборку.
type InvoiceFilter struct {
	NumberContains       string
	CustomerNameContains string
	// CustomerIDContains ищет по идентификатору клиента и номеру документа.
	CustomerIDContains string
	// Search ищет подстроку сразу в номере, имени клиента и номере документа.
	Search string
	// Date оставляет счета, выставленные в тот же календарный день (в зоне Date).
	Date   time.Time
	Status InvoiceStatus
	// Newest переворачивает порядок: сначала последние выставленные.
	Newest bool
	// Limit ограничивает выборку; 0 снимает ограничение.
	Limit int
}

// Matches проверяет, подходит ли счёт под все условия фильтра.
func (f InvoiceFilter) Matches(inv Invoice) bool {
	if f.Status != "" && inv.Status != f.Status {
		return false
	}
	if term := lowerTrim(f.NumberContains); term != "" && !containsFold(inv.Number, term) {
		return false
	}
	if term := lowerTrim(f.CustomerNameContains); term != "" && !containsFold(inv.Customer.FullName, term) {
		return false
	}
	if term := lowerTrim(f.CustomerIDContains); term != "" &&
		!containsFold(inv.Customer.ID, term) && !containsFold(inv.Customer.TaxID, term) {
		return false
	}
	if term := lowerTrim(f.Search); term != "" &&
		!containsFold(inv.Number, term) &&
		!containsFold(inv.Customer.FullName, term) &&
		!containsFold(inv.Customer.TaxID, term) {
		return false
	}
	if !f.Date.IsZero() && !sameDay(f.Date, inv.IssuedAt.In(f.Date.Location())) {
		return false
	}
	return true
}

func lowerTrim(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

// InvoiceView — ленивое представление выборки из журнала: условие фильтра
// вычисляется при каждом проходе, поэтому в выборку попадают и счета,
// добавленные после её создания. Ошибка чтения приходит вторым значением
// и завершает проход.
type InvoiceView iter.Seq2[Invoice, error]

// All возвращает представление как iter.Seq2.
func (v InvoiceView) All() iter.Seq2[Invoice, error] {
	return iter.Seq2[Invoice, error](v)
}

// Collect материализует выборку и останавливается на первой ошибке.
func (v InvoiceView) Collect() ([]Invoice, error) {
	if v == nil {
		return nil, nil
	}
	var invoices []Invoice
	for inv, err := range v {
		if err != nil {
			return nil, err
		}
		invoices = append(invoices, inv)
	}
	return invoices, nil
}

// InvoiceStats — сводка по журналу счетов.
type InvoiceStats struct {
	Total   int
	Pending int
	Paid    int
	Voided  int
	// PaidSales — сумма Total оплаченных счетов.
	PaidSales decimal.Decimal
}

// Add учитывает счёт в сводке.
func (s *InvoiceStats) Add(inv Invoice) {
	s.Total++
	switch inv.Status {
	case InvoiceStatusPending:
		s.Pending++
	case InvoiceStatusPaid:
		s.Paid++
		s.PaidSales = s.PaidSales.Add(inv.Total)
	case InvoiceStatusVoided:
		s.Voided++
	}
}

// InvoiceNumberPrefix — префикс номеров счетов.
const InvoiceNumberPrefix = "FAC-"

// MaxInvoiceSequence — наибольший номер, помещающийся в шесть цифр.
const MaxInvoiceSequence = 999999

// FormatInvoiceNumber форматирует порядковый номер как FAC-NNNNNN.
func FormatInvoiceNumber(seq int64) (string, error) {
	if seq < 1 || seq > MaxInvoiceSequence {
		return "", fmt.Errorf("%w: sequence %d out of range", ErrInvoiceNumberExhausted, seq)
	}
	return fmt.Sprintf("%s%06d", InvoiceNumberPrefix, seq), nil
}
