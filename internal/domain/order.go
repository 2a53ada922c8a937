package domain

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// OrderState описывает жизненный цикл корзины.
type OrderState string

const (
	// OrderStateOpen — корзина открыта и принимает изменения.
	OrderStateOpen OrderState = "open"
	// OrderStateSubmitted — по корзине выставлен счёт, изменения запрещены.
	OrderStateSubmitted OrderState = "submitted"
)

// LineItem — позиция заказа: снимок товара и количество.
type LineItem struct {
	// Product обновляется при каждом AddItem, чтобы цена и остаток были актуальны.
	Product  Product
	Quantity int
}

// Total — стоимость позиции без налога.
func (l LineItem) Total() decimal.Decimal {
	return l.Product.UnitPrice.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

// Order — корзина быстрой продажи или формы выставления счёта.
// Не потокобезопасна: владелец сессии сериализует обращения.
type Order struct {
	ID        string
	Pricing   Pricing
	CreatedAt time.Time
	UpdatedAt time.Time

	state OrderState
	items []LineItem
	index map[string]int
}

// NewOrder создаёт пустую открытую корзину с выбранным ценообразованием.
func NewOrder(id string, pricing Pricing) *Order {
	return &Order{
		ID:      id,
		Pricing: pricing,
		state:   OrderStateOpen,
		index:   make(map[string]int),
	}
}

// State возвращает текущее состояние корзины.
func (o *Order) State() OrderState {
	return o.state
}

// AddItem увеличивает количество товара на единицу или добавляет новую позицию.
// Если новое количество превысит остаток, корзина не меняется и возвращается *StockError.
func (o *Order) AddItem(product Product) error {
	if err := o.ensureOpen(); err != nil {
		return err
	}

	if i, ok := o.index[product.ID]; ok {
		next := o.items[i].Quantity + 1
		if next > product.AvailableStock {
			return NewStockError(product.ID, next, product.AvailableStock)
		}
		o.items[i].Product = product
		o.items[i].Quantity = next
		return nil
	}

	if product.AvailableStock < 1 {
		return NewStockError(product.ID, 1, product.AvailableStock)
	}
	o.index[product.ID] = len(o.items)
	o.items = append(o.items, LineItem{Product: product, Quantity: 1})
	return nil
}

// SetQuantity задаёт количество позиции. Значение <= 0 удаляет позицию.
func (o *Order) SetQuantity(productID string, quantity int) error {
	if err := o.ensureOpen(); err != nil {
		return err
	}

	i, ok := o.index[productID]
	if quantity <= 0 {
		if ok {
			o.removeAt(i)
		}
		return nil
	}
	if !ok {
		return fmt.Errorf("%w: %s", ErrProductNotFound, productID)
	}

	stock := o.items[i].Product.AvailableStock
	if quantity > stock {
		return NewStockError(productID, quantity, stock)
	}
	o.items[i].Quantity = quantity
	return nil
}

// RefreshProduct заменяет сохранённую в позиции карточку товара актуальной.
// Возвращает false, если товара в корзине нет.
func (o *Order) RefreshProduct(product Product) (bool, error) {
	if err := o.ensureOpen(); err != nil {
		return false, err
	}
	i, ok := o.index[product.ID]
	if !ok {
		return false, nil
	}
	o.items[i].Product = product
	return true, nil
}

// RemoveItem удаляет позицию; отсутствие позиции не считается ошибкой.
func (o *Order) RemoveItem(productID string) error {
	if err := o.ensureOpen(); err != nil {
		return err
	}
	if i, ok := o.index[productID]; ok {
		o.removeAt(i)
	}
	return nil
}

// Clear удаляет все позиции.
func (o *Order) Clear() error {
	if err := o.ensureOpen(); err != nil {
		return err
	}
	o.items = nil
	o.index = make(map[string]int)
	return nil
}

// Submit переводит корзину в состояние Submitted.
func (o *Order) Submit() error {
	if err := o.ensureOpen(); err != nil {
		return err
	}
	if len(o.items) == 0 {
		return ErrEmptyOrder
	}
	o.state = OrderStateSubmitted
	return nil
}

// Items возвращает копию позиций в порядке добавления.
func (o *Order) Items() []LineItem {
	out := make([]LineItem, len(o.items))
	copy(out, o.items)
	return out
}

// Item возвращает позицию по идентификатору товара.
func (o *Order) Item(productID string) (LineItem, bool) {
	i, ok := o.index[productID]
	if !ok {
		return LineItem{}, false
	}
	return o.items[i], true
}

// Len — количество позиций.
func (o *Order) Len() int {
	return len(o.items)
}

// IsEmpty сообщает, что в корзине нет позиций.
func (o *Order) IsEmpty() bool {
	return len(o.items) == 0
}

// Subtotal — сумма qty * unitPrice по всем позициям.
func (o *Order) Subtotal() decimal.Decimal {
	sum := decimal.Zero
	for _, item := range o.items {
		sum = sum.Add(item.Total())
	}
	return RoundMoney(sum)
}

// Tax — налог по ставке корзины.
func (o *Order) Tax() decimal.Decimal {
	return o.Pricing.Tax(o.Subtotal())
}

// Shipping — стоимость доставки по политике корзины.
func (o *Order) Shipping() decimal.Decimal {
	return o.Pricing.Shipping.Charge(o.Subtotal())
}

// Total — subtotal + tax + shipping.
func (o *Order) Total() decimal.Decimal {
	return o.Totals().Total
}

// Totals считает все суммы за один проход.
func (o *Order) Totals() Totals {
	return o.Pricing.Compute(o.Subtotal())
}

// OrderSnapshot — неизменяемое представление корзины для транспорта и логов.
type OrderSnapshot struct {
	ID        string
	Profile   string
	State     OrderState
	Items     []LineItem
	Totals    Totals
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Snapshot возвращает копию состояния корзины с посчитанными суммами.
func (o *Order) Snapshot() OrderSnapshot {
	return OrderSnapshot{
		ID:        o.ID,
		Profile:   o.Pricing.Profile,
		State:     o.state,
		Items:     o.Items(),
		Totals:    o.Totals(),
		CreatedAt: o.CreatedAt,
		UpdatedAt: o.UpdatedAt,
	}
}

func (o *Order) ensureOpen() error {
	if o.state == OrderStateSubmitted {
		return ErrOrderSubmitted
	}
	if o.index == nil {
		o.index = make(map[string]int)
		o.state = OrderStateOpen
	}
	return nil
}

func (o *Order) removeAt(i int) {
	delete(o.index, o.items[i].Product.ID)
	o.items = append(o.items[:i], o.items[i+1:]...)
	for j := i; j < len(o.items); j++ {
		o.index[o.items[j].Product.ID] = j
	}
}
