package domain

import "time"

// CatalogRepository описывает хранилище каталога товаров.
type CatalogRepository interface {
	// ListProducts возвращает все товары в порядке регистрации.
	ListProducts() ([]Product, error)
	// GetProduct возвращает товар или ErrProductNotFound.
	GetProduct(id string) (Product, error)
	// FilterProducts возвращает товары, подходящие под фильтр.
	FilterProducts(filter ProductFilter) ([]Product, error)
	// Create регистрирует товар; ErrProductConflict при повторе ID или кода.
	Create(product Product) error
	// Update заменяет карточку товара.
	Update(product Product) error
	// AdjustStock атомарно меняет остатки на дельты. Если хоть один остаток
	// стал бы отрицательным, ничего не меняется и возвращается *StockError.
	AdjustStock(deltas map[string]int) error
}

// CustomerRepository описывает клиентский справочник.
type CustomerRepository interface {
	ListCustomers() ([]Customer, error)
	// FindCustomer возвращает клиента или ErrCustomerNotFound.
	FindCustomer(id string) (Customer, error)
	// SearchCustomers ищет по имени, документу, email и телефону.
	SearchCustomers(term string) ([]Customer, error)
	// Create добавляет клиента; ErrCustomerConflict при повторе ID или документа.
	Create(customer Customer) error
	Update(customer Customer) error
	Delete(id string) error
}

// InvoiceRepository — журнал выставленных счетов.
type InvoiceRepository interface {
	// Append добавляет счёт; ErrInvoiceNumberConflict, если номер занят.
	Append(invoice Invoice) error
	// FindByNumber возвращает счёт или ErrInvoiceNotFound.
	FindByNumber(number string) (Invoice, error)
	// Exists проверяет, занят ли номер.
	Exists(number string) (bool, error)
	// Filter возвращает выборку в порядке добавления (или обратном при Newest).
	Filter(filter InvoiceFilter) (InvoiceView, error)
	// SetStatus меняет статус по правилам переходов и возвращает обновлённый счёт.
	SetStatus(number string, status InvoiceStatus, at time.Time) (Invoice, error)
	// Stats считает сводку по статусам.
	Stats() (InvoiceStats, error)
}

// CartRepository хранит открытые корзины продаж.
type CartRepository interface {
	Put(cart *Order) error
	// Get возвращает корзину или ErrCartNotFound.
	Get(id string) (*Order, error)
	Delete(id string) error
	// DeleteIdleBefore удаляет корзины, не менявшиеся с момента before.
	DeleteIdleBefore(before time.Time) (int, error)
	Count() (int, error)
}
