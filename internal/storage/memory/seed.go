package memory

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/vladislavdragonenkov/perfumery/internal/domain"
)

// DemoProducts — стартовый каталог для локального запуска.
func DemoProducts() []domain.Product {
	product := func(id, code, name, brand, category, price string, stock, minStock int) domain.Product {
		return domain.Product{
			ID:             id,
			Code:           code,
			Name:           name,
			Brand:          brand,
			Category:       category,
			UnitPrice:      decimal.RequireFromString(price),
			AvailableStock: stock,
			MinStock:       minStock,
		}
	}

	return []domain.Product{
		product("1", "CH-001", "Chanel No. 5", "Chanel", "Femenino", "120.00", 15, 5),
		product("2", "DI-002", "Sauvage", "Dior", "Masculino", "85.00", 2, 5),
		product("3", "TF-003", "Black Orchid", "Tom Ford", "Unisex", "150.00", 8, 3),
		product("4", "VE-004", "Versace Eros", "Versace", "Masculino", "75.00", 1, 5),
		product("5", "LA-005", "La Vie Est Belle", "Lancôme", "Femenino", "95.00", 12, 4),
		product("6", "AR-006", "Acqua di Gio", "Armani", "Masculino", "80.00", 20, 6),
	}
}

// DemoCustomers — стартовый справочник клиентов для локального запуска.
func DemoCustomers() []domain.Customer {
	registered := func(month time.Month, day int) time.Time {
		return time.Date(2024, month, day, 0, 0, 0, 0, time.UTC)
	}

	return []domain.Customer{
		{ID: "1", FullName: "Juan Pérez García", TaxID: "1234567890", Email: "juan.perez@email.com", Phone: "+593 99 123 4567", Address: "Av. Amazonas 123, Quito", RegisteredAt: registered(time.January, 15)},
		{ID: "2", FullName: "María González López", TaxID: "0987654321", Email: "maria.gonzalez@email.com", Phone: "+593 98 765 4321", Address: "Calle Principal 456, Guayaquil", RegisteredAt: registered(time.February, 20)},
		{ID: "3", FullName: "Carlos López Mendoza", TaxID: "1122334455", Email: "carlos.lopez@email.com", Phone: "+593 97 112 2334", Address: "Sector Norte 789, Cuenca", RegisteredAt: registered(time.March, 10)},
		{ID: "4", FullName: "Ana Rodríguez Silva", TaxID: "5566778899", Email: "ana.rodriguez@email.com", Phone: "+593 96 556 6778", Address: "Zona Centro 321, Ambato", RegisteredAt: registered(time.April, 5)},
	}
}
