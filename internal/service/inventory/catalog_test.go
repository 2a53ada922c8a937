package inventory_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/vladislavdragonenkov/perfumery/internal/domain"
	"github.com/vladislavdragonenkov/perfumery/internal/messaging/kafka"
	"github.com/vladislavdragonenkov/perfumery/internal/service/inventory"
	"github.com/vladislavdragonenkov/perfumery/internal/storage/memory"
)

func TestCatalogService_ReserveAndRelease(t *testing.T) {
	catalog := memory.NewCatalogRepository(memory.DemoProducts()...)
	svc := inventory.NewCatalogService(catalog)

	lines := []domain.InvoiceLine{
		{ProductID: "1", Quantity: 2},
		{ProductID: "3", Quantity: 1},
		{ProductID: "1", Quantity: 1},
	}
	require.NoError(t, svc.Reserve("FAC-000001", lines))

	chanel, err := catalog.GetProduct("1")
	require.NoError(t, err)
	require.Equal(t, 12, chanel.AvailableStock)

	require.NoError(t, svc.Release("FAC-000001", lines))
	chanel, _ = catalog.GetProduct("1")
	orchid, _ := catalog.GetProduct("3")
	require.Equal(t, 15, chanel.AvailableStock)
	require.Equal(t, 8, orchid.AvailableStock)
}

func TestCatalogService_ReserveRejectsWholeInvoice(t *testing.T) {
	catalog := memory.NewCatalogRepository(memory.DemoProducts()...)
	svc := inventory.NewCatalogService(catalog)

	err := svc.Reserve("FAC-000002", []domain.InvoiceLine{
		{ProductID: "1", Quantity: 1},
		{ProductID: "4", Quantity: 2},
	})
	require.ErrorIs(t, err, domain.ErrStockExceeded)

	chanel, _ := catalog.GetProduct("1")
	require.Equal(t, 15, chanel.AvailableStock)
}

func TestCatalogService_EnqueuesLowStockEvent(t *testing.T) {
	catalog := memory.NewCatalogRepository(memory.DemoProducts()...)
	outbox := memory.NewOutboxRepository()
	svc := inventory.NewCatalogService(catalog, inventory.WithOutbox(outbox))

	// Black Orchid: 8 -> 3, минимум 3.
	require.NoError(t, svc.Reserve("FAC-000003", []domain.InvoiceLine{{ProductID: "3", Quantity: 5}}))

	pending := outbox.AllPending()
	require.Len(t, pending, 1)
	require.Equal(t, string(kafka.EventTypeStockLow), pending[0].EventType)

	var event kafka.StockEvent
	require.NoError(t, json.Unmarshal(pending[0].Payload, &event))
	require.Equal(t, 3, event.Available)
	require.Equal(t, "TF-003", event.Code)
}
