package app

import (
	"context"
	"errors"
	"fmt"

	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/perfumery/internal/domain"
	"github.com/vladislavdragonenkov/perfumery/internal/metrics"
	"github.com/vladislavdragonenkov/perfumery/internal/service/catalog"
	"github.com/vladislavdragonenkov/perfumery/internal/service/customer"
	"github.com/vladislavdragonenkov/perfumery/internal/service/dashboard"
	grpcsvc "github.com/vladislavdragonenkov/perfumery/internal/service/grpc"
	"github.com/vladislavdragonenkov/perfumery/internal/service/inventory"
	"github.com/vladislavdragonenkov/perfumery/internal/service/invoice"
	"github.com/vladislavdragonenkov/perfumery/internal/service/numbering"
	"github.com/vladislavdragonenkov/perfumery/internal/service/sales"
	"github.com/vladislavdragonenkov/perfumery/internal/storage/memory"
	"github.com/vladislavdragonenkov/perfumery/internal/storage/postgres"
)

// runtimeDependencies — хранилища, выбранные драйвером из конфигурации.
// Корзины всегда живут в памяти: это короткие сессии кассы.
type runtimeDependencies struct {
	catalog     domain.CatalogRepository
	customers   domain.CustomerRepository
	invoices    domain.InvoiceRepository
	carts       domain.CartRepository
	outbox      domain.OutboxRepository
	timeline    domain.TimelineRepository
	idempotency domain.IdempotencyRepository
	numbers     domain.NumberGenerator
	store       *postgres.Store
}

// ping проверяет доступность хранилища; memory всегда доступно.
func (d *runtimeDependencies) ping(ctx context.Context) error {
	if d.store == nil {
		return nil
	}
	return d.store.Ping(ctx)
}

func (d *runtimeDependencies) close() error {
	if d == nil || d.store == nil {
		return nil
	}
	return d.store.Close()
}

func initRuntimeDependencies(ctx context.Context, cfg Config, logger *log.Entry) (*runtimeDependencies, error) {
	switch cfg.StorageDriver {
	case "", StorageDriverMemory:
		return initMemoryDependencies(cfg, logger)
	case StorageDriverPostgres:
		return initPostgresDependencies(ctx, cfg, logger)
	default:
		return nil, fmt.Errorf("unsupported storage driver %q", cfg.StorageDriver)
	}
}

func initMemoryDependencies(cfg Config, logger *log.Entry) (*runtimeDependencies, error) {
	var (
		products  []domain.Product
		customers []domain.Customer
	)
	if cfg.SeedDemoData {
		products = memory.DemoProducts()
		customers = memory.DemoCustomers()
	}

	var numbers domain.NumberGenerator
	switch cfg.InvoiceNumbering {
	case "", NumberingSequence:
		numbers = numbering.NewSequence(0)
	case NumberingRandom:
		numbers = numbering.NewRandom(nil)
	default:
		return nil, fmt.Errorf("unsupported invoice numbering %q", cfg.InvoiceNumbering)
	}

	logger.WithFields(log.Fields{
		"products":  len(products),
		"customers": len(customers),
		"numbering": cfg.InvoiceNumbering,
	}).Info("using in-memory storage")

	return &runtimeDependencies{
		catalog:     memory.NewCatalogRepository(products...),
		customers:   memory.NewCustomerRepository(customers...),
		invoices:    memory.NewInvoiceRepository(),
		carts:       memory.NewCartRepository(),
		outbox:      memory.NewOutboxRepository(),
		timeline:    memory.NewTimelineRepository(),
		idempotency: memory.NewIdempotencyRepository(),
		numbers:     numbers,
	}, nil
}

func initPostgresDependencies(ctx context.Context, cfg Config, logger *log.Entry) (*runtimeDependencies, error) {
	if cfg.PostgresDSN == "" {
		return nil, errors.New("postgres dsn is required for postgres storage driver")
	}

	store, err := postgres.OpenWithConfig(ctx, cfg.PostgresDSN, cfg.PostgresPool)
	if err != nil {
		return nil, err
	}

	if cfg.PostgresAutoMigrate {
		if err := store.EnsureSchema(ctx); err != nil {
			_ = store.Close()
			return nil, fmt.Errorf("apply migrations: %w", err)
		}
	}

	deps := &runtimeDependencies{
		catalog:     postgres.NewCatalogRepository(store),
		customers:   postgres.NewCustomerRepository(store),
		invoices:    postgres.NewInvoiceRepository(store, logger.WithField("repository", "invoices")),
		carts:       memory.NewCartRepository(),
		outbox:      postgres.NewOutboxRepository(store),
		timeline:    postgres.NewTimelineRepository(store),
		idempotency: postgres.NewIdempotencyRepository(store),
		numbers:     postgres.NewNumberSequence(store),
		store:       store,
	}

	if cfg.SeedDemoData {
		if err := seedIfEmpty(deps, logger); err != nil {
			_ = store.Close()
			return nil, err
		}
	}

	logger.WithField("auto_migrate", cfg.PostgresAutoMigrate).Info("using postgres storage")
	return deps, nil
}

// seedIfEmpty заполняет пустые каталог и справочник демо-данными.
func seedIfEmpty(deps *runtimeDependencies, logger *log.Entry) error {
	products, err := deps.catalog.ListProducts()
	if err != nil {
		return fmt.Errorf("seed catalog: %w", err)
	}
	if len(products) == 0 {
		for _, p := range memory.DemoProducts() {
			if err := deps.catalog.Create(p); err != nil && !errors.Is(err, domain.ErrProductConflict) {
				return fmt.Errorf("seed product %s: %w", p.Code, err)
			}
		}
		logger.Info("demo catalog seeded")
	}

	customers, err := deps.customers.ListCustomers()
	if err != nil {
		return fmt.Errorf("seed customers: %w", err)
	}
	if len(customers) == 0 {
		for _, c := range memory.DemoCustomers() {
			if err := deps.customers.Create(c); err != nil && !errors.Is(err, domain.ErrCustomerConflict) {
				return fmt.Errorf("seed customer %s: %w", c.TaxID, err)
			}
		}
		logger.Info("demo customers seeded")
	}
	return nil
}

// services — собранные прикладные сервисы поверх хранилищ.
type services struct {
	grpc  grpcsvc.Services
	sales *sales.Service
}

func buildServices(deps *runtimeDependencies, m *metrics.BillingMetrics, logger *log.Entry) services {
	invoiceLogger := logger.WithField("layer", "invoice")
	invoiceOpts := []invoice.Option{
		invoice.WithInventory(inventory.NewCatalogService(deps.catalog,
			inventory.WithOutbox(deps.outbox),
			inventory.WithLogger(logger.WithField("layer", "inventory")),
		)),
		invoice.WithOutbox(deps.outbox),
		invoice.WithTimeline(deps.timeline),
		invoice.WithMetrics(m),
		invoice.WithLogger(invoiceLogger),
	}

	issuer := invoice.NewIssuer(deps.catalog, deps.invoices, deps.numbers, invoiceOpts...)
	salesSvc := sales.NewService(deps.carts, deps.catalog, deps.customers, issuer,
		sales.WithMetrics(m),
		sales.WithLogger(logger.WithField("layer", "sales")),
	)

	return services{
		grpc: grpcsvc.Services{
			Catalog:     catalog.NewService(deps.catalog, logger.WithField("layer", "catalog")),
			Customers:   customer.NewService(deps.customers, logger.WithField("layer", "customers")),
			Sales:       salesSvc,
			Ledger:      invoice.NewLedger(deps.invoices, invoiceOpts...),
			Dashboard:   dashboard.NewService(deps.catalog, deps.customers, deps.invoices),
			Idempotency: deps.idempotency,
		},
		sales: salesSvc,
	}
}
