package customer

import (
	"strings"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/perfumery/internal/domain"
)

// Service — клиентский справочник.
type Service struct {
	repo   domain.CustomerRepository
	logger *log.Entry
	newID  func() string
}

// NewService создаёт сервис справочника клиентов. logger может быть nil.
func NewService(repo domain.CustomerRepository, logger *log.Entry) *Service {
	if logger == nil {
		logger = log.WithField("component", "customers")
	}
	return &Service{repo: repo, logger: logger, newID: uuid.NewString}
}

// Save создаёт клиента без ID или обновляет существующего.
func (s *Service) Save(customer domain.Customer) (domain.Customer, error) {
	customer.FullName = strings.TrimSpace(customer.FullName)
	customer.TaxID = strings.TrimSpace(customer.TaxID)
	customer.Email = strings.ToLower(strings.TrimSpace(customer.Email))
	customer.Phone = strings.TrimSpace(customer.Phone)
	customer.Address = strings.TrimSpace(customer.Address)

	if errs := customer.Validate(); len(errs) > 0 {
		return domain.Customer{}, domain.InvalidArgument(errs...)
	}

	created := customer.ID == ""
	if created {
		customer.ID = s.newID()
		if err := s.repo.Create(customer); err != nil {
			return domain.Customer{}, err
		}
	} else if err := s.repo.Update(customer); err != nil {
		return domain.Customer{}, err
	}

	s.logger.WithFields(log.Fields{
		"customer_id": customer.ID,
		"created":     created,
	}).Info("customer saved")

	return s.repo.FindCustomer(customer.ID)
}

// Get возвращает клиента по ID.
func (s *Service) Get(id string) (domain.Customer, error) {
	return s.repo.FindCustomer(id)
}

// List возвращает клиентов в порядке регистрации; term сужает выборку.
func (s *Service) List(term string) ([]domain.Customer, error) {
	if strings.TrimSpace(term) == "" {
		return s.repo.ListCustomers()
	}
	return s.repo.SearchCustomers(term)
}

// Delete удаляет клиента. Выставленные счета хранят свою копию данных клиента.
func (s *Service) Delete(id string) error {
	if err := s.repo.Delete(id); err != nil {
		return err
	}
	s.logger.WithField("customer_id", id).Info("customer deleted")
	return nil
}
