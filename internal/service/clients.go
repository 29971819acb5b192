package service

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/boddenberg/realty-portal-bfa/internal/domain"
	"github.com/boddenberg/realty-portal-bfa/internal/form"
	"github.com/boddenberg/realty-portal-bfa/internal/port"
	"github.com/boddenberg/realty-portal-bfa/internal/session"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

// PropertyOther is the property description that needs a free-text detail.
const PropertyOther = "Other"

// ClientService handles single client records. Lists go through Fetcher.
type ClientService struct {
	clients port.ClientStore
	logger  *zap.Logger
}

// NewClientService creates a new client service.
func NewClientService(clients port.ClientStore, logger *zap.Logger) *ClientService {
	return &ClientService{clients: clients, logger: logger}
}

// ValidateClient checks a client form before it is sent.
func ValidateClient(f *domain.ClientForm) error {
	errs := []error{
		form.Required("customerName", f.CustomerName),
		form.ValidateEmail("email", f.Email),
		form.ValidatePhone("phone", f.Phone),
		form.Required("address", f.Address),
	}
	if !slices.Contains(domain.DocumentTypes, f.DocumentType) {
		errs = append(errs, &domain.ErrValidation{
			Field:   "documentType",
			Message: "must be one of: " + strings.Join(domain.DocumentTypes, ", "),
		})
	}
	errs = append(errs, form.Required("propertyDescription", f.PropertyDescription))
	if f.PropertyDescription == PropertyOther {
		errs = append(errs, form.Required("propertyDescriptionOther", f.PropertyDescriptionOther))
	}
	errs = append(errs,
		form.Required("compensationType", f.CompensationType),
		form.Required("compensationValue", f.CompensationValue),
	)
	if _, err := time.Parse(time.DateOnly, f.ExpirationDate); err != nil {
		errs = append(errs, &domain.ErrValidation{Field: "expirationDate", Message: "must be a date (YYYY-MM-DD)"})
	}
	if domain.RequiresRetainer(f.DocumentType) {
		if f.RetainerFee == nil || *f.RetainerFee < 0 {
			errs = append(errs, &domain.ErrValidation{Field: "retainerFee", Message: "is required for exclusive agreements"})
		}
		if f.DaysOfExecution == nil || *f.DaysOfExecution <= 0 {
			errs = append(errs, &domain.ErrValidation{Field: "daysOfExecution", Message: "must be a positive number of days"})
		}
	}
	return form.First(errs...)
}

// Get (GET /api/clients/{id})
func (s *ClientService) Get(ctx context.Context, st *session.Store, id string) (*domain.ClientForm, error) {
	ctx, span := tracer.Start(ctx, "ClientService.Get")
	defer span.End()
	span.SetAttributes(attribute.String("client.id", id))

	rec, err := s.clients.GetClient(ctx, st.Token(), id)
	if err != nil {
		return nil, fmt.Errorf("get client: %w", err)
	}
	out := rec.ToForm()
	return &out, nil
}

// Create (POST /api/clients)
//
// Agents always create clients for themselves.
func (s *ClientService) Create(ctx context.Context, st *session.Store, f domain.ClientForm) (*domain.ClientForm, error) {
	ctx, span := tracer.Start(ctx, "ClientService.Create")
	defer span.End()

	f.ID = ""
	if err := s.prepare(st, &f); err != nil {
		return nil, err
	}
	rec, err := s.clients.CreateClient(ctx, st.Token(), f.ToRecord())
	if err != nil {
		return nil, fmt.Errorf("create client: %w", err)
	}
	s.logger.Info("client created", zap.String("client_id", rec.ID), zap.String("agent_id", rec.AgentID))
	out := rec.ToForm()
	return &out, nil
}

// Update (PUT /api/clients/{id})
func (s *ClientService) Update(ctx context.Context, st *session.Store, id string, f domain.ClientForm) (*domain.ClientForm, error) {
	ctx, span := tracer.Start(ctx, "ClientService.Update")
	defer span.End()
	span.SetAttributes(attribute.String("client.id", id))

	f.ID = id
	if err := s.prepare(st, &f); err != nil {
		return nil, err
	}
	rec, err := s.clients.UpdateClient(ctx, st.Token(), id, f.ToRecord())
	if err != nil {
		return nil, fmt.Errorf("update client: %w", err)
	}
	out := rec.ToForm()
	return &out, nil
}

// Delete (DELETE /api/clients/{id})
func (s *ClientService) Delete(ctx context.Context, st *session.Store, id string) error {
	ctx, span := tracer.Start(ctx, "ClientService.Delete")
	defer span.End()

	if err := s.clients.DeleteClient(ctx, st.Token(), id); err != nil {
		return fmt.Errorf("delete client: %w", err)
	}
	s.logger.Info("client deleted", zap.String("client_id", id))
	return nil
}

// PDF (GET /api/clients/{id}/pdf) passes the backend document through.
func (s *ClientService) PDF(ctx context.Context, st *session.Store, id string) (*domain.Document, error) {
	ctx, span := tracer.Start(ctx, "ClientService.PDF")
	defer span.End()

	doc, err := s.clients.ClientPDF(ctx, st.Token(), id)
	if err != nil {
		return nil, fmt.Errorf("client pdf: %w", err)
	}
	if doc.Filename == "" {
		doc.Filename = "client-" + id + ".pdf"
	}
	return doc, nil
}

func (s *ClientService) prepare(st *session.Store, f *domain.ClientForm) error {
	user := st.User()
	if user == nil {
		return &domain.ErrUnauthorized{Message: "no active session"}
	}
	if user.Role == domain.RoleAgent {
		f.AgentID = user.ID
	}
	return ValidateClient(f)
}
