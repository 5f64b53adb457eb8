package services

import (
	"context"
	"fmt"
	"net/url"

	"leadbook/internal/models"
	"leadbook/internal/repositories"

	"github.com/google/uuid"
)

// LeadPage is one page of a lead listing
type LeadPage struct {
	Leads      []*models.Lead
	Total      int64
	Page       int
	Limit      int
	TotalPages int64
}

type LeadService interface {
	Create(ctx context.Context, ownerID uuid.UUID, patch *models.LeadPatch) (*models.Lead, error)
	List(ctx context.Context, ownerID uuid.UUID, params url.Values) (*LeadPage, error)
	Get(ctx context.Context, ownerID, id uuid.UUID) (*models.Lead, error)
	Update(ctx context.Context, ownerID, id uuid.UUID, patch *models.LeadPatch) (*models.Lead, error)
	Delete(ctx context.Context, ownerID, id uuid.UUID) error
}

type leadService struct {
	leadRepo repositories.LeadRepository
	metrics  LeadMetrics
}

// LeadMetrics receives lead lifecycle events
type LeadMetrics interface {
	RecordLeadCreated(source string)
	RecordLeadDeleted()
}

type noopLeadMetrics struct{}

func (noopLeadMetrics) RecordLeadCreated(string) {}
func (noopLeadMetrics) RecordLeadDeleted()       {}

func NewLeadService(leadRepo repositories.LeadRepository, metrics LeadMetrics) LeadService {
	if metrics == nil {
		metrics = noopLeadMetrics{}
	}
	return &leadService{leadRepo: leadRepo, metrics: metrics}
}

// Create builds a lead from the payload. The owner always comes from the
// session, never from the payload.
func (s *leadService) Create(ctx context.Context, ownerID uuid.UUID, patch *models.LeadPatch) (*models.Lead, error) {
	lead := models.NewLead(ownerID)
	if patch != nil {
		patch.ApplyTo(lead)
	}
	lead.Normalize()
	if err := lead.Validate(); err != nil {
		return nil, err
	}

	if err := s.leadRepo.Create(ctx, lead); err != nil {
		return nil, err
	}
	s.metrics.RecordLeadCreated(lead.Source)
	return lead, nil
}

func (s *leadService) List(ctx context.Context, ownerID uuid.UUID, params url.Values) (*LeadPage, error) {
	query := BuildLeadQuery(params, ownerID)

	leads, err := s.leadRepo.Find(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list leads: %w", err)
	}
	total, err := s.leadRepo.Count(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to count leads: %w", err)
	}
	if leads == nil {
		leads = []*models.Lead{}
	}

	return &LeadPage{
		Leads:      leads,
		Total:      total,
		Page:       query.Page,
		Limit:      query.Limit,
		TotalPages: query.TotalPages(total),
	}, nil
}

func (s *leadService) Get(ctx context.Context, ownerID, id uuid.UUID) (*models.Lead, error) {
	return s.leadRepo.GetByID(ctx, ownerID, id)
}

// Update applies only the supplied fields, then revalidates the whole lead.
func (s *leadService) Update(ctx context.Context, ownerID, id uuid.UUID, patch *models.LeadPatch) (*models.Lead, error) {
	lead, err := s.leadRepo.GetByID(ctx, ownerID, id)
	if err != nil {
		return nil, err
	}
	if patch != nil {
		patch.ApplyTo(lead)
	}
	lead.ID = id
	lead.CreatedBy = ownerID
	lead.Normalize()
	if err := lead.Validate(); err != nil {
		return nil, err
	}

	if err := s.leadRepo.Update(ctx, lead); err != nil {
		return nil, err
	}
	return lead, nil
}

func (s *leadService) Delete(ctx context.Context, ownerID, id uuid.UUID) error {
	if err := s.leadRepo.Delete(ctx, ownerID, id); err != nil {
		return err
	}
	s.metrics.RecordLeadDeleted()
	return nil
}
