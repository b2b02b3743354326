package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"jurix-backend/models"
	"jurix-backend/repository"

	"github.com/google/uuid"
)

// NormaService handles business logic for normas
type NormaService struct {
	normaRepo       *repository.NormaRepository
	dispositivoRepo *repository.DispositivoRepository
	eventoRepo      *repository.EventoRepository
}

// NormaServiceOption is a functional option for NormaService
type NormaServiceOption func(*NormaService)

// WithNormaRepository sets the norma repository
func WithNormaRepository(repo *repository.NormaRepository) NormaServiceOption {
	return func(s *NormaService) {
		s.normaRepo = repo
	}
}

// WithDispositivoRepository sets the dispositivo repository
func WithDispositivoRepository(repo *repository.DispositivoRepository) NormaServiceOption {
	return func(s *NormaService) {
		s.dispositivoRepo = repo
	}
}

// WithEventoRepository sets the evento repository
func WithEventoRepository(repo *repository.EventoRepository) NormaServiceOption {
	return func(s *NormaService) {
		s.eventoRepo = repo
	}
}

// NewNormaService creates a new norma service
func NewNormaService(opts ...NormaServiceOption) *NormaService {
	s := &NormaService{}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

var (
	ErrNormaNotFound    = errors.New("norma not found")
	ErrInvalidNorma     = errors.New("norma missing required fields")
	ErrDuplicateNorma   = errors.New("norma already registered")
	ErrNormaHasNoText   = errors.New("norma has no original text")
	ErrJobNotFound      = errors.New("processing job not found")
	ErrJobAlreadyActive = errors.New("a processing job is already active for this norma")
)

// CreateNormaRequest represents a request to register a norma
type CreateNormaRequest struct {
	Tipo           string
	Numero         string
	Ano            int
	Ementa         string
	TextoOriginal  string
	DataPublicacao *time.Time
	DataVigencia   *time.Time
}

// CreateNormaResult represents the result of registering a norma
type CreateNormaResult struct {
	Norma *models.Norma
}

// CreateNorma registers a norma with its original text
func (s *NormaService) CreateNorma(ctx context.Context, req CreateNormaRequest) (*CreateNormaResult, error) {
	if s.normaRepo == nil {
		return nil, errors.New("norma repository not set")
	}

	tipo := strings.TrimSpace(req.Tipo)
	numero := strings.TrimSpace(req.Numero)
	if tipo == "" || numero == "" || req.Ano == 0 {
		return nil, ErrInvalidNorma
	}

	// The (tipo, numero, ano) triple is the public identity of a norma
	if existing, err := s.normaRepo.FindByReference(ctx, tipo, numero, req.Ano); err == nil && existing != nil {
		return nil, ErrDuplicateNorma
	}

	norma := &models.Norma{
		Tipo:           tipo,
		Numero:         numero,
		Ano:            req.Ano,
		Ementa:         req.Ementa,
		TextoOriginal:  req.TextoOriginal,
		DataPublicacao: req.DataPublicacao,
		DataVigencia:   req.DataVigencia,
		Status:         models.NormaStatusPending,
	}

	if err := s.normaRepo.Create(ctx, norma); err != nil {
		return nil, err
	}

	return &CreateNormaResult{Norma: norma}, nil
}

// GetNormaRequest represents a request to get a norma
type GetNormaRequest struct {
	ID uuid.UUID
}

// GetNormaResult carries the norma with its segmented structure and the
// alteration events its text authors.
type GetNormaResult struct {
	Norma          *models.Norma
	Dispositivos   []models.Dispositivo
	Eventos        []models.EventoAlteracao
	InVacatioLegis bool
}

// GetNorma retrieves a norma by ID together with its dispositivo tree
func (s *NormaService) GetNorma(ctx context.Context, req GetNormaRequest) (*GetNormaResult, error) {
	if s.normaRepo == nil {
		return nil, errors.New("norma repository not set")
	}

	norma, err := s.normaRepo.GetByID(ctx, req.ID)
	if err != nil {
		return nil, ErrNormaNotFound
	}

	result := &GetNormaResult{
		Norma:          norma,
		InVacatioLegis: norma.InVacatioLegis(time.Now()),
	}

	if s.dispositivoRepo != nil {
		dispositivos, err := s.dispositivoRepo.ListByNorma(ctx, req.ID)
		if err != nil {
			return nil, err
		}
		result.Dispositivos = dispositivos
	}

	if s.eventoRepo != nil {
		eventos, err := s.eventoRepo.ListBySource(ctx, req.ID)
		if err != nil {
			return nil, err
		}
		result.Eventos = eventos
	}

	return result, nil
}

// ListNormasRequest represents a request to list normas
type ListNormasRequest struct {
	Tipo   string
	Ano    int
	Status *models.NormaStatus
	Limit  int
	Offset int
}

// ListNormasResult represents the result of listing normas
type ListNormasResult struct {
	Normas []*models.Norma
}

// ListNormas lists registered normas with optional filters
func (s *NormaService) ListNormas(ctx context.Context, req ListNormasRequest) (*ListNormasResult, error) {
	if s.normaRepo == nil {
		return nil, errors.New("norma repository not set")
	}

	if req.Limit <= 0 || req.Limit > 100 {
		req.Limit = 50
	}

	normas, err := s.normaRepo.List(ctx, req.Tipo, req.Ano, req.Status, req.Limit, req.Offset)
	if err != nil {
		return nil, err
	}

	return &ListNormasResult{Normas: normas}, nil
}
