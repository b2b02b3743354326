package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"jurix-backend/models"
	"jurix-backend/processing"
	"jurix-backend/repository"

	"github.com/google/uuid"
)

// Step names shown in job progress
const (
	stepSegmentation  = "Segmentation"
	stepExtraction    = "Entity Extraction"
	stepConsolidation = "Consolidation"
)

// PipelineService runs the segmentation, alteration-event extraction and
// consolidation pipeline for a norma
type PipelineService struct {
	normaRepo       *repository.NormaRepository
	dispositivoRepo *repository.DispositivoRepository
	eventoRepo      *repository.EventoRepository
	jobRepo         *repository.ProcessingJobRepository
	chunkRepo       *repository.ChunkRepository

	segmenter    *processing.Segmenter
	extractor    *processing.Extractor
	consolidator *processing.Consolidator
}

// PipelineServiceOption is a functional option for PipelineService
type PipelineServiceOption func(*PipelineService)

// PipelineWithNormaRepository sets the norma repository
func PipelineWithNormaRepository(repo *repository.NormaRepository) PipelineServiceOption {
	return func(s *PipelineService) {
		s.normaRepo = repo
	}
}

// PipelineWithDispositivoRepository sets the dispositivo repository
func PipelineWithDispositivoRepository(repo *repository.DispositivoRepository) PipelineServiceOption {
	return func(s *PipelineService) {
		s.dispositivoRepo = repo
	}
}

// PipelineWithEventoRepository sets the evento repository
func PipelineWithEventoRepository(repo *repository.EventoRepository) PipelineServiceOption {
	return func(s *PipelineService) {
		s.eventoRepo = repo
	}
}

// PipelineWithJobRepository sets the processing job repository
func PipelineWithJobRepository(repo *repository.ProcessingJobRepository) PipelineServiceOption {
	return func(s *PipelineService) {
		s.jobRepo = repo
	}
}

// PipelineWithChunkRepository sets the chunk repository
func PipelineWithChunkRepository(repo *repository.ChunkRepository) PipelineServiceOption {
	return func(s *PipelineService) {
		s.chunkRepo = repo
	}
}

// PipelineWithConsolidator overrides the consolidator (used for a fixed clock)
func PipelineWithConsolidator(c *processing.Consolidator) PipelineServiceOption {
	return func(s *PipelineService) {
		s.consolidator = c
	}
}

// NewPipelineService creates a new pipeline service
func NewPipelineService(opts ...PipelineServiceOption) *PipelineService {
	s := &PipelineService{
		segmenter:    processing.NewSegmenter(),
		extractor:    processing.NewExtractor(),
		consolidator: processing.NewConsolidator(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// StartProcessingRequest represents a request to process a norma
type StartProcessingRequest struct {
	NormaID uuid.UUID
	// Force discards previously derived dispositivos, events and chunks
	// before reprocessing
	Force bool
}

// StartProcessingResult represents the result of creating a processing job
type StartProcessingResult struct {
	JobID uuid.UUID
}

// StartProcessing validates the norma and creates a processing job,
// returning immediately. The actual work happens in ProcessNorma.
func (s *PipelineService) StartProcessing(ctx context.Context, req StartProcessingRequest) (*StartProcessingResult, error) {
	if s.normaRepo == nil {
		return nil, errors.New("norma repository not set")
	}
	if s.jobRepo == nil {
		return nil, errors.New("processing job repository not set")
	}

	norma, err := s.normaRepo.GetByID(ctx, req.NormaID)
	if err != nil {
		return nil, ErrNormaNotFound
	}

	if strings.TrimSpace(norma.TextoOriginal) == "" {
		return nil, ErrNormaHasNoText
	}

	if existing, err := s.jobRepo.GetByNormaID(ctx, req.NormaID); err == nil && existing != nil {
		if existing.Status == models.JobStatusPending || existing.Status == models.JobStatusInProgress {
			return nil, ErrJobAlreadyActive
		}
	}

	job := &models.ProcessingJob{
		ID:      uuid.New(),
		NormaID: req.NormaID,
		Status:  models.JobStatusPending,
		Force:   req.Force,
		Steps: models.ProcessingSteps{
			{Name: stepSegmentation, Status: "pending"},
			{Name: stepExtraction, Status: "pending"},
			{Name: stepConsolidation, Status: "pending"},
		},
	}

	if err := s.jobRepo.Create(ctx, job); err != nil {
		return nil, fmt.Errorf("failed to create processing job: %w", err)
	}

	return &StartProcessingResult{JobID: job.ID}, nil
}

// GetJobStatusRequest represents a request to get job status
type GetJobStatusRequest struct {
	JobID uuid.UUID
}

// GetJobStatusResult represents the result of getting job status
type GetJobStatusResult struct {
	Job *models.ProcessingJob
}

// GetJobStatus retrieves the status of a processing job
func (s *PipelineService) GetJobStatus(ctx context.Context, req GetJobStatusRequest) (*GetJobStatusResult, error) {
	if s.jobRepo == nil {
		return nil, errors.New("processing job repository not set")
	}

	job, err := s.jobRepo.GetByID(ctx, req.JobID)
	if err != nil {
		return nil, ErrJobNotFound
	}

	return &GetJobStatusResult{Job: job}, nil
}

// ProcessNorma performs the pipeline work in the background. It runs in a
// goroutine and updates job progress as each step finishes.
func (s *PipelineService) ProcessNorma(ctx context.Context, jobID uuid.UUID) error {
	if s.jobRepo == nil || s.normaRepo == nil || s.dispositivoRepo == nil || s.eventoRepo == nil {
		return errors.New("pipeline service missing repositories")
	}

	job, err := s.jobRepo.GetByID(ctx, jobID)
	if err != nil {
		return fmt.Errorf("failed to load processing job: %w", err)
	}

	norma, err := s.normaRepo.GetByID(ctx, job.NormaID)
	if err != nil {
		s.markJobFailed(ctx, jobID, "failed to load norma: "+err.Error())
		return err
	}
	if strings.TrimSpace(norma.TextoOriginal) == "" {
		s.markJobFailed(ctx, jobID, "norma has no original text")
		return ErrNormaHasNoText
	}

	if err := s.jobRepo.UpdateStatus(ctx, jobID, models.JobStatusInProgress); err != nil {
		return fmt.Errorf("failed to update job status: %w", err)
	}

	if job.Force {
		if err := s.eventoRepo.DeleteReferencingNorma(ctx, norma.ID); err != nil {
			s.markJobFailed(ctx, jobID, "failed to clear previous events: "+err.Error())
			return err
		}
		if s.chunkRepo != nil {
			if err := s.chunkRepo.DeleteByNorma(ctx, norma.ID); err != nil {
				log.Printf("Warning: Failed to clear chunks for %s: %v", norma.String(), err)
			}
		}
	}

	// 1. Segmentation
	if err := s.updateStepStatus(ctx, jobID, stepSegmentation, "in_progress"); err != nil {
		s.markJobFailed(ctx, jobID, "failed to update step: "+err.Error())
		return err
	}

	units := s.segmenter.Segment(norma.TextoOriginal)
	if len(units) == 0 {
		// A norma whose text yields no structural markers needs a human
		// look rather than a hard failure
		if err := s.normaRepo.MarkNeedsReview(ctx, norma.ID, "no structural markers found in text"); err != nil {
			log.Printf("Warning: Failed to flag %s for review: %v", norma.String(), err)
		}
		s.markJobFailed(ctx, jobID, "segmentation produced no dispositivos")
		return fmt.Errorf("segmentation produced no dispositivos for %s", norma.String())
	}

	dispositivos, err := s.dispositivoRepo.ReplaceForNorma(ctx, norma.ID, units)
	if err != nil {
		s.markJobFailed(ctx, jobID, "failed to store dispositivos: "+err.Error())
		return err
	}

	if err := s.normaRepo.UpdateStatus(ctx, norma.ID, models.NormaStatusSegmented); err != nil {
		s.markJobFailed(ctx, jobID, "failed to update norma status: "+err.Error())
		return err
	}
	if err := s.updateStepStatus(ctx, jobID, stepSegmentation, "completed"); err != nil {
		s.markJobFailed(ctx, jobID, "failed to update step: "+err.Error())
		return err
	}

	// 2. Entity extraction
	if err := s.updateStepStatus(ctx, jobID, stepExtraction, "in_progress"); err != nil {
		s.markJobFailed(ctx, jobID, "failed to update step: "+err.Error())
		return err
	}

	resolve := func(ctx context.Context, tipo, numero string, ano int) (*uuid.UUID, error) {
		target, err := s.normaRepo.FindByReference(ctx, tipo, numero, ano)
		if err != nil {
			return nil, err
		}
		return &target.ID, nil
	}

	eventos := make([]models.EventoAlteracao, 0)
	for _, d := range dispositivos {
		found := s.extractor.ExtractEvents(ctx, d.Texto, d.ID, norma.ID, resolve)
		eventos = append(eventos, found...)
	}

	// Pinpoint references resolve against the target norma's own structure
	for i := range eventos {
		s.resolveTargetDispositivo(ctx, &eventos[i])
	}

	if err := s.eventoRepo.ReplaceForNorma(ctx, norma.ID, eventos); err != nil {
		s.markJobFailed(ctx, jobID, "failed to store events: "+err.Error())
		return err
	}

	if err := s.normaRepo.UpdateStatus(ctx, norma.ID, models.NormaStatusEntitiesExtracted); err != nil {
		s.markJobFailed(ctx, jobID, "failed to update norma status: "+err.Error())
		return err
	}
	if err := s.updateStepStatus(ctx, jobID, stepExtraction, "completed"); err != nil {
		s.markJobFailed(ctx, jobID, "failed to update step: "+err.Error())
		return err
	}

	// 3. Consolidation
	if err := s.updateStepStatus(ctx, jobID, stepConsolidation, "in_progress"); err != nil {
		s.markJobFailed(ctx, jobID, "failed to update step: "+err.Error())
		return err
	}

	if err := s.consolidateNorma(ctx, norma, dispositivos); err != nil {
		s.markJobFailed(ctx, jobID, "failed to consolidate: "+err.Error())
		return err
	}

	if err := s.updateStepStatus(ctx, jobID, stepConsolidation, "completed"); err != nil {
		s.markJobFailed(ctx, jobID, "failed to update step: "+err.Error())
		return err
	}

	if err := s.jobRepo.Complete(ctx, jobID); err != nil {
		return fmt.Errorf("failed to complete job: %w", err)
	}

	return nil
}

// pinpointLookup returns the dispositivo lookup key of an event whose
// target still needs resolution, and whether one applies. Norma-level
// citations and already-resolved events yield none.
func pinpointLookup(evento *models.EventoAlteracao) (models.TipoDispositivo, string, bool) {
	if evento.DispositivoAlvoID != nil || evento.ReferenciaNumero == "" {
		return "", "", false
	}
	tipo := models.TipoDispositivo(evento.ReferenciaTipo)
	switch tipo {
	case models.TipoArtigo, models.TipoParagrafo, models.TipoInciso, models.TipoAlinea:
		return tipo, evento.ReferenciaNumero, true
	}
	return "", "", false
}

// resolveTargetDispositivo links an event carrying a pinpoint reference to
// the concrete dispositivo inside its target norma. Unresolvable pinpoints
// are left norma-level; that is data quality, not an error.
func (s *PipelineService) resolveTargetDispositivo(ctx context.Context, evento *models.EventoAlteracao) {
	if evento.NormaAlvoID == nil {
		return
	}
	tipo, numero, ok := pinpointLookup(evento)
	if !ok {
		return
	}

	target, err := s.dispositivoRepo.FindByReference(ctx, *evento.NormaAlvoID, tipo, numero)
	if err != nil {
		log.Printf("Warning: Could not resolve %s %s in target norma: %v",
			evento.ReferenciaTipo, evento.ReferenciaNumero, err)
		return
	}
	evento.DispositivoAlvoID = &target.ID
}

// reresolveIncoming restores the dispositivo target of an incoming pinpoint
// event against the norma's current structure and persists the link.
func (s *PipelineService) reresolveIncoming(ctx context.Context, normaID uuid.UUID, evento *models.EventoAlteracao) {
	tipo, numero, ok := pinpointLookup(evento)
	if !ok {
		return
	}

	target, err := s.dispositivoRepo.FindByReference(ctx, normaID, tipo, numero)
	if err != nil {
		return
	}
	if err := s.eventoRepo.ResolveTarget(ctx, evento.ID, target.ID); err != nil {
		log.Printf("Warning: Failed to persist resolved target for event %s: %v", evento.ID, err)
	}
	evento.DispositivoAlvoID = &target.ID
}

// consolidateNorma re-renders the consolidated text of a norma from all
// events targeting it, stores the result and advances the norma status
func (s *PipelineService) consolidateNorma(ctx context.Context, norma *models.Norma, dispositivos []models.Dispositivo) error {
	eventos, fontes, err := s.eventoRepo.ListTargeting(ctx, norma.ID)
	if err != nil {
		return fmt.Errorf("failed to load targeting events: %w", err)
	}

	// Replacing a norma's dispositivos severs resolved targets of incoming
	// events (the FK nulls them), so every consolidation re-resolves
	// pinpoints against the current structure before rendering.
	for i := range eventos {
		s.reresolveIncoming(ctx, norma.ID, &eventos[i])
	}

	targeted := make([]processing.TargetedEvent, 0, len(eventos))
	for _, ev := range eventos {
		fonte, ok := fontes[ev.ID]
		if !ok {
			log.Printf("Warning: Event %s has no source norma, skipping", ev.ID)
			continue
		}
		targeted = append(targeted, processing.TargetedEvent{
			Evento: ev,
			Fonte: processing.SourceRef{
				Tipo:   fonte.Tipo,
				Numero: fonte.Numero,
				Ano:    fonte.Ano,
			},
		})
	}

	header := processing.Header{
		Tipo:           norma.Tipo,
		Numero:         norma.Numero,
		Ano:            norma.Ano,
		Ementa:         norma.Ementa,
		DataPublicacao: norma.DataPublicacao,
		DataVigencia:   norma.DataVigencia,
	}

	texto, stats := s.consolidator.Consolidate(dispositivos, targeted, header)

	if err := s.normaRepo.UpdateConsolidatedText(ctx, norma.ID, texto); err != nil {
		return fmt.Errorf("failed to store consolidated text: %w", err)
	}
	if err := s.normaRepo.UpdateStatus(ctx, norma.ID, models.NormaStatusConsolidated); err != nil {
		return fmt.Errorf("failed to update norma status: %w", err)
	}

	log.Printf("Consolidated %s: %d dispositivos, %d revoked, %d altered, %d events",
		norma.String(), stats.TotalDispositivos, stats.RevokedCount, stats.AlteredCount, stats.EventsProcessed)

	return nil
}

// ReconsolidateTargets re-renders every norma targeted by the events a
// freshly processed norma authors, so downstream consolidated texts stay
// current.
func (s *PipelineService) ReconsolidateTargets(ctx context.Context, normaID uuid.UUID) error {
	eventos, err := s.eventoRepo.ListBySource(ctx, normaID)
	if err != nil {
		return fmt.Errorf("failed to list authored events: %w", err)
	}

	seen := make(map[uuid.UUID]bool)
	for _, ev := range eventos {
		if ev.NormaAlvoID == nil || seen[*ev.NormaAlvoID] || *ev.NormaAlvoID == normaID {
			continue
		}
		seen[*ev.NormaAlvoID] = true

		target, err := s.normaRepo.GetByID(ctx, *ev.NormaAlvoID)
		if err != nil {
			log.Printf("Warning: Target norma %s not found: %v", ev.NormaAlvoID, err)
			continue
		}
		dispositivos, err := s.dispositivoRepo.ListByNorma(ctx, target.ID)
		if err != nil {
			log.Printf("Warning: Failed to load dispositivos of %s: %v", target.String(), err)
			continue
		}
		if len(dispositivos) == 0 {
			// Target was never segmented; nothing to re-render yet
			continue
		}
		if err := s.consolidateNorma(ctx, target, dispositivos); err != nil {
			log.Printf("Warning: Failed to reconsolidate %s: %v", target.String(), err)
		}
	}

	return nil
}

// updateStepStatus updates the status of a specific step in the processing job
func (s *PipelineService) updateStepStatus(ctx context.Context, jobID uuid.UUID, stepName, status string) error {
	job, err := s.jobRepo.GetByID(ctx, jobID)
	if err != nil {
		return err
	}

	steps := job.Steps
	var currentStep string
	if job.CurrentStep != nil {
		currentStep = *job.CurrentStep
	}

	for i := range steps {
		if steps[i].Name == stepName {
			steps[i].Status = status
			if status == "in_progress" {
				currentStep = stepName
			}
			break
		}
	}

	return s.jobRepo.UpdateProgress(ctx, jobID, currentStep, steps)
}

// markJobFailed marks a job as failed with an error message and flags the
// norma as failed
func (s *PipelineService) markJobFailed(ctx context.Context, jobID uuid.UUID, errorMessage string) {
	job, err := s.jobRepo.GetByID(ctx, jobID)
	if err == nil {
		if err := s.normaRepo.MarkFailed(ctx, job.NormaID, errorMessage); err != nil {
			log.Printf("Warning: Failed to mark norma as failed: %v", err)
		}
	}
	if err := s.jobRepo.Fail(ctx, jobID, errorMessage); err != nil {
		log.Printf("Warning: Failed to mark job as failed: %v", err)
	}
}
