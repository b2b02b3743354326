package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"jurix-backend/clients/sapl"
	"jurix-backend/models"
	"jurix-backend/processing"
	"jurix-backend/repository"
	"jurix-backend/storage"

	"github.com/google/uuid"
)

// IngestionService pulls norma metadata and PDFs from the SAPL API into
// the local registry
type IngestionService struct {
	saplClient *sapl.Client
	normaRepo  *repository.NormaRepository
	store      storage.Storage
}

// IngestionServiceOption is a functional option for IngestionService
type IngestionServiceOption func(*IngestionService)

// IngestionWithSAPLClient sets the SAPL client
func IngestionWithSAPLClient(client *sapl.Client) IngestionServiceOption {
	return func(s *IngestionService) {
		s.saplClient = client
	}
}

// IngestionWithNormaRepository sets the norma repository
func IngestionWithNormaRepository(repo *repository.NormaRepository) IngestionServiceOption {
	return func(s *IngestionService) {
		s.normaRepo = repo
	}
}

// IngestionWithStorage sets the document storage
func IngestionWithStorage(store storage.Storage) IngestionServiceOption {
	return func(s *IngestionService) {
		s.store = store
	}
}

// NewIngestionService creates a new ingestion service
func NewIngestionService(opts ...IngestionServiceOption) *IngestionService {
	s := &IngestionService{}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

var ErrNormaHasNoPDF = errors.New("norma has no PDF URL")

// IngestRequest represents a request to ingest normas from SAPL
type IngestRequest struct {
	// MaxNormas caps the total ingested (0 = all available)
	MaxNormas int
	Tipo      string
	Ano       int
	PageSize  int
}

// IngestStats summarizes one ingestion run
type IngestStats struct {
	TotalFetched int      `json:"total_fetched"`
	Created      int      `json:"created"`
	Updated      int      `json:"updated"`
	Failed       int      `json:"failed"`
	Errors       []string `json:"errors"`
}

// Ingest fetches norma metadata from SAPL with automatic pagination and
// upserts each record. Per-norma failures are accumulated, not fatal.
func (s *IngestionService) Ingest(ctx context.Context, req IngestRequest) (*IngestStats, error) {
	if s.saplClient == nil {
		return nil, errors.New("sapl client not set")
	}
	if s.normaRepo == nil {
		return nil, errors.New("norma repository not set")
	}

	if req.PageSize <= 0 {
		req.PageSize = 50
	}

	stats := &IngestStats{Errors: []string{}}

	payloads, err := s.saplClient.FetchAllNormas(ctx, req.MaxNormas, req.Tipo, req.Ano, req.PageSize)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch normas: %w", err)
	}
	stats.TotalFetched = len(payloads)

	for _, payload := range payloads {
		created, err := s.upsertNorma(ctx, payload)
		if err != nil {
			stats.Failed++
			msg := fmt.Sprintf("norma sapl_id=%d: %v", payload.ID(), err)
			stats.Errors = append(stats.Errors, msg)
			log.Printf("Warning: %s", msg)
			continue
		}
		if created {
			stats.Created++
		} else {
			stats.Updated++
		}
	}

	log.Printf("Ingestion finished: %d fetched, %d created, %d updated, %d failed",
		stats.TotalFetched, stats.Created, stats.Updated, stats.Failed)

	return stats, nil
}

// upsertNorma maps one raw SAPL payload onto the Norma model and upserts
// it keyed by sapl_id. Returns whether a new row was created.
func (s *IngestionService) upsertNorma(ctx context.Context, payload sapl.NormaPayload) (bool, error) {
	saplID := payload.ID()
	if saplID == 0 {
		return false, errors.New("payload has no id")
	}

	norma := &models.Norma{
		Tipo:          payloadTipo(payload),
		Numero:        payloadString(payload, "numero"),
		Ementa:        processing.CleanText(payloadString(payload, "ementa")),
		Observacao:    processing.CleanText(payloadString(payload, "observacao")),
		TextoOriginal: payloadString(payload, "texto_integral"),
		PDFURL:        payloadString(payload, "texto_integral"),
		SAPLID:        &saplID,
		SAPLURL:       fmt.Sprintf("https://sapl.natal.rn.leg.br/norma/normajuridica/%d/", saplID),
		SAPLMetadata:  models.SAPLMetadata(payload),
		Status:        models.NormaStatusPending,
	}

	if ano, ok := payload["ano"].(float64); ok {
		norma.Ano = int(ano)
	}
	norma.DataPublicacao = payloadDate(payload, "data")
	norma.DataVigencia = payloadDate(payload, "data_vigencia")

	return s.normaRepo.UpsertBySAPLID(ctx, norma)
}

// payloadTipo handles both payload shapes SAPL emits for tipo: a nested
// object with a descricao, or a bare value
func payloadTipo(payload sapl.NormaPayload) string {
	switch v := payload["tipo"].(type) {
	case map[string]interface{}:
		if desc, ok := v["descricao"].(string); ok {
			return desc
		}
		return ""
	case string:
		return v
	case float64:
		return fmt.Sprintf("%.0f", v)
	default:
		return ""
	}
}

func payloadString(payload sapl.NormaPayload, key string) string {
	if v, ok := payload[key].(string); ok {
		return v
	}
	return ""
}

func payloadDate(payload sapl.NormaPayload, key string) *time.Time {
	raw, ok := payload[key].(string)
	if !ok || raw == "" {
		return nil
	}
	t, err := time.Parse("2006-01-02", raw)
	if err != nil {
		log.Printf("Warning: unparseable date %q in field %s", raw, key)
		return nil
	}
	return &t
}

// DownloadPDF fetches the source PDF of a norma into the document archive
// and records its storage path. A norma without a PDF URL is flagged for
// review.
func (s *IngestionService) DownloadPDF(ctx context.Context, normaID uuid.UUID) (string, error) {
	if s.saplClient == nil || s.normaRepo == nil || s.store == nil {
		return "", errors.New("ingestion service missing dependencies")
	}

	norma, err := s.normaRepo.GetByID(ctx, normaID)
	if err != nil {
		return "", ErrNormaNotFound
	}

	if strings.TrimSpace(norma.PDFURL) == "" {
		if err := s.normaRepo.MarkNeedsReview(ctx, norma.ID, "no PDF URL available"); err != nil {
			log.Printf("Warning: Failed to flag %s for review: %v", norma.String(), err)
		}
		return "", ErrNormaHasNoPDF
	}

	var buf bytes.Buffer
	if err := s.saplClient.DownloadPDF(ctx, norma.PDFURL, &buf); err != nil {
		if markErr := s.normaRepo.MarkNeedsReview(ctx, norma.ID, "PDF download failed: "+err.Error()); markErr != nil {
			log.Printf("Warning: Failed to flag %s for review: %v", norma.String(), markErr)
		}
		return "", fmt.Errorf("failed to download PDF: %w", err)
	}

	key := storage.NormaPDFKey(norma.Tipo, norma.Numero, norma.Ano)
	path, err := s.store.Put(ctx, key, &buf)
	if err != nil {
		return "", fmt.Errorf("failed to archive PDF: %w", err)
	}

	if err := s.normaRepo.UpdatePDFPath(ctx, norma.ID, path); err != nil {
		return "", fmt.Errorf("failed to record PDF path: %w", err)
	}
	if err := s.normaRepo.UpdateStatus(ctx, norma.ID, models.NormaStatusPDFDownloaded); err != nil {
		return "", fmt.Errorf("failed to update norma status: %w", err)
	}

	log.Printf("Archived PDF for %s at %s", norma.String(), path)
	return path, nil
}
