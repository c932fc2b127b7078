package handlers

import (
	"context"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/agrisense/backend/internal/application/services"
	"github.com/agrisense/backend/internal/domain/entities"
	"github.com/agrisense/backend/internal/infrastructure/observability"
	"github.com/agrisense/backend/pkg/config"
	apperrors "github.com/agrisense/backend/pkg/errors"
)

const uploadField = "file"

// DiagnosisService defines the pipeline used by the prediction endpoints
type DiagnosisService interface {
	Diagnose(ctx context.Context, image []byte) (*services.Diagnosis, error)
	DiseaseInfo(ctx context.Context, name string) (*services.DiseaseInfo, error)
}

// DiagnosisHandler handles leaf image uploads and disease lookups
type DiagnosisHandler struct {
	service       DiagnosisService
	maxUploadSize int64
}

// NewDiagnosisHandler creates a new diagnosis handler
func NewDiagnosisHandler(service DiagnosisService) *DiagnosisHandler {
	return &DiagnosisHandler{
		service:       service,
		maxUploadSize: config.MaxUploadSize,
	}
}

// PredictResponse is the body returned by POST /predict
type PredictResponse struct {
	ID               string                    `json:"id"`
	Disease          string                    `json:"disease"`
	Confidence       float64                   `json:"confidence"`
	Description      string                    `json:"description"`
	Summary          string                    `json:"summary"`
	Recommendations  []string                  `json:"recommendations"`
	Sources          []entities.Source         `json:"sources"`
	GeneratedByAgent entities.CategorizedSteps `json:"generated_by_agent"`
	WikipediaTitle   string                    `json:"wikipedia_title"`
	WikipediaPage    string                    `json:"wikipedia_page"`
	Timestamp        time.Time                 `json:"timestamp"`
	CacheUsed        bool                      `json:"cache_used"`
	IsDemo           bool                      `json:"is_demo"`
}

// DiseaseInfoResponse is the body returned by GET /disease_info/{name}
type DiseaseInfoResponse struct {
	Disease    string                     `json:"disease"`
	Wikipedia  *entities.EncyclopediaInfo `json:"wikipedia"`
	Treatments []string                   `json:"treatments"`
	Sources    []entities.Source          `json:"sources"`
	CacheUsed  bool                       `json:"cache_used"`
}

// Predict handles POST /predict
func (h *DiagnosisHandler) Predict(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadSize)

	image, status, msg := h.readUpload(r)
	if status != http.StatusOK {
		respondWithError(w, status, msg)
		return
	}

	diagnosis, err := h.service.Diagnose(r.Context(), image)
	if err != nil {
		if apperrors.Is(err, apperrors.ErrorTypeInvalidImage) {
			respondWithErrorDetails(w, http.StatusBadRequest, "Invalid image format", err)
			return
		}
		observability.LoggerFromContext(r.Context()).Error().Err(err).Msg("Prediction failed")
		respondWithErrorDetails(w, http.StatusInternalServerError, "Prediction failed", err)
		return
	}

	plan := diagnosis.Plan
	respondWithJSON(w, http.StatusOK, PredictResponse{
		ID:               diagnosis.ID,
		Disease:          diagnosis.Prediction.Label,
		Confidence:       diagnosis.Prediction.Confidence,
		Description:      plan.Description,
		Summary:          plan.Summary,
		Recommendations:  plan.Recommendations,
		Sources:          plan.Sources,
		GeneratedByAgent: plan.Steps,
		WikipediaTitle:   plan.WikipediaTitle,
		WikipediaPage:    plan.WikipediaPage,
		Timestamp:        diagnosis.Timestamp,
		CacheUsed:        diagnosis.CacheUsed,
		IsDemo:           diagnosis.Prediction.IsDemo(),
	})
}

// readUpload extracts the uploaded file bytes. A status other than 200
// carries the client-facing message.
func (h *DiagnosisHandler) readUpload(r *http.Request) ([]byte, int, string) {
	if err := r.ParseMultipartForm(h.maxUploadSize); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return nil, http.StatusRequestEntityTooLarge, "File too large"
		}
		return nil, http.StatusBadRequest, "No file uploaded"
	}

	file, _, err := r.FormFile(uploadField)
	if err != nil {
		// A part sent with an empty filename is parsed as a plain value.
		if _, ok := r.MultipartForm.Value[uploadField]; ok {
			return nil, http.StatusBadRequest, "No file selected"
		}
		return nil, http.StatusBadRequest, "No file uploaded"
	}
	defer file.Close()

	return readPart(file)
}

func readPart(file io.Reader) ([]byte, int, string) {
	data, err := io.ReadAll(file)
	if err != nil {
		return nil, http.StatusInternalServerError, "Failed to read uploaded file"
	}
	if len(data) == 0 {
		return nil, http.StatusBadRequest, "Empty file content"
	}
	return data, http.StatusOK, ""
}

// DiseaseInfo handles GET /disease_info/{name}
func (h *DiagnosisHandler) DiseaseInfo(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")
	if name == "" {
		respondWithError(w, http.StatusBadRequest, "disease name is required")
		return
	}

	info, err := h.service.DiseaseInfo(r.Context(), name)
	if err != nil {
		observability.LoggerFromContext(r.Context()).Error().Err(err).Str("disease", name).Msg("Disease info failed")
		respondWithError(w, http.StatusInternalServerError, err.Error())
		return
	}

	respondWithJSON(w, http.StatusOK, DiseaseInfoResponse{
		Disease:    info.Disease,
		Wikipedia:  info.Wikipedia,
		Treatments: info.Treatments,
		Sources:    info.Sources,
		CacheUsed:  info.CacheUsed,
	})
}
