// Package handlers provides HTTP request handlers for the clinical API
// endpoints. This file implements the HTTPHandler interface with dependency
// injection.
package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/medperplexity/clinical-api/auth"
	"github.com/medperplexity/clinical-api/data"
	"github.com/medperplexity/clinical-api/interfaces"
	"github.com/medperplexity/clinical-api/janaushadhi"
	"github.com/medperplexity/clinical-api/logging"
)

// DefaultStreamDelay is the pause between chat stream chunks when no
// STREAM_DELAY_MS override is configured.
const DefaultStreamDelay = 50 * time.Millisecond

// genericAdvisory is the chat reply when no patient is selected and the
// message carries no research intent.
const genericAdvisory = "Based on current guidelines, I recommend monitoring the patient's vitals closely. Please provide a patient ID for personalized analysis."

// researchKeywords route a patient-less chat message to literature retrieval.
var researchKeywords = []string{"interaction", "research", "study", "evidence", "pubmed"}

// HTTPHandlerImpl implements the interfaces.HTTPHandler interface
type HTTPHandlerImpl struct {
	patients    interfaces.PatientStore
	rounds      interfaces.RoundStore
	catalog     interfaces.CatalogStore
	matcher     interfaces.SubstituteMatcher
	retriever   interfaces.EvidenceRetriever
	engine      interfaces.DecisionEngine
	doctors     interfaces.DoctorStore
	sessions    interfaces.SessionManager
	validator   interfaces.DataValidator
	health      interfaces.HealthChecker
	streamDelay time.Duration
	printer     *message.Printer
}

// HandlerDeps carries the collaborators NewHTTPHandler wires into the handler.
type HandlerDeps struct {
	Patients  interfaces.PatientStore
	Rounds    interfaces.RoundStore
	Catalog   interfaces.CatalogStore
	Matcher   interfaces.SubstituteMatcher
	Retriever interfaces.EvidenceRetriever
	Engine    interfaces.DecisionEngine
	Doctors   interfaces.DoctorStore
	Sessions  interfaces.SessionManager
	Validator interfaces.DataValidator
	Health    interfaces.HealthChecker

	// StreamDelay throttles the chat word stream. Zero or negative values
	// fall back to DefaultStreamDelay.
	StreamDelay time.Duration
}

// NewHTTPHandler creates a new HTTP handler with injected dependencies
func NewHTTPHandler(deps HandlerDeps) interfaces.HTTPHandler {
	delay := deps.StreamDelay
	if delay <= 0 {
		delay = DefaultStreamDelay
	}
	return &HTTPHandlerImpl{
		patients:    deps.Patients,
		rounds:      deps.Rounds,
		catalog:     deps.Catalog,
		matcher:     deps.Matcher,
		retriever:   deps.Retriever,
		engine:      deps.Engine,
		doctors:     deps.Doctors,
		sessions:    deps.Sessions,
		validator:   deps.Validator,
		health:      deps.Health,
		streamDelay: delay,
		printer:     message.NewPrinter(language.English),
	}
}

// ServeHTTP implements the http.Handler interface
func (h *HTTPHandlerImpl) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	// This is a placeholder - the actual routing is handled by chi
	http.Error(w, "Not implemented", http.StatusNotImplemented)
}

type rootResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
	Docs    string `json:"docs"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	AccessToken string      `json:"access_token"`
	TokenType   string      `json:"token_type"`
	User        auth.Doctor `json:"user"`
}

type registerRequest struct {
	Email          string `json:"email"`
	Password       string `json:"password"`
	Name           string `json:"name"`
	Specialization string `json:"specialization"`
}

type registerResponse struct {
	Success  bool   `json:"success"`
	Message  string `json:"message"`
	DoctorID string `json:"doctor_id"`
}

type patientListResponse struct {
	Status   string                  `json:"status"`
	Count    int                     `json:"count"`
	Patients map[string]data.Patient `json:"patients"`
}

type patientResponse struct {
	Status  string       `json:"status"`
	Patient data.Patient `json:"patient"`
}

type roundsResponse struct {
	Status string       `json:"status"`
	Count  int          `json:"count"`
	Rounds []data.Round `json:"rounds"`
}

type chatRequest struct {
	Message   string `json:"message"`
	PatientID string `json:"patient_id"`
}

// chatEvent is one server-sent event frame on the chat stream.
type chatEvent struct {
	Chunk string `json:"chunk"`
	Done  bool   `json:"done"`
	Data  any    `json:"data,omitempty"`
	Error string `json:"error,omitempty"`
}

type janSearchRequest struct {
	DrugName string `json:"drug_name"`
}

type janSearchResponse struct {
	Status  string                 `json:"status"`
	Query   string                 `json:"query"`
	Found   bool                   `json:"found"`
	Message string                 `json:"message"`
	Drug    *janaushadhi.DrugMatch `json:"drug_data,omitempty"`
}

type janStatsResponse struct {
	Status           string `json:"status"`
	TotalDrugs       int    `json:"total_drugs"`
	PotentialSavings string `json:"potential_savings"`
	DatabaseSize     string `json:"database_size"`
}

// Root returns the API status banner
func (h *HTTPHandlerImpl) Root(w http.ResponseWriter, r *http.Request) {
	RespondWithJSON(w, http.StatusOK, rootResponse{
		Status:  "online",
		Message: "Med_Perplexity API is running! 🏥",
		Docs:    "/docs",
	})
}

// HealthCheck returns server health information
func (h *HTTPHandlerImpl) HealthCheck(w http.ResponseWriter, r *http.Request) {
	_, body, httpStatus := h.health.HealthCheck()
	RespondWithJSON(w, httpStatus, body)
}

// Login checks doctor credentials and opens a bearer-token session
func (h *HTTPHandlerImpl) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		RespondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	doctor, ok := h.doctors.Authenticate(req.Email, req.Password)
	if !ok {
		RespondWithError(w, http.StatusUnauthorized, "Incorrect email or password")
		return
	}

	token := h.sessions.Issue(doctor.ID)
	logging.Info("Doctor logged in", "doctor", doctor.ID)

	RespondWithJSON(w, http.StatusOK, loginResponse{
		AccessToken: token,
		TokenType:   "bearer",
		User:        doctor.Sanitized(),
	})
}

// Register creates a new doctor account
func (h *HTTPHandlerImpl) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		RespondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if err := h.validator.ValidateEmail(req.Email); err != nil {
		RespondWithError(w, http.StatusBadRequest, err.Error())
		return
	}
	if strings.TrimSpace(req.Password) == "" {
		RespondWithError(w, http.StatusBadRequest, "Password is required")
		return
	}
	if strings.TrimSpace(req.Name) == "" {
		RespondWithError(w, http.StatusBadRequest, "Name is required")
		return
	}

	doctor, err := h.doctors.Register(req.Email, req.Password, req.Name, req.Specialization)
	if err != nil {
		if errors.Is(err, auth.ErrEmailTaken) {
			RespondWithError(w, http.StatusBadRequest, "Email already registered")
			return
		}
		logging.Error("Failed to register doctor", "error", err)
		RespondWithError(w, http.StatusInternalServerError, "Failed to save user data")
		return
	}

	RespondWithJSON(w, http.StatusOK, registerResponse{
		Success:  true,
		Message:  "Doctor registered successfully",
		DoctorID: doctor.ID,
	})
}

// ListPatients returns the patients assigned to the authenticated doctor
func (h *HTTPHandlerImpl) ListPatients(w http.ResponseWriter, r *http.Request) {
	doctor, ok := auth.DoctorFromContext(r.Context())
	if !ok {
		RespondWithError(w, http.StatusUnauthorized, "Not authenticated")
		return
	}

	patients := h.patients.ListByDoctor(doctor.ID)
	RespondWithJSON(w, http.StatusOK, patientListResponse{
		Status:   "success",
		Count:    len(patients),
		Patients: patients,
	})
}

// GetPatient returns one patient record after an assignment check
func (h *HTTPHandlerImpl) GetPatient(w http.ResponseWriter, r *http.Request) {
	doctor, ok := auth.DoctorFromContext(r.Context())
	if !ok {
		RespondWithError(w, http.StatusUnauthorized, "Not authenticated")
		return
	}

	patientID := chi.URLParam(r, "patientId")
	if err := h.validator.ValidatePatientID(patientID); err != nil {
		RespondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	patient, exists := h.patients.GetPatient(patientID)
	if !exists {
		RespondWithError(w, http.StatusNotFound, "Patient not found")
		return
	}
	if patient.DoctorID != doctor.ID {
		logging.Warn("Blocked cross-doctor patient access", "doctor", doctor.ID, "patient", patientID)
		RespondWithError(w, http.StatusForbidden, "Access denied to this patient")
		return
	}

	RespondWithJSON(w, http.StatusOK, patientResponse{
		Status:  "success",
		Patient: patient,
	})
}

// ListRounds returns the morning ward-round briefing
func (h *HTTPHandlerImpl) ListRounds(w http.ResponseWriter, r *http.Request) {
	rounds := h.rounds.List()
	RespondWithJSON(w, http.StatusOK, roundsResponse{
		Status: "success",
		Count:  len(rounds),
		Rounds: rounds,
	})
}

// Chat streams a decision-support reply as server-sent events. The reply text
// arrives word by word, then a terminal frame carries the structured payload.
func (h *HTTPHandlerImpl) Chat(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		RespondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if err := h.validator.ValidateQuery(req.Message); err != nil {
		RespondWithError(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.PatientID != "" {
		if err := h.validator.ValidatePatientID(req.PatientID); err != nil {
			RespondWithError(w, http.StatusBadRequest, err.Error())
			return
		}
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		RespondWithError(w, http.StatusInternalServerError, "Streaming not supported")
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	// Headers are committed once the first chunk flushes, so any failure
	// after this point reports through a terminal error frame instead of
	// an HTTP status.
	defer func() {
		if rec := recover(); rec != nil {
			logging.Error("Chat stream panicked", "error", fmt.Sprintf("%v", rec))
			h.sendEvent(w, flusher, chatEvent{Done: true, Error: fmt.Sprintf("%v", rec)})
		}
	}()

	reply, payload := h.chatReply(r.Context(), req)

	if err := h.streamWords(r.Context(), w, flusher, reply); err != nil {
		logging.Warn("Chat stream aborted", "error", err)
		return
	}
	h.sendEvent(w, flusher, chatEvent{Done: true, Data: payload})
}

// chatReply picks the response path: a full decision run when a patient is
// selected, a literature lookup for research questions, and a generic
// advisory otherwise. The payload rides the terminal stream frame and is nil
// for the advisory path.
func (h *HTTPHandlerImpl) chatReply(ctx context.Context, req chatRequest) (string, any) {
	if req.PatientID != "" {
		verdict := h.engine.Decide(ctx, req.PatientID, req.Message)
		return verdict.Message, verdict
	}
	if hasResearchIntent(req.Message) {
		result := h.retriever.Retrieve(ctx, req.Message)
		return fmt.Sprintf("Found evidence-based research for: %s", req.Message), result
	}
	return genericAdvisory, nil
}

// streamWords emits the reply one word per frame, keeping the trailing space
// inside each chunk so the client can concatenate them verbatim.
func (h *HTTPHandlerImpl) streamWords(ctx context.Context, w http.ResponseWriter, flusher http.Flusher, text string) error {
	words := strings.Split(text, " ")
	for i, word := range words {
		chunk := word
		if i < len(words)-1 {
			chunk += " "
		}
		h.sendEvent(w, flusher, chatEvent{Chunk: chunk})

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(h.streamDelay):
		}
	}
	return nil
}

// sendEvent writes one SSE frame and flushes it to the client.
func (h *HTTPHandlerImpl) sendEvent(w http.ResponseWriter, flusher http.Flusher, event chatEvent) {
	frame, err := json.Marshal(event)
	if err != nil {
		logging.Error("Failed to marshal stream event", "error", err)
		return
	}
	fmt.Fprintf(w, "data: %s\n\n", frame)
	flusher.Flush()
}

// hasResearchIntent reports whether a patient-less message asks for evidence.
func hasResearchIntent(msg string) bool {
	lower := strings.ToLower(msg)
	for _, keyword := range researchKeywords {
		if strings.Contains(lower, keyword) {
			return true
		}
	}
	return false
}

// SearchJanAushadhi resolves a drug name against the generic catalog
func (h *HTTPHandlerImpl) SearchJanAushadhi(w http.ResponseWriter, r *http.Request) {
	var req janSearchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		RespondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if err := h.validator.ValidateQuery(req.DrugName); err != nil {
		RespondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	result := h.matcher.Match(req.DrugName, h.catalog.Load())
	RespondWithJSON(w, http.StatusOK, janSearchResponse{
		Status:  "success",
		Query:   req.DrugName,
		Found:   result.Found,
		Message: result.Message,
		Drug:    result.Drug,
	})
}

// JanAushadhiStats summarizes the catalog size and total savings margin
func (h *HTTPHandlerImpl) JanAushadhiStats(w http.ResponseWriter, r *http.Request) {
	stats := h.catalog.Stats()
	RespondWithJSON(w, http.StatusOK, janStatsResponse{
		Status:           "success",
		TotalDrugs:       stats.TotalDrugs,
		PotentialSavings: h.printer.Sprintf("₹%.2f", stats.PotentialSavings),
		DatabaseSize:     fmt.Sprintf("%d generic medicines", stats.TotalDrugs),
	})
}
