package rest

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/gorilla/mux"
	"github.com/shopspring/decimal"

	"github.com/bibbank/loan-origination/internal/application/dto"
	"github.com/bibbank/loan-origination/internal/domain/valueobject"
	"github.com/bibbank/loan-origination/pkg/auth"
)

// Executor is the shape every use case exposes.
type Executor[Req, Resp any] interface {
	Execute(ctx context.Context, req Req) (Resp, error)
}

// UseCases groups the operations served over HTTP.
type UseCases struct {
	Submit        Executor[dto.SubmitApplicationRequest, dto.ApplicationResponse]
	Decide        Executor[dto.StageDecisionRequest, dto.ApplicationResponse]
	Cancel        Executor[dto.CancelApplicationRequest, dto.ApplicationResponse]
	IssueOffer    Executor[dto.GenerateOfferRequest, dto.ScheduleResponse]
	ApplyPayment  Executor[dto.ApplyPaymentRequest, dto.ScheduleRowResponse]
	MarkOverdue   Executor[dto.MarkOverdueRequest, dto.MarkOverdueResponse]
	Get           Executor[dto.GetApplicationRequest, dto.ApplicationResponse]
	List          Executor[dto.ListApplicationsRequest, []dto.ApplicationResponse]
	History       Executor[dto.GetApplicationRequest, dto.HistoryResponse]
	Schedule      Executor[dto.GetApplicationRequest, dto.ScheduleResponse]
	Ledger        Executor[dto.GetApplicationRequest, dto.LedgerSummaryResponse]
	RegisterActor Executor[dto.RegisterActorRequest, dto.ActorResponse]
}

// OriginationHandler exposes the origination use cases as JSON over HTTP.
type OriginationHandler struct {
	uc     UseCases
	logger *slog.Logger
}

func NewOriginationHandler(uc UseCases, logger *slog.Logger) *OriginationHandler {
	return &OriginationHandler{uc: uc, logger: logger}
}

// RegisterRoutes attaches the API routes under /api/v1.
func (h *OriginationHandler) RegisterRoutes(r *mux.Router) {
	api := r.PathPrefix("/api/v1").Subrouter()

	// Applications
	api.HandleFunc("/applications", h.submit).Methods(http.MethodPost)
	api.HandleFunc("/applications", h.list).Methods(http.MethodGet)
	api.HandleFunc("/applications/{id}", h.get).Methods(http.MethodGet)
	api.HandleFunc("/applications/{id}/history", h.history).Methods(http.MethodGet)
	api.HandleFunc("/applications/{id}/decisions/{stage}", h.decide).Methods(http.MethodPost)
	api.HandleFunc("/applications/{id}/cancel", h.cancel).Methods(http.MethodPost)

	// Offer and ledger
	api.HandleFunc("/applications/{id}/offer", h.issueOffer).Methods(http.MethodPost)
	api.HandleFunc("/applications/{id}/schedule", h.schedule).Methods(http.MethodGet)
	api.HandleFunc("/applications/{id}/ledger", h.ledger).Methods(http.MethodGet)
	api.HandleFunc("/schedule-rows/{id}/payments", h.applyPayment).Methods(http.MethodPost)
	api.HandleFunc("/overdue-sweeps", h.markOverdue).Methods(http.MethodPost)

	// Staff
	api.HandleFunc("/actors", h.registerActor).Methods(http.MethodPost)
}

// ---------------------------------------------------------------------------
// Applications
// ---------------------------------------------------------------------------

func (h *OriginationHandler) submit(w http.ResponseWriter, r *http.Request) {
	var req dto.SubmitApplicationRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	h.respond(w, r, http.StatusCreated)(h.uc.Submit.Execute(r.Context(), req))
}

func (h *OriginationHandler) list(w http.ResponseWriter, r *http.Request) {
	req := dto.ListApplicationsRequest{Status: strings.ToUpper(r.URL.Query().Get("status"))}
	h.respond(w, r, http.StatusOK)(h.uc.List.Execute(r.Context(), req))
}

func (h *OriginationHandler) get(w http.ResponseWriter, r *http.Request) {
	h.respond(w, r, http.StatusOK)(h.uc.Get.Execute(r.Context(), applicationRef(r)))
}

func (h *OriginationHandler) history(w http.ResponseWriter, r *http.Request) {
	h.respond(w, r, http.StatusOK)(h.uc.History.Execute(r.Context(), applicationRef(r)))
}

type decisionBody struct {
	Decision string `json:"decision"`
	Remarks  string `json:"remarks"`
}

func (h *OriginationHandler) decide(w http.ResponseWriter, r *http.Request) {
	actor, err := actorEmail(r)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	var body decisionBody
	if err := decodeJSON(r, &body); err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	vars := mux.Vars(r)
	h.respond(w, r, http.StatusOK)(h.uc.Decide.Execute(r.Context(), dto.StageDecisionRequest{
		ApplicationID: vars["id"],
		ActorEmail:    actor,
		Stage:         vars["stage"],
		Decision:      strings.ToUpper(body.Decision),
		Remarks:       body.Remarks,
	}))
}

type cancelBody struct {
	Reason string `json:"reason"`
}

func (h *OriginationHandler) cancel(w http.ResponseWriter, r *http.Request) {
	actor, err := actorEmail(r)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	var body cancelBody
	if err := decodeJSON(r, &body); err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	h.respond(w, r, http.StatusOK)(h.uc.Cancel.Execute(r.Context(), dto.CancelApplicationRequest{
		ApplicationID: mux.Vars(r)["id"],
		ActorEmail:    actor,
		Reason:        body.Reason,
	}))
}

// ---------------------------------------------------------------------------
// Offer and ledger
// ---------------------------------------------------------------------------

type offerBody struct {
	ApprovedAmount decimal.Decimal `json:"approved_amount"`
	InterestRate   decimal.Decimal `json:"interest_rate"`
	TenureYears    int             `json:"tenure_years"`
}

func (h *OriginationHandler) issueOffer(w http.ResponseWriter, r *http.Request) {
	actor, err := actorEmail(r)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	var body offerBody
	if err := decodeJSON(r, &body); err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	h.respond(w, r, http.StatusCreated)(h.uc.IssueOffer.Execute(r.Context(), dto.GenerateOfferRequest{
		ApplicationID:  mux.Vars(r)["id"],
		ActorEmail:     actor,
		ApprovedAmount: body.ApprovedAmount,
		InterestRate:   body.InterestRate,
		TenureYears:    body.TenureYears,
	}))
}

func (h *OriginationHandler) schedule(w http.ResponseWriter, r *http.Request) {
	h.respond(w, r, http.StatusOK)(h.uc.Schedule.Execute(r.Context(), applicationRef(r)))
}

func (h *OriginationHandler) ledger(w http.ResponseWriter, r *http.Request) {
	h.respond(w, r, http.StatusOK)(h.uc.Ledger.Execute(r.Context(), applicationRef(r)))
}

type paymentBody struct {
	Amount  decimal.Decimal `json:"amount"`
	Remarks string          `json:"remarks"`
}

func (h *OriginationHandler) applyPayment(w http.ResponseWriter, r *http.Request) {
	var body paymentBody
	if err := decodeJSON(r, &body); err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	h.respond(w, r, http.StatusOK)(h.uc.ApplyPayment.Execute(r.Context(), dto.ApplyPaymentRequest{
		RowID:   mux.Vars(r)["id"],
		Amount:  body.Amount,
		Remarks: body.Remarks,
	}))
}

// markOverdue sweeps as of the service clock. The body, if any, must be an
// empty object: callers cannot choose the sweep date.
func (h *OriginationHandler) markOverdue(w http.ResponseWriter, r *http.Request) {
	var req dto.MarkOverdueRequest
	if r.ContentLength != 0 {
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, r, h.logger, err)
			return
		}
	}
	h.respond(w, r, http.StatusOK)(h.uc.MarkOverdue.Execute(r.Context(), req))
}

// ---------------------------------------------------------------------------
// Staff
// ---------------------------------------------------------------------------

type actorBody struct {
	Email    string `json:"email"`
	FullName string `json:"full_name"`
	Role     string `json:"role"`
}

func (h *OriginationHandler) registerActor(w http.ResponseWriter, r *http.Request) {
	caller, err := actorEmail(r)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	var body actorBody
	if err := decodeJSON(r, &body); err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	h.respond(w, r, http.StatusCreated)(h.uc.RegisterActor.Execute(r.Context(), dto.RegisterActorRequest{
		ActorEmail: caller,
		Email:      body.Email,
		FullName:   body.FullName,
		Role:       body.Role,
	}))
}

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

// respond returns a sink for a use-case result so handlers can pass
// Execute's two return values straight through.
func (h *OriginationHandler) respond(w http.ResponseWriter, r *http.Request, status int) func(any, error) {
	return func(resp any, err error) {
		if err != nil {
			writeError(w, r, h.logger, err)
			return
		}
		writeJSON(w, status, resp)
	}
}

func applicationRef(r *http.Request) dto.GetApplicationRequest {
	return dto.GetApplicationRequest{ApplicationID: mux.Vars(r)["id"]}
}

func actorEmail(r *http.Request) (string, error) {
	if claims, ok := auth.ClaimsFromContext(r.Context()); ok {
		return claims.ActorEmail(), nil
	}
	email := strings.TrimSpace(r.Header.Get(actorHeader))
	if email == "" {
		return "", valueobject.Unauthorized("%s header is required", actorHeader)
	}
	return email, nil
}
