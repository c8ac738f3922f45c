package rest

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bibbank/loan-origination/internal/application/dto"
	"github.com/bibbank/loan-origination/internal/domain/valueobject"
	"github.com/bibbank/loan-origination/pkg/auth"
)

type stubExecutor[Req, Resp any] struct {
	fn    func(ctx context.Context, req Req) (Resp, error)
	got   Req
	calls int
}

func (s *stubExecutor[Req, Resp]) Execute(ctx context.Context, req Req) (Resp, error) {
	s.got = req
	s.calls++
	if s.fn == nil {
		var zero Resp
		return zero, nil
	}
	return s.fn(ctx, req)
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type stubs struct {
	submit   *stubExecutor[dto.SubmitApplicationRequest, dto.ApplicationResponse]
	decide   *stubExecutor[dto.StageDecisionRequest, dto.ApplicationResponse]
	cancel   *stubExecutor[dto.CancelApplicationRequest, dto.ApplicationResponse]
	offer    *stubExecutor[dto.GenerateOfferRequest, dto.ScheduleResponse]
	payment  *stubExecutor[dto.ApplyPaymentRequest, dto.ScheduleRowResponse]
	overdue  *stubExecutor[dto.MarkOverdueRequest, dto.MarkOverdueResponse]
	get      *stubExecutor[dto.GetApplicationRequest, dto.ApplicationResponse]
	list     *stubExecutor[dto.ListApplicationsRequest, []dto.ApplicationResponse]
	history  *stubExecutor[dto.GetApplicationRequest, dto.HistoryResponse]
	schedule *stubExecutor[dto.GetApplicationRequest, dto.ScheduleResponse]
	ledger   *stubExecutor[dto.GetApplicationRequest, dto.LedgerSummaryResponse]
	actor    *stubExecutor[dto.RegisterActorRequest, dto.ActorResponse]
}

func newStubs() *stubs {
	return &stubs{
		submit:   &stubExecutor[dto.SubmitApplicationRequest, dto.ApplicationResponse]{},
		decide:   &stubExecutor[dto.StageDecisionRequest, dto.ApplicationResponse]{},
		cancel:   &stubExecutor[dto.CancelApplicationRequest, dto.ApplicationResponse]{},
		offer:    &stubExecutor[dto.GenerateOfferRequest, dto.ScheduleResponse]{},
		payment:  &stubExecutor[dto.ApplyPaymentRequest, dto.ScheduleRowResponse]{},
		overdue:  &stubExecutor[dto.MarkOverdueRequest, dto.MarkOverdueResponse]{},
		get:      &stubExecutor[dto.GetApplicationRequest, dto.ApplicationResponse]{},
		list:     &stubExecutor[dto.ListApplicationsRequest, []dto.ApplicationResponse]{},
		history:  &stubExecutor[dto.GetApplicationRequest, dto.HistoryResponse]{},
		schedule: &stubExecutor[dto.GetApplicationRequest, dto.ScheduleResponse]{},
		ledger:   &stubExecutor[dto.GetApplicationRequest, dto.LedgerSummaryResponse]{},
		actor:    &stubExecutor[dto.RegisterActorRequest, dto.ActorResponse]{},
	}
}

func (s *stubs) router(t *testing.T, logger *slog.Logger, checks map[string]ReadinessCheck) http.Handler {
	t.Helper()
	return s.routerWithVerifier(t, logger, checks, nil)
}

func (s *stubs) routerWithVerifier(t *testing.T, logger *slog.Logger, checks map[string]ReadinessCheck, verifier TokenVerifier) http.Handler {
	t.Helper()
	api := NewOriginationHandler(UseCases{
		Submit:        s.submit,
		Decide:        s.decide,
		Cancel:        s.cancel,
		IssueOffer:    s.offer,
		ApplyPayment:  s.payment,
		MarkOverdue:   s.overdue,
		Get:           s.get,
		List:          s.list,
		History:       s.history,
		Schedule:      s.schedule,
		Ledger:        s.ledger,
		RegisterActor: s.actor,
	}, logger)
	health := NewHealthHandler("loan-origination", checks, logger)
	metrics := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = io.WriteString(w, "# metrics\n")
	})
	return NewRouter(api, health, metrics, verifier, logger)
}

func do(h http.Handler, method, path, body string, header map[string]string) *httptest.ResponseRecorder {
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, r)
	for k, v := range header {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) errorBody {
	t.Helper()
	var body errorBody
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	return body
}

// ---------------------------------------------------------------------------
// Error mapping
// ---------------------------------------------------------------------------

func TestStatusFor(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"not found", valueobject.NotFound("application %s", "x"), http.StatusNotFound},
		{"unauthorized", valueobject.Unauthorized("role"), http.StatusForbidden},
		{"invalid state", fmt.Errorf("decide: %w", valueobject.ErrInvalidStatusTransition), http.StatusConflict},
		{"invalid input", valueobject.InvalidInput("bad pan"), http.StatusBadRequest},
		{"schedule exists", valueobject.ErrScheduleExists, http.StatusBadRequest},
		{"settled", fmt.Errorf("emi 1: %w", valueobject.ErrAlreadySettled), http.StatusBadRequest},
		{"conflict after retries", fmt.Errorf("save: %w", valueobject.ErrConcurrentModification), http.StatusConflict},
		{"infrastructure", errors.New("connection reset"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, statusFor(tt.err))
		})
	}
}

func TestWriteError_HidesInternalMessage(t *testing.T) {
	s := newStubs()
	s.get.fn = func(context.Context, dto.GetApplicationRequest) (dto.ApplicationResponse, error) {
		return dto.ApplicationResponse{}, errors.New("pq: password authentication failed")
	}
	rec := do(s.router(t, discardLogger(), nil), http.MethodGet, "/api/v1/applications/abc", "", nil)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	body := decodeError(t, rec)
	assert.Equal(t, "internal error", body.Error)
	assert.Equal(t, "unknown", body.Kind)
}

// ---------------------------------------------------------------------------
// Applications
// ---------------------------------------------------------------------------

func TestSubmit(t *testing.T) {
	t.Run("created", func(t *testing.T) {
		s := newStubs()
		s.submit.fn = func(_ context.Context, req dto.SubmitApplicationRequest) (dto.ApplicationResponse, error) {
			return dto.ApplicationResponse{ID: "app-1", ApplicationNumber: "LA123456", Status: "PENDING_RCPU", FullName: req.FullName}, nil
		}
		rec := do(s.router(t, discardLogger(), nil), http.MethodPost, "/api/v1/applications",
			`{"full_name":"Ravi Kumar","loan_amount":"1000000","tenure_years":20}`, nil)

		require.Equal(t, http.StatusCreated, rec.Code)
		var resp dto.ApplicationResponse
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
		assert.Equal(t, "LA123456", resp.ApplicationNumber)
		assert.True(t, decimal.NewFromInt(1_000_000).Equal(s.submit.got.LoanAmount))
		assert.Equal(t, 20, s.submit.got.TenureYears)
	})

	t.Run("malformed body is invalid input", func(t *testing.T) {
		s := newStubs()
		rec := do(s.router(t, discardLogger(), nil), http.MethodPost, "/api/v1/applications", `{"full_name":`, nil)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "invalid_input", decodeError(t, rec).Kind)
		assert.Zero(t, s.submit.calls)
	})

	t.Run("unknown field rejected", func(t *testing.T) {
		s := newStubs()
		rec := do(s.router(t, discardLogger(), nil), http.MethodPost, "/api/v1/applications", `{"salary":1}`, nil)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Zero(t, s.submit.calls)
	})

	t.Run("duplicate identity is bad request", func(t *testing.T) {
		s := newStubs()
		s.submit.fn = func(context.Context, dto.SubmitApplicationRequest) (dto.ApplicationResponse, error) {
			return dto.ApplicationResponse{}, fmt.Errorf("create application: %w", valueobject.ErrDuplicateIdentity)
		}
		rec := do(s.router(t, discardLogger(), nil), http.MethodPost, "/api/v1/applications", `{}`, nil)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Contains(t, decodeError(t, rec).Error, "PAN or Aadhaar")
	})
}

func TestList_UppercasesStatus(t *testing.T) {
	s := newStubs()
	s.list.fn = func(context.Context, dto.ListApplicationsRequest) ([]dto.ApplicationResponse, error) {
		return []dto.ApplicationResponse{{ID: "a"}, {ID: "b"}}, nil
	}
	rec := do(s.router(t, discardLogger(), nil), http.MethodGet, "/api/v1/applications?status=pending_l1", "", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "PENDING_L1", s.list.got.Status)
	var resp []dto.ApplicationResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Len(t, resp, 2)
}

func TestGetRoutesPassApplicationID(t *testing.T) {
	s := newStubs()
	h := s.router(t, discardLogger(), nil)

	for path, got := range map[string]func() string{
		"/api/v1/applications/LA000123":          func() string { return s.get.got.ApplicationID },
		"/api/v1/applications/LA000123/history":  func() string { return s.history.got.ApplicationID },
		"/api/v1/applications/LA000123/schedule": func() string { return s.schedule.got.ApplicationID },
		"/api/v1/applications/LA000123/ledger":   func() string { return s.ledger.got.ApplicationID },
	} {
		rec := do(h, http.MethodGet, path, "", nil)
		assert.Equal(t, http.StatusOK, rec.Code, path)
		assert.Equal(t, "LA000123", got(), path)
	}
}

func TestDecide(t *testing.T) {
	t.Run("requires actor header", func(t *testing.T) {
		s := newStubs()
		rec := do(s.router(t, discardLogger(), nil), http.MethodPost,
			"/api/v1/applications/app-1/decisions/L1", `{"decision":"APPROVE"}`, nil)

		assert.Equal(t, http.StatusForbidden, rec.Code)
		assert.Equal(t, "unauthorized", decodeError(t, rec).Kind)
		assert.Zero(t, s.decide.calls)
	})

	t.Run("passes path, header and body", func(t *testing.T) {
		s := newStubs()
		s.decide.fn = func(_ context.Context, req dto.StageDecisionRequest) (dto.ApplicationResponse, error) {
			return dto.ApplicationResponse{ID: req.ApplicationID, Status: "L1_APPROVED"}, nil
		}
		rec := do(s.router(t, discardLogger(), nil), http.MethodPost,
			"/api/v1/applications/app-1/decisions/l1", `{"decision":"approve","remarks":"docs verified"}`,
			map[string]string{actorHeader: "manager@bank.test"})

		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, dto.StageDecisionRequest{
			ApplicationID: "app-1",
			ActorEmail:    "manager@bank.test",
			Stage:         "l1",
			Decision:      "APPROVE",
			Remarks:       "docs verified",
		}, s.decide.got)
	})

	t.Run("wrong status is conflict", func(t *testing.T) {
		s := newStubs()
		s.decide.fn = func(context.Context, dto.StageDecisionRequest) (dto.ApplicationResponse, error) {
			return dto.ApplicationResponse{}, valueobject.InvalidState("application is PENDING_RCPU, not PENDING_L1")
		}
		rec := do(s.router(t, discardLogger(), nil), http.MethodPost,
			"/api/v1/applications/app-1/decisions/L1", `{"decision":"APPROVE"}`,
			map[string]string{actorHeader: "manager@bank.test"})

		assert.Equal(t, http.StatusConflict, rec.Code)
		assert.Equal(t, "invalid_state", decodeError(t, rec).Kind)
	})
}

func TestCancel(t *testing.T) {
	s := newStubs()
	rec := do(s.router(t, discardLogger(), nil), http.MethodPost,
		"/api/v1/applications/app-1/cancel", `{"reason":"customer withdrew"}`,
		map[string]string{actorHeader: "admin@bank.test"})

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "app-1", s.cancel.got.ApplicationID)
	assert.Equal(t, "admin@bank.test", s.cancel.got.ActorEmail)
	assert.Equal(t, "customer withdrew", s.cancel.got.Reason)
}

// ---------------------------------------------------------------------------
// Offer and ledger
// ---------------------------------------------------------------------------

func TestIssueOffer(t *testing.T) {
	s := newStubs()
	rec := do(s.router(t, discardLogger(), nil), http.MethodPost,
		"/api/v1/applications/app-1/offer", `{"approved_amount":"900000","interest_rate":8.5,"tenure_years":15}`,
		map[string]string{actorHeader: "admin@bank.test"})

	require.Equal(t, http.StatusCreated, rec.Code)
	got := s.offer.got
	assert.Equal(t, "app-1", got.ApplicationID)
	assert.True(t, decimal.NewFromInt(900_000).Equal(got.ApprovedAmount))
	assert.True(t, decimal.RequireFromString("8.5").Equal(got.InterestRate))
	assert.Equal(t, 15, got.TenureYears)
}

func TestApplyPayment(t *testing.T) {
	s := newStubs()
	s.payment.fn = func(context.Context, dto.ApplyPaymentRequest) (dto.ScheduleRowResponse, error) {
		return dto.ScheduleRowResponse{}, valueobject.ErrAlreadySettled
	}
	rec := do(s.router(t, discardLogger(), nil), http.MethodPost,
		"/api/v1/schedule-rows/row-7/payments", `{"amount":"9650.22","remarks":"NEFT"}`, nil)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "row-7", s.payment.got.RowID)
	assert.Equal(t, "9650.22", s.payment.got.Amount.String())
}

func TestMarkOverdue(t *testing.T) {
	t.Run("empty body sweeps as of now", func(t *testing.T) {
		s := newStubs()
		rec := do(s.router(t, discardLogger(), nil), http.MethodPost, "/api/v1/overdue-sweeps", "", nil)

		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, 1, s.overdue.calls)
	})

	t.Run("empty object", func(t *testing.T) {
		s := newStubs()
		rec := do(s.router(t, discardLogger(), nil), http.MethodPost, "/api/v1/overdue-sweeps", `{}`, nil)

		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, 1, s.overdue.calls)
	})

	t.Run("callers cannot pick the sweep date", func(t *testing.T) {
		s := newStubs()
		rec := do(s.router(t, discardLogger(), nil), http.MethodPost, "/api/v1/overdue-sweeps", `{"as_of":"2099-01-01"}`, nil)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Zero(t, s.overdue.calls)
	})
}

func TestRegisterActor(t *testing.T) {
	const body = `{"email":"uw@bank.test","full_name":"Asha Rao","role":"UNDERWRITER"}`

	t.Run("caller comes from the actor header", func(t *testing.T) {
		s := newStubs()
		rec := do(s.router(t, discardLogger(), nil), http.MethodPost, "/api/v1/actors", body,
			map[string]string{"X-Actor-Email": "admin@bank.test"})

		require.Equal(t, http.StatusCreated, rec.Code)
		assert.Equal(t, "UNDERWRITER", s.actor.got.Role)
		assert.Equal(t, "admin@bank.test", s.actor.got.ActorEmail)
	})

	t.Run("anonymous callers are refused", func(t *testing.T) {
		s := newStubs()
		rec := do(s.router(t, discardLogger(), nil), http.MethodPost, "/api/v1/actors", body, nil)

		assert.Equal(t, http.StatusForbidden, rec.Code)
		assert.Zero(t, s.actor.calls)
	})

	t.Run("the body cannot name the caller", func(t *testing.T) {
		s := newStubs()
		rec := do(s.router(t, discardLogger(), nil), http.MethodPost, "/api/v1/actors",
			`{"actor_email":"admin@bank.test","email":"l1@bank.test","role":"ADMIN"}`,
			map[string]string{"X-Actor-Email": "l1@bank.test"})

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Zero(t, s.actor.calls)
	})
}

// ---------------------------------------------------------------------------
// Router plumbing
// ---------------------------------------------------------------------------

func TestRouter_UnknownRouteAndMethod(t *testing.T) {
	h := newStubs().router(t, discardLogger(), nil)

	rec := do(h, http.MethodGet, "/api/v2/anything", "", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "not_found", decodeError(t, rec).Kind)

	rec = do(h, http.MethodDelete, "/api/v1/applications/app-1", "", nil)
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestRouter_Metrics(t *testing.T) {
	rec := do(newStubs().router(t, discardLogger(), nil), http.MethodGet, "/metrics", "", nil)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "# metrics")
}

func TestLoggingMiddleware_LogsRouteTemplate(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))
	s := newStubs()
	s.get.fn = func(context.Context, dto.GetApplicationRequest) (dto.ApplicationResponse, error) {
		return dto.ApplicationResponse{}, valueobject.NotFound("application %s", "app-9")
	}

	rec := do(s.router(t, logger, nil), http.MethodGet, "/api/v1/applications/app-9", "", map[string]string{actorHeader: "uw@bank.test"})

	assert.Equal(t, http.StatusNotFound, rec.Code)
	out := buf.String()
	assert.Contains(t, out, `"route":"/api/v1/applications/{id}"`)
	assert.Contains(t, out, `"status":404`)
	assert.Contains(t, out, `"actor":"uw@bank.test"`)
}

func TestRecoveryMiddleware(t *testing.T) {
	s := newStubs()
	s.ledger.fn = func(context.Context, dto.GetApplicationRequest) (dto.LedgerSummaryResponse, error) {
		panic("nil schedule")
	}
	rec := do(s.router(t, discardLogger(), nil), http.MethodGet, "/api/v1/applications/app-1/ledger", "", nil)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

// ---------------------------------------------------------------------------
// Health
// ---------------------------------------------------------------------------

func TestHealth(t *testing.T) {
	t.Run("liveness", func(t *testing.T) {
		rec := do(newStubs().router(t, discardLogger(), nil), http.MethodGet, "/healthz", "", nil)

		require.Equal(t, http.StatusOK, rec.Code)
		var body map[string]string
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
		assert.Equal(t, "ok", body["status"])
		assert.Equal(t, "loan-origination", body["service"])
	})

	t.Run("ready when all checks pass", func(t *testing.T) {
		checks := map[string]ReadinessCheck{"database": func(context.Context) error { return nil }}
		rec := do(newStubs().router(t, discardLogger(), checks), http.MethodGet, "/readyz", "", nil)

		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("unavailable when a check fails", func(t *testing.T) {
		checks := map[string]ReadinessCheck{
			"database": func(context.Context) error { return nil },
			"kafka":    func(context.Context) error { return errors.New("no brokers") },
		}
		rec := do(newStubs().router(t, discardLogger(), checks), http.MethodGet, "/readyz", "", nil)

		require.Equal(t, http.StatusServiceUnavailable, rec.Code)
		var body struct {
			Status string            `json:"status"`
			Failed map[string]string `json:"failed"`
		}
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
		assert.Equal(t, "unavailable", body.Status)
		assert.Equal(t, map[string]string{"kafka": "no brokers"}, body.Failed)
	})
}

// ---------------------------------------------------------------------------
// Bearer tokens
// ---------------------------------------------------------------------------

func TestAuthMiddleware(t *testing.T) {
	jwtSvc, err := auth.NewJWTService(auth.JWTConfig{Secret: "test-secret", Issuer: "loan-origination", Expiration: time.Hour})
	require.NoError(t, err)
	token, err := jwtSvc.IssueToken("Manager@Bank.test", "MANAGER_L1", time.Now())
	require.NoError(t, err)
	const path = "/api/v1/applications/app-1/decisions/L1"

	t.Run("header alone is ignored", func(t *testing.T) {
		s := newStubs()
		rec := do(s.routerWithVerifier(t, discardLogger(), nil, jwtSvc), http.MethodPost, path,
			`{"decision":"APPROVE"}`, map[string]string{actorHeader: "admin@bank.test"})

		assert.Equal(t, http.StatusForbidden, rec.Code)
		assert.Zero(t, s.decide.calls)
	})

	t.Run("token identifies the actor", func(t *testing.T) {
		s := newStubs()
		rec := do(s.routerWithVerifier(t, discardLogger(), nil, jwtSvc), http.MethodPost, path,
			`{"decision":"APPROVE"}`, map[string]string{
				"Authorization": "Bearer " + token,
				actorHeader:     "admin@bank.test",
			})

		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "manager@bank.test", s.decide.got.ActorEmail)
	})

	t.Run("invalid token", func(t *testing.T) {
		s := newStubs()
		rec := do(s.routerWithVerifier(t, discardLogger(), nil, jwtSvc), http.MethodPost, path,
			`{"decision":"APPROVE"}`, map[string]string{"Authorization": "Bearer " + token + "x"})

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Zero(t, s.decide.calls)
	})

	t.Run("not a bearer token", func(t *testing.T) {
		s := newStubs()
		rec := do(s.routerWithVerifier(t, discardLogger(), nil, jwtSvc), http.MethodPost, path,
			`{"decision":"APPROVE"}`, map[string]string{"Authorization": "Basic dXNlcjpwYXNz"})

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("probes need no token", func(t *testing.T) {
		rec := do(newStubs().routerWithVerifier(t, discardLogger(), nil, jwtSvc), http.MethodGet, "/healthz", "", nil)
		assert.Equal(t, http.StatusOK, rec.Code)
	})
}
