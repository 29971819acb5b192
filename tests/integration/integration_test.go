package integration_test

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/boddenberg/realty-portal-bfa/internal/dataview"
	"github.com/boddenberg/realty-portal-bfa/internal/domain"
	"github.com/boddenberg/realty-portal-bfa/internal/handler"
	"github.com/boddenberg/realty-portal-bfa/internal/infra/backend"
	"github.com/boddenberg/realty-portal-bfa/internal/infra/cache"
	"github.com/boddenberg/realty-portal-bfa/internal/infra/observability"
	"github.com/boddenberg/realty-portal-bfa/internal/infra/resilience"
	"github.com/boddenberg/realty-portal-bfa/internal/service"
	"github.com/boddenberg/realty-portal-bfa/internal/session"
	"github.com/boddenberg/realty-portal-bfa/internal/tenant"
)

var pdfBytes = []byte("%PDF-1.4\n1 0 obj<<>>endobj\ntrailer<<>>\n%%EOF")

// buildBFA wires the whole BFA in front of backendURL.
func buildBFA(t *testing.T, backendURL string) (*httptest.Server, *observability.Metrics) {
	t.Helper()
	logger := zap.NewNop()
	metrics := observability.NewMetrics()
	breaker := resilience.NewCircuitBreaker("integration", backend.IsUpstreamFailure, nil)
	client := backend.NewClient(backendURL, 2*time.Second, breaker,
		resilience.Config{MaxRetries: 1, InitialBackoff: time.Millisecond, MaxConcurrency: 4}, metrics, logger)

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	sessions := session.NewManager(rdb, session.NewSigner("integration", time.Hour), session.NewSealer("integration"), logger, func(error) { metrics.IncrHydrationFailure() })

	brandingCache := cache.New[domain.Branding](time.Minute)
	t.Cleanup(brandingCache.Close)
	resolver := tenant.NewResolver(client, brandingCache, time.Second, metrics, logger)

	views := service.Views{
		Users:   dataview.NewRegistry[domain.User]("users", time.Minute),
		Clients: dataview.NewRegistry[domain.ClientForm]("clients", time.Minute),
		Agents:  dataview.NewRegistry[domain.AgentPerformance]("agents", time.Minute),
	}
	fetcher := service.NewFetcher(client, client, client, views, metrics, logger)
	auth := service.NewAuthService(client, client, client, sessions, fetcher, "price_basic", logger)
	t.Cleanup(auth.Close)

	srv := httptest.NewServer(handler.NewRouter(handler.Deps{
		Sessions:    sessions,
		Auth:        auth,
		Fetcher:     fetcher,
		Dashboard:   service.NewDashboardService(fetcher, resolver, logger),
		Clients:     service.NewClientService(client, logger),
		Companies:   service.NewCompanyService(client, resolver, logger),
		Users:       service.NewUserAdmin(client, logger),
		Invitations: service.NewInvitationService(client, logger),
		Exporter:    service.NewExporter(fetcher),
		Backend:     client,
		Metrics:     metrics,
		Cookie:      handler.CookieConfig{Name: "portal_session"},
		BaseDomain:  "portal.test",
		Logger:      logger,
	}))
	t.Cleanup(srv.Close)
	return srv, metrics
}

func signupForm(t *testing.T) (*bytes.Buffer, string) {
	t.Helper()
	body := &bytes.Buffer{}
	mw := multipart.NewWriter(body)
	fields := map[string]string{
		"name":              "Ann Agent",
		"email":             "ann@acme.test",
		"phone":             "555-123-4567",
		"password":          "long-enough-pw",
		"confirm_password":  "long-enough-pw",
		"company_name":      "Acme Realty",
		"signature_strokes": `[[{"x":10,"y":10},{"x":120,"y":80}]]`,
		"initials_strokes":  `[[{"x":5,"y":5},{"x":40,"y":30}]]`,
		"terms_accepted":    "true",
	}
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	for _, field := range []string{domain.FieldBuyerBrokerAgreement, domain.FieldExclusiveEmploymentAgreement} {
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", `form-data; name="`+field+`"; filename="`+field+`.pdf"`)
		h.Set("Content-Type", "application/pdf")
		part, err := mw.CreatePart(h)
		require.NoError(t, err)
		_, _ = part.Write(pdfBytes)
	}
	require.NoError(t, mw.Close())
	return body, mw.FormDataContentType()
}

func decode(t *testing.T, resp *http.Response) map[string]any {
	t.Helper()
	defer resp.Body.Close()
	out := map[string]any{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return out
}

// TestIntegration_SignupCheckoutRetry registers an agent whose first
// checkout fails, then finishes checkout without registering again.
func TestIntegration_SignupCheckoutRetry(t *testing.T) {
	var registrations, checkouts atomic.Int32

	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/auth/register", func(w http.ResponseWriter, r *http.Request) {
		registrations.Add(1)
		require.NoError(t, r.ParseMultipartForm(1<<20))
		assert.Equal(t, "ann@acme.test", r.FormValue("email"))
		assert.Equal(t, "price_basic", r.FormValue("plan"))
		assert.Contains(t, r.FormValue("signature"), "data:image/png;base64,")
		_, _, err := r.FormFile(domain.FieldExclusiveEmploymentAgreement)
		assert.NoError(t, err)
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(domain.RegisterResponse{UserID: "u-new", Email: "ann@acme.test"})
	})
	mux.HandleFunc("POST /api/payments/create-checkout-session", func(w http.ResponseWriter, r *http.Request) {
		if checkouts.Add(1) == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			json.NewEncoder(w).Encode(map[string]string{"error": "payments unavailable"})
			return
		}
		var req domain.CheckoutRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "u-new", req.UserID)
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(domain.CheckoutSession{URL: "https://pay.test/cs_1", SessionID: "cs_1"})
	})
	upstream := httptest.NewServer(mux)
	defer upstream.Close()

	bfa, _ := buildBFA(t, upstream.URL)

	body, contentType := signupForm(t)
	resp, err := http.Post(bfa.URL+"/api/auth/register", contentType, body)
	require.NoError(t, err)
	require.Equal(t, http.StatusBadGateway, resp.StatusCode)
	failure := decode(t, resp)
	assert.Equal(t, "checkout", failure["step"])
	assert.Equal(t, "payment checkout could not be started: payments unavailable", failure["error"])
	assert.Equal(t, domain.ActionRetry, failure["action"])
	pendingID, _ := failure["registration_id"].(string)
	require.NotEmpty(t, pendingID)

	resp, err = http.Post(bfa.URL+"/api/auth/register/"+pendingID+"/checkout", "application/json", nil)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	result := decode(t, resp)
	assert.Equal(t, "https://pay.test/cs_1", result["checkoutUrl"])

	assert.EqualValues(t, 1, registrations.Load())
	assert.EqualValues(t, 2, checkouts.Load())

	resp, err = http.Post(bfa.URL+"/api/auth/register/"+pendingID+"/checkout", "application/json", nil)
	require.NoError(t, err)
	assert.Equal(t, http.StatusGone, resp.StatusCode, "a finished registration cannot be retried")
	resp.Body.Close()
}

// TestIntegration_SignupRegisterFailureNamesStep checks that a failed
// registration reports its own reason and offers no checkout retry.
func TestIntegration_SignupRegisterFailureNamesStep(t *testing.T) {
	var checkouts atomic.Int32
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/auth/register", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		json.NewEncoder(w).Encode(map[string]string{"error": "storage offline"})
	})
	mux.HandleFunc("POST /api/payments/create-checkout-session", func(w http.ResponseWriter, r *http.Request) {
		checkouts.Add(1)
	})
	upstream := httptest.NewServer(mux)
	defer upstream.Close()

	bfa, _ := buildBFA(t, upstream.URL)

	body, contentType := signupForm(t)
	resp, err := http.Post(bfa.URL+"/api/auth/register", contentType, body)
	require.NoError(t, err)
	require.Equal(t, http.StatusBadGateway, resp.StatusCode)
	failure := decode(t, resp)
	assert.Equal(t, "registration", failure["step"])
	assert.Equal(t, "registration failed: storage offline", failure["error"])
	assert.Nil(t, failure["registration_id"])
	assert.Zero(t, checkouts.Load())
}

// TestIntegration_BreakerOpensOnFailingBackend checks that a failing backend
// trips the breaker and the BFA then answers without calling it.
func TestIntegration_BreakerOpensOnFailingBackend(t *testing.T) {
	var clientCalls atomic.Int32
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/auth/login", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(domain.LoginResponse{
			Token: "up-1",
			User:  domain.User{ID: "a-1", Email: "agent@acme.test", Role: domain.RoleAgent, CompanyID: "co-1", IsActive: true},
		})
	})
	mux.HandleFunc("GET /api/clients/{id}", func(w http.ResponseWriter, r *http.Request) {
		clientCalls.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	})
	upstream := httptest.NewServer(mux)
	defer upstream.Close()

	bfa, metrics := buildBFA(t, upstream.URL)

	raw, _ := json.Marshal(domain.LoginRequest{Email: "agent@acme.test", Password: "correct-horse"})
	resp, err := http.Post(bfa.URL+"/api/auth/login", "application/json", bytes.NewReader(raw))
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	token := decode(t, resp)["session_token"].(string)

	get := func() (int, map[string]any) {
		req, _ := http.NewRequest(http.MethodGet, bfa.URL+"/api/clients/c-1", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		resp, err := http.DefaultClient.Do(req)
		require.NoError(t, err)
		return resp.StatusCode, decode(t, resp)
	}

	// The successful login plus four failures reach the trip ratio.
	for i := 0; i < 4; i++ {
		status, body := get()
		require.Equal(t, http.StatusBadGateway, status)
		assert.Equal(t, domain.ActionRetry, body["action"])
	}
	callsBeforeOpen := clientCalls.Load()

	status, body := get()
	assert.Equal(t, http.StatusServiceUnavailable, status)
	assert.Equal(t, domain.ActionRetry, body["action"])
	assert.Equal(t, callsBeforeOpen, clientCalls.Load(), "an open breaker never reaches the backend")
	assert.Positive(t, metrics.Summary().UpstreamErrors["backend"])
}

// TestIntegration_AcceptInvitation joins a company through an invitation link.
func TestIntegration_AcceptInvitation(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/invitations/accept", func(w http.ResponseWriter, r *http.Request) {
		var req domain.AcceptInvitationRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		w.Header().Set("Content-Type", "application/json")
		if req.Token != "inv-ok" {
			w.WriteHeader(http.StatusNotFound)
			json.NewEncoder(w).Encode(map[string]string{"error": "invitation not found"})
			return
		}
		json.NewEncoder(w).Encode(domain.RegisterResponse{UserID: "u-inv"})
	})
	upstream := httptest.NewServer(mux)
	defer upstream.Close()

	bfa, _ := buildBFA(t, upstream.URL)

	post := func(token string) *http.Response {
		raw, _ := json.Marshal(map[string]any{
			"token": token, "name": "Iris Invitee",
			"password": "long-enough-pw", "confirm_password": "long-enough-pw",
			"terms_accepted": true,
		})
		resp, err := http.Post(bfa.URL+"/api/invitations/accept", "application/json", bytes.NewReader(raw))
		require.NoError(t, err)
		return resp
	}

	resp := post("inv-ok")
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	body := decode(t, resp)
	assert.Equal(t, "u-inv", body["userId"])
	assert.Equal(t, "/login", body["redirect"])

	resp = post("inv-gone")
	assert.Equal(t, http.StatusGone, resp.StatusCode)
	assert.Equal(t, domain.ActionRequestNewLink, decode(t, resp)["action"])
}
