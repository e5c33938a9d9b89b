package http

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/Tcordeir0/vpsurge-fin/internal/auth"
	"github.com/Tcordeir0/vpsurge-fin/internal/dashboard"
	"github.com/Tcordeir0/vpsurge-fin/internal/feed"
	"github.com/Tcordeir0/vpsurge-fin/internal/notify"
	"github.com/Tcordeir0/vpsurge-fin/internal/store"
	"github.com/Tcordeir0/vpsurge-fin/internal/vps"
)

type testEnv struct {
	server *Server
	auth   *auth.MemoryProvider
	ring   *notify.Ring
}

func newTestEnv(t *testing.T, authToken string) *testEnv {
	t.Helper()

	provider := auth.NewMemoryProvider()
	ring := notify.NewRing(100)
	ctrl := dashboard.NewController(store.NewMemoryStore(), feed.NewMemoryFeed(), provider, ring)
	if err := ctrl.Start(context.Background()); err != nil {
		t.Fatalf("controller start failed: %v", err)
	}
	t.Cleanup(func() { ctrl.Stop(context.Background()) })

	fileStore, err := vps.NewFileStore(filepath.Join(t.TempDir(), "vps.json"))
	if err != nil {
		t.Fatalf("vps store failed: %v", err)
	}
	manager := vps.NewManager(fileStore, ring, vps.ManagerConfig{})

	srv := NewServer(":0", ctrl, manager, ring, authToken)
	t.Cleanup(func() { srv.Shutdown(context.Background()) })

	return &testEnv{server: srv, auth: provider, ring: ring}
}

func (e *testEnv) do(t *testing.T, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body == "" {
		reader = bytes.NewReader(nil)
	} else {
		reader = bytes.NewReader([]byte(body))
	}
	req := httptest.NewRequest(method, path, reader)
	rec := httptest.NewRecorder()
	e.server.Server.Handler.ServeHTTP(rec, req)
	return rec
}

func decodeJSON[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(rec.Body.Bytes(), &v); err != nil {
		t.Fatalf("decode response: %v\nbody: %s", err, rec.Body.String())
	}
	return v
}

func TestHealthEndpoints(t *testing.T) {
	env := newTestEnv(t, "")

	if rec := env.do(t, http.MethodGet, "/healthz", ""); rec.Code != http.StatusOK {
		t.Errorf("healthz: expected 200, got %d", rec.Code)
	}
	if rec := env.do(t, http.MethodGet, "/readyz", ""); rec.Code != http.StatusOK {
		t.Errorf("readyz: expected 200, got %d", rec.Code)
	}
}

func TestBearerTokenRequired(t *testing.T) {
	env := newTestEnv(t, "secret-token")

	rec := env.do(t, http.MethodGet, "/api/transactions", "")
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token, got %d", rec.Code)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/transactions", nil)
	req.Header.Set("Authorization", "Bearer secret-token")
	good := httptest.NewRecorder()
	env.server.Server.Handler.ServeHTTP(good, req)
	if good.Code != http.StatusOK {
		t.Errorf("expected 200 with token, got %d", good.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/api/transactions", nil)
	req.Header.Set("Authorization", "Bearer wrong")
	bad := httptest.NewRecorder()
	env.server.Server.Handler.ServeHTTP(bad, req)
	if bad.Code != http.StatusUnauthorized {
		t.Errorf("expected 401 with wrong token, got %d", bad.Code)
	}
}

func TestCreateAndListTransactions(t *testing.T) {
	env := newTestEnv(t, "")
	env.auth.SignIn(auth.User{ID: "user-1"})

	rec := env.do(t, http.MethodPost, "/api/transactions",
		`{"amount":"150.50","kind":"expense","occurredAt":"2025-06-10","description":"hosting","category":"infrastructure"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	created := decodeJSON[transactionJSON](t, rec)
	if created.AmountCents != -15050 {
		t.Errorf("expected stored cents -15050, got %d", created.AmountCents)
	}
	if created.Kind != "expense" {
		t.Errorf("expected kind expense, got %q", created.Kind)
	}

	rec = env.do(t, http.MethodGet, "/api/transactions", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	list := decodeJSON[listResponse](t, rec)
	if list.State != "ready" {
		t.Errorf("expected ready state, got %q", list.State)
	}
	if len(list.Transactions) != 1 || list.Transactions[0].Description != "hosting" {
		t.Errorf("unexpected list: %+v", list.Transactions)
	}
}

func TestCreateTransactionValidation(t *testing.T) {
	env := newTestEnv(t, "")
	env.auth.SignIn(auth.User{ID: "user-1"})

	cases := []struct {
		name string
		body string
		want int
	}{
		{"bad json", `{`, http.StatusBadRequest},
		{"bad amount", `{"amount":"abc","kind":"expense"}`, http.StatusUnprocessableEntity},
		{"signed amount", `{"amount":"-5","kind":"expense"}`, http.StatusUnprocessableEntity},
		{"bad kind", `{"amount":"5","kind":"transfer"}`, http.StatusUnprocessableEntity},
		{"bad date", `{"amount":"5","kind":"income","occurredAt":"junk"}`, http.StatusUnprocessableEntity},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := env.do(t, http.MethodPost, "/api/transactions", tc.body)
			if rec.Code != tc.want {
				t.Errorf("expected %d, got %d: %s", tc.want, rec.Code, rec.Body.String())
			}
		})
	}
}

func TestMutationsRequireSignIn(t *testing.T) {
	env := newTestEnv(t, "")

	rec := env.do(t, http.MethodPost, "/api/transactions", `{"amount":"5","kind":"income"}`)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("expected 401 while signed out, got %d", rec.Code)
	}
}

func TestUpdateAndDeleteTransaction(t *testing.T) {
	env := newTestEnv(t, "")
	env.auth.SignIn(auth.User{ID: "user-1"})

	rec := env.do(t, http.MethodPost, "/api/transactions", `{"amount":"100","kind":"income"}`)
	created := decodeJSON[transactionJSON](t, rec)
	path := fmt.Sprintf("/api/transactions/%d", created.ID)

	rec = env.do(t, http.MethodPut, path, `{"description":"salary"}`)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d: %s", rec.Code, rec.Body.String())
	}

	rec = env.do(t, http.MethodPut, path, `{"amount":"50"}`)
	if rec.Code != http.StatusUnprocessableEntity {
		t.Errorf("expected 422 for amount without kind, got %d", rec.Code)
	}

	rec = env.do(t, http.MethodDelete, "/api/transactions/999", "")
	if rec.Code != http.StatusNotFound {
		t.Errorf("expected 404 for unknown id, got %d", rec.Code)
	}

	rec = env.do(t, http.MethodDelete, path, "")
	if rec.Code != http.StatusNoContent {
		t.Errorf("expected 204, got %d", rec.Code)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	env := newTestEnv(t, "")
	env.auth.SignIn(auth.User{ID: "user-1"})

	env.do(t, http.MethodPost, "/api/transactions", `{"amount":"5000","kind":"income"}`)
	env.do(t, http.MethodPost, "/api/transactions", `{"amount":"1650.50","kind":"expense"}`)

	rec := env.do(t, http.MethodGet, "/api/metrics", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	m := decodeJSON[metricsResponse](t, rec)
	if m.TotalBalanceCents != 334950 {
		t.Errorf("expected balance 334950, got %d", m.TotalBalanceCents)
	}
	if m.TotalBalance != "3349.50" {
		t.Errorf("expected formatted balance 3349.50, got %q", m.TotalBalance)
	}
}

func TestMonthlyChartValidatesRange(t *testing.T) {
	env := newTestEnv(t, "")
	env.auth.SignIn(auth.User{ID: "user-1"})

	rec := env.do(t, http.MethodGet, "/api/charts/monthly?months=0", "")
	if rec.Code != http.StatusUnprocessableEntity {
		t.Errorf("expected 422 for months=0, got %d", rec.Code)
	}

	rec = env.do(t, http.MethodGet, "/api/charts/monthly?months=6", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	series := decodeJSON[[]monthlyPointJSON](t, rec)
	if len(series) != 6 {
		t.Errorf("expected 6 points, got %d", len(series))
	}
}

func TestNotificationsDrain(t *testing.T) {
	env := newTestEnv(t, "")
	env.auth.SignIn(auth.User{ID: "user-1"})
	env.do(t, http.MethodPost, "/api/transactions", `{"amount":"5","kind":"income"}`)

	rec := env.do(t, http.MethodGet, "/api/notifications", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	first := decodeJSON[[]notify.Message](t, rec)
	if len(first) == 0 {
		t.Fatal("expected at least one notification after create")
	}

	rec = env.do(t, http.MethodGet, "/api/notifications", "")
	second := decodeJSON[[]notify.Message](t, rec)
	if len(second) != 0 {
		t.Errorf("expected empty after drain, got %d", len(second))
	}
}

func TestVPSLifecycle(t *testing.T) {
	env := newTestEnv(t, "")

	rec := env.do(t, http.MethodPost, "/api/vps",
		`{"name":"web-1","host":"203.0.113.10","port":22,"username":"deploy"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	created := decodeJSON[vps.Config](t, rec)
	if created.ID == "" {
		t.Fatal("expected generated id")
	}

	rec = env.do(t, http.MethodGet, "/api/vps", "")
	list := decodeJSON[vpsListResponse](t, rec)
	if len(list.Configs) != 1 || len(list.Statuses) != 1 {
		t.Fatalf("expected one config and status, got %+v", list)
	}
	if list.Statuses[0].State != vps.StateUnknown {
		t.Errorf("expected unknown initial state, got %s", list.Statuses[0].State)
	}

	rec = env.do(t, http.MethodPost, "/api/vps/"+created.ID+"/test", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("test: expected 200, got %d", rec.Code)
	}
	st := decodeJSON[vps.Status](t, rec)
	if st.State != vps.StateOnline && st.State != vps.StateOffline {
		t.Errorf("expected online or offline after test, got %s", st.State)
	}

	rec = env.do(t, http.MethodPost, "/api/vps/"+created.ID+"/restart", "")
	st = decodeJSON[vps.Status](t, rec)
	if st.State != vps.StateOnline {
		t.Errorf("expected online after restart, got %s", st.State)
	}

	rec = env.do(t, http.MethodDelete, "/api/vps/"+created.ID, "")
	if rec.Code != http.StatusNoContent {
		t.Errorf("delete: expected 204, got %d", rec.Code)
	}
	rec = env.do(t, http.MethodPost, "/api/vps/"+created.ID+"/restart", "")
	if rec.Code != http.StatusNotFound {
		t.Errorf("expected 404 for deleted entry, got %d", rec.Code)
	}
}

func TestVPSValidation(t *testing.T) {
	env := newTestEnv(t, "")

	rec := env.do(t, http.MethodPost, "/api/vps", `{"name":"","host":"","port":0}`)
	if rec.Code != http.StatusUnprocessableEntity {
		t.Errorf("expected 422, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "error") {
		t.Errorf("expected error payload, got %s", rec.Body.String())
	}
}
