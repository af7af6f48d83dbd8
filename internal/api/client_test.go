package api

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
)

type staticTokens string

func (s staticTokens) Token() string { return string(s) }

func newTestClient(t *testing.T, handler http.Handler, token string, onUnauthorized func()) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client, err := New(Config{
		BaseURL:        server.URL,
		Tokens:         staticTokens(token),
		OnUnauthorized: onUnauthorized,
		HTTPClient:     server.Client(),
	})
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	return client
}

func TestBearerTokenAttached(t *testing.T) {
	var gotAuth string
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		w.Write([]byte(`{}`))
	}), "tok-1", nil)

	if _, err := client.GlobalStats(context.Background()); err != nil {
		t.Fatalf("request: %v", err)
	}
	if gotAuth != "Bearer tok-1" {
		t.Fatalf("Authorization = %q", gotAuth)
	}
}

func TestNoAuthorizationHeaderWithoutToken(t *testing.T) {
	var hadAuth bool
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, hadAuth = r.Header["Authorization"]
		w.Write([]byte(`{}`))
	}), "", nil)

	if _, err := client.GlobalStats(context.Background()); err != nil {
		t.Fatalf("request: %v", err)
	}
	if hadAuth {
		t.Fatal("Authorization header sent without a token")
	}
}

func TestUnauthorizedTearsSessionDown(t *testing.T) {
	tornDown := false
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}), "stale", func() { tornDown = true })

	_, err := client.GlobalStats(context.Background())
	if !errors.Is(err, ErrSessionExpired) {
		t.Fatalf("got %v, want ErrSessionExpired", err)
	}
	if !tornDown {
		t.Fatal("unauthorized hook not invoked")
	}
}

func TestBackendErrorMessageSurfaced(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"mensaje": "monto fuera de rango"}`))
	}), "tok", nil)

	_, err := client.GlobalStats(context.Background())
	if err == nil || err.Error() != "monto fuera de rango" {
		t.Fatalf("error = %v, want backend message", err)
	}
}

func TestTransactionFiltersEncoded(t *testing.T) {
	var gotQuery map[string][]string
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query()
		w.Write([]byte(`{"transacciones": [], "paginacion": {"total": 0, "pagina": 2, "limite": 5, "totalPaginas": 0}}`))
	}), "tok", nil)

	page, err := client.Transactions(context.Background(), TransactionFilters{
		Type:   "retiro",
		Status: "pendiente",
		Page:   2,
		Limit:  5,
	})
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	if got := gotQuery["tipo"]; len(got) != 1 || got[0] != "retiro" {
		t.Fatalf("tipo query = %v", gotQuery)
	}
	if got := gotQuery["estado"]; len(got) != 1 || got[0] != "pendiente" {
		t.Fatalf("estado query = %v", gotQuery)
	}
	if got := gotQuery["pagina"]; len(got) != 1 || got[0] != "2" {
		t.Fatalf("pagina query = %v", gotQuery)
	}
	if page.Pagination.Page != 2 {
		t.Fatalf("pagination = %+v", page.Pagination)
	}
}

func TestPaymentConfigRoundTrip(t *testing.T) {
	var gotBody []byte
	var gotPath string
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		switch r.Method {
		case http.MethodGet:
			w.Write([]byte(`{"success": true, "data": {"precios": {"sala": 50000}}}`))
		case http.MethodPut:
			gotBody, _ = io.ReadAll(r.Body)
			w.Write([]byte(`{"success": true}`))
		}
	}), "tok", nil)

	raw, err := client.PaymentConfig(context.Background())
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if string(raw) != `{"precios": {"sala": 50000}}` {
		t.Fatalf("payment config = %s", raw)
	}

	if err := client.UpdatePaymentConfig(context.Background(), "precios", "sala", 70000); err != nil {
		t.Fatalf("update: %v", err)
	}
	if gotPath != "/api/payment-config" {
		t.Fatalf("update path = %s", gotPath)
	}
	want := `{"configKey":"sala","configType":"precios","configValue":70000}`
	if string(gotBody) != want {
		t.Fatalf("update body = %s, want %s", gotBody, want)
	}
}

func TestConfigEntriesDecoded(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"ok": true, "configuraciones": [
			{"clave": "timeout_sala", "valor": 15, "tipoDato": "number", "rangoValido": {"minimo": 1, "maximo": 60}}
		]}`))
	}), "tok", nil)

	entries, err := client.Configs(context.Background())
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if len(entries) != 1 || entries[0].Key != "timeout_sala" {
		t.Fatalf("entries = %+v", entries)
	}
	if entries[0].ValidRange == nil || *entries[0].ValidRange.Max != 60 {
		t.Fatalf("valid range = %+v", entries[0].ValidRange)
	}
}
