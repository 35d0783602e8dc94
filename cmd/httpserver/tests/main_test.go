//go:build integration

package tests

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/go-petr/wholecoin/cmd/httpserver"
	"github.com/go-petr/wholecoin/pkg/randompkg"
	"github.com/go-petr/wholecoin/pkg/web"
)

type envelope struct {
	AccessToken string          `json:"access_token"`
	Data        json.RawMessage `json:"data"`
	Error       *web.JSONError  `json:"error"`
}

// call serves one request against server and decodes the response envelope.
func call(t *testing.T, server *httpserver.Server, method, path, token string, body gin.H, header map[string]string) (*httptest.ResponseRecorder, envelope) {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("json.Encode(%v) returned error: %v", body, err)
		}
	}

	req, err := http.NewRequest(method, path, &buf)
	if err != nil {
		t.Fatalf("http.NewRequest(%q, %q) returned error: %v", method, path, err)
	}

	req.Header.Set("Content-Type", "application/json")

	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	for k, v := range header {
		req.Header.Set(k, v)
	}

	recorder := httptest.NewRecorder()
	server.ServeHTTP(recorder, req)

	var env envelope
	if err := json.Unmarshal(recorder.Body.Bytes(), &env); err != nil {
		t.Fatalf("json.Unmarshal(%s) returned error: %v", recorder.Body.String(), err)
	}

	return recorder, env
}

// signup creates a funded user with a wallet and returns its access token.
func signup(t *testing.T, server *httpserver.Server) string {
	t.Helper()

	body := gin.H{
		"username":       randompkg.Owner(),
		"password":       "qwerty",
		"fullname":       "Foo Boo",
		"email":          randompkg.Email(),
		"wallet_address": randompkg.WalletAddress(),
	}

	recorder, env := call(t, server, http.MethodPost, "/users", "", body, nil)
	if recorder.Code != http.StatusOK {
		t.Fatalf("POST /users returned %d: %s", recorder.Code, recorder.Body.String())
	}

	if env.AccessToken == "" {
		t.Fatal(`env.AccessToken="", want not empty`)
	}

	return env.AccessToken
}

func decode[T any](t *testing.T, raw json.RawMessage) T {
	t.Helper()

	var v T
	if err := json.Unmarshal(raw, &v); err != nil {
		t.Fatalf("json.Unmarshal(%s) returned error: %v", raw, err)
	}

	return v
}
