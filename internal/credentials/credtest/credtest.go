// Package credtest provides service account keys and token endpoints for
// tests.
package credtest

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/json"
	"encoding/pem"
	"fmt"
	"io/ioutil"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync/atomic"
	"testing"
)

// PrivateKeyPEM returns a freshly generated RSA key encoded as PKCS#8 PEM.
func PrivateKeyPEM(t *testing.T) string {
	t.Helper()
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		t.Fatalf("failed to generate key: %v", err)
	}
	der, err := x509.MarshalPKCS8PrivateKey(key)
	if err != nil {
		t.Fatalf("failed to marshal key: %v", err)
	}
	return string(pem.EncodeToMemory(&pem.Block{Type: "PRIVATE KEY", Bytes: der}))
}

// KeyJSON returns a service account key file whose token URI is tokenURI.
func KeyJSON(t *testing.T, tokenURI string) []byte {
	t.Helper()
	data, err := json.Marshal(map[string]string{
		"type":           "service_account",
		"project_id":     "test-project",
		"private_key_id": "key-id-1",
		"private_key":    PrivateKeyPEM(t),
		"client_email":   "reporter@test-project.iam.gserviceaccount.com",
		"token_uri":      tokenURI,
	})
	if err != nil {
		t.Fatalf("failed to marshal key: %v", err)
	}
	return data
}

// WriteKey writes a key file into dir and returns its path.
func WriteKey(t *testing.T, dir, tokenURI string) string {
	t.Helper()
	path := filepath.Join(dir, "ga-service-account.json")
	if err := ioutil.WriteFile(path, KeyJSON(t, tokenURI), 0600); err != nil {
		t.Fatalf("failed to write key: %v", err)
	}
	return path
}

// TokenServer is a fake OAuth2 token endpoint.
type TokenServer struct {
	*httptest.Server

	// Requests is the number of token requests served.
	Requests int32
}

// NewTokenServer starts a token endpoint that grants token. An empty token
// makes the endpoint reject the grant with HTTP 400.
func NewTokenServer(token string) *TokenServer {
	ts := &TokenServer{}
	ts.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&ts.Requests, 1)
		if err := r.ParseForm(); err != nil || r.PostForm.Get("assertion") == "" {
			http.Error(w, `{"error":"invalid_request"}`, http.StatusBadRequest)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		if token == "" {
			w.WriteHeader(http.StatusBadRequest)
			fmt.Fprint(w, `{"error":"invalid_grant","error_description":"Invalid JWT Signature."}`)
			return
		}
		fmt.Fprintf(w, `{"access_token":%q,"token_type":"Bearer","expires_in":3600}`, token)
	}))
	return ts
}
