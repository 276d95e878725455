package transport

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
)

func dohTestConn(t *testing.T, handler http.HandlerFunc) *dohConn {
	t.Helper()
	ts := httptest.NewTLSServer(handler)
	t.Cleanup(ts.Close)
	return &dohConn{client: ts.Client(), url: ts.URL + "/dns-query"}
}

func TestDoHExchange(t *testing.T) {
	reply := []byte{0, 0, 0x80, 0, 0, 0, 0, 0, 0, 0, 0, 0}
	conn := dohTestConn(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("method = %s; want POST", r.Method)
		}
		if ct := r.Header.Get("Content-Type"); ct != mediaType {
			t.Errorf("Content-Type = %q; want %q", ct, mediaType)
		}
		body, _ := io.ReadAll(r.Body)
		if len(body) != 12 {
			t.Errorf("body = %d bytes; want 12", len(body))
		}
		w.Header().Set("Content-Type", mediaType)
		_, _ = w.Write(reply)
	})

	query := make([]byte, 12)
	resp, err := conn.Exchange(context.Background(), query)
	if err != nil {
		t.Fatalf("Exchange: %v", err)
	}
	if len(resp) != len(reply) {
		t.Errorf("response = %d bytes; want %d", len(resp), len(reply))
	}
	sent, recv := conn.Stats()
	if sent != 12 || recv != len(reply) {
		t.Errorf("stats = %d/%d", sent, recv)
	}
}

func TestDoHExchangeStatusError(t *testing.T) {
	conn := dohTestConn(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusForbidden)
	})
	_, err := conn.Exchange(context.Background(), make([]byte, 12))
	var statusErr *HTTPStatusError
	if !errors.As(err, &statusErr) {
		t.Fatalf("err = %v; want *HTTPStatusError", err)
	}
	if statusErr.Status != http.StatusForbidden {
		t.Errorf("status = %d; want 403", statusErr.Status)
	}
}

func TestTLSConfigSNIOverride(t *testing.T) {
	ep := &Endpoint{Host: "dns.example"}
	cfg, err := tlsConfig(ep, Options{})
	if err != nil {
		t.Fatal(err)
	}
	if cfg.ServerName != "dns.example" {
		t.Errorf("ServerName = %q; want endpoint host", cfg.ServerName)
	}
	cfg, err = tlsConfig(ep, Options{SNI: "other.example"})
	if err != nil {
		t.Fatal(err)
	}
	if cfg.ServerName != "other.example" {
		t.Errorf("ServerName = %q; want SNI override", cfg.ServerName)
	}
}

func TestTLSConfigCustomCert(t *testing.T) {
	const pem = `-----BEGIN CERTIFICATE-----
MIIBhTCCASugAwIBAgIQIRi6zePL6mKjOipn+dNuaTAKBggqhkjOPQQDAjASMRAw
DgYDVQQKEwdBY21lIENvMB4XDTE3MTAyMDE5NDMwNloXDTE4MTAyMDE5NDMwNlow
EjEQMA4GA1UEChMHQWNtZSBDbzBZMBMGByqGSM49AgEGCCqGSM49AwEHA0IABD0d
7VNhbWvZLWPuj/RtHFjvtJBEwOkhbN/BnnE8rnZR8+sbwnc/KhCk3FhnpHZnQz7B
5aETbbIgmuvewdjvSBSjYzBhMA4GA1UdDwEB/wQEAwICpDATBgNVHSUEDDAKBggr
BgEFBQcDATAPBgNVHRMBAf8EBTADAQH/MCkGA1UdEQQiMCCCDmxvY2FsaG9zdDo1
NDUzgg4xMjcuMC4wLjE6NTQ1MzAKBggqhkjOPQQDAgNIADBFAiEA2zpJEPQyz6/l
Wf86aX6PepsntZv2GYlA5UpabfT2EZICICpJ5h/iI+i341gBmLiAFQOyTDT+/wQc
6MF9+Yw1Yy0t
-----END CERTIFICATE-----`
	cfg, err := tlsConfig(&Endpoint{Host: "localhost"}, Options{CertPEM: []byte(pem)})
	if err != nil {
		t.Fatal(err)
	}
	if cfg.RootCAs == nil {
		t.Error("RootCAs not set from PEM certificate")
	}

	if _, err := tlsConfig(&Endpoint{Host: "x"}, Options{CertPEM: []byte("garbage")}); err == nil {
		t.Error("garbage certificate accepted")
	}
}
