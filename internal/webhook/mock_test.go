package webhook

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestMock_EchoesInBold(t *testing.T) {
	srv := httptest.NewServer(NewMock(MockConfig{Logger: testWebhookLogger()}))
	defer srv.Close()

	reply, err := newTestClient(srv.URL, nil).Exchange(context.Background(), "ping")
	if err != nil {
		t.Fatal(err)
	}
	if reply != "You said: **ping**" {
		t.Fatalf("reply = %q", reply)
	}
}

func TestMock_MethodNotAllowed(t *testing.T) {
	m := NewMock(MockConfig{Logger: testWebhookLogger()})
	req := httptest.NewRequest(http.MethodGet, "/webhook", nil)
	rr := httptest.NewRecorder()
	m.ServeHTTP(rr, req)
	if rr.Code != http.StatusMethodNotAllowed {
		t.Errorf("expected 405, got %d", rr.Code)
	}
}

func TestMock_BadRequests(t *testing.T) {
	m := NewMock(MockConfig{Logger: testWebhookLogger()})
	for _, body := range []string{"{invalid", `{"message":""}`} {
		req := httptest.NewRequest(http.MethodPost, "/webhook", bytes.NewReader([]byte(body)))
		rr := httptest.NewRecorder()
		m.ServeHTTP(rr, req)
		if rr.Code != http.StatusBadRequest {
			t.Errorf("body %q: expected 400, got %d", body, rr.Code)
		}
	}
}

func TestMock_Signature(t *testing.T) {
	m := NewMock(MockConfig{Secret: "k", Logger: testWebhookLogger()})
	body := []byte(`{"message":"hi"}`)

	req := httptest.NewRequest(http.MethodPost, "/webhook", bytes.NewReader(body))
	rr := httptest.NewRecorder()
	m.ServeHTTP(rr, req)
	if rr.Code != http.StatusUnauthorized {
		t.Errorf("missing signature: expected 401, got %d", rr.Code)
	}

	req = httptest.NewRequest(http.MethodPost, "/webhook", bytes.NewReader(body))
	req.Header.Set(SignatureHeader, "sha256=deadbeef")
	rr = httptest.NewRecorder()
	m.ServeHTTP(rr, req)
	if rr.Code != http.StatusForbidden {
		t.Errorf("bad signature: expected 403, got %d", rr.Code)
	}

	req = httptest.NewRequest(http.MethodPost, "/webhook", bytes.NewReader(body))
	req.Header.Set(SignatureHeader, Sign(body, "k"))
	rr = httptest.NewRecorder()
	m.ServeHTTP(rr, req)
	if rr.Code != http.StatusOK {
		t.Errorf("valid signature: expected 200, got %d", rr.Code)
	}
}
