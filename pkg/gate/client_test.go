package gate

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestClientValidateWireContract(t *testing.T) {
	t.Parallel()

	var received map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("expected POST, got %s", r.Method)
		}
		if ct := r.Header.Get("Content-Type"); ct != "application/json" {
			t.Errorf("unexpected content type %q", ct)
		}
		if err := json.NewDecoder(r.Body).Decode(&received); err != nil {
			t.Errorf("decode request: %v", err)
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"isValid":      true,
			"message":      "accepted",
			"requiredInfo": "",
			"suggestions":  "mention shift work",
		})
	}))
	defer server.Close()

	client := NewClient(server.URL)
	outcome, err := client.Validate(context.Background(), Request{
		FieldName:        "occupationDetail",
		UserInput:        "Night-shift warehouse operative",
		ValidationPrompt: "Describe your occupation",
	})
	if err != nil {
		t.Fatalf("Validate returned error: %v", err)
	}

	if received["fieldName"] != "occupationDetail" ||
		received["userInput"] != "Night-shift warehouse operative" ||
		received["validationPrompt"] != "Describe your occupation" {
		t.Fatalf("request payload mismatch: %v", received)
	}
	if !outcome.Valid || outcome.Message != "accepted" || outcome.Suggestions != "mention shift work" {
		t.Fatalf("response mapping mismatch: %+v", outcome)
	}
}

func TestClientValidateNon2xxIsError(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "boom", http.StatusBadGateway)
	}))
	defer server.Close()

	client := NewClient(server.URL)
	if _, err := client.Validate(context.Background(), Request{FieldName: "x"}); err == nil {
		t.Fatalf("expected error for non-2xx status")
	}
}

func TestClientAdviseWireContract(t *testing.T) {
	t.Parallel()

	var received map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := json.NewDecoder(r.Body).Decode(&received); err != nil {
			t.Errorf("decode request: %v", err)
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"reply": "Be specific about duties."})
	}))
	defer server.Close()

	client := NewClient("http://unused.invalid", WithAdviseURL(server.URL), WithHTTPClient(server.Client()))
	reply, err := client.Advise(context.Background(), AdvisoryRequest{
		Field:     "occupationDetail",
		Prompt:    "Describe your occupation",
		UserInput: "",
	})
	if err != nil {
		t.Fatalf("Advise returned error: %v", err)
	}
	if reply != "Be specific about duties." {
		t.Fatalf("unexpected reply %q", reply)
	}
	if received["field"] != "occupationDetail" || received["prompt"] != "Describe your occupation" {
		t.Fatalf("request payload mismatch: %v", received)
	}
	if _, ok := received["userInput"]; !ok {
		t.Fatalf("userInput key missing from advisory payload: %v", received)
	}
}

func TestClientAdviseWithoutEndpoint(t *testing.T) {
	t.Parallel()

	client := NewClient("http://validator.invalid")
	if _, err := client.Advise(context.Background(), AdvisoryRequest{}); err == nil {
		t.Fatalf("expected error when advisory endpoint is not configured")
	}
}
