package integration

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"testing"
	"time"
)

const BaseURL = "http://localhost:8080"

func TestMain(m *testing.M) {
	// wait for the API to come up
	time.Sleep(5 * time.Second)

	code := m.Run()

	cleanup()

	os.Exit(code)
}

func cleanup() {
	// test assets are left in place; symbols are unique per run so reruns
	// never collide
}

// uniqueSymbol returns a symbol that is unique across test runs.
func uniqueSymbol(prefix string) string {
	return fmt.Sprintf("%s%d", prefix, time.Now().UnixNano()%100000000)
}

// postJSON marshals body and POSTs it to BaseURL+path.
func postJSON(t *testing.T, path string, body interface{}) *http.Response {
	t.Helper()
	payload, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("marshal request: %v", err)
	}
	resp, err := http.Post(BaseURL+path, "application/json", bytes.NewBuffer(payload))
	if err != nil {
		t.Fatalf("POST %s: %v", path, err)
	}
	return resp
}

// sendJSON marshals body and sends it with the given method.
func sendJSON(t *testing.T, method, path string, body interface{}) *http.Response {
	t.Helper()
	payload, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("marshal request: %v", err)
	}
	req, err := http.NewRequest(method, BaseURL+path, bytes.NewBuffer(payload))
	if err != nil {
		t.Fatalf("build %s %s: %v", method, path, err)
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	return resp
}
