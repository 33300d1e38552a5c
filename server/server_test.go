package server_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	_ "modernc.org/sqlite"

	"github.com/hazyhaar/studypipe/accounts"
	"github.com/hazyhaar/studypipe/dbopen"
	"github.com/hazyhaar/studypipe/docpipe"
	"github.com/hazyhaar/studypipe/server"
	"github.com/hazyhaar/studypipe/studygen"
	"github.com/hazyhaar/studypipe/summarizer"
)

var testSecret = []byte("0123456789abcdef0123456789abcdef")

type fakeGenerator struct {
	response string
	calls    int
}

func (f *fakeGenerator) Generate(_ context.Context, _ studygen.Request) (string, error) {
	f.calls++
	return f.response, nil
}

func goodPayload() string {
	summary := strings.TrimSpace(strings.Repeat("word ", 400))
	return fmt.Sprintf(`{"summary": %q, "keyTakeaways": ["k1"], "flashcards": [{"front":"f","back":"b"}], "quiz": []}`, summary)
}

func newTestServer(t *testing.T, gen studygen.Generator) *httptest.Server {
	t.Helper()
	db := dbopen.OpenMemory(t, dbopen.WithSchema(accounts.Schema))
	store := accounts.NewStore(db)

	pipe := docpipe.New(docpipe.Config{})
	svc := studygen.NewService(gen, studygen.Config{Model: "test-model"})
	sum := summarizer.New(pipe, svc, summarizer.Config{TempDir: t.TempDir()})

	api := server.New(store, sum, testSecret, nil)
	done := make(chan struct{})
	t.Cleanup(func() { close(done) })
	api.Start(done)

	srv := httptest.NewServer(api.Router())
	t.Cleanup(srv.Close)
	return srv
}

func postJSON(t *testing.T, url string, body any) *http.Response {
	t.Helper()
	b, err := json.Marshal(body)
	if err != nil {
		t.Fatal(err)
	}
	resp, err := http.Post(url, "application/json", bytes.NewReader(b))
	if err != nil {
		t.Fatal(err)
	}
	return resp
}

func decodeBody(t *testing.T, resp *http.Response) map[string]any {
	t.Helper()
	defer resp.Body.Close()
	var m map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&m); err != nil {
		t.Fatal(err)
	}
	return m
}

func TestSignupAndLogin(t *testing.T) {
	srv := newTestServer(t, &fakeGenerator{})

	resp := postJSON(t, srv.URL+"/api/signup", map[string]string{
		"username": "alice", "password": "s3cret", "email": "a@example.com",
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("signup status = %d, want 201", resp.StatusCode)
	}
	resp.Body.Close()

	resp = postJSON(t, srv.URL+"/api/login", map[string]string{
		"username": "alice", "password": "s3cret",
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("login status = %d, want 200", resp.StatusCode)
	}
	var cookie string
	for _, c := range resp.Cookies() {
		if c.Name == "token" {
			cookie = c.Value
		}
	}
	if cookie == "" {
		t.Error("login did not set a token cookie")
	}
	body := decodeBody(t, resp)
	token, _ := body["access_token"].(string)
	if token == "" {
		t.Fatal("login response missing access_token")
	}

	// The bearer token opens /api/me.
	req, _ := http.NewRequest("GET", srv.URL+"/api/me", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	meResp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	if meResp.StatusCode != http.StatusOK {
		t.Fatalf("me status = %d, want 200", meResp.StatusCode)
	}
	me := decodeBody(t, meResp)
	if me["username"] != "alice" {
		t.Errorf("me username = %v", me["username"])
	}
}

func TestSignup_Duplicate(t *testing.T) {
	srv := newTestServer(t, &fakeGenerator{})

	resp := postJSON(t, srv.URL+"/api/signup", map[string]string{"username": "bob", "password": "pw"})
	resp.Body.Close()

	resp = postJSON(t, srv.URL+"/api/signup", map[string]string{"username": "bob", "password": "other"})
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("duplicate signup status = %d, want 400", resp.StatusCode)
	}
	body := decodeBody(t, resp)
	if !strings.Contains(body["error"].(string), "already exists") {
		t.Errorf("error = %v", body["error"])
	}
}

func TestLogin_BadCredentials(t *testing.T) {
	srv := newTestServer(t, &fakeGenerator{})

	resp := postJSON(t, srv.URL+"/api/signup", map[string]string{"username": "carol", "password": "right"})
	resp.Body.Close()

	resp = postJSON(t, srv.URL+"/api/login", map[string]string{"username": "carol", "password": "wrong"})
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("login status = %d, want 401", resp.StatusCode)
	}
	resp.Body.Close()

	// Unknown user gets the same status, no enumeration.
	resp = postJSON(t, srv.URL+"/api/login", map[string]string{"username": "nobody", "password": "x"})
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("unknown-user login status = %d, want 401", resp.StatusCode)
	}
	resp.Body.Close()
}

func TestMe_RequiresAuth(t *testing.T) {
	srv := newTestServer(t, &fakeGenerator{})

	resp, err := http.Get(srv.URL + "/api/me")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("me status = %d, want 401", resp.StatusCode)
	}
}

func postFile(t *testing.T, url, filename, content string) *http.Response {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("file", filename)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := part.Write([]byte(content)); err != nil {
		t.Fatal(err)
	}
	mw.Close()

	resp, err := http.Post(url, mw.FormDataContentType(), &buf)
	if err != nil {
		t.Fatal(err)
	}
	return resp
}

func TestSummarize_Success(t *testing.T) {
	gen := &fakeGenerator{response: goodPayload()}
	srv := newTestServer(t, gen)

	resp := postFile(t, srv.URL+"/api/summarize", "notes.txt", "Lecture notes on thermodynamics.")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("summarize status = %d, want 200", resp.StatusCode)
	}
	body := decodeBody(t, resp)
	if body["success"] != true {
		t.Fatalf("envelope = %v", body)
	}
	data, _ := body["data"].(map[string]any)
	if data == nil || data["summary"] == "" {
		t.Errorf("data = %v", data)
	}
}

func TestSummarize_UnsupportedFormatEnvelope(t *testing.T) {
	// WHAT: An unsupported extension still yields HTTP 200 with the
	// failure envelope.
	// WHY: The frontend parses one response shape for all outcomes.
	srv := newTestServer(t, &fakeGenerator{response: goodPayload()})

	resp := postFile(t, srv.URL+"/api/summarize", "archive.xyz", "bytes")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("summarize status = %d, want 200", resp.StatusCode)
	}
	body := decodeBody(t, resp)
	if body["success"] != false {
		t.Fatalf("envelope = %v", body)
	}
	if !strings.Contains(body["error"].(string), "unsupported") {
		t.Errorf("error = %v", body["error"])
	}
}

func TestSummarize_MissingFile(t *testing.T) {
	srv := newTestServer(t, &fakeGenerator{})

	resp, err := http.Post(srv.URL+"/api/summarize", "application/json", strings.NewReader("{}"))
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", resp.StatusCode)
	}
	body := decodeBody(t, resp)
	if body["success"] != false || body["error"] == "" {
		t.Errorf("envelope = %v", body)
	}
}

func TestHealth(t *testing.T) {
	srv := newTestServer(t, &fakeGenerator{})
	resp, err := http.Get(srv.URL + "/health")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("health status = %d", resp.StatusCode)
	}
}
