package artifacts

import (
	"bytes"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
)

func newTestRouter(svc *Service) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(func(c *gin.Context) {
		c.Set("userId", "user-1")
		c.Next()
	})
	h := NewHandler(svc)
	h.RegisterRoutes(r.Group("/api/v1"))
	h.RegisterGenerateRoutes(r.Group("/api/v1"))
	return r
}

func doJSON(r http.Handler, method, path, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)
	return resp
}

func TestHandlerDraftFlow(t *testing.T) {
	gen := &stubGenerator{text: "Strategic leader."}
	r := newTestRouter(newTestService(gen))

	resp := doJSON(r, http.MethodPost, "/api/v1/artifacts/draft/generate", "")
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for empty input, got %d", resp.Code)
	}

	resp = doJSON(r, http.MethodPut, "/api/v1/artifacts/draft", `{"type":"LinkedIn","input":"led launches"}`)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", resp.Code, resp.Body.String())
	}

	resp = doJSON(r, http.MethodPost, "/api/v1/artifacts/draft/generate", "")
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}
	var d draftResponse
	if err := json.NewDecoder(resp.Body).Decode(&d); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if d.Type != TypeLinkedIn || d.Output != "Strategic leader." || d.IsGenerating || d.Failed {
		t.Fatalf("unexpected draft: %+v", d)
	}

	resp = doJSON(r, http.MethodPut, "/api/v1/artifacts/draft", `{"type":"cover_letter"}`)
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for bad type, got %d", resp.Code)
	}
}

func TestHandlerGenerateFailureReportsUnchangedDraft(t *testing.T) {
	gen := &stubGenerator{err: errors.New("timeout")}
	svc := newTestService(gen)
	svc.SetInput("user-1", "notes")
	r := newTestRouter(svc)

	resp := doJSON(r, http.MethodPost, "/api/v1/artifacts/draft/generate", "")
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}
	if !strings.Contains(resp.Body.String(), `"failed":true`) || !strings.Contains(resp.Body.String(), `"isGenerating":false`) {
		t.Fatalf("unexpected body: %s", resp.Body.String())
	}
}

func TestHandlerSaveAndList(t *testing.T) {
	svc := newTestService(&stubGenerator{text: "Final resume"})
	r := newTestRouter(svc)

	resp := doJSON(r, http.MethodPost, "/api/v1/artifacts", `{"title":"Resume v1"}`)
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 before generation, got %d", resp.Code)
	}

	svc.SetInput("user-1", "notes")
	doJSON(r, http.MethodPost, "/api/v1/artifacts/draft/generate", "")

	resp = doJSON(r, http.MethodPost, "/api/v1/artifacts", `{"title":"Resume v1"}`)
	if resp.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", resp.Code, resp.Body.String())
	}
	var created artifactResponse
	if err := json.NewDecoder(resp.Body).Decode(&created); err != nil {
		t.Fatalf("decode: %v", err)
	}

	resp = doJSON(r, http.MethodGet, "/api/v1/artifacts", "")
	if resp.Code != http.StatusOK || !strings.Contains(resp.Body.String(), created.ID) {
		t.Fatalf("unexpected list response %d: %s", resp.Code, resp.Body.String())
	}

	resp = doJSON(r, http.MethodPost, "/api/v1/artifacts/"+created.ID+"/export", "")
	if resp.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503 without store, got %d", resp.Code)
	}

	resp = doJSON(r, http.MethodDelete, "/api/v1/artifacts/"+created.ID, "")
	if resp.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", resp.Code)
	}
	resp = doJSON(r, http.MethodGet, "/api/v1/artifacts/"+created.ID, "")
	if resp.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.Code)
	}
}

func TestHandlerImport(t *testing.T) {
	r := newTestRouter(newTestService(&stubGenerator{}))

	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	part, err := w.CreateFormFile("file", "resume.txt")
	if err != nil {
		t.Fatalf("CreateFormFile: %v", err)
	}
	_, _ = part.Write([]byte("Engineering manager at Acme"))
	_ = w.Close()

	req := httptest.NewRequest(http.MethodPost, "/api/v1/artifacts/draft/import", &body)
	req.Header.Set("Content-Type", w.FormDataContentType())
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", resp.Code, resp.Body.String())
	}
	if !strings.Contains(resp.Body.String(), `"input":"Engineering manager at Acme"`) {
		t.Fatalf("unexpected body: %s", resp.Body.String())
	}

	resp = doJSON(r, http.MethodPost, "/api/v1/artifacts/draft/import", `{}`)
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 without file, got %d", resp.Code)
	}
}
