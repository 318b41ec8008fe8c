package documents_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"paperless-backend/internal/bootstrap"
	"paperless-backend/internal/queue"
	"paperless-backend/internal/shared/config"
)

func buildTestApp(t *testing.T) *bootstrap.App {
	t.Helper()
	gin.SetMode(gin.TestMode)

	cfg := config.Config{
		Port:                  "0",
		Env:                   "dev",
		CORSAllowOrigin:       []string{"http://localhost:5173"},
		ObjectStoreType:       "local",
		LocalStoreDir:         t.TempDir(),
		MaxUploadBytes:        10 << 20,
		AllowedExtensions:     []string{".pdf", ".doc", ".docx", ".txt", ".jpg", ".jpeg", ".png"},
		OutboxIntervalSeconds: 1,
	}

	app, err := bootstrap.Build(context.Background(), cfg)
	if err != nil {
		t.Fatalf("bootstrap build: %v", err)
	}
	return app
}

func uploadFile(t *testing.T, router *gin.Engine, fileName, content string) *httptest.ResponseRecorder {
	t.Helper()

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	fileWriter, err := writer.CreateFormFile("file", fileName)
	if err != nil {
		t.Fatalf("create form file: %v", err)
	}
	if _, err := fileWriter.Write([]byte(content)); err != nil {
		t.Fatalf("write file: %v", err)
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("close writer: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, "/api/documents", body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	return resp
}

type documentBody struct {
	ID          int64  `json:"id"`
	Title       string `json:"title"`
	FileName    string `json:"fileName"`
	FileType    string `json:"fileType"`
	FileSize    int64  `json:"fileSize"`
	IsProcessed bool   `json:"isProcessed"`
	Tags        []any  `json:"tags"`
	OCRText     string `json:"ocrText"`
	Summary     string `json:"summary"`
}

type searchBody struct {
	Documents  []documentBody `json:"documents"`
	TotalCount int            `json:"totalCount"`
	SearchTerm string         `json:"searchTerm"`
}

func TestUploadCreatesDocumentAndStagesJob(t *testing.T) {
	app := buildTestApp(t)

	resp := uploadFile(t, app.Router, "invoice.txt", "total due 42")
	if resp.Code != http.StatusCreated {
		t.Fatalf("expected status 201, got %d: %s", resp.Code, resp.Body.String())
	}

	payload := resp.Body.Bytes()
	var created documentBody
	if err := json.Unmarshal(payload, &created); err != nil {
		t.Fatalf("decode create response: %v", err)
	}
	if created.ID == 0 {
		t.Fatalf("expected document id, got 0")
	}

	var raw map[string]any
	if err := json.Unmarshal(payload, &raw); err != nil {
		t.Fatalf("decode raw response: %v", err)
	}
	if indexed, ok := raw["isIndexed"]; !ok || indexed != false {
		t.Fatalf("expected isIndexed false in response, got %v (present=%v)", indexed, ok)
	}
	if created.FileName != "invoice.txt" {
		t.Fatalf("expected fileName invoice.txt, got %s", created.FileName)
	}
	if created.Title != "invoice" {
		t.Fatalf("expected title derived from file name, got %q", created.Title)
	}
	if created.FileType != ".txt" {
		t.Fatalf("expected fileType .txt, got %s", created.FileType)
	}
	if created.FileSize != int64(len("total due 42")) {
		t.Fatalf("expected fileSize %d, got %d", len("total due 42"), created.FileSize)
	}
	if created.IsProcessed {
		t.Fatalf("expected isProcessed false on upload")
	}

	// The job is staged, not yet on the queue.
	mem := app.Queue.(*queue.MemoryClient)
	if got := len(mem.Jobs()); got != 0 {
		t.Fatalf("expected no published jobs before dispatch, got %d", got)
	}

	sent, err := app.Dispatcher.DispatchOnce(context.Background())
	if err != nil {
		t.Fatalf("dispatch: %v", err)
	}
	if sent != 1 {
		t.Fatalf("expected 1 job dispatched, got %d", sent)
	}

	jobs := mem.Jobs()
	if len(jobs) != 1 {
		t.Fatalf("expected 1 job on queue, got %d", len(jobs))
	}
	if jobs[0].DocumentID != created.ID {
		t.Fatalf("job documentId = %d, want %d", jobs[0].DocumentID, created.ID)
	}
	if jobs[0].FileType != ".txt" {
		t.Fatalf("job fileType = %s, want .txt", jobs[0].FileType)
	}
	if jobs[0].CorrelationID == "" {
		t.Fatalf("expected a correlation id on the job")
	}
}

func TestUploadRejectsUnsupportedExtension(t *testing.T) {
	app := buildTestApp(t)

	resp := uploadFile(t, app.Router, "malware.exe", "MZ")
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", resp.Code)
	}

	// No document row, no staged job.
	listResp := httptest.NewRecorder()
	app.Router.ServeHTTP(listResp, httptest.NewRequest(http.MethodGet, "/api/documents", nil))
	var docs []documentBody
	if err := json.NewDecoder(listResp.Body).Decode(&docs); err != nil {
		t.Fatalf("decode list: %v", err)
	}
	if len(docs) != 0 {
		t.Fatalf("expected no documents, got %d", len(docs))
	}

	sent, err := app.Dispatcher.DispatchOnce(context.Background())
	if err != nil {
		t.Fatalf("dispatch: %v", err)
	}
	if sent != 0 {
		t.Fatalf("expected no staged jobs, got %d", sent)
	}
}

func TestUploadAllowsDuplicateFileNames(t *testing.T) {
	app := buildTestApp(t)

	first := uploadFile(t, app.Router, "a.pdf", "%PDF-1.4 first")
	second := uploadFile(t, app.Router, "a.pdf", "%PDF-1.4 second")
	if first.Code != http.StatusCreated || second.Code != http.StatusCreated {
		t.Fatalf("expected both uploads to succeed, got %d and %d", first.Code, second.Code)
	}

	var a, b documentBody
	if err := json.NewDecoder(first.Body).Decode(&a); err != nil {
		t.Fatalf("decode first: %v", err)
	}
	if err := json.NewDecoder(second.Body).Decode(&b); err != nil {
		t.Fatalf("decode second: %v", err)
	}
	if a.ID == b.ID {
		t.Fatalf("expected distinct ids for duplicate file names")
	}
}

func TestDeleteDocument(t *testing.T) {
	app := buildTestApp(t)

	resp := uploadFile(t, app.Router, "old.txt", "stale")
	var created documentBody
	if err := json.NewDecoder(resp.Body).Decode(&created); err != nil {
		t.Fatalf("decode create response: %v", err)
	}

	delResp := httptest.NewRecorder()
	app.Router.ServeHTTP(delResp, httptest.NewRequest(http.MethodDelete, fmt.Sprintf("/api/documents/%d", created.ID), nil))
	if delResp.Code != http.StatusNoContent {
		t.Fatalf("expected status 204, got %d", delResp.Code)
	}

	getResp := httptest.NewRecorder()
	app.Router.ServeHTTP(getResp, httptest.NewRequest(http.MethodGet, fmt.Sprintf("/api/documents/%d", created.ID), nil))
	if getResp.Code != http.StatusNotFound {
		t.Fatalf("expected status 404 after delete, got %d", getResp.Code)
	}

	againResp := httptest.NewRecorder()
	app.Router.ServeHTTP(againResp, httptest.NewRequest(http.MethodDelete, fmt.Sprintf("/api/documents/%d", created.ID), nil))
	if againResp.Code != http.StatusNotFound {
		t.Fatalf("expected status 404 on second delete, got %d", againResp.Code)
	}
}

func TestSearchMatchesTitleAndOCRText(t *testing.T) {
	app := buildTestApp(t)

	resp := uploadFile(t, app.Router, "electricity-bill.txt", "kilowatt hours")
	var bill documentBody
	if err := json.NewDecoder(resp.Body).Decode(&bill); err != nil {
		t.Fatalf("decode create response: %v", err)
	}
	uploadFile(t, app.Router, "recipe.txt", "flour and sugar")

	if err := app.DocumentsRepo.MarkProcessed(context.Background(), bill.ID, "kilowatt hours used: 320", 0.91); err != nil {
		t.Fatalf("mark processed: %v", err)
	}

	check := func(term string, want int) {
		t.Helper()
		resp := httptest.NewRecorder()
		app.Router.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/api/documents/search?query="+term, nil))
		if resp.Code != http.StatusOK {
			t.Fatalf("search %q: expected 200, got %d", term, resp.Code)
		}
		var result searchBody
		if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
			t.Fatalf("decode search: %v", err)
		}
		if len(result.Documents) != want {
			t.Fatalf("search %q: expected %d results, got %d", term, want, len(result.Documents))
		}
		if result.TotalCount != want {
			t.Fatalf("search %q: expected totalCount %d, got %d", term, want, result.TotalCount)
		}
		if result.SearchTerm != term {
			t.Fatalf("search %q: expected searchTerm echoed, got %q", term, result.SearchTerm)
		}
	}

	check("electricity", 1)
	check("kilowatt", 1)
	check("ELECTRICITY", 1)
	check("invoice", 0)
	// Pattern metacharacters match literally, not as wildcards.
	check("kilo_att", 0)
}

func TestRecentReturnsNewestFirst(t *testing.T) {
	app := buildTestApp(t)

	for i := 0; i < 3; i++ {
		resp := uploadFile(t, app.Router, fmt.Sprintf("doc-%d.txt", i), "body")
		if resp.Code != http.StatusCreated {
			t.Fatalf("upload %d failed with %d", i, resp.Code)
		}
	}

	resp := httptest.NewRecorder()
	app.Router.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/api/documents/recent?count=2", nil))
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}

	var docs []documentBody
	if err := json.NewDecoder(resp.Body).Decode(&docs); err != nil {
		t.Fatalf("decode recent: %v", err)
	}
	if len(docs) != 2 {
		t.Fatalf("expected 2 documents, got %d", len(docs))
	}
	if docs[0].ID < docs[1].ID {
		t.Fatalf("expected newest first, got ids %d then %d", docs[0].ID, docs[1].ID)
	}
}

func TestUpdateTitleAndTags(t *testing.T) {
	app := buildTestApp(t)

	resp := uploadFile(t, app.Router, "contract.pdf", "%PDF-1.4 terms")
	var created documentBody
	if err := json.NewDecoder(resp.Body).Decode(&created); err != nil {
		t.Fatalf("decode create response: %v", err)
	}

	tagBody := bytes.NewBufferString(`{"name":"legal","color":"#336699"}`)
	tagResp := httptest.NewRecorder()
	tagReq := httptest.NewRequest(http.MethodPost, "/api/tags", tagBody)
	tagReq.Header.Set("Content-Type", "application/json")
	app.Router.ServeHTTP(tagResp, tagReq)
	if tagResp.Code != http.StatusCreated {
		t.Fatalf("create tag: expected 201, got %d", tagResp.Code)
	}
	var tag struct {
		ID int64 `json:"id"`
	}
	if err := json.NewDecoder(tagResp.Body).Decode(&tag); err != nil {
		t.Fatalf("decode tag: %v", err)
	}

	updateBody := bytes.NewBufferString(fmt.Sprintf(`{"title":"Signed contract","tagIds":[%d]}`, tag.ID))
	updateReq := httptest.NewRequest(http.MethodPut, fmt.Sprintf("/api/documents/%d", created.ID), updateBody)
	updateReq.Header.Set("Content-Type", "application/json")
	updateResp := httptest.NewRecorder()
	app.Router.ServeHTTP(updateResp, updateReq)
	if updateResp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", updateResp.Code, updateResp.Body.String())
	}

	var updated documentBody
	if err := json.NewDecoder(updateResp.Body).Decode(&updated); err != nil {
		t.Fatalf("decode update: %v", err)
	}
	if updated.Title != "Signed contract" {
		t.Fatalf("expected updated title, got %q", updated.Title)
	}
	if len(updated.Tags) != 1 {
		t.Fatalf("expected 1 tag, got %d", len(updated.Tags))
	}

	// Searching by tag name finds the document.
	searchResp := httptest.NewRecorder()
	app.Router.ServeHTTP(searchResp, httptest.NewRequest(http.MethodGet, "/api/documents/search?query=legal", nil))
	var found searchBody
	if err := json.NewDecoder(searchResp.Body).Decode(&found); err != nil {
		t.Fatalf("decode search: %v", err)
	}
	if len(found.Documents) != 1 || found.Documents[0].ID != created.ID {
		t.Fatalf("expected tag search to find document %d, got %+v", created.ID, found.Documents)
	}
}

func TestDownloadStreamsStoredFile(t *testing.T) {
	app := buildTestApp(t)

	resp := uploadFile(t, app.Router, "note.txt", "remember the milk")
	var created documentBody
	if err := json.NewDecoder(resp.Body).Decode(&created); err != nil {
		t.Fatalf("decode create response: %v", err)
	}

	dlResp := httptest.NewRecorder()
	app.Router.ServeHTTP(dlResp, httptest.NewRequest(http.MethodGet, fmt.Sprintf("/api/documents/%d/download", created.ID), nil))
	if dlResp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", dlResp.Code)
	}
	if got := dlResp.Body.String(); got != "remember the milk" {
		t.Fatalf("expected stored content, got %q", got)
	}
	if cd := dlResp.Header().Get("Content-Disposition"); cd == "" {
		t.Fatalf("expected Content-Disposition header")
	}
}
