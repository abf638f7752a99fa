package chi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/profscope/profscope/internal/domain"
	answeruc "github.com/profscope/profscope/internal/usecase/answer"
	healthuc "github.com/profscope/profscope/internal/usecase/health"
	ingestuc "github.com/profscope/profscope/internal/usecase/ingest"
	"github.com/profscope/profscope/internal/usecase/session"
)

type fakeRetriever struct {
	chunks []domain.ScoredChunk
	err    error
}

func (f *fakeRetriever) Retrieve(context.Context, string) ([]domain.ScoredChunk, error) {
	return f.chunks, f.err
}

type fakeCompleter struct {
	reply string
	err   error
}

func (f *fakeCompleter) Complete(context.Context, domain.CompletionRequest) (string, error) {
	return f.reply, f.err
}

type fakeExtractor struct {
	ext domain.Extraction
	err error
}

func (f *fakeExtractor) Extract(context.Context, string) (domain.Extraction, error) {
	return f.ext, f.err
}

type fakeClassifier struct{}

func (fakeClassifier) ClassifyAll(_ context.Context, reviews []domain.ExtractedReview, url string) []domain.ReviewRecord {
	records := make([]domain.ReviewRecord, len(reviews))
	for i, r := range reviews {
		records[i] = domain.ReviewRecord{
			EntityName: r.EntityName,
			Comment:    r.Text,
			Sentiment:  domain.SentimentPositive,
			SourceURL:  url,
		}
	}
	return records
}

type fakeEmbedder struct{ err error }

func (f *fakeEmbedder) Embed(context.Context, string) (domain.EmbeddingResult, error) {
	if f.err != nil {
		return domain.EmbeddingResult{}, f.err
	}
	return domain.EmbeddingResult{Embedding: []float32{1}}, nil
}

type fakeChunkStore struct{ upsertErr error }

func (f *fakeChunkStore) DeleteBySource(context.Context, string) error { return nil }
func (f *fakeChunkStore) Upsert(context.Context, []domain.DocumentChunk) error {
	return f.upsertErr
}

type fakeReviewStore struct{}

func (fakeReviewStore) Append(context.Context, []domain.ReviewRecord) error { return nil }

type fakeReviewLister struct {
	records []domain.ReviewRecord
	err     error
}

func (f *fakeReviewLister) ListByEntity(context.Context, string) ([]domain.ReviewRecord, error) {
	return f.records, f.err
}

type fakePinger struct{ err error }

func (f fakePinger) Ping(context.Context) error { return f.err }

type serverFixture struct {
	retriever *fakeRetriever
	completer *fakeCompleter
	extractor *fakeExtractor
	chunks    *fakeChunkStore
	lister    *fakeReviewLister
	pinger    *fakePinger
	router    *chi.Mux
}

func newFixture() *serverFixture {
	f := &serverFixture{
		retriever: &fakeRetriever{},
		completer: &fakeCompleter{reply: "an answer"},
		extractor: &fakeExtractor{ext: domain.Extraction{
			PageText: strings.Repeat("x", 15),
			Reviews:  []domain.ExtractedReview{{Text: "good", EntityName: "Dr Smith"}},
		}},
		chunks: &fakeChunkStore{},
		lister: &fakeReviewLister{},
		pinger: &fakePinger{},
	}

	answers := answeruc.New(session.NewStore(), f.retriever, f.completer, zap.NewNop())
	ingester := ingestuc.New(f.extractor, fakeClassifier{}, &fakeEmbedder{}, f.chunks, fakeReviewStore{}, 10, zap.NewNop())
	health := healthuc.New(f.pinger, nil)

	srv := NewServer(answers, ingester, f.lister, health, zap.NewNop())
	f.router = chi.NewRouter()
	srv.Routes(f.router)
	return f
}

func (f *serverFixture) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var m map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &m); err != nil {
		t.Fatalf("decode response %q: %v", rec.Body.String(), err)
	}
	return m
}

func TestQuery_Success(t *testing.T) {
	f := newFixture()

	rec := f.do(t, http.MethodPost, "/query", map[string]string{"question": "How is Dr Smith?"})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	body := decodeBody(t, rec)
	if body["response"] != "an answer" {
		t.Errorf("response = %v", body["response"])
	}
	if body["sessionId"] == "" || body["sessionId"] == nil {
		t.Error("expected a session id")
	}
}

func TestQuery_MissingQuestion(t *testing.T) {
	f := newFixture()

	rec := f.do(t, http.MethodPost, "/query", map[string]string{"sessionId": "s"})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d", rec.Code)
	}
	if body := decodeBody(t, rec); body["error"] != "No question provided" {
		t.Errorf("error = %v", body["error"])
	}
}

func TestQuery_GenerationFailure(t *testing.T) {
	f := newFixture()
	f.completer.err = domain.ErrGeneration

	rec := f.do(t, http.MethodPost, "/query", map[string]string{"question": "q"})
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d", rec.Code)
	}
	if body := decodeBody(t, rec); body["error"] != "generation failed" {
		t.Errorf("error = %v", body["error"])
	}
}

func TestClearSession(t *testing.T) {
	f := newFixture()

	rec := f.do(t, http.MethodDelete, "/query", map[string]string{"sessionId": "s-1"})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if body := decodeBody(t, rec); body["success"] != true {
		t.Errorf("body = %v", body)
	}
}

func TestClearSession_EmptySessionIDIsNoOp(t *testing.T) {
	f := newFixture()

	rec := f.do(t, http.MethodDelete, "/query", map[string]string{})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if body := decodeBody(t, rec); body["success"] != true {
		t.Errorf("body = %v", body)
	}
}

func TestIngest_Success(t *testing.T) {
	f := newFixture()

	rec := f.do(t, http.MethodPost, "/ingest", map[string]string{"url": "https://x.edu/p/1"})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	body := decodeBody(t, rec)
	if body["message"] != "Document successfully processed" {
		t.Errorf("message = %v", body["message"])
	}
	if body["entityName"] != "Dr Smith" {
		t.Errorf("entityName = %v", body["entityName"])
	}
	if body["chunksIndexed"] != float64(2) {
		t.Errorf("chunksIndexed = %v", body["chunksIndexed"])
	}
}

func TestIngest_MissingURL(t *testing.T) {
	f := newFixture()

	rec := f.do(t, http.MethodPost, "/ingest", map[string]string{})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d", rec.Code)
	}
	if body := decodeBody(t, rec); body["error"] != "No URL provided" {
		t.Errorf("error = %v", body["error"])
	}
}

func TestIngest_ExtractionFailure(t *testing.T) {
	f := newFixture()
	f.extractor.err = domain.ErrExtraction
	f.extractor.ext = domain.Extraction{}

	rec := f.do(t, http.MethodPost, "/ingest", map[string]string{"url": "u"})
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d", rec.Code)
	}
	if body := decodeBody(t, rec); body["error"] != "extraction failed" {
		t.Errorf("error = %v", body["error"])
	}
}

func TestIngest_PartialIndexListsFailedChunks(t *testing.T) {
	f := newFixture()
	f.chunks.upsertErr = domain.NewPartialIndex([]int{1})

	rec := f.do(t, http.MethodPost, "/ingest", map[string]string{"url": "u"})
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d", rec.Code)
	}
	body := decodeBody(t, rec)
	failed, ok := body["failed_chunks"].([]any)
	if !ok || len(failed) != 1 || failed[0] != float64(1) {
		t.Errorf("failed_chunks = %v", body["failed_chunks"])
	}
}

func TestListReviews(t *testing.T) {
	f := newFixture()
	f.lister.records = []domain.ReviewRecord{
		{EntityName: "Dr Smith", Comment: "good", Sentiment: domain.SentimentPositive},
	}

	rec := f.do(t, http.MethodGet, "/reviews?entity=Dr+Smith", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	body := decodeBody(t, rec)
	reviews, ok := body["reviews"].([]any)
	if !ok || len(reviews) != 1 {
		t.Fatalf("reviews = %v", body["reviews"])
	}
}

func TestListReviews_MissingEntity(t *testing.T) {
	f := newFixture()

	rec := f.do(t, http.MethodGet, "/reviews", nil)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d", rec.Code)
	}
}

func TestHealth_Degraded(t *testing.T) {
	f := newFixture()
	f.pinger.err = errors.New("refused")

	rec := f.do(t, http.MethodGet, "/health", nil)
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d", rec.Code)
	}
	if body := decodeBody(t, rec); body["status"] != "degraded" {
		t.Errorf("status = %v", body["status"])
	}
}

func TestQueryPreflight(t *testing.T) {
	f := newFixture()

	rec := f.do(t, http.MethodOptions, "/query", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "*" {
		t.Errorf("allow origin = %q", got)
	}
}
