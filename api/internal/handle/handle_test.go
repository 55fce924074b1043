package handle

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"condo-extract/api/internal/extract"
	"condo-extract/api/internal/pipeline"
	"condo-extract/api/internal/record"
)

type fakeProc struct {
	res      *pipeline.Result
	err      error
	called   bool
	deadline time.Duration
}

func (f *fakeProc) Process(ctx context.Context, _ []byte) (*pipeline.Result, error) {
	f.called = true
	if dl, ok := ctx.Deadline(); ok {
		f.deadline = time.Until(dl)
	}
	return f.res, f.err
}

type fakeDB struct{ err error }

func (f fakeDB) PingContext(context.Context) error { return f.err }

func sampleResult() *pipeline.Result {
	return &pipeline.Result{
		RunID: "run-1",
		Document: record.DocumentResult{
			Units: []record.UnitRecord{{
				UnitID: "101", Block: "A", UnitType: record.Apartment, UnitTypeRaw: "Apto", Profile: record.Owner,
				Owner: record.ContactBundle{Name: "Ana Souza"},
			}},
			TotalUnits:      1,
			CondominiumName: "Aurora",
		},
	}
}

func upload(t *testing.T, name string, body []byte, target string) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("arquivo", name)
	require.NoError(t, err)
	_, err = fw.Write(body)
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, target, &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func serve(h *Handle, req *http.Request) *httptest.ResponseRecorder {
	mux := http.NewServeMux()
	h.Register(mux)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var m map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &m))
	return m
}

func TestProcessPDFSuccess(t *testing.T) {
	proc := &fakeProc{res: sampleResult()}
	rec := serve(New(proc), upload(t, "Lista.PDF", []byte("%PDF-1.7"), "/processar-pdf"))

	require.Equal(t, http.StatusOK, rec.Code)
	m := decode(t, rec)
	assert.Equal(t, true, m["success"])
	assert.Equal(t, float64(1), m["total"])
	assert.Equal(t, "Aurora", m["condominio"])
	assert.NotContains(t, m, "diagnostics")
	units := m["unidades"].([]any)
	require.Len(t, units, 1)
	assert.Equal(t, "101", units[0].(map[string]any)["unit_id"])
	assert.InDelta(t, float64(180*time.Second), float64(proc.deadline), float64(time.Second))
}

func TestProcessPDFDiagnosticsAndTimeoutHeader(t *testing.T) {
	proc := &fakeProc{res: sampleResult()}
	req := upload(t, "a.pdf", []byte("%PDF-1.7"), "/processar-pdf?diagnostics=true")
	req.Header.Set("X-Request-Timeout", "30")
	rec := serve(New(proc), req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, decode(t, rec), "diagnostics")
	assert.InDelta(t, float64(30*time.Second), float64(proc.deadline), float64(time.Second))
}

func TestProcessPDFCSV(t *testing.T) {
	rec := serve(New(&fakeProc{res: sampleResult()}), upload(t, "a.pdf", []byte("%PDF-1.7"), "/processar-pdf?format=csv"))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/csv; charset=utf-8", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Body.String(), "101;A;Apto;Proprietário;Ana Souza")
}

func TestProcessPDFRejectsNonPDFName(t *testing.T) {
	proc := &fakeProc{res: sampleResult()}
	rec := serve(New(proc), upload(t, "lista.docx", []byte("%PDF-1.7"), "/processar-pdf"))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	m := decode(t, rec)
	assert.Equal(t, false, m["success"])
	assert.Equal(t, "Apenas arquivos PDF são aceitos", m["detail"])
	assert.False(t, proc.called)
}

func TestProcessPDFMissingField(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/processar-pdf", strings.NewReader(""))
	req.Header.Set("Content-Type", "multipart/form-data; boundary=x")
	rec := serve(New(&fakeProc{}), req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestProcessPDFTooLarge(t *testing.T) {
	proc := &fakeProc{res: sampleResult()}
	big := bytes.Repeat([]byte("a"), 2<<20)
	rec := serve(New(proc, WithMaxUpload(1<<20)), upload(t, "a.pdf", big, "/processar-pdf"))

	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
	assert.Equal(t, "Arquivo excede o limite de 1 MB", decode(t, rec)["detail"])
	assert.False(t, proc.called)
}

func TestProcessPDFFailureStatus(t *testing.T) {
	cases := []struct {
		err  error
		code int
	}{
		{&pipeline.ProcessingError{Stage: pipeline.Extracting, Err: extract.NewError(extract.KindTimeout, "gemini", nil)}, http.StatusGatewayTimeout},
		{&pipeline.ProcessingError{Stage: pipeline.Extracting, Err: extract.NewError(extract.KindUnavailable, "gemini", nil)}, http.StatusBadGateway},
		{&pipeline.ProcessingError{Stage: pipeline.Extracting, Err: extract.NewError(extract.KindMalformedOutput, "gemini", nil)}, http.StatusBadGateway},
		{&pipeline.ProcessingError{Stage: pipeline.Extracting, Err: extract.NewError(extract.KindInvalidDocument, "gemini", nil)}, http.StatusUnprocessableEntity},
		{&pipeline.ProcessingError{Stage: pipeline.Extracting, Err: context.Canceled}, http.StatusInternalServerError},
	}
	for _, tc := range cases {
		rec := serve(New(&fakeProc{err: tc.err}), upload(t, "a.pdf", []byte("%PDF-1.7"), "/processar-pdf"))
		assert.Equal(t, tc.code, rec.Code, tc.err.Error())
		m := decode(t, rec)
		assert.Equal(t, false, m["success"])
		assert.Equal(t, "Erro ao processar PDF: "+tc.err.Error(), m["detail"])
	}
}

func TestProcessPDFMethodNotAllowed(t *testing.T) {
	rec := serve(New(&fakeProc{}), httptest.NewRequest(http.MethodGet, "/processar-pdf", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestRootAndHealth(t *testing.T) {
	h := New(&fakeProc{})

	rec := serve(h, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "API de Processamento de PDFs funcionando!", decode(t, rec)["message"])

	rec = serve(h, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, "healthy", decode(t, rec)["status"])

	rec = serve(h, httptest.NewRequest(http.MethodGet, "/nope", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = serve(h, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHealthz(t *testing.T) {
	rec := serve(New(&fakeProc{}), httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, "ok", rec.Body.String())

	rec = serve(New(&fakeProc{}, WithDB(fakeDB{})), httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = serve(New(&fakeProc{}, WithDB(fakeDB{err: errors.New("down")})), httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, rec.Body.String(), "db: down")
}

func TestMetricsRoute(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := prometheus.NewCounter(prometheus.CounterOpts{Name: "condo_test_total", Help: "x"})
	reg.MustRegister(c)
	c.Inc()

	rec := serve(New(&fakeProc{}, WithGatherer(reg)), httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "condo_test_total 1")
}
