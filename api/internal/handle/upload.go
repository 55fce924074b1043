package handle

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"condo-extract/api/internal/export"
	"condo-extract/api/internal/extract"
	"condo-extract/api/internal/logging"
	"condo-extract/api/internal/pipeline"
	"condo-extract/api/internal/record"
	"condo-extract/api/internal/util"
)

const (
	formField   = "arquivo"
	msgOnlyPDF  = "Apenas arquivos PDF são aceitos"
	errorPrefix = "Erro ao processar PDF: "
)

type uploadResponse struct {
	Success     bool                  `json:"success"`
	RunID       string                `json:"run_id"`
	Unidades    []record.UnitRecord   `json:"unidades"`
	Total       int                   `json:"total"`
	Condominio  string                `json:"condominio"`
	Diagnostics *pipeline.Diagnostics `json:"diagnostics,omitempty"`
}

// ProcessPDF accepts a multipart upload in field "arquivo" and answers with
// the reconciled units. ?format=csv returns the CSV sheet instead;
// ?diagnostics=true adds the ambiguity and conflict report.
func (h *Handle) ProcessPDF(w http.ResponseWriter, r *http.Request) {
	if r.ContentLength > h.maxUpload {
		writeError(w, http.StatusRequestEntityTooLarge, fmt.Sprintf("Arquivo excede o limite de %d MB", h.maxUpload>>20))
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUpload)
	if err := r.ParseMultipartForm(8 << 20); err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			writeError(w, http.StatusRequestEntityTooLarge,
				fmt.Sprintf("Arquivo excede o limite de %d MB", h.maxUpload>>20))
			return
		}
		writeError(w, http.StatusBadRequest, "multipart inválido: "+err.Error())
		return
	}
	defer func() { _ = r.MultipartForm.RemoveAll() }()

	file, hdr, err := r.FormFile(formField)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Campo 'arquivo' é obrigatório")
		return
	}
	defer file.Close()

	if !util.HasPDFExt(hdr.Filename) {
		writeError(w, http.StatusBadRequest, msgOnlyPDF)
		return
	}
	data, err := io.ReadAll(file)
	if err != nil {
		writeError(w, http.StatusBadRequest, "falha ao ler arquivo: "+err.Error())
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.requestDeadline(r))
	defer cancel()

	lg := logging.FromContext(r.Context())
	res, err := h.proc.Process(ctx, data)
	if err != nil {
		lg.Error().Err(err).Str("file", hdr.Filename).Msg("process pdf")
		writeError(w, statusFor(err), errorPrefix+err.Error())
		return
	}

	if r.URL.Query().Get("format") == "csv" {
		b, err := export.CSV(res.Document)
		if err != nil {
			writeError(w, http.StatusInternalServerError, errorPrefix+err.Error())
			return
		}
		w.Header().Set("Content-Type", "text/csv; charset=utf-8")
		w.Header().Set("Content-Disposition", `attachment; filename="unidades.csv"`)
		_, _ = w.Write(b)
		return
	}

	out := uploadResponse{
		Success:    true,
		RunID:      res.RunID,
		Unidades:   res.Document.Units,
		Total:      res.Document.TotalUnits,
		Condominio: res.Document.CondominiumName,
	}
	if out.Unidades == nil {
		out.Unidades = []record.UnitRecord{}
	}
	if diag, _ := strconv.ParseBool(r.URL.Query().Get("diagnostics")); diag {
		out.Diagnostics = &res.Diagnostics
	}
	writeJSON(w, http.StatusOK, out)
}

// requestDeadline honours X-Request-Timeout (seconds) or ?timeoutSec.
func (h *Handle) requestDeadline(r *http.Request) time.Duration {
	deadline := h.deadline
	if ts := r.Header.Get("X-Request-Timeout"); ts != "" {
		if v, _ := strconv.Atoi(ts); v > 0 {
			deadline = time.Duration(v) * time.Second
		}
	} else if ts := r.URL.Query().Get("timeoutSec"); ts != "" {
		if v, _ := strconv.Atoi(ts); v > 0 {
			deadline = time.Duration(v) * time.Second
		}
	}
	return deadline
}

func statusFor(err error) int {
	kind, ok := extract.KindOf(err)
	if !ok {
		return http.StatusInternalServerError
	}
	switch kind {
	case extract.KindTimeout:
		return http.StatusGatewayTimeout
	case extract.KindUnavailable, extract.KindMalformedOutput:
		return http.StatusBadGateway
	case extract.KindInvalidDocument:
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}
