// Package gemini is the Google Gemini extraction collaborator.
package gemini

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"condo-extract/api/internal/extract"
	"condo-extract/api/internal/record"
	"condo-extract/api/internal/util"
)

const name = "gemini"

type Engine struct {
	APIKey   string
	Model    string
	Attempts int
	Backoff  time.Duration
}

type Option func(*Engine)

// WithAttempts sets how many times a transient failure is retried (min 1).
func WithAttempts(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.Attempts = n
		}
	}
}

// WithBackoff sets the base sleep between attempts; attempt N waits N*d.
func WithBackoff(d time.Duration) Option {
	return func(e *Engine) { e.Backoff = d }
}

func New(apiKey, model string, opts ...Option) *Engine {
	e := &Engine{
		APIKey:   strings.TrimSpace(apiKey),
		Model:    strings.TrimSpace(model),
		Attempts: 3,
		Backoff:  300 * time.Millisecond,
	}
	for _, o := range opts {
		o(e)
	}
	return e
}

func (e *Engine) Name() string     { return name }
func (e *Engine) GetModel() string { return e.Model }

const systemPrompt = `Você é um extrator de cadastros de condomínio. Leia TODO o documento PDF e devolva
cada unidade (apartamentos, garagens, salas, lojas ou outro tipo) como um objeto em "units".

Regras:
1) "unit": o número da unidade sem o bloco. Em "Bloco 01 Unidade 01-01" a unidade é "01-01".
2) "block": o bloco ou torre quando existir, separado da unidade. Vazio se não houver.
3) "type": o tipo como aparece (Apto, Garagem, Sala, Loja...). Vazio se não estiver indicado.
4) "profile": o papel da pessoa como aparece no documento. Vazio se não estiver indicado.
5) "owner": o proprietário da unidade. "responsible": inquilino ou responsável, quando destacado.
6) Para cada pessoa: nome completo, CPF ou CNPJ como escrito, celular, telefone fixo e e-mail.
   Se não souber se o telefone é fixo ou celular, coloque em "mobile_phone".
7) Não invente dados. Campo ausente fica como string vazia.
8) Ignore síndico, administradora e outras pessoas sem unidade.
9) "total_units": quantas entradas você devolveu. "condominium_name": o nome do condomínio, se houver.

Responda SOMENTE com JSON válido, sem comentários, de acordo com o schema abaixo:`

const userPrompt = "Extraia os dados. Resposta estritamente em JSON conforme o schema."

// Extract sends the PDF inline and decodes the JSON answer into a RawDocument.
func (e *Engine) Extract(ctx context.Context, doc []byte, schema extract.Schema) (record.RawDocument, error) {
	if !util.IsPDF(doc) {
		return record.RawDocument{}, extract.NewError(extract.KindInvalidDocument, name,
			fmt.Errorf("payload is %s, not a PDF", util.SniffMime(doc)))
	}
	if e.APIKey == "" {
		return record.RawDocument{}, extract.NewError(extract.KindUnavailable, name, errors.New("GEMINI_API_KEY is empty"))
	}
	cl, err := genai.NewClient(ctx, option.WithAPIKey(e.APIKey))
	if err != nil {
		if cerr := callerCanceled(ctx, err); cerr != nil {
			return record.RawDocument{}, cerr
		}
		return record.RawDocument{}, extract.Classify(name, err)
	}
	defer cl.Close()

	m := cl.GenerativeModel(e.Model)
	if m == nil {
		return record.RawDocument{}, extract.NewError(extract.KindUnavailable, name, errors.New("model is nil"))
	}
	m.GenerationConfig = genai.GenerationConfig{
		Temperature:      ptrFloat32(0),
		ResponseMIMEType: "application/json",
	}
	m.SystemInstruction = &genai.Content{
		Parts: []genai.Part{
			genai.Text(systemPrompt),
			genai.Text("\n" + schema.JSON),
		},
	}

	parts := []genai.Part{
		genai.Text(userPrompt),
		&genai.Blob{MIMEType: "application/pdf", Data: doc},
	}

	var lastErr *extract.Error
	for attempt := 1; attempt <= e.Attempts; attempt++ {
		resp, err := m.GenerateContent(ctx, parts...)
		if err != nil {
			if cerr := callerCanceled(ctx, err); cerr != nil {
				return record.RawDocument{}, cerr
			}
			var retry bool
			lastErr, retry = classify(err)
			if !retry || attempt == e.Attempts {
				break
			}
			if err := sleepCtx(ctx, time.Duration(attempt)*e.Backoff); err != nil {
				if cerr := callerCanceled(ctx, err); cerr != nil {
					return record.RawDocument{}, cerr
				}
				return record.RawDocument{}, extract.Classify(name, err)
			}
			continue
		}
		return decode(firstText(resp))
	}
	if lastErr == nil {
		return record.RawDocument{}, extract.NewError(extract.KindUnavailable, name, errors.New("no attempts made"))
	}
	return record.RawDocument{}, lastErr
}

// decode parses the model's text answer.
func decode(txt string) (record.RawDocument, error) {
	txt = util.StripCodeFences(txt)
	if txt == "" {
		return record.RawDocument{}, extract.NewError(extract.KindMalformedOutput, name, errors.New("empty response"))
	}
	var out record.RawDocument
	if err := json.Unmarshal([]byte(txt), &out); err != nil {
		return record.RawDocument{}, extract.NewError(extract.KindMalformedOutput, name,
			fmt.Errorf("bad JSON: %w (body: %s)", err, util.Truncate(txt, 200)))
	}
	return out, nil
}

// callerCanceled returns a context.Canceled error when the caller gave up on
// the call. Such errors stay unclassified and are never retried.
func callerCanceled(ctx context.Context, err error) error {
	if errors.Is(ctx.Err(), context.Canceled) {
		return fmt.Errorf("%s: %w", name, ctx.Err())
	}
	if errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

// classify maps a GenerateContent error and reports whether another attempt may help.
func classify(err error) (*extract.Error, bool) {
	if errors.Is(err, context.DeadlineExceeded) {
		return extract.Classify(name, err), false
	}
	var blocked *genai.BlockedError
	if errors.As(err, &blocked) {
		return extract.NewError(extract.KindMalformedOutput, name, err), false
	}
	var gerr *googleapi.Error
	if errors.As(err, &gerr) {
		return fromHTTP(gerr.Code, err)
	}
	if st, ok := status.FromError(err); ok {
		switch st.Code() {
		case codes.InvalidArgument, codes.FailedPrecondition:
			return extract.NewError(extract.KindInvalidDocument, name, err), false
		case codes.DeadlineExceeded:
			return extract.NewError(extract.KindTimeout, name, err), false
		case codes.Canceled:
			// cancelled upstream, not by our caller
			return extract.NewError(extract.KindUnavailable, name, err), false
		case codes.Unauthenticated, codes.PermissionDenied, codes.NotFound:
			return extract.NewError(extract.KindUnavailable, name, err), false
		}
	}
	return extract.NewError(extract.KindUnavailable, name, err), true
}

func fromHTTP(code int, err error) (*extract.Error, bool) {
	switch {
	case code == http.StatusBadRequest:
		return extract.NewError(extract.KindInvalidDocument, name, err), false
	case code == http.StatusGatewayTimeout:
		return extract.NewError(extract.KindTimeout, name, err), true
	case code == http.StatusTooManyRequests || code >= 500:
		return extract.NewError(extract.KindUnavailable, name, err), true
	default:
		return extract.NewError(extract.KindUnavailable, name, err), false
	}
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

func firstText(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 {
		return ""
	}
	for _, c := range resp.Candidates {
		if c.Content == nil {
			continue
		}
		for _, p := range c.Content.Parts {
			if t, ok := p.(genai.Text); ok {
				return string(t)
			}
		}
	}
	return ""
}

func ptrFloat32(v float32) *float32 { return &v }
