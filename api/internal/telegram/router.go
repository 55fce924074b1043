// Package telegram is the bot transport: PDF documents in, unit summary and
// CSV sheet out.
package telegram

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"

	"condo-extract/api/internal/export"
	"condo-extract/api/internal/pipeline"
	"condo-extract/api/internal/util"
)

// BotAPI is the part of *tgbotapi.BotAPI the router uses.
type BotAPI interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	GetFileDirectURL(fileID string) (string, error)
}

// Processor runs the extraction engine.
type Processor interface {
	Process(ctx context.Context, doc []byte) (*pipeline.Result, error)
}

type Router struct {
	Bot      BotAPI
	Proc     Processor
	Log      zerolog.Logger
	MaxBytes int64
	Timeout  time.Duration

	// Fetch downloads a Telegram file; nil uses an HTTP GET.
	Fetch func(ctx context.Context, url string) ([]byte, error)

	busy busyChats
}

const (
	msgStart    = "Envie a lista de condôminos em PDF e eu devolvo as unidades em uma planilha CSV.\nComandos: /health"
	msgOnlyPDF  = "Apenas arquivos PDF são aceitos"
	msgReceived = "Arquivo recebido, processando… isso pode levar alguns minutos."
	msgBusy     = "Ainda estou processando o arquivo anterior. Aguarde a resposta antes de enviar outro."
	msgSendPDF  = "Envie um arquivo PDF como documento."
)

func (r *Router) HandleUpdate(ctx context.Context, upd tgbotapi.Update) {
	if upd.Message == nil || upd.Message.Chat == nil {
		return
	}
	msg := upd.Message
	cid := msg.Chat.ID

	switch {
	case msg.IsCommand():
		r.HandleCommand(cid, msg.Command())
	case msg.Document != nil:
		r.acceptDocument(ctx, cid, msg.Document)
	default:
		r.send(cid, msgSendPDF)
	}
}

func (r *Router) HandleCommand(cid int64, cmd string) {
	switch cmd {
	case "start", "help":
		r.send(cid, msgStart)
	case "health":
		r.send(cid, "✅ OK")
	default:
		r.send(cid, "Comando desconhecido")
	}
}

func (r *Router) acceptDocument(ctx context.Context, cid int64, doc *tgbotapi.Document) {
	lg := r.Log.With().Int64("chat_id", cid).Str("file", doc.FileName).Logger()

	if !util.HasPDFExt(doc.FileName) {
		r.send(cid, msgOnlyPDF)
		return
	}
	if r.MaxBytes > 0 && int64(doc.FileSize) > r.MaxBytes {
		r.send(cid, fmt.Sprintf("Arquivo excede o limite de %d MB", r.MaxBytes>>20))
		return
	}
	if !r.busy.acquire(cid) {
		r.send(cid, msgBusy)
		return
	}
	defer r.busy.release(cid)

	r.send(cid, msgReceived)

	if r.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.Timeout)
		defer cancel()
	}

	url, err := r.Bot.GetFileDirectURL(doc.FileID)
	if err != nil {
		lg.Error().Err(err).Msg("get file url")
		r.SendError(cid, err)
		return
	}
	data, err := r.fetch(ctx, url)
	if err != nil {
		lg.Error().Err(err).Msg("download")
		r.SendError(cid, err)
		return
	}

	res, err := r.Proc.Process(ctx, data)
	if err != nil {
		lg.Error().Err(err).Msg("process pdf")
		r.SendError(cid, err)
		return
	}
	lg.Info().Str("run_id", res.RunID).Int("units", res.Document.TotalUnits).Msg("pdf processed")
	r.SendResult(cid, doc.FileName, res)
}

// SendResult posts the summary and the CSV sheet.
func (r *Router) SendResult(cid int64, fileName string, res *pipeline.Result) {
	r.send(cid, Summary(res))

	b, err := export.CSV(res.Document)
	if err != nil {
		r.SendError(cid, err)
		return
	}
	name := strings.TrimSuffix(fileName, filepath.Ext(fileName))
	if name == "" {
		name = "unidades"
	}
	d := tgbotapi.NewDocument(cid, tgbotapi.FileBytes{Name: name + ".csv", Bytes: b})
	d.Caption = fmt.Sprintf("%d unidades", res.Document.TotalUnits)
	_, _ = r.Bot.Send(d)
}

func (r *Router) SendError(cid int64, err error) {
	r.send(cid, util.Truncate("Erro ao processar PDF: "+err.Error(), 3900))
}

// Summary is the text reply for a processed document.
func Summary(res *pipeline.Result) string {
	var b strings.Builder
	b.WriteString("✅ Processamento concluído\n")
	if n := strings.TrimSpace(res.Document.CondominiumName); n != "" {
		fmt.Fprintf(&b, "Condomínio: %s\n", n)
	}
	fmt.Fprintf(&b, "Unidades: %d\n", res.Document.TotalUnits)
	d := res.Diagnostics
	if d.Merged > 0 {
		fmt.Fprintf(&b, "Linhas mescladas: %d\n", d.Merged)
	}
	if len(d.Ambiguities) > 0 || len(d.Conflicts) > 0 {
		fmt.Fprintf(&b, "Para conferir: %d campos ambíguos, %d conflitos\n", len(d.Ambiguities), len(d.Conflicts))
	}
	return strings.TrimRight(b.String(), "\n")
}

func (r *Router) send(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	_, _ = r.Bot.Send(msg)
}

func (r *Router) fetch(ctx context.Context, url string) ([]byte, error) {
	if r.Fetch != nil {
		return r.Fetch(ctx, url)
	}
	return download(ctx, url)
}

func download(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := httpClient().Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("status %d: %s", resp.StatusCode, string(b))
	}
	return io.ReadAll(resp.Body)
}

func httpClient() *http.Client {
	return &http.Client{Timeout: 60 * time.Second}
}
