// Package api serves statement conversion over HTTP.
package api

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/rs/zerolog"

	"github.com/insightdelivered/bank-statement-parser/internal/extractor"
	"github.com/insightdelivered/bank-statement-parser/internal/logger"
	"github.com/insightdelivered/bank-statement-parser/internal/metrics"
	"github.com/insightdelivered/bank-statement-parser/internal/models"
	"github.com/insightdelivered/bank-statement-parser/internal/parser"
	"github.com/insightdelivered/bank-statement-parser/internal/pipeline"
	"github.com/insightdelivered/bank-statement-parser/internal/writer"
)

// Version is reported by the health and convert endpoints.
const Version = "2.0.0"

// pageBreak separates pages in client-side extracted text.
const pageBreak = "---PAGE_BREAK---"

// ConvertResponse is the JSON response from the /api/convert endpoint.
type ConvertResponse struct {
	Success      bool                 `json:"success"`
	Error        string               `json:"error,omitempty"`
	Dialect      string               `json:"dialect,omitempty"`
	AccountInfo  *AccountInfo         `json:"accountInfo,omitempty"`
	Transactions []models.Transaction `json:"transactions"`
	Warnings     []models.Warning     `json:"warnings,omitempty"`
	CSV          string               `json:"csv,omitempty"`
	TotalDebit   string               `json:"totalDebit"`
	TotalCredit  string               `json:"totalCredit"`
	Count        int                  `json:"count"`
	Version      string               `json:"version,omitempty"`
}

// AccountInfo holds account metadata for the JSON response.
type AccountInfo struct {
	Number string `json:"number,omitempty"`
	Period string `json:"period,omitempty"`
	Pages  int    `json:"pages,omitempty"`
}

// Handler holds the HTTP handlers for the API.
type Handler struct {
	Processor *pipeline.Processor
	Metrics   *metrics.Metrics
	Logger    zerolog.Logger
}

// Register sets up the routes on app. /metrics is only served when Metrics
// is set.
func (h *Handler) Register(app *fiber.App) {
	app.Use(recover.New())
	app.Use(h.requestLogger)
	api := app.Group("/api")
	api.Get("/health", h.Health)
	api.Post("/convert", h.Convert)
	if h.Metrics != nil {
		app.Get("/metrics", adaptor.HTTPHandler(h.Metrics.Handler()))
	}
}

// requestLogger attaches a request-scoped logger to the user context.
func (h *Handler) requestLogger(c *fiber.Ctx) error {
	log := logger.WithFields(h.Logger, map[string]interface{}{
		"method": c.Method(),
		"path":   c.Path(),
	})
	c.SetUserContext(logger.WithContext(c.UserContext(), log))
	return c.Next()
}

// Health reports liveness.
func (h *Handler) Health(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status":  "ok",
		"engine":  "fiber",
		"version": Version,
	})
}

// Convert parses one statement. The text comes from, in order of
// preference, the extractedText field (pages separated by ---PAGE_BREAK---),
// the text field (pages separated by page marker lines) or an uploaded PDF
// in the file field. An optional dialect field skips detection.
func (h *Handler) Convert(c *fiber.Ctx) error {
	processor := h.Processor
	if name := c.FormValue("dialect"); name != "" {
		d, err := parser.ParseDialect(name)
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, err.Error())
		}
		processor = processor.WithDialect(d)
	}

	doc, status, err := h.document(c)
	if err != nil {
		return writeError(c, status, err.Error())
	}

	res := processor.ProcessDocument(c.UserContext(), doc)
	if res.Err != nil {
		log := logger.FromContext(c.UserContext())
		log.Warn().Err(res.Err).Str("file", doc.SourceFile).Msg("conversion failed")
		status := fiber.StatusUnprocessableEntity
		if errors.Is(res.Err, parser.ErrUnknownDialect) {
			status = fiber.StatusBadRequest
		}
		return c.Status(status).JSON(ConvertResponse{
			Success:      false,
			Error:        fmt.Sprintf("Parsing failed: %v", res.Err),
			Transactions: []models.Transaction{},
			Warnings:     res.Warnings,
		})
	}

	var csvBuf bytes.Buffer
	csvWriter := &writer.CSVWriter{IncludeHeader: c.FormValue("header") == "true", Summary: res.Summary}
	if err := csvWriter.Write(&csvBuf, res.Transactions); err != nil {
		return writeError(c, fiber.StatusInternalServerError, fmt.Sprintf("CSV generation failed: %v", err))
	}

	credits, debits := models.Totals(res.Transactions)
	resp := ConvertResponse{
		Success:      true,
		Dialect:      string(res.Dialect),
		Transactions: res.Transactions,
		Warnings:     res.Warnings,
		CSV:          csvBuf.String(),
		TotalDebit:   debits.StringFixed(2),
		TotalCredit:  credits.StringFixed(2),
		Count:        len(res.Transactions),
		Version:      Version,
	}
	if s := res.Summary; s != nil {
		resp.AccountInfo = &AccountInfo{Number: s.AccountNumber, Period: s.Period(), Pages: s.TotalPages}
	}
	return c.JSON(resp)
}

// document builds the pipeline input from the request, returning the HTTP
// status to use when it cannot.
func (h *Handler) document(c *fiber.Ctx) (pipeline.Document, int, error) {
	doc := pipeline.Document{SourceFile: "upload"}

	if text := c.FormValue("extractedText"); strings.TrimSpace(text) != "" {
		doc.Pages = parser.SplitPages(text, pageBreak)
	} else if text := c.FormValue("text"); strings.TrimSpace(text) != "" {
		doc.Pages = parser.SplitMarkedPages(text)
	}

	fh, err := c.FormFile("file")
	if err == nil {
		doc.SourceFile = fh.Filename
	}
	if len(doc.Pages) > 0 {
		return doc, 0, nil
	}
	if err != nil {
		return doc, fiber.StatusBadRequest, errors.New("no statement provided: use form field 'file', 'text' or 'extractedText'")
	}
	if !strings.HasSuffix(strings.ToLower(fh.Filename), ".pdf") {
		return doc, fiber.StatusBadRequest, errors.New("only PDF files are supported")
	}

	f, err := fh.Open()
	if err != nil {
		return doc, fiber.StatusInternalServerError, fmt.Errorf("failed to read upload: %w", err)
	}
	defer f.Close()
	data, err := io.ReadAll(f)
	if err != nil {
		return doc, fiber.StatusInternalServerError, fmt.Errorf("failed to read upload: %w", err)
	}

	pages, err := extractor.ExtractBytes(data)
	if err != nil {
		return doc, fiber.StatusUnprocessableEntity, fmt.Errorf("PDF extraction failed: %w", err)
	}
	doc.Pages = pages
	return doc, 0, nil
}

func writeError(c *fiber.Ctx, status int, msg string) error {
	return c.Status(status).JSON(ConvertResponse{
		Success:      false,
		Error:        msg,
		Transactions: []models.Transaction{},
	})
}
