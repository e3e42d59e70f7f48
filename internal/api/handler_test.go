package api

import (
	"bytes"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/insightdelivered/bank-statement-parser/internal/metrics"
	"github.com/insightdelivered/bank-statement-parser/internal/pipeline"
)

const pncText = `Virtual Wallet Spend Statement
PNC Bank
Primary account number: 12-3456-7890
For the period 12/02/2022 to 01/01/2023
Page 1 of 1
Activity Detail
Deposits and Other Additions
Date Amount Description
12/30 6,250.00 DirectDeposit - Payroll INTRVL LLC 00209104E34DE14
Banking/Debit Card Withdrawals andPurchases
Date Amount Description
12/15 45.10 1234 Debit Card Purchase Kroger #123
Online and Electronic Banking Deductions
12/20 100.00 Web Pmt Single Transfer To Savings
Daily Balance Detail
12/02 1,000.00 12/15 6,000.00`

const bbvaPageOne = `Primary Account: 1234567890
Beginning August 2, 2021 - Ending September 1, 2021
Page 1 of 2
Date * Serial # Description Credits Debits Balance
8/3 CHECKCARD PURCHASE - KROGER #456 $22.63 $1,347.42`

const bbvaPageTwo = `Page 2 of 2
8/5 PAYROLL DEPOSIT ACME CORP $1,500.00 $2,847.42`

func setupTestApp(m *metrics.Metrics) *fiber.App {
	log := zerolog.Nop()
	h := &Handler{
		Processor: pipeline.NewProcessor(pipeline.Options{Metrics: m, Logger: log}),
		Metrics:   m,
		Logger:    log,
	}
	app := fiber.New()
	h.Register(app)
	return app
}

func postForm(t *testing.T, app *fiber.App, form url.Values) (int, ConvertResponse) {
	t.Helper()
	req := httptest.NewRequest("POST", "/api/convert", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", fiber.MIMEApplicationForm)
	return do(t, app, req)
}

func postFile(t *testing.T, app *fiber.App, filename string, content []byte) (int, ConvertResponse) {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	fw, err := mw.CreateFormFile("file", filename)
	require.NoError(t, err)
	_, err = fw.Write(content)
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest("POST", "/api/convert", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return do(t, app, req)
}

func do(t *testing.T, app *fiber.App, req *http.Request) (int, ConvertResponse) {
	t.Helper()
	resp, err := app.Test(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	var out ConvertResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return resp.StatusCode, out
}

func TestHealthEndpoint(t *testing.T) {
	app := setupTestApp(nil)

	resp, err := app.Test(httptest.NewRequest("GET", "/api/health", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	var result map[string]string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&result))
	assert.Equal(t, "ok", result["status"])
	assert.Equal(t, "fiber", result["engine"])
	assert.Equal(t, Version, result["version"])
}

func TestConvertText(t *testing.T) {
	app := setupTestApp(nil)

	status, out := postForm(t, app, url.Values{"text": {pncText}, "header": {"true"}})
	require.Equal(t, fiber.StatusOK, status, out.Error)

	assert.True(t, out.Success)
	assert.Equal(t, "pnc", out.Dialect)
	assert.Equal(t, 3, out.Count)
	assert.Len(t, out.Transactions, 3)
	assert.Equal(t, "6250.00", out.TotalCredit)
	assert.Equal(t, "145.10", out.TotalDebit)
	require.NotNil(t, out.AccountInfo)
	assert.Equal(t, "12-3456-7890", out.AccountInfo.Number)
	assert.Equal(t, "12/02/2022 - 01/01/2023", out.AccountInfo.Period)
	assert.True(t, strings.HasPrefix(out.CSV, "# Account,12-3456-7890\n"))
	assert.Contains(t, out.CSV, "Date,Amount,Type,Description")
}

func TestConvertExtractedText(t *testing.T) {
	app := setupTestApp(nil)

	text := bbvaPageOne + "\n" + pageBreak + "\n" + bbvaPageTwo
	status, out := postForm(t, app, url.Values{"extractedText": {text}})
	require.Equal(t, fiber.StatusOK, status, out.Error)

	assert.Equal(t, "bbva", out.Dialect)
	require.Len(t, out.Transactions, 2)
	assert.Equal(t, 2, out.Transactions[1].PageNumber)
	assert.False(t, strings.HasPrefix(out.CSV, "#"))
}

func TestConvertErrors(t *testing.T) {
	app := setupTestApp(nil)

	tests := []struct {
		name   string
		form   url.Values
		status int
		errMsg string
	}{
		{"no input", url.Values{}, fiber.StatusBadRequest, "no statement provided"},
		{"unknown dialect name", url.Values{"text": {pncText}, "dialect": {"chase"}}, fiber.StatusBadRequest, "unknown"},
		{"unrecognised layout", url.Values{"text": {"Some other bank statement"}}, fiber.StatusBadRequest, "Parsing failed"},
		{"missing period", url.Values{"text": {"Virtual Wallet Spend Statement\nno period"}}, fiber.StatusUnprocessableEntity, "statement period not found"},
		{"forced dialect", url.Values{"text": {pncText}, "dialect": {"bbva"}}, fiber.StatusUnprocessableEntity, "bbva header"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, out := postForm(t, app, tt.form)
			assert.Equal(t, tt.status, status)
			assert.False(t, out.Success)
			assert.Contains(t, out.Error, tt.errMsg)
			assert.NotNil(t, out.Transactions)
		})
	}
}

func TestConvertFileUpload(t *testing.T) {
	app := setupTestApp(nil)

	status, out := postFile(t, app, "statement.txt", []byte(pncText))
	assert.Equal(t, fiber.StatusBadRequest, status)
	assert.Contains(t, out.Error, "only PDF")

	status, out = postFile(t, app, "statement.pdf", []byte("not really a pdf"))
	assert.Equal(t, fiber.StatusUnprocessableEntity, status)
	assert.Contains(t, out.Error, "PDF extraction failed")
}

func TestMetricsEndpoint(t *testing.T) {
	m := metrics.New()
	app := setupTestApp(m)

	status, _ := postForm(t, app, url.Values{"text": {pncText}})
	require.Equal(t, fiber.StatusOK, status)

	resp, err := app.Test(httptest.NewRequest("GET", "/metrics", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), `statement_documents_total{dialect="pnc",status="ok"} 1`)

	resp, err = setupTestApp(nil).Test(httptest.NewRequest("GET", "/metrics", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
}
