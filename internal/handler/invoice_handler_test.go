package handler

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rs-freight/forwarding-api/internal/service"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newTestContext(t *testing.T, method, target string, body interface{}) (*gin.Context, *httptest.ResponseRecorder) {
	t.Helper()
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	var reader *bytes.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, err := http.NewRequest(method, target, reader)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	c.Request = req
	return c, w
}

func TestInvoiceHandlerTotals(t *testing.T) {
	h := NewInvoiceHandler(service.NewInvoiceService(nil, nil))

	c, w := newTestContext(t, http.MethodPost, "/api/v1/invoices/totals", map[string]interface{}{
		"line_items": []map[string]string{
			{"description": "Freight Charges", "charge_amount": "100.00", "vat_code": "2"},
		},
	})
	h.Totals(c)

	assert.Equal(t, http.StatusOK, w.Code)

	var envelope struct {
		Data struct {
			Subtotal string `json:"subtotal"`
			VAT      string `json:"vat"`
			Total    string `json:"total"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	assert.Equal(t, "100.00", envelope.Data.Subtotal)
	assert.Equal(t, "20.00", envelope.Data.VAT)
	assert.Equal(t, "120.00", envelope.Data.Total)
}

func TestInvoiceHandlerTotalsBadAmount(t *testing.T) {
	h := NewInvoiceHandler(service.NewInvoiceService(nil, nil))

	c, w := newTestContext(t, http.MethodPost, "/api/v1/invoices/totals", map[string]interface{}{
		"line_items": []map[string]string{
			{"description": "Freight Charges", "charge_amount": "not-a-number", "vat_code": "2"},
		},
	})
	h.Totals(c)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestInvoiceHandlerDeriveLineItemsBadJSON(t *testing.T) {
	h := NewInvoiceHandler(service.NewInvoiceService(nil, nil))

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, err := http.NewRequest(http.MethodPost, "/api/v1/invoices/line-items", bytes.NewReader([]byte("{not json")))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	c.Request = req

	h.DeriveLineItems(c)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestInvoiceHandlerDeriveLineItems(t *testing.T) {
	h := NewInvoiceHandler(service.NewInvoiceService(nil, nil))

	c, w := newTestContext(t, http.MethodPost, "/api/v1/invoices/line-items", map[string]interface{}{
		"freight_charge":                   "150.00",
		"additional_commodity_codes":       3,
		"additional_commodity_code_charge": "10.00",
	})
	h.DeriveLineItems(c)

	assert.Equal(t, http.StatusOK, w.Code)

	var envelope struct {
		Data []struct {
			Description  string `json:"description"`
			ChargeAmount string `json:"charge_amount"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	require.Len(t, envelope.Data, 2)
	assert.Equal(t, "Freight Charges", envelope.Data[0].Description)
	assert.Equal(t, "Additional Commodity Codes (2)", envelope.Data[1].Description)
	assert.Equal(t, "20.00", envelope.Data[1].ChargeAmount)
}
