package openai

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/invoice-tracker/constants"
	"github.com/joseph-ayodele/invoice-tracker/internal/common"
)

func completion(content string) []byte {
	b, _ := json.Marshal(map[string]any{
		"choices": []map[string]any{
			{"message": map[string]any{"role": "assistant", "content": content}},
		},
	})
	return b
}

func newTestClient(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return NewClient(Config{
		APIKey:      "sk-test",
		BaseURL:     srv.URL,
		OrgIdentity: "AAECS5013J",
	}, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestExtractSendsDeterministicRequest(t *testing.T) {
	var got map[string]any
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_, _ = w.Write(completion(`{"Invoice_Number":"INV-9","Total_Amount":1180}`))
	})

	out, err := c.Extract(context.Background(), constants.ExtractableFields(), "TAX INVOICE INV-9")
	require.NoError(t, err)

	assert.Equal(t, "gpt-4o-mini", got["model"])
	assert.EqualValues(t, 0, got["temperature"])
	assert.EqualValues(t, 1200, got["max_tokens"])
	assert.Equal(t, map[string]any{"type": "json_object"}, got["response_format"])
	msgs := got["messages"].([]any)
	require.Len(t, msgs, 2)
	sys := msgs[0].(map[string]any)["content"].(string)
	assert.Contains(t, sys, "AAECS5013J")
	assert.Contains(t, sys, "Invoice_Number")
	assert.Equal(t, "TAX INVOICE INV-9", msgs[1].(map[string]any)["content"])

	assert.Equal(t, "INV-9", out.Header[constants.FieldInvoiceNumber])
	assert.Equal(t, "1180", out.Header[constants.FieldTotalAmount])
}

func TestExtractMalformedContentDegradesToEmpty(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write(completion("sorry, I cannot read this invoice"))
	})
	out, err := c.Extract(context.Background(), constants.ExtractableFields(), "???")
	require.NoError(t, err)
	assert.True(t, out.Empty())
}

func TestExtractRecoversFencedJSON(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write(completion("```json\n{\"Vendor_Name\":\"Acme Traders\",\"Line_Items\":[{\"Description\":\"Cement\",\"Total_Amount\":\"500\"},{}]}\n```"))
	})
	out, err := c.Extract(context.Background(), constants.ExtractableFields(), "text")
	require.NoError(t, err)
	assert.Equal(t, "Acme Traders", out.Header[constants.FieldVendorName])
	require.Len(t, out.LineItems, 1)
	assert.Equal(t, "Cement", out.LineItems[0][constants.FieldLineItem])
	assert.Equal(t, "500", out.LineItems[0][constants.FieldTotalAmount])
}

func TestExtractTransportFailureIsExtractionError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"rate limited"}`, http.StatusTooManyRequests)
	})
	_, err := c.Extract(context.Background(), constants.ExtractableFields(), "text")
	require.Error(t, err)
	assert.ErrorIs(t, err, common.ErrExtraction)
}

func TestExtractIgnoresTemperatureEnv(t *testing.T) {
	t.Setenv("OPENAI_TEMPERATURE", "0.9")
	var got map[string]any
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_, _ = w.Write(completion(`{}`))
	})
	_, err := c.Extract(context.Background(), constants.ExtractableFields(), "TAX INVOICE")
	require.NoError(t, err)
	assert.EqualValues(t, 0, got["temperature"])
}
