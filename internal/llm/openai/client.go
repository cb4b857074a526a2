package openai

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/invoice-tracker/internal/common"
	"github.com/joseph-ayodele/invoice-tracker/internal/llm"
)

var _ llm.FieldExtractor = (*Client)(nil)

// Extract implements llm.FieldExtractor using a single text-only
// chat/completions call. There are no retries.
func (c *Client) Extract(ctx context.Context, fields []string, text string) (llm.RawExtraction, error) {
	rid := uuid.New().String()
	start := time.Now()

	c.logger.Info("llm.extract.start",
		"req_id", rid,
		"model", c.cfg.Model,
		"temp", temperature,
		"text_len", len(text),
		"fields", len(fields),
	)

	body := map[string]any{
		"model":           c.cfg.Model,
		"temperature":     temperature,
		"max_tokens":      c.cfg.MaxTokens,
		"response_format": map[string]any{"type": "json_object"},
		"messages": []map[string]any{
			{"role": "system", "content": llm.BuildSystemPrompt(fields, c.cfg.OrgIdentity)},
			{"role": "user", "content": text},
		},
	}

	endpoint := strings.TrimRight(c.cfg.BaseURL, "/") + "/chat/completions"
	headers := map[string]string{"Authorization": "Bearer " + c.cfg.APIKey}
	raw, status, err := llm.SendJSON(ctx, c.http, endpoint, body, headers, c.logger)
	if err != nil {
		c.logger.Error("llm.extract.http_error",
			"req_id", rid, "status", status, "error", err,
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		return llm.RawExtraction{}, common.ExtractionError("field extraction request failed", err)
	}

	content := c.messageContent(rid, raw)
	schema := llm.BuildInvoiceJSONSchema(fields)
	parsed := llm.ParseResponse(content)
	if b, err := json.Marshal(parsed); err == nil {
		if vErr := llm.ValidateJSONAgainstSchema(schema, b); vErr != nil {
			c.logger.Warn("llm.extract.schema_mismatch", "req_id", rid, "error", vErr)
		}
	}

	out := llm.Normalize(parsed, fields)
	out.Content = content

	c.logger.Info("llm.extract.ok",
		"req_id", rid,
		"header_fields", len(out.Header),
		"line_items", len(out.LineItems),
		"invoice_number", out.Header["Invoice_Number"],
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return out, nil
}

// messageContent pulls the first choice's content out of a completion.
// An undecodable envelope reads as "{}".
func (c *Client) messageContent(rid string, raw []byte) string {
	var cc struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.Unmarshal(raw, &cc); err != nil {
		c.logger.Warn("llm.extract.decode_error", "req_id", rid, "error", err, "raw_bytes", len(raw))
		return "{}"
	}
	if len(cc.Choices) == 0 {
		c.logger.Warn("llm.extract.no_choices", "req_id", rid)
		return "{}"
	}
	return strings.TrimSpace(cc.Choices[0].Message.Content)
}
