// Package ocr extracts structured medicine lists from uploaded prescription
// images through a hosted vision model.
package ocr

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/tidwall/gjson"

	"github.com/medaid/platform/pkg/config"
	"github.com/medaid/platform/pkg/logger"
	"github.com/medaid/platform/pkg/types"
)

const extractionPrompt = `Extract every prescribed medicine from this prescription image. ` +
	`Respond with JSON only: {"doctor_name":"","issued_on":"","medicines":[{"name":"","dosage":"","times_per_day":0,"duration":""}]}`

// Client calls the hosted OCR/vision model to parse prescriptions
type Client struct {
	httpClient *http.Client
	endpoint   string
	apiKey     string
	model      string
	logger     *logger.Logger
}

// NewClient creates a new OCR client
func NewClient(cfg *config.OCRConfig, log *logger.Logger) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: time.Duration(cfg.Timeout) * time.Second},
		endpoint:   cfg.Endpoint,
		apiKey:     cfg.APIKey,
		model:      cfg.Model,
		logger:     log,
	}
}

// ParsePrescription sends the image to the vision model and decodes the
// structured medicine list from its response
func (c *Client) ParsePrescription(ctx context.Context, image io.Reader, mimeType string) (*types.Prescription, error) {
	raw, err := io.ReadAll(io.LimitReader(image, 8<<20))
	if err != nil {
		return nil, fmt.Errorf("failed to read prescription image: %w", err)
	}
	if len(raw) == 0 {
		return nil, types.NewValidationError("EMPTY_IMAGE", "prescription image is empty", nil)
	}

	payload, err := json.Marshal(map[string]interface{}{
		"contents": []map[string]interface{}{{
			"parts": []map[string]interface{}{
				{"text": extractionPrompt},
				{"inline_data": map[string]string{
					"mime_type": mimeType,
					"data":      base64.StdEncoding.EncodeToString(raw),
				}},
			},
		}},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to encode OCR request: %w", err)
	}

	target := fmt.Sprintf("%s/models/%s:generateContent?key=%s", c.endpoint, c.model, c.apiKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, target, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to build OCR request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("OCR request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("failed to read OCR response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("OCR service returned status %d", resp.StatusCode)
	}

	text := gjson.GetBytes(body, "candidates.0.content.parts.0.text").String()
	if text == "" {
		return nil, fmt.Errorf("OCR response contained no text")
	}

	prescription, err := decodePrescription(text)
	if err != nil {
		return nil, fmt.Errorf("failed to decode prescription: %w", err)
	}

	c.logger.WithField("medicines", len(prescription.Medicines)).Info("Prescription parsed")
	return prescription, nil
}

// decodePrescription parses the model's text output, tolerating markdown
// code fences around the JSON
func decodePrescription(text string) (*types.Prescription, error) {
	text = strings.TrimSpace(text)
	text = strings.TrimPrefix(text, "```json")
	text = strings.TrimPrefix(text, "```")
	text = strings.TrimSuffix(text, "```")
	text = strings.TrimSpace(text)

	var prescription types.Prescription
	if err := json.Unmarshal([]byte(text), &prescription); err != nil {
		return nil, err
	}
	if len(prescription.Medicines) == 0 {
		return nil, fmt.Errorf("no medicines found in prescription")
	}
	return &prescription, nil
}
