package ocr

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/medaid/platform/pkg/config"
	"github.com/medaid/platform/pkg/logger"
)

func newTestClient(endpoint string) *Client {
	return NewClient(&config.OCRConfig{
		Endpoint: endpoint,
		APIKey:   "test-key",
		Model:    "vision-lite",
		Timeout:  5,
	}, logger.New("error"))
}

func modelResponse(text string) string {
	resp := map[string]interface{}{
		"candidates": []map[string]interface{}{{
			"content": map[string]interface{}{
				"parts": []map[string]string{{"text": text}},
			},
		}},
	}
	b, _ := json.Marshal(resp)
	return string(b)
}

func TestParsePrescription_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Contains(t, r.URL.Path, "vision-lite")
		assert.Equal(t, "test-key", r.URL.Query().Get("key"))

		w.Write([]byte(modelResponse(`{"doctor_name":"Dr. Sen","medicines":[{"name":"Paracetamol 500","dosage":"1 tablet","times_per_day":2,"duration":"5 days"}]}`)))
	}))
	defer srv.Close()

	c := newTestClient(srv.URL)
	p, err := c.ParsePrescription(context.Background(), strings.NewReader("fake-image-bytes"), "image/jpeg")
	require.NoError(t, err)

	assert.Equal(t, "Dr. Sen", p.DoctorName)
	require.Len(t, p.Medicines, 1)
	assert.Equal(t, "Paracetamol 500", p.Medicines[0].Name)
	assert.Equal(t, 2, p.Medicines[0].TimesPerDay)
}

func TestParsePrescription_MarkdownFencedJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(modelResponse("```json\n{\"medicines\":[{\"name\":\"Crocin\"}]}\n```")))
	}))
	defer srv.Close()

	c := newTestClient(srv.URL)
	p, err := c.ParsePrescription(context.Background(), strings.NewReader("img"), "image/png")
	require.NoError(t, err)
	require.Len(t, p.Medicines, 1)
	assert.Equal(t, "Crocin", p.Medicines[0].Name)
}

func TestParsePrescription_EmptyImage(t *testing.T) {
	c := newTestClient("http://unused.local")
	_, err := c.ParsePrescription(context.Background(), strings.NewReader(""), "image/jpeg")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "empty")
}

func TestParsePrescription_NoMedicinesFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(modelResponse(`{"medicines":[]}`)))
	}))
	defer srv.Close()

	c := newTestClient(srv.URL)
	_, err := c.ParsePrescription(context.Background(), strings.NewReader("img"), "image/jpeg")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no medicines")
}

func TestParsePrescription_ServiceError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	c := newTestClient(srv.URL)
	_, err := c.ParsePrescription(context.Background(), strings.NewReader("img"), "image/jpeg")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "429")
}
