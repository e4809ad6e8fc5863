// Package renderclient wraps the external renderer collaborator: the service
// that rasterizes recipient fields and a QR code onto a template image and
// writes the artifact to storage. This side only decides what gets rendered
// where; the pixel work happens on the other end of the wire.
package renderclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"

	"hackov8/cert-service/models"
)

// RenderFields carries the text values painted onto the certificate.
type RenderFields struct {
	Name      string `json:"name"`
	Role      string `json:"role"`
	EventName string `json:"event_name"`
	Date      string `json:"date"`
}

// RenderRequest is the payload sent to the renderer for one certificate.
// Positions are intrinsic-pixel coordinates of the template image.
type RenderRequest struct {
	ImageRef  string                `json:"image_ref"`
	Positions models.FieldPositions `json:"positions"`
	Fields    RenderFields          `json:"fields"`
	QRPayload string                `json:"qr_payload,omitempty"`
}

// renderResponse is the renderer's reply.
type renderResponse struct {
	Status      string `json:"status"`
	ArtifactURL string `json:"artifact_url"`
	Message     string `json:"message,omitempty"`
}

// HTTPRenderer calls the renderer service over HTTP.
type HTTPRenderer struct {
	baseURL    string
	httpClient *http.Client
	logger     *logrus.Logger
}

// NewHTTPRenderer creates a renderer client for the service at baseURL.
func NewHTTPRenderer(baseURL string, logger *logrus.Logger) *HTTPRenderer {
	return &HTTPRenderer{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: 60 * time.Second},
		logger:     logger,
	}
}

// RenderCertificate asks the renderer to produce one artifact and returns
// its storage reference.
func (r *HTTPRenderer) RenderCertificate(ctx context.Context, request RenderRequest) (string, error) {
	payload, err := json.Marshal(request)
	if err != nil {
		return "", fmt.Errorf("encoding render request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.baseURL+"/render", bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("creating render request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	r.logger.Infof("Requesting render for %s at %s", request.Fields.Name, r.baseURL)
	resp, err := r.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("calling renderer: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		respBody, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("renderer responded with status %d: %s", resp.StatusCode, string(respBody))
	}

	var rendered renderResponse
	if err := json.NewDecoder(resp.Body).Decode(&rendered); err != nil {
		return "", fmt.Errorf("decoding render response: %w", err)
	}
	if rendered.ArtifactURL == "" {
		return "", fmt.Errorf("renderer returned no artifact reference: %s", rendered.Message)
	}
	return rendered.ArtifactURL, nil
}

// Close releases idle renderer connections.
func (r *HTTPRenderer) Close() error {
	r.httpClient.CloseIdleConnections()
	return nil
}
