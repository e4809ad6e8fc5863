package templatestore

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	supa "github.com/supabase-community/supabase-go"

	"hackov8/cert-service/models"
)

// SupabaseStore persists templates as rows in the certificate_templates
// table and pushes the background image bytes into a storage bucket.
type SupabaseStore struct {
	DB       *supa.Client
	BaseURL  string // Supabase project URL, used for storage object requests
	APIKey   string
	Bucket   string
	HTTP     *http.Client
	MaxBytes int64
	Logger   *logrus.Logger
}

// NewSupabaseStore wires a SupabaseStore. A non-positive maxBytes falls back
// to DefaultMaxImageBytes.
func NewSupabaseStore(db *supa.Client, baseURL, apiKey, bucket string, maxBytes int64, logger *logrus.Logger) *SupabaseStore {
	return &SupabaseStore{
		DB:       db,
		BaseURL:  baseURL,
		APIKey:   apiKey,
		Bucket:   bucket,
		HTTP:     &http.Client{Timeout: 30 * time.Second},
		MaxBytes: maxBytes,
		Logger:   logger,
	}
}

// Upload validates the payload, uploads the image to the storage bucket and
// inserts the template row with the default field mapping.
func (s *SupabaseStore) Upload(ctx context.Context, imageData []byte, mimeType, hackathonID string) (models.Template, error) {
	width, height, ext, err := validateImage(imageData, mimeType, s.MaxBytes)
	if err != nil {
		return models.Template{}, err
	}

	id := uuid.NewString()
	storagePath := fmt.Sprintf("%s/%s%s", hackathonID, id, ext)
	if hackathonID == "" {
		storagePath = fmt.Sprintf("standalone/%s%s", id, ext)
	}

	if err := s.uploadObject(ctx, storagePath, imageData, mimeType); err != nil {
		s.Logger.Errorf("Error uploading template image to storage: %v", err)
		return models.Template{}, fmt.Errorf("uploading template image: %w", err)
	}

	now := time.Now()
	tpl := models.Template{
		ID:              id,
		HackathonID:     hackathonID,
		ImageURL:        fmt.Sprintf("%s/storage/v1/object/public/%s/%s", s.BaseURL, s.Bucket, storagePath),
		IntrinsicWidth:  width,
		IntrinsicHeight: height,
		FieldPositions:  models.DefaultPositions(width, height),
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	var created []models.Template
	body, _, err := s.DB.From("certificate_templates").
		Insert(tpl, false, "", "representation", "").
		Execute()
	if err != nil {
		s.Logger.Errorf("Error inserting template record: %v", err)
		return models.Template{}, fmt.Errorf("creating template record: %w", err)
	}
	if err := json.Unmarshal(body, &created); err != nil || len(created) == 0 {
		s.Logger.Errorf("Error unmarshalling template insert response: %v, body: %s", err, string(body))
		return models.Template{}, fmt.Errorf("template record creation not confirmed")
	}
	return created[0], nil
}

// SetPositions replaces the stored field mapping wholesale.
func (s *SupabaseStore) SetPositions(ctx context.Context, templateID string, positions models.FieldPositions) (models.Template, error) {
	update := map[string]interface{}{
		"field_positions": positions,
		"updated_at":      time.Now(),
	}

	var updated []models.Template
	body, _, err := s.DB.From("certificate_templates").
		Update(update, "representation", "").
		Eq("id", templateID).
		Execute()
	if err != nil {
		s.Logger.Errorf("Error updating positions for template %s: %v", templateID, err)
		return models.Template{}, fmt.Errorf("saving positions: %w", err)
	}
	if err := json.Unmarshal(body, &updated); err != nil {
		return models.Template{}, fmt.Errorf("processing position update response: %w", err)
	}
	if len(updated) == 0 {
		return models.Template{}, fmt.Errorf("%w: %s", ErrNotFound, templateID)
	}
	return updated[0], nil
}

// Get returns the template or ErrNotFound.
func (s *SupabaseStore) Get(ctx context.Context, templateID string) (models.Template, error) {
	var templates []models.Template
	body, _, err := s.DB.From("certificate_templates").
		Select("*", "", false).
		Eq("id", templateID).
		Execute()
	if err != nil {
		s.Logger.Errorf("Error fetching template %s: %v", templateID, err)
		return models.Template{}, fmt.Errorf("fetching template: %w", err)
	}
	if err := json.Unmarshal(body, &templates); err != nil {
		return models.Template{}, fmt.Errorf("processing template data: %w", err)
	}
	if len(templates) == 0 {
		return models.Template{}, fmt.Errorf("%w: %s", ErrNotFound, templateID)
	}
	return templates[0], nil
}

// uploadObject pushes the image bytes to the storage bucket with a direct
// storage-object request.
func (s *SupabaseStore) uploadObject(ctx context.Context, storagePath string, data []byte, mimeType string) error {
	url := fmt.Sprintf("%s/storage/v1/object/%s/%s", s.BaseURL, s.Bucket, storagePath)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(data))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", mimeType)
	req.Header.Set("Authorization", "Bearer "+s.APIKey)

	resp, err := s.HTTP.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		respBody, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("storage upload failed with status %d: %s", resp.StatusCode, string(respBody))
	}
	return nil
}
