package templatestore

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"hackov8/cert-service/models"
)

// MemoryStore is an in-process Store keeping templates and their image bytes
// in a mutex-guarded map. It backs tests and single-node deployments that do
// not need Supabase persistence.
type MemoryStore struct {
	mu        sync.RWMutex
	templates map[string]models.Template
	images    map[string][]byte
	maxBytes  int64
	now       func() time.Time
}

// NewMemoryStore creates an empty MemoryStore. A non-positive maxBytes
// falls back to DefaultMaxImageBytes.
func NewMemoryStore(maxBytes int64) *MemoryStore {
	return &MemoryStore{
		templates: make(map[string]models.Template),
		images:    make(map[string][]byte),
		maxBytes:  maxBytes,
		now:       time.Now,
	}
}

// Upload validates the payload, stores the image bytes and creates the
// template with the default field mapping.
func (s *MemoryStore) Upload(ctx context.Context, imageData []byte, mimeType, hackathonID string) (models.Template, error) {
	width, height, ext, err := validateImage(imageData, mimeType, s.maxBytes)
	if err != nil {
		return models.Template{}, err
	}

	id := uuid.NewString()
	now := s.now()
	tpl := models.Template{
		ID:              id,
		HackathonID:     hackathonID,
		ImageURL:        fmt.Sprintf("mem://templates/%s%s", id, ext),
		IntrinsicWidth:  width,
		IntrinsicHeight: height,
		FieldPositions:  models.DefaultPositions(width, height),
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.templates[id] = tpl
	s.images[id] = imageData
	return cloneTemplate(tpl), nil
}

// SetPositions replaces the stored field mapping for the template.
func (s *MemoryStore) SetPositions(ctx context.Context, templateID string, positions models.FieldPositions) (models.Template, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tpl, ok := s.templates[templateID]
	if !ok {
		return models.Template{}, fmt.Errorf("%w: %s", ErrNotFound, templateID)
	}
	tpl.FieldPositions = positions.Clone()
	tpl.UpdatedAt = s.now()
	s.templates[templateID] = tpl
	return cloneTemplate(tpl), nil
}

// Get returns the template or ErrNotFound.
func (s *MemoryStore) Get(ctx context.Context, templateID string) (models.Template, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	tpl, ok := s.templates[templateID]
	if !ok {
		return models.Template{}, fmt.Errorf("%w: %s", ErrNotFound, templateID)
	}
	return cloneTemplate(tpl), nil
}

// Image returns the stored background image bytes for a template.
func (s *MemoryStore) Image(templateID string) ([]byte, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	data, ok := s.images[templateID]
	return data, ok
}

// cloneTemplate detaches the returned template from the stored one so
// callers cannot mutate the map held inside the store.
func cloneTemplate(tpl models.Template) models.Template {
	tpl.FieldPositions = tpl.FieldPositions.Clone()
	return tpl
}
