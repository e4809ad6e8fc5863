package registry

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"hackov8/cert-service/models"
)

// MemoryRegistry is an in-process Registry over mutex-guarded maps. An
// insertion-order index keeps ListForHackathon deterministic.
type MemoryRegistry struct {
	mu    sync.RWMutex
	byID  map[string]models.Certificate
	order []string
	newID func() string
}

// NewMemoryRegistry creates an empty MemoryRegistry minting UUID
// identifiers.
func NewMemoryRegistry() *MemoryRegistry {
	return &MemoryRegistry{
		byID:  make(map[string]models.Certificate),
		newID: uuid.NewString,
	}
}

// MintID returns a fresh identifier unused among issued certificates.
func (r *MemoryRegistry) MintID(ctx context.Context) (string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.mintLocked()
}

// mintLocked assumes at least a read lock is held.
func (r *MemoryRegistry) mintLocked() (string, error) {
	for attempt := 0; attempt < maxMintAttempts; attempt++ {
		id := r.newID()
		if _, taken := r.byID[id]; !taken {
			return id, nil
		}
	}
	return "", ErrIDSpaceExhausted
}

// Issue persists the certificate, minting an ID when none is set. The
// stored record normalizes the email to lower case and trims the name and
// event so the self-service lookup compares like with like.
func (r *MemoryRegistry) Issue(ctx context.Context, cert models.Certificate) (models.Certificate, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if cert.CertificateID == "" {
		id, err := r.mintLocked()
		if err != nil {
			return models.Certificate{}, err
		}
		cert.CertificateID = id
	} else if _, taken := r.byID[cert.CertificateID]; taken {
		return models.Certificate{}, fmt.Errorf("%w: %s", ErrDuplicateID, cert.CertificateID)
	}

	cert.RecipientName = normalizeExact(cert.RecipientName)
	cert.RecipientEmail = normalizeEmail(cert.RecipientEmail)
	cert.EventName = normalizeExact(cert.EventName)

	r.byID[cert.CertificateID] = cert
	r.order = append(r.order, cert.CertificateID)
	return cert, nil
}

// GetByID returns the full record or ErrNotFound.
func (r *MemoryRegistry) GetByID(ctx context.Context, certificateID string) (models.Certificate, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	cert, ok := r.byID[certificateID]
	if !ok {
		return models.Certificate{}, fmt.Errorf("%w: %s", ErrNotFound, certificateID)
	}
	return cert, nil
}

// Find resolves the (name, email, event) triple exactly, case-insensitive
// on email and whitespace-trimmed on the other two.
func (r *MemoryRegistry) Find(ctx context.Context, name, email, eventName string) (models.Certificate, error) {
	name = normalizeExact(name)
	email = normalizeEmail(email)
	eventName = normalizeExact(eventName)

	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, id := range r.order {
		cert := r.byID[id]
		if cert.RecipientName == name && cert.RecipientEmail == email && cert.EventName == eventName {
			return cert, nil
		}
	}
	return models.Certificate{}, fmt.Errorf("%w: %s / %s / %s", ErrNotFound, name, email, eventName)
}

// ListForHackathon enumerates certificates for one organizer context in
// issue order.
func (r *MemoryRegistry) ListForHackathon(ctx context.Context, hackathonID string) ([]models.Certificate, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]models.Certificate, 0)
	for _, id := range r.order {
		if cert := r.byID[id]; cert.HackathonID == hackathonID {
			out = append(out, cert)
		}
	}
	return out, nil
}

// ExistsByComposite reports whether the (name, email, event) triple was
// already issued.
func (r *MemoryRegistry) ExistsByComposite(ctx context.Context, name, email, eventName string) (bool, error) {
	_, err := r.Find(ctx, name, email, eventName)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, ErrNotFound) {
		return false, nil
	}
	return false, err
}
