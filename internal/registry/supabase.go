package registry

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	supa "github.com/supabase-community/supabase-go"

	"hackov8/cert-service/models"
)

// SupabaseRegistry persists certificates as rows in the certificates table.
type SupabaseRegistry struct {
	DB     *supa.Client
	Logger *logrus.Logger
	newID  func() string
}

// NewSupabaseRegistry wires a SupabaseRegistry minting UUID identifiers.
func NewSupabaseRegistry(db *supa.Client, logger *logrus.Logger) *SupabaseRegistry {
	return &SupabaseRegistry{DB: db, Logger: logger, newID: uuid.NewString}
}

// MintID returns an identifier with no issued row, retrying on collision.
func (r *SupabaseRegistry) MintID(ctx context.Context) (string, error) {
	for attempt := 0; attempt < maxMintAttempts; attempt++ {
		id := r.newID()
		body, _, err := r.DB.From("certificates").
			Select("certificate_id", "", false).
			Eq("certificate_id", id).
			Execute()
		if err != nil {
			return "", fmt.Errorf("checking certificate id: %w", err)
		}
		var rows []map[string]interface{}
		if err := json.Unmarshal(body, &rows); err != nil {
			return "", fmt.Errorf("processing certificate id check: %w", err)
		}
		if len(rows) == 0 {
			return id, nil
		}
		r.Logger.Warnf("Certificate id collision on %s, retrying", id)
	}
	return "", ErrIDSpaceExhausted
}

// Issue inserts the certificate row, minting an ID when none is set.
func (r *SupabaseRegistry) Issue(ctx context.Context, cert models.Certificate) (models.Certificate, error) {
	if cert.CertificateID == "" {
		id, err := r.MintID(ctx)
		if err != nil {
			return models.Certificate{}, err
		}
		cert.CertificateID = id
	} else {
		if _, err := r.GetByID(ctx, cert.CertificateID); err == nil {
			return models.Certificate{}, fmt.Errorf("%w: %s", ErrDuplicateID, cert.CertificateID)
		}
	}

	cert.RecipientName = normalizeExact(cert.RecipientName)
	cert.RecipientEmail = normalizeEmail(cert.RecipientEmail)
	cert.EventName = normalizeExact(cert.EventName)

	var created []models.Certificate
	body, _, err := r.DB.From("certificates").
		Insert(cert, false, "", "representation", "").
		Execute()
	if err != nil {
		r.Logger.Errorf("Error inserting certificate %s: %v", cert.CertificateID, err)
		return models.Certificate{}, fmt.Errorf("issuing certificate: %w", err)
	}
	if err := json.Unmarshal(body, &created); err != nil || len(created) == 0 {
		r.Logger.Errorf("Error unmarshalling certificate insert response: %v, body: %s", err, string(body))
		return models.Certificate{}, fmt.Errorf("certificate issue not confirmed")
	}
	return created[0], nil
}

// GetByID returns the full record or ErrNotFound.
func (r *SupabaseRegistry) GetByID(ctx context.Context, certificateID string) (models.Certificate, error) {
	var certs []models.Certificate
	body, _, err := r.DB.From("certificates").
		Select("*", "", false).
		Eq("certificate_id", certificateID).
		Execute()
	if err != nil {
		return models.Certificate{}, fmt.Errorf("fetching certificate: %w", err)
	}
	if err := json.Unmarshal(body, &certs); err != nil {
		return models.Certificate{}, fmt.Errorf("processing certificate data: %w", err)
	}
	if len(certs) == 0 {
		return models.Certificate{}, fmt.Errorf("%w: %s", ErrNotFound, certificateID)
	}
	return certs[0], nil
}

// Find resolves the (name, email, event) triple. Rows are stored normalized
// by Issue, so the query compares normalized values with Eq chains.
func (r *SupabaseRegistry) Find(ctx context.Context, name, email, eventName string) (models.Certificate, error) {
	var certs []models.Certificate
	body, _, err := r.DB.From("certificates").
		Select("*", "", false).
		Eq("recipient_name", normalizeExact(name)).
		Eq("recipient_email", normalizeEmail(email)).
		Eq("event_name", normalizeExact(eventName)).
		Execute()
	if err != nil {
		return models.Certificate{}, fmt.Errorf("looking up certificate: %w", err)
	}
	if err := json.Unmarshal(body, &certs); err != nil {
		return models.Certificate{}, fmt.Errorf("processing certificate lookup: %w", err)
	}
	if len(certs) == 0 {
		return models.Certificate{}, fmt.Errorf("%w: %s / %s / %s", ErrNotFound, name, email, eventName)
	}
	return certs[0], nil
}

// ListForHackathon enumerates certificates for one organizer context.
func (r *SupabaseRegistry) ListForHackathon(ctx context.Context, hackathonID string) ([]models.Certificate, error) {
	var certs []models.Certificate
	body, _, err := r.DB.From("certificates").
		Select("*", "", false).
		Eq("hackathon_id", hackathonID).
		Execute()
	if err != nil {
		return nil, fmt.Errorf("listing certificates: %w", err)
	}
	if err := json.Unmarshal(body, &certs); err != nil {
		return nil, fmt.Errorf("processing certificate list: %w", err)
	}
	return certs, nil
}

// ExistsByComposite reports whether the (name, email, event) triple was
// already issued.
func (r *SupabaseRegistry) ExistsByComposite(ctx context.Context, name, email, eventName string) (bool, error) {
	_, err := r.Find(ctx, name, email, eventName)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, ErrNotFound) {
		return false, nil
	}
	return false, err
}
