// Package registry tracks issued certificates and their identifiers. IDs are
// minted with an explicit collision check against everything already issued,
// not just trusted to a random generator, and lookups always resolve to a
// typed not-found rather than a partial result.
package registry

import (
	"context"
	"errors"
	"strings"

	"hackov8/cert-service/models"
)

var (
	// ErrNotFound is returned when no certificate matches the lookup.
	ErrNotFound = errors.New("certificate not found")
	// ErrDuplicateID is returned when issuing with an identifier that has
	// already been issued. Certificate IDs are never reused.
	ErrDuplicateID = errors.New("certificate id already issued")
	// ErrIDSpaceExhausted is returned when minting keeps colliding after
	// the retry budget. In practice it signals a broken ID generator.
	ErrIDSpaceExhausted = errors.New("could not mint a unique certificate id")
)

// maxMintAttempts bounds the collision-retry loop when minting an ID.
const maxMintAttempts = 5

// Registry stores issued certificates and owns identifier uniqueness.
type Registry interface {
	// MintID returns a fresh identifier guaranteed unused among issued
	// certificates, retrying on collision. A minted ID only becomes
	// reserved once Issue persists a certificate carrying it.
	MintID(ctx context.Context) (string, error)
	// Issue persists the certificate. An empty CertificateID is minted;
	// a caller-supplied one that was already issued fails with
	// ErrDuplicateID.
	Issue(ctx context.Context, cert models.Certificate) (models.Certificate, error)
	// GetByID returns the full public record or ErrNotFound.
	GetByID(ctx context.Context, certificateID string) (models.Certificate, error)
	// Find resolves the self-service (name, email, event) lookup: exact
	// string equality after case-normalizing the email and trimming the
	// name and event. Not fuzzy search, deliberately.
	Find(ctx context.Context, name, email, eventName string) (models.Certificate, error)
	// ListForHackathon enumerates certificates issued for one organizer
	// context, in issue order.
	ListForHackathon(ctx context.Context, hackathonID string) ([]models.Certificate, error)
	// ExistsByComposite reports whether a certificate for the same
	// (name, email, event) triple was already issued, so a caller
	// re-running a batch can see the duplicates it is about to mint.
	ExistsByComposite(ctx context.Context, name, email, eventName string) (bool, error)
}

// normalizeEmail lower-cases and trims an email for comparison.
func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// normalizeExact trims a field that is otherwise compared exactly.
func normalizeExact(s string) string {
	return strings.TrimSpace(s)
}
