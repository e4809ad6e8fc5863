package registry

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"hackov8/cert-service/models"
)

func testCert(name, email, event string) models.Certificate {
	return models.Certificate{
		HackathonID:    "hack-1",
		TemplateID:     "tpl-1",
		RecipientName:  name,
		RecipientEmail: email,
		Role:           "participant",
		EventName:      event,
		CertificateURL: "https://certs.example.com/a.png",
		IssuedAt:       time.Now(),
	}
}

func TestMemoryRegistry_Issue(t *testing.T) {
	ctx := context.Background()

	t.Run("issued ids are pairwise unique", func(t *testing.T) {
		reg := NewMemoryRegistry()
		seen := make(map[string]bool)
		for i := 0; i < 200; i++ {
			cert, err := reg.Issue(ctx, testCert(fmt.Sprintf("P%d", i), fmt.Sprintf("p%d@x.com", i), "Demo Day"))
			if err != nil {
				t.Fatalf("Expected no error, but got %v", err)
			}
			if cert.CertificateID == "" {
				t.Fatal("Expected an id to be minted")
			}
			if seen[cert.CertificateID] {
				t.Fatalf("Certificate id %s was reused", cert.CertificateID)
			}
			seen[cert.CertificateID] = true
		}
	})

	t.Run("minting retries on collision", func(t *testing.T) {
		reg := NewMemoryRegistry()
		issued, err := reg.Issue(ctx, testCert("Ann", "a@x.com", "Demo Day"))
		if err != nil {
			t.Fatalf("Expected no error, but got %v", err)
		}

		// First generator hit collides with the issued id, second is fresh.
		calls := 0
		reg.newID = func() string {
			calls++
			if calls == 1 {
				return issued.CertificateID
			}
			return "fresh-id"
		}
		id, err := reg.MintID(ctx)
		if err != nil {
			t.Fatalf("Expected no error, but got %v", err)
		}
		if id != "fresh-id" {
			t.Errorf("Expected the retried id, got %s", id)
		}
		if calls != 2 {
			t.Errorf("Expected exactly one retry, got %d generator calls", calls)
		}
	})

	t.Run("mint gives up after the retry budget", func(t *testing.T) {
		reg := NewMemoryRegistry()
		issued, _ := reg.Issue(ctx, testCert("Ann", "a@x.com", "Demo Day"))
		reg.newID = func() string { return issued.CertificateID }
		if _, err := reg.MintID(ctx); !errors.Is(err, ErrIDSpaceExhausted) {
			t.Errorf("Expected ErrIDSpaceExhausted, got %v", err)
		}
	})

	t.Run("re-issuing a taken id is rejected", func(t *testing.T) {
		reg := NewMemoryRegistry()
		issued, _ := reg.Issue(ctx, testCert("Ann", "a@x.com", "Demo Day"))
		dup := testCert("Bo", "b@x.com", "Demo Day")
		dup.CertificateID = issued.CertificateID
		if _, err := reg.Issue(ctx, dup); !errors.Is(err, ErrDuplicateID) {
			t.Errorf("Expected ErrDuplicateID, got %v", err)
		}
	})
}

func TestMemoryRegistry_Lookups(t *testing.T) {
	ctx := context.Background()
	reg := NewMemoryRegistry()

	issued, err := reg.Issue(ctx, testCert("John Doe", "john@x.com", "Demo Day"))
	if err != nil {
		t.Fatalf("Expected no error, but got %v", err)
	}

	t.Run("get by id returns the full record", func(t *testing.T) {
		cert, err := reg.GetByID(ctx, issued.CertificateID)
		if err != nil {
			t.Fatalf("Expected no error, but got %v", err)
		}
		if cert.RecipientName != "John Doe" || cert.CertificateURL == "" {
			t.Errorf("Expected the full record, got %+v", cert)
		}
	})

	t.Run("verifying a never-issued id is a typed not-found", func(t *testing.T) {
		if _, err := reg.GetByID(ctx, "never-issued"); !errors.Is(err, ErrNotFound) {
			t.Errorf("Expected ErrNotFound, got %v", err)
		}
	})

	t.Run("find is case-insensitive on email only", func(t *testing.T) {
		cert, err := reg.Find(ctx, "John Doe", "JOHN@X.COM", "Demo Day")
		if err != nil {
			t.Fatalf("Expected a match, got %v", err)
		}
		if cert.CertificateID != issued.CertificateID {
			t.Errorf("Expected certificate %s, got %s", issued.CertificateID, cert.CertificateID)
		}

		if _, err := reg.Find(ctx, "john doe", "john@x.com", "Demo Day"); !errors.Is(err, ErrNotFound) {
			t.Errorf("Expected name matching to stay case-sensitive, got %v", err)
		}
	})

	t.Run("find trims whitespace on name and event", func(t *testing.T) {
		if _, err := reg.Find(ctx, "  John Doe  ", "john@x.com", " Demo Day "); err != nil {
			t.Errorf("Expected a match after trimming, got %v", err)
		}
	})

	t.Run("find is exact, not fuzzy", func(t *testing.T) {
		if _, err := reg.Find(ctx, "John", "john@x.com", "Demo Day"); !errors.Is(err, ErrNotFound) {
			t.Errorf("Expected ErrNotFound for a partial name, got %v", err)
		}
	})
}

func TestMemoryRegistry_ListForHackathon(t *testing.T) {
	ctx := context.Background()
	reg := NewMemoryRegistry()

	for i := 0; i < 3; i++ {
		cert := testCert(fmt.Sprintf("P%d", i), fmt.Sprintf("p%d@x.com", i), "Demo Day")
		if i == 1 {
			cert.HackathonID = "hack-other"
		}
		if _, err := reg.Issue(ctx, cert); err != nil {
			t.Fatalf("Expected no error, but got %v", err)
		}
	}

	certs, err := reg.ListForHackathon(ctx, "hack-1")
	if err != nil {
		t.Fatalf("Expected no error, but got %v", err)
	}
	if len(certs) != 2 {
		t.Fatalf("Expected 2 certificates for hack-1, got %d", len(certs))
	}
	if certs[0].RecipientName != "P0" || certs[1].RecipientName != "P2" {
		t.Errorf("Expected issue order to be preserved, got %s then %s", certs[0].RecipientName, certs[1].RecipientName)
	}

	empty, err := reg.ListForHackathon(ctx, "hack-none")
	if err != nil {
		t.Fatalf("Expected no error, but got %v", err)
	}
	if len(empty) != 0 {
		t.Errorf("Expected an empty list, got %d", len(empty))
	}
}

func TestMemoryRegistry_ExistsByComposite(t *testing.T) {
	ctx := context.Background()
	reg := NewMemoryRegistry()

	if _, err := reg.Issue(ctx, testCert("Ann", "a@x.com", "Demo Day")); err != nil {
		t.Fatalf("Expected no error, but got %v", err)
	}

	exists, err := reg.ExistsByComposite(ctx, "Ann", "A@X.COM", "Demo Day")
	if err != nil {
		t.Fatalf("Expected no error, but got %v", err)
	}
	if !exists {
		t.Error("Expected composite to exist")
	}

	exists, err = reg.ExistsByComposite(ctx, "Ann", "a@x.com", "Other Event")
	if err != nil {
		t.Fatalf("Expected no error, but got %v", err)
	}
	if exists {
		t.Error("Expected composite not to exist for a different event")
	}
}
