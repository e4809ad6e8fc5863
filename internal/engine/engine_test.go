package engine

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"
	"testing"

	"github.com/sirupsen/logrus"

	"hackov8/cert-service/internal/registry"
	"hackov8/cert-service/internal/renderclient"
	"hackov8/cert-service/models"
)

// fakeRenderer records requests and fails for any recipient email listed in
// failFor.
type fakeRenderer struct {
	mu       sync.Mutex
	requests []renderclient.RenderRequest
	failFor  map[string]bool
}

func (f *fakeRenderer) RenderCertificate(ctx context.Context, request renderclient.RenderRequest) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requests = append(f.requests, request)
	if f.failFor[request.Fields.Name] {
		return "", fmt.Errorf("storage write failed")
	}
	return "https://certs.example.com/" + request.Fields.Name + ".png", nil
}

func testLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

func testTemplate() models.Template {
	return models.Template{
		ID:              "tpl-1",
		HackathonID:     "hack-1",
		ImageURL:        "mem://templates/tpl-1.png",
		IntrinsicWidth:  1200,
		IntrinsicHeight: 400,
		FieldPositions:  models.DefaultPositions(1200, 400),
	}
}

func testRecipients(n int) []models.Recipient {
	out := make([]models.Recipient, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, models.Recipient{
			Name:  fmt.Sprintf("P%d", i),
			Email: fmt.Sprintf("p%d@x.com", i),
			Role:  "participant",
			Row:   i,
		})
	}
	return out
}

func TestEngine_Generate(t *testing.T) {
	ctx := context.Background()

	t.Run("every row issues on a clean run", func(t *testing.T) {
		renderer := &fakeRenderer{}
		reg := registry.NewMemoryRegistry()
		eng := New(renderer, reg, testLogger(), "https://hackov8.example.com/verify")

		run := eng.Generate(ctx, testTemplate(), testRecipients(3), "Demo Day")
		if run.Issued() != 3 || run.Failed() != 0 {
			t.Fatalf("Expected 3 issued / 0 failed, got %d/%d", run.Issued(), run.Failed())
		}
		for i, o := range run.Outcomes {
			if o.Row != i {
				t.Errorf("Expected outcome %d to report row %d, got %d", i, i, o.Row)
			}
			if o.Certificate.CertificateURL == "" {
				t.Errorf("Expected an artifact reference on row %d", i)
			}
		}
	})

	t.Run("a failing row never aborts the batch", func(t *testing.T) {
		renderer := &fakeRenderer{failFor: map[string]bool{"P1": true}}
		reg := registry.NewMemoryRegistry()
		eng := New(renderer, reg, testLogger(), "")

		recipients := testRecipients(3)
		run := eng.Generate(ctx, testTemplate(), recipients, "Demo Day")
		if run.Issued() != 2 || run.Failed() != 1 {
			t.Fatalf("Expected 2 issued / 1 failed, got %d/%d", run.Issued(), run.Failed())
		}
		if run.Issued()+run.Failed() != len(recipients) {
			t.Errorf("Expected issued+failed to cover all %d rows", len(recipients))
		}
		failures := run.Failures()
		if len(failures) != 1 || failures[0].Row != 1 {
			t.Fatalf("Expected the failure at row 1, got %+v", failures)
		}
		if !strings.Contains(failures[0].Reason, "render failed") {
			t.Errorf("Expected a render failure reason, got %q", failures[0].Reason)
		}

		// The failed row's minted id must not have been issued.
		for _, cert := range run.Certificates() {
			if cert.RecipientName == "P1" {
				t.Error("Failed row leaked an issued certificate")
			}
		}
	})

	t.Run("ordering matches the input roster", func(t *testing.T) {
		renderer := &fakeRenderer{failFor: map[string]bool{"P0": true, "P2": true}}
		reg := registry.NewMemoryRegistry()
		eng := New(renderer, reg, testLogger(), "")

		run := eng.Generate(ctx, testTemplate(), testRecipients(4), "Demo Day")
		if len(run.Outcomes) != 4 {
			t.Fatalf("Expected 4 outcomes, got %d", len(run.Outcomes))
		}
		for i, o := range run.Outcomes {
			if o.Row != i {
				t.Errorf("Expected outcome %d at row %d, got %d", i, i, o.Row)
			}
		}
		if run.Outcomes[0].Issued() || !run.Outcomes[1].Issued() || run.Outcomes[2].Issued() || !run.Outcomes[3].Issued() {
			t.Errorf("Expected fail/issue/fail/issue, got %+v", run.Outcomes)
		}
	})

	t.Run("run snapshots the mapping before the first row", func(t *testing.T) {
		renderer := &fakeRenderer{}
		reg := registry.NewMemoryRegistry()
		eng := New(renderer, reg, testLogger(), "")

		template := testTemplate()
		run := eng.Generate(ctx, template, testRecipients(2), "Demo Day")

		// Mutating the template's live mapping after the run must not
		// show up in the snapshot the rows were rendered with.
		template.FieldPositions[models.FieldName] = models.Position{X: 1, Y: 1}
		if run.TemplateSnapshot[models.FieldName].X == 1 {
			t.Error("Run snapshot aliases the template's live mapping")
		}
		for _, req := range renderer.requests {
			if req.Positions[models.FieldName].X == 1 {
				t.Error("Render request aliases the template's live mapping")
			}
		}
	})

	t.Run("QR payload points at the issued certificate", func(t *testing.T) {
		renderer := &fakeRenderer{}
		reg := registry.NewMemoryRegistry()
		eng := New(renderer, reg, testLogger(), "https://hackov8.example.com/verify/")

		run := eng.Generate(ctx, testTemplate(), testRecipients(1), "Demo Day")
		if run.Issued() != 1 {
			t.Fatalf("Expected 1 issued, got %d", run.Issued())
		}
		want := "https://hackov8.example.com/verify/" + run.Outcomes[0].Certificate.CertificateID
		if renderer.requests[0].QRPayload != want {
			t.Errorf("Expected QR payload %q, got %q", want, renderer.requests[0].QRPayload)
		}

		// The verification read must agree with what was rendered.
		if _, err := reg.GetByID(ctx, run.Outcomes[0].Certificate.CertificateID); err != nil {
			t.Errorf("Expected the QR-referenced certificate to verify, got %v", err)
		}
	})

	t.Run("re-running a roster mints fresh ids and flags duplicates", func(t *testing.T) {
		renderer := &fakeRenderer{}
		reg := registry.NewMemoryRegistry()
		eng := New(renderer, reg, testLogger(), "")

		first := eng.Generate(ctx, testTemplate(), testRecipients(2), "Demo Day")
		second := eng.Generate(ctx, testTemplate(), testRecipients(2), "Demo Day")

		if second.Issued() != 2 {
			t.Fatalf("Expected the re-run to issue anyway, got %d issued", second.Issued())
		}
		if first.Duplicates() != 0 {
			t.Errorf("Expected no duplicates on the first run, got %d", first.Duplicates())
		}
		if second.Duplicates() != 2 {
			t.Errorf("Expected both re-run rows flagged as duplicates, got %d", second.Duplicates())
		}
		if first.Outcomes[0].Certificate.CertificateID == second.Outcomes[0].Certificate.CertificateID {
			t.Error("Expected the re-run to mint fresh certificate ids")
		}
	})

	t.Run("cancellation keeps issued rows and fails the rest", func(t *testing.T) {
		reg := registry.NewMemoryRegistry()
		cancelCtx, cancel := context.WithCancel(ctx)

		// Cancel after the first successful render.
		renderer := &cancellingRenderer{inner: &fakeRenderer{}, cancel: cancel}
		eng := New(renderer, reg, testLogger(), "")

		run := eng.Generate(cancelCtx, testTemplate(), testRecipients(3), "Demo Day")
		if run.Issued() != 1 {
			t.Fatalf("Expected the first row to stay issued, got %d issued", run.Issued())
		}
		if run.Failed() != 2 {
			t.Fatalf("Expected the remaining rows to be failed, got %d", run.Failed())
		}
		if got := run.Issued() + run.Failed(); got != 3 {
			t.Errorf("Expected issued+failed == 3, got %d", got)
		}

		// The issued certificate is not rolled back.
		certs, _ := reg.ListForHackathon(ctx, "hack-1")
		if len(certs) != 1 {
			t.Errorf("Expected 1 persisted certificate after cancellation, got %d", len(certs))
		}
	})
}

// cancellingRenderer cancels the run's context after its first render.
type cancellingRenderer struct {
	inner  *fakeRenderer
	cancel context.CancelFunc
	calls  int
}

func (c *cancellingRenderer) RenderCertificate(ctx context.Context, request renderclient.RenderRequest) (string, error) {
	c.calls++
	artifact, err := c.inner.RenderCertificate(ctx, request)
	if c.calls == 1 {
		c.cancel()
	}
	return artifact, err
}
