// Package engine replays a template's field mapping against a parsed roster,
// producing one certificate request per recipient. Rows are independent: a
// renderer failure on one row is recorded and the batch moves on.
package engine

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"hackov8/cert-service/internal/registry"
	"hackov8/cert-service/internal/renderclient"
	"hackov8/cert-service/models"
)

// Renderer is the slice of the render client the engine needs. Tests swap in
// a fake; production wires renderclient.HTTPRenderer.
type Renderer interface {
	RenderCertificate(ctx context.Context, request renderclient.RenderRequest) (string, error)
}

// Engine runs batch certificate generation.
type Engine struct {
	renderer      Renderer
	registry      registry.Registry
	logger        *logrus.Logger
	verifyBaseURL string
	now           func() time.Time
}

// New creates an Engine. verifyBaseURL is the public verification URL prefix
// the QR code payload is built from; empty means certificates carry no QR
// payload.
func New(renderer Renderer, reg registry.Registry, logger *logrus.Logger, verifyBaseURL string) *Engine {
	return &Engine{
		renderer:      renderer,
		registry:      reg,
		logger:        logger,
		verifyBaseURL: strings.TrimRight(verifyBaseURL, "/"),
		now:           time.Now,
	}
}

// Generate renders and issues one certificate per recipient. The template's
// mapping is snapshotted before the first row, so a position save racing the
// batch cannot be observed half-applied. Outcomes are returned in roster
// order, one per recipient, and a cancelled context marks the remaining rows
// failed without rolling back anything already issued.
func (e *Engine) Generate(ctx context.Context, template models.Template, recipients []models.Recipient, eventName string) *models.GenerationRun {
	snapshot := template.FieldPositions.Clone()
	run := &models.GenerationRun{
		TemplateSnapshot: snapshot,
		EventName:        eventName,
		StartedAt:        e.now(),
	}

	for i, recipient := range recipients {
		if err := ctx.Err(); err != nil {
			run.Outcomes = append(run.Outcomes, models.Outcome{
				Row:    i,
				Reason: fmt.Sprintf("generation cancelled: %v", err),
			})
			continue
		}
		run.Outcomes = append(run.Outcomes, e.generateOne(ctx, template, snapshot, i, recipient, eventName))
	}

	e.logger.WithFields(logrus.Fields{
		"event":      eventName,
		"template":   template.ID,
		"issued":     run.Issued(),
		"failed":     run.Failed(),
		"duplicates": run.Duplicates(),
	}).Info("Generation run completed")
	return run
}

// generateOne handles a single roster row: mint an identifier, render with
// the QR payload pointing at its verification URL, then persist. The ID is
// minted before rendering so the QR code on the artifact resolves to the
// record that gets stored; a failed render discards the ID unissued.
func (e *Engine) generateOne(ctx context.Context, template models.Template, snapshot models.FieldPositions, row int, recipient models.Recipient, eventName string) models.Outcome {
	certificateID, err := e.registry.MintID(ctx)
	if err != nil {
		e.logger.Errorf("Row %d: could not mint certificate id: %v", row, err)
		return models.Outcome{Row: row, Reason: fmt.Sprintf("minting certificate id: %v", err)}
	}

	issuedAt := e.now()
	request := renderclient.RenderRequest{
		ImageRef:  template.ImageURL,
		Positions: snapshot,
		Fields: renderclient.RenderFields{
			Name:      recipient.Name,
			Role:      recipient.Role,
			EventName: eventName,
			Date:      issuedAt.Format("2006-01-02"),
		},
	}
	if e.verifyBaseURL != "" {
		request.QRPayload = e.verifyBaseURL + "/" + certificateID
	}

	artifactURL, err := e.renderer.RenderCertificate(ctx, request)
	if err != nil {
		e.logger.Warnf("Row %d (%s): render failed: %v", row, recipient.Email, err)
		return models.Outcome{Row: row, Reason: fmt.Sprintf("render failed: %v", err)}
	}

	// Checked before Issue so the row's own certificate does not count as
	// its duplicate. A probe error only costs the warning flag.
	alreadyIssued, err := e.registry.ExistsByComposite(ctx, recipient.Name, recipient.Email, eventName)
	if err != nil {
		e.logger.Warnf("Row %d: duplicate probe failed: %v", row, err)
		alreadyIssued = false
	}

	cert, err := e.registry.Issue(ctx, models.Certificate{
		CertificateID:  certificateID,
		HackathonID:    template.HackathonID,
		TemplateID:     template.ID,
		RecipientName:  recipient.Name,
		RecipientEmail: recipient.Email,
		Role:           recipient.Role,
		EventName:      eventName,
		CertificateURL: artifactURL,
		IssuedAt:       issuedAt,
	})
	if err != nil {
		e.logger.Errorf("Row %d (%s): issuing failed: %v", row, recipient.Email, err)
		return models.Outcome{Row: row, Reason: fmt.Sprintf("issuing certificate: %v", err)}
	}

	return models.Outcome{Row: row, Certificate: &cert, AlreadyIssued: alreadyIssued}
}
