// Package report renders collaboration snapshots into CSV or JSON artifacts
// and stores them as blobs.
package report

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"collabcore/internal/blob"
	"collabcore/pkg/domain"
)

// Format selects an artifact encoding.
type Format string

const (
	FormatCSV  Format = "csv"
	FormatJSON Format = "json"
)

// Source supplies the collaborations to render. core.Service satisfies it.
type Source interface {
	ListCollaborations(ctx context.Context) ([]domain.Collaboration, error)
}

// Artifact describes a stored report.
type Artifact struct {
	Key         string    `json:"key"`
	Format      Format    `json:"format"`
	ContentType string    `json:"content_type"`
	SizeBytes   int64     `json:"size_bytes"`
	Rows        int       `json:"rows"`
	CreatedAt   time.Time `json:"created_at"`
}

// Exporter renders collaboration reports into a blob store.
type Exporter struct {
	source Source
	store  blob.Store
	nowFn  func() time.Time
}

// NewExporter constructs an exporter over the given source and store.
func NewExporter(source Source, store blob.Store) *Exporter {
	return &Exporter{source: source, store: store, nowFn: time.Now}
}

// WithClock overrides the exporter clock. Intended for tests.
func (e *Exporter) WithClock(fn func() time.Time) *Exporter {
	e.nowFn = fn
	return e
}

var csvHeader = []string{
	"id", "project", "description", "category", "organization_id",
	"project_id", "stage_id", "state", "committed_organization_id",
	"realized_at", "observations",
}

// Export renders all collaborations in the requested format and stores the
// result under reports/collaborations-<timestamp>.<format>.
func (e *Exporter) Export(ctx context.Context, format Format) (Artifact, error) {
	collaborations, err := e.source.ListCollaborations(ctx)
	if err != nil {
		return Artifact{}, fmt.Errorf("collect collaborations: %w", err)
	}

	var payload []byte
	var contentType string
	switch format {
	case FormatJSON:
		payload, err = json.MarshalIndent(collaborations, "", "  ")
		if err != nil {
			return Artifact{}, fmt.Errorf("encode json: %w", err)
		}
		contentType = "application/json"
	case FormatCSV:
		payload, err = renderCSV(collaborations)
		if err != nil {
			return Artifact{}, fmt.Errorf("encode csv: %w", err)
		}
		contentType = "text/csv"
	default:
		return Artifact{}, fmt.Errorf("unsupported report format %q", format)
	}

	now := e.nowFn().UTC()
	key := fmt.Sprintf("reports/collaborations-%s.%s", now.Format("20060102T150405Z"), format)
	info, err := e.store.Put(ctx, key, bytes.NewReader(payload), blob.PutOptions{
		ContentType: contentType,
		Metadata:    map[string]string{"rows": strconv.Itoa(len(collaborations))},
	})
	if err != nil {
		return Artifact{}, fmt.Errorf("store report: %w", err)
	}
	return Artifact{
		Key:         info.Key,
		Format:      format,
		ContentType: contentType,
		SizeBytes:   info.Size,
		Rows:        len(collaborations),
		CreatedAt:   info.LastModified,
	}, nil
}

func renderCSV(collaborations []domain.Collaboration) ([]byte, error) {
	buf := &bytes.Buffer{}
	writer := csv.NewWriter(buf)
	if err := writer.Write(csvHeader); err != nil {
		return nil, err
	}
	for _, c := range collaborations {
		committed := ""
		if c.CommittedOrganizationID != nil {
			committed = *c.CommittedOrganizationID
		}
		realized := ""
		if c.RealizedAt != nil {
			realized = c.RealizedAt.UTC().Format(time.RFC3339)
		}
		row := []string{
			c.ID,
			c.ProjectName,
			c.Description,
			string(c.Category),
			c.OrganizationID,
			c.ProjectID,
			c.StageID,
			string(c.State()),
			committed,
			realized,
			strconv.Itoa(len(c.Observations)),
		}
		if err := writer.Write(row); err != nil {
			return nil, err
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
