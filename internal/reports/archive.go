// Package reports renders repair reports to text and archives them in GCS.
package reports

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"cloud.google.com/go/storage"
	"github.com/google/uuid"

	"github.com/aguilartradesfx/financetracker/internal/reconcile"
)

// RenderText formats one repair report as the archived log document.
func RenderText(report *reconcile.Report) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Repair report\n")
	fmt.Fprintf(&b, "Started:  %s\n", report.StartedAt.Format(time.RFC3339))
	fmt.Fprintf(&b, "Finished: %s\n\n", report.FinishedAt.Format(time.RFC3339))
	for _, line := range report.Render() {
		b.WriteString(line)
		b.WriteByte('\n')
	}
	return b.String()
}

// ObjectName returns the archive path for a report finished at the given
// time, e.g. repairs/2025/03/15/<uuid>.log.
func ObjectName(finishedAt time.Time) string {
	return fmt.Sprintf("repairs/%s/%s.log", finishedAt.Format("2006/01/02"), uuid.New().String())
}

// Archive uploads the rendered report to the bucket and returns the GCS URI.
// It assumes Application Default Credentials are configured.
func Archive(ctx context.Context, bucketName string, report *reconcile.Report) (string, error) {
	if bucketName == "" {
		return "", fmt.Errorf("Archive: no bucket configured")
	}

	client, err := storage.NewClient(ctx)
	if err != nil {
		return "", fmt.Errorf("Archive: creating storage client: %w", err)
	}
	defer client.Close()

	ctx, cancel := context.WithTimeout(ctx, 2*time.Minute)
	defer cancel()

	objectName := ObjectName(report.FinishedAt)
	w := client.Bucket(bucketName).Object(objectName).NewWriter(ctx)
	w.ContentType = "text/plain"

	if _, err := w.Write([]byte(RenderText(report))); err != nil {
		_ = w.Close()
		return "", fmt.Errorf("Archive: writing object: %w", err)
	}
	if err := w.Close(); err != nil {
		return "", fmt.Errorf("Archive: finalizing upload: %w", err)
	}

	return fmt.Sprintf("gs://%s/%s", bucketName, objectName), nil
}

// Fetch downloads an archived report back from its GCS URI.
func Fetch(ctx context.Context, gcsURI string) ([]byte, error) {
	if !strings.HasPrefix(gcsURI, "gs://") {
		return nil, fmt.Errorf("Fetch: invalid GCS URI: %s", gcsURI)
	}

	trimmed := strings.TrimPrefix(gcsURI, "gs://")
	parts := strings.SplitN(trimmed, "/", 2)
	if len(parts) != 2 {
		return nil, fmt.Errorf("Fetch: invalid GCS URI (no object path): %s", gcsURI)
	}

	client, err := storage.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("Fetch: creating storage client: %w", err)
	}
	defer client.Close()

	rc, err := client.Bucket(parts[0]).Object(parts[1]).NewReader(ctx)
	if err != nil {
		return nil, fmt.Errorf("Fetch: reading object %s: %w", gcsURI, err)
	}
	defer rc.Close()

	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, fmt.Errorf("Fetch: reading bytes: %w", err)
	}
	return data, nil
}
