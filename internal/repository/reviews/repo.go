// Package reviews persists classified review records for analytics.
// Records are append-only and keyed by entity name, so downstream
// consumers can scan everything known about one professor or course.
package reviews

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/profscope/profscope/internal/domain"
)

// store is the consumer interface for review persistence (ISP).
type store interface {
	HSet(ctx context.Context, key string, fields map[string]string) error
	Scan(ctx context.Context, pattern string) ([]string, error)
	HGetAll(ctx context.Context, key string) (map[string]string, error)
}

// Repo stores review records as Redis hashes.
type Repo struct {
	store  store
	prefix string
}

// New creates a review repository.
func New(s store, keyPrefix string) *Repo {
	return &Repo{store: s, prefix: keyPrefix}
}

// Append persists the given records. Each record gets its own key; the
// operation stops at the first write failure.
func (r *Repo) Append(ctx context.Context, records []domain.ReviewRecord) error {
	for i := range records {
		rec := &records[i]
		key := r.prefix + "review:" + entitySlug(rec.EntityName) + ":" + uuid.NewString()
		if err := r.store.HSet(ctx, key, buildHashFields(rec)); err != nil {
			return fmt.Errorf("append review for %s: %w", rec.EntityName, err)
		}
	}
	return nil
}

// ListByEntity returns every record stored for the given entity name.
// Order is unspecified.
func (r *Repo) ListByEntity(ctx context.Context, entityName string) ([]domain.ReviewRecord, error) {
	pattern := r.prefix + "review:" + entitySlug(entityName) + ":*"
	keys, err := r.store.Scan(ctx, pattern)
	if err != nil {
		return nil, fmt.Errorf("scan reviews for %s: %w", entityName, err)
	}

	records := make([]domain.ReviewRecord, 0, len(keys))
	for _, key := range keys {
		fields, err := r.store.HGetAll(ctx, key)
		if err != nil {
			return nil, fmt.Errorf("read review %s: %w", key, err)
		}
		records = append(records, recordFromFields(fields))
	}
	return records, nil
}

func buildHashFields(rec *domain.ReviewRecord) map[string]string {
	return map[string]string{
		"entity":      rec.EntityName,
		"comment":     rec.Comment,
		"sentiment":   string(rec.Sentiment),
		"captured_at": rec.CapturedAt.UTC().Format(time.RFC3339),
		"source_url":  rec.SourceURL,
	}
}

func recordFromFields(fields map[string]string) domain.ReviewRecord {
	capturedAt, _ := time.Parse(time.RFC3339, fields["captured_at"])
	return domain.ReviewRecord{
		EntityName: fields["entity"],
		Comment:    fields["comment"],
		Sentiment:  domain.ParseSentiment(fields["sentiment"]),
		CapturedAt: capturedAt,
		SourceURL:  fields["source_url"],
	}
}

// entitySlug normalizes an entity name into a key-safe segment.
func entitySlug(name string) string {
	s := strings.ToLower(strings.TrimSpace(name))
	if s == "" {
		return "unknown"
	}
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
		default:
			b.WriteByte('-')
		}
	}
	return strings.Trim(b.String(), "-")
}
