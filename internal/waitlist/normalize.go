package waitlist

import (
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/foxzi/backoffice/internal/models"
)

// normalize maps a raw document onto a WaitlistUser. The display name comes
// from "name" and falls back to "fullName"; metadata defaults to empty.
func normalize(doc Document, now time.Time) models.WaitlistUser {
	f := doc.Fields

	name := stringField(f, "name")
	if name == "" {
		name = stringField(f, "fullName")
	}

	return models.WaitlistUser{
		ID:        doc.ID,
		Email:     stringField(f, "email"),
		Name:      name,
		CreatedAt: normalizeTime(f["createdAt"], now),
		Metadata:  mapField(f["metadata"]),
	}
}

type timeConverter interface {
	Time() time.Time
}

// normalizeTime accepts a native time, a typed BSON datetime or timestamp,
// anything exposing Time(), an RFC 3339 string or unix milliseconds.
// Anything else yields now.
func normalizeTime(v any, now time.Time) time.Time {
	switch t := v.(type) {
	case time.Time:
		return t
	case primitive.DateTime:
		return t.Time()
	case primitive.Timestamp:
		return time.Unix(int64(t.T), 0)
	case timeConverter:
		return t.Time()
	case string:
		for _, layout := range []string{time.RFC3339Nano, time.RFC3339, "2006-01-02"} {
			if parsed, err := time.Parse(layout, strings.TrimSpace(t)); err == nil {
				return parsed
			}
		}
	case int64:
		return time.UnixMilli(t)
	case int32:
		return time.UnixMilli(int64(t))
	case int:
		return time.UnixMilli(int64(t))
	case float64:
		return time.UnixMilli(int64(t))
	}
	return now
}

func stringField(f map[string]any, key string) string {
	s, _ := f[key].(string)
	return s
}

func mapField(v any) map[string]any {
	switch m := v.(type) {
	case primitive.M:
		return map[string]any(m)
	case map[string]any:
		return m
	case primitive.D:
		out := make(map[string]any, len(m))
		for _, e := range m {
			out[e.Key] = e.Value
		}
		return out
	}
	return map[string]any{}
}

func matches(u models.WaitlistUser, lowered string) bool {
	return strings.Contains(strings.ToLower(u.Email), lowered) ||
		strings.Contains(strings.ToLower(u.Name), lowered)
}
