package accesskey

import (
	"crypto/sha256"
	"encoding/hex"
	"log/slog"
	"strconv"
)

const maxDigestLength = sha256.Size * 2

// HashID returns the hex SHA-256 digest of prefix+id+suffix, cut to length characters.
// Hex digests never contain a character the sanitizer rejects.
func HashID(id string, length int, saltPrefix string, saltSuffix string) string {
	sum := sha256.Sum256([]byte(saltPrefix + id + saltSuffix))
	digest := hex.EncodeToString(sum[:])
	if length > 0 && length < maxDigestLength {
		return digest[:length]
	}
	return digest
}

type Generator struct {
	SaltPrefix string
	Length     int
	// MaxRetries is how many salt suffixes (1, 2, ...) are tried after a collision.
	MaxRetries int
}

// GeneratedKey links a derived access key to the participant it was derived from.
type GeneratedKey struct {
	AccessKey     string
	ParticipantID string
}

// Generate derives one key per participant ID, in input order. Empty IDs are skipped.
// IDs whose key still collides after all retries are returned in failed.
func (g Generator) Generate(ids []string) (keys []GeneratedKey, failed []string) {
	used := map[string]string{}
	for _, id := range ids {
		if id == "" {
			continue
		}
		key := HashID(id, g.Length, g.SaltPrefix, "")
		for retry := 1; used[key] != "" && retry <= g.MaxRetries; retry++ {
			slog.Warn("access key collision",
				slog.String("participantID", id),
				slog.String("collidesWith", used[key]),
				slog.Int("retry", retry),
			)
			key = HashID(id, g.Length, g.SaltPrefix, strconv.Itoa(retry))
		}
		if used[key] != "" {
			slog.Error("could not derive a unique access key", slog.String("participantID", id), slog.Int("retries", g.MaxRetries))
			failed = append(failed, id)
			continue
		}
		used[key] = id
		keys = append(keys, GeneratedKey{AccessKey: key, ParticipantID: id})
	}
	return keys, failed
}
