package ingest

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"
)

// contentAddress derives the storage filename for an upload:
// "{timestamp}_{first 16 hex of sha256}{ext}". The hash half is
// deterministic per content; the timestamp half keeps re-uploads of
// identical bytes at different times from colliding on name.
func contentAddress(now time.Time, data []byte, ext string) string {
	sum := sha256.Sum256(data)
	return fmt.Sprintf("%s_%s%s",
		now.Format("20060102_150405"),
		hex.EncodeToString(sum[:])[:16],
		ext,
	)
}
