// Package idhash derives identifiers for requests and sessions.
package idhash

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/jsyzc2019/abquant-data/internal/domain"
)

// ComputeRequestKey computes a deterministic key for a bar selection using SHA256.
// Formula: SHA256(codes joined by ","|start|end|freq)
// Codes are expected sorted and de-duplicated. Returns hex-encoded hash (64 characters).
func ComputeRequestKey(codes []string, start, end string, freq domain.MinFreq) string {
	data := fmt.Sprintf("%s|%s|%s|%s",
		strings.Join(codes, ","),
		start,
		end,
		freq.String(),
	)

	hash := sha256.Sum256([]byte(data))
	return hex.EncodeToString(hash[:])
}

// ComputeContentKey hashes raw file content. Returns hex-encoded SHA256.
func ComputeContentKey(data []byte) string {
	hash := sha256.Sum256(data)
	return hex.EncodeToString(hash[:])
}
