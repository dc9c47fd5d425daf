package tracker

import (
	"crypto/sha256"
	"encoding/hex"
	"strconv"
	"strings"
)

// CacheKey identifies a normalized request. Requests that differ only in
// source order or ticker formatting share a key.
func CacheKey(req Request) string {
	parts := make([]string, 0, len(req.Sources))
	for _, src := range canonicalSources(req.Sources) {
		parts = append(parts, string(src))
	}

	h := sha256.New()
	h.Write([]byte(strings.ToUpper(req.Ticker)))
	h.Write([]byte{0})
	h.Write([]byte(strings.ToLower(req.CompanyName)))
	h.Write([]byte{0})
	h.Write([]byte(strconv.Itoa(req.Limit)))
	h.Write([]byte{0})
	h.Write([]byte(strconv.Itoa(req.TopicCount)))
	h.Write([]byte{0})
	h.Write([]byte(strings.Join(parts, ",")))

	return req.Ticker + ":" + hex.EncodeToString(h.Sum(nil))[:16]
}
