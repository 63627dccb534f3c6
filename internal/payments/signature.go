package payments

import (
	"crypto/md5"
	"crypto/subtle"
	"encoding/hex"
	"net/url"
	"sort"
	"strings"
)

// Sign computes the gateway signature over a flat parameter map.
//
// Fields with empty values are excluded. Keys are sorted ascending byte-wise,
// values are form-encoded (space becomes '+'), pairs are joined with '&'.
// A non-empty passphrase is appended after the sorted fields; it participates
// in the digest but is never a payload field. The result is the lowercase hex
// MD5 of that string. MD5 is the gateway's mandated scheme; do not reuse this
// for anything internal.
func Sign(params map[string]string, passphrase string) string {
	keys := make([]string, 0, len(params))
	for k, v := range params {
		if v != "" {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)

	var b strings.Builder
	for i, k := range keys {
		if i > 0 {
			b.WriteByte('&')
		}
		b.WriteString(k)
		b.WriteByte('=')
		b.WriteString(url.QueryEscape(params[k]))
	}

	if passphrase != "" {
		if b.Len() > 0 {
			b.WriteByte('&')
		}
		b.WriteString("passphrase=")
		b.WriteString(url.QueryEscape(passphrase))
	}

	sum := md5.Sum([]byte(b.String()))
	return hex.EncodeToString(sum[:])
}

// Verify checks the signature field of a received parameter map. The map is
// not mutated. Comparison is constant-time.
func Verify(received map[string]string, passphrase string) bool {
	signature, ok := received["signature"]
	if !ok || signature == "" {
		return false
	}

	fields := make(map[string]string, len(received))
	for k, v := range received {
		if k == "signature" {
			continue
		}
		fields[k] = v
	}

	expected := Sign(fields, passphrase)
	if len(expected) != len(signature) {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(expected), []byte(signature)) == 1
}
