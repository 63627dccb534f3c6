package payments

import (
	"crypto/md5"
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func samplePayload() map[string]string {
	return map[string]string{
		"merchant_id":  "10000100",
		"merchant_key": "46f0cd694581a",
		"amount":       "499.00",
		"item_name":    "Professional subscription for Karoo Bakery",
		"return_url":   "https://example.co.za/api/v1/payments/success/7",
		"custom_str1":  "7",
		"custom_str2":  "professional",
	}
}

func TestSign_Roundtrip(t *testing.T) {
	t.Parallel()

	for _, passphrase := range []string{"", "jt7NOE43FZPn"} {
		params := samplePayload()
		params["signature"] = Sign(params, passphrase)
		assert.True(t, Verify(params, passphrase), "passphrase=%q", passphrase)
	}
}

func TestSign_PermutationInvariance(t *testing.T) {
	t.Parallel()

	// Maps iterate in random order per run; build the same logical payload
	// through different insertion orders and compare digests.
	a := map[string]string{}
	for k, v := range samplePayload() {
		a[k] = v
	}

	b := map[string]string{}
	b["custom_str2"] = "professional"
	b["amount"] = "499.00"
	b["merchant_key"] = "46f0cd694581a"
	b["return_url"] = "https://example.co.za/api/v1/payments/success/7"
	b["item_name"] = "Professional subscription for Karoo Bakery"
	b["custom_str1"] = "7"
	b["merchant_id"] = "10000100"

	assert.Equal(t, Sign(a, "secret"), Sign(b, "secret"))
}

func TestSign_EmptyValuesExcluded(t *testing.T) {
	t.Parallel()

	params := samplePayload()
	sig := Sign(params, "secret")

	params["email_address"] = ""
	assert.Equal(t, sig, Sign(params, "secret"), "empty value must not enter the digest")

	params["email_address"] = "owner@example.co.za"
	assert.NotEqual(t, sig, Sign(params, "secret"))
}

func TestSign_PassphraseParticipates(t *testing.T) {
	t.Parallel()

	params := samplePayload()
	assert.NotEqual(t, Sign(params, ""), Sign(params, "secret"))
	assert.NotEqual(t, Sign(params, "secret"), Sign(params, "Secret"))
}

func TestSign_KnownDigest(t *testing.T) {
	t.Parallel()

	// Spaces form-encode as '+', keys sort ascending.
	params := map[string]string{
		"item_name":   "Karoo Bakery boost",
		"amount":      "99.00",
		"merchant_id": "10000100",
	}
	base := "amount=99.00&item_name=Karoo+Bakery+boost&merchant_id=10000100"
	sum := md5.Sum([]byte(base))

	assert.Equal(t, hex.EncodeToString(sum[:]), Sign(params, ""))
}

func TestVerify_TamperSensitivity(t *testing.T) {
	t.Parallel()

	signed := func() map[string]string {
		params := samplePayload()
		params["signature"] = Sign(params, "secret")
		return params
	}

	tests := []struct {
		name   string
		mutate func(map[string]string)
	}{
		{"amount boundary", func(p map[string]string) { p["amount"] = "499.01" }},
		{"item name", func(p map[string]string) { p["item_name"] = "professional subscription for Karoo Bakery" }},
		{"signature itself", func(p map[string]string) {
			sig := []byte(p["signature"])
			if sig[0] == 'a' {
				sig[0] = 'b'
			} else {
				sig[0] = 'a'
			}
			p["signature"] = string(sig)
		}},
		{"added field", func(p map[string]string) { p["custom_str3"] = "x" }},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			params := signed()
			require.True(t, Verify(params, "secret"), "precondition: untampered payload verifies")
			tc.mutate(params)
			assert.False(t, Verify(params, "secret"))
		})
	}
}

func TestVerify_MissingSignature(t *testing.T) {
	t.Parallel()

	assert.False(t, Verify(samplePayload(), "secret"))

	params := samplePayload()
	params["signature"] = ""
	assert.False(t, Verify(params, "secret"))
}

func TestVerify_DoesNotMutateInput(t *testing.T) {
	t.Parallel()

	params := samplePayload()
	params["signature"] = Sign(params, "")
	require.True(t, Verify(params, ""))

	_, ok := params["signature"]
	assert.True(t, ok, "verification must not strip the signature from the caller's map")
}
