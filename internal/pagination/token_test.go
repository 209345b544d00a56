package pagination

import (
	"encoding/base64"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testSecret = []byte("0123456789abcdef-test")

func TestTokenCodec_RoundTrip(t *testing.T) {
	c, err := NewTokenCodec(testSecret, 0)
	require.NoError(t, err)

	last := int64(1010)
	raw, err := c.Encode(CursorToken{LastID: &last, Limit: 10})
	require.NoError(t, err)
	assert.NotContains(t, raw, "=")

	tok, err := c.Decode(raw, Cursor)
	require.NoError(t, err)
	ct, ok := tok.(CursorToken)
	require.True(t, ok)
	require.NotNil(t, ct.LastID)
	assert.Equal(t, int64(1010), *ct.LastID)
	assert.Equal(t, 10, ct.Limit)

	at := time.Date(2024, 5, 1, 12, 30, 0, 123456000, time.UTC)
	raw, err = c.Encode(TimeToken{From: at.Add(-time.Hour), To: at, Limit: 5, Status: "COMPLETED", After: &Marker{At: at, ID: 9}})
	require.NoError(t, err)
	tok, err = c.Decode(raw, Time)
	require.NoError(t, err)
	tt := tok.(TimeToken)
	assert.True(t, tt.After.At.Equal(at))
	assert.Equal(t, "COMPLETED", tt.Status)
}

func TestTokenCodec_Rejects(t *testing.T) {
	c, err := NewTokenCodec(testSecret, 0)
	require.NoError(t, err)
	valid, err := c.Encode(OffsetToken{Page: 2, Size: 10})
	require.NoError(t, err)
	buf, err := base64.RawURLEncoding.DecodeString(valid)
	require.NoError(t, err)

	tampered := append([]byte(nil), buf...)
	tampered[len(tampered)-2] ^= 0x01
	wrongVersion := append([]byte(nil), buf...)
	wrongVersion[0] = 9

	other, err := NewTokenCodec([]byte("another-secret-of-16+"), 0)
	require.NoError(t, err)
	foreign, err := other.Encode(OffsetToken{Page: 2, Size: 10})
	require.NoError(t, err)

	tests := []struct {
		name    string
		raw     string
		want    StrategyName
		message string
	}{
		{"not base64", "%%%", Offset, "malformed"},
		{"too short", base64.RawURLEncoding.EncodeToString([]byte{1, 2, 3}), Offset, "malformed"},
		{"tampered payload", base64.RawURLEncoding.EncodeToString(tampered), Offset, "signature mismatch"},
		{"unknown version", base64.RawURLEncoding.EncodeToString(wrongVersion), Offset, "unsupported version"},
		{"signed with another secret", foreign, Offset, "signature mismatch"},
		{"reused for cursor", valid, Cursor, "issued for offset pagination"},
		{"reused for time", valid, Time, "issued for offset pagination"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := c.Decode(tt.raw, tt.want)
			require.ErrorIs(t, err, ErrInvalidToken)
			fields := FieldErrors(err)
			require.Len(t, fields, 1)
			assert.Equal(t, "token", fields[0].Field)
			assert.Contains(t, fields[0].Message, tt.message)
		})
	}
}

func TestTokenCodec_Expiry(t *testing.T) {
	c, err := NewTokenCodec(testSecret, time.Minute)
	require.NoError(t, err)
	issued := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return issued }

	raw, err := c.Encode(CursorToken{Limit: 5})
	require.NoError(t, err)

	c.now = func() time.Time { return issued.Add(30 * time.Second) }
	_, err = c.Decode(raw, Cursor)
	assert.NoError(t, err)

	c.now = func() time.Time { return issued.Add(2 * time.Minute) }
	_, err = c.Decode(raw, Cursor)
	require.ErrorIs(t, err, ErrInvalidToken)
	assert.Contains(t, err.Error(), "expired")
}

func TestNewTokenCodec_ShortSecret(t *testing.T) {
	_, err := NewTokenCodec([]byte("short"), 0)
	assert.Error(t, err)
}
