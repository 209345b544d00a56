package pagination

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

const (
	tokenVersion  byte = 1
	macSize            = sha256.Size
	minSecretSize      = 16
)

// envelope is the signed JSON payload of a token.
type envelope struct {
	Strategy StrategyName    `json:"s"`
	IssuedAt int64           `json:"iat"`
	State    json.RawMessage `json:"d"`
}

// TokenCodec turns page tokens into URL-safe strings and back.
// Layout: base64url(version | HMAC-SHA256(version | payload) | payload).
type TokenCodec struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewTokenCodec returns a codec signing with secret. A positive ttl makes
// older tokens invalid.
func NewTokenCodec(secret []byte, ttl time.Duration) (*TokenCodec, error) {
	if len(secret) < minSecretSize {
		return nil, fmt.Errorf("token secret must be at least %d bytes", minSecretSize)
	}
	return &TokenCodec{secret: secret, ttl: ttl, now: time.Now}, nil
}

func (c *TokenCodec) sign(body []byte) []byte {
	mac := hmac.New(sha256.New, c.secret)
	mac.Write(body)
	return mac.Sum(nil)
}

// Encode signs tok.
func (c *TokenCodec) Encode(tok PageToken) (string, error) {
	state, err := json.Marshal(tok)
	if err != nil {
		return "", fmt.Errorf("marshal %s token: %w", tok.Strategy(), err)
	}
	payload, err := json.Marshal(envelope{Strategy: tok.Strategy(), IssuedAt: c.now().Unix(), State: state})
	if err != nil {
		return "", fmt.Errorf("marshal token envelope: %w", err)
	}

	buf := make([]byte, 0, 1+macSize+len(payload))
	buf = append(buf, tokenVersion)
	buf = append(buf, c.sign(append([]byte{tokenVersion}, payload...))...)
	buf = append(buf, payload...)
	return base64.RawURLEncoding.EncodeToString(buf), nil
}

// Decode verifies raw and returns its state. Every failure, including a token
// issued by another strategy, wraps ErrInvalidToken.
func (c *TokenCodec) Decode(raw string, want StrategyName) (PageToken, error) {
	buf, err := base64.RawURLEncoding.DecodeString(raw)
	if err != nil || len(buf) < 1+macSize {
		return nil, invalidToken("token", "malformed")
	}
	if buf[0] != tokenVersion {
		return nil, invalidToken("token", "unsupported version %d", buf[0])
	}
	mac, payload := buf[1:1+macSize], buf[1+macSize:]
	if !hmac.Equal(mac, c.sign(append([]byte{buf[0]}, payload...))) {
		return nil, invalidToken("token", "signature mismatch")
	}

	var env envelope
	if err := json.Unmarshal(payload, &env); err != nil {
		return nil, invalidToken("token", "malformed payload")
	}
	if env.Strategy != want {
		return nil, invalidToken("token", "issued for %s pagination, not %s", env.Strategy, want)
	}
	if c.ttl > 0 && c.now().Sub(time.Unix(env.IssuedAt, 0)) > c.ttl {
		return nil, invalidToken("token", "expired")
	}

	var tok PageToken
	switch want {
	case Offset:
		var t OffsetToken
		err = json.Unmarshal(env.State, &t)
		tok = t
	case Cursor:
		var t CursorToken
		err = json.Unmarshal(env.State, &t)
		tok = t
	case Time:
		var t TimeToken
		err = json.Unmarshal(env.State, &t)
		tok = t
	default:
		err = errors.New("no token state for strategy")
	}
	if err != nil {
		return nil, invalidToken("token", "malformed %s state", want)
	}
	return tok, nil
}
