package security

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

// OAuthStateClaims binds a Fyle OAuth round trip to the Slack user who started it.
type OAuthStateClaims struct {
	SlackUserID string `json:"user_id"`
	SlackTeamID string `json:"team_id"`
	ExpiresAt   int64  `json:"exp"`
}

func GenerateOAuthState(slackUserID, slackTeamID string, ttl time.Duration, secret string) (string, error) {
	if secret == "" {
		return "", errors.New("secret is required for state generation")
	}
	claims := OAuthStateClaims{
		SlackUserID: slackUserID,
		SlackTeamID: slackTeamID,
		ExpiresAt:   time.Now().Add(ttl).Unix(),
	}
	payload, err := json.Marshal(claims)
	if err != nil {
		return "", err
	}
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(payload)
	sig := mac.Sum(nil)
	return fmt.Sprintf("%s.%s", base64.RawURLEncoding.EncodeToString(payload), base64.RawURLEncoding.EncodeToString(sig)), nil
}

func VerifyOAuthState(state, secret string) (*OAuthStateClaims, error) {
	if secret == "" {
		return nil, errors.New("secret is required for state verification")
	}
	parts := strings.SplitN(state, ".", 2)
	if len(parts) != 2 {
		return nil, errors.New("invalid state format")
	}
	payloadBytes, err := base64.RawURLEncoding.DecodeString(parts[0])
	if err != nil {
		return nil, errors.New("invalid payload encoding")
	}
	sigBytes, err := base64.RawURLEncoding.DecodeString(parts[1])
	if err != nil {
		return nil, errors.New("invalid signature encoding")
	}
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(payloadBytes)
	if !hmac.Equal(sigBytes, mac.Sum(nil)) {
		return nil, errors.New("invalid state signature")
	}
	var claims OAuthStateClaims
	if err := json.Unmarshal(payloadBytes, &claims); err != nil {
		return nil, errors.New("invalid payload")
	}
	if time.Now().Unix() > claims.ExpiresAt {
		return nil, errors.New("state expired")
	}
	return &claims, nil
}
