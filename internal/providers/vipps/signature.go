package vipps

import (
	"crypto/hmac"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

var ErrBadWebhookSignature = errors.New("vipps webhook signature invalid")

// VerifyWebhookSignature checks the HMAC scheme of the Vipps webhooks API:
// x-ms-content-sha256 must be the base64 SHA-256 of the body, and the
// Authorization header carries an HMAC-SHA256 over
// "POST\n<path>\n<x-ms-date>;<host>;<content-hash>" keyed with the webhook
// secret.
func VerifyWebhookSignature(secret string, req *http.Request, body []byte) error {
	contentHash := req.Header.Get("x-ms-content-sha256")
	date := req.Header.Get("x-ms-date")
	auth := req.Header.Get("Authorization")
	if contentHash == "" || date == "" || auth == "" {
		return fmt.Errorf("%w: missing signature headers", ErrBadWebhookSignature)
	}

	sum := sha256.Sum256(body)
	expectedHash := base64.StdEncoding.EncodeToString(sum[:])
	if subtle.ConstantTimeCompare([]byte(contentHash), []byte(expectedHash)) != 1 {
		return fmt.Errorf("%w: content hash mismatch", ErrBadWebhookSignature)
	}

	signature := extractSignature(auth)
	if signature == "" {
		return fmt.Errorf("%w: malformed authorization header", ErrBadWebhookSignature)
	}

	stringToSign := fmt.Sprintf("POST\n%s\n%s;%s;%s", req.URL.RequestURI(), date, req.Host, contentHash)
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(stringToSign))
	expectedSig := base64.StdEncoding.EncodeToString(mac.Sum(nil))

	if subtle.ConstantTimeCompare([]byte(signature), []byte(expectedSig)) != 1 {
		return fmt.Errorf("%w: signature mismatch", ErrBadWebhookSignature)
	}
	return nil
}

// extractSignature pulls the Signature= component out of
// "HMAC-SHA256 SignedHeaders=...&Signature=<b64>".
func extractSignature(auth string) string {
	for _, part := range strings.Split(auth, "&") {
		if strings.HasPrefix(part, "Signature=") {
			return strings.TrimPrefix(part, "Signature=")
		}
	}
	return ""
}
