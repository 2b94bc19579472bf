// Package sigv4 implements the AWS Signature Version 4 request-signing
// algorithm used by the bedrock provider. It is a pure transformation of
// (credentials, time, region, service, request) into signed headers; it
// holds no state and performs no I/O, so it is testable without a network.
package sigv4

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"
)

const (
	algorithm       = "AWS4-HMAC-SHA256"
	terminationWord = "aws4_request"

	amzDateFormat   = "20060102T150405Z"
	dateStampFormat = "20060102"
)

// Credentials are the static AWS credentials used for signing. SessionToken
// is optional and only set for temporary credentials.
type Credentials struct {
	AccessKeyID     string
	SecretAccessKey string
	SessionToken    string
}

// Sign computes the SigV4 signature for the request with the given payload
// and sets the X-Amz-Date, X-Amz-Content-Sha256, optional
// X-Amz-Security-Token, and Authorization headers in place.
func Sign(req *http.Request, payload []byte, creds Credentials, region, service string, now time.Time) {
	now = now.UTC()
	amzDate := now.Format(amzDateFormat)
	dateStamp := now.Format(dateStampFormat)

	payloadHash := hashHex(payload)
	req.Header.Set("X-Amz-Date", amzDate)
	req.Header.Set("X-Amz-Content-Sha256", payloadHash)
	if creds.SessionToken != "" {
		req.Header.Set("X-Amz-Security-Token", creds.SessionToken)
	}

	canonical, signedHeaders := canonicalRequest(req, payloadHash)
	scope := strings.Join([]string{dateStamp, region, service, terminationWord}, "/")
	toSign := stringToSign(amzDate, scope, canonical)

	key := deriveSigningKey(creds.SecretAccessKey, dateStamp, region, service)
	signature := hex.EncodeToString(hmacSHA256(key, toSign))

	req.Header.Set("Authorization", algorithm+
		" Credential="+creds.AccessKeyID+"/"+scope+
		", SignedHeaders="+signedHeaders+
		", Signature="+signature)
}

// canonicalRequest builds the canonical form of the request: method, encoded
// path, sorted query, sorted lowercase headers, signed-header list, and the
// payload hash. It returns the canonical request and the signed-header list.
func canonicalRequest(req *http.Request, payloadHash string) (string, string) {
	canonicalURI := req.URL.EscapedPath()
	if canonicalURI == "" {
		canonicalURI = "/"
	}

	headers := canonicalHeaders(req)
	names := make([]string, 0, len(headers))
	for name := range headers {
		names = append(names, name)
	}
	sort.Strings(names)

	var headerLines strings.Builder
	for _, name := range names {
		headerLines.WriteString(name)
		headerLines.WriteByte(':')
		headerLines.WriteString(headers[name])
		headerLines.WriteByte('\n')
	}
	signedHeaders := strings.Join(names, ";")

	canonical := strings.Join([]string{
		req.Method,
		canonicalURI,
		canonicalQuery(req.URL),
		headerLines.String(),
		signedHeaders,
		payloadHash,
	}, "\n")
	return canonical, signedHeaders
}

// canonicalHeaders returns the lowercase header map to sign: every header
// present on the request plus host, with values trimmed and internal runs of
// spaces collapsed.
func canonicalHeaders(req *http.Request) map[string]string {
	out := map[string]string{
		"host": req.Host,
	}
	if out["host"] == "" {
		out["host"] = req.URL.Host
	}
	for name, values := range req.Header {
		out[strings.ToLower(name)] = normalizeHeaderValue(strings.Join(values, ","))
	}
	return out
}

func normalizeHeaderValue(value string) string {
	return strings.Join(strings.Fields(strings.TrimSpace(value)), " ")
}

// canonicalQuery sorts query parameters by name then value and re-encodes
// them with strict RFC 3986 percent-encoding.
func canonicalQuery(u *url.URL) string {
	values := u.Query()
	keys := make([]string, 0, len(values))
	for key := range values {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	var parts []string
	for _, key := range keys {
		vals := values[key]
		sort.Strings(vals)
		for _, val := range vals {
			parts = append(parts, uriEncode(key)+"="+uriEncode(val))
		}
	}
	return strings.Join(parts, "&")
}

// uriEncode percent-encodes everything except RFC 3986 unreserved
// characters. Spaces become %20, never '+'.
func uriEncode(s string) string {
	const hexDigits = "0123456789ABCDEF"
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		c := s[i]
		if (c >= 'A' && c <= 'Z') || (c >= 'a' && c <= 'z') || (c >= '0' && c <= '9') ||
			c == '-' || c == '.' || c == '_' || c == '~' {
			b.WriteByte(c)
			continue
		}
		b.WriteByte('%')
		b.WriteByte(hexDigits[c>>4])
		b.WriteByte(hexDigits[c&0xF])
	}
	return b.String()
}

// stringToSign combines the algorithm tag, timestamp, credential scope, and
// the hash of the canonical request.
func stringToSign(amzDate, scope, canonical string) string {
	return strings.Join([]string{
		algorithm,
		amzDate,
		scope,
		hashHex([]byte(canonical)),
	}, "\n")
}

// deriveSigningKey chains HMAC-SHA256 over the secret, date, region, and
// service per the SigV4 key-derivation schedule.
func deriveSigningKey(secret, dateStamp, region, service string) []byte {
	key := hmacSHA256([]byte("AWS4"+secret), dateStamp)
	key = hmacSHA256(key, region)
	key = hmacSHA256(key, service)
	return hmacSHA256(key, terminationWord)
}

func hmacSHA256(key []byte, data string) []byte {
	mac := hmac.New(sha256.New, key)
	mac.Write([]byte(data))
	return mac.Sum(nil)
}

func hashHex(data []byte) string {
	digest := sha256.Sum256(data)
	return hex.EncodeToString(digest[:])
}
