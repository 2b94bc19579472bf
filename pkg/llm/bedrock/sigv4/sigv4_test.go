package sigv4

import (
	"crypto/sha256"
	"encoding/hex"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// The AWS developer guide publishes a worked signing example (GET ListUsers
// against IAM, 2015-08-30) with every intermediate value. These tests check
// the canonicalization, key derivation, and final signature against it.

const (
	exampleSecret    = "wJalrXUtnFEMI/K7MDENG+bPxRfiCYEXAMPLEKEY"
	exampleAccessKey = "AKIDEXAMPLE"
	exampleRegion    = "us-east-1"
	exampleService   = "iam"
)

func exampleRequest(t *testing.T) *http.Request {
	t.Helper()
	req, err := http.NewRequest(http.MethodGet, "https://iam.amazonaws.com/?Action=ListUsers&Version=2010-05-08", nil)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded; charset=utf-8")
	req.Header.Set("X-Amz-Date", "20150830T123600Z")
	return req
}

func TestCanonicalRequestMatchesAWSExample(t *testing.T) {
	req := exampleRequest(t)
	emptyHash := hashHex(nil)

	canonical, signedHeaders := canonicalRequest(req, emptyHash)

	expected := strings.Join([]string{
		"GET",
		"/",
		"Action=ListUsers&Version=2010-05-08",
		"content-type:application/x-www-form-urlencoded; charset=utf-8",
		"host:iam.amazonaws.com",
		"x-amz-date:20150830T123600Z",
		"",
		"content-type;host;x-amz-date",
		emptyHash,
	}, "\n")
	assert.Equal(t, expected, canonical)
	assert.Equal(t, "content-type;host;x-amz-date", signedHeaders)

	digest := sha256.Sum256([]byte(canonical))
	assert.Equal(t,
		"f536975d06c0309214f805bb90ccff089219ecd68b2577efef23edd43b7e1a59",
		hex.EncodeToString(digest[:]))
}

func TestStringToSignMatchesAWSExample(t *testing.T) {
	req := exampleRequest(t)
	canonical, _ := canonicalRequest(req, hashHex(nil))

	got := stringToSign("20150830T123600Z", "20150830/us-east-1/iam/aws4_request", canonical)

	expected := strings.Join([]string{
		"AWS4-HMAC-SHA256",
		"20150830T123600Z",
		"20150830/us-east-1/iam/aws4_request",
		"f536975d06c0309214f805bb90ccff089219ecd68b2577efef23edd43b7e1a59",
	}, "\n")
	assert.Equal(t, expected, got)
}

func TestDeriveSigningKeyMatchesAWSExample(t *testing.T) {
	// Key-derivation vector from the AWS documentation (2012-02-15).
	key := deriveSigningKey(exampleSecret, "20120215", exampleRegion, exampleService)
	assert.Equal(t,
		"f4780e2d9f65fa895f9c67b32ce1baf0b0d8a43505a000a1a9e090d414db404d",
		hex.EncodeToString(key))
}

func TestSignatureMatchesAWSExample(t *testing.T) {
	req := exampleRequest(t)
	canonical, _ := canonicalRequest(req, hashHex(nil))
	toSign := stringToSign("20150830T123600Z", "20150830/us-east-1/iam/aws4_request", canonical)

	key := deriveSigningKey(exampleSecret, "20150830", exampleRegion, exampleService)
	signature := hex.EncodeToString(hmacSHA256(key, toSign))

	assert.Equal(t,
		"5d672d79c15b13162d9279b0855cfba6789a8edb4c82c400e06b5924a6f2b5d7",
		signature)
}

func TestSignSetsHeaders(t *testing.T) {
	payload := []byte(`{"messages":[]}`)
	req, err := http.NewRequest(http.MethodPost,
		"https://bedrock-runtime.us-east-1.amazonaws.com/model/anthropic.claude-3-5-sonnet-20241022-v2%3A0/invoke",
		nil)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")

	creds := Credentials{AccessKeyID: exampleAccessKey, SecretAccessKey: exampleSecret}
	now := time.Date(2025, 3, 14, 9, 26, 53, 0, time.UTC)
	Sign(req, payload, creds, "us-east-1", "bedrock", now)

	assert.Equal(t, "20250314T092653Z", req.Header.Get("X-Amz-Date"))
	assert.Equal(t, hashHex(payload), req.Header.Get("X-Amz-Content-Sha256"))
	assert.Empty(t, req.Header.Get("X-Amz-Security-Token"))

	auth := req.Header.Get("Authorization")
	assert.True(t, strings.HasPrefix(auth,
		"AWS4-HMAC-SHA256 Credential=AKIDEXAMPLE/20250314/us-east-1/bedrock/aws4_request, SignedHeaders="), auth)
	assert.Contains(t, auth, ", Signature=")
}

func TestSignIsDeterministic(t *testing.T) {
	creds := Credentials{AccessKeyID: exampleAccessKey, SecretAccessKey: exampleSecret}
	now := time.Date(2025, 3, 14, 9, 26, 53, 0, time.UTC)

	sign := func(payload []byte) string {
		req, err := http.NewRequest(http.MethodPost, "https://bedrock-runtime.us-east-1.amazonaws.com/model/m/invoke", nil)
		require.NoError(t, err)
		req.Header.Set("Content-Type", "application/json")
		Sign(req, payload, creds, "us-east-1", "bedrock", now)
		return req.Header.Get("Authorization")
	}

	first := sign([]byte("payload-a"))
	second := sign([]byte("payload-a"))
	different := sign([]byte("payload-b"))

	assert.Equal(t, first, second)
	assert.NotEqual(t, first, different)
}

func TestSignIncludesSessionToken(t *testing.T) {
	req, err := http.NewRequest(http.MethodPost, "https://bedrock-runtime.us-east-1.amazonaws.com/model/m/invoke", nil)
	require.NoError(t, err)

	creds := Credentials{AccessKeyID: exampleAccessKey, SecretAccessKey: exampleSecret, SessionToken: "token-123"}
	Sign(req, nil, creds, "us-east-1", "bedrock", time.Now())

	assert.Equal(t, "token-123", req.Header.Get("X-Amz-Security-Token"))
	assert.Contains(t, req.Header.Get("Authorization"), "x-amz-security-token")
}

func TestURIEncode(t *testing.T) {
	assert.Equal(t, "a-b.c_d~e", uriEncode("a-b.c_d~e"))
	assert.Equal(t, "%20", uriEncode(" "))
	assert.Equal(t, "%3A", uriEncode(":"))
	assert.Equal(t, "%2F", uriEncode("/"))
}
