package bedrock

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/webpilot-ai/webpilot/pkg/llm"
	"github.com/webpilot-ai/webpilot/pkg/llm/bedrock/sigv4"
	"github.com/webpilot-ai/webpilot/pkg/types"
)

var testCreds = sigv4.Credentials{
	AccessKeyID:     "AKIDEXAMPLE",
	SecretAccessKey: "wJalrXUtnFEMI/K7MDENG+bPxRfiCYEXAMPLEKEY",
}

func TestNewProviderValidation(t *testing.T) {
	_, err := NewProvider(sigv4.Credentials{}, "us-east-1")
	assert.Error(t, err)

	_, err = NewProvider(testCreds, "")
	assert.Error(t, err)

	p, err := NewProvider(testCreds, "us-east-1")
	require.NoError(t, err)
	assert.Equal(t, "bedrock", p.Name())
	assert.Contains(t, p.endpoint, "bedrock-runtime.us-east-1")
}

func TestSendSignsAndExtractsText(t *testing.T) {
	var captured invokeRequest
	var authHeader, dateHeader string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Contains(t, r.URL.Path, "/model/")
		assert.True(t, strings.HasSuffix(r.URL.Path, "/invoke"))
		authHeader = r.Header.Get("Authorization")
		dateHeader = r.Header.Get("X-Amz-Date")

		body, _ := io.ReadAll(r.Body)
		require.NoError(t, json.Unmarshal(body, &captured))

		io.WriteString(w, `{"content":[{"type":"text","text":"{\"action\":"},{"type":"text","text":"{\"type\":\"wait\"}}"}]}`)
	}))
	defer server.Close()

	fixed := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	provider, err := NewProvider(testCreds, "us-east-1",
		WithEndpoint(server.URL),
		WithClock(func() time.Time { return fixed }),
	)
	require.NoError(t, err)

	text, err := provider.Send(context.Background(), &llm.Request{
		System:    "you drive a browser",
		Prompt:    "wait for the page",
		MaxTokens: 512,
	})
	require.NoError(t, err)
	assert.Equal(t, `{"action":`+"\n"+`{"type":"wait"}}`, text)

	assert.Equal(t, "20260301T120000Z", dateHeader)
	assert.Contains(t, authHeader, "AWS4-HMAC-SHA256 Credential=AKIDEXAMPLE/20260301/us-east-1/bedrock/aws4_request")
	assert.Contains(t, authHeader, "SignedHeaders=")
	assert.Contains(t, authHeader, "Signature=")

	assert.Equal(t, anthropicVersion, captured.AnthropicVersion)
	assert.Equal(t, 512, captured.MaxTokens)
	assert.Equal(t, "you drive a browser", captured.System)
	require.Len(t, captured.Messages, 1)
	assert.Equal(t, "user", captured.Messages[0].Role)
}

func TestSendAttachesScreenshot(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var captured invokeRequest
		body, _ := io.ReadAll(r.Body)
		require.NoError(t, json.Unmarshal(body, &captured))

		content := captured.Messages[0].Content
		require.Len(t, content, 2)
		assert.Equal(t, "image", content[1].Type)
		require.NotNil(t, content[1].Source)
		assert.Equal(t, "base64", content[1].Source.Type)
		assert.Equal(t, "image/png", content[1].Source.MediaType)

		io.WriteString(w, `{"content":[{"type":"text","text":"ok"}]}`)
	}))
	defer server.Close()

	provider, err := NewProvider(testCreds, "us-east-1", WithEndpoint(server.URL))
	require.NoError(t, err)

	text, err := provider.Send(context.Background(), &llm.Request{
		Prompt: "describe the page",
		Image: &types.Screenshot{
			Data: []byte{0x89, 0x50, 0x4E, 0x47},
			MIME: "image/png",
		},
	})
	require.NoError(t, err)
	assert.Equal(t, "ok", text)
}

func TestSendReturnsRequestError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		io.WriteString(w, `{"message":"The security token included in the request is invalid"}`)
	}))
	defer server.Close()

	provider, err := NewProvider(testCreds, "us-east-1", WithEndpoint(server.URL))
	require.NoError(t, err)

	_, err = provider.Send(context.Background(), &llm.Request{Prompt: "hello"})
	require.Error(t, err)

	var reqErr *llm.RequestError
	require.ErrorAs(t, err, &reqErr)
	assert.Equal(t, http.StatusForbidden, reqErr.StatusCode)
	assert.Contains(t, reqErr.Body, "security token")
}

func TestDefaultMaxTokensApplied(t *testing.T) {
	p, err := NewProvider(testCreds, "us-east-1")
	require.NoError(t, err)

	payload, err := p.buildPayload(&llm.Request{Prompt: "hello"})
	require.NoError(t, err)

	var req invokeRequest
	require.NoError(t, json.Unmarshal(payload, &req))
	assert.Equal(t, defaultMaxTokens, req.MaxTokens)
}
