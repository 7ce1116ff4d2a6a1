// Package audio synthesizes Portuguese speech through the Azure Cognitive
// Services text-to-speech REST endpoint.
package audio

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// DefaultVoice narrates checklists in Brazilian Portuguese.
const DefaultVoice = "pt-BR-MacerioMultilingualNeural"

const outputFormat = "audio-48khz-192kbitrate-mono-mp3"

// Client calls the Azure TTS synthesis endpoint for one region.
type Client struct {
	key        string
	voice      string
	endpoint   string
	httpClient *http.Client
}

// Opts configures a Client. Key and Region are required; Voice defaults to
// DefaultVoice. Endpoint overrides the regional URL in tests.
type Opts struct {
	Key        string
	Region     string
	Voice      string
	Endpoint   string
	HTTPClient *http.Client
}

// New creates a synthesis Client.
func New(o Opts) (*Client, error) {
	if o.Key == "" {
		return nil, fmt.Errorf("audio: Key is required")
	}
	if o.Endpoint == "" {
		if o.Region == "" {
			return nil, fmt.Errorf("audio: Region is required")
		}
		o.Endpoint = fmt.Sprintf("https://%s.tts.speech.microsoft.com/cognitiveservices/v1", o.Region)
	}
	if o.Voice == "" {
		o.Voice = DefaultVoice
	}
	if o.HTTPClient == nil {
		o.HTTPClient = &http.Client{Timeout: 30 * time.Second}
	}
	return &Client{key: o.Key, voice: o.Voice, endpoint: o.Endpoint, httpClient: o.HTTPClient}, nil
}

// Synthesize converts text to MP3 audio.
func (c *Client) Synthesize(ctx context.Context, text string) ([]byte, error) {
	body := ssml(c.voice, text)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, strings.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("audio: build request: %w", err)
	}
	req.Header.Set("Ocp-Apim-Subscription-Key", c.key)
	req.Header.Set("Content-Type", "application/ssml+xml")
	req.Header.Set("X-Microsoft-OutputFormat", outputFormat)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("audio: synthesize: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 256))
		return nil, fmt.Errorf("audio: synthesize: status %d: %s", resp.StatusCode, snippet)
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("audio: read audio: %w", err)
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("audio: empty synthesis result")
	}
	return data, nil
}

func ssml(voice, text string) string {
	var b strings.Builder
	b.WriteString(`<speak version='1.0' xml:lang='pt-BR'>`)
	fmt.Fprintf(&b, `<voice name='%s'>`, voice)
	b.WriteString(escapeXML(text))
	b.WriteString(`</voice></speak>`)
	return b.String()
}

func escapeXML(s string) string {
	r := strings.NewReplacer(
		"&", "&amp;",
		"<", "&lt;",
		">", "&gt;",
		`"`, "&quot;",
		"'", "&apos;",
	)
	return r.Replace(s)
}
