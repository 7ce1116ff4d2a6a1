package audio

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestNew_RequiresKeyAndRegion(t *testing.T) {
	if _, err := New(Opts{Region: "brazilsouth"}); err == nil {
		t.Error("expected error without key")
	}
	if _, err := New(Opts{Key: "k"}); err == nil {
		t.Error("expected error without region or endpoint")
	}
	c, err := New(Opts{Key: "k", Region: "brazilsouth"})
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(c.endpoint, "brazilsouth.tts.speech.microsoft.com") {
		t.Errorf("endpoint = %q", c.endpoint)
	}
	if c.voice != DefaultVoice {
		t.Errorf("voice = %q, want default", c.voice)
	}
}

func TestSynthesize(t *testing.T) {
	var gotBody string
	var gotKey, gotFormat string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		gotBody = string(body)
		gotKey = r.Header.Get("Ocp-Apim-Subscription-Key")
		gotFormat = r.Header.Get("X-Microsoft-OutputFormat")
		w.Write([]byte("mp3-data"))
	}))
	defer srv.Close()

	c, err := New(Opts{Key: "secreta", Endpoint: srv.URL})
	if err != nil {
		t.Fatal(err)
	}
	data, err := c.Synthesize(context.Background(), "Olá, motorista <1>")
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "mp3-data" {
		t.Errorf("data = %q", data)
	}
	if gotKey != "secreta" {
		t.Errorf("subscription key header = %q", gotKey)
	}
	if gotFormat != outputFormat {
		t.Errorf("output format header = %q", gotFormat)
	}
	if !strings.Contains(gotBody, "<voice name='"+DefaultVoice+"'>") {
		t.Errorf("ssml missing voice: %q", gotBody)
	}
	if !strings.Contains(gotBody, "Olá, motorista &lt;1&gt;") {
		t.Errorf("text not escaped in ssml: %q", gotBody)
	}
}

func TestSynthesize_NonOKStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "invalid subscription", http.StatusUnauthorized)
	}))
	defer srv.Close()

	c, err := New(Opts{Key: "k", Endpoint: srv.URL})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := c.Synthesize(context.Background(), "olá"); err == nil {
		t.Fatal("expected error on 401")
	}
}

func TestSynthesize_EmptyBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	defer srv.Close()

	c, err := New(Opts{Key: "k", Endpoint: srv.URL})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := c.Synthesize(context.Background(), "olá"); err == nil {
		t.Fatal("expected error on empty synthesis result")
	}
}
