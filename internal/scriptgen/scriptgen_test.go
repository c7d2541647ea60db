package scriptgen

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/ivlev/reelforge/internal/config"
	"github.com/ivlev/reelforge/internal/pkg/errors"
	"github.com/ivlev/reelforge/internal/script"
)

// chatServer answers every completion with content and records the last request.
func chatServer(t *testing.T, content string, last *chatRequest) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			http.NotFound(w, r)
			return
		}
		if got := r.Header.Get("Authorization"); got != "Bearer test-key" {
			t.Errorf("unexpected Authorization %q", got)
		}
		if last != nil {
			if err := json.NewDecoder(r.Body).Decode(last); err != nil {
				t.Errorf("bad request body: %v", err)
			}
		}
		json.NewEncoder(w).Encode(map[string]any{
			"choices": []any{map[string]any{"message": map[string]any{"content": content}}},
		})
	}))
	t.Cleanup(srv.Close)
	return srv
}

func onlineClient(url string) *Client {
	return NewClient(config.LLMConfig{BaseURL: url + "/", APIKey: "test-key", Model: "test-model", Temperature: 0.8})
}

func sampleScript() script.Script {
	return script.Script{
		Hook:        "Why cats sleep 16 hours.",
		Lines:       []script.CaptionLine{{Text: "Energy", Start: 0, End: 3}, {Text: "Hunting", Start: 3, End: 6}},
		CTA:         "Follow for more",
		DurationSec: 20,
	}
}

func TestFallbackKeywords(t *testing.T) {
	sc := sampleScript()
	k := FallbackKeywords(&sc)
	if k.Title != "Why cats sleep 16 hours #shorts" {
		t.Errorf("title = %q", k.Title)
	}
	if strings.Join(k.Tags, ",") != "shorts,viral,tips" {
		t.Errorf("tags = %v", k.Tags)
	}
	if k.Description != "Why cats sleep 16 hours. ? Follow for more" {
		t.Errorf("description = %q", k.Description)
	}

	sc.Hook = strings.Repeat("a", 100)
	if got := FallbackKeywords(&sc).Title; len(got) != MaxTitleLen {
		t.Errorf("expected title cut to %d, got %d", MaxTitleLen, len(got))
	}
}

func TestOptimizeOffline(t *testing.T) {
	o := NewOptimizer(NewClient(config.LLMConfig{}), nil)
	in := []script.Script{sampleScript(), sampleScript()}
	out, err := o.Optimize(context.Background(), in)
	if err != nil {
		t.Fatal(err)
	}
	if len(out) != 2 || out[1].Keywords == nil {
		t.Fatalf("expected keywords on every script, got %+v", out)
	}
	if in[0].Keywords != nil {
		t.Error("input scripts must not be modified")
	}
}

func TestOptimizeOnlineClamps(t *testing.T) {
	tags := make([]string, 20)
	for i := range tags {
		tags[i] = fmt.Sprintf("tag%d", i)
	}
	first, _ := json.Marshal(keywordsJSON{Title: strings.Repeat("t", 90), Tags: tags, Description: "d"})
	content := fmt.Sprintf(`{"items":[%s,{"title":"","description":""}]}`, first)

	var req chatRequest
	srv := chatServer(t, "```json\n"+content+"\n```", &req)
	o := NewOptimizer(onlineClient(srv.URL), nil)

	out, err := o.Optimize(context.Background(), []script.Script{sampleScript(), sampleScript(), sampleScript()})
	if err != nil {
		t.Fatalf("Optimize failed: %v", err)
	}
	if got := out[0].Keywords; len(got.Title) != MaxTitleLen || len(got.Tags) != MaxTags {
		t.Errorf("expected clamped title and tags, got %d chars %d tags", len(got.Title), len(got.Tags))
	}
	if got := out[1].Keywords; got.Title != out[1].Hook || got.Tags[0] != "shorts" || got.Description != "Why cats sleep 16 hours. ? Follow for more" {
		t.Errorf("expected hook defaults, got %+v", got)
	}
	if got := out[2].Keywords; got == nil || got.Title != out[2].Hook {
		t.Errorf("missing suggestion should default to the hook, got %+v", got)
	}
	if req.Model != "test-model" || req.Temperature != optimizerTemperature {
		t.Errorf("unexpected request %+v", req)
	}
	if !strings.Contains(req.Messages[1].Content, "HOOK: Why cats sleep 16 hours.") {
		t.Error("prompt should carry the scripts")
	}
}

func TestOptimizeBareArray(t *testing.T) {
	srv := chatServer(t, `[{"title":"Cats","tags":["cats"],"description":"zzz"}]`, nil)
	out, err := NewOptimizer(onlineClient(srv.URL), nil).Optimize(context.Background(), []script.Script{sampleScript()})
	if err != nil {
		t.Fatal(err)
	}
	if out[0].Keywords.Title != "Cats" {
		t.Errorf("title = %q", out[0].Keywords.Title)
	}
}

func TestGenerateOffline(t *testing.T) {
	g := NewGenerator(NewClient(config.LLMConfig{}), nil)
	out, err := g.Generate(context.Background(), "coffee", 4)
	if err != nil {
		t.Fatal(err)
	}
	if len(out) != 4 {
		t.Fatalf("expected 4 scripts, got %d", len(out))
	}
	for i, sc := range out {
		if err := sc.Validate(); err != nil {
			t.Errorf("template script %d invalid: %v", i, err)
		}
		if !strings.Contains(sc.Hook, "coffee") {
			t.Errorf("hook %q does not mention the niche", sc.Hook)
		}
	}
}

func TestGenerateCount(t *testing.T) {
	g := NewGenerator(nil, nil)
	tests := []struct{ in, want int }{{0, 1}, {3, 3}, {50, MaxCount}}
	for _, tt := range tests {
		out, err := g.Generate(context.Background(), "tea", tt.in)
		if err != nil {
			t.Fatal(err)
		}
		if len(out) != tt.want {
			t.Errorf("Generate(count=%d) = %d scripts, want %d", tt.in, len(out), tt.want)
		}
	}
	if _, err := g.Generate(context.Background(), "  ", 1); !errors.IsCode(err, errors.CodeValidation) {
		t.Errorf("expected VALIDATION_ERROR for empty niche, got %v", err)
	}
}

func TestGenerateOnlineDropsInvalid(t *testing.T) {
	content := `{"items":[
    {"hook":"Good","lines":[{"text":"a","start":0,"end":2}],"cta":"c","visuals":["v"],"durationSec":90},
    {"hook":"Bad","lines":[],"cta":"c","visuals":["v"],"durationSec":20}
  ]}`
	srv := chatServer(t, content, nil)
	out, err := NewGenerator(onlineClient(srv.URL), nil).Generate(context.Background(), "tea", 2)
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	if len(out) != 1 || out[0].Hook != "Good" {
		t.Fatalf("expected only the valid script, got %+v", out)
	}
	if out[0].DurationSec != script.MaxDurationSec {
		t.Errorf("expected duration clamped to %v, got %v", script.MaxDurationSec, out[0].DurationSec)
	}
}

func TestGenerateOnlineAllInvalid(t *testing.T) {
	srv := chatServer(t, `{"items":[{"hook":"x","lines":[]}]}`, nil)
	_, err := NewGenerator(onlineClient(srv.URL), nil).Generate(context.Background(), "tea", 1)
	if !errors.IsCode(err, errors.CodeInvalidScript) {
		t.Errorf("expected INVALID_SCRIPT, got %v", err)
	}
}

func TestChatError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		fmt.Fprint(w, `{"error":{"message":"rate limited"}}`)
	}))
	defer srv.Close()

	_, err := NewGenerator(onlineClient(srv.URL), nil).Generate(context.Background(), "tea", 1)
	if !errors.IsCode(err, errors.CodeUnavailable) || !strings.Contains(err.Error(), "rate limited") {
		t.Errorf("expected UNAVAILABLE rate limit error, got %v", err)
	}
}

func TestCleanJSON(t *testing.T) {
	tests := map[string]string{
		"```json\n{}\n```": "{}",
		"  []  ":           "[]",
		"```\n{\"a\":1}```": `{"a":1}`,
	}
	for in, want := range tests {
		if got := cleanJSON(in); got != want {
			t.Errorf("cleanJSON(%q) = %q, want %q", in, got, want)
		}
	}
}
