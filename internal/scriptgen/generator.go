package scriptgen

import (
	"context"
	"fmt"
	"strings"

	"github.com/ivlev/reelforge/internal/pkg/errors"
	"github.com/ivlev/reelforge/internal/pkg/logger"
	"github.com/ivlev/reelforge/internal/script"
)

// MaxCount caps how many scripts one Generate call asks for.
const MaxCount = 10

const generatorSystemPrompt = `You write scripts for vertical short videos (YouTube Shorts, Reels, TikTok).
You MUST respond with ONLY valid JSON, no markdown and no explanation.`

const generatorPrompt = `Write %d distinct short video scripts for the niche %q.
Each script is 20 to 45 seconds long and has:
- "hook": one punchy opening line (max 60 chars)
- "lines": 4 to 8 captions, each {"text", "start", "end"} in seconds, in order, not overlapping, starting at 0
- "cta": a short call to action
- "visuals": 3 stock photo search queries matching the script
- "durationSec": total length in seconds, at least the last caption's end
Return {"items": [ ... ]}.`

// Generator produces scripts for a niche.
type Generator struct {
	Client *Client
	Log    *logger.Logger
}

func NewGenerator(c *Client, log *logger.Logger) *Generator {
	if log == nil {
		log = logger.Discard()
	}
	return &Generator{Client: c, Log: log.WithComponent("scriptgen")}
}

// Generate returns up to count valid scripts. Without an API key it writes them from a
// template. Scripts the model gets wrong are dropped; it is an error only if none survive.
func (g *Generator) Generate(ctx context.Context, niche string, count int) ([]script.Script, error) {
	niche = strings.TrimSpace(niche)
	if niche == "" {
		return nil, errors.Validation("niche is required")
	}
	count = max(1, min(count, MaxCount))

	if !g.Client.Online() {
		g.Log.Info("no LLM key, using template scripts", "niche", niche, "count", count)
		return TemplateScripts(niche, count), nil
	}

	content, err := g.Client.completeJSON(ctx, generatorSystemPrompt, fmt.Sprintf(generatorPrompt, count, niche), g.Client.Temperature)
	if err != nil {
		return nil, err
	}
	items, err := script.Parse(content)
	if err != nil {
		return nil, errors.Wrap(err, "scriptgen.Generate", "model returned unusable JSON")
	}

	var out []script.Script
	for i := range items {
		sc := items[i]
		if err := sc.Validate(); err != nil {
			g.Log.Warn("dropping generated script", "index", i, "error", err)
			continue
		}
		sc.DurationSec = script.ClampDuration(sc.DurationSec)
		out = append(out, sc)
		if len(out) == count {
			break
		}
	}
	if len(out) == 0 {
		return nil, errors.Newf(errors.CodeInvalidScript, "model returned no valid scripts out of %d", len(items))
	}
	g.Log.Info("scripts generated", "niche", niche, "count", len(out))
	return out, nil
}

var templateAngles = []struct {
	hook  string
	lines []string
}{
	{"3 %s facts nobody tells you", []string{"Most people get this wrong", "The first one changes everything", "The second one saves you hours", "And the last one is the secret"}},
	{"Stop making this %s mistake", []string{"You are doing it every day", "It costs more than you think", "Here is the simple fix", "Try it once and you will see"}},
	{"The fastest way to get better at %s", []string{"Forget the long tutorials", "Do one small thing daily", "Track it for a week", "Then double it"}},
}

// TemplateScripts builds count scripts for niche without any network call.
func TemplateScripts(niche string, count int) []script.Script {
	out := make([]script.Script, 0, count)
	for i := 0; i < count; i++ {
		a := templateAngles[i%len(templateAngles)]
		sc := script.Script{
			Hook:        fmt.Sprintf(a.hook, niche),
			CTA:         fmt.Sprintf("Follow for more %s tips", niche),
			Visuals:     []string{niche, niche + " close up", niche + " background"},
			DurationSec: 20,
		}
		// Captions share the timeline evenly after a 2s hook.
		const start, end = 2.0, 19.0
		step := (end - start) / float64(len(a.lines))
		for j, text := range a.lines {
			sc.Lines = append(sc.Lines, script.CaptionLine{
				Text:  text,
				Start: start + float64(j)*step,
				End:   start + float64(j+1)*step,
			})
		}
		out = append(out, sc)
	}
	return out
}

// encodeScripts renders scripts for a prompt, one block per script.
func encodeScripts(scripts []script.Script) string {
	var b strings.Builder
	for i, sc := range scripts {
		texts := make([]string, len(sc.Lines))
		for j, l := range sc.Lines {
			texts[j] = l.Text
		}
		if i > 0 {
			b.WriteString("\n\n")
		}
		fmt.Fprintf(&b, "#%d\nHOOK: %s\nCTA: %s\nLINES: %s", i+1, sc.Hook, sc.CTA, strings.Join(texts, " | "))
	}
	return b.String()
}
