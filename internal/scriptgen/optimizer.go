package scriptgen

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/ivlev/reelforge/internal/pkg/errors"
	"github.com/ivlev/reelforge/internal/pkg/logger"
	"github.com/ivlev/reelforge/internal/script"
)

const (
	MaxTitleLen       = 70
	MaxTags           = 15
	MaxDescriptionLen = 4000
)

const optimizerSystemPrompt = "You are an SEO optimizer for YouTube Shorts."

const optimizerPrompt = `For each script, suggest an SEO-optimized YouTube Short title (<=70 chars), 10 tags, and a 1-2 sentence description. Return {"items": [ ... ]} with objects { title, tags, description } in the same order.`

// optimizerTemperature is lower than script writing; metadata should be plain.
const optimizerTemperature = 0.5

// Optimizer attaches title, tags and description to scripts.
type Optimizer struct {
	Client *Client
	Log    *logger.Logger
}

func NewOptimizer(c *Client, log *logger.Logger) *Optimizer {
	if log == nil {
		log = logger.Discard()
	}
	return &Optimizer{Client: c, Log: log.WithComponent("scriptgen")}
}

type keywordsJSON struct {
	Title       string   `json:"title"`
	Tags        []string `json:"tags"`
	Description string   `json:"description"`
}

// Optimize returns copies of scripts with Keywords set, in the same order. Without an API
// key every script gets FallbackKeywords.
func (o *Optimizer) Optimize(ctx context.Context, scripts []script.Script) ([]script.Script, error) {
	out := make([]script.Script, len(scripts))
	copy(out, scripts)
	if len(out) == 0 {
		return out, nil
	}

	if !o.Client.Online() {
		for i := range out {
			out[i].Keywords = FallbackKeywords(&out[i])
		}
		return out, nil
	}

	content, err := o.Client.completeJSON(ctx, optimizerSystemPrompt, optimizerPrompt+"\n\n"+encodeScripts(scripts), optimizerTemperature)
	if err != nil {
		return nil, err
	}
	suggestions, err := decodeKeywords(content)
	if err != nil {
		return nil, errors.Wrap(err, "scriptgen.Optimize", "model returned unusable JSON")
	}

	for i := range out {
		sc := &out[i]
		if i >= len(suggestions) {
			o.Log.Warn("no keywords suggested", "index", i)
			sc.Keywords = &script.Keywords{
				Title:       sc.Hook,
				Tags:        []string{"shorts"},
				Description: defaultDescription(sc),
			}
			continue
		}
		sc.Keywords = clampKeywords(sc, suggestions[i])
	}
	return out, nil
}

// FallbackKeywords derives metadata from the script alone.
func FallbackKeywords(sc *script.Script) *script.Keywords {
	return &script.Keywords{
		Title:       truncate(strings.ReplaceAll(sc.Hook+" #shorts", ".", ""), MaxTitleLen),
		Tags:        []string{"shorts", "viral", "tips"},
		Description: truncate(defaultDescription(sc), MaxDescriptionLen),
	}
}

func defaultDescription(sc *script.Script) string {
	return sc.Hook + " ? " + sc.CTA
}

func clampKeywords(sc *script.Script, k keywordsJSON) *script.Keywords {
	title := k.Title
	if title == "" {
		title = sc.Hook
	}
	tags := k.Tags
	if tags == nil {
		tags = []string{"shorts"}
	}
	if len(tags) > MaxTags {
		tags = tags[:MaxTags]
	}
	desc := k.Description
	if desc == "" {
		desc = defaultDescription(sc)
	}
	return &script.Keywords{
		Title:       truncate(title, MaxTitleLen),
		Tags:        tags,
		Description: truncate(desc, MaxDescriptionLen),
	}
}

// decodeKeywords accepts {"items": [...]} or a bare array.
func decodeKeywords(content []byte) ([]keywordsJSON, error) {
	var env struct {
		Items []keywordsJSON `json:"items"`
	}
	if err := json.Unmarshal(content, &env); err == nil {
		return env.Items, nil
	}
	var list []keywordsJSON
	if err := json.Unmarshal(content, &list); err != nil {
		return nil, err
	}
	return list, nil
}
