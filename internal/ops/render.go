package ops

import (
	"context"
	"strings"
	"time"

	"github.com/tliron/commonlog"

	"github.com/twardoch/zmarkdown/internal/db"
	"github.com/twardoch/zmarkdown/internal/errors"
	"github.com/twardoch/zmarkdown/internal/processor"
)

var log = commonlog.GetLogger("zmd.ops")

// RenderInput contains parameters for the Render operation.
type RenderInput struct {
	Markdown string
	Target   string // default: cfg.DefaultTarget
	Options  processor.Options
	NoCache  bool // skip cache lookup and store
}

// RenderOutput contains the result of the Render operation.
type RenderOutput struct {
	Content    string   `json:"content"`
	Target     string   `json:"target"`
	Cached     bool     `json:"cached"`
	Directives []string `json:"directives"`
}

// Render converts a document to the requested target, consulting the render
// cache when one is configured.
func Render(ctx context.Context, rt *Runtime, input RenderInput) (*RenderOutput, error) {
	if err := ctx.Err(); err != nil {
		return nil, errors.NewCanceled(err)
	}
	if err := rt.checkDocument(input.Markdown); err != nil {
		return nil, err
	}

	target := strings.TrimSpace(input.Target)
	if target == "" {
		target = rt.Config.DefaultTarget
	}
	p, err := rt.Factory.Get(target, input.Options)
	if err != nil {
		return nil, err
	}
	t := p.Target()
	optionsKey := processor.Key(t, input.Options.For(t))
	key := rt.cacheKey(optionsKey, input.Markdown)

	useCache := rt.cacheEnabled() && !input.NoCache
	if useCache {
		hit, err := db.GetByKey(rt.DB, key)
		switch {
		case err == nil:
			err = db.Touch(rt.DB, hit.ID)
			if err == nil {
				return &RenderOutput{
					Content:    hit.Payload.Output,
					Target:     string(t),
					Cached:     true,
					Directives: nonNil(hit.Payload.Directives),
				}, nil
			}
			// Purged between lookup and touch: render as a miss.
			if !errors.Is(err, errors.ErrNotFound) {
				return nil, err
			}
		case !errors.Is(err, errors.ErrNotFound):
			return nil, err
		}
	}

	content, err := p.Render(input.Markdown)
	if err != nil {
		return nil, errors.NewInternal(err)
	}
	names := directiveNames(collectDirectives(rt.Factory.Markdown().Parse(input.Markdown)))

	if useCache {
		if err := store(rt, key, t, optionsKey, input.Markdown, content, names); err != nil {
			return nil, err
		}
	}

	return &RenderOutput{
		Content:    content,
		Target:     string(t),
		Directives: names,
	}, nil
}

func store(rt *Runtime, key string, t processor.Target, optionsKey, markdown, content string, names []string) error {
	id, err := generateULID()
	if err != nil {
		return errors.NewInternal(err)
	}
	now := time.Now().Unix()
	r := &db.Render{
		ID:          id,
		CacheKey:    key,
		Target:      string(t),
		OptionsKey:  optionsKey,
		SourceHash:  hashSource(markdown),
		SourceChars: len([]rune(markdown)),
		Payload:     &db.Payload{Output: content, Directives: names},
		CreatedAt:   now,
		AccessedAt:  now,
	}
	err = db.Insert(rt.DB, r)
	if err != db.ErrUniqueConstraint {
		return err
	}

	// The key is taken by a concurrent store or by a row with a stale
	// payload schema; overwrite it so later lookups hit.
	log.Debug("refreshing cached render", "key", key)
	err = db.Replace(rt.DB, r)
	if errors.Is(err, errors.ErrNotFound) {
		return nil
	}
	return err
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
