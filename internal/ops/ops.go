package ops

import (
	"crypto/rand"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"encoding/json"
	"time"
	"unicode/utf8"

	"github.com/oklog/ulid/v2"

	"github.com/twardoch/zmarkdown/internal/config"
	"github.com/twardoch/zmarkdown/internal/directive"
	"github.com/twardoch/zmarkdown/internal/errors"
	"github.com/twardoch/zmarkdown/internal/mdast"
	"github.com/twardoch/zmarkdown/internal/processor"
)

// Batch limits
const (
	DefaultJobs  = 4
	MaxJobs      = 64
	MaxBatchSize = 500
)

// Runtime bundles what every operation needs. DB may be nil, in which case
// the render cache is bypassed.
type Runtime struct {
	DB      *sql.DB
	Config  *config.Config
	Factory *processor.Factory

	// fingerprint identifies the directive setup in cache keys.
	fingerprint string
}

// NewRuntime builds the directive registry and processor factory from cfg.
// Invalid directive configuration is reported here, before any document is
// processed.
func NewRuntime(database *sql.DB, cfg *config.Config) (*Runtime, error) {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	reg, err := directive.NewRegistry(cfg.Directives)
	if err != nil {
		return nil, err
	}
	factory, err := processor.NewFactory(reg, cfg.LatexEnvironments)
	if err != nil {
		return nil, err
	}
	setup, err := json.Marshal(struct {
		Directives map[string]config.Directive `json:"d"`
		Latex      map[string]string           `json:"l"`
	}{cfg.Directives, cfg.LatexEnvironments})
	if err != nil {
		return nil, errors.NewInternal(err)
	}
	return &Runtime{
		DB:          database,
		Config:      cfg,
		Factory:     factory,
		fingerprint: hashSource(string(setup)),
	}, nil
}

// cacheKey identifies a render of markdown under optionsKey with the
// current directive setup.
func (rt *Runtime) cacheKey(optionsKey, markdown string) string {
	return hashSource(rt.fingerprint + "\x00" + optionsKey + "\x00" + markdown)
}

func (rt *Runtime) cacheEnabled() bool {
	return rt.DB != nil && !rt.Config.CacheDisabled
}

// checkDocument enforces the configured size limit.
func (rt *Runtime) checkDocument(markdown string) error {
	limit := rt.Config.MaxDocumentChars
	if limit <= 0 {
		return nil
	}
	if n := utf8.RuneCountInString(markdown); n > limit {
		return errors.NewDocumentTooLarge(limit, n)
	}
	return nil
}

// DirectiveUse is a directive block found in a document.
type DirectiveUse struct {
	Name  string `json:"name"`
	Title string `json:"title,omitempty"`
	Line  int    `json:"line"`
	Depth int    `json:"depth"`
}

// collectDirectives lists every directive block in root in document order.
// Depth counts enclosing directive blocks.
func collectDirectives(root *mdast.Node) []DirectiveUse {
	uses := []DirectiveUse{}
	var visit func(n *mdast.Node, depth int)
	visit = func(n *mdast.Node, depth int) {
		if directive.IsBlock(n) {
			use := DirectiveUse{Name: n.Name, Line: n.Position.Start.Line, Depth: depth}
			if h := directive.Heading(n); h != nil {
				use.Title = mdast.TextContent(h)
			}
			uses = append(uses, use)
			depth++
		}
		for _, c := range n.Children {
			visit(c, depth)
		}
	}
	visit(root, 0)
	return uses
}

// directiveNames returns the distinct names of uses in order of first appearance.
func directiveNames(uses []DirectiveUse) []string {
	names := []string{}
	seen := map[string]bool{}
	for _, u := range uses {
		if !seen[u.Name] {
			seen[u.Name] = true
			names = append(names, u.Name)
		}
	}
	return names
}

// hashSource returns the hex SHA-256 of a document.
func hashSource(markdown string) string {
	sum := sha256.Sum256([]byte(markdown))
	return hex.EncodeToString(sum[:])
}

// generateULID generates a new ULID.
func generateULID() (string, error) {
	entropy := ulid.Monotonic(rand.Reader, 0)
	id, err := ulid.New(ulid.Timestamp(time.Now()), entropy)
	if err != nil {
		return "", err
	}
	return id.String(), nil
}
