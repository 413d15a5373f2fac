package htmllink

import (
	"context"
	"html"
	"net/url"
	"regexp"
	"strings"
	"sync"

	"github.com/microcosm-cc/bluemonday"

	"github.com/mycok/entityusage/entity"
	"github.com/mycok/entityusage/extractor"
	"github.com/mycok/entityusage/usagegraph/graph"
)

// Static and compile-time check to ensure Extractor implements
// extractor.Extractor interface.
var _ extractor.Extractor = (*Extractor)(nil)

// Method is the id recorded on edges found in HTML anchors.
const Method = "html_link"

// Locate the <a href="xxx"> tags left by the anchor policy and return the
// value of the href attribute.
var findLinkRegex = regexp.MustCompile(`(?i)<a\s[^>]*?href="([^"]*)"`)

// Config encapsulates the settings for configuring an html link Extractor.
type Config struct {
	// Hosts serving the site. Absolute links to any other host are
	// ignored; relative links are always resolved.
	SiteHosts []string

	// When set, only paths whose first segment names a known object type
	// are recorded.
	Types entity.TypeResolver
}

// Extractor finds the objects linked from formatted text fields through
// <a href="/TYPE/ID"> anchors.
type Extractor struct {
	config     Config
	hosts      map[string]struct{}
	policyPool sync.Pool
}

// New returns an html link extractor.
func New(config Config) *Extractor {
	x := &Extractor{
		config: config,
		hosts:  make(map[string]struct{}, len(config.SiteHosts)),
		policyPool: sync.Pool{
			New: func() interface{} {
				return anchorPolicy()
			},
		},
	}

	for _, h := range config.SiteHosts {
		x.hosts[strings.ToLower(h)] = struct{}{}
	}

	return x
}

// anchorPolicy strips everything but anchors and their parseable http(s)
// or relative hrefs.
func anchorPolicy() *bluemonday.Policy {
	p := bluemonday.NewPolicy()
	p.AllowAttrs("href").OnElements("a")
	p.RequireParseableURLs(true)
	p.AllowRelativeURLs(true)
	p.AllowURLSchemes("http", "https")

	return p
}

// ID returns the method name of the extractor.
func (*Extractor) ID() string { return Method }

// ApplicableFieldTypes returns the formatted text field types.
func (*Extractor) ApplicableFieldTypes() []string {
	return []string{"text", "text_long", "text_with_summary"}
}

// ExtractTargets returns one reference per anchor pointing to an object.
// Both the value and the summary of each item are scanned.
func (x *Extractor) ExtractTargets(
	_ context.Context, _ entity.Entity, _ entity.FieldDefinition, value entity.Value,
) ([]graph.EntityRef, error) {

	policy := x.policyPool.Get().(*bluemonday.Policy)
	defer x.policyPool.Put(policy)

	var refs []graph.EntityRef
	for _, item := range value {
		for _, key := range []string{"value", "summary"} {
			markup := item[key]
			if markup == "" {
				continue
			}

			for _, match := range findLinkRegex.FindAllStringSubmatch(policy.Sanitize(markup), -1) {
				if ref, ok := x.resolve(html.UnescapeString(match[1])); ok {
					refs = append(refs, ref)
				}
			}
		}
	}

	return refs, nil
}

func (x *Extractor) resolve(href string) (graph.EntityRef, bool) {
	u, err := url.Parse(href)
	if err != nil {
		return graph.EntityRef{}, false
	}

	if u.Host != "" {
		if _, local := x.hosts[strings.ToLower(u.Hostname())]; !local {
			return graph.EntityRef{}, false
		}
	} else if !strings.HasPrefix(u.Path, "/") {
		// Document relative links cannot be resolved without a base URL.
		return graph.EntityRef{}, false
	}

	return extractor.RefFromPath(u.Path, x.config.Types)
}
