package smoke

import (
	"strings"

	"github.com/valyala/fastjson"
	"golang.org/x/net/html"
)

// contentThreshold is the body size above which a page counts as rendered.
const contentThreshold = 500

// PageAnalysis is what could be learned from a rendered page.
type PageAnalysis struct {
	Title            string
	HasError         bool
	HasLoading       bool
	HasFallback      bool
	HasNextBootstrap bool
	HasReactContent  bool
	BodyLength       int
	HasContent       bool
}

// AnalyzeBody inspects the body's innerHTML as the browser rendered it.
func AnalyzeBody(inner string) *PageAnalysis {
	p := &PageAnalysis{BodyLength: len(inner)}
	p.HasError = strings.Contains(inner, "error") || strings.Contains(inner, "Error") || strings.Contains(inner, "ERROR")
	p.HasLoading = strings.Contains(inner, "Loading") || strings.Contains(inner, "loading")
	p.HasFallback = strings.Contains(inner, "Activity Loading") || strings.Contains(inner, "served seamlessly")
	p.HasNextBootstrap = strings.Contains(inner, "Loading Next.js application")
	p.HasReactContent = strings.Contains(inner, "__next") || strings.Contains(inner, "react")
	p.HasContent = p.BodyLength > contentThreshold && !p.HasLoading && !p.HasFallback
	return p
}

// RenderErrors returns the server-side render failures Next.js embedded in
// the document's __NEXT_DATA__ script.
func RenderErrors(doc string) ([]string, error) {
	root, err := html.Parse(strings.NewReader(doc))
	if err != nil {
		return nil, err
	}

	var errs []string
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && n.Data == "script" &&
			attr(n, "id") == "__NEXT_DATA__" && n.FirstChild != nil {
			if msg, ok := nextRenderError(n.FirstChild.Data); ok {
				errs = append(errs, msg)
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(root)
	return errs, nil
}

// Classify maps a page analysis to a status and serving mode. The checks run
// in priority order: error text wins over fallback, fallback over bootstrap.
func Classify(p *PageAnalysis) (Status, Mode) {
	switch {
	case p.HasError:
		return StatusError, ModeError
	case p.HasFallback:
		return StatusFallback, ModeFallback
	case p.HasNextBootstrap:
		return StatusBootstrap, ModeBootstrap
	case p.HasReactContent && p.HasContent:
		return StatusWorking, ModeNextJS
	case p.HasContent:
		return StatusWorking, ModeStatic
	default:
		return StatusBroken, ModeUnknown
	}
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

// nextRenderError extracts the err object Next.js embeds when a page failed
// to render on the server.
func nextRenderError(data string) (string, bool) {
	v, err := fastjson.Parse(data)
	if err != nil {
		return "", false
	}
	e := v.Get("err")
	if e == nil || e.Type() != fastjson.TypeObject {
		return "", false
	}
	if msg := string(e.GetStringBytes("message")); msg != "" {
		return msg, true
	}
	if name := string(e.GetStringBytes("name")); name != "" {
		return name, true
	}
	return e.String(), true
}
