package notebook

import (
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
	"golang.org/x/net/html"
)

// extractLinksAndImages walks the markdown AST of src and returns link
// destinations and image sources in document order. Inline, reference-style
// and autolinks are covered, as are <a href> and <img src> inside raw HTML.
func extractLinksAndImages(src string) (links, images []string) {
	if strings.TrimSpace(src) == "" {
		return nil, nil
	}

	source := []byte(src)
	doc := goldmark.DefaultParser().Parse(text.NewReader(source))

	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}

		switch node := n.(type) {
		case *ast.Link:
			if len(node.Destination) > 0 {
				links = append(links, string(node.Destination))
			}
		case *ast.Image:
			if len(node.Destination) > 0 {
				images = append(images, string(node.Destination))
			}
			// Alt text children are not links.
			return ast.WalkSkipChildren, nil
		case *ast.AutoLink:
			links = append(links, string(node.URL(source)))
		case *ast.RawHTML:
			l, i := extractHTMLRefs(segmentsText(node.Segments, source))
			links = append(links, l...)
			images = append(images, i...)
		case *ast.HTMLBlock:
			raw := segmentsText(node.Lines(), source)
			if node.HasClosure() {
				closure := node.ClosureLine
				raw += string(closure.Value(source))
			}
			l, i := extractHTMLRefs(raw)
			links = append(links, l...)
			images = append(images, i...)
		}
		return ast.WalkContinue, nil
	})

	return links, images
}

func segmentsText(segs *text.Segments, source []byte) string {
	if segs == nil {
		return ""
	}
	var b strings.Builder
	for i := 0; i < segs.Len(); i++ {
		seg := segs.At(i)
		b.Write(seg.Value(source))
	}
	return b.String()
}

// extractHTMLRefs tokenizes an HTML fragment and collects <a href> and
// <img src> attribute values.
func extractHTMLRefs(fragment string) (links, images []string) {
	z := html.NewTokenizer(strings.NewReader(fragment))
	for {
		tt := z.Next()
		switch tt {
		case html.ErrorToken:
			return links, images
		case html.StartTagToken, html.SelfClosingTagToken:
			name, hasAttr := z.TagName()
			tag := string(name)
			if tag != "a" && tag != "img" {
				continue
			}
			for hasAttr {
				var key, val []byte
				key, val, hasAttr = z.TagAttr()
				switch {
				case tag == "a" && string(key) == "href" && len(val) > 0:
					links = append(links, string(val))
				case tag == "img" && string(key) == "src" && len(val) > 0:
					images = append(images, string(val))
				}
			}
		}
	}
}
