package textbook

import (
	"io"
	"net/url"
	"path"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// skipped elements never contribute text.
var skipped = map[atom.Atom]bool{
	atom.Script: true, atom.Style: true, atom.Noscript: true,
	atom.Nav: true, atom.Header: true, atom.Footer: true,
	atom.Aside: true, atom.Template: true, atom.Svg: true,
}

var blockLevel = map[atom.Atom]bool{
	atom.P: true, atom.Div: true, atom.Section: true, atom.Article: true,
	atom.H1: true, atom.H2: true, atom.H3: true, atom.H4: true, atom.H5: true, atom.H6: true,
	atom.Li: true, atom.Pre: true, atom.Tr: true, atom.Br: true, atom.Blockquote: true,
	atom.Table: true, atom.Ul: true, atom.Ol: true, atom.Dd: true, atom.Dt: true,
}

// page is the readable content of one fetched document.
type page struct {
	Title string
	Text  string
	Links []string
}

// parsePage extracts the title, visible text and outgoing links of an HTML
// document. When the document has a <main> or <article> element only that
// subtree contributes text, which drops JupyterBook sidebars.
func parsePage(r io.Reader, base *url.URL) (page, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return page{}, err
	}

	var p page
	var content *html.Node
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch n.DataAtom {
			case atom.Title:
				if p.Title == "" && n.FirstChild != nil {
					p.Title = strings.TrimSpace(n.FirstChild.Data)
				}
			case atom.Main, atom.Article:
				if content == nil {
					content = n
				}
			case atom.A:
				if href := attr(n, "href"); href != "" && base != nil {
					if ref, err := base.Parse(href); err == nil {
						ref.Fragment = ""
						p.Links = append(p.Links, ref.String())
					}
				}
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)

	if content == nil {
		content = doc
	}
	p.Text = visibleText(content)
	return p, nil
}

func visibleText(root *html.Node) string {
	var b strings.Builder
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		switch n.Type {
		case html.TextNode:
			if s := strings.Join(strings.Fields(n.Data), " "); s != "" {
				if b.Len() > 0 && !strings.HasSuffix(b.String(), "\n") {
					b.WriteByte(' ')
				}
				b.WriteString(s)
			}
			return
		case html.ElementNode:
			if skipped[n.DataAtom] {
				return
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
		if n.Type == html.ElementNode && blockLevel[n.DataAtom] && b.Len() > 0 && !strings.HasSuffix(b.String(), "\n") {
			b.WriteByte('\n')
		}
	}
	walk(root)
	return strings.TrimSpace(b.String())
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

// sameSection reports whether candidate lives under the directory of the
// chapter page, on the same host. JupyterBook lays out a chapter's
// subsections as siblings of its index page.
func sameSection(chapter, candidate string) bool {
	cu, err1 := url.Parse(chapter)
	du, err2 := url.Parse(candidate)
	if err1 != nil || err2 != nil || !strings.EqualFold(cu.Host, du.Host) {
		return false
	}
	dir := path.Dir(cu.Path)
	if dir == "/" || dir == "." {
		return false
	}
	return du.Path != cu.Path && strings.HasPrefix(du.Path, dir+"/")
}
