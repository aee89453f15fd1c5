// Package htmlimg rewrites image references inside HTML fragments.
package htmlimg

import (
	"net/url"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// Resolver maps a source image URL to its replacement URL.
// Returning an empty string keeps the original URL.
type Resolver func(src string) string

// ExtractSources returns the src attribute of every img tag in the
// fragment, in document order. Duplicates are preserved.
func ExtractSources(fragment string) ([]string, error) {
	nodes, err := parseFragment(fragment)
	if err != nil {
		return nil, err
	}

	var sources []string
	for _, n := range nodes {
		walk(n, func(img *html.Node) {
			if src := attr(img, "src"); src != "" {
				sources = append(sources, src)
			}
		})
	}

	return sources, nil
}

// RewriteSources replaces every img src in the fragment using resolve
// and re-serializes the fragment. Non-img markup passes through as the
// parser renders it.
func RewriteSources(fragment string, resolve Resolver) (string, error) {
	nodes, err := parseFragment(fragment)
	if err != nil {
		return "", err
	}

	for _, n := range nodes {
		walk(n, func(img *html.Node) {
			src := attr(img, "src")
			if src == "" {
				return
			}
			if replacement := resolve(src); replacement != "" {
				setAttr(img, "src", replacement)
			}
		})
	}

	var sb strings.Builder
	for _, n := range nodes {
		if err := html.Render(&sb, n); err != nil {
			return "", err
		}
	}

	return sb.String(), nil
}

// ResolveAgainst resolves src against base: protocol-relative and
// path-only references take base's scheme and host, absolute URLs pass
// through unchanged. Unparsable inputs come back as-is.
func ResolveAgainst(base, src string) string {
	b, err := url.Parse(base)
	if err != nil {
		return src
	}
	ref, err := url.Parse(src)
	if err != nil {
		return src
	}
	return b.ResolveReference(ref).String()
}

func parseFragment(fragment string) ([]*html.Node, error) {
	body := &html.Node{
		Type:     html.ElementNode,
		Data:     "body",
		DataAtom: atom.Body,
	}
	return html.ParseFragment(strings.NewReader(fragment), body)
}

func walk(n *html.Node, visit func(img *html.Node)) {
	if n.Type == html.ElementNode && n.Data == "img" {
		visit(n)
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		walk(c, visit)
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

func setAttr(n *html.Node, key, val string) {
	for i, a := range n.Attr {
		if a.Key == key {
			n.Attr[i].Val = val
			return
		}
	}
	n.Attr = append(n.Attr, html.Attribute{Key: key, Val: val})
}
