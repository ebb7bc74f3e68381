package render

import (
	"bytes"
	"regexp"
	"strings"

	"golang.org/x/net/html"
)

// Link markers are placeholder URL tokens embedded in content as
// attr="%marker:path" inside href/src attributes. The three rewrite passes
// are independent and order-insensitive; only the matched attribute value
// changes. The leading boundary keeps suffix attributes such as data-href
// out of the match.
var (
	mediaMarker = regexp.MustCompile(`(^|\s)(href|src)="%media:([^"]*)"`)
	postsMarker = regexp.MustCompile(`(^|\s)(href|src)="%posts:([^"]*)"`)
	pagesMarker = regexp.MustCompile(`(^|\s)(href|src)="%pages:([^"]*)"`)
)

// ResolveLinks rewrites all link markers in content against base:
// media paths stay as-is under media/, post and page paths gain .html.
func ResolveLinks(content []byte, base string) []byte {
	content = rewrite(content, mediaMarker, func(p string) string { return base + "media/" + p })
	content = rewrite(content, postsMarker, func(p string) string { return base + "posts/" + p + ".html" })
	content = rewrite(content, pagesMarker, func(p string) string { return base + p + ".html" })
	return content
}

func rewrite(content []byte, marker *regexp.Regexp, resolve func(path string) string) []byte {
	return marker.ReplaceAllFunc(content, func(m []byte) []byte {
		sub := marker.FindSubmatch(m)
		var out bytes.Buffer
		out.Write(sub[1])
		out.Write(sub[2])
		out.WriteString(`="`)
		out.WriteString(resolve(string(sub[3])))
		out.WriteString(`"`)
		return out.Bytes()
	})
}

// UnresolvedMarkers walks a rendered document and returns href/src values
// that still look like markers. The builder logs these as warnings; they
// usually indicate a typoed marker kind.
func UnresolvedMarkers(doc []byte) []string {
	root, err := html.Parse(bytes.NewReader(doc))
	if err != nil {
		return nil
	}

	var found []string
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			for _, attr := range n.Attr {
				if (attr.Key == "href" || attr.Key == "src") && strings.HasPrefix(attr.Val, "%") {
					found = append(found, attr.Val)
				}
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(root)
	return found
}
