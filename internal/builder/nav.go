package builder

import (
	"fmt"
	"html"
	"strings"

	"siteforge/internal/pipeline"
	"siteforge/internal/slug"
)

// navFragment renders the navigation stub committed under the navstub
// namespace. Page order follows the committed descriptor list.
func navFragment(base string, pages []pipeline.PageDescriptor) string {
	var b strings.Builder
	b.WriteString("<nav><ul>")
	for _, d := range pages {
		title, _ := d.Header["title"].(string)
		fmt.Fprintf(&b, `<li id="nav-%s"><a href="%s%s">%s</a></li>`,
			slug.Make(title), base, d.Dest, html.EscapeString(title))
	}
	b.WriteString("</ul></nav>")
	return b.String()
}
