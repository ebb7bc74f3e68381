package render

import (
	"fmt"
	"html/template"

	"siteforge/internal/store"
)

// Page produces the final HTML for one page.
//
// It consumes the compiled base template and the navigation fragment from
// the build scope, resolves link markers in contents against base, and
// evaluates the template with bindings = ctx merged with
// {contents, navigation}.
func Page(st *store.Store, h store.Handle, ctx map[string]any, contents []byte, base string) ([]byte, error) {
	tplValue, err := st.Get(h, store.NamespaceTemplate, "base")
	if err != nil {
		return nil, err
	}
	tpl, ok := tplValue.(*Template)
	if !ok {
		return nil, fmt.Errorf("render: base template entry has unexpected type %T", tplValue)
	}

	navValue, err := st.Get(h, store.NamespaceNavStub, store.KeyNavStub)
	if err != nil {
		return nil, err
	}
	nav, ok := navValue.(string)
	if !ok {
		return nil, fmt.Errorf("render: navstub entry has unexpected type %T", navValue)
	}

	bindings := make(map[string]any, len(ctx)+2)
	for k, v := range ctx {
		bindings[k] = v
	}
	bindings["contents"] = template.HTML(ResolveLinks(contents, base))
	bindings["navigation"] = template.HTML(nav)

	return tpl.Evaluate(bindings)
}
