package api

import (
	"fmt"
	"strings"

	"github.com/danielgtaylor/huma/v2"

	"github.com/joeblew999/geo-widget/internal/humastar"
)

// links maps operation paths to their RFC 8288 Link header values.
var links = map[string][]string{
	"/health": {
		`</api/v1/info>; rel="info"`,
		`</api/v1/definitions>; rel="definitions"`,
		`</api/v1/widgets>; rel="widgets"`,
		`</api/v1/tiles>; rel="tiles"`,
		`</openapi.json>; rel="service-desc"`,
		`</docs>; rel="service-doc"`,
	},
	"/api/v1/info": {
		`</health>; rel="up"`,
	},
	"/api/v1/definitions": {
		`</api/v1/widgets>; rel="create-form"`,
		`</health>; rel="up"`,
	},
	"/api/v1/widgets": {
		`</api/v1/widgets/{id}>; rel="item"`,
		`</api/v1/definitions>; rel="definitions"`,
		`</health>; rel="up"`,
	},
	"/api/v1/widgets/{id}": {
		`</api/v1/widgets>; rel="collection"`,
	},
	"/api/v1/tiles": {
		`</api/v1/definitions>; rel="definitions"`,
		`</health>; rel="up"`,
	},
}

// LinkTransformer returns a Huma Transformer that injects RFC 8288 Link
// headers: static navigation links, a self link on item endpoints, and the
// state-dependent actions of bodies implementing humastar.Actor.
func LinkTransformer() huma.Transformer {
	return func(ctx huma.Context, status string, v any) (any, error) {
		op := ctx.Operation()
		if op == nil {
			return v, nil
		}

		for _, link := range links[op.Path] {
			ctx.AppendHeader("Link", link)
		}

		// Item endpoints get a self link
		if strings.Contains(op.Path, "{") {
			ctx.AppendHeader("Link", fmt.Sprintf(`<%s>; rel="self"`, ctx.URL().Path))
		}

		if a, ok := v.(humastar.Actor); ok {
			for _, action := range a.Actions() {
				ctx.AppendHeader("Link", action.LinkHeader())
			}
		}

		return v, nil
	}
}
