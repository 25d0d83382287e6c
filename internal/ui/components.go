package ui

import (
	"context"
	"fmt"
	"html"
	"io"
	"net/url"

	"github.com/a-h/templ"
)

// Asset is a single stored asset for display.
type Asset struct {
	Name  string
	Class string
}

// Layout renders a full HTML page with a title and body component.
func Layout(title string, body templ.Component) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		_, err := io.WriteString(w, "<!DOCTYPE html><html lang=\"en\"><head><meta charset=\"utf-8\">")
		if err != nil {
			return err
		}
		_, err = io.WriteString(w, "<meta name=\"viewport\" content=\"width=device-width, initial-scale=1\">")
		if err != nil {
			return err
		}
		_, err = fmt.Fprintf(w, "<title>%s</title>", html.EscapeString(title))
		if err != nil {
			return err
		}
		// Minimal modern CSS framework (Pico.css) via CDN.
		_, err = io.WriteString(w, "<link rel=\"stylesheet\" href=\"https://unpkg.com/@picocss/pico@2/css/pico.min.css\">")
		if err != nil {
			return err
		}
		_, err = io.WriteString(w, "</head><body><main class=\"container\">")
		if err != nil {
			return err
		}

		if err := body.Render(ctx, w); err != nil {
			return err
		}

		_, err = io.WriteString(w, "</main></body></html>")
		return err
	})
}

// AssetsPage renders the list of assets with download links.
func AssetsPage(assets []Asset) templ.Component {
	return Layout("Assets", templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		_, err := fmt.Fprintf(w, "<section><header><h1>Assets</h1><p>%d stored.</p></header>", len(assets))
		if err != nil {
			return err
		}

		if len(assets) == 0 {
			_, err = io.WriteString(w, "<p>No assets found.</p></section>")
			return err
		}

		_, err = io.WriteString(w, "<table><thead><tr><th>Name</th><th>Type</th><th></th></tr></thead><tbody>")
		if err != nil {
			return err
		}

		for _, a := range assets {
			href := "/assets/" + url.PathEscape(a.Name)
			row := fmt.Sprintf("<tr><td><a href=\"%s\">%s</a></td><td>%s</td><td><a href=\"%s/info\">info</a></td></tr>",
				html.EscapeString(href), html.EscapeString(a.Name), html.EscapeString(a.Class), html.EscapeString(href))
			_, err = io.WriteString(w, row)
			if err != nil {
				return err
			}
		}

		_, err = io.WriteString(w, "</tbody></table></section>")
		return err
	}))
}
