package render

import (
	"bytes"
	"fmt"
	"io"
)

// documentRenderer is the built-in fallback renderer. It emits the
// dashboard shell: resource links, one empty container element per
// schema component, and a nonce-tagged bootstrap script. Populating the
// containers is the client component runtime's job.
type documentRenderer struct{}

// CanRender always returns true: this is the guaranteed fallback.
func (r *documentRenderer) CanRender(d *Data) bool { return true }

// Render writes the complete HTML document.
func (r *documentRenderer) Render(d *Data) (string, error) {
	var buf bytes.Buffer
	if err := r.render(&buf, d); err != nil {
		return "", err
	}
	return buf.String(), nil
}

func (r *documentRenderer) render(w io.Writer, d *Data) error {
	title := d.Schema.Title
	if title == "" {
		title = "Dashboard"
	}

	fmt.Fprint(w, "<!DOCTYPE html>\n")
	fmt.Fprint(w, `<html lang="en">`+"\n")

	// Head
	fmt.Fprint(w, "<head>\n")
	fmt.Fprint(w, `<meta charset="utf-8">`+"\n")
	fmt.Fprint(w, `<meta name="viewport" content="width=device-width, initial-scale=1">`+"\n")
	fmt.Fprintf(w, "<title>%s</title>\n", escapeHTML(title))

	// Preload hints go ahead of the stylesheet links themselves.
	for _, href := range d.Bundle.Preloads {
		fmt.Fprintf(w, `<link rel="preload" href="%s" as="style">`+"\n", escapeAttr(href))
	}
	for _, href := range d.Bundle.Styles {
		fmt.Fprintf(w, `<link rel="stylesheet" href="%s">`+"\n", escapeAttr(href))
	}
	if d.Bundle.InlineStyle != "" {
		fmt.Fprintf(w, `<style nonce="%s">%s</style>`+"\n", escapeAttr(d.Nonce), d.Bundle.InlineStyle)
	}
	fmt.Fprint(w, "</head>\n")

	// Body: one empty container per component.
	fmt.Fprint(w, "<body>\n")
	fmt.Fprintf(w, `<main class="deck" data-title="%s">`+"\n", escapeAttr(title))
	if d.Schema.Description != "" {
		fmt.Fprintf(w, `<p class="deck-description">%s</p>`+"\n", escapeHTML(d.Schema.Description))
	}
	for _, c := range d.Schema.Components {
		fmt.Fprintf(w, `<div id="%s" class="deck-component" data-component="%s"></div>`+"\n",
			escapeAttr(c.ID), escapeAttr(c.Type))
	}
	fmt.Fprint(w, "</main>\n")

	if err := r.renderBootstrap(w, d); err != nil {
		return err
	}

	for _, src := range d.Bundle.Scripts {
		fmt.Fprintf(w, `<script src="%s" nonce="%s"></script>`+"\n",
			escapeAttr(src), escapeAttr(d.Nonce))
	}

	fmt.Fprint(w, "</body>\n</html>\n")
	return nil
}

// renderBootstrap embeds the client configuration: token, API base,
// polling interval, schema, and the initial data snapshot. The JSON is
// script-safe (see marshalScriptJSON).
func (r *documentRenderer) renderBootstrap(w io.Writer, d *Data) error {
	boot := map[string]any{
		"apiBase":      d.APIBase,
		"pollInterval": d.PollInterval.Milliseconds(),
		"schema":       d.Schema,
		"data":         d.Initial,
	}
	if d.Session != nil {
		boot["token"] = d.Session.Token()
	}

	payload, err := marshalScriptJSON(boot)
	if err != nil {
		return fmt.Errorf("render: bootstrap: %w", err)
	}

	fmt.Fprintf(w, `<script nonce="%s">window.__DECK__ = %s;</script>`+"\n",
		escapeAttr(d.Nonce), payload)
	return nil
}
