package httpapi

import (
	"bytes"
	"embed"
	"fmt"
	"html"
	"io/fs"
	"strings"
	"time"

	"pkt.systems/hapticnote/internal/descriptor"
)

//go:embed assets/*
var embeddedAssets embed.FS

var assetsFS fs.FS

func init() {
	sub, err := fs.Sub(embeddedAssets, "assets")
	if err != nil {
		assetsFS = embeddedAssets
		return
	}
	assetsFS = sub
}

const (
	baseHrefPlaceholder     = "<!-- BASE_HREF -->"
	colorOptionsPlaceholder = "<!-- COLOR_OPTIONS -->"
)

// renderIndex returns the client page with the base href and the literal
// color choices filled in.
func renderIndex(baseHref string) ([]byte, time.Time, error) {
	data, err := fs.ReadFile(assetsFS, "index.html")
	if err != nil {
		return nil, time.Time{}, err
	}
	stat, err := fs.Stat(assetsFS, "index.html")
	if err != nil {
		return nil, time.Time{}, err
	}
	data = applyBaseHref(data, baseHref)
	data = applyColorOptions(data, descriptor.Colors())
	return data, stat.ModTime(), nil
}

func applyBaseHref(data []byte, baseHref string) []byte {
	replacement := ""
	if strings.TrimSpace(baseHref) != "" {
		replacement = fmt.Sprintf(`<base href="%s" />`, html.EscapeString(baseHref))
	}
	return bytes.ReplaceAll(data, []byte(baseHrefPlaceholder), []byte(replacement))
}

func applyColorOptions(data []byte, colors []string) []byte {
	var b strings.Builder
	for _, c := range colors {
		name := html.EscapeString(c)
		fmt.Fprintf(&b, `<option value="%s">%s</option>`, name, name)
	}
	return bytes.ReplaceAll(data, []byte(colorOptionsPlaceholder), []byte(b.String()))
}
