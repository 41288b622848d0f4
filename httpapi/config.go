package httpapi

import "strings"

// Config defines HTTP API and UI settings.
type Config struct {
	Addr     string
	BaseURL  string
	BasePath string
	// HubHistory bounds the events kept for Last-Event-ID replay.
	HubHistory int
}

// prefix is the normalized mount path without a trailing slash; empty
// when the server is mounted at the root.
func (c Config) prefix() string {
	return normalizeBasePath(c.BasePath)
}

// baseHref is the <base href> injected into the index page so relative
// asset and API paths resolve under the mount path.
func (c Config) baseHref() string {
	return buildBaseHref(c.BaseURL, c.BasePath)
}

func normalizeBasePath(value string) string {
	path := strings.TrimSpace(value)
	if path == "" || path == "/" {
		return ""
	}
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	path = strings.TrimRight(path, "/")
	if path == "/" {
		return ""
	}
	return path
}

func buildBaseHref(baseURL, basePath string) string {
	base := strings.TrimRight(strings.TrimSpace(baseURL), "/")
	path := normalizeBasePath(basePath)
	if base == "" && path == "" {
		return ""
	}
	if base == "" {
		return ensureTrailingSlash(path)
	}
	return ensureTrailingSlash(base + path)
}

func ensureTrailingSlash(value string) string {
	if value == "" {
		return ""
	}
	if strings.HasSuffix(value, "/") {
		return value
	}
	return value + "/"
}
