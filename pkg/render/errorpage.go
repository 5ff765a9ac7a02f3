package render

import "fmt"

// ErrorPage returns a self-contained, minimally-styled HTML document for
// a render failure. The error text is escaped and the page offers two
// recovery links: retry and the health check.
func ErrorPage(err error, retryPath, healthPath string) string {
	msg := "unknown error"
	if err != nil {
		msg = err.Error()
	}
	if retryPath == "" {
		retryPath = "/"
	}
	if healthPath == "" {
		healthPath = "/api/health"
	}

	return fmt.Sprintf(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>Dashboard Error</title>
<style>
body{font-family:system-ui,sans-serif;margin:4rem auto;max-width:36rem;color:#1f2937}
.err{background:#fef2f2;border:1px solid #fecaca;border-radius:6px;padding:1rem}
a{color:#2563eb}
</style>
</head>
<body>
<h1>Something went wrong</h1>
<div class="err"><code>%s</code></div>
<p><a href="%s">Retry</a> &middot; <a href="%s">Health check</a></p>
</body>
</html>
`, escapeHTML(msg), escapeAttr(retryPath), escapeAttr(healthPath))
}
