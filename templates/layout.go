// Package templates renders the server-side HTML pages: the printable report
// viewer, the pricing editor and the error fallback. Components are written
// in .templ files; run `templ generate` after editing them.
package templates

import "github.com/a-h/templ"

const baseCSS = `
*{box-sizing:border-box}
body{font-family:-apple-system,"Segoe UI",Roboto,Helvetica,Arial,sans-serif;color:#1f2937;margin:0;background:#f3f4f6}
.page{max-width:960px;margin:24px auto;background:#fff;padding:40px;box-shadow:0 1px 3px rgba(0,0,0,.1)}
h1,h2,h3{margin:0 0 12px}
h2{font-size:18px;padding-bottom:6px;border-bottom:2px solid var(--theme)}
section{margin-bottom:28px;page-break-inside:avoid}
table{width:100%;border-collapse:collapse;font-size:13px}
th,td{border:1px solid #e5e7eb;padding:6px 8px;text-align:left}
th{background:var(--theme);color:#fff}
td.num,th.num{text-align:right}
.muted{color:#6b7280;font-size:13px}
.badge{display:inline-block;padding:2px 8px;border-radius:9999px;font-size:12px;background:#fef3c7;color:#92400e}
.classification strong{margin-right:8px}
.banner{padding:12px 16px;border-radius:6px;margin-bottom:16px}
.banner.warn{background:#fef3c7;color:#92400e}
.banner.ok{background:#d1fae5;color:#065f46}
.error{color:#b91c1c;font-size:12px}
.gallery{display:grid;grid-template-columns:repeat(3,1fr);gap:12px}
.gallery figure{margin:0}
.gallery img{width:100%;height:auto}
.notes{white-space:pre-wrap}
`

const printCSS = `
@media print{
body{background:#fff}
.page{box-shadow:none;margin:0;padding:0;max-width:none}
.no-print{display:none!important}
section{page-break-inside:avoid}
a{color:inherit;text-decoration:none}
}
`

// pageStyle returns the <style> element of a page with theme as the accent
// colour.
func pageStyle(theme string) string {
	return "<style>:root{--theme:" + templ.EscapeString(theme) + "}" + baseCSS + printCSS + "</style>"
}
