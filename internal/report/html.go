package report

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
)

const styleCSS = `body{font-family:Georgia,'Times New Roman',serif;color:#1c1917;line-height:1.5;margin:0;padding:1rem;background:#fff;}
.report-wrap{max-width:900px;margin:0 auto;}
h1{color:#1f77b4;margin-bottom:0.5rem;}
h2{border-bottom:1px solid #d6d3d1;padding-bottom:0.2rem;margin-top:1.4rem;}
code{background:#f5f5f4;padding:0.1rem 0.3rem;border-radius:3px;font-size:0.85em;}
pre{background:#f5f5f4;padding:0.6rem;overflow-x:auto;font-size:0.8em;}
pre code{background:none;padding:0;}
blockquote{border-left:3px solid #a8a29e;margin:0;padding:0.2rem 0.8rem;color:#44403c;}
table{width:100%;border-collapse:collapse;font-size:0.85rem;}
th,td{border:1px solid #a8a29e;padding:0.35rem 0.45rem;text-align:left;vertical-align:top;}
h2[data-page-break-before='true']{break-before:page;page-break-before:always;}
@media print{@page{size:auto;margin:12mm;}body{padding:0;}.report-wrap{max-width:none;}}`

// RenderHTML converts report markdown into a standalone, print-ready HTML
// document.
func RenderHTML(markdown string) (string, error) {
	var content strings.Builder
	md := goldmark.New(goldmark.WithExtensions(extension.GFM))
	if err := md.Convert([]byte(markdown), &content); err != nil {
		return "", fmt.Errorf("markdown convert: %w", err)
	}
	contentHTML := applyPrintLayoutHooks(content.String())

	return "<!doctype html><html><head><meta charset='utf-8'><title>Patent Report</title>" +
		"<style>" + styleCSS + "</style></head><body>" +
		"<div class='report-wrap'><div class='report-html'>" + contentHTML + "</div></div>" +
		"</body></html>", nil
}

// applyPrintLayoutHooks pushes the appendix, which is mostly raw JSON, onto
// its own page when printed.
func applyPrintLayoutHooks(contentHTML string) string {
	reAppendix := regexp.MustCompile(`(?i)<h2([^>]*)>\s*Appendix\s*</h2>`)
	return reAppendix.ReplaceAllString(contentHTML, `<h2$1 data-page-break-before="true">Appendix</h2>`)
}
