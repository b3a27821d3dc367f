package patentdoc

import (
	"strings"
	"testing"
	"unicode/utf8"
)

func TestExtractHTMLFullPage(t *testing.T) {
	rec := ExtractHTML(googlePatentsPage, "WO2024033280A1")

	if rec.PatentID != "WO2024033280A1" {
		t.Fatalf("patent id = %q", rec.PatentID)
	}
	if rec.Title != "Furopyridine inhibitors of PI4K" {
		t.Fatalf("title = %q", rec.Title)
	}
	if rec.Abstract != "Compounds of formula I are disclosed. They inhibit PI4KIIIbeta." {
		t.Fatalf("abstract = %q", rec.Abstract)
	}
	if rec.Company == nil || *rec.Company != "Acme Pharma AG" {
		t.Fatalf("company = %v", rec.Company)
	}
	if rec.Claims != "1. A compound of formula I.\n2. The compound of claim 1." {
		t.Fatalf("claims = %q", rec.Claims)
	}
	if rec.FilingDate != "2023-08-09" || rec.PublicationDate != "2024-02-15" {
		t.Fatalf("dates = %q / %q", rec.FilingDate, rec.PublicationDate)
	}
	// Inventor order is kept and duplicates are not collapsed.
	want := []string{"Jane Doe", "John Roe", "Jane Doe"}
	if len(rec.Inventors) != len(want) {
		t.Fatalf("inventors = %v", rec.Inventors)
	}
	for i := range want {
		if rec.Inventors[i] != want[i] {
			t.Fatalf("inventors = %v, want %v", rec.Inventors, want)
		}
	}
}

func TestExtractHTMLImages(t *testing.T) {
	rec := ExtractHTML(googlePatentsPage, "WO2024033280A1")

	// Six figure images on the page: the cap keeps the first five, one of
	// those five has no src and is dropped.
	if len(rec.Images) != 4 {
		t.Fatalf("images = %d, want 4: %+v", len(rec.Images), rec.Images)
	}
	if rec.Images[0].URL != "https://img.example/fig1.png" {
		t.Fatalf("first image url = %q", rec.Images[0].URL)
	}
	for _, tc := range []struct {
		idx  int
		want bool
	}{
		{idx: 0, want: true},  // "Chemical formula 1"
		{idx: 1, want: true},  // "Figure 2"
		{idx: 2, want: false}, // "Apparatus diagram"
		{idx: 3, want: false}, // empty alt
	} {
		if rec.Images[tc.idx].IsStructure != tc.want {
			t.Fatalf("image %d (%q) structure = %v, want %v",
				tc.idx, rec.Images[tc.idx].Alt, rec.Images[tc.idx].IsStructure, tc.want)
		}
	}
}

func TestExtractHTMLImagesItempropFallback(t *testing.T) {
	rec := ExtractHTML(`<html><body>
		<img itemprop="image" src="/thumb.png" alt="compound 5"/>
	</body></html>`, "US1A1")
	if len(rec.Images) != 1 || !rec.Images[0].IsStructure {
		t.Fatalf("images = %+v", rec.Images)
	}
}

func TestExtractHTMLTitleFallbackChain(t *testing.T) {
	for _, tc := range []struct {
		markup string
		want   string
	}{
		{
			markup: `<html><head><meta property="og:title" content="Inhibitors - google patents"/></head></html>`,
			want:   "Inhibitors",
		},
		{
			markup: `<html><body><invention-title>Inhibitors of PI4K</invention-title></body></html>`,
			want:   "Inhibitors of PI4K",
		},
		{
			markup: `<html><body><h1 itemprop="title">  Inhibitors  </h1></body></html>`,
			want:   "Inhibitors",
		},
		{
			markup: `<html><body><h1>Unmarked heading</h1></body></html>`,
			want:   NotAvailable,
		},
	} {
		rec := ExtractHTML(tc.markup, "WO1A1")
		if rec.Title != tc.want {
			t.Fatalf("title = %q, want %q", rec.Title, tc.want)
		}
	}
}

func TestExtractHTMLMetaFallbacks(t *testing.T) {
	rec := ExtractHTML(`<html><head>
		<meta name="description" content=" Abstract from meta. "/>
		<meta name="DC.contributor" content="Beta Inc"/>
	</head><body></body></html>`, "WO1A1")
	if rec.Abstract != "Abstract from meta." {
		t.Fatalf("abstract = %q", rec.Abstract)
	}
	if rec.Company == nil || *rec.Company != "Beta Inc" {
		t.Fatalf("company = %v", rec.Company)
	}
}

func TestExtractHTMLAssigneeCurrentWins(t *testing.T) {
	rec := ExtractHTML(`<html><body>
		<dd itemprop="assigneeOriginal">Original Corp</dd>
		<dd itemprop="assigneeCurrent">Current Corp</dd>
	</body></html>`, "WO1A1")
	if rec.Company == nil || *rec.Company != "Current Corp" {
		t.Fatalf("company = %v, want Current Corp", rec.Company)
	}
}

func TestExtractHTMLClaimsTruncation(t *testing.T) {
	long := strings.Repeat("A claim about a compound. ", 250)
	rec := ExtractHTML(`<html><body><section itemprop="claims">`+long+`</section></body></html>`, "WO1A1")

	if !strings.HasSuffix(rec.Claims, truncationMarker) {
		t.Fatalf("claims not marked truncated: ...%q", rec.Claims[len(rec.Claims)-30:])
	}
	if got := utf8.RuneCountInString(rec.Claims); got != claimsCharCap+utf8.RuneCountInString(truncationMarker) {
		t.Fatalf("claims length = %d runes", got)
	}

	short := ExtractHTML(`<html><body><div class="description">Brief text.</div></body></html>`, "WO1A1")
	if short.Description != "Brief text." {
		t.Fatalf("description = %q", short.Description)
	}
}

func TestExtractHTMLMissingEverything(t *testing.T) {
	rec := ExtractHTML("<html><body><p>nothing here</p></body></html>", "WO2024033280A1")

	if rec.PatentID != "WO2024033280A1" {
		t.Fatalf("patent id = %q", rec.PatentID)
	}
	if rec.Title != NotAvailable || rec.Abstract != NotAvailable {
		t.Fatalf("title/abstract = %q / %q, want sentinels", rec.Title, rec.Abstract)
	}
	if rec.FilingDate != NotAvailable || rec.PublicationDate != NotAvailable {
		t.Fatalf("dates = %q / %q, want sentinels", rec.FilingDate, rec.PublicationDate)
	}
	if rec.Claims != "" || rec.Description != "" {
		t.Fatalf("claims/description = %q / %q, want empty", rec.Claims, rec.Description)
	}
	if rec.Company != nil {
		t.Fatalf("company = %q, want nil", *rec.Company)
	}
	if len(rec.Inventors) != 0 || len(rec.Images) != 0 {
		t.Fatalf("inventors/images = %v / %v", rec.Inventors, rec.Images)
	}
}

func TestExtractHTMLEmptyPatentID(t *testing.T) {
	rec := ExtractHTML("<html></html>", "")
	if rec.PatentID != NotAvailable {
		t.Fatalf("patent id = %q, want sentinel", rec.PatentID)
	}
}

const googlePatentsPage = `<!DOCTYPE html>
<html>
<head>
	<meta name="DC.title" content="Furopyridine inhibitors of PI4K - Google Patents"/>
	<meta property="og:title" content="should not be used"/>
	<meta name="description" content="should not be used either"/>
</head>
<body>
	<h1 itemprop="title">Furopyridine inhibitors of PI4K</h1>
	<section itemprop="abstract">
		<div class="abstract-text">Compounds of formula I are disclosed.</div>
		<div class="abstract-text">They inhibit PI4KIIIbeta.</div>
	</section>
	<dl>
		<dd itemprop="assigneeCurrent"><span>Acme Pharma AG</span></dd>
		<dd itemprop="inventor">Jane Doe</dd>
		<dd itemprop="inventor">John Roe</dd>
		<dd itemprop="inventor">Jane Doe</dd>
		<dd><time itemprop="filingDate">2023-08-09</time></dd>
		<dd><time itemprop="publicationDate">2024-02-15</time></dd>
	</dl>
	<section itemprop="claims">
		<div>1. A compound of formula I.</div>
		<div>2. The compound of claim 1.</div>
	</section>
	<img class="figures" src="https://img.example/fig1.png" alt="Chemical formula 1"/>
	<img class="figures" src="https://img.example/fig2.png" alt="Figure 2"/>
	<img class="figures" src="https://img.example/fig3.png" alt="Apparatus diagram"/>
	<img class="figures" alt="compound without src"/>
	<img class="figures" src="https://img.example/fig5.png" alt=""/>
	<img class="figures" src="https://img.example/fig6.png" alt="compound 6"/>
</body>
</html>`
