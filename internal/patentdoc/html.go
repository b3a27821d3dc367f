package patentdoc

import (
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

const (
	claimsCharCap      = 5000
	descriptionCharCap = 10000
	maxFigureImages    = 5
)

var googleSuffixRe = regexp.MustCompile(`(?i)\s*-\s*Google Patents\s*$`)

var structureKeywords = []string{"formula", "structure", "compound", "fig"}

// ExtractHTML pulls the patent fields out of a Google-Patents-style detail
// page. Every field runs its own ordered selector chain, first match wins,
// and misses degrade to the same sentinels the XML extractor uses. patentID
// is the canonical identifier the page was fetched under.
func ExtractHTML(markup string, patentID string) Record {
	if patentID == "" {
		patentID = NotAvailable
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(markup))
	if err != nil {
		rec := EmptyRecord()
		rec.PatentID = patentID
		return rec
	}
	return Record{
		PatentID:        patentID,
		Title:           htmlTitle(doc),
		Abstract:        htmlAbstract(doc),
		Company:         htmlCompany(doc),
		Claims:          htmlClaims(doc),
		Description:     htmlDescription(doc),
		Inventors:       htmlInventors(doc),
		FilingDate:      htmlTimeText(doc, "filingDate"),
		PublicationDate: htmlTimeText(doc, "publicationDate"),
		Images:          htmlImages(doc),
	}
}

func htmlTitle(doc *goquery.Document) string {
	selectors := []string{
		`meta[name="DC.title"]`,
		`meta[property="og:title"]`,
		`invention-title`,
		`h1[itemprop="title"]`,
	}
	for _, selector := range selectors {
		sel := doc.Find(selector).First()
		if sel.Length() == 0 {
			continue
		}
		title, ok := sel.Attr("content")
		if !ok || title == "" {
			title = sel.Text()
		}
		if title == "" {
			continue
		}
		return googleSuffixRe.ReplaceAllString(strings.TrimSpace(title), "")
	}
	return NotAvailable
}

func htmlAbstract(doc *goquery.Document) string {
	if sel := firstMatch(doc, "div.abstract", `section[itemprop="abstract"]`); sel != nil {
		return joinedText(sel, " ")
	}
	if desc, ok := doc.Find(`meta[name="description"]`).First().Attr("content"); ok && desc != "" {
		return strings.TrimSpace(desc)
	}
	return NotAvailable
}

func htmlCompany(doc *goquery.Document) *string {
	if sel := firstMatch(doc, `dd[itemprop="assigneeCurrent"]`, `dd[itemprop="assigneeOriginal"]`); sel != nil {
		name := joinedText(sel, "")
		return &name
	}
	if name, ok := doc.Find(`meta[name="DC.contributor"]`).First().Attr("content"); ok && name != "" {
		name = strings.TrimSpace(name)
		return &name
	}
	return nil
}

func htmlInventors(doc *goquery.Document) []string {
	var inventors []string
	doc.Find(`dd[itemprop="inventor"]`).Each(func(_ int, s *goquery.Selection) {
		if name := joinedText(s, ""); name != "" {
			inventors = append(inventors, name)
		}
	})
	return inventors
}

func htmlClaims(doc *goquery.Document) string {
	sel := firstMatch(doc, `section[itemprop="claims"]`, "div.claims")
	if sel == nil {
		return ""
	}
	return capRunes(joinedText(sel, "\n"), claimsCharCap)
}

func htmlDescription(doc *goquery.Document) string {
	sel := firstMatch(doc, `section[itemprop="description"]`, "div.description")
	if sel == nil {
		return ""
	}
	return capRunes(joinedText(sel, " "), descriptionCharCap)
}

func htmlTimeText(doc *goquery.Document, itemprop string) string {
	sel := doc.Find(`time[itemprop="` + itemprop + `"]`).First()
	if sel.Length() == 0 {
		return NotAvailable
	}
	return joinedText(sel, "")
}

// htmlImages takes the first five figure images and flags the ones whose
// alt text suggests a chemical structure drawing.
func htmlImages(doc *goquery.Document) []Image {
	figures := doc.Find("img.figures")
	if figures.Length() == 0 {
		figures = doc.Find(`img[itemprop="image"]`)
	}
	var images []Image
	figures.EachWithBreak(func(i int, s *goquery.Selection) bool {
		if i >= maxFigureImages {
			return false
		}
		src, ok := s.Attr("src")
		if !ok || src == "" {
			return true
		}
		alt := s.AttrOr("alt", "")
		images = append(images, Image{
			URL:         src,
			Alt:         alt,
			IsStructure: isStructureAlt(alt),
		})
		return true
	})
	return images
}

func isStructureAlt(alt string) bool {
	alt = strings.ToLower(alt)
	for _, kw := range structureKeywords {
		if strings.Contains(alt, kw) {
			return true
		}
	}
	return false
}

// firstMatch tries each selector in turn and returns the first element the
// earliest-matching selector finds, or nil. Later selectors are only
// consulted when earlier ones match nothing at all.
func firstMatch(doc *goquery.Document, selectors ...string) *goquery.Selection {
	for _, selector := range selectors {
		if sel := doc.Find(selector).First(); sel.Length() > 0 {
			return sel
		}
	}
	return nil
}

// joinedText collects the stripped text segments under the selection and
// joins the non-empty ones with sep.
func joinedText(sel *goquery.Selection, sep string) string {
	var parts []string
	for _, n := range sel.Nodes {
		collectText(n, &parts)
	}
	return strings.Join(parts, sep)
}

func collectText(n *html.Node, parts *[]string) {
	if n.Type == html.TextNode {
		if t := strings.TrimSpace(n.Data); t != "" {
			*parts = append(*parts, t)
		}
		return
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		collectText(c, parts)
	}
}

// capRunes cuts s at limit runes and appends the truncation marker. The cut
// is by runes, not bytes, so multibyte text never splits mid-character.
func capRunes(s string, limit int) string {
	r := []rune(s)
	if len(r) <= limit {
		return s
	}
	return string(r[:limit]) + truncationMarker
}
