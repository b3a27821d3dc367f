package patentdoc

import (
	"bytes"
	"encoding/xml"
	"errors"
	"io"
	"strings"

	"golang.org/x/net/html/charset"
)

// partyNameTags are the name elements used by the different patent offices,
// in preference order per applicant.
var partyNameTags = []string{"name", "n", "orgname", "organization-name"}

// ExtractXML pulls the bibliographic fields out of WIPO, EPO, or USPTO
// patent XML. Matching is on local tag names only, so namespaced and
// plain dialects both work. It never fails: unparseable input yields the
// all-sentinel record, and each field defaults independently when its
// elements are missing.
func ExtractXML(data []byte) Record {
	root, err := parseXMLTree(data)
	if err != nil {
		return EmptyRecord()
	}
	title, nonEnglish := xmlTitle(root)
	return Record{
		PatentID:        xmlPatentID(root),
		Title:           title,
		TitleNonEnglish: nonEnglish,
		Abstract:        xmlAbstract(root),
		Description:     xmlDescription(root),
		Company:         xmlCompany(root),
	}
}

// xmlPatentID builds country + doc-number + kind from the first
// publication-reference subtree that carries both a country and a number.
func xmlPatentID(root *xmlNode) string {
	id := NotAvailable
	root.each(func(n *xmlNode) bool {
		if n.tag != "publication-reference" {
			return false
		}
		var country, docNumber, kind string
		n.each(func(c *xmlNode) bool {
			if c.text == "" {
				return false
			}
			switch c.tag {
			case "country":
				country = strings.TrimSpace(c.text)
			case "doc-number":
				v := strings.TrimSpace(c.text)
				v = strings.ReplaceAll(v, "/", "")
				docNumber = strings.ReplaceAll(v, " ", "")
			case "kind":
				kind = strings.TrimSpace(c.text)
			}
			return false
		})
		if country != "" && docNumber != "" {
			id = country + docNumber + kind
			return true
		}
		return false
	})
	return id
}

// xmlCompany collects applicant names (WIPO) then assignee names (USPTO),
// deduplicates preserving first-seen order, and joins with ", ". Nil when
// nothing was found.
func xmlCompany(root *xmlNode) *string {
	var companies []string
	collect := func(blockTag, partyTag string) {
		root.each(func(n *xmlNode) bool {
			if n.tag != blockTag {
				return false
			}
			n.each(func(p *xmlNode) bool {
				if p.tag == partyTag {
					if name := partyName(p); name != "" {
						companies = append(companies, name)
					}
				}
				return false
			})
			return false
		})
	}
	collect("applicants", "applicant")
	collect("assignees", "assignee")

	if len(companies) == 0 {
		return nil
	}
	seen := make(map[string]bool, len(companies))
	deduped := companies[:0]
	for _, c := range companies {
		if seen[c] {
			continue
		}
		seen[c] = true
		deduped = append(deduped, c)
	}
	joined := strings.Join(deduped, ", ")
	return &joined
}

// partyName tries each known name tag in turn against the applicant or
// assignee subtree and returns the first non-empty hit.
func partyName(party *xmlNode) string {
	for _, tag := range partyNameTags {
		var name string
		party.each(func(n *xmlNode) bool {
			if n.tag == tag && n.text != "" {
				name = strings.TrimSpace(n.text)
				return true
			}
			return false
		})
		if name != "" {
			return name
		}
	}
	return ""
}

// xmlTitle prefers an English invention-title and otherwise falls back to
// the first title in any language, reporting the fallback in the second
// return.
func xmlTitle(root *xmlNode) (string, bool) {
	var title string
	root.each(func(n *xmlNode) bool {
		if n.tag == "invention-title" && n.attrs["lang"] == "en" && n.text != "" {
			title = strings.TrimSpace(n.text)
			return true
		}
		return false
	})
	if title != "" {
		return title, false
	}
	root.each(func(n *xmlNode) bool {
		if n.tag == "invention-title" && n.text != "" {
			title = strings.TrimSpace(n.text)
			return true
		}
		return false
	})
	if title != "" {
		return title, true
	}
	return NotAvailable, false
}

// xmlAbstract joins the paragraphs of the first English abstract with blank
// lines. Unlike the title there is no fallback to other languages; that
// asymmetry matches long-standing caller expectations and stays.
func xmlAbstract(root *xmlNode) string {
	result := NotAvailable
	root.each(func(n *xmlNode) bool {
		if n.tag != "abstract" || n.attrs["lang"] != "en" {
			return false
		}
		paras := paragraphTexts(n)
		if len(paras) == 0 {
			return false
		}
		result = strings.Join(paras, "\n\n")
		return true
	})
	return result
}

// xmlDescription space-joins at most the first 50 paragraphs of the first
// description that has any. Many WIPO filings carry the description as TIF
// images only; those yield "" and callers fall back to the abstract.
func xmlDescription(root *xmlNode) string {
	result := ""
	root.each(func(n *xmlNode) bool {
		if n.tag != "description" {
			return false
		}
		paras := paragraphTexts(n)
		if len(paras) == 0 {
			return false
		}
		if len(paras) > 50 {
			paras = paras[:50]
		}
		result = strings.Join(paras, " ")
		return true
	})
	return result
}

func paragraphTexts(n *xmlNode) []string {
	var paras []string
	n.each(func(p *xmlNode) bool {
		if p.tag == "p" && p.text != "" {
			paras = append(paras, strings.TrimSpace(p.text))
		}
		return false
	})
	return paras
}

// xmlNode is a minimal element tree: local tag name, attributes by local
// name, the character data in front of the first child element, and the
// child elements in document order.
type xmlNode struct {
	tag      string
	attrs    map[string]string
	text     string
	children []*xmlNode
}

// each walks the subtree rooted at n, including n itself, in document
// order. Returning true from fn stops the walk.
func (n *xmlNode) each(fn func(*xmlNode) bool) bool {
	if fn(n) {
		return true
	}
	for _, c := range n.children {
		if c.each(fn) {
			return true
		}
	}
	return false
}

func parseXMLTree(data []byte) (*xmlNode, error) {
	dec := xml.NewDecoder(bytes.NewReader(data))
	dec.CharsetReader = charset.NewReaderLabel

	var root *xmlNode
	var stack []*xmlNode
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		switch t := tok.(type) {
		case xml.StartElement:
			n := &xmlNode{tag: t.Name.Local}
			if len(t.Attr) > 0 {
				n.attrs = make(map[string]string, len(t.Attr))
				for _, a := range t.Attr {
					n.attrs[a.Name.Local] = a.Value
				}
			}
			if len(stack) > 0 {
				parent := stack[len(stack)-1]
				parent.children = append(parent.children, n)
			} else if root == nil {
				root = n
			} else {
				return nil, errors.New("content after document element")
			}
			stack = append(stack, n)
		case xml.EndElement:
			if len(stack) == 0 {
				return nil, errors.New("unbalanced end element")
			}
			stack = stack[:len(stack)-1]
		case xml.CharData:
			if len(stack) > 0 {
				n := stack[len(stack)-1]
				if len(n.children) == 0 {
					n.text += string(t)
				}
			}
		}
	}
	if root == nil {
		return nil, errors.New("no document element")
	}
	if len(stack) != 0 {
		return nil, errors.New("unclosed elements")
	}
	return root, nil
}
