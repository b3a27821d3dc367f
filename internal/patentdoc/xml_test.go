package patentdoc

import (
	"fmt"
	"strings"
	"testing"
)

func TestExtractXMLPublicationReference(t *testing.T) {
	rec := ExtractXML([]byte(`<patent-document>
		<bibliographic-data>
			<publication-reference>
				<document-id>
					<country>WO</country>
					<doc-number>2024/033280</doc-number>
					<kind>A1</kind>
				</document-id>
			</publication-reference>
		</bibliographic-data>
	</patent-document>`))
	if rec.PatentID != "WO2024033280A1" {
		t.Fatalf("patent id = %q, want WO2024033280A1", rec.PatentID)
	}
}

func TestExtractXMLSkipsIncompletePublicationReference(t *testing.T) {
	rec := ExtractXML([]byte(`<patent-document>
		<publication-reference><country>WO</country></publication-reference>
		<publication-reference><country>EP</country><doc-number>4123456</doc-number><kind>B1</kind></publication-reference>
	</patent-document>`))
	if rec.PatentID != "EP4123456B1" {
		t.Fatalf("patent id = %q, want EP4123456B1", rec.PatentID)
	}
}

func TestExtractXMLNamespaced(t *testing.T) {
	rec := ExtractXML([]byte(namespacedPatentXML))
	if rec.PatentID != "WO2024033280A1" {
		t.Fatalf("patent id = %q", rec.PatentID)
	}
	if rec.Title != "Furopyridine inhibitors" {
		t.Fatalf("title = %q", rec.Title)
	}
	if rec.TitleNonEnglish {
		t.Fatal("english title flagged as non-english")
	}
	if rec.Abstract != "Compounds of formula I.\n\nSalts thereof." {
		t.Fatalf("abstract = %q", rec.Abstract)
	}
	if rec.Company == nil || *rec.Company != "Acme Pharma AG" {
		t.Fatalf("company = %v", rec.Company)
	}
}

func TestExtractXMLCompanyDeduplication(t *testing.T) {
	for _, tc := range []struct {
		names []string
		want  string
	}{
		{names: []string{"Acme Corp", "Acme Corp"}, want: "Acme Corp"},
		{names: []string{"Acme Corp", "Beta Inc"}, want: "Acme Corp, Beta Inc"},
		{names: []string{"Beta Inc", "Acme Corp", "Beta Inc"}, want: "Beta Inc, Acme Corp"},
	} {
		rec := ExtractXML([]byte(applicantsXML(tc.names...)))
		if rec.Company == nil {
			t.Fatalf("company nil for %v", tc.names)
		}
		if *rec.Company != tc.want {
			t.Fatalf("company = %q, want %q", *rec.Company, tc.want)
		}
	}
}

func TestExtractXMLCompanyFromAssignees(t *testing.T) {
	rec := ExtractXML([]byte(`<us-patent-grant>
		<assignees>
			<assignee><orgname>Gamma LLC</orgname></assignee>
		</assignees>
	</us-patent-grant>`))
	if rec.Company == nil || *rec.Company != "Gamma LLC" {
		t.Fatalf("company = %v, want Gamma LLC", rec.Company)
	}
}

func TestExtractXMLCompanyCombinesApplicantsAndAssignees(t *testing.T) {
	rec := ExtractXML([]byte(`<patent-document>
		<assignees><assignee><name>Delta SA</name></assignee></assignees>
		<applicants><applicant><name>Acme Corp</name></applicant></applicants>
	</patent-document>`))
	if rec.Company == nil || *rec.Company != "Acme Corp, Delta SA" {
		t.Fatalf("company = %v, want applicants before assignees", rec.Company)
	}
}

func TestExtractXMLCompanyNameTagPreference(t *testing.T) {
	// "name" wins over "orgname" even when orgname comes first in the
	// document.
	rec := ExtractXML([]byte(`<patent-document>
		<applicants>
			<applicant>
				<addressbook>
					<orgname>Wrong Corp</orgname>
					<name>Right Corp</name>
				</addressbook>
			</applicant>
		</applicants>
	</patent-document>`))
	if rec.Company == nil || *rec.Company != "Right Corp" {
		t.Fatalf("company = %v, want Right Corp", rec.Company)
	}
}

func TestExtractXMLCompanyAbsent(t *testing.T) {
	rec := ExtractXML([]byte(`<patent-document><applicants></applicants></patent-document>`))
	if rec.Company != nil {
		t.Fatalf("company = %q, want nil", *rec.Company)
	}
}

func TestExtractXMLTitleFallsBackToAnyLanguage(t *testing.T) {
	rec := ExtractXML([]byte(`<patent-document>
		<invention-title lang="fr">Inhibiteurs de furopyridine</invention-title>
	</patent-document>`))
	if rec.Title != "Inhibiteurs de furopyridine" {
		t.Fatalf("title = %q, want the French title", rec.Title)
	}
	if !rec.TitleNonEnglish {
		t.Fatal("non-english fallback not flagged")
	}
}

func TestExtractXMLTitlePrefersEnglish(t *testing.T) {
	rec := ExtractXML([]byte(`<patent-document>
		<invention-title lang="fr">Inhibiteurs</invention-title>
		<invention-title lang="en">Inhibitors</invention-title>
	</patent-document>`))
	if rec.Title != "Inhibitors" {
		t.Fatalf("title = %q, want the English title", rec.Title)
	}
	if rec.TitleNonEnglish {
		t.Fatal("english title flagged as non-english")
	}
}

func TestExtractXMLAbstractEnglishOnly(t *testing.T) {
	// The abstract never falls back to other languages, while the title
	// does. The asymmetry is intentional and kept.
	rec := ExtractXML([]byte(`<patent-document>
		<invention-title lang="fr">Inhibiteurs</invention-title>
		<abstract lang="fr"><p>Composés de formule I.</p></abstract>
	</patent-document>`))
	if rec.Abstract != NotAvailable {
		t.Fatalf("abstract = %q, want %q", rec.Abstract, NotAvailable)
	}
	if rec.Title == NotAvailable {
		t.Fatal("title should still fall back to French")
	}
}

func TestExtractXMLDescriptionFirstFiftyParagraphs(t *testing.T) {
	var b strings.Builder
	b.WriteString(`<patent-document><description lang="en">`)
	for i := 1; i <= 60; i++ {
		fmt.Fprintf(&b, "<p>para%03d</p>", i)
	}
	b.WriteString(`</description></patent-document>`)

	rec := ExtractXML([]byte(b.String()))
	if strings.Contains(rec.Description, "para051") {
		t.Fatalf("description kept paragraphs past 50: %q", rec.Description)
	}
	if !strings.HasSuffix(rec.Description, "para050") {
		t.Fatalf("description should end at paragraph 50, got %q", rec.Description)
	}
	if strings.Contains(rec.Description, truncationMarker) {
		t.Fatal("paragraph cap must not append a truncation marker")
	}
	want := 50
	if got := len(strings.Fields(rec.Description)); got != want {
		t.Fatalf("description has %d paragraphs, want %d", got, want)
	}
}

func TestExtractXMLDescriptionImageOnly(t *testing.T) {
	rec := ExtractXML([]byte(`<patent-document>
		<description><img src="page1.tif"/></description>
	</patent-document>`))
	if rec.Description != "" {
		t.Fatalf("description = %q, want empty for image-only filings", rec.Description)
	}
}

func TestExtractXMLMalformed(t *testing.T) {
	rec := ExtractXML([]byte(`<patent-document><invention-title lang="en">Cut off`))
	assertAllSentinel(t, rec)

	rec = ExtractXML([]byte("not xml at all"))
	assertAllSentinel(t, rec)
}

func TestExtractXMLWellFormedButEmpty(t *testing.T) {
	rec := ExtractXML([]byte(`<patent-document></patent-document>`))
	assertAllSentinel(t, rec)
}

func assertAllSentinel(t *testing.T, rec Record) {
	t.Helper()
	if rec.PatentID != NotAvailable {
		t.Fatalf("patent id = %q, want sentinel", rec.PatentID)
	}
	if rec.Title != NotAvailable {
		t.Fatalf("title = %q, want sentinel", rec.Title)
	}
	if rec.Abstract != NotAvailable {
		t.Fatalf("abstract = %q, want sentinel", rec.Abstract)
	}
	if rec.Description != "" {
		t.Fatalf("description = %q, want empty", rec.Description)
	}
	if rec.Company != nil {
		t.Fatalf("company = %q, want nil", *rec.Company)
	}
}

func applicantsXML(names ...string) string {
	var b strings.Builder
	b.WriteString("<patent-document><applicants>")
	for _, name := range names {
		fmt.Fprintf(&b, "<applicant><name>%s</name></applicant>", name)
	}
	b.WriteString("</applicants></patent-document>")
	return b.String()
}

const namespacedPatentXML = `<?xml version="1.0" encoding="UTF-8"?>
<wo:patent-document xmlns:wo="http://www.wipo.int/standards/XMLSchema/ST96">
	<wo:bibliographic-data>
		<wo:publication-reference>
			<wo:document-id>
				<wo:country>WO</wo:country>
				<wo:doc-number>2024/033 280</wo:doc-number>
				<wo:kind>A1</wo:kind>
			</wo:document-id>
		</wo:publication-reference>
		<wo:invention-title lang="en">Furopyridine inhibitors</wo:invention-title>
		<wo:applicants>
			<wo:applicant>
				<wo:addressbook><wo:name>Acme Pharma AG</wo:name></wo:addressbook>
			</wo:applicant>
		</wo:applicants>
	</wo:bibliographic-data>
	<wo:abstract lang="en">
		<wo:p>Compounds of formula I.</wo:p>
		<wo:p>Salts thereof.</wo:p>
	</wo:abstract>
</wo:patent-document>`
