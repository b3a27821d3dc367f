package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/joelkehle/patent-research/internal/patentanalysis"
	"github.com/joelkehle/patent-research/internal/patentdoc"
	"github.com/joelkehle/patent-research/internal/recordstore"
	"github.com/joelkehle/patent-research/internal/report"
)

func main() {
	idFlag := flag.String("id", "", "canonical patent id to load from the record cache")
	dbFlag := flag.String("db", "", "path to SQLite record cache (overrides DB_PATH env var)")
	recordPath := flag.String("record", "", "read the patent record from a JSON file instead of the cache")
	analysisPath := flag.String("analysis", "", "read the analysis from a JSON file (optional with -record)")
	format := flag.String("format", "md", "output format: md, html or pdf")
	outputPath := flag.String("output", "", "output path (defaults to stdout; required for pdf)")
	flag.Parse()

	rec, analysis := loadInputs(*idFlag, *dbFlag, *recordPath, *analysisPath)
	markdown := report.BuildMarkdown(rec, analysis)

	var out []byte
	switch *format {
	case "md":
		out = []byte(markdown)
	case "html":
		htmlDoc, err := report.RenderHTML(markdown)
		if err != nil {
			log.Fatalf("render html: %v", err)
		}
		out = []byte(htmlDoc)
	case "pdf":
		if *outputPath == "" {
			log.Fatal("-output is required with -format pdf")
		}
		ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer cancel()
		pdf, err := report.NewPDFRenderer().Render(ctx, markdown)
		if err != nil {
			log.Fatalf("render pdf: %v", err)
		}
		out = pdf
	default:
		log.Fatalf("unknown format %q (want md, html or pdf)", *format)
	}

	if *outputPath == "" {
		fmt.Print(string(out))
		return
	}
	if err := os.WriteFile(*outputPath, out, 0o644); err != nil {
		log.Fatalf("write output: %v", err)
	}
	log.Printf("report written path=%s format=%s", *outputPath, *format)
}

// loadInputs resolves the record and analysis either from the cache (-id)
// or from JSON files (-record, optionally -analysis). A missing analysis
// renders as the failure sentinel rather than aborting.
func loadInputs(id, dbPath, recordPath, analysisPath string) (patentdoc.Record, patentanalysis.Record) {
	if recordPath != "" {
		var rec patentdoc.Record
		readJSONFile(recordPath, &rec)
		analysis := patentanalysis.FailedRecord()
		if analysisPath != "" {
			readJSONFile(analysisPath, &analysis)
		}
		return rec, analysis
	}

	if id == "" {
		log.Fatal("usage: render-patent-report -id WO2024033280A1 [-db cache.db] | -record rec.json [-analysis a.json]")
	}
	if dbPath == "" {
		dbPath = os.Getenv("DB_PATH")
	}
	if dbPath == "" {
		log.Fatal("-db or DB_PATH is required with -id")
	}
	store, err := recordstore.Open(dbPath)
	if err != nil {
		log.Fatalf("open record cache (%s): %v", dbPath, err)
	}
	defer store.Close()

	stored, err := store.GetRecord(id)
	if err != nil {
		log.Fatalf("load record patent=%s err=%v", id, err)
	}
	analysis := patentanalysis.FailedRecord()
	if sa, err := store.GetAnalysis(id); err == nil {
		analysis = sa.Record
	} else {
		log.Printf("no cached analysis patent=%s, rendering with sentinel", id)
	}
	return stored.Record, analysis
}

func readJSONFile(path string, dst any) {
	data, err := os.ReadFile(path)
	if err != nil {
		log.Fatalf("read %s: %v", path, err)
	}
	if err := json.Unmarshal(data, dst); err != nil {
		log.Fatalf("decode %s: %v", path, err)
	}
}
