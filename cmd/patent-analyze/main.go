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
	"github.com/joelkehle/patent-research/internal/patentfetch"
	"github.com/joelkehle/patent-research/internal/recordstore"
	"github.com/joelkehle/patent-research/internal/report"
	"github.com/joelkehle/patent-research/internal/tracing"
)

func main() {
	dbFlag := flag.String("db", "", "path to SQLite record cache (overrides DB_PATH env var)")
	reportPath := flag.String("report", "", "also write a markdown report to this path")
	refresh := flag.Bool("refresh", false, "ignore cached record and analysis")
	flag.Parse()

	if flag.NArg() != 1 {
		log.Fatal("usage: patent-analyze [flags] <number>")
	}
	id := patentdoc.Normalize(flag.Arg(0))

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	shutdownTracing, err := tracing.Init(ctx, "patent-analyze")
	if err != nil {
		log.Fatalf("tracing init: %v", err)
	}
	defer func() { _ = shutdownTracing(context.Background()) }()

	dbPath := *dbFlag
	if dbPath == "" {
		dbPath = os.Getenv("DB_PATH")
	}
	var records *recordstore.Store
	if dbPath != "" {
		records, err = recordstore.Open(dbPath)
		if err != nil {
			log.Fatalf("open record cache (%s): %v", dbPath, err)
		}
		defer records.Close()
	}

	rec, cached := loadRecord(ctx, records, id, *refresh)
	log.Printf("record ready patent=%s cached=%t", id, cached)

	caller, err := patentanalysis.NewAnthropicCallerFromEnv()
	if err != nil {
		log.Fatalf("analysis unavailable: %v", err)
	}
	analysis, err := patentanalysis.NewRequester(caller).Request(ctx, rec)
	if err != nil {
		// The sentinel record is still printable; the error already logged.
		log.Printf("analysis degraded patent=%s err=%v", id, err)
	} else if records != nil {
		if serr := records.SaveAnalysis(id, analysis); serr != nil {
			log.Printf("analysis cache save failed patent=%s err=%v", id, serr)
		}
	}

	out, err := json.MarshalIndent(analysis, "", "  ")
	if err != nil {
		log.Fatalf("encode analysis: %v", err)
	}
	fmt.Println(string(out))

	if *reportPath != "" {
		markdown := report.BuildMarkdown(rec, analysis)
		if err := os.WriteFile(*reportPath, []byte(markdown), 0o644); err != nil {
			log.Fatalf("write report: %v", err)
		}
		log.Printf("report written path=%s", *reportPath)
	}
}

func loadRecord(ctx context.Context, records *recordstore.Store, id string, refresh bool) (patentdoc.Record, bool) {
	if records != nil && !refresh {
		if stored, err := records.GetRecord(id); err == nil {
			return stored.Record, true
		}
	}
	rec, err := patentfetch.New(patentfetch.Config{}).Fetch(ctx, id)
	if err != nil {
		log.Fatalf("fetch failed patent=%s err=%v", id, err)
	}
	if records != nil {
		if serr := records.SaveRecord(rec); serr != nil {
			log.Printf("record cache save failed patent=%s err=%v", id, serr)
		}
	}
	return rec, false
}
