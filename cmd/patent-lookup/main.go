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

	"github.com/joelkehle/patent-research/internal/patentdoc"
	"github.com/joelkehle/patent-research/internal/patentfetch"
	"github.com/joelkehle/patent-research/internal/tracing"
)

func main() {
	xmlPath := flag.String("xml", "", "extract from a local patent XML file instead of fetching")
	baseURL := flag.String("base-url", "", "override the patent page base URL")
	flag.Parse()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	shutdownTracing, err := tracing.Init(ctx, "patent-lookup")
	if err != nil {
		log.Fatalf("tracing init: %v", err)
	}
	defer func() { _ = shutdownTracing(context.Background()) }()

	var rec patentdoc.Record
	switch {
	case *xmlPath != "":
		data, err := os.ReadFile(*xmlPath)
		if err != nil {
			log.Fatalf("read xml: %v", err)
		}
		rec = patentdoc.ExtractXML(data)
	case flag.NArg() == 1:
		number := flag.Arg(0)
		fetcher := patentfetch.New(patentfetch.Config{BaseURL: *baseURL})
		rec, err = fetcher.Fetch(ctx, number)
		if err != nil {
			log.Fatalf("fetch failed number=%s err=%v", number, err)
		}
	default:
		log.Fatal("usage: patent-lookup <number> | patent-lookup -xml file.xml")
	}

	out, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		log.Fatalf("encode record: %v", err)
	}
	fmt.Println(string(out))
}
