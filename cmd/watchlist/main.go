package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/joelkehle/patent-research/internal/patentfetch"
	"github.com/joelkehle/patent-research/internal/report"
	"github.com/joelkehle/patent-research/internal/watchlist"
)

const usage = `usage: watchlist [flags] <action> [args]

actions:
  list                      print every tracked patent
  add <number>              add a patent to -class (title fetched when omitted)
  remove <number>           remove a patent from -class
  import <file.csv>         bulk add "ID,note" lines into -class
  export                    print the watchlist as CSV`

func main() {
	fileFlag := flag.String("file", "", "watchlist JSON file (overrides WATCHLIST_PATH env var)")
	class := flag.String("class", watchlist.ClassChemistry, "classification code for add/remove/import")
	title := flag.String("title", "", "title for add (fetched from the patent page when empty)")
	notes := flag.String("notes", "", "notes for add")
	flag.Parse()

	path := *fileFlag
	if path == "" {
		path = os.Getenv("WATCHLIST_PATH")
	}

	fetcher := patentfetch.New(patentfetch.Config{})
	store, err := watchlist.New(watchlist.Config{
		Path: path,
		Titles: func(ctx context.Context, patentID string) (string, error) {
			rec, err := fetcher.Fetch(ctx, patentID)
			if err != nil {
				return "", err
			}
			return rec.Title, nil
		},
	})
	if err != nil {
		log.Fatalf("open watchlist (%s): %v", path, err)
	}

	ctx := context.Background()
	switch flag.Arg(0) {
	case "", "list":
		for _, e := range store.All() {
			fmt.Printf("%s\t%s\t%s\t%s\n", e.PatentID, e.Category, e.AddedDate, e.Title)
		}
	case "add":
		if flag.NArg() != 2 {
			log.Fatal(usage)
		}
		entry, err := store.Add(ctx, *class, flag.Arg(1), *title, *notes)
		if err != nil {
			log.Fatalf("add failed patent=%s class=%s err=%v", flag.Arg(1), *class, err)
		}
		fmt.Printf("added %s (%s)\n", entry.PatentID, entry.Title)
	case "remove":
		if flag.NArg() != 2 {
			log.Fatal(usage)
		}
		if err := store.Remove(*class, flag.Arg(1)); err != nil {
			log.Fatalf("remove failed patent=%s class=%s err=%v", flag.Arg(1), *class, err)
		}
		fmt.Printf("removed %s\n", flag.Arg(1))
	case "import":
		if flag.NArg() != 2 {
			log.Fatal(usage)
		}
		data, err := os.ReadFile(flag.Arg(1))
		if err != nil {
			log.Fatalf("read csv: %v", err)
		}
		added, failed := store.ImportCSV(ctx, *class, string(data))
		fmt.Printf("imported added=%d failed=%d\n", added, failed)
	case "export":
		out, err := report.WatchlistCSV(store.All())
		if err != nil {
			log.Fatalf("export failed: %v", err)
		}
		os.Stdout.Write(out)
	default:
		log.Fatal(usage)
	}
}
