package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joelkehle/patent-research/internal/httpapi"
	"github.com/joelkehle/patent-research/internal/patentanalysis"
	"github.com/joelkehle/patent-research/internal/patentfetch"
	"github.com/joelkehle/patent-research/internal/recordstore"
	"github.com/joelkehle/patent-research/internal/tracing"
	"github.com/joelkehle/patent-research/internal/watchlist"
)

// unconfiguredCaller stands in when no API key is present, so the analyze
// route still answers with the sentinel record instead of going away.
type unconfiguredCaller struct{ err error }

func (c unconfiguredCaller) GenerateJSON(context.Context, string) (string, error) {
	return "", c.err
}

func main() {
	dbFlag := flag.String("db", "", "path to SQLite record cache (overrides DB_PATH env var)")
	watchFlag := flag.String("watchlist", "", "path to watchlist JSON file (overrides WATCHLIST_PATH env var)")
	flag.Parse()

	addr := ":8080"
	if port := os.Getenv("PORT"); port != "" {
		addr = ":" + port
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	shutdownTracing, err := tracing.Init(ctx, "patent-server")
	if err != nil {
		log.Fatalf("tracing init: %v", err)
	}
	defer func() { _ = shutdownTracing(context.Background()) }()

	fetcher := patentfetch.New(patentfetch.Config{})

	var caller patentanalysis.LLMCaller
	anthropicCaller, err := patentanalysis.NewAnthropicCallerFromEnv()
	if err != nil {
		log.Printf("analysis degraded: %v", err)
		caller = unconfiguredCaller{err: err}
	} else {
		caller = anthropicCaller
	}

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
		log.Printf("record cache path=%s", dbPath)
	} else {
		log.Printf("record cache disabled (no -db or DB_PATH)")
	}

	watchPath := *watchFlag
	if watchPath == "" {
		watchPath = os.Getenv("WATCHLIST_PATH")
	}
	watch, err := watchlist.New(watchlist.Config{
		Path: watchPath,
		Titles: func(ctx context.Context, patentID string) (string, error) {
			rec, err := fetcher.Fetch(ctx, patentID)
			if err != nil {
				return "", err
			}
			return rec.Title, nil
		},
	})
	if err != nil {
		log.Fatalf("open watchlist (%s): %v", watchPath, err)
	}

	handler := httpapi.NewServer(httpapi.Config{
		Fetcher:  fetcher,
		Analyzer: patentanalysis.NewRequester(caller),
		Records:  records,
		Watch:    watch,
	})
	srv := &http.Server{Addr: addr, Handler: handler}

	go func() {
		<-ctx.Done()
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	log.Printf("patent server listening addr=%s", addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatalf("server: %v", err)
	}
	log.Println("patent server stopped")
}
