package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/fieldlens/photoverify/internal/app"
)

func main() {
	var project string
	var days int
	flag.StringVar(&project, "project", "", "project key to scan (empty scans every configured project)")
	flag.IntVar(&days, "days", 0, "lookback window in days (0 uses the configured default)")
	flag.Parse()

	application, err := app.New()
	if err != nil {
		fmt.Printf("init app: %v\n", err)
		os.Exit(1)
	}
	defer application.Close()

	ctx := context.Background()

	keys := make([]string, 0, len(application.Cfg.Projects))
	if project != "" {
		keys = append(keys, project)
	} else {
		for _, p := range application.Cfg.Projects {
			keys = append(keys, p.Key)
		}
	}

	failed := false
	for _, key := range keys {
		out, err := application.ScanHashes(ctx, key, days)
		if err != nil {
			fmt.Printf("scan failed for %s: %v\n", key, err)
			failed = true
			continue
		}
		fmt.Printf("%s: found=%d processed=%d already_indexed=%d file_not_found=%d hash_errors=%d\n",
			key, out.Found, out.Processed, out.AlreadyIndexed, out.FileNotFound, out.HashErrors)
	}
	if failed {
		os.Exit(1)
	}
}
