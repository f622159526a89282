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
	var duplicates bool
	var photoList bool
	var days int
	flag.StringVar(&project, "project", "", "project key to rebuild (empty rebuilds every configured project)")
	flag.BoolVar(&duplicates, "duplicates", true, "rebuild the duplicate cache")
	flag.BoolVar(&photoList, "photolist", false, "rebuild the photo list cache")
	flag.IntVar(&days, "days", 0, "photo list lookback window in days (0 uses the configured default)")
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
		if duplicates {
			out, err := application.RebuildDuplicates(ctx, key)
			if err != nil {
				fmt.Printf("duplicate rebuild failed for %s: %v\n", key, err)
				failed = true
			} else {
				fmt.Printf("%s: duplicate groups=%d members=%d took=%s\n",
					key, out.Groups, out.Members, out.Took)
			}
		}
		if photoList {
			out, err := application.RebuildPhotoList(ctx, key, days)
			if err != nil {
				fmt.Printf("photo list rebuild failed for %s: %v\n", key, err)
				failed = true
			} else {
				fmt.Printf("%s: photo list partitions=%d photos=%d dropped=%d failed=%d\n",
					key, out.Partitions, out.Photos, out.Dropped, out.Failed)
			}
		}
	}
	if failed {
		os.Exit(1)
	}
}
