// Package casefinder finds Indian case law similar to a free-text fact pattern.
//
// Results come from the Indian Kanoon search page, are ranked by lexical
// overlap with the fact pattern and cached per query for a fixed lifetime.
// The cache lives in a directory of JSON files by default; BadgerDB, Redis
// and Valkey are available as alternatives.
//
//	finder, err := casefinder.New(ctx, casefinder.WithFileCache("cache"))
//	if err != nil {
//	    return err
//	}
//	defer finder.Close()
//
//	go finder.RunSweeper(ctx, time.Hour)
//	cases, err := finder.FindCases(ctx, "trademark infringement in e-commerce")
package casefinder
