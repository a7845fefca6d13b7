package stats

import (
	"fmt"
	"sort"
	"time"

	"github.com/pterm/pterm"
)

// Summary accumulates counters over one generation run.
type Summary struct {
	Generated       int
	HTML            int
	WithAttachments int
	BodyFallbacks   int
	SkippedFiles    int
	Signed          int
	Bytes           int64
	LastError       error
}

func (s Summary) LogAttrs() []any {
	attrs := []any{
		"generated", s.Generated,
		"html", s.HTML,
		"withAttachments", s.WithAttachments,
		"bodyFallbacks", s.BodyFallbacks,
		"skippedFiles", s.SkippedFiles,
		"signed", s.Signed,
		"bytes", s.Bytes,
	}
	if s.LastError != nil {
		attrs = append(attrs, "lastError", s.LastError.Error())
	}
	return attrs
}

// PrettyPrint prints the final summary using pterm for nice formatting.
func (s Summary) PrettyPrint(duration time.Duration) {
	pterm.Println()
	pterm.DefaultSection.Println("Summary Statistics")
	pterm.Info.Printf("Duration: %v\n", duration)
	pterm.Info.Printf("Generated: %d\n", s.Generated)
	pterm.Info.Printf("HTML bodies: %d\n", s.HTML)
	pterm.Info.Printf("With attachments: %d\n", s.WithAttachments)
	pterm.Info.Printf("Body fallbacks: %d\n", s.BodyFallbacks)
	pterm.Info.Printf("Skipped files: %d\n", s.SkippedFiles)
	if s.Signed > 0 {
		pterm.Info.Printf("DKIM signed: %d\n", s.Signed)
	}
	pterm.Info.Printf("Total bytes: %d\n", s.Bytes)
	if s.LastError != nil {
		pterm.Error.Printf("Last error: %v\n", s.LastError)
	}
}

// PrettyPrintTop prints the top N most frequent items in a map.
func PrettyPrintTop(m map[string]int, limit int) {
	type pair struct {
		Key   string
		Value int
	}

	var pairs []pair
	for k, v := range m {
		pairs = append(pairs, pair{k, v})
	}

	sort.Slice(pairs, func(i, j int) bool {
		if pairs[i].Value != pairs[j].Value {
			return pairs[i].Value > pairs[j].Value
		}
		return pairs[i].Key < pairs[j].Key
	})

	for i := 0; i < limit && i < len(pairs); i++ {
		fmt.Printf("%d. %s (%d)\n", i+1, pairs[i].Key, pairs[i].Value)
	}
}
