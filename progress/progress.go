package progress

import "github.com/pterm/pterm"

// Bar manages a progress bar for tracking message generation.
type Bar struct {
	pb      *pterm.ProgressbarPrinter
	total   int
	enabled bool
}

// New creates a new progress bar if logLevel is "info".
func New(total int, logLevel string) *Bar {
	enabled := logLevel == "info"

	bar := &Bar{
		total:   total,
		enabled: enabled,
	}

	if enabled {
		pb, _ := pterm.DefaultProgressbar.
			WithTotal(total).
			WithTitle("Generating emails").
			Start()

		bar.pb = pb

		pterm.Info.Printf("Emails to generate: %d\n", total)
		pterm.Println()
	}

	return bar
}

// Increment advances the progress bar and shows the current file name.
func (b *Bar) Increment(name string) {
	if !b.enabled || b.pb == nil {
		return
	}

	b.pb.Increment()

	if name != "" {
		display := name
		if len(display) > 40 {
			display = display[:37] + "..."
		}
		b.pb.UpdateTitle("Generating: " + display)
	}
}

// Fail shows an error message above the progress bar.
func (b *Bar) Fail(err error) {
	if !b.enabled || err == nil {
		return
	}
	pterm.Error.Printf("Error: %v\n", err)
}

// Stop finalizes the progress bar.
func (b *Bar) Stop() {
	if !b.enabled || b.pb == nil {
		return
	}

	if b.pb.Current < b.total {
		b.pb.Current = b.total
	}

	b.pb.Stop()
	pterm.Success.Println("Generation complete!")
}
