package cli

import (
	"io"

	"github.com/schollz/progressbar/v3"

	"github.com/law-makers/sismos/pkg/models"
)

// progressObserver draws a progress bar over the table rows.
type progressObserver struct {
	out io.Writer
	bar *progressbar.ProgressBar
}

func newProgressObserver(out io.Writer) *progressObserver {
	return &progressObserver{out: out}
}

func (p *progressObserver) Start(total int) {
	p.bar = progressbar.NewOptions(total,
		progressbar.OptionSetWriter(p.out),
		progressbar.OptionSetDescription("Extracting rows"),
		progressbar.OptionSetWidth(30),
		progressbar.OptionShowCount(),
		progressbar.OptionClearOnFinish(),
	)
}

func (p *progressObserver) RowExtracted(int, models.Record) { p.step() }
func (p *progressObserver) RowSkipped(int)                  { p.step() }
func (p *progressObserver) RowFailed(int, error)            { p.step() }

func (p *progressObserver) step() {
	if p.bar != nil {
		_ = p.bar.Add(1)
	}
}

// Finish clears the bar. Safe to call when Start never ran.
func (p *progressObserver) Finish() {
	if p.bar != nil {
		_ = p.bar.Finish()
	}
}
