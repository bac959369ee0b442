// Package progress renders progress for document loading and pipeline stages on stderr.
package progress

import (
	"fmt"
	"io"
	"os"

	"github.com/schollz/progressbar/v3"
)

// Tracker wraps a progress bar.
type Tracker struct {
	bar   *progressbar.ProgressBar
	label string
	out   io.Writer
}

// Option configures a Tracker.
type Option func(*settings)

type settings struct {
	out io.Writer
}

// WithWriter sends progress output to w instead of stderr.
func WithWriter(w io.Writer) Option {
	return func(s *settings) {
		s.out = w
	}
}

func apply(opts []Option) settings {
	s := settings{out: os.Stderr}
	for _, opt := range opts {
		opt(&s)
	}
	return s
}

// NewSpinner creates a spinner for work with an unknown total, such as the
// analysis stages of one run.
func NewSpinner(label string, opts ...Option) *Tracker {
	s := apply(opts)
	bar := progressbar.NewOptions(-1,
		progressbar.OptionSetWriter(s.out),
		progressbar.OptionSetWidth(20),
		progressbar.OptionSetDescription(label),
		progressbar.OptionSpinnerType(14),
		progressbar.OptionClearOnFinish(),
	)
	return &Tracker{bar: bar, label: label, out: s.out}
}

// NewTracker creates a progress bar over a known number of documents.
func NewTracker(label string, total int, opts ...Option) *Tracker {
	s := apply(opts)
	bar := progressbar.NewOptions(total,
		progressbar.OptionSetWriter(s.out),
		progressbar.OptionShowCount(),
		progressbar.OptionSetWidth(30),
		progressbar.OptionSetDescription(label),
		progressbar.OptionUseANSICodes(true),
		progressbar.OptionSetElapsedTime(false),
		progressbar.OptionSetPredictTime(false),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "=",
			SaucerHead:    ">",
			SaucerPadding: " ",
			BarStart:      "[",
			BarEnd:        "]",
		}),
	)
	return &Tracker{bar: bar, label: label, out: s.out}
}

// Tick increments the progress by 1. Safe for concurrent use.
func (t *Tracker) Tick() {
	_ = t.bar.Add(1)
}

// Stage relabels the tracker with the pipeline stage now running.
func (t *Tracker) Stage(name string) {
	t.bar.Describe(fmt.Sprintf("%s: %s", t.label, name))
	_ = t.bar.Add(1)
}

// FinishSuccess clears the bar completely (no output).
func (t *Tracker) FinishSuccess() {
	_ = t.bar.Finish()
	_ = t.bar.Clear()
}

// FinishError clears the bar and prints an error message.
func (t *Tracker) FinishError(err error) {
	_ = t.bar.Finish()
	_ = t.bar.Clear()
	fmt.Fprintf(t.out, "  %s error: %v\n", t.label, err)
}
