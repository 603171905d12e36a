// Package report renders the outcome of an ecscore run.
package report

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/sugawarayuuta/sonnet"
	"go.uber.org/multierr"

	"github.com/l1jgo/ecscore/internal/core/memory"
	"github.com/l1jgo/ecscore/internal/scenario"
)

// World is what one world goroutine did.
type World struct {
	World     int               `json:"world"`
	Scenarios []scenario.Result `json:"scenarios"`
	Scripts   []string          `json:"scripts"`
	Ticks     uint64            `json:"ticks"`
	Created   int               `json:"created"`
	Queued    int               `json:"queued"`
	Flushed   int               `json:"flushed"`
	Alive     int               `json:"alive"` // live entities before dispose, sentinel excluded
}

type Summary struct {
	Worlds   []World      `json:"worlds"`
	Tracking bool         `json:"tracking"`
	Memory   memory.Stats `json:"memory"`
	Errors   []string     `json:"errors,omitempty"`
}

// OK reports whether the run had no errors and left no allocations behind.
func (s *Summary) OK() bool {
	return len(s.Errors) == 0 && s.Memory == (memory.Stats{})
}

// AddError records err, splitting combined errors into one line each.
func (s *Summary) AddError(errs ...error) {
	for _, err := range errs {
		for _, e := range multierr.Errors(err) {
			s.Errors = append(s.Errors, e.Error())
		}
	}
}

func (s *Summary) JSON(w io.Writer) error {
	raw, err := sonnet.Marshal(s)
	if err != nil {
		return fmt.Errorf("encode report: %w", err)
	}
	raw = append(raw, '\n')
	_, err = w.Write(raw)
	return err
}

func (s *Summary) Text(w io.Writer) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "WORLD\tSCENARIOS\tFAILED\tSCRIPTS\tTICKS\tCREATED\tQUEUED\tFLUSHED\tALIVE")
	for _, wr := range s.Worlds {
		failed := 0
		for _, r := range wr.Scenarios {
			failed += r.Failed
		}
		fmt.Fprintf(tw, "%d\t%d\t%d\t%d\t%d\t%d\t%d\t%d\t%d\n",
			wr.World, len(wr.Scenarios), failed, len(wr.Scripts),
			wr.Ticks, wr.Created, wr.Queued, wr.Flushed, wr.Alive)
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	if s.Tracking {
		fmt.Fprintln(w, s.Memory.String())
	} else {
		fmt.Fprintln(w, "allocation tracking disabled")
	}
	for _, e := range s.Errors {
		fmt.Fprintf(w, "error: %s\n", e)
	}
	status := "ok"
	if !s.OK() {
		status = "FAILED"
	}
	_, err := fmt.Fprintln(w, status)
	return err
}
