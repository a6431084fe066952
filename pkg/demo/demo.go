// Package demo replays grouped-lifetime scenarios with payloads that
// announce their own creation and destruction.
package demo

import (
	"fmt"
	"log/slog"

	"github.com/pkg/errors"

	"groupptr/pkg/memory"
)

// Journal records lifecycle events in order and mirrors them to a logger.
type Journal struct {
	log    *slog.Logger
	events []string
}

// NewJournal creates a journal writing to log. A nil log only records.
func NewJournal(log *slog.Logger) *Journal {
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	return &Journal{log: log}
}

// Record appends an event.
func (j *Journal) Record(event string, attrs ...any) {
	j.events = append(j.events, event)
	j.log.Info(event, attrs...)
}

// Events returns the events recorded so far.
func (j *Journal) Events() []string {
	return append([]string(nil), j.events...)
}

// Named is a payload with a kind and a name, e.g. A("G1a").
type Named struct {
	Kind    string
	Name    string
	journal *Journal
}

// NewNamed creates a Named payload in its own group and records "+Kind(Name)".
func NewNamed(j *Journal, kind, name string) *memory.Ptr[Named] {
	n := &Named{Kind: kind, Name: name, journal: j}
	j.Record(fmt.Sprintf("+%s(%s)", kind, name), "kind", kind, "name", name)
	return memory.New(n)
}

// Close records "-Kind(Name)".
func (n *Named) Close() error {
	n.journal.Record(fmt.Sprintf("-%s(%s)", n.Kind, n.Name), "kind", n.Kind, "name", n.Name)
	return nil
}

func (n *Named) String() string {
	return fmt.Sprintf("%s(%s)", n.Kind, n.Name)
}

// scope records "+scope", runs fn and records "-scope" once fn's deferred
// resets have run.
func scope(j *Journal, fn func() error) error {
	j.Record("+scope")
	if err := fn(); err != nil {
		return err
	}
	j.Record("-scope")
	return nil
}

// Run replays the grouping walkthrough: three A payloads grouped by
// migration, one handle reassigned, two B payloads grouped and merged into
// the A group, then a clone and a read-only view of the survivor. Every
// payload is destroyed together when the last handle goes.
func Run(j *Journal) error {
	j.Record("+main")
	err := func() error {
		g1a := NewNamed(j, "A", "G1a")
		defer g1a.Reset()

		err := scope(j, func() error {
			g1b := NewNamed(j, "A", "G1b")
			defer g1b.Reset()
			g1c := NewNamed(j, "A", "G1c")
			defer g1c.Reset()

			if err := g1a.AddToGroup(g1b); err != nil {
				return errors.Wrap(err, "group G1b")
			}
			if err := g1a.AddToGroup(g1c); err != nil {
				return errors.Wrap(err, "group G1c")
			}
			g1c.ResetTo(g1b)

			return scope(j, func() error {
				g2a := NewNamed(j, "B", "G2a")
				defer g2a.Reset()
				g2b := NewNamed(j, "B", "G2b")
				defer g2b.Reset()

				if err := g2a.AddToGroup(g2b); err != nil {
					return errors.Wrap(err, "group G2b")
				}
				return errors.Wrap(g1a.MergeGroup(g2a), "merge G2")
			})
		})
		if err != nil {
			return err
		}

		tmp1 := g1a.Clone()
		defer tmp1.Reset()
		tmp2 := g1a.Const()
		defer tmp2.Reset()

		j.Record("-scope")
		return nil
	}()
	if err != nil {
		return err
	}
	j.Record("-main")
	return nil
}
