package main

import (
	"errors"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/pflag"

	"github.com/meigma/combustion/cachefile"
	"github.com/meigma/combustion/internal/config"
	"github.com/meigma/combustion/report"
	"github.com/meigma/combustion/resourcemap"
)

const (
	kindAuto      = "auto"
	kindMap       = "map"
	kindResources = "resources"
	kindReport    = "report"
)

func runInspect(args []string, stdout io.Writer) error {
	fs := pflag.NewFlagSet("inspect", pflag.ContinueOnError)
	kind := fs.String("kind", kindAuto, "file kind: auto, map, resources or report")
	if help, err := parse(fs, args, stdout); help || err != nil {
		return err
	}
	if fs.NArg() == 0 {
		return errors.New("inspect: no files given")
	}

	for _, path := range fs.Args() {
		data, err := readInput(path, config.DefaultMaxInputSize)
		if err != nil {
			return fmt.Errorf("read %s: %w", path, err)
		}
		fmt.Fprintf(stdout, "%s:\n", path)
		if err := inspect(stdout, data, *kind); err != nil {
			return fmt.Errorf("%s: %w", path, err)
		}
	}
	return nil
}

// inspect prints data as kind. In auto mode a cache file is tried first,
// then a report, then a resource map, whose header carries no magic.
func inspect(w io.Writer, data []byte, kind string) error {
	switch kind {
	case kindMap:
		f, err := cachefile.Load(data)
		if err != nil {
			return err
		}
		return printMap(w, f)
	case kindReport:
		r, err := report.Load(data)
		if err != nil {
			return err
		}
		return printReport(w, r)
	case kindResources:
		m, err := resourcemap.Load(data)
		if err != nil {
			return err
		}
		return printResources(w, m)
	case kindAuto:
		if f, err := cachefile.Load(data); err == nil {
			return printMap(w, f)
		}
		if r, err := report.Load(data); err == nil {
			return printReport(w, r)
		}
		if m, err := resourcemap.Load(data); err == nil {
			return printResources(w, m)
		}
		return errors.New("not a cache file, report or resource map")
	default:
		return fmt.Errorf("unknown kind %q", kind)
	}
}

func printMap(w io.Writer, f *cachefile.File) error {
	fmt.Fprintf(w, "  name %s, build %s, engine %s, %d tags\n", f.Name, f.Build, f.Engine, len(f.Tags))
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "  INDEX\tCLASS\tPAYLOAD\tSIZE\tPATH")
	for i, t := range f.Tags {
		var payload string
		var size int
		switch p := t.Payload.(type) {
		case *cachefile.Resident:
			payload = "resident"
			size = len(p.Data) + len(p.Assets)
		case *cachefile.External:
			payload = "external"
			if p.Indexed {
				payload = fmt.Sprintf("resource %d", p.ResourceIndex)
			}
		}
		fmt.Fprintf(tw, "  %d\t%s\t%s\t%d\t%s\n", i, t.Class, payload, size, t.Path)
	}
	return tw.Flush()
}

func printResources(w io.Writer, m *resourcemap.Map) error {
	fmt.Fprintf(w, "  %s, %d resources\n", m.Type, m.Len())
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "  INDEX\tOFFSET\tSIZE\tNAME")
	for i, r := range m.Resources {
		fmt.Fprintf(tw, "  %d\t%#x\t%d\t%s\n", i, r.Offset, len(r.Data), r.Name)
	}
	return tw.Flush()
}

func printReport(w io.Writer, r *report.Report) error {
	fmt.Fprintf(w, "  map %s, engine %s, %d bytes, %d imported\n", r.MapName, r.Engine, r.OutputSize, r.Imported)
	fmt.Fprintf(w, "  input  %s\n  output %s\n", r.Input, r.Output)
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "  INDEX\tCLASS\tACTION\tRESOURCE\tREPACKED\tPATH")
	for _, t := range r.Tags {
		if t.Class != cachefile.ClassBitmap.String() && t.Class != cachefile.ClassSound.String() {
			continue
		}
		fmt.Fprintf(tw, "  %d\t%s\t%s\t%d\t%d\t%s\n", t.Index, t.Class, t.Action, t.Resource, t.RepackedBytes, t.Path)
	}
	return tw.Flush()
}
