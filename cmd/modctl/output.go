package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/seantiz/edgemgmt/internal/edgelet"
	"github.com/seantiz/edgemgmt/internal/model"
)

const (
	outputTable = "table"
	outputJSON  = "json"
)

// printer renders command results as a table or as indented JSON.
type printer struct {
	w      io.Writer
	format string
}

func newPrinter(w io.Writer, opts *globalOptions) *printer {
	return &printer{w: w, format: opts.output}
}

func (p *printer) json(v any) error {
	enc := json.NewEncoder(p.w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func (p *printer) newTable(header table.Row) table.Writer {
	t := table.NewWriter()
	t.SetOutputMirror(p.w)
	t.SetStyle(table.StyleLight)
	t.Style().Format.Header = text.FormatUpper
	t.AppendHeader(header)
	return t
}

func (p *printer) identities(ids []model.Identity) error {
	if p.format == outputJSON {
		if ids == nil {
			ids = []model.Identity{}
		}
		return p.json(ids)
	}

	t := p.newTable(table.Row{"Module", "Generation", "Managed By"})
	for _, id := range ids {
		t.AppendRow(table.Row{id.ModuleID, id.GenerationID, id.ManagedBy})
	}
	t.Render()
	return nil
}

// moduleView is the JSON shape of one listed module.
type moduleView struct {
	model.ModuleRuntimeInfo[map[string]any]
	Error string `json:"error,omitempty"`
}

func (p *printer) modules(results []edgelet.ModuleResult[map[string]any]) error {
	if p.format == outputJSON {
		views := make([]moduleView, 0, len(results))
		for _, r := range results {
			v := moduleView{ModuleRuntimeInfo: r.Info}
			if r.Err != nil {
				v.Name = moduleName(r)
				v.Error = r.Err.Error()
			}
			views = append(views, v)
		}
		return p.json(views)
	}

	t := p.newTable(table.Row{"Name", "Type", "Status", "Description", "Started", "Exit Code"})
	for _, r := range results {
		if r.Err != nil {
			t.AppendRow(table.Row{moduleName(r), "", "", r.Err.Error(), "", ""})
			continue
		}
		info := r.Info
		exit := ""
		if info.ExitTime != nil {
			exit = strconv.FormatInt(info.ExitCode, 10)
		}
		t.AppendRow(table.Row{info.Name, info.Type, info.Status.String(), info.Description, formatTime(info.StartTime), exit})
	}
	t.Render()
	return nil
}

func (p *printer) systemInfo(info model.SystemInfo) error {
	if p.format == outputJSON {
		return p.json(info)
	}

	t := p.newTable(table.Row{"OS", "Architecture", "Version"})
	t.AppendRow(table.Row{info.OSType, info.Architecture, info.Version})
	t.Render()
	return nil
}

// done reports a completed action in table mode; JSON mode stays silent so
// output remains machine readable.
func (p *printer) done(format string, args ...any) {
	if p.format == outputTable {
		fmt.Fprintf(p.w, format+"\n", args...)
	}
}

func moduleName(r edgelet.ModuleResult[map[string]any]) string {
	var ext *edgelet.ExtractionError
	if errors.As(r.Err, &ext) {
		return ext.Module
	}
	return r.Info.Name
}

func formatTime(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Local().Format(time.RFC3339)
}
