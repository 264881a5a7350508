package report

import (
	"io"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/DeprecatedLuar/settings-decoder/internal/resolver"
)

// TableReporter renders credentials as a go-pretty table, in plain text,
// Markdown or CSV.
type TableReporter struct {
	format string
	opts   *reportOpts
}

var _ Reporter = (*TableReporter)(nil)

var tableColumns = table.Row{"kind", "id", "username", "password", "passphrase", "private key / host"}

func (tr *TableReporter) Report(w io.Writer, r *resolver.Result) error {
	t := table.NewWriter()
	t.SetOutputMirror(w)

	if tr.format != FormatCSV {
		t.SetTitle("Master password: %s", r.Master)
	} else {
		// no title in CSV, so the master becomes the first row
		t.AppendRow(table.Row{"master", "", "", r.Master, "", r.SecuritySource})
	}

	t.AppendHeader(tableColumns)
	for _, c := range r.Credentials {
		location := c.PrivateKey
		if c.Host != "" {
			location = c.Host
		}
		t.AppendRow(table.Row{
			string(c.Kind),
			c.ID,
			c.Username,
			tr.field(c, resolver.FieldPassword, c.Password),
			tr.field(c, resolver.FieldPassphrase, c.Passphrase),
			location,
		})
	}

	s := table.StyleLight
	s.Format.Header = text.FormatDefault
	t.SetStyle(s)

	switch tr.format {
	case FormatMarkdown:
		t.RenderMarkdown()
	case FormatCSV:
		t.RenderCSV()
	default:
		t.Render()
	}
	return nil
}

func (tr *TableReporter) field(c resolver.Credential, name, value string) string {
	if c.FailedField != name {
		return value
	}
	// escape codes would end up in markdown and csv files
	return colorize(tr.opts.color && tr.format == FormatTable, ColorFailure, failureText(c.Err))
}
