package storage

import (
	"fmt"
	"io"
	"strings"
	"text/template"
	"time"
)

const markdownTemplate = `# Request History

Generated: {{.Generated}}

| Time | Method | URL | Status | Duration | Error |
|------|--------|-----|--------|----------|-------|
{{- range .Entries}}
| {{.CreatedAt.Format "2006-01-02 15:04:05"}} | {{.Method}} | {{cell .URL}} | {{.Status}} | {{.DurationMS}}ms | {{cell .Error}} |
{{- end}}

Total: {{len .Entries}} calls, {{.Failed}} failed
`

var markdownTmpl = template.Must(template.New("history").Funcs(template.FuncMap{
	"cell": markdownCell,
}).Parse(markdownTemplate))

// WriteMarkdown renders entries as a Markdown table.
func WriteMarkdown(w io.Writer, entries []Entry) error {
	failed := 0
	for _, e := range entries {
		if !e.OK() {
			failed++
		}
	}

	data := struct {
		Generated string
		Entries   []Entry
		Failed    int
	}{
		Generated: time.Now().UTC().Format(time.RFC3339),
		Entries:   entries,
		Failed:    failed,
	}

	if err := markdownTmpl.Execute(w, data); err != nil {
		return fmt.Errorf("failed to render markdown: %w", err)
	}
	return nil
}

// markdownCell escapes pipes and newlines so a value stays in one table cell.
func markdownCell(s string) string {
	s = strings.ReplaceAll(s, "|", `\|`)
	return strings.ReplaceAll(s, "\n", " ")
}
