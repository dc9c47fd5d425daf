// Package render turns a sentiment report into human-readable text: a full
// markdown report for the CLI and a compact plain-text summary for chat.
package render

import (
	"bytes"
	"embed"
	"fmt"
	"io"
	"strings"
	"sync"
	"text/template"
	"time"

	"github.com/dustin/go-humanize"

	"sentimenttracker/internal/domain/sentiment"
	"sentimenttracker/internal/nlp"
	"sentimenttracker/pkg/errors"
)

//go:embed templates/*.tmpl
var templateFS embed.FS

const (
	reportTemplate   = "report.md.tmpl"
	telegramTemplate = "telegram.txt.tmpl"
)

var (
	parseOnce sync.Once
	parsed    *template.Template
	parseErr  error
)

type view struct {
	Report *sentiment.Report
	Now    time.Time
}

// Markdown writes the full markdown report
func Markdown(w io.Writer, report *sentiment.Report, now time.Time) error {
	return execute(w, reportTemplate, report, now)
}

// MarkdownString is Markdown into a string
func MarkdownString(report *sentiment.Report, now time.Time) (string, error) {
	var buf bytes.Buffer
	if err := Markdown(&buf, report, now); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// Telegram returns a compact plain-text summary sized for a chat message
func Telegram(report *sentiment.Report, now time.Time) (string, error) {
	var buf bytes.Buffer
	if err := execute(&buf, telegramTemplate, report, now); err != nil {
		return "", err
	}
	return strings.TrimSpace(buf.String()), nil
}

func execute(w io.Writer, name string, report *sentiment.Report, now time.Time) error {
	if report == nil {
		return errors.Wrap(errors.ErrInvalidInput, "nil report")
	}
	tmpl, err := templates()
	if err != nil {
		return err
	}
	if err := tmpl.ExecuteTemplate(w, name, view{Report: report, Now: now}); err != nil {
		return errors.Wrapf(err, "render %s", name)
	}
	return nil
}

func templates() (*template.Template, error) {
	parseOnce.Do(func() {
		parsed, parseErr = template.New("render").Funcs(funcs).ParseFS(templateFS, "templates/*.tmpl")
		if parseErr != nil {
			parseErr = errors.Wrap(parseErr, "parse report templates")
		}
	})
	return parsed, parseErr
}

var funcs = template.FuncMap{
	"ago":        ago,
	"bar":        bar,
	"cell":       cell,
	"comma":      func(n int) string { return humanize.Comma(int64(n)) },
	"display":    func(s sentiment.Source) string { return s.DisplayName() },
	"dur":        dur,
	"inc":        func(i int) int { return i + 1 },
	"pct":        func(v float64) string { return fmt.Sprintf("%.1f%%", v) },
	"quote":      quote,
	"score":      func(v float64) string { return humanize.FormatFloat("#,###.###", v) },
	"signed":     func(v float64) string { return fmt.Sprintf("%+.3f", v) },
	"sourceList": sourceList,
	"terms":      terms,
	"truncate":   nlp.Truncate,
	"words":      words,
}

// ago accepts time.Time or *time.Time
func ago(t interface{}, now time.Time) string {
	switch v := t.(type) {
	case time.Time:
		return humanize.RelTime(v, now, "ago", "from now")
	case *time.Time:
		if v == nil {
			return "unknown"
		}
		return humanize.RelTime(*v, now, "ago", "from now")
	}
	return "unknown"
}

func dur(d time.Duration) string {
	if d <= 0 {
		return "-"
	}
	if d < time.Second {
		return d.Round(time.Millisecond).String()
	}
	return d.Round(100 * time.Millisecond).String()
}

const barWidth = 20

func bar(count, total int) string {
	if total <= 0 || count <= 0 {
		return ""
	}
	n := count * barWidth / total
	if n == 0 {
		n = 1
	}
	return "`" + strings.Repeat("█", n) + "`"
}

// cell makes s safe inside a markdown table cell
func cell(s string, n int) string {
	s = strings.NewReplacer("|", "\\|", "\n", " ", "\r", " ").Replace(s)
	return nlp.Truncate(strings.TrimSpace(s), n)
}

// quote flattens post text to one line
func quote(s string, n int) string {
	s = strings.Join(strings.Fields(s), " ")
	return nlp.Truncate(s, n)
}

func sourceList(srcs []sentiment.Source) string {
	names := make([]string, len(srcs))
	for i, src := range srcs {
		names[i] = src.DisplayName()
	}
	return strings.Join(names, ", ")
}

func terms(tw []sentiment.TermWeight) string {
	parts := make([]string, len(tw))
	for i, t := range tw {
		parts[i] = t.Term
	}
	return strings.Join(parts, ", ")
}

func words(tc []sentiment.TermCount, n int) string {
	if n > len(tc) {
		n = len(tc)
	}
	parts := make([]string, n)
	for i := 0; i < n; i++ {
		parts[i] = fmt.Sprintf("%s (%s)", tc[i].Term, humanize.Comma(int64(tc[i].Count)))
	}
	return strings.Join(parts, " · ")
}
