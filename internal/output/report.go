package output

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/rpgo/wealth-optimizer/internal/domain"
)

// ErrUnsupportedFormat is returned for format names with no registered formatter.
var ErrUnsupportedFormat = errors.New("unsupported report format")

// Lookup resolves a format name, enriching the error with the available names.
func Lookup(format string) (Formatter, error) {
	if f := GetFormatterByName(format); f != nil {
		return f, nil
	}
	return nil, fmt.Errorf("%w: %q. Try one of: %s (aliases: %s)", ErrUnsupportedFormat, format,
		strings.Join(AvailableFormatterNames(), ", "), strings.Join(AvailableFormatAliases(), ", "))
}

// GenerateReport writes a report file in dir and returns its path. The
// format "all" writes the verbose console report and the detailed CSV.
func GenerateReport(results *domain.PlanResult, format, dir string) ([]string, error) {
	if strings.EqualFold(strings.TrimSpace(format), "all") {
		var written []string
		for _, name := range []string{"console", "detailed-csv"} {
			f, err := Lookup(name)
			if err != nil {
				return written, err
			}
			path, err := WriteFormatted(f, results, dir, Extension(name))
			if err != nil {
				return written, err
			}
			written = append(written, path)
		}
		return written, nil
	}

	f, err := Lookup(format)
	if err != nil {
		return nil, err
	}
	path, err := WriteFormatted(f, results, dir, Extension(f.Name()))
	if err != nil {
		return nil, err
	}
	return []string{path}, nil
}

// Render formats results straight to w.
func Render(w io.Writer, results *domain.PlanResult, format string) error {
	f, err := Lookup(format)
	if err != nil {
		return err
	}
	data, err := f.Format(results)
	if err != nil {
		return fmt.Errorf("failed to format %s report: %w", f.Name(), err)
	}
	_, err = w.Write(data)
	return err
}
