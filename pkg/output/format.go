// Package output provides utilities for formatting and writing optimization reports.
package output

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/ssolson/upOpt/internal/solution"
	"github.com/ssolson/upOpt/pkg/constants"
	"github.com/ssolson/upOpt/pkg/format"
	"github.com/ssolson/upOpt/pkg/validation"
)

const rule = "=======================================================\n"

// TextFormat writes the human-readable report.
func TextFormat(w io.Writer, sol *solution.Solution) error {
	p := message.NewPrinter(language.English)
	var buf bytes.Buffer

	buf.WriteString(rule)
	buf.WriteString("UPX Per Month\n")
	buf.WriteString(rule)
	fmt.Fprintf(&buf, "Base               : %s\n", format.UPX(sol.Earnings.BaseMonthly))
	fmt.Fprintf(&buf, "Collections        : %s\n", format.UPX(sol.Earnings.BoostMonthly))
	fmt.Fprintf(&buf, "Total              : %s\n", format.UPX(sol.Earnings.TotalMonthly))
	_, _ = p.Fprintf(&buf, "Active Collections : %d\n\n", sol.Earnings.ActiveCollections)

	var dropped []solution.CollectionReport
	for _, c := range sol.Collections {
		if c.Dropped {
			dropped = append(dropped, c)
			continue
		}
		buf.WriteString(rule)
		_, _ = p.Fprintf(&buf, "%s(%d): [%d Properties: %.0f UPX/month]\n", c.Name, c.ID, c.Required, c.MonthlyBoost)
		buf.WriteString(rule)
		for i, u := range c.Units {
			address := u.Address
			if address == "" {
				address = fmt.Sprintf("Property %d", u.UnitID)
			}
			status := ""
			if u.Active != nil {
				status = "  [Inactive]"
				if *u.Active {
					status = "  [Active]"
				}
			}
			fmt.Fprintf(&buf, "%d. %s%s  (Mint: %s )\n", i+1, address, status, format.Mint(u.MintPrice))
		}
		if c.Missing > 0 {
			fmt.Fprintf(&buf, "   %d of %d properties missing\n", c.Missing, c.Required)
		}
		buf.WriteString("\n")
	}

	if len(dropped) > 0 {
		buf.WriteString(rule)
		buf.WriteString("Not enough properties\n")
		buf.WriteString(rule)
		for _, c := range dropped {
			fmt.Fprintf(&buf, "%s(%d): %s\n", c.Name, c.ID, c.DropReason)
		}
		buf.WriteString("\n")
	}

	_, err := w.Write(buf.Bytes())
	return err
}

// JSONFormat writes the machine-readable report.
func JSONFormat(w io.Writer, sol *solution.Solution) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(sol)
}

// FileName returns the report file name of username for the given format.
func FileName(username, outputFormat string) string {
	ext := ".txt"
	if outputFormat == constants.OutputFormatJSON {
		ext = ".json"
	}
	return strings.ReplaceAll(username, string(filepath.Separator), "_") + ext
}

// WriteFile writes the report into dir and returns its path.
func WriteFile(dir, username, outputFormat string, sol *solution.Solution) (string, error) {
	if err := validation.ValidateOutputFormat(outputFormat); err != nil {
		return "", err
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("creating output directory: %w", err)
	}
	path := filepath.Join(dir, FileName(username, outputFormat))
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("creating report: %w", err)
	}
	defer f.Close()

	if err := Write(f, outputFormat, sol); err != nil {
		return "", err
	}
	return path, f.Close()
}

// Write renders sol in the given format.
func Write(w io.Writer, outputFormat string, sol *solution.Solution) error {
	switch outputFormat {
	case constants.OutputFormatJSON:
		return JSONFormat(w, sol)
	case constants.OutputFormatText, "":
		return TextFormat(w, sol)
	default:
		return fmt.Errorf("unsupported output format %q", outputFormat)
	}
}
