package ilp

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// WriteLP writes the model in CPLEX LP text format.
func (m *Model) WriteLP(w io.Writer) error {
	bw := bufio.NewWriter(w)

	fmt.Fprintln(bw, "\\ collection assignment")
	fmt.Fprintln(bw, "Maximize")
	var obj []string
	for i, c := range m.Objective {
		if c == 0 {
			continue
		}
		obj = append(obj, formatTerm(strconv.FormatFloat(c, 'g', -1, 64), m.Names[i], len(obj) == 0))
	}
	if len(obj) == 0 {
		obj = append(obj, "0")
	}
	writeWrapped(bw, " obj: ", obj)

	fmt.Fprintln(bw, "Subject To")
	for i, c := range m.Constraints {
		name := c.Name
		if name == "" {
			name = fmt.Sprintf("c%d", i)
		}
		row := make([]string, 0, len(c.Terms)+1)
		for j, t := range c.Terms {
			row = append(row, formatTerm(strconv.Itoa(t.Coeff), m.Names[t.Var], j == 0))
		}
		row = append(row, fmt.Sprintf("%s %d", c.Sense, c.RHS))
		writeWrapped(bw, " "+sanitize(name)+": ", row)
	}

	fmt.Fprintln(bw, "Binaries")
	for _, name := range m.Names {
		fmt.Fprintln(bw, " "+sanitize(name))
	}
	fmt.Fprintln(bw, "End")
	return bw.Flush()
}

func formatTerm(coeff, name string, first bool) string {
	name = sanitize(name)
	negative := strings.HasPrefix(coeff, "-")
	coeff = strings.TrimPrefix(coeff, "-")
	if coeff == "1" {
		coeff = ""
	} else {
		coeff += " "
	}
	switch {
	case negative:
		return "- " + coeff + name
	case first:
		return coeff + name
	default:
		return "+ " + coeff + name
	}
}

// writeWrapped keeps lines short; LP readers reject very long lines.
func writeWrapped(w *bufio.Writer, prefix string, parts []string) {
	line := prefix
	for _, p := range parts {
		if len(line)+len(p) > 250 {
			fmt.Fprintln(w, line)
			line = "   "
		}
		line += p + " "
	}
	fmt.Fprintln(w, strings.TrimRight(line, " "))
}

func sanitize(name string) string {
	return strings.Map(func(r rune) rune {
		if r == ' ' || r == ':' {
			return '_'
		}
		return r
	}, name)
}
