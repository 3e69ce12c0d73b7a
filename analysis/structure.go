package analysis

import (
	"fmt"
	"regexp"
	"strings"
)

var (
	dimensionLine = regexp.MustCompile(`(?i)^dimension\s*(?:\d+\s*[:.)-]?|[:.)-])\s*(.*)$`)
	themePrefix   = regexp.MustCompile(`(?i)^theme\s*\d*\s*[:.)-]\s*`)
)

// ParseStructure reads the textual Gioia layout:
//
//	Dimension 1: name
//	-> Theme 1: name
//	   --> concept
//
// Numbering is discarded. Themes or concepts appearing before any parent are attached to an
// unnamed parent. Lines matching none of the forms are ignored. It returns nil when no
// dimension, theme or concept is found.
func ParseStructure(text string) []Dimension {
	var dims []Dimension

	curDim := func() *Dimension {
		if len(dims) == 0 {
			dims = append(dims, Dimension{})
		}
		return &dims[len(dims)-1]
	}
	curTheme := func() *Theme {
		d := curDim()
		if len(d.Themes) == 0 {
			d.Themes = append(d.Themes, Theme{})
		}
		return &d.Themes[len(d.Themes)-1]
	}

	for _, raw := range strings.Split(text, "\n") {
		line := strings.Trim(strings.TrimSpace(raw), "*#_ \t")
		switch {
		case line == "":
		case strings.HasPrefix(line, "-->"):
			concept := strings.TrimSpace(strings.TrimPrefix(line, "-->"))
			if concept == "" {
				continue
			}
			t := curTheme()
			t.Concepts = append(t.Concepts, concept)
		case strings.HasPrefix(line, "->"):
			name := strings.TrimSpace(strings.TrimPrefix(line, "->"))
			name = strings.TrimSpace(themePrefix.ReplaceAllString(name, ""))
			d := curDim()
			d.Themes = append(d.Themes, Theme{Name: name})
		default:
			m := dimensionLine.FindStringSubmatch(line)
			if m == nil {
				continue
			}
			dims = append(dims, Dimension{Name: strings.TrimSpace(m[1])})
		}
	}
	return dims
}

// RenderStructure writes dims in the layout ParseStructure reads. Dimensions are numbered
// from 1; themes are numbered across the whole structure.
func RenderStructure(dims []Dimension) string {
	var b strings.Builder
	theme := 0
	for i, d := range dims {
		if i > 0 {
			b.WriteString("\n")
		}
		b.WriteString(numbered("Dimension", i+1, d.Name))
		b.WriteString("\n")
		for _, t := range d.Themes {
			theme++
			b.WriteString("-> ")
			b.WriteString(numbered("Theme", theme, t.Name))
			b.WriteString("\n")
			for _, c := range t.Concepts {
				b.WriteString("   --> ")
				b.WriteString(c)
				b.WriteString("\n")
			}
		}
	}
	return strings.TrimRight(b.String(), "\n")
}

func numbered(kind string, n int, name string) string {
	if name == "" {
		return fmt.Sprintf("%s %d:", kind, n)
	}
	return fmt.Sprintf("%s %d: %s", kind, n, name)
}
