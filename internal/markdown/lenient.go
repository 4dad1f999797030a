package markdown

import "strings"

// lenientLinks scans prose lines for link and image destinations that
// contain whitespace. Fenced and indented code and inline code spans are
// ignored.
func lenientLinks(body []byte) []Link {
	var (
		out   []Link
		fence string
	)
	for _, line := range strings.Split(string(body), "\n") {
		trimmed := strings.TrimSpace(line)
		if marker := fenceMarker(trimmed); marker != "" {
			switch fence {
			case "":
				fence = marker
			case marker:
				fence = ""
			}
			continue
		}
		if fence != "" || strings.HasPrefix(line, "    ") || strings.HasPrefix(line, "\t") {
			continue
		}

		prose := dropCodeSpans(line)
		out = append(out, bracketedDestinations(prose)...)
		if l, ok := spacedReferenceDefinition(prose); ok {
			out = append(out, l)
		}
	}
	return out
}

func fenceMarker(trimmed string) string {
	for _, m := range []string{"```", "~~~"} {
		if strings.HasPrefix(trimmed, m) {
			return m
		}
	}
	return ""
}

func dropCodeSpans(s string) string {
	if !strings.Contains(s, "`") {
		return s
	}
	var b strings.Builder
	for i := 0; i < len(s); {
		if s[i] != '`' {
			b.WriteByte(s[i])
			i++
			continue
		}
		run := i
		for run < len(s) && s[run] == '`' {
			run++
		}
		delim := s[i:run]
		end := strings.Index(s[run:], delim)
		if end < 0 {
			b.WriteString(delim)
			i = run
			continue
		}
		i = run + end + len(delim)
	}
	return b.String()
}

// bracketedDestinations finds `[text](dest)` and `![alt](dest)` where dest
// contains a space or tab.
func bracketedDestinations(line string) []Link {
	var out []Link
	for i := 0; i+1 < len(line); i++ {
		if line[i] != ']' || line[i+1] != '(' {
			continue
		}
		open := strings.LastIndexByte(line[:i], '[')
		if open < 0 {
			continue
		}
		end := strings.IndexByte(line[i+2:], ')')
		if end < 0 {
			continue
		}
		dest := line[i+2 : i+2+end]
		if !strings.ContainsAny(dest, " \t") {
			continue
		}
		kind := LinkKindInline
		if open > 0 && line[open-1] == '!' {
			kind = LinkKindImage
		}
		out = append(out, Link{Kind: kind, Destination: dest})
	}
	return out
}

func spacedReferenceDefinition(line string) (Link, bool) {
	trimmed := strings.TrimSpace(line)
	if !strings.HasPrefix(trimmed, "[") || strings.HasPrefix(trimmed, "[^") {
		return Link{}, false
	}
	_, rest, ok := strings.Cut(trimmed, "]:")
	if !ok {
		return Link{}, false
	}
	dest := strings.TrimSpace(rest)
	for _, quote := range []string{" \"", " '"} {
		if before, _, found := strings.Cut(dest, quote); found {
			dest = strings.TrimSpace(before)
			break
		}
	}
	if dest == "" || !strings.ContainsAny(dest, " \t") {
		return Link{}, false
	}
	return Link{Kind: LinkKindReferenceDefinition, Destination: dest}, true
}
