package markdown

import "strings"

// Builtin is a line scanner for the widget's markdown subset: #, ## and ###
// headings, **bold**, *italic*, [label](url) links and paragraphs.
type Builtin struct{}

// Render escapes text, then converts it line by line. Heading lines become
// h1..h3, every other non-blank line becomes a paragraph, blank lines vanish.
func (Builtin) Render(text string) string {
	escaped := Escape(text)

	var sb strings.Builder
	for _, line := range strings.Split(escaped, "\n") {
		line = strings.TrimRight(line, "\r")
		if strings.TrimSpace(line) == "" {
			continue
		}
		if level, content, ok := heading(line); ok {
			tag := "h" + string(rune('0'+level))
			sb.WriteString("<" + tag + ">" + inline(content) + "</" + tag + ">")
			continue
		}
		sb.WriteString("<p>" + inline(strings.TrimSpace(line)) + "</p>")
	}
	return sb.String()
}

// heading recognizes "# ", "## " and "### " at the start of a line.
func heading(line string) (level int, content string, ok bool) {
	for level < len(line) && line[level] == '#' {
		level++
	}
	if level == 0 || level > 3 || level >= len(line) || line[level] != ' ' {
		return 0, "", false
	}
	return level, strings.TrimSpace(line[level+1:]), true
}

// inline converts bold, italic and link spans. Spans nest: a bold span may
// hold italics and links, a link label may hold emphasis.
func inline(s string) string {
	var sb strings.Builder
	for i := 0; i < len(s); {
		switch {
		case strings.HasPrefix(s[i:], "**"):
			if j := strings.Index(s[i+2:], "**"); j > 0 {
				sb.WriteString("<strong>" + inline(s[i+2:i+2+j]) + "</strong>")
				i += j + 4
				continue
			}
		case s[i] == '*':
			if j := strings.IndexByte(s[i+1:], '*'); j > 0 {
				sb.WriteString("<em>" + inline(s[i+1:i+1+j]) + "</em>")
				i += j + 2
				continue
			}
		case s[i] == '[':
			if label, href, n, ok := link(s[i:]); ok {
				sb.WriteString(`<a href="` + attrEscape(href) + `" target="_blank">` + inline(label) + "</a>")
				i += n
				continue
			}
		}
		sb.WriteByte(s[i])
		i++
	}
	return sb.String()
}

// link scans "[label](url)" at the start of s and returns the consumed length.
func link(s string) (label, href string, n int, ok bool) {
	end := strings.Index(s, "](")
	if end <= 1 {
		return "", "", 0, false
	}
	label = s[1:end]
	if strings.ContainsAny(label, "[]") {
		return "", "", 0, false
	}
	closeIdx := closingParen(s[end+2:])
	if closeIdx <= 0 {
		return "", "", 0, false
	}
	href = strings.TrimSpace(s[end+2 : end+2+closeIdx])
	if href == "" || strings.ContainsAny(href, " \t") {
		return "", "", 0, false
	}
	return label, href, end + 3 + closeIdx, true
}

// closingParen returns the index of the ')' that closes a link target,
// skipping balanced pairs inside it, or -1.
func closingParen(s string) int {
	depth := 0
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '(':
			depth++
		case ')':
			if depth == 0 {
				return i
			}
			depth--
		}
	}
	return -1
}

func attrEscape(s string) string {
	return strings.ReplaceAll(s, `"`, "&#34;")
}
