package markdown

// Options controls how Markdown is parsed for inspection.
type Options struct {
	// Separator and VerticalSeparator are reveal-md slide separator patterns. When set they
	// replace thematic-break counting.
	Separator         string
	VerticalSeparator string
}

type LinkKind string

const (
	LinkKindInline LinkKind = "inline"
	LinkKindImage  LinkKind = "image"
	LinkKindAuto   LinkKind = "auto"
)

type Link struct {
	Kind        LinkKind
	Destination string
}

// IsLocal reports whether the link targets a file next to the presentation.
func (l Link) IsLocal() bool {
	d := l.Destination
	if d == "" || d[0] == '#' || d[0] == '/' {
		return false
	}
	for i := 0; i < len(d); i++ {
		switch d[i] {
		case ':':
			return false // scheme
		case '/', '?', '#':
			return true
		}
	}
	return true
}
