// Package frontmatter splits the YAML header reveal-md reads from a presentation.
package frontmatter

import (
	"bytes"
	"errors"

	"gopkg.in/yaml.v3"
)

// ErrMissingClosingDelimiter indicates the document started with a YAML
// frontmatter delimiter but did not contain a closing delimiter.
var ErrMissingClosingDelimiter = errors.New("yaml frontmatter start delimiter found but closing delimiter is missing")

// Options are the reveal-md settings a presentation may carry in its front matter.
// Unknown keys are ignored.
type Options struct {
	Title             string `yaml:"title"`
	Theme             string `yaml:"theme"`
	HighlightTheme    string `yaml:"highlightTheme"`
	Separator         string `yaml:"separator"`
	VerticalSeparator string `yaml:"verticalSeparator"`
}

// Split separates YAML frontmatter (`---` delimited) from the Markdown body.
//
// If the document does not start with a YAML frontmatter delimiter, had is false
// and body is the full input.
func Split(content []byte) (frontmatter []byte, body []byte, had bool, err error) {
	nl := detectNewline(content)
	open := []byte("---" + nl)
	if !bytes.HasPrefix(content, open) {
		return nil, content, false, nil
	}

	start := len(open)
	if bytes.HasPrefix(content[start:], open) {
		return []byte{}, content[start+len(open):], true, nil
	}

	closeSeq := []byte(nl + "---" + nl)
	idx := bytes.Index(content[start:], closeSeq)
	if idx < 0 {
		// A closing delimiter on the last line has no newline after it.
		if end := []byte(nl + "---"); bytes.HasSuffix(content, end) {
			return content[start : len(content)-len(end)+len(nl)], []byte{}, true, nil
		}
		return nil, nil, false, ErrMissingClosingDelimiter
	}

	end := start + idx + len(nl)
	return content[start:end], content[start+idx+len(closeSeq):], true, nil
}

// Parse decodes the reveal-md options from raw frontmatter (without --- delimiters).
func Parse(frontmatter []byte) (Options, error) {
	var opts Options
	if len(bytes.TrimSpace(frontmatter)) == 0 {
		return opts, nil
	}
	if err := yaml.Unmarshal(frontmatter, &opts); err != nil {
		return Options{}, err
	}
	return opts, nil
}

func detectNewline(content []byte) string {
	if i := bytes.IndexByte(content, '\n'); i > 0 && content[i-1] == '\r' {
		return "\r\n"
	}
	return "\n"
}
