package cijob

import (
	"bytes"
	"embed"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
)

const (
	NavigatorElement = "org.jenkinsci.plugins.github__branch__source.GitHubSCMNavigator"

	repoOwnerElement     = "repoOwner"
	patternElement       = "pattern"
	credentialsIDElement = "credentialsId"
	templateName         = "templates/github-org-job.xml"
)

var ErrNavigatorNotFound = errors.New("no " + NavigatorElement + " element in job configuration")

//go:embed templates/github-org-job.xml
var templates embed.FS

// Document is an organization folder job configuration. Only the navigator's
// repoOwner, pattern and credentialsId are decoded; everything else is
// written back exactly as it was read.
type Document struct {
	RepoOwner     string
	Pattern       string
	CredentialsID string

	raw         []byte
	owner       span
	pattern     span
	credentials span
	navigator   span
}

// span is the byte range of an element's content inside raw. For a
// self-closing element, start and end cover the whole tag.
type span struct {
	found       bool
	selfClosing bool
	start, end  int
}

// Template returns the bundled organization folder job, or the file at path
// when one is given.
func Template(path string) (*Document, error) {
	var (
		data []byte
		err  error
	)
	if path != "" {
		data, err = os.ReadFile(path)
	} else {
		data, err = templates.ReadFile(templateName)
	}
	if err != nil {
		return nil, fmt.Errorf("cannot load job template: %w", err)
	}
	return Parse(data)
}

// Parse decodes a job config.xml. It returns ErrNavigatorNotFound when the
// document has no source navigator element.
func Parse(data []byte) (*Document, error) {
	offset := declarationEnd(data)
	dec := xml.NewDecoder(bytes.NewReader(data[offset:]))
	dec.Strict = false

	doc := &Document{raw: data}
	var (
		depth     int
		navDepth  = -1
		current   *span
		text      bytes.Buffer
		tokenFrom int
	)
	for {
		tokenFrom = offset + int(dec.InputOffset())
		tok, err := dec.RawToken()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("cannot parse job configuration: %w", err)
		}
		tokenTo := offset + int(dec.InputOffset())

		switch t := tok.(type) {
		case xml.StartElement:
			depth++
			name := elementName(t.Name)
			switch {
			case navDepth < 0 && !doc.navigator.found && name == NavigatorElement:
				if isSelfClosing(data[tokenFrom:tokenTo]) {
					// an empty navigator has nothing worth keeping
					return nil, ErrNavigatorNotFound
				}
				navDepth = depth
				doc.navigator = span{found: true, start: tokenTo}
			case navDepth > 0 && depth == navDepth+1 && current == nil:
				var target *span
				switch name {
				case repoOwnerElement:
					target = &doc.owner
				case patternElement:
					target = &doc.pattern
				case credentialsIDElement:
					target = &doc.credentials
				}
				if target != nil && !target.found {
					*target = span{found: true, start: tokenTo}
					if isSelfClosing(data[tokenFrom:tokenTo]) {
						*target = span{found: true, selfClosing: true, start: tokenFrom, end: tokenTo}
					} else {
						current = target
						text.Reset()
					}
				}
			}
		case xml.CharData:
			if current != nil {
				text.Write(t)
			}
		case xml.EndElement:
			if current != nil && depth == navDepth+1 {
				current.end = tokenFrom
				switch current {
				case &doc.owner:
					doc.RepoOwner = text.String()
				case &doc.pattern:
					doc.Pattern = text.String()
				case &doc.credentials:
					doc.CredentialsID = text.String()
				}
				current = nil
			}
			if depth == navDepth {
				doc.navigator.end = tokenFrom
				navDepth = -1
			}
			depth--
		}
	}
	if !doc.navigator.found {
		return nil, ErrNavigatorNotFound
	}
	return doc, nil
}

// Marshal writes the document back with RepoOwner, Pattern and CredentialsID
// applied. Missing children are appended to the navigator, except an empty
// credentialsId.
func (d *Document) Marshal() ([]byte, error) {
	type splice struct {
		start, end int
		with       []byte
	}
	var splices []splice
	for _, f := range []struct {
		s    span
		name string
		text string
	}{
		{s: d.owner, name: repoOwnerElement, text: d.RepoOwner},
		{s: d.pattern, name: patternElement, text: d.Pattern},
		{s: d.credentials, name: credentialsIDElement, text: d.CredentialsID},
	} {
		var buf bytes.Buffer
		switch {
		case !f.s.found && f.name == credentialsIDElement && f.text == "":
			continue
		case !f.s.found:
			if err := writeElement(&buf, f.name, f.text); err != nil {
				return nil, err
			}
			splices = append(splices, splice{start: d.navigator.end, end: d.navigator.end, with: buf.Bytes()})
		case f.s.selfClosing:
			if err := writeElement(&buf, f.name, f.text); err != nil {
				return nil, err
			}
			splices = append(splices, splice{start: f.s.start, end: f.s.end, with: buf.Bytes()})
		default:
			if err := xml.EscapeText(&buf, []byte(f.text)); err != nil {
				return nil, err
			}
			splices = append(splices, splice{start: f.s.start, end: f.s.end, with: buf.Bytes()})
		}
	}
	sort.SliceStable(splices, func(i, j int) bool { return splices[i].start < splices[j].start })

	var out bytes.Buffer
	pos := 0
	for _, sp := range splices {
		out.Write(d.raw[pos:sp.start])
		out.Write(sp.with)
		pos = sp.end
	}
	out.Write(d.raw[pos:])
	return out.Bytes(), nil
}

func writeElement(w *bytes.Buffer, name, text string) error {
	w.WriteString("<" + name + ">")
	if err := xml.EscapeText(w, []byte(text)); err != nil {
		return err
	}
	w.WriteString("</" + name + ">")
	return nil
}

// declarationEnd returns the offset just past a leading <?xml ...?>
// declaration. Jenkins writes version 1.1 which encoding/xml refuses.
func declarationEnd(data []byte) int {
	trimmed := bytes.TrimLeft(data, "\ufeff \t\r\n")
	if !bytes.HasPrefix(trimmed, []byte("<?xml")) {
		return 0
	}
	skipped := len(data) - len(trimmed)
	end := bytes.Index(trimmed, []byte("?>"))
	if end < 0 {
		return 0
	}
	return skipped + end + 2
}

func isSelfClosing(tag []byte) bool {
	return bytes.HasSuffix(bytes.TrimSpace(tag), []byte("/>"))
}

func elementName(n xml.Name) string {
	if n.Space != "" {
		return n.Space + ":" + n.Local
	}
	return n.Local
}
