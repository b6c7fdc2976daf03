package treefile

import (
	"bytes"
	stderrors "errors"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/vango-dev/patchwork/internal/errors"
)

// File is a parsed tree description.
type File struct {
	// Name is the file name used in diagnostics.
	Name string

	// Components maps tag names to templates, merged across documents.
	Components map[string]*Component

	frames []*yaml.Node
	src    []byte
}

// Component is a named template. Its pointer identity is the component
// descriptor, so instances of the same template patch in place.
type Component struct {
	Name     string
	template *yaml.Node
}

// Len returns the number of frames.
func (f *File) Len() int {
	return len(f.frames)
}

// Load reads and parses the file at path.
func Load(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.New("T002").
				WithDetail(path).
				WithSuggestion("Check the path or pass a tree file explicitly")
		}
		return nil, errors.New("T002").WithDetail(path).Wrap(err)
	}
	return Parse(path, data)
}

// Parse parses data. name is used in diagnostics.
func Parse(name string, data []byte) (*File, error) {
	f := &File{Name: name, Components: make(map[string]*Component), src: data}

	dec := yaml.NewDecoder(bytes.NewReader(data))
	for {
		var doc yaml.Node
		err := dec.Decode(&doc)
		if stderrors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, errors.New("T001").
				WithDetailf("%s: %v", name, err).
				WithSuggestion("Check that the file is valid YAML or JSON")
		}
		if err := f.addDocument(&doc); err != nil {
			return nil, err
		}
	}

	if len(f.frames) == 0 {
		return nil, errors.New("T001").WithDetailf("%s: no frames", name)
	}
	return f, nil
}

func (f *File) addDocument(doc *yaml.Node) error {
	n := resolve(doc)
	if n.Kind == yaml.DocumentNode {
		if len(n.Content) == 0 {
			return nil
		}
		n = resolve(n.Content[0])
	}
	if n.Kind != yaml.MappingNode {
		return f.malformed(n, "a document must be a node or a mapping with root, frames or components")
	}

	_, hasRoot := lookup(n, "root")
	_, hasFrames := lookup(n, "frames")
	_, hasComponents := lookup(n, "components")
	if !hasRoot && !hasFrames && !hasComponents {
		f.frames = append(f.frames, n)
		return nil
	}

	for i := 0; i+1 < len(n.Content); i += 2 {
		key, value := n.Content[i], resolve(n.Content[i+1])
		switch key.Value {
		case "components":
			if value.Kind != yaml.MappingNode {
				return f.malformed(value, "components must be a mapping of name to template")
			}
			for j := 0; j+1 < len(value.Content); j += 2 {
				cname, tmpl := value.Content[j].Value, resolve(value.Content[j+1])
				if tmpl.Kind != yaml.MappingNode {
					return f.malformed(tmpl, "component "+cname+" must be a node mapping")
				}
				if c, ok := f.Components[cname]; ok {
					// Redefinition keeps the descriptor so existing
					// instances patch in place.
					c.template = tmpl
					continue
				}
				f.Components[cname] = &Component{Name: cname, template: tmpl}
			}
		case "root":
			f.frames = append(f.frames, value)
		case "frames":
			if value.Kind != yaml.SequenceNode {
				return f.malformed(value, "frames must be a sequence")
			}
			for _, fr := range value.Content {
				f.frames = append(f.frames, resolve(fr))
			}
		default:
			return f.malformed(key, "unknown document field "+key.Value)
		}
	}
	return nil
}

func (f *File) malformed(n *yaml.Node, detail string) *errors.Error {
	e := errors.New("T001").WithDetail(detail)
	if n != nil && n.Line > 0 {
		e.WithSource(f.Name, f.src, n.Line, n.Column)
	}
	return e
}

// resolve follows aliases.
func resolve(n *yaml.Node) *yaml.Node {
	for n != nil && n.Kind == yaml.AliasNode {
		n = n.Alias
	}
	return n
}

// lookup returns the value for key in a mapping node.
func lookup(m *yaml.Node, key string) (*yaml.Node, bool) {
	for i := 0; i+1 < len(m.Content); i += 2 {
		if m.Content[i].Value == key {
			return resolve(m.Content[i+1]), true
		}
	}
	return nil, false
}
