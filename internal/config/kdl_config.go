package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	kdl "github.com/sblinch/kdl-go"
	"github.com/sblinch/kdl-go/document"
)

// Load looks for .asmsurface.kdl in projectRoot and parses it. A
// missing file is not an error - it returns the built-in Default().
func Load(projectRoot string) (Config, error) {
	cfg := Default()

	kdlPath := filepath.Join(projectRoot, ".asmsurface.kdl")
	content, err := os.ReadFile(kdlPath)
	if os.IsNotExist(err) {
		return cfg, nil
	}
	if err != nil {
		return cfg, fmt.Errorf("failed to read .asmsurface.kdl: %w", err)
	}

	return parseKDL(content, cfg)
}

func parseKDL(content []byte, cfg Config) (Config, error) {
	doc, err := kdl.Parse(strings.NewReader(string(content)))
	if err != nil {
		return cfg, fmt.Errorf("failed to parse .asmsurface.kdl: %w", err)
	}

	for _, n := range doc.Nodes {
		switch nodeName(n) {
		case "include-all-attributes":
			if b, ok := firstBoolArg(n); ok {
				cfg.IncludeAllAttributes = b
			}
		case "exclude":
			cfg.Exclude = collectStringArgs(n)
		case "watch-debounce-ms":
			if v, ok := firstIntArg(n); ok {
				cfg.WatchDebounceMs = v
			}
		}
	}

	return cfg, nil
}

func nodeName(n *document.Node) string {
	if n == nil || n.Name == nil {
		return ""
	}
	return n.Name.NodeNameString()
}

func firstIntArg(n *document.Node) (int, bool) {
	if len(n.Arguments) == 0 {
		return 0, false
	}
	switch v := n.Arguments[0].Value.(type) {
	case int64:
		return int(v), true
	case float64:
		return int(v), true
	default:
		return 0, false
	}
}

func firstBoolArg(n *document.Node) (bool, bool) {
	if len(n.Arguments) == 0 {
		return false, false
	}
	if b, ok := n.Arguments[0].Value.(bool); ok {
		return b, true
	}
	return false, false
}

func firstStringArg(n *document.Node) (string, bool) {
	if len(n.Arguments) == 0 {
		return "", false
	}
	if s, ok := n.Arguments[0].Value.(string); ok {
		return s, true
	}
	return "", false
}

// collectStringArgs reads exclude "a/**" "b/**" (inline arguments) or
// exclude { "a/**"; "b/**" } (block form, one pattern per child node
// name) - the same two KDL shapes this codebase's other list settings
// accept.
func collectStringArgs(n *document.Node) []string {
	if n == nil {
		return nil
	}
	out := make([]string, 0, len(n.Arguments))
	for _, a := range n.Arguments {
		if s, ok := a.Value.(string); ok {
			out = append(out, s)
		}
	}
	if len(out) == 0 && len(n.Children) > 0 {
		out = make([]string, 0, len(n.Children))
		for _, child := range n.Children {
			if s, ok := firstStringArg(child); ok {
				out = append(out, s)
			} else if child.Name != nil {
				if s, ok := child.Name.Value.(string); ok {
					out = append(out, s)
				}
			}
		}
	}
	return out
}
