package tools

import (
	"path/filepath"
	"strings"
)

// pathEscapes reports whether target falls outside the root directory
// tree. An empty root disables confinement (tools constructed without a
// workspace root accept any absolute path).
func pathEscapes(root, target string) bool {
	if root == "" {
		return false
	}
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return false
	}
	rel, err := filepath.Rel(absRoot, filepath.Clean(target))
	if err != nil {
		return true
	}
	return rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator))
}

func pathEscapeError(target string) ToolOutput {
	return ToolOutput{
		Content: "Error: PathEscape: " + target + " is outside the workspace root",
		IsError: true,
	}
}
