// Command glyph indexes a codebase and serves hybrid lexical/semantic
// search and structural code queries over it, either as a one-shot CLI or
// as an MCP tool server for AI coding assistants.
package main

import (
	"os"

	"github.com/glyphcode/glyph/cmd/glyph/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
