package chunk

import "strings"

const (
	linesPerChunk   = 128
	lineOverlapSize = 16
)

// chunkByLines is the fallback path for files the parser doesn't recognize
// (unsupported extension, or a parse with zero extractable symbols).
func (c *Chunker) chunkByLines(filePath string, source []byte) []Chunk {
	lines := strings.Split(string(source), "\n")
	if len(lines) == 0 {
		return nil
	}

	var chunks []Chunk
	for start := 0; start < len(lines); start += linesPerChunk - lineOverlapSize {
		end := start + linesPerChunk
		if end > len(lines) {
			end = len(lines)
		}
		content := strings.Join(lines[start:end], "\n")
		startByte := byteOffsetOfLine(lines, start)
		endByte := startByte + len(content)

		chunks = append(chunks, Chunk{
			ID:         chunkID(filePath, startByte, endByte, content).String(),
			FilePath:   filePath,
			Content:    content,
			EmbedText:  "// File: " + filePath + "\n" + content,
			StartLine:  start + 1,
			EndLine:    end,
			SymbolKind: "text_block",
		})
		if end == len(lines) {
			break
		}
	}
	return chunks
}

func byteOffsetOfLine(lines []string, lineIdx int) int {
	offset := 0
	for i := 0; i < lineIdx && i < len(lines); i++ {
		offset += len(lines[i]) + 1
	}
	return offset
}
