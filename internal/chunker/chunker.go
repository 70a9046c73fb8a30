package chunker

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidParams reports malformed chunking parameters. It is returned
// before any text is processed.
var ErrInvalidParams = errors.New("invalid chunking parameters")

// Chunk splits text into windows of at most chunkSize characters, with
// successive windows overlapping by overlap characters. Sizes count runes,
// not bytes, so a hard cut never lands inside a multi-byte character.
// Non-terminal windows are cut back to the last sentence terminator or line
// break when that boundary lies past the window midpoint, to avoid
// mid-sentence cuts. When no boundary is found past the midpoint the hard
// cut is accepted as-is; this is a known quality trade-off inherited from
// the boundary policy, not a bug.
//
// Each chunk is whitespace-trimmed; chunks that trim to nothing are dropped.
// Empty input yields no chunks and no error.
func Chunk(text string, chunkSize, overlap int) ([]string, error) {
	if chunkSize <= 0 {
		return nil, fmt.Errorf("%w: chunk_size must be positive, got %d", ErrInvalidParams, chunkSize)
	}
	if overlap < 0 {
		return nil, fmt.Errorf("%w: overlap must not be negative, got %d", ErrInvalidParams, overlap)
	}
	if overlap >= chunkSize {
		return nil, fmt.Errorf("%w: overlap %d must be smaller than chunk_size %d", ErrInvalidParams, overlap, chunkSize)
	}

	var chunks []string
	runes := []rune(text)
	n := len(runes)
	start := 0
	for start < n {
		end := start + chunkSize
		var window []rune
		if end < n {
			window = runes[start:end]
			split := -1
			for i := len(window) - 1; i >= 0; i-- {
				if window[i] == '.' || window[i] == '\n' {
					split = i
					break
				}
			}
			if float64(split) > float64(chunkSize)*0.5 {
				window = window[:split+1]
				end = start + split + 1
			}
		} else {
			window = runes[start:]
		}

		if trimmed := strings.TrimSpace(string(window)); trimmed != "" {
			chunks = append(chunks, trimmed)
		}

		next := end - overlap
		if next <= start {
			// a boundary cut shortened the window below the overlap;
			// advance to the window end rather than stalling
			next = end
		}
		start = next
	}
	return chunks, nil
}
