package chapters

import "fmt"

// fromChunks partitions the book into fixed-size chapters when neither
// candidates nor heuristics produced anything. Chunk size is
// max(10, pageCount/10), so any non-empty book yields at least one
// chapter and every page is covered exactly once.
func fromChunks(pageCount int) []Chapter {
	size := pageCount / 10
	if size < 10 {
		size = 10
	}

	var chapters []Chapter
	for start := 1; start <= pageCount; start += size {
		end := start + size - 1
		if end > pageCount {
			end = pageCount
		}
		chapters = append(chapters, Chapter{
			Index:     len(chapters),
			Title:     fmt.Sprintf("Chapter %d", len(chapters)+1),
			StartPage: start,
			EndPage:   end,
			Source:    SourceChunking,
		})
	}
	return chapters
}
