package cmd

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/RoaringBitmap/roaring/v2"
)

// parseFilter parses comma separated ids and inclusive ranges such as
// "0-99,150,200-249" into a bitmap.
func parseFilter(s string) (*roaring.Bitmap, error) {
	bm := roaring.New()
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		lo, hi, isRange := strings.Cut(part, "-")
		start, err := strconv.ParseUint(strings.TrimSpace(lo), 10, 32)
		if err != nil {
			return nil, fmt.Errorf("invalid filter id %q: %w", part, err)
		}
		if !isRange {
			bm.Add(uint32(start))
			continue
		}
		end, err := strconv.ParseUint(strings.TrimSpace(hi), 10, 32)
		if err != nil {
			return nil, fmt.Errorf("invalid filter range %q: %w", part, err)
		}
		if end < start {
			return nil, fmt.Errorf("invalid filter range %q: end before start", part)
		}
		bm.AddRange(start, end+1)
	}
	return bm, nil
}
