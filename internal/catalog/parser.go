package catalog

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/signalsfoundry/orbital-risk/internal/logging"
	"github.com/signalsfoundry/orbital-risk/model"
)

// tleLineLength is the fixed width of a TLE data line.
const tleLineLength = 69

// Parse reads 3-line TLE records (name, line 1, line 2) from r. Records with
// a wrong line width or an unreadable catalog number are skipped and counted.
// A record whose data lines do not start with "1 " and "2 " is treated as
// misaligned and the parser resynchronises one line further on.
func Parse(ctx context.Context, r io.Reader, log logging.Logger) ([]model.TrackedObject, int, error) {
	if log == nil {
		log = logging.Noop()
	}
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	var lines []string
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line != "" {
			lines = append(lines, line)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, 0, fmt.Errorf("reading TLE data: %w", err)
	}

	var (
		objects []model.TrackedObject
		skipped int
	)
	for i := 0; i+2 < len(lines); {
		name, line1, line2 := lines[i], lines[i+1], lines[i+2]

		if !strings.HasPrefix(line1, "1 ") || !strings.HasPrefix(line2, "2 ") {
			log.Debug(ctx, "skipping misaligned TLE line", logging.Int("line_index", i), logging.String("name", name))
			skipped++
			i++
			continue
		}
		i += 3

		if len(line1) != tleLineLength || len(line2) != tleLineLength {
			log.Debug(ctx, "skipping TLE with wrong line length",
				logging.String("name", name),
				logging.Int("line1_len", len(line1)),
				logging.Int("line2_len", len(line2)),
			)
			skipped++
			continue
		}

		number, err := strconv.Atoi(strings.TrimSpace(line1[2:7]))
		if err != nil {
			log.Debug(ctx, "skipping TLE with invalid catalog number", logging.String("name", name), logging.Err(err))
			skipped++
			continue
		}

		obj, err := model.NewTrackedObject(name, number, line1, line2)
		if err != nil {
			log.Debug(ctx, "skipping invalid TLE record", logging.String("name", name), logging.Err(err))
			skipped++
			continue
		}
		objects = append(objects, obj)
	}
	return objects, skipped, nil
}

// Dedupe collapses objects sharing a catalog number. The last occurrence
// wins but keeps the position of the first, so output order is stable.
func Dedupe(objects []model.TrackedObject) []model.TrackedObject {
	index := make(map[int]int, len(objects))
	out := make([]model.TrackedObject, 0, len(objects))
	for _, o := range objects {
		if i, ok := index[o.CatalogNumber]; ok {
			out[i] = o
			continue
		}
		index[o.CatalogNumber] = len(out)
		out = append(out, o)
	}
	return out
}
