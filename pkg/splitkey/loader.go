package splitkey

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"
	"time"
	"unicode"

	"github.com/schollz/progressbar/v3"
)

const (
	// progressThreshold is the file size above which loading shows progress.
	progressThreshold = 100000

	// addressLineBytes is a lower bound on the length of a line, which makes
	// size/addressLineBytes an upper approximation of the line count.
	addressLineBytes = 33
)

// EstimateLines approximates the number of lines of a file of the given
// size. It only drives the progress indicator.
func EstimateLines(size int64) int64 {
	return size / addressLineBytes
}

// ReadLines reads path, strips trailing whitespace and drops empty lines.
// Progress is written to progress for large files; a nil writer disables it.
func ReadLines(path string, progress io.Writer) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: cannot open %s: %v", ErrFile, path, err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("%w: cannot stat %s: %v", ErrFile, path, err)
	}

	estimate := EstimateLines(info.Size())
	var bar *progressbar.ProgressBar
	if progress != nil && info.Size() > progressThreshold {
		bar = progressbar.NewOptions64(estimate,
			progressbar.OptionSetWriter(progress),
			progressbar.OptionSetDescription("Loading input file"),
			progressbar.OptionThrottle(100*time.Millisecond),
			progressbar.OptionOnCompletion(func() { fmt.Fprintln(progress) }),
		)
	}

	lines := make([]string, 0, estimate)
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := strings.TrimRightFunc(scanner.Text(), unicode.IsSpace)
		if line == "" {
			continue
		}
		lines = append(lines, line)
		if bar != nil {
			_ = bar.Add(1)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("%w: cannot read %s: %v", ErrFile, path, err)
	}
	if bar != nil {
		_ = bar.Finish()
	}

	return lines, nil
}
