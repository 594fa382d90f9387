package cmd

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/JakeFAU/newsreduce/internal/crawler"
)

func openInput(stdin io.Reader, path string) (io.ReadCloser, error) {
	if path == "-" {
		return io.NopCloser(stdin), nil
	}
	// #nosec G304 -- the operator names the input file.
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	return f, nil
}

// readURLs reads one URL per line, skipping blanks and # comments.
func readURLs(stdin io.Reader, path string) ([]string, error) {
	r, err := openInput(stdin, path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = r.Close() }()

	var urls []string
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		urls = append(urls, line)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read urls: %w", err)
	}
	return urls, nil
}

// readBuckets decodes a JSON array of day-buckets.
func readBuckets(stdin io.Reader, path string) ([]crawler.DayBucket, error) {
	r, err := openInput(stdin, path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = r.Close() }()

	var buckets []crawler.DayBucket
	if err := json.NewDecoder(r).Decode(&buckets); err != nil {
		return nil, fmt.Errorf("decode buckets: %w", err)
	}
	return buckets, nil
}
