package main

import (
	"bufio"
	"crypto/rand"
	"encoding/binary"
	"os"
	"strings"
)

// Built-in pools used whenever a content file is missing, unreadable, or
// empty, so startup never fails on content.
var fallbackPrompts = []string{
	"What is the worst possible name for a pet?",
	"What would you do with a million dollars and one hour to spend it?",
	"What is the most useless superpower you can think of?",
	"What should be written on your tombstone?",
	"What is the worst thing to say at a job interview?",
	"What would aliens find most confusing about Earth?",
	"What is the best excuse for being late?",
	"What is the worst possible slogan for a toothpaste brand?",
	"What would you bring to a deserted island?",
	"What is the strangest thing you could find in a fridge?",
	"What is the worst piece of advice to give a new parent?",
	"What would your autobiography be titled?",
}

var fallbackStyles = []string{
	"as a pirate",
	"in exactly three words",
	"as a movie trailer voiceover",
	"like a passive-aggressive roommate note",
	"as a haiku",
	"in the style of a sports commentator",
	"like an overly formal email",
	"as a conspiracy theorist",
	"like a medieval knight",
	"as an infomercial host",
	"in the voice of a grumpy cat",
	"like a weather forecast",
}

// ContentProvider holds the immutable prompt and answer-style pools for the
// process lifetime. Pools are read-only after load and safe to share without
// synchronization.
type ContentProvider struct {
	prompts []string
	styles  []string
}

func loadContent(cfg *Config) *ContentProvider {
	prompts := loadLines(cfg, cfg.promptsFile)
	if len(prompts) == 0 {
		prompts = fallbackPrompts
	}

	styles := loadLines(cfg, cfg.stylesFile)
	if len(styles) == 0 {
		styles = fallbackStyles
	}

	logf(cfg, "CONTENT: Loaded %d prompts and %d answer styles", len(prompts), len(styles))

	return &ContentProvider{
		prompts: prompts,
		styles:  styles,
	}
}

// loadLines reads a line-delimited file, skipping blank lines. Any failure
// yields an empty slice, which callers substitute with a fallback pool.
func loadLines(cfg *Config, path string) []string {
	if path == "" {
		return nil
	}

	f, err := os.Open(path)
	if err != nil {
		logf(cfg, "CONTENT: Unable to read %q: %v", path, err)
		return nil
	}
	defer f.Close()

	var lines []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		lines = append(lines, line)
	}
	if err := scanner.Err(); err != nil {
		logf(cfg, "CONTENT: Error reading %q: %v", path, err)
		return nil
	}

	return lines
}

func (c *ContentProvider) Prompts(n int) []string {
	return sample(c.prompts, n)
}

func (c *ContentProvider) Styles(n int) []string {
	return sample(c.styles, n)
}

// sample returns min(n, len(pool)) distinct elements drawn uniformly at
// random without replacement, in randomized order. The pool itself is never
// mutated.
func sample(pool []string, n int) []string {
	if n > len(pool) {
		n = len(pool)
	}
	if n <= 0 {
		return []string{}
	}

	picked := make([]string, len(pool))
	copy(picked, pool)

	// Partial Fisher-Yates: only the first n positions need settling.
	for i := 0; i < n; i++ {
		j := i + randIndex(len(picked)-i)
		picked[i], picked[j] = picked[j], picked[i]
	}

	return picked[:n]
}

// randIndex returns a crypto/rand integer in [0, n).
func randIndex(n int) int {
	if n <= 1 {
		return 0
	}

	var b [4]byte
	if _, err := rand.Read(b[:]); err != nil {
		panic("crypto/rand failure: " + err.Error())
	}

	return int(binary.BigEndian.Uint32(b[:]) % uint32(n))
}
