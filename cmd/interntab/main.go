// Package main implements interntab, an operator tool that measures how much
// a stream of tokens would deduplicate in the intern table.
//
// interntab reads newline-delimited tokens from the files named on the command
// line (or stdin), interns every token, prints a JSON summary with the
// deduplication ratio, the most repeated tokens and per-shard statistics,
// then releases its handles and shuts the table down, reporting leaks.
//
// Configuration:
//   - INTERNTAB_SEED: Forced hash seed, decimal uint32 (default: clock-derived)
//   - INTERNTAB_HASHER: "murmur3" or "fnv1a" (default: "murmur3")
//   - INTERNTAB_ABORT_ON_LEAKS: Exit non-zero if shutdown finds leaks (default: false)
//   - INTERNTAB_KEEP: Distinct tokens deliberately kept referenced across
//     shutdown, to exercise leak reporting (default: 0)
//   - INTERNTAB_TOP: Number of most repeated tokens to print (default: 10)
//   - INTERNTAB_LOG_LEVEL: zerolog level name (default: "info")
//
// Example usage:
//
//	# Header names captured from a proxy log
//	INTERNTAB_SEED=42 ./interntab headers.txt
//
//	# Check leak reporting
//	INTERNTAB_KEEP=3 INTERNTAB_LOG_LEVEL=warn ./interntab < headers.txt
package main

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/exp/slices"

	"github.com/dreamware/interntab/internal/hash"
	"github.com/dreamware/interntab/internal/intern"
)

// logFatal is a variable to allow mocking fatal logging in tests.
var logFatal = func(format string, v ...any) {
	log.Fatal().Msgf(format, v...)
}

// config holds the settings read from the environment.
type config struct {
	hasher       hash.Func
	logLevel     zerolog.Level
	seed         uint32
	seedForced   bool
	abortOnLeaks bool
	keep         int
	top          int
}

// tokenCount is one distinct token and how often it was seen.
type tokenCount struct {
	Token string `json:"token"`
	Count int    `json:"count"`
}

// summary is the JSON document written to stdout.
type summary struct {
	Tokens   int               `json:"tokens"`
	Distinct int               `json:"distinct"`
	Ratio    float64           `json:"dedup_ratio"`
	Bytes    int               `json:"bytes"`
	Stored   int               `json:"stored_bytes"`
	Top      []tokenCount      `json:"top"`
	Stats    intern.TableStats `json:"stats"`
	Leaked   int               `json:"leaked"`
}

func main() {
	cfg := loadConfig()
	zerolog.SetGlobalLevel(cfg.logLevel)
	log.Logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()

	var in io.Reader = os.Stdin
	if len(os.Args) > 1 {
		readers := make([]io.Reader, 0, len(os.Args)-1)
		for _, name := range os.Args[1:] {
			f, err := os.Open(name)
			if err != nil {
				logFatal("open %s: %v", name, err)
				return
			}
			defer f.Close()
			readers = append(readers, f)
		}
		in = io.MultiReader(readers...)
	}

	s, err := run(cfg, in, log.Logger)
	if err != nil {
		logFatal("interntab: %v", err)
		return
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(s); err != nil {
		logFatal("encode summary: %v", err)
	}
}

// run interns every line of in, summarizes the result and shuts the table
// down. The first cfg.keep distinct tokens are left referenced so they show
// up as leaks.
func run(cfg config, in io.Reader, logger zerolog.Logger) (summary, error) {
	opts := []intern.Option{
		intern.WithHasher(cfg.hasher),
		intern.WithAbortOnLeaks(cfg.abortOnLeaks),
		intern.WithLogger(logger),
	}
	if cfg.seedForced {
		opts = append(opts, intern.WithSeed(cfg.seed))
	}
	tbl := intern.New(opts...)

	var (
		s     summary
		order []intern.Handle
	)
	counts := make(map[intern.Handle]int)

	sc := bufio.NewScanner(in)
	sc.Buffer(make([]byte, 64*1024), 1024*1024)
	for sc.Scan() {
		h := tbl.Intern(sc.Bytes())
		if _, seen := counts[h]; seen {
			// counts already owns a reference to this entry.
			h.Drop()
		} else {
			order = append(order, h)
			s.Stored += h.Len()
		}
		counts[h]++
		s.Tokens++
		s.Bytes += h.Len()
	}
	if err := sc.Err(); err != nil {
		for _, h := range order {
			h.Drop()
		}
		tbl.Shutdown()
		return summary{}, fmt.Errorf("read tokens: %w", err)
	}

	s.Distinct = len(order)
	if s.Distinct > 0 {
		s.Ratio = float64(s.Tokens) / float64(s.Distinct)
	}
	s.Top = topTokens(order, counts, cfg.top)
	s.Stats = tbl.Stats()

	for i, h := range order {
		if i < cfg.keep {
			continue
		}
		h.Drop()
	}
	report := tbl.Shutdown()
	s.Leaked = report.Len()

	logger.Info().
		Int("tokens", s.Tokens).
		Int("distinct", s.Distinct).
		Int("leaked", s.Leaked).
		Msg("interntab finished")
	return s, nil
}

// topTokens returns the n most frequent tokens, ties broken by first
// appearance.
func topTokens(order []intern.Handle, counts map[intern.Handle]int, n int) []tokenCount {
	all := make([]tokenCount, 0, len(order))
	for _, h := range order {
		all = append(all, tokenCount{Token: h.String(), Count: counts[h]})
	}
	slices.SortStableFunc(all, func(a, b tokenCount) int {
		return b.Count - a.Count
	})
	if n >= 0 && len(all) > n {
		all = all[:n]
	}
	return all
}

// loadConfig reads the environment, terminating on invalid values.
func loadConfig() config {
	cfg, err := parseConfig(os.Getenv)
	if err != nil {
		logFatal("config: %v", err)
	}
	return cfg
}

// parseConfig builds a config from lookup, which behaves like os.Getenv.
func parseConfig(lookup func(string) string) (config, error) {
	get := func(k, def string) string {
		if v := lookup(k); v != "" {
			return v
		}
		return def
	}

	cfg := config{}

	fn, err := hash.ByName(get("INTERNTAB_HASHER", "murmur3"))
	if err != nil {
		return config{}, fmt.Errorf("INTERNTAB_HASHER: %w", err)
	}
	cfg.hasher = fn

	if v := lookup("INTERNTAB_SEED"); v != "" {
		seed, err := strconv.ParseUint(v, 10, 32)
		if err != nil {
			return config{}, fmt.Errorf("INTERNTAB_SEED: %w", err)
		}
		cfg.seed = uint32(seed)
		cfg.seedForced = true
	}

	if cfg.abortOnLeaks, err = strconv.ParseBool(get("INTERNTAB_ABORT_ON_LEAKS", "false")); err != nil {
		return config{}, fmt.Errorf("INTERNTAB_ABORT_ON_LEAKS: %w", err)
	}
	if cfg.keep, err = strconv.Atoi(get("INTERNTAB_KEEP", "0")); err != nil || cfg.keep < 0 {
		return config{}, fmt.Errorf("INTERNTAB_KEEP: invalid value %q", lookup("INTERNTAB_KEEP"))
	}
	if cfg.top, err = strconv.Atoi(get("INTERNTAB_TOP", "10")); err != nil || cfg.top < 0 {
		return config{}, fmt.Errorf("INTERNTAB_TOP: invalid value %q", lookup("INTERNTAB_TOP"))
	}
	if cfg.logLevel, err = zerolog.ParseLevel(get("INTERNTAB_LOG_LEVEL", "info")); err != nil {
		return config{}, fmt.Errorf("INTERNTAB_LOG_LEVEL: %w", err)
	}
	return cfg, nil
}
