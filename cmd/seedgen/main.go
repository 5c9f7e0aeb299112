package main

import (
	"encoding/hex"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"strings"

	"github.com/chenzhangda16/seedmix/internal/seedmix/cache"
	"github.com/chenzhangda16/seedmix/internal/seedmix/entropy"
	"github.com/chenzhangda16/seedmix/pkg/hash"
	"github.com/chenzhangda16/seedmix/pkg/rng"
)

type options struct {
	alg    string
	n      int
	hexBuf string
	layout string

	days     uint
	uniqueID uint64
	millis   int64
	steps    int64
	lastSeed int
	key      string
	seeds    string

	streams string
	seed    uint64
}

var errUsage = errors.New("one of -hex, -layout or -streams is required")

func main() {
	log.SetFlags(log.Ldate | log.Ltime | log.Lmicroseconds | log.Lshortfile)
	var o options
	flag.StringVar(&o.alg, "alg", "xoshiro256", "generator algorithm: xoshiro256, xoroshiro64 or pcg")
	flag.IntVar(&o.n, "n", 10, "outputs to print")
	flag.StringVar(&o.hexBuf, "hex", "", "entropy buffer as hex")
	flag.StringVar(&o.layout, "layout", "", "assemble a buffer: day, interval or general")

	flag.UintVar(&o.days, "days", 1, "days played")
	flag.Uint64Var(&o.uniqueID, "save", 1, "unique save id")
	flag.Int64Var(&o.millis, "millis", 0, "cached milliseconds played")
	flag.Int64Var(&o.steps, "steps", 0, "cached steps taken")
	flag.IntVar(&o.lastSeed, "last-seed", 0, "cached last seed")
	flag.StringVar(&o.key, "key", "", "interval key")
	flag.StringVar(&o.seeds, "seeds", "", "comma separated seed components (3 for day, 5 for general)")

	flag.StringVar(&o.streams, "streams", "", "comma separated named streams from -seed")
	flag.Uint64Var(&o.seed, "seed", 1, "base seed for -streams")
	flag.Parse()

	if err := run(os.Stdout, o); err != nil {
		if errors.Is(err, errUsage) {
			flag.Usage()
		}
		log.Fatal(err)
	}
}

func run(w io.Writer, o options) error {
	e, err := rng.NewEngine(rng.Algorithm(o.alg))
	if err != nil {
		return err
	}

	switch {
	case o.streams != "":
		f := rng.NewFactory(e, rng.Deterministic, o.seed)
		for _, name := range strings.Split(o.streams, ",") {
			name = strings.TrimSpace(name)
			if name == "" {
				continue
			}
			fmt.Fprintf(w, "stream %s:", name)
			printOutputs(w, f.R(name).Uint64, o.n)
		}
		return nil

	case o.hexBuf != "":
		buf, err := hex.DecodeString(strings.TrimPrefix(o.hexBuf, "0x"))
		if err != nil {
			return fmt.Errorf("bad -hex: %w", err)
		}
		return emit(w, e, buf, o.n)

	case o.layout != "":
		buf, err := assemble(o)
		if err != nil {
			return err
		}
		return emit(w, e, buf, o.n)
	}
	return errUsage
}

func assemble(o options) ([]byte, error) {
	g := entropy.GameState{DaysPlayed: uint32(o.days), UniqueID: o.uniqueID}
	st := cache.State{LastMillis: o.millis, LastSteps: o.steps, LastSeed: int32(o.lastSeed)}

	switch strings.ToLower(o.layout) {
	case "day":
		s, err := parseSeeds(o.seeds, 3)
		if err != nil {
			return nil, err
		}
		return entropy.DaySaveBuffer(g, st, s[0], s[1], s[2]), nil
	case "interval":
		return entropy.IntervalBuffer(o.key, g, st), nil
	case "general":
		s, err := parseSeeds(o.seeds, 5)
		if err != nil {
			return nil, err
		}
		return entropy.GeneralBuffer(s[0], s[1], s[2], s[3], s[4]), nil
	}
	return nil, fmt.Errorf("unknown layout %q", o.layout)
}

// parseSeeds reads up to n components; missing ones are zero.
func parseSeeds(s string, n int) ([]float64, error) {
	out := make([]float64, n)
	if strings.TrimSpace(s) == "" {
		return out, nil
	}
	parts := strings.Split(s, ",")
	if len(parts) > n {
		return nil, fmt.Errorf("want at most %d seed components, got %d", n, len(parts))
	}
	for i, p := range parts {
		if _, err := fmt.Sscan(strings.TrimSpace(p), &out[i]); err != nil {
			return nil, fmt.Errorf("seed component %d: %w", i, err)
		}
	}
	return out, nil
}

func emit(w io.Writer, e *rng.Engine, buf []byte, n int) error {
	h := hash.Condense(buf)
	st := e.State(buf)
	fmt.Fprintf(w, "buffer    %x\n", buf)
	fmt.Fprintf(w, "condensed %016x fold32=%d\n", h, hash.Fold32(h))
	fmt.Fprintf(w, "state     %x\n", st.Words[:st.Layout.Words])
	fmt.Fprint(w, "outputs:")
	printOutputs(w, e.Generate(buf).Uint64, n)
	return nil
}

func printOutputs(w io.Writer, next func() uint64, n int) {
	for i := 0; i < n; i++ {
		fmt.Fprintf(w, " %016x", next())
	}
	fmt.Fprintln(w)
}
