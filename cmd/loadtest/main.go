// Command loadtest replays practice sentences against the assessment API,
// or the engine RPC port, and reports throughput, latency percentiles and
// the distribution of score bands.
//
// Usage:
//
//	go run ./cmd/loadtest -url http://localhost:8080 -concurrency 20 -duration 1m
//	go run ./cmd/loadtest -rpc localhost:9091
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"net/http"
	"os"
	"slices"
	"sync"
	"text/tabwriter"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/Adithya-Monish-Kumar-K/Pronunciation-Practice-Platform/pkg/proto"
	"github.com/Adithya-Monish-Kumar-K/Pronunciation-Practice-Platform/pkg/rpc"
)

type options struct {
	baseURL     string
	rpcAddr     string
	apiKey      string
	concurrency int
	duration    time.Duration
}

// attempt is one target sentence and what a learner said.
type attempt struct {
	target, transcript string
}

var attempts = []attempt{
	{"I like to code", "I love coding"},
	{"The quick brown fox jumps over the lazy dog", "The quick brown fox jump over lazy dog"},
	{"She sells seashells by the seashore", "She sell sea shells by the sea shore"},
	{"How much wood would a woodchuck chuck", "How much wood would a wood chuck chuck"},
	{"Peter Piper picked a peck of pickled peppers", "Peter Piper picked a peck of pickled peppers"},
	{"I would like a cup of coffee please", "I would like cup of coffee please"},
	{"Where is the nearest train station", "Where is the nearest train station"},
	{"Thank you very much for your help", "Thank you very much for you help"},
}

// outcome is what one call produced.
type outcome struct {
	status   int
	score    float64
	band     string
	cacheHit bool
}

type sender func(ctx context.Context, a attempt) (outcome, error)

// tally accumulates outcomes from all workers.
type tally struct {
	mu        sync.Mutex
	latencies []time.Duration
	statuses  map[int]int
	bands     map[string]int
	scoreSum  float64
	scored    int
	cacheHits int
	failures  int
}

func newTally() *tally {
	return &tally{statuses: make(map[int]int), bands: make(map[string]int)}
}

func (t *tally) add(elapsed time.Duration, o outcome, err error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if err != nil {
		t.failures++
		return
	}
	t.latencies = append(t.latencies, elapsed)
	t.statuses[o.status]++
	if o.status/100 != 2 {
		t.failures++
		return
	}
	t.scoreSum += o.score
	t.scored++
	if o.band != "" {
		t.bands[o.band]++
	}
	if o.cacheHit {
		t.cacheHits++
	}
}

func main() {
	var opts options
	flag.StringVar(&opts.baseURL, "url", "http://localhost:8080", "practice server base URL")
	flag.StringVar(&opts.rpcAddr, "rpc", "", "engine RPC address; when set, Engine.Score is called instead of HTTP")
	flag.StringVar(&opts.apiKey, "api-key", os.Getenv("PP_API_KEY"), "API key sent as a Bearer token")
	flag.IntVar(&opts.concurrency, "concurrency", 10, "concurrent workers")
	flag.DurationVar(&opts.duration, "duration", 30*time.Second, "how long to run")
	flag.Parse()

	target := opts.baseURL + "/api/v1/assess"
	if opts.rpcAddr != "" {
		target = "rpc://" + opts.rpcAddr
	}
	fmt.Printf("loadtest: %s, %d workers, %s, %d sentences\n", target, opts.concurrency, opts.duration, len(attempts))

	t, err := run(opts)
	if err != nil {
		fmt.Fprintf(os.Stderr, "loadtest: %v\n", err)
		os.Exit(1)
	}
	if !report(os.Stdout, t, opts.duration) {
		fmt.Fprintln(os.Stderr, "loadtest: no request succeeded; is the server running?")
		os.Exit(1)
	}
}

func run(opts options) (*tally, error) {
	ctx, cancel := context.WithTimeout(context.Background(), opts.duration)
	defer cancel()

	t := newTally()
	g, gctx := errgroup.WithContext(ctx)
	for w := range opts.concurrency {
		send, closeFn, err := newSender(gctx, opts)
		if err != nil {
			return nil, err
		}
		defer closeFn()

		g.Go(func() error {
			for i := w; gctx.Err() == nil; i++ {
				start := time.Now()
				o, err := send(gctx, attempts[i%len(attempts)])
				if gctx.Err() != nil {
					return nil
				}
				t.add(time.Since(start), o, err)
			}
			return nil
		})
	}
	return t, g.Wait()
}

func newSender(ctx context.Context, opts options) (sender, func(), error) {
	if opts.rpcAddr == "" {
		return httpSender(opts), func() {}, nil
	}
	client, err := rpc.Dial(ctx, opts.rpcAddr)
	if err != nil {
		return nil, nil, err
	}
	send := func(ctx context.Context, a attempt) (outcome, error) {
		var resp proto.ScoreResponse
		if err := client.Call(ctx, proto.MethodScore, proto.ScoreRequest{Target: a.target, Candidate: a.transcript}, &resp); err != nil {
			return outcome{}, err
		}
		return outcome{status: http.StatusOK, score: resp.Score}, nil
	}
	return send, func() { client.Close() }, nil
}

func httpSender(opts options) sender {
	client := &http.Client{
		Timeout: 10 * time.Second,
		Transport: &http.Transport{
			MaxIdleConnsPerHost: opts.concurrency,
			IdleConnTimeout:     90 * time.Second,
		},
	}
	url := opts.baseURL + "/api/v1/assess"
	return func(ctx context.Context, a attempt) (outcome, error) {
		body, err := json.Marshal(map[string]string{"target": a.target, "transcript": a.transcript})
		if err != nil {
			return outcome{}, err
		}
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
		if err != nil {
			return outcome{}, err
		}
		req.Header.Set("Content-Type", "application/json")
		if opts.apiKey != "" {
			req.Header.Set("Authorization", "Bearer "+opts.apiKey)
		}
		resp, err := client.Do(req)
		if err != nil {
			return outcome{}, err
		}
		defer resp.Body.Close()

		var out struct {
			FinalScore float64 `json:"final_score"`
			Band       string  `json:"band"`
			CacheHit   bool    `json:"cache_hit"`
		}
		_ = json.NewDecoder(resp.Body).Decode(&out)
		return outcome{status: resp.StatusCode, score: out.FinalScore, band: out.Band, cacheHit: out.CacheHit}, nil
	}
}

// report prints the summary and reports whether anything succeeded.
func report(w *os.File, t *tally, elapsed time.Duration) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	total := len(t.latencies) + countTransportErrors(t)
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "requests\t%d\n", total)
	fmt.Fprintf(tw, "failures\t%d\n", t.failures)
	fmt.Fprintf(tw, "cache hits\t%d\n", t.cacheHits)
	if total > 0 {
		fmt.Fprintf(tw, "throughput\t%.1f req/s\n", float64(total)/elapsed.Seconds())
	}
	if t.scored > 0 {
		fmt.Fprintf(tw, "mean score\t%.2f\n", t.scoreSum/float64(t.scored))
	}

	if lat := slices.Sorted(slices.Values(t.latencies)); len(lat) > 0 {
		fmt.Fprintln(tw, "\nlatency\t")
		for _, p := range []float64{50, 90, 95, 99, 100} {
			fmt.Fprintf(tw, "  p%g\t%s\n", p, percentile(lat, p).Round(time.Microsecond))
		}
	}
	if len(t.bands) > 0 {
		fmt.Fprintln(tw, "\nbands\t")
		for _, band := range sortedKeys(t.bands) {
			fmt.Fprintf(tw, "  %s\t%d\n", band, t.bands[band])
		}
	}
	if len(t.statuses) > 0 {
		fmt.Fprintln(tw, "\nstatus codes\t")
		for _, code := range sortedKeys(t.statuses) {
			fmt.Fprintf(tw, "  %d\t%d\n", code, t.statuses[code])
		}
	}
	_ = tw.Flush()
	return t.scored > 0
}

// countTransportErrors is the number of calls that never got a status.
func countTransportErrors(t *tally) int {
	withStatus := 0
	for code, n := range t.statuses {
		if code/100 != 2 {
			withStatus += n
		}
	}
	return t.failures - withStatus
}

func sortedKeys[K int | string, V any](m map[K]V) []K {
	keys := make([]K, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

// percentile uses the nearest-rank method on sorted latencies.
func percentile(sorted []time.Duration, p float64) time.Duration {
	if len(sorted) == 0 {
		return 0
	}
	rank := int(p/100*float64(len(sorted)) + 0.999999)
	return sorted[max(0, min(rank-1, len(sorted)-1))]
}
