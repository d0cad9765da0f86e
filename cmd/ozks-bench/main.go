package main

import (
	"flag"
	"fmt"
	"math/rand"
	"os"
	"time"

	"github.com/iotaledger/ozks/ozks"
	"github.com/iotaledger/ozks/payload"
	"github.com/iotaledger/ozks/storage"
	"github.com/iotaledger/ozks/trie"
)

const usage = "USAGE: ozks-bench [-n=<num pairs>] [-vrf] [-committed] [-threads=<n>]\n"

var (
	num       = flag.Int("n", 10000, "number of key/payload pairs to insert")
	useVRF    = flag.Bool("vrf", false, "use VRF-blinded labels instead of plain hashed labels")
	committed = flag.Bool("committed", false, "use randomized (Committed) payload commitments")
	threads   = flag.Int("threads", 0, "worker thread count (0 = GOMAXPROCS)")
)

func must(err error) {
	if err != nil {
		fmt.Printf("error: %v\n", err)
		os.Exit(1)
	}
}

func main() {
	flag.Usage = func() { fmt.Print(usage); flag.PrintDefaults() }
	flag.Parse()

	labelType := ozks.HashedLabels
	if *useVRF {
		labelType = ozks.VRFLabels
	}
	mode := payload.Uncommitted
	if *committed {
		mode = payload.Committed
	}

	o, err := ozks.New(ozks.OZKSConfig{
		LabelType:         labelType,
		PayloadCommitment: mode,
		TrieType:          trie.KindLinked,
		Storage:           storage.NewMemory(),
		VRFCacheSize:      4096,
		ThreadCount:       *threads,
	})
	must(err)

	fmt.Printf("inserting %d key/payload pairs (vrf=%v, committed=%v)\n", *num, *useVRF, *committed)
	rnd := rand.New(rand.NewSource(1))
	start := time.Now()
	for i := 0; i < *num; i++ {
		key := randomBytes(rnd, 20)
		value := randomBytes(rnd, 64)
		o.Insert(key, value)
	}
	must(o.Flush())
	elapsed := time.Since(start)

	commitment, err := o.GetCommitment()
	must(err)

	fmt.Printf("flushed %d pairs in %v (%.0f inserts/sec)\n", *num, elapsed, float64(*num)/elapsed.Seconds())
	fmt.Printf("root commitment: %x\n", commitment.RootHash)
}

func randomBytes(rnd *rand.Rand, n int) []byte {
	b := make([]byte, n)
	_, _ = rnd.Read(b)
	return b
}
