package particles

import (
	"os"
	"runtime"
	"strconv"
	"sync"
)

const minChunk = 256

// parallelFor splits [0, n) into at most workers contiguous chunks of at
// least minChunk items and runs fn on each concurrently.
func parallelFor(n, workers, minChunk int, fn func(start, end int)) {
	if workers > n/minChunk {
		workers = n / minChunk
	}
	if workers <= 1 {
		fn(0, n)
		return
	}

	chunkSize := (n + workers - 1) / workers

	var wg sync.WaitGroup
	for start := 0; start < n; start += chunkSize {
		end := min(start+chunkSize, n)
		wg.Add(1)
		go func() {
			defer wg.Done()
			fn(start, end)
		}()
	}
	wg.Wait()
}

// WorkersFromEnv reads a positive worker count from the named variable,
// falling back to the number of CPUs.
func WorkersFromEnv(name string) int {
	return workersFrom(os.LookupEnv, name)
}

func workersFrom(lookup func(string) (string, bool), name string) int {
	if v, ok := lookup(name); ok {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			return n
		}
	}
	return runtime.NumCPU()
}
