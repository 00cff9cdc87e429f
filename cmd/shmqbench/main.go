/*
 * Copyright 2024 CloudWeGo Authors
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

// Command shmqbench drives a queue.Queue with a configurable number of
// producer and consumer goroutines and reports throughput plus a final
// Stats() snapshot. Introspection lives here, in a throwaway binary built
// on top of queue's public API, rather than as a pretty-printer baked into
// the core package.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/cloudwego/shmqueue/internal/gopool"
	"github.com/cloudwego/shmqueue/internal/mempool"
	"github.com/cloudwego/shmqueue/internal/xfnv"
	"github.com/cloudwego/shmqueue/queue"
	"github.com/cloudwego/shmqueue/region"
)

func main() {
	var (
		key        = flag.Int("key", 42, "shared memory key; negative uses an in-process fake instead of real SysV shm")
		dataSize   = flag.Uint64("data-size", 256, "max payload size in bytes")
		count      = flag.Uint("count", 1024, "slot count, rounded up to a power of two")
		overwrite  = flag.Bool("overwrite", false, "drop the oldest node instead of rejecting Push when full")
		producers  = flag.Int("producers", 4, "number of producer goroutines")
		consumers  = flag.Int("consumers", 4, "number of consumer goroutines")
		perProduce = flag.Uint64("n", 1_000_000, "push attempts per producer (ErrFull rejections count toward it)")
		duration   = flag.Duration("duration", 0, "if set, run for this long instead of stopping at -n per producer")
	)
	flag.Parse()

	provider, destroy := openProvider(int32(*key))
	defer destroy()

	q, err := queue.Create(provider, queue.Config{
		Key:       int32(*key),
		DataSize:  *dataSize,
		Count:     uint32(*count),
		Overwrite: *overwrite,
	})
	if err != nil {
		log.Fatalf("shmqbench: create: %v", err)
	}
	defer q.Close()

	ctx, cancel := context.WithCancel(context.Background())
	if *duration > 0 {
		t := time.AfterFunc(*duration, cancel)
		defer t.Stop()
	}

	var (
		pushed, popped, rejected, corrupted int64
		wg                                  sync.WaitGroup
	)
	pool := gopool.NewGoPool("shmqbench", nil)

	start := time.Now()

	wg.Add(*producers)
	for p := 0; p < *producers; p++ {
		p := p
		pool.CtxGo(ctx, func() {
			defer wg.Done()
			runProducer(ctx, q, p, *perProduce, *duration > 0, &pushed, &rejected)
		})
	}

	stop := make(chan struct{})
	var cwg sync.WaitGroup
	cwg.Add(*consumers)
	for c := 0; c < *consumers; c++ {
		pool.Go(func() {
			defer cwg.Done()
			runConsumer(q, stop, &popped, &corrupted)
		})
	}

	wg.Wait()
	cancel()
	close(stop)
	cwg.Wait()

	elapsed := time.Since(start)
	st := q.Stats()
	fmt.Printf("pushed=%d rejected=%d popped=%d corrupted=%d elapsed=%s\n",
		atomic.LoadInt64(&pushed), atomic.LoadInt64(&rejected), atomic.LoadInt64(&popped), atomic.LoadInt64(&corrupted), elapsed)
	fmt.Printf("stats: count=%d data_size=%d total_size=%d overwrite=%v paused=%v resource_len=%d node_len=%d\n",
		st.NodeCount, st.NodeDataSize, st.NodeTotalSize, st.Overwrite, st.Paused, st.ResourceLen, st.NodeLen)

	if corrupted > 0 {
		os.Exit(1)
	}
}

// openProvider picks a RegionProvider matching -key: a negative key runs
// the benchmark against an in-process fake (useful on platforms without
// SysV shm, or for a quick sanity run), a non-negative key uses real
// shared memory and must be torn down with queue.Destroy afterward.
func openProvider(key int32) (provider queue.RegionProvider, destroy func()) {
	if key < 0 {
		return region.NewMemory(), func() {}
	}
	p := region.NewSysV()
	return p, func() {
		if err := queue.Destroy(p, key); err != nil {
			log.Printf("shmqbench: destroy key=%d: %v", key, err)
		}
	}
}

func runProducer(ctx context.Context, q *queue.Queue, id int, n uint64, untilCancel bool, pushed, rejected *int64) {
	// payload is a mempool-backed scratch buffer reused for every message
	// this producer formats: one pool Get instead of one allocation per
	// iteration.
	payload := mempool.Malloc(0)
	defer func() { mempool.Free(payload) }()

	for i := uint64(0); untilCancel || i < n; i++ {
		select {
		case <-ctx.Done():
			return
		default:
		}

		payload = mempool.AppendStr(payload[:0], fmt.Sprintf("producer-%d-payload-%d", id, i))
		tag := xfnv.Checksum32(payload)

		err := q.Push(queue.Node{Tag: tag, Data: payload})
		switch err {
		case nil:
			atomic.AddInt64(pushed, 1)
		case queue.ErrFull:
			atomic.AddInt64(rejected, 1)
		case queue.ErrPaused:
			return
		default:
			log.Fatalf("shmqbench: push: %v", err)
		}
	}
}

func runConsumer(q *queue.Queue, stop <-chan struct{}, popped *int64, corrupted *int64) {
	for {
		select {
		case <-stop:
			drain(q, popped, corrupted)
			return
		default:
		}
		n, ok, err := q.TryPop()
		if err != nil {
			return
		}
		if !ok {
			continue
		}
		record(n, popped, corrupted)
	}
}

func drain(q *queue.Queue, popped, corrupted *int64) {
	for {
		n, ok, err := q.TryPop()
		if err != nil || !ok {
			return
		}
		record(n, popped, corrupted)
	}
}

func record(n queue.Node, popped, corrupted *int64) {
	atomic.AddInt64(popped, 1)
	if xfnv.Checksum32(n.Data) != n.Tag {
		atomic.AddInt64(corrupted, 1)
	}
}
