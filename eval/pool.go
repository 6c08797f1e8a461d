// Copyright 2019 Google LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     https://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package eval

import (
	"runtime"
	"sync"
)

// Pool runs jobs on a fixed number of goroutines.
type Pool struct {
	workers int
	jobs    chan func()
	wg      sync.WaitGroup
	once    sync.Once
}

// NewPool creates a pool. If workers is not positive, one worker
// per CPU is used.
func NewPool(workers int) *Pool {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	return &Pool{workers: workers, jobs: make(chan func(), workers*2)}
}

// Start starts the workers.
func (p *Pool) Start() {
	p.once.Do(func() {
		for i := 0; i < p.workers; i++ {
			go p.worker()
		}
	})
}

func (p *Pool) worker() {
	for job := range p.jobs {
		job()
		p.wg.Done()
	}
}

// Submit queues a job, blocking while the queue is full.
func (p *Pool) Submit(job func()) {
	p.wg.Add(1)
	p.jobs <- job
}

// Wait waits for every submitted job to finish.
func (p *Pool) Wait() {
	p.wg.Wait()
}

// Close stops the workers once the queue drains.
func (p *Pool) Close() {
	close(p.jobs)
}
