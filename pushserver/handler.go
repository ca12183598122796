// Copyright 2019 someonegg. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package pushserver

import (
	"time"
)

// workerPool runs tasks on reusable goroutines. A worker exits after being
// idle for the idle timeout.
type workerPool struct {
	idle  time.Duration
	taskC chan func()
}

func newWorkerPool(idle time.Duration) *workerPool {
	return &workerPool{
		idle:  idle,
		taskC: make(chan func()),
	}
}

// Go runs task on an idle worker, or on a new one if none is idle.
func (w *workerPool) Go(task func()) {
	select {
	case w.taskC <- task:
	default:
		go w.work(task)
	}
}

func (w *workerPool) work(task func()) {
	task()

	t := time.NewTimer(w.idle)

	for q := false; !q; {
		select {
		case task = <-w.taskC:
			task()

			if !t.Stop() {
				<-t.C
			}
			t.Reset(w.idle)
		case <-t.C:
			q = true
		}
	}
}
