// Copyright 2017 someonegg. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package pushmux

import (
	"context"
	"errors"
	"sync/atomic"

	"github.com/someonegg/gox/syncx"
	"go.uber.org/zap"
)

var (
	// ErrPumpStopped is returned when writing to a stopped pump.
	ErrPumpStopped = errors.New("pushmux: pump stopped")

	errUnknownPanic = errors.New("unknown panic")
)

type legalPanic struct {
	err error
}

// Handler is the message processor.
//
// Process should complete the message processing as soon as possible, and
// it is not valid to access the message after the Process call.
type Handler interface {
	Process(ctx context.Context, m Message)
}

// The HandlerFunc type is an adapter to allow the use of
// ordinary functions as message handlers.
type HandlerFunc func(ctx context.Context, m Message)

// Process calls f(ctx, m).
func (f HandlerFunc) Process(ctx context.Context, m Message) {
	f(ctx, m)
}

type Statistics struct {
	// from MessageReadWriter
	ReadedCount int64
	ReadedBytes int64

	// to MessageReadWriter
	WrittenCount int64
	WrittenBytes int64

	// Output call
	OutputCount int64
}

// Pump represents a message-pump, it has a working loop which reads
// and writes messages parallelly and continuously.
//
// Pump supports concurrently access.
type Pump struct {
	err   error
	quitF context.CancelFunc
	stopD syncx.DoneChan

	rw MessageReadWriter
	h  Handler
	sn StopNotifier

	// read
	rerr error
	rD   syncx.DoneChan
	// write
	werr error
	wD   syncx.DoneChan
	wQ   chan Message

	stat Statistics

	log *zap.Logger
}

// NewPump allocates and returns a new Pump.
//
// If rw implementes the StopNotifier interface, it will be called when
// the working loop exiting.
func NewPump(rw MessageReadWriter, h Handler, writeQueueSize int) *Pump {
	sn, _ := rw.(StopNotifier)
	return &Pump{
		stopD: syncx.NewDoneChan(),

		rw: rw,
		h:  h,
		sn: sn,

		rD: syncx.NewDoneChan(),
		wD: syncx.NewDoneChan(),
		wQ: make(chan Message, writeQueueSize),

		log: zap.NewNop(),
	}
}

// SetLogger is optional, panics in the working loop are logged to l.
func (p *Pump) SetLogger(l *zap.Logger) {
	if l != nil {
		p.log = l
	}
}

func (p *Pump) logPanic(v interface{}) {
	p.log.Error("pump panic", zap.Any("panic", v), zap.Stack("stack"))
}

// recovered converts a recovered panic value to an error.
func (p *Pump) recovered(e interface{}) error {
	switch v := e.(type) {
	case legalPanic:
		return v.err
	case error:
		p.logPanic(e)
		return v
	default:
		p.logPanic(e)
		return errUnknownPanic
	}
}

// Start will start the working loop.
func (p *Pump) Start(parent context.Context) {
	if parent == nil {
		parent = context.Background()
	}

	var ctx context.Context
	ctx, p.quitF = context.WithCancel(parent)

	go p.reading(ctx)
	go p.writing(ctx)
	go p.monitor(ctx)
}

func (p *Pump) monitor(ctx context.Context) {
	defer p.ending()

	select {
	case <-ctx.Done():
	case <-p.rD:
	case <-p.wD:
	}
}

func (p *Pump) ending() {
	if e := recover(); e != nil {
		p.err = p.recovered(e)
	}

	defer func() { recover() }()
	defer p.stopD.SetDone()

	// if ending from error.
	p.quitF()

	if p.sn != nil {
		p.sn.OnStop()
	}

	<-p.rD
	<-p.wD
}

func (p *Pump) reading(ctx context.Context) {
	defer func() {
		if e := recover(); e != nil {
			p.rerr = p.recovered(e)
		}
		p.rD.SetDone()
	}()

	for q := false; !q; {
		m := p.readMessage()

		p.h.Process(ctx, m)

		select {
		case <-ctx.Done():
			q = true
		default:
		}
	}
}

func (p *Pump) readMessage() Message {
	m, err := p.rw.ReadMessage()
	if err != nil {
		panic(legalPanic{err})
	}
	atomic.AddInt64(&p.stat.ReadedCount, 1)
	atomic.AddInt64(&p.stat.ReadedBytes, int64(len(m)))
	return m
}

func (p *Pump) writing(ctx context.Context) {
	defer func() {
		if e := recover(); e != nil {
			p.werr = p.recovered(e)
		}
		p.wD.SetDone()
	}()

	for q := false; !q; {
		select {
		case <-ctx.Done():
			q = true
		case m := <-p.wQ:
			p.writeMessage(m)
		}
	}
}

func (p *Pump) writeMessage(m Message) {
	err := p.rw.WriteMessage(m)
	if err != nil {
		panic(legalPanic{err})
	}
	atomic.AddInt64(&p.stat.WrittenCount, 1)
	atomic.AddInt64(&p.stat.WrittenBytes, int64(len(m)))
}

// Stop requests to stop the pump, the working loop will stop asynchronously.
func (p *Pump) Stop() {
	p.quitF()
}

// StopD returns a done channel, it will be signaled when the pump is stopped.
func (p *Pump) StopD() syncx.DoneChanR {
	return p.stopD.R()
}

func (p *Pump) Stopped() bool {
	return p.stopD.R().Done()
}

// Error can only be called after pump stopped.
func (p *Pump) Error() error {
	if p.err != nil {
		return p.err
	}
	if p.rerr != nil {
		return p.rerr
	}
	return p.werr
}

// Output puts the message to the write queue, it blocks until the message
// is queued, ctx is done or the pump is stopped.
func (p *Pump) Output(ctx context.Context, m Message) error {
	if p.Stopped() {
		return ErrPumpStopped
	}
	select {
	case p.wQ <- m:
		atomic.AddInt64(&p.stat.OutputCount, 1)
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-p.stopD:
		return ErrPumpStopped
	}
}

// TryOutput tries to put the message to the write queue.
func (p *Pump) TryOutput(m Message) bool {
	select {
	case p.wQ <- m:
		atomic.AddInt64(&p.stat.OutputCount, 1)
		return true
	default:
		return false
	}
}

func (p *Pump) Statistics() Statistics {
	return Statistics{
		ReadedCount:  atomic.LoadInt64(&p.stat.ReadedCount),
		ReadedBytes:  atomic.LoadInt64(&p.stat.ReadedBytes),
		WrittenCount: atomic.LoadInt64(&p.stat.WrittenCount),
		WrittenBytes: atomic.LoadInt64(&p.stat.WrittenBytes),
		OutputCount:  atomic.LoadInt64(&p.stat.OutputCount),
	}
}

// UnderlyingMRW returns the internal message readwriter.
func (p *Pump) UnderlyingMRW() MessageReadWriter {
	return p.rw
}
