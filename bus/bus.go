package bus

import (
	"sync"
	"sync/atomic"

	"github.com/smart-fm/simkernel/simerr"
)

// Bus is the message/event router shared by the simulation driver and
// every Worker. Unlike the static MessageBus this replaces, it is a
// regular value: the driver constructs one, registers the main context
// and one context per worker, and threads the *Bus down through
// Workers and Persons. See spec.md §9 for why this is a deliberate
// instance-not-singleton choice.
type Bus struct {
	mu         sync.Mutex
	mainCtx    *Context
	contexts   map[*Context]struct{}
	handlerCtx map[Handler]*Context

	globalListeners map[EventID][]EventListener
	ctxListeners    map[EventID]map[*Context][]EventListener
	eventQueue      []job

	pending []job // jobs whose deliverAtMs has not yet arrived

	now atomic.Int64
}

// New creates an empty Bus. Call RegisterMainThread once, then
// RegisterThread once per worker, before posting any messages.
func New() *Bus {
	return &Bus{
		contexts:        make(map[*Context]struct{}),
		handlerCtx:      make(map[Handler]*Context),
		globalListeners: make(map[EventID][]EventListener),
		ctxListeners:    make(map[EventID]map[*Context][]EventListener),
	}
}

// RegisterMainThread registers the driver's own context. Must be called
// exactly once, before DistributeMessages is ever called.
func (b *Bus) RegisterMainThread() *Context {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.mainCtx != nil {
		panic("bus: main thread already registered")
	}
	ctx := &Context{name: "main"}
	b.mainCtx = ctx
	b.contexts[ctx] = struct{}{}
	return ctx
}

// RegisterThread registers a new non-main context, typically one per
// Worker, named for logging.
func (b *Bus) RegisterThread(name string) *Context {
	b.mu.Lock()
	defer b.mu.Unlock()
	ctx := &Context{name: name}
	b.contexts[ctx] = struct{}{}
	return ctx
}

// UnRegisterThread removes ctx and any handlers still bound to it. Any
// messages already in ctx's incoming queue are dropped undelivered.
func (b *Bus) UnRegisterThread(ctx *Context) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.contexts, ctx)
	for h, c := range b.handlerCtx {
		if c == ctx {
			delete(b.handlerCtx, h)
		}
	}
	for id, m := range b.ctxListeners {
		delete(m, ctx)
		if len(m) == 0 {
			delete(b.ctxListeners, id)
		}
	}
	ctx.drainIn()
}

// RegisterHandler binds h to ctx so PostMessage/SendMessage can resolve
// where to deliver messages addressed to h.
func (b *Bus) RegisterHandler(ctx *Context, h Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.contexts[ctx]; !ok {
		panic("bus: context not registered")
	}
	b.handlerCtx[h] = ctx
}

// UnRegisterHandler removes h's binding. Messages already queued for h
// are dropped at distribution time rather than delivered to a stale
// handler.
func (b *Bus) UnRegisterHandler(h Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.handlerCtx, h)
}

// ReRegisterHandler moves h to newCtx, e.g. when a Person migrates
// between Workers.
func (b *Bus) ReRegisterHandler(h Handler, newCtx *Context) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.contexts[newCtx]; !ok {
		panic("bus: context not registered")
	}
	b.handlerCtx[h] = newCtx
}

func (b *Bus) contextOf(h Handler) (*Context, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	c, ok := b.handlerCtx[h]
	return c, ok
}

// PostMessage queues a message for delivery on a later DistributeMessages
// cycle. If processOnMain is true the message runs inline on the main
// thread during DistributeMessages rather than being routed into the
// target's own incoming queue. timeOffsetMs delays delivery until the
// simulation clock has advanced by at least that much.
func (b *Bus) PostMessage(from *Context, target Handler, msgType MessageType, msg Message, processOnMain bool, timeOffsetMs int64) {
	now := b.now.Load()
	from.enqueueOut(job{
		postedAtMs:    now,
		deliverAtMs:   now + timeOffsetMs,
		processOnMain: processOnMain,
		target:        target,
		run:           func() { target.HandleMessage(msgType, msg) },
	})
}

// SendMessage delivers immediately if target shares from's context,
// otherwise it behaves like PostMessage with no delay.
func (b *Bus) SendMessage(from *Context, target Handler, msgType MessageType, msg Message, processOnMain bool) {
	if targetCtx, ok := b.contextOf(target); ok && targetCtx == from {
		target.HandleMessage(msgType, msg)
		return
	}
	b.PostMessage(from, target, msgType, msg, processOnMain, 0)
}

// SendInstantaneousMessage delivers synchronously, bypassing the queue
// entirely. It fails with simerr.CrossContext if target is not
// registered in from's own context - the whole point of "instantaneous"
// is that no thread hop is needed.
func (b *Bus) SendInstantaneousMessage(from *Context, target Handler, msgType MessageType, msg Message) error {
	targetCtx, ok := b.contextOf(target)
	if !ok {
		return simerr.New(simerr.CrossContext, "instantaneous message to unregistered handler")
	}
	if targetCtx != from {
		return simerr.New(simerr.CrossContext, "instantaneous message from %q to handler on %q", from.name, targetCtx.name)
	}
	target.HandleMessage(msgType, msg)
	return nil
}

// DistributeMessages is called once per base tick, from the main
// thread, after every worker has cleared the update barrier. It drains
// every context's outgoing queue, runs processOnMain jobs in place, and
// routes the rest into their target's incoming queue. Jobs whose
// deliverAtMs has not yet arrived are held in the pending list.
func (b *Bus) DistributeMessages(nowMs int64) {
	b.now.Store(nowMs)

	b.mu.Lock()
	ctxs := make([]*Context, 0, len(b.contexts))
	for c := range b.contexts {
		ctxs = append(ctxs, c)
	}
	events := b.eventQueue
	b.eventQueue = nil
	pending := b.pending
	b.pending = nil
	b.mu.Unlock()

	collected := make([]job, 0, len(events)+len(pending))
	collected = append(collected, events...)
	collected = append(collected, pending...)
	for _, c := range ctxs {
		collected = append(collected, c.drainOut()...)
	}

	var stillPending []job
	for _, j := range collected {
		if j.deliverAtMs > nowMs {
			stillPending = append(stillPending, j)
			continue
		}
		if j.processOnMain || j.target == nil {
			j.run()
			continue
		}
		targetCtx, ok := b.contextOf(j.target)
		if !ok {
			log.Debugf("dropping message to handler unregistered since posting")
			continue
		}
		targetCtx.enqueueIn(j)
	}

	if len(stillPending) > 0 {
		b.mu.Lock()
		b.pending = append(b.pending, stillPending...)
		b.mu.Unlock()
	}
}

// ThreadDispatchMessages is called once per base tick by each Worker,
// after DistributeMessages, to run every message queued for its
// context in FIFO order.
func (b *Bus) ThreadDispatchMessages(ctx *Context) {
	for _, j := range ctx.drainIn() {
		j.run()
	}
}

// SubscribeEvent registers listener for id. A nil ctx subscribes
// globally: listener then receives every publication of id, contextual
// or not. A non-nil ctx subscribes listener to publications made with
// that same context only.
func (b *Bus) SubscribeEvent(id EventID, ctx *Context, listener EventListener) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if ctx == nil {
		b.globalListeners[id] = append(b.globalListeners[id], listener)
		return
	}
	m := b.ctxListeners[id]
	if m == nil {
		m = make(map[*Context][]EventListener)
		b.ctxListeners[id] = m
	}
	m[ctx] = append(m[ctx], listener)
}

// UnSubscribeEvent removes one binding of listener for id. Events
// already queued for delivery to listener are unaffected - they were
// resolved to their target listeners at PublishEvent time, before this
// call, so they still arrive.
func (b *Bus) UnSubscribeEvent(id EventID, ctx *Context, listener EventListener) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if ctx == nil {
		b.globalListeners[id] = removeListener(b.globalListeners[id], listener)
		return
	}
	if m := b.ctxListeners[id]; m != nil {
		m[ctx] = removeListener(m[ctx], listener)
	}
}

// UnSubscribeAll removes every listener bound to id. A nil ctx clears
// both the global bucket and every contextual bucket for id; a non-nil
// ctx clears only that context's bucket.
func (b *Bus) UnSubscribeAll(id EventID, ctx *Context) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if ctx == nil {
		delete(b.globalListeners, id)
		delete(b.ctxListeners, id)
		return
	}
	if m := b.ctxListeners[id]; m != nil {
		delete(m, ctx)
	}
}

func (b *Bus) matchingListeners(id EventID, ctx *Context) []EventListener {
	b.mu.Lock()
	defer b.mu.Unlock()
	listeners := append([]EventListener{}, b.globalListeners[id]...)
	if ctx != nil {
		if m := b.ctxListeners[id]; m != nil {
			listeners = append(listeners, m[ctx]...)
		}
	}
	return listeners
}

// PublishEvent queues args for every listener currently subscribed to
// id (global listeners always, contextual listeners only if ctx
// matches). Delivery happens on the next DistributeMessages cycle, on
// the main thread.
func (b *Bus) PublishEvent(id EventID, ctx *Context, args EventArgs) {
	now := b.now.Load()
	listeners := b.matchingListeners(id, ctx)
	jobs := make([]job, 0, len(listeners))
	for _, l := range listeners {
		l := l
		jobs = append(jobs, job{
			postedAtMs:    now,
			deliverAtMs:   now,
			processOnMain: true,
			run:           func() { l.HandleEvent(id, ctx, args) },
		})
	}
	b.mu.Lock()
	b.eventQueue = append(b.eventQueue, jobs...)
	b.mu.Unlock()
}

// PublishInstantaneousEvent delivers args to every matching listener
// synchronously, without waiting for a DistributeMessages cycle.
func (b *Bus) PublishInstantaneousEvent(id EventID, ctx *Context, args EventArgs) {
	for _, l := range b.matchingListeners(id, ctx) {
		l.HandleEvent(id, ctx, args)
	}
}
