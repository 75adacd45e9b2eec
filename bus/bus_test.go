package bus_test

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smart-fm/simkernel/bus"
	"github.com/smart-fm/simkernel/simerr"
)

type recordingHandler struct {
	mu   sync.Mutex
	seen []string
}

func (h *recordingHandler) HandleMessage(msgType bus.MessageType, msg bus.Message) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.seen = append(h.seen, string(msgType))
}

func TestPostMessageFIFOPerSenderReceiverPair(t *testing.T) {
	b := bus.New()
	main := b.RegisterMainThread()
	worker := b.RegisterThread("worker-1")
	target := &recordingHandler{}
	b.RegisterHandler(worker, target)

	b.PostMessage(main, target, "A", nil, false, 0)
	b.PostMessage(main, target, "B", nil, false, 0)
	b.PostMessage(main, target, "C", nil, false, 0)

	b.DistributeMessages(0)
	b.ThreadDispatchMessages(worker)

	assert.Equal(t, []string{"A", "B", "C"}, target.seen)
}

func TestProcessOnMainRunsDuringDistribute(t *testing.T) {
	b := bus.New()
	b.RegisterMainThread()
	worker := b.RegisterThread("worker-1")
	target := &recordingHandler{}
	b.RegisterHandler(worker, target)

	b.PostMessage(worker, target, "MAIN_ONLY", nil, true, 0)
	b.DistributeMessages(0)
	// Delivered inline during DistributeMessages; no ThreadDispatchMessages needed.
	assert.Equal(t, []string{"MAIN_ONLY"}, target.seen)
}

func TestTimeOffsetDefersDelivery(t *testing.T) {
	b := bus.New()
	main := b.RegisterMainThread()
	worker := b.RegisterThread("worker-1")
	target := &recordingHandler{}
	b.RegisterHandler(worker, target)

	b.PostMessage(main, target, "LATER", nil, false, 1000)
	b.DistributeMessages(0)
	b.ThreadDispatchMessages(worker)
	assert.Empty(t, target.seen)

	b.DistributeMessages(1000)
	b.ThreadDispatchMessages(worker)
	assert.Equal(t, []string{"LATER"}, target.seen)
}

func TestSendInstantaneousMessageSameContextSucceeds(t *testing.T) {
	b := bus.New()
	worker := b.RegisterThread("worker-1")
	target := &recordingHandler{}
	b.RegisterHandler(worker, target)

	err := b.SendInstantaneousMessage(worker, target, "PING", nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"PING"}, target.seen)
}

func TestSendInstantaneousMessageCrossContextFails(t *testing.T) {
	b := bus.New()
	workerA := b.RegisterThread("worker-a")
	workerB := b.RegisterThread("worker-b")
	target := &recordingHandler{}
	b.RegisterHandler(workerB, target)

	err := b.SendInstantaneousMessage(workerA, target, "PING", nil)
	require.Error(t, err)
	kind, ok := simerr.KindOf(err)
	require.True(t, ok)
	assert.Equal(t, simerr.CrossContext, kind)
	assert.Empty(t, target.seen)
}

type countingListener struct {
	mu    sync.Mutex
	count int
}

func (l *countingListener) HandleEvent(id bus.EventID, ctx *bus.Context, args bus.EventArgs) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.count++
}

func TestEventGlobalListenerSeesContextualPublish(t *testing.T) {
	b := bus.New()
	main := b.RegisterMainThread()
	worker := b.RegisterThread("worker-1")
	l := &countingListener{}
	b.SubscribeEvent("BUS_ARRIVAL", nil, l)

	b.PublishEvent("BUS_ARRIVAL", worker, nil)
	b.DistributeMessages(0)

	assert.Equal(t, 1, l.count)
	_ = main
}

func TestEventContextualListenerIgnoresGlobalPublish(t *testing.T) {
	b := bus.New()
	worker := b.RegisterThread("worker-1")
	l := &countingListener{}
	b.SubscribeEvent("BUS_ARRIVAL", worker, l)

	b.PublishEvent("BUS_ARRIVAL", nil, nil)
	b.DistributeMessages(0)

	assert.Equal(t, 0, l.count)
}

func TestEventDoubleBoundListenerReceivesAtMostTwice(t *testing.T) {
	b := bus.New()
	worker := b.RegisterThread("worker-1")
	l := &countingListener{}
	b.SubscribeEvent("BUS_ARRIVAL", nil, l)
	b.SubscribeEvent("BUS_ARRIVAL", worker, l)

	b.PublishEvent("BUS_ARRIVAL", worker, nil)
	b.DistributeMessages(0)
	assert.Equal(t, 2, l.count)

	l.count = 0
	b.PublishEvent("BUS_ARRIVAL", nil, nil)
	b.DistributeMessages(0)
	assert.Equal(t, 1, l.count)
}

func TestUnSubscribeAllIsIdempotentAndDoesNotDropAlreadyQueuedEvents(t *testing.T) {
	b := bus.New()
	worker := b.RegisterThread("worker-1")
	l := &countingListener{}
	b.SubscribeEvent("BUS_ARRIVAL", worker, l)

	b.PublishEvent("BUS_ARRIVAL", worker, nil) // resolved to l now, queued for delivery
	b.UnSubscribeAll("BUS_ARRIVAL", worker)
	b.UnSubscribeAll("BUS_ARRIVAL", worker) // idempotent: no panic, no double-removal error

	b.DistributeMessages(0)
	assert.Equal(t, 1, l.count, "already-queued publication must still reach the listener")

	l.count = 0
	b.PublishEvent("BUS_ARRIVAL", worker, nil) // subscription is gone now
	b.DistributeMessages(0)
	assert.Equal(t, 0, l.count)
}

func TestPublishInstantaneousEventIsSynchronous(t *testing.T) {
	b := bus.New()
	worker := b.RegisterThread("worker-1")
	l := &countingListener{}
	b.SubscribeEvent("BUS_ARRIVAL", worker, l)

	b.PublishInstantaneousEvent("BUS_ARRIVAL", worker, nil)
	assert.Equal(t, 1, l.count, "must be visible before any DistributeMessages call")
}
