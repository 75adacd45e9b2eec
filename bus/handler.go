package bus

// MessageType names a message kind. Handlers switch on it the way the
// original switches on an integer message id; a string is friendlier to
// log and to grep for in this port.
type MessageType string

// Message is the payload carried alongside a MessageType. Any role or
// agent-defined struct works; the bus never inspects it.
type Message any

// Handler receives messages posted or sent to it through the bus.
// BusStopAgent implements Handler to receive bus-delivered messages
// such as BUS_ARRIVAL or BOARD_BUS.
type Handler interface {
	HandleMessage(msgType MessageType, msg Message)
}

// job is one queued unit of work: a message delivery or an event
// delivery, collapsed into a single closure so DistributeMessages and
// ThreadDispatchMessages don't need to know which.
type job struct {
	postedAtMs    int64
	deliverAtMs   int64
	processOnMain bool
	target        Handler // nil for event jobs, which carry no handler lookup
	run           func()
}
