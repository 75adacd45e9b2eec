// Package busstop implements BusStopAgent, the reference message-bus
// consumer of spec.md §4.8: a bay of fixed length that accepts and
// releases BusDriver occupants and runs the two-phase boarding protocol
// for waiting passengers.
package busstop

import (
	"github.com/smart-fm/simkernel/buffered"
	"github.com/smart-fm/simkernel/bus"
	"github.com/smart-fm/simkernel/entity"
	"github.com/smart-fm/simkernel/person/role"
	"github.com/smart-fm/simkernel/simerr"
)

const (
	MsgBoardBus                   bus.MessageType = "BOARD_BUS"
	MsgBusArrival                 bus.MessageType = "BUS_ARRIVAL"
	MsgBusDeparture               bus.MessageType = "BUS_DEPARTURE"
	MsgWaitingPersonArrivalAtStop bus.MessageType = "MSG_WAITINGPERSON_ARRIVALAT_BUSSTOP"
)

// BusDriverMessage carries the driver a BOARD_BUS/BUS_ARRIVAL/
// BUS_DEPARTURE message concerns.
type BusDriverMessage struct {
	Driver *role.BusDriver
}

// ArrivalMessage carries the waiter a MSG_WAITINGPERSON_ARRIVALAT_BUSSTOP
// message concerns.
type ArrivalMessage struct {
	Waiter *role.WaitBusActivity
}

// BusStopAgent is a fixed-capacity bus bay. It embeds entity.Agent so it
// can sit in a WorkGroup alongside Persons, though its Update does no
// per-tick work of its own today: all of its behavior is message
// driven, matching the original's frame_tick, which only ever drained
// the already-empty alightingPersons list once pedestrian transfer was
// out of scope.
type BusStopAgent struct {
	entity.Agent

	capacityCm  int64
	availableCm int64

	servingDrivers []*role.BusDriver
	waitingPersons []*role.WaitBusActivity

	lastBoardingCount map[*role.BusDriver]int

	fatal error
}

// New builds a BusStopAgent with the given bay capacity in centimeters.
func New(id entity.ID, capacityCm int64) *BusStopAgent {
	return &BusStopAgent{
		Agent:             entity.NewAgent(id, 0),
		capacityCm:        capacityCm,
		availableCm:       capacityCm,
		lastBoardingCount: make(map[*role.BusDriver]int),
	}
}

var _ bus.Handler = (*BusStopAgent)(nil)
var _ entity.Updatable = (*BusStopAgent)(nil)

// Update does nothing; all of the agent's behavior runs inside
// HandleMessage. It never removes itself.
func (a *BusStopAgent) Update(currentTimeMs int64) error {
	return nil
}

// SubscriptionList returns this agent's own cells for the Worker's
// flip barrier. A BusStopAgent never moves and has no Role cells.
func (a *BusStopAgent) SubscriptionList() buffered.SubscriptionList {
	return a.OwnCells()
}

// AvailableCm returns the bay length not currently occupied by a
// serving driver.
func (a *BusStopAgent) AvailableCm() int64 { return a.availableCm }

// CapacityCm returns the bay's fixed total length.
func (a *BusStopAgent) CapacityCm() int64 { return a.capacityCm }

// CanAccommodate reports whether a vehicle of the given length would
// currently fit.
func (a *BusStopAgent) CanAccommodate(vehicleLengthCm int64) bool {
	return a.availableCm >= vehicleLengthCm
}

// BoardingCount returns how many waiters boarded driver on its most
// recent BOARD_BUS message.
func (a *BusStopAgent) BoardingCount(driver *role.BusDriver) int {
	return a.lastBoardingCount[driver]
}

// FatalErr returns the most recent fatal error raised while handling a
// message, or nil. The driver polls this the way it polls a
// WorkGroup's FatalErr.
func (a *BusStopAgent) FatalErr() error { return a.fatal }

// HandleMessage implements bus.Handler.
func (a *BusStopAgent) HandleMessage(msgType bus.MessageType, msg bus.Message) {
	switch msgType {
	case MsgBoardBus:
		m, ok := msg.(BusDriverMessage)
		if !ok {
			return
		}
		a.boardWaitingPersons(m.Driver)

	case MsgBusArrival:
		m, ok := msg.(BusDriverMessage)
		if !ok {
			return
		}
		if err := a.acceptBusDriver(m.Driver); err != nil {
			a.fatal = err
		} else {
			a.fatal = nil
		}

	case MsgBusDeparture:
		m, ok := msg.(BusDriverMessage)
		if !ok {
			return
		}
		if !a.removeBusDriver(m.Driver) {
			a.fatal = simerr.New(simerr.CapacityExceeded,
				"busstop %d: bus driver not found among serving drivers on departure", a.ID())
		} else {
			a.fatal = nil
		}

	case MsgWaitingPersonArrivalAtStop:
		m, ok := msg.(ArrivalMessage)
		if !ok {
			return
		}
		a.registerWaitingPerson(m.Waiter)
	}
}

// registerWaitingPerson adds waiter to the boarding queue.
func (a *BusStopAgent) registerWaitingPerson(waiter *role.WaitBusActivity) {
	a.waitingPersons = append(a.waitingPersons, waiter)
}

// RemoveWaitingPerson drops waiter from the boarding queue, e.g. when a
// waiting Person gives up and switches to a different mode.
func (a *BusStopAgent) RemoveWaitingPerson(waiter *role.WaitBusActivity) {
	for i, w := range a.waitingPersons {
		if w == waiter {
			a.waitingPersons = append(a.waitingPersons[:i], a.waitingPersons[i+1:]...)
			return
		}
	}
}

// boardWaitingPersons runs the two-phase boarding protocol: every
// waiter decides against driver first, then waiters who chose to
// board are moved onto the bus if it still has room. A waiter whose
// boarding attempt fails (bus filled up between the two phases) stays
// in place for the next arrival.
func (a *BusStopAgent) boardWaitingPersons(driver *role.BusDriver) {
	for _, waiter := range a.waitingPersons {
		waiter.MakeBoardingDecision(driver)
	}

	boarded := 0
	remaining := a.waitingPersons[:0]
	for _, waiter := range a.waitingPersons {
		if waiter.CanBoardBus() && waiter.ChosenDriver() == driver && driver.AddPassenger(waiter.PersonID) {
			waiter.MarkBoarded()
			boarded++
			continue
		}
		waiter.ResetDecision()
		remaining = append(remaining, waiter)
	}
	a.waitingPersons = remaining
	a.lastBoardingCount[driver] = boarded
}

// acceptBusDriver admits driver into the bay if it fits, charging its
// length against availableCm. Acceptance attempted without enough
// remaining length is a fatal CapacityExceeded, since the caller (the
// driver's own role) should have checked CanAccommodate before sending
// BUS_ARRIVAL.
func (a *BusStopAgent) acceptBusDriver(driver *role.BusDriver) error {
	if driver == nil {
		return nil
	}
	if a.availableCm < driver.LengthCm {
		return simerr.New(simerr.CapacityExceeded,
			"busstop %d: bus of length %d does not fit in %d remaining", a.ID(), driver.LengthCm, a.availableCm)
	}
	a.servingDrivers = append(a.servingDrivers, driver)
	a.availableCm -= driver.LengthCm
	log.Debugf("busstop %d: accepted bus of length %d, %d remaining", a.ID(), driver.LengthCm, a.availableCm)
	return nil
}

// removeBusDriver releases driver's reserved length back to the bay,
// reporting whether it was found among the serving drivers.
func (a *BusStopAgent) removeBusDriver(driver *role.BusDriver) bool {
	for i, d := range a.servingDrivers {
		if d == driver {
			a.servingDrivers = append(a.servingDrivers[:i], a.servingDrivers[i+1:]...)
			a.availableCm += driver.LengthCm
			return true
		}
	}
	return false
}
