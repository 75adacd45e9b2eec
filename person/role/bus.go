package role

import "github.com/smart-fm/simkernel/buffered"

// BusDriver drives one bus along a single line, representative of the
// message-bus consumers described in spec.md §4.8. LengthCm is what a
// BusStopAgent charges against its bay capacity; PassengerCapacity caps
// how many Passengers it can carry at once.
type BusDriver struct {
	pos Positioner

	LineID            int64
	LengthCm          int64
	PassengerCapacity int

	boarded []int64 // passenger person ids currently aboard

	done bool
}

// NewBusDriver builds a bus driving a fixed line.
func NewBusDriver(pos Positioner, lineID, lengthCm int64, passengerCapacity int) *BusDriver {
	return &BusDriver{pos: pos, LineID: lineID, LengthCm: lengthCm, PassengerCapacity: passengerCapacity}
}

// AddPassenger boards personID if there is a free seat, reporting
// whether it succeeded.
func (r *BusDriver) AddPassenger(personID int64) bool {
	if len(r.boarded) >= r.PassengerCapacity {
		return false
	}
	r.boarded = append(r.boarded, personID)
	return true
}

// RemovePassenger alights personID, if aboard.
func (r *BusDriver) RemovePassenger(personID int64) {
	for i, id := range r.boarded {
		if id == personID {
			r.boarded = append(r.boarded[:i], r.boarded[i+1:]...)
			return
		}
	}
}

// Occupancy returns the number of passengers currently aboard.
func (r *BusDriver) Occupancy() int { return len(r.boarded) }

// MarkDone ends this driver's shift, e.g. at the end of its line.
func (r *BusDriver) MarkDone() { r.done = true }

func (r *BusDriver) Type() Type { return TypeBusDriver }

func (r *BusDriver) Init(p Params) error { return nil }

func (r *BusDriver) Tick(p Params) error { return nil }

func (r *BusDriver) Output(p Params) error { return nil }

func (r *BusDriver) Cells() buffered.SubscriptionList { return nil }

func (r *BusDriver) Done() bool { return r.done }

// WaitBusActivity waits at a stop for a bus serving TargetLineID. The
// owning BusStopAgent drives the two-phase boarding protocol: it calls
// MakeBoardingDecision against each arrived driver, then CanBoardBus to
// decide whether to actually move the waiter onto that driver's bus.
type WaitBusActivity struct {
	PersonID     int64
	TargetLineID int64

	chosenDriver *BusDriver
	boarded      bool
}

// NewWaitBusActivity builds a Role waiting for a specific bus line.
func NewWaitBusActivity(personID, targetLineID int64) *WaitBusActivity {
	return &WaitBusActivity{PersonID: personID, TargetLineID: targetLineID}
}

// MakeBoardingDecision records driver as chosen if it serves this
// waiter's line and no driver has been chosen yet this tick.
func (r *WaitBusActivity) MakeBoardingDecision(driver *BusDriver) {
	if r.chosenDriver == nil && driver.LineID == r.TargetLineID {
		r.chosenDriver = driver
	}
}

// CanBoardBus reports whether a boarding decision was made this tick.
func (r *WaitBusActivity) CanBoardBus() bool {
	return r.chosenDriver != nil
}

// ChosenDriver returns the driver selected by the most recent
// MakeBoardingDecision, or nil.
func (r *WaitBusActivity) ChosenDriver() *BusDriver { return r.chosenDriver }

// ResetDecision clears the chosen driver, e.g. if boarding the chosen
// bus failed because it filled up in the meantime.
func (r *WaitBusActivity) ResetDecision() { r.chosenDriver = nil }

// MarkBoarded flags this waiter as having successfully boarded; Done
// reports true from then on so the Person's trip chain advances to
// Passenger.
func (r *WaitBusActivity) MarkBoarded() { r.boarded = true }

func (r *WaitBusActivity) Type() Type { return TypeWaitBusActivity }

func (r *WaitBusActivity) Init(p Params) error { return nil }

func (r *WaitBusActivity) Tick(p Params) error { return nil }

func (r *WaitBusActivity) Output(p Params) error { return nil }

func (r *WaitBusActivity) Cells() buffered.SubscriptionList { return nil }

func (r *WaitBusActivity) Done() bool { return r.boarded }

// Passenger rides aboard a BusDriver until alighted.
type Passenger struct {
	Driver *BusDriver

	alighted bool
}

// NewPassenger builds a Role riding aboard driver.
func NewPassenger(driver *BusDriver) *Passenger {
	return &Passenger{Driver: driver}
}

// Alight ends the ride.
func (r *Passenger) Alight() { r.alighted = true }

func (r *Passenger) Type() Type { return TypePassenger }

func (r *Passenger) Init(p Params) error { return nil }

func (r *Passenger) Tick(p Params) error { return nil }

func (r *Passenger) Output(p Params) error { return nil }

func (r *Passenger) Cells() buffered.SubscriptionList { return nil }

func (r *Passenger) Done() bool { return r.alighted }
