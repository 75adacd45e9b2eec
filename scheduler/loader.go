package scheduler

import (
	"github.com/smart-fm/simkernel/entity"
	"github.com/smart-fm/simkernel/internal/workutil"
	"github.com/smart-fm/simkernel/person"
	"github.com/smart-fm/simkernel/timeutil"
)

// ChainRecord is one Person's worth of trip-chain data as read from the
// persistent store for a single half-hour window.
type ChainRecord struct {
	PersonID    entity.ID
	StartTimeMs int64
	Chain       person.TripChain
}

// ChainSource reads the full trip chain of every person whose first
// trip starts in the given half-hour window, already grouped by person
// id. The store package's
// implementation does the row parsing; scheduler only consumes the
// result.
type ChainSource interface {
	LoadWindow(window timeutil.HalfHourWindow) ([]ChainRecord, error)
}

// Loader periodically pulls a batch of future trip chains from a
// ChainSource and classifies each into the active set or the
// PendingQueue. It is stateless across calls except for
// elapsedSinceLoadMs and nextWindow.
type Loader struct {
	source        ChainSource
	personConfig  person.Config
	loadInterval  int64 // milliseconds between loads
	poolSize      int
	elapsedSinceLoadMs int64
	nextWindow    timeutil.HalfHourWindow
}

// NewLoader creates a Loader that reads one half-hour window of trip
// chains from source every loadIntervalMs milliseconds, starting at the
// 03:00 window, constructing Persons with personConfig and up to poolSize
// concurrent constructions per load pass.
func NewLoader(source ChainSource, personConfig person.Config, loadIntervalMs int64, poolSize int) *Loader {
	if poolSize < 1 {
		poolSize = 1
	}
	return &Loader{
		source:       source,
		personConfig: personConfig,
		loadInterval: loadIntervalMs,
		poolSize:     poolSize,
		nextWindow:   3.25,
	}
}

// Tick advances the loader's elapsed-time counter by deltaMs and, once
// it reaches the configured load interval, performs one load pass.
// Constructed Persons with StartTimeMs == 0 are returned in active for
// the driver to add straight into a work-group; everything else is
// pushed into pending.
func (l *Loader) Tick(deltaMs int64, pending *PendingQueue) (active []*person.Person, err error) {
	l.elapsedSinceLoadMs += deltaMs
	if l.elapsedSinceLoadMs < l.loadInterval {
		return nil, nil
	}
	l.elapsedSinceLoadMs -= l.loadInterval

	records, err := l.source.LoadWindow(l.nextWindow)
	l.nextWindow = l.nextWindow.NextWindow()
	if err != nil {
		return nil, err
	}

	people := l.buildPersons(records)
	for _, p := range people {
		if p.StartTimeMs() == 0 {
			active = append(active, p)
		} else {
			pending.Push(p)
		}
	}
	log.Debugf("loader: window load produced %d persons (%d immediately active)", len(people), len(active))
	return active, nil
}

// buildPersons constructs one Person per record, fanning the
// construction out across a bounded pool of goroutines to amortize the
// per-Person setup cost across cores.
func (l *Loader) buildPersons(records []ChainRecord) []*person.Person {
	return workutil.Map(len(records), l.poolSize, func(i int) *person.Person {
		rec := records[i]
		return person.New(rec.PersonID, rec.StartTimeMs, rec.Chain, l.personConfig)
	})
}
