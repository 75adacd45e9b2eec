package store

import (
	"sort"

	"github.com/samber/lo"

	"github.com/smart-fm/simkernel/entity"
	"github.com/smart-fm/simkernel/person"
	"github.com/smart-fm/simkernel/scheduler"
	"github.com/smart-fm/simkernel/timeutil"
	"github.com/smart-fm/simkernel/utils/randengine"
)

// terminalWindow is the last half-hour bucket of the preday day. A row
// whose departure window lands here and whose activity is "Home" closes
// the chain: the person stays home through the end of the simulated
// day, so no trailing Activity item is emitted after its final Trip.
const terminalWindow = 26.75

// ChainBuilder assembles Person trip chains from day_activity_schedule
// rows and implements scheduler.ChainSource against the store's
// "tripchain" stored procedure.
type ChainBuilder struct {
	store *Store
	rng   *randengine.Engine
}

// NewChainBuilder wraps s with the RNG used to jitter each row's
// half-hour window into a concrete start time.
func NewChainBuilder(s *Store, rng *randengine.Engine) *ChainBuilder {
	return &ChainBuilder{store: s, rng: rng}
}

var _ scheduler.ChainSource = (*ChainBuilder)(nil)

// LoadWindow implements scheduler.ChainSource: it reads every person's
// full day_activity_schedule rows, keeps the people whose first tour
// leg starts in window, and builds one TripChain per kept person with a
// start time drawn uniformly from that window. The whole day's rows are
// fetched rather than a window-scoped slice because a person's later
// legs (return trip, evening activity) must already be in their chain
// by the time a Role advances to them.
func (b *ChainBuilder) LoadWindow(window timeutil.HalfHourWindow) ([]scheduler.ChainRecord, error) {
	query, ok := b.store.resolveProc("tripchain")
	if !ok {
		return nil, missingMandatoryProc("tripchain")
	}

	rows, err := b.store.db.Query(query)
	if err != nil {
		return nil, err
	}
	scheduleRows, err := scanActivityRows(rows)
	if err != nil {
		return nil, err
	}

	byPerson := lo.GroupBy(scheduleRows, func(r ActivityScheduleRow) int64 { return r.PersonID })
	personIDs := lo.Keys(byPerson)
	sort.Slice(personIDs, func(i, j int) bool { return personIDs[i] < personIDs[j] })

	records := make([]scheduler.ChainRecord, 0, len(personIDs))
	for _, pid := range personIDs {
		personRows := byPerson[pid]
		sort.Slice(personRows, func(i, j int) bool {
			if personRows[i].TourNo != personRows[j].TourNo {
				return personRows[i].TourNo < personRows[j].TourNo
			}
			return personRows[i].StopNo < personRows[j].StopNo
		})
		if timeutil.HalfHourWindow(personRows[0].TripStartWindow) != window {
			continue
		}

		chain := buildChain(personRows)
		if len(chain) == 0 {
			continue
		}
		wallSec := timeutil.RandomTimeInWindow(window, false, b.rng)
		runSec := timeutil.RunSeconds(wallSec)
		records = append(records, scheduler.ChainRecord{
			PersonID:    entity.ID(pid),
			StartTimeMs: runSec * 1000,
			Chain:       chain,
		})
	}
	return records, nil
}

// buildChain orders rows is a person's tour/stop sequence and turns
// each into a Trip followed by an Activity, applying the terminal home
// rule: a row that ends at the last window of the day at a "Home"
// activity produces only the Trip.
func buildChain(rows []ActivityScheduleRow) person.TripChain {
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].TourNo != rows[j].TourNo {
			return rows[i].TourNo < rows[j].TourNo
		}
		return rows[i].StopNo < rows[j].StopNo
	})

	var chain person.TripChain
	seq := 0
	for _, r := range rows {
		mode := person.Mode(r.Mode)
		chain = append(chain, person.TripChainItem{
			Kind:           person.ItemTrip,
			SequenceNumber: seq,
			Trip: &person.Trip{
				TripID: int64(r.TourNo)*1000 + int64(r.StopNo),
				SubTrips: []person.SubTrip{{
					FromNode:      r.OriginNode,
					ToNode:        r.DestNode,
					Mode:          mode,
					IsPrimaryMode: r.IsPrimaryMode,
				}},
			},
		})
		seq++

		if r.ActivityDepartureWindow == terminalWindow && r.ActivityType == "Home" {
			continue
		}
		chain = append(chain, person.TripChainItem{
			Kind:           person.ItemActivity,
			SequenceNumber: seq,
			Activity: &person.Activity{
				Description:  r.ActivityType,
				LocationNode: r.DestNode,
				IsPrimary:    r.IsPrimaryMode,
				IsMandatory:  r.ActivityType == "Work" || r.ActivityType == "Education",
			},
		})
		seq++
	}
	return chain
}
