package store

import "database/sql"

// NodeRow is one row of the node table: an intersection or endpoint at
// a position given in meters.
type NodeRow struct {
	ID  int64
	XM  float64
	YM  float64
}

// SectionRow is one directed road segment between two nodes.
type SectionRow struct {
	ID       int64
	FromNode int64
	ToNode   int64
	LengthM  float64
}

// LaneRow is one lane within a section.
type LaneRow struct {
	ID        int64
	SectionID int64
	Index     int
	WidthM    float64
}

// CrossingRow marks a node as a pedestrian crossing point.
type CrossingRow struct {
	ID     int64
	NodeID int64
}

// TurningRow is one permitted lane-to-lane movement through a node.
type TurningRow struct {
	ID       int64
	FromLane int64
	ToLane   int64
}

// SignalRow marks a node as signal-controlled.
type SignalRow struct {
	ID     int64
	NodeID int64
}

// ActivityScheduleRow is one row of day_activity_schedule, per spec.md
// §6's column table. Column order there is positional; here each field
// is named directly off the query's SELECT list.
type ActivityScheduleRow struct {
	PersonID               int64
	TourNo                 int
	StopNo                 int
	ActivityType           string
	DestNode               int64
	Mode                   string
	IsPrimaryMode          bool
	ActivityArrivalWindow  float64
	ActivityDepartureWindow float64
	OriginNode             int64
	TripStartWindow        float64
}

// LoadNodes runs the configured "node" query and scans every row.
func (s *Store) LoadNodes() ([]NodeRow, error) {
	query, ok := s.resolveProc("node")
	if !ok {
		return nil, missingMandatoryProc("node")
	}
	rows, err := s.db.Query(query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []NodeRow
	for rows.Next() {
		var r NodeRow
		if err := rows.Scan(&r.ID, &r.XM, &r.YM); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// LoadSections runs the configured "section" query and scans every row.
func (s *Store) LoadSections() ([]SectionRow, error) {
	query, ok := s.resolveProc("section")
	if !ok {
		return nil, missingMandatoryProc("section")
	}
	rows, err := s.db.Query(query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []SectionRow
	for rows.Next() {
		var r SectionRow
		if err := rows.Scan(&r.ID, &r.FromNode, &r.ToNode, &r.LengthM); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// LoadLanes runs the configured "lane" query and scans every row.
func (s *Store) LoadLanes() ([]LaneRow, error) {
	query, ok := s.resolveProc("lane")
	if !ok {
		return nil, missingMandatoryProc("lane")
	}
	rows, err := s.db.Query(query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []LaneRow
	for rows.Next() {
		var r LaneRow
		if err := rows.Scan(&r.ID, &r.SectionID, &r.Index, &r.WidthM); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// LoadCrossings runs the configured "crossing" query and scans every row.
func (s *Store) LoadCrossings() ([]CrossingRow, error) {
	query, ok := s.resolveProc("crossing")
	if !ok {
		return nil, missingMandatoryProc("crossing")
	}
	rows, err := s.db.Query(query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []CrossingRow
	for rows.Next() {
		var r CrossingRow
		if err := rows.Scan(&r.ID, &r.NodeID); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// LoadTurnings runs the configured "turning" query and scans every row.
func (s *Store) LoadTurnings() ([]TurningRow, error) {
	query, ok := s.resolveProc("turning")
	if !ok {
		return nil, missingMandatoryProc("turning")
	}
	rows, err := s.db.Query(query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []TurningRow
	for rows.Next() {
		var r TurningRow
		if err := rows.Scan(&r.ID, &r.FromLane, &r.ToLane); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// LoadSignals runs the configured "signal" query and scans every row. A
// disabled signal load path (missing query) is not an error: it returns
// an empty slice, since a network with no signals is plausible.
func (s *Store) LoadSignals() ([]SignalRow, error) {
	query, ok := s.resolveProc("signal")
	if !ok {
		return nil, nil
	}
	rows, err := s.db.Query(query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []SignalRow
	for rows.Next() {
		var r SignalRow
		if err := rows.Scan(&r.ID, &r.NodeID); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// scanActivityRows drains rows into ActivityScheduleRow values. Its
// caller is ChainBuilder.LoadWindow, whose tripchain query reads every
// row; the window filter is applied afterwards in Go.
func scanActivityRows(rows *sql.Rows) ([]ActivityScheduleRow, error) {
	defer rows.Close()
	var out []ActivityScheduleRow
	for rows.Next() {
		var r ActivityScheduleRow
		var isPrimary int
		if err := rows.Scan(
			&r.PersonID, &r.TourNo, &r.StopNo, &r.ActivityType, &r.DestNode,
			&r.Mode, &isPrimary, &r.ActivityArrivalWindow, &r.ActivityDepartureWindow,
			&r.OriginNode, &r.TripStartWindow,
		); err != nil {
			return nil, err
		}
		r.IsPrimaryMode = isPrimary != 0
		out = append(out, r)
	}
	return out, rows.Err()
}
