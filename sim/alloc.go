package sim

import "sort"

// Bulk slot allocation for the division pipeline. Reservations are ranked
// and matched against the ranked free-slot list, so the assignment depends
// only on the set of dividing parents, never on the order reservations
// were generated in. This keeps allocation deterministic even if
// eligibility scanning is ever parallelized.

// slotReservation requests one fresh cell slot for a dividing parent's
// child B (child A reuses the parent slot). A -1 parent marks a discarded
// sentinel.
type slotReservation struct {
	parent int32
}

type reservationList []slotReservation

func (r reservationList) Len() int           { return len(r) }
func (r reservationList) Swap(i, j int)      { r[i], r[j] = r[j], r[i] }
func (r reservationList) Less(i, j int) bool { return r[i].parent < r[j].parent }

type int32List []int32

func (s int32List) Len() int           { return len(s) }
func (s int32List) Swap(i, j int)      { s[i], s[j] = s[j], s[i] }
func (s int32List) Less(i, j int) bool { return s[i] < s[j] }

// planChildSlots assigns one free cell slot per dividing parent:
//  1. scan free slots (BirthTime sentinel -1) in ascending index order
//  2. emit one reservation per parent
//  3. sort and compact both lists, stripping sentinels
//  4. match reservation rank to free-slot rank
//
// Parents whose rank exceeds the free-slot count get -1: they do not
// divide this tick and re-qualify on the next. Buffers are pre-sized
// scratch owned by the state.
func (s *State) planChildSlots(parents []int32) []int32 {
	free := s.freeSlots[:0]
	for i := 0; i < s.Capacity; i++ {
		if s.BirthTime[i] == -1 {
			free = append(free, int32(i))
		}
	}
	s.freeSlots = free

	reservations := s.reservations[:0]
	for _, p := range parents {
		reservations = append(reservations, slotReservation{parent: p})
	}

	// Compact sentinels and restore rank order; a no-op for the
	// sequential scan above, load-bearing under parallel generation
	n := 0
	for _, r := range reservations {
		if r.parent >= 0 {
			reservations[n] = r
			n++
		}
	}
	reservations = reservations[:n]
	sort.Sort(reservationList(reservations))
	sort.Sort(int32List(free))
	s.reservations = reservations

	assigned := s.assigned[:0]
	for rank := range reservations {
		if rank < len(free) {
			assigned = append(assigned, free[rank])
		} else {
			assigned = append(assigned, -1)
		}
	}
	s.assigned = assigned
	return assigned
}
