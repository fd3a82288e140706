package domain

// Principal is the resolved identity of a caller.
type Principal struct {
	ID    int64
	Admin bool
}

func (p Principal) Authenticated() bool {
	return p.ID > 0
}

func CanManageRooms(p Principal) bool {
	return p.Authenticated() && p.Admin
}

func CanCreateReservation(p Principal) bool {
	return p.Authenticated()
}

// CanModifyReservation covers both update and delete.
func CanModifyReservation(p Principal, r Reservation) bool {
	if !p.Authenticated() {
		return false
	}
	return p.Admin || r.OwnedBy(p.ID)
}

func CanListAllReservations(p Principal) bool {
	return p.Authenticated() && p.Admin
}

func CanViewReports(p Principal) bool {
	return p.Authenticated() && p.Admin
}
