package domain

// Apply copies the non-nil fields of the update onto the record. Both the
// local fallback mirror and the in-memory backend use these so a replayed
// update produces the same record either side of the sync boundary.

func (u DebtUpdate) Apply(d *Debt) {
	if u.AmountPaid != nil {
		d.AmountPaid = *u.AmountPaid
	}
	if u.Status != nil {
		d.Status = *u.Status
	}
}

func (u EmployeeUpdate) Apply(e *Employee) {
	if u.FullName != nil {
		e.FullName = *u.FullName
	}
	if u.Phone != nil {
		e.Phone = *u.Phone
	}
	if u.Address != nil {
		e.Address = *u.Address
	}
	if u.Role != nil {
		e.Role = *u.Role
	}
	if u.BaseSalary != nil {
		e.BaseSalary = *u.BaseSalary
	}
	if u.CommissionRate != nil {
		e.CommissionRate = *u.CommissionRate
	}
	if u.IsActive != nil {
		e.IsActive = *u.IsActive
	}
}

func (u AttendanceUpdate) Apply(a *AttendanceLog) {
	if u.ClockOut != nil {
		a.ClockOut = u.ClockOut
	}
	if u.PhotoOutURL != nil {
		a.PhotoOutURL = *u.PhotoOutURL
	}
	if u.LocationOutLat != nil {
		a.LocationOutLat = *u.LocationOutLat
	}
	if u.LocationOutLong != nil {
		a.LocationOutLong = *u.LocationOutLong
	}
	if u.Status != nil {
		a.Status = *u.Status
	}
	if u.Notes != nil {
		a.Notes = *u.Notes
	}
}

func (u ShiftUpdate) Apply(s *Shift) {
	if u.EndTime != nil {
		s.EndTime = u.EndTime
	}
	if u.ClosingCash != nil {
		s.ClosingCash = *u.ClosingCash
	}
	if u.ExpectedCash != nil {
		s.ExpectedCash = *u.ExpectedCash
	}
	if u.DifferenceCash != nil {
		s.DifferenceCash = *u.DifferenceCash
	}
	if u.Status != nil {
		s.Status = *u.Status
	}
}

func (u VoidRequestUpdate) Apply(r *VoidRequest) {
	if u.Status != nil {
		r.Status = *u.Status
	}
	if u.ResolvedAt != nil {
		r.ResolvedAt = u.ResolvedAt
	}
}
