package principals

// View is the principal representation returned to clients after login or
// PIN verification. Employee-only fields are omitted for users.
type View struct {
	ID            int64  `json:"id"`
	Email         string `json:"email"`
	Type          Type   `json:"type"`
	CenterID      *int64 `json:"centerId,omitempty"`
	StoreID       *int64 `json:"storeId,omitempty"`
	IsCenterAdmin *bool  `json:"isCenterAdmin,omitempty"`
	PinTimeout    *int   `json:"pinTimeout,omitempty"`
	EmployeeType  string `json:"employeeType,omitempty"`
	Pin           string `json:"pin,omitempty"`
}

// ViewOptions controls what a View discloses.
type ViewOptions struct {
	// ExposePin copies the employee PIN into the view so the frontend can
	// run its lock screen offline.
	ExposePin bool
}

func NewView(p Principal, opts ViewOptions) View {
	v := View{
		ID:    p.PrincipalID(),
		Email: p.PrincipalEmail(),
		Type:  p.PrincipalType(),
	}

	e, ok := p.(*Employee)
	if !ok {
		return v
	}

	isCenterAdmin := e.IsCenterAdmin
	pinTimeout := e.PinTimeout
	v.CenterID = e.CenterID
	v.StoreID = e.StoreID
	v.IsCenterAdmin = &isCenterAdmin
	v.PinTimeout = &pinTimeout
	v.EmployeeType = e.EmployeeType
	if opts.ExposePin {
		v.Pin = e.Pin
	}
	return v
}
