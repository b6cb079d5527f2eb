package account

import "testing"

func TestTypeAccrues(t *testing.T) {
	tests := []struct {
		typ  Type
		want bool
	}{
		{TypeChecking, false},
		{TypeSavings, true},
		{TypeBusiness, true},
		{TypeInvestment, true},
		{Type("bogus"), false},
	}

	for _, tt := range tests {
		if got := tt.typ.Accrues(); got != tt.want {
			t.Errorf("Type(%q).Accrues() = %v, want %v", tt.typ, got, tt.want)
		}
	}
}

func TestStatusTransitions(t *testing.T) {
	tests := []struct {
		name string
		from Status
		to   Status
		want bool
	}{
		{"Active to suspended", StatusActive, StatusSuspended, true},
		{"Active to closed", StatusActive, StatusClosed, true},
		{"Suspended to active", StatusSuspended, StatusActive, true},
		{"Suspended to closed", StatusSuspended, StatusClosed, true},
		{"Closed to active", StatusClosed, StatusActive, false},
		{"Closed to suspended", StatusClosed, StatusSuspended, false},
		{"Active to active", StatusActive, StatusActive, false},
		{"Active to unknown", StatusActive, Status("frozen"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.from.CanTransitionTo(tt.to); got != tt.want {
				t.Errorf("CanTransitionTo(%q -> %q) = %v, want %v", tt.from, tt.to, got, tt.want)
			}
		})
	}
}

func TestOpenParamsValidate(t *testing.T) {
	valid := OpenParams{
		OwnerID:        "owner-1",
		Type:           TypeSavings,
		InterestRateBP: 240,
		InitialDeposit: 10000,
	}
	if err := valid.Validate(); err != nil {
		t.Fatalf("valid params rejected: %v", err)
	}

	tests := []struct {
		name   string
		mutate func(*OpenParams)
	}{
		{"Missing owner", func(p *OpenParams) { p.OwnerID = "" }},
		{"Invalid type", func(p *OpenParams) { p.Type = "offshore" }},
		{"Negative deposit", func(p *OpenParams) { p.InitialDeposit = -1 }},
		{"Negative rate", func(p *OpenParams) { p.InterestRateBP = -10 }},
		{"Rate on checking", func(p *OpenParams) { p.Type = TypeChecking }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := valid
			tt.mutate(&p)
			if err := p.Validate(); err == nil {
				t.Error("expected validation error, got nil")
			}
		})
	}
}

func TestCreateParamsValidate(t *testing.T) {
	p := CreateParams{
		ID:      "acc-1",
		OwnerID: "owner-1",
		Number:  "CHK00000001",
		Type:    TypeChecking,
	}
	if err := p.Validate(); err != nil {
		t.Fatalf("valid params rejected: %v", err)
	}

	p.Number = ""
	if err := p.Validate(); err == nil {
		t.Error("expected error for missing account number")
	}
}
