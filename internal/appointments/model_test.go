package appointments

import "testing"

func TestStatusTransitions(t *testing.T) {
	tests := []struct {
		from, to Status
		want     bool
	}{
		{StatusPending, StatusConfirmed, true},
		{StatusPending, StatusCancelled, true},
		{StatusPending, StatusCompleted, false},
		{StatusConfirmed, StatusCompleted, true},
		{StatusConfirmed, StatusCancelled, true},
		{StatusConfirmed, StatusPending, false},
		{StatusCancelled, StatusConfirmed, false},
		{StatusCancelled, StatusPending, false},
		{StatusCompleted, StatusCancelled, false},
	}
	for _, tt := range tests {
		if got := tt.from.CanTransition(tt.to); got != tt.want {
			t.Errorf("%s -> %s = %v, want %v", tt.from, tt.to, got, tt.want)
		}
	}
}

func TestTerminalStates(t *testing.T) {
	if !StatusCancelled.Terminal() || !StatusCompleted.Terminal() {
		t.Error("cancelled and completed must be terminal")
	}
	if StatusPending.Terminal() || StatusConfirmed.Terminal() {
		t.Error("pending and confirmed must not be terminal")
	}
}

func validRequest() *CreateRequest {
	return &CreateRequest{
		SpecialtyID:  1,
		PatientName:  "Ana García",
		PatientPhone: "2477504122",
		DNI:          "12345678",
		Date:         "2026-03-12",
		Time:         "09:00",
	}
}

func TestValidateAcceptsWellFormedRequest(t *testing.T) {
	if err := validRequest().Validate(); err != nil {
		t.Fatalf("Validate() = %v", err)
	}
}

func TestValidateRejectsShortDNI(t *testing.T) {
	req := validRequest()
	req.DNI = "1234567"
	err := req.Validate()
	if err == nil {
		t.Fatal("7-digit DNI must be rejected")
	}
	if !IsValidationError(err) {
		t.Errorf("error type = %T", err)
	}
}

func TestValidateRejectsBadFields(t *testing.T) {
	cases := map[string]func(*CreateRequest){
		"missing name":   func(r *CreateRequest) { r.PatientName = "  " },
		"short phone":    func(r *CreateRequest) { r.PatientPhone = "123456789" },
		"letters in dni": func(r *CreateRequest) { r.DNI = "1234567a" },
		"bad date":       func(r *CreateRequest) { r.Date = "12/03/2026" },
		"bad time":       func(r *CreateRequest) { r.Time = "9:00" },
		"no specialty":   func(r *CreateRequest) { r.SpecialtyID = 0 },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			req := validRequest()
			mutate(req)
			if err := req.Validate(); !IsValidationError(err) {
				t.Errorf("err = %v, want validation error", err)
			}
		})
	}
}

func TestDNIFromNotes(t *testing.T) {
	notes := buildNotes("12345678", "PAC-5678-4122")
	if got := DNIFromNotes(notes); got != "12345678" {
		t.Errorf("DNIFromNotes = %q", got)
	}
	if got := DNIFromNotes("no id here"); got != "" {
		t.Errorf("DNIFromNotes = %q, want empty", got)
	}
}
