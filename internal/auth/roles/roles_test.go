package roles

import "testing"

func TestFromName(t *testing.T) {
	tests := []struct {
		in     string
		want   RoleID
		wantOK bool
	}{
		{"admin", RoleAdmin, true},
		{"Administrador", RoleAdmin, true},
		{"cliente", RoleCliente, true},
		{"customer", RoleCliente, true},
		{"barbero", RoleBarbero, true},
		{"  Barber  ", RoleBarbero, true},
		{"cajero", RoleCajero, true},
		{"2", RoleCliente, true},
		{"", 0, false},
		{"nope", 0, false},
		{"9", 0, false},
	}

	for _, tt := range tests {
		got, ok := FromName(tt.in)
		if ok != tt.wantOK || got != tt.want {
			t.Errorf("FromName(%q) = (%v, %v), want (%v, %v)", tt.in, got, ok, tt.want, tt.wantOK)
		}
	}
}

func TestNameRoundTrip(t *testing.T) {
	for _, role := range []RoleID{RoleAdmin, RoleCliente, RoleBarbero, RoleCajero} {
		got, ok := FromName(role.Name())
		if !ok || got != role {
			t.Errorf("FromName(%q) = (%v, %v), want (%v, true)", role.Name(), got, ok, role)
		}
	}
}
