package provision

import (
	"context"
	"strings"
	"testing"

	"barberia_backend/internal/auth/roles"
	"barberia_backend/internal/businessapi"
	"barberia_backend/internal/idp"
	"barberia_backend/platform/apperr"
	"barberia_backend/platform/logger"
)

type fakeAPI struct {
	clientes []businessapi.Cliente
	barberos []businessapi.Barbero

	listClientesErr error
	createdClientes int
	createdBarberos int
}

func (a *fakeAPI) ListUsuarios(context.Context) ([]businessapi.Usuario, error) { return nil, nil }

func (a *fakeAPI) FindUsuarioByCorreo(context.Context, string) (*businessapi.Usuario, error) {
	return nil, nil
}

func (a *fakeAPI) CreateUsuario(context.Context, businessapi.Usuario) (*businessapi.Usuario, error) {
	return nil, nil
}

func (a *fakeAPI) UpdateUsuario(context.Context, int, businessapi.Usuario) (*businessapi.Usuario, error) {
	return nil, nil
}

func (a *fakeAPI) DeleteUsuario(context.Context, int) error { return nil }

func (a *fakeAPI) ListClientes(context.Context) ([]businessapi.Cliente, error) {
	if a.listClientesErr != nil {
		return nil, a.listClientesErr
	}
	return a.clientes, nil
}

func (a *fakeAPI) CreateCliente(_ context.Context, c businessapi.Cliente) (*businessapi.Cliente, error) {
	a.createdClientes++
	a.clientes = append(a.clientes, c)
	return &c, nil
}

func (a *fakeAPI) ListBarberos(context.Context) ([]businessapi.Barbero, error) {
	return a.barberos, nil
}

func (a *fakeAPI) CreateBarbero(_ context.Context, b businessapi.Barbero) (*businessapi.Barbero, error) {
	a.createdBarberos++
	a.barberos = append(a.barberos, b)
	return &b, nil
}

func usuario() *businessapi.Usuario {
	return &businessapi.Usuario{
		ID:     7,
		Correo: "ana@example.com",
		Nombre: "Ana",
	}
}

func TestEnsureProfileCreatesClienteOnce(t *testing.T) {
	api := &fakeAPI{}
	p := New(api, logger.New("development"))
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		if err := p.EnsureProfile(ctx, usuario(), roles.RoleCliente, idp.Identity{}, true); err != nil {
			t.Fatalf("ensure %d: %v", i, err)
		}
	}

	if api.createdClientes != 1 {
		t.Fatalf("createdClientes = %d, want 1", api.createdClientes)
	}
	if got := api.clientes[0]; got.UsuarioID != 7 || !got.Estado {
		t.Fatalf("cliente = %#v", got)
	}
}

func TestEnsureProfileMatchesByCorreo(t *testing.T) {
	// A pre-existing profile keyed by email but not usuarioId still counts.
	api := &fakeAPI{clientes: []businessapi.Cliente{{UsuarioID: 99, Correo: "ANA@example.com"}}}
	p := New(api, logger.New("development"))

	if err := p.EnsureProfile(context.Background(), usuario(), roles.RoleCajero, idp.Identity{}, true); err != nil {
		t.Fatalf("ensure: %v", err)
	}
	if api.createdClientes != 0 {
		t.Fatalf("createdClientes = %d, want 0", api.createdClientes)
	}
}

func TestEnsureProfileBarbero(t *testing.T) {
	api := &fakeAPI{}
	p := New(api, logger.New("development"))

	if err := p.EnsureProfile(context.Background(), usuario(), roles.RoleBarbero, idp.Identity{}, true); err != nil {
		t.Fatalf("ensure: %v", err)
	}
	if api.createdBarberos != 1 || api.createdClientes != 0 {
		t.Fatalf("creates = barberos %d clientes %d", api.createdBarberos, api.createdClientes)
	}
}

func TestEnsureProfileAdminHasNoProfile(t *testing.T) {
	api := &fakeAPI{}
	p := New(api, logger.New("development"))

	if err := p.EnsureProfile(context.Background(), usuario(), roles.RoleAdmin, idp.Identity{}, true); err != nil {
		t.Fatalf("ensure: %v", err)
	}
	if api.createdClientes != 0 || api.createdBarberos != 0 {
		t.Fatal("profile created for admin")
	}
}

func TestEnsureProfileFillsPlaceholderDocumento(t *testing.T) {
	api := &fakeAPI{}
	p := New(api, logger.New("development"))

	u := usuario()
	u.Documento = "  "
	if err := p.EnsureProfile(context.Background(), u, roles.RoleCliente, idp.Identity{}, true); err != nil {
		t.Fatalf("ensure: %v", err)
	}
	if !strings.HasPrefix(api.clientes[0].Documento, "TMP-") {
		t.Fatalf("documento = %q, want TMP- placeholder", api.clientes[0].Documento)
	}
}

func TestEnsureProfileNameFallsBackToDisplayName(t *testing.T) {
	api := &fakeAPI{}
	p := New(api, logger.New("development"))

	u := usuario()
	u.Nombre = ""
	identity := idp.Identity{DisplayName: "Ana Maria Diaz"}
	if err := p.EnsureProfile(context.Background(), u, roles.RoleCliente, identity, true); err != nil {
		t.Fatalf("ensure: %v", err)
	}

	got := api.clientes[0]
	if got.Nombre != "Ana" || got.Apellido != "Maria Diaz" {
		t.Fatalf("name = (%q, %q)", got.Nombre, got.Apellido)
	}
}

func TestEnsureProfileStrictness(t *testing.T) {
	cause := apperr.Unavailable("down", nil)

	api := &fakeAPI{listClientesErr: cause}
	p := New(api, logger.New("development"))
	ctx := context.Background()

	if err := p.EnsureProfile(ctx, usuario(), roles.RoleCliente, idp.Identity{}, true); err == nil {
		t.Fatal("strict mode swallowed the error")
	}
	if err := p.EnsureProfile(ctx, usuario(), roles.RoleCliente, idp.Identity{}, false); err != nil {
		t.Fatalf("non-strict mode returned %v, want nil", err)
	}
}
