package service

import (
	"context"
	"strings"
	"sync"
	"testing"

	"barberia_backend/internal/auth/provision"
	"barberia_backend/internal/auth/rolecache"
	"barberia_backend/internal/auth/roles"
	"barberia_backend/internal/auth/session"
	"barberia_backend/internal/businessapi"
	"barberia_backend/internal/events"
	"barberia_backend/internal/idp"
	"barberia_backend/platform/apperr"
	"barberia_backend/platform/logger"
)

// ---- fakes ----

type fakeProvider struct {
	identity  idp.Identity
	signInErr error
	signUpErr error
	deleteErr error

	deleted           []string
	verificationsSent int
	signOutCalls      int
}

func (p *fakeProvider) SignIn(context.Context, string, string) (idp.Identity, error) {
	if p.signInErr != nil {
		return idp.Identity{}, p.signInErr
	}
	return p.identity, nil
}

func (p *fakeProvider) SignUp(context.Context, string, string) (idp.Identity, error) {
	if p.signUpErr != nil {
		return idp.Identity{}, p.signUpErr
	}
	return p.identity, nil
}

func (p *fakeProvider) SignInWithGoogle(context.Context, string) (idp.Identity, error) {
	if p.signInErr != nil {
		return idp.Identity{}, p.signInErr
	}
	return p.identity, nil
}

func (p *fakeProvider) Lookup(context.Context, string) (idp.Identity, error) {
	return p.identity, nil
}

func (p *fakeProvider) SendEmailVerification(context.Context, string) error {
	p.verificationsSent++
	return nil
}

func (p *fakeProvider) SendPasswordReset(context.Context, string) error { return nil }

func (p *fakeProvider) VerifyEmail(context.Context, string) (string, error) {
	return p.identity.Email, nil
}

func (p *fakeProvider) VerifyPasswordResetCode(context.Context, string) (string, error) {
	return p.identity.Email, nil
}

func (p *fakeProvider) ConfirmPasswordReset(context.Context, string, string) error { return nil }

func (p *fakeProvider) DeleteAccount(_ context.Context, idToken string) error {
	if p.deleteErr != nil {
		return p.deleteErr
	}
	p.deleted = append(p.deleted, idToken)
	return nil
}

func (p *fakeProvider) SignOut(context.Context, string) error {
	p.signOutCalls++
	return nil
}

type fakeAPI struct {
	usuarios []businessapi.Usuario
	clientes []businessapi.Cliente
	barberos []businessapi.Barbero

	findErr          error
	createUsuarioErr error
	createClienteErr error

	createUsuarioCalls int
	updateUsuarioCalls int
	createClienteCalls int
	createBarberoCalls int
	nextID             int
}

func (a *fakeAPI) ListUsuarios(context.Context) ([]businessapi.Usuario, error) {
	return a.usuarios, nil
}

func (a *fakeAPI) FindUsuarioByCorreo(_ context.Context, correo string) (*businessapi.Usuario, error) {
	if a.findErr != nil {
		return nil, a.findErr
	}
	for i := range a.usuarios {
		if strings.EqualFold(a.usuarios[i].Correo, strings.TrimSpace(correo)) {
			u := a.usuarios[i]
			return &u, nil
		}
	}
	return nil, nil
}

func (a *fakeAPI) CreateUsuario(_ context.Context, u businessapi.Usuario) (*businessapi.Usuario, error) {
	a.createUsuarioCalls++
	if a.createUsuarioErr != nil {
		return nil, a.createUsuarioErr
	}
	a.nextID++
	u.ID = a.nextID
	a.usuarios = append(a.usuarios, u)
	return &u, nil
}

func (a *fakeAPI) UpdateUsuario(_ context.Context, id int, u businessapi.Usuario) (*businessapi.Usuario, error) {
	a.updateUsuarioCalls++
	for i := range a.usuarios {
		if a.usuarios[i].ID == id {
			u.ID = id
			a.usuarios[i] = u
			return &u, nil
		}
	}
	return nil, apperr.NotFound("usuario not found")
}

func (a *fakeAPI) DeleteUsuario(_ context.Context, id int) error {
	for i := range a.usuarios {
		if a.usuarios[i].ID == id {
			a.usuarios = append(a.usuarios[:i], a.usuarios[i+1:]...)
			return nil
		}
	}
	return apperr.NotFound("usuario not found")
}

func (a *fakeAPI) ListClientes(context.Context) ([]businessapi.Cliente, error) {
	return a.clientes, nil
}

func (a *fakeAPI) CreateCliente(_ context.Context, c businessapi.Cliente) (*businessapi.Cliente, error) {
	a.createClienteCalls++
	if a.createClienteErr != nil {
		return nil, a.createClienteErr
	}
	a.nextID++
	c.ID = a.nextID
	a.clientes = append(a.clientes, c)
	return &c, nil
}

func (a *fakeAPI) ListBarberos(context.Context) ([]businessapi.Barbero, error) {
	return a.barberos, nil
}

func (a *fakeAPI) CreateBarbero(_ context.Context, b businessapi.Barbero) (*businessapi.Barbero, error) {
	a.createBarberoCalls++
	a.nextID++
	b.ID = a.nextID
	a.barberos = append(a.barberos, b)
	return &b, nil
}

type memSessions struct {
	mu      sync.Mutex
	entries map[string]session.User
	nextID  int
}

func newMemSessions() *memSessions {
	return &memSessions{entries: make(map[string]session.User)}
}

func (m *memSessions) Create(_ context.Context, user session.User) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	id := strings.Repeat("s", m.nextID)
	m.entries[id] = user
	return id, nil
}

func (m *memSessions) Get(_ context.Context, sessionID string) (*session.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	user, ok := m.entries[sessionID]
	if !ok {
		return nil, nil
	}
	return &user, nil
}

func (m *memSessions) Update(_ context.Context, sessionID string, user session.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[sessionID] = user
	return nil
}

func (m *memSessions) Delete(_ context.Context, sessionID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.entries, sessionID)
	return nil
}

func (m *memSessions) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.entries)
}

// recordingBus captures published events synchronously so tests can assert on
// them without sleeping.
type recordingBus struct {
	mu     sync.Mutex
	events []events.Event
}

func (b *recordingBus) Publish(_ context.Context, event events.Event) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.events = append(b.events, event)
}

func (b *recordingBus) PublishSync(ctx context.Context, event events.Event) error {
	b.Publish(ctx, event)
	return nil
}

func (b *recordingBus) Subscribe(string, events.Handler) {}

func (b *recordingBus) find(name string) events.Event {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, e := range b.events {
		if e.EventName() == name {
			return e
		}
	}
	return nil
}

type fakeReaper struct {
	queued []string
	err    error
}

func (r *fakeReaper) EnqueueOrphanDelete(_ context.Context, _, email string) error {
	if r.err != nil {
		return r.err
	}
	r.queued = append(r.queued, email)
	return nil
}

// ---- harness ----

type harness struct {
	svc      *Service
	provider *fakeProvider
	api      *fakeAPI
	cache    *rolecache.Memory
	sessions *memSessions
	bus      *recordingBus
	reaper   *fakeReaper
}

func newHarness(provider *fakeProvider, api *fakeAPI) *harness {
	log := logger.New("development")
	cache := rolecache.NewMemory()
	sessions := newMemSessions()
	bus := &recordingBus{}
	reaper := &fakeReaper{}

	svc := New(
		provider,
		api,
		roles.NewResolver(cache, log),
		cache,
		sessions,
		provision.New(api, log),
		bus,
		log,
	)
	svc.SetOrphanReaper(reaper)

	return &harness{
		svc:      svc,
		provider: provider,
		api:      api,
		cache:    cache,
		sessions: sessions,
		bus:      bus,
		reaper:   reaper,
	}
}

func testIdentity() idp.Identity {
	return idp.Identity{
		UID:     "uid-1",
		Email:   "ana@example.com",
		IDToken: "tok-1",
	}
}

func registeredUsuario() businessapi.Usuario {
	return businessapi.Usuario{
		ID:     7,
		Correo: "ana@example.com",
		RolID:  int(roles.RoleCliente),
		Estado: true,
		Nombre: "Ana",
	}
}

// ---- login ----

func TestLoginSyncIsIdempotent(t *testing.T) {
	api := &fakeAPI{
		usuarios: []businessapi.Usuario{registeredUsuario()},
		clientes: []businessapi.Cliente{{ID: 1, UsuarioID: 7, Correo: "ana@example.com"}},
	}
	h := newHarness(&fakeProvider{identity: testIdentity()}, api)

	for i := 0; i < 2; i++ {
		result, err := h.svc.Login(context.Background(), "ana@example.com", "secret", nil)
		if err != nil {
			t.Fatalf("login %d: %v", i, err)
		}
		if result.User.Role != roles.RoleCliente {
			t.Fatalf("role = %v, want Cliente", result.User.Role)
		}
	}

	if api.createUsuarioCalls != 0 || api.updateUsuarioCalls != 0 || api.createClienteCalls != 0 {
		t.Fatalf("already-consistent login wrote: creates=%d updates=%d profiles=%d",
			api.createUsuarioCalls, api.updateUsuarioCalls, api.createClienteCalls)
	}

	if role, ok := h.cache.Get(context.Background(), "ana@example.com"); !ok || role != roles.RoleCliente {
		t.Fatalf("cache after login = (%v, %v), want (Cliente, true)", role, ok)
	}
}

func TestLoginRejectsUnregisteredIdentity(t *testing.T) {
	h := newHarness(&fakeProvider{identity: testIdentity()}, &fakeAPI{})

	_, err := h.svc.Login(context.Background(), "ana@example.com", "secret", nil)
	if !apperr.Is(err, apperr.KindNotRegistered) {
		t.Fatalf("err = %v, want not_registered", err)
	}
	if h.sessions.count() != 0 {
		t.Fatal("session created for unregistered identity")
	}
}

func TestLoginAlignsDivergedRole(t *testing.T) {
	usuario := registeredUsuario()
	usuario.RolID = int(roles.RoleCliente)
	usuario.Estado = false
	api := &fakeAPI{usuarios: []businessapi.Usuario{usuario}}
	h := newHarness(&fakeProvider{identity: testIdentity()}, api)

	barbero := roles.RoleBarbero
	result, err := h.svc.Login(context.Background(), "ana@example.com", "secret", &barbero)
	if err != nil {
		t.Fatalf("login: %v", err)
	}

	if api.updateUsuarioCalls != 1 {
		t.Fatalf("updateUsuarioCalls = %d, want 1", api.updateUsuarioCalls)
	}
	if result.User.Role != roles.RoleBarbero {
		t.Fatalf("role = %v, want Barbero", result.User.Role)
	}
	if got := api.usuarios[0]; got.RolID != int(roles.RoleBarbero) || !got.Estado {
		t.Fatalf("record after login = rol %d estado %v, want aligned active Barbero", got.RolID, got.Estado)
	}
}

func TestLoginPassesThroughBadCredentials(t *testing.T) {
	h := newHarness(&fakeProvider{signInErr: apperr.InvalidCredentials("bad password")}, &fakeAPI{})

	_, err := h.svc.Login(context.Background(), "ana@example.com", "wrong", nil)
	if !apperr.Is(err, apperr.KindInvalidCredentials) {
		t.Fatalf("err = %v, want invalid_credentials", err)
	}
	if h.sessions.count() != 0 {
		t.Fatal("session created after failed sign-in")
	}
}

func TestLoginFallsBackToCachedRole(t *testing.T) {
	api := &fakeAPI{findErr: apperr.Unavailable("connection refused", nil)}
	h := newHarness(&fakeProvider{identity: testIdentity()}, api)
	if err := h.cache.Put(context.Background(), "ana@example.com", roles.RoleBarbero); err != nil {
		t.Fatal(err)
	}

	result, err := h.svc.Login(context.Background(), "ana@example.com", "secret", nil)
	if err != nil {
		t.Fatalf("fallback login: %v", err)
	}

	if !result.User.ProviderOnly {
		t.Fatal("fallback session not marked provider-only")
	}
	if result.User.Role != roles.RoleBarbero {
		t.Fatalf("role = %v, want cached Barbero", result.User.Role)
	}

	event, ok := h.bus.find("auth.user.logged_in").(events.UserLoggedIn)
	if !ok || !event.Fallback {
		t.Fatalf("logged-in event = %#v, want Fallback=true", event)
	}
}

func TestLoginFailsClosedWithoutCachedRole(t *testing.T) {
	api := &fakeAPI{findErr: apperr.Unavailable("connection refused", nil)}
	h := newHarness(&fakeProvider{identity: testIdentity()}, api)

	_, err := h.svc.Login(context.Background(), "ana@example.com", "secret", nil)
	if !apperr.Is(err, apperr.KindUnavailable) {
		t.Fatalf("err = %v, want unavailable", err)
	}
	if h.sessions.count() != 0 {
		t.Fatal("session created without business record or cached role")
	}
}

// ---- registration ----

func TestRegisterCreatesRecordAndProfileWithoutSession(t *testing.T) {
	provider := &fakeProvider{identity: testIdentity()}
	api := &fakeAPI{}
	h := newHarness(provider, api)

	err := h.svc.Register(context.Background(), Registration{
		Correo:   "Ana@Example.com",
		Password: "secret123",
		Rol:      roles.RoleCliente,
		Nombre:   "Ana",
		Apellido: "Diaz",
	})
	if err != nil {
		t.Fatalf("register: %v", err)
	}

	if api.createUsuarioCalls != 1 || api.createClienteCalls != 1 {
		t.Fatalf("creates = usuario %d cliente %d, want 1 and 1", api.createUsuarioCalls, api.createClienteCalls)
	}
	if api.usuarios[0].Correo != "ana@example.com" {
		t.Fatalf("correo stored as %q, want normalized", api.usuarios[0].Correo)
	}
	if provider.verificationsSent != 1 {
		t.Fatalf("verificationsSent = %d, want 1", provider.verificationsSent)
	}
	if h.sessions.count() != 0 {
		t.Fatal("registration must not establish a session")
	}
	if h.bus.find("auth.user.registered") == nil {
		t.Fatal("registered event not published")
	}
}

func TestRegisterCompensatesOnSyncFailure(t *testing.T) {
	provider := &fakeProvider{identity: testIdentity()}
	api := &fakeAPI{createUsuarioErr: apperr.Unavailable("business API down", nil)}
	h := newHarness(provider, api)

	err := h.svc.Register(context.Background(), Registration{
		Correo:   "ana@example.com",
		Password: "secret123",
		Rol:      roles.RoleCliente,
	})
	if !apperr.Is(err, apperr.KindRollback) {
		t.Fatalf("err = %v, want rollback", err)
	}

	if len(provider.deleted) != 1 || provider.deleted[0] != "tok-1" {
		t.Fatalf("deleted = %v, want the new account's token", provider.deleted)
	}
	if _, ok := h.cache.Get(context.Background(), "ana@example.com"); ok {
		t.Fatal("cache written for rolled-back registration")
	}
	if h.sessions.count() != 0 {
		t.Fatal("session created for rolled-back registration")
	}

	event, ok := h.bus.find("auth.registration.rolled_back").(events.RegistrationRolledBack)
	if !ok {
		t.Fatal("rollback event not published")
	}
	if event.CleanupQueued {
		t.Fatal("inline delete succeeded, cleanup must not be queued")
	}
}

func TestRegisterCompensationQueuesReaperWhenDeleteFails(t *testing.T) {
	provider := &fakeProvider{
		identity:  testIdentity(),
		deleteErr: apperr.Unavailable("provider down", nil),
	}
	api := &fakeAPI{createUsuarioErr: apperr.Unavailable("business API down", nil)}
	h := newHarness(provider, api)

	err := h.svc.Register(context.Background(), Registration{
		Correo:   "ana@example.com",
		Password: "secret123",
		Rol:      roles.RoleCliente,
	})
	if !apperr.Is(err, apperr.KindRollback) {
		t.Fatalf("err = %v, want rollback", err)
	}

	if len(h.reaper.queued) != 1 || h.reaper.queued[0] != "ana@example.com" {
		t.Fatalf("reaper queue = %v, want the orphaned email", h.reaper.queued)
	}

	event, ok := h.bus.find("auth.registration.rolled_back").(events.RegistrationRolledBack)
	if !ok || !event.CleanupQueued {
		t.Fatalf("rollback event = %#v, want CleanupQueued=true", event)
	}
}

func TestRegisterDuplicateEmailNeedsNoCompensation(t *testing.T) {
	provider := &fakeProvider{signUpErr: apperr.Conflict("email already in use")}
	api := &fakeAPI{}
	h := newHarness(provider, api)

	err := h.svc.Register(context.Background(), Registration{
		Correo:   "ana@example.com",
		Password: "secret123",
		Rol:      roles.RoleCliente,
	})
	if !apperr.Is(err, apperr.KindConflict) {
		t.Fatalf("err = %v, want conflict", err)
	}
	if len(provider.deleted) != 0 {
		t.Fatal("compensation ran though no account was created")
	}
	if api.createUsuarioCalls != 0 {
		t.Fatal("business sync ran after failed sign-up")
	}
}

func TestRegisterThenLogin(t *testing.T) {
	identity := testIdentity()
	identity.EmailVerified = false
	provider := &fakeProvider{identity: identity}
	api := &fakeAPI{}
	h := newHarness(provider, api)

	err := h.svc.Register(context.Background(), Registration{
		Correo:   "ana@example.com",
		Password: "secret123",
		Rol:      roles.RoleCliente,
		Nombre:   "Ana",
		Apellido: "Diaz",
	})
	if err != nil {
		t.Fatalf("register: %v", err)
	}

	result, err := h.svc.Login(context.Background(), "ana@example.com", "secret123", nil)
	if err != nil {
		t.Fatalf("login after register: %v", err)
	}

	if result.User.EmailVerified {
		t.Fatal("emailVerified must stay false until the code is applied")
	}
	if result.User.ID == 0 || result.User.ProviderOnly {
		t.Fatalf("user = %#v, want full synced session", result.User)
	}

	// Login after registration must not duplicate anything.
	if api.createUsuarioCalls != 1 || api.createClienteCalls != 1 || api.updateUsuarioCalls != 0 {
		t.Fatalf("writes after register+login = usuario %d cliente %d updates %d",
			api.createUsuarioCalls, api.createClienteCalls, api.updateUsuarioCalls)
	}
}

// ---- logout and session ----

func TestLogoutClearsSessionEvenWhenProviderFails(t *testing.T) {
	api := &fakeAPI{usuarios: []businessapi.Usuario{registeredUsuario()}}
	h := newHarness(&fakeProvider{identity: testIdentity()}, api)

	result, err := h.svc.Login(context.Background(), "ana@example.com", "secret", nil)
	if err != nil {
		t.Fatalf("login: %v", err)
	}

	if err := h.svc.Logout(context.Background(), result.SessionID); err != nil {
		t.Fatalf("logout: %v", err)
	}

	user, err := h.svc.CurrentUser(context.Background(), result.SessionID)
	if err != nil {
		t.Fatal(err)
	}
	if user != nil {
		t.Fatal("session survived logout")
	}
	if h.bus.find("auth.user.logged_out") == nil {
		t.Fatal("logged-out event not published")
	}
}

func TestUpdatePhotoPropagatesToRecordAndSession(t *testing.T) {
	api := &fakeAPI{usuarios: []businessapi.Usuario{registeredUsuario()}}
	h := newHarness(&fakeProvider{identity: testIdentity()}, api)

	result, err := h.svc.Login(context.Background(), "ana@example.com", "secret", nil)
	if err != nil {
		t.Fatalf("login: %v", err)
	}

	user, err := h.svc.UpdatePhoto(context.Background(), result.SessionID, "https://cdn.example.com/ana.jpg")
	if err != nil {
		t.Fatalf("update photo: %v", err)
	}
	if user.FotoPerfil != "https://cdn.example.com/ana.jpg" {
		t.Fatalf("session foto = %q", user.FotoPerfil)
	}
	if api.usuarios[0].FotoPerfil != "https://cdn.example.com/ana.jpg" {
		t.Fatalf("record foto = %q", api.usuarios[0].FotoPerfil)
	}
}
