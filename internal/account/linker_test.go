package account

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/google/uuid"

	"github.com/dropDatabas3/socialgate/internal/store"
)

// failingStore envuelve un IdentityStore y fuerza fallos puntuales para
// probar la compensación.
type failingStore struct {
	store.IdentityStore
	failCreateAccount bool
	failDeleteUser    bool
}

func (f *failingStore) CreateAccount(ctx context.Context, provider, identifier string, userID uuid.UUID) (*store.Account, error) {
	if f.failCreateAccount {
		return nil, errors.New("boom: insert failed")
	}
	return f.IdentityStore.CreateAccount(ctx, provider, identifier, userID)
}

func (f *failingStore) DeleteUser(ctx context.Context, id uuid.UUID) error {
	if f.failDeleteUser {
		return errors.New("boom: delete failed")
	}
	return f.IdentityStore.DeleteUser(ctx, id)
}

func TestHandleSocialLoginCreatesThenReuses(t *testing.T) {
	ctx := context.Background()
	l := New(store.NewMemory())

	first, err := l.HandleSocialLogin(ctx, "google", "sub-1")
	if err != nil {
		t.Fatalf("first login: %v", err)
	}
	if !first.NewUser || !first.NewAccount {
		t.Fatalf("first login should create user and account, got %+v", first)
	}

	second, err := l.HandleSocialLogin(ctx, "google", "sub-1")
	if err != nil {
		t.Fatalf("second login: %v", err)
	}
	if second.NewUser || second.NewAccount {
		t.Fatalf("second login should reuse user and account, got %+v", second)
	}
	if second.UserUUID != first.UserUUID {
		t.Fatalf("second login resolved %s, want %s", second.UserUUID, first.UserUUID)
	}
}

func TestHandleSocialLoginDistinctProvidersDistinctUsers(t *testing.T) {
	ctx := context.Background()
	l := New(store.NewMemory())

	a, _ := l.HandleSocialLogin(ctx, "google", "same-id")
	b, err := l.HandleSocialLogin(ctx, "github", "same-id")
	if err != nil {
		t.Fatalf("github login: %v", err)
	}
	if a.UserUUID == b.UserUUID {
		t.Fatal("same identifier on different providers must not collide")
	}
}

func TestHandleSocialLoginRollsBackOnCreateAccountFailure(t *testing.T) {
	ctx := context.Background()
	mem := store.NewMemory()
	fs := &failingStore{IdentityStore: mem, failCreateAccount: true}
	l := New(fs)

	_, err := l.HandleSocialLogin(ctx, "discord", "d-1")
	if err == nil {
		t.Fatal("expected error when account insert fails")
	}
	// El error nombra al usuario compensado con su uuid.
	const marker = "rolled back user "
	idx := strings.Index(err.Error(), marker)
	if idx < 0 {
		t.Fatalf("error should name the rolled-back user, got: %v", err)
	}
	rest := err.Error()[idx+len(marker):]
	if len(rest) < 36 {
		t.Fatalf("error truncates the uuid: %v", err)
	}
	if _, perr := uuid.Parse(rest[:36]); perr != nil {
		t.Fatalf("error does not carry a uuid after %q: %v", marker, err)
	}

	// La compensación borró al usuario: un login posterior (sin fallo)
	// crea uno nuevo y no queda nadie huérfano en el store.
	fs.failCreateAccount = false
	res, err := l.HandleSocialLogin(ctx, "discord", "d-1")
	if err != nil {
		t.Fatalf("login after recovery: %v", err)
	}
	if !res.NewUser {
		t.Fatal("rollback left state behind, login did not create a fresh user")
	}
}

func TestHandleSocialLoginReportsOrphanWhenRollbackFails(t *testing.T) {
	ctx := context.Background()
	fs := &failingStore{
		IdentityStore:     store.NewMemory(),
		failCreateAccount: true,
		failDeleteUser:    true,
	}
	l := New(fs)

	_, err := l.HandleSocialLogin(ctx, "kakao", "k-1")
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), "orphaned user") {
		t.Fatalf("error should name the orphaned user, got: %v", err)
	}
}

func TestLinkAccount(t *testing.T) {
	ctx := context.Background()
	s := store.NewMemory()
	l := New(s)

	owner, _ := l.HandleSocialLogin(ctx, "google", "g-1")
	other, _ := l.HandleSocialLogin(ctx, "github", "gh-1")

	linked, err := l.LinkAccount(ctx, owner.UserUUID, "naver", "n-1")
	if err != nil {
		t.Fatalf("link: %v", err)
	}
	if linked {
		t.Fatal("first link must report alreadyLinked=false")
	}
	// Idempotente para el mismo usuario.
	linked, err = l.LinkAccount(ctx, owner.UserUUID, "naver", "n-1")
	if err != nil {
		t.Fatalf("repeat link: %v", err)
	}
	if !linked {
		t.Fatal("repeat link must report alreadyLinked=true")
	}
	// Conflicto con otro usuario.
	if _, err := l.LinkAccount(ctx, other.UserUUID, "naver", "n-1"); !errors.Is(err, ErrAlreadyLinkedToAnotherUser) {
		t.Fatalf("link to stolen account = %v, want ErrAlreadyLinkedToAnotherUser", err)
	}
	// Usuario inexistente.
	if _, err := l.LinkAccount(ctx, uuid.New(), "x", "x-1"); !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("link for missing user = %v, want ErrUserNotFound", err)
	}
	// La propiedad de la cuenta gana: uuid inexistente sobre una cuenta
	// ajena reporta el conflicto, no el usuario faltante.
	if _, err := l.LinkAccount(ctx, uuid.New(), "naver", "n-1"); !errors.Is(err, ErrAlreadyLinkedToAnotherUser) {
		t.Fatalf("link foreign account with dead uuid = %v, want ErrAlreadyLinkedToAnotherUser", err)
	}
}

func TestUnlinkAccount(t *testing.T) {
	ctx := context.Background()
	l := New(store.NewMemory())

	res, _ := l.HandleSocialLogin(ctx, "google", "g-1")
	if err := l.UnlinkAccount(ctx, res.UserUUID, "google", "g-1"); !errors.Is(err, ErrCannotUnlinkLastAccount) {
		t.Fatalf("unlink last = %v, want ErrCannotUnlinkLastAccount", err)
	}

	if _, err := l.LinkAccount(ctx, res.UserUUID, "apple", "a-1"); err != nil {
		t.Fatalf("link: %v", err)
	}
	if err := l.UnlinkAccount(ctx, res.UserUUID, "google", "g-1"); err != nil {
		t.Fatalf("unlink: %v", err)
	}
	accounts, _ := l.Accounts(ctx, res.UserUUID)
	if len(accounts) != 1 || accounts[0].Provider != "apple" {
		t.Fatalf("unexpected accounts after unlink: %+v", accounts)
	}

	// Cuenta que no pertenece al usuario.
	stranger, _ := l.HandleSocialLogin(ctx, "github", "gh-1")
	_, _ = l.LinkAccount(ctx, stranger.UserUUID, "discord", "d-1")
	if err := l.UnlinkAccount(ctx, res.UserUUID, "discord", "d-1"); !errors.Is(err, ErrAccountNotFound) {
		t.Fatalf("unlink foreign = %v, want ErrAccountNotFound", err)
	}
}

func TestDeleteUser(t *testing.T) {
	ctx := context.Background()
	s := store.NewMemory()
	l := New(s)

	res, _ := l.HandleSocialLogin(ctx, "google", "g-1")
	_, _ = l.LinkAccount(ctx, res.UserUUID, "x", "x-1")

	if err := l.DeleteUser(ctx, res.UserUUID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := l.Accounts(ctx, res.UserUUID); !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("accounts after delete = %v, want ErrUserNotFound", err)
	}
	// Las cuentas cayeron con el usuario: el identifier queda libre.
	again, err := l.HandleSocialLogin(ctx, "google", "g-1")
	if err != nil {
		t.Fatalf("relogin: %v", err)
	}
	if !again.NewUser {
		t.Fatal("cascade failed, old account survived")
	}

	if err := l.DeleteUser(ctx, uuid.New()); !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("delete missing = %v, want ErrUserNotFound", err)
	}
}
