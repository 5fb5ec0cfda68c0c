package account

import "errors"

// Errores de negocio del linker. Los controllers los mapean a AppError
// vía errors.Is.
var (
	// ErrAlreadyLinkedToAnotherUser la cuenta social ya pertenece a otro usuario.
	ErrAlreadyLinkedToAnotherUser = errors.New("account: already_linked_to_another_user")
	// ErrCannotUnlinkLastAccount un usuario no puede quedarse sin cuentas.
	ErrCannotUnlinkLastAccount = errors.New("account: cannot_unlink_last_account")
	// ErrAccountNotFound la cuenta no existe o no pertenece al usuario.
	ErrAccountNotFound = errors.New("account: account_not_found")
	// ErrUserNotFound el usuario no existe.
	ErrUserNotFound = errors.New("account: user_not_found")
)
