package board

import (
	"context"

	boardAuth "github.com/MrEthical07/boardAuth"
)

// Accounts adapts a [UserRepository] to the engine's user provider.
type Accounts struct {
	users UserRepository
}

var _ boardAuth.UserProvider = (*Accounts)(nil)

func NewAccounts(users UserRepository) *Accounts {
	return &Accounts{users: users}
}

func (a *Accounts) GetUserByEmail(ctx context.Context, email string) (boardAuth.UserRecord, error) {
	u, err := a.users.UserByEmail(ctx, NormalizeEmail(email))
	if err != nil {
		return boardAuth.UserRecord{}, err
	}
	return record(u), nil
}

func (a *Accounts) GetUserByID(ctx context.Context, id int64) (boardAuth.UserRecord, error) {
	u, err := a.users.UserByID(ctx, id)
	if err != nil {
		return boardAuth.UserRecord{}, err
	}
	return record(u), nil
}

func record(u User) boardAuth.UserRecord {
	return boardAuth.UserRecord{
		ID:           u.ID,
		Email:        u.Email,
		Nickname:     u.Nickname,
		PasswordHash: u.PasswordHash,
		Roles:        append([]string(nil), u.Roles...),
	}
}
