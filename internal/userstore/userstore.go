package userstore

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"

	"github.com/DemioMAD/demiochatplus/internal/model"
)

type userstore struct {
	db *sqlx.DB
}

func New(db *sqlx.DB) (*userstore, error) {
	store := &userstore{db}
	if err := store.createTables(); err != nil {
		return nil, fmt.Errorf("creating tables: %w", err)
	}
	return store, nil
}

func (s *userstore) createTables() error {
	_, err := s.db.Exec(`create table if not exists user(
		ID             text not null primary key,
		CreatedAt      DATETIME not null,
		UpdatedAt      DATETIME null,
		LastLoggedInAt DATETIME null,
		Status         tinyint not null default 0,
		DisplayName    text not null,
		Email          text not null,
		Password       text not null,
		VerifiedAt     DATETIME null
	)`)
	if err != nil {
		return fmt.Errorf("creating user table: %w", err)
	}
	return nil
}

func (s *userstore) Create(user *model.User) error {
	res, err := s.db.NamedExec(`insert into user
		(ID, CreatedAt, Status, DisplayName, Email, Password)
		values(:ID, :CreatedAt, :Status, :DisplayName, :Email, :Password)`, user)

	if err != nil {
		return fmt.Errorf("inserting user: %w", err)
	}
	if rows, err := res.RowsAffected(); rows != 1 {
		return fmt.Errorf("expected 1 row to be affected, got %d", rows)
	} else if err != nil {
		return fmt.Errorf("getting rows affected: %w", err)
	}

	return nil
}

func (s *userstore) Fetch(userID model.UserID) (*model.User, error) {
	user := &model.User{}
	err := s.db.Get(user, `select * from user where ID = ?`, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, model.ErrorUserNotFound
		}
		return nil, fmt.Errorf("fetching user: %w", err)
	}
	return user, nil
}

func (s *userstore) FetchByEmail(email string) (*model.User, error) {
	user := &model.User{}
	err := s.db.Get(user, `select * from user where Email = ?`, email)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, model.ErrorUserNotFound
		}
		return nil, fmt.Errorf("fetching user by email: %w", err)
	}
	return user, nil
}

func (s *userstore) EmailExists(email string) (bool, error) {
	var count int
	err := s.db.Get(&count, `select count(*) from user where Email = ?`, email)
	if err != nil {
		return false, fmt.Errorf("counting users by email: %w", err)
	}
	return count > 0, nil
}

func (s *userstore) TouchLogin(userID model.UserID) error {
	_, err := s.db.Exec(`update user set LastLoggedInAt = ? where ID = ?`, time.Now().UTC(), userID)
	if err != nil {
		return fmt.Errorf("updating last login: %w", err)
	}
	return nil
}

// Deactivate flips the account to its terminal state and blanks the
// credentials in place. The row is kept so the display name survives in
// message history.
func (s *userstore) Deactivate(userID model.UserID) error {
	res, err := s.db.Exec(`update user
		set Status = ?, Email = '', Password = '', UpdatedAt = ?
		where ID = ?`, model.UserStatusDeactivated, time.Now().UTC(), userID)
	if err != nil {
		return fmt.Errorf("deactivating user: %w", err)
	}
	if rows, _ := res.RowsAffected(); rows != 1 {
		return model.ErrorUserNotFound
	}
	return nil
}
