package msgstore

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"

	"github.com/DemioMAD/demiochatplus/internal/model"
)

type msgstore struct {
	db *sqlx.DB
}

func New(db *sqlx.DB) (*msgstore, error) {
	store := &msgstore{db}
	if err := store.createTables(); err != nil {
		return nil, fmt.Errorf("creating tables: %w", err)
	}
	return store, nil
}

func (s *msgstore) createTables() error {
	_, err := s.db.Exec(`create table if not exists message(
		Seq            integer primary key autoincrement,
		ID             text not null unique,
		AuthorName     text not null,
		Body           text not null,
		CreatedAt      DATETIME not null,
		AttachmentLink text not null default ''
	)`)
	if err != nil {
		return fmt.Errorf("creating message table: %w", err)
	}
	return nil
}

// FetchAll returns the full channel history in insertion order. Clients
// render it as delivered and never re-sort.
func (s *msgstore) FetchAll() ([]model.Message, error) {
	messages := []model.Message{}
	err := s.db.Select(&messages, `select ID, AuthorName, Body, CreatedAt, AttachmentLink
		from message order by Seq asc`)
	if err != nil {
		return nil, fmt.Errorf("fetching messages: %w", err)
	}
	return messages, nil
}

func (s *msgstore) Insert(message *model.Message) error {
	if message.IsEmpty() {
		return model.ErrorEmptyMessage
	}

	res, err := s.db.NamedExec(`insert into message
		(ID, AuthorName, Body, CreatedAt, AttachmentLink)
		values(:ID, :AuthorName, :Body, :CreatedAt, :AttachmentLink)`, message)
	if err != nil {
		return fmt.Errorf("inserting message: %w", err)
	}
	if rows, err := res.RowsAffected(); rows != 1 {
		return fmt.Errorf("expected 1 row to be affected, got %d", rows)
	} else if err != nil {
		return fmt.Errorf("getting rows affected: %w", err)
	}

	return nil
}

// Delete removes a message by id, but only when authorName matches the
// stored author.
func (s *msgstore) Delete(id model.MessageID, authorName string) error {
	var storedAuthor string
	err := s.db.Get(&storedAuthor, `select AuthorName from message where ID = ?`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.ErrorMessageNotFound
		}
		return fmt.Errorf("fetching message author: %w", err)
	}
	if storedAuthor != authorName {
		return model.ErrorAuthorMismatch
	}

	_, err = s.db.Exec(`delete from message where ID = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting message: %w", err)
	}
	return nil
}
