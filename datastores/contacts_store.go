package datastores

import (
	"context"
	"errors"
	"fmt"
)

type (
	ContactID = int64
	Contact   struct {
		ID    ContactID `json:"id"`
		Name  string    `json:"name"`
		Phone string    `json:"phone"`
	}
	// ContactPatch holds the fields to replace on update. Nil fields are kept.
	ContactPatch struct {
		Name  *string
		Phone *string
	}
)

type ContactsStore interface {
	List(context.Context) ([]*Contact, error)
	Get(context.Context, ContactID) (*Contact, error)
	Create(ctx context.Context, name, phone string) (*Contact, error)
	Update(context.Context, ContactID, ContactPatch) (*Contact, error)
	Delete(context.Context, ContactID) error
	Search(ctx context.Context, query string) ([]*Contact, error)
}

// Directory is a snapshot of the store as seen by a [Persister].
// Contacts are in insertion order and NextID is the id the next
// created contact receives.
type Directory struct {
	NextID   ContactID  `json:"next_id"`
	Contacts []*Contact `json:"contacts"`
}

// Persister loads the directory at startup and saves it after each mutation.
type Persister interface {
	LoadAll(context.Context) (Directory, error)
	Persist(context.Context, Directory) error
}

// Pinger is implemented by persisters backed by a remote or file database.
type Pinger interface {
	Ping(context.Context) error
}

var (
	ErrObjectNotFound = errors.New("store: object not found")
	ErrValidation     = errors.New("store: validation failed")

	ErrMissingFields = fmt.Errorf("%w: name and phone are required", ErrValidation)
	ErrEmptyField    = fmt.Errorf("%w: name and phone must not be empty", ErrValidation)
	ErrEmptyQuery    = fmt.Errorf("%w: search query is required", ErrValidation)
)

// validate checks the invariants a snapshot must hold before being served.
// A zero NextID is treated as unset and derived from the last contact.
func (d *Directory) validate() error {
	var last ContactID
	for _, c := range d.Contacts {
		if c == nil {
			return errors.New("store: nil contact in directory")
		}
		if c.ID <= last {
			return fmt.Errorf("store: contact id %d out of order", c.ID)
		}
		last = c.ID
	}
	if d.NextID == 0 {
		d.NextID = last + 1
	}
	if d.NextID <= last {
		return fmt.Errorf("store: next id %d not above last id %d", d.NextID, last)
	}
	return nil
}

func (c *Contact) clone() *Contact {
	v := *c
	return &v
}
