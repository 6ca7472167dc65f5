package datastores

import (
	"context"
	"fmt"
	"strings"
	"sync"
)

// ContactsInmem implements [ContactsStore].
//
// Contacts live in an insertion-ordered slice indexed by id. Deleted
// entries leave a nil hole which is compacted away once holes make up
// half of the slice. When a [Persister] is set, every mutation is
// persisted before the lock is released and rolled back if that fails.
type ContactsInmem struct {
	mu        sync.RWMutex
	next      ContactID
	index     map[ContactID]int
	contacts  []*Contact
	holes     int
	persister Persister
}

var _ ContactsStore = (*ContactsInmem)(nil)

// NewContactsInmem returns a store loaded from p. A nil p gives an empty,
// memory-only store.
func NewContactsInmem(ctx context.Context, p Persister) (*ContactsInmem, error) {
	var d Directory
	if p != nil {
		var err error
		d, err = p.LoadAll(ctx)
		if err != nil {
			return nil, fmt.Errorf("store: load: %w", err)
		}
	}
	if err := d.validate(); err != nil {
		return nil, err
	}

	s := &ContactsInmem{
		next:      d.NextID,
		index:     make(map[ContactID]int, len(d.Contacts)),
		contacts:  make([]*Contact, 0, len(d.Contacts)),
		persister: p,
	}
	for _, c := range d.Contacts {
		s.index[c.ID] = len(s.contacts)
		s.contacts = append(s.contacts, c.clone())
	}
	return s, nil
}

func (s *ContactsInmem) List(_ context.Context) ([]*Contact, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	contacts := make([]*Contact, 0, len(s.index))
	for _, c := range s.contacts {
		if c != nil {
			contacts = append(contacts, c.clone())
		}
	}
	return contacts, nil
}

func (s *ContactsInmem) Get(_ context.Context, id ContactID) (*Contact, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	index, ok := s.index[id]
	if !ok || s.contacts[index] == nil {
		return nil, ErrObjectNotFound
	}
	return s.contacts[index].clone(), nil
}

func (s *ContactsInmem) Create(ctx context.Context, name, phone string) (*Contact, error) {
	if name == "" || phone == "" {
		return nil, ErrMissingFields
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	c := &Contact{ID: s.next, Name: name, Phone: phone}
	s.index[c.ID] = len(s.contacts)
	s.contacts = append(s.contacts, c)
	s.next++

	err := s.persist(ctx)
	if err != nil {
		s.next--
		s.contacts = s.contacts[:len(s.contacts)-1]
		delete(s.index, c.ID)
		return nil, err
	}
	return c.clone(), nil
}

// Update merges patch into the contact. An unknown id is reported before
// an invalid patch.
func (s *ContactsInmem) Update(ctx context.Context, id ContactID, patch ContactPatch) (*Contact, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	index, ok := s.index[id]
	if !ok || s.contacts[index] == nil {
		return nil, ErrObjectNotFound
	}
	if patch.Name != nil && *patch.Name == "" || patch.Phone != nil && *patch.Phone == "" {
		return nil, ErrEmptyField
	}
	c := s.contacts[index]
	prev := *c
	if patch.Name != nil {
		c.Name = *patch.Name
	}
	if patch.Phone != nil {
		c.Phone = *patch.Phone
	}

	err := s.persist(ctx)
	if err != nil {
		*c = prev
		return nil, err
	}
	return c.clone(), nil
}

func (s *ContactsInmem) Delete(ctx context.Context, id ContactID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	index, ok := s.index[id]
	if !ok || s.contacts[index] == nil {
		return ErrObjectNotFound
	}
	c := s.contacts[index]
	s.contacts[index] = nil
	delete(s.index, id)
	s.holes++

	err := s.persist(ctx)
	if err != nil {
		s.holes--
		s.index[id] = index
		s.contacts[index] = c
		return err
	}
	if s.holes*2 >= len(s.contacts) {
		s.compact()
	}
	return nil
}

func (s *ContactsInmem) Search(_ context.Context, query string) ([]*Contact, error) {
	if query == "" {
		return nil, ErrEmptyQuery
	}
	query = strings.ToLower(query)

	s.mu.RLock()
	defer s.mu.RUnlock()
	contacts := []*Contact{}
	for _, c := range s.contacts {
		if c == nil {
			continue
		}
		if strings.Contains(strings.ToLower(c.Name), query) || strings.Contains(c.Phone, query) {
			contacts = append(contacts, c.clone())
		}
	}
	return contacts, nil
}

// Len returns the number of contacts currently stored.
func (s *ContactsInmem) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.index)
}

// Ping reports whether the persister, if any, is reachable.
func (s *ContactsInmem) Ping(ctx context.Context) error {
	if p, ok := s.persister.(Pinger); ok {
		return p.Ping(ctx)
	}
	return nil
}

// snapshot must be called with mu held.
func (s *ContactsInmem) snapshot() Directory {
	d := Directory{NextID: s.next, Contacts: make([]*Contact, 0, len(s.index))}
	for _, c := range s.contacts {
		if c != nil {
			d.Contacts = append(d.Contacts, c.clone())
		}
	}
	return d
}

// persist must be called with mu held for writing.
func (s *ContactsInmem) persist(ctx context.Context) error {
	if s.persister == nil {
		return nil
	}
	err := s.persister.Persist(ctx, s.snapshot())
	if err != nil {
		return fmt.Errorf("store: persist: %w", err)
	}
	return nil
}

// compact must be called with mu held for writing.
func (s *ContactsInmem) compact() {
	contacts := make([]*Contact, 0, len(s.index))
	for _, c := range s.contacts {
		if c != nil {
			s.index[c.ID] = len(contacts)
			contacts = append(contacts, c)
		}
	}
	s.contacts, s.holes = contacts, 0
}
