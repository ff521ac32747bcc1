package wallet

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/coopfund/libcoop-go/address"
)

// Identity is a named participant key. Each identity owns one child index
// under the participant account.
type Identity struct {
	Name    string `json:"name"`
	Index   uint32 `json:"index"`
	Deleted bool   `json:"deleted"` // Soft-deleted flag; the index is never reused
}

// Book holds persisted identity metadata.
type Book struct {
	Identities []Identity `json:"identities"`
	NextIndex  uint32     `json:"next_index"`
}

// NewBook creates an empty identity book.
func NewBook() *Book {
	return &Book{Identities: []Identity{}}
}

// LoadBook reads a book from path. A missing file yields an empty book.
func LoadBook(path string) (*Book, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return NewBook(), nil
		}
		return nil, fmt.Errorf("wallet: read identity book: %w", err)
	}

	var book Book
	if err := json.Unmarshal(data, &book); err != nil {
		return nil, fmt.Errorf("wallet: parse identity book: %w", err)
	}
	if book.Identities == nil {
		book.Identities = []Identity{}
	}
	if err := book.Validate(); err != nil {
		return nil, err
	}
	return &book, nil
}

// Save writes the book to path with mode 0600.
func (b *Book) Save(path string) error {
	data, err := json.MarshalIndent(b, "", "  ")
	if err != nil {
		return fmt.Errorf("wallet: marshal identity book: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("wallet: create book directory: %w", err)
	}
	return os.WriteFile(path, data, 0600)
}

// Validate checks the integrity of a deserialized book.
func (b *Book) Validate() error {
	seenIdx := make(map[uint32]string)
	seenName := make(map[string]bool)
	var next uint32

	for _, id := range b.Identities {
		if id.Index > MaxIdentityIndex {
			return fmt.Errorf("%w: identity %q index %d out of range", ErrInvalidBook, id.Name, id.Index)
		}
		if prev, ok := seenIdx[id.Index]; ok {
			return fmt.Errorf("%w: duplicate index %d: %q and %q", ErrInvalidBook, id.Index, prev, id.Name)
		}
		seenIdx[id.Index] = id.Name
		if id.Index >= next {
			next = id.Index + 1
		}

		if id.Deleted {
			continue
		}
		if seenName[id.Name] {
			return fmt.Errorf("%w: duplicate name %q", ErrInvalidBook, id.Name)
		}
		seenName[id.Name] = true
	}

	if b.NextIndex < next {
		return fmt.Errorf("%w: next index %d below %d", ErrInvalidBook, b.NextIndex, next)
	}
	return nil
}

// CreateIdentity allocates the next participant index under name.
func (b *Book) CreateIdentity(name string) (*Identity, error) {
	if b.NextIndex > MaxIdentityIndex {
		return nil, fmt.Errorf("%w: identity limit reached", ErrIndexOutOfRange)
	}
	if _, err := b.Identity(name); err == nil {
		return nil, fmt.Errorf("%w: %q", ErrIdentityExists, name)
	}

	id := Identity{Name: name, Index: b.NextIndex}
	b.Identities = append(b.Identities, id)
	b.NextIndex++
	return &id, nil
}

// Identity retrieves a live identity by name.
func (b *Book) Identity(name string) (*Identity, error) {
	for i := range b.Identities {
		if b.Identities[i].Name == name && !b.Identities[i].Deleted {
			return &b.Identities[i], nil
		}
	}
	return nil, fmt.Errorf("%w: %q", ErrIdentityNotFound, name)
}

// List returns all live identities.
func (b *Book) List() []Identity {
	var live []Identity
	for _, id := range b.Identities {
		if !id.Deleted {
			live = append(live, id)
		}
	}
	return live
}

// Rename renames a live identity.
func (b *Book) Rename(oldName, newName string) error {
	if _, err := b.Identity(newName); err == nil {
		return fmt.Errorf("%w: %q", ErrIdentityExists, newName)
	}
	id, err := b.Identity(oldName)
	if err != nil {
		return err
	}
	id.Name = newName
	return nil
}

// Delete soft-deletes an identity.
func (b *Book) Delete(name string) error {
	id, err := b.Identity(name)
	if err != nil {
		return err
	}
	id.Deleted = true
	return nil
}

// IdentityAddress derives the ledger address of the named identity.
func (w *Wallet) IdentityAddress(b *Book, name string) (address.Address, error) {
	id, err := b.Identity(name)
	if err != nil {
		return address.Zero, err
	}
	kp, err := w.DeriveIdentityKey(id.Index)
	if err != nil {
		return address.Zero, err
	}
	return kp.Address()
}
