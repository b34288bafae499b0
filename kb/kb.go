package kb

import (
	"errors"
	"fmt"
	"sync"

	"github.com/signalsfoundry/beam-assigner/model"
)

var (
	// ErrExists is returned when adding an ID the catalog already holds.
	ErrExists = errors.New("already exists")
	// ErrNotFound is returned for IDs the catalog does not hold.
	ErrNotFound = errors.New("not found")
)

// CountsRecorder receives catalog sizes after every mutation.
type CountsRecorder interface {
	SetCatalogCounts(users, satellites int)
}

// Option configures a Catalog.
type Option func(*Catalog)

// WithCountsRecorder reports catalog sizes to r.
func WithCountsRecorder(r CountsRecorder) Option {
	return func(c *Catalog) { c.recorder = r }
}

// Catalog is an in-memory, thread-safe store of users and satellites. It
// remembers insertion order so snapshots, and therefore solves, are
// reproducible.
type Catalog struct {
	mu sync.RWMutex

	users    map[model.UserID]int
	userList []model.User
	sats     map[model.SatelliteID]int
	satList  []model.Satellite
	recorder CountsRecorder
}

// NewCatalog constructs an empty catalog.
func NewCatalog(opts ...Option) *Catalog {
	c := &Catalog{
		users: make(map[model.UserID]int),
		sats:  make(map[model.SatelliteID]int),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// AddUser adds a new user. It returns an error if the ID already exists.
func (c *Catalog) AddUser(u model.User) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.users[u.ID]; exists {
		return fmt.Errorf("user %q: %w", u.ID, ErrExists)
	}
	c.users[u.ID] = len(c.userList)
	c.userList = append(c.userList, u)
	c.recordLocked()
	return nil
}

// AddSatellite adds a new satellite. It returns an error if the ID already exists.
func (c *Catalog) AddSatellite(s model.Satellite) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.sats[s.ID]; exists {
		return fmt.Errorf("satellite %q: %w", s.ID, ErrExists)
	}
	c.sats[s.ID] = len(c.satList)
	c.satList = append(c.satList, s)
	c.recordLocked()
	return nil
}

// RemoveUser deletes a user, keeping the relative order of the rest.
func (c *Catalog) RemoveUser(id model.UserID) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	idx, ok := c.users[id]
	if !ok {
		return fmt.Errorf("user %q: %w", id, ErrNotFound)
	}
	c.userList = append(c.userList[:idx], c.userList[idx+1:]...)
	delete(c.users, id)
	for i := idx; i < len(c.userList); i++ {
		c.users[c.userList[i].ID] = i
	}
	c.recordLocked()
	return nil
}

// GetUser returns the user with the given ID.
func (c *Catalog) GetUser(id model.UserID) (model.User, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	idx, ok := c.users[id]
	if !ok {
		return model.User{}, false
	}
	return c.userList[idx], true
}

// GetSatellite returns the satellite with the given ID.
func (c *Catalog) GetSatellite(id model.SatelliteID) (model.Satellite, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	idx, ok := c.sats[id]
	if !ok {
		return model.Satellite{}, false
	}
	return c.satList[idx], true
}

// Snapshot returns copies of all users and satellites in insertion order.
func (c *Catalog) Snapshot() ([]model.User, []model.Satellite) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]model.User(nil), c.userList...), append([]model.Satellite(nil), c.satList...)
}

func (c *Catalog) recordLocked() {
	if c.recorder != nil {
		c.recorder.SetCatalogCounts(len(c.userList), len(c.satList))
	}
}
