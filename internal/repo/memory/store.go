package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/klaape/klaape-api/internal/domain/catalog"
	"github.com/klaape/klaape-api/internal/domain/identity"
	"github.com/klaape/klaape-api/internal/domain/profile"
)

// Store keeps identities, profiles and categories in maps guarded by one
// lock, mirroring the foreign keys of the SQL schema.
type Store struct {
	mu sync.RWMutex

	identities map[int64]identity.Identity
	profiles   map[int64]profile.Profile // keyed by profile id
	categories map[int64]catalog.Category

	nextIdentityID int64
	nextProfileID  int64
	nextCategoryID int64

	now func() time.Time
}

func NewStore() *Store {
	return &Store{
		identities: make(map[int64]identity.Identity),
		profiles:   make(map[int64]profile.Profile),
		categories: make(map[int64]catalog.Category),
		now:        time.Now,
	}
}

func (s *Store) Identities() *IdentitiesRepo { return &IdentitiesRepo{s: s} }
func (s *Store) Profiles() *ProfilesRepo     { return &ProfilesRepo{s: s} }
func (s *Store) Categories() *CategoriesRepo { return &CategoriesRepo{s: s} }

type IdentitiesRepo struct{ s *Store }

func (r *IdentitiesRepo) Create(_ context.Context, in identity.Identity) (identity.Identity, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for _, u := range r.s.identities {
		if u.Username == in.Username {
			return identity.Identity{}, identity.ErrUsernameTaken
		}
	}

	r.s.nextIdentityID++
	in.ID = r.s.nextIdentityID
	in.DateJoined = r.s.now().UTC()
	r.s.identities[in.ID] = in

	return in, nil
}

func (r *IdentitiesRepo) GetByUsername(_ context.Context, username string) (identity.Identity, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	for _, u := range r.s.identities {
		if u.Username == username {
			return u, nil
		}
	}
	return identity.Identity{}, identity.ErrNotFound
}

func (r *IdentitiesRepo) GetByID(_ context.Context, id int64) (identity.Identity, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	u, ok := r.s.identities[id]
	if !ok {
		return identity.Identity{}, identity.ErrNotFound
	}
	return u, nil
}

// SetStaff flips the administrator flag; there is no public operation for it.
func (r *IdentitiesRepo) SetStaff(id int64, staff bool) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if u, ok := r.s.identities[id]; ok {
		u.IsStaff = staff
		r.s.identities[id] = u
	}
}

type ProfilesRepo struct{ s *Store }

func (r *ProfilesRepo) GetOrCreate(_ context.Context, identityID int64) (profile.Profile, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	owner, ok := r.s.identities[identityID]
	if !ok {
		return profile.Profile{}, identity.ErrNotFound
	}

	for _, p := range r.s.profiles {
		if p.IdentityID == identityID {
			return r.s.withOwner(p), nil
		}
	}

	r.s.nextProfileID++
	p := profile.New(owner, r.s.now().UTC())
	p.ID = r.s.nextProfileID
	r.s.profiles[p.ID] = p

	return r.s.withOwner(p), nil
}

func (r *ProfilesRepo) GetByID(_ context.Context, id int64) (profile.Profile, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	p, ok := r.s.profiles[id]
	if !ok {
		return profile.Profile{}, profile.ErrNotFound
	}
	return r.s.withOwner(p), nil
}

func (r *ProfilesRepo) List(_ context.Context, ownerID *int64) ([]profile.Profile, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	out := make([]profile.Profile, 0, len(r.s.profiles))
	for _, p := range r.s.profiles {
		if ownerID != nil && p.IdentityID != *ownerID {
			continue
		}
		out = append(out, r.s.withOwner(p))
	}

	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *ProfilesRepo) Update(_ context.Context, id int64, req profile.UpdateRequest) (profile.Profile, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	p, ok := r.s.profiles[id]
	if !ok {
		return profile.Profile{}, profile.ErrNotFound
	}

	if req.Expertise != nil {
		for _, cid := range *req.Expertise {
			if _, ok := r.s.categories[cid]; !ok {
				return profile.Profile{}, catalog.ErrUnknownCategory
			}
		}
	}

	req.Apply(&p)
	p.UpdatedAt = r.s.now().UTC()
	r.s.profiles[id] = p

	return r.s.withOwner(p), nil
}

func (r *ProfilesRepo) SetPicture(_ context.Context, id int64, ref string) (profile.Profile, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	p, ok := r.s.profiles[id]
	if !ok {
		return profile.Profile{}, profile.ErrNotFound
	}

	p.Picture = &ref
	p.UpdatedAt = r.s.now().UTC()
	r.s.profiles[id] = p

	return r.s.withOwner(p), nil
}

func (r *ProfilesRepo) Delete(_ context.Context, id int64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.profiles[id]; !ok {
		return profile.ErrNotFound
	}
	delete(r.s.profiles, id)
	return nil
}

// SetVerifiedPro stands in for the administrator-only path.
func (r *ProfilesRepo) SetVerifiedPro(id int64, verified bool) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if p, ok := r.s.profiles[id]; ok {
		p.IsVerifiedPro = verified
		r.s.profiles[id] = p
	}
}

// withOwner joins the current identity row and copies slices so callers
// never alias store memory. Callers hold the lock.
func (s *Store) withOwner(p profile.Profile) profile.Profile {
	p.Owner = s.identities[p.IdentityID]
	p.Expertise = append([]int64{}, p.Expertise...)
	if p.Picture != nil {
		v := *p.Picture
		p.Picture = &v
	}
	if p.HourlyRate != nil {
		v := *p.HourlyRate
		p.HourlyRate = &v
	}
	return p
}

type CategoriesRepo struct{ s *Store }

func (r *CategoriesRepo) List(_ context.Context) ([]catalog.Category, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	out := make([]catalog.Category, 0, len(r.s.categories))
	for _, c := range r.s.categories {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Name == out[j].Name {
			return out[i].ID < out[j].ID
		}
		return out[i].Name < out[j].Name
	})
	return out, nil
}

func (r *CategoriesRepo) Create(_ context.Context, req catalog.CreateCategoryRequest) (catalog.Category, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	r.s.nextCategoryID++
	c := catalog.Category{ID: r.s.nextCategoryID, Name: req.Name, Description: req.Description}
	r.s.categories[c.ID] = c
	return c, nil
}
