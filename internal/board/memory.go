package board

import (
	"context"
	"sort"
	"sync"
	"time"
)

// MemoryRepository is a [Repository] held in process memory.
type MemoryRepository struct {
	mu       sync.RWMutex
	users    map[int64]User
	byEmail  map[string]int64
	posts    map[int64]Post
	nextUser int64
	nextPost int64
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		users:   make(map[int64]User),
		byEmail: make(map[string]int64),
		posts:   make(map[int64]Post),
	}
}

func cloneUser(u User) User {
	u.Roles = append([]string(nil), u.Roles...)
	return u
}

func (r *MemoryRepository) CreateUser(_ context.Context, u User) (User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, taken := r.byEmail[u.Email]; taken {
		return User{}, ErrEmailTaken
	}
	r.nextUser++
	u.ID = r.nextUser
	if u.CreatedAt.IsZero() {
		u.CreatedAt = time.Now().UTC()
	}
	u = cloneUser(u)
	r.users[u.ID] = u
	r.byEmail[u.Email] = u.ID
	return cloneUser(u), nil
}

func (r *MemoryRepository) UserByEmail(_ context.Context, email string) (User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	id, found := r.byEmail[email]
	if !found {
		return User{}, ErrUserNotFound
	}
	return cloneUser(r.users[id]), nil
}

func (r *MemoryRepository) UserByID(_ context.Context, id int64) (User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	u, found := r.users[id]
	if !found {
		return User{}, ErrUserNotFound
	}
	return cloneUser(u), nil
}

// DeleteUser removes an account and its posts.
func (r *MemoryRepository) DeleteUser(_ context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	u, found := r.users[id]
	if !found {
		return ErrUserNotFound
	}
	delete(r.users, id)
	delete(r.byEmail, u.Email)
	for pid, p := range r.posts {
		if p.AuthorID == id {
			delete(r.posts, pid)
		}
	}
	return nil
}

func (r *MemoryRepository) CreatePost(_ context.Context, p Post) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, found := r.users[p.AuthorID]; !found {
		return 0, ErrUserNotFound
	}
	r.nextPost++
	p.ID = r.nextPost
	p.AuthorNickname = ""
	r.posts[p.ID] = p
	return p.ID, nil
}

func (r *MemoryRepository) UpdatePost(_ context.Context, id int64, title, content string, modifiedAt time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, found := r.posts[id]
	if !found {
		return ErrPostNotFound
	}
	p.Title = title
	p.Content = content
	p.ModifiedAt = modifiedAt
	r.posts[id] = p
	return nil
}

// withAuthor fills the nickname the Postgres repository gets from its join.
// Callers hold r.mu.
func (r *MemoryRepository) withAuthor(p Post) Post {
	p.AuthorNickname = r.users[p.AuthorID].Nickname
	return p
}

func (r *MemoryRepository) PostByID(_ context.Context, id int64) (Post, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, found := r.posts[id]
	if !found {
		return Post{}, ErrPostNotFound
	}
	return r.withAuthor(p), nil
}

func (r *MemoryRepository) ListPostsDesc(_ context.Context) ([]Post, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Post, 0, len(r.posts))
	for _, p := range r.posts {
		out = append(out, r.withAuthor(p))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

func (r *MemoryRepository) DeletePost(_ context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, found := r.posts[id]; !found {
		return ErrPostNotFound
	}
	delete(r.posts, id)
	return nil
}
