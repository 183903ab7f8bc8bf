package storage

import (
	"context"
	"fmt"
	"gurimarket/backend/internal/config"
	"gurimarket/backend/internal/models"
	"gurimarket/backend/internal/textutil"
	"sort"
	"sync"
	"time"
)

// MemoryStore is a process-local Storage used in development and tests.
// A single mutex makes every operation atomic, which gives the same
// isolation the Mongo transactions provide.
type MemoryStore struct {
	mu        sync.Mutex
	users     map[string]*models.User
	posts     map[string]map[string]*models.Post
	reports   []models.Report
	rooms     map[string]*models.ChatRoom
	blockedBy map[string]models.BlockedBy
}

// NewMemoryStore creates an empty store.
func NewMemoryStore() *MemoryStore {
	posts := make(map[string]map[string]*models.Post, len(models.PostCollections))
	for _, c := range models.PostCollections {
		posts[c] = make(map[string]*models.Post)
	}
	return &MemoryStore{
		users:     make(map[string]*models.User),
		posts:     posts,
		rooms:     make(map[string]*models.ChatRoom),
		blockedBy: make(map[string]models.BlockedBy),
	}
}

// PutUser inserts or replaces a user document.
func (m *MemoryStore) PutUser(u models.User) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.users[u.ID] = &u
}

// PutPost inserts or replaces a post in collection.
func (m *MemoryStore) PutPost(collection string, p models.Post) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.posts[collection] == nil {
		m.posts[collection] = make(map[string]*models.Post)
	}
	m.posts[collection][p.ID] = &p
}

// AddReport appends a report document.
func (m *MemoryStore) AddReport(r models.Report) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.reports = append(m.reports, r)
}

// PutRoom inserts or replaces a chat room.
func (m *MemoryStore) PutRoom(r models.ChatRoom) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if r.UnreadCount == nil {
		r.UnreadCount = make(map[string]int)
	}
	m.rooms[r.ID] = &r
}

// Post returns a copy of a stored post.
func (m *MemoryStore) Post(collection, id string) (models.Post, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.posts[collection][id]
	if !ok {
		return models.Post{}, false
	}
	return *p, true
}

// Room returns a copy of a stored chat room.
func (m *MemoryStore) Room(id string) (models.ChatRoom, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.rooms[id]
	if !ok {
		return models.ChatRoom{}, false
	}
	cp := *r
	cp.VisibleTo = append([]string(nil), r.VisibleTo...)
	cp.UnreadCount = make(map[string]int, len(r.UnreadCount))
	for k, v := range r.UnreadCount {
		cp.UnreadCount[k] = v
	}
	return cp, true
}

// BlockedByEntry returns the reverse index entry for (user, blocker).
func (m *MemoryStore) BlockedByEntry(user, blocker string) (models.BlockedBy, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.blockedBy[models.BlockedByPath(user, blocker)]
	return e, ok
}

func (m *MemoryStore) GetUser(_ context.Context, uid string) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[uid]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (m *MemoryStore) GetPost(_ context.Context, collection, postID string) (*models.Post, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !models.IsPostCollection(collection) {
		return nil, fmt.Errorf("unknown post collection %q", collection)
	}
	p, ok := m.posts[collection][postID]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (m *MemoryStore) CountReportsSince(_ context.Context, reporteeID string, since time.Time) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, r := range m.reports {
		if r.ReporteeID == reporteeID && !r.CreatedAt.Before(since) {
			n++
		}
	}
	return n, nil
}

func (m *MemoryStore) ReportCategoriesSince(_ context.Context, reporteeID string, since time.Time) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	seen := make(map[string]struct{})
	for _, r := range m.reports {
		if r.ReporteeID == reporteeID && !r.CreatedAt.Before(since) && r.Category != "" {
			seen[r.Category] = struct{}{}
		}
	}
	categories := make([]string, 0, len(seen))
	for c := range seen {
		categories = append(categories, c)
	}
	sort.Strings(categories)
	return categories, nil
}

// setPostStatus must be called with mu held.
func (m *MemoryStore) setPostStatus(uid, from, to string) int {
	changed := 0
	for _, c := range models.PostCollections {
		for _, p := range m.posts[c] {
			if p.AuthorID != uid || p.Status == to {
				continue
			}
			if from != "" && p.Status != from {
				continue
			}
			p.Status = to
			changed++
		}
	}
	return changed
}

func (m *MemoryStore) UpdateUserTrust(_ context.Context, uid string, mutate TrustMutation) (models.TrustRecord, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[uid]
	if !ok {
		return models.TrustRecord{}, 0, ErrNotFound
	}
	next, hide := mutate(u.Report)
	hidden := 0
	if hide {
		hidden = m.setPostStatus(uid, "", config.PostStatusHidden)
	}
	// Merge: an unset review flag never clears a stored one.
	next.NeedsAdminReview = next.NeedsAdminReview || u.Report.NeedsAdminReview
	u.Report = next
	return next, hidden, nil
}

func (m *MemoryStore) UpdateUserReputation(_ context.Context, uid string, mutate ReputationMutation) (models.ReputationRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[uid]
	if !ok {
		return models.ReputationRecord{}, ErrNotFound
	}
	u.Review = mutate(u.Review)
	return u.Review, nil
}

func (m *MemoryStore) RestoreUserPosts(_ context.Context, uid string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.setPostStatus(uid, config.PostStatusHidden, config.PostStatusActive), nil
}

func (m *MemoryStore) IncrementCommentCount(_ context.Context, collection, postID string, delta int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !models.IsPostCollection(collection) {
		return fmt.Errorf("unknown post collection %q", collection)
	}
	p, ok := m.posts[collection][postID]
	if !ok {
		return ErrNotFound
	}
	p.CommentCount += delta
	return nil
}

func (m *MemoryStore) ApplyRoomUpdate(_ context.Context, chatID string, u models.RoomUpdate) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.rooms[chatID]
	if !ok {
		return ErrNotFound
	}
	r.LastMessage = u.LastMessage
	r.LastMessageSenderID = u.SenderID
	r.UpdatedAt = u.UpdatedAt
	r.UnreadCount[textutil.SafeUID(u.ReceiverID)]++
	for _, v := range r.VisibleTo {
		if v == u.ReceiverID {
			return nil
		}
	}
	r.VisibleTo = append(r.VisibleTo, u.ReceiverID)
	return nil
}

func (m *MemoryStore) SetBlockedBy(_ context.Context, entry models.BlockedBy) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if entry.Path == "" {
		entry.Path = models.BlockedByPath(entry.UserID, entry.BlockerID)
	}
	m.blockedBy[entry.Path] = entry
	return nil
}

func (m *MemoryStore) DeleteBlockedBy(_ context.Context, user, blocker string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.blockedBy, models.BlockedByPath(user, blocker))
	return nil
}
