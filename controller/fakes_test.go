package controller

import (
	"bytes"
	"context"
	"errors"
	"io"
	"sort"
	"sync"
	"time"

	"swachhconnect/categorizer"
	"swachhconnect/database"
	"swachhconnect/models"

	"go.mongodb.org/mongo-driver/v2/bson"
)

type fakeIssueStore struct {
	mu      sync.Mutex
	issues  map[string]*models.Issue
	events  chan models.IssueEvent
	listErr   error
	createErr error
	lastF     models.IssueFilter
}

func newFakeIssueStore(issues ...models.Issue) *fakeIssueStore {
	s := &fakeIssueStore{issues: map[string]*models.Issue{}}
	for i := range issues {
		issue := issues[i]
		if issue.ID.IsZero() {
			issue.ID = bson.NewObjectID()
		}
		s.issues[issue.ID.Hex()] = &issue
	}
	return s
}

func (s *fakeIssueStore) Create(ctx context.Context, issue *models.Issue) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.createErr != nil {
		return s.createErr
	}
	issue.ID = bson.NewObjectID()
	cp := *issue
	s.issues[issue.ID.Hex()] = &cp
	return nil
}

func (s *fakeIssueStore) Get(ctx context.Context, id string) (*models.Issue, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	issue, ok := s.issues[id]
	if !ok {
		return nil, database.ErrNotFound
	}
	cp := *issue
	return &cp, nil
}

func (s *fakeIssueStore) List(ctx context.Context, f models.IssueFilter) ([]models.Issue, int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastF = f
	if s.listErr != nil {
		return nil, 0, s.listErr
	}

	var out []models.Issue
	for _, issue := range s.issues {
		if f.Status != "" && f.Status != "all" && issue.Status != f.Status {
			continue
		}
		if f.Category != "" && issue.Category != f.Category {
			continue
		}
		if f.UserID != "" && issue.UserID != f.UserID {
			continue
		}
		if !f.From.IsZero() && issue.CreatedAt.Before(f.From) {
			continue
		}
		if !f.To.IsZero() && issue.CreatedAt.After(f.To) {
			continue
		}
		out = append(out, *issue)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })

	total := int64(len(out))
	if f.Limit > 0 {
		start := (f.Page - 1) * f.Limit
		if start > len(out) {
			start = len(out)
		}
		end := start + f.Limit
		if end > len(out) {
			end = len(out)
		}
		out = out[start:end]
	}
	return out, total, nil
}

func (s *fakeIssueStore) update(id string, fn func(*models.Issue)) (*models.Issue, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	issue, ok := s.issues[id]
	if !ok {
		return nil, database.ErrNotFound
	}
	fn(issue)
	cp := *issue
	return &cp, nil
}

func (s *fakeIssueStore) Reply(ctx context.Context, id, reply string, at time.Time) (*models.Issue, error) {
	return s.update(id, func(i *models.Issue) {
		i.Status = models.StatusSolved
		i.MunicipalReply = reply
		i.SolvedAt = &at
	})
}

func (s *fakeIssueStore) MarkSolved(ctx context.Context, id string, at time.Time) (*models.Issue, error) {
	return s.update(id, func(i *models.Issue) {
		i.Status = models.StatusSolved
		i.SolvedAt = &at
	})
}

func (s *fakeIssueStore) Delete(ctx context.Context, id string) (*models.Issue, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	issue, ok := s.issues[id]
	if !ok {
		return nil, database.ErrNotFound
	}
	delete(s.issues, id)
	return issue, nil
}

func (s *fakeIssueStore) Stats(ctx context.Context, now time.Time) (*models.IssueStats, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	stats := &models.IssueStats{ByCategory: map[string]int64{}, Monthly: []models.MonthlyStats{}}
	for _, issue := range s.issues {
		stats.Total++
		stats.ByCategory[issue.Category]++
		switch issue.Status {
		case models.StatusPending:
			stats.Pending++
			if issue.Overdue(now) {
				stats.Overdue++
			}
		case models.StatusSolved:
			stats.Solved++
		}
	}
	stats.ResolvedPercent = database.ResolvedPercent(stats.Solved, stats.Total)
	return stats, nil
}

func (s *fakeIssueStore) Watch(ctx context.Context) (<-chan models.IssueEvent, error) {
	if s.events == nil {
		return nil, errors.New("change streams need a replica set")
	}
	return s.events, nil
}

func (s *fakeIssueStore) only() *models.Issue {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, issue := range s.issues {
		return issue
	}
	return nil
}

type fakeBlobStore struct {
	mu        sync.Mutex
	objects   map[string][]byte
	types     map[string]string
	deleted   []string
	uploadErr error
}

func newFakeBlobStore() *fakeBlobStore {
	return &fakeBlobStore{objects: map[string][]byte{}, types: map[string]string{}}
}

func (b *fakeBlobStore) Upload(ctx context.Context, key string, body io.Reader, contentType string) (string, error) {
	if b.uploadErr != nil {
		return "", b.uploadErr
	}
	var buf bytes.Buffer
	if _, err := io.Copy(&buf, body); err != nil {
		return "", err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.objects[key] = buf.Bytes()
	b.types[key] = contentType
	return "https://bucket.example/" + key, nil
}

func (b *fakeBlobStore) PresignGet(ctx context.Context, key string, ttl time.Duration) (string, error) {
	return "https://signed.example/" + key, nil
}

func (b *fakeBlobStore) Delete(ctx context.Context, key string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.objects, key)
	b.deleted = append(b.deleted, key)
	return nil
}

type fakeBackend struct {
	answer string
	err    error
	calls  []categorizer.Request
}

func (f *fakeBackend) Name() string { return "fake" }

func (f *fakeBackend) Classify(ctx context.Context, req categorizer.Request) (string, error) {
	f.calls = append(f.calls, req)
	return f.answer, f.err
}

type fakeGeo struct{ address string }

func (g fakeGeo) Address(ctx context.Context, lat, lon float64) string { return g.address }

type fakeUserStore struct {
	mu    sync.Mutex
	users map[string]*models.User
}

func newFakeUserStore(users ...models.User) *fakeUserStore {
	s := &fakeUserStore{users: map[string]*models.User{}}
	for i := range users {
		u := users[i]
		s.users[u.UserID] = &u
	}
	return s
}

func (s *fakeUserStore) find(match func(*models.User) bool) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if match(u) {
			cp := *u
			return &cp, nil
		}
	}
	return nil, database.ErrNotFound
}

func (s *fakeUserStore) Create(ctx context.Context, user *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *user
	s.users[user.UserID] = &cp
	return nil
}

func (s *fakeUserStore) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	return s.find(func(u *models.User) bool { return u.Email == email })
}

func (s *fakeUserStore) FindByPhone(ctx context.Context, phone string) (*models.User, error) {
	return s.find(func(u *models.User) bool { return u.Phone == phone })
}

func (s *fakeUserStore) FindByID(ctx context.Context, userID string) (*models.User, error) {
	return s.find(func(u *models.User) bool { return u.UserID == userID })
}

func (s *fakeUserStore) FindByResetToken(ctx context.Context, hashedToken string, now time.Time) (*models.User, error) {
	return s.find(func(u *models.User) bool {
		return u.PasswordResetToken == hashedToken && u.PasswordTokenExpired.After(now)
	})
}

func (s *fakeUserStore) SetOTP(ctx context.Context, phone, otpHash string, expires, now time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.Phone == phone {
			u.OTPHash, u.OTPExpires = otpHash, expires
			return nil
		}
	}
	id := bson.NewObjectID().Hex()
	s.users[id] = &models.User{UserID: id, Phone: phone, Role: models.RoleCitizen, OTPHash: otpHash, OTPExpires: expires, CreatedAt: now}
	return nil
}

func (s *fakeUserStore) CompleteOTP(ctx context.Context, userID, firstName, lastName string, now time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[userID]
	if !ok {
		return database.ErrNotFound
	}
	u.OTPHash, u.OTPExpires = "", time.Time{}
	if firstName != "" {
		u.FirstName = firstName
	}
	if lastName != "" {
		u.LastName = lastName
	}
	return nil
}

func (s *fakeUserStore) SetPasswordResetToken(ctx context.Context, email, hashedToken string, expiry time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.Email == email {
			u.PasswordResetToken, u.PasswordTokenExpired = hashedToken, expiry
		}
	}
	return nil
}

func (s *fakeUserStore) UpdatePassword(ctx context.Context, userID, hashedPassword string, now time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[userID]
	if !ok {
		return database.ErrNotFound
	}
	u.Password = hashedPassword
	u.PasswordResetToken, u.PasswordTokenExpired = "", time.Time{}
	return nil
}

func (s *fakeUserStore) ListCitizens(ctx context.Context, search string) ([]models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []models.User{}
	for _, u := range s.users {
		if u.Role == models.RoleCitizen {
			out = append(out, *u)
		}
	}
	return out, nil
}

func (s *fakeUserStore) Delete(ctx context.Context, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[userID]; !ok {
		return database.ErrNotFound
	}
	delete(s.users, userID)
	return nil
}

type fakeMailer struct {
	to, subject, body string
}

func (m *fakeMailer) Send(to, subject, body string) error {
	m.to, m.subject, m.body = to, subject, body
	return nil
}

type fakeSMS struct{ phone, code string }

func (f *fakeSMS) SendCode(phone, code string) error {
	f.phone, f.code = phone, code
	return nil
}
