package service

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"go-easyapply-automation/internal/database"
	"go-easyapply-automation/internal/models"
)

type fakeStore struct {
	mu        sync.Mutex
	seq       int
	users     map[string]*models.User
	hashes    map[string]string
	resumes   map[string]*models.Resume
	files     map[string][]byte
	settings  map[string]*models.AISettings
	sealed    map[string]string
	companies []models.Company
	jobs      []models.Job
	apps      map[string]*models.Application
	qa        []models.QARecord
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		users:    map[string]*models.User{},
		hashes:   map[string]string{},
		resumes:  map[string]*models.Resume{},
		files:    map[string][]byte{},
		settings: map[string]*models.AISettings{},
		sealed:   map[string]string{},
		apps:     map[string]*models.Application{},
	}
}

func (f *fakeStore) id(prefix string) string {
	f.seq++
	return fmt.Sprintf("%s-%d", prefix, f.seq)
}

func notFound(what string) error { return fmt.Errorf("%s: %w", what, database.ErrNotFound) }

func (f *fakeStore) CreateUser(_ context.Context, u models.User, hash string) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, existing := range f.users {
		if strings.EqualFold(existing.Email, u.Email) {
			return nil, fmt.Errorf("user: %w", database.ErrConflict)
		}
	}
	u.ID = f.id("user")
	u.CreatedAt = time.Now()
	f.users[u.ID] = &u
	f.hashes[u.ID] = hash
	out := u
	return &out, nil
}

func (f *fakeStore) UserByEmail(_ context.Context, email string) (*models.User, string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for id, u := range f.users {
		if strings.EqualFold(u.Email, email) {
			out := *u
			return &out, f.hashes[id], nil
		}
	}
	return nil, "", notFound("user")
}

func (f *fakeStore) UserByID(_ context.Context, id string) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[id]
	if !ok {
		return nil, notFound("user")
	}
	out := *u
	return &out, nil
}

func (f *fakeStore) UpdateUser(_ context.Context, id string, p database.UserPatch) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[id]
	if !ok {
		return nil, notFound("user")
	}
	if p.FirstName != nil {
		u.FirstName = *p.FirstName
	}
	if p.LastName != nil {
		u.LastName = *p.LastName
	}
	if p.Phone != nil {
		u.Phone = *p.Phone
	}
	if p.Location != nil {
		u.Location = *p.Location
	}
	out := *u
	return &out, nil
}

func (f *fakeStore) CreateResume(_ context.Context, r models.Resume, file []byte) (*models.Resume, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if r.IsDefault {
		for _, other := range f.resumes {
			if other.UserID == r.UserID {
				other.IsDefault = false
			}
		}
	}
	r.ID = f.id("resume")
	f.resumes[r.ID] = &r
	f.files[r.ID] = file
	out := r
	return &out, nil
}

func (f *fakeStore) ListResumes(_ context.Context, userID string) ([]models.Resume, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []models.Resume{}
	for _, r := range f.resumes {
		if r.UserID == userID {
			out = append(out, *r)
		}
	}
	return out, nil
}

func (f *fakeStore) DefaultResume(_ context.Context, userID string) (*models.Resume, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, r := range f.resumes {
		if r.UserID == userID && r.IsDefault {
			out := *r
			return &out, nil
		}
	}
	return nil, notFound("default resume")
}

func (f *fakeStore) ResumeByID(_ context.Context, id string) (*models.Resume, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.resumes[id]
	if !ok {
		return nil, notFound("resume")
	}
	out := *r
	return &out, nil
}

func (f *fakeStore) ResumeFile(_ context.Context, id string) (string, []byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.resumes[id]
	if !ok {
		return "", nil, notFound("resume")
	}
	return r.FileName, f.files[id], nil
}

func (f *fakeStore) SetDefaultResume(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.resumes[id]
	if !ok {
		return notFound("resume")
	}
	for _, other := range f.resumes {
		if other.UserID == r.UserID {
			other.IsDefault = other.ID == id
		}
	}
	return nil
}

func (f *fakeStore) DeleteResume(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.resumes[id]; !ok {
		return notFound("resume")
	}
	delete(f.resumes, id)
	delete(f.files, id)
	return nil
}

func (f *fakeStore) CreateAISettings(_ context.Context, s models.AISettings, sealed string) (*models.AISettings, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if s.IsDefault {
		for _, other := range f.settings {
			if other.UserID == s.UserID {
				other.IsDefault = false
			}
		}
	}
	s.ID = f.id("settings")
	s.HasAPIKey = sealed != ""
	f.settings[s.ID] = &s
	f.sealed[s.ID] = sealed
	out := s
	return &out, nil
}

func (f *fakeStore) ListAISettings(_ context.Context, userID string) ([]models.AISettings, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []models.AISettings{}
	for _, s := range f.settings {
		if s.UserID == userID {
			out = append(out, *s)
		}
	}
	return out, nil
}

func (f *fakeStore) DefaultAISettings(_ context.Context, userID string) (*models.AISettings, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, s := range f.settings {
		if s.UserID == userID && s.IsDefault {
			out := *s
			return &out, nil
		}
	}
	return nil, notFound("default ai settings")
}

func (f *fakeStore) AISettingsByID(_ context.Context, id string) (*models.AISettings, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.settings[id]
	if !ok {
		return nil, notFound("ai settings")
	}
	out := *s
	return &out, nil
}

func (f *fakeStore) SetDefaultAISettings(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.settings[id]
	if !ok {
		return notFound("ai settings")
	}
	for _, other := range f.settings {
		if other.UserID == s.UserID {
			other.IsDefault = other.ID == id
		}
	}
	return nil
}

func (f *fakeStore) DeleteAISettings(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.settings[id]; !ok {
		return notFound("ai settings")
	}
	delete(f.settings, id)
	return nil
}

func (f *fakeStore) SealedKey(_ context.Context, id string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	sealed, ok := f.sealed[id]
	if !ok {
		return "", notFound("ai settings")
	}
	return sealed, nil
}

func (f *fakeStore) ListCompanies(context.Context) ([]models.Company, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]models.Company{}, f.companies...), nil
}

func (f *fakeStore) SearchCompanies(_ context.Context, name string) ([]models.Company, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []models.Company{}
	for _, c := range f.companies {
		if strings.Contains(strings.ToLower(c.Name), strings.ToLower(name)) {
			out = append(out, c)
		}
	}
	return out, nil
}

func (f *fakeStore) CreateCompany(_ context.Context, name string) (*models.Company, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, c := range f.companies {
		if strings.EqualFold(c.Name, name) {
			out := c
			return &out, nil
		}
	}
	c := models.Company{ID: f.id("company"), Name: name}
	f.companies = append(f.companies, c)
	return &c, nil
}

func (f *fakeStore) ListJobs(context.Context, int) ([]models.Job, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]models.Job{}, f.jobs...), nil
}

func (f *fakeStore) JobByPlatformID(_ context.Context, platform, platformJobID string) (*models.Job, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, j := range f.jobs {
		if j.Platform == platform && j.PlatformJobID == platformJobID {
			out := j
			return &out, nil
		}
	}
	return nil, notFound("job")
}

func (f *fakeStore) CreateJob(_ context.Context, job models.Job) (*models.Job, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	job.ID = f.id("job")
	f.jobs = append(f.jobs, job)
	return &job, nil
}

func (f *fakeStore) CreateApplication(_ context.Context, app models.Application) (*models.Application, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	app.ID = f.id("app")
	f.apps[app.ID] = &app
	out := app
	return &out, nil
}

func (f *fakeStore) ApplicationOwner(_ context.Context, id string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	a, ok := f.apps[id]
	if !ok {
		return "", notFound("application")
	}
	return a.UserID, nil
}

func (f *fakeStore) UpdateApplicationStatus(_ context.Context, id string, status models.ApplicationStatus, notes string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	a, ok := f.apps[id]
	if !ok {
		return notFound("application")
	}
	a.Status = status
	if notes != "" {
		a.Notes = notes
	}
	return nil
}

func (f *fakeStore) AddQA(_ context.Context, rec models.QARecord) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.qa = append(f.qa, rec)
	return nil
}

var _ Store = (*fakeStore)(nil)
