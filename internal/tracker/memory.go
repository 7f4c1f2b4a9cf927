package tracker

import (
	"context"
	"strconv"
	"strings"
	"sync"
	"time"

	"go-easyapply-automation/internal/models"
)

// MemoryStore keeps everything in process. Used when no service is configured.
type MemoryStore struct {
	mu           sync.Mutex
	seq          int
	Companies    []models.Company
	Jobs         []models.Job
	Applications []models.Application
	QA           []models.QARecord
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (m *MemoryStore) nextID(prefix string) string {
	m.seq++
	return prefix + "-" + strconv.Itoa(m.seq)
}

func (m *MemoryStore) SearchCompanies(_ context.Context, name string) ([]models.Company, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.Company
	for _, c := range m.Companies {
		if strings.Contains(strings.ToLower(c.Name), strings.ToLower(name)) {
			out = append(out, c)
		}
	}
	return out, nil
}

func (m *MemoryStore) CreateCompany(_ context.Context, name string) (*models.Company, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c := models.Company{ID: m.nextID("company"), Name: name, CreatedAt: time.Now()}
	m.Companies = append(m.Companies, c)
	return &c, nil
}

func (m *MemoryStore) FindJob(_ context.Context, platform, platformJobID string) (*models.Job, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, j := range m.Jobs {
		if j.Platform == platform && j.PlatformJobID == platformJobID {
			return &j, nil
		}
	}
	return nil, ErrNotFound
}

func (m *MemoryStore) CreateJob(_ context.Context, job models.Job) (*models.Job, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	job.ID = m.nextID("job")
	job.CreatedAt = time.Now()
	m.Jobs = append(m.Jobs, job)
	return &job, nil
}

func (m *MemoryStore) CreateApplication(_ context.Context, app models.Application) (*models.Application, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	app.ID = m.nextID("application")
	app.CreatedAt = time.Now()
	app.UpdatedAt = app.CreatedAt
	m.Applications = append(m.Applications, app)
	return &app, nil
}

func (m *MemoryStore) UpdateApplicationStatus(_ context.Context, id string, status models.ApplicationStatus, notes string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.Applications {
		if m.Applications[i].ID == id {
			m.Applications[i].Status = status
			if notes != "" {
				m.Applications[i].Notes = notes
			}
			m.Applications[i].UpdatedAt = time.Now()
			return nil
		}
	}
	return ErrNotFound
}

func (m *MemoryStore) AddQA(_ context.Context, rec models.QARecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec.ID = m.nextID("qa")
	rec.CreatedAt = time.Now()
	m.QA = append(m.QA, rec)
	return nil
}

// Snapshot returns copies of the applications and Q&A records.
func (m *MemoryStore) Snapshot() ([]models.Application, []models.QARecord) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]models.Application(nil), m.Applications...), append([]models.QARecord(nil), m.QA...)
}

var _ Store = (*MemoryStore)(nil)
