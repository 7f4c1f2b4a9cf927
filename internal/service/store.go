package service

import (
	"context"

	"go-easyapply-automation/internal/database"
	"go-easyapply-automation/internal/models"
)

// Store is the persistence the service needs; *database.Repository implements it.
type Store interface {
	CreateUser(ctx context.Context, u models.User, passwordHash string) (*models.User, error)
	UserByEmail(ctx context.Context, email string) (*models.User, string, error)
	UserByID(ctx context.Context, id string) (*models.User, error)
	UpdateUser(ctx context.Context, id string, p database.UserPatch) (*models.User, error)

	CreateResume(ctx context.Context, r models.Resume, file []byte) (*models.Resume, error)
	ListResumes(ctx context.Context, userID string) ([]models.Resume, error)
	DefaultResume(ctx context.Context, userID string) (*models.Resume, error)
	ResumeByID(ctx context.Context, id string) (*models.Resume, error)
	ResumeFile(ctx context.Context, id string) (string, []byte, error)
	SetDefaultResume(ctx context.Context, id string) error
	DeleteResume(ctx context.Context, id string) error

	CreateAISettings(ctx context.Context, s models.AISettings, sealedKey string) (*models.AISettings, error)
	ListAISettings(ctx context.Context, userID string) ([]models.AISettings, error)
	DefaultAISettings(ctx context.Context, userID string) (*models.AISettings, error)
	AISettingsByID(ctx context.Context, id string) (*models.AISettings, error)
	SetDefaultAISettings(ctx context.Context, id string) error
	DeleteAISettings(ctx context.Context, id string) error
	SealedKey(ctx context.Context, id string) (string, error)

	ListCompanies(ctx context.Context) ([]models.Company, error)
	SearchCompanies(ctx context.Context, name string) ([]models.Company, error)
	CreateCompany(ctx context.Context, name string) (*models.Company, error)

	ListJobs(ctx context.Context, limit int) ([]models.Job, error)
	JobByPlatformID(ctx context.Context, platform, platformJobID string) (*models.Job, error)
	CreateJob(ctx context.Context, job models.Job) (*models.Job, error)

	CreateApplication(ctx context.Context, app models.Application) (*models.Application, error)
	ApplicationOwner(ctx context.Context, id string) (string, error)
	UpdateApplicationStatus(ctx context.Context, id string, status models.ApplicationStatus, notes string) error
	AddQA(ctx context.Context, rec models.QARecord) error
}

var _ Store = (*database.Repository)(nil)
