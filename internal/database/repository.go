// Package database is the Postgres store behind the companion REST service.
package database

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"go-easyapply-automation/internal/models"
)

var (
	ErrNotFound = errors.New("not found")
	ErrConflict = errors.New("already exists")
)

// Repository is the companion service's Postgres store.
type Repository struct {
	db *pgxpool.Pool
}

// ConnectDB opens a connection pool and pings the server.
func ConnectDB(ctx context.Context, connString string) (*Repository, error) {
	config, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, fmt.Errorf("unable to parse database url: %w", err)
	}

	config.MaxConns = 10
	config.MinConns = 2
	config.MaxConnLifetime = time.Hour

	// Supabase's transaction pooler does not support prepared statements.
	config.ConnConfig.DefaultQueryExecMode = pgx.QueryExecModeExec

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("unable to connect to database: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("database unreachable: %w", err)
	}

	return &Repository{db: pool}, nil
}

func (r *Repository) Close() {
	if r.db != nil {
		r.db.Close()
	}
}

func (r *Repository) Ping(ctx context.Context) error {
	return r.db.Ping(ctx)
}

func notFound(err error, what string) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("%s: %w", what, ErrNotFound)
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return fmt.Errorf("%s: %w", what, ErrConflict)
	}
	return fmt.Errorf("failed to query %s: %w", what, err)
}

// ServerInfo returns the Postgres version and the current database size.
func (r *Repository) ServerInfo(ctx context.Context) (version, size string, err error) {
	err = r.db.QueryRow(ctx, `SELECT version(), pg_size_pretty(pg_database_size(current_database()))`).Scan(&version, &size)
	return version, size, err
}

// ---------------- USER OPERATIONS ----------------

const userColumns = `id, email, first_name, last_name, phone, location, created_at, updated_at`

func scanUser(row pgx.Row, extra ...any) (*models.User, error) {
	var u models.User
	dest := append([]any{&u.ID, &u.Email, &u.FirstName, &u.LastName, &u.Phone, &u.Location, &u.CreatedAt, &u.UpdatedAt}, extra...)
	if err := row.Scan(dest...); err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *Repository) CreateUser(ctx context.Context, u models.User, passwordHash string) (*models.User, error) {
	query := `
		INSERT INTO users (id, email, password_hash, first_name, last_name, phone, location)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING ` + userColumns
	out, err := scanUser(r.db.QueryRow(ctx, query, uuid.NewString(), strings.TrimSpace(u.Email), passwordHash,
		u.FirstName, u.LastName, u.Phone, u.Location))
	if err != nil {
		return nil, notFound(err, "user")
	}
	return out, nil
}

// UserByEmail also returns the password hash for login.
func (r *Repository) UserByEmail(ctx context.Context, email string) (*models.User, string, error) {
	var hash string
	query := `SELECT ` + userColumns + `, password_hash FROM users WHERE lower(email) = lower($1)`
	u, err := scanUser(r.db.QueryRow(ctx, query, strings.TrimSpace(email)), &hash)
	if err != nil {
		return nil, "", notFound(err, "user")
	}
	return u, hash, nil
}

func (r *Repository) UserByID(ctx context.Context, id string) (*models.User, error) {
	u, err := scanUser(r.db.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id))
	if err != nil {
		return nil, notFound(err, "user")
	}
	return u, nil
}

// UserPatch leaves nil fields untouched.
type UserPatch struct {
	FirstName *string `json:"firstName,omitempty"`
	LastName  *string `json:"lastName,omitempty"`
	Phone     *string `json:"phone,omitempty"`
	Location  *string `json:"location,omitempty"`
}

func (r *Repository) UpdateUser(ctx context.Context, id string, p UserPatch) (*models.User, error) {
	query := `
		UPDATE users SET
			first_name = COALESCE($2, first_name),
			last_name  = COALESCE($3, last_name),
			phone      = COALESCE($4, phone),
			location   = COALESCE($5, location),
			updated_at = now()
		WHERE id = $1
		RETURNING ` + userColumns
	u, err := scanUser(r.db.QueryRow(ctx, query, id, p.FirstName, p.LastName, p.Phone, p.Location))
	if err != nil {
		return nil, notFound(err, "user")
	}
	return u, nil
}

// ---------------- RESUME OPERATIONS ----------------

const resumeColumns = `id, user_id, file_name, structured, text, is_default, created_at`

func scanResume(row pgx.Row) (*models.Resume, error) {
	var res models.Resume
	var structured []byte
	if err := row.Scan(&res.ID, &res.UserID, &res.FileName, &structured, &res.Text, &res.IsDefault, &res.CreatedAt); err != nil {
		return nil, err
	}
	if len(structured) > 0 {
		if err := json.Unmarshal(structured, &res.Structured); err != nil {
			return nil, fmt.Errorf("corrupt structured resume %s: %w", res.ID, err)
		}
	}
	return &res, nil
}

func collectResumes(rows pgx.Rows) ([]models.Resume, error) {
	defer rows.Close()
	out := []models.Resume{}
	for rows.Next() {
		res, err := scanResume(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *res)
	}
	return out, rows.Err()
}

// CreateResume stores the file and its parsed form. A default résumé replaces the previous default.
func (r *Repository) CreateResume(ctx context.Context, res models.Resume, file []byte) (*models.Resume, error) {
	var structured *string
	if res.Structured != nil {
		data, err := json.Marshal(res.Structured)
		if err != nil {
			return nil, fmt.Errorf("failed to encode structured resume: %w", err)
		}
		s := string(data)
		structured = &s
	}

	var out *models.Resume
	err := pgx.BeginFunc(ctx, r.db, func(tx pgx.Tx) error {
		if res.IsDefault {
			if _, err := tx.Exec(ctx, `UPDATE resumes SET is_default = false WHERE user_id = $1 AND is_default`, res.UserID); err != nil {
				return err
			}
		}
		query := `
			INSERT INTO resumes (id, user_id, file_name, file_data, structured, text, is_default)
			VALUES ($1, $2, $3, $4, $5::jsonb, $6, $7)
			RETURNING ` + resumeColumns
		var err error
		out, err = scanResume(tx.QueryRow(ctx, query, uuid.NewString(), res.UserID, res.FileName, file, structured, res.Text, res.IsDefault))
		return err
	})
	if err != nil {
		return nil, notFound(err, "resume")
	}
	return out, nil
}

func (r *Repository) ListResumes(ctx context.Context, userID string) ([]models.Resume, error) {
	rows, err := r.db.Query(ctx, `SELECT `+resumeColumns+` FROM resumes WHERE user_id = $1 ORDER BY created_at DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list resumes: %w", err)
	}
	return collectResumes(rows)
}

func (r *Repository) DefaultResume(ctx context.Context, userID string) (*models.Resume, error) {
	res, err := scanResume(r.db.QueryRow(ctx, `SELECT `+resumeColumns+` FROM resumes WHERE user_id = $1 AND is_default`, userID))
	if err != nil {
		return nil, notFound(err, "default resume")
	}
	return res, nil
}

func (r *Repository) ResumeByID(ctx context.Context, id string) (*models.Resume, error) {
	res, err := scanResume(r.db.QueryRow(ctx, `SELECT `+resumeColumns+` FROM resumes WHERE id = $1`, id))
	if err != nil {
		return nil, notFound(err, "resume")
	}
	return res, nil
}

func (r *Repository) ResumeFile(ctx context.Context, id string) (string, []byte, error) {
	var name string
	var data []byte
	if err := r.db.QueryRow(ctx, `SELECT file_name, file_data FROM resumes WHERE id = $1`, id).Scan(&name, &data); err != nil {
		return "", nil, notFound(err, "resume")
	}
	return name, data, nil
}

func (r *Repository) SetDefaultResume(ctx context.Context, id string) error {
	err := pgx.BeginFunc(ctx, r.db, func(tx pgx.Tx) error {
		var userID string
		if err := tx.QueryRow(ctx, `SELECT user_id FROM resumes WHERE id = $1`, id).Scan(&userID); err != nil {
			return err
		}
		if _, err := tx.Exec(ctx, `UPDATE resumes SET is_default = false WHERE user_id = $1 AND is_default`, userID); err != nil {
			return err
		}
		_, err := tx.Exec(ctx, `UPDATE resumes SET is_default = true WHERE id = $1`, id)
		return err
	})
	if err != nil {
		return notFound(err, "resume")
	}
	return nil
}

func (r *Repository) DeleteResume(ctx context.Context, id string) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM resumes WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete resume: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("resume: %w", ErrNotFound)
	}
	return nil
}

// ---------------- AI SETTINGS OPERATIONS ----------------

const aiSettingsColumns = `id, user_id, provider, model, endpoint, temperature, max_tokens, is_default, sealed_key <> ''`

func scanAISettings(row pgx.Row) (*models.AISettings, error) {
	var s models.AISettings
	if err := row.Scan(&s.ID, &s.UserID, &s.Provider, &s.Model, &s.Endpoint, &s.Temperature, &s.MaxTokens, &s.IsDefault, &s.HasAPIKey); err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *Repository) CreateAISettings(ctx context.Context, s models.AISettings, sealedKey string) (*models.AISettings, error) {
	var out *models.AISettings
	err := pgx.BeginFunc(ctx, r.db, func(tx pgx.Tx) error {
		if s.IsDefault {
			if _, err := tx.Exec(ctx, `UPDATE ai_settings SET is_default = false WHERE user_id = $1 AND is_default`, s.UserID); err != nil {
				return err
			}
		}
		query := `
			INSERT INTO ai_settings (id, user_id, provider, model, endpoint, temperature, max_tokens, sealed_key, is_default)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
			RETURNING ` + aiSettingsColumns
		var err error
		out, err = scanAISettings(tx.QueryRow(ctx, query, uuid.NewString(), s.UserID, s.Provider, s.Model, s.Endpoint,
			s.Temperature, s.MaxTokens, sealedKey, s.IsDefault))
		return err
	})
	if err != nil {
		return nil, notFound(err, "ai settings")
	}
	return out, nil
}

func (r *Repository) ListAISettings(ctx context.Context, userID string) ([]models.AISettings, error) {
	rows, err := r.db.Query(ctx, `SELECT `+aiSettingsColumns+` FROM ai_settings WHERE user_id = $1 ORDER BY created_at DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list ai settings: %w", err)
	}
	defer rows.Close()

	out := []models.AISettings{}
	for rows.Next() {
		s, err := scanAISettings(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *s)
	}
	return out, rows.Err()
}

func (r *Repository) DefaultAISettings(ctx context.Context, userID string) (*models.AISettings, error) {
	s, err := scanAISettings(r.db.QueryRow(ctx, `SELECT `+aiSettingsColumns+` FROM ai_settings WHERE user_id = $1 AND is_default`, userID))
	if err != nil {
		return nil, notFound(err, "default ai settings")
	}
	return s, nil
}

func (r *Repository) AISettingsByID(ctx context.Context, id string) (*models.AISettings, error) {
	s, err := scanAISettings(r.db.QueryRow(ctx, `SELECT `+aiSettingsColumns+` FROM ai_settings WHERE id = $1`, id))
	if err != nil {
		return nil, notFound(err, "ai settings")
	}
	return s, nil
}

func (r *Repository) SetDefaultAISettings(ctx context.Context, id string) error {
	err := pgx.BeginFunc(ctx, r.db, func(tx pgx.Tx) error {
		var userID string
		if err := tx.QueryRow(ctx, `SELECT user_id FROM ai_settings WHERE id = $1`, id).Scan(&userID); err != nil {
			return err
		}
		if _, err := tx.Exec(ctx, `UPDATE ai_settings SET is_default = false WHERE user_id = $1 AND is_default`, userID); err != nil {
			return err
		}
		_, err := tx.Exec(ctx, `UPDATE ai_settings SET is_default = true WHERE id = $1`, id)
		return err
	})
	if err != nil {
		return notFound(err, "ai settings")
	}
	return nil
}

func (r *Repository) DeleteAISettings(ctx context.Context, id string) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM ai_settings WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete ai settings: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("ai settings: %w", ErrNotFound)
	}
	return nil
}

func (r *Repository) SealedKey(ctx context.Context, id string) (string, error) {
	var sealed string
	if err := r.db.QueryRow(ctx, `SELECT sealed_key FROM ai_settings WHERE id = $1`, id).Scan(&sealed); err != nil {
		return "", notFound(err, "ai settings")
	}
	return sealed, nil
}

// ---------------- COMPANY OPERATIONS ----------------

func collectCompanies(rows pgx.Rows) ([]models.Company, error) {
	defer rows.Close()
	out := []models.Company{}
	for rows.Next() {
		var c models.Company
		if err := rows.Scan(&c.ID, &c.Name, &c.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (r *Repository) ListCompanies(ctx context.Context) ([]models.Company, error) {
	rows, err := r.db.Query(ctx, `SELECT id, name, created_at FROM companies ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("failed to list companies: %w", err)
	}
	return collectCompanies(rows)
}

func (r *Repository) SearchCompanies(ctx context.Context, name string) ([]models.Company, error) {
	rows, err := r.db.Query(ctx, `SELECT id, name, created_at FROM companies WHERE name ILIKE '%' || $1 || '%' ORDER BY name LIMIT 20`, strings.TrimSpace(name))
	if err != nil {
		return nil, fmt.Errorf("failed to search companies: %w", err)
	}
	return collectCompanies(rows)
}

// CreateCompany returns the existing row when the name is already known, ignoring case.
func (r *Repository) CreateCompany(ctx context.Context, name string) (*models.Company, error) {
	query := `
		INSERT INTO companies (id, name) VALUES ($1, $2)
		ON CONFLICT ((lower(name))) DO UPDATE SET name = companies.name
		RETURNING id, name, created_at`
	var c models.Company
	if err := r.db.QueryRow(ctx, query, uuid.NewString(), strings.TrimSpace(name)).Scan(&c.ID, &c.Name, &c.CreatedAt); err != nil {
		return nil, fmt.Errorf("failed to create company: %w", err)
	}
	return &c, nil
}

// ---------------- JOB OPERATIONS ----------------

const jobColumns = `id, company_id, platform, platform_job_id, title, location, job_type, remote_type, description, url, created_at`

func scanJob(row pgx.Row) (*models.Job, error) {
	var j models.Job
	if err := row.Scan(&j.ID, &j.CompanyID, &j.Platform, &j.PlatformJobID, &j.Title, &j.Location,
		&j.JobType, &j.RemoteType, &j.Description, &j.URL, &j.CreatedAt); err != nil {
		return nil, err
	}
	return &j, nil
}

func (r *Repository) ListJobs(ctx context.Context, limit int) ([]models.Job, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	rows, err := r.db.Query(ctx, `SELECT `+jobColumns+` FROM jobs ORDER BY created_at DESC LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list jobs: %w", err)
	}
	defer rows.Close()

	out := []models.Job{}
	for rows.Next() {
		j, err := scanJob(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *j)
	}
	return out, rows.Err()
}

func (r *Repository) JobByPlatformID(ctx context.Context, platform, platformJobID string) (*models.Job, error) {
	j, err := scanJob(r.db.QueryRow(ctx, `SELECT `+jobColumns+` FROM jobs WHERE platform = $1 AND platform_job_id = $2`, platform, platformJobID))
	if err != nil {
		return nil, notFound(err, "job")
	}
	return j, nil
}

// CreateJob inserts a job or refreshes the one already stored for the same platform id.
func (r *Repository) CreateJob(ctx context.Context, job models.Job) (*models.Job, error) {
	query := `
		INSERT INTO jobs (id, company_id, platform, platform_job_id, title, location, job_type, remote_type, description, url)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (platform, platform_job_id) WHERE platform_job_id <> ''
		DO UPDATE SET title = EXCLUDED.title, location = EXCLUDED.location, description = EXCLUDED.description
		RETURNING ` + jobColumns
	j, err := scanJob(r.db.QueryRow(ctx, query, uuid.NewString(), job.CompanyID, job.Platform, job.PlatformJobID,
		job.Title, job.Location, job.JobType, job.RemoteType, job.Description, job.URL))
	if err != nil {
		return nil, fmt.Errorf("failed to save job: %w", err)
	}
	return j, nil
}

// ---------------- APPLICATION OPERATIONS ----------------

func (r *Repository) CreateApplication(ctx context.Context, app models.Application) (*models.Application, error) {
	query := `
		INSERT INTO applications (id, user_id, job_id, ai_settings_id, resume_id, status, notes)
		VALUES ($1, $2, $3, NULLIF($4, ''), NULLIF($5, ''), $6, $7)
		RETURNING id, user_id, job_id, COALESCE(ai_settings_id, ''), COALESCE(resume_id, ''), status, notes, created_at, updated_at`
	var a models.Application
	err := r.db.QueryRow(ctx, query, uuid.NewString(), app.UserID, app.JobID, app.AISettingsID, app.ResumeID, string(app.Status), app.Notes).
		Scan(&a.ID, &a.UserID, &a.JobID, &a.AISettingsID, &a.ResumeID, &a.Status, &a.Notes, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to create application: %w", err)
	}
	return &a, nil
}

// ApplicationOwner returns the user id an application belongs to.
func (r *Repository) ApplicationOwner(ctx context.Context, id string) (string, error) {
	var userID string
	if err := r.db.QueryRow(ctx, `SELECT user_id FROM applications WHERE id = $1`, id).Scan(&userID); err != nil {
		return "", notFound(err, "application")
	}
	return userID, nil
}

// UpdateApplicationStatus keeps the existing notes when notes is empty.
func (r *Repository) UpdateApplicationStatus(ctx context.Context, id string, status models.ApplicationStatus, notes string) error {
	tag, err := r.db.Exec(ctx, `
		UPDATE applications SET status = $2, notes = COALESCE(NULLIF($3, ''), notes), updated_at = now()
		WHERE id = $1`, id, string(status), notes)
	if err != nil {
		return fmt.Errorf("failed to update application status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("application: %w", ErrNotFound)
	}
	return nil
}

// ---------------- QUESTION/ANSWER OPERATIONS ----------------

func (r *Repository) AddQA(ctx context.Context, rec models.QARecord) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO questions_answers (id, application_id, question, answer, question_type, model_used, skipped)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		uuid.NewString(), rec.ApplicationID, rec.Question, rec.Answer, string(rec.QuestionType), rec.ModelUsed, rec.Skipped)
	if err != nil {
		return fmt.Errorf("failed to save question answer: %w", err)
	}
	return nil
}
