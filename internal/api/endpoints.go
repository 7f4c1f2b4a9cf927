package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/url"

	"go-easyapply-automation/internal/models"
	"go-easyapply-automation/internal/tracker"
)

type RegisterRequest struct {
	Email     string `json:"email"`
	Password  string `json:"password"`
	FirstName string `json:"firstName,omitempty"`
	LastName  string `json:"lastName,omitempty"`
}

type LoginResponse struct {
	User  models.User `json:"user"`
	Token string      `json:"token"`
}

// AISettingsInput is what the user submits; the key is sealed by the service.
type AISettingsInput struct {
	models.AISettings
	APIKey string `json:"apiKey,omitempty"`
}

type UserUpdate struct {
	FirstName *string `json:"firstName,omitempty"`
	LastName  *string `json:"lastName,omitempty"`
	Phone     *string `json:"phone,omitempty"`
	Location  *string `json:"location,omitempty"`
}

// Users

func (c *Client) Register(ctx context.Context, in RegisterRequest) (*models.User, error) {
	var u models.User
	if err := c.do(ctx, http.MethodPost, "/users/register", in, &u); err != nil {
		return nil, err
	}
	return &u, nil
}

// Login stores the returned token on the client.
func (c *Client) Login(ctx context.Context, email, password string) (*LoginResponse, error) {
	var resp LoginResponse
	in := map[string]string{"email": email, "password": password}
	if err := c.do(ctx, http.MethodPost, "/users/login", in, &resp); err != nil {
		return nil, err
	}
	c.SetToken(resp.Token)
	return &resp, nil
}

func (c *Client) GetUser(ctx context.Context, id string) (*models.User, error) {
	var u models.User
	if err := c.do(ctx, http.MethodGet, "/users/"+url.PathEscape(id), nil, &u); err != nil {
		return nil, err
	}
	return &u, nil
}

func (c *Client) UpdateUser(ctx context.Context, id string, in UserUpdate) (*models.User, error) {
	var u models.User
	if err := c.do(ctx, http.MethodPut, "/users/"+url.PathEscape(id), in, &u); err != nil {
		return nil, err
	}
	return &u, nil
}

func (c *Client) GetProfile(ctx context.Context, id string) (map[string]any, error) {
	var p map[string]any
	if err := c.do(ctx, http.MethodGet, "/users/"+url.PathEscape(id)+"/profile", nil, &p); err != nil {
		return nil, err
	}
	return p, nil
}

// Résumés

func (c *Client) ListResumes(ctx context.Context, userID string) ([]models.Resume, error) {
	var out []models.Resume
	err := c.do(ctx, http.MethodGet, "/users/"+url.PathEscape(userID)+"/resumes", nil, &out)
	return out, err
}

func (c *Client) DefaultResume(ctx context.Context, userID string) (*models.Resume, error) {
	var r models.Resume
	if err := c.do(ctx, http.MethodGet, "/users/"+url.PathEscape(userID)+"/resumes/default", nil, &r); err != nil {
		return nil, err
	}
	return &r, nil
}

func (c *Client) GetResume(ctx context.Context, id string) (*models.Resume, error) {
	var r models.Resume
	if err := c.do(ctx, http.MethodGet, "/resumes/"+url.PathEscape(id), nil, &r); err != nil {
		return nil, err
	}
	return &r, nil
}

// UploadResume posts the file as multipart form data along with extra form fields.
func (c *Client) UploadResume(ctx context.Context, userID, fileName string, file []byte, fields map[string]string) (*models.Resume, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for k, v := range fields {
		if err := w.WriteField(k, v); err != nil {
			return nil, fmt.Errorf("failed to write form field %s: %w", k, err)
		}
	}
	part, err := w.CreateFormFile("file", fileName)
	if err != nil {
		return nil, fmt.Errorf("failed to create form file: %w", err)
	}
	if _, err := part.Write(file); err != nil {
		return nil, fmt.Errorf("failed to write form file: %w", err)
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("failed to close multipart body: %w", err)
	}

	data, err := c.send(ctx, http.MethodPost, "/users/"+url.PathEscape(userID)+"/resumes/upload", w.FormDataContentType(), &buf)
	if err != nil {
		return nil, err
	}
	var r models.Resume
	if err := decode(data, &r); err != nil {
		return nil, err
	}
	return &r, nil
}

func (c *Client) DownloadResume(ctx context.Context, id string) ([]byte, error) {
	return c.send(ctx, http.MethodGet, "/resumes/"+url.PathEscape(id)+"/download", "", nil)
}

func (c *Client) SetDefaultResume(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodPut, "/resumes/"+url.PathEscape(id)+"/default", nil, nil)
}

func (c *Client) DeleteResume(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/resumes/"+url.PathEscape(id), nil, nil)
}

// RelevantData returns the slice of the structured résumé the service picks for qt.
func (c *Client) RelevantData(ctx context.Context, resumeID string, qt models.QuestionType) (map[string]any, error) {
	path := "/resumes/" + url.PathEscape(resumeID) + "/relevant-data?questionType=" + url.QueryEscape(string(qt))
	var out map[string]any
	if err := c.do(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// AI settings

func (c *Client) ListAISettings(ctx context.Context, userID string) ([]models.AISettings, error) {
	var out []models.AISettings
	err := c.do(ctx, http.MethodGet, "/users/"+url.PathEscape(userID)+"/ai-settings", nil, &out)
	return out, err
}

func (c *Client) DefaultAISettings(ctx context.Context, userID string) (*models.AISettings, error) {
	var s models.AISettings
	if err := c.do(ctx, http.MethodGet, "/users/"+url.PathEscape(userID)+"/ai-settings/default", nil, &s); err != nil {
		return nil, err
	}
	return &s, nil
}

func (c *Client) CreateAISettings(ctx context.Context, userID string, in AISettingsInput) (*models.AISettings, error) {
	var s models.AISettings
	if err := c.do(ctx, http.MethodPost, "/users/"+url.PathEscape(userID)+"/ai-settings", in, &s); err != nil {
		return nil, err
	}
	return &s, nil
}

func (c *Client) SetDefaultAISettings(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodPut, "/ai-settings/"+url.PathEscape(id)+"/default", nil, nil)
}

func (c *Client) DeleteAISettings(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/ai-settings/"+url.PathEscape(id), nil, nil)
}

func (c *Client) EncryptedKey(ctx context.Context, settingsID string) (string, error) {
	var out struct {
		EncryptedKey string `json:"encryptedKey"`
	}
	if err := c.do(ctx, http.MethodGet, "/ai-settings/"+url.PathEscape(settingsID)+"/encrypted-key", nil, &out); err != nil {
		return "", err
	}
	return out.EncryptedKey, nil
}

func (c *Client) DecryptKey(ctx context.Context, encrypted string) (string, error) {
	var out struct {
		APIKey string `json:"apiKey"`
	}
	in := map[string]string{"encryptedKey": encrypted}
	if err := c.do(ctx, http.MethodPost, "/ai-settings/decrypt-api-key", in, &out); err != nil {
		return "", err
	}
	return out.APIKey, nil
}

// KeySource fetches and decrypts the hosted-provider key on every call; nothing is cached.
func (c *Client) KeySource(settingsID string) func(context.Context) (string, error) {
	return func(ctx context.Context) (string, error) {
		sealed, err := c.EncryptedKey(ctx, settingsID)
		if err != nil {
			return "", fmt.Errorf("failed to fetch API key: %w", err)
		}
		if sealed == "" {
			return "", fmt.Errorf("no API key stored for AI settings %s", settingsID)
		}
		return c.DecryptKey(ctx, sealed)
	}
}

// Companies, jobs, applications

func (c *Client) ListCompanies(ctx context.Context) ([]models.Company, error) {
	var out []models.Company
	err := c.do(ctx, http.MethodGet, "/companies", nil, &out)
	return out, err
}

func (c *Client) SearchCompanies(ctx context.Context, name string) ([]models.Company, error) {
	var out []models.Company
	err := c.do(ctx, http.MethodGet, "/companies/search?name="+url.QueryEscape(name), nil, &out)
	return out, err
}

func (c *Client) CreateCompany(ctx context.Context, name string) (*models.Company, error) {
	var co models.Company
	if err := c.do(ctx, http.MethodPost, "/companies", map[string]string{"name": name}, &co); err != nil {
		return nil, err
	}
	return &co, nil
}

func (c *Client) ListJobs(ctx context.Context) ([]models.Job, error) {
	var out []models.Job
	err := c.do(ctx, http.MethodGet, "/jobs", nil, &out)
	return out, err
}

func (c *Client) FindJob(ctx context.Context, platform, platformJobID string) (*models.Job, error) {
	var j models.Job
	path := "/jobs/platform/" + url.PathEscape(platform) + "/" + url.PathEscape(platformJobID)
	if err := c.do(ctx, http.MethodGet, path, nil, &j); err != nil {
		return nil, err
	}
	return &j, nil
}

func (c *Client) CreateJob(ctx context.Context, job models.Job) (*models.Job, error) {
	var j models.Job
	if err := c.do(ctx, http.MethodPost, "/jobs", job, &j); err != nil {
		return nil, err
	}
	return &j, nil
}

func (c *Client) CreateApplication(ctx context.Context, app models.Application) (*models.Application, error) {
	var a models.Application
	if err := c.do(ctx, http.MethodPost, "/applications", app, &a); err != nil {
		return nil, err
	}
	return &a, nil
}

func (c *Client) UpdateApplicationStatus(ctx context.Context, id string, status models.ApplicationStatus, notes string) error {
	in := map[string]string{"status": string(status), "notes": notes}
	return c.do(ctx, http.MethodPut, "/applications/"+url.PathEscape(id)+"/status", in, nil)
}

func (c *Client) AddQA(ctx context.Context, rec models.QARecord) error {
	return c.do(ctx, http.MethodPost, "/questions-answers", rec, nil)
}

func decode(data []byte, out any) error {
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

var _ tracker.Store = (*Client)(nil)
