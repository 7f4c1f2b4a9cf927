// Package service is the companion REST service the engine talks to:
// accounts, résumés, AI settings and application tracking.
package service

import (
	"errors"
	"io"
	"log"
	"net/http"
	"slices"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"go-easyapply-automation/internal/database"
	"go-easyapply-automation/internal/llm"
	"go-easyapply-automation/internal/models"
	"go-easyapply-automation/internal/resume"
)

const maxUploadBytes = 10 << 20

var errForbidden = errors.New("forbidden")

// Server is the companion REST API.
type Server struct {
	store  Store
	tokens *Tokens
	sealer *Sealer
	engine *gin.Engine
}

func New(store Store, tokens *Tokens, sealer *Sealer) *Server {
	s := &Server{store: store, tokens: tokens, sealer: sealer, engine: gin.Default()}
	s.engine.MaxMultipartMemory = maxUploadBytes
	s.routes()
	return s
}

func (s *Server) Handler() http.Handler {
	return s.engine
}

func (s *Server) Run(addr string) error {
	log.Printf("🌐 Service listening on %s", addr)
	return s.engine.Run(addr)
}

func (s *Server) routes() {
	r := s.engine
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "healthy"})
	})
	r.POST("/users/register", s.register)
	r.POST("/users/login", s.login)

	auth := r.Group("/", s.tokens.Middleware())

	auth.GET("/users/:id", s.ownUser, s.getUser)
	auth.PUT("/users/:id", s.ownUser, s.updateUser)
	auth.GET("/users/:id/profile", s.ownUser, s.getProfile)

	auth.GET("/users/:id/resumes", s.ownUser, s.listResumes)
	auth.GET("/users/:id/resumes/default", s.ownUser, s.defaultResume)
	auth.POST("/users/:id/resumes/upload", s.ownUser, s.uploadResume)
	auth.GET("/resumes/:id", s.getResume)
	auth.GET("/resumes/:id/download", s.downloadResume)
	auth.PUT("/resumes/:id/default", s.setDefaultResume)
	auth.DELETE("/resumes/:id", s.deleteResume)
	auth.GET("/resumes/:id/relevant-data", s.relevantData)

	auth.GET("/users/:id/ai-settings", s.ownUser, s.listAISettings)
	auth.GET("/users/:id/ai-settings/default", s.ownUser, s.defaultAISettings)
	auth.POST("/users/:id/ai-settings", s.ownUser, s.createAISettings)
	auth.PUT("/ai-settings/:id/default", s.setDefaultAISettings)
	auth.DELETE("/ai-settings/:id", s.deleteAISettings)
	auth.GET("/ai-settings/:id/encrypted-key", s.encryptedKey)
	auth.POST("/ai-settings/decrypt-api-key", s.decryptKey)

	auth.GET("/companies", s.listCompanies)
	auth.POST("/companies", s.createCompany)
	auth.GET("/companies/search", s.searchCompanies)
	auth.GET("/jobs", s.listJobs)
	auth.POST("/jobs", s.createJob)
	auth.GET("/jobs/platform/:platform/:id", s.findJob)
	auth.POST("/applications", s.createApplication)
	auth.PUT("/applications/:id/status", s.updateApplicationStatus)
	auth.POST("/questions-answers", s.addQA)
}

// fail maps store errors onto status codes. Unexpected errors are logged, not echoed.
func fail(c *gin.Context, err error) {
	switch {
	case errors.Is(err, database.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, database.ErrConflict):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, errForbidden):
		c.JSON(http.StatusForbidden, gin.H{"error": "forbidden"})
	case errors.Is(err, ErrInvalidCredentials):
		c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
	default:
		log.Printf("❌ %s %s: %v", c.Request.Method, c.FullPath(), err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}

func badRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, gin.H{"error": msg})
}

// ownUser stops requests for another user's /users/:id resources.
func (s *Server) ownUser(c *gin.Context) {
	if c.Param("id") != caller(c) {
		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "forbidden"})
		return
	}
	c.Next()
}

func owned(c *gin.Context, owner string) error {
	if owner != caller(c) {
		return errForbidden
	}
	return nil
}

// Users

type registerRequest struct {
	Email     string `json:"email" binding:"required,email"`
	Password  string `json:"password" binding:"required,min=8"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
}

func (s *Server) register(c *gin.Context) {
	var in registerRequest
	if err := c.ShouldBindJSON(&in); err != nil {
		badRequest(c, err.Error())
		return
	}
	hash, err := hashPassword(in.Password)
	if err != nil {
		fail(c, err)
		return
	}
	u, err := s.store.CreateUser(c, models.User{Email: in.Email, FirstName: in.FirstName, LastName: in.LastName}, hash)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, u)
}

func (s *Server) login(c *gin.Context) {
	var in struct {
		Email    string `json:"email" binding:"required"`
		Password string `json:"password" binding:"required"`
	}
	if err := c.ShouldBindJSON(&in); err != nil {
		badRequest(c, err.Error())
		return
	}
	u, hash, err := s.store.UserByEmail(c, in.Email)
	if errors.Is(err, database.ErrNotFound) {
		err = ErrInvalidCredentials
	}
	if err == nil {
		err = checkPassword(hash, in.Password)
	}
	if err != nil {
		fail(c, err)
		return
	}
	token, err := s.tokens.Generate(u.ID)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": u, "token": token})
}

func (s *Server) getUser(c *gin.Context) {
	u, err := s.store.UserByID(c, c.Param("id"))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, u)
}

func (s *Server) updateUser(c *gin.Context) {
	var patch database.UserPatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		badRequest(c, err.Error())
		return
	}
	u, err := s.store.UpdateUser(c, c.Param("id"), patch)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, u)
}

// getProfile bundles the user with their defaults so the launcher needs one call.
func (s *Server) getProfile(c *gin.Context) {
	id := c.Param("id")
	u, err := s.store.UserByID(c, id)
	if err != nil {
		fail(c, err)
		return
	}
	profile := gin.H{"user": u}
	if r, err := s.store.DefaultResume(c, id); err == nil {
		profile["defaultResumeId"] = r.ID
		profile["resume"] = r.Structured
	} else if !errors.Is(err, database.ErrNotFound) {
		fail(c, err)
		return
	}
	if st, err := s.store.DefaultAISettings(c, id); err == nil {
		profile["aiSettings"] = st
	} else if !errors.Is(err, database.ErrNotFound) {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, profile)
}

// Résumés

func (s *Server) listResumes(c *gin.Context) {
	out, err := s.store.ListResumes(c, c.Param("id"))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

func (s *Server) defaultResume(c *gin.Context) {
	r, err := s.store.DefaultResume(c, c.Param("id"))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, r)
}

// uploadResume parses .json/.yaml/.txt uploads. The first résumé becomes the default.
func (s *Server) uploadResume(c *gin.Context) {
	userID := c.Param("id")
	fh, err := c.FormFile("file")
	if err != nil {
		badRequest(c, "missing file")
		return
	}
	if fh.Size > maxUploadBytes {
		badRequest(c, "file too large")
		return
	}
	f, err := fh.Open()
	if err != nil {
		fail(c, err)
		return
	}
	defer f.Close()
	data, err := io.ReadAll(f)
	if err != nil {
		fail(c, err)
		return
	}

	parsed, err := resume.Parse(fh.Filename, data)
	if err != nil {
		badRequest(c, err.Error())
		return
	}

	isDefault, _ := strconv.ParseBool(c.PostForm("isDefault"))
	if !isDefault {
		if _, err := s.store.DefaultResume(c, userID); errors.Is(err, database.ErrNotFound) {
			isDefault = true
		}
	}

	r, err := s.store.CreateResume(c, models.Resume{
		UserID:     userID,
		FileName:   fh.Filename,
		Structured: parsed.Structured(),
		Text:       parsed.Text(),
		IsDefault:  isDefault,
	}, data)
	if err != nil {
		fail(c, err)
		return
	}
	log.Printf("📄 Stored resume %s (%s) for user %s", r.ID, r.FileName, userID)
	c.JSON(http.StatusCreated, r)
}

// ownResume loads a résumé and checks the caller owns it.
func (s *Server) ownResume(c *gin.Context) (*models.Resume, bool) {
	r, err := s.store.ResumeByID(c, c.Param("id"))
	if err == nil {
		err = owned(c, r.UserID)
	}
	if err != nil {
		fail(c, err)
		return nil, false
	}
	return r, true
}

func (s *Server) getResume(c *gin.Context) {
	if r, ok := s.ownResume(c); ok {
		c.JSON(http.StatusOK, r)
	}
}

func (s *Server) downloadResume(c *gin.Context) {
	if _, ok := s.ownResume(c); !ok {
		return
	}
	name, data, err := s.store.ResumeFile(c, c.Param("id"))
	if err != nil {
		fail(c, err)
		return
	}
	c.Header("Content-Disposition", `attachment; filename="`+strings.ReplaceAll(name, `"`, "")+`"`)
	c.Data(http.StatusOK, "application/octet-stream", data)
}

func (s *Server) setDefaultResume(c *gin.Context) {
	if _, ok := s.ownResume(c); !ok {
		return
	}
	if err := s.store.SetDefaultResume(c, c.Param("id")); err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (s *Server) deleteResume(c *gin.Context) {
	if _, ok := s.ownResume(c); !ok {
		return
	}
	if err := s.store.DeleteResume(c, c.Param("id")); err != nil {
		fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) relevantData(c *gin.Context) {
	r, ok := s.ownResume(c)
	if !ok {
		return
	}
	qt := models.QuestionType(c.DefaultQuery("questionType", string(models.TypeGeneral)))
	if !slices.Contains(models.AllQuestionTypes, qt) {
		badRequest(c, "unknown questionType")
		return
	}
	c.JSON(http.StatusOK, resume.Relevant(r.Structured, qt))
}

// AI settings

type aiSettingsRequest struct {
	Provider    string  `json:"provider" binding:"required"`
	Model       string  `json:"model" binding:"required"`
	Endpoint    string  `json:"endpoint"`
	Temperature float64 `json:"temperature"`
	MaxTokens   int     `json:"maxTokens"`
	IsDefault   bool    `json:"isDefault"`
	APIKey      string  `json:"apiKey"`
}

func (s *Server) listAISettings(c *gin.Context) {
	out, err := s.store.ListAISettings(c, c.Param("id"))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

func (s *Server) defaultAISettings(c *gin.Context) {
	st, err := s.store.DefaultAISettings(c, c.Param("id"))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, st)
}

func (s *Server) createAISettings(c *gin.Context) {
	var in aiSettingsRequest
	if err := c.ShouldBindJSON(&in); err != nil {
		badRequest(c, err.Error())
		return
	}
	kind := llm.Kind(in.Provider)
	if kind == "" {
		badRequest(c, "unknown provider "+in.Provider)
		return
	}
	if kind != llm.KindOllama && in.APIKey == "" {
		badRequest(c, "apiKey is required for "+in.Provider)
		return
	}
	if in.MaxTokens <= 0 {
		in.MaxTokens = 512
	}
	sealed, err := s.sealer.Seal(in.APIKey)
	if err != nil {
		fail(c, err)
		return
	}
	st, err := s.store.CreateAISettings(c, models.AISettings{
		UserID:      c.Param("id"),
		Provider:    strings.ToLower(strings.TrimSpace(in.Provider)),
		Model:       in.Model,
		Endpoint:    in.Endpoint,
		Temperature: in.Temperature,
		MaxTokens:   in.MaxTokens,
		IsDefault:   in.IsDefault,
	}, sealed)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, st)
}

func (s *Server) ownAISettings(c *gin.Context) bool {
	st, err := s.store.AISettingsByID(c, c.Param("id"))
	if err == nil {
		err = owned(c, st.UserID)
	}
	if err != nil {
		fail(c, err)
		return false
	}
	return true
}

func (s *Server) setDefaultAISettings(c *gin.Context) {
	if !s.ownAISettings(c) {
		return
	}
	if err := s.store.SetDefaultAISettings(c, c.Param("id")); err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (s *Server) deleteAISettings(c *gin.Context) {
	if !s.ownAISettings(c) {
		return
	}
	if err := s.store.DeleteAISettings(c, c.Param("id")); err != nil {
		fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) encryptedKey(c *gin.Context) {
	if !s.ownAISettings(c) {
		return
	}
	sealed, err := s.store.SealedKey(c, c.Param("id"))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"encryptedKey": sealed})
}

func (s *Server) decryptKey(c *gin.Context) {
	var in struct {
		EncryptedKey string `json:"encryptedKey" binding:"required"`
	}
	if err := c.ShouldBindJSON(&in); err != nil {
		badRequest(c, err.Error())
		return
	}
	key, err := s.sealer.Open(in.EncryptedKey)
	if err != nil {
		badRequest(c, "cannot decrypt key")
		return
	}
	c.JSON(http.StatusOK, gin.H{"apiKey": key})
}

// Companies, jobs, applications

func (s *Server) listCompanies(c *gin.Context) {
	out, err := s.store.ListCompanies(c)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

func (s *Server) searchCompanies(c *gin.Context) {
	name := strings.TrimSpace(c.Query("name"))
	if name == "" {
		badRequest(c, "name is required")
		return
	}
	out, err := s.store.SearchCompanies(c, name)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

func (s *Server) createCompany(c *gin.Context) {
	var in struct {
		Name string `json:"name" binding:"required"`
	}
	if err := c.ShouldBindJSON(&in); err != nil {
		badRequest(c, err.Error())
		return
	}
	co, err := s.store.CreateCompany(c, in.Name)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, co)
}

func (s *Server) listJobs(c *gin.Context) {
	limit, _ := strconv.Atoi(c.Query("limit"))
	out, err := s.store.ListJobs(c, limit)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

func (s *Server) findJob(c *gin.Context) {
	j, err := s.store.JobByPlatformID(c, c.Param("platform"), c.Param("id"))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, j)
}

func (s *Server) createJob(c *gin.Context) {
	var in models.Job
	if err := c.ShouldBindJSON(&in); err != nil {
		badRequest(c, err.Error())
		return
	}
	if in.CompanyID == "" || in.Platform == "" || in.Title == "" {
		badRequest(c, "companyId, platform and title are required")
		return
	}
	j, err := s.store.CreateJob(c, in)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, j)
}

func (s *Server) createApplication(c *gin.Context) {
	var in models.Application
	if err := c.ShouldBindJSON(&in); err != nil {
		badRequest(c, err.Error())
		return
	}
	if in.JobID == "" {
		badRequest(c, "jobId is required")
		return
	}
	in.UserID = caller(c)
	if in.Status == "" {
		in.Status = models.StatusApplied
	}
	a, err := s.store.CreateApplication(c, in)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, a)
}

func (s *Server) updateApplicationStatus(c *gin.Context) {
	var in struct {
		Status models.ApplicationStatus `json:"status" binding:"required"`
		Notes  string                   `json:"notes"`
	}
	if err := c.ShouldBindJSON(&in); err != nil {
		badRequest(c, err.Error())
		return
	}
	if !in.Status.Terminal() {
		badRequest(c, "unknown status "+string(in.Status))
		return
	}
	id := c.Param("id")
	owner, err := s.store.ApplicationOwner(c, id)
	if err == nil {
		err = owned(c, owner)
	}
	if err == nil {
		err = s.store.UpdateApplicationStatus(c, id, in.Status, in.Notes)
	}
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (s *Server) addQA(c *gin.Context) {
	var in models.QARecord
	if err := c.ShouldBindJSON(&in); err != nil {
		badRequest(c, err.Error())
		return
	}
	if in.ApplicationID == "" || in.Question == "" {
		badRequest(c, "applicationId and question are required")
		return
	}
	owner, err := s.store.ApplicationOwner(c, in.ApplicationID)
	if err == nil {
		err = owned(c, owner)
	}
	if err == nil {
		err = s.store.AddQA(c, in)
	}
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"success": true})
}
