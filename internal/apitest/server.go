// Package apitest runs an in-memory copy of the article API for tests.
//
// It answers with the same envelopes as the real service, including the
// "Success" casing the get and delete endpoints use.
package apitest

import (
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/blogdesk/blogdesk/internal/article"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// Upload records what the last upload request carried.
type Upload struct {
	ArticleID   string
	Field       string
	Filename    string
	ContentType string
	Size        int64
}

// Server is a running fake API.
type Server struct {
	*httptest.Server

	mu            sync.Mutex
	articles      map[string]article.Article
	uploads       []Upload
	down          bool
	omitStatus    bool
	rejectUploads bool
}

// NewServer starts a fake API. Callers must Close it.
func NewServer() *Server {
	gin.SetMode(gin.TestMode)
	s := &Server{articles: make(map[string]article.Article)}

	r := gin.New()
	api := r.Group("/api")
	{
		api.GET("/ruta-de-prueba", s.handleProbe)
		api.POST("/crear", s.handleCreate)
		api.GET("/listar", s.handleList)
		api.GET("/articulo/:id", s.handleGet)
		api.PUT("/actualizar/:id", s.handleUpdate)
		api.DELETE("/borrar/:id", s.handleDelete)
		api.POST("/subir-imagen/:id", s.handleUpload)
	}

	s.Server = httptest.NewServer(r)
	return s
}

// APIURL is the base URL a client should be configured with.
func (s *Server) APIURL() string {
	return s.URL + "/api"
}

// Seed stores articles as if they had been created through the API.
func (s *Server) Seed(articles ...article.Article) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, a := range articles {
		if a.ID == "" {
			a.ID = newID()
		}
		if a.CreatedAt.IsZero() {
			a.CreatedAt = time.Now()
		}
		if a.Image == "" {
			a.Image = article.DefaultImage
		}
		s.articles[a.ID] = a
	}
}

// Article returns the stored copy of an article.
func (s *Server) Article(id string) (article.Article, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.articles[id]
	return a, ok
}

// Uploads returns every upload received so far.
func (s *Server) Uploads() []Upload {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Upload(nil), s.uploads...)
}

// SetDown makes the health probe fail.
func (s *Server) SetDown(v bool) {
	s.mu.Lock()
	s.down = v
	s.mu.Unlock()
}

// SetOmitStatus drops the status field from every envelope.
func (s *Server) SetOmitStatus(v bool) {
	s.mu.Lock()
	s.omitStatus = v
	s.mu.Unlock()
}

// SetRejectUploads makes every upload fail.
func (s *Server) SetRejectUploads(v bool) {
	s.mu.Lock()
	s.rejectUploads = v
	s.mu.Unlock()
}

func (s *Server) flags() (down, omitStatus, rejectUploads bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.down, s.omitStatus, s.rejectUploads
}

func newID() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:24]
}

func (s *Server) reply(c *gin.Context, code int, status string, body gin.H) {
	if body == nil {
		body = gin.H{}
	}
	if _, omit, _ := s.flags(); !omit {
		body["status"] = status
	}
	c.JSON(code, body)
}

type articleRequest struct {
	Title   string `json:"titulo"`
	Content string `json:"contenido"`
}

func (s *Server) handleProbe(c *gin.Context) {
	if down, _, _ := s.flags(); down {
		c.JSON(http.StatusServiceUnavailable, gin.H{"message": "unavailable"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "ok"})
}

func (s *Server) handleCreate(c *gin.Context) {
	var req articleRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Title == "" || req.Content == "" {
		s.reply(c, http.StatusBadRequest, "error", gin.H{"mensaje": "Faltan datos por enviar"})
		return
	}

	a := article.Article{
		ID:        newID(),
		Title:     req.Title,
		Content:   req.Content,
		Image:     article.DefaultImage,
		CreatedAt: time.Now(),
	}
	s.mu.Lock()
	s.articles[a.ID] = a
	s.mu.Unlock()

	s.reply(c, http.StatusOK, "success", gin.H{"articulo": a, "mensaje": "Articulo guardado con exito"})
}

func (s *Server) handleList(c *gin.Context) {
	s.mu.Lock()
	list := make([]article.Article, 0, len(s.articles))
	for _, a := range s.articles {
		list = append(list, a)
	}
	s.mu.Unlock()

	sort.SliceStable(list, func(i, j int) bool {
		return list[i].CreatedAt.After(list[j].CreatedAt)
	})
	s.reply(c, http.StatusOK, "success", gin.H{"consulta": list})
}

func (s *Server) handleGet(c *gin.Context) {
	a, ok := s.Article(c.Param("id"))
	if !ok {
		s.reply(c, http.StatusNotFound, "error", gin.H{"mensaje": "No existe el articulo"})
		return
	}
	s.reply(c, http.StatusOK, "Success", gin.H{"articulo": a})
}

func (s *Server) handleUpdate(c *gin.Context) {
	var req articleRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Title == "" || req.Content == "" {
		s.reply(c, http.StatusBadRequest, "error", gin.H{"mensaje": "Faltan datos por enviar"})
		return
	}

	id := c.Param("id")
	s.mu.Lock()
	a, ok := s.articles[id]
	if ok {
		a.Title = req.Title
		a.Content = req.Content
		s.articles[id] = a
	}
	s.mu.Unlock()

	if !ok {
		s.reply(c, http.StatusNotFound, "error", gin.H{"mensaje": "Error al actualizar"})
		return
	}
	s.reply(c, http.StatusOK, "success", gin.H{"articulo": a})
}

func (s *Server) handleDelete(c *gin.Context) {
	id := c.Param("id")
	s.mu.Lock()
	a, ok := s.articles[id]
	delete(s.articles, id)
	s.mu.Unlock()

	if !ok {
		s.reply(c, http.StatusNotFound, "error", gin.H{"mensaje": "Error al borrar"})
		return
	}
	s.reply(c, http.StatusOK, "Success", gin.H{"articulo": a})
}

var imageExts = map[string]bool{".png": true, ".jpg": true, ".jpeg": true, ".gif": true}

func (s *Server) handleUpload(c *gin.Context) {
	id := c.Param("id")
	_, _, reject := s.flags()
	fh, err := c.FormFile("file0")
	if err != nil || reject {
		s.reply(c, http.StatusBadRequest, "error", gin.H{"mensaje": "Imagen no subida"})
		return
	}

	ext := strings.ToLower(filepath.Ext(fh.Filename))
	if !imageExts[ext] {
		s.reply(c, http.StatusBadRequest, "error", gin.H{"mensaje": "Extension de la imagen invalida"})
		return
	}

	s.mu.Lock()
	s.uploads = append(s.uploads, Upload{
		ArticleID:   id,
		Field:       "file0",
		Filename:    fh.Filename,
		ContentType: fh.Header.Get("Content-Type"),
		Size:        fh.Size,
	})
	a, ok := s.articles[id]
	if ok {
		a.Image = id + ext
		s.articles[id] = a
	}
	s.mu.Unlock()

	if !ok {
		s.reply(c, http.StatusNotFound, "error", gin.H{"mensaje": "Error al subir la imagen"})
		return
	}
	s.reply(c, http.StatusOK, "success", gin.H{"articulo": a, "fichero": fh.Filename})
}
