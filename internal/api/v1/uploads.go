package v1

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/LuchoMiranda123/proyecto-certificado-capa/internal/ident"
	"github.com/LuchoMiranda123/proyecto-certificado-capa/internal/model"
	"github.com/LuchoMiranda123/proyecto-certificado-capa/internal/parser"
	"github.com/LuchoMiranda123/proyecto-certificado-capa/internal/store"
)

// uploadSession 一次上传的名单与成绩表，以及已选人员
type uploadSession struct {
	id            string
	rosterFile    string
	gradebookFile string
	directory     *parser.Directory
	gradebook     *parser.Gradebook
	createdAt     time.Time
	expiresAt     time.Time

	mu       sync.Mutex
	selected []model.RosterRecord
}

func (u *uploadSession) personnel() []model.RosterRecord {
	u.mu.Lock()
	defer u.mu.Unlock()
	return append([]model.RosterRecord(nil), u.selected...)
}

func (u *uploadSession) setPersonnel(records []model.RosterRecord) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.selected = records
}

type uploadStore struct {
	mu    sync.Mutex
	ttl   time.Duration
	items map[string]*uploadSession
}

func newUploadStore(ttl time.Duration) *uploadStore {
	return &uploadStore{ttl: ttl, items: make(map[string]*uploadSession)}
}

func (s *uploadStore) put(u *uploadSession) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	s.purgeExpiredLocked(now)
	u.createdAt = now
	u.expiresAt = now.Add(s.ttl)
	s.items[u.id] = u
}

// get 取出会话并顺延有效期
func (s *uploadStore) get(id string) (*uploadSession, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	s.purgeExpiredLocked(now)
	u, ok := s.items[id]
	if !ok {
		return nil, false
	}
	u.expiresAt = now.Add(s.ttl)
	return u, true
}

func (s *uploadStore) len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.purgeExpiredLocked(time.Now())
	return len(s.items)
}

func (s *uploadStore) closeAll() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for k, u := range s.items {
		_ = u.gradebook.Close()
		delete(s.items, k)
	}
}

func (s *uploadStore) purgeExpiredLocked(now time.Time) {
	for k, u := range s.items {
		if now.After(u.expiresAt) {
			_ = u.gradebook.Close()
			delete(s.items, k)
		}
	}
}

// CourseOption 上传后可选的课程及其解析预览
type CourseOption struct {
	Label         string            `json:"label"`
	CanonicalName string            `json:"canonicalName"`
	Method        model.MatchMethod `json:"method"`
	Matched       bool              `json:"matched"`
}

// UploadResponse 上传结果
type UploadResponse struct {
	SessionID string              `json:"sessionId"`
	People    int                 `json:"people"`
	Roster    parser.ParseResult  `json:"roster"`
	Layout    parser.HeaderLayout `json:"layout"`
	Courses   []CourseOption      `json:"courses"`
}

func readFormFile(c *gin.Context, field string) (*multipart.FileHeader, []byte, error) {
	header, err := c.FormFile(field)
	if err != nil {
		return nil, nil, fmt.Errorf("falta el archivo %q", field)
	}
	f, err := header.Open()
	if err != nil {
		return nil, nil, fmt.Errorf("no se pudo abrir %q: %w", header.Filename, err)
	}
	defer f.Close()
	content, err := io.ReadAll(f)
	if err != nil {
		return nil, nil, fmt.Errorf("no se pudo leer %q: %w", header.Filename, err)
	}
	return header, content, nil
}

// Upload 上传名单与成绩表
// POST /api/uploads (multipart: roster, gradebook, rosterSheet)
func (h *Handler) Upload(c *gin.Context) {
	if limit := h.cfg.Server.MaxUploadMB; limit > 0 {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, int64(limit)<<20)
	}

	rosterHeader, rosterBytes, err := readFormFile(c, "roster")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	gradebookHeader, gradebookBytes, err := readFormFile(c, "gradebook")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var (
		directory *parser.Directory
		gradebook *parser.Gradebook
		g         errgroup.Group
	)
	g.Go(func() error {
		d, err := parser.ParseRoster(bytes.NewReader(rosterBytes), parser.RosterOptions{Sheet: c.PostForm("rosterSheet")})
		if err != nil {
			return fmt.Errorf("personal: %w", err)
		}
		directory = d
		return nil
	})
	g.Go(func() error {
		gb, err := parser.OpenGradebook(bytes.NewReader(gradebookBytes))
		if err != nil {
			return fmt.Errorf("notas: %w", err)
		}
		gradebook = gb
		return nil
	})
	if err := g.Wait(); err != nil {
		if gradebook != nil {
			_ = gradebook.Close()
		}
		status := http.StatusBadRequest
		if errors.Is(err, parser.ErrColumnNotFound) || errors.Is(err, parser.ErrSheetNotFound) {
			status = http.StatusUnprocessableEntity
		}
		c.JSON(status, gin.H{"error": err.Error()})
		return
	}

	session := &uploadSession{
		id:            uuid.NewString(),
		rosterFile:    rosterHeader.Filename,
		gradebookFile: gradebookHeader.Filename,
		directory:     directory,
		gradebook:     gradebook,
	}
	h.uploads.put(session)

	r := h.resolver()
	labels := gradebook.Courses()
	courses := make([]CourseOption, 0, len(labels))
	for _, label := range labels {
		rc := r.Resolve(label)
		courses = append(courses, CourseOption{
			Label:         label,
			CanonicalName: rc.CanonicalName,
			Method:        rc.Method,
			Matched:       rc.Matched(),
		})
	}

	if h.store != nil {
		sum := sha256.New()
		sum.Write(rosterBytes)
		sum.Write(gradebookBytes)
		err := h.store.CreateUpload(c.Request.Context(), store.Upload{
			ID:            session.id,
			RosterFile:    rosterHeader.Filename,
			RosterSize:    rosterHeader.Size,
			GradebookFile: gradebookHeader.Filename,
			GradebookSize: gradebookHeader.Size,
			FileHash:      hex.EncodeToString(sum.Sum(nil)),
			People:        directory.Len(),
			Courses:       len(labels),
			CreatedAt:     session.createdAt,
		})
		if err != nil {
			h.log.Warn("上传记录写入失败", zap.String("session", session.id), zap.Error(err))
		}
	}

	h.log.Info("文件已上传",
		zap.String("session", session.id),
		zap.Int("people", directory.Len()),
		zap.Int("courses", len(labels)))

	c.JSON(http.StatusOK, UploadResponse{
		SessionID: session.id,
		People:    directory.Len(),
		Roster:    directory.Result,
		Layout:    directory.Layout,
		Courses:   courses,
	})
}

// GetUpload 查看上传会话
// GET /api/uploads/:id
func (h *Handler) GetUpload(c *gin.Context) {
	session, ok := h.uploads.get(c.Param("id"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "sesión de carga no encontrada o expirada"})
		return
	}
	selected := session.personnel()
	c.JSON(http.StatusOK, gin.H{
		"sessionId":     session.id,
		"rosterFile":    session.rosterFile,
		"gradebookFile": session.gradebookFile,
		"people":        session.directory.Len(),
		"courses":       session.gradebook.Courses(),
		"selected":      selected,
		"incomplete":    parser.Incomplete(selected),
		"createdAt":     session.createdAt,
	})
}

// PersonnelRequest 人员选择请求
type PersonnelRequest struct {
	// Text 换行、逗号或空格分隔的证件号
	Text      string            `json:"text"`
	IDs       []string          `json:"ids"`
	Overrides []parser.Override `json:"overrides"`
}

// SelectPersonnel 选择参加培训的人员并补全缺失信息
// POST /api/uploads/:id/personnel
func (h *Handler) SelectPersonnel(c *gin.Context) {
	session, ok := h.uploads.get(c.Param("id"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "sesión de carga no encontrada o expirada"})
		return
	}

	var req PersonnelRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "solicitud inválida: " + err.Error()})
		return
	}

	ids := ident.ParseList(req.Text)
	for _, id := range req.IDs {
		ids = append(ids, ident.ParseList(id)...)
	}
	ids = dedupeIDs(ids)
	if len(ids) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "no se ingresó ningún DNI"})
		return
	}

	records := session.directory.Complete(ids, req.Overrides)
	session.setPersonnel(records)

	incomplete := parser.Incomplete(records)
	c.JSON(http.StatusOK, gin.H{
		"records":    records,
		"total":      len(records),
		"found":      len(records) - len(incomplete),
		"incomplete": incomplete,
	})
}

// dedupeIDs 合并两种输入后再次去重，保留首次出现的顺序
func dedupeIDs(ids []string) []string {
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		dup := false
		for _, seen := range out {
			if ident.Equivalent(seen, id) {
				dup = true
				break
			}
		}
		if !dup {
			out = append(out, id)
		}
	}
	return out
}
