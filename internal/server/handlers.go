package server

import (
	"net/http"
	"path/filepath"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/samber/lo"

	"mp3player/internal/app/api/provider"
	"mp3player/internal/app/model"
	"mp3player/internal/app/search"
	"mp3player/internal/app/segment"
	"mp3player/internal/server/apierrors"
	"mp3player/internal/server/middleware"
)

// handleHealth godoc
// @Summary Service health
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Router /health [get]
func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "healthy",
		"timestamp": time.Now().Unix(),
	})
}

// handleListFiles godoc
// @Summary List library audio files
// @Produce json
// @Success 200 {array} model.LibraryFile
// @Router /api/v1/files [get]
func (s *Server) handleListFiles(c *gin.Context) {
	files, err := s.deps.Library.Scan(s.deps.FilesDir)
	if err != nil {
		middleware.Fail(c, err)
		return
	}
	if files == nil {
		files = []model.LibraryFile{}
	}
	c.JSON(http.StatusOK, files)
}

// handleFileSegments godoc
// @Summary List the practice segments of one file
// @Produce json
// @Param name path string true "audio file name"
// @Success 200 {array} SegmentResponse
// @Router /api/v1/files/{name}/segments [get]
func (s *Server) handleFileSegments(c *gin.Context) {
	name := filepath.Base(c.Param("name"))
	path := filepath.Join(s.deps.FilesDir, name)

	exists, err := s.deps.Library.Exists(path)
	if err != nil {
		middleware.Fail(c, err)
		return
	}
	if !exists {
		middleware.Fail(c, apierrors.NewNotFound("file "+name))
		return
	}

	segs, err := s.deps.Library.Segments(path)
	if err != nil {
		middleware.Fail(c, err)
		return
	}

	c.JSON(http.StatusOK, lo.Map(segs, func(sg segment.Segment, _ int) SegmentResponse {
		return toSegmentResponse(sg)
	}))
}

// handleListTranscripts godoc
// @Summary List or search transcripts
// @Produce json
// @Param file query string false "filter by file name"
// @Param q query string false "substring search"
// @Param limit query int false "max rows" default(50)
// @Success 200 {array} TranscriptResponse
// @Router /api/v1/transcripts [get]
func (s *Server) handleListTranscripts(c *gin.Context) {
	var q TranscriptQuery
	if err := middleware.BindQuery(c, &q); err != nil {
		middleware.Fail(c, err)
		return
	}

	var (
		rows []model.Transcript
		err  error
	)
	switch {
	case q.Q != "":
		rows, err = s.deps.DB.Search(c.Request.Context(), q.File, q.Q, q.Limit)
	case q.File != "":
		rows, err = s.deps.DB.GetAllByFile(c.Request.Context(), q.File)
	default:
		rows, err = s.deps.DB.GetRecent(c.Request.Context(), q.Limit)
	}
	if err != nil {
		middleware.Fail(c, err)
		return
	}

	c.JSON(http.StatusOK, lo.Map(rows, func(t model.Transcript, _ int) TranscriptResponse {
		return toTranscriptResponse(t)
	}))
}

// handleCreateTranscription godoc
// @Summary Transcribe one file synchronously
// @Accept json
// @Produce json
// @Param request body TranscribeRequest true "transcription request"
// @Success 201 {object} TranscriptionCreated
// @Failure 422 {object} apierrors.APIError
// @Router /api/v1/transcriptions [post]
func (s *Server) handleCreateTranscription(c *gin.Context) {
	var req TranscribeRequest
	if err := middleware.BindJSON(c, &req); err != nil {
		middleware.Fail(c, err)
		return
	}

	if s.deps.Orchestrator == nil {
		middleware.Fail(c, apierrors.NewServiceUnavailable("no transcription providers configured"))
		return
	}

	resp, err := s.deps.Orchestrator.Transcribe(c.Request.Context(), &provider.TranscriptionRequest{
		InputFilePath: req.FilePath,
		Provider:      req.Provider,
		Language:      req.Language,
		Prompt:        req.Prompt,
	})
	if err != nil {
		middleware.Fail(c, err)
		return
	}

	id, err := s.deps.DB.Record(c.Request.Context(), &model.Transcript{
		FileName:      filepath.Base(req.FilePath),
		FilePath:      req.FilePath,
		AudioDuration: resp.Duration.Seconds(),
		Provider:      resp.Provider,
		Language:      resp.Language,
		Model:         resp.ModelUsed,
		Text:          resp.Text,
	})
	if err != nil {
		middleware.Fail(c, err)
		return
	}

	c.JSON(http.StatusCreated, TranscriptionCreated{
		TranscriptID: id,
		Text:         resp.Text,
		Provider:     resp.Provider,
		Language:     resp.Language,
		Duration:     resp.Duration.Seconds(),
	})
}

// handleListProviders godoc
// @Summary List transcription providers and their health
// @Produce json
// @Success 200 {array} ProviderResponse
// @Router /api/v1/providers [get]
func (s *Server) handleListProviders(c *gin.Context) {
	if s.deps.Registry == nil {
		c.JSON(http.StatusOK, []ProviderResponse{})
		return
	}

	health := s.deps.Registry.HealthCheckAll(c.Request.Context())

	defaultName := ""
	if p, err := s.deps.Registry.GetDefaultProvider(); err == nil {
		defaultName = p.GetProviderInfo().Name
	}

	out := make([]ProviderResponse, 0)
	for _, name := range s.deps.Registry.ListProviders() {
		pr := ProviderResponse{
			Name:    name,
			Default: name == defaultName,
			Healthy: health[name] == nil,
		}
		if err := health[name]; err != nil {
			pr.Error = err.Error()
		}
		if p, err := s.deps.Registry.GetProvider(name); err == nil {
			pr.DisplayName = p.GetProviderInfo().DisplayName
		}
		out = append(out, pr)
	}
	c.JSON(http.StatusOK, out)
}

// handleStats godoc
// @Summary Library statistics
// @Produce json
// @Success 200 {object} StatsResponse
// @Router /api/v1/stats [get]
func (s *Server) handleStats(c *gin.Context) {
	stats, err := s.deps.DB.Stats(c.Request.Context())
	if err != nil {
		middleware.Fail(c, err)
		return
	}
	c.JSON(http.StatusOK, toStatsResponse(stats))
}

// handleSemanticSearch godoc
// @Summary Search transcripts by meaning
// @Accept json
// @Produce json
// @Param request body SemanticSearchRequest true "search request"
// @Success 200 {array} SemanticMatch
// @Failure 503 {object} apierrors.APIError
// @Router /api/v1/search/semantic [post]
func (s *Server) handleSemanticSearch(c *gin.Context) {
	var req SemanticSearchRequest
	if err := middleware.BindJSON(c, &req); err != nil {
		middleware.Fail(c, err)
		return
	}
	if req.Limit == 0 {
		req.Limit = 10
	}

	if s.deps.Searcher == nil || !s.deps.Searcher.SemanticAvailable() {
		middleware.Fail(c, apierrors.NewServiceUnavailable(
			"semantic search requires a postgres library with the pgvector extension"))
		return
	}

	matches, err := s.deps.Searcher.Semantic(c.Request.Context(), req.Query, req.Limit)
	if err != nil {
		middleware.Fail(c, err)
		return
	}

	c.JSON(http.StatusOK, lo.Map(matches, func(m search.Match, _ int) SemanticMatch {
		return SemanticMatch{
			Transcript: toTranscriptResponse(m.Transcript),
			Similarity: m.Similarity,
		}
	}))
}
