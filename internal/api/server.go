package api

import (
	"net/http"

	"github.com/labstack/echo/v5"
	"github.com/samcharles93/tokenloop/internal/version"
)

type Server struct {
	store   *GenerationStore
	service *GenerationService
}

func NewServer(store *GenerationStore, service *GenerationService) *Server {
	return &Server{store: store, service: service}
}

func (s *Server) Register(e *echo.Echo) {
	e.GET("/healthz", s.handleHealth)
	e.GET("/v1/models", s.handleListModels)
	e.POST("/v1/generate", s.handleGenerate)
	e.GET("/v1/generations/:id", s.handleGetGeneration)
	e.DELETE("/v1/generations/:id", s.handleDeleteGeneration)
}

func (s *Server) handleHealth(c *echo.Context) error {
	return c.JSON(http.StatusOK, map[string]any{
		"status":             "ok",
		"version":            version.String(),
		"stored_generations": s.store.Len(),
	})
}

func (s *Server) handleListModels(c *echo.Context) error {
	return c.JSON(http.StatusOK, ModelList{
		Object: "list",
		Data:   s.service.Models(),
	})
}

func (s *Server) handleGenerate(c *echo.Context) error {
	req, err := decodeJSON[GenerateRequest](c.Request().Body)
	if err != nil {
		return writeBadRequest(c, "invalid JSON body: "+err.Error())
	}
	if req.Stream != nil && *req.Stream {
		return s.handleGenerateStream(c, &req)
	}

	resp, err := s.service.Generate(c.Request().Context(), &req, nil)
	if err != nil {
		status, body := classify(err)
		return writeError(c, status, body)
	}
	s.store.Save(*resp)
	return c.JSON(http.StatusOK, resp)
}

func (s *Server) handleGenerateStream(c *echo.Context, req *GenerateRequest) error {
	w, err := NewSSEStreamWriter(c)
	if err != nil {
		return writeError(c, http.StatusInternalServerError, ErrorBody{Message: err.Error(), Type: "server_error"})
	}

	resp, err := s.service.Generate(c.Request().Context(), req, w.Token)
	if err == nil {
		s.store.Save(*resp)
		err = w.Completed(resp)
	} else {
		_, body := classify(err)
		err = w.Failed(body)
	}
	if werr := w.Err(); werr != nil {
		s.service.log.Warn("stream write failed", "error", werr)
	}
	return err
}

func (s *Server) handleGetGeneration(c *echo.Context) error {
	id := c.Param("id")
	resp, ok := s.store.Get(id)
	if !ok {
		return writeNotFound(c, "generation not found")
	}
	return c.JSON(http.StatusOK, resp)
}

func (s *Server) handleDeleteGeneration(c *echo.Context) error {
	id := c.Param("id")
	if !s.store.Delete(id) {
		return writeNotFound(c, "generation not found")
	}
	return c.JSON(http.StatusOK, DeleteResponse{
		ID:      id,
		Object:  "generation.deleted",
		Deleted: true,
	})
}
