package server

import (
	"fmt"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/kode4food/bizunit/internal/plan"
	"github.com/kode4food/bizunit/pkg/api"
)

func (s *Server) listPlans(c *gin.Context) {
	names, err := s.Catalog.List(c.Request.Context())
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, api.PlanListResponse{
		Plans: names,
		Count: len(names),
	})
}

func (s *Server) getPlan(c *gin.Context) {
	doc, err := s.Catalog.Document(c.Request.Context(), c.Param("plan"))
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, doc)
}

func (s *Server) putPlan(c *gin.Context) {
	doc, err := readDocument(c)
	if err != nil {
		s.writeError(c, err)
		return
	}
	res, err := s.Catalog.Put(c.Request.Context(), c.Param("plan"), doc)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, api.NormalizeResponse{
		Document: res,
		Version:  res.Plan.Version,
	})
}

func (s *Server) deletePlan(c *gin.Context) {
	ok, err := s.Catalog.Delete(c.Request.Context(), c.Param("plan"))
	if err != nil {
		s.writeError(c, err)
		return
	}
	if !ok {
		c.JSON(http.StatusNotFound, api.ErrorResponse{
			Error:  fmt.Sprintf("plan not found: %s", c.Param("plan")),
			Status: http.StatusNotFound,
		})
		return
	}
	c.Status(http.StatusNoContent)
}

// normalizePlan round trips a document through load and template without
// storing it
func (s *Server) normalizePlan(c *gin.Context) {
	doc, err := readDocument(c)
	if err != nil {
		s.writeError(c, err)
		return
	}
	res, err := s.Manager.Normalize(doc)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, api.NormalizeResponse{
		Document: res,
		Version:  res.Plan.Version,
	})
}

func readDocument(c *gin.Context) (*api.Document, error) {
	data, err := io.ReadAll(io.LimitReader(c.Request.Body, maxBodySize))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidBody, err)
	}
	return plan.Parse(data)
}
