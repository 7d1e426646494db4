package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/kode4food/bizunit"
	"github.com/kode4food/bizunit/pkg/api"
)

const healthHealthy = "healthy"

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, api.HealthResponse{
		Service: bizunit.Name,
		Version: bizunit.Version,
		Status:  healthHealthy,
	})
}

func (s *Server) listBlocks(c *gin.Context) {
	res := map[string][]string{}
	for _, typ := range s.Registry.Types() {
		res[typ] = s.Registry.Actions(typ)
	}
	c.JSON(http.StatusOK, api.BlocksResponse{Blocks: res})
}
