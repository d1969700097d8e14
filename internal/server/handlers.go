package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	cmerrors "cachemgr/pkg/errors"
)

func (s *Server) handleHealthCheck() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	}
}

func (s *Server) handleGet() gin.HandlerFunc {
	return func(c *gin.Context) {
		key := c.Param("key")
		value, err := s.cache.Get(key)
		if err != nil {
			c.JSON(statusFor(err), gin.H{"error": err.Error()})
			return
		}

		c.JSON(http.StatusOK, GetResponse{Key: key, Value: value})
	}
}

func (s *Server) handlePut() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req PutRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		if err := s.cache.Put(c.Param("key"), *req.Value); err != nil {
			c.JSON(statusFor(err), gin.H{"error": err.Error()})
			return
		}

		c.Status(http.StatusNoContent)
	}
}

func (s *Server) handleDelete() gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := s.cache.Delete(c.Param("key")); err != nil {
			c.JSON(statusFor(err), gin.H{"error": err.Error()})
			return
		}

		c.Status(http.StatusNoContent)
	}
}

func (s *Server) handleListKeys() gin.HandlerFunc {
	return func(c *gin.Context) {
		keys := s.cache.Keys()
		c.JSON(http.StatusOK, ListKeysResponse{
			Keys:     keys,
			Size:     len(keys),
			Capacity: s.cache.Cap(),
		})
	}
}

func (s *Server) handleStats() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, s.cache.Stats())
	}
}

// statusFor maps cache errors onto HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, cmerrors.ErrMiss), errors.Is(err, cmerrors.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, cmerrors.ErrInvalidArgument):
		return http.StatusBadRequest
	case errors.Is(err, cmerrors.ErrDestroyed):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
