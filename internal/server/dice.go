package server

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	usagedomain "github.com/smallbiznis/creditgate/internal/usage/domain"
)

type rollDiceRequest struct {
	Count int `json:"count"`
}

type rollDiceResponse struct {
	Roll  *usagedomain.DiceRoll `json:"roll"`
	Total int                   `json:"total"`
	Usage *usagedomain.Usage    `json:"usage"`
}

func (s *Server) GetDiceUsage(c *gin.Context) {
	usage, err := s.usagesvc.Usage(c.Request.Context(), userIDFrom(c))
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, usage)
}

// RollDice accepts an empty body, in which case the default dice count is
// used.
func (s *Server) RollDice(c *gin.Context) {
	var req rollDiceRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		AbortWithError(c, invalidRequestError())
		return
	}

	roll, usage, err := s.usagesvc.Roll(c.Request.Context(), usagedomain.RollRequest{
		UserID: userIDFrom(c),
		Count:  req.Count,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, rollDiceResponse{Roll: roll, Total: roll.Sum(), Usage: usage})
}

func (s *Server) ClearDiceRolls(c *gin.Context) {
	deleted, err := s.usagesvc.ClearUserRolls(c.Request.Context(), userIDFrom(c))
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted": deleted})
}
