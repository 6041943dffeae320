package main

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shamseergtct/gtct-analytics/models"
)

func listPartiesHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		parties, err := models.ListParties(c.Request.Context(), scopedClientId(c))
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"data": parties})
	}
}

// searchPartiesHandler ranks substring hits first, then near misses on the name.
func searchPartiesHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		parties, err := models.ListParties(c.Request.Context(), scopedClientId(c))
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"data": models.SearchParties(parties, c.Query("q"))})
	}
}

func createPartyHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var input models.NewParty
		if !bindJSON(c, &input) {
			return
		}
		party, err := models.CreateParty(c.Request.Context(), &input)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusCreated, gin.H{"data": party})
	}
}

func updatePartyHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := pathId(c)
		if !ok {
			return
		}
		var input models.NewParty
		if !bindJSON(c, &input) {
			return
		}
		party, err := models.UpdateParty(c.Request.Context(), id, &input)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"data": party})
	}
}

func deletePartyHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := pathId(c)
		if !ok {
			return
		}
		party, err := models.DeleteParty(c.Request.Context(), id)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"data": party})
	}
}
