package main

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shamseergtct/gtct-analytics/middlewares"
	"github.com/shamseergtct/gtct-analytics/models"
	"github.com/shamseergtct/gtct-analytics/utils"
)

// listClientsHandler shows super admins every shop and everyone else their assigned ones.
func listClientsHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		var (
			clients []*models.Client
			err     error
		)
		if middlewares.CurrentUserRole(ctx) == models.UserRoleSuperAdmin {
			clients, err = models.ListClients(ctx)
		} else {
			shops, _ := utils.GetAssignedShopsFromContext(ctx)
			clients, err = models.GetClientsByIds(ctx, shops)
		}
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"data": clients})
	}
}

func getClientHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		client, err := middlewares.GetClient(c.Request.Context(), scopedClientId(c))
		if err != nil {
			respondError(c, err)
			return
		}
		if client == nil {
			respondError(c, utils.ErrorRecordNotFound)
			return
		}
		c.JSON(http.StatusOK, gin.H{"data": client})
	}
}

func createClientHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var input models.NewClient
		if !bindJSON(c, &input) {
			return
		}
		client, err := models.CreateClient(c.Request.Context(), &input)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusCreated, gin.H{"data": client})
	}
}

func updateClientHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var input models.NewClient
		if !bindJSON(c, &input) {
			return
		}
		client, err := models.UpdateClient(c.Request.Context(), c.Param("clientId"), &input)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"data": client})
	}
}

func deleteClientHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		client, err := models.DeleteClient(c.Request.Context(), c.Param("clientId"))
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"data": client})
	}
}
