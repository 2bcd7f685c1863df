package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"alfa-forge/internal/services"
)

type sendNotificationRequest struct {
	Notification services.Notification `json:"notification"`
	Immediate    bool                  `json:"immediate"`
}

func (s *Server) registerDevice(c *gin.Context) {
	var in services.RegisterDeviceInput
	if err := c.ShouldBindJSON(&in); err != nil {
		badRequest(c, err)
		return
	}

	device, err := s.services.Notification.RegisterDevice(c.Request.Context(), currentUser(c), in)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, device)
}

func (s *Server) unregisterDevice(c *gin.Context) {
	message, err := s.services.Notification.UnregisterDevice(c.Request.Context(), currentUser(c), c.Param("playerId"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": message})
}

// sendNotification отправляет уведомление самому вызывающему, для проверки доставки с клиента
func (s *Server) sendNotification(c *gin.Context) {
	var body sendNotificationRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		badRequest(c, err)
		return
	}

	err := s.services.Notification.Send(c.Request.Context(), services.SendRequest{
		UserIDs:      []string{currentUser(c)},
		Notification: body.Notification,
		Immediate:    body.Immediate,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Уведомление отправлено"})
}

func (s *Server) getNotificationSettings(c *gin.Context) {
	settings, err := s.services.Notification.GetSettings(c.Request.Context(), currentUser(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, settings)
}

func (s *Server) updateNotificationSettings(c *gin.Context) {
	var in services.NotificationSettingsInput
	if err := c.ShouldBindJSON(&in); err != nil {
		badRequest(c, err)
		return
	}

	settings, err := s.services.Notification.UpdateSettings(c.Request.Context(), currentUser(c), in)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, settings)
}
