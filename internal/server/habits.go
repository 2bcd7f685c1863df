package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"alfa-forge/internal/services"
)

func (s *Server) listHabits(c *gin.Context) {
	habits, err := s.services.Habit.List(c.Request.Context(), currentUser(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, habits)
}

func (s *Server) getHabit(c *gin.Context) {
	habit, err := s.services.Habit.Get(c.Request.Context(), c.Param("id"), currentUser(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, habit)
}

func (s *Server) createHabit(c *gin.Context) {
	var in services.CreateHabitInput
	if err := c.ShouldBindJSON(&in); err != nil {
		badRequest(c, err)
		return
	}

	habit, err := s.services.Habit.Create(c.Request.Context(), currentUser(c), in)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, habit)
}

func (s *Server) updateHabit(c *gin.Context) {
	var in services.UpdateHabitInput
	if err := c.ShouldBindJSON(&in); err != nil {
		badRequest(c, err)
		return
	}

	habit, err := s.services.Habit.Update(c.Request.Context(), c.Param("id"), currentUser(c), in)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, habit)
}

func (s *Server) deleteHabit(c *gin.Context) {
	if err := s.services.Habit.Delete(c.Request.Context(), c.Param("id"), currentUser(c)); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Привычка удалена"})
}

func (s *Server) completeHabit(c *gin.Context) {
	var in services.CompleteHabitInput
	if err := c.ShouldBindJSON(&in); err != nil {
		badRequest(c, err)
		return
	}

	completion, err := s.services.Habit.Complete(c.Request.Context(), c.Param("id"), currentUser(c), in)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, completion)
}

func (s *Server) uncompleteHabit(c *gin.Context) {
	err := s.services.Habit.Uncomplete(c.Request.Context(), c.Param("id"), currentUser(c), c.Param("date"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Отметка о выполнении удалена"})
}

func (s *Server) habitStats(c *gin.Context) {
	stats, err := s.services.Analytics.GetHabitStats(c.Request.Context(), c.Param("id"), currentUser(c),
		c.Query("startDate"), c.Query("endDate"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

func (s *Server) listCategories(c *gin.Context) {
	categories, err := s.services.Habit.Categories(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, categories)
}

func (s *Server) listTemplates(c *gin.Context) {
	templates, err := s.services.Habit.Templates(c.Request.Context(), c.Query("categoryId"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, templates)
}
