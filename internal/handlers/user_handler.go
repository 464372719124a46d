package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/joshua-takyi/luwas/internal/helpers"
	"github.com/joshua-takyi/luwas/internal/models"
	"github.com/joshua-takyi/luwas/internal/services"
)

type profileView struct {
	Profile     *models.User `json:"profile"`
	DisplayName string       `json:"displayName"`
	Completion  int          `json:"completion"`
}

func newProfileView(u *models.User) profileView {
	return profileView{Profile: u, DisplayName: u.DisplayName(), Completion: u.Completion()}
}

func GetProfile(u *services.UserService) gin.HandlerFunc {
	return func(c *gin.Context) {
		id := helpers.IdentityFrom(c)
		user, err := u.GetProfile(c.Request.Context(), id.UID)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, models.SuccessResponse(newProfileView(user), ""))
	}
}

// GetDisplayName never fails: any read problem yields the default name.
func GetDisplayName(u *services.UserService) gin.HandlerFunc {
	return func(c *gin.Context) {
		id := helpers.IdentityFrom(c)
		name := models.DefaultDisplayName
		if !id.Anonymous {
			name = u.DisplayName(c.Request.Context(), id.UID)
		}
		c.JSON(http.StatusOK, models.SuccessResponse(gin.H{"displayName": name}, ""))
	}
}

func UpdateProfile(u *services.UserService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var update models.ProfileUpdate
		if err := c.ShouldBindJSON(&update); err != nil {
			badRequest(c, "body", "invalid request payload")
			return
		}

		user, err := u.UpdateProfile(c.Request.Context(), helpers.IdentityFrom(c), update)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, models.SuccessResponse(newProfileView(user), "Profile updated"))
	}
}

func UploadAvatar(u *services.UserService) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxUploadBytes)
		file, err := c.FormFile("avatar")
		if err != nil {
			badRequest(c, "avatar", "an image file is required")
			return
		}
		f, err := file.Open()
		if err != nil {
			badRequest(c, "avatar", "could not read the uploaded image")
			return
		}
		defer f.Close()

		user, err := u.UploadAvatar(c.Request.Context(), helpers.IdentityFrom(c), f)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, models.SuccessResponse(newProfileView(user), "Avatar updated"))
	}
}

// StreamProfile pushes the profile document whenever it changes.
func StreamProfile(u *services.UserService) gin.HandlerFunc {
	return func(c *gin.Context) {
		id := helpers.IdentityFrom(c)
		feed, err := u.WatchProfile(c.Request.Context(), id.UID)
		if err != nil {
			respondError(c, err)
			return
		}
		streamSnapshots(c, "profile", feed, func(users []*models.User) any {
			var user *models.User
			if len(users) > 0 {
				user = users[0]
			}
			return newProfileView(user)
		})
	}
}
