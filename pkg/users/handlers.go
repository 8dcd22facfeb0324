package users

import (
	"net/http"
	"strconv"

	"github.com/caseshelf/caseshelf/pkg/auth"
	"github.com/caseshelf/caseshelf/pkg/errcodes"
	"github.com/caseshelf/caseshelf/pkg/models"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
)

type handler struct {
	userService *Service
}

func (h *handler) create(c echo.Context) error {
	ctx := c.Request().Context()

	params := CreateUserPayload{}
	if err := c.Bind(&params); err != nil {
		return errors.WithStack(err)
	}

	user := &models.User{
		Name:  params.Name,
		Email: params.Email,
		Role:  models.Role(params.Role),
	}

	if err := h.userService.CreateUser(ctx, user, params.Password); err != nil {
		return errors.WithStack(err)
	}

	return errors.WithStack(c.JSON(http.StatusCreated, user))
}

func (h *handler) retrieve(c echo.Context) error {
	ctx := c.Request().Context()
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return errcodes.NotFound("User")
	}

	user, err := h.userService.RetrieveUser(ctx, RetrieveUserOptions{ID: &id})
	if err != nil {
		return errors.WithStack(err)
	}

	return errors.WithStack(c.JSON(http.StatusOK, user))
}

func (h *handler) list(c echo.Context) error {
	ctx := c.Request().Context()

	params := ListUsersQuery{}
	if err := c.Bind(&params); err != nil {
		return errors.WithStack(err)
	}

	opts := ListUsersOptions{
		Limit:  &params.Limit,
		Offset: &params.Offset,
		Search: params.Search,
	}

	users, total, err := h.userService.ListUsersWithTotal(ctx, opts)
	if err != nil {
		return errors.WithStack(err)
	}

	response := map[string]any{
		"users": users,
		"total": total,
	}

	return errors.WithStack(c.JSON(http.StatusOK, response))
}

func (h *handler) update(c echo.Context) error {
	ctx := c.Request().Context()
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return errcodes.NotFound("User")
	}

	params := UpdateUserPayload{}
	if err := c.Bind(&params); err != nil {
		return errors.WithStack(err)
	}

	user, err := h.userService.RetrieveUser(ctx, RetrieveUserOptions{ID: &id})
	if err != nil {
		return errors.WithStack(err)
	}

	columns := []string{}
	if params.Name != nil {
		user.Name = *params.Name
		columns = append(columns, "name")
	}
	if params.Role != nil {
		user.Role = models.Role(*params.Role)
		columns = append(columns, "role")
	}
	if params.IsActive != nil {
		user.IsActive = *params.IsActive
		columns = append(columns, "is_active")
	}

	if err := h.userService.UpdateUser(ctx, user, UpdateUserOptions{Columns: columns}); err != nil {
		return errors.WithStack(err)
	}

	if params.Permissions != nil {
		perms := make([]models.Permission, 0, len(*params.Permissions))
		for _, p := range *params.Permissions {
			perms = append(perms, models.Permission(p))
		}
		if err := h.userService.ReplacePermissions(ctx, id, perms); err != nil {
			return errors.WithStack(err)
		}
	}

	user, err = h.userService.RetrieveUser(ctx, RetrieveUserOptions{ID: &id})
	if err != nil {
		return errors.WithStack(err)
	}

	return errors.WithStack(c.JSON(http.StatusOK, user))
}

func (h *handler) deleteUser(c echo.Context) error {
	ctx := c.Request().Context()
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return errcodes.NotFound("User")
	}

	if currentID, ok := auth.GetUserIDFromContext(c); ok && currentID == id {
		return errcodes.Forbidden("You cannot delete your own account")
	}

	if err := h.userService.DeleteUser(ctx, id); err != nil {
		return errors.WithStack(err)
	}

	return c.NoContent(http.StatusNoContent)
}

func (h *handler) setPassword(c echo.Context) error {
	ctx := c.Request().Context()
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return errcodes.NotFound("User")
	}

	params := SetPasswordPayload{}
	if err := c.Bind(&params); err != nil {
		return errors.WithStack(err)
	}

	// Changing your own password requires proving you know the current one.
	if currentID, ok := auth.GetUserIDFromContext(c); ok && currentID == id {
		if params.CurrentPassword == nil {
			return errcodes.ValidationError("\"current_password\" is required when changing your own password")
		}

		user, err := h.userService.RetrieveUser(ctx, RetrieveUserOptions{ID: &id})
		if err != nil {
			return errors.WithStack(err)
		}
		if !auth.CheckPassword(*params.CurrentPassword, user.PasswordHash) {
			return errcodes.Unauthorized("Current password is incorrect")
		}
	}

	if err := h.userService.SetPassword(ctx, id, params.Password); err != nil {
		return errors.WithStack(err)
	}

	return c.JSON(http.StatusOK, map[string]string{"message": "Password updated"})
}

// acceptInvite is public: the invitee has no session yet.
func (h *handler) acceptInvite(c echo.Context) error {
	ctx := c.Request().Context()

	params := AcceptInvitePayload{}
	if err := c.Bind(&params); err != nil {
		return errors.WithStack(err)
	}

	user, err := h.userService.AcceptInvite(ctx, params.Token, params.Password)
	if err != nil {
		return errors.WithStack(err)
	}

	return errors.WithStack(c.JSON(http.StatusOK, user))
}
