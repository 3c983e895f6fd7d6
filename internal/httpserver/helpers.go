package httpserver

import (
	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/solo_shop/internal/middleware/auth"
	"github.com/Skotchmaster/solo_shop/internal/service"
	"github.com/Skotchmaster/solo_shop/internal/util"
)

// actorFrom is only called behind RequireAuth, so a missing identity is a
// routing mistake and surfaces as anonymous.
func actorFrom(c echo.Context) (service.Actor, bool) {
	id, ok := auth.IdentityFrom(c)
	if !ok {
		return service.Actor{}, false
	}
	return service.Actor{UserID: id.UserID, Staff: id.Staff}, true
}

func pathID(c echo.Context) (uint, bool) {
	return util.ParseID(c.Param("id"))
}

func paging(c echo.Context) (page, size, offset, limit int) {
	page = util.ParseIntDefault(c.QueryParam("page"), 1)
	size = util.ParseIntDefault(c.QueryParam("size"), util.DefaultPageSize)
	offset, limit = util.Calculate(page, size)
	if page < 1 {
		page = 1
	}
	return page, limit, offset, limit
}
