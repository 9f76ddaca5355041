package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// Health is the liveness endpoint probed by load balancers. It reports
// only that the process is serving; dependency health (MySQL, Redis,
// broker) is deliberately not folded in, so a degraded cache never takes
// the reservation engine out of rotation.
func Health(c echo.Context) error {
	return c.String(http.StatusOK, "ok")
}
