package router

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/labstack/gommon/log"
)

// bodyLimit caps request bodies, user payloads are tiny
const bodyLimit = "64K"

// New function
func New(lvl log.Lvl, allowOrigins []string) *echo.Echo {
	e := echo.New()

	logConfig := middleware.DefaultLoggerConfig
	logConfig.Skipper = func(c echo.Context) bool {
		resp := c.Response()
		if resp.Status >= 500 && lvl > log.ERROR { // do not log if response is 5XX but log level is higher than ERROR
			return true
		} else if resp.Status >= 400 && resp.Status < 500 && lvl > log.WARN { // do not log if response is 4XX but log level is higher than WARN
			return true
		} else if resp.Status < 400 && lvl > log.DEBUG { // do not log if log level is higher than DEBUG
			return true
		}
		return false
	}

	log.SetLevel(lvl)
	e.Logger.SetLevel(lvl)
	e.Pre(middleware.RemoveTrailingSlash())
	e.Use(middleware.LoggerWithConfig(logConfig))
	e.Use(middleware.Recover())
	e.Use(middleware.BodyLimit(bodyLimit))

	// the client lives on another origin and sends the session cookie along
	if len(allowOrigins) > 0 {
		e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
			AllowOrigins:     allowOrigins,
			AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete},
			AllowHeaders:     []string{echo.HeaderContentType},
			AllowCredentials: true,
		}))
	}

	e.HideBanner = true
	e.HidePort = lvl > log.INFO // hide the port output if the log level is higher than INFO
	e.Validator = NewValidator()

	return e
}
