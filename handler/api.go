package handler

import (
	"github.com/labstack/echo/v4"

	"github.com/ngoduykhanh/usermgr/emailer"
	"github.com/ngoduykhanh/usermgr/store"
)

// RegisterRoutes mounts the user api on g. Route middlewares run in the
// order given: authentication, then the admin check, then the body checks.
func RegisterRoutes(g *echo.Group, db store.IStore, sessions *Sessions, mailer emailer.Emailer, welcomeSubject string) {
	authn := Authenticate(sessions, db)

	g.GET("/health", Health())

	users := g.Group("/users")
	users.POST("", RegisterUser(db, sessions), ContentTypeJson)
	users.POST("/auth", Login(db, sessions), ContentTypeJson)
	users.POST("/logout", Logout(sessions))

	users.GET("/profile", GetProfile(), authn)
	users.PUT("/profile", UpdateProfile(db), authn, ContentTypeJson)

	users.GET("", GetUsers(db), authn, AuthorizeAdmin)
	users.POST("/addUser", AddUser(db, mailer, welcomeSubject), authn, AuthorizeAdmin, ContentTypeJson)
	users.GET("/:id", GetUser(db), authn, AuthorizeAdmin)
	users.PUT("/:id", UpdateUser(db), authn, AuthorizeAdmin, ContentTypeJson)
	users.DELETE("/:id", DeleteUser(db), authn, AuthorizeAdmin)
}
