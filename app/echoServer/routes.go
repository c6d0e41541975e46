package echoServer

import (
	"librarium/app/echoServer/controller/auth"
	"librarium/app/echoServer/controller/book"
	"librarium/app/echoServer/controller/catalog"
	"librarium/app/echoServer/controller/copy"
	"librarium/app/echoServer/controller/loan"
	"librarium/app/echoServer/controller/reservation"
	"librarium/app/echoServer/controller/user"
	"librarium/model"

	"github.com/golang-jwt/jwt/v5"
	echojwt "github.com/labstack/echo-jwt/v4"
	"github.com/labstack/echo/v4"
)

type C struct {
	Auth        *auth.Controller
	Book        *book.Controller
	Copy        *copy.Controller
	Loan        *loan.Controller
	Reservation *reservation.Controller
	Catalog     *catalog.Controller
	User        *user.Controller

	JWTSecret string
}

func Register(e *echo.Echo, c C) {
	// Public
	pub := e.Group("/v1")
	pub.POST("/auth/register", c.Auth.Register)
	pub.POST("/auth/login", c.Auth.Login)

	// Authenticated
	v1 := e.Group("/v1")
	v1.Use(echojwt.WithConfig(echojwt.Config{
		SigningKey: []byte(c.JWTSecret),
		NewClaimsFunc: func(echo.Context) jwt.Claims {
			return jwt.MapClaims{}
		},
	}))

	staff := RequireRole(model.RoleAdmin, model.RoleLibrarian)
	admin := RequireRole(model.RoleAdmin)

	// Profile & 2FA
	v1.GET("/auth/profile", c.Auth.Profile)
	v1.POST("/auth/2fa/enable", c.Auth.Enable2FA)
	v1.POST("/auth/2fa/verify", c.Auth.Verify2FA)

	// Books
	v1.GET("/books", c.Book.List)
	v1.GET("/books/:id", c.Book.Get)
	v1.POST("/books", c.Book.Create, staff)
	v1.PATCH("/books/:id", c.Book.Update, staff)
	v1.DELETE("/books/:id", c.Book.Delete, admin)

	// Copies
	v1.GET("/copies", c.Copy.List)
	v1.GET("/copies/available", c.Copy.ListAvailable)
	v1.GET("/copies/:id", c.Copy.Get)
	v1.GET("/copies/:id/availability", c.Copy.Availability)
	v1.POST("/copies", c.Copy.Create, staff)
	v1.PATCH("/copies/:id", c.Copy.Update, staff)
	v1.PATCH("/copies/:id/status", c.Copy.UpdateStatus, staff)
	v1.DELETE("/copies/:id", c.Copy.Delete, admin)

	// Loans
	v1.POST("/loans", c.Loan.Create)
	v1.GET("/loans", c.Loan.List, staff)
	v1.GET("/loans/my", c.Loan.My)
	v1.GET("/loans/stats", c.Loan.Stats, staff)
	v1.GET("/loans/:id", c.Loan.Get)
	v1.PATCH("/loans/:id/return", c.Loan.Return, staff)
	v1.POST("/loans/overdue/sweep", c.Loan.OverdueSweep, staff)
	v1.DELETE("/loans/:id", c.Loan.Delete, staff)

	// Reservations
	v1.POST("/reservations", c.Reservation.Create)
	v1.GET("/reservations", c.Reservation.List, staff)
	v1.GET("/reservations/my", c.Reservation.My)
	v1.GET("/reservations/pending", c.Reservation.Pending, staff)
	v1.GET("/reservations/stats", c.Reservation.Stats, staff)
	v1.GET("/reservations/:id", c.Reservation.Get)
	v1.PATCH("/reservations/:id/fulfill", c.Reservation.Fulfill, staff)
	v1.PATCH("/reservations/:id/cancel", c.Reservation.Cancel)
	v1.POST("/reservations/expire", c.Reservation.Expire, admin)
	v1.DELETE("/reservations/:id", c.Reservation.Delete)

	// User administration
	v1.GET("/users", c.User.List, admin)
	v1.GET("/users/:id", c.User.Get, admin)
	v1.PATCH("/users/:id", c.User.Update, admin)
	v1.DELETE("/users/:id", c.User.Delete, admin)
	v1.POST("/users/:id/2fa/disable", c.User.Disable2FA, admin)

	// Catalog enrichment
	v1.GET("/catalog/search", c.Catalog.Search)
	v1.GET("/catalog/isbn/:isbn", c.Catalog.ByISBN)
	v1.POST("/catalog/import/:isbn", c.Catalog.Import, staff)
}
