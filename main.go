// Package main library management API.
//
// @title           Librarium API
// @version         1.0
// @description     Library management service (books, copies, loans, reservations, users).
// @BasePath        /
// @schemes         http
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description  Use:  Bearer <JWT>
package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/robfig/cron/v3"
	echoSwagger "github.com/swaggo/echo-swagger"

	"librarium/app/echoServer"
	authctrl "librarium/app/echoServer/controller/auth"
	bookctrl "librarium/app/echoServer/controller/book"
	catalogctrl "librarium/app/echoServer/controller/catalog"
	copyctrl "librarium/app/echoServer/controller/copy"
	loanctrl "librarium/app/echoServer/controller/loan"
	reservationctrl "librarium/app/echoServer/controller/reservation"
	userctrl "librarium/app/echoServer/controller/user"
	"librarium/app/echoServer/validation"
	"librarium/config"
	bookrepo "librarium/repository/book"
	copyrepo "librarium/repository/copy"
	googlebooksrepo "librarium/repository/googlebooks"
	loanrepo "librarium/repository/loan"
	reservationrepo "librarium/repository/reservation"
	userrepo "librarium/repository/user"
	authsvc "librarium/service/auth"
	booksvc "librarium/service/book"
	catalogsvc "librarium/service/catalog"
	copysvc "librarium/service/copy"
	loansvc "librarium/service/loan"
	reservationsvc "librarium/service/reservation"
	usersvc "librarium/service/user"
	"librarium/util/clock"
	"librarium/util/database"
)

func main() {

	cfg := config.Load()
	ctx := context.Background()

	// logger
	log := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	// DB
	db, err := database.New(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Error("db connect failed", "err", err)
		os.Exit(1)
	}
	defer db.Close()

	txr := database.NewTxRunner(db)
	clk := clock.System()

	// repos
	ur := userrepo.New(db)
	br := bookrepo.New(db)
	cr := copyrepo.New(db)
	lr := loanrepo.New(db)
	rr := reservationrepo.New(db)
	gb := googlebooksrepo.NewHTTP(cfg.GoogleBooksKey)

	// services
	as := authsvc.New(ur, cfg.JWTSecret)
	bs := booksvc.New(br)
	cs := copysvc.New(txr, cr, br, lr, rr)
	rs := reservationsvc.New(txr, rr, cr, lr, clk)
	ls := loansvc.New(txr, lr, rr, cr, rs, clk)
	cats := catalogsvc.New(gb, br)
	us := usersvc.New(ur)

	// controllers
	v := validator.New()
	authC := &authctrl.Controller{Svc: as, V: v, Log: log}
	bookC := &bookctrl.Controller{Svc: bs, V: v, Log: log}
	copyC := &copyctrl.Controller{Svc: cs, V: v, Log: log}
	loanC := &loanctrl.Controller{Svc: ls, V: v, Log: log}
	reservationC := &reservationctrl.Controller{Svc: rs, V: v, Log: log}
	catalogC := &catalogctrl.Controller{Svc: cats, Log: log}
	userC := &userctrl.Controller{Svc: us, V: v, Log: log}

	// echo
	e := echo.New()
	e.JSONSerializer = echoServer.JSONSerializer{}
	echoServer.RegisterMiddlewares(e)
	e.Validator = validation.New()

	e.GET("/health", func(c echo.Context) error {
		return c.JSON(200, map[string]any{
			"status":  "ok",
			"message": "Service is healthy and connected",
		})
	})

	e.GET("/swagger/*", echoSwagger.WrapHandler)

	echoServer.Register(e, echoServer.C{
		Auth:        authC,
		Book:        bookC,
		Copy:        copyC,
		Loan:        loanC,
		Reservation: reservationC,
		Catalog:     catalogC,
		User:        userC,

		JWTSecret: cfg.JWTSecret,
	})

	// hourly maintenance: expire stale holds, flag overdue loans
	sched := cron.New()
	if _, err := sched.AddFunc("@hourly", func() {
		if n, err := rs.Expire(ctx); err != nil {
			log.Error("reservation expiration sweep failed", "err", err)
		} else if n > 0 {
			log.Info("expired reservations", "count", n)
		}
		if n, err := ls.MarkOverdue(ctx); err != nil {
			log.Error("overdue sweep failed", "err", err)
		} else if n > 0 {
			log.Info("marked loans overdue", "count", n)
		}
	}); err != nil {
		log.Error("cron setup failed", "err", err)
		os.Exit(1)
	}
	sched.Start()
	defer sched.Stop()

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.Port
	}
	if port == "" {
		port = "8080"
	}

	log.Info("starting server", "port", port, "env", cfg.Env)

	e.Logger.Fatal(e.Start(":" + port))
}
