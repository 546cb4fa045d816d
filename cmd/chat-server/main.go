package main

import (
	"context"
	"errors"
	"html/template"
	"io"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/labstack/gommon/log"
	"github.com/nrednav/cuid2"

	"github.com/DemioMAD/demiochatplus/internal/blobstore"
	"github.com/DemioMAD/demiochatplus/internal/boot"
	"github.com/DemioMAD/demiochatplus/internal/handlers"
	"github.com/DemioMAD/demiochatplus/internal/hub"
	"github.com/DemioMAD/demiochatplus/internal/msgstore"
	"github.com/DemioMAD/demiochatplus/internal/service/chat"
	"github.com/DemioMAD/demiochatplus/internal/service/session"
	"github.com/DemioMAD/demiochatplus/internal/store"
	"github.com/DemioMAD/demiochatplus/internal/userstore"
)

type Template struct {
	templates *template.Template
	watcher   *fsnotify.Watcher
}

func (t *Template) Render(w io.Writer, name string, data interface{}, c echo.Context) error {
	return t.templates.ExecuteTemplate(w, name, data)
}

func (t *Template) Watch() {
	var err error

	t.watcher, err = fsnotify.NewWatcher()
	if err != nil {
		log.Fatalf("watcher: %+v", err)
	}

	go func() {
		for {
			select {
			case event, ok := <-t.watcher.Events:
				if !ok {
					return
				}
				if event.Has(fsnotify.Write) {
					log.Infof("modified file: %s", event.Name)
					t.templates = template.Must(template.ParseGlob("ui/views/*.html"))
				}
			case err, ok := <-t.watcher.Errors:
				if !ok {
					return
				}
				log.Errorf("watcher: %+v", err)
			}
		}
	}()

	err = t.watcher.Add("./ui/views")
	if err != nil {
		log.Fatalf("watcher: %+v", err)
	}
}

func (t *Template) Close() {
	if t.watcher != nil {
		t.watcher.Close()
	}
}

func NewTemplate() (*Template, error) {
	t := &Template{
		templates: template.Must(template.ParseGlob("ui/views/*.html")),
	}
	return t, nil
}

func main() {
	config, err := boot.Load()
	if err != nil {
		log.Fatalf("boot: %+v", err)
	}

	db, err := store.Open(config)
	if err != nil {
		log.Fatalf("opening store: %+v", err)
	}
	defer db.Close()

	users, err := userstore.New(db)
	if err != nil {
		log.Fatalf("creating user store: %+v", err)
	}
	messages, err := msgstore.New(db)
	if err != nil {
		log.Fatalf("creating message store: %+v", err)
	}
	blobs, err := blobstore.New(config)
	if err != nil {
		log.Fatalf("creating blob store: %+v", err)
	}

	feedHub := hub.New()
	defer feedHub.Close()

	sessionService, err := session.New(users)
	if err != nil {
		log.Fatalf("creating session service: %+v", err)
	}
	chatService := chat.New(messages, feedHub)

	server := echo.New()
	server.Use(middleware.BodyLimit("100M"))
	server.Use(middleware.RequestIDWithConfig(middleware.RequestIDConfig{
		Generator: func() string {
			return cuid2.Generate()
		},
	}))
	server.Use(echoprometheus.NewMiddleware("demiochatplus"))
	server.Use(middleware.Recover())

	server.Logger.SetLevel(log.INFO)

	headers := []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization}
	server.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins:     []string{"*"},
		AllowHeaders:     headers,
		AllowCredentials: true,
	}))

	server.Static("/static", "ui/static")

	t, _ := NewTemplate()
	defer t.Close()
	if config.IsDevelopment() {
		t.Watch()
	}
	server.Renderer = t

	server.GET("/", func(c echo.Context) error {
		return c.Render(http.StatusOK, "app.html", nil)
	})

	server.POST("/auth/register", handlers.Register(sessionService))
	server.POST("/auth/login", handlers.Login(sessionService))
	server.POST("/auth/logout", handlers.Logout(sessionService))
	server.GET("/auth/me", handlers.Me(sessionService))
	server.DELETE("/auth/me", handlers.DeactivateAccount(sessionService))
	server.GET("/.well-known/jwks.json", handlers.JWKS(sessionService))

	server.GET("/messages", handlers.ListMessages(sessionService, chatService))
	server.POST("/messages", handlers.PostMessage(sessionService, chatService))
	server.DELETE("/messages/:id", handlers.DeleteMessage(sessionService, chatService))

	server.GET("/feed", handlers.Feed(sessionService, feedHub))

	server.POST("/files", handlers.UploadFile(sessionService, blobs))
	server.POST("/files/sign", handlers.SignLink(sessionService, blobs))
	server.GET("/files/download/*", handlers.DownloadFile(blobs))

	go func() {
		metrics := echo.New()
		metrics.GET("/metrics", echoprometheus.NewHandler())
		if err := metrics.Start(":" + config.Server.MetricsPort); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal(err)
		}
	}()

	go func() {
		if err := server.Start(":" + config.Server.Port); err != nil && err != http.ErrServerClosed {
			server.Logger.Fatal("shutting down the server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt)
	<-quit
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		server.Logger.Fatal(err)
	}
}
