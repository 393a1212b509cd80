package main

import (
	"errors"
	"time"

	"github.com/Abraxas-365/mandrillx/pkg/errx"
	"github.com/Abraxas-365/mandrillx/pkg/logx"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

var webhookCmd = &cobra.Command{
	Use:   "webhook",
	Short: "Serve the Mandrill webhook endpoint",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		c := NewContainer(cfg)
		defer c.Cleanup()

		handler, err := c.Webhook(ctx)
		if err != nil {
			return err
		}

		app := newApp()
		handler.RegisterRoutes(app, cfg.Webhook.Path)
		app.Use(notFoundHandler)

		errCh := make(chan error, 1)
		go func() {
			logx.Infof("Webhook listening on %s%s", cfg.Webhook.Addr, cfg.Webhook.Path)
			errCh <- app.Listen(cfg.Webhook.Addr)
		}()

		select {
		case err := <-errCh:
			return err
		case <-ctx.Done():
		}

		logx.Info("Shutting down gracefully...")
		if err := app.ShutdownWithTimeout(30 * time.Second); err != nil {
			logx.Errorf("Server forced to shutdown: %v", err)
		}
		return nil
	},
}

func newApp() *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:               "mandrillx webhook",
		DisableStartupMessage: true,
		ErrorHandler:          globalErrorHandler,
		BodyLimit:             10 * 1024 * 1024, // Mandrill batches up to 1000 events
	})

	app.Use(recover.New(recover.Config{EnableStackTrace: true}))
	app.Use(requestid.New(requestid.Config{
		Header:    "X-Request-ID",
		Generator: uuid.NewString,
	}))
	app.Use(logger.New(logger.Config{
		Format:     "${time} | ${status} | ${latency} | ${method} ${path} | ${ip} | ${reqHeader:X-Request-ID}\n",
		TimeFormat: "2006-01-02 15:04:05",
	}))

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "healthy"})
	})
	return app
}

func notFoundHandler(c *fiber.Ctx) error {
	return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
		"error":      "Route not found",
		"code":       "NOT_FOUND",
		"path":       c.Path(),
		"method":     c.Method(),
		"request_id": c.Get("X-Request-ID"),
	})
}

// globalErrorHandler converts errors that escaped a handler to JSON.
func globalErrorHandler(c *fiber.Ctx, err error) error {
	logx.WithFields(logx.Fields{
		"path":       c.Path(),
		"method":     c.Method(),
		"request_id": c.Get("X-Request-ID"),
	}).Errorf("Request error: %v", err)

	var fe *fiber.Error
	if errors.As(err, &fe) {
		return c.Status(fe.Code).JSON(fiber.Map{
			"error":      fe.Message,
			"code":       "FIBER_ERROR",
			"status":     fe.Code,
			"request_id": c.Get("X-Request-ID"),
		})
	}

	var e *errx.Error
	if errors.As(err, &e) {
		return c.Status(e.HTTPStatus).JSON(e.ToHTTPResponse(false))
	}

	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
		"error":      "Internal Server Error",
		"code":       "INTERNAL_ERROR",
		"request_id": c.Get("X-Request-ID"),
	})
}
