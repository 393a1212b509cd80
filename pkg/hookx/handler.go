package hookx

import (
	"errors"
	"net/url"

	"github.com/Abraxas-365/mandrillx/pkg/errx"
	"github.com/Abraxas-365/mandrillx/pkg/logx"
	"github.com/gofiber/fiber/v2"
)

const eventsField = "mandrill_events"

// Handler serves the Mandrill webhook endpoint.
type Handler struct {
	auth       *Authenticator
	dispatcher *Dispatcher
}

// NewHandler creates a webhook handler.
func NewHandler(auth *Authenticator, dispatcher *Dispatcher) *Handler {
	return &Handler{auth: auth, dispatcher: dispatcher}
}

// RegisterRoutes mounts HEAD and POST on path.
func (h *Handler) RegisterRoutes(router fiber.Router, path string) {
	router.Head(path, h.Authenticate(), h.Head)
	router.Post(path, h.Authenticate(), h.Post)
}

// Authenticate checks the query secret and, on POST, the signature.
func (h *Handler) Authenticate() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if err := h.auth.CheckSecret(c.Query(h.auth.SecretName())); err != nil {
			return writeError(c, err)
		}

		if c.Method() == fiber.MethodPost && h.auth.SigningEnabled() {
			if err := h.auth.VerifySignature(c.Get(SignatureHeader), postForm(c)); err != nil {
				return writeError(c, err)
			}
		}

		return c.Next()
	}
}

// Head answers Mandrill's URL validation request.
func (h *Handler) Head(c *fiber.Ctx) error {
	return c.SendStatus(fiber.StatusOK)
}

// Post decodes mandrill_events and dispatches every event.
func (h *Handler) Post(c *fiber.Ctx) error {
	events, err := DecodeEvents(c.FormValue(eventsField))
	if err != nil {
		return writeError(c, err)
	}

	if err := h.dispatcher.Dispatch(c.UserContext(), events); err != nil {
		return writeError(c, err)
	}

	logx.WithField("events", len(events)).Debug("hookx: webhook batch dispatched")
	return c.SendStatus(fiber.StatusOK)
}

func postForm(c *fiber.Ctx) url.Values {
	form := url.Values{}
	c.Request().PostArgs().VisitAll(func(key, value []byte) {
		form.Add(string(key), string(value))
	})
	return form
}

func writeError(c *fiber.Ctx, err error) error {
	var e *errx.Error
	if !errors.As(err, &e) {
		e = errx.Wrap(err, "Webhook request failed", errx.TypeInternal)
	}

	entry := logx.WithFields(logx.Fields{
		"path":   c.Path(),
		"method": c.Method(),
		"ip":     c.IP(),
		"code":   e.Code,
	}).WithError(err)
	if e.HTTPStatus >= fiber.StatusInternalServerError {
		entry.Error("hookx: webhook request failed")
	} else {
		entry.Warn("hookx: webhook request rejected")
	}

	return c.Status(e.HTTPStatus).JSON(e.ToHTTPResponse(false))
}
