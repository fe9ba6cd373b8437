package server

import (
	"errors"
	"strconv"
	"strings"
	"time"

	"socialgraph/internal/middleware"
	"socialgraph/internal/models"
	"socialgraph/internal/service"
	"socialgraph/internal/storage"

	"github.com/gofiber/fiber/v2"
)

// errResponseWritten is a sentinel indicating the HTTP response was already
// committed by a helper. Handlers must return nil (not this error) to avoid
// Fiber's ErrorHandler overwriting the response.
var errResponseWritten = errors.New("response already written")

// Pagination holds parsed limit/offset query parameters.
type Pagination struct {
	Limit  int
	Offset int
}

const maxPaginationLimit = 100

// parsePagination extracts limit and offset query parameters with the given default limit.
func parsePagination(c *fiber.Ctx, defaultLimit int) Pagination {
	limit := c.QueryInt("limit", defaultLimit)
	if limit <= 0 {
		limit = defaultLimit
	}
	if limit > maxPaginationLimit {
		limit = maxPaginationLimit
	}

	offset := c.QueryInt("offset", 0)
	if offset < 0 {
		offset = 0
	}

	return Pagination{Limit: limit, Offset: offset}
}

// parseID extracts a route parameter by name as a positive uint.
// On failure it writes a 400 JSON response and returns errResponseWritten.
// Callers should check: if err != nil { return nil }
func parseID(c *fiber.Ctx, param, resource string) (uint, error) {
	id, err := c.ParamsInt(param)
	if err != nil || id <= 0 {
		_ = models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewInvalidOperationError("Invalid "+resource+" ID"))
		return 0, errResponseWritten
	}
	return uint(id), nil
}

// parseFeedCursor reads the optional "before" (RFC 3339) and "before_id"
// feed cursor. before_id is only meaningful together with before.
func parseFeedCursor(c *fiber.Ctx) (service.FeedCursor, error) {
	var cursor service.FeedCursor
	raw := strings.TrimSpace(c.Query("before"))
	rawID := strings.TrimSpace(c.Query("before_id"))
	if raw == "" {
		if rawID != "" {
			_ = models.RespondWithError(c, fiber.StatusBadRequest,
				models.NewInvalidOperationError("before_id requires before"))
			return cursor, errResponseWritten
		}
		return cursor, nil
	}

	before, err := time.Parse(time.RFC3339Nano, raw)
	if err != nil {
		_ = models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewInvalidOperationError("before must be an RFC 3339 timestamp"))
		return cursor, errResponseWritten
	}
	cursor.Before = &before

	if rawID != "" {
		id, err := strconv.ParseUint(rawID, 10, 64)
		if err != nil || id == 0 {
			_ = models.RespondWithError(c, fiber.StatusBadRequest,
				models.NewInvalidOperationError("before_id must be a positive integer"))
			return cursor, errResponseWritten
		}
		cursor.BeforeID = uint(id)
	}
	return cursor, nil
}

// decodeImageField turns an optional base64 body field into raw bytes.
func decodeImageField(field string) ([]byte, error) {
	if strings.TrimSpace(field) == "" {
		return nil, nil
	}
	return storage.DecodeBase64Image(field)
}

// respondResult renders a mutation result. Successful results use
// successStatus, declined ones the status of their code, and faults the
// generic error envelope.
func respondResult[T any](c *fiber.Ctx, successStatus int, res *models.Result[T], err error) error {
	if err != nil {
		return respondError(c, err)
	}
	status := successStatus
	if !res.Success {
		status = models.StatusFor(res.Code)
	}
	return c.Status(status).JSON(res)
}

// respondDeclined renders err as a declined result of type T, or as a fault.
func respondDeclined[T any](c *fiber.Ctx, err error) error {
	res, err := models.Outcome[T](err)
	return respondResult(c, fiber.StatusOK, res, err)
}

// respondError renders a read failure or fault with the status of its code.
func respondError(c *fiber.Ctx, err error) error {
	status := models.StatusFor(models.CodeOf(err))
	if status >= fiber.StatusInternalServerError {
		middleware.Logger.ErrorContext(c.UserContext(), "request failed",
			"path", c.Path(), "status", status, "error", err)
	}
	return models.RespondWithError(c, status, err)
}
