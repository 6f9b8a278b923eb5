package http

import (
	"log"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/pubshelf/internal/publication"
)

// maxCoverDimension bounds requested cover sizes so clients cannot fill the
// cache with arbitrary renditions.
const maxCoverDimension = 4096

// --- Response Types ---

// ErrorResponse is the standard error response format for all API errors.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"` // machine-readable error code
}

// SuccessResponse is a standard success response with optional data.
type SuccessResponse struct {
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

// --- Error Response Helpers ---

func respondBadRequest(c *gin.Context, message string) {
	c.JSON(http.StatusBadRequest, ErrorResponse{Error: message})
}

func respondNotFound(c *gin.Context, resource string) {
	c.JSON(http.StatusNotFound, ErrorResponse{Error: resource + " not found"})
}

// respondInternalError logs err and hides it from the client.
func respondInternalError(c *gin.Context, err error, context string) {
	log.Printf("Internal error (%s): %v", context, err)
	c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
}

// --- Success Response Helpers ---

func respondSuccess(c *gin.Context, message string) {
	c.JSON(http.StatusOK, SuccessResponse{Message: message})
}

func respondAccepted(c *gin.Context, message string, data any) {
	c.JSON(http.StatusAccepted, SuccessResponse{Message: message, Data: data})
}

// --- Parameter Parsing ---

// parseIDParam extracts and validates an unsigned integer ID from URL parameters.
// Returns the parsed ID or responds with a 400 error and returns 0, false.
func parseIDParam(c *gin.Context, paramName string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(paramName), 10, 32)
	if err != nil {
		respondBadRequest(c, "invalid "+paramName)
		return 0, false
	}
	return uint(id), true
}

// parseSizeQuery reads the "width" and "height" query parameters. Both absent
// yields the zero Size; otherwise both must be positive and within bounds.
// On failure it responds with a 400 error and returns false.
func parseSizeQuery(c *gin.Context) (publication.Size, bool) {
	widthStr, heightStr := c.Query("width"), c.Query("height")
	if widthStr == "" && heightStr == "" {
		return publication.Size{}, true
	}
	if widthStr == "" || heightStr == "" {
		respondBadRequest(c, "width and height must be given together")
		return publication.Size{}, false
	}

	width, errW := strconv.Atoi(widthStr)
	height, errH := strconv.Atoi(heightStr)
	size := publication.Size{Width: width, Height: height}
	if errW != nil || errH != nil || !size.Valid() {
		respondBadRequest(c, "width and height must be positive integers")
		return publication.Size{}, false
	}
	if width > maxCoverDimension || height > maxCoverDimension {
		respondBadRequest(c, "requested cover size is too large")
		return publication.Size{}, false
	}
	return size, true
}
