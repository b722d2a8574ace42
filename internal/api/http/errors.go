package http

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/GriffinCanCode/taskdock/internal/domain/installer"
	"github.com/GriffinCanCode/taskdock/internal/domain/process"
	"github.com/GriffinCanCode/taskdock/internal/shared/paths"
	"github.com/GriffinCanCode/taskdock/internal/shared/types"
	"github.com/gin-gonic/gin"
)

// statusFor maps domain errors onto HTTP status codes
func statusFor(err error) int {
	switch {
	case errors.Is(err, paths.ErrInvalidName),
		errors.Is(err, types.ErrUnknownKind),
		errors.Is(err, process.ErrInvalidPID):
		return http.StatusBadRequest
	case errors.Is(err, process.ErrAppNotFound),
		errors.Is(err, process.ErrPortNotDetected):
		return http.StatusNotFound
	case errors.Is(err, process.ErrNoPortDeclared),
		errors.Is(err, installer.ErrUnsupportedArchive):
		return http.StatusUnprocessableEntity
	case errors.Is(err, installer.ErrDownloadFailed):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func respondError(c *gin.Context, err error) {
	resp := gin.H{
		"success": false,
		"error":   err.Error(),
	}

	var startup *process.StartupError
	if errors.As(err, &startup) {
		resp["exit_code"] = startup.ExitCode
		resp["output"] = startup.Output
	}

	_ = c.Error(err)
	c.JSON(statusFor(err), resp)
}

func badRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, gin.H{
		"success": false,
		"error":   msg,
	})
}

// kindParam parses the :kind path parameter, replying 400 on failure
func kindParam(c *gin.Context) (types.Kind, bool) {
	kind, err := types.ParseKind(c.Param("kind"))
	if err != nil {
		badRequest(c, err.Error())
		return "", false
	}
	return kind, true
}

// pidParam parses the :pid path parameter, replying 400 on failure
func pidParam(c *gin.Context) (int, bool) {
	pid, err := strconv.Atoi(c.Param("pid"))
	if err != nil || pid <= 0 {
		badRequest(c, "invalid pid: "+c.Param("pid"))
		return 0, false
	}
	return pid, true
}
