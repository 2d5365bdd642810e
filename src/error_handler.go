package main

import (
	"fmt"
	"net/http"
	"runtime"
	"runtime/debug"
	"strings"

	"github.com/getsentry/raven-go"
	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"
)

type (
	ErrorHandlerFunc func(recovery interface{}, c *gin.Context)
)

func ErrorHandler(handlers ...ErrorHandlerFunc) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			rec := recover()
			for _, handler := range handlers {
				handler(rec, c)
			}

			if rec != nil || len(c.Errors) > 0 {
				c.Abort()
			}
		}()

		c.Next()
	}
}

func ErrorResponseHandler() ErrorHandlerFunc {
	return func(recovery interface{}, c *gin.Context) {
		publicErrors := c.Errors.ByType(gin.ErrorTypePublic)
		privateLen := len(c.Errors.ByType(gin.ErrorTypePrivate))
		publicLen := len(publicErrors)

		if privateLen == 0 && publicLen == 0 && recovery == nil {
			return
		}

		messages := make([]string, 0, publicLen+1)
		for _, err := range publicErrors {
			messages = append(messages, err.Error())
		}

		if privateLen > 0 || recovery != nil {
			messages = append(messages, newLocalizer(c.GetHeader("Accept-Language")).Message("error_save"))
		}

		c.JSON(http.StatusInternalServerError, gin.H{"ok": false, "error": messages})
	}
}

func ErrorCaptureHandler(client *raven.Client, errorsStacktrace bool) ErrorHandlerFunc {
	return func(recovery interface{}, c *gin.Context) {
		tags := map[string]string{
			"endpoint": endpoint(c),
		}

		if token := c.Param("token"); token != "" {
			tags["bot"] = GetBotID(token)
		}

		if recovery != nil {
			stacktrace := raven.NewStacktrace(4, 3, nil)
			recStr := fmt.Sprint(recovery)
			err := errors.New(recStr)
			go client.CaptureMessageAndWait(
				recStr,
				tags,
				raven.NewException(err, stacktrace),
			)
		}

		for _, err := range c.Errors {
			if errorsStacktrace {
				stacktrace := NewRavenStackTrace(client, err.Err, 0)
				go client.CaptureMessageAndWait(
					err.Error(),
					tags,
					raven.NewException(err.Err, stacktrace),
				)
			} else {
				go client.CaptureErrorAndWait(err.Err, tags)
			}
		}
	}
}

func PanicLogger() ErrorHandlerFunc {
	return func(recovery interface{}, c *gin.Context) {
		if recovery != nil {
			logger.Error(endpoint(c), recovery)
			debug.PrintStack()
		}
	}
}

func ErrorLogger() ErrorHandlerFunc {
	return func(recovery interface{}, c *gin.Context) {
		for _, err := range c.Errors {
			logger.Errorf("%s %+v", endpoint(c), err.Err)
		}
	}
}

// endpoint is the request path with the bot token (a secret) reduced to the bot id
func endpoint(c *gin.Context) string {
	path := c.Request.URL.Path
	if token := c.Param("token"); token != "" {
		path = strings.Replace(path, token, GetBotID(token), 1)
	}

	return path
}

// NewRavenStackTrace prefers the stack recorded by pkg/errors over the current one
func NewRavenStackTrace(client *raven.Client, err error, skip int) *raven.Stacktrace {
	if st := causeStackTrace(err); st != nil {
		var frames []*raven.StacktraceFrame
		for _, f := range st {
			pc := uintptr(f) - 1
			file, line := "unknown", 0
			if fn := runtime.FuncForPC(pc); fn != nil {
				file, line = fn.FileLine(pc)
			}
			if frame := raven.NewStacktraceFrame(pc, file, line, 3, client.IncludePaths()); frame != nil {
				frames = append(frames, frame)
			}
		}

		if len(frames) > 0 {
			for i, j := 0, len(frames)-1; i < j; i, j = i+1, j-1 {
				frames[i], frames[j] = frames[j], frames[i]
			}
			return &raven.Stacktrace{Frames: frames}
		}
	}

	return raven.NewStacktrace(skip, 3, client.IncludePaths())
}

// causeStackTrace walks the Cause chain and keeps the deepest recorded stack
func causeStackTrace(err error) errors.StackTrace {
	var st errors.StackTrace
	for err != nil {
		if s, ok := err.(interface{ StackTrace() errors.StackTrace }); ok {
			st = s.StackTrace()
		}

		c, ok := err.(interface{ Cause() error })
		if !ok {
			break
		}
		err = c.Cause()
	}

	return st
}
