package logging

import (
	"context"
	"io"
	"os"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
)

// SetupLogger builds the process logger and attaches it to ctx.
// Local environments get a console writer, everything else JSON on stdout.
func SetupLogger(ctx context.Context, env, level string) (context.Context, *zerolog.Logger) {
	var w io.Writer = os.Stdout
	if env == "local" {
		w = zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}
	}

	lvl, err := zerolog.ParseLevel(level)
	if err != nil || lvl == zerolog.NoLevel {
		lvl = zerolog.InfoLevel
	}

	l := zerolog.New(w).With().Timestamp().Logger().Level(lvl)
	return l.WithContext(ctx), &l
}

// Middleware attaches logger to each request context and logs the outcome
func Middleware(logger zerolog.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			req := c.Request()

			reqLogger := logger.With().
				Str("method", req.Method).
				Str("path", c.Path()).
				Logger()
			c.SetRequest(req.WithContext(reqLogger.WithContext(req.Context())))

			err := next(c)
			if err != nil {
				c.Error(err)
			}

			reqLogger.Info().
				Int("status", c.Response().Status).
				Dur("latency", time.Since(start)).
				Msg("request handled")
			return nil
		}
	}
}
