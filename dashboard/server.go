package dashboard

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"cryptointel/setup"
)

// NewRouter builds the dashboard router
func NewRouter(sys *setup.Bootstrap) (*mux.Router, error) {
	h, err := NewHandler(sys)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize dashboard handler: %w", err)
	}

	r := mux.NewRouter()
	h.RegisterRoutes(r)
	r.Use(h.logRequests)
	return r, nil
}

// Serve runs the dashboard on addr until ctx is done
func Serve(ctx context.Context, sys *setup.Bootstrap, addr string) error {
	router, err := NewRouter(sys)
	if err != nil {
		return err
	}

	srv := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	sys.Logger.Info("dashboard listening", zap.String("addr", addr))

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("dashboard server failed: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shut down dashboard: %w", err)
	}
	return nil
}

func (h *Handler) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		h.logger.Debug("request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Duration("duration", time.Since(start)))
	})
}
