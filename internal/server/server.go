package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"

	"github.com/modelgateway/azure-openai-proxy/internal/apierror"
	"github.com/modelgateway/azure-openai-proxy/internal/config"
	"github.com/modelgateway/azure-openai-proxy/internal/credentials"
	"github.com/modelgateway/azure-openai-proxy/internal/middleware"
	"github.com/modelgateway/azure-openai-proxy/internal/providers"
	"github.com/modelgateway/azure-openai-proxy/internal/providers/azure"
	"github.com/modelgateway/azure-openai-proxy/internal/providers/github"
	"github.com/modelgateway/azure-openai-proxy/internal/registry"
	"github.com/modelgateway/azure-openai-proxy/internal/types"
	"github.com/modelgateway/azure-openai-proxy/internal/validation"
)

// Server is the gateway entry point: it composes configuration resolution,
// validation, credential resolution and provider dispatch per request. The
// only state shared across requests is the credential cache.
type Server struct {
	httpServer  *http.Server
	logger      *logrus.Logger
	config      *Config
	getenv      config.Getenv
	credentials *credentials.Resolver
	validation  *middleware.ValidationMiddleware
}

// Config holds server configuration
type Config struct {
	Port           string
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
	MaxHeaderBytes int
	CredentialTTL  time.Duration
	Validation     *middleware.ValidationConfig
}

// NewServer creates a server reading configuration from the process
// environment.
func NewServer(cfg *Config, logger *logrus.Logger) (*Server, error) {
	return NewServerWithEnv(cfg, logger, os.Getenv)
}

// NewServerWithEnv injects the environment lookup, for tests.
func NewServerWithEnv(cfg *Config, logger *logrus.Logger, getenv config.Getenv) (*Server, error) {
	vm, err := middleware.NewValidationMiddleware(cfg.Validation, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize validation middleware: %w", err)
	}

	cache := credentials.NewCache(cfg.CredentialTTL)
	return &Server{
		logger:      logger,
		config:      cfg,
		getenv:      getenv,
		credentials: credentials.NewResolver(cache, getenv, logger),
		validation:  vm,
	}, nil
}

// Credentials exposes the resolver, for tests that tune its validator.
func (s *Server) Credentials() *credentials.Resolver {
	return s.credentials
}

// Start starts the HTTP server
func (s *Server) Start() error {
	s.httpServer = &http.Server{
		Addr:           ":" + s.config.Port,
		Handler:        s.Handler(),
		ReadTimeout:    s.config.ReadTimeout,
		WriteTimeout:   s.config.WriteTimeout,
		MaxHeaderBytes: s.config.MaxHeaderBytes,
	}

	s.logger.WithField("port", s.config.Port).Info("Starting Azure OpenAI proxy")
	return s.httpServer.ListenAndServe()
}

// Stop stops the HTTP server gracefully
func (s *Server) Stop(ctx context.Context) error {
	s.logger.Info("Stopping Azure OpenAI proxy")
	return s.httpServer.Shutdown(ctx)
}

// Handler configures all HTTP routes.
func (s *Server) Handler() http.Handler {
	r := mux.NewRouter()

	r.Use(s.loggingMiddleware)
	r.Use(s.corsMiddleware)
	r.Use(s.validation.Middleware)

	api := r.PathPrefix("/v1").Subrouter()
	api.HandleFunc("/chat/completions", s.handleChatCompletion).Methods(http.MethodPost)
	api.HandleFunc("/models", s.handleListModels).Methods(http.MethodGet)

	// Structural failures stay plain text; only the translation core speaks
	// the JSON envelope.
	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "not found", http.StatusNotFound)
	})
	r.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	})

	return r
}

// Handlers

// handleChatCompletion translates an OpenAI-compatible chat completion
// request into a provider-specific upstream call.
func (s *Server) handleChatCompletion(w http.ResponseWriter, r *http.Request) {
	proxy := config.ResolveProxy(s.getenv, s.logger)

	var req types.ChatCompletionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		apierror.Write(w, apierror.InvalidParameters(fmt.Sprintf("invalid request body: %v", err)))
		return
	}
	if req.Model == "" {
		req.Model = proxy.DefaultModel
	}

	if verr := validation.Validate(&req); verr != nil {
		apierror.Write(w, verr)
		return
	}

	// Admissibility is decided by the mapping, before any upstream call.
	deployment, ok := proxy.Mapping.Deployment(req.Model)
	if !ok {
		apierror.Write(w, apierror.ModelNotFound(req.Model))
		return
	}

	upstreamReq := validation.BuildUpstreamRequest(&req, deployment)

	provider, apiErr := s.selectProvider(r, proxy, req.Model)
	if apiErr != nil {
		apierror.Write(w, apiErr)
		return
	}

	upstreamResp, apiErr := provider.ChatCompletion(r.Context(), upstreamReq)
	if apiErr != nil {
		apierror.Write(w, apiErr)
		return
	}

	s.writeJSON(w, http.StatusOK, buildCompletionResponse(upstreamResp, req.Model))
}

// selectProvider picks the upstream for a model based on the registry's
// provider tag; unknown mapped names default to azure.
func (s *Server) selectProvider(r *http.Request, proxy *config.ProxyConfig, model string) (providers.ChatProvider, *apierror.Error) {
	if registry.Lookup(model).Provider == registry.ProviderGitHub {
		var cfg *github.Config
		if proxy.GitHub != nil {
			cfg = &github.Config{
				BaseURL: proxy.GitHub.BaseURL,
				Token:   proxy.GitHub.Credential,
			}
		}
		return github.NewProvider(cfg, s.logger), nil
	}

	key, err := s.credentials.ResolveKey(r, credentials.SlotAzure)
	if err != nil {
		return nil, apierror.InvalidAPIKey()
	}
	return azure.NewProvider(&azure.Config{
		BaseURL:    proxy.Azure.BaseURL,
		APIKey:     key,
		APIVersion: proxy.Azure.APIVersion,
	}, s.logger), nil
}

// handleListModels advertises one entry per mapped model name, with
// capability fields drawn from the registry.
func (s *Server) handleListModels(w http.ResponseWriter, r *http.Request) {
	proxy := config.ResolveProxy(s.getenv, s.logger)
	created := time.Now().Unix()

	data := make([]types.ModelEntry, 0, proxy.Mapping.Len())
	for _, name := range proxy.Mapping.Names() {
		desc := registry.Lookup(name)
		data = append(data, types.ModelEntry{
			ID:            name,
			Object:        "model",
			Created:       created,
			OwnedBy:       desc.Provider,
			Permission:    []interface{}{},
			Root:          name,
			Parent:        nil,
			ContextWindow: desc.ContextWindow,
			MaxTokens:     desc.MaxOutputTokens,
		})
	}

	s.writeJSON(w, http.StatusOK, types.ModelsResponse{Object: "list", Data: data})
}

// buildCompletionResponse wraps the upstream's first choice in the fixed
// response envelope. A missing content field yields an empty string, never an
// error, and the upstream finish reason is discarded.
func buildCompletionResponse(upstream *types.UpstreamResponse, model string) *types.ChatCompletionResponse {
	content := ""
	if len(upstream.Choices) > 0 {
		content = upstream.Choices[0].Message.Content
	}

	return &types.ChatCompletionResponse{
		ID:      "chatcmpl-" + uuid.NewString(),
		Object:  "chat.completion",
		Created: time.Now().Unix(),
		Model:   model,
		Choices: []types.Choice{
			{
				Index:        0,
				Message:      types.Message{Role: "assistant", Content: content},
				FinishReason: "stop",
			},
		},
	}
}

// Middleware

func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		wrapped := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next.ServeHTTP(wrapped, r)

		s.logger.WithFields(logrus.Fields{
			"method":      r.Method,
			"path":        r.URL.Path,
			"status":      wrapped.statusCode,
			"duration_ms": time.Since(start).Milliseconds(),
			"remote_addr": r.RemoteAddr,
		}).Info("HTTP request")
	})
}

func (s *Server) corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, api-key")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// Helper functions

func (s *Server) writeJSON(w http.ResponseWriter, statusCode int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		s.logger.WithError(err).Error("Failed to encode response body")
	}
}

// responseWriter wraps http.ResponseWriter to capture status code
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}
