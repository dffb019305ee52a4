package host

import (
	"context"
	"encoding/json"
	"net"
	"net/http"
	"strings"

	"github.com/mr-tron/base58"
	"github.com/pkg/errors"
	"github.com/rs/cors"
	"github.com/sirupsen/logrus"
	xrate "golang.org/x/time/rate"

	"github.com/code-payments/wallet-bridge/pkg/bridge"
	"github.com/code-payments/wallet-bridge/pkg/interaction"
	"github.com/code-payments/wallet-bridge/pkg/rate"
)

const (
	v1PathPrefix     = "/v1"
	v1StatePath      = v1PathPrefix + "/state"
	v1StreamPath     = v1PathPrefix + "/stream"
	v1StatusPath     = v1PathPrefix + "/status"
	v1InitPath       = v1PathPrefix + "/init"
	v1ConnectPath    = v1PathPrefix + "/connect"
	v1DisconnectPath = v1PathPrefix + "/disconnect"
	v1IncrementPath  = v1PathPrefix + "/increment"

	contentTypeHeaderName      = "content-type"
	jsonContentTypeHeaderValue = "application/json"
)

var errRateLimited = errors.New("too many requests")

// Controller drives the wallet bridge on behalf of the host.
type Controller interface {
	interaction.SessionSource

	Init(ctx context.Context) error
	Connect(ctx context.Context) error
	Disconnect(ctx context.Context) error
	Status() bridge.Status
	Error() string
}

// Runner runs the demonstration interaction for the current session.
type Runner interface {
	Run(ctx context.Context, source interaction.SessionSource) (*interaction.Result, error)
}

type Server struct {
	log        *logrus.Entry
	conf       *conf
	channel    *Channel
	controller Controller
	runner     Runner
	limiter    rate.Limiter
}

func NewServer(configProvider ConfigProvider, channel *Channel, controller Controller, runner Runner) *Server {
	conf := configProvider()

	ctx := context.Background()
	limiter := rate.NewLocalRateLimiter(
		xrate.Limit(conf.actionsPerSecond.Get(ctx)),
		int(conf.actionBurst.Get(ctx)),
	)

	return &Server{
		log:        logrus.StandardLogger().WithField("type", "host/server"),
		conf:       conf,
		channel:    channel,
		controller: controller,
		runner:     runner,
		limiter:    limiter,
	}
}

func (s *Server) stateHandler(path string) func(w http.ResponseWriter, r *http.Request) {
	return func(w http.ResponseWriter, r *http.Request) {
		log := s.log.WithField("path", path)

		statusCode, body := func() (int, GenericApiResponseBody) {
			if r.Method != http.MethodGet {
				return http.StatusBadRequest, NewGenericApiFailureResponseBody(errors.New("http get expected"))
			}

			value, version := s.channel.Latest()

			respBody := NewGenericApiSuccessResponseBody()
			respBody["value"] = json.RawMessage(value)
			respBody["version"] = version
			return http.StatusOK, respBody
		}()

		writeBody(log, w, statusCode, body)
	}
}

func (s *Server) statusHandler(path string) func(w http.ResponseWriter, r *http.Request) {
	return func(w http.ResponseWriter, r *http.Request) {
		log := s.log.WithField("path", path)

		statusCode, body := func() (int, GenericApiResponseBody) {
			if r.Method != http.MethodGet {
				return http.StatusBadRequest, NewGenericApiFailureResponseBody(errors.New("http get expected"))
			}

			state, _ := s.controller.Session()

			respBody := NewGenericApiSuccessResponseBody()
			respBody["status"] = s.controller.Status().String()
			respBody["ready"] = s.channel.IsReady()
			respBody["connected"] = state.Connected
			if errString := s.controller.Error(); len(errString) > 0 {
				respBody["walletError"] = errString
			}
			return http.StatusOK, respBody
		}()

		writeBody(log, w, statusCode, body)
	}
}

func (s *Server) actionHandler(path string, action func(ctx context.Context) error) func(w http.ResponseWriter, r *http.Request) {
	return func(w http.ResponseWriter, r *http.Request) {
		log := s.log.WithField("path", path)

		statusCode, body := func() (int, GenericApiResponseBody) {
			if r.Method != http.MethodPost {
				return http.StatusBadRequest, NewGenericApiFailureResponseBody(errors.New("http post expected"))
			}

			if !s.limiter.Allow(limiterKey(path, r)) {
				return http.StatusTooManyRequests, NewGenericApiFailureResponseBody(errRateLimited)
			}

			err := action(r.Context())
			if err != nil {
				log.WithError(err).Warn("failure running wallet action")

				statusCode, err := HandleErrorInWebContext(err)
				if statusCode == http.StatusInternalServerError {
					if errString := s.controller.Error(); len(errString) > 0 {
						err = errors.New(errString)
					}
				}
				return statusCode, NewGenericApiFailureResponseBody(err)
			}

			return http.StatusOK, NewGenericApiSuccessResponseBody()
		}()

		writeBody(log, w, statusCode, body)
	}
}

func (s *Server) incrementHandler(path string) func(w http.ResponseWriter, r *http.Request) {
	return func(w http.ResponseWriter, r *http.Request) {
		log := s.log.WithField("path", path)

		statusCode, body := func() (int, GenericApiResponseBody) {
			if r.Method != http.MethodPost {
				return http.StatusBadRequest, NewGenericApiFailureResponseBody(errors.New("http post expected"))
			}

			if !s.limiter.Allow(limiterKey(path, r)) {
				return http.StatusTooManyRequests, NewGenericApiFailureResponseBody(errRateLimited)
			}

			ctx, cancel := context.WithTimeout(r.Context(), s.conf.incrementTimeout.Get(r.Context()))
			defer cancel()

			// Failures are logged by the runner
			result, err := s.runner.Run(ctx, s.controller)
			if err != nil {
				statusCode, err := HandleErrorInWebContext(err)
				return statusCode, NewGenericApiFailureResponseBody(err)
			}

			respBody := NewGenericApiSuccessResponseBody()
			respBody["runId"] = result.RunID
			respBody["payer"] = base58.Encode(result.Payer)
			respBody["counter"] = base58.Encode(result.Counter)
			respBody["signature"] = result.Signature.ToBase58()
			respBody["count"] = result.Count
			return http.StatusOK, respBody
		}()

		writeBody(log, w, statusCode, body)
	}
}

// connect retries a failed initialization before connecting, the same way a
// remounting host would.
func (s *Server) connect(ctx context.Context) error {
	if s.controller.Status() == bridge.StatusError {
		if err := s.controller.Init(ctx); err != nil {
			return err
		}
	}
	return s.controller.Connect(ctx)
}

func (s *Server) GetHandlers() map[string]http.HandlerFunc {
	return map[string]http.HandlerFunc{
		v1StatePath:      s.stateHandler(v1StatePath),
		v1StreamPath:     s.streamHandler(v1StreamPath),
		v1StatusPath:     s.statusHandler(v1StatusPath),
		v1InitPath:       s.actionHandler(v1InitPath, s.controller.Init),
		v1ConnectPath:    s.actionHandler(v1ConnectPath, s.connect),
		v1DisconnectPath: s.actionHandler(v1DisconnectPath, s.controller.Disconnect),
		v1IncrementPath:  s.incrementHandler(v1IncrementPath),
	}
}

// Handler returns every route behind the CORS policy for the embedding
// origins.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	for path, handler := range s.GetHandlers() {
		mux.HandleFunc(path, handler)
	}

	return cors.New(cors.Options{
		AllowedOrigins:   s.allowedOrigins(),
		AllowedMethods:   []string{http.MethodGet, http.MethodPost},
		AllowCredentials: true,
	}).Handler(mux)
}

func (s *Server) allowedOrigins() []string {
	var origins []string
	for _, origin := range strings.Split(s.conf.allowedOrigins.Get(context.Background()), ",") {
		origin = strings.TrimSpace(origin)
		if len(origin) > 0 {
			origins = append(origins, origin)
		}
	}
	return origins
}

func writeBody(log *logrus.Entry, w http.ResponseWriter, statusCode int, body GenericApiResponseBody) {
	w.Header().Set(contentTypeHeaderName, jsonContentTypeHeaderValue)
	w.WriteHeader(statusCode)
	if _, err := w.Write([]byte(body.ToString())); err != nil {
		log.WithError(err).Warn("failed to write body")
	}
}

func limiterKey(path string, r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		host = r.RemoteAddr
	}
	return path + ":" + host
}
