package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/gorilla/mux"
	"github.com/onepost/notifier/internal/auth"
	"github.com/onepost/notifier/internal/handler"
	"github.com/onepost/notifier/internal/ierr"
	"go.uber.org/zap"
)

const maxRequestBodySize = 1 << 20

type RESTServer struct {
	logger        *zap.Logger
	authenticator *auth.Authenticator
	originChecker *OriginChecker

	notifyHandler        handler.NotifyHandlerInterface
	notificationsHandler handler.NotificationsHandlerInterface
	presenceHandler      handler.PresenceHandlerInterface
}

func NewRESTServer(
	logger *zap.Logger,
	authenticator *auth.Authenticator,
	originChecker *OriginChecker,
	notifyHandler handler.NotifyHandlerInterface,
	notificationsHandler handler.NotificationsHandlerInterface,
	presenceHandler handler.PresenceHandlerInterface,
) *RESTServer {
	return &RESTServer{
		logger,
		authenticator,
		originChecker,
		notifyHandler,
		notificationsHandler,
		presenceHandler,
	}
}

func (s *RESTServer) Register(router *mux.Router) {
	router.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}).Methods(http.MethodGet)

	router.Handle("/notifications",
		s.originChecker.CORS(s.requireService(http.HandlerFunc(s.createNotification)))).
		Methods(http.MethodPost)

	router.Handle("/notifications",
		s.originChecker.CORS(s.requireUser(http.HandlerFunc(s.listNotifications)))).
		Methods(http.MethodGet)

	router.Handle("/notifications/read",
		s.originChecker.CORS(s.requireUser(http.HandlerFunc(s.markAllRead)))).
		Methods(http.MethodPost)

	preflight := s.originChecker.CORS(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	router.Handle("/notifications", preflight).Methods(http.MethodOptions)
	router.Handle("/notifications/read", preflight).Methods(http.MethodOptions)

	router.Handle("/presence/{userId}",
		s.requireService(http.HandlerFunc(s.getPresence))).
		Methods(http.MethodGet)
}

func (s *RESTServer) createNotification(w http.ResponseWriter, r *http.Request) {
	var request handler.CreateNotificationRequest
	err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBodySize)).Decode(&request)
	if err != nil {
		s.writeError(w, ierr.New(ierr.ErrorCodeInvalidArgument, errors.New("invalid request body")))
		return
	}

	response, err := s.notifyHandler.Handle(r.Context(), request)
	if errors.Is(err, handler.ErrSelfNotification) {
		w.WriteHeader(http.StatusNoContent)
		return
	}

	if err != nil {
		s.writeError(w, err)
		return
	}

	s.writeJSON(w, http.StatusCreated, response)
}

func (s *RESTServer) listNotifications(w http.ResponseWriter, r *http.Request) {
	response, err := s.notificationsHandler.List(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}

	s.writeJSON(w, http.StatusOK, response)
}

func (s *RESTServer) markAllRead(w http.ResponseWriter, r *http.Request) {
	response, err := s.notificationsHandler.MarkAllRead(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}

	s.writeJSON(w, http.StatusOK, response)
}

func (s *RESTServer) getPresence(w http.ResponseWriter, r *http.Request) {
	response, err := s.presenceHandler.Handle(r.Context(), mux.Vars(r)["userId"])
	if err != nil {
		s.writeError(w, err)
		return
	}

	s.writeJSON(w, http.StatusOK, response)
}

func (s *RESTServer) requireService(next http.Handler) http.Handler {
	return s.authenticate(next, s.authenticator.AuthenticateAPIKey)
}

func (s *RESTServer) requireUser(next http.Handler) http.Handler {
	return s.authenticate(next, s.authenticator.AuthenticateJWT)
}

func (s *RESTServer) authenticate(
	next http.Handler,
	authenticateFunc func(credential string) (*auth.Authentication, error),
) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		credential, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
		if !ok || credential == "" {
			s.writeError(w, ierr.New(ierr.ErrorCodeUnauthenticated,
				errors.New("missing or invalid authorization header, expected: Bearer <token>")))
			return
		}

		authentication, err := authenticateFunc(credential)
		if err != nil {
			s.writeError(w, err)
			return
		}

		next.ServeHTTP(w, r.WithContext(auth.WithAuthentication(r.Context(), authentication)))
	})
}

func (s *RESTServer) writeError(w http.ResponseWriter, err error) {
	var handlerErr ierr.Error
	if !errors.As(err, &handlerErr) {
		s.logger.Error("error in rest handler", zap.Error(err))

		handlerErr = ierr.New(ierr.ErrorCodeInternal, errors.New("internal error"))
	}

	if handlerErr.Code == ierr.ErrorCodeInvalidDeliveryRequest {
		s.logger.Error("producer sent an invalid delivery request", zap.Error(handlerErr))
	}

	s.writeJSON(w, httpStatus(handlerErr.Code), handlerErr)
}

func (s *RESTServer) writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	err := json.NewEncoder(w).Encode(body)
	if err != nil {
		s.logger.Error("failed to encode response", zap.Error(err))
	}
}

func httpStatus(code ierr.ErrorCode) int {
	switch code {
	case ierr.ErrorCodeInvalidArgument, ierr.ErrorCodeInvalidJoinRequest:
		return http.StatusBadRequest
	case ierr.ErrorCodeUnauthenticated:
		return http.StatusUnauthorized
	case ierr.ErrorCodePermissionDenied:
		return http.StatusForbidden
	case ierr.ErrorCodeNotFound:
		return http.StatusNotFound
	case ierr.ErrorCodeFailedPrecondition:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
