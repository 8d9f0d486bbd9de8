package http

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/radieske/race-pool-betting/internal/race-service/betting"
	"github.com/radieske/race-pool-betting/internal/race-service/domain"
	"github.com/radieske/race-pool-betting/internal/race-service/dto"
)

// HeaderUserID identifica o ator de cada requisição (host ou apostador)
const HeaderUserID = "X-User-ID"

// Server expõe as ações dos atores sobre corridas e carteiras
type Server struct {
	log *zap.Logger
	svc *betting.Service

	// WS, se definido, é montado em GET /ws (hub de renderização)
	WS http.HandlerFunc
}

// NewServer instancia o servidor HTTP do race-service
func NewServer(log *zap.Logger, svc *betting.Service) *Server {
	return &Server{log: log, svc: svc}
}

// Router retorna o roteador HTTP com as rotas da API de corridas
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(s.logRequests)

	r.Route("/v1/races", func(r chi.Router) {
		r.Post("/", s.createRace)             // cria corrida (host = X-User-ID)
		r.Get("/", s.listRaces)               // ?status=OPEN|CLOSED|FINISHED|ALL
		r.Get("/{id}", s.getRace)             // snapshot
		r.Post("/{id}/bets", s.placeBet)      // aposta
		r.Post("/{id}/close", s.closeRace)    // encerra apostas (host)
		r.Post("/{id}/winner", s.declareRace) // declara vencedor e liquida (host)
	})
	r.Get("/v1/wallets/{userId}", s.getWallet)

	if s.WS != nil {
		r.Get("/ws", s.WS)
	}
	return r
}

func (s *Server) createRace(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}
	var req dto.CreateRaceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "bad json", Code: "bad_request"})
		return
	}
	snap, err := s.svc.CreateRace(r.Context(), actor, req.Name, req.Competitors)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, snap)
}

func (s *Server) listRaces(w http.ResponseWriter, r *http.Request) {
	filter, err := domain.ParseStatus(r.URL.Query().Get("status"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "invalid status filter", Code: "invalid_input"})
		return
	}
	writeJSON(w, http.StatusOK, s.svc.Races(filter))
}

func (s *Server) getRace(w http.ResponseWriter, r *http.Request) {
	snap, err := s.svc.Race(chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

func (s *Server) placeBet(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}
	var req dto.PlaceBetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "bad json", Code: "bad_request"})
		return
	}
	raceID := chi.URLParam(r, "id")
	wg, err := s.svc.RequestBet(r.Context(), betting.BetAction{
		ActorID:      actor,
		RaceID:       raceID,
		CompetitorID: req.CompetitorID,
		Amount:       req.Amount.String(),
	})
	if err != nil {
		s.writeError(w, err)
		return
	}
	bal, _ := s.svc.Balance(actor)
	writeJSON(w, http.StatusCreated, dto.BetResponse{RaceID: raceID, Wager: wg, NewBalance: bal})
}

func (s *Server) closeRace(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}
	snap, err := s.svc.RequestClose(r.Context(), actor, chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

func (s *Server) declareRace(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}
	var req dto.DeclareWinnerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "bad json", Code: "bad_request"})
		return
	}
	st, err := s.svc.RequestDeclare(r.Context(), actor, chi.URLParam(r, "id"), req.CompetitorID)
	if err != nil {
		s.writeError(w, err)
		return
	}
	payouts := make([]domain.Payout, 0, len(st.Wagers))
	for _, wg := range st.Wagers {
		payouts = append(payouts, domain.Payout{
			BettorID:     wg.BettorID,
			CompetitorID: wg.CompetitorID,
			Amount:       wg.Amount,
			Payout:       wg.Payout,
		})
	}
	writeJSON(w, http.StatusOK, dto.SettlementResponse{
		RaceID:    st.RaceID,
		WinnerID:  st.WinnerID,
		Odds:      st.Odds,
		Total:     st.Total,
		Paid:      st.Paid,
		Remainder: st.Remainder,
		Payouts:   payouts,
	})
}

// getWallet retorna (ou cria) a carteira e saldo do usuário
func (s *Server) getWallet(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userId")
	bal, err := s.svc.Balance(userID)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, dto.WalletResponse{UserID: userID, Balance: bal})
}

// actorFrom lê o ator do header; responde 401 se ausente
func actorFrom(w http.ResponseWriter, r *http.Request) (string, bool) {
	actor := strings.TrimSpace(r.Header.Get(HeaderUserID))
	if actor == "" {
		writeJSON(w, http.StatusUnauthorized, dto.ErrorResponse{Error: HeaderUserID + " required", Code: "unauthorized"})
		return "", false
	}
	return actor, true
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	status := StatusFor(err)
	if status == http.StatusInternalServerError {
		s.log.Error("request failed", zap.Error(err))
	}
	writeJSON(w, status, dto.ErrorResponse{Error: MessageFor(err), Code: domain.Kind(err)})
}

// logRequests registra método, rota, status e latência de cada requisição
func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		s.log.Debug("http request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.Status()),
			zap.Duration("latency", time.Since(start)),
		)
	})
}

// writeJSON serializa a resposta em JSON e define o status HTTP
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
