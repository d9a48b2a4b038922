package main

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/AdamBeresnev/badminton-bracket/internal/bracket"
	"github.com/AdamBeresnev/badminton-bracket/internal/httputil"
	"github.com/AdamBeresnev/badminton-bracket/internal/lock"
	"github.com/AdamBeresnev/badminton-bracket/internal/middleware"
	"github.com/AdamBeresnev/badminton-bracket/internal/service"
	"github.com/AdamBeresnev/badminton-bracket/internal/store"
	"github.com/AdamBeresnev/badminton-bracket/internal/utils"
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/jmoiron/sqlx"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
)

type application struct {
	db             *sqlx.DB
	log            *logrus.Logger
	locker         lock.Locker
	lockTimeout    time.Duration
	shuffler       *service.Shuffler
	rateLimiter    *middleware.RateLimiter
	allowedOrigins []string
}

func (app *application) bracketService(r *http.Request) *service.BracketService {
	return service.NewBracketService(
		store.NewTournamentStore(app.db),
		service.WithShuffler(app.shuffler),
		service.WithLogger(httputil.Logger(r.Context())),
	)
}

func (app *application) matchService(r *http.Request) *service.MatchService {
	return service.NewMatchService(app.db, store.NewTournamentStore(app.db), httputil.Logger(r.Context()))
}

func (app *application) rosterService(r *http.Request) *service.RosterService {
	return service.NewRosterService(store.NewRosterStore(app.db), httputil.Logger(r.Context()))
}

// lockCategory serializes generate, advance and reset for one category. On
// failure the error response is already written.
func (app *application) lockCategory(w http.ResponseWriter, r *http.Request, categoryID int64) (func(), bool) {
	ctx, cancel := context.WithTimeout(r.Context(), app.lockTimeout)
	defer cancel()

	unlock, err := app.locker.Lock(ctx, fmt.Sprintf("category:%d", categoryID))
	if err != nil {
		httputil.InternalServerError(w, r, "Failed to lock category", err)
		return nil, false
	}
	return unlock, true
}

type generateRequest struct {
	CategoryID int64  `json:"categoryId" validate:"gte=0"`
	GameType   string `json:"gameType" validate:"max=50"`
}

type advanceRequest struct {
	CategoryID   int64 `json:"categoryId" validate:"gte=0"`
	CurrentPhase int   `json:"currentPhase" validate:"gte=0"`
}

type setRequest struct {
	Side1 int `json:"side1" validate:"gte=0"`
	Side2 int `json:"side2" validate:"gte=0"`
}

type resultRequest struct {
	Walkover   bool         `json:"walkover"`
	WinnerSlot int          `json:"winnerSlot" validate:"required_if=Walkover true,omitempty,oneof=1 2"`
	Sets       []setRequest `json:"sets" validate:"max=3,dive"`
	GameDate   string       `json:"gameDate"`
}

type scheduleRequest struct {
	MatchIDs []int64 `json:"matchIds" validate:"required,min=1,dive,gt=0"`
	GameDate string  `json:"gameDate" validate:"required"`
}

type nameRequest struct {
	Name string `json:"name" validate:"required,max=100"`
}

type teamRequest struct {
	Name      string `json:"name" validate:"max=100"`
	Player1ID int64  `json:"player1Id" validate:"required,gt=0"`
	Player2ID int64  `json:"player2Id" validate:"required,gt=0,nefield=Player1ID"`
}

// idParam reads a positive integer path parameter.
func idParam(r *http.Request, name string) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	if err != nil || id <= 0 {
		return 0, bracket.Invalid("%s inválido: %s", name, chi.URLParam(r, name))
	}
	return id, nil
}

// queryID reads an optional positive integer query parameter.
func queryID(r *http.Request, name string) (*int64, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return nil, nil
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return nil, bracket.Invalid("%s inválido: %s", name, raw)
	}
	return &id, nil
}

func newRouter(app *application) http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.RealIP)
	r.Use(middleware.RequestLogger(app.log))
	r.Use(chimiddleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: app.allowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type", middleware.RequestIDHeader},
		ExposedHeaders: []string{middleware.RequestIDHeader},
		MaxAge:         300,
	}))

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		if err := app.db.PingContext(r.Context()); err != nil {
			httputil.InternalServerError(w, r, "Database ping failed", err)
			return
		}
		httputil.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Handle("/metrics", promhttp.Handler())

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		httputil.NotFound(w, r, "Rota não encontrada")
	})

	r.Route("/api", func(r chi.Router) {
		r.Use(app.rateLimiter.Handler)

		r.Route("/elimination", func(r chi.Router) {
			r.Post("/generate", func(w http.ResponseWriter, r *http.Request) {
				var req generateRequest
				if err := httputil.Decode(r, &req); err != nil {
					httputil.Error(w, r, err)
					return
				}

				unlock, ok := app.lockCategory(w, r, req.CategoryID)
				if !ok {
					return
				}
				defer unlock()

				result, err := app.bracketService(r).Generate(r.Context(), req.CategoryID, req.GameType)
				if err != nil {
					httputil.Error(w, r, err)
					return
				}
				httputil.JSON(w, http.StatusOK, result)
			})

			r.Post("/advance", func(w http.ResponseWriter, r *http.Request) {
				var req advanceRequest
				if err := httputil.Decode(r, &req); err != nil {
					httputil.Error(w, r, err)
					return
				}

				unlock, ok := app.lockCategory(w, r, req.CategoryID)
				if !ok {
					return
				}
				defer unlock()

				result, err := app.bracketService(r).Advance(r.Context(), req.CategoryID, req.CurrentPhase)
				if err != nil {
					httputil.Error(w, r, err)
					return
				}
				httputil.JSON(w, http.StatusOK, result)
			})

			r.Get("/phases", func(w http.ResponseWriter, r *http.Request) {
				categoryID, err := queryID(r, "categoryId")
				if err != nil {
					httputil.Error(w, r, err)
					return
				}
				if categoryID == nil {
					httputil.BadRequest(w, r, "Category ID is required", nil)
					return
				}

				phases, err := app.matchService(r).ListPhases(r.Context(), *categoryID)
				if err != nil {
					httputil.Error(w, r, err)
					return
				}
				httputil.JSON(w, http.StatusOK, utils.OrEmpty(phases))
			})

			r.Get("/matches", func(w http.ResponseWriter, r *http.Request) {
				var filter store.MatchFilter
				var err error
				if filter.CategoryID, err = queryID(r, "categoryId"); err != nil {
					httputil.Error(w, r, err)
					return
				}
				if raw := r.URL.Query().Get("phase"); raw != "" {
					phase, err := strconv.Atoi(raw)
					if err != nil || phase <= 0 {
						httputil.BadRequest(w, r, fmt.Sprintf("phase inválido: %s", raw), nil)
						return
					}
					filter.Phase = &phase
				}
				if raw := r.URL.Query().Get("date"); raw != "" {
					filter.GameDate = &raw
				}

				matches, err := app.matchService(r).ListMatches(r.Context(), filter)
				if err != nil {
					httputil.Error(w, r, err)
					return
				}
				httputil.JSON(w, http.StatusOK, utils.OrEmpty(matches))
			})

			r.Post("/matches/schedule", func(w http.ResponseWriter, r *http.Request) {
				var req scheduleRequest
				if err := httputil.Decode(r, &req); err != nil {
					httputil.Error(w, r, err)
					return
				}

				updated, err := app.matchService(r).ScheduleMatches(r.Context(), req.MatchIDs, req.GameDate)
				if err != nil {
					httputil.Error(w, r, err)
					return
				}
				httputil.JSON(w, http.StatusOK, map[string]int64{"updated": updated})
			})

			r.Put("/matches/{id}/result", func(w http.ResponseWriter, r *http.Request) {
				matchID, err := idParam(r, "id")
				if err != nil {
					httputil.Error(w, r, err)
					return
				}
				var req resultRequest
				if err := httputil.Decode(r, &req); err != nil {
					httputil.Error(w, r, err)
					return
				}

				in := service.ResultInput{
					Walkover:   req.Walkover,
					WinnerSlot: req.WinnerSlot,
					GameDate:   req.GameDate,
				}
				for _, set := range req.Sets {
					in.Sets = append(in.Sets, bracket.SetScore{Side1: set.Side1, Side2: set.Side2})
				}

				match, err := app.matchService(r).RecordResult(r.Context(), matchID, in)
				if err != nil {
					httputil.Error(w, r, err)
					return
				}
				httputil.JSON(w, http.StatusOK, match)
			})

			r.Delete("/matches/{id}", func(w http.ResponseWriter, r *http.Request) {
				matchID, err := idParam(r, "id")
				if err != nil {
					httputil.Error(w, r, err)
					return
				}
				if err := app.matchService(r).DeleteMatch(r.Context(), matchID); err != nil {
					httputil.Error(w, r, err)
					return
				}
				w.WriteHeader(http.StatusNoContent)
			})

			r.Delete("/categories/{id}", func(w http.ResponseWriter, r *http.Request) {
				categoryID, err := idParam(r, "id")
				if err != nil {
					httputil.Error(w, r, err)
					return
				}

				unlock, ok := app.lockCategory(w, r, categoryID)
				if !ok {
					return
				}
				defer unlock()

				result, err := app.matchService(r).ResetCategory(r.Context(), categoryID)
				if err != nil {
					httputil.Error(w, r, err)
					return
				}
				httputil.JSON(w, http.StatusOK, result)
			})
		})

		r.Route("/categories", func(r chi.Router) {
			r.Get("/", func(w http.ResponseWriter, r *http.Request) {
				categories, err := app.rosterService(r).ListCategories(r.Context())
				if err != nil {
					httputil.Error(w, r, err)
					return
				}
				httputil.JSON(w, http.StatusOK, utils.OrEmpty(categories))
			})

			r.Post("/", func(w http.ResponseWriter, r *http.Request) {
				var req nameRequest
				if err := httputil.Decode(r, &req); err != nil {
					httputil.Error(w, r, err)
					return
				}
				category, err := app.rosterService(r).CreateCategory(r.Context(), req.Name)
				if err != nil {
					httputil.Error(w, r, err)
					return
				}
				httputil.JSON(w, http.StatusCreated, category)
			})

			r.Get("/{id}/players", func(w http.ResponseWriter, r *http.Request) {
				categoryID, err := idParam(r, "id")
				if err != nil {
					httputil.Error(w, r, err)
					return
				}
				players, err := app.rosterService(r).ListPlayers(r.Context(), categoryID)
				if err != nil {
					httputil.Error(w, r, err)
					return
				}
				httputil.JSON(w, http.StatusOK, utils.OrEmpty(players))
			})

			r.Post("/{id}/players", func(w http.ResponseWriter, r *http.Request) {
				categoryID, err := idParam(r, "id")
				if err != nil {
					httputil.Error(w, r, err)
					return
				}
				var req nameRequest
				if err := httputil.Decode(r, &req); err != nil {
					httputil.Error(w, r, err)
					return
				}
				player, err := app.rosterService(r).CreatePlayer(r.Context(), categoryID, req.Name)
				if err != nil {
					httputil.Error(w, r, err)
					return
				}
				httputil.JSON(w, http.StatusCreated, player)
			})

			r.Get("/{id}/teams", func(w http.ResponseWriter, r *http.Request) {
				categoryID, err := idParam(r, "id")
				if err != nil {
					httputil.Error(w, r, err)
					return
				}
				teams, err := app.rosterService(r).ListTeams(r.Context(), categoryID)
				if err != nil {
					httputil.Error(w, r, err)
					return
				}
				httputil.JSON(w, http.StatusOK, utils.OrEmpty(teams))
			})

			r.Post("/{id}/teams", func(w http.ResponseWriter, r *http.Request) {
				categoryID, err := idParam(r, "id")
				if err != nil {
					httputil.Error(w, r, err)
					return
				}
				var req teamRequest
				if err := httputil.Decode(r, &req); err != nil {
					httputil.Error(w, r, err)
					return
				}
				team, err := app.rosterService(r).CreateTeam(r.Context(), categoryID, req.Name, req.Player1ID, req.Player2ID)
				if err != nil {
					httputil.Error(w, r, err)
					return
				}
				httputil.JSON(w, http.StatusCreated, team)
			})
		})
	})

	return r
}
