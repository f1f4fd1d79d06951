package main

import (
	"encoding/json"
	"fmt"
	"net/http"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/territory-cli/internal/config"
	"github.com/sells-group/territory-cli/internal/engine"
	"github.com/sells-group/territory-cli/internal/model"
	"github.com/sells-group/territory-cli/internal/monitoring"
	"github.com/sells-group/territory-cli/internal/store"
	"github.com/sells-group/territory-cli/pkg/geocode"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the availability API server",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		api := &apiServer{
			store:  st,
			geo:    initGeocoder(),
			engine: cfg.Engine,
		}

		port := servePort
		if port == 0 {
			port = cfg.Server.Port
		}

		srv := &http.Server{
			Addr:    fmt.Sprintf(":%d", port),
			Handler: api.router(),
		}

		// Graceful shutdown
		go func() {
			<-ctx.Done()
			zap.L().Info("shutting down server")
			srv.Shutdown(ctx) //nolint:errcheck
		}()

		zap.L().Info("starting server", zap.Int("port", port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return eris.Wrap(err, "server listen")
		}

		return nil
	},
}

type apiServer struct {
	store  store.Store
	geo    geocode.Client
	engine config.EngineConfig
}

func (s *apiServer) router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Content-Type"},
	}))

	r.Get("/health", s.handleHealth)
	r.Post("/api/availability/grid", s.handleGrid)
	r.Get("/api/availability/reps", s.handleReps)
	r.Get("/api/ops/metrics", s.handleMetrics)
	r.Post("/api/appointments", s.handleCreateAppointment)
	r.Get("/api/appointments", s.handleListAppointments)
	return r
}

func (s *apiServer) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type gridRequest struct {
	Street         string   `json:"street"`
	City           string   `json:"city"`
	State          string   `json:"state"`
	Zip            string   `json:"zip"`
	Latitude       *float64 `json:"latitude"`
	Longitude      *float64 `json:"longitude"`
	Date           string   `json:"date"`
	WeekOffset     int      `json:"week_offset"`
	ThresholdMiles float64  `json:"threshold_miles"`
}

func (s *apiServer) handleGrid(w http.ResponseWriter, r *http.Request) {
	var req gridRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	target := model.Address{
		Street:    req.Street,
		City:      req.City,
		State:     req.State,
		Zip:       req.Zip,
		Latitude:  req.Latitude,
		Longitude: req.Longitude,
	}
	if !target.HasCoordinates() {
		result, err := s.geo.Geocode(r.Context(), geocode.AddressInput{
			Street: req.Street, City: req.City, State: req.State, ZipCode: req.Zip,
		})
		if err != nil {
			zap.L().Error("grid geocode failed", zap.Error(err))
			writeError(w, http.StatusBadGateway, "geocoding failed")
			return
		}
		if !result.Matched {
			writeError(w, http.StatusUnprocessableEntity, "address did not geocode")
			return
		}
		target.Latitude = &result.Latitude
		target.Longitude = &result.Longitude
	}

	start := time.Now().UTC()
	if req.Date != "" {
		parsed, err := model.ParseDate(req.Date)
		if err != nil {
			writeError(w, http.StatusBadRequest, "date must be YYYY-MM-DD")
			return
		}
		start = parsed
	}

	threshold := req.ThresholdMiles
	if threshold == 0 {
		threshold = s.engine.BookingThresholdMiles
	}

	gridStart := model.Day(start).AddDate(0, 0, 7*req.WeekOffset)
	snap, err := store.LoadSnapshot(r.Context(), s.store,
		gridStart.AddDate(0, 0, -1), gridStart.AddDate(0, 0, s.engine.HorizonDays-1))
	if err != nil {
		zap.L().Error("grid snapshot failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "snapshot load failed")
		return
	}

	eng := engine.New(*snap, engine.WithWorkers(s.engine.Workers))
	days, err := eng.BuildGrid(r.Context(), engine.GridRequest{
		Target:         target,
		Start:          start,
		HorizonDays:    s.engine.HorizonDays,
		WeekOffset:     req.WeekOffset,
		ThresholdMiles: threshold,
	})
	if err != nil {
		zap.L().Error("grid build failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "grid build failed")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"days": days})
}

// handleReps returns the full roster, or, when lat and lng query
// params are present, only the reps whose anchor for the given date
// and slot is within the radius of that point.
func (s *apiServer) handleReps(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	if q.Get("lat") != "" || q.Get("lng") != "" {
		s.handleRepsInRange(w, r)
		return
	}

	reps, err := s.store.ListReps(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "list reps failed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"reps": reps})
}

func (s *apiServer) handleRepsInRange(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	lat, latErr := strconv.ParseFloat(q.Get("lat"), 64)
	lng, lngErr := strconv.ParseFloat(q.Get("lng"), 64)
	if latErr != nil || lngErr != nil {
		writeError(w, http.StatusBadRequest, "lat and lng must both be valid numbers")
		return
	}

	slot, err := model.ParseTimeSlot(q.Get("slot"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "slot must be 10am, 2pm, or 7pm")
		return
	}

	day := model.Day(time.Now().UTC())
	if v := q.Get("date"); v != "" {
		parsed, err := model.ParseDate(v)
		if err != nil {
			writeError(w, http.StatusBadRequest, "date must be YYYY-MM-DD")
			return
		}
		day = parsed
	}

	radius := s.engine.InRangeMiles
	if v := q.Get("radius"); v != "" {
		parsed, err := strconv.ParseFloat(v, 64)
		if err != nil || parsed <= 0 {
			writeError(w, http.StatusBadRequest, "radius must be a positive number")
			return
		}
		radius = parsed
	}

	snap, err := store.LoadSnapshot(r.Context(), s.store, day.AddDate(0, 0, -1), day)
	if err != nil {
		zap.L().Error("reps snapshot failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "snapshot load failed")
		return
	}

	eng := engine.New(*snap)
	options := eng.RepsInRange(day, slot, model.Coordinate{Lat: lat, Lng: lng}, radius)
	writeJSON(w, http.StatusOK, map[string]any{"reps": options, "radius_miles": radius})
}

func (s *apiServer) handleMetrics(w http.ResponseWriter, r *http.Request) {
	now := model.Day(time.Now().UTC())
	from, to := now.AddDate(0, 0, -30), now.AddDate(0, 0, 30)

	if q := r.URL.Query().Get("from"); q != "" {
		parsed, err := model.ParseDate(q)
		if err != nil {
			writeError(w, http.StatusBadRequest, "from must be YYYY-MM-DD")
			return
		}
		from = parsed
	}
	if q := r.URL.Query().Get("to"); q != "" {
		parsed, err := model.ParseDate(q)
		if err != nil {
			writeError(w, http.StatusBadRequest, "to must be YYYY-MM-DD")
			return
		}
		to = parsed
	}

	snap, err := monitoring.NewCollector(s.store, s.engine.AuditThresholdMiles).Collect(r.Context(), from, to)
	if err != nil {
		zap.L().Error("metrics collect failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "metrics collection failed")
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

type appointmentRequest struct {
	RepID     string   `json:"rep_id"`
	Date      string   `json:"date"`
	Slot      string   `json:"time_slot"`
	Street    string   `json:"street"`
	City      string   `json:"city"`
	State     string   `json:"state"`
	Zip       string   `json:"zip"`
	Latitude  *float64 `json:"latitude"`
	Longitude *float64 `json:"longitude"`
}

func (s *apiServer) handleCreateAppointment(w http.ResponseWriter, r *http.Request) {
	var req appointmentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	date, err := model.ParseDate(req.Date)
	if err != nil {
		writeError(w, http.StatusBadRequest, "date must be YYYY-MM-DD")
		return
	}
	slot, err := model.ParseTimeSlot(req.Slot)
	if err != nil {
		writeError(w, http.StatusBadRequest, "time_slot must be 10am, 2pm, or 7pm")
		return
	}

	appt, err := s.store.CreateAppointment(r.Context(), model.Appointment{
		RepID: req.RepID,
		Date:  date,
		Slot:  slot,
		Address: model.Address{
			Street:    req.Street,
			City:      req.City,
			State:     req.State,
			Zip:       req.Zip,
			Latitude:  req.Latitude,
			Longitude: req.Longitude,
		},
	})
	if err != nil {
		if eris.Is(err, store.ErrSlotTaken) {
			writeError(w, http.StatusConflict, "slot already booked for this rep")
			return
		}
		zap.L().Error("create appointment failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "create appointment failed")
		return
	}
	writeJSON(w, http.StatusCreated, appt)
}

func (s *apiServer) handleListAppointments(w http.ResponseWriter, r *http.Request) {
	filter := store.AppointmentFilter{
		RepID:  r.URL.Query().Get("rep_id"),
		Status: model.AppointmentStatus(r.URL.Query().Get("status")),
	}
	if q := r.URL.Query().Get("from"); q != "" {
		parsed, err := model.ParseDate(q)
		if err != nil {
			writeError(w, http.StatusBadRequest, "from must be YYYY-MM-DD")
			return
		}
		filter.From = parsed
	}
	if q := r.URL.Query().Get("to"); q != "" {
		parsed, err := model.ParseDate(q)
		if err != nil {
			writeError(w, http.StatusBadRequest, "to must be YYYY-MM-DD")
			return
		}
		filter.To = parsed
	}

	appts, err := s.store.ListAppointments(r.Context(), filter)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "list appointments failed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"appointments": appts})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v) //nolint:errcheck
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "server port (default from config)")
	rootCmd.AddCommand(serveCmd)
}
