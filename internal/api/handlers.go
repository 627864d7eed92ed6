package api

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/mmynk/littertag/internal/leaderboard"
	"github.com/mmynk/littertag/internal/models"
	"github.com/mmynk/littertag/internal/service"
	"github.com/mmynk/littertag/internal/validation"
)

type registerRequest struct {
	Email       string `json:"email" validate:"required,email"`
	DisplayName string `json:"display_name" validate:"required,max=50"`
	Password    string `json:"password" validate:"required"`
}

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type authResponse struct {
	User  *models.User `json:"user"`
	Token string       `json:"token"`
}

type createTeamRequest struct {
	Name string `json:"name" validate:"required,max=100"`
}

type verifyRequest struct {
	TrustUser bool `json:"trust_user"`
}

// uploadForm holds the non-file fields of a photo upload.
type uploadForm struct {
	Lat       float64 `json:"lat" validate:"latitude"`
	Lon       float64 `json:"lon" validate:"longitude"`
	Country   string  `json:"country" validate:"max=100"`
	State     string  `json:"state" validate:"max=100"`
	City      string  `json:"city" validate:"max=100"`
	DateTaken int64   `json:"date_taken" validate:"gte=0"`
}

func (s *Server) register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := decodeJSON(w, r, &req, false); err != nil {
		writeError(w, r, err)
		return
	}
	user, token, err := s.svc.Auth.Register(r.Context(), req.Email, req.DisplayName, req.Password)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, authResponse{User: user, Token: token})
}

func (s *Server) login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(w, r, &req, false); err != nil {
		writeError(w, r, err)
		return
	}
	user, token, err := s.svc.Auth.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, authResponse{User: user, Token: token})
}

func (s *Server) me(w http.ResponseWriter, r *http.Request) {
	profile, err := s.svc.Auth.Me(r.Context(), actor(r).UserID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, profile)
}

func (s *Server) uploadPhoto(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.opts.MaxUploadBytes)
	if err := r.ParseMultipartForm(s.opts.MaxUploadBytes); err != nil {
		var tooLarge *http.MaxBytesError
		switch {
		case errors.As(err, &tooLarge):
		case strings.Contains(err.Error(), "request body too large"):
			// multipart does not always wrap the reader's error.
			err = &http.MaxBytesError{Limit: s.opts.MaxUploadBytes}
		default:
			err = fmt.Errorf("%w: %v", service.ErrInvalidInput, err)
		}
		writeError(w, r, err)
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile("photo")
	if err != nil {
		writeError(w, r, &validation.RequestValidationError{Fields: []validation.FieldError{
			{Field: "photo", Tag: "required", Message: "photo is required"},
		}})
		return
	}
	defer file.Close()

	form, err := parseUploadForm(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	photo, err := s.svc.Photos.Upload(r.Context(), actor(r).UserID, service.UploadInput{
		Filename:  header.Filename,
		Data:      file,
		Lat:       form.Lat,
		Lon:       form.Lon,
		Country:   form.Country,
		State:     form.State,
		City:      form.City,
		DateTaken: form.DateTaken,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, photo)
}

// parseUploadForm reads the multipart fields. date_taken is Unix seconds
// or RFC 3339.
func parseUploadForm(r *http.Request) (*uploadForm, error) {
	form := &uploadForm{
		Country: r.FormValue("country"),
		State:   r.FormValue("state"),
		City:    r.FormValue("city"),
	}
	var fields []validation.FieldError
	parseFloat := func(name string, dst *float64) {
		v := r.FormValue(name)
		if v == "" {
			return
		}
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			fields = append(fields, validation.FieldError{Field: name, Tag: "numeric", Message: name + " must be a number"})
			return
		}
		*dst = f
	}
	parseFloat("lat", &form.Lat)
	parseFloat("lon", &form.Lon)

	if v := r.FormValue("date_taken"); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			form.DateTaken = n
		} else if t, err := time.Parse(time.RFC3339, v); err == nil {
			form.DateTaken = t.Unix()
		} else {
			fields = append(fields, validation.FieldError{Field: "date_taken", Tag: "datetime", Message: "date_taken must be a Unix timestamp or RFC 3339 time"})
		}
	}

	if len(fields) > 0 {
		return nil, &validation.RequestValidationError{Fields: fields}
	}
	if verr := validation.ValidateStruct(form); verr != nil {
		return nil, verr
	}
	return form, nil
}

func (s *Server) listPhotos(w http.ResponseWriter, r *http.Request) {
	photos, err := s.svc.Photos.ListForUser(r.Context(), actor(r).UserID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, photos)
}

func (s *Server) getPhoto(w http.ResponseWriter, r *http.Request) {
	photo, err := s.svc.Photos.Get(r.Context(), actor(r), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, photo)
}

func (s *Server) deletePhoto(w http.ResponseWriter, r *http.Request) {
	if err := s.svc.Photos.Delete(r.Context(), actor(r), chi.URLParam(r, "id")); err != nil {
		writeError(w, r, err)
		return
	}
	writeSuccess(w, nil)
}

func (s *Server) addTags(w http.ResponseWriter, r *http.Request) {
	var req service.AddTagsRequest
	if err := decodeJSON(w, r, &req, false); err != nil {
		writeError(w, r, err)
		return
	}
	result, err := s.svc.Tags.AddManyTagsToManyPhotos(r.Context(), actor(r).UserID, &req)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeSuccess(w, result)
}

func (s *Server) previousCustomTags(w http.ResponseWriter, r *http.Request) {
	tags, err := s.svc.Tags.PreviousCustomTags(r.Context(), actor(r).UserID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, tags)
}

func (s *Server) verifyPhoto(w http.ResponseWriter, r *http.Request) {
	var req verifyRequest
	if err := decodeJSON(w, r, &req, true); err != nil {
		writeError(w, r, err)
		return
	}
	photo, err := s.svc.Photos.VerifyByAdmin(r.Context(), actor(r).UserID, chi.URLParam(r, "id"), req.TrustUser)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeSuccess(w, photo)
}

func (s *Server) createTeam(w http.ResponseWriter, r *http.Request) {
	var req createTeamRequest
	if err := decodeJSON(w, r, &req, false); err != nil {
		writeError(w, r, err)
		return
	}
	team, err := s.svc.Teams.Create(r.Context(), actor(r).UserID, req.Name)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, team)
}

func (s *Server) joinTeam(w http.ResponseWriter, r *http.Request) {
	team, err := s.svc.Teams.Join(r.Context(), actor(r).UserID, chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, team)
}

func (s *Server) getTeam(w http.ResponseWriter, r *http.Request) {
	team, err := s.svc.Teams.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, team)
}

func (s *Server) getLocation(w http.ResponseWriter, r *http.Request) {
	loc, err := s.svc.Locations.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, loc)
}

func (s *Server) leaderboard(w http.ResponseWriter, r *http.Request) {
	scope := r.URL.Query().Get("scope")
	if scope == "" {
		scope = leaderboard.Global.String()
	}
	limit := leaderboard.DefaultLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			writeError(w, r, &validation.RequestValidationError{Fields: []validation.FieldError{
				{Field: "limit", Tag: "numeric", Message: "limit must be a number"},
			}})
			return
		}
		limit = n
	}
	entries, err := s.svc.Locations.Leaderboard(r.Context(), scope, limit)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, entries)
}
