package httpapi

import (
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strconv"

	"github.com/dmitrijs2005/mpmonitor/internal/server/auth"
	"github.com/dmitrijs2005/mpmonitor/internal/server/projects"
	"github.com/go-chi/chi/v5"
)

const multipartMemory = 8 << 20

type projectHandler struct {
	responder     Responder
	service       *projects.Service
	maxUploadSize int64
}

func decodeJSON(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return newValidationError("", "request body is empty")
		}
		return newValidationError("", "invalid JSON: "+err.Error())
	}
	return nil
}

func int64Param(r *http.Request, name string) (int64, error) {
	v, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	if err != nil || v <= 0 {
		return 0, newValidationError(name, "invalid "+name)
	}
	return v, nil
}

// objectIDParam returns the wildcard tail of the route. Object ids contain
// a slash, which clients may send raw or percent-encoded.
func objectIDParam(r *http.Request) (string, error) {
	raw := chi.URLParam(r, "*")
	objectID, err := url.PathUnescape(raw)
	if err != nil || objectID == "" {
		return "", newValidationError("objectId", "invalid objectId")
	}
	return objectID, nil
}

func principal(r *http.Request) auth.Principal {
	p, _ := auth.PrincipalFrom(r.Context())
	return p
}

func (h projectHandler) list() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		list, err := h.service.List(r.Context())
		if err != nil {
			h.responder.WriteError(w, r, err)
			return
		}

		resp := make([]ProjectResponse, 0, len(list))
		for _, p := range list {
			resp = append(resp, toProjectResponse(p))
		}
		h.responder.WriteJSON(w, r, http.StatusOK, resp)
	}
}

func (h projectHandler) get() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := int64Param(r, "projectID")
		if err != nil {
			h.responder.WriteError(w, r, err)
			return
		}

		p, err := h.service.Get(r.Context(), id)
		if err != nil {
			h.responder.WriteError(w, r, err)
			return
		}
		h.responder.WriteJSON(w, r, http.StatusOK, toProjectResponse(p))
	}
}

func (h projectHandler) create() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req CreateProjectRequest
		if err := decodeJSON(r, &req); err != nil {
			h.responder.WriteError(w, r, err)
			return
		}

		p, err := h.service.Create(r.Context(), principal(r), projects.CreateInput{
			Title:        req.Title,
			Description:  req.Description,
			Status:       req.Status,
			Constituency: req.Constituency,
			Media:        req.Media,
			Reports:      req.Reports,
		})
		if err != nil {
			h.responder.WriteError(w, r, err)
			return
		}
		h.responder.WriteJSON(w, r, http.StatusCreated, toProjectResponse(p))
	}
}

func (h projectHandler) update() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := int64Param(r, "projectID")
		if err != nil {
			h.responder.WriteError(w, r, err)
			return
		}

		var req UpdateProjectRequest
		if err := decodeJSON(r, &req); err != nil {
			h.responder.WriteError(w, r, err)
			return
		}

		patch, err := req.patch()
		if err != nil {
			h.responder.WriteError(w, r, err)
			return
		}

		p, err := h.service.Update(r.Context(), principal(r), id, patch)
		if err != nil {
			h.responder.WriteError(w, r, err)
			return
		}
		h.responder.WriteJSON(w, r, http.StatusOK, toProjectResponse(p))
	}
}

func (h projectHandler) delete() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := int64Param(r, "projectID")
		if err != nil {
			h.responder.WriteError(w, r, err)
			return
		}

		res, err := h.service.Delete(r.Context(), principal(r), id)
		if err != nil {
			h.responder.WriteError(w, r, err)
			return
		}
		h.responder.WriteJSON(w, r, http.StatusOK, DeleteProjectResponse{ID: id, Objects: res.Attempted, Orphans: len(res.Orphans)})
	}
}

// readUpload returns the bytes, content type and file name of the multipart
// field.
func (h projectHandler) readUpload(w http.ResponseWriter, r *http.Request, field string) ([]byte, string, string, error) {
	if r.ContentLength > h.maxUploadSize {
		return nil, "", "", &http.MaxBytesError{Limit: h.maxUploadSize}
	}
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadSize)
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return nil, "", "", err
		}
		return nil, "", "", newValidationError(field, "expected multipart/form-data body")
	}

	file, header, err := r.FormFile(field)
	if err != nil {
		return nil, "", "", newValidationError(field, "missing file field "+strconv.Quote(field))
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		return nil, "", "", err
	}
	return data, contentType(header, data), header.Filename, nil
}

func contentType(header *multipart.FileHeader, data []byte) string {
	ct := header.Header.Get("Content-Type")
	if ct == "" || ct == "application/octet-stream" {
		return http.DetectContentType(data)
	}
	return ct
}

func (h projectHandler) uploadMedia() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := int64Param(r, "projectID")
		if err != nil {
			h.responder.WriteError(w, r, err)
			return
		}

		data, ct, _, err := h.readUpload(w, r, "media")
		if err != nil {
			h.responder.WriteError(w, r, err)
			return
		}

		a, err := h.service.UploadMedia(r.Context(), principal(r), id, data, ct)
		if err != nil {
			h.responder.WriteError(w, r, err)
			return
		}
		h.responder.WriteJSON(w, r, http.StatusCreated, a)
	}
}

func (h projectHandler) updateComment() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := int64Param(r, "projectID")
		if err != nil {
			h.responder.WriteError(w, r, err)
			return
		}

		var req CommentRequest
		if err := decodeJSON(r, &req); err != nil {
			h.responder.WriteError(w, r, err)
			return
		}

		objectID, err := objectIDParam(r)
		if err != nil {
			h.responder.WriteError(w, r, err)
			return
		}

		a, err := h.service.UpdateComment(r.Context(), principal(r), id, objectID, req.Comment)
		if err != nil {
			h.responder.WriteError(w, r, err)
			return
		}
		h.responder.WriteJSON(w, r, http.StatusOK, a)
	}
}

func (h projectHandler) deleteMedia() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := int64Param(r, "projectID")
		if err != nil {
			h.responder.WriteError(w, r, err)
			return
		}

		objectID, err := objectIDParam(r)
		if err != nil {
			h.responder.WriteError(w, r, err)
			return
		}

		if err := h.service.DeleteMedia(r.Context(), principal(r), id, objectID); err != nil {
			h.responder.WriteError(w, r, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func (h projectHandler) uploadReport() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := int64Param(r, "projectID")
		if err != nil {
			h.responder.WriteError(w, r, err)
			return
		}

		data, ct, name, err := h.readUpload(w, r, "report")
		if err != nil {
			h.responder.WriteError(w, r, err)
			return
		}

		rep, err := h.service.UploadReport(r.Context(), principal(r), id, data, ct, name)
		if err != nil {
			h.responder.WriteError(w, r, err)
			return
		}
		h.responder.WriteJSON(w, r, http.StatusCreated, rep)
	}
}

func (h projectHandler) deleteReport() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := int64Param(r, "projectID")
		if err != nil {
			h.responder.WriteError(w, r, err)
			return
		}
		reportID, err := int64Param(r, "reportID")
		if err != nil {
			h.responder.WriteError(w, r, err)
			return
		}

		if err := h.service.DeleteReport(r.Context(), principal(r), id, reportID); err != nil {
			h.responder.WriteError(w, r, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}
