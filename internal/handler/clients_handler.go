package handler

import (
	"net/http"
	"strconv"

	"github.com/boddenberg/realty-portal-bfa/internal/domain"
	"github.com/boddenberg/realty-portal-bfa/internal/service"

	"github.com/go-chi/chi/v5"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

// ============================================================
// Clients
// ============================================================

func listClientsHandler(fetcher *service.Fetcher, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /api/clients")
		defer span.End()

		q := r.URL.Query()
		snap, err := fetcher.Clients(ctx, StoreFromContext(ctx), service.ClientQuery{
			Selection: selectionFrom(r),
			Sort:      q.Get("sort"),
			Search:    q.Get("search"),
		})
		if err != nil {
			handleServiceError(w, r, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, snap)
	}
}

func getClientHandler(clients *service.ClientService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /api/clients/{id}")
		defer span.End()

		c, err := clients.Get(ctx, StoreFromContext(ctx), chi.URLParam(r, "id"))
		if err != nil {
			handleServiceError(w, r, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, c)
	}
}

func createClientHandler(clients *service.ClientService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /api/clients")
		defer span.End()

		var f domain.ClientForm
		if !decodeJSON(w, r, &f) {
			return
		}
		c, err := clients.Create(ctx, StoreFromContext(ctx), f)
		if err != nil {
			handleServiceError(w, r, err, logger)
			return
		}
		writeJSON(w, http.StatusCreated, c)
	}
}

func updateClientHandler(clients *service.ClientService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "PUT /api/clients/{id}")
		defer span.End()

		var f domain.ClientForm
		if !decodeJSON(w, r, &f) {
			return
		}
		c, err := clients.Update(ctx, StoreFromContext(ctx), chi.URLParam(r, "id"), f)
		if err != nil {
			handleServiceError(w, r, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, c)
	}
}

func deleteClientHandler(clients *service.ClientService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "DELETE /api/clients/{id}")
		defer span.End()

		id := chi.URLParam(r, "id")
		if err := clients.Delete(ctx, StoreFromContext(ctx), id); err != nil {
			handleServiceError(w, r, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, domain.SuccessResponse{Message: "client deleted", ID: id})
	}
}

func clientPDFHandler(clients *service.ClientService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /api/clients/{id}/pdf")
		defer span.End()

		id := chi.URLParam(r, "id")
		span.SetAttributes(attribute.String("client.id", id))

		doc, err := clients.PDF(ctx, StoreFromContext(ctx), id)
		if err != nil {
			handleServiceError(w, r, err, logger)
			return
		}
		writeFile(w, doc.ContentType, doc.Filename, doc.Data)
	}
}

func writeFile(w http.ResponseWriter, contentType, filename string, data []byte) {
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", "attachment; filename="+strconv.Quote(filename))
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}
