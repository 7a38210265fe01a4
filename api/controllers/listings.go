package controllers

import (
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/secondhandhub/marketplace-backend/api/middleware"
	"github.com/secondhandhub/marketplace-backend/api/responses"
	"github.com/secondhandhub/marketplace-backend/api/validators"
	"github.com/secondhandhub/marketplace-backend/internal/listings"
	pkgerrors "github.com/secondhandhub/marketplace-backend/pkg/errors"
	"github.com/secondhandhub/marketplace-backend/pkg/logger"
)

const maxListingFormBytes = 32 << 20

// ListingCreate persists a listing from a multipart form and attaches
// it to the seller profile. A failed attachment still created the
// listing, reported with 207 so clients can tell the outcomes apart.
func ListingCreate(svc listings.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sellerID, err := authedUserID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		sellerName := middleware.UsernameFromContext(r.Context())

		if err := r.ParseMultipartForm(maxListingFormBytes); err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid multipart form"))
			return
		}

		req := listings.CreateListingRequest{
			Title:       strings.TrimSpace(r.FormValue("title")),
			Description: strings.TrimSpace(r.FormValue("description")),
			Location:    strings.TrimSpace(r.FormValue("location")),
			Condition:   strings.TrimSpace(r.FormValue("condition")),
			Category:    strings.TrimSpace(r.FormValue("category")),
		}
		if raw := strings.TrimSpace(r.FormValue("price")); raw != "" {
			price, err := strconv.ParseFloat(raw, 64)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "price must be a number"))
				return
			}
			req.Price = price
		}

		files, closers, err := formUploads(r, "images")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		defer closeAll(closers)
		req.Files = files

		if err := validators.ValidateStruct(&req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		res, err := svc.Create(r.Context(), sellerID, sellerName, req)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if !res.Attached {
			responses.WriteSuccessStatus(w, http.StatusMultiStatus, map[string]any{
				"message": "Listing created but not attached to seller profile",
				"listing": res.Listing,
			})
			return
		}

		responses.WriteSuccess(w, map[string]any{
			"message": "Listing created successfully",
			"listing": res.Listing,
		})
	}
}

// ListingGetAll returns every listing, newest first.
func ListingGetAll(svc listings.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rows, err := svc.GetAll(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, rows)
	}
}

// ListingGetByID returns a single listing.
func ListingGetByID(svc listings.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := listingIDParam(r, "id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		dto, err := svc.GetByID(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, dto)
	}
}

// ListingGetBySeller returns a seller's listings.
func ListingGetBySeller(svc listings.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sellerID, err := listingIDParam(r, "sellerId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		rows, err := svc.GetBySeller(r.Context(), sellerID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, rows)
	}
}

// ListingGetByCategory returns the listings filed under a category.
func ListingGetByCategory(svc listings.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		category := strings.TrimSpace(chi.URLParam(r, "category"))
		if category == "" {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "category is required"))
			return
		}

		rows, err := svc.GetByCategory(r.Context(), category)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, rows)
	}
}

// ListingUpdate edits an owned listing from a multipart form; new
// images are appended.
func ListingUpdate(svc listings.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sellerID, err := authedUserID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		id, err := listingIDParam(r, "id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := r.ParseMultipartForm(maxListingFormBytes); err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid multipart form"))
			return
		}

		var req listings.UpdateListingRequest
		setIfPresent(r, "title", &req.Title)
		setIfPresent(r, "description", &req.Description)
		setIfPresent(r, "location", &req.Location)
		setIfPresent(r, "condition", &req.Condition)
		setIfPresent(r, "category", &req.Category)
		if raw := strings.TrimSpace(r.FormValue("price")); raw != "" {
			price, err := strconv.ParseFloat(raw, 64)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "price must be a number"))
				return
			}
			req.Price = &price
		}

		files, closers, err := formUploads(r, "images")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		defer closeAll(closers)
		req.Files = files

		if err := validators.ValidateStruct(&req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		dto, err := svc.Update(r.Context(), sellerID, id, req)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{
			"message": "Listing updated successfully",
			"listing": dto,
		})
	}
}

// ListingDelete removes an owned listing.
func ListingDelete(svc listings.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sellerID, err := authedUserID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		id, err := listingIDParam(r, "id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.Delete(r.Context(), sellerID, id); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"message": "Listing deleted successfully"})
	}
}

func listingIDParam(r *http.Request, name string) (uuid.UUID, error) {
	raw := strings.TrimSpace(chi.URLParam(r, name))
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid "+name)
	}
	return id, nil
}

func setIfPresent(r *http.Request, field string, dest **string) {
	if _, ok := r.MultipartForm.Value[field]; !ok {
		return
	}
	value := strings.TrimSpace(r.FormValue(field))
	*dest = &value
}

func formUploads(r *http.Request, field string) ([]listings.Upload, []multipart.File, error) {
	if r.MultipartForm == nil {
		return nil, nil, nil
	}

	var uploads []listings.Upload
	var closers []multipart.File
	for _, header := range r.MultipartForm.File[field] {
		file, err := header.Open()
		if err != nil {
			closeAll(closers)
			return nil, nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "reading uploaded file")
		}
		closers = append(closers, file)
		uploads = append(uploads, listings.Upload{
			Filename:    header.Filename,
			ContentType: header.Header.Get("Content-Type"),
			Content:     file,
		})
	}
	return uploads, closers, nil
}

func closeAll(files []multipart.File) {
	for _, f := range files {
		_ = f.Close()
	}
}
